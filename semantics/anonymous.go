package semantics

import "github.com/ethtx/ethtx-go/model"

// Maker's LogNote is the canonical anonymous-event pattern: topic[0] is not
// the event signature but the first indexed parameter (a 4-byte function
// selector, left-padded to 32 bytes). Two historical variants exist; both
// ignore their indexed scratch fields and decode "data" as a nested call.
var (
	LogNoteV1 = model.EventSemantics{
		Signature: "0xd3ff30f94bb4ebb4f3d773ea26b6efc7328b9766f99f19dff6f01392138be46d",
		Anonymous: true,
		Name:      "LogNote",
		Parameters: []model.ParameterSemantics{
			{Name: "sig", Type: "bytes4", Indexed: true},
			{Name: "arg1", Type: "bytes32", Indexed: true},
			{Name: "arg2", Type: "bytes32", Indexed: true},
			{Name: "arg3", Type: "bytes32", Indexed: true},
			{Name: "data", Type: "bytes", Dynamic: true},
		},
	}

	LogNoteV2 = model.EventSemantics{
		Signature: "0xd3d8bec38a91a5f4411247483bc030a174e77cda9c0351924c759f41453aa5e8",
		Anonymous: true,
		Name:      "LogNote",
		Parameters: []model.ParameterSemantics{
			{Name: "sig", Type: "bytes4", Indexed: true},
			{Name: "user", Type: "address", Indexed: true},
			{Name: "arg1", Type: "bytes32", Indexed: true},
			{Name: "arg2", Type: "bytes32", Indexed: true},
			{Name: "data", Type: "bytes", Dynamic: true},
		},
	}
)

var logNoteTransformation = map[string]model.TransformationSemantics{
	"sig":  {TransformedType: "ignore"},
	"arg1": {TransformedType: "ignore"},
	"arg2": {TransformedType: "ignore"},
	"arg3": {TransformedType: "ignore"},
	"user": {TransformedType: "ignore"},
	"data": {TransformedType: "call", Transformation: "decode_call(__contract__, data)"},
}

// AnonymousEventAmendments maps signature to the built-in anonymous event
// patterns this module ships, keyed exactly like ContractSemantics.Events.
// Amend does not read this map; it merges the same two events through the
// Amendments table (§4.2.2).
var AnonymousEventAmendments = map[string]model.EventSemantics{
	LogNoteV1.Signature: LogNoteV1,
	LogNoteV2.Signature: LogNoteV2,
}
