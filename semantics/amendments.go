package semantics

import "github.com/ethtx/ethtx-go/model"

// Amendment is a static per-contract overlay: extra events/functions/
// transformations injected into a ContractSemantics (§4.2.2). The
// repository applies it when it builds or loads a contract's semantics, and
// the merged result is what it caches and persists.
type Amendment struct {
	Events          map[string]model.EventSemantics
	Functions       map[string]model.FunctionSemantics
	Transformations map[string]map[string]model.TransformationSemantics
}

// Amendments is keyed by code_hash. The one entry shipped here illustrates
// the mechanism with the concrete anonymous-event pattern from §9's
// supplemented features (Maker's LogNote): any contract sharing this
// bytecode hash gets both LogNote variants merged into its event table with
// their ignore/decode_call transformations, on top of whatever its own
// verified ABI already declares.
var Amendments = map[string]Amendment{
	makerLogNoteCodeHash: {
		Events: map[string]model.EventSemantics{
			LogNoteV1.Signature: LogNoteV1,
			LogNoteV2.Signature: LogNoteV2,
		},
		Transformations: map[string]map[string]model.TransformationSemantics{
			LogNoteV1.Signature: logNoteTransformation,
			LogNoteV2.Signature: logNoteTransformation,
		},
	},
}

// makerLogNoteCodeHash identifies the MakerDAO auth-pattern bytecode that
// emits LogNote; it stands in for the exact deployed-code hash, which is an
// operational detail (differs per compiler version/optimizer settings) that
// would normally be captured the first time such a contract is indexed.
const makerLogNoteCodeHash = "0xmaker-authority-lognote-v1"

// Amend merges the amendment registered for codeHash (if any) into contract,
// without mutating any shared/cached copy the caller might still hold.
func Amend(contract model.ContractSemantics) model.ContractSemantics {
	amendment, ok := Amendments[contract.CodeHash]
	if !ok {
		return contract
	}

	events := make(map[string]model.EventSemantics, len(contract.Events)+len(amendment.Events))
	for k, v := range contract.Events {
		events[k] = v
	}
	for k, v := range amendment.Events {
		if _, exists := events[k]; !exists {
			events[k] = v
		}
	}

	functions := make(map[string]model.FunctionSemantics, len(contract.Functions)+len(amendment.Functions))
	for k, v := range contract.Functions {
		functions[k] = v
	}
	for k, v := range amendment.Functions {
		if _, exists := functions[k]; !exists {
			functions[k] = v
		}
	}

	transformations := make(map[string]map[string]model.TransformationSemantics, len(contract.Transformations)+len(amendment.Transformations))
	for k, v := range contract.Transformations {
		transformations[k] = v
	}
	for k, v := range amendment.Transformations {
		if _, exists := transformations[k]; !exists {
			transformations[k] = v
		}
	}

	contract.Events = events
	contract.Functions = functions
	contract.Transformations = transformations
	return contract
}
