package semantics

import (
	"strings"

	"github.com/ethtx/ethtx-go/model"
)

// Precompiles indexes the Ethereum precompiled-contract function semantics
// by their 1-byte address (0x01..0x08). Calls to these addresses skip
// selector stripping entirely: the inputs are decoded from the first byte
// of the calldata. "raw" is not a type the codec knows, so a "raw"
// parameter decodes as a single "unknown" 32-byte slot.
var Precompiles = map[string]model.FunctionSemantics{
	"0x0000000000000000000000000000000000000001": {
		Name: "ecrecover",
		Inputs: []model.ParameterSemantics{
			{Name: "hash", Type: "bytes32"},
			{Name: "v", Type: "bytes32"},
			{Name: "r", Type: "bytes32"},
			{Name: "s", Type: "bytes32"},
		},
		Outputs: []model.ParameterSemantics{{Name: "address", Type: "address"}},
	},
	"0x0000000000000000000000000000000000000002": {
		Name:    "sha256",
		Inputs:  []model.ParameterSemantics{{Name: "data", Type: "raw"}},
		Outputs: []model.ParameterSemantics{{Name: "hash", Type: "bytes32"}},
	},
	"0x0000000000000000000000000000000000000003": {
		Name:    "ripemd160",
		Inputs:  []model.ParameterSemantics{{Name: "data", Type: "raw"}},
		Outputs: []model.ParameterSemantics{{Name: "hash", Type: "bytes32"}},
	},
	"0x0000000000000000000000000000000000000004": {
		Name:    "identity",
		Inputs:  []model.ParameterSemantics{{Name: "data", Type: "raw"}},
		Outputs: []model.ParameterSemantics{{Name: "data", Type: "raw"}},
	},
	"0x0000000000000000000000000000000000000005": {
		Name: "modexp",
		Inputs: []model.ParameterSemantics{
			{Name: "base", Type: "raw"},
			{Name: "exp", Type: "raw"},
			{Name: "mod", Type: "raw"},
		},
		Outputs: []model.ParameterSemantics{{Name: "result", Type: "bytes32"}},
	},
	"0x0000000000000000000000000000000000000006": {
		Name: "bn256Add",
		Inputs: []model.ParameterSemantics{
			{Name: "ax", Type: "bytes32"},
			{Name: "ay", Type: "bytes32"},
			{Name: "bx", Type: "bytes32"},
			{Name: "by", Type: "bytes32"},
		},
		Outputs: []model.ParameterSemantics{{Name: "result", Type: "bytes32[2]"}},
	},
	"0x0000000000000000000000000000000000000007": {
		Name: "bn256ScalarMul",
		Inputs: []model.ParameterSemantics{
			{Name: "x", Type: "bytes32"},
			{Name: "y", Type: "bytes32"},
			{Name: "scalar", Type: "bytes32"},
		},
		Outputs: []model.ParameterSemantics{{Name: "result", Type: "bytes32[2]"}},
	},
	"0x0000000000000000000000000000000000000008": {
		Name:    "bn256Pairing",
		Inputs:  []model.ParameterSemantics{{Name: "input", Type: "raw"}},
		Outputs: []model.ParameterSemantics{{Name: "result", Type: "bytes32"}},
	},
}

// IsPrecompile reports whether address is one of the well-known
// precompiled-contract addresses this table covers.
func IsPrecompile(address string) bool {
	_, ok := Precompiles[normalizeAddress(address)]
	return ok
}

func normalizeAddress(address string) string {
	address = strings.ToLower(address)
	if len(address) < 2 || address[:2] != "0x" {
		address = "0x" + address
	}
	return address
}
