package semantics

import "github.com/ethtx/ethtx-go/model"

// ERC20Events is keyed by event signature (topic0). Transfer and Approval
// share their topic hash with the ERC-721 events of the same name and
// argument types; disambiguation is by indexed-topic count, done by the
// caller (package decode), not here.
var ERC20Events = map[string]model.EventSemantics{
	"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef": {
		Signature: "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
		Name:      "Transfer",
		Parameters: []model.ParameterSemantics{
			{Name: "from", Type: "address", Indexed: true},
			{Name: "to", Type: "address", Indexed: true},
			{Name: "value", Type: "uint256"},
		},
	},
	"0x8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925": {
		Signature: "0x8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925",
		Name:      "Approval",
		Parameters: []model.ParameterSemantics{
			{Name: "owner", Type: "address", Indexed: true},
			{Name: "spender", Type: "address", Indexed: true},
			{Name: "value", Type: "uint256"},
		},
	},
}

// ERC20Functions is keyed by 4-byte selector.
var ERC20Functions = map[string]model.FunctionSemantics{
	"0xa9059cbb": {
		Name:    "transfer",
		Inputs:  []model.ParameterSemantics{{Name: "to", Type: "address"}, {Name: "amount", Type: "uint256"}},
		Outputs: []model.ParameterSemantics{{Name: "success", Type: "bool"}},
	},
	"0x23b872dd": {
		Name: "transferFrom",
		Inputs: []model.ParameterSemantics{
			{Name: "from", Type: "address"},
			{Name: "to", Type: "address"},
			{Name: "amount", Type: "uint256"},
		},
		Outputs: []model.ParameterSemantics{{Name: "success", Type: "bool"}},
	},
	"0x095ea7b3": {
		Name:    "approve",
		Inputs:  []model.ParameterSemantics{{Name: "spender", Type: "address"}, {Name: "amount", Type: "uint256"}},
		Outputs: []model.ParameterSemantics{{Name: "success", Type: "bool"}},
	},
	"0x70a08231": {
		Name:    "balanceOf",
		Inputs:  []model.ParameterSemantics{{Name: "account", Type: "address"}},
		Outputs: []model.ParameterSemantics{{Name: "balance", Type: "uint256"}},
	},
	"0x18160ddd": {
		Name:    "totalSupply",
		Outputs: []model.ParameterSemantics{{Name: "supply", Type: "uint256"}},
	},
	"0x06fdde03": {
		Name:    "name",
		Outputs: []model.ParameterSemantics{{Name: "name", Type: "string", Dynamic: true}},
	},
	"0x95d89b41": {
		Name:    "symbol",
		Outputs: []model.ParameterSemantics{{Name: "symbol", Type: "string", Dynamic: true}},
	},
	"0x313ce567": {
		Name:    "decimals",
		Outputs: []model.ParameterSemantics{{Name: "decimals", Type: "uint8"}},
	},
}

// ERC20Transformations applies the standard "divide by token decimals"
// convention to the amount of transfer/transferFrom and the balance output
// of balanceOf, matching the original project's
// __input2__ / 10**token_decimals(__contract__) transformation. The
// Transfer event is not listed: its raw value is scaled by the transfer
// synthesizer (package transfer) instead.
var ERC20Transformations = map[string]map[string]model.TransformationSemantics{
	"0xa9059cbb": {
		"amount": {Transformation: "amount / token_decimals(__contract__)"},
	},
	"0x23b872dd": {
		"amount": {Transformation: "amount / token_decimals(__contract__)"},
	},
	"0x70a08231": {
		"balance": {Transformation: "balance / token_decimals(__contract__)"},
	},
}

// Stamp selectors that make a contract's function set ERC-20-complete, and
// the events that make its event set ERC-20-complete, for use by the
// repository's standard classification (§4.2).
var erc20RequiredFunctions = []string{"0xa9059cbb", "0x23b872dd", "0x095ea7b3", "0x70a08231"}
var erc20RequiredEvents = []string{
	"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
	"0x8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925",
}
