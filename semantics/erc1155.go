package semantics

import "github.com/ethtx/ethtx-go/model"

// TransferSingleSignature is the ERC-1155 single-transfer event topic, the
// second event the transfer synthesizer (package transfer) watches for
// alongside the shared ERC20/ERC721 Transfer topic.
const TransferSingleSignature = "0xc3d58168c5ae7397731d063d5bbf3d657854427343f4c083240f7aacaa2d0f62"

var ERC1155Events = map[string]model.EventSemantics{
	TransferSingleSignature: {
		Signature: TransferSingleSignature,
		Name:      "TransferSingle",
		Parameters: []model.ParameterSemantics{
			{Name: "operator", Type: "address", Indexed: true},
			{Name: "from", Type: "address", Indexed: true},
			{Name: "to", Type: "address", Indexed: true},
			{Name: "id", Type: "uint256"},
			{Name: "value", Type: "uint256"},
		},
	},
	"0x4a39dc06d4c0dbc64b70af90fd698a233a518aa5d07e595d983b8c0526c8f7fb": {
		Signature: "0x4a39dc06d4c0dbc64b70af90fd698a233a518aa5d07e595d983b8c0526c8f7fb",
		Name:      "TransferBatch",
		Parameters: []model.ParameterSemantics{
			{Name: "operator", Type: "address", Indexed: true},
			{Name: "from", Type: "address", Indexed: true},
			{Name: "to", Type: "address", Indexed: true},
			{Name: "ids", Type: "uint256[]", Dynamic: true},
			{Name: "values", Type: "uint256[]", Dynamic: true},
		},
	},
	"0x17307eab39ab6107e8899845ad3d59bd9653f200f220920489ca2b5937696c31": {
		Signature: "0x17307eab39ab6107e8899845ad3d59bd9653f200f220920489ca2b5937696c31",
		Name:      "ApprovalForAll",
		Parameters: []model.ParameterSemantics{
			{Name: "account", Type: "address", Indexed: true},
			{Name: "operator", Type: "address", Indexed: true},
			{Name: "approved", Type: "bool"},
		},
	},
	"0x6bb7ff708619ba0610cba295a58592e0451dee2622938c8755667688daf3529b": {
		Signature: "0x6bb7ff708619ba0610cba295a58592e0451dee2622938c8755667688daf3529b",
		Name:      "URI",
		Parameters: []model.ParameterSemantics{
			{Name: "value", Type: "string", Dynamic: true},
			{Name: "id", Type: "uint256", Indexed: true},
		},
	},
}

var ERC1155Functions = map[string]model.FunctionSemantics{
	"0x00fdd58e": {
		Name:    "balanceOf",
		Inputs:  []model.ParameterSemantics{{Name: "account", Type: "address"}, {Name: "id", Type: "uint256"}},
		Outputs: []model.ParameterSemantics{{Name: "balance", Type: "uint256"}},
	},
	"0x4e1273f4": {
		Name: "balanceOfBatch",
		Inputs: []model.ParameterSemantics{
			{Name: "accounts", Type: "address[]", Dynamic: true},
			{Name: "ids", Type: "uint256[]", Dynamic: true},
		},
		Outputs: []model.ParameterSemantics{{Name: "balances", Type: "uint256[]", Dynamic: true}},
	},
	"0xa22cb465": {
		Name:   "setApprovalForAll",
		Inputs: []model.ParameterSemantics{{Name: "operator", Type: "address"}, {Name: "approved", Type: "bool"}},
	},
	"0xe985e9c5": {
		Name:    "isApprovedForAll",
		Inputs:  []model.ParameterSemantics{{Name: "account", Type: "address"}, {Name: "operator", Type: "address"}},
		Outputs: []model.ParameterSemantics{{Name: "approved", Type: "bool"}},
	},
	"0xf242432a": {
		Name: "safeTransferFrom",
		Inputs: []model.ParameterSemantics{
			{Name: "from", Type: "address"},
			{Name: "to", Type: "address"},
			{Name: "id", Type: "uint256"},
			{Name: "amount", Type: "uint256"},
			{Name: "data", Type: "bytes", Dynamic: true},
		},
	},
	"0x2eb2c2d6": {
		Name: "safeBatchTransferFrom",
		Inputs: []model.ParameterSemantics{
			{Name: "from", Type: "address"},
			{Name: "to", Type: "address"},
			{Name: "ids", Type: "uint256[]", Dynamic: true},
			{Name: "amounts", Type: "uint256[]", Dynamic: true},
			{Name: "data", Type: "bytes", Dynamic: true},
		},
	},
}

var erc1155RequiredFunctions = []string{"0x00fdd58e", "0xf242432a", "0x2eb2c2d6", "0xa22cb465"}
var erc1155RequiredEvents = []string{
	TransferSingleSignature,
	"0x4a39dc06d4c0dbc64b70af90fd698a233a518aa5d07e595d983b8c0526c8f7fb",
}
