package semantics

import "github.com/ethtx/ethtx-go/model"

// ERC721Events shares its Transfer/Approval topic hashes with ERC20Events —
// the canonical signature strings are identical, only the indexed-topic
// count differs (all three Transfer fields are indexed here).
var ERC721Events = map[string]model.EventSemantics{
	"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef": {
		Signature: "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
		Name:      "Transfer",
		Parameters: []model.ParameterSemantics{
			{Name: "from", Type: "address", Indexed: true},
			{Name: "to", Type: "address", Indexed: true},
			{Name: "tokenId", Type: "uint256", Indexed: true},
		},
	},
	"0x8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925": {
		Signature: "0x8c5be1e5ebec7d5bd14f71427d1e84f3dd0314c0f7b2291e5b200ac8c7c3b925",
		Name:      "Approval",
		Parameters: []model.ParameterSemantics{
			{Name: "owner", Type: "address", Indexed: true},
			{Name: "approved", Type: "address", Indexed: true},
			{Name: "tokenId", Type: "uint256", Indexed: true},
		},
	},
	"0x17307eab39ab6107e8899845ad3d59bd9653f200f220920489ca2b5937696c31": {
		Signature: "0x17307eab39ab6107e8899845ad3d59bd9653f200f220920489ca2b5937696c31",
		Name:      "ApprovalForAll",
		Parameters: []model.ParameterSemantics{
			{Name: "owner", Type: "address", Indexed: true},
			{Name: "operator", Type: "address", Indexed: true},
			{Name: "approved", Type: "bool"},
		},
	},
}

// ERC721Functions is keyed by 4-byte selector. transferFrom, approve, and
// balanceOf intentionally collide with the ERC20Functions entries of the
// same name: the interfaces share those selectors by design, which is why
// standard classification (§4.2) requires full set membership rather than
// any single selector.
var ERC721Functions = map[string]model.FunctionSemantics{
	"0x6352211e": {
		Name:    "ownerOf",
		Inputs:  []model.ParameterSemantics{{Name: "tokenId", Type: "uint256"}},
		Outputs: []model.ParameterSemantics{{Name: "owner", Type: "address"}},
	},
	"0x42842e0e": {
		Name: "safeTransferFrom",
		Inputs: []model.ParameterSemantics{
			{Name: "from", Type: "address"},
			{Name: "to", Type: "address"},
			{Name: "tokenId", Type: "uint256"},
		},
	},
	"0xb88d4fde": {
		Name: "safeTransferFrom",
		Inputs: []model.ParameterSemantics{
			{Name: "from", Type: "address"},
			{Name: "to", Type: "address"},
			{Name: "tokenId", Type: "uint256"},
			{Name: "data", Type: "bytes", Dynamic: true},
		},
	},
	"0x23b872dd": {
		Name: "transferFrom",
		Inputs: []model.ParameterSemantics{
			{Name: "from", Type: "address"},
			{Name: "to", Type: "address"},
			{Name: "tokenId", Type: "uint256"},
		},
	},
	"0x095ea7b3": {
		Name:   "approve",
		Inputs: []model.ParameterSemantics{{Name: "to", Type: "address"}, {Name: "tokenId", Type: "uint256"}},
	},
	"0xa22cb465": {
		Name:   "setApprovalForAll",
		Inputs: []model.ParameterSemantics{{Name: "operator", Type: "address"}, {Name: "approved", Type: "bool"}},
	},
	"0x081812fc": {
		Name:    "getApproved",
		Inputs:  []model.ParameterSemantics{{Name: "tokenId", Type: "uint256"}},
		Outputs: []model.ParameterSemantics{{Name: "operator", Type: "address"}},
	},
	"0xe985e9c5": {
		Name:    "isApprovedForAll",
		Inputs:  []model.ParameterSemantics{{Name: "owner", Type: "address"}, {Name: "operator", Type: "address"}},
		Outputs: []model.ParameterSemantics{{Name: "approved", Type: "bool"}},
	},
	"0x70a08231": {
		Name:    "balanceOf",
		Inputs:  []model.ParameterSemantics{{Name: "owner", Type: "address"}},
		Outputs: []model.ParameterSemantics{{Name: "balance", Type: "uint256"}},
	},
}

// ERC721Transformations formats a tokenId-bearing parameter as an NFT
// identity string rather than a raw integer, matching the transfer
// synthesizer's NFT formatting (package transfer).
var ERC721Transformations = map[string]map[string]model.TransformationSemantics{
	"0x6352211e": {
		"tokenId": {Transformation: "decode_nft(tokenId)"},
	},
}

var erc721RequiredFunctions = []string{"0x6352211e", "0x42842e0e", "0xa22cb465", "0x081812fc"}
var erc721RequiredEvents = []string{
	"0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef",
	"0x17307eab39ab6107e8899845ad3d59bd9653f200f220920489ca2b5937696c31",
}
