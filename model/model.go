// Package model holds the data types shared by every decoding stage: the
// semantics describing a contract's ABI, and the decoded output produced by
// walking a transaction's call tree and logs against those semantics.
package model

import (
	"math/big"

	"github.com/shopspring/decimal"
)

// Badge marks an AddressInfo's role relative to the transaction being decoded.
type Badge string

const (
	BadgeNone     Badge = ""
	BadgeSender   Badge = "sender"
	BadgeReceiver Badge = "receiver"
)

// AddressInfo enriches a raw 20-byte address with the best available label
// and its role in the current transaction.
type AddressInfo struct {
	Address string `json:"address"`
	Name    string `json:"name"`
	Badge   Badge  `json:"badge,omitempty"`
}

// ParameterSemantics describes one ABI parameter. Type is an ABI type string
// ("uint256", "bytes32", "string", "address", "tuple", "uint256[]",
// "tuple[3]", ...). Components is populated iff the base type is a tuple.
type ParameterSemantics struct {
	Name       string                `json:"name"`
	Type       string                `json:"type"`
	Components []ParameterSemantics  `json:"components,omitempty"`
	Indexed    bool                  `json:"indexed,omitempty"`
	Dynamic    bool                  `json:"dynamic,omitempty"`
}

// EventSemantics is the resolved shape of a log: its signature, whether it is
// anonymous (topic[0] is not the signature but the first indexed parameter),
// and its ordered parameter list.
type EventSemantics struct {
	Signature  string               `json:"signature"`
	Anonymous  bool                 `json:"anonymous"`
	Name       string               `json:"name"`
	Parameters []ParameterSemantics `json:"parameters"`
}

// FunctionSemantics is the resolved shape of a call: its 4-byte selector and
// ordered input/output parameter lists.
type FunctionSemantics struct {
	Signature string               `json:"signature"`
	Name      string               `json:"name"`
	Inputs    []ParameterSemantics `json:"inputs"`
	Outputs   []ParameterSemantics `json:"outputs"`
}

// TransformationSemantics rewrites a decoded parameter's name/type/value.
// Expression is evaluated by the sandboxed interpreter in package semantic.
type TransformationSemantics struct {
	TransformedName string `json:"transformed_name,omitempty"`
	TransformedType string `json:"transformed_type,omitempty"`
	Transformation  string `json:"transformation,omitempty"`
}

// ContractSemantics is keyed by the Keccak-256 of deployed bytecode, so
// identical code deployed at many addresses shares one record.
type ContractSemantics struct {
	CodeHash        string                                        `json:"code_hash"`
	Name            string                                        `json:"name"`
	Events          map[string]EventSemantics                     `json:"events"`
	Functions       map[string]FunctionSemantics                  `json:"functions"`
	Transformations map[string]map[string]TransformationSemantics `json:"transformations,omitempty"`
}

// Standard is an inferred token interface.
type Standard string

const (
	StandardUnknown Standard = ""
	StandardERC20   Standard = "ERC20"
	StandardERC721  Standard = "ERC721"
	StandardERC1155 Standard = "ERC1155"
)

// ERC20Info carries token metadata once a contract is classified ERC-20 (or
// an ERC-20-compatible proxy implementation).
type ERC20Info struct {
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Decimals uint8  `json:"decimals"`
}

// AddressSemantics is chain-scoped and owned exclusively by its address; the
// ContractSemantics it points to is shared by reference with every other
// address running identical bytecode.
type AddressSemantics struct {
	ChainID    string             `json:"chain_id"`
	Address    string             `json:"address"`
	Name       string             `json:"name"`
	IsContract bool               `json:"is_contract"`
	Contract   ContractSemantics  `json:"contract"`
	Standard   Standard           `json:"standard,omitempty"`
	ERC20      *ERC20Info         `json:"erc20,omitempty"`
}

// SignatureArg is one positional argument of a guessed Signature.
type SignatureArg struct {
	Name string `json:"name"`
	Type string `json:"type"`
}

// Signature is a 4-byte-selector index entry. Several rows may share Hash
// (homonymous selectors with different argument shapes); resolution prefers
// the highest-Count non-guessed entry.
type Signature struct {
	Hash    string         `json:"hash"`
	Name    string         `json:"name"`
	Args    []SignatureArg `json:"args"`
	Count   int            `json:"count"`
	Tuple   bool           `json:"tuple"`
	Guessed bool           `json:"guessed"`
}

// ProxyKind classifies how a delegatecall edge was established.
type ProxyKind string

const (
	ProxyGeneric      ProxyKind = "Generic"
	ProxyEIP1967Proxy ProxyKind = "EIP1967Proxy"
	ProxyEIP1967Beacon ProxyKind = "EIP1967Beacon"
)

// Proxy records a delegator address, the kind of proxy pattern it matches,
// and the semantics of every delegate observed in the call tree (in the
// order their delegatecall edges were first seen).
type Proxy struct {
	Address         string             `json:"address"`
	Name            string             `json:"name"`
	Kind            ProxyKind          `json:"kind"`
	Implementations []AddressSemantics `json:"implementations"`
	Token           *ERC20Info         `json:"token,omitempty"`
}

// ArgValue is the value carried by a decoded Argument. It is one of:
// *big.Int (uint/int), bool, string (string/bytes/unknown hex), AddressInfo
// (address), []Argument (tuple or list of arguments).
type ArgValue interface{}

// Argument is one decoded (or transformed) parameter.
type Argument struct {
	Name  string   `json:"name"`
	Type  string   `json:"type"`
	Value ArgValue `json:"value"`
}

// CallType mirrors the EVM call-kind reported by the tracer.
type CallType string

const (
	CallTypeCall         CallType = "call"
	CallTypeStaticCall   CallType = "staticcall"
	CallTypeDelegateCall CallType = "delegatecall"
	CallTypeCallCode     CallType = "callcode"
	CallTypeCreate       CallType = "create"
	CallTypeCreate2      CallType = "create2"
	CallTypeSelfDestruct CallType = "selfdestruct"
)

// DecodedCall is one node of the decoded call tree.
type DecodedCall struct {
	ChainID           string        `json:"chain_id"`
	TxHash            string        `json:"tx_hash"`
	CallID            string        `json:"call_id"`
	CallType          CallType      `json:"call_type"`
	FromAddress       AddressInfo   `json:"from_address"`
	ToAddress         AddressInfo   `json:"to_address"`
	ValueEther        *big.Float    `json:"value_ether"`
	FunctionSignature string        `json:"function_signature"`
	FunctionName      string        `json:"function_name"`
	Arguments         []Argument    `json:"arguments"`
	Outputs           []Argument    `json:"outputs"`
	GasUsed           uint64        `json:"gas_used"`
	Error             string        `json:"error,omitempty"`
	Status            bool          `json:"status"`
	Indent            int           `json:"indent"`
	Subcalls          []DecodedCall `json:"subcalls,omitempty"`
	FunctionGuessed   bool          `json:"function_guessed"`
}

// DecodedEvent is one decoded log.
type DecodedEvent struct {
	ChainID         string      `json:"chain_id"`
	TxHash          string      `json:"tx_hash"`
	Timestamp       uint64      `json:"timestamp"`
	Contract        AddressInfo `json:"contract"`
	Index           uint        `json:"index"`
	CallID          string      `json:"call_id"`
	EventSignature  string      `json:"event_signature"`
	EventName       string      `json:"event_name"`
	Parameters      []Argument  `json:"parameters"`
	EventGuessed    bool        `json:"event_guessed"`
}

// DecodedTransfer is one ETH/ERC-20/ERC-721/ERC-1155 value movement
// extracted from the call tree or event log. Value is already scaled by the
// token's decimals (ETH and NFT counts carry their own natural scale).
type DecodedTransfer struct {
	FromAddress   AddressInfo     `json:"from_address"`
	ToAddress     AddressInfo     `json:"to_address"`
	TokenAddress  string          `json:"token_address"`
	TokenSymbol   string          `json:"token_symbol"`
	TokenStandard string          `json:"token_standard"`
	Value         decimal.Decimal `json:"value"`
}

// BalanceEntry is one token's net delta for a holder.
type BalanceEntry struct {
	TokenAddress  string          `json:"token_address"`
	TokenSymbol   string          `json:"token_symbol"`
	TokenStandard string          `json:"token_standard"`
	Balance       decimal.Decimal `json:"balance"`
}

// DecodedBalance is one holder's aggregated per-token deltas.
type DecodedBalance struct {
	Holder AddressInfo    `json:"holder"`
	Tokens []BalanceEntry `json:"tokens"`
}

// DecodedTransactionMetadata is the transaction+block context every decoding
// stage reads from (sender/receiver badges, gas price in gwei, timestamp).
type DecodedTransactionMetadata struct {
	ChainID     string      `json:"chain_id"`
	TxHash      string      `json:"tx_hash"`
	BlockNumber uint64      `json:"block_number"`
	BlockHash   string      `json:"block_hash"`
	Timestamp   uint64      `json:"timestamp"`
	GasPrice    *big.Float  `json:"gas_price_gwei"`
	FromAddress AddressInfo `json:"from_address"`
	ToAddress   AddressInfo `json:"to_address"`
	Sender      AddressInfo `json:"sender"`
	Receiver    AddressInfo `json:"receiver"`
	TxIndex     uint        `json:"tx_index"`
	TxValue     *big.Float  `json:"tx_value"`
	GasLimit    uint64      `json:"gas_limit"`
	GasUsed     uint64      `json:"gas_used"`
	Success     bool        `json:"success"`
}

// DecodedTransaction is the fully enriched output of the pipeline.
type DecodedTransaction struct {
	Metadata  DecodedTransactionMetadata `json:"metadata"`
	Events    []DecodedEvent             `json:"events"`
	Calls     DecodedCall                `json:"calls"`
	Transfers []DecodedTransfer          `json:"transfers"`
	Balances  []DecodedBalance           `json:"balances"`
	Status    bool                       `json:"status"`
}
