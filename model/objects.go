package model

import "math/big"

// Call is one raw frame of a call trace, as produced by the node's custom
// tracer (see the node provider in package providers). Nested calls are
// preserved in the order the tracer reports them.
type Call struct {
	CallType   CallType
	FromAddress string
	ToAddress   string
	CallData    string // hex, no 0x
	ReturnValue string // hex, no 0x
	Value       *big.Int
	Gas         uint64
	GasUsed     uint64
	Status      bool
	Error       string
	CallID      string
	Indent      int
	Subcalls    []*Call
}

// Event is one raw log entry.
type Event struct {
	Contract string
	Topics   []string // hex, 0x-prefixed; may contain empty strings for removed topics
	LogData  string   // hex, no 0x
	LogIndex uint
	CallID   string
}

// BlockMetadata is the minimal block context a decode needs.
type BlockMetadata struct {
	BlockNumber uint64
	BlockHash   string
	Timestamp   uint64
}

// TransactionMetadata is the minimal transaction context a decode needs,
// independent of any particular node client's transaction/receipt types.
type TransactionMetadata struct {
	TxHash      string
	TxIndex     uint
	FromAddress string
	ToAddress   string
	Value       *big.Int
	GasPrice    *big.Int
	GasLimit    uint64
	GasUsed     uint64
	Status      bool
}
