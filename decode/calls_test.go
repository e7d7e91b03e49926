package decode

import (
	"math/big"
	"testing"

	"github.com/ethtx/ethtx-go/model"
)

func TestPruneDelegates_CollapsesSingleChild(t *testing.T) {
	leaf := model.DecodedCall{
		CallType:   model.CallTypeDelegateCall,
		ValueEther: big.NewFloat(0),
		FunctionName: "transfer",
	}
	wrapper := model.DecodedCall{
		CallType:   model.CallTypeCall,
		ValueEther: big.NewFloat(1.5),
		CallID:     "_0001",
		Subcalls:   []model.DecodedCall{leaf},
	}

	pruned := PruneDelegates(wrapper)

	if pruned.FunctionName != "transfer" {
		t.Fatalf("expected collapsed node to be the delegate, got function %q", pruned.FunctionName)
	}
	if pruned.ValueEther.Cmp(big.NewFloat(1.5)) != 0 {
		t.Fatalf("expected delegate to inherit parent value 1.5, got %v", pruned.ValueEther)
	}
	if pruned.CallID != "_0001" {
		t.Fatalf("expected delegate to inherit parent call id, got %q", pruned.CallID)
	}
	if len(pruned.Subcalls) != 0 {
		t.Fatalf("expected no subcalls after collapse, got %d", len(pruned.Subcalls))
	}
}

func TestPruneDelegates_Idempotent(t *testing.T) {
	leaf := model.DecodedCall{CallType: model.CallTypeDelegateCall, ValueEther: big.NewFloat(0)}
	wrapper := model.DecodedCall{CallType: model.CallTypeCall, ValueEther: big.NewFloat(2), Subcalls: []model.DecodedCall{leaf}}

	once := PruneDelegates(wrapper)
	twice := PruneDelegates(once)

	if once.FunctionName != twice.FunctionName || len(once.Subcalls) != len(twice.Subcalls) {
		t.Fatalf("pruning is not idempotent: once=%+v twice=%+v", once, twice)
	}
}

func TestPruneDelegates_LeavesMultiChildNodeAlone(t *testing.T) {
	a := model.DecodedCall{CallType: model.CallTypeDelegateCall}
	b := model.DecodedCall{CallType: model.CallTypeCall}
	parent := model.DecodedCall{CallType: model.CallTypeCall, Subcalls: []model.DecodedCall{a, b}}

	pruned := PruneDelegates(parent)

	if len(pruned.Subcalls) != 2 {
		t.Fatalf("expected both children preserved when parent has more than one subcall, got %d", len(pruned.Subcalls))
	}
}
