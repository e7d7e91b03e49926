package semantic

import (
	"fmt"
	"math/big"
	"testing"
)

type stubHelpers struct{}

func (stubHelpers) DecodeCall(contract string, data interface{}) (interface{}, error) {
	return fmt.Sprintf("call(%s,%v)", contract, data), nil
}

func (stubHelpers) DecodeNFT(tokenID interface{}) (interface{}, error) {
	return fmt.Sprintf("nft:%v", tokenID), nil
}

func (stubHelpers) TokenDecimals(contract string) (interface{}, error) {
	return big.NewInt(1000000), nil
}

func TestEval_DivisionByTokenDecimals(t *testing.T) {
	ctx := Context{
		Arguments: map[string]interface{}{"amount": big.NewInt(5_000_000)},
		Contract:  "0xtoken",
		Helpers:   stubHelpers{},
	}
	v, err := Eval("amount / token_decimals(__contract__)", ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	f, ok := v.(*big.Float)
	if !ok {
		t.Fatalf("expected *big.Float result, got %T", v)
	}
	if f.Cmp(big.NewFloat(5)) != 0 {
		t.Fatalf("expected 5, got %v", f)
	}
}

func TestEval_DecodeNFT(t *testing.T) {
	ctx := Context{
		Arguments: map[string]interface{}{"tokenId": big.NewInt(42)},
		Helpers:   stubHelpers{},
	}
	v, err := Eval("decode_nft(tokenId)", ctx)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if v != "nft:42" {
		t.Fatalf("expected nft:42, got %v", v)
	}
}

func TestEval_RejectsUndeclaredCall(t *testing.T) {
	ctx := Context{Arguments: map[string]interface{}{}, Helpers: stubHelpers{}}
	if _, err := Eval("os.Exit(1)", ctx); err == nil {
		t.Fatalf("expected attribute-call expression to be rejected")
	}
}

func TestEval_RejectsUnknownIdentifier(t *testing.T) {
	ctx := Context{Arguments: map[string]interface{}{}, Helpers: stubHelpers{}}
	if _, err := Eval("nonexistent", ctx); err == nil {
		t.Fatalf("expected unknown identifier to be rejected")
	}
}

func TestEval_DivisionByZero(t *testing.T) {
	ctx := Context{Arguments: map[string]interface{}{"a": big.NewInt(1), "b": big.NewInt(0)}, Helpers: stubHelpers{}}
	if _, err := Eval("a / b", ctx); err == nil {
		t.Fatalf("expected division by zero to error")
	}
}
