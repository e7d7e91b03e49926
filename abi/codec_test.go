package abi

import (
	"encoding/hex"
	"math/big"
	"testing"

	"github.com/ethtx/ethtx-go/model"
)

func padLeftHex(n int64, hexLen int) string {
	h := big.NewInt(n).Text(16)
	for len(h) < hexLen {
		h = "0" + h
	}
	return h
}

// S1: data = "0x" + padleft_hex(42,64), abi = [{uint256 x}] -> [{x, uint256, 42}]
func TestDecodeStruct_StaticUint(t *testing.T) {
	data, err := hex.DecodeString(padLeftHex(42, 64))
	if err != nil {
		t.Fatal(err)
	}
	params := []model.ParameterSemantics{{Name: "x", Type: "uint256"}}
	args := DecodeStruct(data, params)
	if len(args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(args))
	}
	v, ok := args[0].Value.(*big.Int)
	if !ok {
		t.Fatalf("expected *big.Int, got %T", args[0].Value)
	}
	if v.Int64() != 42 {
		t.Fatalf("expected 42, got %s", v.String())
	}
	if args[0].Name != "x" || args[0].Type != "uint256" {
		t.Fatalf("unexpected name/type: %+v", args[0])
	}
}

// S2: data = pad(0,64)+pad(1,64), abi = [{bool a},{bool b}] -> [false, true]
func TestDecodeStruct_Bools(t *testing.T) {
	data, err := hex.DecodeString(padLeftHex(0, 64) + padLeftHex(1, 64))
	if err != nil {
		t.Fatal(err)
	}
	params := []model.ParameterSemantics{{Name: "a", Type: "bool"}, {Name: "b", Type: "bool"}}
	args := DecodeStruct(data, params)
	if len(args) != 2 {
		t.Fatalf("expected 2 args, got %d", len(args))
	}
	if args[0].Value != false {
		t.Fatalf("expected a=false, got %v", args[0].Value)
	}
	if args[1].Value != true {
		t.Fatalf("expected b=true, got %v", args[1].Value)
	}
}

// S3: data encodes "hello" at offset 0x20, length 5 -> value == "hello"
func TestDecodeStruct_String(t *testing.T) {
	offset := padLeftHex(0x20, 64)
	length := padLeftHex(5, 64)
	helloHex := hex.EncodeToString([]byte("hello"))
	padded := helloHex + "0000000000000000000000000000000000000000000000000000000000000000"[:64-len(helloHex)]
	data, err := hex.DecodeString(offset + length + padded)
	if err != nil {
		t.Fatal(err)
	}
	params := []model.ParameterSemantics{{Name: "s", Type: "string", Dynamic: true}}
	args := DecodeStruct(data, params)
	if len(args) != 1 {
		t.Fatalf("expected 1 arg, got %d", len(args))
	}
	if args[0].Value != "hello" {
		t.Fatalf("expected hello, got %v", args[0].Value)
	}
}

// Property 1: canonical signature round-trip for fully-static inputs.
func TestRoundTrip_StaticTypes(t *testing.T) {
	cases := []struct {
		typ   string
		value interface{}
	}{
		{"uint256", big.NewInt(123456789)},
		{"int256", big.NewInt(-42)},
		{"bool", true},
		{"address", "0x0000000000000000000000000000000000000001"},
		{"bytes4", "0xdeadbeef"},
	}
	for _, c := range cases {
		slot, err := EncodeStaticArgument(c.value, c.typ)
		if err != nil {
			t.Fatalf("%s: encode error: %v", c.typ, err)
		}
		decoded, err := DecodeStaticArgument(slot, c.typ)
		if err != nil {
			t.Fatalf("%s: decode error: %v", c.typ, err)
		}
		switch want := c.value.(type) {
		case *big.Int:
			got, ok := decoded.(*big.Int)
			if !ok || got.Cmp(want) != 0 {
				t.Fatalf("%s: round-trip mismatch, want %v got %v", c.typ, want, decoded)
			}
		case bool:
			if decoded != want {
				t.Fatalf("%s: round-trip mismatch, want %v got %v", c.typ, want, decoded)
			}
		case string:
			if decoded != want {
				t.Fatalf("%s: round-trip mismatch, want %v got %v", c.typ, want, decoded)
			}
		}
	}
}

func TestDecodeStruct_MalformedDegradesToUnknown(t *testing.T) {
	// short data: a single truncated slot.
	data := []byte{0x01, 0x02}
	params := []model.ParameterSemantics{{Name: "x", Type: "uint256"}}
	args := DecodeStruct(data, params)
	if len(args) != 1 {
		t.Fatalf("expected 1 arg even for short data, got %d", len(args))
	}
	// short data still parses as a valid (zero-padded) uint256, not unknown;
	// the degrade path is exercised by a bad dynamic offset instead.
	badOffsetData := make([]byte, 32)
	badOffsetData[31] = 0xff // huge offset, out of range
	dynParams := []model.ParameterSemantics{{Name: "s", Type: "string", Dynamic: true}}
	dynArgs := DecodeStruct(badOffsetData, dynParams)
	if len(dynArgs) != 1 || dynArgs[0].Type != "unknown" {
		t.Fatalf("expected unknown arg for bad offset, got %+v", dynArgs)
	}
}
