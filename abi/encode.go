package abi

import (
	"encoding/hex"
	"fmt"
	"math/big"
	"strconv"
	"strings"
)

// EncodeStaticArgument encodes a single static value back into its 32-byte
// slot. It supports exactly the static primitive types DecodeStaticArgument
// produces, and exists to verify the round-trip property for fully-static
// function signatures (every value decoded from a static slot can be
// re-encoded to the same slot).
func EncodeStaticArgument(value interface{}, typ string) ([]byte, error) {
	slot := make([]byte, slotSize)
	switch {
	case typ == "address":
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("address value must be string, got %T", value)
		}
		b, err := hexBytes(s)
		if err != nil {
			return nil, err
		}
		copy(slot[slotSize-len(b):], b)
		return slot, nil
	case strings.HasPrefix(typ, "uint"):
		v, ok := value.(*big.Int)
		if !ok {
			return nil, fmt.Errorf("uint value must be *big.Int, got %T", value)
		}
		b := v.Bytes()
		if len(b) > slotSize {
			return nil, fmt.Errorf("value overflows slot")
		}
		copy(slot[slotSize-len(b):], b)
		return slot, nil
	case strings.HasPrefix(typ, "int"):
		v, ok := value.(*big.Int)
		if !ok {
			return nil, fmt.Errorf("int value must be *big.Int, got %T", value)
		}
		u := new(big.Int).Set(v)
		if u.Sign() < 0 {
			u.Add(u, new(big.Int).Lsh(big.NewInt(1), 256))
		}
		b := u.Bytes()
		copy(slot[slotSize-len(b):], b)
		return slot, nil
	case typ == "bool":
		v, ok := value.(bool)
		if !ok {
			return nil, fmt.Errorf("bool value must be bool, got %T", value)
		}
		if v {
			slot[slotSize-1] = 1
		}
		return slot, nil
	case strings.HasPrefix(typ, "bytes") && typ != "bytes":
		n, err := strconv.Atoi(strings.TrimPrefix(typ, "bytes"))
		if err != nil || n <= 0 || n > 32 {
			return nil, fmt.Errorf("invalid fixed bytes type: %s", typ)
		}
		s, ok := value.(string)
		if !ok {
			return nil, fmt.Errorf("bytesN value must be string, got %T", value)
		}
		b, err := hexBytes(s)
		if err != nil {
			return nil, err
		}
		copy(slot, b)
		return slot, nil
	default:
		return nil, fmt.Errorf("unsupported static type for encoding: %s", typ)
	}
}

func hexBytes(s string) ([]byte, error) {
	s = strings.TrimPrefix(s, "0x")
	if len(s)%2 != 0 {
		s = "0" + s
	}
	return hex.DecodeString(s)
}

// EncodeStruct encodes a list of fully-static values in declaration order,
// concatenating their slots. Used by the round-trip test; dynamic types are
// rejected since the codec test only asserts the static-input property.
func EncodeStruct(values []interface{}, types []string) ([]byte, error) {
	if len(values) != len(types) {
		return nil, fmt.Errorf("values/types length mismatch")
	}
	out := make([]byte, 0, len(values)*slotSize)
	for i, v := range values {
		slot, err := EncodeStaticArgument(v, types[i])
		if err != nil {
			return nil, fmt.Errorf("arg %d: %w", i, err)
		}
		out = append(out, slot...)
	}
	return out, nil
}
