// Package abi implements the Ethereum ABI v2 parameter codec: decoding a
// byte string against a ParameterSemantics tree into typed Arguments, and
// encoding static arguments back to bytes for round-trip verification.
//
// The codec never fails outright on malformed input (short data, bad
// offsets, invalid UTF-8): it degrades a slot it cannot make sense of into
// an "unknown"-typed Argument carrying the raw hex, and keeps going.
package abi

import (
	"fmt"
	"math/big"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"github.com/ethtx/ethtx-go/model"
)

const slotSize = 32

var fixedArrayRe = regexp.MustCompile(`\[(\d+)\]$`)

func isDynamicArray(typ string) bool {
	return strings.HasSuffix(typ, "[]")
}

func fixedArrayLen(typ string) (int, bool) {
	m := fixedArrayRe.FindStringSubmatch(typ)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	return n, true
}

func arrayElemType(typ string) string {
	if idx := strings.LastIndex(typ, "["); idx >= 0 {
		return typ[:idx]
	}
	return typ
}

func isDynamicElemType(typ string) bool {
	return typ == "bytes" || typ == "string"
}

// readSlot returns 32 bytes starting at pos, zero-padded if data is short.
func readSlot(data []byte, pos int) []byte {
	slot := make([]byte, slotSize)
	if pos < 0 || pos >= len(data) {
		return slot
	}
	end := pos + slotSize
	if end > len(data) {
		end = len(data)
	}
	copy(slot, data[pos:end])
	return slot
}

func readUint256(slot []byte) *big.Int {
	return new(big.Int).SetBytes(slot)
}

func readOffset(data []byte, pos int) (int, bool) {
	slot := readSlot(data, pos)
	off := readUint256(slot)
	if !off.IsInt64() {
		return 0, false
	}
	o := int(off.Int64())
	if o < 0 || o > len(data) {
		return 0, false
	}
	return o, true
}

func hexOf(b []byte) string {
	return "0x" + fmt.Sprintf("%x", b)
}

func unknownArg(name string, slot []byte) model.Argument {
	return model.Argument{Name: name, Type: "unknown", Value: hexOf(slot)}
}

// DecodeStaticArgument decodes a single 32-byte slot per the semantic type.
func DecodeStaticArgument(slot []byte, typ string) (model.ArgValue, error) {
	switch {
	case typ == "address":
		return "0x" + fmt.Sprintf("%x", slot[slotSize-20:]), nil
	case strings.HasPrefix(typ, "uint"):
		return readUint256(slot), nil
	case strings.HasPrefix(typ, "int"):
		v := readUint256(slot)
		// slots are sign-extended by the EVM to fill all 32 bytes, so the
		// sign bit to test is always bit 255 regardless of the declared width.
		if v.Bit(255) == 1 {
			v.Sub(v, new(big.Int).Lsh(big.NewInt(1), 256))
		}
		return v, nil
	case typ == "bool":
		return readUint256(slot).Sign() != 0, nil
	case strings.HasPrefix(typ, "bytes") && typ != "bytes":
		n, err := strconv.Atoi(strings.TrimPrefix(typ, "bytes"))
		if err != nil || n <= 0 || n > 32 {
			return hexOf(slot), nil
		}
		return hexOf(slot[:n]), nil
	default:
		return nil, fmt.Errorf("not a static type: %s", typ)
	}
}

// decodeDynamicArgument reads a length-prefixed value at argumentBytes[0:32]
// (the length) then the payload, matching decode_dynamic_argument.
func decodeDynamicArgument(argumentBytes []byte, typ string) model.ArgValue {
	if len(argumentBytes) < slotSize {
		return hexOf(argumentBytes)
	}
	length := readUint256(argumentBytes[:slotSize])
	if !length.IsInt64() {
		return hexOf(argumentBytes)
	}
	l := int(length.Int64())
	start := slotSize
	end := start + l
	if end > len(argumentBytes) {
		end = len(argumentBytes)
	}
	if start > end {
		start = end
	}
	payload := argumentBytes[start:end]
	if typ == "string" {
		s := strings.ReplaceAll(string(payload), "\x00", "")
		if !utf8.ValidString(s) {
			s = strings.ToValidUTF8(s, "")
		}
		return s
	}
	return hexOf(payload)
}

// DecodeStruct decodes data against an ordered parameter list, degrading any
// slot it can't interpret into an "unknown" argument rather than failing.
func DecodeStruct(data []byte, params []model.ParameterSemantics) []model.Argument {
	if params == nil {
		// no ABI at all: best-effort, guess one unknown slot per 32 bytes.
		count := len(data)/slotSize + 1
		args := make([]model.Argument, 0, count)
		for i := 0; i*slotSize < len(data); i++ {
			slot := readSlot(data, i*slotSize)
			if hexOf(slot) == "0x"+strings.Repeat("00", slotSize) {
				continue
			}
			args = append(args, unknownArg(fmt.Sprintf("arg_%d", i), slot))
		}
		return args
	}

	args := make([]model.Argument, 0, len(params))
	for i, p := range params {
		headPos := i * slotSize
		arg, ok := decodeOne(data, headPos, p)
		if !ok {
			args = append(args, unknownArg(argName(p, i), readSlot(data, headPos)))
			continue
		}
		args = append(args, arg)
	}
	return args
}

func argName(p model.ParameterSemantics, i int) string {
	if p.Name != "" {
		return p.Name
	}
	return fmt.Sprintf("arg_%d", i)
}

func decodeOne(data []byte, headPos int, p model.ParameterSemantics) (model.Argument, bool) {
	name := p.Name
	switch {
	case strings.HasPrefix(p.Type, "tuple"):
		return decodeTupleParam(data, headPos, p)
	case p.Type == "bytes" || p.Type == "string":
		off, ok := readOffset(data, headPos)
		if !ok {
			return model.Argument{}, false
		}
		return model.Argument{Name: name, Type: p.Type, Value: decodeDynamicArgument(data[off:], p.Type)}, true
	case isDynamicArray(p.Type):
		off, ok := readOffset(data, headPos)
		if !ok {
			return model.Argument{}, false
		}
		return model.Argument{Name: name, Type: p.Type, Value: decodeDynamicArrayTail(data[off:], p)}, true
	default:
		if n, fixed := fixedArrayLen(p.Type); fixed {
			return decodeFixedArray(data, headPos, p, n)
		}
		v, err := DecodeStaticArgument(readSlot(data, headPos), p.Type)
		if err != nil {
			return model.Argument{}, false
		}
		return model.Argument{Name: name, Type: p.Type, Value: v}, true
	}
}

func decodeTupleParam(data []byte, headPos int, p model.ParameterSemantics) (model.Argument, bool) {
	if strings.HasSuffix(p.Type, "[]") {
		off, ok := readOffset(data, headPos)
		if !ok {
			return model.Argument{}, false
		}
		return model.Argument{Name: p.Name, Type: p.Type, Value: decodeTupleArray(data[off:], p)}, true
	}
	if p.Dynamic {
		off, ok := readOffset(data, headPos)
		if !ok {
			return model.Argument{}, false
		}
		sub := DecodeStruct(data[off:], p.Components)
		return model.Argument{Name: p.Name, Type: p.Type, Value: sub}, true
	}
	if headPos > len(data) {
		return model.Argument{}, false
	}
	sub := DecodeStruct(data[headPos:], p.Components)
	return model.Argument{Name: p.Name, Type: p.Type, Value: sub}, true
}

func decodeTupleArray(data []byte, p model.ParameterSemantics) []model.Argument {
	if len(data) < slotSize {
		return nil
	}
	length := readUint256(data[:slotSize])
	if !length.IsInt64() {
		return nil
	}
	l := int(length.Int64())
	tail := data[slotSize:]
	if l > len(tail)/slotSize {
		l = len(tail) / slotSize
	}
	dynamicComponents := false
	for _, c := range p.Components {
		if c.Dynamic {
			dynamicComponents = true
			break
		}
	}
	out := make([]model.Argument, 0, l)
	for i := 0; i < l; i++ {
		var elems []model.Argument
		if dynamicComponents {
			off, ok := readOffset(tail, i*slotSize)
			if !ok {
				break
			}
			elems = DecodeStruct(tail[off:], p.Components)
		} else {
			start := i * componentWidth(p.Components)
			if start > len(tail) {
				break
			}
			elems = DecodeStruct(tail[start:], p.Components)
		}
		out = append(out, model.Argument{Name: fmt.Sprintf("%d", i), Type: "tuple", Value: elems})
	}
	return out
}

// componentWidth is the number of bytes a static tuple occupies inline: one
// slot per component (fixed arrays expand inline too, so this is a
// conservative approximation matching decode_struct's simple per-slot model).
func componentWidth(components []model.ParameterSemantics) int {
	return len(components) * slotSize
}

func decodeDynamicArrayTail(data []byte, p model.ParameterSemantics) []model.Argument {
	if len(data) < slotSize {
		return nil
	}
	length := readUint256(data[:slotSize])
	if !length.IsInt64() {
		return nil
	}
	l := int(length.Int64())
	tail := data[slotSize:]
	if l > len(tail)/slotSize {
		l = len(tail) / slotSize
	}
	elemType := arrayElemType(p.Type)
	out := make([]model.Argument, 0, l)
	for i := 0; i < l; i++ {
		name := fmt.Sprintf("%d", i)
		if isDynamicElemType(elemType) {
			off, ok := readOffset(tail, i*slotSize)
			if !ok {
				break
			}
			out = append(out, model.Argument{Name: name, Type: elemType, Value: decodeDynamicArgument(tail[off:], elemType)})
			continue
		}
		v, err := DecodeStaticArgument(readSlot(tail, i*slotSize), elemType)
		if err != nil {
			out = append(out, unknownArg(name, readSlot(tail, i*slotSize)))
			continue
		}
		out = append(out, model.Argument{Name: name, Type: elemType, Value: v})
	}
	return out
}

func decodeFixedArray(data []byte, headPos int, p model.ParameterSemantics, n int) (model.Argument, bool) {
	elemType := arrayElemType(p.Type)
	out := make([]model.Argument, 0, n)
	for i := 0; i < n; i++ {
		name := fmt.Sprintf("%d", i)
		v, err := DecodeStaticArgument(readSlot(data, headPos+i*slotSize), elemType)
		if err != nil {
			out = append(out, unknownArg(name, readSlot(data, headPos+i*slotSize)))
			continue
		}
		out = append(out, model.Argument{Name: name, Type: elemType, Value: v})
	}
	return model.Argument{Name: p.Name, Type: p.Type, Value: out}, true
}
