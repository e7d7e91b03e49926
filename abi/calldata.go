package abi

import (
	"strconv"
	"strings"
	"unicode"

	"github.com/ethtx/ethtx-go/model"
)

// ErrorSelector is the 4-byte selector of the standard revert reason
// encoding Error(string).
const ErrorSelector = "0x08c379a0"

// DecodeFunctionParameters decodes calldata inputs against fn.Inputs and
// return data against fn.Outputs. When status is false and the return data
// starts with the Error(string) selector, the revert reason is decoded and
// returned as the third value instead of output arguments.
func DecodeFunctionParameters(inputData, outputData []byte, fn *model.FunctionSemantics, status bool) ([]model.Argument, []model.Argument, string) {
	var inputs []model.ParameterSemantics
	var outputs []model.ParameterSemantics
	if fn != nil {
		inputs = fn.Inputs
		outputs = fn.Outputs
	}

	args := DecodeStruct(inputData, inputs)

	if !status && hasSelector(outputData, ErrorSelector) {
		reason := DecodeStruct(outputData[4:], []model.ParameterSemantics{{Name: "reason", Type: "string"}})
		if len(reason) == 1 {
			if s, ok := reason[0].Value.(string); ok {
				return args, nil, s
			}
		}
		return args, nil, ""
	}

	return args, DecodeStruct(outputData, outputs), ""
}

func hasSelector(data []byte, selectorHex string) bool {
	if len(data) < 4 {
		return false
	}
	return "0x"+hexLower(data[:4]) == selectorHex
}

func hexLower(b []byte) string {
	return strings.ToLower(hexOf(b)[2:])
}

// DecodeEventParameters decodes a log's topics+data against the event's
// parameter list, preserving ABI declaration order by interleaving the
// indexed stream (from topics) with the non-indexed stream (from data).
// When anonymous is true, topics[0] is itself the first indexed parameter
// rather than the event signature.
func DecodeEventParameters(data []byte, topics [][]byte, event *model.EventSemantics, anonymous bool) []model.Argument {
	if event == nil {
		return DecodeUnknownEvent(data, topics)
	}

	t := topics
	if !anonymous && len(t) > 0 {
		t = t[1:]
	}

	var indexedParams, nonIndexedParams []model.ParameterSemantics
	for _, p := range event.Parameters {
		if p.Indexed {
			indexedParams = append(indexedParams, p)
		} else {
			nonIndexedParams = append(nonIndexedParams, p)
		}
	}

	indexedArgs := make([]model.Argument, 0, len(indexedParams))
	for i, p := range indexedParams {
		if i >= len(t) {
			indexedArgs = append(indexedArgs, model.Argument{Name: p.Name, Type: p.Type, Value: nil})
			continue
		}
		v, err := DecodeStaticArgument(pad32(t[i]), p.Type)
		if err != nil {
			indexedArgs = append(indexedArgs, unknownArg(p.Name, pad32(t[i])))
			continue
		}
		indexedArgs = append(indexedArgs, model.Argument{Name: p.Name, Type: p.Type, Value: v})
	}

	nonIndexedArgs := DecodeStruct(data, nonIndexedParams)

	out := make([]model.Argument, 0, len(event.Parameters))
	ii, ni := 0, 0
	for _, p := range event.Parameters {
		if p.Indexed {
			if ii < len(indexedArgs) {
				out = append(out, indexedArgs[ii])
				ii++
			}
		} else {
			if ni < len(nonIndexedArgs) {
				out = append(out, nonIndexedArgs[ni])
				ni++
			}
		}
	}
	return out
}

// DecodeUnknownEvent best-effort decodes a log with no resolved ABI: each
// topic becomes a raw bytes32 argument, and the data section is split into
// guessed 32-byte slots the same way DecodeStruct does for unknown calls.
func DecodeUnknownEvent(data []byte, topics [][]byte) []model.Argument {
	out := make([]model.Argument, 0, len(topics))
	for i, t := range topics {
		out = append(out, unknownArg(indexName(i), pad32(t)))
	}
	out = append(out, DecodeStruct(data, nil)...)
	return out
}

func indexName(i int) string {
	return "topic" + strconv.Itoa(i)
}

func pad32(b []byte) []byte {
	if len(b) >= slotSize {
		return b[len(b)-slotSize:]
	}
	out := make([]byte, slotSize)
	copy(out[slotSize-len(b):], b)
	return out
}

// DecodeGraffitiParameters best-effort decodes arbitrary calldata attached to
// a plain ETH transfer as a human message, rather than leaving it entirely
// opaque. Returns ("", false) if the bytes aren't printable ASCII.
func DecodeGraffitiParameters(data []byte) (string, bool) {
	if len(data) == 0 {
		return "", false
	}
	for _, b := range data {
		if b == 0 {
			continue
		}
		if b > unicode.MaxASCII || (!unicode.IsPrint(rune(b)) && !unicode.IsSpace(rune(b))) {
			return "", false
		}
	}
	s := strings.ReplaceAll(string(data), "\x00", "")
	s = strings.TrimSpace(s)
	if s == "" {
		return "", false
	}
	return s, true
}
