package semantics

import (
	"strings"

	"github.com/ethtx/ethtx-go/model"
)

// ClassifyStandard decides a contract's token standard by full signature-set
// membership: every well-known selector and topic the standard requires
// must be present, not just one. This avoids false positives from the
// selector overlap between ERC20Functions and ERC721Functions (transferFrom,
// approve, balanceOf all collide).
func ClassifyStandard(functions map[string]model.FunctionSemantics, events map[string]model.EventSemantics) model.Standard {
	if hasAll(functions, erc1155RequiredFunctions) && hasAllEvents(events, erc1155RequiredEvents) {
		return model.StandardERC1155
	}
	if hasAll(functions, erc721RequiredFunctions) && hasAllEvents(events, erc721RequiredEvents) {
		return model.StandardERC721
	}
	if hasAll(functions, erc20RequiredFunctions) && hasAllEvents(events, erc20RequiredEvents) {
		return model.StandardERC20
	}
	return model.StandardUnknown
}

func hasAll(functions map[string]model.FunctionSemantics, required []string) bool {
	for _, sel := range required {
		if _, ok := functions[sel]; !ok {
			return false
		}
	}
	return true
}

func hasAllEvents(events map[string]model.EventSemantics, required []string) bool {
	for _, sig := range required {
		if _, ok := events[sig]; !ok {
			return false
		}
	}
	return true
}

// ProbeBytecode infers a standard from raw deployed bytecode by checking for
// the hex-encoded presence of each required selector, used when no verified
// ABI is available (§4.2 miss path, bytecode-probing fallback).
func ProbeBytecode(bytecodeHex string) model.Standard {
	if hasAllSubstrings(bytecodeHex, erc1155RequiredFunctions) {
		return model.StandardERC1155
	}
	if hasAllSubstrings(bytecodeHex, erc721RequiredFunctions) {
		return model.StandardERC721
	}
	if hasAllSubstrings(bytecodeHex, erc20RequiredFunctions) {
		return model.StandardERC20
	}
	return model.StandardUnknown
}

func hasAllSubstrings(haystack string, needles []string) bool {
	for _, n := range needles {
		sel := strings.TrimPrefix(n, "0x")
		if !strings.Contains(haystack, sel) {
			return false
		}
	}
	return true
}
