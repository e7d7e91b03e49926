package semantics

import (
	"testing"

	"github.com/ethtx/ethtx-go/model"
)

func TestClassifyStandard_ERC20(t *testing.T) {
	got := ClassifyStandard(ERC20Functions, ERC20Events)
	if got != model.StandardERC20 {
		t.Fatalf("expected ERC20, got %v", got)
	}
}

func TestClassifyStandard_ERC721DoesNotMisclassifyAsERC20(t *testing.T) {
	got := ClassifyStandard(ERC721Functions, ERC721Events)
	if got != model.StandardERC721 {
		t.Fatalf("expected ERC721 despite selector overlap with ERC20, got %v", got)
	}
}

func TestClassifyStandard_ERC1155(t *testing.T) {
	got := ClassifyStandard(ERC1155Functions, ERC1155Events)
	if got != model.StandardERC1155 {
		t.Fatalf("expected ERC1155, got %v", got)
	}
}

func TestClassifyStandard_IncompleteSetIsUnknown(t *testing.T) {
	partial := map[string]model.FunctionSemantics{"0xa9059cbb": ERC20Functions["0xa9059cbb"]}
	got := ClassifyStandard(partial, map[string]model.EventSemantics{})
	if got != model.StandardUnknown {
		t.Fatalf("expected unknown for a partial function set, got %v", got)
	}
}
