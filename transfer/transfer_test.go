package transfer

import (
	"math/big"
	"testing"

	"github.com/shopspring/decimal"

	"github.com/ethtx/ethtx-go/model"
)

func TestTruncateTokenID_ShortIDUnchanged(t *testing.T) {
	if got := TruncateTokenID("1234"); got != "1234" {
		t.Fatalf("expected short id left alone, got %q", got)
	}
}

func TestTruncateTokenID_LongIDTruncated(t *testing.T) {
	id := "123456789012345"
	got := TruncateTokenID(id)
	want := "123456...45"
	if got != want {
		t.Fatalf("truncation mismatch: got %q want %q", got, want)
	}
}

func TestNFTInventoryLink(t *testing.T) {
	got := NFTInventoryLink("0xabc", "42")
	want := "0xabc?a=42#inventory"
	if got != want {
		t.Fatalf("got %q want %q", got, want)
	}
}

func addr(a string) model.AddressInfo { return model.AddressInfo{Address: a} }

func TestAggregateBalances_NetsSenderAndReceiver(t *testing.T) {
	holder1 := "0x0000000000000000000000000000000000000001"
	holder2 := "0x0000000000000000000000000000000000000002"

	eth := []model.DecodedTransfer{
		{FromAddress: addr(holder1), ToAddress: addr(holder2), TokenSymbol: "ETH", Value: decimal.NewFromInt(3)},
	}

	balances := AggregateBalances(eth, nil)
	if len(balances) != 2 {
		t.Fatalf("expected 2 holders with nonzero balance, got %d", len(balances))
	}

	byHolder := map[string]model.DecodedBalance{}
	for _, b := range balances {
		byHolder[b.Holder.Address] = b
	}

	if got := byHolder[holder1].Tokens[0].Balance; got.Sign() >= 0 {
		t.Fatalf("sender should have a negative balance, got %v", got)
	}
	if got := byHolder[holder2].Tokens[0].Balance; !got.Equal(decimal.NewFromInt(3)) {
		t.Fatalf("receiver should net +3, got %v", got)
	}
}

func TestAggregateBalances_ZeroAddressSkippedAndZeroNetDropped(t *testing.T) {
	holder := "0x0000000000000000000000000000000000000099"
	transfers := []model.DecodedTransfer{
		{FromAddress: addr(zeroAddress), ToAddress: addr(holder), TokenSymbol: "X", TokenAddress: "0xtoken", Value: decimal.NewFromInt(5)},
		{FromAddress: addr(holder), ToAddress: addr(zeroAddress), TokenSymbol: "X", TokenAddress: "0xtoken", Value: decimal.NewFromInt(5)},
	}

	balances := AggregateBalances(nil, transfers)
	if len(balances) != 0 {
		t.Fatalf("expected net-zero holder to be dropped, got %+v", balances)
	}
}

type fakeLabeler struct {
	symbol   string
	standard model.Standard
	decimals uint8
	found    bool
}

func (f fakeLabeler) TokenSymbol(address string) (string, model.Standard, bool) {
	return f.symbol, f.standard, f.found
}

func (f fakeLabeler) TokenDecimals(address string) uint8 {
	return f.decimals
}

func TestExtractTokenTransfers_ERC20ByTopicCount(t *testing.T) {
	events := []model.DecodedEvent{
		{
			EventSignature: erc20TransferSignature,
			Contract:       addr("0xtoken"),
			Parameters: []model.Argument{
				{Name: "from", Value: addr("0x01")},
				{Name: "to", Value: addr("0x02")},
				{Name: "value", Value: big.NewInt(1_000_000)},
			},
		},
	}
	out := ExtractTokenTransfers(events, fakeLabeler{symbol: "TOK", standard: model.StandardERC20, decimals: 6, found: true})
	if len(out) != 1 {
		t.Fatalf("expected 1 token transfer, got %d", len(out))
	}
	if out[0].TokenStandard != string(model.StandardERC20) {
		t.Fatalf("expected ERC20 standard, got %q", out[0].TokenStandard)
	}
	if !out[0].Value.Equal(decimal.NewFromInt(1)) {
		t.Fatalf("expected value scaled by decimals to 1.0, got %v", out[0].Value)
	}
}
