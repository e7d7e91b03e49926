// Package transfer extracts ETH and token value movements from a decoded
// call tree and event log, and aggregates them into net per-holder balances
// (C6).
package transfer

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/ethtx/ethtx-go/model"
	"github.com/ethtx/ethtx-go/semantics"
)

const zeroAddress = "0x0000000000000000000000000000000000000000"

const (
	erc20TransferSignature  = "0xddf252ad1be2c89b69c2b068fc378daa952ba7f163c4a11628f55a4df523b3ef"
	erc721TransferSignature = erc20TransferSignature
	erc1155SingleSignature  = "0xc3d58168c5ae7397731d063d5bbf3d657854427343f4c083240f7aacaa2d0f62"
)

// RecursionLimit mirrors the call decoder's guard; transfer extraction walks
// the same tree independently and needs the same protection.
const RecursionLimit = 2000

// ExtractEthTransfers walks the decoded call tree for successful, nonzero
// value frames. Reverted subtrees (status=false) carry no real ether
// movement and are skipped entirely, along with their children.
func ExtractEthTransfers(root model.DecodedCall) ([]model.DecodedTransfer, error) {
	var out []model.DecodedTransfer
	if err := walkEth(root, 0, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func walkEth(call model.DecodedCall, depth int, out *[]model.DecodedTransfer) error {
	if depth > RecursionLimit {
		return fmt.Errorf("eth transfer walk exceeds recursion limit %d", RecursionLimit)
	}
	if !call.Status {
		return nil
	}
	if call.ValueEther != nil && call.ValueEther.Sign() > 0 {
		*out = append(*out, model.DecodedTransfer{
			FromAddress:   call.FromAddress,
			ToAddress:     call.ToAddress,
			TokenAddress:  "",
			TokenSymbol:   "ETH",
			TokenStandard: "",
			Value:         bigFloatToDecimal(call.ValueEther),
		})
	}
	for _, sub := range call.Subcalls {
		if err := walkEth(sub, depth+1, out); err != nil {
			return err
		}
	}
	return nil
}

// ExtractTokenTransfers scans decoded events for Transfer/TransferSingle
// logs and turns them into value movements. ERC-20 and ERC-721 share a
// topic hash, so the argument shape (an Indexed "value"/"tokenId" style
// third parameter vs a plain uint256 amount) is what the event decoder
// already resolved into the event's Name/Parameters; this stage just reads
// them back out.
func ExtractTokenTransfers(events []model.DecodedEvent, repo TokenLabeler) []model.DecodedTransfer {
	var out []model.DecodedTransfer
	for _, ev := range events {
		switch ev.EventSignature {
		case erc20TransferSignature:
			if t, ok := tokenTransferFromEvent(ev, repo); ok {
				out = append(out, t)
			}
		case erc1155SingleSignature:
			if t, ok := erc1155TransferFromEvent(ev, repo); ok {
				out = append(out, t)
			}
		}
	}
	return out
}

// TokenLabeler is the narrow slice of the semantics repository that
// transfer extraction needs: token symbol/standard for display and decimals
// for scaling a raw ERC-20 amount into a human value.
type TokenLabeler interface {
	TokenSymbol(address string) (symbol string, standard model.Standard, found bool)
	TokenDecimals(address string) uint8
}

// defaultTokenDecimals is assumed for an ERC-20 transfer whose contract
// semantics could not be resolved, matching the repository's own
// probeERC20Info fallback.
const defaultTokenDecimals = 18

// RepoTokenLabeler adapts a semantics.Repository, bound to one chain and
// request context, to TokenLabeler.
type RepoTokenLabeler struct {
	Ctx     context.Context
	ChainID string
	Repo    *semantics.Repository
}

func (r RepoTokenLabeler) TokenSymbol(address string) (string, model.Standard, bool) {
	info, standard, found := r.Repo.GetTokenData(r.Ctx, r.ChainID, address)
	if !found {
		return "", model.StandardUnknown, false
	}
	return info.Symbol, standard, true
}

func (r RepoTokenLabeler) TokenDecimals(address string) uint8 {
	info, _, found := r.Repo.GetTokenData(r.Ctx, r.ChainID, address)
	if !found {
		return defaultTokenDecimals
	}
	return info.Decimals
}

func tokenTransferFromEvent(ev model.DecodedEvent, repo TokenLabeler) (model.DecodedTransfer, bool) {
	from, to, amount, isNFT, ok := splitTransferArgs(ev.Parameters)
	if !ok {
		return model.DecodedTransfer{}, false
	}
	if from.Address == zeroAddress && to.Address == zeroAddress {
		return model.DecodedTransfer{}, false
	}

	symbol, standard, found := repo.TokenSymbol(ev.Contract.Address)
	transfer := model.DecodedTransfer{
		FromAddress:  from,
		ToAddress:    to,
		TokenAddress: ev.Contract.Address,
	}

	switch {
	case (found && standard == model.StandardERC721) || isNFT:
		id := amount.String()
		transfer.TokenStandard = string(model.StandardERC721)
		transfer.TokenSymbol = formatNFTSymbol(symbol) + " " + TruncateTokenID(id)
		transfer.TokenAddress = NFTInventoryLink(ev.Contract.Address, id)
		transfer.Value = decimal.NewFromInt(1)
	case found:
		transfer.TokenStandard = string(standard)
		transfer.TokenSymbol = symbol
		transfer.Value = decimal.NewFromBigInt(amount, -int32(repo.TokenDecimals(ev.Contract.Address)))
	default:
		transfer.TokenStandard = string(model.StandardERC20)
		transfer.TokenSymbol = symbol
		transfer.Value = decimal.NewFromBigInt(amount, -int32(repo.TokenDecimals(ev.Contract.Address)))
	}
	return transfer, true
}

// splitTransferArgs reads a Transfer event's decoded parameters. ERC-20's
// third parameter is a plain uint256 amount; ERC-721's is an indexed
// tokenId, which the event decoder has no way to tell apart purely from the
// argument's Go type (*big.Int either way) — isNFT is reported true when the
// third parameter is named "tokenId", the name the ERC-721 table gives it
// (the event decoder picks that table when the log carries four topics).
// The log's topic count itself is not available here and is not checked.
func splitTransferArgs(params []model.Argument) (from, to model.AddressInfo, amount *big.Int, isNFT bool, ok bool) {
	if len(params) != 3 {
		return model.AddressInfo{}, model.AddressInfo{}, nil, false, false
	}
	fromAddr, ok1 := params[0].Value.(model.AddressInfo)
	toAddr, ok2 := params[1].Value.(model.AddressInfo)
	if !ok1 || !ok2 {
		return model.AddressInfo{}, model.AddressInfo{}, nil, false, false
	}
	amt, ok3 := params[2].Value.(*big.Int)
	if !ok3 {
		return model.AddressInfo{}, model.AddressInfo{}, nil, false, false
	}
	isNFT = params[2].Name == "tokenId"
	return fromAddr, toAddr, amt, isNFT, true
}

func erc1155TransferFromEvent(ev model.DecodedEvent, repo TokenLabeler) (model.DecodedTransfer, bool) {
	var from, to model.AddressInfo
	var amount, id *big.Int
	for _, p := range ev.Parameters {
		switch p.Name {
		case "id":
			if v, ok := p.Value.(*big.Int); ok {
				id = v
			}
		case "from":
			if a, ok := p.Value.(model.AddressInfo); ok {
				from = a
			}
		case "to":
			if a, ok := p.Value.(model.AddressInfo); ok {
				to = a
			}
		case "value":
			if v, ok := p.Value.(*big.Int); ok {
				amount = v
			}
		}
	}
	if amount == nil {
		return model.DecodedTransfer{}, false
	}
	symbol, _, found := repo.TokenSymbol(ev.Contract.Address)
	if !found {
		symbol = "NFT"
	}
	tokenAddress, nftSymbol := ev.Contract.Address, formatNFTSymbol(symbol)
	if id != nil {
		tokenAddress = NFTInventoryLink(ev.Contract.Address, id.String())
		nftSymbol += " " + TruncateTokenID(id.String())
	}
	return model.DecodedTransfer{
		FromAddress:   from,
		ToAddress:     to,
		TokenAddress:  tokenAddress,
		TokenSymbol:   nftSymbol,
		TokenStandard: string(model.StandardERC1155),
		Value:         decimal.NewFromBigInt(amount, 0),
	}, true
}

// bigFloatToDecimal carries an already-converted ether value (wei/1e18,
// computed in package decode) into the precise decimal type transfers and
// balances are expressed in.
func bigFloatToDecimal(f *big.Float) decimal.Decimal {
	if f == nil {
		return decimal.Zero
	}
	d, err := decimal.NewFromString(f.Text('f', 18))
	if err != nil {
		return decimal.Zero
	}
	return d
}

// formatNFTSymbol applies the display convention for non-fungible tokens:
// fall back to "NFT" when no symbol is known, matching the original
// project's presentation layer.
func formatNFTSymbol(symbol string) string {
	if strings.TrimSpace(symbol) == "" {
		return "NFT"
	}
	return symbol
}

// TruncateTokenID shortens a long token ID for display, keeping the first 6
// and last 2 characters and joining them with an ellipsis, matching the
// original project's id[:6]...id[-2:] rule. IDs of 8 characters or fewer are
// left untouched.
func TruncateTokenID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:6] + "..." + id[len(id)-2:]
}

// NFTInventoryLink builds the "?a=<id>#inventory" suffix the original
// project appends to an NFT's display address.
func NFTInventoryLink(tokenAddress, id string) string {
	return fmt.Sprintf("%s?a=%s#inventory", tokenAddress, id)
}

// AggregateBalances nets every transfer (ETH and token) into a signed
// per-holder, per-token delta: senders go negative, receivers go positive.
// The zero address is skipped on whichever side it appears (it represents
// mint/burn, not a real holder). Each per-holder, per-token delta that nets
// to exactly zero is dropped, and a holder with no remaining entries is
// left out of the result.
func AggregateBalances(ethTransfers, tokenTransfers []model.DecodedTransfer) []model.DecodedBalance {
	type key struct{ holder, token string }
	deltas := map[key]decimal.Decimal{}
	holderInfo := map[string]model.AddressInfo{}
	tokenInfo := map[string]struct {
		symbol, standard string
	}{}

	add := func(k key, v decimal.Decimal) {
		if cur, ok := deltas[k]; ok {
			deltas[k] = cur.Add(v)
		} else {
			deltas[k] = v
		}
	}

	apply := func(t model.DecodedTransfer) {
		if t.Value.IsZero() {
			return
		}
		tokenInfo[t.TokenAddress] = struct{ symbol, standard string }{t.TokenSymbol, t.TokenStandard}

		if t.FromAddress.Address != zeroAddress {
			k := key{strings.ToLower(t.FromAddress.Address), t.TokenAddress}
			holderInfo[k.holder] = t.FromAddress
			add(k, t.Value.Neg())
		}
		if t.ToAddress.Address != zeroAddress {
			k := key{strings.ToLower(t.ToAddress.Address), t.TokenAddress}
			holderInfo[k.holder] = t.ToAddress
			add(k, t.Value)
		}
	}
	for _, t := range ethTransfers {
		apply(t)
	}
	for _, t := range tokenTransfers {
		apply(t)
	}

	byHolder := map[string][]model.BalanceEntry{}
	order := []string{}
	for k, v := range deltas {
		if v.IsZero() {
			continue
		}
		if _, seen := byHolder[k.holder]; !seen {
			order = append(order, k.holder)
		}
		info := tokenInfo[k.token]
		byHolder[k.holder] = append(byHolder[k.holder], model.BalanceEntry{
			TokenAddress:  k.token,
			TokenSymbol:   info.symbol,
			TokenStandard: info.standard,
			Balance:       v,
		})
	}

	out := make([]model.DecodedBalance, 0, len(order))
	for _, holder := range order {
		entries := byHolder[holder]
		if len(entries) == 0 {
			continue
		}
		out = append(out, model.DecodedBalance{Holder: holderInfo[holder], Tokens: entries})
	}
	return out
}

