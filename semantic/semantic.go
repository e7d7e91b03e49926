package semantic

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"

	"github.com/sirupsen/logrus"

	ethabi "github.com/ethtx/ethtx-go/abi"
	"github.com/ethtx/ethtx-go/model"
	"github.com/ethtx/ethtx-go/semantics"
)

// RecursionLimit guards the semantic-decoding walk the same way the ABI
// call decoder guards its own tree walk.
const RecursionLimit = 2000

// Decoder applies transformations and badges across a decoded transaction.
type Decoder struct {
	repo *semantics.Repository
	log  *logrus.Entry
}

func NewDecoder(repo *semantics.Repository) *Decoder {
	return &Decoder{repo: repo, log: logrus.WithField("component", "semantic-decoder")}
}

// helperAdapter implements Helpers against the semantics repository, for
// whichever chain/context a particular decode call is bound to.
type helperAdapter struct {
	ctx     context.Context
	chainID string
	repo    *semantics.Repository
}

// DecodeCall renders nested calldata (as LogNote's "data" argument carries,
// per the amendments in package semantics) as a human-readable
// "functionName(arg=value, ...)" string. The function is looked up in the
// contract's own ABI only (no proxy, standard-table or guessing fallback,
// unlike the call decoder); when it is not there the raw selector is
// returned.
func (h helperAdapter) DecodeCall(contract string, data interface{}) (interface{}, error) {
	s, ok := data.(string)
	if !ok {
		return nil, fmt.Errorf("decode_call: data argument must be a hex string")
	}
	raw := strings.TrimPrefix(s, "0x")
	b, err := hex.DecodeString(raw)
	if err != nil || len(b) < 4 {
		return s, nil
	}
	selector := "0x" + hex.EncodeToString(b[:4])

	fn, err := h.repo.GetFunctionABI(h.ctx, h.chainID, contract, selector)
	if err != nil || fn == nil {
		return selector, nil
	}

	args, _, _ := ethabi.DecodeFunctionParameters(b[4:], nil, fn, true)
	parts := make([]string, 0, len(args))
	for _, a := range args {
		parts = append(parts, fmt.Sprintf("%s=%v", a.Name, a.Value))
	}
	return fmt.Sprintf("%s(%s)", fn.Name, strings.Join(parts, ", ")), nil
}

func (h helperAdapter) DecodeNFT(tokenID interface{}) (interface{}, error) {
	switch v := tokenID.(type) {
	case *big.Int:
		return v.String(), nil
	case string:
		return v, nil
	default:
		return nil, fmt.Errorf("decode_nft: unsupported token id type %T", tokenID)
	}
}

func (h helperAdapter) TokenDecimals(contract string) (interface{}, error) {
	info, _, found := h.repo.GetTokenData(h.ctx, h.chainID, contract)
	if !found {
		return big.NewInt(1), nil
	}
	decimals := new(big.Int).Exp(big.NewInt(10), big.NewInt(int64(info.Decimals)), nil)
	return decimals, nil
}

// DecodeCalls applies each call's function transformations to its
// arguments/outputs, recursively, wraps every address-typed parameter in
// AddressInfo, and stamps sender/receiver badges.
func (d *Decoder) DecodeCalls(ctx context.Context, chainID string, root model.DecodedCall, sender, receiver string, proxies map[string]model.Proxy) (model.DecodedCall, error) {
	return d.decodeCallNode(ctx, chainID, root, strings.ToLower(sender), strings.ToLower(receiver), proxies, 0)
}

func (d *Decoder) decodeCallNode(ctx context.Context, chainID string, call model.DecodedCall, sender, receiver string, proxies map[string]model.Proxy, depth int) (model.DecodedCall, error) {
	if depth > RecursionLimit {
		return model.DecodedCall{}, fmt.Errorf("semantic call walk exceeds recursion limit %d", RecursionLimit)
	}

	call.FromAddress.Badge = badgeFor(call.FromAddress.Address, sender, receiver)
	call.ToAddress.Badge = badgeFor(call.ToAddress.Address, sender, receiver)

	call.Arguments = wrapAddresses(ctx, chainID, d.repo, proxies, call.Arguments)
	call.Outputs = wrapAddresses(ctx, chainID, d.repo, proxies, call.Outputs)

	transforms, err := d.repo.GetTransformations(ctx, chainID, call.ToAddress.Address, call.FunctionSignature)
	if err == nil && len(transforms) > 0 {
		helpers := helperAdapter{ctx: ctx, chainID: chainID, repo: d.repo}
		call.Arguments = applyTransformations(call.Arguments, transforms, call.ToAddress.Address, helpers, d.log)
		call.Outputs = applyTransformations(call.Outputs, transforms, call.ToAddress.Address, helpers, d.log)
	}

	call.Arguments = stampArgumentBadges(call.Arguments, sender, receiver)
	call.Outputs = stampArgumentBadges(call.Outputs, sender, receiver)

	for i := range call.Subcalls {
		sub, err := d.decodeCallNode(ctx, chainID, call.Subcalls[i], sender, receiver, proxies, depth+1)
		if err != nil {
			return model.DecodedCall{}, err
		}
		call.Subcalls[i] = sub
	}
	return call, nil
}

// DecodeEvents applies each event's transformations, wraps every
// address-typed parameter in AddressInfo, and stamps badges on any
// address-typed parameter, not just the event's own contract address.
func (d *Decoder) DecodeEvents(ctx context.Context, chainID string, events []model.DecodedEvent, sender, receiver string, proxies map[string]model.Proxy) []model.DecodedEvent {
	sender, receiver = strings.ToLower(sender), strings.ToLower(receiver)
	out := make([]model.DecodedEvent, len(events))
	helpers := helperAdapter{ctx: ctx, chainID: chainID, repo: d.repo}
	for i, ev := range events {
		ev.Contract.Badge = badgeFor(ev.Contract.Address, sender, receiver)
		ev.Parameters = wrapAddresses(ctx, chainID, d.repo, proxies, ev.Parameters)
		transforms, err := d.repo.GetTransformations(ctx, chainID, ev.Contract.Address, ev.EventSignature)
		if err == nil && len(transforms) > 0 {
			ev.Parameters = applyTransformations(ev.Parameters, transforms, ev.Contract.Address, helpers, d.log)
		}
		ev.Parameters = stampArgumentBadges(ev.Parameters, sender, receiver)
		out[i] = ev
	}
	return out
}

// wrapAddresses converts every address-typed parameter's raw "0x..." string
// into a label-resolved AddressInfo, recursing into tuple and array
// components (whose decoded Value is itself a []model.Argument) so nested
// addresses are wrapped too, per the resolution chain the repository's own
// GetAddressLabel implements (precompile name, ERC-20 symbol, proxy name,
// resolved semantics name, or the raw address as a last resort).
func wrapAddresses(ctx context.Context, chainID string, repo *semantics.Repository, proxies map[string]model.Proxy, args []model.Argument) []model.Argument {
	for i, a := range args {
		switch v := a.Value.(type) {
		case []model.Argument:
			args[i].Value = wrapAddresses(ctx, chainID, repo, proxies, v)
		case string:
			if a.Type == "address" {
				args[i].Value = model.AddressInfo{
					Address: v,
					Name:    repo.GetAddressLabel(ctx, chainID, v, proxies),
				}
			}
		}
	}
	return args
}

func badgeFor(address, sender, receiver string) model.Badge {
	switch strings.ToLower(address) {
	case sender:
		return model.BadgeSender
	case receiver:
		return model.BadgeReceiver
	default:
		return model.BadgeNone
	}
}

func stampArgumentBadges(args []model.Argument, sender, receiver string) []model.Argument {
	for i, a := range args {
		switch v := a.Value.(type) {
		case model.AddressInfo:
			v.Badge = badgeFor(v.Address, sender, receiver)
			args[i].Value = v
		case []model.Argument:
			args[i].Value = stampArgumentBadges(v, sender, receiver)
		}
	}
	return args
}

// applyTransformations rewrites each argument named in transforms: its
// value is recomputed by evaluating the transformation expression with the
// full argument set (by name) in scope, and its transformed name/type
// override the original when given. A parameter whose transformed type is
// "ignore" is dropped entirely, matching the original project's convention
// for hiding noise parameters (e.g. LogNote's sig/arg1/arg2/arg3).
func applyTransformations(args []model.Argument, transforms map[string]model.TransformationSemantics, contract string, helpers Helpers, log *logrus.Entry) []model.Argument {
	scope := make(map[string]interface{}, len(args))
	for _, a := range args {
		scope[a.Name] = a.Value
	}

	out := make([]model.Argument, 0, len(args))
	for _, a := range args {
		t, has := transforms[a.Name]
		if !has {
			out = append(out, a)
			continue
		}
		if t.TransformedType == "ignore" {
			continue
		}

		next := a
		if t.Transformation != "" {
			v, err := Eval(t.Transformation, Context{Arguments: scope, Contract: contract, Helpers: helpers})
			if err != nil {
				log.WithError(err).WithField("argument", a.Name).Warn("transformation failed, keeping raw value")
			} else {
				next.Value = v
			}
		}
		if t.TransformedName != "" {
			next.Name = t.TransformedName
		}
		if t.TransformedType != "" {
			next.Type = t.TransformedType
		}
		out = append(out, next)
	}
	return out
}

// BuildMetadata converts raw transaction/block context into the decoded
// metadata every stage's badges are keyed against.
func BuildMetadata(chainID string, tx model.TransactionMetadata, block model.BlockMetadata, from, to model.AddressInfo) model.DecodedTransactionMetadata {
	from.Badge = model.BadgeSender
	to.Badge = model.BadgeReceiver

	gasPrice := new(big.Float)
	if tx.GasPrice != nil {
		gasPrice = new(big.Float).Quo(new(big.Float).SetInt(tx.GasPrice), big.NewFloat(1e9))
	}
	value := new(big.Float)
	if tx.Value != nil {
		value = new(big.Float).Quo(new(big.Float).SetInt(tx.Value), big.NewFloat(1e18))
	}

	return model.DecodedTransactionMetadata{
		ChainID:     chainID,
		TxHash:      tx.TxHash,
		BlockNumber: block.BlockNumber,
		BlockHash:   block.BlockHash,
		Timestamp:   block.Timestamp,
		GasPrice:    gasPrice,
		FromAddress: from,
		ToAddress:   to,
		Sender:      from,
		Receiver:    to,
		TxIndex:     tx.TxIndex,
		TxValue:     value,
		GasLimit:    tx.GasLimit,
		GasUsed:     tx.GasUsed,
		Success:     tx.Status,
	}
}
