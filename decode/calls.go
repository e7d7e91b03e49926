package decode

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

// RecursionLimit guards the call-tree walk against pathological traces; the
// original project uses 2000, which this module preserves (§4.4 step 6,
// §5).
const RecursionLimit = 2000

// CallsDecoder is C4: it walks the raw call tree, resolves function ABIs,
// decodes inputs/outputs, and prunes delegatecall chains.
type CallsDecoder struct {
	repo *semantics.Repository
	log  *logrus.Entry
}

func NewCallsDecoder(repo *semantics.Repository) *CallsDecoder {
	return &CallsDecoder{repo: repo, log: logrus.WithField("component", "abi-calls-decoder")}
}

// Decode walks raw from the root, returning the pruned, ABI-decoded tree.
func (d *CallsDecoder) Decode(ctx context.Context, chainID, txHash string, raw *model.Call, proxies map[string]model.Proxy) (model.DecodedCall, error) {
	decoded, err := d.decodeNode(ctx, chainID, txHash, raw, proxies, 0)
	if err != nil {
		return model.DecodedCall{}, fmt.Errorf("decode call tree: %w", err)
	}
	return PruneDelegates(decoded), nil
}

func (d *CallsDecoder) decodeNode(ctx context.Context, chainID, txHash string, raw *model.Call, proxies map[string]model.Proxy, depth int) (model.DecodedCall, error) {
	if depth > RecursionLimit {
		return model.DecodedCall{}, fmt.Errorf("call tree exceeds recursion limit %d", RecursionLimit)
	}

	call := model.DecodedCall{
		ChainID:     chainID,
		TxHash:      txHash,
		CallID:      raw.CallID,
		CallType:    raw.CallType,
		FromAddress: model.AddressInfo{Address: raw.FromAddress},
		ToAddress:   model.AddressInfo{Address: raw.ToAddress},
		ValueEther:  weiToEther(raw.Value),
		GasUsed:     raw.GasUsed,
		Status:      raw.Status,
		Error:       raw.Error,
		Indent:      raw.Indent,
	}

	if len(raw.CallData) >= 8 {
		call.FunctionSignature = "0x" + raw.CallData[:8]
	}

	switch raw.CallType {
	case model.CallTypeSelfDestruct:
		call.FunctionName = "selfdestruct"
	case model.CallTypeCreate2:
		call.FunctionName = "new"
	default:
		d.resolveAndDecode(ctx, chainID, raw, proxies, &call)
	}

	call.FromAddress.Name = d.repo.GetAddressLabel(ctx, chainID, raw.FromAddress, proxies)
	call.ToAddress.Name = d.repo.GetAddressLabel(ctx, chainID, raw.ToAddress, proxies)

	for _, sub := range raw.Subcalls {
		decodedSub, err := d.decodeNode(ctx, chainID, txHash, sub, proxies, depth+1)
		if err != nil {
			return model.DecodedCall{}, err
		}
		call.Subcalls = append(call.Subcalls, decodedSub)
	}

	return call, nil
}

func (d *CallsDecoder) resolveAndDecode(ctx context.Context, chainID string, raw *model.Call, proxies map[string]model.Proxy, call *model.DecodedCall) {
	inputBytes := decodeHexOrEmpty(raw.CallData)
	outputBytes := decodeHexOrEmpty(raw.ReturnValue)

	if semantics.IsPrecompile(raw.ToAddress) {
		fn := semanticsPrecompile(raw.ToAddress)
		call.FunctionName = fn.Name
		args, outputs, revert := ethabi.DecodeFunctionParameters(decodeHexOrEmpty(raw.CallData), outputBytes, &fn, raw.Status)
		call.Arguments = args
		call.Outputs = outputs
		call.Error = revert
		return
	}

	if call.FunctionSignature == "" {
		if msg, ok := ethabi.DecodeGraffitiParameters(inputBytes); ok {
			call.FunctionName = "fallback"
			call.Arguments = []model.Argument{{Name: "message", Type: "string", Value: msg}}
		}
		return
	}

	fn, guessed := d.resolveFunction(ctx, chainID, raw.ToAddress, call.FunctionSignature, proxies)
	if fn == nil {
		call.FunctionName = call.FunctionSignature
		call.FunctionGuessed = true
		return
	}

	call.FunctionName = fn.Name
	call.FunctionGuessed = guessed

	callData := inputBytes
	if len(callData) >= 4 {
		callData = callData[4:]
	}
	args, outputs, revert := ethabi.DecodeFunctionParameters(callData, outputBytes, fn, raw.Status)
	call.Arguments = args
	call.Outputs = outputs
	call.Error = revert
}

// resolveFunction implements §4.4 step 2's resolution chain: repository ABI,
// proxy delegate ABIs, ERC-20/721 standard tables, then signature guessing.
func (d *CallsDecoder) resolveFunction(ctx context.Context, chainID, address, selector string, proxies map[string]model.Proxy) (*model.FunctionSemantics, bool) {
	if fn, err := d.repo.GetFunctionABI(ctx, chainID, address, selector); err == nil && fn != nil {
		return fn, false
	}

	if proxy, ok := proxies[strings.ToLower(address)]; ok {
		for _, impl := range proxy.Implementations {
			if fn, ok := impl.Contract.Functions[selector]; ok {
				return &fn, false
			}
		}
	}

	standard, _ := d.repo.GetStandard(ctx, chainID, address)
	switch standard {
	case model.StandardERC20:
		if fn, ok := semantics.ERC20Functions[selector]; ok {
			return &fn, false
		}
	case model.StandardERC721:
		if fn, ok := semantics.ERC721Functions[selector]; ok {
			return &fn, false
		}
	case model.StandardERC1155:
		if fn, ok := semantics.ERC1155Functions[selector]; ok {
			return &fn, false
		}
	}

	if fn, err := d.repo.GuessFunction(ctx, selector); err == nil && fn != nil {
		return fn, true
	}
	return nil, false
}

func semanticsPrecompile(address string) model.FunctionSemantics {
	fn := semantics.Precompiles[normalizePrecompileAddr(address)]
	return fn
}

func normalizePrecompileAddr(address string) string {
	address = strings.ToLower(address)
	if !strings.HasPrefix(address, "0x") {
		address = "0x" + address
	}
	return address
}

func decodeHexOrEmpty(h string) []byte {
	h = strings.TrimPrefix(h, "0x")
	if h == "" {
		return nil
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return nil
	}
	return b
}

func weiToEther(wei *big.Int) *big.Float {
	if wei == nil {
		return big.NewFloat(0)
	}
	f := new(big.Float).SetInt(wei)
	return new(big.Float).Quo(f, big.NewFloat(1e18))
}

// PruneDelegates collapses a node with exactly one delegatecall child into
// that child, which inherits the parent's ether value. Applied recursively,
// bottom-up, so a chain of single-delegate wrappers collapses entirely in
// one pass (§4.4 step 7, testable property 3: idempotent).
func PruneDelegates(call model.DecodedCall) model.DecodedCall {
	pruned := make([]model.DecodedCall, 0, len(call.Subcalls))
	for _, sub := range call.Subcalls {
		pruned = append(pruned, PruneDelegates(sub))
	}
	call.Subcalls = pruned

	if len(call.Subcalls) == 1 && call.Subcalls[0].CallType == model.CallTypeDelegateCall {
		child := call.Subcalls[0]
		child.ValueEther = call.ValueEther
		child.CallID = call.CallID
		child.Indent = call.Indent
		return child
	}
	return call
}
