// Package decode implements the ABI-decoding stages: the proxy resolver
// (C7), the call decoder (C4), and the event decoder (C5). All three share
// the semantics repository and, where relevant, the proxies map C7 builds.
package decode

import (
	"context"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/ethtx/ethtx-go/model"
	"github.com/ethtx/ethtx-go/providers"
	"github.com/ethtx/ethtx-go/semantics"
)

// eip1967ImplementationSlot = keccak256("eip1967.proxy.implementation") - 1
const eip1967ImplementationSlot = "0x360894a13ba1a3210667c828492db98dca3e2076cc3735a920a3ca505d382bbc"

// eip1967BeaconSlot = keccak256("eip1967.proxy.beacon") - 1
const eip1967BeaconSlot = "0xa3f0ad74e5423aebfd80d3ef4346578335a9a72aeaee59ff6cb3582b35133d50"

// implementationSelector is the 4-byte selector of implementation(), used
// to query an EIP-1967 beacon for its current implementation address.
const implementationSelector = "0x5c60da1b"

// ProxyResolver detects delegatecall edges in a decoded call tree and
// classifies each delegator's proxy kind.
type ProxyResolver struct {
	node *semantics.Repository
	raw  providers.NodeProvider
	log  *logrus.Entry
}

func NewProxyResolver(repo *semantics.Repository, node providers.NodeProvider) *ProxyResolver {
	return &ProxyResolver{node: repo, raw: node, log: logrus.WithField("component", "proxy-resolver")}
}

// delegationMap maps a delegator address to its delegates, in the
// insertion order they were first observed in the call tree.
type delegationMap map[string][]string

// Resolve walks the call tree, builds the delegation map, and for each
// delegator classifies its proxy kind and attaches delegate semantics.
func (p *ProxyResolver) Resolve(ctx context.Context, chainID string, root *model.Call) (map[string]model.Proxy, error) {
	delegations := delegationMap{}
	collectDelegations(root, delegations)

	proxies := make(map[string]model.Proxy, len(delegations))
	for delegator, delegates := range delegations {
		if len(delegates) == 0 {
			continue
		}
		kind := p.classify(ctx, delegator, delegates[0])

		proxy := model.Proxy{Address: delegator, Kind: kind}
		for _, d := range delegates {
			sem, err := p.node.GetSemantics(ctx, chainID, d)
			if err != nil {
				p.log.WithError(err).WithField("delegate", d).Warn("failed to resolve delegate semantics")
				continue
			}
			proxy.Implementations = append(proxy.Implementations, sem)
			if sem.Standard == model.StandardERC20 && sem.ERC20 != nil && proxy.Token == nil {
				proxy.Token = sem.ERC20
				proxy.Name = sem.ERC20.Symbol
			}
			if proxy.Name == "" {
				proxy.Name = sem.Name
			}
		}
		proxies[delegator] = proxy
	}
	return proxies, nil
}

func collectDelegations(call *model.Call, out delegationMap) {
	if call == nil {
		return
	}
	for _, sub := range call.Subcalls {
		if sub.CallType == model.CallTypeDelegateCall {
			d := strings.ToLower(call.ToAddress)
			if !containsStr(out[d], strings.ToLower(sub.ToAddress)) {
				out[d] = append(out[d], strings.ToLower(sub.ToAddress))
			}
		}
		collectDelegations(sub, out)
	}
}

func containsStr(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

func (p *ProxyResolver) classify(ctx context.Context, delegator, firstDelegate string) model.ProxyKind {
	implSlot, err := hexToSlot(eip1967ImplementationSlot)
	if err == nil {
		raw, err := p.raw.GetStorageAt(ctx, delegator, implSlot)
		if err == nil && addressFromSlot(raw) == strings.ToLower(firstDelegate) {
			return model.ProxyEIP1967Proxy
		}
	}

	beaconSlot, err := hexToSlot(eip1967BeaconSlot)
	if err == nil {
		raw, err := p.raw.GetStorageAt(ctx, delegator, beaconSlot)
		if err == nil {
			beacon := addressFromSlot(raw)
			if beacon != "" && beacon != strings.Repeat("0", 40) {
				if impl, err := p.callImplementation(ctx, beacon); err == nil && impl == strings.ToLower(firstDelegate) {
					return model.ProxyEIP1967Beacon
				}
			}
		}
	}

	return model.ProxyGeneric
}

// callImplementation performs implementation() against the beacon,
// matching the original's beacon-probing step.
func (p *ProxyResolver) callImplementation(ctx context.Context, beacon string) (string, error) {
	selector, err := hex.DecodeString(strings.TrimPrefix(implementationSelector, "0x"))
	if err != nil {
		return "", fmt.Errorf("decode implementation() selector: %w", err)
	}
	out, err := p.raw.EthCall(ctx, beacon, selector)
	if err != nil {
		return "", fmt.Errorf("call beacon %s implementation(): %w", beacon, err)
	}
	if len(out) < 32 {
		return "", fmt.Errorf("beacon %s returned a short implementation() result", beacon)
	}
	return strings.ToLower(fmt.Sprintf("0x%x", out[len(out)-20:])), nil
}

func hexToSlot(h string) ([32]byte, error) {
	var out [32]byte
	h = strings.TrimPrefix(h, "0x")
	if len(h) != 64 {
		return out, fmt.Errorf("slot must be 32 bytes, got %d hex chars", len(h))
	}
	b, err := hex.DecodeString(h)
	if err != nil {
		return out, err
	}
	copy(out[:], b)
	return out, nil
}

func addressFromSlot(slot [32]byte) string {
	return strings.ToLower(fmt.Sprintf("0x%x", slot[12:]))
}

// ImplementationSlotHash and BeaconSlotHash return the plain keccak256 of the
// EIP-1967 labels; the slot constants above are each of these values minus
// one.
func ImplementationSlotHash() string {
	return "0x" + fmt.Sprintf("%x", crypto.Keccak256([]byte("eip1967.proxy.implementation")))
}

func BeaconSlotHash() string {
	return "0x" + fmt.Sprintf("%x", crypto.Keccak256([]byte("eip1967.proxy.beacon")))
}
