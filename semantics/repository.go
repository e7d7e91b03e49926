package semantics

import (
	"context"
	"encoding/hex"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"
	"golang.org/x/exp/slices"

	ethabi "github.com/ethtx/ethtx-go/abi"
	"github.com/ethtx/ethtx-go/model"
	"github.com/ethtx/ethtx-go/providers"
	"github.com/ethtx/ethtx-go/store"
)

// ZeroHash is the Keccak-256 of the empty byte string — the sentinel code
// hash every externally-owned account (no deployed code) carries.
const ZeroHash = "0xc5d2460186f7233c927e7db2dcc703c0e500b653ca82273b7bfad8045d85a470"

// Repository is the semantics repository (C2): a cached, write-through
// store over a persistent database plus external sources, answering "for
// contract C, what is the ABI of function F? event E? is C a token?".
//
// Reads dominate and must be safe for concurrent shared access; writes are
// idempotent upserts. AddressSemantics returned to a caller are copies, so a
// concurrent write never tears a record an in-progress decode still holds
// (the "copy-on-read" discipline from the design notes).
type Repository struct {
	mu            sync.RWMutex
	addressCache  map[string]model.AddressSemantics
	contractCache map[string]model.ContractSemantics

	db             store.Store
	node           providers.NodeProvider
	contractSource providers.ContractSourceProvider
	signatureDir   providers.SignatureDirectory
	names          providers.NameService

	log *logrus.Entry
}

func NewRepository(db store.Store, node providers.NodeProvider, contractSource providers.ContractSourceProvider, signatureDir providers.SignatureDirectory, names providers.NameService) *Repository {
	if names == nil {
		names = providers.NoopNameService{}
	}
	return &Repository{
		addressCache:  make(map[string]model.AddressSemantics),
		contractCache: make(map[string]model.ContractSemantics),
		db:            db,
		node:          node,
		contractSource: contractSource,
		signatureDir:  signatureDir,
		names:         names,
		log:           logrus.WithField("component", "semantics-repository"),
	}
}

func addressKey(chainID, address string) string {
	return chainID + ":" + address
}

// GetSemantics implements the lookup protocol of §4.2: memo cache, then
// persistent database, then node + contract-source provider, with bytecode
// probing as a last resort.
func (r *Repository) GetSemantics(ctx context.Context, chainID, address string) (model.AddressSemantics, error) {
	key := addressKey(chainID, address)

	r.mu.RLock()
	if cached, ok := r.addressCache[key]; ok {
		r.mu.RUnlock()
		return cached, nil
	}
	r.mu.RUnlock()

	if r.db != nil {
		if stored, found, err := r.db.GetAddress(chainID, address); err != nil {
			r.log.WithError(err).Warn("persistent lookup failed, falling back to node")
		} else if found {
			sem := *stored
			if contract, cFound, cErr := r.db.GetContract(sem.Contract.CodeHash); cErr == nil && cFound {
				sem.Contract = Amend(*contract)
			}
			if sem.Name == sem.Address && !sem.IsContract {
				if name, ok, err := r.names.ResolveName(address); err == nil && ok {
					sem.Name = name
				}
			}
			r.store(key, sem)
			return sem, nil
		}
	}

	sem, err := r.create(ctx, chainID, address)
	if err != nil {
		return model.AddressSemantics{}, err
	}
	r.store(key, sem)
	return sem, nil
}

func (r *Repository) store(key string, sem model.AddressSemantics) {
	r.mu.Lock()
	r.addressCache[key] = sem
	r.contractCache[sem.Contract.CodeHash] = sem.Contract
	r.mu.Unlock()
	if r.db != nil {
		if err := r.db.PutContract(sem.Contract); err != nil {
			r.log.WithError(err).Warn("persist contract failed")
		}
		if err := r.db.PutAddress(sem); err != nil {
			r.log.WithError(err).Warn("persist address failed")
		}
	}
}

func (r *Repository) create(ctx context.Context, chainID, address string) (model.AddressSemantics, error) {
	code, err := r.node.GetCode(ctx, address)
	if err != nil {
		return model.AddressSemantics{}, fmt.Errorf("fetch bytecode for %s: %w", address, err)
	}

	codeHash := codeHashHex(code)
	if codeHash == ZeroHash {
		name := address
		if resolved, ok, err := r.names.ResolveName(address); err == nil && ok {
			name = resolved
		}
		return model.AddressSemantics{ChainID: chainID, Address: address, Name: name, IsContract: false}, nil
	}

	r.mu.RLock()
	cached, ok := r.contractCache[codeHash]
	r.mu.RUnlock()
	if ok {
		return r.finishContractSemantics(ctx, chainID, address, cached), nil
	}
	if r.db != nil {
		if stored, found, err := r.db.GetContract(codeHash); err == nil && found {
			return r.finishContractSemantics(ctx, chainID, address, *stored), nil
		}
	}

	contract := model.ContractSemantics{CodeHash: codeHash, Events: map[string]model.EventSemantics{}, Functions: map[string]model.FunctionSemantics{}}
	name := address
	if r.contractSource != nil {
		events, functions, srcName, verified, err := r.contractSource.GetContractABI(chainID, address)
		if err != nil {
			r.log.WithError(err).Warn("contract-source provider failed")
		} else if verified {
			contract.Events = events
			contract.Functions = functions
			name = srcName
		}
	}
	if len(contract.Functions) == 0 {
		// no verified ABI: probe raw bytecode for well-known selectors so the
		// contract can still be classified as a token.
		standard := ProbeBytecode(hex.EncodeToString(code))
		contract.Functions = standardFunctionsFor(standard)
		contract.Events = standardEventsFor(standard)
	}
	contract.Name = name

	return r.finishContractSemantics(ctx, chainID, address, contract), nil
}

func (r *Repository) finishContractSemantics(ctx context.Context, chainID, address string, contract model.ContractSemantics) model.AddressSemantics {
	contract = Amend(contract)
	standard := ClassifyStandard(contract.Functions, contract.Events)
	contract = attachStandardTransformations(contract, standard)
	sem := model.AddressSemantics{
		ChainID:    chainID,
		Address:    address,
		Name:       contract.Name,
		IsContract: true,
		Contract:   contract,
		Standard:   standard,
	}
	if standard == model.StandardERC20 {
		sem.ERC20 = r.probeERC20Info(ctx, address)
	}
	return sem
}

// attachStandardTransformations merges the token-display transformations
// (decimals scaling, NFT id formatting) for the classified standard into a
// contract's table, without overriding any transformation the contract's
// own verified ABI or amendments already declared for that selector.
func attachStandardTransformations(contract model.ContractSemantics, standard model.Standard) model.ContractSemantics {
	var standardTransforms map[string]map[string]model.TransformationSemantics
	switch standard {
	case model.StandardERC20:
		standardTransforms = ERC20Transformations
	case model.StandardERC721:
		standardTransforms = ERC721Transformations
	default:
		return contract
	}

	merged := make(map[string]map[string]model.TransformationSemantics, len(contract.Transformations)+len(standardTransforms))
	for k, v := range contract.Transformations {
		merged[k] = v
	}
	for selector, params := range standardTransforms {
		if _, exists := merged[selector]; exists {
			continue
		}
		merged[selector] = params
	}
	contract.Transformations = merged
	return contract
}

// probeERC20Info reads name()/symbol()/decimals() through the node
// provider's eth_call surface. Any view that reverts or returns a shape this
// decoder can't parse (some legacy tokens return bytes32 instead of string,
// or omit decimals entirely) is left at its default (an empty name or
// symbol, 18 decimals) rather than failing the whole classification.
func (r *Repository) probeERC20Info(ctx context.Context, address string) *model.ERC20Info {
	info := &model.ERC20Info{Decimals: 18}
	if name, ok := r.callStringView(ctx, address, "0x06fdde03", "name"); ok {
		info.Name = name
	}
	if symbol, ok := r.callStringView(ctx, address, "0x95d89b41", "symbol"); ok {
		info.Symbol = symbol
	}
	if decimals, ok := r.callUint8View(ctx, address, "0x313ce567", "decimals"); ok {
		info.Decimals = decimals
	}
	return info
}

func (r *Repository) ethCallSelector(ctx context.Context, address, selectorHex string) ([]byte, error) {
	if r.node == nil {
		return nil, fmt.Errorf("no node provider configured")
	}
	selector, err := hex.DecodeString(strings.TrimPrefix(selectorHex, "0x"))
	if err != nil {
		return nil, fmt.Errorf("decode selector %s: %w", selectorHex, err)
	}
	return r.node.EthCall(ctx, address, selector)
}

func (r *Repository) callStringView(ctx context.Context, address, selectorHex, outputName string) (string, bool) {
	out, err := r.ethCallSelector(ctx, address, selectorHex)
	if err != nil {
		return "", false
	}
	fn := &model.FunctionSemantics{Outputs: []model.ParameterSemantics{{Name: outputName, Type: "string"}}}
	_, outputs, _ := ethabi.DecodeFunctionParameters(nil, out, fn, true)
	if len(outputs) != 1 {
		return "", false
	}
	s, ok := outputs[0].Value.(string)
	return s, ok
}

func (r *Repository) callUint8View(ctx context.Context, address, selectorHex, outputName string) (uint8, bool) {
	out, err := r.ethCallSelector(ctx, address, selectorHex)
	if err != nil {
		return 0, false
	}
	fn := &model.FunctionSemantics{Outputs: []model.ParameterSemantics{{Name: outputName, Type: "uint8"}}}
	_, outputs, _ := ethabi.DecodeFunctionParameters(nil, out, fn, true)
	if len(outputs) != 1 {
		return 0, false
	}
	v, ok := outputs[0].Value.(*big.Int)
	if !ok || !v.IsUint64() || v.Uint64() > 255 {
		return 0, false
	}
	return uint8(v.Uint64()), true
}

func codeHashHex(code []byte) string {
	return "0x" + fmt.Sprintf("%x", crypto.Keccak256(code))
}

func standardFunctionsFor(standard model.Standard) map[string]model.FunctionSemantics {
	switch standard {
	case model.StandardERC20:
		return ERC20Functions
	case model.StandardERC721:
		return ERC721Functions
	case model.StandardERC1155:
		return ERC1155Functions
	default:
		return map[string]model.FunctionSemantics{}
	}
}

func standardEventsFor(standard model.Standard) map[string]model.EventSemantics {
	switch standard {
	case model.StandardERC20:
		return ERC20Events
	case model.StandardERC721:
		return ERC721Events
	case model.StandardERC1155:
		return ERC1155Events
	default:
		return map[string]model.EventSemantics{}
	}
}

// GetEventABI resolves an event by exact signature match on the contract's
// own ABI only (step 1 of C5's lookup order; standards/proxy fallbacks live
// in package decode, which has the proxies map this repository doesn't).
func (r *Repository) GetEventABI(ctx context.Context, chainID, address, signature string) (*model.EventSemantics, error) {
	sem, err := r.GetSemantics(ctx, chainID, address)
	if err != nil {
		return nil, err
	}
	if ev, ok := sem.Contract.Events[signature]; ok {
		return &ev, nil
	}
	return nil, nil
}

// GetAnonymousEventABI returns the contract's anonymous event iff there is
// exactly one (§4.4/§4.5's "Maker LogNote" disambiguation rule).
func (r *Repository) GetAnonymousEventABI(ctx context.Context, chainID, address string) (*model.EventSemantics, error) {
	sem, err := r.GetSemantics(ctx, chainID, address)
	if err != nil {
		return nil, err
	}
	var found *model.EventSemantics
	count := 0
	for _, ev := range sem.Contract.Events {
		if ev.Anonymous {
			count++
			e := ev
			found = &e
		}
	}
	if count == 1 {
		return found, nil
	}
	return nil, nil
}

func (r *Repository) GetFunctionABI(ctx context.Context, chainID, address, selector string) (*model.FunctionSemantics, error) {
	sem, err := r.GetSemantics(ctx, chainID, address)
	if err != nil {
		return nil, err
	}
	if fn, ok := sem.Contract.Functions[selector]; ok {
		return &fn, nil
	}
	return nil, nil
}

func (r *Repository) GetTransformations(ctx context.Context, chainID, address, selector string) (map[string]model.TransformationSemantics, error) {
	sem, err := r.GetSemantics(ctx, chainID, address)
	if err != nil {
		return nil, err
	}
	return sem.Contract.Transformations[selector], nil
}

func (r *Repository) GetStandard(ctx context.Context, chainID, address string) (model.Standard, error) {
	sem, err := r.GetSemantics(ctx, chainID, address)
	if err != nil {
		return model.StandardUnknown, err
	}
	return sem.Standard, nil
}

func (r *Repository) GetTokenData(ctx context.Context, chainID, address string) (model.ERC20Info, model.Standard, bool) {
	sem, err := r.GetSemantics(ctx, chainID, address)
	if err != nil || sem.ERC20 == nil {
		return model.ERC20Info{}, model.StandardUnknown, false
	}
	return *sem.ERC20, sem.Standard, true
}

// GetAddressLabel produces the best-effort human label for an address: a
// precompile name, ERC-20 symbol, proxy name, the resolved semantics name,
// or the raw address as a last resort.
func (r *Repository) GetAddressLabel(ctx context.Context, chainID, address string, proxies map[string]model.Proxy) string {
	if IsPrecompile(address) {
		return "Precompiled"
	}
	if info, _, ok := r.GetTokenData(ctx, chainID, address); ok && info.Symbol != "" {
		return info.Symbol
	}
	if proxy, ok := proxies[address]; ok && proxy.Name != "" {
		return proxy.Name
	}
	sem, err := r.GetSemantics(ctx, chainID, address)
	if err == nil && sem.Name != "" {
		return sem.Name
	}
	return address
}

// GuessFunction implements §4.2.3's signature-guessing fallback: consult the
// local Signature index first (preferring highest-count non-guessed
// entries), then the external signature directory, persisting whatever is
// found marked guessed=true.
func (r *Repository) GuessFunction(ctx context.Context, selector string) (*model.FunctionSemantics, error) {
	if r.db != nil {
		rows, err := r.db.GetSignatures(selector)
		if err == nil && len(rows) > 0 {
			best := bestSignature(rows)
			return signatureToFunction(best), nil
		}
	}
	if r.signatureDir == nil {
		return nil, nil
	}
	candidates, err := r.signatureDir.ListFunctionSignatures(selector)
	if err != nil {
		r.log.WithError(err).Warn("signature directory lookup failed")
		return nil, nil
	}
	if len(candidates) == 0 {
		return nil, nil
	}
	chosen := candidates[0] // newest-first; first candidate wins
	sig := model.Signature{Hash: selector, Name: chosen.Name, Args: chosen.Args, Count: 1, Guessed: true}
	if r.db != nil {
		if err := r.db.UpsertSignature(sig); err != nil {
			r.log.WithError(err).Warn("persist guessed signature failed")
		}
	}
	return signatureToFunction(sig), nil
}

// bestSignature picks the highest-count non-guessed entry. rows is cloned
// via golang.org/x/exp/slices, matching the teacher's use of that package
// for signature-list bookkeeping (utils.go), before the in-place scan.
func bestSignature(rows []model.Signature) model.Signature {
	candidates := slices.Clone(rows)
	best := candidates[0]
	for _, s := range candidates[1:] {
		if betterSignature(s, best) {
			best = s
		}
	}
	return best
}

func betterSignature(a, b model.Signature) bool {
	if a.Guessed != b.Guessed {
		return !a.Guessed
	}
	return a.Count > b.Count
}

func signatureToFunction(sig model.Signature) *model.FunctionSemantics {
	inputs := make([]model.ParameterSemantics, len(sig.Args))
	for i, a := range sig.Args {
		inputs[i] = model.ParameterSemantics{Name: a.Name, Type: a.Type, Dynamic: isDynamicType(a.Type)}
	}
	return &model.FunctionSemantics{Signature: sig.Hash, Name: sig.Name, Inputs: inputs}
}

func isDynamicType(typ string) bool {
	if typ == "bytes" || typ == "string" {
		return true
	}
	return len(typ) > 2 && typ[len(typ)-2:] == "[]"
}
