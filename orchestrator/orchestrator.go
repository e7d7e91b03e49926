// Package orchestrator is the top-level pipeline (C9): given a transaction
// hash it drives the node provider, proxy resolver, ABI call/event
// decoders, transfer/balance synthesis, and the semantic decoder, in the
// pipeline order spec.md lays out, returning one fully enriched
// DecodedTransaction.
package orchestrator

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ethtx/ethtx-go/decode"
	"github.com/ethtx/ethtx-go/model"
	"github.com/ethtx/ethtx-go/providers"
	"github.com/ethtx/ethtx-go/semantic"
	"github.com/ethtx/ethtx-go/semantics"
	"github.com/ethtx/ethtx-go/transfer"
)

var txHashPattern = regexp.MustCompile(`^(0x)?[0-9a-fA-F]{64}$`)

// NormalizeTxHash validates and 0x-prefixes a transaction hash (S7).
func NormalizeTxHash(hash string) (string, error) {
	if !txHashPattern.MatchString(hash) {
		return "", fmt.Errorf("malformed transaction hash %q", hash)
	}
	if !strings.HasPrefix(hash, "0x") {
		hash = "0x" + hash
	}
	return strings.ToLower(hash), nil
}

// Decoder ties together every stage into one entry point.
type Decoder struct {
	chainID string
	node    providers.NodeProvider
	repo    *semantics.Repository
	proxy   *decode.ProxyResolver
	calls   *decode.CallsDecoder
	events  *decode.EventsDecoder
	sem     *semantic.Decoder
	log     *logrus.Entry
}

func NewDecoder(chainID string, node providers.NodeProvider, repo *semantics.Repository) *Decoder {
	return &Decoder{
		chainID: chainID,
		node:    node,
		repo:    repo,
		proxy:   decode.NewProxyResolver(repo, node),
		calls:   decode.NewCallsDecoder(repo),
		events:  decode.NewEventsDecoder(repo),
		sem:     semantic.NewDecoder(repo),
		log:     logrus.WithField("component", "ethtx-decoder"),
	}
}

// DecodeTransaction runs the full pipeline for one transaction hash.
//
// Fatal errors (malformed hash, unreachable node, corrupt raw trace) abort
// immediately. Once the raw data is in hand, a failure in any later stage
// degrades that stage's output rather than aborting the whole decode — the
// result still carries every stage that did succeed. Status is false when
// the transaction failed on chain or when call decoding, semantic call
// decoding or ETH transfer extraction failed, per §7.
func (d *Decoder) DecodeTransaction(ctx context.Context, txHash string) (model.DecodedTransaction, error) {
	txHash, err := NormalizeTxHash(txHash)
	if err != nil {
		return model.DecodedTransaction{}, fmt.Errorf("invalid transaction hash: %w", err)
	}

	tx, err := d.node.GetTransaction(ctx, txHash)
	if err != nil {
		return model.DecodedTransaction{}, fmt.Errorf("fetch transaction %s: %w", txHash, err)
	}
	block, err := d.node.GetBlockByTransaction(ctx, txHash)
	if err != nil {
		return model.DecodedTransaction{}, fmt.Errorf("fetch block for %s: %w", txHash, err)
	}
	rawCall, err := d.node.GetCallTrace(ctx, txHash)
	if err != nil {
		return model.DecodedTransaction{}, fmt.Errorf("fetch call trace for %s: %w", txHash, err)
	}
	if rawCall == nil {
		return model.DecodedTransaction{}, fmt.Errorf("node returned an empty call trace for %s", txHash)
	}
	rawLogs, err := d.node.GetLogs(ctx, txHash)
	if err != nil {
		d.log.WithError(err).Warn("failed to fetch logs, continuing with an empty event list")
		rawLogs = nil
	}

	fromInfo := model.AddressInfo{Address: tx.FromAddress, Badge: model.BadgeSender}
	toInfo := model.AddressInfo{Address: tx.ToAddress, Badge: model.BadgeReceiver}
	metadata := semantic.BuildMetadata(d.chainID, *tx, *block, fromInfo, toInfo)

	proxies, err := d.proxy.Resolve(ctx, d.chainID, rawCall)
	if err != nil {
		d.log.WithError(err).Warn("proxy resolution failed, continuing without proxy context")
		proxies = map[string]model.Proxy{}
	}

	stageFailed := false
	decodedCalls, err := d.calls.Decode(ctx, d.chainID, txHash, rawCall, proxies)
	if err != nil {
		d.log.WithError(err).Error("call tree decoding failed")
		stageFailed = true
		decodedCalls = model.DecodedCall{ChainID: d.chainID, TxHash: txHash, Status: tx.Status, Error: err.Error()}
	} else if semCalls, semErr := d.sem.DecodeCalls(ctx, d.chainID, decodedCalls, tx.FromAddress, tx.ToAddress, proxies); semErr != nil {
		d.log.WithError(semErr).Error("semantic call decoding failed")
		stageFailed = true
	} else {
		decodedCalls = semCalls
	}

	decodedEvents := d.events.Decode(ctx, d.chainID, txHash, block.Timestamp, rawLogs, proxies)
	decodedEvents = d.sem.DecodeEvents(ctx, d.chainID, decodedEvents, tx.FromAddress, tx.ToAddress, proxies)

	ethTransfers, err := transfer.ExtractEthTransfers(decodedCalls)
	if err != nil {
		d.log.WithError(err).Warn("eth transfer extraction failed")
		stageFailed = true
	}
	tokenTransfers := transfer.ExtractTokenTransfers(decodedEvents, transfer.RepoTokenLabeler{Ctx: ctx, ChainID: d.chainID, Repo: d.repo})
	allTransfers := append(ethTransfers, tokenTransfers...)
	balances := transfer.AggregateBalances(ethTransfers, tokenTransfers)

	return model.DecodedTransaction{
		Metadata:  metadata,
		Events:    decodedEvents,
		Calls:     decodedCalls,
		Transfers: allTransfers,
		Balances:  balances,
		Status:    tx.Status && !stageFailed,
	}, nil
}
