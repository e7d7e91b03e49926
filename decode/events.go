package decode

import (
	"context"
	"encoding/hex"
	"strings"

	"github.com/sirupsen/logrus"

	ethabi "github.com/ethtx/ethtx-go/abi"
	"github.com/ethtx/ethtx-go/model"
	"github.com/ethtx/ethtx-go/semantics"
)

// EventsDecoder is C5: it resolves each log's event semantics and decodes
// its indexed/non-indexed parameters.
type EventsDecoder struct {
	repo *semantics.Repository
	log  *logrus.Entry
}

func NewEventsDecoder(repo *semantics.Repository) *EventsDecoder {
	return &EventsDecoder{repo: repo, log: logrus.WithField("component", "abi-events-decoder")}
}

// Decode resolves and decodes every raw log, in the order given.
func (d *EventsDecoder) Decode(ctx context.Context, chainID, txHash string, timestamp uint64, logs []model.Event, proxies map[string]model.Proxy) []model.DecodedEvent {
	out := make([]model.DecodedEvent, 0, len(logs))
	for _, raw := range logs {
		out = append(out, d.decodeOne(ctx, chainID, txHash, timestamp, raw, proxies))
	}
	return out
}

func (d *EventsDecoder) decodeOne(ctx context.Context, chainID, txHash string, timestamp uint64, raw model.Event, proxies map[string]model.Proxy) model.DecodedEvent {
	decoded := model.DecodedEvent{
		ChainID:   chainID,
		TxHash:    txHash,
		Timestamp: timestamp,
		Contract:  model.AddressInfo{Address: raw.Contract, Name: d.repo.GetAddressLabel(ctx, chainID, raw.Contract, proxies)},
		Index:     raw.LogIndex,
		CallID:    raw.CallID,
	}

	topics := decodeTopics(raw.Topics)
	data := decodeHexOrEmpty(raw.LogData)

	anonymous := false
	var signature string
	if len(raw.Topics) > 0 && raw.Topics[0] != "" {
		signature = strings.ToLower(raw.Topics[0])
	} else {
		anonymous = true
	}

	event, guessed := d.resolveEvent(ctx, chainID, raw.Contract, signature, anonymous, len(topics), proxies)
	if event == nil {
		decoded.EventSignature = signature
		decoded.EventName = fallbackEventName(signature)
		decoded.Parameters = ethabi.DecodeUnknownEvent(data, topics)
		decoded.EventGuessed = true
		return decoded
	}

	decoded.EventSignature = event.Signature
	decoded.EventName = event.Name
	decoded.EventGuessed = guessed
	decoded.Parameters = ethabi.DecodeEventParameters(data, topics, event, event.Anonymous)
	return decoded
}

// resolveEvent implements §4.5's lookup order: the contract's own ABI by
// signature, its unique anonymous event (if any), its proxy delegates' ABIs,
// then the ERC-20/721/1155 standard tables disambiguated by how many topics
// are indexed (ERC-20's Transfer/Approval share topic hashes with ERC-721's
// but ERC-721 indexes the third argument too).
func (d *EventsDecoder) resolveEvent(ctx context.Context, chainID, address, signature string, anonymous bool, topicCount int, proxies map[string]model.Proxy) (*model.EventSemantics, bool) {
	if anonymous {
		if ev, err := d.repo.GetAnonymousEventABI(ctx, chainID, address); err == nil && ev != nil {
			return ev, false
		}
		return nil, false
	}

	if ev, err := d.repo.GetEventABI(ctx, chainID, address, signature); err == nil && ev != nil {
		return ev, false
	}

	if ev, err := d.repo.GetAnonymousEventABI(ctx, chainID, address); err == nil && ev != nil {
		return ev, false
	}

	if proxy, ok := proxies[strings.ToLower(address)]; ok {
		for _, impl := range proxy.Implementations {
			if ev, ok := impl.Contract.Events[signature]; ok {
				return &ev, false
			}
		}
	}

	if ev, ok := standardEventBySignature(signature, topicCount); ok {
		return &ev, false
	}

	return nil, false
}

// standardEventBySignature disambiguates shared topic hashes by indexed
// parameter count: ERC-1155's TransferSingle/TransferBatch/URI topics are
// unique, but ERC-20 and ERC-721 both emit Transfer/Approval under the same
// topic hash (ERC-20 indexes 2 parameters, ERC-721 indexes 3; the count
// includes topic[0] itself, the signature).
func standardEventBySignature(signature string, topicCount int) (model.EventSemantics, bool) {
	if ev, ok := semantics.ERC1155Events[signature]; ok {
		return ev, true
	}
	erc721, isERC721 := semantics.ERC721Events[signature]
	erc20, isERC20 := semantics.ERC20Events[signature]
	switch {
	case isERC721 && isERC20:
		if topicCount >= 4 {
			return erc721, true
		}
		return erc20, true
	case isERC721:
		return erc721, true
	case isERC20:
		return erc20, true
	}
	return model.EventSemantics{}, false
}

func decodeTopics(topics []string) [][]byte {
	out := make([][]byte, 0, len(topics))
	for _, t := range topics {
		if t == "" {
			continue
		}
		t = strings.TrimPrefix(t, "0x")
		b, err := hex.DecodeString(t)
		if err != nil {
			continue
		}
		out = append(out, b)
	}
	return out
}

func fallbackEventName(signature string) string {
	if signature == "" {
		return "Anonymous"
	}
	return signature
}

