package providers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/ethtx/ethtx-go/model"
)

// SignatureDirectory supplies candidate names for unknown 4-byte function
// selectors or 32-byte event topics.
type SignatureDirectory interface {
	ListFunctionSignatures(selector string) ([]GuessedSignature, error)
	ListEventSignatures(topic string) ([]GuessedSignature, error)
}

// GuessedSignature is one candidate name("type1","type2",...) parsed from a
// directory response.
type GuessedSignature struct {
	Name string
	Args []model.SignatureArg
}

type fourByteResponse struct {
	Results []struct {
		TextSignature string `json:"text_signature"`
	} `json:"results"`
}

// FourByteProvider implements SignatureDirectory against a 4byte.directory
// shaped API. Results are iterated newest-first: the directory's default
// ordering is oldest-first by id, so entries are reversed before being
// returned, matching the original project's FourByteProvider.
type FourByteProvider struct {
	BaseURL string
	HTTP    *http.Client
	log     *logrus.Entry
}

func NewFourByteProvider(baseURL string) *FourByteProvider {
	return &FourByteProvider{
		BaseURL: baseURL,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		log:     logrus.WithField("component", "signature-directory"),
	}
}

func (p *FourByteProvider) ListFunctionSignatures(selector string) ([]GuessedSignature, error) {
	return p.list("signatures", selector)
}

func (p *FourByteProvider) ListEventSignatures(topic string) ([]GuessedSignature, error) {
	return p.list("event-signatures", topic)
}

func (p *FourByteProvider) list(endpoint, hexSignature string) ([]GuessedSignature, error) {
	q := url.Values{}
	q.Set("hex_signature", hexSignature)
	resp, err := p.HTTP.Get(p.BaseURL + "/" + endpoint + "/?" + q.Encode())
	if err != nil {
		return nil, fmt.Errorf("signature directory request: %w", err)
	}
	defer resp.Body.Close()

	var parsed fourByteResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decode signature directory response: %w", err)
	}

	out := make([]GuessedSignature, 0, len(parsed.Results))
	for _, r := range parsed.Results {
		sig, ok := parseTextSignature(r.TextSignature)
		if !ok {
			p.log.WithField("text_signature", r.TextSignature).Warn("unparseable candidate signature")
			continue
		}
		out = append(out, sig)
	}
	// newest-first: reverse the directory's oldest-first listing.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out, nil
}

var textSigRe = regexp.MustCompile(`^([A-Za-z_$][A-Za-z0-9_$]*)\(([^()]*)\)$`)

// parseTextSignature parses "name(type1,type2,...)", rejecting signatures
// whose argument list contains nested parentheses (tuple types) since those
// can't be distinguished from the flat candidate list alone.
func parseTextSignature(text string) (GuessedSignature, bool) {
	m := textSigRe.FindStringSubmatch(text)
	if m == nil {
		return GuessedSignature{}, false
	}
	name := m[1]
	var args []model.SignatureArg
	if m[2] != "" {
		for i, t := range strings.Split(m[2], ",") {
			args = append(args, model.SignatureArg{Name: fmt.Sprintf("arg%d", i), Type: strings.TrimSpace(t)})
		}
	}
	return GuessedSignature{Name: name, Args: args}, true
}
