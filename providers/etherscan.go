package providers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	ethabi "github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/sirupsen/logrus"

	"github.com/ethtx/ethtx-go/model"
)

func jsonReader(s string) io.Reader {
	return strings.NewReader(s)
}

// ContractSourceProvider supplies verified ABIs by address, matching the
// teacher's AbiStorage/IndexedABI fetch path but over HTTP instead of a
// locally-supplied ABI string.
type ContractSourceProvider interface {
	GetContractABI(chainID, address string) (events map[string]model.EventSemantics, functions map[string]model.FunctionSemantics, name string, verified bool, err error)
}

type etherscanResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
	Result  []struct {
		ContractName string `json:"ContractName"`
		ABI          string `json:"ABI"`
	} `json:"result"`
}

// EtherscanProvider implements ContractSourceProvider against an
// Etherscan-shaped API: GET ?module=contract&action=getsourcecode&address=..&apikey=..
// returning {status, message, result:[{ContractName, ABI}]}, per §6.
type EtherscanProvider struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
	log     *logrus.Entry
}

func NewEtherscanProvider(baseURL, apiKey string) *EtherscanProvider {
	return &EtherscanProvider{
		BaseURL: baseURL,
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 10 * time.Second},
		log:     logrus.WithField("component", "etherscan-provider"),
	}
}

func (p *EtherscanProvider) GetContractABI(chainID, address string) (map[string]model.EventSemantics, map[string]model.FunctionSemantics, string, bool, error) {
	q := url.Values{}
	q.Set("module", "contract")
	q.Set("action", "getsourcecode")
	q.Set("address", address)
	q.Set("apikey", p.APIKey)

	resp, err := p.HTTP.Get(p.BaseURL + "?" + q.Encode())
	if err != nil {
		return nil, nil, "", false, fmt.Errorf("contract source request: %w", err)
	}
	defer resp.Body.Close()

	var parsed etherscanResponse
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, nil, "", false, fmt.Errorf("decode contract source response: %w", err)
	}
	if parsed.Status != "1" || parsed.Message != "OK" || len(parsed.Result) == 0 {
		return nil, nil, "", false, nil
	}
	raw := parsed.Result[0].ABI
	if raw == "" || raw == "Contract source code not verified" {
		return nil, nil, parsed.Result[0].ContractName, false, nil
	}

	parsedABI, err := ethabi.JSON(jsonReader(raw))
	if err != nil {
		p.log.WithError(err).Warn("malformed verified ABI, ignoring")
		return nil, nil, parsed.Result[0].ContractName, false, nil
	}

	events := make(map[string]model.EventSemantics, len(parsedABI.Events))
	for _, ev := range parsedABI.Events {
		events[eventTopic(ev)] = toEventSemantics(ev)
	}
	functions := make(map[string]model.FunctionSemantics, len(parsedABI.Methods))
	for _, m := range parsedABI.Methods {
		functions[methodSelector(m)] = toFunctionSemantics(m)
	}

	return events, functions, parsed.Result[0].ContractName, true, nil
}

func eventTopic(ev ethabi.Event) string {
	return ev.ID.Hex()
}

func methodSelector(m ethabi.Method) string {
	return "0x" + fmt.Sprintf("%x", m.ID)
}

func toEventSemantics(ev ethabi.Event) model.EventSemantics {
	params := make([]model.ParameterSemantics, 0, len(ev.Inputs))
	for _, in := range ev.Inputs {
		params = append(params, model.ParameterSemantics{
			Name:    in.Name,
			Type:    in.Type.String(),
			Indexed: in.Indexed,
			Dynamic: isDynamicType(in.Type.String()),
		})
	}
	return model.EventSemantics{
		Signature:  ev.ID.Hex(),
		Anonymous:  ev.Anonymous,
		Name:       ev.Name,
		Parameters: params,
	}
}

func toFunctionSemantics(m ethabi.Method) model.FunctionSemantics {
	inputs := make([]model.ParameterSemantics, 0, len(m.Inputs))
	for _, in := range m.Inputs {
		inputs = append(inputs, model.ParameterSemantics{Name: in.Name, Type: in.Type.String(), Dynamic: isDynamicType(in.Type.String())})
	}
	outputs := make([]model.ParameterSemantics, 0, len(m.Outputs))
	for _, out := range m.Outputs {
		outputs = append(outputs, model.ParameterSemantics{Name: out.Name, Type: out.Type.String(), Dynamic: isDynamicType(out.Type.String())})
	}
	return model.FunctionSemantics{
		Signature: "0x" + fmt.Sprintf("%x", m.ID),
		Name:      m.Name,
		Inputs:    inputs,
		Outputs:   outputs,
	}
}

func isDynamicType(typ string) bool {
	if typ == "bytes" || typ == "string" {
		return true
	}
	if len(typ) > 2 && typ[len(typ)-2:] == "[]" {
		return true
	}
	return false
}

// keccakSelector computes the 4-byte selector of a canonical signature. The
// signature-guessing path (§4.2.3) does not call it: guessed entries are
// stored under the selector that was looked up.
func keccakSelector(canonical string) string {
	return "0x" + fmt.Sprintf("%x", crypto.Keccak256([]byte(canonical))[:4])
}
