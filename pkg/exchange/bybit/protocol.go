package bybit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"resty.dev/v3"

	"configurator/pkg/core"
)

const (
	ProductionURL = "https://api.bybit.com"
	SandboxURL    = "https://api-testnet.bybit.com"

	category = "spot"
)

// Protocol implements the core.Protocol interface for Bybit exchange.
type Protocol struct{}

// NewProtocol creates a new Bybit protocol instance.
func NewProtocol() *Protocol {
	return &Protocol{}
}

// Name returns the protocol identifier "bybit".
func (p *Protocol) Name() string {
	return "bybit"
}

// BaseURL returns the base URL for the Bybit API.
// If sandbox is true, returns the testnet URL; otherwise returns the production URL.
func (p *Protocol) BaseURL(sandbox bool) string {
	if sandbox {
		return SandboxURL
	}
	return ProductionURL
}

// SupportedOperations returns the list of operations supported by this protocol.
func (p *Protocol) SupportedOperations() []core.Operation {
	return []core.Operation{
		core.OpGetMarkets,
		core.OpGetOrderBook,
	}
}

// BuildRequest constructs an exchange-specific HTTP request for the given operation.
func (p *Protocol) BuildRequest(ctx context.Context, op core.Operation, params core.Params) (*core.Request, error) {
	switch op {
	case core.OpGetMarkets:
		return p.buildGetMarketsRequest()
	case core.OpGetOrderBook:
		return p.buildGetOrderBookRequest(params)
	default:
		return nil, fmt.Errorf("unsupported operation: %s", op)
	}
}

// ParseResponse parses an HTTP response and normalizes it to canonical types.
// Bybit reports most errors with HTTP 200 and a non-zero retCode.
func (p *Protocol) ParseResponse(op core.Operation, resp *resty.Response) (any, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil response")
	}

	var envelope bybitResponse
	decodeErr := sonic.Unmarshal(resp.Bytes(), &envelope)

	if resp.StatusCode() >= 400 {
		if decodeErr == nil && envelope.RetCode != 0 {
			return nil, p.apiError(envelope, resp.StatusCode())
		}
		return nil, core.NewExchangeError(
			p.Name(),
			core.ErrorTypeFromStatus(resp.StatusCode()),
			resp.StatusCode(),
			fmt.Sprintf("HTTP error: %s", resp.Status()),
		)
	}

	if decodeErr != nil {
		return nil, fmt.Errorf("unmarshal response: %w", decodeErr)
	}
	if envelope.RetCode != 0 {
		return nil, p.apiError(envelope, resp.StatusCode())
	}

	n := NewNormalizer()

	switch op {
	case core.OpGetMarkets:
		var data bybitInstruments
		if err := sonic.Unmarshal(envelope.Result, &data); err != nil {
			return nil, fmt.Errorf("unmarshal instruments: %w", err)
		}
		return n.NormalizeInstruments(&data)
	case core.OpGetOrderBook:
		var data bybitOrderBook
		if err := sonic.Unmarshal(envelope.Result, &data); err != nil {
			return nil, fmt.Errorf("unmarshal order book: %w", err)
		}
		return n.NormalizeOrderBook(&data, "")
	default:
		return nil, fmt.Errorf("unsupported operation: %s", op)
	}
}

func (p *Protocol) apiError(envelope bybitResponse, status int) error {
	return core.NewExchangeErrorWithCode(
		p.Name(),
		mapBybitErrorCode(envelope.RetCode),
		status,
		strconv.Itoa(envelope.RetCode),
		envelope.RetMsg,
	)
}

func (p *Protocol) buildGetMarketsRequest() (*core.Request, error) {
	req := core.NewRequest(http.MethodGet, "/v5/market/instruments-info")
	req.SetQuery("category", category)
	return req, nil
}

func (p *Protocol) buildGetOrderBookRequest(params core.Params) (*core.Request, error) {
	symbol, err := getRequiredStringParam(params, "symbol")
	if err != nil {
		return nil, err
	}

	req := core.NewRequest(http.MethodGet, "/v5/market/orderbook")
	req.SetQuery("category", category)
	req.SetQuery("symbol", formatSymbol(symbol))

	if limit := getIntParamWithDefault(params, "limit", 0); limit > 0 {
		req.SetQuery("limit", strconv.Itoa(min(limit, maxDepth)))
	}

	return req, nil
}

// maxDepth is the deepest spot order book Bybit serves.
const maxDepth = 200

func formatSymbol(symbol string) string {
	return strings.ReplaceAll(symbol, "/", "")
}

func getRequiredStringParam(params core.Params, key string) (string, error) {
	val, ok := params[key]
	if !ok {
		return "", fmt.Errorf("missing required parameter: %s", key)
	}

	str, ok := val.(string)
	if !ok {
		return "", fmt.Errorf("parameter %s must be a string", key)
	}

	if str == "" {
		return "", fmt.Errorf("parameter %s cannot be empty", key)
	}

	return str, nil
}

func getIntParamWithDefault(params core.Params, key string, def int) int {
	if val, ok := params[key]; ok {
		switch v := val.(type) {
		case int:
			return v
		case int64:
			return int(v)
		case float64:
			return int(v)
		case string:
			if i, err := strconv.Atoi(v); err == nil {
				return i
			}
		}
	}
	return def
}

type bybitResponse struct {
	RetCode int             `json:"retCode"`
	RetMsg  string          `json:"retMsg"`
	Result  json.RawMessage `json:"result"`
	Time    int64           `json:"time"`
}

func mapBybitErrorCode(code int) core.ErrorType {
	switch code {
	case 10001, 10002, 10003:
		return core.ErrorTypeBadRequest
	case 10006, 10018:
		return core.ErrorTypeRateLimit
	case 10000:
		return core.ErrorTypeTimeout
	case 10016:
		return core.ErrorTypeServerError
	default:
		if code >= 10000 && code < 11000 {
			return core.ErrorTypeBadRequest
		}
		return core.ErrorTypeUnknown
	}
}
