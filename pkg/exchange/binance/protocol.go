package binance

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/bytedance/sonic"
	"resty.dev/v3"

	"configurator/pkg/core"
)

const (
	ProductionURL = "https://api.binance.com"
	SandboxURL    = "https://testnet.binance.vision"

	ProductionStreamURL = "wss://stream.binance.com:9443/ws"
	SandboxStreamURL    = "wss://testnet.binance.vision/ws"
)

// Protocol implements the core.Protocol interface for Binance exchange.
type Protocol struct{}

// NewProtocol creates a new Binance protocol instance.
func NewProtocol() *Protocol {
	return &Protocol{}
}

// Name returns the protocol identifier "binance".
func (p *Protocol) Name() string {
	return "binance"
}

// BaseURL returns the base URL for the Binance API.
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
// It handles Binance-specific error responses and maps them to appropriate error types.
func (p *Protocol) ParseResponse(op core.Operation, resp *resty.Response) (any, error) {
	if resp == nil {
		return nil, fmt.Errorf("nil response")
	}

	if resp.StatusCode() >= 400 {
		var binanceErr binanceAPIError
		if err := sonic.Unmarshal(resp.Bytes(), &binanceErr); err == nil && binanceErr.Code != 0 {
			return nil, core.NewExchangeErrorWithCode(
				p.Name(),
				mapBinanceErrorCode(binanceErr.Code, resp.StatusCode()),
				resp.StatusCode(),
				strconv.Itoa(binanceErr.Code),
				binanceErr.Msg,
			)
		}
		return nil, core.NewExchangeError(
			p.Name(),
			core.ErrorTypeFromStatus(resp.StatusCode()),
			resp.StatusCode(),
			fmt.Sprintf("HTTP error: %s", resp.Status()),
		)
	}

	n := NewNormalizer()
	body := resp.Bytes()

	switch op {
	case core.OpGetMarkets:
		var data binanceExchangeInfo
		if err := sonic.Unmarshal(body, &data); err != nil {
			return nil, fmt.Errorf("unmarshal exchange info: %w", err)
		}
		return n.NormalizeInstruments(&data)
	case core.OpGetOrderBook:
		var data binanceOrderBook
		if err := sonic.Unmarshal(body, &data); err != nil {
			return nil, fmt.Errorf("unmarshal order book: %w", err)
		}
		return n.NormalizeOrderBook(&data, "")
	default:
		return nil, fmt.Errorf("unsupported operation: %s", op)
	}
}

func (p *Protocol) buildGetMarketsRequest() (*core.Request, error) {
	req := core.NewRequest(http.MethodGet, "/api/v3/exchangeInfo")
	req.SetWeight(20)
	return req, nil
}

func (p *Protocol) buildGetOrderBookRequest(params core.Params) (*core.Request, error) {
	symbol, err := getRequiredStringParam(params, "symbol")
	if err != nil {
		return nil, err
	}

	limit := getIntParamWithDefault(params, "limit", 100)

	req := core.NewRequest(http.MethodGet, "/api/v3/depth")
	req.SetQuery("symbol", formatSymbol(symbol))
	req.SetQuery("limit", strconv.Itoa(limit))
	req.SetWeight(depthWeight(limit))

	return req, nil
}

// depthWeight follows the request weight table of /api/v3/depth.
func depthWeight(limit int) int {
	switch {
	case limit <= 100:
		return 5
	case limit <= 500:
		return 25
	case limit <= 1000:
		return 50
	default:
		return 250
	}
}

// streamName returns the partial depth stream for a symbol, e.g. "ethbtc@depth20".
// Partial depth streams only come in 5, 10, and 20 levels.
func streamName(symbol string, limit int) string {
	levels := 20
	switch {
	case limit > 0 && limit <= 5:
		levels = 5
	case limit > 5 && limit <= 10:
		levels = 10
	}
	return fmt.Sprintf("%s@depth%d", strings.ToLower(formatSymbol(symbol)), levels)
}

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
			if v > 0 {
				return v
			}
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

type binanceAPIError struct {
	Code int    `json:"code"`
	Msg  string `json:"msg"`
}

func mapBinanceErrorCode(code, status int) core.ErrorType {
	switch code {
	case -1003, -1015:
		return core.ErrorTypeRateLimit
	case -1001, -1006, -1007:
		return core.ErrorTypeServerError
	case -1121:
		return core.ErrorTypeNotFound
	case -1100, -1101, -1102, -1103, -1104, -1105:
		return core.ErrorTypeBadRequest
	default:
		if code <= -1100 && code > -2000 {
			return core.ErrorTypeBadRequest
		}
		return core.ErrorTypeFromStatus(status)
	}
}
