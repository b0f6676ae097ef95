package binance

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"configurator/pkg/core"
)

var _ core.Protocol = (*Protocol)(nil)

func TestProtocol_Metadata(t *testing.T) {
	p := NewProtocol()

	assert.Equal(t, "binance", p.Name())
	assert.Equal(t, ProductionURL, p.BaseURL(false))
	assert.Equal(t, SandboxURL, p.BaseURL(true))
	assert.ElementsMatch(t, []core.Operation{core.OpGetMarkets, core.OpGetOrderBook}, p.SupportedOperations())
	assert.True(t, core.Supports(p, core.OpGetOrderBook))
	assert.False(t, core.Supports(p, core.Operation(99)))
}

func TestProtocol_BuildRequest(t *testing.T) {
	p := NewProtocol()

	tests := []struct {
		name       string
		op         core.Operation
		params     core.Params
		wantPath   string
		wantQuery  map[string]any
		wantWeight int
		wantErr    bool
	}{
		{
			name:       "markets",
			op:         core.OpGetMarkets,
			params:     core.Params{},
			wantPath:   "/api/v3/exchangeInfo",
			wantQuery:  map[string]any{},
			wantWeight: 20,
		},
		{
			name:       "order book default limit",
			op:         core.OpGetOrderBook,
			params:     core.Params{"symbol": "ETH/BTC"},
			wantPath:   "/api/v3/depth",
			wantQuery:  map[string]any{"symbol": "ETHBTC", "limit": "100"},
			wantWeight: 5,
		},
		{
			name:       "order book large limit",
			op:         core.OpGetOrderBook,
			params:     core.Params{"symbol": "ETHBTC", "limit": 1000},
			wantPath:   "/api/v3/depth",
			wantQuery:  map[string]any{"symbol": "ETHBTC", "limit": "1000"},
			wantWeight: 50,
		},
		{
			name:    "order book without symbol",
			op:      core.OpGetOrderBook,
			params:  core.Params{},
			wantErr: true,
		},
		{
			name:    "unsupported operation",
			op:      core.Operation(99),
			params:  core.Params{},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, err := p.BuildRequest(context.Background(), tt.op, tt.params)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "GET", req.Method)
			assert.Equal(t, tt.wantPath, req.Path)
			assert.Equal(t, tt.wantWeight, req.Weight)
			for k, v := range tt.wantQuery {
				assert.Equal(t, v, req.Query[k], k)
			}
			assert.Len(t, req.Query, len(tt.wantQuery))
		})
	}
}

func TestDepthWeight(t *testing.T) {
	tests := []struct {
		limit int
		want  int
	}{
		{5, 5},
		{100, 5},
		{101, 25},
		{500, 25},
		{1000, 50},
		{5000, 250},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, depthWeight(tt.limit), "limit %d", tt.limit)
	}
}

func TestStreamName(t *testing.T) {
	tests := []struct {
		symbol string
		limit  int
		want   string
	}{
		{"ETHBTC", 0, "ethbtc@depth20"},
		{"ETH/BTC", 5, "ethbtc@depth5"},
		{"BTCUSDT", 7, "btcusdt@depth10"},
		{"BTCUSDT", 100, "btcusdt@depth20"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, streamName(tt.symbol, tt.limit))
		})
	}
}

func TestMapBinanceErrorCode(t *testing.T) {
	tests := []struct {
		code   int
		status int
		want   core.ErrorType
	}{
		{-1003, 429, core.ErrorTypeRateLimit},
		{-1001, 500, core.ErrorTypeServerError},
		{-1121, 400, core.ErrorTypeNotFound},
		{-1100, 400, core.ErrorTypeBadRequest},
		{-1130, 400, core.ErrorTypeBadRequest},
		{-2010, 503, core.ErrorTypeServerError},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, mapBinanceErrorCode(tt.code, tt.status), "code %d", tt.code)
	}
}
