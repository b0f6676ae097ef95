package bybit

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

	assert.Equal(t, "bybit", p.Name())
	assert.Equal(t, ProductionURL, p.BaseURL(false))
	assert.Equal(t, SandboxURL, p.BaseURL(true))
	assert.Len(t, p.SupportedOperations(), 2)
}

func TestProtocol_BuildRequest(t *testing.T) {
	p := NewProtocol()

	tests := []struct {
		name      string
		op        core.Operation
		params    core.Params
		wantPath  string
		wantQuery core.Params
		wantErr   bool
	}{
		{
			name:      "markets",
			op:        core.OpGetMarkets,
			params:    core.Params{},
			wantPath:  "/v5/market/instruments-info",
			wantQuery: core.Params{"category": "spot"},
		},
		{
			name:      "order book",
			op:        core.OpGetOrderBook,
			params:    core.Params{"symbol": "BTC/USDT", "limit": 50},
			wantPath:  "/v5/market/orderbook",
			wantQuery: core.Params{"category": "spot", "symbol": "BTCUSDT", "limit": "50"},
		},
		{
			name:      "order book limit capped",
			op:        core.OpGetOrderBook,
			params:    core.Params{"symbol": "BTCUSDT", "limit": 1000},
			wantPath:  "/v5/market/orderbook",
			wantQuery: core.Params{"category": "spot", "symbol": "BTCUSDT", "limit": "200"},
		},
		{
			name:      "order book without limit",
			op:        core.OpGetOrderBook,
			params:    core.Params{"symbol": "BTCUSDT"},
			wantPath:  "/v5/market/orderbook",
			wantQuery: core.Params{"category": "spot", "symbol": "BTCUSDT"},
		},
		{
			name:    "missing symbol",
			op:      core.OpGetOrderBook,
			params:  core.Params{"symbol": ""},
			wantErr: true,
		},
		{
			name:    "unsupported",
			op:      core.Operation(42),
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
			assert.Equal(t, tt.wantPath, req.Path)
			assert.Equal(t, tt.wantQuery, req.Query)
		})
	}
}

func TestMapBybitErrorCode(t *testing.T) {
	tests := []struct {
		code int
		want core.ErrorType
	}{
		{10001, core.ErrorTypeBadRequest},
		{10006, core.ErrorTypeRateLimit},
		{10000, core.ErrorTypeTimeout},
		{10016, core.ErrorTypeServerError},
		{10429, core.ErrorTypeBadRequest},
		{170001, core.ErrorTypeUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, mapBybitErrorCode(tt.code), "code %d", tt.code)
	}
}
