package bybit

import (
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const instrumentsFixture = `{
	"retCode": 0,
	"retMsg": "OK",
	"result": {
		"category": "spot",
		"list": [
			{
				"symbol": "BTCUSDT",
				"baseCoin": "BTC",
				"quoteCoin": "USDT",
				"innovation": "0",
				"status": "Trading",
				"marginTrading": "both",
				"lotSizeFilter": {
					"basePrecision": "0.000001",
					"quotePrecision": "0.00000001",
					"minOrderQty": "0.000048",
					"maxOrderQty": "71.73956243",
					"minOrderAmt": "1",
					"maxOrderAmt": "2000000"
				},
				"priceFilter": {"tickSize": "0.01"}
			},
			{
				"symbol": "ETHBTC",
				"baseCoin": "ETH",
				"quoteCoin": "BTC",
				"status": "PreLaunch",
				"lotSizeFilter": {
					"basePrecision": "0.0001",
					"quotePrecision": "0.0000001",
					"minOrderQty": "0.0001",
					"maxOrderQty": "0",
					"minOrderAmt": "",
					"maxOrderAmt": ""
				},
				"priceFilter": {"tickSize": "0.000001"}
			}
		]
	},
	"time": 1700000000000
}`

func TestNormalizeInstruments(t *testing.T) {
	var envelope bybitResponse
	require.NoError(t, sonic.UnmarshalString(instrumentsFixture, &envelope))

	var data bybitInstruments
	require.NoError(t, sonic.Unmarshal(envelope.Result, &data))

	instruments, err := NewNormalizer().NormalizeInstruments(&data)
	require.NoError(t, err)
	require.Len(t, instruments, 2)

	btc := instruments[0]
	assert.Equal(t, "BTCUSDT", btc.ID)
	assert.Equal(t, "BTC/USDT", btc.Symbol)
	assert.Equal(t, "BTC", btc.BaseID)
	assert.Equal(t, "USDT", btc.QuoteID)
	assert.True(t, btc.Active)
	assert.Equal(t, 0.01, *btc.Precision.Price)
	assert.Equal(t, 0.000001, *btc.Precision.Amount)
	assert.Equal(t, 0.00000001, *btc.Precision.Cost)
	assert.Equal(t, 0.000048, *btc.Limits.Amount.Min)
	assert.Equal(t, 71.73956243, *btc.Limits.Amount.Max)
	assert.Equal(t, 1.0, *btc.Limits.Cost.Min)
	assert.Equal(t, 2000000.0, *btc.Limits.Cost.Max)
	assert.True(t, btc.Limits.Price.IsEmpty())

	eth := instruments[1]
	assert.False(t, eth.Active)
	assert.Equal(t, 0.0001, *eth.Limits.Amount.Min)
	assert.Nil(t, eth.Limits.Amount.Max)
	assert.True(t, eth.Limits.Cost.IsEmpty())
}

func TestNormalizeInstruments_InvalidNumber(t *testing.T) {
	data := bybitInstruments{List: []bybitInstrument{{Symbol: "BTCUSDT", BaseCoin: "BTC", QuoteCoin: "USDT"}}}
	data.List[0].PriceFilter.TickSize = "tick"

	_, err := NewNormalizer().NormalizeInstruments(&data)
	assert.ErrorContains(t, err, "BTCUSDT")
}

func TestNormalizeOrderBook(t *testing.T) {
	data := &bybitOrderBook{
		Symbol: "BTCUSDT",
		Bids:   [][]string{{"65485.47", "47.081829"}, {"65485.46", "0.1"}},
		Asks:   [][]string{{"65557.7", "16.606555"}},
		Time:   1716863719031,
	}

	book, err := NewNormalizer().NormalizeOrderBook(data, "")
	require.NoError(t, err)

	assert.Equal(t, "BTCUSDT", book.Symbol, "falls back to the payload symbol")
	assert.Equal(t, time.UnixMilli(1716863719031), book.Timestamp)
	require.Len(t, book.Bids, 2)
	require.Len(t, book.Asks, 1)
	assert.Equal(t, "65485.47", book.Bids[0].Price.String())
	assert.Equal(t, "16.606555", book.Asks[0].Quantity.String())
}

func TestNormalizeOrderBook_InvalidLevel(t *testing.T) {
	data := &bybitOrderBook{Asks: [][]string{{"1", "qty"}}}

	_, err := NewNormalizer().NormalizeOrderBook(data, "BTCUSDT")
	assert.ErrorContains(t, err, "normalize asks")
}
