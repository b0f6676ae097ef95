package binance

import (
	"fmt"
	"time"

	"github.com/cockroachdb/apd/v3"

	"configurator/pkg/core"
	"configurator/pkg/markets"
)

// binanceExchangeInfo represents the exchange information response from Binance API.
type binanceExchangeInfo struct {
	Timezone   string          `json:"timezone"`
	ServerTime int64           `json:"serverTime"`
	Symbols    []binanceSymbol `json:"symbols"`
}

// binanceSymbol represents a single listing in the exchange information.
type binanceSymbol struct {
	Symbol              string          `json:"symbol"`
	Status              string          `json:"status"`
	BaseAsset           string          `json:"baseAsset"`
	BaseAssetPrecision  int             `json:"baseAssetPrecision"`
	QuoteAsset          string          `json:"quoteAsset"`
	QuoteAssetPrecision int             `json:"quoteAssetPrecision"`
	Filters             []binanceFilter `json:"filters"`
}

// binanceFilter holds the fields of the PRICE_FILTER, LOT_SIZE, NOTIONAL, and
// MIN_NOTIONAL filters. Other filter types decode into an unused value.
type binanceFilter struct {
	FilterType  string `json:"filterType"`
	MinPrice    string `json:"minPrice"`
	MaxPrice    string `json:"maxPrice"`
	TickSize    string `json:"tickSize"`
	MinQty      string `json:"minQty"`
	MaxQty      string `json:"maxQty"`
	StepSize    string `json:"stepSize"`
	MinNotional string `json:"minNotional"`
	MaxNotional string `json:"maxNotional"`
}

// binanceOrderBook represents the order book response from Binance API.
// Partial depth stream messages share this layout.
type binanceOrderBook struct {
	LastUpdateID int64      `json:"lastUpdateId"`
	Bids         [][]string `json:"bids"`
	Asks         [][]string `json:"asks"`
}

// Normalizer converts Binance payloads into canonical types.
type Normalizer struct{}

// NewNormalizer creates a new Binance normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeInstruments converts every listed symbol, in response order.
func (n *Normalizer) NormalizeInstruments(data *binanceExchangeInfo) ([]core.Instrument, error) {
	result := make([]core.Instrument, 0, len(data.Symbols))
	for i := range data.Symbols {
		inst, err := n.NormalizeInstrument(&data.Symbols[i])
		if err != nil {
			return nil, fmt.Errorf("normalize %s: %w", data.Symbols[i].Symbol, err)
		}
		result = append(result, inst)
	}
	return result, nil
}

// NormalizeInstrument converts one listing. Tick and step sizes become the price and
// amount precision; the quote asset precision in decimal places becomes the cost precision.
// Zero-valued filter bounds mean the bound is disabled and are left unset.
func (n *Normalizer) NormalizeInstrument(data *binanceSymbol) (core.Instrument, error) {
	inst := core.Instrument{
		ID:      data.Symbol,
		Symbol:  data.BaseAsset + "/" + data.QuoteAsset,
		BaseID:  data.BaseAsset,
		QuoteID: data.QuoteAsset,
		Base:    data.BaseAsset,
		Quote:   data.QuoteAsset,
		Active:  data.Status == "TRADING",
	}
	inst.Precision.Cost = markets.HandlePrecision(core.Float(float64(data.QuoteAssetPrecision)), true)

	for _, f := range data.Filters {
		var err error
		switch f.FilterType {
		case "PRICE_FILTER":
			if inst.Precision.Price, err = parseOptional(f.TickSize); err != nil {
				return inst, err
			}
			if inst.Limits.Price, err = parseMinMax(f.MinPrice, f.MaxPrice); err != nil {
				return inst, err
			}
		case "LOT_SIZE":
			if inst.Precision.Amount, err = parseOptional(f.StepSize); err != nil {
				return inst, err
			}
			if inst.Limits.Amount, err = parseMinMax(f.MinQty, f.MaxQty); err != nil {
				return inst, err
			}
		case "NOTIONAL", "MIN_NOTIONAL":
			if inst.Limits.Cost, err = parseMinMax(f.MinNotional, f.MaxNotional); err != nil {
				return inst, err
			}
		}
	}

	return inst, nil
}

// NormalizeOrderBook converts a depth response into a canonical order book.
func (n *Normalizer) NormalizeOrderBook(data *binanceOrderBook, symbol string) (*core.OrderBook, error) {
	orderBook := &core.OrderBook{
		Symbol:    symbol,
		Timestamp: time.Now(),
	}

	bids, err := n.normalizeOrderBookLevels(data.Bids)
	if err != nil {
		return nil, fmt.Errorf("normalize bids: %w", err)
	}
	orderBook.Bids = bids

	asks, err := n.normalizeOrderBookLevels(data.Asks)
	if err != nil {
		return nil, fmt.Errorf("normalize asks: %w", err)
	}
	orderBook.Asks = asks

	return orderBook, nil
}

func (n *Normalizer) normalizeOrderBookLevels(levels [][]string) ([]core.OrderBookLevel, error) {
	result := make([]core.OrderBookLevel, 0, len(levels))

	for _, level := range levels {
		if len(level) < 2 {
			continue
		}

		var obl core.OrderBookLevel
		if err := parseDecimal(&obl.Price, level[0]); err != nil {
			return nil, fmt.Errorf("parse price: %w", err)
		}

		if err := parseDecimal(&obl.Quantity, level[1]); err != nil {
			return nil, fmt.Errorf("parse quantity: %w", err)
		}

		result = append(result, obl)
	}

	return result, nil
}

func parseDecimal(dest *apd.Decimal, s string) error {
	if s == "" {
		*dest = apd.Decimal{}
		return nil
	}

	_, _, err := apd.BaseContext.SetString(dest, s)
	if err != nil {
		return fmt.Errorf("set decimal from string: %w", err)
	}

	return nil
}

// parseOptional parses a numeric string, treating empty and zero values as unset.
func parseOptional(s string) (*float64, error) {
	var d apd.Decimal
	if err := parseDecimal(&d, s); err != nil {
		return nil, err
	}
	if d.IsZero() {
		return nil, nil
	}
	f, err := d.Float64()
	if err != nil {
		return nil, fmt.Errorf("convert %q: %w", s, err)
	}
	return &f, nil
}

func parseMinMax(minStr, maxStr string) (core.MinMax, error) {
	minV, err := parseOptional(minStr)
	if err != nil {
		return core.MinMax{}, fmt.Errorf("parse min: %w", err)
	}
	maxV, err := parseOptional(maxStr)
	if err != nil {
		return core.MinMax{}, fmt.Errorf("parse max: %w", err)
	}
	return core.MinMax{Min: minV, Max: maxV}, nil
}
