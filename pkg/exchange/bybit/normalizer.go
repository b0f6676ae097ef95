package bybit

import (
	"fmt"
	"time"

	"github.com/cockroachdb/apd/v3"

	"configurator/pkg/core"
)

// bybitInstruments is the result of /v5/market/instruments-info for the spot category.
type bybitInstruments struct {
	Category       string            `json:"category"`
	List           []bybitInstrument `json:"list"`
	NextPageCursor string            `json:"nextPageCursor"`
}

type bybitInstrument struct {
	Symbol        string `json:"symbol"`
	BaseCoin      string `json:"baseCoin"`
	QuoteCoin     string `json:"quoteCoin"`
	Status        string `json:"status"`
	LotSizeFilter struct {
		BasePrecision  string `json:"basePrecision"`
		QuotePrecision string `json:"quotePrecision"`
		MinOrderQty    string `json:"minOrderQty"`
		MaxOrderQty    string `json:"maxOrderQty"`
		MinOrderAmt    string `json:"minOrderAmt"`
		MaxOrderAmt    string `json:"maxOrderAmt"`
	} `json:"lotSizeFilter"`
	PriceFilter struct {
		TickSize string `json:"tickSize"`
	} `json:"priceFilter"`
}

// bybitOrderBook represents the order book response from Bybit API.
type bybitOrderBook struct {
	Symbol string     `json:"s"`
	Bids   [][]string `json:"b"`
	Asks   [][]string `json:"a"`
	Time   int64      `json:"ts"`
}

// Normalizer converts Bybit payloads into canonical types.
type Normalizer struct{}

// NewNormalizer creates a new Bybit normalizer.
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// NormalizeInstruments converts the spot instrument list, in response order.
func (n *Normalizer) NormalizeInstruments(data *bybitInstruments) ([]core.Instrument, error) {
	result := make([]core.Instrument, 0, len(data.List))
	for i := range data.List {
		inst, err := n.NormalizeInstrument(&data.List[i])
		if err != nil {
			return nil, fmt.Errorf("normalize %s: %w", data.List[i].Symbol, err)
		}
		result = append(result, inst)
	}
	return result, nil
}

// NormalizeInstrument converts one spot listing. Bybit reports every precision
// as a step size, so no decimal place conversion is needed.
func (n *Normalizer) NormalizeInstrument(data *bybitInstrument) (core.Instrument, error) {
	inst := core.Instrument{
		ID:      data.Symbol,
		Symbol:  data.BaseCoin + "/" + data.QuoteCoin,
		BaseID:  data.BaseCoin,
		QuoteID: data.QuoteCoin,
		Base:    data.BaseCoin,
		Quote:   data.QuoteCoin,
		Active:  data.Status == "Trading",
	}

	lot := data.LotSizeFilter
	fields := []struct {
		dest **float64
		raw  string
	}{
		{&inst.Precision.Price, data.PriceFilter.TickSize},
		{&inst.Precision.Amount, lot.BasePrecision},
		{&inst.Precision.Cost, lot.QuotePrecision},
		{&inst.Limits.Amount.Min, lot.MinOrderQty},
		{&inst.Limits.Amount.Max, lot.MaxOrderQty},
		{&inst.Limits.Cost.Min, lot.MinOrderAmt},
		{&inst.Limits.Cost.Max, lot.MaxOrderAmt},
	}
	for _, f := range fields {
		v, err := parseOptional(f.raw)
		if err != nil {
			return inst, err
		}
		*f.dest = v
	}

	return inst, nil
}

// NormalizeOrderBook converts a Bybit order book to canonical OrderBook.
func (n *Normalizer) NormalizeOrderBook(data *bybitOrderBook, symbol string) (*core.OrderBook, error) {
	if symbol == "" {
		symbol = data.Symbol
	}
	orderBook := &core.OrderBook{
		Symbol:    symbol,
		Timestamp: time.UnixMilli(data.Time),
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

// parseOptional treats empty and zero values as unset.
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
