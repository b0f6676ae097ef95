package core

import (
	"time"

	"github.com/cockroachdb/apd/v3"
)

// MinMax is an optional lower and upper bound. A nil side means the venue does not enforce it.
type MinMax struct {
	Min *float64 `json:"min"`
	Max *float64 `json:"max"`
}

// IsEmpty reports whether neither bound is set.
func (m MinMax) IsEmpty() bool {
	return m.Min == nil && m.Max == nil
}

// Limits groups the order constraints of a market.
type Limits struct {
	Amount   MinMax `json:"amount"`
	Price    MinMax `json:"price"`
	Cost     MinMax `json:"cost"`
	Leverage MinMax `json:"leverage"`
}

// Precision holds the increments of a market expressed as step sizes (e.g. 0.01).
type Precision struct {
	Price  *float64 `json:"price"`
	Amount *float64 `json:"amount"`
	Cost   *float64 `json:"cost"`
}

// Market is a tradable pair as exposed to trade servers.
// It is created once at the normalization boundary and never mutated afterwards.
type Market struct {
	// ExchangeSymbol is the venue-native pair name (e.g. "ETHBTC").
	ExchangeSymbol string `json:"exchange_symbol" validate:"required"`
	// CommonSymbol is the normalized pair name (e.g. "ETH/BTC").
	CommonSymbol string    `json:"common_symbol" validate:"required"`
	Precision    Precision `json:"precision"`
	Limits       Limits    `json:"limits"`
	// BaseAsset is the venue identifier of the asset being bought or sold.
	BaseAsset string `json:"base_asset" validate:"required,nefield=QuoteAsset"`
	// QuoteAsset is the venue identifier of the pricing asset.
	QuoteAsset string `json:"quote_asset" validate:"required"`
}

// AssetLabel pairs the venue identifier of an asset with its common code.
type AssetLabel struct {
	Exchange string `json:"exchange"`
	Common   string `json:"common"`
}

// Instrument is a market listing as reported by a venue, before asset filtering.
type Instrument struct {
	// ID is the venue-native symbol.
	ID string `json:"id"`
	// Symbol is the unified "BASE/QUOTE" symbol.
	Symbol  string `json:"symbol"`
	BaseID  string `json:"base_id"`
	QuoteID string `json:"quote_id"`
	// Base and Quote are the common asset codes.
	Base      string    `json:"base"`
	Quote     string    `json:"quote"`
	Active    bool      `json:"active"`
	Precision Precision `json:"precision"`
	Limits    Limits    `json:"limits"`
}

// OrderBookLevel represents a single price level in the order book.
type OrderBookLevel struct {
	// Price is the limit price for this level.
	Price apd.Decimal `json:"price"`
	// Quantity is the total quantity available at this price.
	Quantity apd.Decimal `json:"quantity"`
}

// OrderBook represents a snapshot of the order book for a trading pair.
type OrderBook struct {
	// Symbol is the venue symbol for this order book.
	Symbol string `json:"symbol"`
	// Bids are buy orders sorted by price descending.
	Bids []OrderBookLevel `json:"bids"`
	// Asks are sell orders sorted by price ascending.
	Asks []OrderBookLevel `json:"asks"`
	// Timestamp is when this snapshot was taken.
	Timestamp time.Time `json:"timestamp"`
}

// Levels returns bids followed by asks.
func (b *OrderBook) Levels() []OrderBookLevel {
	levels := make([]OrderBookLevel, 0, len(b.Bids)+len(b.Asks))
	levels = append(levels, b.Bids...)
	return append(levels, b.Asks...)
}

// IsEmpty reports whether the book has no levels on either side.
func (b *OrderBook) IsEmpty() bool {
	return len(b.Bids) == 0 && len(b.Asks) == 0
}

// Float returns a pointer to v, for optional numeric fields.
func Float(v float64) *float64 {
	return &v
}
