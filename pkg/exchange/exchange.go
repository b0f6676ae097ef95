package exchange

import (
	"context"

	"configurator/pkg/core"
)

// Exchange defines the public market-data surface of a trading venue.
type Exchange interface {
	Name() string

	// LoadMarkets returns every instrument listed by the venue, in venue order.
	LoadMarkets(ctx context.Context) ([]core.Instrument, error)
	// GetOrderBook returns a depth snapshot for a venue symbol.
	GetOrderBook(ctx context.Context, symbol string, opts ...Option) (*core.OrderBook, error)

	Close() error
}
