package core

import (
	"context"
	"slices"

	"resty.dev/v3"
)

// Protocol translates market-data operations to one venue's REST API and
// normalizes the replies.
type Protocol interface {
	// Name returns the exchange id, e.g. "binance".
	Name() string

	BaseURL(sandbox bool) string

	BuildRequest(ctx context.Context, op Operation, params Params) (*Request, error)

	// ParseResponse returns []Instrument for OpGetMarkets and *OrderBook for
	// OpGetOrderBook. Venue error payloads come back as *ExchangeError.
	ParseResponse(op Operation, resp *resty.Response) (any, error)

	SupportedOperations() []Operation
}

// Supports reports whether p implements op.
func Supports(p Protocol, op Operation) bool {
	return slices.Contains(p.SupportedOperations(), op)
}
