package bybit

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"configurator/pkg/core"
	"configurator/pkg/exchange"
)

// BybitExchange implements the Exchange interface for Bybit spot markets.
type BybitExchange struct {
	*exchange.RESTClient

	config *core.Config
	logger zerolog.Logger
}

// Option is a functional option for configuring the BybitExchange.
type Option func(*Options)

// Options holds configuration options for the BybitExchange.
type Options struct {
	Logger zerolog.Logger
}

// WithLogger returns an option that sets the logger for the exchange.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// New creates a new BybitExchange instance with the given configuration and options.
func New(config *core.Config, opts ...Option) (*BybitExchange, error) {
	options := &Options{
		Logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(options)
	}

	logger := options.Logger.With().Str("exchange", "bybit").Logger()

	rest, err := exchange.NewRESTClient(NewProtocol(), config, logger)
	if err != nil {
		return nil, err
	}

	return &BybitExchange{
		RESTClient: rest,
		config:     config,
		logger:     logger,
	}, nil
}

// Name returns the exchange identifier "bybit".
func (e *BybitExchange) Name() string {
	return "bybit"
}

func (e *BybitExchange) LoadMarkets(ctx context.Context) ([]core.Instrument, error) {
	result, err := e.Execute(ctx, core.OpGetMarkets, core.Params{})
	if err != nil {
		return nil, err
	}

	instruments, ok := result.([]core.Instrument)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}

	return instruments, nil
}

func (e *BybitExchange) GetOrderBook(ctx context.Context, symbol string, opts ...exchange.Option) (*core.OrderBook, error) {
	options := exchange.ApplyOptions(opts...)

	params := core.Params{
		"symbol": symbol,
	}
	if options.Limit > 0 {
		params["limit"] = options.Limit
	}

	result, err := e.Execute(ctx, core.OpGetOrderBook, params)
	if err != nil {
		return nil, err
	}

	orderBook, ok := result.(*core.OrderBook)
	if !ok {
		return nil, fmt.Errorf("unexpected response type: %T", result)
	}

	orderBook.Symbol = symbol
	return orderBook, nil
}

// Register creates a BybitExchange and registers it with the container.
func Register(container *exchange.Container, config *core.Config, opts ...Option) error {
	ex, err := New(config, opts...)
	if err != nil {
		return fmt.Errorf("create bybit exchange: %w", err)
	}
	container.Register("bybit", ex)
	return nil
}
