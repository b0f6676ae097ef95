package binance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/rs/zerolog"

	"configurator/internal/ws"
	"configurator/pkg/core"
	"configurator/pkg/exchange"
)

// BinanceExchange implements the Exchange interface for Binance spot markets.
type BinanceExchange struct {
	*exchange.RESTClient

	config     *core.Config
	logger     zerolog.Logger
	normalizer *Normalizer
	streamURL  string
}

// Option is a functional option for configuring the BinanceExchange.
type Option func(*Options)

// Options holds configuration options for the BinanceExchange.
type Options struct {
	Logger zerolog.Logger
	// StreamURL overrides the websocket endpoint used for depth snapshots.
	StreamURL string
}

// WithLogger returns an option that sets the logger for the exchange.
func WithLogger(l zerolog.Logger) Option {
	return func(o *Options) {
		o.Logger = l
	}
}

// WithStreamURL returns an option that overrides the websocket stream endpoint.
func WithStreamURL(url string) Option {
	return func(o *Options) {
		o.StreamURL = url
	}
}

// New creates a new BinanceExchange instance with the given configuration and options.
func New(config *core.Config, opts ...Option) (*BinanceExchange, error) {
	options := &Options{
		Logger: zerolog.Nop(),
	}
	for _, opt := range opts {
		opt(options)
	}

	logger := options.Logger.With().Str("exchange", "binance").Logger()

	rest, err := exchange.NewRESTClient(NewProtocol(), config, logger)
	if err != nil {
		return nil, err
	}

	streamURL := options.StreamURL
	if streamURL == "" {
		streamURL = ProductionStreamURL
		if config.Sandbox {
			streamURL = SandboxStreamURL
		}
	}

	return &BinanceExchange{
		RESTClient: rest,
		config:     config,
		logger:     logger,
		normalizer: NewNormalizer(),
		streamURL:  strings.TrimSuffix(streamURL, "/"),
	}, nil
}

// Name returns the exchange identifier "binance".
func (e *BinanceExchange) Name() string {
	return "binance"
}

// LoadMarkets retrieves every spot listing from exchangeInfo.
func (e *BinanceExchange) LoadMarkets(ctx context.Context) ([]core.Instrument, error) {
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

// GetOrderBook retrieves the order book for the specified symbol. With depth
// streams enabled the first partial depth message is used, falling back to REST
// when the stream cannot deliver one.
func (e *BinanceExchange) GetOrderBook(ctx context.Context, symbol string, opts ...exchange.Option) (*core.OrderBook, error) {
	options := exchange.ApplyOptions(opts...)

	if e.config.DepthStream {
		orderBook, err := e.streamOrderBook(ctx, symbol, options.Limit)
		if err == nil {
			return orderBook, nil
		}
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		e.logger.Warn().Err(err).Str("symbol", symbol).Msg("depth stream failed, falling back to REST")
	}

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

func (e *BinanceExchange) streamOrderBook(ctx context.Context, symbol string, limit int) (*core.OrderBook, error) {
	ctx, cancel := context.WithTimeout(ctx, e.config.Timeout)
	defer cancel()

	data, err := ws.ReadFirst(ctx, ws.Config{
		URL:              e.streamURL + "/" + streamName(symbol, limit),
		HandshakeTimeout: 5 * time.Second,
		Logger:           e.logger,
	})
	if err != nil {
		return nil, err
	}

	var book binanceOrderBook
	if err := sonic.Unmarshal(data, &book); err != nil {
		return nil, fmt.Errorf("unmarshal depth message: %w", err)
	}

	return e.normalizer.NormalizeOrderBook(&book, symbol)
}

// Register creates a BinanceExchange and registers it with the container.
func Register(container *exchange.Container, config *core.Config, opts ...Option) error {
	ex, err := New(config, opts...)
	if err != nil {
		return fmt.Errorf("create binance exchange: %w", err)
	}
	container.Register("binance", ex)
	return nil
}
