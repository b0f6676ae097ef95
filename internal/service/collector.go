// Package service assembles trade server configurations: instance files,
// venue markets, optional order book refinement, and trade routes.
package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/sourcegraph/conc/pool"

	"configurator/internal/freshness"
	"configurator/internal/instance"
	"configurator/internal/metrics"
	"configurator/pkg/core"
	"configurator/pkg/exchange"
	"configurator/pkg/limits"
	"configurator/pkg/markets"
	"configurator/pkg/routes"
)

// Status is the message and action reported with a response.
type Status struct {
	Message string
	Action  string
}

type Config struct {
	Layout instance.Layout
	// Node and Algo fill headers that do not set them.
	Node  string
	Algo  string
	Event string

	Fresh   Status
	NoFresh Status

	// OrderBookDepth is the number of levels requested per side when refining limits.
	OrderBookDepth int
	// RefineConcurrency bounds the order book requests in flight.
	RefineConcurrency int
}

// Request selects a trade server configuration and how to build it.
type Request struct {
	Exchange          string
	Instance          string
	OnlyNew           bool
	RoutesMaxLength   int
	LimitsByOrderBook bool
}

// Response is the document served to a trade server. Field order is part of the
// wire format.
type Response struct {
	Exchange  string `json:"exchange"`
	Node      string `json:"node"`
	Instance  string `json:"instance"`
	Algo      string `json:"algo"`
	Event     string `json:"event"`
	Action    string `json:"action"`
	Message   string `json:"message"`
	Timestamp int64  `json:"timestamp"`
	Data      *Data  `json:"data"`
}

type Data struct {
	Markets      []core.Market              `json:"markets"`
	AssetsLabels []core.AssetLabel          `json:"assets_labels"`
	Routes       []core.Route               `json:"routes"`
	Configs      map[string]json.RawMessage `json:"configs"`
}

// Collector builds responses for registered exchanges.
type Collector struct {
	exchanges *exchange.Container
	store     freshness.Store
	config    Config
	metrics   *metrics.Metrics
	logger    zerolog.Logger
	now       func() time.Time
}

type Option func(*Collector)

func WithLogger(l zerolog.Logger) Option {
	return func(c *Collector) {
		c.logger = l
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(c *Collector) {
		c.metrics = m
	}
}

func NewCollector(exchanges *exchange.Container, store freshness.Store, config Config, opts ...Option) *Collector {
	if config.RefineConcurrency <= 0 {
		config.RefineConcurrency = 1
	}
	c := &Collector{
		exchanges: exchanges,
		store:     store,
		config:    config,
		logger:    zerolog.Nop(),
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Collect returns the configuration of one trade server. Data is only assembled
// when the instance directory changed since the last served response or when
// req.OnlyNew is false. Failures are returned as *Error.
func (c *Collector) Collect(ctx context.Context, req Request) (*Response, error) {
	resp, err := c.collect(ctx, req)
	if err != nil {
		var svcErr *Error
		if !errors.As(err, &svcErr) {
			svcErr = Unexpected(req.Exchange, err)
		}
		c.recordOutcome(req.Exchange, "error")
		return nil, svcErr
	}
	if resp.Data == nil {
		c.recordOutcome(req.Exchange, "not_modified")
	} else {
		c.recordOutcome(req.Exchange, "fresh")
	}
	return resp, nil
}

func (c *Collector) collect(ctx context.Context, req Request) (*Response, error) {
	server := req.Exchange + "/" + req.Instance
	logger := c.logger.With().Str("exchange", req.Exchange).Str("instance", req.Instance).Logger()
	logger.Info().Msg("configuration requested")

	ex, err := c.exchanges.Get(req.Exchange)
	if errors.Is(err, exchange.ErrUnknownExchange) {
		logger.Error().Msg("exchange is not registered")
		return nil, ExchangeNotFound(req.Exchange)
	}
	if err != nil {
		return nil, Unexpected(req.Exchange, err)
	}

	inst, err := instance.Open(c.config.Layout, req.Exchange, req.Instance, logger)
	if err != nil {
		logger.Error().Err(err).Msg("configuration directory not found")
		return nil, ConfigsNotFound(server)
	}

	if err := inst.CheckAssets(); err != nil {
		logger.Error().Err(err).Msg("assets file not found")
		return nil, FileNotFound(server, c.config.Layout.AssetsFilename)
	}

	header, err := inst.EnsureHeader(instance.Header{
		Exchange: req.Exchange,
		Node:     c.config.Node,
		Instance: req.Instance,
		Algo:     c.config.Algo,
	})
	if err != nil {
		return nil, decodeError(err)
	}

	modTime, err := inst.LastModified()
	if err != nil {
		return nil, err
	}
	fresh, err := c.store.Advance(ctx, server, modTime)
	if err != nil {
		return nil, fmt.Errorf("check freshness: %w", err)
	}

	resp := &Response{
		Exchange:  header.Exchange,
		Node:      header.Node,
		Instance:  header.Instance,
		Algo:      header.Algo,
		Event:     c.config.Event,
		Timestamp: c.now().UnixMicro(),
	}

	if !fresh && req.OnlyNew {
		resp.Message = c.config.NoFresh.Message
		resp.Action = c.config.NoFresh.Action
		logger.Info().Msg("configuration has no updates")
		return resp, nil
	}

	start := time.Now()
	data, err := c.collectData(ctx, ex, inst, req, logger)
	if err != nil {
		return nil, err
	}
	if c.metrics != nil {
		c.metrics.ObserveCollect(req.Exchange, time.Since(start), len(data.Routes))
	}

	resp.Data = data
	resp.Message = c.config.Fresh.Message
	resp.Action = c.config.Fresh.Action
	logger.Info().
		Int("markets", len(data.Markets)).
		Int("routes", len(data.Routes)).
		Dur("duration", time.Since(start)).
		Msg("configuration collected")
	return resp, nil
}

func (c *Collector) collectData(ctx context.Context, ex exchange.Exchange, inst *instance.Instance, req Request, logger zerolog.Logger) (*Data, error) {
	server := req.Exchange + "/" + req.Instance

	assets, err := inst.ReadAssets()
	if errors.Is(err, instance.ErrAssetsNotFound) {
		return nil, FileNotFound(server, c.config.Layout.AssetsFilename)
	}
	if err != nil {
		return nil, err
	}

	instruments, err := ex.LoadMarkets(ctx)
	if err != nil {
		c.recordVenueError(req.Exchange, "load_markets")
		logger.Error().Err(err).Msg("failed to load markets")
		return nil, MarketsUnavailable(req.Exchange, err)
	}
	logger.Debug().Int("instruments", len(instruments)).Msg("markets loaded")

	formatted, err := markets.Format(instruments, assets)
	if err != nil {
		logger.Error().Err(err).Msg("failed to format markets")
		return nil, ConfigDecodeError(server, err)
	}

	if req.LimitsByOrderBook {
		formatted, err = c.refineLimits(ctx, ex, formatted)
		if err != nil {
			c.recordVenueError(req.Exchange, "order_book")
			logger.Error().Err(err).Msg("failed to refine limits by order book")
			return nil, MarketsUnavailable(req.Exchange, err)
		}
	}

	labels := markets.FormatAssetLabels(instruments, assets)
	tradeRoutes := routes.Construct(formatted, assets, req.RoutesMaxLength)

	sections, err := inst.ReadSections()
	if err != nil {
		return nil, decodeError(err)
	}

	return &Data{
		Markets:      formatted,
		AssetsLabels: labels,
		Routes:       tradeRoutes,
		Configs:      sections,
	}, nil
}

// refineLimits replaces the limits of every market with values derived from its
// order book. Markets keep their order; the first failure cancels the rest.
// Markets with an empty book keep the venue limits.
func (c *Collector) refineLimits(ctx context.Context, ex exchange.Exchange, ms []core.Market) ([]core.Market, error) {
	refined := make([]core.Market, len(ms))

	p := pool.New().
		WithContext(ctx).
		WithMaxGoroutines(c.config.RefineConcurrency).
		WithCancelOnError().
		WithFirstError()

	for i, m := range ms {
		p.Go(func(ctx context.Context) error {
			book, err := ex.GetOrderBook(ctx, m.ExchangeSymbol, exchange.WithLimit(c.config.OrderBookDepth))
			if err != nil {
				return fmt.Errorf("get order book %s: %w", m.ExchangeSymbol, err)
			}
			result, err := limits.FromOrderBook(book)
			if errors.Is(err, core.ErrEmptyOrderBook) {
				c.logger.Warn().Str("symbol", m.ExchangeSymbol).Msg("order book is empty, keeping venue limits")
				refined[i] = m
				return nil
			}
			if err != nil {
				return fmt.Errorf("limits of %s: %w", m.ExchangeSymbol, err)
			}
			refined[i] = limits.Refine(m, result)
			return nil
		})
	}

	if err := p.Wait(); err != nil {
		return nil, err
	}
	return refined, nil
}

func (c *Collector) recordOutcome(exchange, outcome string) {
	if c.metrics != nil {
		if !c.exchanges.Exists(exchange) {
			exchange = "unknown"
		}
		c.metrics.Requests.WithLabelValues(exchange, outcome).Inc()
	}
}

func (c *Collector) recordVenueError(exchange, operation string) {
	if c.metrics != nil {
		c.metrics.VenueErrors.WithLabelValues(exchange, operation).Inc()
	}
}

func decodeError(err error) error {
	var decodeErr *instance.DecodeError
	if errors.As(err, &decodeErr) {
		return JSONDecodeError(decodeErr.Path, err)
	}
	return err
}
