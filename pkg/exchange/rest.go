package exchange

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog"

	"configurator/internal/circuitbreaker"
	httpClient "configurator/internal/http"
	"configurator/internal/ratelimit"
	"configurator/pkg/core"
)

// RESTClient executes protocol operations over HTTP with rate limiting and a
// circuit breaker. Venue clients embed it and add their typed methods.
type RESTClient struct {
	protocol       core.Protocol
	httpClient     *httpClient.Client
	rateLimiter    *ratelimit.RateLimiter
	circuitBreaker *circuitbreaker.Breaker
	logger         zerolog.Logger
}

// NewRESTClient builds a RESTClient for protocol from a validated config.
func NewRESTClient(protocol core.Protocol, config *core.Config, logger zerolog.Logger) (*RESTClient, error) {
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	baseURL := config.BaseURL
	if baseURL == "" {
		baseURL = protocol.BaseURL(config.Sandbox)
	}

	hc, err := httpClient.NewClient(&httpClient.Config{
		BaseURL:      baseURL,
		Timeout:      config.Timeout,
		MaxRetries:   config.MaxRetries,
		RetryWaitMin: config.RetryWaitMin,
		RetryWaitMax: config.RetryWaitMax,
		Headers:      map[string]string{"Accept": "application/json"},
	}, logger)
	if err != nil {
		return nil, fmt.Errorf("create http client: %w", err)
	}

	var rl *ratelimit.RateLimiter
	if config.RateLimitRequests > 0 {
		rl = ratelimit.New(config.RateLimitRequests, config.RateLimitPeriod)
	}

	var cb *circuitbreaker.Breaker
	if config.CircuitBreakerEnabled {
		cb = circuitbreaker.New(circuitbreaker.Config{
			FailThreshold:    config.CircuitBreakerFailThreshold,
			SuccessThreshold: config.CircuitBreakerSuccessThreshold,
			Timeout:          config.CircuitBreakerTimeout,
			OnStateChange: func(from, to circuitbreaker.State) {
				logger.Warn().
					Str("exchange", protocol.Name()).
					Stringer("from", from).
					Stringer("to", to).
					Msg("circuit breaker state changed")
			},
		})
	}

	return &RESTClient{
		protocol:       protocol,
		httpClient:     hc,
		rateLimiter:    rl,
		circuitBreaker: cb,
		logger:         logger,
	}, nil
}

// Execute builds, sends, and parses one operation.
func (c *RESTClient) Execute(ctx context.Context, op core.Operation, params core.Params) (any, error) {
	if !core.Supports(c.protocol, op) {
		return nil, core.NewExchangeError(c.protocol.Name(), core.ErrorTypeBadRequest, 0, "unsupported operation "+op.String()).
			WithCode(core.ErrCodeUnsupported)
	}

	req, err := c.protocol.BuildRequest(ctx, op, params)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if c.rateLimiter != nil {
		if err := c.rateLimiter.WaitN(ctx, req.Weight); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	var result any
	call := func() error {
		resp, err := c.httpClient.Get(ctx, req.Path, c.buildRequestOptions(req)...)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			return core.NewExchangeError(c.protocol.Name(), core.ErrorTypeNetwork, 0, err.Error()).
				WithCode(core.ErrCodeNetwork)
		}
		result, err = c.protocol.ParseResponse(op, resp)
		return err
	}

	if c.circuitBreaker == nil {
		err = call()
	} else {
		err = c.circuitBreaker.Do(call, IsVenueFailure)
	}
	if errors.Is(err, circuitbreaker.ErrOpen) {
		return nil, fmt.Errorf("%s %s: %w", c.protocol.Name(), op, core.ErrCircuitBreakerOpen)
	}
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Close releases the underlying HTTP client.
func (c *RESTClient) Close() error {
	return c.httpClient.Close()
}

func (c *RESTClient) buildRequestOptions(req *core.Request) []httpClient.RequestOption {
	opts := make([]httpClient.RequestOption, 0, len(req.Headers)+1)

	for k, v := range req.Headers {
		opts = append(opts, httpClient.WithHeader(k, v))
	}

	query := req.QueryValues()
	if len(query) > 0 {
		opts = append(opts, httpClient.WithQueryParams(query))
	}

	return opts
}

// IsVenueFailure reports whether err says the venue itself is unhealthy, as
// opposed to rejecting a particular request.
func IsVenueFailure(err error) bool {
	var exErr *core.ExchangeError
	if !errors.As(err, &exErr) {
		return !errors.Is(err, context.Canceled)
	}
	switch exErr.Type {
	case core.ErrorTypeBadRequest, core.ErrorTypeNotFound:
		return false
	default:
		return true
	}
}
