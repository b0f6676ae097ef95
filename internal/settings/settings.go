// Package settings loads the service configuration from a TOML file and
// CONFIGURATOR_* environment variables.
package settings

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/viper"
)

const EnvPrefix = "CONFIGURATOR"

type Settings struct {
	Server    Server    `mapstructure:"server"`
	Log       Log       `mapstructure:"log"`
	Data      Data      `mapstructure:"data"`
	Endpoint  Endpoint  `mapstructure:"endpoint"`
	Routes    Routes    `mapstructure:"routes"`
	Freshness Freshness `mapstructure:"freshness"`
	Venue     Venue     `mapstructure:"venue"`
}

type Server struct {
	Addr            string        `mapstructure:"addr" validate:"required"`
	Mode            string        `mapstructure:"mode" validate:"oneof=debug release test"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout" validate:"min=0"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout" validate:"min=0"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout" validate:"min=1ms"`
}

type Log struct {
	Level  string `mapstructure:"level" validate:"oneof=trace debug info warn error fatal panic disabled"`
	Pretty bool   `mapstructure:"pretty"`
}

// Data locates the trade server configuration directories.
type Data struct {
	ConfigsPath    string         `mapstructure:"configs_path" validate:"required"`
	AssetsFilename string         `mapstructure:"assets_filename" validate:"required"`
	HeaderFilename string         `mapstructure:"header_filename" validate:"required"`
	SectionsDir    string         `mapstructure:"sections_dir" validate:"required"`
	Default        HeaderDefaults `mapstructure:"default"`
}

// HeaderDefaults fill header fields that a header file does not set.
type HeaderDefaults struct {
	Node string `mapstructure:"node" validate:"required"`
	Algo string `mapstructure:"algo" validate:"required"`
}

type Endpoint struct {
	Event   string `mapstructure:"event" validate:"required"`
	Fresh   Status `mapstructure:"fresh"`
	NoFresh Status `mapstructure:"no_fresh"`
}

// Status is the message and action reported to a trade server.
type Status struct {
	Message string `mapstructure:"message"`
	Action  string `mapstructure:"action"`
}

type Routes struct {
	DefaultMaxLength int `mapstructure:"default_max_length" validate:"min=1,ltefield=MaxLengthLimit"`
	MaxLengthLimit   int `mapstructure:"max_length_limit" validate:"min=1,max=10"`
}

type Freshness struct {
	Backend   string `mapstructure:"backend" validate:"oneof=memory redis"`
	RedisAddr string `mapstructure:"redis_addr" validate:"required_if=Backend redis"`
	RedisDB   int    `mapstructure:"redis_db" validate:"min=0"`
	KeyPrefix string `mapstructure:"key_prefix"`
}

// Venue holds the client settings shared by every registered exchange.
type Venue struct {
	Sandbox           bool          `mapstructure:"sandbox"`
	Timeout           time.Duration `mapstructure:"timeout" validate:"min=1ms"`
	MaxRetries        int           `mapstructure:"max_retries" validate:"min=0"`
	RateLimitRequests int           `mapstructure:"rate_limit_requests" validate:"min=1"`
	RateLimitPeriod   time.Duration `mapstructure:"rate_limit_period" validate:"min=1ms"`

	CircuitBreakerEnabled          bool          `mapstructure:"circuit_breaker_enabled"`
	CircuitBreakerFailThreshold    int           `mapstructure:"circuit_breaker_fail_threshold"`
	CircuitBreakerSuccessThreshold int           `mapstructure:"circuit_breaker_success_threshold"`
	CircuitBreakerTimeout          time.Duration `mapstructure:"circuit_breaker_timeout"`

	OrderBookDepth     int  `mapstructure:"order_book_depth" validate:"min=1"`
	RefineConcurrency  int  `mapstructure:"refine_concurrency" validate:"min=1"`
	BinanceDepthStream bool `mapstructure:"binance_depth_stream"`
}

// Default returns the settings used when no file or environment value overrides them.
func Default() Settings {
	return Settings{
		Server: Server{
			Addr:            ":8000",
			Mode:            "release",
			ReadTimeout:     30 * time.Second,
			WriteTimeout:    2 * time.Minute,
			ShutdownTimeout: 10 * time.Second,
		},
		Log: Log{
			Level: "info",
		},
		Data: Data{
			ConfigsPath:    "./configs",
			AssetsFilename: "assets.txt",
			HeaderFilename: "header.json",
			SectionsDir:    "sections",
			Default: HeaderDefaults{
				Node: "configurator",
				Algo: "spread_bot_cpp",
			},
		},
		Endpoint: Endpoint{
			Event: "config",
			Fresh: Status{
				Message: "Fresh configuration",
				Action:  "update",
			},
			NoFresh: Status{
				Message: "No fresh configuration",
				Action:  "no_update",
			},
		},
		Routes: Routes{
			DefaultMaxLength: 3,
			MaxLengthLimit:   6,
		},
		Freshness: Freshness{
			Backend:   "memory",
			RedisAddr: "localhost:6379",
			KeyPrefix: "configurator:freshness:",
		},
		Venue: Venue{
			Timeout:                        10 * time.Second,
			MaxRetries:                     3,
			RateLimitRequests:              1200,
			RateLimitPeriod:                time.Minute,
			CircuitBreakerEnabled:          true,
			CircuitBreakerFailThreshold:    5,
			CircuitBreakerSuccessThreshold: 2,
			CircuitBreakerTimeout:          30 * time.Second,
			OrderBookDepth:                 20,
			RefineConcurrency:              8,
		},
	}
}

var validate = validator.New()

// Load reads settings from path, when it exists, on top of the defaults, then applies
// CONFIGURATOR_* environment overrides (e.g. CONFIGURATOR_SERVER_ADDR).
func Load(path string) (Settings, error) {
	v := viper.New()
	v.SetConfigType("toml")
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v, Default())

	if path != "" {
		if _, err := os.Stat(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Settings{}, fmt.Errorf("stat config %s: %w", path, err)
		} else if err == nil {
			v.SetConfigFile(path)
			if err := v.ReadInConfig(); err != nil {
				return Settings{}, fmt.Errorf("read config %s: %w", path, err)
			}
		}
	}

	var s Settings
	if err := v.Unmarshal(&s); err != nil {
		return Settings{}, fmt.Errorf("decode config: %w", err)
	}

	if err := s.Validate(); err != nil {
		return Settings{}, err
	}
	return s, nil
}

func (s *Settings) Validate() error {
	if err := validate.Struct(s); err != nil {
		return fmt.Errorf("validate config: %w", err)
	}
	return nil
}

// setDefaults registers every key so that environment overrides reach Unmarshal.
func setDefaults(v *viper.Viper, d Settings) {
	defaults := map[string]any{
		"server.addr":             d.Server.Addr,
		"server.mode":             d.Server.Mode,
		"server.read_timeout":     d.Server.ReadTimeout,
		"server.write_timeout":    d.Server.WriteTimeout,
		"server.shutdown_timeout": d.Server.ShutdownTimeout,

		"log.level":  d.Log.Level,
		"log.pretty": d.Log.Pretty,

		"data.configs_path":    d.Data.ConfigsPath,
		"data.assets_filename": d.Data.AssetsFilename,
		"data.header_filename": d.Data.HeaderFilename,
		"data.sections_dir":    d.Data.SectionsDir,
		"data.default.node":    d.Data.Default.Node,
		"data.default.algo":    d.Data.Default.Algo,

		"endpoint.event":            d.Endpoint.Event,
		"endpoint.fresh.message":    d.Endpoint.Fresh.Message,
		"endpoint.fresh.action":     d.Endpoint.Fresh.Action,
		"endpoint.no_fresh.message": d.Endpoint.NoFresh.Message,
		"endpoint.no_fresh.action":  d.Endpoint.NoFresh.Action,

		"routes.default_max_length": d.Routes.DefaultMaxLength,
		"routes.max_length_limit":   d.Routes.MaxLengthLimit,

		"freshness.backend":    d.Freshness.Backend,
		"freshness.redis_addr": d.Freshness.RedisAddr,
		"freshness.redis_db":   d.Freshness.RedisDB,
		"freshness.key_prefix": d.Freshness.KeyPrefix,

		"venue.sandbox":                           d.Venue.Sandbox,
		"venue.timeout":                           d.Venue.Timeout,
		"venue.max_retries":                       d.Venue.MaxRetries,
		"venue.rate_limit_requests":               d.Venue.RateLimitRequests,
		"venue.rate_limit_period":                 d.Venue.RateLimitPeriod,
		"venue.circuit_breaker_enabled":           d.Venue.CircuitBreakerEnabled,
		"venue.circuit_breaker_fail_threshold":    d.Venue.CircuitBreakerFailThreshold,
		"venue.circuit_breaker_success_threshold": d.Venue.CircuitBreakerSuccessThreshold,
		"venue.circuit_breaker_timeout":           d.Venue.CircuitBreakerTimeout,
		"venue.order_book_depth":                  d.Venue.OrderBookDepth,
		"venue.refine_concurrency":                d.Venue.RefineConcurrency,
		"venue.binance_depth_stream":              d.Venue.BinanceDepthStream,
	}
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
}
