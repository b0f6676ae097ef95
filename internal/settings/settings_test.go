package settings

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_IsValid(t *testing.T) {
	s := Default()
	require.NoError(t, s.Validate())

	assert.Equal(t, ":8000", s.Server.Addr)
	assert.Equal(t, "configurator", s.Data.Default.Node)
	assert.Equal(t, "spread_bot_cpp", s.Data.Default.Algo)
	assert.Equal(t, "config", s.Endpoint.Event)
	assert.Equal(t, 3, s.Routes.DefaultMaxLength)
	assert.Equal(t, "memory", s.Freshness.Backend)
}

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)
	assert.Equal(t, Default(), s)
}

func TestLoad_File(t *testing.T) {
	path := filepath.Join(t.TempDir(), "configurator.toml")
	content := `
[server]
addr = ":9000"
read_timeout = "5s"

[data]
configs_path = "/srv/configs"

[data.default]
node = "node-7"

[endpoint.no_fresh]
action = "keep"

[routes]
default_max_length = 4

[venue]
binance_depth_stream = true
refine_concurrency = 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))

	s, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, ":9000", s.Server.Addr)
	assert.Equal(t, 5*time.Second, s.Server.ReadTimeout)
	assert.Equal(t, "/srv/configs", s.Data.ConfigsPath)
	assert.Equal(t, "node-7", s.Data.Default.Node)
	assert.Equal(t, "spread_bot_cpp", s.Data.Default.Algo)
	assert.Equal(t, "keep", s.Endpoint.NoFresh.Action)
	assert.Equal(t, Default().Endpoint.NoFresh.Message, s.Endpoint.NoFresh.Message)
	assert.Equal(t, 4, s.Routes.DefaultMaxLength)
	assert.True(t, s.Venue.BinanceDepthStream)
	assert.Equal(t, 2, s.Venue.RefineConcurrency)
}

func TestLoad_Env(t *testing.T) {
	t.Setenv("CONFIGURATOR_SERVER_ADDR", ":7000")
	t.Setenv("CONFIGURATOR_FRESHNESS_BACKEND", "redis")
	t.Setenv("CONFIGURATOR_VENUE_TIMEOUT", "3s")

	s, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, ":7000", s.Server.Addr)
	assert.Equal(t, "redis", s.Freshness.Backend)
	assert.Equal(t, 3*time.Second, s.Venue.Timeout)
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{name: "unknown backend", content: "[freshness]\nbackend = \"etcd\"\n"},
		{name: "default above limit", content: "[routes]\ndefault_max_length = 7\nmax_length_limit = 6\n"},
		{name: "bad log level", content: "[log]\nlevel = \"loud\"\n"},
		{name: "malformed toml", content: "[server\naddr = 1"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := filepath.Join(t.TempDir(), "configurator.toml")
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0o644))

			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}
