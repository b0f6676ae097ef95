package http

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewClient_InvalidConfig(t *testing.T) {
	_, err := NewClient(&Config{BaseURL: "", Timeout: time.Second}, zerolog.Nop())
	assert.Error(t, err)
}

func TestClient_Get(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/depth", r.URL.Path)
		assert.Equal(t, "ETHBTC", r.URL.Query().Get("symbol"))
		assert.Equal(t, "yes", r.Header.Get("X-Test"))
		assert.Equal(t, "configurator", r.Header.Get("User-Agent"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer srv.Close()

	client, err := NewClient(&Config{
		BaseURL: srv.URL,
		Timeout: time.Second,
		Headers: map[string]string{"User-Agent": "configurator"},
	}, zerolog.Nop())
	require.NoError(t, err)
	defer client.Close()

	resp, err := client.Get(context.Background(), "/api/v3/depth",
		WithQueryParams(map[string]string{"symbol": "ETHBTC"}),
		WithHeader("X-Test", "yes"),
	)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode())
	assert.JSONEq(t, `{"ok":true}`, string(resp.Bytes()))
}

func TestClient_Closed(t *testing.T) {
	client, err := NewClient(&Config{BaseURL: "http://127.0.0.1:1", Timeout: time.Second}, zerolog.Nop())
	require.NoError(t, err)

	require.NoError(t, client.Close())
	require.NoError(t, client.Close())

	_, err = client.Get(context.Background(), "/")
	assert.Error(t, err)
}
