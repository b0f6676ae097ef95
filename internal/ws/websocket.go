// Package ws reads snapshots from websocket streams that push a full state
// in every message, such as partial order book depth streams.
package ws

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/lxzan/gws"
	"github.com/rs/zerolog"
)

// ErrClosed is returned when the server closes the stream before sending a message.
var ErrClosed = errors.New("websocket closed before first message")

// Config holds the options of a snapshot reader.
type Config struct {
	// URL is the websocket stream endpoint.
	URL string
	// HandshakeTimeout bounds the connection handshake.
	HandshakeTimeout time.Duration
	Logger           zerolog.Logger
}

type snapshotHandler struct {
	gws.BuiltinEventHandler
	messages chan []byte
	closed   chan error
	logger   zerolog.Logger
}

func (h *snapshotHandler) OnClose(socket *gws.Conn, err error) {
	h.logger.Debug().Err(err).Msg("websocket closed")
	select {
	case h.closed <- err:
	default:
	}
}

func (h *snapshotHandler) OnMessage(socket *gws.Conn, message *gws.Message) {
	defer message.Close()

	data := message.Bytes()
	if len(data) == 0 {
		return
	}
	select {
	case h.messages <- bytes.Clone(data):
	default:
	}
}

// ReadFirst connects to the stream, returns the first non-empty message, and closes
// the connection. It returns when the context is done.
func ReadFirst(ctx context.Context, config Config) ([]byte, error) {
	if config.HandshakeTimeout == 0 {
		config.HandshakeTimeout = 5 * time.Second
	}

	handler := &snapshotHandler{
		messages: make(chan []byte, 1),
		closed:   make(chan error, 1),
		logger:   config.Logger,
	}

	socket, _, err := gws.NewClient(handler, &gws.ClientOption{
		Addr:             config.URL,
		HandshakeTimeout: config.HandshakeTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("connect websocket: %w", err)
	}
	defer func() {
		_ = socket.WriteClose(1000, nil)
		_ = socket.NetConn().Close()
	}()

	go socket.ReadLoop()

	config.Logger.Debug().Str("url", config.URL).Msg("websocket connected")

	select {
	case data := <-handler.messages:
		return data, nil
	case err := <-handler.closed:
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrClosed, err)
		}
		return nil, ErrClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
