package realtime

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"time"

	"github.com/gorilla/websocket"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 1 << 20

	reconnectBase = time.Second
	reconnectMax  = 30 * time.Second
)

// Socket bridges the backend's websocket change feed into a Hub.
type Socket struct {
	url  string
	hub  *Hub
	opts *socketOptions
}

// SocketOption configures the feed connection.
type SocketOption func(*socketOptions)

type socketOptions struct {
	dialer *websocket.Dialer
	logger *slog.Logger
}

func defaultSocketOptions() *socketOptions {
	return &socketOptions{
		dialer: websocket.DefaultDialer,
		logger: slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

// WithDialer overrides the websocket dialer.
func WithDialer(d *websocket.Dialer) SocketOption {
	return func(o *socketOptions) {
		if d != nil {
			o.dialer = d
		}
	}
}

// WithLogger sets the diagnostics logger.
func WithLogger(l *slog.Logger) SocketOption {
	return func(o *socketOptions) {
		if l != nil {
			o.logger = l
		}
	}
}

// NewSocket creates a feed bridge delivering into hub.
func NewSocket(url string, hub *Hub, opts ...SocketOption) *Socket {
	o := defaultSocketOptions()
	for _, opt := range opts {
		opt(o)
	}
	return &Socket{url: url, hub: hub, opts: o}
}

// Run connects and pumps events into the hub until ctx is done, reconnecting
// with capped backoff after connection loss.
func (s *Socket) Run(ctx context.Context) error {
	backoff := reconnectBase

	for {
		if err := ctx.Err(); err != nil {
			return err
		}

		conn, _, err := s.opts.dialer.DialContext(ctx, s.url, nil)
		if err != nil {
			s.opts.logger.WarnContext(ctx, "feed dial failed",
				slog.String("error", err.Error()))
			if waitErr := sleep(ctx, backoff); waitErr != nil {
				return waitErr
			}
			backoff = min(backoff*2, reconnectMax)
			continue
		}

		backoff = reconnectBase
		s.pump(ctx, conn)
	}
}

// pump reads events from one connection until it breaks or ctx is done.
func (s *Socket) pump(ctx context.Context, conn *websocket.Conn) {
	defer conn.Close()

	conn.SetReadLimit(maxMessageSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	done := make(chan struct{})
	defer close(done)

	go func() {
		ticker := time.NewTicker(pingPeriod)
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
				if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
					return
				}
			case <-done:
				return
			case <-ctx.Done():
				_ = conn.Close()
				return
			}
		}
	}()

	for {
		var ev Event
		if err := conn.ReadJSON(&ev); err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				s.opts.logger.DebugContext(ctx, "feed read ended",
					slog.String("error", err.Error()))
			}
			return
		}
		s.hub.Publish(ev)
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(d):
		return nil
	}
}

// decodeEvent is exposed for the wire tests.
func decodeEvent(data []byte) (Event, error) {
	var ev Event
	err := json.Unmarshal(data, &ev)
	return ev, err
}
