// Package bridge owns the single outbound websocket connection to the
// ONE-T push channel. Inbound messages are decoded by their method tag and
// redirected into the reconciler as if they were fetch results; outbound
// subscription requests are queued fire-and-forget and replayed after a
// reconnect.
package bridge

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/turboflakes/onet-cache/pkg/reconcile"
)

const (
	readDeadline  = 60 * time.Second
	pingInterval  = 30 * time.Second
	writeDeadline = 10 * time.Second
)

// Handler consumes the events decoded from inbound push messages.
type Handler interface {
	Apply(ctx context.Context, ev reconcile.Event)
}

// Request is the `{"method": ..., "params": [...]}` envelope of an
// outbound subscription request.
type Request struct {
	Method string   `json:"method"`
	Params []string `json:"params"`
}

type Bridge struct {
	url     string
	handler Handler
	logger  *zap.Logger
	dialer  *websocket.Dialer

	outbound chan Request

	// subscriptions survive reconnects; replayed on every new connection.
	mu   sync.Mutex
	subs map[string]Request
}

func New(url string, handler Handler, logger *zap.Logger) *Bridge {
	return &Bridge{
		url:      url,
		handler:  handler,
		logger:   logger,
		dialer:   websocket.DefaultDialer,
		outbound: make(chan Request, 64),
		subs:     map[string]Request{},
	}
}

// Queue enqueues a subscription request. Fire-and-forget: when the channel
// is down or the queue is full the request is only recorded for replay.
func (b *Bridge) Queue(method string, params ...string) {
	req := Request{Method: method, Params: params}
	if params == nil {
		req.Params = []string{}
	}

	b.mu.Lock()
	key, _ := json.Marshal(req)
	b.subs[string(key)] = req
	b.mu.Unlock()

	select {
	case b.outbound <- req:
	default:
		b.logger.Warn("Subscription queue full, request deferred to replay",
			zap.String("method", method))
	}
}

// Run connects and processes messages until the context is cancelled,
// reconnecting with exponential backoff on failure.
func (b *Bridge) Run(ctx context.Context) {
	var backoff time.Duration
	attempt := 0

	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		attempt++
		connected := time.Now()
		err := b.runConn(ctx)
		if ctx.Err() != nil {
			return
		}
		backoff = redialBackoff(backoff, time.Since(connected))
		b.logger.Warn("Push channel disconnected, will retry",
			zap.Error(err),
			zap.Int("attempt", attempt),
			zap.Duration("backoff", backoff))

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return
		}
	}
}

// runConn drives one connection: dial, replay subscriptions, then pump the
// reader and writer until either side fails.
func (b *Bridge) runConn(ctx context.Context) error {
	conn, resp, err := b.dialer.DialContext(ctx, b.url, nil)
	if err != nil {
		if resp != nil {
			_ = resp.Body.Close()
		}
		return err
	}
	defer func() {
		if cerr := conn.Close(); cerr != nil {
			b.logger.Debug("Failed to close push channel", zap.Error(cerr))
		}
	}()

	b.logger.Info("Push channel connected", zap.String("url", b.url))

	connCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		b.writeLoop(connCtx, conn, cancel)
	}()

	b.replaySubscriptions()

	err = b.readLoop(connCtx, conn)
	cancel()
	wg.Wait()
	return err
}

// replaySubscriptions re-enqueues the subscription set for the writer.
func (b *Bridge) replaySubscriptions() {
	// Drop anything queued while disconnected; the recorded set already
	// covers it and replay would send it twice.
drain:
	for {
		select {
		case <-b.outbound:
		default:
			break drain
		}
	}

	b.mu.Lock()
	reqs := make([]Request, 0, len(b.subs))
	for _, req := range b.subs {
		reqs = append(reqs, req)
	}
	b.mu.Unlock()

	for _, req := range reqs {
		select {
		case b.outbound <- req:
		default:
			b.logger.Warn("Subscription queue full during replay",
				zap.String("method", req.Method))
		}
	}
}

// writeLoop sends queued requests and keepalive pings.
func (b *Bridge) writeLoop(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case req := <-b.outbound:
			_ = conn.SetWriteDeadline(time.Now().Add(writeDeadline))
			if err := conn.WriteJSON(req); err != nil {
				b.logger.Warn("Failed to write subscription request",
					zap.String("method", req.Method), zap.Error(err))
				cancel()
				return
			}
			b.logger.Debug("Subscription request sent", zap.String("method", req.Method))
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(writeDeadline)); err != nil {
				b.logger.Warn("Failed to send ping", zap.Error(err))
				cancel()
				return
			}
		}
	}
}

// readLoop decodes inbound messages in arrival order and hands them to the
// reconciler. Messages that fail to decode are dropped, not fatal.
func (b *Bridge) readLoop(ctx context.Context, conn *websocket.Conn) error {
	_ = conn.SetReadDeadline(time.Now().Add(readDeadline))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(readDeadline))
	})

	for {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		_ = conn.SetReadDeadline(time.Now().Add(readDeadline))

		ev, decErr := Decode(raw)
		if decErr != nil {
			b.logger.Warn("Dropping undecodable push message", zap.Error(decErr))
			continue
		}
		if ev == nil {
			continue
		}
		b.handler.Apply(ctx, ev)
	}
}
