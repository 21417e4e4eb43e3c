// Package signal is the websocket transport adapter: it owns connection
// upgrade, connect-time auth, pump lifecycles and event dispatch into the
// relay core.
package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/eirem/relay/internal/app"
	"github.com/eirem/relay/internal/core"
	"github.com/eirem/relay/internal/domain"
)

var ErrBackpressure = errors.New("backpressure")

// WsConn wraps one websocket with a bounded send queue. TrySend never
// blocks: a full queue means the peer is not draining and the caller gets
// ErrBackpressure instead of a stalled relay.
type WsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *WsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return errors.New("connection closed")
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *WsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

// Options tunes per-connection transport behaviour.
type Options struct {
	ReadLimit     int64
	SendBuffer    int
	WriteTimeout  time.Duration
	MessageRate   int
	MessageWindow time.Duration
}

// Controller serves the websocket endpoint.
type Controller struct {
	relay   *app.Relay
	router  *app.Router
	opts    Options
	limiter *MessageRateLimiter
}

func NewController(relay *app.Relay, router *app.Router, opts Options) *Controller {
	if opts.SendBuffer <= 0 {
		opts.SendBuffer = 32
	}
	if opts.WriteTimeout <= 0 {
		opts.WriteTimeout = 5 * time.Second
	}
	return &Controller{
		relay:   relay,
		router:  router,
		opts:    opts,
		limiter: NewMessageRateLimiter(opts.MessageRate, opts.MessageWindow),
	}
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleWS upgrades the request and runs the session until disconnect.
// Credentials travel as query parameters (token, userId); an invalid or
// missing credential closes the socket before any registry state exists.
func (ctl *Controller) HandleWS(ctx context.Context, c *gin.Context) {
	token := c.Query("token")
	uid := domain.UserID(c.Query("userId"))

	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	sid := core.SessionID(uuid.NewString())
	conn := &WsConn{
		conn: ws,
		send: make(chan core.Frame, ctl.opts.SendBuffer),
	}

	if err := ctl.relay.Connect(token, uid, sid, conn); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("connection rejected")
		deadline := time.Now().Add(time.Second)
		_ = ws.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "connection rejected"), deadline)
		_ = ws.Close()
		return
	}
	if ctl.opts.ReadLimit > 0 {
		ws.SetReadLimit(ctl.opts.ReadLimit)
	}

	log.Info().Str("module", "signal").Str("uid", string(uid)).Str("sid", string(sid)).Msg("new WS connection")

	ctx, cancel := context.WithCancel(ctx)
	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, cancel, sid, uid, conn)
}
