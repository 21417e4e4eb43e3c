package signal_test

import (
	"context"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/eirem/relay/internal/adapters/signal"
	"github.com/eirem/relay/internal/app"
	"github.com/eirem/relay/internal/auth"
	"github.com/eirem/relay/internal/domain"
)

const testSecret = "integration-secret"

type memStore struct {
	mu   sync.Mutex
	msgs []domain.Message
}

func (s *memStore) Append(_ context.Context, msg *domain.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.msgs = append(s.msgs, *msg)
	return nil
}

func (s *memStore) Between(_ context.Context, a, b domain.UserID) ([]domain.Message, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.Message
	for _, m := range s.msgs {
		if (m.From == a && m.To == b) || (m.From == b && m.To == a) {
			out = append(out, m)
		}
	}
	return out, nil
}

func (s *memStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.msgs)
}

func newTestServer(t *testing.T) (*httptest.Server, *memStore) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	st := &memStore{}
	registry := app.NewRegistry()
	metrics := app.NewMetrics(prometheus.NewRegistry())
	relay := app.NewRelay(registry, st, auth.NewJWTVerifier(testSecret), metrics)
	router := app.NewRouter(registry, metrics)
	ctl := signal.NewController(relay, router, signal.Options{
		SendBuffer:   8,
		WriteTimeout: time.Second,
	})

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	r := gin.New()
	r.GET("/api/ws", func(c *gin.Context) {
		ctl.HandleWS(ctx, c)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv, st
}

func signToken(t *testing.T, secret string) string {
	t.Helper()
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString([]byte(secret))
	require.NoError(t, err)
	return token
}

func wsURL(srv *httptest.Server, uid, token string) string {
	return "ws" + strings.TrimPrefix(srv.URL, "http") +
		"/api/ws?token=" + url.QueryEscape(token) + "&userId=" + url.QueryEscape(uid)
}

// dial connects as uid and waits for a pong, which confirms the session is
// registered before the test proceeds.
func dial(t *testing.T, srv *httptest.Server, uid string) *websocket.Conn {
	t.Helper()
	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, uid, signToken(t, testSecret)), nil)
	require.NoError(t, err)
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	t.Cleanup(func() { _ = conn.Close() })

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	var pong struct {
		Type string `json:"type"`
	}
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(&pong))
	require.Equal(t, "pong", pong.Type)
	return conn
}

func readEvent(t *testing.T, conn *websocket.Conn, out any) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	require.NoError(t, conn.ReadJSON(out))
}

func TestRejectsBadToken(t *testing.T) {
	srv, _ := newTestServer(t)

	conn, resp, err := websocket.DefaultDialer.Dial(wsURL(srv, "7", "not-a-token"), nil)
	require.NoError(t, err, "upgrade itself succeeds; rejection closes the session")
	if resp != nil && resp.Body != nil {
		_ = resp.Body.Close()
	}
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, _, err = conn.ReadMessage()
	require.Error(t, err)
	assert.True(t, websocket.IsCloseError(err, websocket.ClosePolicyViolation),
		"expected policy violation close, got %v", err)
}

func TestPrivateMessageDelivery(t *testing.T) {
	srv, st := newTestServer(t)

	connA := dial(t, srv, "7")
	connB := dial(t, srv, "9")

	require.NoError(t, connA.WriteJSON(map[string]string{
		"type": "private_message", "from": "7", "to": "9", "text": "hi",
	}))

	var got struct {
		Type      string `json:"type"`
		From      string `json:"from"`
		Text      string `json:"text"`
		Timestamp int64  `json:"timestamp"`
	}
	readEvent(t, connB, &got)
	assert.Equal(t, "private_message", got.Type)
	assert.Equal(t, "7", got.From)
	assert.Equal(t, "hi", got.Text)
	assert.NotZero(t, got.Timestamp)

	assert.Equal(t, 1, st.Len())
}

func TestSenderMismatchRejected(t *testing.T) {
	srv, st := newTestServer(t)

	connA := dial(t, srv, "7")
	dial(t, srv, "9")

	require.NoError(t, connA.WriteJSON(map[string]string{
		"type": "private_message", "from": "9", "to": "9", "text": "spoofed",
	}))

	var got struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	readEvent(t, connA, &got)
	assert.Equal(t, "error", got.Type)
	assert.Equal(t, "sender mismatch", got.Message)
	assert.Zero(t, st.Len())
}

func TestOfferForwarding(t *testing.T) {
	srv, _ := newTestServer(t)

	connA := dial(t, srv, "7")
	connB := dial(t, srv, "9")

	require.NoError(t, connA.WriteJSON(map[string]any{
		"type": "offer", "targetUserId": "9", "fromUserId": "7",
		"offer": map[string]string{"type": "offer", "sdp": "v=0"},
	}))

	var got struct {
		Type  string `json:"type"`
		From  string `json:"fromUserId"`
		Offer struct {
			Type string `json:"type"`
			SDP  string `json:"sdp"`
		} `json:"offer"`
	}
	readEvent(t, connB, &got)
	assert.Equal(t, "offer", got.Type)
	assert.Equal(t, "7", got.From)
	assert.Equal(t, "v=0", got.Offer.SDP)
}

func TestOfflineTargetError(t *testing.T) {
	srv, _ := newTestServer(t)

	connA := dial(t, srv, "7")

	require.NoError(t, connA.WriteJSON(map[string]any{
		"type": "ice_candidate", "targetUserId": "42", "fromUserId": "7",
		"candidate": map[string]string{"candidate": "candidate:1"},
	}))

	var got struct {
		Type    string `json:"type"`
		Message string `json:"message"`
	}
	readEvent(t, connA, &got)
	assert.Equal(t, "error", got.Type)
	assert.Equal(t, "target not connected", got.Message)
}
