package app

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eirem/relay/internal/core"
	"github.com/eirem/relay/internal/domain"
)

// Relay is the behavioural core of the service: it validates inbound events,
// persists what must outlive the connection, and forwards to the target
// session. Safe for concurrent use from many connection contexts.
type Relay struct {
	registry *Registry
	store    core.MessageStore
	verifier core.TokenVerifier
	metrics  *Metrics
	now      func() time.Time
}

func NewRelay(registry *Registry, store core.MessageStore, verifier core.TokenVerifier, metrics *Metrics) *Relay {
	return &Relay{
		registry: registry,
		store:    store,
		verifier: verifier,
		metrics:  metrics,
		now:      time.Now,
	}
}

// Connect promotes a new transport session to connected: the credential is
// checked first, then the user is bound in the registry. A rejected session
// never creates registry state.
func (r *Relay) Connect(token string, uid domain.UserID, sid core.SessionID, conn core.SignalConnection) error {
	if token == "" || uid == "" {
		r.metrics.authFailures.Inc()
		return fmt.Errorf("%w: missing token or userId", ErrRejected)
	}
	if err := r.verifier.Verify(token); err != nil {
		r.metrics.authFailures.Inc()
		log.Warn().Err(err).Str("module", "app.relay").Str("uid", string(uid)).Msg("token validation failed")
		return fmt.Errorf("%w: invalid token", ErrRejected)
	}

	superseded := r.registry.Register(uid, sid, conn)
	r.metrics.sessionsTotal.Inc()
	r.metrics.activeSessions.Inc()
	if superseded {
		r.metrics.activeSessions.Dec()
	}
	return nil
}

// Disconnect tears down the registry binding for sid. Idempotent: a second
// disconnect for the same handle, or a disconnect for a handle that was
// already superseded by a newer connect, is a no-op.
func (r *Relay) Disconnect(sid core.SessionID) {
	uid, ok := r.registry.Unregister(sid)
	if !ok {
		return
	}
	r.metrics.activeSessions.Dec()
	log.Info().Str("module", "app.relay").Str("uid", string(uid)).Msg("user disconnected")
}

// deliveredMessage is the wire form a connected recipient sees.
type deliveredMessage struct {
	Type      string        `json:"type"`
	From      domain.UserID `json:"from"`
	Text      string        `json:"text"`
	Timestamp int64         `json:"timestamp"`
}

// SendPrivateMessage persists the message and then forwards it to the
// recipient's session if one is registered. Persistence comes first so every
// live-delivered message is also in history; a message that fails to persist
// is never forwarded. An offline recipient is not an error: the stored copy
// is served by the next history fetch.
func (r *Relay) SendPrivateMessage(ctx context.Context, from, to domain.UserID, text string) (*domain.Message, error) {
	msg := &domain.Message{From: from, To: to, Text: text, Timestamp: r.now().Unix()}
	if err := msg.Validate(); err != nil {
		r.metrics.relayErrors.WithLabelValues("validation").Inc()
		return nil, &ValidationError{Cause: err}
	}

	if err := r.store.Append(ctx, msg); err != nil {
		r.metrics.storeFailures.Inc()
		log.Error().Err(err).Str("module", "app.relay").Str("from", string(from)).Str("to", string(to)).
			Msg("message store write failed")
		return nil, &StoreWriteError{Err: err}
	}
	r.metrics.messagesStored.Inc()

	sess, ok := r.registry.Lookup(to)
	if !ok {
		r.metrics.messagesOffline.Inc()
		log.Debug().Str("module", "app.relay").Str("to", string(to)).Msg("recipient offline, message stored")
		return msg, nil
	}

	frame, err := json.Marshal(deliveredMessage{
		Type:      "private_message",
		From:      msg.From,
		Text:      msg.Text,
		Timestamp: msg.Timestamp,
	})
	if err != nil {
		return msg, fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	if err := sess.Conn.TrySend(core.Frame(frame)); err != nil {
		r.metrics.relayErrors.WithLabelValues("delivery").Inc()
		return msg, fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	r.metrics.messagesForwarded.Inc()
	return msg, nil
}
