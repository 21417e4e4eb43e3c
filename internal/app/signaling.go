package app

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/eirem/relay/internal/core"
	"github.com/eirem/relay/internal/domain"
)

// Router forwards the five signaling event kinds between exactly two peers.
// Handlers are stateless beyond the shared registry lookup; every kind runs
// the same template: validate required fields, resolve the target, hand the
// frame to the target transport.
type Router struct {
	registry *Registry
	metrics  *Metrics
}

func NewRouter(registry *Registry, metrics *Metrics) *Router {
	return &Router{registry: registry, metrics: metrics}
}

// outboundSignal is the wire form the target session sees: same event name,
// targetUserId stripped, fromUserId injected, payload blob untouched.
type outboundSignal struct {
	Type      string          `json:"type"`
	From      domain.UserID   `json:"fromUserId,omitempty"`
	HasAudio  *bool           `json:"hasAudio,omitempty"`
	HasVideo  *bool           `json:"hasVideo,omitempty"`
	Offer     json.RawMessage `json:"offer,omitempty"`
	Answer    json.RawMessage `json:"answer,omitempty"`
	Candidate json.RawMessage `json:"candidate,omitempty"`
}

// Forward relays env to its target. sender is the authenticated identity of
// the originating session and is what the target sees as fromUserId, so a
// client cannot speak for anyone but itself. Events from one sender are
// forwarded in the order they arrive on that sender's transport.
func (rt *Router) Forward(sender domain.UserID, env domain.SignalEnvelope) error {
	if err := env.Validate(); err != nil {
		rt.metrics.relayErrors.WithLabelValues("validation").Inc()
		return &ValidationError{Cause: err}
	}

	sess, ok := rt.registry.Lookup(env.Target)
	if !ok {
		rt.metrics.relayErrors.WithLabelValues("target_offline").Inc()
		log.Debug().Str("module", "app.signaling").Str("kind", string(env.Kind)).
			Str("target", string(env.Target)).Msg("signal target offline")
		return ErrTargetOffline
	}

	out := outboundSignal{Type: string(env.Kind), From: sender}
	switch env.Kind {
	case domain.KindShareStarted:
		out.HasAudio = flagOrDefault(env.HasAudio, false)
		out.HasVideo = flagOrDefault(env.HasVideo, true)
	case domain.KindOffer:
		out.Offer = env.Payload
	case domain.KindAnswer:
		out.Answer = env.Payload
	case domain.KindIceCandidate:
		out.Candidate = env.Payload
	}

	frame, err := json.Marshal(out)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	if err := sess.Conn.TrySend(core.Frame(frame)); err != nil {
		rt.metrics.relayErrors.WithLabelValues("delivery").Inc()
		return fmt.Errorf("%w: %v", ErrDelivery, err)
	}
	rt.metrics.signalsForwarded.WithLabelValues(string(env.Kind)).Inc()
	return nil
}

func flagOrDefault(v *bool, def bool) *bool {
	if v != nil {
		return v
	}
	return &def
}
