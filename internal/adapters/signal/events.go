package signal

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/rs/zerolog/log"

	"github.com/eirem/relay/internal/app"
	"github.com/eirem/relay/internal/core"
	"github.com/eirem/relay/internal/domain"
)

func (ctl *Controller) handleEvent(ctx context.Context, sid core.SessionID, uid domain.UserID, c *WsConn, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("sid", string(sid)).Msg("bad json")
		ctl.sendError(c, "malformed event")
		return
	}

	switch env.Type {
	case "ping":
		ctl.handlePing(c)
	case "private_message":
		ctl.handlePrivateMessage(ctx, uid, c, data)
	case "share_started", "share_stopped", "offer", "answer", "ice_candidate":
		ctl.handleSignal(uid, c, domain.SignalKind(env.Type), data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
		ctl.sendError(c, "unknown event type")
	}
}

func (ctl *Controller) handlePing(c *WsConn) {
	ctl.sendJSON(c, map[string]string{"type": "pong"})
}

func (ctl *Controller) handlePrivateMessage(ctx context.Context, uid domain.UserID, c *WsConn, data []byte) {
	type messagePayload struct {
		Type string `json:"type"`
		From string `json:"from"`
		To   string `json:"to"`
		Text string `json:"text"`
	}
	var p messagePayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("bad private_message payload")
		ctl.sendError(c, "malformed private_message payload")
		return
	}

	// The wire contract carries an explicit sender, but a session may only
	// speak for its own authenticated identity.
	if p.From != "" && domain.UserID(p.From) != uid {
		ctl.sendError(c, "sender mismatch")
		return
	}
	if !ctl.limiter.Allow(uid) {
		ctl.sendError(c, "rate limited")
		return
	}

	if _, err := ctl.relay.SendPrivateMessage(ctx, domain.UserID(p.From), domain.UserID(p.To), p.Text); err != nil {
		ctl.sendError(c, errorMessage(err))
	}
}

func (ctl *Controller) handleSignal(uid domain.UserID, c *WsConn, kind domain.SignalKind, data []byte) {
	type signalPayload struct {
		Type         string          `json:"type"`
		TargetUserID string          `json:"targetUserId"`
		FromUserID   string          `json:"fromUserId"`
		HasAudio     *bool           `json:"hasAudio"`
		HasVideo     *bool           `json:"hasVideo"`
		Offer        json.RawMessage `json:"offer"`
		Answer       json.RawMessage `json:"answer"`
		Candidate    json.RawMessage `json:"candidate"`
	}
	var p signalPayload
	if err := json.Unmarshal(data, &p); err != nil {
		log.Error().Err(err).Str("module", "signal").Str("kind", string(kind)).Msg("bad signal payload")
		ctl.sendError(c, "malformed signal payload")
		return
	}

	env := domain.SignalEnvelope{
		Kind:     kind,
		From:     domain.UserID(p.FromUserID),
		Target:   domain.UserID(p.TargetUserID),
		HasAudio: p.HasAudio,
		HasVideo: p.HasVideo,
	}
	switch kind {
	case domain.KindOffer:
		env.Payload = p.Offer
	case domain.KindAnswer:
		env.Payload = p.Answer
	case domain.KindIceCandidate:
		env.Payload = p.Candidate
	}

	if err := ctl.router.Forward(uid, env); err != nil {
		ctl.sendError(c, errorMessage(err))
	}
}

func (ctl *Controller) sendJSON(c *WsConn, v any) {
	b, err := json.Marshal(v)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("sendJSON marshal")
		return
	}
	_ = c.TrySend(b)
}

func (ctl *Controller) sendError(c *WsConn, message string) {
	ctl.sendJSON(c, map[string]string{"type": "error", "message": message})
}

// errorMessage maps relay errors to the wire error text the sender sees.
func errorMessage(err error) string {
	switch {
	case errors.Is(err, app.ErrTargetOffline):
		return "target not connected"
	case errors.Is(err, app.ErrDelivery):
		return "delivery failed"
	default:
		var verr *app.ValidationError
		if errors.As(err, &verr) {
			return verr.Error()
		}
		var serr *app.StoreWriteError
		if errors.As(err, &serr) {
			return "message could not be stored"
		}
		return "internal error"
	}
}
