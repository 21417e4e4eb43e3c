package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// SignalKind discriminates the five signaling event kinds. The values double
// as the wire event names.
type SignalKind string

const (
	KindShareStarted SignalKind = "share_started"
	KindShareStopped SignalKind = "share_stopped"
	KindOffer        SignalKind = "offer"
	KindAnswer       SignalKind = "answer"
	KindIceCandidate SignalKind = "ice_candidate"
)

var (
	ErrUnknownSignalKind = errors.New("unknown signal kind")
	ErrTargetMissing     = errors.New("missing targetUserId")
	ErrFromMissing       = errors.New("missing fromUserId")
)

// SignalEnvelope is one signaling event in flight between two peers. It is
// transient: it exists only for the duration of a single forward and is
// never persisted. Payload is the opaque SDP or candidate blob; the relay
// checks its presence and nothing else.
type SignalEnvelope struct {
	Kind     SignalKind
	From     UserID
	Target   UserID
	HasAudio *bool
	HasVideo *bool
	Payload  json.RawMessage
}

// Validate checks the per-kind required field set. Payload contents are
// deliberately not inspected.
func (e *SignalEnvelope) Validate() error {
	if e.Target == "" {
		return ErrTargetMissing
	}
	switch e.Kind {
	case KindShareStopped:
		return nil
	case KindShareStarted:
		if e.From == "" {
			return ErrFromMissing
		}
		return nil
	case KindAnswer:
		// fromUserId is optional for answers.
		return e.requirePayload("answer")
	case KindOffer:
		if e.From == "" {
			return ErrFromMissing
		}
		return e.requirePayload("offer")
	case KindIceCandidate:
		if e.From == "" {
			return ErrFromMissing
		}
		return e.requirePayload("candidate")
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSignalKind, e.Kind)
	}
}

func (e *SignalEnvelope) requirePayload(field string) error {
	if len(e.Payload) == 0 || string(e.Payload) == "null" {
		return fmt.Errorf("missing %s", field)
	}
	return nil
}
