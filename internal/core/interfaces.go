// Package core holds the transport-facing interfaces shared between the
// relay engine and its adapters.
package core

import (
	"context"

	"github.com/eirem/relay/internal/domain"
)

// Frame is a raw wire payload, one websocket text message.
type Frame []byte

// SessionID identifies one live transport connection. Assigned by the
// transport adapter, opaque to everything else.
type SessionID string

// SignalConnection abstracts the system messaging transport for one session.
// Owned by the adapter; the adapter must Close() it. TrySend must not block:
// a backed-up peer is reported as an error, never waited on.
type SignalConnection interface {
	TrySend(Frame) error
	Close()
}

// MessageStore is the durable append-only log of chat messages. Schema
// ownership is external; the relay only appends and queries.
type MessageStore interface {
	Append(ctx context.Context, msg *domain.Message) error
	Between(ctx context.Context, a, b domain.UserID) ([]domain.Message, error)
}

// TokenVerifier checks that a connect-time credential is currently valid.
// No claims are consumed beyond validity.
type TokenVerifier interface {
	Verify(token string) error
}
