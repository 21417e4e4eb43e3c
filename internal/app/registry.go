package app

import (
	"sync"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/eirem/relay/internal/core"
	"github.com/eirem/relay/internal/domain"
)

// Session is one live registry entry: the binding of a logical user to a
// transport connection.
type Session struct {
	SID         core.SessionID
	Conn        core.SignalConnection
	ConnectedAt time.Time
}

// Registry is the single source of truth for "is user X online, and how do
// I reach them". One mutex guards both directions of the mapping; every
// operation is O(1) and the lock is never held across store or network I/O.
type Registry struct {
	mu     sync.Mutex
	users  map[domain.UserID]*Session
	owners map[core.SessionID]domain.UserID
}

func NewRegistry() *Registry {
	return &Registry{
		users:  make(map[domain.UserID]*Session),
		owners: make(map[core.SessionID]domain.UserID),
	}
}

// Register binds uid to the given connection, superseding any prior session
// for the same user. Returns true when an older session was replaced. The
// superseded transport is not closed here; the transport layer tears it down
// on its own disconnect signal.
func (r *Registry) Register(uid domain.UserID, sid core.SessionID, conn core.SignalConnection) bool {
	r.mu.Lock()
	old, superseded := r.users[uid]
	if superseded {
		delete(r.owners, old.SID)
	}
	r.users[uid] = &Session{SID: sid, Conn: conn, ConnectedAt: time.Now()}
	r.owners[sid] = uid
	r.mu.Unlock()

	log.Info().Str("module", "app.registry").Str("uid", string(uid)).Str("sid", string(sid)).
		Bool("superseded", superseded).Msg("registered session")
	return superseded
}

// Unregister removes the entry whose current binding is sid and returns the
// user it belonged to. A handle already superseded by a newer connect is no
// longer the current binding, so a stale disconnect cannot evict the newer
// session; the call is then a no-op.
func (r *Registry) Unregister(sid core.SessionID) (domain.UserID, bool) {
	r.mu.Lock()
	uid, ok := r.owners[sid]
	if !ok {
		r.mu.Unlock()
		return "", false
	}
	delete(r.owners, sid)
	if cur, ok := r.users[uid]; ok && cur.SID == sid {
		delete(r.users, uid)
	}
	r.mu.Unlock()

	log.Info().Str("module", "app.registry").Str("uid", string(uid)).Str("sid", string(sid)).Msg("unregistered session")
	return uid, true
}

// Lookup returns the current session for uid, or false when offline.
func (r *Registry) Lookup(uid domain.UserID) (*Session, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	s, ok := r.users[uid]
	return s, ok
}

// ResolveUser returns the user currently bound to sid, or false when the
// handle is unknown or already superseded.
func (r *Registry) ResolveUser(sid core.SessionID) (domain.UserID, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	uid, ok := r.owners[sid]
	return uid, ok
}

// Len reports how many users are currently connected.
func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.users)
}
