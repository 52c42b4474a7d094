package relay

import (
	"sync"
	"time"
)

// Sender is the outbound half of one client connection. TrySend must never
// block; a full buffer or closed connection returns an error instead.
type Sender interface {
	TrySend(msg []byte) error
}

// Recipient pairs a live session id with its connection for fanout.
type Recipient struct {
	ID   string
	Send Sender
}

// Registry owns the session-id -> connection and session-id -> state maps.
// It is the only shared mutable resource in the relay; one RWMutex guards
// both maps, and every stored Session is mutated only under that lock.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]Sender
	state map[string]*Session
}

func NewRegistry() *Registry {
	return &Registry{
		conns: make(map[string]Sender),
		state: make(map[string]*Session),
	}
}

// Register creates or overwrites the session entry with spawn defaults and
// binds the connection. A reconnecting id simply takes over the record.
func (r *Registry) Register(id, name string, send Sender) Session {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess := &Session{
		ID:        id,
		Name:      name,
		Position:  defaultPosition,
		Rotation:  defaultRotation,
		Connected: true,
	}
	r.state[id] = sess
	r.conns[id] = send
	return *sess
}

// Deregister drops the connection handle and marks the state record
// disconnected, stamping the time for the retention janitor. The record
// itself is retained. Safe to call for ids that are already gone.
func (r *Registry) Deregister(id string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.conns, id)
	if sess, ok := r.state[id]; ok {
		sess.Connected = false
		sess.DisconnectedAt = time.Now()
	}
}

// SnapshotOthers returns views of every connected session except excludeID.
// Order is map iteration order; callers must not depend on it.
func (r *Registry) SnapshotOthers(excludeID string) []SessionView {
	r.mu.RLock()
	defer r.mu.RUnlock()

	views := make([]SessionView, 0, len(r.state))
	for id, sess := range r.state {
		if id == excludeID || !sess.Connected {
			continue
		}
		views = append(views, sess.View())
	}
	return views
}

// ListLiveRecipients returns the fanout set: every live connection except
// excludeID. Pass "" to include everyone.
func (r *Registry) ListLiveRecipients(excludeID string) []Recipient {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Recipient, 0, len(r.conns))
	for id, send := range r.conns {
		if id == excludeID {
			continue
		}
		out = append(out, Recipient{ID: id, Send: send})
	}
	return out
}

// Get returns a copy of the session state for id.
func (r *Registry) Get(id string) (Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sess, ok := r.state[id]
	if !ok {
		return Session{}, false
	}
	return *sess, true
}

// Lookup of the sender for one id, for snapshot delivery to the new joiner.
func (r *Registry) sender(id string) (Sender, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	send, ok := r.conns[id]
	return send, ok
}

// UpdatePosition replaces all three position axes.
func (r *Registry) UpdatePosition(id string, v Vec3) (Session, error) {
	return r.mutate(id, func(s *Session) { s.Position = v })
}

// UpdateRotation replaces all three rotation axes.
func (r *Registry) UpdateRotation(id string, v Vec3) (Session, error) {
	return r.mutate(id, func(s *Session) { s.Rotation = v })
}

// MergePosition overwrites only the axes present in the payload. The strict
// inbound path always sends complete payloads, but partial merges are part
// of the registry contract.
func (r *Registry) MergePosition(id string, p VecPayload) (Session, error) {
	return r.mutate(id, func(s *Session) { mergeAxes(&s.Position, p) })
}

// MergeRotation is the rotation counterpart of MergePosition.
func (r *Registry) MergeRotation(id string, p VecPayload) (Session, error) {
	return r.mutate(id, func(s *Session) { mergeAxes(&s.Rotation, p) })
}

// SetTransformed stores the visual-effect toggle.
func (r *Registry) SetTransformed(id string, active bool) (Session, error) {
	return r.mutate(id, func(s *Session) { s.Transformed = active })
}

func (r *Registry) mutate(id string, fn func(*Session)) (Session, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	sess, ok := r.state[id]
	if !ok {
		return Session{}, ErrUnknownSession
	}
	fn(sess)
	return *sess, nil
}

func mergeAxes(dst *Vec3, p VecPayload) {
	if p.X != nil {
		dst.X = *p.X
	}
	if p.Y != nil {
		dst.Y = *p.Y
	}
	if p.Z != nil {
		dst.Z = *p.Z
	}
}

// LiveConnectionCount is exposed for the health endpoint.
func (r *Registry) LiveConnectionCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}

// LiveIDs lists the ids of all open connections, for the status endpoint.
func (r *Registry) LiveIDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.conns))
	for id := range r.conns {
		ids = append(ids, id)
	}
	return ids
}

// PurgeDisconnectedBefore removes state records that disconnected before
// cutoff and reports how many were dropped. Live sessions are never touched.
func (r *Registry) PurgeDisconnectedBefore(cutoff time.Time) int {
	r.mu.Lock()
	defer r.mu.Unlock()

	n := 0
	for id, sess := range r.state {
		if sess.Connected || sess.DisconnectedAt.After(cutoff) {
			continue
		}
		delete(r.state, id)
		n++
	}
	return n
}
