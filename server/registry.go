package server

import (
	"context"
	"sync"
)

// sessionKey is the (pid, secret) pair a CancelRequest presents to prove
// it may interrupt a specific session.
type sessionKey struct {
	pid    int32
	secret int32
}

// registrant is what a live session publishes to the registry: a cancel
// function for CancelRequest, and a shutdown hook that writes the
// AdminShutdown error and closes the connection.
type registrant struct {
	cancel   context.CancelFunc
	shutdown func()
}

// Registry is the server-wide map of live sessions, written only at
// session create/teardown under one mutex and read by the cancel-request
// and shutdown paths.
type Registry struct {
	mu       sync.Mutex
	sessions map[sessionKey]registrant
}

func newRegistry() *Registry {
	return &Registry{sessions: make(map[sessionKey]registrant)}
}

// Register records a live session's cancel and shutdown hooks under
// (pid, secret).
func (r *Registry) Register(pid, secret int32, cancel context.CancelFunc, shutdown func()) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sessions[sessionKey{pid, secret}] = registrant{cancel: cancel, shutdown: shutdown}
}

// Unregister removes (pid, secret), guarding against a cancel racing
// session teardown: the entry is simply absent from
// that point on, so a concurrent Cancel is a harmless no-op.
func (r *Registry) Unregister(pid, secret int32) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.sessions, sessionKey{pid, secret})
}

// Cancel interrupts the session matching (pid, secret), if still live. It
// reports whether a live session was found.
func (r *Registry) Cancel(pid, secret int32) bool {
	r.mu.Lock()
	reg, ok := r.sessions[sessionKey{pid, secret}]
	r.mu.Unlock()
	if ok {
		reg.cancel()
	}
	return ok
}

// ShutdownAll tells every registered session to send AdminShutdown and
// disconnect.
func (r *Registry) ShutdownAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, reg := range r.sessions {
		reg.shutdown()
	}
}
