// Package registry owns the live set of open connections and their
// role/identity metadata. It is the single shared mutable resource of the
// server; every read and write is synchronized internally so that a role
// assignment is immediately visible to the next broadcast snapshot.
package registry

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"

	"github.com/THE3-EDU/web-the3meetup/internal/domain"
	"github.com/THE3-EDU/web-the3meetup/internal/metrics"
)

// Sender is the write half of a connection. Implemented by Writer; tests
// substitute fakes.
type Sender interface {
	// TrySend enqueues data without blocking. Returns ErrSendBufferFull
	// if the client is not draining its buffer.
	TrySend(data []byte) error

	// Send enqueues data, blocking up to the send timeout. Used for
	// point-to-point messages where the caller is the connection's own
	// read loop.
	Send(data []byte) error

	// Ping enqueues a liveness probe frame.
	Ping() error

	// Stop closes the underlying transport and stops the write loop.
	Stop()

	// StopGraceful sends a close frame with reason before closing.
	StopGraceful(reason string)
}

type entry struct {
	id          uuid.UUID
	remoteAddr  string
	role        domain.Role
	connectedAt time.Time
	alive       bool
	sender      Sender
}

// Client is a point-in-time view of a registry entry, handed out by
// snapshot methods. Holding one never blocks the registry.
type Client struct {
	Handle     uuid.UUID
	Role       domain.Role
	RemoteAddr string
	Sender     Sender
}

// ClientInfo is the diagnostic view served by the status endpoint.
type ClientInfo struct {
	Handle      uuid.UUID   `json:"handle"`
	RemoteAddr  string      `json:"remote_addr"`
	ClientName  string      `json:"client_name"`
	ConnectedAt time.Time   `json:"connected_at"`
	Alive       bool        `json:"alive"`
	Role        domain.Role `json:"-"`
}

// Registry is safe for concurrent use by any number of goroutines.
type Registry struct {
	mu      sync.RWMutex
	entries map[uuid.UUID]*entry
	clock   clockwork.Clock
}

func New(clock clockwork.Clock) *Registry {
	return &Registry{
		entries: make(map[uuid.UUID]*entry),
		clock:   clock,
	}
}

// Admit adds a connection as unclassified and returns its handle.
func (r *Registry) Admit(remoteAddr string, sender Sender) uuid.UUID {
	e := &entry{
		id:          uuid.New(),
		remoteAddr:  remoteAddr,
		role:        domain.RoleUnclassified,
		connectedAt: r.clock.Now(),
		alive:       true,
		sender:      sender,
	}

	r.mu.Lock()
	r.entries[e.id] = e
	size := len(r.entries)
	r.mu.Unlock()

	metrics.ConnectionsActive.Set(float64(size))
	metrics.ConnectionsTotal.Inc()
	slog.Debug("Connection admitted", "handle", e.id.String(), "remote_addr", remoteAddr, "total", size)
	return e.id
}

// SetRole classifies a connection exactly once. A second call returns
// domain.ErrAlreadyClassified; a stale handle returns domain.ErrConnectionGone.
func (r *Registry) SetRole(handle uuid.UUID, role domain.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	e, ok := r.entries[handle]
	if !ok {
		return domain.ErrConnectionGone
	}
	if e.role != domain.RoleUnclassified {
		return domain.ErrAlreadyClassified
	}
	e.role = role
	return nil
}

// Role returns the current role of a connection.
func (r *Registry) Role(handle uuid.UUID) (domain.Role, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	e, ok := r.entries[handle]
	if !ok {
		return domain.RoleUnclassified, false
	}
	return e.role, true
}

// MarkAlive records a liveness probe response.
func (r *Registry) MarkAlive(handle uuid.UUID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if e, ok := r.entries[handle]; ok {
		e.alive = true
	}
}

// Remove drops a connection from the registry and stops its writer.
// Removing an absent handle is a no-op.
func (r *Registry) Remove(handle uuid.UUID) {
	r.mu.Lock()
	e, ok := r.entries[handle]
	if ok {
		delete(r.entries, handle)
	}
	size := len(r.entries)
	r.mu.Unlock()

	if !ok {
		return
	}

	e.sender.Stop()
	metrics.ConnectionsActive.Set(float64(size))
	slog.Debug("Connection removed", "handle", handle.String(), "remote_addr", e.remoteAddr, "total", size)
}

// Size returns the current entry count.
func (r *Registry) Size() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// ForEachMatching returns a snapshot of live connections whose role
// satisfies the predicate at call time. The snapshot excludes entries
// admitted after the call and never blocks concurrent admissions or
// removals once taken.
func (r *Registry) ForEachMatching(pred func(domain.Role) bool) []Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []Client
	for _, e := range r.entries {
		if pred(e.role) {
			matched = append(matched, Client{
				Handle:     e.id,
				Role:       e.role,
				RemoteAddr: e.remoteAddr,
				Sender:     e.sender,
			})
		}
	}
	return matched
}

// ProbeCycle implements one tick of the liveness protocol in a single
// locked pass: entries that never responded to the previous probe are
// removed and returned as evicted; all remaining entries have their alive
// flag cleared and are returned for probing. Transport close and ping
// writes happen on the caller's side, outside the lock.
func (r *Registry) ProbeCycle() (evicted, probe []Client) {
	r.mu.Lock()
	for id, e := range r.entries {
		c := Client{Handle: e.id, Role: e.role, RemoteAddr: e.remoteAddr, Sender: e.sender}
		if !e.alive {
			delete(r.entries, id)
			evicted = append(evicted, c)
			continue
		}
		e.alive = false
		probe = append(probe, c)
	}
	size := len(r.entries)
	r.mu.Unlock()

	metrics.ConnectionsActive.Set(float64(size))
	return evicted, probe
}

// Clients returns diagnostic info for every entry.
func (r *Registry) Clients() []ClientInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]ClientInfo, 0, len(r.entries))
	for _, e := range r.entries {
		infos = append(infos, ClientInfo{
			Handle:      e.id,
			RemoteAddr:  e.remoteAddr,
			ClientName:  e.role.String(),
			ConnectedAt: e.connectedAt,
			Alive:       e.alive,
			Role:        e.role,
		})
	}
	return infos
}

// CloseAll gracefully closes every connection. Used during shutdown.
func (r *Registry) CloseAll(reason string) {
	r.mu.Lock()
	senders := make([]Sender, 0, len(r.entries))
	for id, e := range r.entries {
		senders = append(senders, e.sender)
		delete(r.entries, id)
	}
	r.mu.Unlock()

	for _, s := range senders {
		s.StopGraceful(reason)
	}
	metrics.ConnectionsActive.Set(0)
	slog.Info("All connections closed", "count", len(senders))
}
