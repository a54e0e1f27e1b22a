package mcpmgr

import (
	"sort"
	"sync"
	"time"
)

// connection is one live, registered server.
type connection struct {
	name      string
	client    Client
	transport Transport
	timeout   time.Duration
	started   time.Time
}

// registry maps server names to live connections. The lock guards the map
// only; callers perform I/O on a connection after releasing it.
type registry struct {
	mu    sync.RWMutex
	conns map[string]*connection
}

func newRegistry() *registry {
	return &registry{conns: make(map[string]*connection)}
}

// put installs conn and returns the connection it replaced, if any.
func (r *registry) put(conn *connection) *connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	prev := r.conns[conn.name]
	r.conns[conn.name] = conn
	return prev
}

func (r *registry) remove(name string) *connection {
	r.mu.Lock()
	defer r.mu.Unlock()
	conn, ok := r.conns[name]
	if !ok {
		return nil
	}
	delete(r.conns, name)
	return conn
}

func (r *registry) get(name string) (*connection, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	conn, ok := r.conns[name]
	return conn, ok
}

func (r *registry) has(name string) bool {
	_, ok := r.get(name)
	return ok
}

// names returns a sorted snapshot of registered server names.
func (r *registry) names() []string {
	r.mu.RLock()
	names := make([]string, 0, len(r.conns))
	for name := range r.conns {
		names = append(names, name)
	}
	r.mu.RUnlock()
	sort.Strings(names)
	return names
}

// drain empties the registry and hands back everything that was in it.
func (r *registry) drain() []*connection {
	r.mu.Lock()
	conns := make([]*connection, 0, len(r.conns))
	for _, conn := range r.conns {
		conns = append(conns, conn)
	}
	r.conns = make(map[string]*connection)
	r.mu.Unlock()
	sort.Slice(conns, func(i, j int) bool { return conns[i].name < conns[j].name })
	return conns
}
