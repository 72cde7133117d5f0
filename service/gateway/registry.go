package gateway

import (
	"sync"
)

// Registry is the process-wide connection table: conn index, user index,
// and per-conversation room sets. It is owned by the Server, created at
// boot and torn down by Close; nothing else holds connection state.
type Registry struct {
	mu     sync.RWMutex
	byConn map[string]*Client             // conn_id -> client
	byUser map[string]map[string]*Client  // user -> conn_id -> client
	rooms  map[string]map[string]*Client  // chat_id -> conn_id -> client
	joined map[string]map[string]struct{} // conn_id -> chat_id set, for cleanup
}

func NewRegistry() *Registry {
	return &Registry{
		byConn: make(map[string]*Client),
		byUser: make(map[string]map[string]*Client),
		rooms:  make(map[string]map[string]*Client),
		joined: make(map[string]map[string]struct{}),
	}
}

func (r *Registry) Add(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byConn[c.ConnID] = c
	m := r.byUser[c.UserID]
	if m == nil {
		m = make(map[string]*Client)
		r.byUser[c.UserID] = m
	}
	m[c.ConnID] = c
}

// Remove drops the connection from every index and reports whether it was
// the user's last live connection.
func (r *Registry) Remove(c *Client) (lastOfUser bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.byConn, c.ConnID)

	if set := r.joined[c.ConnID]; set != nil {
		for room := range set {
			if m := r.rooms[room]; m != nil {
				delete(m, c.ConnID)
				if len(m) == 0 {
					delete(r.rooms, room)
				}
			}
		}
		delete(r.joined, c.ConnID)
	}

	if m := r.byUser[c.UserID]; m != nil {
		delete(m, c.ConnID)
		if len(m) == 0 {
			delete(r.byUser, c.UserID)
			return true
		}
	}
	return false
}

// Join adds the connection to a conversation room. Membership checks happen
// at the REST layer before a client is ever told to join; the registry
// trusts its caller.
func (r *Registry) Join(room string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, live := r.byConn[c.ConnID]; !live {
		return
	}
	m := r.rooms[room]
	if m == nil {
		m = make(map[string]*Client)
		r.rooms[room] = m
	}
	m[c.ConnID] = c

	set := r.joined[c.ConnID]
	if set == nil {
		set = make(map[string]struct{})
		r.joined[c.ConnID] = set
	}
	set[room] = struct{}{}
}

func (r *Registry) Leave(room string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if m := r.rooms[room]; m != nil {
		delete(m, c.ConnID)
		if len(m) == 0 {
			delete(r.rooms, room)
		}
	}
	if set := r.joined[c.ConnID]; set != nil {
		delete(set, room)
	}
}

// RoomClients snapshots the room's connections, optionally excluding one
// conn id (the emitter, for typing relays).
func (r *Registry) RoomClients(room, excludeConnID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.rooms[room]
	if len(m) == 0 {
		return nil
	}
	out := make([]*Client, 0, len(m))
	for id, c := range m {
		if id == excludeConnID {
			continue
		}
		out = append(out, c)
	}
	return out
}

// AllClients snapshots every live connection (global presence broadcast).
func (r *Registry) AllClients() []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Client, 0, len(r.byConn))
	for _, c := range r.byConn {
		out = append(out, c)
	}
	return out
}

// InRoom reports whether the connection currently has the room joined.
func (r *Registry) InRoom(room, connID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m := r.rooms[room]
	if m == nil {
		return false
	}
	_, ok := m[connID]
	return ok
}

// Close drops all state and closes every connection's send queue.
func (r *Registry) Close() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, c := range r.byConn {
		c.Close()
	}
	r.byConn = make(map[string]*Client)
	r.byUser = make(map[string]map[string]*Client)
	r.rooms = make(map[string]map[string]*Client)
	r.joined = make(map[string]map[string]struct{})
}
