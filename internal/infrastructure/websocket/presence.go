package websocket

import "sync"

// PresenceTracker maps user ids to their live connections. A user is
// online while at least one connection is registered; status transitions
// fire only on the first and last connection.
type PresenceTracker struct {
	mu    sync.RWMutex
	conns map[string]map[*Client]struct{}
}

func NewPresenceTracker() *PresenceTracker {
	return &PresenceTracker{conns: make(map[string]map[*Client]struct{})}
}

// Add registers a connection for userID and reports whether the user just
// came online.
func (p *PresenceTracker) Add(userID string, c *Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.conns[userID]
	if !ok {
		set = make(map[*Client]struct{})
		p.conns[userID] = set
	}
	set[c] = struct{}{}
	return len(set) == 1
}

// Remove drops a connection and reports whether the user went offline.
func (p *PresenceTracker) Remove(userID string, c *Client) bool {
	p.mu.Lock()
	defer p.mu.Unlock()

	set, ok := p.conns[userID]
	if !ok {
		return false
	}
	if _, present := set[c]; !present {
		return false
	}
	delete(set, c)
	if len(set) == 0 {
		delete(p.conns, userID)
		return true
	}
	return false
}

func (p *PresenceTracker) IsOnline(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return len(p.conns[userID]) > 0
}

// ClientsOf returns the live connections of userID.
func (p *PresenceTracker) ClientsOf(userID string) []*Client {
	p.mu.RLock()
	defer p.mu.RUnlock()

	clients := make([]*Client, 0, len(p.conns[userID]))
	for c := range p.conns[userID] {
		clients = append(clients, c)
	}
	return clients
}

// Snapshot returns the ids of every online user.
func (p *PresenceTracker) Snapshot() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()

	users := make([]string, 0, len(p.conns))
	for userID := range p.conns {
		users = append(users, userID)
	}
	return users
}

// All returns every registered connection.
func (p *PresenceTracker) All() []*Client {
	p.mu.RLock()
	defer p.mu.RUnlock()

	var clients []*Client
	for _, set := range p.conns {
		for c := range set {
			clients = append(clients, c)
		}
	}
	return clients
}
