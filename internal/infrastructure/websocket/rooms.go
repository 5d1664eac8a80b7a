package websocket

import "sync"

// RoomRouter maps conversation ids to the connections currently viewing
// them. Membership is ephemeral: it exists only while a connection lives
// and is rebuilt when clients reconnect and re-join.
type RoomRouter struct {
	mu     sync.RWMutex
	rooms  map[string]map[*Client]struct{}
	joined map[*Client]map[string]struct{}
}

func NewRoomRouter() *RoomRouter {
	return &RoomRouter{
		rooms:  make(map[string]map[*Client]struct{}),
		joined: make(map[*Client]map[string]struct{}),
	}
}

func (r *RoomRouter) Join(chatID string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[chatID]
	if !ok {
		room = make(map[*Client]struct{})
		r.rooms[chatID] = room
	}
	room[c] = struct{}{}

	set, ok := r.joined[c]
	if !ok {
		set = make(map[string]struct{})
		r.joined[c] = set
	}
	set[chatID] = struct{}{}
}

func (r *RoomRouter) Leave(chatID string, c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	r.leaveLocked(chatID, c)
}

// LeaveAll removes the connection from every room it joined.
func (r *RoomRouter) LeaveAll(c *Client) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for chatID := range r.joined[c] {
		r.leaveLocked(chatID, c)
	}
	delete(r.joined, c)
}

func (r *RoomRouter) leaveLocked(chatID string, c *Client) {
	room, ok := r.rooms[chatID]
	if !ok {
		return
	}
	delete(room, c)
	if len(room) == 0 {
		delete(r.rooms, chatID)
	}
	if set, ok := r.joined[c]; ok {
		delete(set, chatID)
	}
}

func (r *RoomRouter) Contains(chatID string, c *Client) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	_, ok := r.rooms[chatID][c]
	return ok
}

// Members returns the connections currently in the room.
func (r *RoomRouter) Members(chatID string) []*Client {
	r.mu.RLock()
	defer r.mu.RUnlock()

	members := make([]*Client, 0, len(r.rooms[chatID]))
	for c := range r.rooms[chatID] {
		members = append(members, c)
	}
	return members
}
