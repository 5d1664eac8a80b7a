package chatclient

import "time"

// Wire types mirror the server's conversation contract.

type Participant struct {
	ID     string `json:"_id"`
	Name   string `json:"name"`
	Email  string `json:"email,omitempty"`
	Avatar string `json:"avatar,omitempty"`
}

type ProductSummary struct {
	ID    string  `json:"_id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
	Image string  `json:"image,omitempty"`
}

type Message struct {
	ID        string    `json:"_id"`
	Sender    string    `json:"sender"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"createdAt"`
	ReadBy    []string  `json:"readBy"`
}

type UnreadCount struct {
	Buyer  int `json:"buyer"`
	Seller int `json:"seller"`
}

type Chat struct {
	ID          string         `json:"_id"`
	Buyer       Participant    `json:"buyer"`
	Seller      Participant    `json:"seller"`
	Product     ProductSummary `json:"product"`
	Messages    []Message      `json:"messages"`
	UnreadCount UnreadCount    `json:"unreadCount"`
	CreatedAt   time.Time      `json:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt"`
}

// UnreadFor returns the counter for the role userID holds in the chat.
func (c *Chat) UnreadFor(userID string) int {
	switch userID {
	case c.Buyer.ID:
		return c.UnreadCount.Buyer
	case c.Seller.ID:
		return c.UnreadCount.Seller
	}
	return 0
}

// withRead returns a copy of the chat with userID added to every message's
// readBy and that role's counter zeroed. The cache is reconciled by
// swapping in the copy, never by patching the stored document.
func (c *Chat) withRead(userID string) *Chat {
	cp := *c
	cp.Messages = make([]Message, len(c.Messages))
	for i, m := range c.Messages {
		cp.Messages[i] = m
		cp.Messages[i].ReadBy = append([]string(nil), m.ReadBy...)
		seen := false
		for _, id := range m.ReadBy {
			if id == userID {
				seen = true
				break
			}
		}
		if !seen {
			cp.Messages[i].ReadBy = append(cp.Messages[i].ReadBy, userID)
		}
	}
	switch userID {
	case c.Buyer.ID:
		cp.UnreadCount.Buyer = 0
	case c.Seller.ID:
		cp.UnreadCount.Seller = 0
	}
	return &cp
}

// MessageNotification mirrors the gateway's messageNotification payload.
type MessageNotification struct {
	Sender  Participant    `json:"sender"`
	Message Message        `json:"message"`
	Product ProductSummary `json:"product"`
	ChatID  string         `json:"chatId"`
}

// State is the session's connection state. Exactly one timer runs per
// state: the backoff timer while reconnecting, the poll ticker while
// degraded, none while live.
type State string

const (
	StateDisconnected  State = "disconnected"
	StateConnecting    State = "connecting"
	StateConnected     State = "connected"
	StateAuthenticated State = "authenticated"
	StateDegraded      State = "degraded"
)

// Handlers are optional callbacks fired from the session goroutine.
type Handlers struct {
	OnStateChange  func(State)
	OnChat         func(*Chat)
	OnNotification func(MessageNotification)
	OnMessagesRead func(chatID, userID string)
	OnTyping       func(chatID, userID string, typing bool)
	OnUserStatus   func(userID string, online bool)
	OnOnlineUsers  func(userIDs []string)
	OnError        func(code, message string)
}
