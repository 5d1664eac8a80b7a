package entity

import "time"

// RoleBuyer and RoleSeller are the two participant roles a conversation has.
const (
	RoleBuyer  = "buyer"
	RoleSeller = "seller"
)

// Participant is the snapshot of a user embedded in a conversation so the
// client can render names and avatars without extra lookups.
type Participant struct {
	ID     string `json:"_id" firestore:"id"`
	Name   string `json:"name" firestore:"name"`
	Email  string `json:"email,omitempty" firestore:"email,omitempty"`
	Avatar string `json:"avatar,omitempty" firestore:"avatar,omitempty"`
}

// ProductSummary is the product snapshot a conversation is about.
type ProductSummary struct {
	ID    string  `json:"_id" firestore:"id"`
	Name  string  `json:"name" firestore:"name"`
	Price float64 `json:"price" firestore:"price"`
	Image string  `json:"image,omitempty" firestore:"image,omitempty"`
}

type Message struct {
	ID        string    `json:"_id" firestore:"id"`
	Sender    string    `json:"sender" firestore:"sender"`
	Content   string    `json:"content" firestore:"content"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
	ReadBy    []string  `json:"readBy" firestore:"readBy"`
}

// ReadByUser reports whether userID appears in the message's read set.
func (m *Message) ReadByUser(userID string) bool {
	for _, id := range m.ReadBy {
		if id == userID {
			return true
		}
	}
	return false
}

// UnreadCount keeps one counter per role. A message never counts against
// its own sender.
type UnreadCount struct {
	Buyer  int `json:"buyer" firestore:"buyer"`
	Seller int `json:"seller" firestore:"seller"`
}

// Chat is a buyer/seller conversation about a single product. Messages are
// embedded so every mutation is a single-document read-modify-write.
type Chat struct {
	ID          string         `json:"_id" firestore:"id"`
	Buyer       Participant    `json:"buyer" firestore:"buyer"`
	Seller      Participant    `json:"seller" firestore:"seller"`
	Product     ProductSummary `json:"product" firestore:"product"`
	Messages    []Message      `json:"messages" firestore:"messages"`
	UnreadCount UnreadCount    `json:"unreadCount" firestore:"unreadCount"`
	CreatedAt   time.Time      `json:"createdAt" firestore:"createdAt"`
	UpdatedAt   time.Time      `json:"updatedAt" firestore:"updatedAt"`
}

func (c *Chat) IsParticipant(userID string) bool {
	return userID == c.Buyer.ID || userID == c.Seller.ID
}

// RoleOf returns RoleBuyer or RoleSeller, or "" for non-participants.
func (c *Chat) RoleOf(userID string) string {
	switch userID {
	case c.Buyer.ID:
		return RoleBuyer
	case c.Seller.ID:
		return RoleSeller
	}
	return ""
}

// OtherParticipant returns the counterpart of userID in the conversation.
func (c *Chat) OtherParticipant(userID string) Participant {
	if userID == c.Buyer.ID {
		return c.Seller
	}
	return c.Buyer
}

// UnreadFor returns the counter for the role userID holds.
func (c *Chat) UnreadFor(userID string) int {
	switch c.RoleOf(userID) {
	case RoleBuyer:
		return c.UnreadCount.Buyer
	case RoleSeller:
		return c.UnreadCount.Seller
	}
	return 0
}

// AppendMessage adds msg and increments the counterpart's unread counter.
// The sender is expected to already be in msg.ReadBy.
func (c *Chat) AppendMessage(msg Message) {
	c.Messages = append(c.Messages, msg)
	switch c.RoleOf(msg.Sender) {
	case RoleBuyer:
		c.UnreadCount.Seller++
	case RoleSeller:
		c.UnreadCount.Buyer++
	}
	c.UpdatedAt = msg.CreatedAt
}

// MarkReadBy adds userID to every message's ReadBy and zeroes that role's
// counter. ReadBy only ever grows. Returns true if anything changed.
func (c *Chat) MarkReadBy(userID string) bool {
	changed := false
	for i := range c.Messages {
		if !c.Messages[i].ReadByUser(userID) {
			c.Messages[i].ReadBy = append(c.Messages[i].ReadBy, userID)
			changed = true
		}
	}
	switch c.RoleOf(userID) {
	case RoleBuyer:
		if c.UnreadCount.Buyer != 0 {
			c.UnreadCount.Buyer = 0
			changed = true
		}
	case RoleSeller:
		if c.UnreadCount.Seller != 0 {
			c.UnreadCount.Seller = 0
			changed = true
		}
	}
	return changed
}
