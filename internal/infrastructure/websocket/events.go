package websocket

import (
	"encoding/json"

	"handcraft/internal/domain/entity"
)

// ClientEventType enumerates every event a client may send. The set is
// closed: dispatch switches exhaustively over these constants and anything
// else is rejected.
type ClientEventType string

const (
	EventAuthenticate  ClientEventType = "authenticate"
	EventJoinChat      ClientEventType = "joinChat"
	EventSendMessage   ClientEventType = "sendMessage"
	EventMarkAsRead    ClientEventType = "markAsRead"
	EventTyping        ClientEventType = "typing"
	EventStoppedTyping ClientEventType = "stoppedTyping"
)

// ServerEventType enumerates every event the gateway emits.
type ServerEventType string

const (
	EventAuthenticated       ServerEventType = "authenticated"
	EventNewMessage          ServerEventType = "newMessage"
	EventMessageNotification ServerEventType = "messageNotification"
	EventMessagesRead        ServerEventType = "messagesRead"
	EventUserTyping          ServerEventType = "userTyping"
	EventUserStoppedTyping   ServerEventType = "userStoppedTyping"
	EventOnlineUsers         ServerEventType = "onlineUsers"
	EventUserStatus          ServerEventType = "userStatus"
	EventError               ServerEventType = "error"
)

// ClientEvent is the inbound envelope. Data is decoded per event type:
// authenticate, joinChat, markAsRead, typing and stoppedTyping carry a bare
// JSON string; sendMessage carries SendMessagePayload.
type ClientEvent struct {
	Event ClientEventType `json:"event"`
	Data  json.RawMessage `json:"data"`
}

type ServerEvent struct {
	Event ServerEventType `json:"event"`
	Data  interface{}     `json:"data"`
}

type SendMessagePayload struct {
	ChatID  string `json:"chatId"`
	Content string `json:"content"`
}

type AuthenticatedPayload struct {
	Success bool   `json:"success"`
	UserID  string `json:"userId,omitempty"`
	Error   string `json:"error,omitempty"`
}

// NewMessagePayload carries the full conversation document. Clients
// reconcile by replacing their cached copy, never by patching fields.
type NewMessagePayload struct {
	Chat *entity.Chat `json:"chat"`
}

// MessageNotificationPayload goes to the recipient's connections so unread
// badges update even when the conversation is not open.
type MessageNotificationPayload struct {
	Sender  entity.Participant    `json:"sender"`
	Message entity.Message        `json:"message"`
	Product entity.ProductSummary `json:"product"`
	ChatID  string                `json:"chatId"`
}

type MessagesReadPayload struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

type TypingPayload struct {
	ChatID string `json:"chatId"`
	UserID string `json:"userId"`
}

type UserStatusPayload struct {
	UserID   string `json:"userId"`
	IsOnline bool   `json:"isOnline"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
