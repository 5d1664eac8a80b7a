package websocket

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"handcraft/internal/domain/entity"
	apperrors "handcraft/pkg/errors"
	"handcraft/pkg/logger"
)

const (
	// authWindow bounds how long a connection may stay unauthenticated
	// before it is dropped.
	authWindow     = 30 * time.Second
	serviceTimeout = 10 * time.Second
)

// TokenVerifier validates a credential and returns the user id it belongs
// to. Implemented by the Firebase auth client.
type TokenVerifier interface {
	VerifyToken(ctx context.Context, token string) (string, error)
}

// ChatService is the conversation logic the gateway dispatches into. All
// mutations are serialized per conversation inside the service, which
// persists first and then calls back into the gateway for fan-out.
type ChatService interface {
	GetChat(ctx context.Context, userID, chatID string) (*entity.Chat, error)
	SendMessage(ctx context.Context, userID, chatID, content string) (*entity.Chat, *entity.Message, error)
	MarkRead(ctx context.Context, userID, chatID string) error
}

// Gateway owns every live websocket connection: presence, room membership,
// typing state and event dispatch. It holds no conversation data itself;
// registries are rebuilt from scratch when the process restarts.
type Gateway struct {
	verifier TokenVerifier
	service  ChatService
	presence *PresenceTracker
	rooms    *RoomRouter

	mu      sync.Mutex
	clients map[*Client]struct{}
	typing  map[string]string
}

func NewGateway(verifier TokenVerifier) *Gateway {
	return &Gateway{
		verifier: verifier,
		presence: NewPresenceTracker(),
		rooms:    NewRoomRouter(),
		clients:  make(map[*Client]struct{}),
		typing:   make(map[string]string),
	}
}

// SetChatService wires the conversation service. Set once at startup; the
// service and the gateway reference each other, so one side is attached
// after construction.
func (g *Gateway) SetChatService(s ChatService) {
	g.service = s
}

// Presence exposes the tracker for read-only use (online checks).
func (g *Gateway) Presence() *PresenceTracker {
	return g.presence
}

// HandleConnection takes ownership of an upgraded connection and runs its
// pumps. The connection must authenticate within authWindow or it is
// closed.
func (g *Gateway) HandleConnection(conn *websocket.Conn) {
	client := newClient(g, conn)

	g.mu.Lock()
	g.clients[client] = struct{}{}
	g.mu.Unlock()

	client.setAuthTimer(time.AfterFunc(authWindow, func() {
		if client.UserID() == "" {
			logger.Info("ws: closing unauthenticated connection after %s", authWindow)
			conn.Close()
		}
	}))

	go client.writePump()
	go client.readPump()
}

func (g *Gateway) unregister(c *Client) {
	g.mu.Lock()
	if _, ok := g.clients[c]; !ok {
		g.mu.Unlock()
		return
	}
	delete(g.clients, c)
	g.mu.Unlock()

	g.rooms.LeaveAll(c)

	userID := c.UserID()
	if userID != "" {
		g.clearTypingBy(userID)
		if g.presence.Remove(userID, c) {
			g.broadcastAll(EventUserStatus, UserStatusPayload{UserID: userID, IsOnline: false}, c)
		}
	}

	if c.markClosed() {
		close(c.send)
	}
}

// dispatch routes one inbound frame. Every event except authenticate
// requires the connection to be authenticated already.
func (g *Gateway) dispatch(c *Client, raw []byte) {
	var event ClientEvent
	if err := json.Unmarshal(raw, &event); err != nil {
		c.sendError("BAD_REQUEST", "Malformed event")
		return
	}

	if c.UserID() == "" && event.Event != EventAuthenticate {
		c.sendError("UNAUTHORIZED", "Authenticate first")
		return
	}

	switch event.Event {
	case EventAuthenticate:
		g.handleAuthenticate(c, event.Data)
	case EventJoinChat:
		g.handleJoinChat(c, event.Data)
	case EventSendMessage:
		g.handleSendMessage(c, event.Data)
	case EventMarkAsRead:
		g.handleMarkAsRead(c, event.Data)
	case EventTyping:
		g.handleTyping(c, event.Data, true)
	case EventStoppedTyping:
		g.handleTyping(c, event.Data, false)
	default:
		c.sendError("BAD_REQUEST", "Unknown event type")
	}
}

func (g *Gateway) handleAuthenticate(c *Client, data json.RawMessage) {
	var token string
	if err := json.Unmarshal(data, &token); err != nil || token == "" {
		c.sendEvent(EventAuthenticated, AuthenticatedPayload{Success: false, Error: "Missing credential"})
		return
	}

	if c.UserID() != "" {
		c.sendEvent(EventAuthenticated, AuthenticatedPayload{Success: true, UserID: c.UserID()})
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
	defer cancel()

	userID, err := g.verifier.VerifyToken(ctx, token)
	if err != nil {
		logger.Warn("ws: authentication failed: %v", err)
		c.sendEvent(EventAuthenticated, AuthenticatedPayload{Success: false, Error: "Invalid credential"})
		return
	}

	c.setUserID(userID)
	cameOnline := g.presence.Add(userID, c)

	c.sendEvent(EventAuthenticated, AuthenticatedPayload{Success: true, UserID: userID})
	c.sendEvent(EventOnlineUsers, g.presence.Snapshot())

	if cameOnline {
		g.broadcastAll(EventUserStatus, UserStatusPayload{UserID: userID, IsOnline: true}, c)
	}
	logger.Info("ws: user %s authenticated", userID)
}

func (g *Gateway) handleJoinChat(c *Client, data json.RawMessage) {
	var chatID string
	if err := json.Unmarshal(data, &chatID); err != nil || chatID == "" {
		c.sendError("BAD_REQUEST", "joinChat requires a conversation id")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
	defer cancel()

	// Membership check doubles as existence check.
	if _, err := g.service.GetChat(ctx, c.UserID(), chatID); err != nil {
		g.sendAppError(c, err)
		return
	}

	g.rooms.Join(chatID, c)
}

func (g *Gateway) handleSendMessage(c *Client, data json.RawMessage) {
	var payload SendMessagePayload
	if err := json.Unmarshal(data, &payload); err != nil {
		c.sendError("BAD_REQUEST", "Malformed sendMessage payload")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
	defer cancel()

	// Persistence and fan-out happen inside the service, in that order.
	// Nothing is broadcast when persistence fails.
	if _, _, err := g.service.SendMessage(ctx, c.UserID(), payload.ChatID, payload.Content); err != nil {
		g.sendAppError(c, err)
	}
}

func (g *Gateway) handleMarkAsRead(c *Client, data json.RawMessage) {
	var chatID string
	if err := json.Unmarshal(data, &chatID); err != nil || chatID == "" {
		c.sendError("BAD_REQUEST", "markAsRead requires a conversation id")
		return
	}

	ctx, cancel := context.WithTimeout(context.Background(), serviceTimeout)
	defer cancel()

	if err := g.service.MarkRead(ctx, c.UserID(), chatID); err != nil {
		g.sendAppError(c, err)
	}
}

func (g *Gateway) handleTyping(c *Client, data json.RawMessage, typing bool) {
	var chatID string
	if err := json.Unmarshal(data, &chatID); err != nil || chatID == "" {
		c.sendError("BAD_REQUEST", "typing requires a conversation id")
		return
	}

	if !g.rooms.Contains(chatID, c) {
		c.sendError("FORBIDDEN", "Join the conversation first")
		return
	}

	userID := c.UserID()
	g.mu.Lock()
	if typing {
		g.typing[chatID] = userID
	} else if g.typing[chatID] == userID {
		delete(g.typing, chatID)
	}
	g.mu.Unlock()

	event := EventUserTyping
	if !typing {
		event = EventUserStoppedTyping
	}
	g.broadcastRoom(chatID, event, TypingPayload{ChatID: chatID, UserID: userID}, c)
}

// NotifyMessage fans a committed message out: the full document to the
// conversation room, a notification to the recipient's connections, and a
// stoppedTyping for the sender's now-stale typing indicator.
func (g *Gateway) NotifyMessage(chat *entity.Chat, msg *entity.Message) {
	g.broadcastRoom(chat.ID, EventNewMessage, NewMessagePayload{Chat: chat}, nil)

	recipient := chat.OtherParticipant(msg.Sender)
	sender := chat.OtherParticipant(recipient.ID)
	notification := MessageNotificationPayload{
		Sender:  sender,
		Message: *msg,
		Product: chat.Product,
		ChatID:  chat.ID,
	}
	for _, client := range g.presence.ClientsOf(recipient.ID) {
		client.sendEvent(EventMessageNotification, notification)
	}

	g.mu.Lock()
	typingUser, wasTyping := g.typing[chat.ID]
	if wasTyping && typingUser == msg.Sender {
		delete(g.typing, chat.ID)
	} else {
		wasTyping = false
	}
	g.mu.Unlock()

	if wasTyping {
		g.broadcastRoom(chat.ID, EventUserStoppedTyping,
			TypingPayload{ChatID: chat.ID, UserID: typingUser}, nil)
	}
}

// NotifyRead tells other room members that readerID caught up.
func (g *Gateway) NotifyRead(chatID, readerID string) {
	payload := MessagesReadPayload{ChatID: chatID, UserID: readerID}
	for _, member := range g.rooms.Members(chatID) {
		if member.UserID() == readerID {
			continue
		}
		member.sendEvent(EventMessagesRead, payload)
	}
}

func (g *Gateway) broadcastRoom(chatID string, event ServerEventType, data interface{}, except *Client) {
	raw, err := json.Marshal(ServerEvent{Event: event, Data: data})
	if err != nil {
		logger.Error("ws: marshal %s event: %v", event, err)
		return
	}
	for _, member := range g.rooms.Members(chatID) {
		if member == except {
			continue
		}
		member.queue(raw)
	}
}

func (g *Gateway) broadcastAll(event ServerEventType, data interface{}, except *Client) {
	raw, err := json.Marshal(ServerEvent{Event: event, Data: data})
	if err != nil {
		logger.Error("ws: marshal %s event: %v", event, err)
		return
	}
	for _, client := range g.presence.All() {
		if client == except {
			continue
		}
		client.queue(raw)
	}
}

// clearTypingBy drops any typing indicator owned by userID.
func (g *Gateway) clearTypingBy(userID string) {
	g.mu.Lock()
	var cleared []string
	for chatID, typist := range g.typing {
		if typist == userID {
			delete(g.typing, chatID)
			cleared = append(cleared, chatID)
		}
	}
	g.mu.Unlock()

	for _, chatID := range cleared {
		g.broadcastRoom(chatID, EventUserStoppedTyping,
			TypingPayload{ChatID: chatID, UserID: userID}, nil)
	}
}

func (g *Gateway) sendAppError(c *Client, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		c.sendError(appErr.Code, appErr.Message)
		return
	}
	c.sendError("INTERNAL_ERROR", "Something went wrong")
}
