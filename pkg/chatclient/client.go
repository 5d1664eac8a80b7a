// Package chatclient is the Go counterpart of the messaging gateway: it
// owns the websocket lifecycle, keeps a local conversation cache in sync
// and degrades to REST polling when the socket cannot be held open.
package chatclient

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
)

const (
	defaultReconnectAttempts = 5
	defaultReconnectDelay    = time.Second
	defaultMaxReconnectDelay = 5 * time.Second
	defaultPollInterval      = 3 * time.Second
	defaultTypingIdle        = 2 * time.Second
	handshakeTimeout         = 10 * time.Second
)

// ErrNotConnected is returned when an operation needs a live authenticated
// socket. Messages are never queued locally; callers retry after the
// session recovers.
var ErrNotConnected = errors.New("chatclient: not connected")

type Config struct {
	// BaseURL is the http(s) root of the service, e.g. "http://localhost:8080".
	BaseURL string
	// Token is the bearer credential used for both transports.
	Token string

	HTTPClient *http.Client
	Handlers   Handlers

	ReconnectAttempts int
	ReconnectDelay    time.Duration
	MaxReconnectDelay time.Duration
	PollInterval      time.Duration
	TypingIdle        time.Duration
}

type Client struct {
	cfg        Config
	httpClient *http.Client

	mu     sync.RWMutex
	state  State
	userID string
	cache  map[string]*Chat
	active string

	connMu  sync.Mutex
	conn    *websocket.Conn
	writeMu sync.Mutex

	typingMu    sync.Mutex
	typingTimer *time.Timer
}

func New(cfg Config) (*Client, error) {
	if cfg.BaseURL == "" {
		return nil, errors.New("chatclient: BaseURL is required")
	}
	if cfg.Token == "" {
		return nil, errors.New("chatclient: Token is required")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: 10 * time.Second}
	}
	if cfg.ReconnectAttempts <= 0 {
		cfg.ReconnectAttempts = defaultReconnectAttempts
	}
	if cfg.ReconnectDelay <= 0 {
		cfg.ReconnectDelay = defaultReconnectDelay
	}
	if cfg.MaxReconnectDelay <= 0 {
		cfg.MaxReconnectDelay = defaultMaxReconnectDelay
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.TypingIdle <= 0 {
		cfg.TypingIdle = defaultTypingIdle
	}

	return &Client{
		cfg:        cfg,
		httpClient: cfg.HTTPClient,
		state:      StateDisconnected,
		cache:      make(map[string]*Chat),
	}, nil
}

// Run drives the session until ctx is cancelled: connect with bounded
// backoff, serve the live socket, fall back to polling when the attempts
// are exhausted, and promote back to live as soon as a dial succeeds.
func (c *Client) Run(ctx context.Context) error {
	defer c.setState(StateDisconnected)

	for {
		conn, err := c.establish(ctx)
		if err != nil {
			return err
		}

		c.setConn(conn)
		c.setState(StateAuthenticated)

		// Reconcile whatever was missed while offline, then re-join the
		// open conversation; room membership does not survive reconnects.
		if err := c.Refresh(ctx); err == nil {
			if active := c.ActiveChat(); active != "" {
				c.sendEvent("joinChat", active)
			}
		}

		c.readLoop(ctx, conn)
		c.setConn(nil)

		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

// establish returns an authenticated connection. It tries the configured
// number of attempts with doubling capped delay, then enters degraded
// polling and keeps probing once per poll tick.
func (c *Client) establish(ctx context.Context) (*websocket.Conn, error) {
	delay := c.cfg.ReconnectDelay

	for attempt := 1; attempt <= c.cfg.ReconnectAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}

		c.setState(StateConnecting)
		conn, err := c.dialAndAuth(ctx)
		if err == nil {
			return conn, nil
		}

		if attempt == c.cfg.ReconnectAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
		if delay > c.cfg.MaxReconnectDelay {
			delay = c.cfg.MaxReconnectDelay
		}
	}

	return c.runDegraded(ctx)
}

// runDegraded polls the open conversation over REST on a single ticker and
// retries the socket on every tick. Returning cancels the poller before
// the session goes live again.
func (c *Client) runDegraded(ctx context.Context) (*websocket.Conn, error) {
	c.setState(StateDegraded)

	ticker := time.NewTicker(c.cfg.PollInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-ticker.C:
			c.pollActive(ctx)
			if conn, err := c.dialAndAuth(ctx); err == nil {
				return conn, nil
			}
		}
	}
}

func (c *Client) dialAndAuth(ctx context.Context) (*websocket.Conn, error) {
	wsURL, err := c.websocketURL()
	if err != nil {
		return nil, err
	}

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, _, err := dialer.DialContext(ctx, wsURL, nil)
	if err != nil {
		return nil, err
	}
	c.setState(StateConnected)

	if err := c.authenticate(conn); err != nil {
		conn.Close()
		return nil, err
	}
	return conn, nil
}

// authenticate sends the credential and waits for the authenticated event.
func (c *Client) authenticate(conn *websocket.Conn) error {
	frame, err := json.Marshal(map[string]interface{}{
		"event": "authenticate",
		"data":  c.cfg.Token,
	})
	if err != nil {
		return err
	}

	conn.SetWriteDeadline(time.Now().Add(handshakeTimeout))
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return err
	}

	conn.SetReadDeadline(time.Now().Add(handshakeTimeout))
	defer conn.SetReadDeadline(time.Time{})

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return err
		}

		var event struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		if err := json.Unmarshal(raw, &event); err != nil {
			continue
		}
		if event.Event != "authenticated" {
			continue
		}

		var payload struct {
			Success bool   `json:"success"`
			UserID  string `json:"userId"`
			Error   string `json:"error"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return err
		}
		if !payload.Success {
			return fmt.Errorf("chatclient: authentication rejected: %s", payload.Error)
		}

		c.mu.Lock()
		c.userID = payload.UserID
		c.mu.Unlock()
		return nil
	}
}

func (c *Client) readLoop(ctx context.Context, conn *websocket.Conn) {
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			conn.Close()
		case <-done:
		}
	}()

	for {
		_, raw, err := conn.ReadMessage()
		if err != nil {
			return
		}
		c.handleEvent(raw)
	}
}

func (c *Client) handleEvent(raw []byte) {
	var event struct {
		Event string          `json:"event"`
		Data  json.RawMessage `json:"data"`
	}
	if err := json.Unmarshal(raw, &event); err != nil {
		return
	}

	h := c.cfg.Handlers
	switch event.Event {
	case "newMessage":
		var payload struct {
			Chat *Chat `json:"chat"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil || payload.Chat == nil {
			return
		}
		c.storeChat(payload.Chat)
		if h.OnChat != nil {
			h.OnChat(payload.Chat)
		}
		// Reading the open conversation acknowledges it right away.
		if c.ActiveChat() == payload.Chat.ID && payload.Chat.UnreadFor(c.UserID()) > 0 {
			c.markReadBothChannels(context.Background(), payload.Chat.ID)
		}

	case "messageNotification":
		var payload MessageNotification
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return
		}
		if h.OnNotification != nil {
			h.OnNotification(payload)
		}

	case "messagesRead":
		var payload struct {
			ChatID string `json:"chatId"`
			UserID string `json:"userId"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return
		}
		c.mu.Lock()
		if chat, ok := c.cache[payload.ChatID]; ok {
			c.cache[payload.ChatID] = chat.withRead(payload.UserID)
		}
		c.mu.Unlock()
		if h.OnMessagesRead != nil {
			h.OnMessagesRead(payload.ChatID, payload.UserID)
		}

	case "userTyping", "userStoppedTyping":
		var payload struct {
			ChatID string `json:"chatId"`
			UserID string `json:"userId"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return
		}
		if h.OnTyping != nil {
			h.OnTyping(payload.ChatID, payload.UserID, event.Event == "userTyping")
		}

	case "userStatus":
		var payload struct {
			UserID   string `json:"userId"`
			IsOnline bool   `json:"isOnline"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return
		}
		if h.OnUserStatus != nil {
			h.OnUserStatus(payload.UserID, payload.IsOnline)
		}

	case "onlineUsers":
		var userIDs []string
		if err := json.Unmarshal(event.Data, &userIDs); err != nil {
			return
		}
		if h.OnOnlineUsers != nil {
			h.OnOnlineUsers(userIDs)
		}

	case "error":
		var payload struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.Unmarshal(event.Data, &payload); err != nil {
			return
		}
		if h.OnError != nil {
			h.OnError(payload.Code, payload.Message)
		}
	}
}

// State returns the current session state.
func (c *Client) State() State {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.state
}

// UserID is the authenticated principal, known after the first handshake.
func (c *Client) UserID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.userID
}

// ActiveChat is the conversation currently open in the UI.
func (c *Client) ActiveChat() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.active
}

// Conversation returns the cached document for id, or nil.
func (c *Client) Conversation(id string) *Chat {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.cache[id]
}

// Conversations returns the cached documents newest-first.
func (c *Client) Conversations() []*Chat {
	c.mu.RLock()
	defer c.mu.RUnlock()

	chats := make([]*Chat, 0, len(c.cache))
	for _, chat := range c.cache {
		chats = append(chats, chat)
	}
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})
	return chats
}

// TotalUnread sums this user's unread counters across the cache. The
// server's counters are authoritative; Refresh re-derives the aggregate.
func (c *Client) TotalUnread() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	total := 0
	for _, chat := range c.cache {
		total += chat.UnreadFor(c.userID)
	}
	return total
}

// Select opens a conversation: joins its room when live and acknowledges
// any unread messages over both transports.
func (c *Client) Select(ctx context.Context, chatID string) error {
	c.mu.Lock()
	c.active = chatID
	chat := c.cache[chatID]
	userID := c.userID
	c.mu.Unlock()

	c.sendEvent("joinChat", chatID)

	if chat == nil {
		if err := c.fetchChat(ctx, chatID); err != nil {
			return err
		}
		chat = c.Conversation(chatID)
	}
	if chat != nil && chat.UnreadFor(userID) > 0 {
		c.markReadBothChannels(ctx, chatID)
	}
	return nil
}

// SendMessage requires a live socket. There is no local queue and no
// optimistic append: the message shows up when the gateway echoes it back.
func (c *Client) SendMessage(chatID, content string) error {
	if c.State() != StateAuthenticated {
		return ErrNotConnected
	}
	return c.sendEvent("sendMessage", map[string]string{
		"chatId":  chatID,
		"content": content,
	})
}

// MarkRead acknowledges a conversation over both transports.
func (c *Client) MarkRead(ctx context.Context, chatID string) error {
	return c.markReadBothChannels(ctx, chatID)
}

// Typing signals the counterpart and schedules an automatic stoppedTyping
// after the idle window. Each keystroke resets the window.
func (c *Client) Typing(chatID string) error {
	if err := c.sendEvent("typing", chatID); err != nil {
		return err
	}

	c.typingMu.Lock()
	defer c.typingMu.Unlock()
	if c.typingTimer != nil {
		c.typingTimer.Stop()
	}
	c.typingTimer = time.AfterFunc(c.cfg.TypingIdle, func() {
		c.StopTyping(chatID)
	})
	return nil
}

func (c *Client) StopTyping(chatID string) error {
	c.typingMu.Lock()
	if c.typingTimer != nil {
		c.typingTimer.Stop()
		c.typingTimer = nil
	}
	c.typingMu.Unlock()

	return c.sendEvent("stoppedTyping", chatID)
}

// Refresh replaces the whole cache from the conversation list endpoint.
func (c *Client) Refresh(ctx context.Context) error {
	var body struct {
		Success     bool    `json:"success"`
		Chats       []*Chat `json:"chats"`
		TotalUnread int     `json:"totalUnread"`
	}
	if err := c.get(ctx, "/v1/conversations", &body); err != nil {
		return err
	}

	c.mu.Lock()
	c.cache = make(map[string]*Chat, len(body.Chats))
	for _, chat := range body.Chats {
		c.cache[chat.ID] = chat
	}
	c.mu.Unlock()
	return nil
}

func (c *Client) fetchChat(ctx context.Context, chatID string) error {
	var body struct {
		Success bool  `json:"success"`
		Chat    *Chat `json:"chat"`
	}
	if err := c.get(ctx, "/v1/conversations/"+chatID, &body); err != nil {
		return err
	}
	if body.Chat != nil {
		c.storeChat(body.Chat)
		if c.cfg.Handlers.OnChat != nil {
			c.cfg.Handlers.OnChat(body.Chat)
		}
	}
	return nil
}

// pollActive is the degraded-mode tick: refetch the open conversation and
// reconcile by replacement.
func (c *Client) pollActive(ctx context.Context) {
	chatID := c.ActiveChat()
	if chatID == "" {
		return
	}
	// Errors are swallowed; the next tick tries again.
	c.fetchChat(ctx, chatID)
}

func (c *Client) markReadBothChannels(ctx context.Context, chatID string) error {
	c.sendEvent("markAsRead", chatID)

	var body struct {
		Success bool `json:"success"`
	}
	if err := c.put(ctx, "/v1/conversations/"+chatID+"/read", &body); err != nil {
		return err
	}

	userID := c.UserID()
	c.mu.Lock()
	if chat, ok := c.cache[chatID]; ok {
		c.cache[chatID] = chat.withRead(userID)
	}
	c.mu.Unlock()
	return nil
}

func (c *Client) storeChat(chat *Chat) {
	c.mu.Lock()
	c.cache[chat.ID] = chat
	c.mu.Unlock()
}

func (c *Client) setState(s State) {
	c.mu.Lock()
	changed := c.state != s
	c.state = s
	c.mu.Unlock()

	if changed && c.cfg.Handlers.OnStateChange != nil {
		c.cfg.Handlers.OnStateChange(s)
	}
}

func (c *Client) setConn(conn *websocket.Conn) {
	c.connMu.Lock()
	c.conn = conn
	c.connMu.Unlock()
}

// sendEvent writes one frame on the live socket; a nil socket is reported
// as ErrNotConnected.
func (c *Client) sendEvent(event string, data interface{}) error {
	c.connMu.Lock()
	conn := c.conn
	c.connMu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	frame, err := json.Marshal(map[string]interface{}{
		"event": event,
		"data":  data,
	})
	if err != nil {
		return err
	}

	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	conn.SetWriteDeadline(time.Now().Add(handshakeTimeout))
	return conn.WriteMessage(websocket.TextMessage, frame)
}

func (c *Client) websocketURL() (string, error) {
	u, err := url.Parse(c.cfg.BaseURL)
	if err != nil {
		return "", err
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	}
	u.Path = strings.TrimSuffix(u.Path, "/") + "/ws"
	return u.String(), nil
}

func (c *Client) get(ctx context.Context, path string, out interface{}) error {
	return c.doRequest(ctx, http.MethodGet, path, out)
}

func (c *Client) put(ctx context.Context, path string, out interface{}) error {
	return c.doRequest(ctx, http.MethodPut, path, out)
}

func (c *Client) doRequest(ctx context.Context, method, path string, out interface{}) error {
	req, err := http.NewRequestWithContext(ctx, method, c.cfg.BaseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.Token)
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return fmt.Errorf("chatclient: %s %s: unexpected status %d", method, path, resp.StatusCode)
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
