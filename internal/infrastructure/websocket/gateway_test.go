package websocket

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	gws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterrepo "handcraft/internal/adapter/repository"
	"handcraft/internal/domain/entity"
	"handcraft/internal/domain/repository"
	"handcraft/internal/usecase"
	apperrors "handcraft/pkg/errors"
)

type stubVerifier struct {
	tokens map[string]string
}

func (s *stubVerifier) VerifyToken(ctx context.Context, token string) (string, error) {
	if uid, ok := s.tokens[token]; ok {
		return uid, nil
	}
	return "", apperrors.Unauthorized("Invalid or expired token", nil)
}

type gatewayFixture struct {
	srv      *httptest.Server
	gateway  *Gateway
	chatUC   *usecase.ChatUseCase
	chatRepo *adapterrepo.MemoryChatRepository
	chatID   string
}

func newGatewayFixture(t *testing.T) *gatewayFixture {
	t.Helper()
	ctx := context.Background()

	userRepo := adapterrepo.NewMemoryUserRepository()
	productRepo := adapterrepo.NewMemoryProductRepository()
	chatRepo := adapterrepo.NewMemoryChatRepository()

	require.NoError(t, userRepo.Create(ctx, &entity.User{ID: "buyer-1", Email: "ayu@example.com", Name: "Ayu"}))
	require.NoError(t, userRepo.Create(ctx, &entity.User{ID: "seller-1", Email: "bima@example.com", Name: "Bima"}))
	require.NoError(t, productRepo.Create(ctx, &entity.Product{
		ID: "product-1", SellerID: "seller-1", Name: "Rattan basket", Price: 150000,
	}))

	chatUC := usecase.NewChatUseCase(chatRepo, userRepo, productRepo, nil)

	gateway := NewGateway(&stubVerifier{tokens: map[string]string{
		"buyer-token":  "buyer-1",
		"seller-token": "seller-1",
	}})
	gateway.SetChatService(chatUC)
	chatUC.SetNotifier(gateway)

	upgrader := gws.Upgrader{CheckOrigin: func(*http.Request) bool { return true }}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		require.NoError(t, err)
		gateway.HandleConnection(conn)
	}))
	t.Cleanup(srv.Close)

	chat, err := chatUC.StartConversation(ctx, "buyer-1", "product-1", "")
	require.NoError(t, err)

	return &gatewayFixture{
		srv:      srv,
		gateway:  gateway,
		chatUC:   chatUC,
		chatRepo: chatRepo,
		chatID:   chat.ID,
	}
}

func (f *gatewayFixture) dial(t *testing.T) *gws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(f.srv.URL, "http") + "/ws"
	conn, _, err := gws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func sendEvent(t *testing.T, conn *gws.Conn, event string, data interface{}) {
	t.Helper()
	require.NoError(t, conn.WriteJSON(map[string]interface{}{
		"event": event,
		"data":  data,
	}))
}

// recvEvent reads frames until one with the wanted event arrives.
func recvEvent(t *testing.T, conn *gws.Conn, want string) json.RawMessage {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	for {
		var event struct {
			Event string          `json:"event"`
			Data  json.RawMessage `json:"data"`
		}
		require.NoError(t, conn.ReadJSON(&event), "waiting for %q event", want)
		if event.Event == want {
			return event.Data
		}
	}
}

// expectSilence asserts no frame arrives within the window.
func expectSilence(t *testing.T, conn *gws.Conn, window time.Duration) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(window))
	var raw json.RawMessage
	err := conn.ReadJSON(&raw)
	require.Error(t, err, "expected no event, got %s", string(raw))
}

func authenticate(t *testing.T, conn *gws.Conn, token string) string {
	t.Helper()
	sendEvent(t, conn, "authenticate", token)

	var payload AuthenticatedPayload
	require.NoError(t, json.Unmarshal(recvEvent(t, conn, "authenticated"), &payload))
	require.True(t, payload.Success)
	return payload.UserID
}

func TestUnauthenticatedConnectionIsRefused(t *testing.T) {
	f := newGatewayFixture(t)
	conn := f.dial(t)

	sendEvent(t, conn, "joinChat", f.chatID)
	var errPayload ErrorPayload
	require.NoError(t, json.Unmarshal(recvEvent(t, conn, "error"), &errPayload))
	assert.Equal(t, "UNAUTHORIZED", errPayload.Code)

	sendEvent(t, conn, "sendMessage", map[string]string{"chatId": f.chatID, "content": "hi"})
	require.NoError(t, json.Unmarshal(recvEvent(t, conn, "error"), &errPayload))
	assert.Equal(t, "UNAUTHORIZED", errPayload.Code)
}

func TestAuthenticateRejectsBadCredential(t *testing.T) {
	f := newGatewayFixture(t)
	conn := f.dial(t)

	sendEvent(t, conn, "authenticate", "wrong-token")

	var payload AuthenticatedPayload
	require.NoError(t, json.Unmarshal(recvEvent(t, conn, "authenticated"), &payload))
	assert.False(t, payload.Success)
	assert.NotEmpty(t, payload.Error)
}

func TestAuthenticateAnnouncesPresence(t *testing.T) {
	f := newGatewayFixture(t)

	sellerConn := f.dial(t)
	authenticate(t, sellerConn, "seller-token")

	buyerConn := f.dial(t)
	userID := authenticate(t, buyerConn, "buyer-token")
	assert.Equal(t, "buyer-1", userID)

	var online []string
	require.NoError(t, json.Unmarshal(recvEvent(t, buyerConn, "onlineUsers"), &online))
	assert.ElementsMatch(t, []string{"buyer-1", "seller-1"}, online)

	var status UserStatusPayload
	require.NoError(t, json.Unmarshal(recvEvent(t, sellerConn, "userStatus"), &status))
	assert.Equal(t, "buyer-1", status.UserID)
	assert.True(t, status.IsOnline)
}

func TestSendMessageFanout(t *testing.T) {
	f := newGatewayFixture(t)

	buyerConn := f.dial(t)
	sellerConn := f.dial(t)
	authenticate(t, buyerConn, "buyer-token")
	authenticate(t, sellerConn, "seller-token")

	sendEvent(t, buyerConn, "joinChat", f.chatID)
	sendEvent(t, sellerConn, "joinChat", f.chatID)
	sendEvent(t, buyerConn, "sendMessage", map[string]string{"chatId": f.chatID, "content": "hello"})

	var buyerView NewMessagePayload
	require.NoError(t, json.Unmarshal(recvEvent(t, buyerConn, "newMessage"), &buyerView))
	require.Len(t, buyerView.Chat.Messages, 1)
	assert.Equal(t, "hello", buyerView.Chat.Messages[0].Content)
	assert.Equal(t, []string{"buyer-1"}, buyerView.Chat.Messages[0].ReadBy)

	var sellerView NewMessagePayload
	require.NoError(t, json.Unmarshal(recvEvent(t, sellerConn, "newMessage"), &sellerView))
	assert.Equal(t, 1, sellerView.Chat.UnreadCount.Seller)
	assert.Equal(t, 0, sellerView.Chat.UnreadCount.Buyer)

	var notification MessageNotificationPayload
	require.NoError(t, json.Unmarshal(recvEvent(t, sellerConn, "messageNotification"), &notification))
	assert.Equal(t, f.chatID, notification.ChatID)
	assert.Equal(t, "buyer-1", notification.Sender.ID)
	assert.Equal(t, "hello", notification.Message.Content)
	assert.Equal(t, "product-1", notification.Product.ID)
}

func TestHelloMarkReadScenario(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := context.Background()

	buyerConn := f.dial(t)
	sellerConn := f.dial(t)
	authenticate(t, buyerConn, "buyer-token")
	authenticate(t, sellerConn, "seller-token")

	sendEvent(t, buyerConn, "joinChat", f.chatID)
	sendEvent(t, sellerConn, "joinChat", f.chatID)
	sendEvent(t, buyerConn, "sendMessage", map[string]string{"chatId": f.chatID, "content": "hello"})

	var sellerView NewMessagePayload
	require.NoError(t, json.Unmarshal(recvEvent(t, sellerConn, "newMessage"), &sellerView))
	require.Equal(t, 1, sellerView.Chat.UnreadCount.Seller)

	sendEvent(t, sellerConn, "markAsRead", f.chatID)

	var read MessagesReadPayload
	require.NoError(t, json.Unmarshal(recvEvent(t, buyerConn, "messagesRead"), &read))
	assert.Equal(t, f.chatID, read.ChatID)
	assert.Equal(t, "seller-1", read.UserID)

	chat, err := f.chatUC.GetChat(ctx, "buyer-1", f.chatID)
	require.NoError(t, err)
	assert.Equal(t, 0, chat.UnreadCount.Seller)
	assert.ElementsMatch(t, []string{"buyer-1", "seller-1"}, chat.Messages[0].ReadBy)
}

func TestTypingFanoutAndClearOnMessage(t *testing.T) {
	f := newGatewayFixture(t)

	buyerConn := f.dial(t)
	sellerConn := f.dial(t)
	authenticate(t, buyerConn, "buyer-token")
	authenticate(t, sellerConn, "seller-token")

	sendEvent(t, buyerConn, "joinChat", f.chatID)
	sendEvent(t, sellerConn, "joinChat", f.chatID)

	sendEvent(t, buyerConn, "typing", f.chatID)
	var typing TypingPayload
	require.NoError(t, json.Unmarshal(recvEvent(t, sellerConn, "userTyping"), &typing))
	assert.Equal(t, "buyer-1", typing.UserID)

	// A delivered message clears the sender's typing indicator.
	sendEvent(t, buyerConn, "sendMessage", map[string]string{"chatId": f.chatID, "content": "done typing"})
	var stopped TypingPayload
	require.NoError(t, json.Unmarshal(recvEvent(t, sellerConn, "userStoppedTyping"), &stopped))
	assert.Equal(t, "buyer-1", stopped.UserID)
}

func TestTypingRequiresRoomMembership(t *testing.T) {
	f := newGatewayFixture(t)

	conn := f.dial(t)
	authenticate(t, conn, "buyer-token")

	sendEvent(t, conn, "typing", f.chatID)
	var errPayload ErrorPayload
	require.NoError(t, json.Unmarshal(recvEvent(t, conn, "error"), &errPayload))
	assert.Equal(t, "FORBIDDEN", errPayload.Code)
}

func TestJoinChatRejectsNonParticipant(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := context.Background()

	// A third account that is not part of the conversation.
	require.NoError(t, f.chatRepo.Create(ctx, &entity.Chat{
		ID:     "foreign-chat",
		Buyer:  entity.Participant{ID: "someone-else"},
		Seller: entity.Participant{ID: "another"},
	}))

	conn := f.dial(t)
	authenticate(t, conn, "buyer-token")

	sendEvent(t, conn, "joinChat", "foreign-chat")
	var errPayload ErrorPayload
	require.NoError(t, json.Unmarshal(recvEvent(t, conn, "error"), &errPayload))
	assert.Equal(t, "FORBIDDEN", errPayload.Code)
}

type failingUpdateChatRepo struct {
	repository.ChatRepository
}

func (f *failingUpdateChatRepo) Update(ctx context.Context, chat *entity.Chat) error {
	return apperrors.Internal("store unavailable", nil)
}

func TestPersistenceFailureBroadcastsNothing(t *testing.T) {
	f := newGatewayFixture(t)
	ctx := context.Background()

	// Swap in a chat service whose writes always fail.
	userRepo := adapterrepo.NewMemoryUserRepository()
	require.NoError(t, userRepo.Create(ctx, &entity.User{ID: "buyer-1", Name: "Ayu"}))
	require.NoError(t, userRepo.Create(ctx, &entity.User{ID: "seller-1", Name: "Bima"}))
	failingUC := usecase.NewChatUseCase(
		&failingUpdateChatRepo{ChatRepository: f.chatRepo},
		userRepo,
		adapterrepo.NewMemoryProductRepository(),
		nil,
	)
	f.gateway.SetChatService(failingUC)
	failingUC.SetNotifier(f.gateway)

	buyerConn := f.dial(t)
	sellerConn := f.dial(t)
	authenticate(t, buyerConn, "buyer-token")
	authenticate(t, sellerConn, "seller-token")

	sendEvent(t, buyerConn, "joinChat", f.chatID)
	sendEvent(t, sellerConn, "joinChat", f.chatID)

	sendEvent(t, buyerConn, "sendMessage", map[string]string{"chatId": f.chatID, "content": "lost"})

	var errPayload ErrorPayload
	require.NoError(t, json.Unmarshal(recvEvent(t, buyerConn, "error"), &errPayload))
	assert.Equal(t, "INTERNAL_ERROR", errPayload.Code)

	expectSilence(t, sellerConn, 300*time.Millisecond)
}

func TestDisconnectAnnouncesOffline(t *testing.T) {
	f := newGatewayFixture(t)

	buyerConn := f.dial(t)
	sellerConn := f.dial(t)
	authenticate(t, sellerConn, "seller-token")
	authenticate(t, buyerConn, "buyer-token")

	// Seller sees the buyer come online first.
	var status UserStatusPayload
	require.NoError(t, json.Unmarshal(recvEvent(t, sellerConn, "userStatus"), &status))
	require.True(t, status.IsOnline)

	buyerConn.Close()

	require.NoError(t, json.Unmarshal(recvEvent(t, sellerConn, "userStatus"), &status))
	assert.Equal(t, "buyer-1", status.UserID)
	assert.False(t, status.IsOnline)
}

func TestSecondConnectionDoesNotReannounce(t *testing.T) {
	f := newGatewayFixture(t)

	first := f.dial(t)
	authenticate(t, first, "buyer-token")
	second := f.dial(t)
	authenticate(t, second, "buyer-token")

	// Closing one of two connections must not mark the user offline.
	first.Close()
	assert.Never(t, func() bool {
		return !f.gateway.Presence().IsOnline("buyer-1")
	}, 300*time.Millisecond, 50*time.Millisecond)

	second.Close()
	require.Eventually(t, func() bool {
		return !f.gateway.Presence().IsOnline("buyer-1")
	}, 2*time.Second, 50*time.Millisecond)
}
