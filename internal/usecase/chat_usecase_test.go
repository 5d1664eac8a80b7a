package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterrepo "handcraft/internal/adapter/repository"
	"handcraft/internal/domain/entity"
	"handcraft/internal/infrastructure/ratelimit"
	apperrors "handcraft/pkg/errors"
)

type recordingNotifier struct {
	mu       sync.Mutex
	messages []entity.Message
	chats    []*entity.Chat
	reads    []string
}

func (r *recordingNotifier) NotifyMessage(chat *entity.Chat, msg *entity.Message) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.chats = append(r.chats, chat)
	r.messages = append(r.messages, *msg)
}

func (r *recordingNotifier) NotifyRead(chatID, readerID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reads = append(r.reads, chatID+":"+readerID)
}

func (r *recordingNotifier) readCount() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.reads)
}

type chatFixture struct {
	uc       *ChatUseCase
	notifier *recordingNotifier
	chatRepo *adapterrepo.MemoryChatRepository
}

func newChatFixture(t *testing.T, limiter *ratelimit.RateLimiter) *chatFixture {
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
	require.NoError(t, productRepo.Create(ctx, &entity.Product{
		ID: "product-2", SellerID: "seller-1", Name: "Batik scarf", Price: 95000,
	}))

	notifier := &recordingNotifier{}
	uc := NewChatUseCase(chatRepo, userRepo, productRepo, limiter)
	uc.SetNotifier(notifier)

	return &chatFixture{uc: uc, notifier: notifier, chatRepo: chatRepo}
}

func TestStartConversationIsUniquePerTriple(t *testing.T) {
	f := newChatFixture(t, nil)
	ctx := context.Background()

	first, err := f.uc.StartConversation(ctx, "buyer-1", "product-1", "")
	require.NoError(t, err)
	second, err := f.uc.StartConversation(ctx, "buyer-1", "product-1", "")
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)

	chats, err := f.chatRepo.ListByUserID(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Len(t, chats, 1)
}

func TestStartConversationConcurrent(t *testing.T) {
	f := newChatFixture(t, nil)
	ctx := context.Background()

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := f.uc.StartConversation(ctx, "buyer-1", "product-1", "")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	chats, err := f.chatRepo.ListByUserID(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Len(t, chats, 1)
}

func TestStartConversationRejectsOwnProduct(t *testing.T) {
	f := newChatFixture(t, nil)

	_, err := f.uc.StartConversation(context.Background(), "seller-1", "product-1", "")
	assert.True(t, apperrors.Is(err, "BAD_REQUEST"))
}

func TestStartConversationSendsFirstMessage(t *testing.T) {
	f := newChatFixture(t, nil)

	chat, err := f.uc.StartConversation(context.Background(), "buyer-1", "product-1", "Is this still available?")
	require.NoError(t, err)

	require.Len(t, chat.Messages, 1)
	assert.Equal(t, "buyer-1", chat.Messages[0].Sender)
	assert.Equal(t, 1, chat.UnreadCount.Seller)
}

func TestConcurrentSendsAllPersist(t *testing.T) {
	f := newChatFixture(t, nil)
	ctx := context.Background()

	chat, err := f.uc.StartConversation(ctx, "buyer-1", "product-1", "")
	require.NoError(t, err)

	const perSide = 10
	var wg sync.WaitGroup
	for i := 0; i < perSide; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_, _, err := f.uc.SendMessage(ctx, "buyer-1", chat.ID, "from buyer")
			assert.NoError(t, err)
		}()
		go func() {
			defer wg.Done()
			_, _, err := f.uc.SendMessage(ctx, "seller-1", chat.ID, "from seller")
			assert.NoError(t, err)
		}()
	}
	wg.Wait()

	stored, err := f.uc.GetChat(ctx, "buyer-1", chat.ID)
	require.NoError(t, err)
	assert.Len(t, stored.Messages, 2*perSide)
	assert.Equal(t, perSide, stored.UnreadCount.Buyer)
	assert.Equal(t, perSide, stored.UnreadCount.Seller)
}

func TestMarkReadIsIdempotent(t *testing.T) {
	f := newChatFixture(t, nil)
	ctx := context.Background()

	chat, err := f.uc.StartConversation(ctx, "buyer-1", "product-1", "hello")
	require.NoError(t, err)

	require.NoError(t, f.uc.MarkRead(ctx, "seller-1", chat.ID))
	require.NoError(t, f.uc.MarkRead(ctx, "seller-1", chat.ID))

	stored, err := f.uc.GetChat(ctx, "seller-1", chat.ID)
	require.NoError(t, err)
	assert.Equal(t, 0, stored.UnreadCount.Seller)
	assert.ElementsMatch(t, []string{"buyer-1", "seller-1"}, stored.Messages[0].ReadBy)

	// The no-op second call fans nothing out.
	assert.Equal(t, 1, f.notifier.readCount())
}

func TestReadByOnlyGrows(t *testing.T) {
	f := newChatFixture(t, nil)
	ctx := context.Background()

	chat, err := f.uc.StartConversation(ctx, "buyer-1", "product-1", "hello")
	require.NoError(t, err)

	require.NoError(t, f.uc.MarkRead(ctx, "seller-1", chat.ID))
	_, _, err = f.uc.SendMessage(ctx, "seller-1", chat.ID, "hi back")
	require.NoError(t, err)
	require.NoError(t, f.uc.MarkRead(ctx, "buyer-1", chat.ID))

	stored, err := f.uc.GetChat(ctx, "buyer-1", chat.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"buyer-1", "seller-1"}, stored.Messages[0].ReadBy)
	assert.ElementsMatch(t, []string{"buyer-1", "seller-1"}, stored.Messages[1].ReadBy)
}

func TestSendMessageValidation(t *testing.T) {
	f := newChatFixture(t, nil)
	ctx := context.Background()

	chat, err := f.uc.StartConversation(ctx, "buyer-1", "product-1", "")
	require.NoError(t, err)

	_, _, err = f.uc.SendMessage(ctx, "buyer-1", chat.ID, "   ")
	assert.True(t, apperrors.Is(err, "BAD_REQUEST"))

	_, _, err = f.uc.SendMessage(ctx, "stranger", chat.ID, "let me in")
	assert.True(t, apperrors.Is(err, "FORBIDDEN"))

	_, _, err = f.uc.SendMessage(ctx, "buyer-1", "no-such-chat", "hello")
	assert.True(t, apperrors.Is(err, "NOT_FOUND"))
}

func TestSendMessageRateLimited(t *testing.T) {
	limiter := ratelimit.NewRateLimiter(2, time.Minute)
	t.Cleanup(limiter.Stop)

	f := newChatFixture(t, limiter)
	ctx := context.Background()

	chat, err := f.uc.StartConversation(ctx, "buyer-1", "product-1", "")
	require.NoError(t, err)

	_, _, err = f.uc.SendMessage(ctx, "buyer-1", chat.ID, "one")
	require.NoError(t, err)
	_, _, err = f.uc.SendMessage(ctx, "buyer-1", chat.ID, "two")
	require.NoError(t, err)
	_, _, err = f.uc.SendMessage(ctx, "buyer-1", chat.ID, "three")
	assert.True(t, apperrors.Is(err, "TOO_MANY_REQUESTS"))
}

func TestNotifierSeesCommittedDocument(t *testing.T) {
	f := newChatFixture(t, nil)
	ctx := context.Background()

	chat, err := f.uc.StartConversation(ctx, "buyer-1", "product-1", "")
	require.NoError(t, err)
	_, msg, err := f.uc.SendMessage(ctx, "buyer-1", chat.ID, "hello")
	require.NoError(t, err)

	f.notifier.mu.Lock()
	defer f.notifier.mu.Unlock()
	require.Len(t, f.notifier.messages, 1)
	assert.Equal(t, msg.ID, f.notifier.messages[0].ID)
	// The broadcast document already contains the committed message.
	require.Len(t, f.notifier.chats, 1)
	assert.Equal(t, "hello", f.notifier.chats[0].Messages[len(f.notifier.chats[0].Messages)-1].Content)
}

func TestListConversationsTotalUnread(t *testing.T) {
	f := newChatFixture(t, nil)
	ctx := context.Background()

	_, err := f.uc.StartConversation(ctx, "buyer-1", "product-1", "hello")
	require.NoError(t, err)
	_, err = f.uc.StartConversation(ctx, "buyer-1", "product-2", "and this one?")
	require.NoError(t, err)

	chats, totalUnread, err := f.uc.ListConversations(ctx, "seller-1")
	require.NoError(t, err)
	assert.Len(t, chats, 2)
	assert.Equal(t, 2, totalUnread)

	_, buyerUnread, err := f.uc.ListConversations(ctx, "buyer-1")
	require.NoError(t, err)
	assert.Equal(t, 0, buyerUnread)
}
