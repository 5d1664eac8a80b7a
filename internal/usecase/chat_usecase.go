package usecase

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"handcraft/internal/domain/entity"
	"handcraft/internal/domain/repository"
	"handcraft/internal/infrastructure/ratelimit"
	apperrors "handcraft/pkg/errors"
	"handcraft/pkg/logger"
)

// ChatNotifier receives fan-out calls after a conversation mutation has
// been persisted. Implemented by the websocket gateway.
type ChatNotifier interface {
	NotifyMessage(chat *entity.Chat, msg *entity.Message)
	NotifyRead(chatID, readerID string)
}

// ChatUseCase owns all conversation logic. Mutations of one conversation
// are serialized under a per-conversation mutex so the REST and websocket
// paths never interleave a read-modify-write.
type ChatUseCase struct {
	chatRepo    repository.ChatRepository
	userRepo    repository.UserRepository
	productRepo repository.ProductRepository
	limiter     *ratelimit.RateLimiter

	notifier ChatNotifier
	locks    sync.Map
}

func NewChatUseCase(
	chatRepo repository.ChatRepository,
	userRepo repository.UserRepository,
	productRepo repository.ProductRepository,
	limiter *ratelimit.RateLimiter,
) *ChatUseCase {
	return &ChatUseCase{
		chatRepo:    chatRepo,
		userRepo:    userRepo,
		productRepo: productRepo,
		limiter:     limiter,
	}
}

// SetNotifier attaches the gateway. The gateway and the use case reference
// each other, so one side is wired after construction.
func (uc *ChatUseCase) SetNotifier(n ChatNotifier) {
	uc.notifier = n
}

func (uc *ChatUseCase) lockFor(chatID string) *sync.Mutex {
	lock, _ := uc.locks.LoadOrStore(chatID, &sync.Mutex{})
	return lock.(*sync.Mutex)
}

// StartConversation returns the unique conversation between the caller and
// the product's seller, creating it when it does not exist yet. A non-empty
// content also sends the first message.
func (uc *ChatUseCase) StartConversation(ctx context.Context, userID, productID, content string) (*entity.Chat, error) {
	product, err := uc.productRepo.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if product.SellerID == userID {
		return nil, apperrors.BadRequest("You cannot start a conversation about your own product", nil)
	}

	// Serialize lookup-then-create per (buyer, product) so concurrent
	// starts cannot mint two conversations for the same triple.
	lock := uc.lockFor("start:" + userID + ":" + productID)
	lock.Lock()
	defer lock.Unlock()

	chat, err := uc.chatRepo.GetByParticipantsAndProduct(ctx, userID, product.SellerID, productID)
	if err != nil {
		if !apperrors.Is(err, "NOT_FOUND") {
			return nil, err
		}

		buyer, err := uc.userRepo.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		seller, err := uc.userRepo.GetByID(ctx, product.SellerID)
		if err != nil {
			return nil, err
		}

		chat = &entity.Chat{
			Buyer:    buyer.AsParticipant(),
			Seller:   seller.AsParticipant(),
			Product:  product.AsSummary(),
			Messages: []entity.Message{},
		}
		if err := uc.chatRepo.Create(ctx, chat); err != nil {
			return nil, err
		}
		logger.Info("chat: created conversation %s (buyer=%s seller=%s product=%s)",
			chat.ID, userID, product.SellerID, productID)
	}

	if strings.TrimSpace(content) != "" {
		updated, _, err := uc.SendMessage(ctx, userID, chat.ID, content)
		if err != nil {
			return nil, err
		}
		chat = updated
	}
	return chat, nil
}

// ListConversations returns the caller's conversations newest-first along
// with the sum of their role's unread counters.
func (uc *ChatUseCase) ListConversations(ctx context.Context, userID string) ([]*entity.Chat, int, error) {
	chats, err := uc.chatRepo.ListByUserID(ctx, userID)
	if err != nil {
		return nil, 0, err
	}

	totalUnread := 0
	for _, chat := range chats {
		totalUnread += chat.UnreadFor(userID)
	}
	return chats, totalUnread, nil
}

// GetChat returns the conversation after checking the caller is one of its
// two participants.
func (uc *ChatUseCase) GetChat(ctx context.Context, userID, chatID string) (*entity.Chat, error) {
	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !chat.IsParticipant(userID) {
		return nil, apperrors.Forbidden("You are not part of this conversation", nil)
	}
	return chat, nil
}

// SendMessage appends a message and bumps the counterpart's unread counter.
// The write is persisted before any broadcast; a failed write broadcasts
// nothing.
func (uc *ChatUseCase) SendMessage(ctx context.Context, userID, chatID, content string) (*entity.Chat, *entity.Message, error) {
	content = strings.TrimSpace(content)
	if content == "" {
		return nil, nil, apperrors.BadRequest("Message content cannot be empty", nil)
	}

	if uc.limiter != nil && !uc.limiter.Allow(userID+":sendMessage") {
		return nil, nil, apperrors.TooManyRequests("You are sending messages too quickly", nil)
	}

	lock := uc.lockFor(chatID)
	lock.Lock()
	defer lock.Unlock()

	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return nil, nil, err
	}
	if !chat.IsParticipant(userID) {
		return nil, nil, apperrors.Forbidden("You are not part of this conversation", nil)
	}

	msg := entity.Message{
		ID:        uuid.New().String(),
		Sender:    userID,
		Content:   content,
		CreatedAt: time.Now(),
		ReadBy:    []string{userID},
	}
	chat.AppendMessage(msg)

	if err := uc.chatRepo.Update(ctx, chat); err != nil {
		return nil, nil, err
	}

	if uc.notifier != nil {
		uc.notifier.NotifyMessage(chat, &msg)
	}
	logger.Debug("chat: message %s appended to conversation %s by %s", msg.ID, chatID, userID)
	return chat, &msg, nil
}

// MarkRead adds the caller to every message's readBy and zeroes their
// role's counter. Calling it again is a no-op.
func (uc *ChatUseCase) MarkRead(ctx context.Context, userID, chatID string) error {
	lock := uc.lockFor(chatID)
	lock.Lock()
	defer lock.Unlock()

	chat, err := uc.chatRepo.GetByID(ctx, chatID)
	if err != nil {
		return err
	}
	if !chat.IsParticipant(userID) {
		return apperrors.Forbidden("You are not part of this conversation", nil)
	}

	if !chat.MarkReadBy(userID) {
		return nil
	}
	if err := uc.chatRepo.Update(ctx, chat); err != nil {
		return err
	}

	if uc.notifier != nil {
		uc.notifier.NotifyRead(chatID, userID)
	}
	return nil
}
