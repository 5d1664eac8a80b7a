package repository

import (
	"context"
	"sort"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"handcraft/internal/domain/entity"
	"handcraft/internal/domain/repository"
	apperrors "handcraft/pkg/errors"
)

const chatCollection = "chats"

type firestoreChatRepository struct {
	client *firestore.Client
}

func NewFirestoreChatRepository(client *firestore.Client) repository.ChatRepository {
	return &firestoreChatRepository{client: client}
}

func (r *firestoreChatRepository) Create(ctx context.Context, chat *entity.Chat) error {
	if chat.ID == "" {
		chat.ID = uuid.New().String()
	}
	now := time.Now()
	if chat.CreatedAt.IsZero() {
		chat.CreatedAt = now
	}
	chat.UpdatedAt = now

	_, err := r.client.Collection(chatCollection).Doc(chat.ID).Set(ctx, chat)
	if err != nil {
		return apperrors.Internal("failed to create chat", err)
	}
	return nil
}

func (r *firestoreChatRepository) GetByID(ctx context.Context, id string) (*entity.Chat, error) {
	doc, err := r.client.Collection(chatCollection).Doc(id).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, apperrors.NotFound("Chat", err)
		}
		return nil, apperrors.Internal("failed to get chat", err)
	}

	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, apperrors.Internal("failed to parse chat data", err)
	}
	return &chat, nil
}

func (r *firestoreChatRepository) GetByParticipantsAndProduct(ctx context.Context, buyerID, sellerID, productID string) (*entity.Chat, error) {
	iter := r.client.Collection(chatCollection).
		Where("buyer.id", "==", buyerID).
		Where("seller.id", "==", sellerID).
		Where("product.id", "==", productID).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, apperrors.NotFound("Chat", nil)
	}
	if err != nil {
		return nil, apperrors.Internal("failed to query chat", err)
	}

	var chat entity.Chat
	if err := doc.DataTo(&chat); err != nil {
		return nil, apperrors.Internal("failed to parse chat data", err)
	}
	return &chat, nil
}

func (r *firestoreChatRepository) ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error) {
	// Firestore has no OR filter across fields, so query each role and merge.
	asBuyer, err := r.queryByField(ctx, "buyer.id", userID)
	if err != nil {
		return nil, err
	}
	asSeller, err := r.queryByField(ctx, "seller.id", userID)
	if err != nil {
		return nil, err
	}

	chats := append(asBuyer, asSeller...)
	sort.Slice(chats, func(i, j int) bool {
		return chats[i].UpdatedAt.After(chats[j].UpdatedAt)
	})
	return chats, nil
}

func (r *firestoreChatRepository) queryByField(ctx context.Context, field, value string) ([]*entity.Chat, error) {
	iter := r.client.Collection(chatCollection).Where(field, "==", value).Documents(ctx)
	defer iter.Stop()

	var chats []*entity.Chat
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, apperrors.Internal("failed to list chats", err)
		}

		var chat entity.Chat
		if err := doc.DataTo(&chat); err != nil {
			return nil, apperrors.Internal("failed to parse chat data", err)
		}
		chats = append(chats, &chat)
	}
	return chats, nil
}

func (r *firestoreChatRepository) Update(ctx context.Context, chat *entity.Chat) error {
	_, err := r.client.Collection(chatCollection).Doc(chat.ID).Set(ctx, chat)
	if err != nil {
		return apperrors.Internal("failed to update chat", err)
	}
	return nil
}
