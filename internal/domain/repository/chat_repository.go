package repository

import (
	"context"

	"handcraft/internal/domain/entity"
)

type ChatRepository interface {
	Create(ctx context.Context, chat *entity.Chat) error
	GetByID(ctx context.Context, id string) (*entity.Chat, error)
	// GetByParticipantsAndProduct looks up the unique conversation for a
	// (buyer, seller, product) triple.
	GetByParticipantsAndProduct(ctx context.Context, buyerID, sellerID, productID string) (*entity.Chat, error)
	ListByUserID(ctx context.Context, userID string) ([]*entity.Chat, error)
	Update(ctx context.Context, chat *entity.Chat) error
}
