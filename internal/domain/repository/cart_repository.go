package repository

import (
	"context"

	"handcraft/internal/domain/entity"
)

type CartRepository interface {
	// GetByUserID returns the user's cart, or an empty cart if none exists.
	GetByUserID(ctx context.Context, userID string) (*entity.Cart, error)
	Save(ctx context.Context, cart *entity.Cart) error
}
