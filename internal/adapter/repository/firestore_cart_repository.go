package repository

import (
	"context"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"handcraft/internal/domain/entity"
	"handcraft/internal/domain/repository"
	apperrors "handcraft/pkg/errors"
)

const cartCollection = "carts"

type firestoreCartRepository struct {
	client *firestore.Client
}

func NewFirestoreCartRepository(client *firestore.Client) repository.CartRepository {
	return &firestoreCartRepository{client: client}
}

func (r *firestoreCartRepository) GetByUserID(ctx context.Context, userID string) (*entity.Cart, error) {
	doc, err := r.client.Collection(cartCollection).Doc(userID).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return &entity.Cart{UserID: userID, Items: []entity.CartItem{}}, nil
		}
		return nil, apperrors.Internal("failed to get cart", err)
	}

	var cart entity.Cart
	if err := doc.DataTo(&cart); err != nil {
		return nil, apperrors.Internal("failed to parse cart data", err)
	}
	return &cart, nil
}

func (r *firestoreCartRepository) Save(ctx context.Context, cart *entity.Cart) error {
	cart.UpdatedAt = time.Now()

	_, err := r.client.Collection(cartCollection).Doc(cart.UserID).Set(ctx, cart)
	if err != nil {
		return apperrors.Internal("failed to save cart", err)
	}
	return nil
}
