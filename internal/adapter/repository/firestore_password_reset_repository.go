package repository

import (
	"context"

	"cloud.google.com/go/firestore"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"handcraft/internal/domain/entity"
	"handcraft/internal/domain/repository"
	apperrors "handcraft/pkg/errors"
)

const passwordResetCollection = "passwordResets"

type firestorePasswordResetRepository struct {
	client *firestore.Client
}

func NewFirestorePasswordResetRepository(client *firestore.Client) repository.PasswordResetRepository {
	return &firestorePasswordResetRepository{client: client}
}

func (r *firestorePasswordResetRepository) Save(ctx context.Context, reset *entity.PasswordReset) error {
	_, err := r.client.Collection(passwordResetCollection).Doc(reset.Email).Set(ctx, reset)
	if err != nil {
		return apperrors.Internal("failed to save password reset", err)
	}
	return nil
}

func (r *firestorePasswordResetRepository) GetByEmail(ctx context.Context, email string) (*entity.PasswordReset, error) {
	doc, err := r.client.Collection(passwordResetCollection).Doc(email).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, apperrors.NotFound("Password reset", err)
		}
		return nil, apperrors.Internal("failed to get password reset", err)
	}

	var reset entity.PasswordReset
	if err := doc.DataTo(&reset); err != nil {
		return nil, apperrors.Internal("failed to parse password reset data", err)
	}
	return &reset, nil
}

func (r *firestorePasswordResetRepository) Delete(ctx context.Context, email string) error {
	_, err := r.client.Collection(passwordResetCollection).Doc(email).Delete(ctx)
	if err != nil {
		return apperrors.Internal("failed to delete password reset", err)
	}
	return nil
}
