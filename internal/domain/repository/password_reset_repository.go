package repository

import (
	"context"

	"handcraft/internal/domain/entity"
)

type PasswordResetRepository interface {
	Save(ctx context.Context, reset *entity.PasswordReset) error
	GetByEmail(ctx context.Context, email string) (*entity.PasswordReset, error)
	Delete(ctx context.Context, email string) error
}
