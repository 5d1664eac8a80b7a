package usecase

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"handcraft/internal/domain/entity"
	"handcraft/internal/domain/repository"
	"handcraft/internal/infrastructure/firebase"
	apperrors "handcraft/pkg/errors"
	"handcraft/pkg/logger"
)

const resetTokenPurpose = "password_reset"

// AuthProvider is the identity backend: Firebase in production, a stub in
// tests.
type AuthProvider interface {
	VerifyToken(ctx context.Context, idToken string) (string, error)
	CreateUser(ctx context.Context, email, password, displayName string) (string, error)
	SignIn(ctx context.Context, email, password string) (*firebase.SignInResult, error)
	GetUserIDByEmail(ctx context.Context, email string) (string, error)
	UpdatePassword(ctx context.Context, uid, newPassword string) error
}

type AuthUseCase struct {
	authProvider AuthProvider
	userRepo     repository.UserRepository
	resetRepo    repository.PasswordResetRepository

	resetSecret   []byte
	resetTokenTTL time.Duration
	otpTTL        time.Duration
}

func NewAuthUseCase(
	authProvider AuthProvider,
	userRepo repository.UserRepository,
	resetRepo repository.PasswordResetRepository,
	resetSecret string,
	resetTokenTTL, otpTTL time.Duration,
) *AuthUseCase {
	return &AuthUseCase{
		authProvider:  authProvider,
		userRepo:      userRepo,
		resetRepo:     resetRepo,
		resetSecret:   []byte(resetSecret),
		resetTokenTTL: resetTokenTTL,
		otpTTL:        otpTTL,
	}
}

type RegisterInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8"`
	Name     string `json:"name" validate:"required"`
	Phone    string `json:"phone"`
}

func (uc *AuthUseCase) Register(ctx context.Context, input RegisterInput) (*entity.User, error) {
	uid, err := uc.authProvider.CreateUser(ctx, input.Email, input.Password, input.Name)
	if err != nil {
		return nil, err
	}

	user := &entity.User{
		ID:    uid,
		Email: input.Email,
		Name:  input.Name,
		Phone: input.Phone,
	}
	if err := uc.userRepo.Create(ctx, user); err != nil {
		return nil, err
	}

	logger.Info("auth: registered user %s", uid)
	return user, nil
}

type LoginResult struct {
	Token        string       `json:"token"`
	RefreshToken string       `json:"refreshToken"`
	User         *entity.User `json:"user"`
}

func (uc *AuthUseCase) Login(ctx context.Context, email, password string) (*LoginResult, error) {
	signIn, err := uc.authProvider.SignIn(ctx, email, password)
	if err != nil {
		return nil, err
	}

	user, err := uc.userRepo.GetByID(ctx, signIn.LocalID)
	if err != nil {
		return nil, err
	}

	return &LoginResult{
		Token:        signIn.IDToken,
		RefreshToken: signIn.RefreshToken,
		User:         user,
	}, nil
}

func (uc *AuthUseCase) GetProfile(ctx context.Context, userID string) (*entity.User, error) {
	return uc.userRepo.GetByID(ctx, userID)
}

type UpdateProfileInput struct {
	Name    string `json:"name"`
	Phone   string `json:"phone"`
	Address string `json:"address"`
	Avatar  string `json:"avatar"`
}

func (uc *AuthUseCase) UpdateProfile(ctx context.Context, userID string, input UpdateProfileInput) (*entity.User, error) {
	user, err := uc.userRepo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		user.Name = input.Name
	}
	if input.Phone != "" {
		user.Phone = input.Phone
	}
	if input.Address != "" {
		user.Address = input.Address
	}
	if input.Avatar != "" {
		user.Avatar = input.Avatar
	}

	if err := uc.userRepo.Update(ctx, user); err != nil {
		return nil, err
	}
	return user, nil
}

// RequestPasswordReset generates a one-time code for the account. The
// result is the same whether or not the email exists, so the endpoint
// cannot be used to enumerate accounts. Delivery is out of scope; the code
// is logged for development.
func (uc *AuthUseCase) RequestPasswordReset(ctx context.Context, email string) error {
	if _, err := uc.userRepo.GetByEmail(ctx, email); err != nil {
		if apperrors.Is(err, "NOT_FOUND") {
			logger.Info("auth: password reset requested for unknown email")
			return nil
		}
		return err
	}

	otp, err := generateOTP()
	if err != nil {
		return apperrors.Internal("Failed to generate reset code", err)
	}

	now := time.Now()
	reset := &entity.PasswordReset{
		Email:     email,
		OTP:       otp,
		ExpiresAt: now.Add(uc.otpTTL),
		CreatedAt: now,
	}
	if err := uc.resetRepo.Save(ctx, reset); err != nil {
		return err
	}

	logger.Info("auth: password reset OTP for %s: %s", email, otp)
	return nil
}

// VerifyOTP exchanges a valid code for a short-lived signed reset token.
// The code is single-use.
func (uc *AuthUseCase) VerifyOTP(ctx context.Context, email, otp string) (string, error) {
	reset, err := uc.resetRepo.GetByEmail(ctx, email)
	if err != nil {
		if apperrors.Is(err, "NOT_FOUND") {
			return "", apperrors.BadRequest("Invalid or expired code", nil)
		}
		return "", err
	}

	if reset.Expired(time.Now()) || reset.OTP != otp {
		return "", apperrors.BadRequest("Invalid or expired code", nil)
	}

	if err := uc.resetRepo.Delete(ctx, email); err != nil {
		return "", err
	}

	claims := jwt.RegisteredClaims{
		Subject:   email,
		Audience:  jwt.ClaimStrings{resetTokenPurpose},
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(uc.resetTokenTTL)),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(uc.resetSecret)
	if err != nil {
		return "", apperrors.Internal("Failed to sign reset token", err)
	}
	return signed, nil
}

func (uc *AuthUseCase) ResetPassword(ctx context.Context, resetToken, newPassword string) error {
	if len(newPassword) < 8 {
		return apperrors.BadRequest("Password must be at least 8 characters", nil)
	}

	var claims jwt.RegisteredClaims
	token, err := jwt.ParseWithClaims(resetToken, &claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return uc.resetSecret, nil
	})
	if err != nil || !token.Valid || !contains(claims.Audience, resetTokenPurpose) {
		return apperrors.Unauthorized("Invalid or expired reset token", err)
	}

	uid, err := uc.authProvider.GetUserIDByEmail(ctx, claims.Subject)
	if err != nil {
		return err
	}
	if err := uc.authProvider.UpdatePassword(ctx, uid, newPassword); err != nil {
		return err
	}

	logger.Info("auth: password reset completed for user %s", uid)
	return nil
}

func generateOTP() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(1000000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func contains(values []string, target string) bool {
	for _, v := range values {
		if v == target {
			return true
		}
	}
	return false
}
