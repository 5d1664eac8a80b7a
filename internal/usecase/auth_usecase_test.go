package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	adapterrepo "handcraft/internal/adapter/repository"
	"handcraft/internal/domain/entity"
	"handcraft/internal/infrastructure/firebase"
	apperrors "handcraft/pkg/errors"
)

type stubAuthProvider struct {
	uidsByEmail map[string]string
	passwords   map[string]string
}

func newStubAuthProvider() *stubAuthProvider {
	return &stubAuthProvider{
		uidsByEmail: make(map[string]string),
		passwords:   make(map[string]string),
	}
}

func (s *stubAuthProvider) VerifyToken(ctx context.Context, idToken string) (string, error) {
	return "", apperrors.Unauthorized("Invalid or expired token", nil)
}

func (s *stubAuthProvider) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	if _, ok := s.uidsByEmail[email]; ok {
		return "", apperrors.Conflict("Email already registered", nil)
	}
	uid := "uid-" + email
	s.uidsByEmail[email] = uid
	s.passwords[uid] = password
	return uid, nil
}

func (s *stubAuthProvider) SignIn(ctx context.Context, email, password string) (*firebase.SignInResult, error) {
	uid, ok := s.uidsByEmail[email]
	if !ok || s.passwords[uid] != password {
		return nil, apperrors.Unauthorized("Invalid email or password", nil)
	}
	return &firebase.SignInResult{IDToken: "token-" + uid, LocalID: uid}, nil
}

func (s *stubAuthProvider) GetUserIDByEmail(ctx context.Context, email string) (string, error) {
	uid, ok := s.uidsByEmail[email]
	if !ok {
		return "", apperrors.NotFound("User", nil)
	}
	return uid, nil
}

func (s *stubAuthProvider) UpdatePassword(ctx context.Context, uid, newPassword string) error {
	s.passwords[uid] = newPassword
	return nil
}

type authFixture struct {
	uc        *AuthUseCase
	provider  *stubAuthProvider
	userRepo  *adapterrepo.MemoryUserRepository
	resetRepo *adapterrepo.MemoryPasswordResetRepository
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()

	provider := newStubAuthProvider()
	userRepo := adapterrepo.NewMemoryUserRepository()
	resetRepo := adapterrepo.NewMemoryPasswordResetRepository()

	uc := NewAuthUseCase(provider, userRepo, resetRepo,
		"test-secret", 15*time.Minute, 10*time.Minute)

	return &authFixture{uc: uc, provider: provider, userRepo: userRepo, resetRepo: resetRepo}
}

func TestRegisterCreatesProfile(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.uc.Register(ctx, RegisterInput{
		Email:    "ayu@example.com",
		Password: "password123",
		Name:     "Ayu",
	})
	require.NoError(t, err)
	assert.Equal(t, "uid-ayu@example.com", user.ID)

	stored, err := f.userRepo.GetByEmail(ctx, "ayu@example.com")
	require.NoError(t, err)
	assert.Equal(t, "Ayu", stored.Name)
}

func TestLoginReturnsTokenAndProfile(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.uc.Register(ctx, RegisterInput{
		Email: "ayu@example.com", Password: "password123", Name: "Ayu",
	})
	require.NoError(t, err)

	result, err := f.uc.Login(ctx, "ayu@example.com", "password123")
	require.NoError(t, err)
	assert.NotEmpty(t, result.Token)
	assert.Equal(t, "Ayu", result.User.Name)

	_, err = f.uc.Login(ctx, "ayu@example.com", "wrong")
	assert.True(t, apperrors.Is(err, "UNAUTHORIZED"))
}

func TestPasswordResetFlow(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	_, err := f.uc.Register(ctx, RegisterInput{
		Email: "ayu@example.com", Password: "password123", Name: "Ayu",
	})
	require.NoError(t, err)

	require.NoError(t, f.uc.RequestPasswordReset(ctx, "ayu@example.com"))

	reset, err := f.resetRepo.GetByEmail(ctx, "ayu@example.com")
	require.NoError(t, err)
	require.Len(t, reset.OTP, 6)

	wrongOTP := "000000"
	if reset.OTP == wrongOTP {
		wrongOTP = "000001"
	}
	_, err = f.uc.VerifyOTP(ctx, "ayu@example.com", wrongOTP)
	assert.True(t, apperrors.Is(err, "BAD_REQUEST"))

	resetToken, err := f.uc.VerifyOTP(ctx, "ayu@example.com", reset.OTP)
	require.NoError(t, err)
	require.NotEmpty(t, resetToken)

	// The code is single-use.
	_, err = f.uc.VerifyOTP(ctx, "ayu@example.com", reset.OTP)
	assert.True(t, apperrors.Is(err, "BAD_REQUEST"))

	require.NoError(t, f.uc.ResetPassword(ctx, resetToken, "newpassword1"))
	assert.Equal(t, "newpassword1", f.provider.passwords["uid-ayu@example.com"])
}

func TestResetPasswordRejectsBadToken(t *testing.T) {
	f := newAuthFixture(t)

	err := f.uc.ResetPassword(context.Background(), "not-a-token", "newpassword1")
	assert.True(t, apperrors.Is(err, "UNAUTHORIZED"))
}

func TestVerifyOTPExpired(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.resetRepo.Save(ctx, &entity.PasswordReset{
		Email:     "ayu@example.com",
		OTP:       "123456",
		ExpiresAt: time.Now().Add(-time.Minute),
	}))

	_, err := f.uc.VerifyOTP(ctx, "ayu@example.com", "123456")
	assert.True(t, apperrors.Is(err, "BAD_REQUEST"))
}

func TestRequestResetForUnknownEmailIsSilent(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	require.NoError(t, f.uc.RequestPasswordReset(ctx, "ghost@example.com"))

	_, err := f.resetRepo.GetByEmail(ctx, "ghost@example.com")
	assert.True(t, apperrors.Is(err, "NOT_FOUND"))
}
