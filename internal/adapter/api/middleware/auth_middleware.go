package middleware

import (
	"context"
	"strings"

	"github.com/labstack/echo/v4"

	apperrors "handcraft/pkg/errors"
	"handcraft/pkg/response"
)

// ContextKeyUserID is where Authenticate stores the caller's user id.
const ContextKeyUserID = "uid"

type TokenVerifier interface {
	VerifyToken(ctx context.Context, idToken string) (string, error)
}

type AuthMiddleware struct {
	verifier TokenVerifier
}

func NewAuthMiddleware(verifier TokenVerifier) *AuthMiddleware {
	return &AuthMiddleware{verifier: verifier}
}

// Authenticate requires a valid bearer token and exposes its uid to the
// handler chain.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		header := c.Request().Header.Get("Authorization")
		if header == "" || !strings.HasPrefix(header, "Bearer ") {
			return response.Error(c, apperrors.Unauthorized("Missing or malformed authorization header", nil))
		}

		token := strings.TrimPrefix(header, "Bearer ")
		userID, err := m.verifier.VerifyToken(c.Request().Context(), token)
		if err != nil {
			return response.Error(c, err)
		}

		c.Set(ContextKeyUserID, userID)
		return next(c)
	}
}

// UserID reads the authenticated user id set by Authenticate.
func UserID(c echo.Context) string {
	if id, ok := c.Get(ContextKeyUserID).(string); ok {
		return id
	}
	return ""
}
