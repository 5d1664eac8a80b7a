package firebase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"google.golang.org/api/option"

	apperrors "handcraft/pkg/errors"
)

const signInEndpoint = "https://identitytoolkit.googleapis.com/v1/accounts:signInWithPassword"

// AuthClient wraps the Firebase Admin SDK for token verification and user
// management, plus the Identity Toolkit REST endpoint for password sign-in
// (the Admin SDK has no password check).
type AuthClient struct {
	client     *auth.Client
	apiKey     string
	httpClient *http.Client
}

func NewAuthClient(ctx context.Context, projectID, credentialFile, apiKey string) (*AuthClient, error) {
	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: projectID},
		option.WithCredentialsFile(credentialFile))
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}

	client, err := app.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase auth: %w", err)
	}

	return &AuthClient{
		client:     client,
		apiKey:     apiKey,
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}, nil
}

// VerifyToken validates a Firebase ID token and returns its uid.
func (a *AuthClient) VerifyToken(ctx context.Context, idToken string) (string, error) {
	token, err := a.client.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", apperrors.Unauthorized("Invalid or expired token", err)
	}
	return token.UID, nil
}

func (a *AuthClient) CreateUser(ctx context.Context, email, password, displayName string) (string, error) {
	params := (&auth.UserToCreate{}).
		Email(email).
		Password(password).
		DisplayName(displayName)

	record, err := a.client.CreateUser(ctx, params)
	if err != nil {
		if auth.IsEmailAlreadyExists(err) {
			return "", apperrors.Conflict("Email already registered", err)
		}
		return "", apperrors.Internal("Failed to create user", err)
	}
	return record.UID, nil
}

type SignInResult struct {
	IDToken      string `json:"idToken"`
	RefreshToken string `json:"refreshToken"`
	ExpiresIn    string `json:"expiresIn"`
	LocalID      string `json:"localId"`
}

// SignIn exchanges an email/password pair for a Firebase ID token.
func (a *AuthClient) SignIn(ctx context.Context, email, password string) (*SignInResult, error) {
	body, err := json.Marshal(map[string]interface{}{
		"email":             email,
		"password":          password,
		"returnSecureToken": true,
	})
	if err != nil {
		return nil, apperrors.Internal("Failed to encode sign-in request", err)
	}

	url := fmt.Sprintf("%s?key=%s", signInEndpoint, a.apiKey)
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, apperrors.Internal("Failed to build sign-in request", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.httpClient.Do(req)
	if err != nil {
		return nil, apperrors.Internal("Sign-in request failed", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, apperrors.Unauthorized("Invalid email or password", nil)
	}

	var result SignInResult
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, apperrors.Internal("Failed to decode sign-in response", err)
	}
	return &result, nil
}

func (a *AuthClient) GetUserIDByEmail(ctx context.Context, email string) (string, error) {
	record, err := a.client.GetUserByEmail(ctx, email)
	if err != nil {
		if auth.IsUserNotFound(err) {
			return "", apperrors.NotFound("User", err)
		}
		return "", apperrors.Internal("Failed to look up user", err)
	}
	return record.UID, nil
}

func (a *AuthClient) UpdatePassword(ctx context.Context, uid, newPassword string) error {
	params := (&auth.UserToUpdate{}).Password(newPassword)
	if _, err := a.client.UpdateUser(ctx, uid, params); err != nil {
		return apperrors.Internal("Failed to update password", err)
	}
	return nil
}
