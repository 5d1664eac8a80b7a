package entity

import "time"

// PasswordReset holds a pending OTP challenge for an email address.
type PasswordReset struct {
	Email     string    `json:"email" firestore:"email"`
	OTP       string    `json:"otp" firestore:"otp"`
	ExpiresAt time.Time `json:"expiresAt" firestore:"expiresAt"`
	CreatedAt time.Time `json:"createdAt" firestore:"createdAt"`
}

func (p *PasswordReset) Expired(now time.Time) bool {
	return now.After(p.ExpiresAt)
}
