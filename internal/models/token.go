package models

import "time"

// EmailVerification is a one-time token proving ownership of an address.
// Multiple outstanding tokens per user are allowed; each expires on its own.
type EmailVerification struct {
	ID         string
	UserID     string
	Token      string
	IsUsed     bool
	VerifiedAt *time.Time
	ExpiresAt  time.Time
	CreatedAt  time.Time
}

// Valid reports whether the token may still be consumed. Expiry is strict:
// a token whose expiry equals now is already invalid.
func (v EmailVerification) Valid(now time.Time) bool {
	return !v.IsUsed && v.ExpiresAt.After(now)
}

// PasswordReset is a one-time token authorizing a password change.
type PasswordReset struct {
	ID        string
	UserID    string
	Token     string
	IsUsed    bool
	UsedAt    *time.Time
	ExpiresAt time.Time
	CreatedAt time.Time
}

func (r PasswordReset) Valid(now time.Time) bool {
	return !r.IsUsed && r.ExpiresAt.After(now)
}
