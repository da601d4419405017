package service

import "errors"

var (
	// ErrValidation covers malformed or incomplete input.
	ErrValidation = errors.New("validation failed")

	// Login-time failures.
	ErrInvalidCredentials   = errors.New("invalid credentials")
	ErrAccountDisabled      = errors.New("account disabled")
	ErrVerificationRequired = errors.New("email verification required")

	// ErrInvalidToken covers malformed or revoked refresh credentials.
	ErrInvalidToken = errors.New("invalid token")

	// ErrTokenInvalidOrExpired covers every opaque-token-consuming flow:
	// verification, password reset and invites.
	ErrTokenInvalidOrExpired = errors.New("invalid or expired token")

	ErrIncorrectPassword = errors.New("current password is incorrect")
	ErrPasswordMismatch  = errors.New("password confirmation does not match")

	ErrPermission = errors.New("permission denied")
	ErrNotFound   = errors.New("not found")

	// Membership business-rule conflicts.
	ErrCapacityExceeded      = errors.New("member limit reached for subscription plan")
	ErrDuplicateInvite       = errors.New("a pending invite already exists for this email")
	ErrAlreadyMember         = errors.New("user is already a member of this organization")
	ErrAlreadyInOrganization = errors.New("user already belongs to an organization")
	ErrSoleAdmin             = errors.New("cannot leave as the only admin")
	ErrSelfModification      = errors.New("cannot modify your own membership")
)
