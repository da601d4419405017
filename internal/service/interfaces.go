package service

import (
	"context"
	"time"

	"penthrey/api/internal/models"
)

// Stores are satisfied by the pgx repositories; tests swap in fakes.

type UserStore interface {
	Create(ctx context.Context, user models.User) error
	FindByEmail(ctx context.Context, email string) (models.User, error)
	GetByID(ctx context.Context, id string) (models.User, error)
	GetByIDInOrganization(ctx context.Context, id string, orgID string) (models.User, error)
	UpdateProfile(ctx context.Context, user models.User) error
	UpdatePassword(ctx context.Context, id string, passwordHash []byte) error
	MarkVerified(ctx context.Context, id string) error
	RecordLogin(ctx context.Context, id string, ip string, at time.Time) error
	SetMembership(ctx context.Context, id string, orgID *string, role models.UserRole) error
	SetRole(ctx context.Context, id string, role models.UserRole) error
	SetAvatarURL(ctx context.Context, id string, url string) error
	ListByOrganization(ctx context.Context, orgID string) ([]models.User, error)
	CountByOrganization(ctx context.Context, orgID string) (int, error)
	CountByOrganizationRole(ctx context.Context, orgID string, role models.UserRole) (int, error)
	ExistsByEmailInOrganization(ctx context.Context, orgID string, email string) (bool, error)
}

type OrganizationStore interface {
	Create(ctx context.Context, org models.Organization) error
	GetByID(ctx context.Context, id string) (models.Organization, error)
	Update(ctx context.Context, org models.Organization) error
	SetLogoURL(ctx context.Context, id string, url string) error
}

type VerificationStore interface {
	Create(ctx context.Context, v models.EmailVerification) error
	FindByToken(ctx context.Context, token string) (models.EmailVerification, error)
	MarkUsed(ctx context.Context, id string, at time.Time) error
}

type ResetStore interface {
	Create(ctx context.Context, reset models.PasswordReset) error
	FindByToken(ctx context.Context, token string) (models.PasswordReset, error)
	MarkUsed(ctx context.Context, id string, at time.Time) error
}

type InviteStore interface {
	Create(ctx context.Context, invite models.OrganizationInvite) error
	GetByID(ctx context.Context, id string) (models.OrganizationInvite, error)
	FindByToken(ctx context.Context, token string) (models.OrganizationInvite, error)
	FindByEmail(ctx context.Context, orgID string, email string) (models.OrganizationInvite, error)
	ListByOrganization(ctx context.Context, orgID string) ([]models.OrganizationInvite, error)
	UpdateStatus(ctx context.Context, id string, status models.InviteStatus, acceptedAt *time.Time) error
	Delete(ctx context.Context, id string) error
}

type SessionStore interface {
	Create(ctx context.Context, session models.LoginSession) error
	ExistsByFingerprint(ctx context.Context, userID string, fingerprint string) (bool, error)
	ListByUser(ctx context.Context, userID string) ([]models.LoginSession, error)
}

// TokenRevoker is the refresh-credential revocation list.
type TokenRevoker interface {
	Revoke(ctx context.Context, jti string, ttl time.Duration) error
	IsRevoked(ctx context.Context, jti string) (bool, error)
}
