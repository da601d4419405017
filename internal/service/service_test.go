package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"penthrey/api/internal/config"
	"penthrey/api/internal/ids"
	"penthrey/api/internal/models"
	"penthrey/api/internal/security"
)

type fixture struct {
	users         *memUserStore
	orgs          *memOrgStore
	verifications *memVerificationStore
	resets        *memResetStore
	invites       *memInviteStore
	sessions      *memSessionStore
	revoker       *memRevoker
	notifier      *recordingNotifier
	auth          *AuthService
	orgsvc        *OrgService
	now           time.Time
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	cfg := &config.AppConfig{
		Security: config.SecurityConfig{
			JWTAccessSecret: "test-secret",
			JWTAccessTTL:    15 * time.Minute,
			JWTRefreshTTL:   time.Hour,
			VerificationTTL: 24 * time.Hour,
			ResetTTL:        2 * time.Hour,
			InviteTTL:       7 * 24 * time.Hour,
		},
	}

	f := &fixture{
		users:         newMemUserStore(),
		orgs:          newMemOrgStore(),
		verifications: newMemVerificationStore(),
		resets:        newMemResetStore(),
		invites:       newMemInviteStore(),
		sessions:      &memSessionStore{},
		revoker:       newMemRevoker(),
		notifier:      &recordingNotifier{},
		now:           time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}

	logger := zerolog.Nop()
	f.auth = NewAuthService(f.users, f.orgs, f.verifications, f.resets, f.invites, f.sessions, f.revoker, f.notifier, cfg, logger)
	f.orgsvc = NewOrgService(f.users, f.orgs, f.invites, f.notifier, cfg, logger)

	clock := func() time.Time { return f.now }
	f.auth.now = clock
	f.orgsvc.now = clock

	return f
}

func (f *fixture) seedOrg(t *testing.T, plan models.SubscriptionPlan) models.Organization {
	t.Helper()
	org := models.Organization{
		ID:       ids.New(),
		Name:     "Acme Widgets",
		Slug:     "acme-widgets-" + ids.New(),
		Email:    "ops@acme.test",
		Type:     models.OrgTypeSmallBusiness,
		Plan:     plan,
		IsActive: true,
	}
	if err := f.orgs.Create(context.Background(), org); err != nil {
		t.Fatalf("seed org: %v", err)
	}
	return org
}

func (f *fixture) seedUser(t *testing.T, email string, role models.UserRole, orgID *string, password string, verified bool) models.User {
	t.Helper()
	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	user := models.User{
		ID:             ids.New(),
		Email:          email,
		PasswordHash:   hash,
		FirstName:      "Test",
		LastName:       "User",
		Role:           role,
		OrganizationID: orgID,
		IsActive:       true,
		IsVerified:     verified,
	}
	if err := f.users.Create(context.Background(), user); err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return user
}

func (f *fixture) seedInvite(t *testing.T, orgID string, email string, role models.UserRole, status models.InviteStatus, expiresAt time.Time) models.OrganizationInvite {
	t.Helper()
	invite := models.OrganizationInvite{
		ID:             ids.New(),
		OrganizationID: orgID,
		Email:          email,
		Role:           role,
		InvitedByID:    ids.New(),
		Token:          "invite-" + ids.New(),
		Status:         status,
		ExpiresAt:      expiresAt,
	}
	if err := f.invites.Create(context.Background(), invite); err != nil {
		t.Fatalf("seed invite: %v", err)
	}
	return invite
}
