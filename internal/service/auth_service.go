package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"penthrey/api/internal/config"
	"penthrey/api/internal/device"
	"penthrey/api/internal/ids"
	"penthrey/api/internal/models"
	"penthrey/api/internal/notify"
	"penthrey/api/internal/repository"
	"penthrey/api/internal/security"
)

// Opaque-token collisions are retryable; the generator entropy makes more
// than one retry vanishingly unlikely.
const tokenMintAttempts = 3

type AuthService struct {
	users         UserStore
	orgs          OrganizationStore
	verifications VerificationStore
	resets        ResetStore
	invites       InviteStore
	sessions      SessionStore
	revoker       TokenRevoker
	notifier      notify.Notifier
	cfg           *config.AppConfig
	log           zerolog.Logger
	now           func() time.Time
}

func NewAuthService(
	users UserStore,
	orgs OrganizationStore,
	verifications VerificationStore,
	resets ResetStore,
	invites InviteStore,
	sessions SessionStore,
	revoker TokenRevoker,
	notifier notify.Notifier,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *AuthService {
	return &AuthService{
		users:         users,
		orgs:          orgs,
		verifications: verifications,
		resets:        resets,
		invites:       invites,
		sessions:      sessions,
		revoker:       revoker,
		notifier:      notifier,
		cfg:           cfg,
		log:           log,
		now:           time.Now,
	}
}

type RegisterInput struct {
	Email            string
	Password         string
	PasswordConfirm  string
	FirstName        string
	LastName         string
	PhoneNumber      string
	OrganizationName string
	InviteToken      string
}

type RegisterResult struct {
	User                 models.User
	Tokens               *security.TokenPair
	VerificationRequired bool
}

// Register creates an account through one of two flows. With an invite token
// the account joins the inviting organization, is verified immediately and
// receives credentials. With an organization name a new organization is
// created, the account becomes its admin and must verify its email before
// the first login succeeds.
func (s *AuthService) Register(ctx context.Context, input RegisterInput) (RegisterResult, error) {
	input.Email = normalizeEmail(input.Email)
	if input.Email == "" || input.Password == "" {
		return RegisterResult{}, fmt.Errorf("%w: email and password required", ErrValidation)
	}
	if input.Password != input.PasswordConfirm {
		return RegisterResult{}, fmt.Errorf("%w: password fields did not match", ErrValidation)
	}

	hasOrgName := input.OrganizationName != ""
	hasInvite := input.InviteToken != ""
	if hasOrgName == hasInvite {
		return RegisterResult{}, fmt.Errorf("%w: provide exactly one of organization_name or invite token", ErrValidation)
	}

	if _, err := s.users.FindByEmail(ctx, input.Email); err == nil {
		return RegisterResult{}, fmt.Errorf("%w: email already registered", ErrValidation)
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return RegisterResult{}, err
	}

	passwordHash, err := security.HashPassword(input.Password)
	if err != nil {
		return RegisterResult{}, err
	}

	user := models.User{
		ID:           ids.New(),
		Email:        input.Email,
		PasswordHash: passwordHash,
		FirstName:    input.FirstName,
		LastName:     input.LastName,
		PhoneNumber:  input.PhoneNumber,
		Role:         models.UserRoleStaff,
		IsActive:     true,
	}

	if hasInvite {
		return s.registerByInvite(ctx, user, input.InviteToken)
	}
	return s.registerNewOrganization(ctx, user, input.OrganizationName)
}

func (s *AuthService) registerByInvite(ctx context.Context, user models.User, token string) (RegisterResult, error) {
	invite, err := s.invites.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrInviteNotFound) {
			return RegisterResult{}, ErrTokenInvalidOrExpired
		}
		return RegisterResult{}, err
	}
	if !invite.Open(s.now()) || invite.Email != user.Email {
		return RegisterResult{}, ErrTokenInvalidOrExpired
	}

	org, err := s.orgs.GetByID(ctx, invite.OrganizationID)
	if err != nil {
		return RegisterResult{}, err
	}
	count, err := s.users.CountByOrganization(ctx, org.ID)
	if err != nil {
		return RegisterResult{}, err
	}
	if !org.CanAddMembers(count) {
		return RegisterResult{}, ErrCapacityExceeded
	}

	user.Role = invite.Role
	user.OrganizationID = &invite.OrganizationID
	user.IsVerified = true

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return RegisterResult{}, fmt.Errorf("%w: email already registered", ErrValidation)
		}
		return RegisterResult{}, err
	}

	acceptedAt := s.now()
	if err := s.invites.UpdateStatus(ctx, invite.ID, models.InviteStatusAccepted, &acceptedAt); err != nil {
		s.log.Error().Err(err).Str("invite_id", invite.ID).Msg("mark invite accepted failed")
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return RegisterResult{}, err
	}
	return RegisterResult{User: user, Tokens: &tokens}, nil
}

func (s *AuthService) registerNewOrganization(ctx context.Context, user models.User, orgName string) (RegisterResult, error) {
	org := models.Organization{
		ID:       ids.New(),
		Name:     orgName,
		Slug:     OrganizationSlug(orgName),
		Email:    user.Email,
		Type:     models.OrgTypeSmallBusiness,
		Plan:     models.PlanFree,
		IsTrial:  true,
		Country:  "Nigeria",
		Currency: "NGN",
		Timezone: "Africa/Lagos",
		IsActive: true,
	}
	if err := s.orgs.Create(ctx, org); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return RegisterResult{}, fmt.Errorf("%w: organization name already taken", ErrValidation)
		}
		return RegisterResult{}, err
	}

	user.Role = models.UserRoleAdmin
	user.OrganizationID = &org.ID

	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return RegisterResult{}, fmt.Errorf("%w: email already registered", ErrValidation)
		}
		return RegisterResult{}, err
	}

	// A failed notification must not roll back the account.
	if v, err := s.mintVerification(ctx, user.ID); err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("create verification token failed")
	} else {
		s.dispatch(ctx, notify.Message{
			Kind:      notify.KindVerification,
			Recipient: user.Email,
			Data: map[string]string{
				"name":  user.FullName(),
				"token": v.Token,
			},
		})
	}

	return RegisterResult{User: user, VerificationRequired: true}, nil
}

type LoginInput struct {
	Email     string
	Password  string
	IPAddress string
	UserAgent string
}

type AuthResult struct {
	User   models.User
	Tokens security.TokenPair
}

// Login authenticates by email and password. Unverified admins are rejected
// until they confirm their email; manager and staff accounts may log in
// unverified. Session tracking is best-effort and never fails the login.
func (s *AuthService) Login(ctx context.Context, input LoginInput) (AuthResult, error) {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(input.Email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidCredentials
		}
		return AuthResult{}, err
	}

	ok, err := security.VerifyPassword(input.Password, user.PasswordHash)
	if err != nil || !ok {
		return AuthResult{}, ErrInvalidCredentials
	}

	if !user.IsActive {
		return AuthResult{}, ErrAccountDisabled
	}
	if user.Role == models.UserRoleAdmin && !user.IsVerified {
		return AuthResult{}, ErrVerificationRequired
	}

	loginAt := s.now()
	if err := s.users.RecordLogin(ctx, user.ID, input.IPAddress, loginAt); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("record login failed")
	}
	user.LastLoginIP = &input.IPAddress
	user.LastLoginAt = &loginAt

	tokens, err := s.issueTokens(user)
	if err != nil {
		return AuthResult{}, err
	}

	s.trackSession(ctx, user, input.IPAddress, input.UserAgent, loginAt)

	return AuthResult{User: user, Tokens: tokens}, nil
}

// trackSession appends a login session and alerts the user on a first-time
// device. Two concurrent logins from the same new device may both record and
// both alert; that race is accepted.
func (s *AuthService) trackSession(ctx context.Context, user models.User, ip string, userAgent string, loginAt time.Time) {
	fingerprint := device.Fingerprint(userAgent, ip)

	seen, err := s.sessions.ExistsByFingerprint(ctx, user.ID, fingerprint)
	if err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("device lookup failed")
		return
	}

	session := models.LoginSession{
		ID:                ids.New(),
		UserID:            user.ID,
		IPAddress:         ip,
		UserAgent:         userAgent,
		DeviceFingerprint: fingerprint,
		Location:          "Unknown",
		BrowserInfo:       device.ClassifyBrowser(userAgent),
		DeviceInfo:        device.ClassifyDevice(userAgent),
		IsNewDevice:       !seen,
		LoginTime:         loginAt,
		IsActive:          true,
	}
	if err := s.sessions.Create(ctx, session); err != nil {
		s.log.Warn().Err(err).Str("user_id", user.ID).Msg("record session failed")
		return
	}

	if session.IsNewDevice {
		s.dispatch(ctx, notify.Message{
			Kind:      notify.KindLoginAlert,
			Recipient: user.Email,
			Data: map[string]string{
				"name":     user.FullName(),
				"time":     loginAt.Format(time.RFC1123),
				"ip":       session.IPAddress,
				"location": session.Location,
				"device":   session.DeviceInfo,
				"browser":  session.BrowserInfo,
			},
		})
	}
}

// Logout revokes a refresh credential so it can no longer mint access tokens.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	claims, err := security.ParseToken(refreshToken, s.cfg.Security.JWTAccessSecret, security.TokenTypeRefresh)
	if err != nil {
		return ErrInvalidToken
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return err
	}
	if revoked {
		return ErrInvalidToken
	}

	return s.revoker.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time))
}

// Refresh rotates a refresh credential: the old one is revoked and a fresh
// pair is issued.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string) (AuthResult, error) {
	claims, err := security.ParseToken(refreshToken, s.cfg.Security.JWTAccessSecret, security.TokenTypeRefresh)
	if err != nil {
		return AuthResult{}, ErrInvalidToken
	}

	revoked, err := s.revoker.IsRevoked(ctx, claims.ID)
	if err != nil {
		return AuthResult{}, err
	}
	if revoked {
		return AuthResult{}, ErrInvalidToken
	}

	user, err := s.users.GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return AuthResult{}, ErrInvalidToken
		}
		return AuthResult{}, err
	}
	if !user.IsActive {
		return AuthResult{}, ErrAccountDisabled
	}

	if err := s.revoker.Revoke(ctx, claims.ID, time.Until(claims.ExpiresAt.Time)); err != nil {
		return AuthResult{}, err
	}

	tokens, err := s.issueTokens(user)
	if err != nil {
		return AuthResult{}, err
	}
	return AuthResult{User: user, Tokens: tokens}, nil
}

// VerifyEmail consumes a verification token. A consumed token never
// revalidates; resubmitting it fails.
func (s *AuthService) VerifyEmail(ctx context.Context, token string) error {
	v, err := s.verifications.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return ErrTokenInvalidOrExpired
		}
		return err
	}
	if !v.Valid(s.now()) {
		return ErrTokenInvalidOrExpired
	}

	if err := s.users.MarkVerified(ctx, v.UserID); err != nil {
		return err
	}
	if err := s.verifications.MarkUsed(ctx, v.ID, s.now()); err != nil {
		return err
	}

	if user, err := s.users.GetByID(ctx, v.UserID); err == nil {
		s.dispatch(ctx, notify.Message{
			Kind:      notify.KindWelcome,
			Recipient: user.Email,
			Data:      map[string]string{"name": user.FullName()},
		})
	}
	return nil
}

// ResendVerification mints a fresh token for an unverified account. Older
// outstanding tokens stay valid until their own expiry. Returns false when
// the account was already verified and nothing was sent.
func (s *AuthService) ResendVerification(ctx context.Context, userID string) (bool, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	if user.IsVerified {
		return false, nil
	}

	v, err := s.mintVerification(ctx, user.ID)
	if err != nil {
		return false, err
	}
	s.dispatch(ctx, notify.Message{
		Kind:      notify.KindVerification,
		Recipient: user.Email,
		Data: map[string]string{
			"name":  user.FullName(),
			"token": v.Token,
		},
	})
	return true, nil
}

// RequestPasswordReset never reveals whether the email exists; unknown
// addresses are silently ignored.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.FindByEmail(ctx, normalizeEmail(email))
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}

	reset, err := s.mintReset(ctx, user.ID)
	if err != nil {
		s.log.Error().Err(err).Str("user_id", user.ID).Msg("create reset token failed")
		return nil
	}
	s.dispatch(ctx, notify.Message{
		Kind:      notify.KindPasswordReset,
		Recipient: user.Email,
		Data: map[string]string{
			"name":  user.FullName(),
			"token": reset.Token,
		},
	})
	return nil
}

func (s *AuthService) ConfirmPasswordReset(ctx context.Context, token string, newPassword string, confirm string) error {
	if newPassword != confirm {
		return ErrPasswordMismatch
	}

	reset, err := s.resets.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrTokenNotFound) {
			return ErrTokenInvalidOrExpired
		}
		return err
	}
	if !reset.Valid(s.now()) {
		return ErrTokenInvalidOrExpired
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	if err := s.users.UpdatePassword(ctx, reset.UserID, passwordHash); err != nil {
		return err
	}
	return s.resets.MarkUsed(ctx, reset.ID, s.now())
}

func (s *AuthService) ChangePassword(ctx context.Context, userID string, current string, newPassword string, confirm string) error {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return err
	}

	ok, err := security.VerifyPassword(current, user.PasswordHash)
	if err != nil || !ok {
		return ErrIncorrectPassword
	}
	if newPassword != confirm {
		return ErrPasswordMismatch
	}

	passwordHash, err := security.HashPassword(newPassword)
	if err != nil {
		return err
	}
	return s.users.UpdatePassword(ctx, userID, passwordHash)
}

type ProfileUpdateInput struct {
	FirstName   string
	LastName    string
	PhoneNumber string
}

func (s *AuthService) UpdateProfile(ctx context.Context, userID string, input ProfileUpdateInput) (models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return models.User{}, err
	}

	user.FirstName = input.FirstName
	user.LastName = input.LastName
	user.PhoneNumber = input.PhoneNumber

	if err := s.users.UpdateProfile(ctx, user); err != nil {
		return models.User{}, err
	}
	return user, nil
}

func (s *AuthService) issueTokens(user models.User) (security.TokenPair, error) {
	return security.GenerateTokenPair(
		s.cfg.Security.JWTAccessSecret,
		user.ID,
		string(user.Role),
		s.cfg.Security.JWTAccessTTL,
		s.cfg.Security.JWTRefreshTTL,
	)
}

func (s *AuthService) mintVerification(ctx context.Context, userID string) (models.EmailVerification, error) {
	for attempt := 0; attempt < tokenMintAttempts; attempt++ {
		token, err := security.GenerateOpaqueToken()
		if err != nil {
			return models.EmailVerification{}, err
		}
		v := models.EmailVerification{
			ID:        ids.New(),
			UserID:    userID,
			Token:     token,
			ExpiresAt: s.now().Add(s.cfg.Security.VerificationTTL),
		}
		err = s.verifications.Create(ctx, v)
		if errors.Is(err, repository.ErrDuplicate) {
			continue
		}
		if err != nil {
			return models.EmailVerification{}, err
		}
		return v, nil
	}
	return models.EmailVerification{}, fmt.Errorf("verification token collisions exhausted retries")
}

func (s *AuthService) mintReset(ctx context.Context, userID string) (models.PasswordReset, error) {
	for attempt := 0; attempt < tokenMintAttempts; attempt++ {
		token, err := security.GenerateOpaqueToken()
		if err != nil {
			return models.PasswordReset{}, err
		}
		reset := models.PasswordReset{
			ID:        ids.New(),
			UserID:    userID,
			Token:     token,
			ExpiresAt: s.now().Add(s.cfg.Security.ResetTTL),
		}
		err = s.resets.Create(ctx, reset)
		if errors.Is(err, repository.ErrDuplicate) {
			continue
		}
		if err != nil {
			return models.PasswordReset{}, err
		}
		return reset, nil
	}
	return models.PasswordReset{}, fmt.Errorf("reset token collisions exhausted retries")
}

func (s *AuthService) dispatch(ctx context.Context, msg notify.Message) {
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.log.Error().Err(err).
			Str("kind", string(msg.Kind)).
			Str("recipient", msg.Recipient).
			Msg("notification dispatch failed")
	}
}

func normalizeEmail(email string) string {
	return strings.TrimSpace(strings.ToLower(email))
}
