package service

import (
	"context"
	"sync"
	"time"

	"penthrey/api/internal/models"
	"penthrey/api/internal/notify"
	"penthrey/api/internal/repository"
)

type memUserStore struct {
	mu    sync.Mutex
	users map[string]models.User
}

func newMemUserStore() *memUserStore {
	return &memUserStore{users: make(map[string]models.User)}
}

func (s *memUserStore) Create(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == user.Email {
			return repository.ErrDuplicate
		}
	}
	user.CreatedAt = time.Now()
	s.users[user.ID] = user
	return nil
}

func (s *memUserStore) FindByEmail(_ context.Context, email string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return models.User{}, repository.ErrUserNotFound
}

func (s *memUserStore) GetByID(_ context.Context, id string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return models.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (s *memUserStore) GetByIDInOrganization(_ context.Context, id string, orgID string) (models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok || u.OrganizationID == nil || *u.OrganizationID != orgID {
		return models.User{}, repository.ErrUserNotFound
	}
	return u, nil
}

func (s *memUserStore) UpdateProfile(_ context.Context, user models.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[user.ID]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.FirstName = user.FirstName
	u.LastName = user.LastName
	u.PhoneNumber = user.PhoneNumber
	s.users[user.ID] = u
	return nil
}

func (s *memUserStore) UpdatePassword(_ context.Context, id string, passwordHash []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	s.users[id] = u
	return nil
}

func (s *memUserStore) MarkVerified(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.IsVerified = true
	s.users[id] = u
	return nil
}

func (s *memUserStore) RecordLogin(_ context.Context, id string, ip string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.LastLoginIP = &ip
	u.LastLoginAt = &at
	s.users[id] = u
	return nil
}

func (s *memUserStore) SetMembership(_ context.Context, id string, orgID *string, role models.UserRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.OrganizationID = orgID
	u.Role = role
	s.users[id] = u
	return nil
}

func (s *memUserStore) SetRole(_ context.Context, id string, role models.UserRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Role = role
	s.users[id] = u
	return nil
}

func (s *memUserStore) SetAvatarURL(_ context.Context, id string, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[id]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.AvatarURL = &url
	s.users[id] = u
	return nil
}

func (s *memUserStore) ListByOrganization(_ context.Context, orgID string) ([]models.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.User
	for _, u := range s.users {
		if u.OrganizationID != nil && *u.OrganizationID == orgID {
			out = append(out, u)
		}
	}
	return out, nil
}

func (s *memUserStore) CountByOrganization(ctx context.Context, orgID string) (int, error) {
	users, _ := s.ListByOrganization(ctx, orgID)
	return len(users), nil
}

func (s *memUserStore) CountByOrganizationRole(ctx context.Context, orgID string, role models.UserRole) (int, error) {
	users, _ := s.ListByOrganization(ctx, orgID)
	count := 0
	for _, u := range users {
		if u.Role == role {
			count++
		}
	}
	return count, nil
}

func (s *memUserStore) ExistsByEmailInOrganization(ctx context.Context, orgID string, email string) (bool, error) {
	users, _ := s.ListByOrganization(ctx, orgID)
	for _, u := range users {
		if u.Email == email {
			return true, nil
		}
	}
	return false, nil
}

type memOrgStore struct {
	mu   sync.Mutex
	orgs map[string]models.Organization
}

func newMemOrgStore() *memOrgStore {
	return &memOrgStore{orgs: make(map[string]models.Organization)}
}

func (s *memOrgStore) Create(_ context.Context, org models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, o := range s.orgs {
		if o.Slug == org.Slug {
			return repository.ErrDuplicate
		}
	}
	s.orgs[org.ID] = org
	return nil
}

func (s *memOrgStore) GetByID(_ context.Context, id string) (models.Organization, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orgs[id]
	if !ok {
		return models.Organization{}, repository.ErrOrganizationNotFound
	}
	return o, nil
}

func (s *memOrgStore) Update(_ context.Context, org models.Organization) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.orgs[org.ID]; !ok {
		return repository.ErrOrganizationNotFound
	}
	s.orgs[org.ID] = org
	return nil
}

func (s *memOrgStore) SetLogoURL(_ context.Context, id string, url string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	o, ok := s.orgs[id]
	if !ok {
		return repository.ErrOrganizationNotFound
	}
	o.LogoURL = &url
	s.orgs[id] = o
	return nil
}

type memVerificationStore struct {
	mu     sync.Mutex
	tokens map[string]models.EmailVerification
}

func newMemVerificationStore() *memVerificationStore {
	return &memVerificationStore{tokens: make(map[string]models.EmailVerification)}
}

func (s *memVerificationStore) Create(_ context.Context, v models.EmailVerification) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.Token == v.Token {
			return repository.ErrDuplicate
		}
	}
	s.tokens[v.ID] = v
	return nil
}

func (s *memVerificationStore) FindByToken(_ context.Context, token string) (models.EmailVerification, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.Token == token {
			return t, nil
		}
	}
	return models.EmailVerification{}, repository.ErrTokenNotFound
}

func (s *memVerificationStore) MarkUsed(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[id]
	if !ok || t.IsUsed {
		return repository.ErrTokenNotFound
	}
	t.IsUsed = true
	t.VerifiedAt = &at
	s.tokens[id] = t
	return nil
}

type memResetStore struct {
	mu     sync.Mutex
	tokens map[string]models.PasswordReset
}

func newMemResetStore() *memResetStore {
	return &memResetStore{tokens: make(map[string]models.PasswordReset)}
}

func (s *memResetStore) Create(_ context.Context, reset models.PasswordReset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.Token == reset.Token {
			return repository.ErrDuplicate
		}
	}
	s.tokens[reset.ID] = reset
	return nil
}

func (s *memResetStore) FindByToken(_ context.Context, token string) (models.PasswordReset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tokens {
		if t.Token == token {
			return t, nil
		}
	}
	return models.PasswordReset{}, repository.ErrTokenNotFound
}

func (s *memResetStore) MarkUsed(_ context.Context, id string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	t, ok := s.tokens[id]
	if !ok || t.IsUsed {
		return repository.ErrTokenNotFound
	}
	t.IsUsed = true
	t.UsedAt = &at
	s.tokens[id] = t
	return nil
}

type memInviteStore struct {
	mu      sync.Mutex
	invites map[string]models.OrganizationInvite
}

func newMemInviteStore() *memInviteStore {
	return &memInviteStore{invites: make(map[string]models.OrganizationInvite)}
}

func (s *memInviteStore) Create(_ context.Context, invite models.OrganizationInvite) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range s.invites {
		if i.Token == invite.Token {
			return repository.ErrDuplicate
		}
		if i.OrganizationID == invite.OrganizationID && i.Email == invite.Email {
			return repository.ErrDuplicate
		}
	}
	s.invites[invite.ID] = invite
	return nil
}

func (s *memInviteStore) GetByID(_ context.Context, id string) (models.OrganizationInvite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.invites[id]
	if !ok {
		return models.OrganizationInvite{}, repository.ErrInviteNotFound
	}
	return i, nil
}

func (s *memInviteStore) FindByToken(_ context.Context, token string) (models.OrganizationInvite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range s.invites {
		if i.Token == token {
			return i, nil
		}
	}
	return models.OrganizationInvite{}, repository.ErrInviteNotFound
}

func (s *memInviteStore) FindByEmail(_ context.Context, orgID string, email string) (models.OrganizationInvite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, i := range s.invites {
		if i.OrganizationID == orgID && i.Email == email {
			return i, nil
		}
	}
	return models.OrganizationInvite{}, repository.ErrInviteNotFound
}

func (s *memInviteStore) ListByOrganization(_ context.Context, orgID string) ([]models.OrganizationInvite, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.OrganizationInvite
	for _, i := range s.invites {
		if i.OrganizationID == orgID {
			out = append(out, i)
		}
	}
	return out, nil
}

func (s *memInviteStore) UpdateStatus(_ context.Context, id string, status models.InviteStatus, acceptedAt *time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	i, ok := s.invites[id]
	if !ok {
		return repository.ErrInviteNotFound
	}
	i.Status = status
	i.AcceptedAt = acceptedAt
	s.invites[id] = i
	return nil
}

func (s *memInviteStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.invites[id]; !ok {
		return repository.ErrInviteNotFound
	}
	delete(s.invites, id)
	return nil
}

type memSessionStore struct {
	mu       sync.Mutex
	sessions []models.LoginSession
}

func (s *memSessionStore) Create(_ context.Context, session models.LoginSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions = append(s.sessions, session)
	return nil
}

func (s *memSessionStore) ExistsByFingerprint(_ context.Context, userID string, fingerprint string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, sess := range s.sessions {
		if sess.UserID == userID && sess.DeviceFingerprint == fingerprint {
			return true, nil
		}
	}
	return false, nil
}

func (s *memSessionStore) ListByUser(_ context.Context, userID string) ([]models.LoginSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []models.LoginSession
	for _, sess := range s.sessions {
		if sess.UserID == userID {
			out = append(out, sess)
		}
	}
	return out, nil
}

type memRevoker struct {
	mu      sync.Mutex
	revoked map[string]bool
}

func newMemRevoker() *memRevoker {
	return &memRevoker{revoked: make(map[string]bool)}
}

func (r *memRevoker) Revoke(_ context.Context, jti string, _ time.Duration) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.revoked[jti] = true
	return nil
}

func (r *memRevoker) IsRevoked(_ context.Context, jti string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.revoked[jti], nil
}

// recordingNotifier captures dispatched messages for assertions.
type recordingNotifier struct {
	mu       sync.Mutex
	messages []notify.Message
}

func (n *recordingNotifier) Notify(_ context.Context, msg notify.Message) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.messages = append(n.messages, msg)
	return nil
}

func (n *recordingNotifier) byKind(kind notify.Kind) []notify.Message {
	n.mu.Lock()
	defer n.mu.Unlock()
	var out []notify.Message
	for _, msg := range n.messages {
		if msg.Kind == kind {
			out = append(out, msg)
		}
	}
	return out
}
