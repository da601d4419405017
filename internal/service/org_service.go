package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gosimple/slug"
	"github.com/rs/zerolog"

	"penthrey/api/internal/config"
	"penthrey/api/internal/ids"
	"penthrey/api/internal/models"
	"penthrey/api/internal/notify"
	"penthrey/api/internal/repository"
	"penthrey/api/internal/security"
)

// OrganizationSlug derives the unique URL identifier from the display name.
// The derivation is deterministic; a collision means the name is taken.
func OrganizationSlug(name string) string {
	return slug.Make(name)
}

type OrgService struct {
	users    UserStore
	orgs     OrganizationStore
	invites  InviteStore
	notifier notify.Notifier
	cfg      *config.AppConfig
	log      zerolog.Logger
	now      func() time.Time
}

func NewOrgService(
	users UserStore,
	orgs OrganizationStore,
	invites InviteStore,
	notifier notify.Notifier,
	cfg *config.AppConfig,
	log zerolog.Logger,
) *OrgService {
	return &OrgService{
		users:    users,
		orgs:     orgs,
		invites:  invites,
		notifier: notifier,
		cfg:      cfg,
		log:      log,
		now:      time.Now,
	}
}

func (s *OrgService) Get(ctx context.Context, orgID string) (models.Organization, error) {
	org, err := s.orgs.GetByID(ctx, orgID)
	if err != nil {
		if errors.Is(err, repository.ErrOrganizationNotFound) {
			return models.Organization{}, ErrNotFound
		}
		return models.Organization{}, err
	}
	return org, nil
}

type OrganizationInput struct {
	Name         string
	Description  string
	Email        string
	PhoneNumber  string
	Website      string
	AddressLine1 string
	AddressLine2 string
	City         string
	State        string
	PostalCode   string
	Country      string
	Type         string
	Industry     string
	Currency     string
	Timezone     string
}

// Create builds a new organization and makes the caller its admin. The caller
// must not already belong to one.
func (s *OrgService) Create(ctx context.Context, caller models.User, input OrganizationInput) (models.Organization, error) {
	if caller.InOrganization() {
		return models.Organization{}, ErrAlreadyInOrganization
	}
	if input.Name == "" {
		return models.Organization{}, fmt.Errorf("%w: organization name required", ErrValidation)
	}

	org := models.Organization{
		ID:           ids.New(),
		Name:         input.Name,
		Slug:         OrganizationSlug(input.Name),
		Description:  input.Description,
		Email:        input.Email,
		PhoneNumber:  input.PhoneNumber,
		Website:      input.Website,
		AddressLine1: input.AddressLine1,
		AddressLine2: input.AddressLine2,
		City:         input.City,
		State:        input.State,
		PostalCode:   input.PostalCode,
		Country:      input.Country,
		Type:         models.OrganizationType(input.Type),
		Industry:     input.Industry,
		Plan:         models.PlanFree,
		IsTrial:      true,
		Currency:     input.Currency,
		Timezone:     input.Timezone,
		IsActive:     true,
	}
	if org.Email == "" {
		org.Email = caller.Email
	}
	if org.Type == "" {
		org.Type = models.OrgTypeSmallBusiness
	}

	if err := s.orgs.Create(ctx, org); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.Organization{}, fmt.Errorf("%w: organization name already taken", ErrValidation)
		}
		return models.Organization{}, err
	}

	if err := s.users.SetMembership(ctx, caller.ID, &org.ID, models.UserRoleAdmin); err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

func (s *OrgService) Update(ctx context.Context, caller models.User, input OrganizationInput) (models.Organization, error) {
	if !caller.Role.CanManageUsers() {
		return models.Organization{}, ErrPermission
	}
	org, err := s.Get(ctx, *caller.OrganizationID)
	if err != nil {
		return models.Organization{}, err
	}

	org.Name = input.Name
	org.Slug = OrganizationSlug(input.Name)
	org.Description = input.Description
	org.Email = input.Email
	org.PhoneNumber = input.PhoneNumber
	org.Website = input.Website
	org.AddressLine1 = input.AddressLine1
	org.AddressLine2 = input.AddressLine2
	org.City = input.City
	org.State = input.State
	org.PostalCode = input.PostalCode
	org.Country = input.Country
	org.Industry = input.Industry
	if input.Type != "" {
		org.Type = models.OrganizationType(input.Type)
	}
	if input.Currency != "" {
		org.Currency = input.Currency
	}
	if input.Timezone != "" {
		org.Timezone = input.Timezone
	}

	if err := s.orgs.Update(ctx, org); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.Organization{}, fmt.Errorf("%w: organization name already taken", ErrValidation)
		}
		return models.Organization{}, err
	}
	return org, nil
}

type OrgStats struct {
	TotalMembers   int
	AdminMembers   int
	ManagerMembers int
	StaffMembers   int
	Plan           models.SubscriptionPlan
	MemberLimit    int
	CanAddMembers  bool
}

func (s *OrgService) Stats(ctx context.Context, orgID string) (OrgStats, error) {
	org, err := s.Get(ctx, orgID)
	if err != nil {
		return OrgStats{}, err
	}

	total, err := s.users.CountByOrganization(ctx, orgID)
	if err != nil {
		return OrgStats{}, err
	}
	admins, err := s.users.CountByOrganizationRole(ctx, orgID, models.UserRoleAdmin)
	if err != nil {
		return OrgStats{}, err
	}
	managers, err := s.users.CountByOrganizationRole(ctx, orgID, models.UserRoleManager)
	if err != nil {
		return OrgStats{}, err
	}
	staff, err := s.users.CountByOrganizationRole(ctx, orgID, models.UserRoleStaff)
	if err != nil {
		return OrgStats{}, err
	}

	return OrgStats{
		TotalMembers:   total,
		AdminMembers:   admins,
		ManagerMembers: managers,
		StaffMembers:   staff,
		Plan:           org.Plan,
		MemberLimit:    org.Plan.MemberLimit(),
		CanAddMembers:  org.CanAddMembers(total),
	}, nil
}

// SendInvite mints a pending invite for an outside email. The subscription
// tier cap, existing membership and an already-pending invite all block it.
func (s *OrgService) SendInvite(ctx context.Context, caller models.User, email string, role models.UserRole) (models.OrganizationInvite, error) {
	if !caller.Role.CanManageUsers() {
		return models.OrganizationInvite{}, ErrPermission
	}
	email = normalizeEmail(email)
	if email == "" {
		return models.OrganizationInvite{}, fmt.Errorf("%w: email required", ErrValidation)
	}

	orgID := *caller.OrganizationID
	org, err := s.Get(ctx, orgID)
	if err != nil {
		return models.OrganizationInvite{}, err
	}

	count, err := s.users.CountByOrganization(ctx, orgID)
	if err != nil {
		return models.OrganizationInvite{}, err
	}
	if !org.CanAddMembers(count) {
		return models.OrganizationInvite{}, ErrCapacityExceeded
	}

	member, err := s.users.ExistsByEmailInOrganization(ctx, orgID, email)
	if err != nil {
		return models.OrganizationInvite{}, err
	}
	if member {
		return models.OrganizationInvite{}, ErrAlreadyMember
	}

	// The (organization, email) row is unique across status history, so a
	// finished invite has to make way for a fresh one.
	prior, err := s.invites.FindByEmail(ctx, orgID, email)
	switch {
	case err == nil:
		if prior.Open(s.now()) {
			return models.OrganizationInvite{}, ErrDuplicateInvite
		}
		if err := s.invites.Delete(ctx, prior.ID); err != nil {
			return models.OrganizationInvite{}, err
		}
	case !errors.Is(err, repository.ErrInviteNotFound):
		return models.OrganizationInvite{}, err
	}

	invite, err := s.mintInvite(ctx, org, caller, email, role)
	if err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return models.OrganizationInvite{}, ErrDuplicateInvite
		}
		return models.OrganizationInvite{}, err
	}

	s.dispatch(ctx, notify.Message{
		Kind:      notify.KindInvite,
		Recipient: email,
		Data: map[string]string{
			"organization": org.Name,
			"role":         string(role),
			"token":        invite.Token,
		},
	})
	return invite, nil
}

func (s *OrgService) mintInvite(ctx context.Context, org models.Organization, caller models.User, email string, role models.UserRole) (models.OrganizationInvite, error) {
	for attempt := 0; attempt < tokenMintAttempts; attempt++ {
		token, err := security.GenerateOpaqueToken()
		if err != nil {
			return models.OrganizationInvite{}, err
		}
		invite := models.OrganizationInvite{
			ID:             ids.New(),
			OrganizationID: org.ID,
			Email:          email,
			Role:           role,
			InvitedByID:    caller.ID,
			Token:          token,
			Status:         models.InviteStatusPending,
			ExpiresAt:      s.now().Add(s.cfg.Security.InviteTTL),
		}
		err = s.invites.Create(ctx, invite)
		if err == nil {
			return invite, nil
		}
		if errors.Is(err, repository.ErrDuplicate) {
			// Either a token collision (retry) or a concurrent invite for
			// the same email (surfaces again and stops the loop).
			continue
		}
		return models.OrganizationInvite{}, err
	}
	return models.OrganizationInvite{}, repository.ErrDuplicate
}

func (s *OrgService) ListInvites(ctx context.Context, orgID string) ([]models.OrganizationInvite, error) {
	return s.invites.ListByOrganization(ctx, orgID)
}

// CancelInvite marks a pending invite expired. Any admin or manager of the
// owning organization may cancel, not just the original sender.
func (s *OrgService) CancelInvite(ctx context.Context, caller models.User, inviteID string) error {
	if !caller.Role.CanManageUsers() {
		return ErrPermission
	}

	invite, err := s.invites.GetByID(ctx, inviteID)
	if err != nil {
		if errors.Is(err, repository.ErrInviteNotFound) {
			return ErrNotFound
		}
		return err
	}
	if invite.OrganizationID != *caller.OrganizationID || invite.Status != models.InviteStatusPending {
		return ErrNotFound
	}

	return s.invites.UpdateStatus(ctx, invite.ID, models.InviteStatusExpired, nil)
}

// AcceptInvite joins the caller to the inviting organization. The caller must
// be authenticated as the invited email and must not belong to one already.
func (s *OrgService) AcceptInvite(ctx context.Context, caller models.User, token string) (models.Organization, error) {
	invite, err := s.invites.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrInviteNotFound) {
			return models.Organization{}, ErrTokenInvalidOrExpired
		}
		return models.Organization{}, err
	}
	if !invite.Open(s.now()) || invite.Email != normalizeEmail(caller.Email) {
		return models.Organization{}, ErrTokenInvalidOrExpired
	}
	if caller.InOrganization() {
		return models.Organization{}, ErrAlreadyInOrganization
	}

	org, err := s.Get(ctx, invite.OrganizationID)
	if err != nil {
		return models.Organization{}, err
	}
	count, err := s.users.CountByOrganization(ctx, org.ID)
	if err != nil {
		return models.Organization{}, err
	}
	if !org.CanAddMembers(count) {
		return models.Organization{}, ErrCapacityExceeded
	}

	if err := s.users.SetMembership(ctx, caller.ID, &invite.OrganizationID, invite.Role); err != nil {
		return models.Organization{}, err
	}

	acceptedAt := s.now()
	if err := s.invites.UpdateStatus(ctx, invite.ID, models.InviteStatusAccepted, &acceptedAt); err != nil {
		return models.Organization{}, err
	}
	return org, nil
}

// DeclineInvite requires no authentication as the invitee; possession of the
// token is enough.
func (s *OrgService) DeclineInvite(ctx context.Context, token string) error {
	invite, err := s.invites.FindByToken(ctx, token)
	if err != nil {
		if errors.Is(err, repository.ErrInviteNotFound) {
			return ErrTokenInvalidOrExpired
		}
		return err
	}
	if !invite.Open(s.now()) {
		return ErrTokenInvalidOrExpired
	}
	return s.invites.UpdateStatus(ctx, invite.ID, models.InviteStatusDeclined, nil)
}

func (s *OrgService) ListMembers(ctx context.Context, orgID string) ([]models.User, error) {
	return s.users.ListByOrganization(ctx, orgID)
}

func (s *OrgService) GetMember(ctx context.Context, orgID string, memberID string) (models.User, error) {
	member, err := s.users.GetByIDInOrganization(ctx, memberID, orgID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return models.User{}, ErrNotFound
		}
		return models.User{}, err
	}
	return member, nil
}

// UpdateMemberRole enforces the member-management policy: nobody edits their
// own role, and only an admin may modify another admin.
func (s *OrgService) UpdateMemberRole(ctx context.Context, caller models.User, memberID string, role models.UserRole) (models.User, error) {
	if !caller.Role.CanManageUsers() {
		return models.User{}, ErrPermission
	}

	member, err := s.GetMember(ctx, *caller.OrganizationID, memberID)
	if err != nil {
		return models.User{}, err
	}
	if member.ID == caller.ID {
		return models.User{}, ErrSelfModification
	}
	if member.Role == models.UserRoleAdmin && caller.Role != models.UserRoleAdmin {
		return models.User{}, ErrPermission
	}

	if err := s.users.SetRole(ctx, member.ID, role); err != nil {
		return models.User{}, err
	}
	member.Role = role
	return member, nil
}

// RemoveMember clears the member's organization and resets their role;
// accounts are never hard-deleted by membership changes.
func (s *OrgService) RemoveMember(ctx context.Context, caller models.User, memberID string) error {
	if !caller.Role.CanManageUsers() {
		return ErrPermission
	}

	member, err := s.GetMember(ctx, *caller.OrganizationID, memberID)
	if err != nil {
		return err
	}
	if member.ID == caller.ID {
		return ErrSelfModification
	}
	if member.Role == models.UserRoleAdmin && caller.Role != models.UserRoleAdmin {
		return ErrPermission
	}

	return s.users.SetMembership(ctx, member.ID, nil, models.UserRoleStaff)
}

// Leave removes the calling admin unless they are the organization's sole
// admin; ownership has to be handed over first.
func (s *OrgService) Leave(ctx context.Context, caller models.User) error {
	if !caller.InOrganization() {
		return fmt.Errorf("%w: not part of any organization", ErrValidation)
	}

	if caller.Role == models.UserRoleAdmin {
		admins, err := s.users.CountByOrganizationRole(ctx, *caller.OrganizationID, models.UserRoleAdmin)
		if err != nil {
			return err
		}
		if admins == 1 {
			return ErrSoleAdmin
		}
	}

	return s.users.SetMembership(ctx, caller.ID, nil, models.UserRoleStaff)
}

func (s *OrgService) dispatch(ctx context.Context, msg notify.Message) {
	if err := s.notifier.Notify(ctx, msg); err != nil {
		s.log.Error().Err(err).
			Str("kind", string(msg.Kind)).
			Str("recipient", msg.Recipient).
			Msg("notification dispatch failed")
	}
}
