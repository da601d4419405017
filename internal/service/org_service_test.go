package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"penthrey/api/internal/models"
	"penthrey/api/internal/notify"
)

func TestCreateOrganization(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	caller := f.seedUser(t, "founder@example.com", models.UserRoleStaff, nil, "s3cret-password", true)

	org, err := f.orgsvc.Create(ctx, caller, OrganizationInput{Name: "Lagos Logistics"})
	require.NoError(t, err)
	assert.Equal(t, "lagos-logistics", org.Slug)
	assert.Equal(t, models.PlanFree, org.Plan)
	assert.Equal(t, "founder@example.com", org.Email, "contact email defaults to the creator's")

	stored, err := f.users.GetByID(ctx, caller.ID)
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleAdmin, stored.Role)
	require.NotNil(t, stored.OrganizationID)
	assert.Equal(t, org.ID, *stored.OrganizationID)
}

func TestCreateOrganizationRequiresNoMembership(t *testing.T) {
	f := newFixture(t)

	org := f.seedOrg(t, models.PlanFree)
	caller := f.seedUser(t, "member@example.com", models.UserRoleAdmin, &org.ID, "s3cret-password", true)

	_, err := f.orgsvc.Create(context.Background(), caller, OrganizationInput{Name: "Second Venture"})
	assert.ErrorIs(t, err, ErrAlreadyInOrganization)
}

func TestUpdateOrganizationPermission(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	org := f.seedOrg(t, models.PlanFree)
	staff := f.seedUser(t, "staff@example.com", models.UserRoleStaff, &org.ID, "s3cret-password", true)
	manager := f.seedUser(t, "manager@example.com", models.UserRoleManager, &org.ID, "s3cret-password", true)

	_, err := f.orgsvc.Update(ctx, staff, OrganizationInput{Name: "Renamed"})
	assert.ErrorIs(t, err, ErrPermission)

	updated, err := f.orgsvc.Update(ctx, manager, OrganizationInput{Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", updated.Name)
	assert.Equal(t, "renamed", updated.Slug)
}

func TestOrganizationStats(t *testing.T) {
	f := newFixture(t)

	org := f.seedOrg(t, models.PlanFree)
	f.seedUser(t, "a@example.com", models.UserRoleAdmin, &org.ID, "s3cret-password", true)
	f.seedUser(t, "m@example.com", models.UserRoleManager, &org.ID, "s3cret-password", true)
	f.seedUser(t, "s1@example.com", models.UserRoleStaff, &org.ID, "s3cret-password", true)
	f.seedUser(t, "s2@example.com", models.UserRoleStaff, &org.ID, "s3cret-password", true)

	stats, err := f.orgsvc.Stats(context.Background(), org.ID)
	require.NoError(t, err)
	assert.Equal(t, 4, stats.TotalMembers)
	assert.Equal(t, 1, stats.AdminMembers)
	assert.Equal(t, 1, stats.ManagerMembers)
	assert.Equal(t, 2, stats.StaffMembers)
	assert.Equal(t, 5, stats.MemberLimit)
	assert.True(t, stats.CanAddMembers)
}

func TestSendInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	org := f.seedOrg(t, models.PlanStandard)
	manager := f.seedUser(t, "manager@example.com", models.UserRoleManager, &org.ID, "s3cret-password", true)

	invite, err := f.orgsvc.SendInvite(ctx, manager, "Hire@Example.com", models.UserRoleStaff)
	require.NoError(t, err)
	assert.Equal(t, "hire@example.com", invite.Email)
	assert.Equal(t, models.InviteStatusPending, invite.Status)
	assert.NotEmpty(t, invite.Token)

	msgs := f.notifier.byKind(notify.KindInvite)
	require.Len(t, msgs, 1)
	assert.Equal(t, "hire@example.com", msgs[0].Recipient)
}

func TestSendInvitePermission(t *testing.T) {
	f := newFixture(t)

	org := f.seedOrg(t, models.PlanStandard)
	staff := f.seedUser(t, "staff@example.com", models.UserRoleStaff, &org.ID, "s3cret-password", true)

	_, err := f.orgsvc.SendInvite(context.Background(), staff, "hire@example.com", models.UserRoleStaff)
	assert.ErrorIs(t, err, ErrPermission)
}

func TestSendInviteCapacityFull(t *testing.T) {
	f := newFixture(t)

	org := f.seedOrg(t, models.PlanFree)
	admin := f.seedUser(t, "admin@example.com", models.UserRoleAdmin, &org.ID, "s3cret-password", true)
	for i := 0; i < 4; i++ {
		f.seedUser(t, string(rune('a'+i))+"@example.com", models.UserRoleStaff, &org.ID, "s3cret-password", true)
	}

	_, err := f.orgsvc.SendInvite(context.Background(), admin, "sixth@example.com", models.UserRoleStaff)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestSendInviteToExistingMember(t *testing.T) {
	f := newFixture(t)

	org := f.seedOrg(t, models.PlanStandard)
	admin := f.seedUser(t, "admin@example.com", models.UserRoleAdmin, &org.ID, "s3cret-password", true)
	f.seedUser(t, "member@example.com", models.UserRoleStaff, &org.ID, "s3cret-password", true)

	_, err := f.orgsvc.SendInvite(context.Background(), admin, "member@example.com", models.UserRoleStaff)
	assert.ErrorIs(t, err, ErrAlreadyMember)
}

func TestSendInviteDuplicatePending(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	org := f.seedOrg(t, models.PlanStandard)
	admin := f.seedUser(t, "admin@example.com", models.UserRoleAdmin, &org.ID, "s3cret-password", true)

	_, err := f.orgsvc.SendInvite(ctx, admin, "hire@example.com", models.UserRoleStaff)
	require.NoError(t, err)

	_, err = f.orgsvc.SendInvite(ctx, admin, "hire@example.com", models.UserRoleStaff)
	assert.ErrorIs(t, err, ErrDuplicateInvite)
}

func TestSendInviteReplacesFinishedInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	org := f.seedOrg(t, models.PlanStandard)
	admin := f.seedUser(t, "admin@example.com", models.UserRoleAdmin, &org.ID, "s3cret-password", true)
	f.seedInvite(t, org.ID, "hire@example.com", models.UserRoleStaff, models.InviteStatusDeclined, f.now.Add(time.Hour))

	invite, err := f.orgsvc.SendInvite(ctx, admin, "hire@example.com", models.UserRoleManager)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusPending, invite.Status)
	assert.Equal(t, models.UserRoleManager, invite.Role)
}

func TestCancelInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	org := f.seedOrg(t, models.PlanStandard)
	admin := f.seedUser(t, "admin@example.com", models.UserRoleAdmin, &org.ID, "s3cret-password", true)
	invite := f.seedInvite(t, org.ID, "hire@example.com", models.UserRoleStaff, models.InviteStatusPending, f.now.Add(time.Hour))

	require.NoError(t, f.orgsvc.CancelInvite(ctx, admin, invite.ID))

	stored, err := f.invites.GetByID(ctx, invite.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusExpired, stored.Status)

	// A non-pending invite cannot be cancelled again.
	err = f.orgsvc.CancelInvite(ctx, admin, invite.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestCancelInviteOtherOrganization(t *testing.T) {
	f := newFixture(t)

	orgA := f.seedOrg(t, models.PlanStandard)
	orgB := f.seedOrg(t, models.PlanStandard)
	adminB := f.seedUser(t, "admin-b@example.com", models.UserRoleAdmin, &orgB.ID, "s3cret-password", true)
	invite := f.seedInvite(t, orgA.ID, "hire@example.com", models.UserRoleStaff, models.InviteStatusPending, f.now.Add(time.Hour))

	err := f.orgsvc.CancelInvite(context.Background(), adminB, invite.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestAcceptInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	org := f.seedOrg(t, models.PlanStandard)
	caller := f.seedUser(t, "joiner@example.com", models.UserRoleStaff, nil, "s3cret-password", true)
	invite := f.seedInvite(t, org.ID, "joiner@example.com", models.UserRoleManager, models.InviteStatusPending, f.now.Add(time.Hour))

	joined, err := f.orgsvc.AcceptInvite(ctx, caller, invite.Token)
	require.NoError(t, err)
	assert.Equal(t, org.ID, joined.ID)

	stored, err := f.users.GetByID(ctx, caller.ID)
	require.NoError(t, err)
	require.NotNil(t, stored.OrganizationID)
	assert.Equal(t, org.ID, *stored.OrganizationID)
	assert.Equal(t, models.UserRoleManager, stored.Role)

	acceptedInvite, err := f.invites.GetByID(ctx, invite.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusAccepted, acceptedInvite.Status)
}

func TestAcceptInviteExpired(t *testing.T) {
	f := newFixture(t)

	org := f.seedOrg(t, models.PlanStandard)
	caller := f.seedUser(t, "late@example.com", models.UserRoleStaff, nil, "s3cret-password", true)
	invite := f.seedInvite(t, org.ID, "late@example.com", models.UserRoleStaff, models.InviteStatusPending, f.now.Add(-time.Minute))

	_, err := f.orgsvc.AcceptInvite(context.Background(), caller, invite.Token)
	assert.ErrorIs(t, err, ErrTokenInvalidOrExpired)
}

func TestAcceptInviteWhileInOrganization(t *testing.T) {
	f := newFixture(t)

	orgA := f.seedOrg(t, models.PlanStandard)
	orgB := f.seedOrg(t, models.PlanStandard)
	caller := f.seedUser(t, "busy@example.com", models.UserRoleStaff, &orgA.ID, "s3cret-password", true)
	invite := f.seedInvite(t, orgB.ID, "busy@example.com", models.UserRoleStaff, models.InviteStatusPending, f.now.Add(time.Hour))

	_, err := f.orgsvc.AcceptInvite(context.Background(), caller, invite.Token)
	assert.ErrorIs(t, err, ErrAlreadyInOrganization)
}

func TestAcceptInviteCapacityCheckedAtJoin(t *testing.T) {
	f := newFixture(t)

	org := f.seedOrg(t, models.PlanFree)
	invite := f.seedInvite(t, org.ID, "sixth@example.com", models.UserRoleStaff, models.InviteStatusPending, f.now.Add(time.Hour))

	// Capacity filled after the invite went out.
	for i := 0; i < 5; i++ {
		f.seedUser(t, string(rune('a'+i))+"@example.com", models.UserRoleStaff, &org.ID, "s3cret-password", true)
	}
	caller := f.seedUser(t, "sixth@example.com", models.UserRoleStaff, nil, "s3cret-password", true)

	_, err := f.orgsvc.AcceptInvite(context.Background(), caller, invite.Token)
	assert.ErrorIs(t, err, ErrCapacityExceeded)
}

func TestDeclineInvite(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	org := f.seedOrg(t, models.PlanStandard)
	invite := f.seedInvite(t, org.ID, "no-thanks@example.com", models.UserRoleStaff, models.InviteStatusPending, f.now.Add(time.Hour))

	require.NoError(t, f.orgsvc.DeclineInvite(ctx, invite.Token))

	stored, err := f.invites.GetByID(ctx, invite.ID)
	require.NoError(t, err)
	assert.Equal(t, models.InviteStatusDeclined, stored.Status)

	err = f.orgsvc.DeclineInvite(ctx, invite.Token)
	assert.ErrorIs(t, err, ErrTokenInvalidOrExpired)
}

func TestUpdateMemberRole(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	org := f.seedOrg(t, models.PlanStandard)
	admin := f.seedUser(t, "admin@example.com", models.UserRoleAdmin, &org.ID, "s3cret-password", true)
	manager := f.seedUser(t, "manager@example.com", models.UserRoleManager, &org.ID, "s3cret-password", true)
	staff := f.seedUser(t, "staff@example.com", models.UserRoleStaff, &org.ID, "s3cret-password", true)

	// Nobody edits their own role.
	_, err := f.orgsvc.UpdateMemberRole(ctx, admin, admin.ID, models.UserRoleStaff)
	assert.ErrorIs(t, err, ErrSelfModification)

	// A manager cannot touch an admin.
	_, err = f.orgsvc.UpdateMemberRole(ctx, manager, admin.ID, models.UserRoleStaff)
	assert.ErrorIs(t, err, ErrPermission)

	updated, err := f.orgsvc.UpdateMemberRole(ctx, manager, staff.ID, models.UserRoleManager)
	require.NoError(t, err)
	assert.Equal(t, models.UserRoleManager, updated.Role)
}

func TestRemoveMember(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	org := f.seedOrg(t, models.PlanStandard)
	admin := f.seedUser(t, "admin@example.com", models.UserRoleAdmin, &org.ID, "s3cret-password", true)
	manager := f.seedUser(t, "manager@example.com", models.UserRoleManager, &org.ID, "s3cret-password", true)

	require.NoError(t, f.orgsvc.RemoveMember(ctx, admin, manager.ID))

	removed, err := f.users.GetByID(ctx, manager.ID)
	require.NoError(t, err)
	assert.Nil(t, removed.OrganizationID, "removal detaches the account, never deletes it")
	assert.Equal(t, models.UserRoleStaff, removed.Role)
}

func TestLeaveBlocksSoleAdmin(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	org := f.seedOrg(t, models.PlanStandard)
	admin := f.seedUser(t, "admin@example.com", models.UserRoleAdmin, &org.ID, "s3cret-password", true)

	err := f.orgsvc.Leave(ctx, admin)
	assert.ErrorIs(t, err, ErrSoleAdmin)

	f.seedUser(t, "admin2@example.com", models.UserRoleAdmin, &org.ID, "s3cret-password", true)
	require.NoError(t, f.orgsvc.Leave(ctx, admin))

	left, err := f.users.GetByID(ctx, admin.ID)
	require.NoError(t, err)
	assert.Nil(t, left.OrganizationID)
}
