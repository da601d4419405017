package models

import "time"

type InviteStatus string

const (
	InviteStatusPending  InviteStatus = "pending"
	InviteStatusAccepted InviteStatus = "accepted"
	InviteStatusDeclined InviteStatus = "declined"
	InviteStatusExpired  InviteStatus = "expired"
)

// OrganizationInvite is unique per (organization, email). Cancelling reuses
// the expired status rather than introducing a separate one.
type OrganizationInvite struct {
	ID             string
	OrganizationID string
	Email          string
	Role           UserRole
	InvitedByID    string
	Token          string
	Status         InviteStatus
	AcceptedAt     *time.Time
	ExpiresAt      time.Time
	CreatedAt      time.Time
}

// Open reports whether the invite can still be acted on.
func (i OrganizationInvite) Open(now time.Time) bool {
	return i.Status == InviteStatusPending && i.ExpiresAt.After(now)
}
