package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"penthrey/api/internal/models"
)

const inviteColumns = `
	id, organization_id, email, role, invited_by, token, status,
	accepted_at, expires_at, created_at
`

type InviteRepository struct {
	pool *pgxpool.Pool
}

func NewInviteRepository(pool *pgxpool.Pool) *InviteRepository {
	return &InviteRepository{pool: pool}
}

func scanInvite(row pgx.Row) (models.OrganizationInvite, error) {
	var invite models.OrganizationInvite
	err := row.Scan(
		&invite.ID,
		&invite.OrganizationID,
		&invite.Email,
		&invite.Role,
		&invite.InvitedByID,
		&invite.Token,
		&invite.Status,
		&invite.AcceptedAt,
		&invite.ExpiresAt,
		&invite.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.OrganizationInvite{}, ErrInviteNotFound
		}
		return models.OrganizationInvite{}, err
	}
	return invite, nil
}

func (r *InviteRepository) Create(ctx context.Context, invite models.OrganizationInvite) error {
	const query = `
		INSERT INTO organization_invites (
			id, organization_id, email, role, invited_by, token, status,
			expires_at, created_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, NOW()
		)
	`
	_, err := r.pool.Exec(ctx, query,
		invite.ID,
		invite.OrganizationID,
		invite.Email,
		invite.Role,
		invite.InvitedByID,
		invite.Token,
		invite.Status,
		invite.ExpiresAt,
	)
	return mapUniqueViolation(err)
}

func (r *InviteRepository) GetByID(ctx context.Context, id string) (models.OrganizationInvite, error) {
	const query = `SELECT ` + inviteColumns + ` FROM organization_invites WHERE id = $1`
	return scanInvite(r.pool.QueryRow(ctx, query, id))
}

func (r *InviteRepository) FindByToken(ctx context.Context, token string) (models.OrganizationInvite, error) {
	const query = `SELECT ` + inviteColumns + ` FROM organization_invites WHERE token = $1`
	return scanInvite(r.pool.QueryRow(ctx, query, token))
}

// FindByEmail returns the single invite row for (organization, email); the
// pair is unique regardless of status history.
func (r *InviteRepository) FindByEmail(ctx context.Context, orgID string, email string) (models.OrganizationInvite, error) {
	const query = `
		SELECT ` + inviteColumns + `
		FROM organization_invites
		WHERE organization_id = $1 AND email = $2
	`
	return scanInvite(r.pool.QueryRow(ctx, query, orgID, email))
}

func (r *InviteRepository) ListByOrganization(ctx context.Context, orgID string) ([]models.OrganizationInvite, error) {
	const query = `
		SELECT ` + inviteColumns + `
		FROM organization_invites
		WHERE organization_id = $1
		ORDER BY created_at DESC
	`

	rows, err := r.pool.Query(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var invites []models.OrganizationInvite
	for rows.Next() {
		invite, err := scanInvite(rows)
		if err != nil {
			return nil, err
		}
		invites = append(invites, invite)
	}
	return invites, rows.Err()
}

func (r *InviteRepository) UpdateStatus(ctx context.Context, id string, status models.InviteStatus, acceptedAt *time.Time) error {
	const query = `
		UPDATE organization_invites
		SET status = $2, accepted_at = $3
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query, id, status, acceptedAt)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrInviteNotFound
	}
	return nil
}

// Delete removes a prior non-pending invite so the (organization, email)
// unique constraint allows a fresh one.
func (r *InviteRepository) Delete(ctx context.Context, id string) error {
	const query = `DELETE FROM organization_invites WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrInviteNotFound
	}
	return nil
}

// ExpireStale flips pending invites whose expiry has passed. Read paths
// check expiry themselves; this keeps listings honest.
func (r *InviteRepository) ExpireStale(ctx context.Context, now time.Time) (int64, error) {
	const query = `
		UPDATE organization_invites
		SET status = 'expired'
		WHERE status = 'pending' AND expires_at < $1
	`
	cmd, err := r.pool.Exec(ctx, query, now)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
