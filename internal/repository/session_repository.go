package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"penthrey/api/internal/models"
)

type SessionRepository struct {
	pool *pgxpool.Pool
}

func NewSessionRepository(pool *pgxpool.Pool) *SessionRepository {
	return &SessionRepository{pool: pool}
}

// Create appends a login session row. Sessions are never deduplicated or
// updated in place; every login produces a new row.
func (r *SessionRepository) Create(ctx context.Context, session models.LoginSession) error {
	const query = `
		INSERT INTO login_sessions (
			id, user_id, ip_address, user_agent, device_fingerprint, location,
			browser_info, device_info, is_new_device, login_time, last_activity, is_active
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $10, TRUE
		)
	`
	_, err := r.pool.Exec(ctx, query,
		session.ID,
		session.UserID,
		session.IPAddress,
		session.UserAgent,
		session.DeviceFingerprint,
		session.Location,
		session.BrowserInfo,
		session.DeviceInfo,
		session.IsNewDevice,
		session.LoginTime,
	)
	return err
}

func (r *SessionRepository) ExistsByFingerprint(ctx context.Context, userID string, fingerprint string) (bool, error) {
	const query = `
		SELECT EXISTS (
			SELECT 1 FROM login_sessions
			WHERE user_id = $1 AND device_fingerprint = $2
		)
	`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, userID, fingerprint).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

func (r *SessionRepository) ListByUser(ctx context.Context, userID string) ([]models.LoginSession, error) {
	const query = `
		SELECT id, user_id, ip_address, user_agent, device_fingerprint, location,
		       browser_info, device_info, is_new_device, login_time, last_activity, is_active
		FROM login_sessions
		WHERE user_id = $1
		ORDER BY login_time DESC
	`

	rows, err := r.pool.Query(ctx, query, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []models.LoginSession
	for rows.Next() {
		var session models.LoginSession
		if err := rows.Scan(
			&session.ID,
			&session.UserID,
			&session.IPAddress,
			&session.UserAgent,
			&session.DeviceFingerprint,
			&session.Location,
			&session.BrowserInfo,
			&session.DeviceInfo,
			&session.IsNewDevice,
			&session.LoginTime,
			&session.LastActivity,
			&session.IsActive,
		); err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}
