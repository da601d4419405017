package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"penthrey/api/internal/models"
)

type VerificationRepository struct {
	pool *pgxpool.Pool
}

func NewVerificationRepository(pool *pgxpool.Pool) *VerificationRepository {
	return &VerificationRepository{pool: pool}
}

func (r *VerificationRepository) Create(ctx context.Context, v models.EmailVerification) error {
	const query = `
		INSERT INTO email_verifications (id, user_id, token, is_used, expires_at, created_at)
		VALUES ($1, $2, $3, FALSE, $4, NOW())
	`
	_, err := r.pool.Exec(ctx, query, v.ID, v.UserID, v.Token, v.ExpiresAt)
	return mapUniqueViolation(err)
}

func (r *VerificationRepository) FindByToken(ctx context.Context, token string) (models.EmailVerification, error) {
	const query = `
		SELECT id, user_id, token, is_used, verified_at, expires_at, created_at
		FROM email_verifications
		WHERE token = $1
	`

	var v models.EmailVerification
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&v.ID,
		&v.UserID,
		&v.Token,
		&v.IsUsed,
		&v.VerifiedAt,
		&v.ExpiresAt,
		&v.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.EmailVerification{}, ErrTokenNotFound
		}
		return models.EmailVerification{}, err
	}
	return v, nil
}

func (r *VerificationRepository) MarkUsed(ctx context.Context, id string, at time.Time) error {
	const query = `
		UPDATE email_verifications
		SET is_used = TRUE, verified_at = $2
		WHERE id = $1 AND is_used = FALSE
	`
	cmd, err := r.pool.Exec(ctx, query, id, at)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrTokenNotFound
	}
	return nil
}

// PurgeFinished removes consumed or long-expired rows. Validity checks are
// always performed at read time; this only keeps the table small.
func (r *VerificationRepository) PurgeFinished(ctx context.Context, olderThan time.Time) (int64, error) {
	const query = `
		DELETE FROM email_verifications
		WHERE is_used = TRUE OR expires_at < $1
	`
	cmd, err := r.pool.Exec(ctx, query, olderThan)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
