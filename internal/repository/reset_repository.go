package repository

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"penthrey/api/internal/models"
)

type ResetRepository struct {
	pool *pgxpool.Pool
}

func NewResetRepository(pool *pgxpool.Pool) *ResetRepository {
	return &ResetRepository{pool: pool}
}

func (r *ResetRepository) Create(ctx context.Context, reset models.PasswordReset) error {
	const query = `
		INSERT INTO password_resets (id, user_id, token, is_used, expires_at, created_at)
		VALUES ($1, $2, $3, FALSE, $4, NOW())
	`
	_, err := r.pool.Exec(ctx, query, reset.ID, reset.UserID, reset.Token, reset.ExpiresAt)
	return mapUniqueViolation(err)
}

func (r *ResetRepository) FindByToken(ctx context.Context, token string) (models.PasswordReset, error) {
	const query = `
		SELECT id, user_id, token, is_used, used_at, expires_at, created_at
		FROM password_resets
		WHERE token = $1
	`

	var reset models.PasswordReset
	err := r.pool.QueryRow(ctx, query, token).Scan(
		&reset.ID,
		&reset.UserID,
		&reset.Token,
		&reset.IsUsed,
		&reset.UsedAt,
		&reset.ExpiresAt,
		&reset.CreatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.PasswordReset{}, ErrTokenNotFound
		}
		return models.PasswordReset{}, err
	}
	return reset, nil
}

func (r *ResetRepository) MarkUsed(ctx context.Context, id string, at time.Time) error {
	const query = `
		UPDATE password_resets
		SET is_used = TRUE, used_at = $2
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

func (r *ResetRepository) PurgeFinished(ctx context.Context, olderThan time.Time) (int64, error) {
	const query = `
		DELETE FROM password_resets
		WHERE is_used = TRUE OR expires_at < $1
	`
	cmd, err := r.pool.Exec(ctx, query, olderThan)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}
