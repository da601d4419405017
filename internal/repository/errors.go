package repository

import (
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrOrganizationNotFound = errors.New("organization not found")
	ErrTokenNotFound        = errors.New("token not found")
	ErrInviteNotFound       = errors.New("invite not found")

	// ErrDuplicate maps unique-constraint violations: duplicate emails,
	// duplicate (organization, email) invites, and opaque token collisions.
	// Token collisions are retryable by regenerating.
	ErrDuplicate = errors.New("duplicate row")
)

func mapUniqueViolation(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation {
		return ErrDuplicate
	}
	return err
}
