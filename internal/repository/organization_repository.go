package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"penthrey/api/internal/models"
)

const organizationColumns = `
	id, name, slug, description, email, phone_number, website,
	address_line_1, address_line_2, city, state, postal_code, country,
	org_type, industry, plan, is_trial, trial_ends_at, logo_url,
	currency, timezone, is_active, created_at, updated_at
`

type OrganizationRepository struct {
	pool *pgxpool.Pool
}

func NewOrganizationRepository(pool *pgxpool.Pool) *OrganizationRepository {
	return &OrganizationRepository{pool: pool}
}

func scanOrganization(row pgx.Row) (models.Organization, error) {
	var org models.Organization
	err := row.Scan(
		&org.ID,
		&org.Name,
		&org.Slug,
		&org.Description,
		&org.Email,
		&org.PhoneNumber,
		&org.Website,
		&org.AddressLine1,
		&org.AddressLine2,
		&org.City,
		&org.State,
		&org.PostalCode,
		&org.Country,
		&org.Type,
		&org.Industry,
		&org.Plan,
		&org.IsTrial,
		&org.TrialEndsAt,
		&org.LogoURL,
		&org.Currency,
		&org.Timezone,
		&org.IsActive,
		&org.CreatedAt,
		&org.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.Organization{}, ErrOrganizationNotFound
		}
		return models.Organization{}, err
	}
	return org, nil
}

func (r *OrganizationRepository) Create(ctx context.Context, org models.Organization) error {
	const query = `
		INSERT INTO organizations (
			id, name, slug, description, email, phone_number, website,
			address_line_1, address_line_2, city, state, postal_code, country,
			org_type, industry, plan, is_trial, trial_ends_at,
			currency, timezone, is_active, created_at, updated_at
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13,
			$14, $15, $16, $17, $18, $19, $20, $21, NOW(), NOW()
		)
	`

	_, err := r.pool.Exec(ctx, query,
		org.ID,
		org.Name,
		org.Slug,
		org.Description,
		org.Email,
		org.PhoneNumber,
		org.Website,
		org.AddressLine1,
		org.AddressLine2,
		org.City,
		org.State,
		org.PostalCode,
		org.Country,
		org.Type,
		org.Industry,
		org.Plan,
		org.IsTrial,
		org.TrialEndsAt,
		org.Currency,
		org.Timezone,
		org.IsActive,
	)
	return mapUniqueViolation(err)
}

func (r *OrganizationRepository) GetByID(ctx context.Context, id string) (models.Organization, error) {
	const query = `SELECT ` + organizationColumns + ` FROM organizations WHERE id = $1`
	return scanOrganization(r.pool.QueryRow(ctx, query, id))
}

func (r *OrganizationRepository) Update(ctx context.Context, org models.Organization) error {
	const query = `
		UPDATE organizations
		SET name = $2, slug = $3, description = $4, email = $5, phone_number = $6,
		    website = $7, address_line_1 = $8, address_line_2 = $9, city = $10,
		    state = $11, postal_code = $12, country = $13, org_type = $14,
		    industry = $15, currency = $16, timezone = $17, updated_at = NOW()
		WHERE id = $1
	`
	cmd, err := r.pool.Exec(ctx, query,
		org.ID,
		org.Name,
		org.Slug,
		org.Description,
		org.Email,
		org.PhoneNumber,
		org.Website,
		org.AddressLine1,
		org.AddressLine2,
		org.City,
		org.State,
		org.PostalCode,
		org.Country,
		org.Type,
		org.Industry,
		org.Currency,
		org.Timezone,
	)
	if err != nil {
		return mapUniqueViolation(err)
	}
	if cmd.RowsAffected() == 0 {
		return ErrOrganizationNotFound
	}
	return nil
}

func (r *OrganizationRepository) SetLogoURL(ctx context.Context, id string, url string) error {
	const query = `UPDATE organizations SET logo_url = $2, updated_at = NOW() WHERE id = $1`
	cmd, err := r.pool.Exec(ctx, query, id, url)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return ErrOrganizationNotFound
	}
	return nil
}
