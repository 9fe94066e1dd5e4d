package postgres

import (
	"context"
	"database/sql"
	"errors"

	"gatekeeper/internal/domain"
)

type organizationRepository struct {
	DB *sql.DB
}

func NewOrganizationRepository(db *sql.DB) domain.OrganizationRepository {
	return &organizationRepository{
		DB: db,
	}
}

func (r *organizationRepository) GetByID(ctx context.Context, id string) (*domain.Organization, error) {
	query := `
		SELECT id, name, owner_id, accepts_membership_requests, created_at, updated_at
		FROM organizations
		WHERE id = $1
	`
	org := &domain.Organization{}
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&org.ID, &org.Name, &org.OwnerID, &org.AcceptsMembershipRequests, &org.CreatedAt, &org.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return org, nil
}

func (r *organizationRepository) IsStaff(ctx context.Context, orgID, userID string) (bool, error) {
	query := `
		SELECT EXISTS (
			SELECT 1 FROM organization_staff
			WHERE organization_id = $1 AND user_id = $2
		)
	`
	var staff bool
	if err := r.DB.QueryRowContext(ctx, query, orgID, userID).Scan(&staff); err != nil {
		return false, err
	}
	return staff, nil
}
