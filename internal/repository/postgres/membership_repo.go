package postgres

import (
	"context"
	"database/sql"
	"errors"

	"gatekeeper/internal/domain"
)

type membershipRepository struct {
	DB *sql.DB
}

func NewMembershipRepository(db *sql.DB) domain.MembershipRepository {
	return &membershipRepository{
		DB: db,
	}
}

func (r *membershipRepository) GetByOrgAndUser(ctx context.Context, orgID, userID string) (*domain.Membership, error) {
	query := `
		SELECT id, organization_id, user_id, status, tier_rank, created_at, updated_at
		FROM memberships
		WHERE organization_id = $1 AND user_id = $2
	`
	m := &domain.Membership{}
	err := r.DB.QueryRowContext(ctx, query, orgID, userID).
		Scan(&m.ID, &m.OrganizationID, &m.UserID, &m.Status, &m.TierRank, &m.CreatedAt, &m.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return m, nil
}
