package postgres

import (
	"context"
	"database/sql"
	"errors"

	"gatekeeper/internal/domain"
)

type blacklistRepository struct {
	DB *sql.DB
}

func NewBlacklistRepository(db *sql.DB) domain.BlacklistRepository {
	return &blacklistRepository{
		DB: db,
	}
}

func (r *blacklistRepository) ListByOrganization(ctx context.Context, orgID string) ([]*domain.BlacklistEntry, error) {
	query := `
		SELECT id, organization_id, COALESCE(user_id::text, ''), COALESCE(email, ''), full_name, created_at
		FROM blacklist_entries
		WHERE organization_id = $1
	`
	rows, err := r.DB.QueryContext(ctx, query, orgID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var entries []*domain.BlacklistEntry
	for rows.Next() {
		entry := &domain.BlacklistEntry{}
		if err := rows.Scan(&entry.ID, &entry.OrganizationID, &entry.UserID, &entry.Email, &entry.FullName, &entry.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if entries == nil {
		entries = []*domain.BlacklistEntry{}
	}
	return entries, nil
}

func (r *blacklistRepository) GetWhitelistEntry(ctx context.Context, orgID, userID string) (*domain.WhitelistEntry, error) {
	query := `
		SELECT id, organization_id, user_id, status, created_at
		FROM whitelist_entries
		WHERE organization_id = $1 AND user_id = $2
	`
	entry := &domain.WhitelistEntry{}
	err := r.DB.QueryRowContext(ctx, query, orgID, userID).
		Scan(&entry.ID, &entry.OrganizationID, &entry.UserID, &entry.Status, &entry.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return entry, nil
}
