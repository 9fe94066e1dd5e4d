package postgres

import (
	"context"
	"database/sql"
	"errors"

	"gatekeeper/internal/domain"
)

type participationRepository struct {
	DB *sql.DB
}

func NewParticipationRepository(db *sql.DB) domain.ParticipationRepository {
	return &participationRepository{
		DB: db,
	}
}

// countsTowardCapacityClause selects active tickets and active "yes" RSVPs.
const countsTowardCapacityClause = `status = 'active' AND (kind = 'ticket' OR rsvp_status = 'yes')`

func (r *participationRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Participation, error) {
	query := `
		SELECT id, event_id, user_id, kind, status, COALESCE(rsvp_status, ''), ticket_tier_id, COALESCE(reference, ''), complimentary, created_at, updated_at
		FROM participations
		WHERE event_id = $1 AND user_id = $2
	`
	p := &domain.Participation{}
	err := r.DB.QueryRowContext(ctx, query, eventID, userID).
		Scan(&p.ID, &p.EventID, &p.UserID, &p.Kind, &p.Status, &p.RSVPStatus, &p.TicketTierID, &p.Reference, &p.Complimentary, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return p, nil
}

func (r *participationRepository) CountActive(ctx context.Context, eventID string) (int, error) {
	query := `
		SELECT COUNT(*) FROM participations
		WHERE event_id = $1 AND ` + countsTowardCapacityClause
	var count int
	if err := r.DB.QueryRowContext(ctx, query, eventID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (r *participationRepository) Save(ctx context.Context, p *domain.Participation) error {
	if p.ID == "" {
		query := `
			INSERT INTO participations (event_id, user_id, kind, status, rsvp_status, ticket_tier_id, reference, complimentary, created_at, updated_at)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, NULLIF($7, ''), $8, $9, $10)
			RETURNING id
		`
		return r.DB.QueryRowContext(ctx, query,
			p.EventID, p.UserID, p.Kind, p.Status, string(p.RSVPStatus), p.TicketTierID, p.Reference, p.Complimentary, p.CreatedAt, p.UpdatedAt).
			Scan(&p.ID)
	}
	query := `
		UPDATE participations
		SET kind = $2, status = $3, rsvp_status = NULLIF($4, ''), ticket_tier_id = $5, reference = NULLIF($6, ''), complimentary = $7, updated_at = $8
		WHERE id = $1
	`
	res, err := r.DB.ExecContext(ctx, query,
		p.ID, p.Kind, p.Status, string(p.RSVPStatus), p.TicketTierID, p.Reference, p.Complimentary, p.UpdatedAt)
	if err != nil {
		return err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return domain.ErrNotFound
	}
	return nil
}

// SaveWithCapacity is the authoritative capacity assertion. It locks the
// event row, recounts records occupying a spot (excluding the row being
// saved), and only then writes. Two concurrent requests for the last spot
// serialize on the event row; the loser sees ErrCapacityExceeded and the
// transaction is rolled back. Capacity 0 skips the assertion entirely.
func (r *participationRepository) SaveWithCapacity(ctx context.Context, p *domain.Participation, capacity int) error {
	if capacity <= 0 {
		return r.Save(ctx, p)
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	var lockedID string
	err = tx.QueryRowContext(ctx, `SELECT id FROM events WHERE id = $1 FOR UPDATE`, p.EventID).Scan(&lockedID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.ErrNotFound
		}
		return err
	}

	countQuery := `
		SELECT COUNT(*) FROM participations
		WHERE event_id = $1 AND ($2 = '' OR id::text <> $2) AND ` + countsTowardCapacityClause
	var count int
	if err := tx.QueryRowContext(ctx, countQuery, p.EventID, p.ID).Scan(&count); err != nil {
		return err
	}
	if count >= capacity {
		return domain.ErrCapacityExceeded
	}

	if p.ID == "" {
		insert := `
			INSERT INTO participations (event_id, user_id, kind, status, rsvp_status, ticket_tier_id, reference, complimentary, created_at, updated_at)
			VALUES ($1, $2, $3, $4, NULLIF($5, ''), $6, NULLIF($7, ''), $8, $9, $10)
			RETURNING id
		`
		if err := tx.QueryRowContext(ctx, insert,
			p.EventID, p.UserID, p.Kind, p.Status, string(p.RSVPStatus), p.TicketTierID, p.Reference, p.Complimentary, p.CreatedAt, p.UpdatedAt).
			Scan(&p.ID); err != nil {
			return err
		}
	} else {
		update := `
			UPDATE participations
			SET kind = $2, status = $3, rsvp_status = NULLIF($4, ''), ticket_tier_id = $5, reference = NULLIF($6, ''), complimentary = $7, updated_at = $8
			WHERE id = $1
		`
		if _, err := tx.ExecContext(ctx, update,
			p.ID, p.Kind, p.Status, string(p.RSVPStatus), p.TicketTierID, p.Reference, p.Complimentary, p.UpdatedAt); err != nil {
			return err
		}
	}

	return tx.Commit()
}

func (r *participationRepository) ListByEventID(ctx context.Context, eventID string, params domain.PaginationParams) ([]*domain.Participation, int, error) {
	countQuery := `SELECT COUNT(*) FROM participations WHERE event_id = $1`
	var total int
	if err := r.DB.QueryRowContext(ctx, countQuery, eventID).Scan(&total); err != nil {
		return nil, 0, err
	}

	query := `
		SELECT id, event_id, user_id, kind, status, COALESCE(rsvp_status, ''), ticket_tier_id, COALESCE(reference, ''), complimentary, created_at, updated_at
		FROM participations
		WHERE event_id = $1
		ORDER BY created_at ASC
		LIMIT $2 OFFSET $3
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID, params.PageSize, params.Offset())
	if err != nil {
		return nil, 0, err
	}
	defer rows.Close()

	var participations []*domain.Participation
	for rows.Next() {
		p := &domain.Participation{}
		if err := rows.Scan(&p.ID, &p.EventID, &p.UserID, &p.Kind, &p.Status, &p.RSVPStatus, &p.TicketTierID, &p.Reference, &p.Complimentary, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, 0, err
		}
		participations = append(participations, p)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, err
	}
	if participations == nil {
		participations = []*domain.Participation{}
	}
	return participations, total, nil
}
