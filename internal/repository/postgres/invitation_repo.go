package postgres

import (
	"context"
	"database/sql"
	"errors"

	"gatekeeper/internal/domain"
)

type invitationRepository struct {
	DB *sql.DB
}

func NewInvitationRepository(db *sql.DB) domain.InvitationRepository {
	return &invitationRepository{
		DB: db,
	}
}

func (r *invitationRepository) GetByEventAndUser(ctx context.Context, eventID, userID string) (*domain.Invitation, error) {
	query := `
		SELECT id, event_id, user_id, code, status,
		       waives_rsvp_deadline, waives_apply_deadline, waives_membership_required,
		       waives_questionnaire, waives_capacity, waives_purchase,
		       created_at, updated_at
		FROM invitations
		WHERE event_id = $1 AND user_id = $2
	`
	inv := &domain.Invitation{}
	err := r.DB.QueryRowContext(ctx, query, eventID, userID).
		Scan(&inv.ID, &inv.EventID, &inv.UserID, &inv.Code, &inv.Status,
			&inv.WaivesRSVPDeadline, &inv.WaivesApplyDeadline, &inv.WaivesMembershipRequired,
			&inv.WaivesQuestionnaire, &inv.WaivesCapacity, &inv.WaivesPurchase,
			&inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return inv, nil
}
