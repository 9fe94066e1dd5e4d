package postgres

import (
	"context"
	"database/sql"
	"errors"

	"gatekeeper/internal/domain"
)

type eventRepository struct {
	DB *sql.DB
}

func NewEventRepository(db *sql.DB) domain.EventRepository {
	return &eventRepository{
		DB: db,
	}
}

func (r *eventRepository) GetByID(ctx context.Context, id string) (*domain.Event, error) {
	query := `
		SELECT id, organization_id, name, visibility, status, ticketed,
		       starts_at, ends_at, rsvp_deadline, apply_deadline,
		       max_attendees, required_membership_tier, requires_full_profile,
		       waitlist_enabled, venue_id, created_at, updated_at
		FROM events
		WHERE id = $1
	`
	event := &domain.Event{}
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&event.ID, &event.OrganizationID, &event.Name, &event.Visibility, &event.Status, &event.Ticketed,
			&event.StartsAt, &event.EndsAt, &event.RSVPDeadline, &event.ApplyDeadline,
			&event.MaxAttendees, &event.RequiredMembershipTier, &event.RequiresFullProfile,
			&event.WaitlistEnabled, &event.VenueID, &event.CreatedAt, &event.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return event, nil
}

func (r *eventRepository) GetVenueByID(ctx context.Context, id string) (*domain.Venue, error) {
	query := `
		SELECT id, name, capacity
		FROM venues
		WHERE id = $1
	`
	venue := &domain.Venue{}
	err := r.DB.QueryRowContext(ctx, query, id).
		Scan(&venue.ID, &venue.Name, &venue.Capacity)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, domain.ErrNotFound
		}
		return nil, err
	}
	return venue, nil
}

func (r *eventRepository) ListTicketTiers(ctx context.Context, eventID string) ([]*domain.TicketTier, error) {
	query := `
		SELECT id, event_id, name, price_cents, membership_required, sales_start, sales_end, created_at, updated_at
		FROM ticket_tiers
		WHERE event_id = $1
		ORDER BY price_cents ASC
	`
	rows, err := r.DB.QueryContext(ctx, query, eventID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var tiers []*domain.TicketTier
	for rows.Next() {
		tier := &domain.TicketTier{}
		if err := rows.Scan(&tier.ID, &tier.EventID, &tier.Name, &tier.PriceCents, &tier.MembershipRequired, &tier.SalesStart, &tier.SalesEnd, &tier.CreatedAt, &tier.UpdatedAt); err != nil {
			return nil, err
		}
		tiers = append(tiers, tier)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if tiers == nil {
		tiers = []*domain.TicketTier{}
	}
	return tiers, nil
}
