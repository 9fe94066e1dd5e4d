package domain

import (
	"context"
	"time"
)

// ParticipationKind distinguishes RSVPs from ticket reservations.
type ParticipationKind string

const (
	KindRSVP   ParticipationKind = "rsvp"
	KindTicket ParticipationKind = "ticket"
)

// RSVPStatus is a user's answer to a non-ticketed event.
type RSVPStatus string

const (
	RSVPYes   RSVPStatus = "yes"
	RSVPNo    RSVPStatus = "no"
	RSVPMaybe RSVPStatus = "maybe"
)

// Valid reports whether the status is one of the accepted answers.
func (s RSVPStatus) Valid() bool {
	switch s {
	case RSVPYes, RSVPNo, RSVPMaybe:
		return true
	}
	return false
}

// ParticipationStatus is the lifecycle status of a participation record.
type ParticipationStatus string

const (
	ParticipationActive    ParticipationStatus = "active"
	ParticipationCancelled ParticipationStatus = "cancelled"
)

// Participation is a user's RSVP or ticket reservation for an event.
// swagger:model Participation
type Participation struct {
	ID      string              `json:"id"`
	EventID string              `json:"event_id"`
	UserID  string              `json:"user_id"`
	Kind    ParticipationKind   `json:"kind"`
	Status  ParticipationStatus `json:"status"`
	// RSVPStatus is set for kind "rsvp" only.
	RSVPStatus RSVPStatus `json:"rsvp_status,omitempty"`
	// TicketTierID and Reference are set for kind "ticket" only.
	TicketTierID  *string   `json:"ticket_tier_id,omitempty"`
	Reference     string    `json:"reference,omitempty"`
	Complimentary bool      `json:"complimentary"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// CountsTowardCapacity reports whether the record occupies a spot: an active
// ticket, or an active "yes" RSVP.
func (p *Participation) CountsTowardCapacity() bool {
	if p == nil || p.Status != ParticipationActive {
		return false
	}
	return p.Kind == KindTicket || p.RSVPStatus == RSVPYes
}

// ParticipationRepository defines storage operations for participations.
type ParticipationRepository interface {
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*Participation, error)
	// CountActive returns the number of records counting toward the event's
	// capacity. Advisory: no locks are taken.
	CountActive(ctx context.Context, eventID string) (int, error)
	// Save creates or updates the record without asserting capacity. Used for
	// writes that free or do not occupy a spot ("no"/"maybe" answers).
	Save(ctx context.Context, p *Participation) error
	// SaveWithCapacity creates or updates the record inside a transaction
	// that locks the event row and recounts active participants first. It
	// returns ErrCapacityExceeded when the authoritative count has reached
	// the given capacity. Capacity 0 means unlimited.
	SaveWithCapacity(ctx context.Context, p *Participation, capacity int) error
	ListByEventID(ctx context.Context, eventID string, params PaginationParams) ([]*Participation, int, error)
}

// AttendanceCountCache caches per-event active-participant counts for the
// advisory capacity check. Implementations may be backed by Redis; a nil
// cache is valid and falls back to direct counting.
type AttendanceCountCache interface {
	Get(ctx context.Context, eventID string) (count int, ok bool, err error)
	Set(ctx context.Context, eventID string, count int) error
	Invalidate(ctx context.Context, eventID string) error
}
