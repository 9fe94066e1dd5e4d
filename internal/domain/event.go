package domain

import (
	"context"
	"time"
)

// EventVisibility controls who may participate in an event.
type EventVisibility string

const (
	VisibilityPublic      EventVisibility = "public"
	VisibilityPrivate     EventVisibility = "private"
	VisibilityMembersOnly EventVisibility = "members_only"
)

// EventStatus is the lifecycle status of an event.
type EventStatus string

const (
	EventStatusDraft     EventStatus = "draft"
	EventStatusOpen      EventStatus = "open"
	EventStatusClosed    EventStatus = "closed"
	EventStatusCancelled EventStatus = "cancelled"
)

// Venue is where an event takes place. Capacity 0 means unlimited.
// swagger:model Venue
type Venue struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Capacity int    `json:"capacity"`
}

// TicketTier is one purchasable ticket class of a ticketed event.
// swagger:model TicketTier
type TicketTier struct {
	ID         string `json:"id"`
	EventID    string `json:"event_id"`
	Name       string `json:"name"`
	PriceCents int64  `json:"price_cents"`
	// MembershipRequired gates the tier on holding a membership record.
	MembershipRequired bool      `json:"membership_required"`
	SalesStart         time.Time `json:"sales_start"`
	SalesEnd           time.Time `json:"sales_end"`
	CreatedAt          time.Time `json:"created_at"`
	UpdatedAt          time.Time `json:"updated_at"`
}

// OnSale reports whether the tier's sales window is open at the given time.
func (t *TicketTier) OnSale(now time.Time) bool {
	if now.Before(t.SalesStart) {
		return false
	}
	return t.SalesEnd.IsZero() || now.Before(t.SalesEnd)
}

// Event represents an event users can RSVP to or buy tickets for.
// swagger:model Event
type Event struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organization_id"`
	Name           string          `json:"name"`
	Visibility     EventVisibility `json:"visibility"`
	Status         EventStatus     `json:"status"`
	Ticketed       bool            `json:"ticketed"`
	StartsAt       time.Time       `json:"starts_at"`
	EndsAt         time.Time       `json:"ends_at"`
	RSVPDeadline   *time.Time      `json:"rsvp_deadline,omitempty"`
	ApplyDeadline  *time.Time      `json:"apply_deadline,omitempty"`
	// MaxAttendees 0 means unlimited.
	MaxAttendees int `json:"max_attendees"`
	// RequiredMembershipTier is the minimum membership tier rank for
	// members-only events. 0 accepts any active membership.
	RequiredMembershipTier int        `json:"required_membership_tier"`
	RequiresFullProfile    bool       `json:"requires_full_profile"`
	WaitlistEnabled        bool       `json:"waitlist_enabled"`
	VenueID                *string    `json:"venue_id,omitempty"`
	CreatedAt              time.Time  `json:"created_at"`
	UpdatedAt              time.Time  `json:"updated_at"`
}

// Finished reports whether the event has ended at the given time.
func (e *Event) Finished(now time.Time) bool {
	return !e.EndsAt.IsZero() && now.After(e.EndsAt)
}

// EffectiveApplyDeadline is the apply deadline, falling back to event start if
// no explicit deadline is configured.
func (e *Event) EffectiveApplyDeadline() time.Time {
	if e.ApplyDeadline != nil {
		return *e.ApplyDeadline
	}
	return e.StartsAt
}

// EffectiveCapacity is the minimum of the event's max attendees and its
// venue's capacity, where 0 means unlimited on either side. Returns 0 when
// both are unlimited.
func (e *Event) EffectiveCapacity(venue *Venue) int {
	capacity := e.MaxAttendees
	if venue != nil && venue.Capacity > 0 {
		if capacity == 0 || venue.Capacity < capacity {
			capacity = venue.Capacity
		}
	}
	return capacity
}

// EventRepository defines read access to event state. Event CRUD is owned by
// an external collaborator.
type EventRepository interface {
	GetByID(ctx context.Context, id string) (*Event, error)
	GetVenueByID(ctx context.Context, id string) (*Venue, error)
	ListTicketTiers(ctx context.Context, eventID string) ([]*TicketTier, error)
}
