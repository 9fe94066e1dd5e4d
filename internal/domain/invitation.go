package domain

import (
	"context"
	"time"
)

// InvitationStatus is the request/approval status of an invitation.
type InvitationStatus string

const (
	InvitationPending  InvitationStatus = "pending"
	InvitationApproved InvitationStatus = "approved"
	InvitationRejected InvitationStatus = "rejected"
)

// Invitation grants a user access to an event, optionally waiving specific
// eligibility checks. Immutable once issued except for status transitions,
// which are owned by the external invitation-management collaborator.
// swagger:model Invitation
type Invitation struct {
	ID      string           `json:"id"`
	EventID string           `json:"event_id"`
	UserID  string           `json:"user_id"`
	Code    string           `json:"code"`
	Status  InvitationStatus `json:"status"`

	// Waiver flags. Each flag is read by exactly one eligibility check,
	// except WaivesPurchase which is consumed by the ticket purchase path
	// (complimentary access) after the pipeline has run.
	WaivesRSVPDeadline       bool `json:"waives_rsvp_deadline"`
	WaivesApplyDeadline      bool `json:"waives_apply_deadline"`
	WaivesMembershipRequired bool `json:"waives_membership_required"`
	WaivesQuestionnaire      bool `json:"waives_questionnaire"`
	WaivesCapacity           bool `json:"waives_capacity"`
	WaivesPurchase           bool `json:"waives_purchase"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Approved reports whether the invitation grants access. Waiver flags only
// take effect on approved invitations.
func (i *Invitation) Approved() bool {
	return i != nil && i.Status == InvitationApproved
}

// InvitationRepository defines read access to invitation records.
type InvitationRepository interface {
	GetByEventAndUser(ctx context.Context, eventID, userID string) (*Invitation, error)
}
