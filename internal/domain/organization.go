package domain

import (
	"context"
	"time"
)

// Organization represents the community that hosts events.
// swagger:model Organization
type Organization struct {
	ID      string `json:"id"`
	Name    string `json:"name"`
	OwnerID string `json:"owner_id"`
	// AcceptsMembershipRequests controls whether a non-member rejected by the
	// membership check is pointed at BECOME_MEMBER.
	AcceptsMembershipRequests bool      `json:"accepts_membership_requests"`
	CreatedAt                 time.Time `json:"created_at"`
	UpdatedAt                 time.Time `json:"updated_at"`
}

// OrganizationRepository defines read access to organization state.
// Organization CRUD is owned by an external collaborator.
type OrganizationRepository interface {
	GetByID(ctx context.Context, id string) (*Organization, error)
	// IsStaff reports whether the user is on the organization's staff roster.
	IsStaff(ctx context.Context, orgID, userID string) (bool, error)
}
