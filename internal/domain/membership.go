package domain

import (
	"context"
	"time"
)

// MembershipStatus is the lifecycle status of an organization membership.
type MembershipStatus string

const (
	MembershipActive    MembershipStatus = "active"
	MembershipPaused    MembershipStatus = "paused"
	MembershipCancelled MembershipStatus = "cancelled"
	MembershipBanned    MembershipStatus = "banned"
)

// Membership connects a user to an organization. Owned by the external
// membership-management collaborator; read-only here.
// swagger:model Membership
type Membership struct {
	ID             string           `json:"id"`
	OrganizationID string           `json:"organization_id"`
	UserID         string           `json:"user_id"`
	Status         MembershipStatus `json:"status"`
	// TierRank orders membership tiers; higher ranks include lower ones.
	TierRank  int       `json:"tier_rank"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Active reports whether the membership currently grants member standing.
func (m *Membership) Active() bool {
	return m != nil && m.Status == MembershipActive
}

// MembershipRepository defines read access to membership records.
type MembershipRepository interface {
	GetByOrgAndUser(ctx context.Context, orgID, userID string) (*Membership, error)
}
