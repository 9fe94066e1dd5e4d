package domain

import (
	"context"
	"time"
)

// BlacklistEntry bars a person from an organization's events. Entries with a
// UserID (or an email matching the user's) are hard blocks; entries carrying
// only a name are matched fuzzily and require whitelist verification.
// swagger:model BlacklistEntry
type BlacklistEntry struct {
	ID             string    `json:"id"`
	OrganizationID string    `json:"organization_id"`
	UserID         string    `json:"user_id,omitempty"`
	Email          string    `json:"email,omitempty"`
	FullName       string    `json:"full_name"`
	CreatedAt      time.Time `json:"created_at"`
}

// WhitelistStatus is the status of a whitelist verification request.
type WhitelistStatus string

const (
	WhitelistPending  WhitelistStatus = "pending"
	WhitelistApproved WhitelistStatus = "approved"
)

// WhitelistEntry clears a user whose name fuzzily matched the blacklist.
// swagger:model WhitelistEntry
type WhitelistEntry struct {
	ID             string          `json:"id"`
	OrganizationID string          `json:"organization_id"`
	UserID         string          `json:"user_id"`
	Status         WhitelistStatus `json:"status"`
	CreatedAt      time.Time       `json:"created_at"`
}

// BlacklistRepository defines read access to blacklist and whitelist state.
type BlacklistRepository interface {
	ListByOrganization(ctx context.Context, orgID string) ([]*BlacklistEntry, error)
	GetWhitelistEntry(ctx context.Context, orgID, userID string) (*WhitelistEntry, error)
}
