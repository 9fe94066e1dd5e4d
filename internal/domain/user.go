package domain

import (
	"context"
	"strings"
	"time"
)

// Profile field names reported by the full-profile check.
const (
	ProfileFieldName     = "name"
	ProfileFieldPronouns = "pronouns"
	ProfileFieldPicture  = "picture"
)

// User represents a registered user
// swagger:model User
type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	Name         string    `json:"name"`
	LastName     string    `json:"last_name"`
	Pronouns     string    `json:"pronouns"`
	PictureURL   string    `json:"picture_url"`
	PasswordHash string    `json:"-"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// FullName returns the user's display name, trimmed.
func (u *User) FullName() string {
	return strings.TrimSpace(u.Name + " " + u.LastName)
}

// MissingProfileFields returns the profile fields the user has not filled in
// yet, in a stable order. An empty slice means the profile is complete.
func (u *User) MissingProfileFields() []string {
	var missing []string
	if strings.TrimSpace(u.Name) == "" && strings.TrimSpace(u.LastName) == "" {
		missing = append(missing, ProfileFieldName)
	}
	if strings.TrimSpace(u.Pronouns) == "" {
		missing = append(missing, ProfileFieldPronouns)
	}
	if strings.TrimSpace(u.PictureURL) == "" {
		missing = append(missing, ProfileFieldPicture)
	}
	return missing
}

// PasswordHasher hashes and verifies user passwords.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Compare(hash, password string) error
}

// TokenIssuer issues tokens (e.g. JWT) for an authenticated user.
type TokenIssuer interface {
	Issue(userID, email string, expiry time.Duration) (string, error)
}

// TokenVerifier verifies a token and returns the authenticated user ID.
type TokenVerifier interface {
	Verify(token string) (userID string, err error)
}

// UserRepository defines the interface for user storage
type UserRepository interface {
	GetByID(ctx context.Context, id string) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
}

// UserService defines authentication operations. Session management and user
// CRUD are owned by an external collaborator.
type UserService interface {
	Login(ctx context.Context, email, password string) (token string, user *User, err error)
}
