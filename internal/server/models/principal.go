// Package models defines server-side data models persisted in the database.
package models

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// Kind selects the namespace a principal lives in. Admins and regular users
// are stored separately and never share uniqueness constraints.
type Kind int

const (
	KindAdmin Kind = iota
	KindRegular
)

// Role values as exposed to clients.
const (
	RoleAdmin    = "admin"
	RoleNonAdmin = "non_admin"
)

// Role returns the role string attached to principals of this kind.
func (k Kind) Role() string {
	if k == KindAdmin {
		return RoleAdmin
	}
	return RoleNonAdmin
}

func (k Kind) String() string {
	switch k {
	case KindAdmin:
		return "admin"
	case KindRegular:
		return "regular"
	default:
		return "unknown"
	}
}

// Principal is an account that can authenticate.
type Principal struct {
	ID              string    `json:"id"`
	Kind            Kind      `json:"-"`
	Username        string    `json:"username"`
	Email           string    `json:"email"`
	PasswordHash    string    `json:"-"`
	ProfileImageURL string    `json:"user_profile_image,omitempty"`
	Role            string    `json:"role"`
	CreatedAt       time.Time `json:"date_created"`
}

// Public returns a copy safe to hand out: the password hash is cleared.
func (p *Principal) Public() *Principal {
	cp := *p
	cp.PasswordHash = ""
	return &cp
}

// NewID returns a fresh identifier: a v4 UUID rendered as 32 hex characters.
func NewID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}
