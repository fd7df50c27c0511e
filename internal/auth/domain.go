package auth

import "time"

// Identity represents a stored user account as persisted, before it is
// normalised into an authz.Actor.
type Identity struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Role         string
	SaccoID      string // empty for the platform superadmin
	IsActive     bool
	LastLogin    *time.Time
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
