package staff

import "time"

// Member is a user account scoped to a sacco: admins, vehicle owners,
// drivers and conductors. The platform superadmin is not managed here.
type Member struct {
	ID         string
	SaccoID    string
	Name       string
	Email      string
	Phone      string
	Role       string
	VehicleIDs []string
	IsActive   bool
	LastLogin  *time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
