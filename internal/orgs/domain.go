package orgs

import "time"

// Status enumerates sacco lifecycle states.
type Status string

// Sacco statuses.
const (
	StatusActive    Status = "active"
	StatusSuspended Status = "suspended"
	StatusInactive  Status = "inactive"
)

// Valid reports whether the status is a known one.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusSuspended, StatusInactive:
		return true
	}
	return false
}

// Sacco is a transport cooperative: the unit of tenancy.
type Sacco struct {
	ID                 string
	Name               string
	RegistrationNumber string
	Location           string
	ContactPerson      string
	Phone              string
	Email              string
	CommissionRate     float64
	Status             Status
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
