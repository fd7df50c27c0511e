package vehicles

import "time"

// Status enumerates vehicle operational states.
type Status string

// Vehicle statuses.
const (
	StatusActive      Status = "active"
	StatusMaintenance Status = "maintenance"
	StatusInactive    Status = "inactive"
)

// Valid reports whether the status is a known one.
func (s Status) Valid() bool {
	switch s {
	case StatusActive, StatusMaintenance, StatusInactive:
		return true
	}
	return false
}

// Vehicle is a matatu registered under a sacco.
type Vehicle struct {
	ID                 string
	SaccoID            string
	RegistrationNumber string
	Make               string
	Model              string
	Year               int
	Capacity           int
	OwnerID            string
	DriverIDs          []string
	Route              string
	Status             Status
	InsuranceExpiry    time.Time
	InspectionExpiry   time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
