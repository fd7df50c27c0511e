package trips

import "time"

// Payment methods accepted for fare collection.
const (
	PaymentCash  = "cash"
	PaymentMpesa = "mpesa"
	PaymentOther = "other"
)

// Trip is a single revenue run by a vehicle. Fare amounts are kept in
// cents to avoid float arithmetic on money.
type Trip struct {
	ID             string
	SaccoID        string
	VehicleID      string
	DriverID       string
	ConductorID    string
	Route          string
	FareCents      int64
	PaymentMethod  string
	PassengerCount int
	DepartedAt     time.Time
	ArrivedAt      *time.Time
	CreatedAt      time.Time
	UpdatedAt      time.Time
}
