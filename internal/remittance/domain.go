package remittance

import "time"

// Status tracks whether a remittance has been settled.
type Status string

// Known statuses.
const (
	StatusPending Status = "pending"
	StatusPaid    Status = "paid"
	StatusWaived  Status = "waived"
)

// Valid reports whether the status is known.
func (s Status) Valid() bool {
	switch s {
	case StatusPending, StatusPaid, StatusWaived:
		return true
	}
	return false
}

// Remittance is the daily amount a vehicle owner settles with the sacco.
// Unlike fuel and maintenance records the owner is denormalised onto the
// row, since the obligation survives the vehicle changing hands.
type Remittance struct {
	ID          string
	SaccoID     string
	VehicleID   string
	OwnerID     string
	AmountCents int64
	ForDate     time.Time
	Status      Status
	PaidAt      *time.Time
	CreatedAt   time.Time
	UpdatedAt   time.Time
}
