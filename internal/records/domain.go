package records

import (
	"time"

	"github.com/matwana/matwana/internal/authz"
)

// Type distinguishes the two operational record classes kept per vehicle.
type Type string

// Known record types.
const (
	TypeFuel        Type = "fuel"
	TypeMaintenance Type = "maintenance"
)

// Valid reports whether the type is known.
func (t Type) Valid() bool {
	return t == TypeFuel || t == TypeMaintenance
}

// Kind maps the record type onto its access-control resource kind.
func (t Type) Kind() authz.ResourceKind {
	if t == TypeFuel {
		return authz.KindFuel
	}
	return authz.KindMaintenance
}

// Record is a fuel purchase or a maintenance event for a vehicle. Ownership
// is not stored on the record; it is resolved through the vehicle.
type Record struct {
	ID          string
	SaccoID     string
	VehicleID   string
	Type        Type
	Description string
	CostCents   int64
	// Liters is only meaningful for fuel records.
	Liters     float64
	OdometerKM int
	RecordedAt time.Time
	CreatedAt  time.Time
	UpdatedAt  time.Time
}
