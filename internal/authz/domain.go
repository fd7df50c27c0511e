// Package authz centralises tenant and ownership access rules. It is pure
// decision logic: handlers build a Resource descriptor, ask for a Decision
// before mutating and a Predicate before listing, and repositories apply the
// predicate to their queries.
package authz

import (
	"fmt"
	"slices"
)

// Role identifies the closed set of actor roles.
type Role string

// Known roles.
const (
	RoleSuperadmin Role = "superadmin"
	RoleAdmin      Role = "admin"
	RoleOwner      Role = "owner"
	RoleDriver     Role = "driver"
	RoleConductor  Role = "conductor"
)

// ParseRole converts a stored role string into a Role.
func ParseRole(value string) (Role, error) {
	role := Role(value)
	switch role {
	case RoleSuperadmin, RoleAdmin, RoleOwner, RoleDriver, RoleConductor:
		return role, nil
	}
	return "", fmt.Errorf("authz: unknown role %q", value)
}

// Operation identifies what the actor wants to do with a resource.
type Operation string

// Supported operations.
const (
	OpCreate       Operation = "create"
	OpRead         Operation = "read"
	OpUpdate       Operation = "update"
	OpDelete       Operation = "delete"
	OpChangeStatus Operation = "change_status"
)

// ResourceKind identifies the entity class a rule applies to.
type ResourceKind string

// Known resource kinds.
const (
	KindSacco       ResourceKind = "sacco"
	KindVehicle     ResourceKind = "vehicle"
	KindStaff       ResourceKind = "staff"
	KindTrip        ResourceKind = "trip"
	KindFuel        ResourceKind = "fuel"
	KindMaintenance ResourceKind = "maintenance"
	KindRemittance  ResourceKind = "remittance"
	KindAudit       ResourceKind = "audit"
)

// Actor is the authenticated identity making a request. It is built once per
// request by the auth resolver and passed explicitly; nothing in this package
// reads ambient state.
type Actor struct {
	ID      string
	Role    Role
	SaccoID string
}

// Validate reports whether the actor satisfies the structural contract:
// every actor has an ID, and every actor except the superadmin belongs to a
// SACCO. A violation here is a bug in the caller, not a request error.
func (a Actor) Validate() error {
	if a.ID == "" {
		return fmt.Errorf("authz: actor without id")
	}
	if a.Role != RoleSuperadmin && a.SaccoID == "" {
		return fmt.Errorf("authz: actor %s with role %s has no sacco", a.ID, a.Role)
	}
	return nil
}

// Resource describes the target of an operation. Ownership of fuel,
// maintenance and remittance records is transitive through the vehicle they
// reference; the caller resolves that into OwnerID before asking.
type Resource struct {
	Kind    ResourceKind
	SaccoID string
	// OwnerID is set for vehicles and remittances, and for records resolved
	// through their vehicle.
	OwnerID string
	// AssignedIDs is the driver/conductor roster for vehicles and trips.
	AssignedIDs []string
	// DriverID and ConductorID are set when creating a trip.
	DriverID    string
	ConductorID string
	// DependentCount carries the vehicle count when deleting a sacco.
	DependentCount int
}

// Assigned reports whether the actor appears on the resource roster.
func (r Resource) Assigned(actorID string) bool {
	return slices.Contains(r.AssignedIDs, actorID)
}

// Reason classifies why a decision denied access.
type Reason string

// Denial reasons.
const (
	ReasonNone            Reason = ""
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonForbidden       Reason = "forbidden"
	ReasonCrossTenant     Reason = "cross_tenant"
	ReasonHasDependents   Reason = "has_dependents"
)

// Decision is the outcome of an Authorize call.
type Decision struct {
	Allowed bool
	Reason  Reason
}

func allow() Decision {
	return Decision{Allowed: true}
}

func deny(reason Reason) Decision {
	return Decision{Reason: reason}
}

// Predicate is an additional constraint repositories merge into list queries.
// Callers may only narrow it further, never widen it. A MatchNone predicate
// must produce zero rows.
type Predicate struct {
	SaccoID    string
	OwnerID    string
	AssignedID string
	MatchNone  bool
}

// Empty reports whether the predicate imposes no restriction.
func (p Predicate) Empty() bool {
	return p == Predicate{}
}
