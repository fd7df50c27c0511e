package authz

import "fmt"

// ownerKinds are the resource kinds a vehicle owner may read.
var ownerKinds = map[ResourceKind]struct{}{
	KindVehicle:     {},
	KindRemittance:  {},
	KindFuel:        {},
	KindMaintenance: {},
	KindTrip:        {},
}

// Authorize decides whether the actor may perform op on the resource. It
// always returns a Decision for a structurally valid actor; it panics when
// the actor violates the Actor contract, since that means the resolver or a
// handler constructed it by hand incorrectly.
func Authorize(actor Actor, op Operation, res Resource) Decision {
	mustBeValid(actor)

	switch actor.Role {
	case RoleSuperadmin:
		// Deleting a sacco is refused while vehicles still reference it, so
		// the caller can report the precondition rather than a flat denial.
		if res.Kind == KindSacco && op == OpDelete && res.DependentCount > 0 {
			return deny(ReasonHasDependents)
		}
		return allow()
	}

	// Sacco lifecycle is reserved for the superadmin: no other role deletes
	// a sacco or flips its status, tenant match or not.
	if res.Kind == KindSacco && (op == OpDelete || op == OpChangeStatus) {
		return deny(ReasonForbidden)
	}

	switch actor.Role {
	case RoleAdmin:
		if res.SaccoID != actor.SaccoID {
			return deny(ReasonCrossTenant)
		}
		return allow()

	case RoleOwner:
		// Owners are read-only over operational data tied to their vehicles.
		if op != OpRead {
			return deny(ReasonForbidden)
		}
		if _, ok := ownerKinds[res.Kind]; !ok {
			return deny(ReasonForbidden)
		}
		if res.OwnerID != actor.ID {
			return deny(ReasonCrossTenant)
		}
		return allow()

	case RoleDriver, RoleConductor:
		switch op {
		case OpRead:
			if res.Kind != KindVehicle && res.Kind != KindTrip {
				return deny(ReasonForbidden)
			}
			if !res.Assigned(actor.ID) {
				return deny(ReasonCrossTenant)
			}
			return allow()
		case OpCreate:
			// Crew may log their own trips.
			if res.Kind == KindTrip && (res.DriverID == actor.ID || res.ConductorID == actor.ID) {
				return allow()
			}
		}
		return deny(ReasonForbidden)
	}

	return deny(ReasonForbidden)
}

// ScopeFilter returns the predicate a list query must apply so the actor only
// observes rows it is entitled to see. Combinations with no defined rule
// resolve to a match-nothing predicate, never to an unrestricted one.
func ScopeFilter(actor Actor, kind ResourceKind) Predicate {
	mustBeValid(actor)

	switch actor.Role {
	case RoleSuperadmin:
		return Predicate{}
	case RoleAdmin:
		return Predicate{SaccoID: actor.SaccoID}
	case RoleOwner:
		// For records the ownership constraint is expressed against the
		// owning vehicle; repositories translate it into a vehicle join.
		if _, ok := ownerKinds[kind]; ok {
			return Predicate{OwnerID: actor.ID}
		}
	case RoleDriver, RoleConductor:
		if kind == KindVehicle || kind == KindTrip {
			return Predicate{AssignedID: actor.ID}
		}
	}
	return Predicate{MatchNone: true}
}

func mustBeValid(actor Actor) {
	if err := actor.Validate(); err != nil {
		panic(fmt.Sprintf("authz: invalid actor: %v", err))
	}
}
