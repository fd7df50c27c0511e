package authz

import "testing"

var (
	superadmin = Actor{ID: "sa-1", Role: RoleSuperadmin}
	admin      = Actor{ID: "adm-1", Role: RoleAdmin, SaccoID: "sacco-a"}
	owner      = Actor{ID: "own-1", Role: RoleOwner, SaccoID: "sacco-a"}
	driver     = Actor{ID: "drv-1", Role: RoleDriver, SaccoID: "sacco-a"}
	conductor  = Actor{ID: "cnd-1", Role: RoleConductor, SaccoID: "sacco-a"}
)

var allOperations = []Operation{OpCreate, OpRead, OpUpdate, OpDelete, OpChangeStatus}

var allKinds = []ResourceKind{
	KindSacco, KindVehicle, KindStaff, KindTrip,
	KindFuel, KindMaintenance, KindRemittance, KindAudit,
}

func TestSuperadminAllowedEverywhere(t *testing.T) {
	for _, kind := range allKinds {
		for _, op := range allOperations {
			res := Resource{Kind: kind, SaccoID: "sacco-b"}
			got := Authorize(superadmin, op, res)
			if !got.Allowed {
				t.Errorf("superadmin %s %s: denied with %q", op, kind, got.Reason)
			}
		}
	}
}

func TestSaccoDeleteDependents(t *testing.T) {
	withVehicles := Resource{Kind: KindSacco, SaccoID: "sacco-b", DependentCount: 1}
	got := Authorize(superadmin, OpDelete, withVehicles)
	if got.Allowed || got.Reason != ReasonHasDependents {
		t.Fatalf("delete with dependents: got %+v, want HasDependents", got)
	}

	empty := Resource{Kind: KindSacco, SaccoID: "sacco-b"}
	if got := Authorize(superadmin, OpDelete, empty); !got.Allowed {
		t.Fatalf("delete without dependents: got %+v, want allowed", got)
	}

	// Admins never delete saccos, even their own and even empty ones.
	own := Resource{Kind: KindSacco, SaccoID: admin.SaccoID}
	if got := Authorize(admin, OpDelete, own); got.Allowed || got.Reason != ReasonForbidden {
		t.Fatalf("admin delete own sacco: got %+v, want Forbidden", got)
	}
}

func TestSaccoStatusSuperadminOnly(t *testing.T) {
	res := Resource{Kind: KindSacco, SaccoID: admin.SaccoID}
	for _, actor := range []Actor{admin, owner, driver, conductor} {
		got := Authorize(actor, OpChangeStatus, res)
		if got.Allowed || got.Reason != ReasonForbidden {
			t.Errorf("%s change sacco status: got %+v, want Forbidden", actor.Role, got)
		}
	}
	if got := Authorize(superadmin, OpChangeStatus, res); !got.Allowed {
		t.Errorf("superadmin change sacco status: got %+v", got)
	}
}

func TestAdminScopedToTenant(t *testing.T) {
	for _, kind := range []ResourceKind{KindVehicle, KindStaff, KindTrip, KindFuel, KindMaintenance, KindRemittance, KindAudit} {
		same := Resource{Kind: kind, SaccoID: admin.SaccoID}
		for _, op := range allOperations {
			if got := Authorize(admin, op, same); !got.Allowed {
				t.Errorf("admin %s %s in tenant: denied with %q", op, kind, got.Reason)
			}
		}
		other := Resource{Kind: kind, SaccoID: "sacco-b"}
		for _, op := range allOperations {
			got := Authorize(admin, op, other)
			if got.Allowed || got.Reason != ReasonCrossTenant {
				t.Errorf("admin %s %s cross tenant: got %+v, want CrossTenant", op, kind, got)
			}
		}
	}

	// Updating the sacco record itself is allowed in tenant; status and
	// deletion are covered by the superadmin-only rules above.
	if got := Authorize(admin, OpUpdate, Resource{Kind: KindSacco, SaccoID: admin.SaccoID}); !got.Allowed {
		t.Errorf("admin update own sacco: got %+v", got)
	}
}

func TestOwnerReadOnly(t *testing.T) {
	mine := Resource{Kind: KindVehicle, SaccoID: owner.SaccoID, OwnerID: owner.ID}
	if got := Authorize(owner, OpRead, mine); !got.Allowed {
		t.Fatalf("owner read own vehicle: got %+v", got)
	}
	for _, op := range []Operation{OpCreate, OpUpdate, OpDelete, OpChangeStatus} {
		got := Authorize(owner, op, mine)
		if got.Allowed || got.Reason != ReasonForbidden {
			t.Errorf("owner %s own vehicle: got %+v, want Forbidden", op, got)
		}
	}

	other := Resource{Kind: KindVehicle, SaccoID: owner.SaccoID, OwnerID: "own-2"}
	got := Authorize(owner, OpRead, other)
	if got.Allowed || got.Reason != ReasonCrossTenant {
		t.Fatalf("owner read other vehicle: got %+v, want CrossTenant", got)
	}

	// Records resolved through an owned vehicle are readable.
	for _, kind := range []ResourceKind{KindRemittance, KindFuel, KindMaintenance, KindTrip} {
		res := Resource{Kind: kind, SaccoID: owner.SaccoID, OwnerID: owner.ID}
		if got := Authorize(owner, OpRead, res); !got.Allowed {
			t.Errorf("owner read %s: got %+v", kind, got)
		}
	}

	// Kinds outside the owner surface stay forbidden even when owned.
	staff := Resource{Kind: KindStaff, SaccoID: owner.SaccoID, OwnerID: owner.ID}
	if got := Authorize(owner, OpRead, staff); got.Allowed || got.Reason != ReasonForbidden {
		t.Errorf("owner read staff: got %+v, want Forbidden", got)
	}
}

func TestCrewAssignmentRules(t *testing.T) {
	for _, actor := range []Actor{driver, conductor} {
		assigned := Resource{Kind: KindVehicle, SaccoID: actor.SaccoID, AssignedIDs: []string{"drv-9", actor.ID}}
		if got := Authorize(actor, OpRead, assigned); !got.Allowed {
			t.Errorf("%s read assigned vehicle: got %+v", actor.Role, got)
		}
		unassigned := Resource{Kind: KindVehicle, SaccoID: actor.SaccoID, AssignedIDs: []string{"drv-9"}}
		got := Authorize(actor, OpRead, unassigned)
		if got.Allowed || got.Reason != ReasonCrossTenant {
			t.Errorf("%s read unassigned vehicle: got %+v, want CrossTenant", actor.Role, got)
		}
		if got := Authorize(actor, OpUpdate, assigned); got.Allowed {
			t.Errorf("%s update vehicle: allowed", actor.Role)
		}
	}
}

func TestCrewTripSelfLogging(t *testing.T) {
	own := Resource{Kind: KindTrip, SaccoID: driver.SaccoID, DriverID: driver.ID}
	if got := Authorize(driver, OpCreate, own); !got.Allowed {
		t.Fatalf("driver log own trip: got %+v", got)
	}
	asConductor := Resource{Kind: KindTrip, SaccoID: conductor.SaccoID, ConductorID: conductor.ID}
	if got := Authorize(conductor, OpCreate, asConductor); !got.Allowed {
		t.Fatalf("conductor log own trip: got %+v", got)
	}
	foreign := Resource{Kind: KindTrip, SaccoID: driver.SaccoID, DriverID: "drv-9"}
	got := Authorize(driver, OpCreate, foreign)
	if got.Allowed || got.Reason != ReasonForbidden {
		t.Fatalf("driver log foreign trip: got %+v, want Forbidden", got)
	}
}

func TestScopeFilter(t *testing.T) {
	if got := ScopeFilter(superadmin, KindVehicle); !got.Empty() {
		t.Errorf("superadmin predicate: %+v, want empty", got)
	}
	if got := ScopeFilter(admin, KindTrip); got != (Predicate{SaccoID: admin.SaccoID}) {
		t.Errorf("admin predicate: %+v", got)
	}
	for _, kind := range []ResourceKind{KindVehicle, KindRemittance, KindFuel, KindMaintenance, KindTrip} {
		if got := ScopeFilter(owner, kind); got != (Predicate{OwnerID: owner.ID}) {
			t.Errorf("owner predicate for %s: %+v", kind, got)
		}
	}
	for _, kind := range []ResourceKind{KindVehicle, KindTrip} {
		if got := ScopeFilter(driver, kind); got != (Predicate{AssignedID: driver.ID}) {
			t.Errorf("driver predicate for %s: %+v", kind, got)
		}
	}
}

func TestScopeFilterFailsClosed(t *testing.T) {
	cases := []struct {
		name  string
		actor Actor
		kind  ResourceKind
	}{
		{"owner over staff", owner, KindStaff},
		{"owner over audit", owner, KindAudit},
		{"driver over remittance", driver, KindRemittance},
		{"conductor over sacco", conductor, KindSacco},
		{"unknown role", Actor{ID: "x-1", Role: Role("auditor"), SaccoID: "sacco-a"}, KindVehicle},
		{"unknown kind for crew", driver, ResourceKind("route")},
	}
	for _, tc := range cases {
		got := ScopeFilter(tc.actor, tc.kind)
		if !got.MatchNone {
			t.Errorf("%s: got %+v, want MatchNone", tc.name, got)
		}
		if got.Empty() {
			t.Errorf("%s: predicate resolved to unrestricted", tc.name)
		}
	}

	// Admin carries a blanket tenant rule, so even an unknown kind stays
	// scoped to the tenant rather than matching nothing.
	if got := ScopeFilter(admin, ResourceKind("route")); got.SaccoID != admin.SaccoID {
		t.Errorf("admin unknown kind: %+v", got)
	}
}

func TestUnknownRoleNeverAllowed(t *testing.T) {
	synthetic := Actor{ID: "x-1", Role: Role("dispatcher"), SaccoID: "sacco-a"}
	for _, kind := range allKinds {
		for _, op := range allOperations {
			got := Authorize(synthetic, op, Resource{Kind: kind, SaccoID: synthetic.SaccoID})
			if got.Allowed {
				t.Fatalf("unknown role allowed %s on %s", op, kind)
			}
		}
	}
}

func TestDecisionsAreIdempotent(t *testing.T) {
	res := Resource{Kind: KindVehicle, SaccoID: "sacco-a", OwnerID: owner.ID}
	first := Authorize(owner, OpRead, res)
	for i := 0; i < 3; i++ {
		if got := Authorize(owner, OpRead, res); got != first {
			t.Fatalf("decision drifted: %+v then %+v", first, got)
		}
	}
	firstPred := ScopeFilter(driver, KindTrip)
	for i := 0; i < 3; i++ {
		if got := ScopeFilter(driver, KindTrip); got != firstPred {
			t.Fatalf("predicate drifted: %+v then %+v", firstPred, got)
		}
	}
}

func TestInvalidActorPanics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatal("expected panic for admin without sacco")
		}
	}()
	Authorize(Actor{ID: "adm-9", Role: RoleAdmin}, OpRead, Resource{Kind: KindVehicle})
}

func TestParseRole(t *testing.T) {
	for _, value := range []string{"superadmin", "admin", "owner", "driver", "conductor"} {
		role, err := ParseRole(value)
		if err != nil {
			t.Fatalf("parse %q: %v", value, err)
		}
		if string(role) != value {
			t.Fatalf("parse %q: got %q", value, role)
		}
	}
	if _, err := ParseRole("root"); err == nil {
		t.Fatal("expected error for unknown role")
	}
}
