package shared

import "github.com/matwana/matwana/internal/authz"

// DecisionError converts a denial into its sentinel error. Allowed
// decisions map to nil.
func DecisionError(d authz.Decision) error {
	if d.Allowed {
		return nil
	}
	switch d.Reason {
	case authz.ReasonUnauthenticated:
		return ErrUnauthenticated
	case authz.ReasonCrossTenant:
		return ErrCrossTenant
	case authz.ReasonHasDependents:
		return ErrHasDependents
	default:
		return ErrForbidden
	}
}
