package shared

import "errors"

var (
	// ErrNotFound indicates resource not found.
	ErrNotFound = errors.New("not found")
	// ErrDuplicate indicates a uniqueness conflict.
	ErrDuplicate = errors.New("duplicate entry")
	// ErrInvalidCredentials indicates login failure. Unknown account,
	// deactivated account and wrong password all map here so the response
	// never reveals which one it was.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrUnauthenticated indicates no resolvable actor for the request.
	ErrUnauthenticated = errors.New("unauthenticated")
	// ErrForbidden indicates an access rule denied the operation.
	ErrForbidden = errors.New("forbidden")
	// ErrCrossTenant is the Forbidden subtype raised when the denial was
	// purely a tenant or ownership mismatch; handlers log it distinctly.
	ErrCrossTenant = errors.New("cross-tenant access denied")
	// ErrHasDependents indicates a delete precondition failed because
	// dependent records still exist.
	ErrHasDependents = errors.New("record has dependents")
	// ErrCSRFTokenMissing occurs when CSRF token missing.
	ErrCSRFTokenMissing = errors.New("csrf token missing")
	// ErrCSRFTokenMismatch occurs when CSRF tokens do not match.
	ErrCSRFTokenMismatch = errors.New("csrf token mismatch")
)
