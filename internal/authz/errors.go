package authz

import "errors"

// Error taxonomy for identity and access resolution. Handlers translate
// these into user-facing responses in one place; none of them should ever
// reach the client as a raw error string.
var (
	// ErrUnauthenticated means no valid session was presented.
	ErrUnauthenticated = errors.New("authz: unauthenticated")

	// ErrNoRoleAssigned means the principal exists but holds no active role.
	ErrNoRoleAssigned = errors.New("authz: no role assigned")

	// ErrScopeRequired means a data access was attempted without a tenant scope.
	ErrScopeRequired = errors.New("authz: tenant scope required")

	// ErrProfileNotProvisioned means a role is assigned but its school-scoped
	// profile record has not been created by an administrator yet.
	ErrProfileNotProvisioned = errors.New("authz: profile not provisioned")

	// ErrStudentRecordNotFound means no student record matches the signed-in email.
	ErrStudentRecordNotFound = errors.New("authz: student record not found")

	// ErrForbidden means no held role grants access to the resource.
	ErrForbidden = errors.New("authz: forbidden")

	// ErrAlreadyLinked means a parent-student link for the pair already exists.
	ErrAlreadyLinked = errors.New("authz: already linked")

	// ErrNotFound means the resource does not exist.
	ErrNotFound = errors.New("authz: not found")

	// ErrValidationFailed means the input was malformed.
	ErrValidationFailed = errors.New("authz: validation failed")
)
