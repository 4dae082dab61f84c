package authz

import (
	"context"
	"sort"

	"schoolhub/internal/model"
)

// Resolver answers "who is this principal within a tenant": its roles, its
// default role context, and its role-specific profile records.
type Resolver struct {
	store Store
}

// NewResolver returns a Resolver over the given store.
func NewResolver(store Store) *Resolver {
	return &Resolver{store: store}
}

// SortByPriority orders role assignments highest priority first so the
// first entry is the default activation candidate.
func SortByPriority(assignments []model.RoleAssignment) {
	sort.SliceStable(assignments, func(i, j int) bool {
		return model.RolePriority(assignments[i].Role) > model.RolePriority(assignments[j].Role)
	})
}

// Roles returns the principal's active role assignments, highest priority
// first. An empty result is valid; callers surface it as ErrNoRoleAssigned.
func (r *Resolver) Roles(ctx context.Context, userID uint) ([]model.RoleAssignment, error) {
	return r.store.ActiveRoles(ctx, userID)
}

// DefaultRole picks the role context activated after login when the
// principal has not chosen one explicitly: the fixed priority order
// super_admin > admin > teacher > parent.
func DefaultRole(assignments []model.RoleAssignment) (*model.RoleAssignment, error) {
	if len(assignments) == 0 {
		return nil, ErrNoRoleAssigned
	}
	best := assignments[0]
	for _, a := range assignments[1:] {
		if model.RolePriority(a.Role) > model.RolePriority(best.Role) {
			best = a
		}
	}
	return &best, nil
}

// FindRole returns the principal's active assignment matching (role, school),
// or ErrForbidden when it is not held. A nil schoolID matches only global
// assignments.
func (r *Resolver) FindRole(ctx context.Context, userID uint, role string, schoolID *uint) (*model.RoleAssignment, error) {
	assignments, err := r.store.ActiveRoles(ctx, userID)
	if err != nil {
		return nil, err
	}
	if len(assignments) == 0 {
		return nil, ErrNoRoleAssigned
	}
	for _, a := range assignments {
		if a.Role != role {
			continue
		}
		if a.SchoolID == nil && schoolID == nil {
			return &a, nil
		}
		if a.SchoolID != nil && schoolID != nil && *a.SchoolID == *schoolID {
			return &a, nil
		}
	}
	return nil, ErrForbidden
}

// ParentProfile returns the principal's parent profile. Absence is a
// provisioning error: the profile is created at signup, never lazily here.
func (r *Resolver) ParentProfile(ctx context.Context, userID uint) (*model.ParentProfile, error) {
	profile, err := r.store.ParentProfileByUser(ctx, userID)
	if err == ErrNotFound {
		return nil, ErrProfileNotProvisioned
	}
	return profile, err
}

// EnsureParentProfile returns the existing parent profile or creates one.
// Only the signup flow may call this; every other path uses ParentProfile.
func (r *Resolver) EnsureParentProfile(ctx context.Context, userID uint, name, phone string) (*model.ParentProfile, error) {
	profile, err := r.store.ParentProfileByUser(ctx, userID)
	if err == nil {
		return profile, nil
	}
	if err != ErrNotFound {
		return nil, err
	}
	profile = &model.ParentProfile{UserID: userID, Name: name, Phone: phone}
	if err := r.store.CreateParentProfile(ctx, profile); err != nil {
		return nil, err
	}
	return profile, nil
}

// TeacherProfile returns the teacher/admin profile within the scope's
// school. A held role without a provisioned profile is a recoverable,
// user-visible state, not a crash.
func (r *Resolver) TeacherProfile(ctx context.Context, userID uint, scope Scope) (*model.TeacherProfile, error) {
	if !scope.Valid() || scope.Global {
		return nil, ErrScopeRequired
	}
	profile, err := r.store.TeacherProfileByUser(ctx, userID, scope.SchoolID)
	if err == ErrNotFound {
		return nil, ErrProfileNotProvisioned
	}
	return profile, err
}

// StudentRecord matches the signed-in email against a student record.
// Students carry no dedicated credential in this model.
func (r *Resolver) StudentRecord(ctx context.Context, email string) (*model.Student, error) {
	student, err := r.store.StudentByEmail(ctx, email)
	if err == ErrNotFound {
		return nil, ErrStudentRecordNotFound
	}
	return student, err
}

// LinkedStudents returns the students the parent principal may see, across
// all schools. Parents are the one role exempt from single-tenant scoping.
func (r *Resolver) LinkedStudents(ctx context.Context, userID uint) ([]model.Student, error) {
	profile, err := r.ParentProfile(ctx, userID)
	if err != nil {
		return nil, err
	}
	return r.store.LinkedStudents(ctx, profile.ID)
}
