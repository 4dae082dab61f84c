package authz

import (
	"context"

	"schoolhub/internal/model"
)

// Action is the kind of access requested.
type Action string

const (
	ActionRead  Action = "read"
	ActionWrite Action = "write"
)

// Resource types the guard knows about.
const (
	ResourceSchool       = "school"
	ResourceStudent      = "student"
	ResourceAttendance   = "attendance"
	ResourceHomework     = "homework"
	ResourceFees         = "fees"
	ResourceAnnouncement = "announcement"
	ResourceTimetable    = "timetable"
)

// Resource describes what a request wants to touch.
type Resource struct {
	Type      string
	SchoolID  uint
	StudentID uint // owning student, when the resource belongs to one
}

// Guard produces access decisions. It is deny-by-default: absence of a
// matching role, tenant or link is always a denial, never an implicit
// allow. Every mutating entry point must call it server-side, regardless
// of what the client already filtered.
type Guard struct {
	store Store
}

// NewGuard returns a Guard over the given store.
func NewGuard(store Store) *Guard {
	return &Guard{store: store}
}

// Can checks whether the principal may perform action on the resource.
// It returns nil on grant, ErrNoRoleAssigned for principals without any
// active role, and ErrForbidden otherwise.
func (g *Guard) Can(ctx context.Context, userID uint, res Resource, action Action) error {
	if userID == 0 {
		return ErrUnauthenticated
	}

	assignments, err := g.store.ActiveRoles(ctx, userID)
	if err != nil {
		return err
	}
	if len(assignments) == 0 {
		return ErrNoRoleAssigned
	}

	for _, a := range assignments {
		switch a.Role {
		case model.RoleSuperAdmin:
			return nil

		case model.RoleAdmin, model.RoleTeacher:
			scope, err := ScopeFor(a.Role, a.SchoolID)
			if err != nil {
				// A staff assignment without a school cannot resolve a
				// scope; it grants nothing rather than defaulting to one.
				continue
			}
			if scope.Covers(res.SchoolID) {
				return nil
			}

		case model.RoleParent:
			// Parents only read, and only records of students they hold a
			// verified link to.
			if action != ActionRead || res.StudentID == 0 {
				continue
			}
			ok, err := g.parentLinked(ctx, userID, res.StudentID)
			if err != nil {
				return err
			}
			if ok {
				return nil
			}
		}
	}

	return ErrForbidden
}

func (g *Guard) parentLinked(ctx context.Context, userID, studentID uint) (bool, error) {
	profile, err := g.store.ParentProfileByUser(ctx, userID)
	if err == ErrNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	ids, err := g.store.VerifiedStudentIDs(ctx, profile.ID)
	if err != nil {
		return false, err
	}
	for _, id := range ids {
		if id == studentID {
			return true, nil
		}
	}
	return false, nil
}
