package authz

import (
	"gorm.io/gorm"

	"schoolhub/internal/model"
)

// Scope is the data partition a resolved role may read. The zero Scope is
// invalid on purpose: every query helper rejects it with ErrScopeRequired,
// so a request that skipped role resolution cannot touch tenant data.
type Scope struct {
	SchoolID uint
	Global   bool
}

// GlobalScope is the super-admin scope covering every school.
var GlobalScope = Scope{Global: true}

// ScopeFor derives the scope of a resolved (role, school) pair. Only
// super_admin resolves globally; every other role must carry a school.
func ScopeFor(role string, schoolID *uint) (Scope, error) {
	if role == model.RoleSuperAdmin {
		return GlobalScope, nil
	}
	if schoolID == nil || *schoolID == 0 {
		return Scope{}, ErrScopeRequired
	}
	return Scope{SchoolID: *schoolID}, nil
}

// Valid reports whether the scope restricts to a school or is explicitly global.
func (s Scope) Valid() bool {
	return s.Global || s.SchoolID != 0
}

// Covers reports whether the scope grants access to data of the given school.
func (s Scope) Covers(schoolID uint) bool {
	if s.Global {
		return true
	}
	return s.SchoolID != 0 && s.SchoolID == schoolID
}

// Apply restricts a query to the scope's school. Queries without a valid
// scope fail closed.
func (s Scope) Apply(db *gorm.DB) (*gorm.DB, error) {
	if !s.Valid() {
		return nil, ErrScopeRequired
	}
	if s.Global {
		return db, nil
	}
	return db.Where("school_id = ?", s.SchoolID), nil
}
