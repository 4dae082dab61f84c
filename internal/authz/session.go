package authz

// Session is the authenticated principal resolved from a request token,
// plus the role context activated for this session (if any). Resolving a
// session has no side effects and is cheap enough to run on every request.
type Session struct {
	UserID   uint
	Email    string
	Role     string // activated role, empty until the principal picks one
	SchoolID *uint  // school of the activated role, nil for super_admin or none
}

// Authenticated reports whether the session carries a principal.
func (s Session) Authenticated() bool {
	return s.UserID != 0
}

// Activated reports whether a role context has been activated.
func (s Session) Activated() bool {
	return s.Role != ""
}

// Scope returns the tenant scope of the activated role context. It fails
// closed: a session without an activated role yields ErrScopeRequired.
func (s Session) Scope() (Scope, error) {
	if !s.Activated() {
		return Scope{}, ErrScopeRequired
	}
	return ScopeFor(s.Role, s.SchoolID)
}
