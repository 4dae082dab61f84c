package authz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolhub/internal/model"
)

func TestScopeFor(t *testing.T) {
	scope, err := ScopeFor(model.RoleSuperAdmin, nil)
	require.NoError(t, err)
	assert.True(t, scope.Global)

	scope, err = ScopeFor(model.RoleTeacher, uintPtr(3))
	require.NoError(t, err)
	assert.Equal(t, uint(3), scope.SchoolID)
	assert.False(t, scope.Global)

	// Staff roles cannot resolve without a school.
	_, err = ScopeFor(model.RoleAdmin, nil)
	assert.ErrorIs(t, err, ErrScopeRequired)

	_, err = ScopeFor(model.RoleTeacher, uintPtr(0))
	assert.ErrorIs(t, err, ErrScopeRequired)
}

func TestScopeCovers(t *testing.T) {
	assert.True(t, GlobalScope.Covers(1))
	assert.True(t, GlobalScope.Covers(999))

	scope := Scope{SchoolID: 2}
	assert.True(t, scope.Covers(2))
	assert.False(t, scope.Covers(3))

	// The zero scope covers nothing, including school zero.
	assert.False(t, Scope{}.Covers(0))
	assert.False(t, Scope{}.Covers(1))
}

func TestScopeValid(t *testing.T) {
	assert.True(t, GlobalScope.Valid())
	assert.True(t, Scope{SchoolID: 1}.Valid())
	assert.False(t, Scope{}.Valid())
}

func TestScopeApplyFailsClosed(t *testing.T) {
	_, err := Scope{}.Apply(nil)
	assert.ErrorIs(t, err, ErrScopeRequired)
}

func TestSessionScope(t *testing.T) {
	// No activated role context: fail closed.
	_, err := Session{UserID: 1, Email: "a@example.com"}.Scope()
	assert.ErrorIs(t, err, ErrScopeRequired)

	s := Session{UserID: 1, Role: model.RoleTeacher, SchoolID: uintPtr(4)}
	scope, err := s.Scope()
	require.NoError(t, err)
	assert.Equal(t, uint(4), scope.SchoolID)

	scope, err = Session{UserID: 1, Role: model.RoleSuperAdmin}.Scope()
	require.NoError(t, err)
	assert.True(t, scope.Global)
}

func TestSessionFlags(t *testing.T) {
	assert.False(t, Session{}.Authenticated())
	assert.True(t, Session{UserID: 1}.Authenticated())
	assert.False(t, Session{UserID: 1}.Activated())
	assert.True(t, Session{UserID: 1, Role: model.RoleParent}.Activated())
}
