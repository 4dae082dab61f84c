package authz

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolhub/internal/model"
)

func TestDefaultRolePriority(t *testing.T) {
	schoolA := uint(1)

	cases := []struct {
		name  string
		roles []model.RoleAssignment
		want  string
	}{
		{
			name: "admin outranks parent",
			roles: []model.RoleAssignment{
				{Role: model.RoleParent},
				{Role: model.RoleAdmin, SchoolID: &schoolA},
			},
			want: model.RoleAdmin,
		},
		{
			name: "super admin outranks everything",
			roles: []model.RoleAssignment{
				{Role: model.RoleAdmin, SchoolID: &schoolA},
				{Role: model.RoleSuperAdmin},
				{Role: model.RoleTeacher, SchoolID: &schoolA},
			},
			want: model.RoleSuperAdmin,
		},
		{
			name: "teacher outranks parent",
			roles: []model.RoleAssignment{
				{Role: model.RoleParent},
				{Role: model.RoleTeacher, SchoolID: &schoolA},
			},
			want: model.RoleTeacher,
		},
		{
			name:  "single role",
			roles: []model.RoleAssignment{{Role: model.RoleParent}},
			want:  model.RoleParent,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := DefaultRole(tc.roles)
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.Role)
		})
	}
}

func TestDefaultRoleEmpty(t *testing.T) {
	_, err := DefaultRole(nil)
	assert.ErrorIs(t, err, ErrNoRoleAssigned)
}

func TestSortByPriority(t *testing.T) {
	schoolA := uint(1)
	assignments := []model.RoleAssignment{
		{Role: model.RoleParent},
		{Role: model.RoleTeacher, SchoolID: &schoolA},
		{Role: model.RoleAdmin, SchoolID: &schoolA},
	}
	SortByPriority(assignments)

	assert.Equal(t, model.RoleAdmin, assignments[0].Role)
	assert.Equal(t, model.RoleTeacher, assignments[1].Role)
	assert.Equal(t, model.RoleParent, assignments[2].Role)
}

func TestFindRole(t *testing.T) {
	store := NewMemoryStore()
	schoolA := store.AddSchool("GIS2026", "Greenfield International", true)
	schoolB := store.AddSchool("NHS2026", "Northside High", true)
	store.AddRole(1, model.RoleTeacher, uintPtr(schoolA.ID), true)
	store.AddRole(1, model.RoleParent, nil, true)

	resolver := NewResolver(store)
	ctx := context.Background()

	got, err := resolver.FindRole(ctx, 1, model.RoleTeacher, uintPtr(schoolA.ID))
	require.NoError(t, err)
	assert.Equal(t, model.RoleTeacher, got.Role)

	got, err = resolver.FindRole(ctx, 1, model.RoleParent, nil)
	require.NoError(t, err)
	assert.Equal(t, model.RoleParent, got.Role)

	// Holding the role at a different school is not holding it here.
	_, err = resolver.FindRole(ctx, 1, model.RoleTeacher, uintPtr(schoolB.ID))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = resolver.FindRole(ctx, 1, model.RoleAdmin, uintPtr(schoolA.ID))
	assert.ErrorIs(t, err, ErrForbidden)

	_, err = resolver.FindRole(ctx, 99, model.RoleParent, nil)
	assert.ErrorIs(t, err, ErrNoRoleAssigned)
}

func TestParentProfileNotProvisioned(t *testing.T) {
	store := NewMemoryStore()
	store.AddRole(1, model.RoleParent, nil, true)

	resolver := NewResolver(store)
	_, err := resolver.ParentProfile(context.Background(), 1)
	assert.ErrorIs(t, err, ErrProfileNotProvisioned)
}

func TestEnsureParentProfileIdempotent(t *testing.T) {
	store := NewMemoryStore()
	resolver := NewResolver(store)
	ctx := context.Background()

	first, err := resolver.EnsureParentProfile(ctx, 1, "Parent One", "555-0100")
	require.NoError(t, err)
	require.NotZero(t, first.ID)

	second, err := resolver.EnsureParentProfile(ctx, 1, "Renamed", "555-0199")
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)
	assert.Equal(t, "Parent One", second.Name)
}

func TestTeacherProfile(t *testing.T) {
	store := NewMemoryStore()
	school := store.AddSchool("GIS2026", "Greenfield International", true)
	store.AddTeacherProfile(1, school.ID, "Ms. Rivera")

	resolver := NewResolver(store)
	ctx := context.Background()

	scope, err := ScopeFor(model.RoleTeacher, uintPtr(school.ID))
	require.NoError(t, err)

	profile, err := resolver.TeacherProfile(ctx, 1, scope)
	require.NoError(t, err)
	assert.Equal(t, "Ms. Rivera", profile.Name)

	// Role without a provisioned profile.
	_, err = resolver.TeacherProfile(ctx, 2, scope)
	assert.ErrorIs(t, err, ErrProfileNotProvisioned)

	// Global scope has no single school to look in.
	_, err = resolver.TeacherProfile(ctx, 1, GlobalScope)
	assert.ErrorIs(t, err, ErrScopeRequired)
}

func TestStudentRecord(t *testing.T) {
	store := NewMemoryStore()
	school := store.AddSchool("GIS2026", "Greenfield International", true)
	store.AddStudent(school.ID, "2024001", "Asha", "asha@example.com")

	resolver := NewResolver(store)
	ctx := context.Background()

	student, err := resolver.StudentRecord(ctx, "asha@example.com")
	require.NoError(t, err)
	assert.Equal(t, "2024001", student.AdmissionNo)

	_, err = resolver.StudentRecord(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrStudentRecordNotFound)
}

func TestLinkedStudentsCrossTenant(t *testing.T) {
	store := NewMemoryStore()
	schoolA := store.AddSchool("GIS2026", "Greenfield International", true)
	schoolB := store.AddSchool("NHS2026", "Northside High", true)
	inA := store.AddStudent(schoolA.ID, "2024001", "Asha", "")
	inB := store.AddStudent(schoolB.ID, "2024050", "Ben", "")
	pending := store.AddStudent(schoolA.ID, "2024002", "Noor", "")

	store.AddRole(1, model.RoleParent, nil, true)
	profile := model.ParentProfile{UserID: 1, Name: "Parent One"}
	require.NoError(t, store.CreateParentProfile(context.Background(), &profile))
	store.AddLink(profile.ID, inA.ID, model.LinkStatusVerified)
	store.AddLink(profile.ID, inB.ID, model.LinkStatusVerified)
	store.AddLink(profile.ID, pending.ID, model.LinkStatusPending)

	resolver := NewResolver(store)
	students, err := resolver.LinkedStudents(context.Background(), 1)
	require.NoError(t, err)

	// Verified links span schools; pending ones never show up.
	require.Len(t, students, 2)
	ids := []uint{students[0].ID, students[1].ID}
	assert.Contains(t, ids, inA.ID)
	assert.Contains(t, ids, inB.ID)
}
