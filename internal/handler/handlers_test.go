package handler

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"schoolhub/internal/authz"
	"schoolhub/internal/model"
)

func newTestContext(t *testing.T, method, path, body string, sess *authz.Session) (echo.Context, *httptest.ResponseRecorder) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if sess != nil {
		c.Set("session", *sess)
	}
	return c, rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRespondErrorMapping(t *testing.T) {
	cases := []struct {
		name     string
		err      error
		wantCode int
	}{
		{"unauthenticated", authz.ErrUnauthenticated, http.StatusUnauthorized},
		{"no role", authz.ErrNoRoleAssigned, http.StatusForbidden},
		{"scope required", authz.ErrScopeRequired, http.StatusForbidden},
		{"profile not provisioned", authz.ErrProfileNotProvisioned, http.StatusForbidden},
		{"student record not found", authz.ErrStudentRecordNotFound, http.StatusForbidden},
		{"already linked", authz.ErrAlreadyLinked, http.StatusConflict},
		{"validation", authz.ErrValidationFailed, http.StatusBadRequest},
		{"forbidden", authz.ErrForbidden, http.StatusNotFound},
		{"not found", authz.ErrNotFound, http.StatusNotFound},
		{"gorm record not found", gorm.ErrRecordNotFound, http.StatusNotFound},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newTestContext(t, http.MethodGet, "/", "", nil)
			require.NoError(t, respondError(c, tc.err))
			assert.Equal(t, tc.wantCode, rec.Code)
		})
	}
}

// A denied cross-tenant read must be indistinguishable from a read of a
// resource that does not exist.
func TestRespondErrorForbiddenMatchesNotFound(t *testing.T) {
	c1, rec1 := newTestContext(t, http.MethodGet, "/", "", nil)
	require.NoError(t, respondError(c1, authz.ErrForbidden))

	c2, rec2 := newTestContext(t, http.MethodGet, "/", "", nil)
	require.NoError(t, respondError(c2, authz.ErrNotFound))

	assert.Equal(t, rec2.Code, rec1.Code)
	assert.JSONEq(t, rec2.Body.String(), rec1.Body.String())
}

func TestRequireAccess(t *testing.T) {
	mem := authz.NewMemoryStore()
	school := mem.AddSchool("GIS2026", "Greenfield International", true)
	sid := school.ID
	mem.AddRole(1, model.RoleTeacher, &sid, true)
	Init(mem)

	sess := &authz.Session{UserID: 1, Email: "t@example.com", Role: model.RoleTeacher, SchoolID: &sid}
	res := authz.Resource{Type: authz.ResourceAttendance, SchoolID: school.ID}

	c, _ := newTestContext(t, http.MethodPut, "/api/teacher/attendance", "", sess)
	assert.NoError(t, requireAccess(c, res, authz.ActionWrite))

	// Same handler path without a session is an authentication failure.
	c, _ = newTestContext(t, http.MethodPut, "/api/teacher/attendance", "", nil)
	assert.ErrorIs(t, requireAccess(c, res, authz.ActionWrite), authz.ErrUnauthenticated)

	// Another school stays out of reach even though the route matched.
	other := authz.Resource{Type: authz.ResourceAttendance, SchoolID: school.ID + 1}
	c, _ = newTestContext(t, http.MethodPut, "/api/teacher/attendance", "", sess)
	assert.ErrorIs(t, requireAccess(c, other, authz.ActionWrite), authz.ErrForbidden)
}

func TestActivateRole(t *testing.T) {
	mem := authz.NewMemoryStore()
	schoolA := mem.AddSchool("GIS2026", "Greenfield International", true)
	schoolB := mem.AddSchool("NHS2026", "Northside High", true)
	sidA := schoolA.ID
	mem.AddRole(1, model.RoleTeacher, &sidA, true)
	mem.AddRole(1, model.RoleParent, nil, true)
	Init(mem)

	sess := &authz.Session{UserID: 1, Email: "dual@example.com"}

	t.Run("held role activates", func(t *testing.T) {
		body := `{"role":"teacher","school_id":` + jsonUint(schoolA.ID) + `}`
		c, rec := newTestContext(t, http.MethodPost, "/api/session/activate", body, sess)
		require.NoError(t, ActivateRole(c))
		require.Equal(t, http.StatusOK, rec.Code)

		got := decodeBody(t, rec)
		assert.NotEmpty(t, got["token"])
		active := got["active_role"].(map[string]interface{})
		assert.Equal(t, "teacher", active["role"])
		assert.Equal(t, "Greenfield International", active["school_name"])
	})

	t.Run("unheld role is denied", func(t *testing.T) {
		body := `{"role":"admin","school_id":` + jsonUint(schoolA.ID) + `}`
		c, rec := newTestContext(t, http.MethodPost, "/api/session/activate", body, sess)
		require.NoError(t, ActivateRole(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("held role at the wrong school is denied", func(t *testing.T) {
		body := `{"role":"teacher","school_id":` + jsonUint(schoolB.ID) + `}`
		c, rec := newTestContext(t, http.MethodPost, "/api/session/activate", body, sess)
		require.NoError(t, ActivateRole(c))
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("unknown role name", func(t *testing.T) {
		c, rec := newTestContext(t, http.MethodPost, "/api/session/activate", `{"role":"principal"}`, sess)
		require.NoError(t, ActivateRole(c))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("no session", func(t *testing.T) {
		c, rec := newTestContext(t, http.MethodPost, "/api/session/activate", `{"role":"teacher"}`, nil)
		require.NoError(t, ActivateRole(c))
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}

func TestActivateStudentPseudoRole(t *testing.T) {
	mem := authz.NewMemoryStore()
	school := mem.AddSchool("GIS2026", "Greenfield International", true)
	mem.AddStudent(school.ID, "2024001", "Asha", "asha@example.com")
	Init(mem)

	t.Run("email matches a student record", func(t *testing.T) {
		sess := &authz.Session{UserID: 2, Email: "asha@example.com"}
		c, rec := newTestContext(t, http.MethodPost, "/api/session/activate", `{"role":"student"}`, sess)
		require.NoError(t, ActivateRole(c))
		require.Equal(t, http.StatusOK, rec.Code)

		active := decodeBody(t, rec)["active_role"].(map[string]interface{})
		assert.Equal(t, "student", active["role"])
		assert.Equal(t, float64(school.ID), active["school_id"])
	})

	t.Run("no matching student record", func(t *testing.T) {
		sess := &authz.Session{UserID: 3, Email: "stranger@example.com"}
		c, rec := newTestContext(t, http.MethodPost, "/api/session/activate", `{"role":"student"}`, sess)
		require.NoError(t, ActivateRole(c))
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})
}

func TestMe(t *testing.T) {
	mem := authz.NewMemoryStore()
	school := mem.AddSchool("GIS2026", "Greenfield International", true)
	sid := school.ID
	mem.AddRole(1, model.RoleAdmin, &sid, true)
	mem.AddRole(1, model.RoleParent, nil, true)
	Init(mem)

	sess := &authz.Session{UserID: 1, Email: "dual@example.com", Role: model.RoleAdmin, SchoolID: &sid}
	c, rec := newTestContext(t, http.MethodGet, "/api/me", "", sess)
	require.NoError(t, Me(c))
	require.Equal(t, http.StatusOK, rec.Code)

	got := decodeBody(t, rec)
	roles := got["roles"].([]interface{})
	assert.Len(t, roles, 2)
	// ActiveRoles returns highest priority first.
	assert.Equal(t, "admin", roles[0].(map[string]interface{})["role"])

	active := got["active_role"].(map[string]interface{})
	assert.Equal(t, "admin", active["role"])
}

func TestMeUnauthenticated(t *testing.T) {
	Init(authz.NewMemoryStore())
	c, rec := newTestContext(t, http.MethodGet, "/api/me", "", nil)
	require.NoError(t, Me(c))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func jsonUint(v uint) string {
	return strconv.FormatUint(uint64(v), 10)
}
