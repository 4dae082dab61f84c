package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"schoolhub/internal/authz"
	"schoolhub/internal/model"
	"schoolhub/pkg/config"
	"schoolhub/pkg/jwtutil"
)

func init() {
	jwtutil.Initialize(&config.JWTConfig{SigningKey: "middleware-test-key", ExpirationHours: 1})
}

func runAuth(t *testing.T, authHeader string) (*httptest.ResponseRecorder, authz.Session) {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(http.MethodGet, "/api/me", nil)
	if authHeader != "" {
		req.Header.Set("Authorization", authHeader)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)

	var got authz.Session
	handler := AuthMiddleware(func(c echo.Context) error {
		got = SessionFrom(c)
		return c.NoContent(http.StatusOK)
	})
	require.NoError(t, handler(c))
	return rec, got
}

func TestAuthMiddlewareValidToken(t *testing.T) {
	schoolID := uint(2)
	token, err := jwtutil.GenerateTokenWithRole("teacher@example.com", 5, model.RoleTeacher, &schoolID, "Greenfield International")
	require.NoError(t, err)

	rec, sess := runAuth(t, "Bearer "+token)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, uint(5), sess.UserID)
	assert.Equal(t, "teacher@example.com", sess.Email)
	assert.Equal(t, model.RoleTeacher, sess.Role)
	require.NotNil(t, sess.SchoolID)
	assert.Equal(t, uint(2), *sess.SchoolID)
}

func TestAuthMiddlewareMissingHeader(t *testing.T) {
	rec, _ := runAuth(t, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareBadFormat(t *testing.T) {
	rec, _ := runAuth(t, "Token abc")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAuthMiddlewareInvalidToken(t *testing.T) {
	rec, _ := runAuth(t, "Bearer not-a-real-token")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestSessionFromMissing(t *testing.T) {
	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodGet, "/", nil), httptest.NewRecorder())

	sess := SessionFrom(c)
	assert.False(t, sess.Authenticated())
}

func TestRequireRole(t *testing.T) {
	schoolID := uint(1)
	cases := []struct {
		name     string
		session  authz.Session
		stash    bool
		wantCode int
	}{
		{
			name:     "matching role",
			session:  authz.Session{UserID: 1, Role: model.RoleTeacher, SchoolID: &schoolID},
			stash:    true,
			wantCode: http.StatusOK,
		},
		{
			name:     "admin allowed on teacher routes",
			session:  authz.Session{UserID: 1, Role: model.RoleAdmin, SchoolID: &schoolID},
			stash:    true,
			wantCode: http.StatusOK,
		},
		{
			name:     "wrong role",
			session:  authz.Session{UserID: 1, Role: model.RoleParent},
			stash:    true,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "authenticated but no role activated",
			session:  authz.Session{UserID: 1},
			stash:    true,
			wantCode: http.StatusForbidden,
		},
		{
			name:     "no session",
			stash:    false,
			wantCode: http.StatusUnauthorized,
		},
	}

	mw := RequireRole(model.RoleTeacher, model.RoleAdmin)
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			e := echo.New()
			rec := httptest.NewRecorder()
			c := e.NewContext(httptest.NewRequest(http.MethodGet, "/api/teacher/profile", nil), rec)
			if tc.stash {
				c.Set("session", tc.session)
			}

			handler := mw(func(c echo.Context) error {
				return c.NoContent(http.StatusOK)
			})
			require.NoError(t, handler(c))
			assert.Equal(t, tc.wantCode, rec.Code)
		})
	}
}
