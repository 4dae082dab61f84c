package middleware

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"schoolhub/internal/authz"
	"schoolhub/pkg/jwtutil"
	"schoolhub/pkg/logger"
	"schoolhub/prometheus"
)

const sessionKey = "session"

// AuthMiddleware validates the JWT token from the Authorization header and
// stashes the resolved session in the request context.
func AuthMiddleware(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		log := logger.FromContext(c)

		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			log.Error("Missing Authorization header")
			prometheus.RecordAuthError("missing_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "missing authorization token"})
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			log.Error("Invalid Authorization header format")
			prometheus.RecordAuthError("invalid_auth_format")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid authorization format, expected Bearer token"})
		}

		claims, err := jwtutil.ValidateToken(parts[1])
		if err != nil {
			log.Error("Invalid JWT token", zap.Error(err))
			prometheus.RecordAuthError("invalid_token")
			return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid or expired token"})
		}

		sess := authz.Session{
			UserID:   claims.UserID,
			Email:    claims.Email,
			Role:     claims.Role,
			SchoolID: claims.SchoolID,
		}
		c.Set(sessionKey, sess)

		if sess.Activated() {
			log.Debug("Request authenticated with role context",
				zap.String("role", sess.Role),
				zap.Uintp("school_id", sess.SchoolID))
		}

		return next(c)
	}
}

// SessionFrom returns the session stashed by AuthMiddleware. The zero
// session is returned when the middleware did not run; callers must treat
// it as unauthenticated.
func SessionFrom(c echo.Context) authz.Session {
	sess, ok := c.Get(sessionKey).(authz.Session)
	if !ok {
		return authz.Session{}
	}
	return sess
}

// RequireRole gates a route group to sessions whose activated role is one
// of the given roles. It does not replace the per-handler guard check on
// resources; it only keeps dashboards behind their role prefix.
func RequireRole(roles ...string) echo.MiddlewareFunc {
	allowed := make(map[string]bool, len(roles))
	for _, r := range roles {
		allowed[r] = true
	}
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			sess := SessionFrom(c)
			if !sess.Authenticated() {
				prometheus.RecordAuthError("missing_session")
				return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
			}
			if !sess.Activated() || !allowed[sess.Role] {
				prometheus.RecordAuthzDecision("deny")
				return c.JSON(http.StatusForbidden, echo.Map{"error": "role not activated for this area"})
			}
			return next(c)
		}
	}
}
