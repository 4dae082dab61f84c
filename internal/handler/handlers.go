package handler

import (
	"errors"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"schoolhub/internal/authz"
	"schoolhub/internal/middleware"
	"schoolhub/prometheus"
)

var (
	store    authz.Store
	resolver *authz.Resolver
	guard    *authz.Guard
)

// Init wires the handler package to its persistence layer. main calls this
// with the gorm store; tests substitute an in-memory one.
func Init(s authz.Store) {
	store = s
	resolver = authz.NewResolver(s)
	guard = authz.NewGuard(s)
}

var validate = validator.New()

// bindAndValidate decodes the request body into req and validates its tags.
func bindAndValidate(c echo.Context, req interface{}) error {
	if err := c.Bind(req); err != nil {
		return authz.ErrValidationFailed
	}
	if err := validate.Struct(req); err != nil {
		return authz.ErrValidationFailed
	}
	return nil
}

// respondError translates the authz error taxonomy into user-facing
// responses. Forbidden and NotFound share one response shape so a denied
// cross-tenant read does not reveal whether the resource exists.
func respondError(c echo.Context, err error) error {
	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "authentication required"})
	case errors.Is(err, authz.ErrNoRoleAssigned):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no role is assigned to this account yet, contact your administrator"})
	case errors.Is(err, authz.ErrScopeRequired):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no school context is active for this session"})
	case errors.Is(err, authz.ErrProfileNotProvisioned):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "your profile has not been set up for this school, contact your school administrator"})
	case errors.Is(err, authz.ErrStudentRecordNotFound):
		return c.JSON(http.StatusForbidden, echo.Map{"error": "no student record matches this account, contact your school administrator"})
	case errors.Is(err, authz.ErrAlreadyLinked):
		return c.JSON(http.StatusConflict, echo.Map{"error": "this student is already linked to your account"})
	case errors.Is(err, authz.ErrValidationFailed):
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid request"})
	case errors.Is(err, authz.ErrForbidden), errors.Is(err, authz.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"error": "not found"})
	default:
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}
}

// requireAccess runs the authorization guard for the session principal and
// records the decision. Every read of tenant data and every mutation goes
// through here, regardless of what the UI already filtered.
func requireAccess(c echo.Context, res authz.Resource, action authz.Action) error {
	sess := middleware.SessionFrom(c)
	if !sess.Authenticated() {
		return authz.ErrUnauthenticated
	}
	if err := guard.Can(c.Request().Context(), sess.UserID, res, action); err != nil {
		prometheus.RecordAuthzDecision("deny")
		return err
	}
	prometheus.RecordAuthzDecision("grant")
	return nil
}
