package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"schoolhub/internal/authz"
	"schoolhub/internal/middleware"
	"schoolhub/internal/model"
	"schoolhub/pkg/database"
	"schoolhub/pkg/jwtutil"
	"schoolhub/pkg/logger"
	"schoolhub/prometheus"
)

// Register handles parent signup: it creates the principal, its global
// parent profile and the parent role assignment in one transaction. This
// is the only flow that creates a parent profile.
func Register(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.RegisterCounter.Inc()

	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required,min=8"`
		Name     string `json:"name" validate:"required"`
		Phone    string `json:"phone" validate:"omitempty,max=32"`
	}

	if err := bindAndValidate(c, &req); err != nil {
		log.Error("Invalid registration request")
		prometheus.RecordAuthError("invalid_request")
		return respondError(c, err)
	}

	// Check if user already exists
	defer prometheus.TrackDBOperation("query")(time.Now())
	var existing model.User
	if result := database.GetDB().Where("email = ?", req.Email).First(&existing); result.Error == nil {
		log.Error("User already exists", zap.String("email", req.Email))
		prometheus.RecordAuthError("email_already_exists")
		return c.JSON(http.StatusConflict, echo.Map{"error": "email already registered"})
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		log.Error("Failed to hash password", zap.Error(err))
		prometheus.RecordAuthError("password_hash_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	user := model.User{Email: req.Email, Password: string(hashedPassword), Active: true}

	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(&user).Error; err != nil {
			return err
		}
		assignment := model.RoleAssignment{UserID: user.ID, Role: model.RoleParent, Active: true}
		if err := tx.Create(&assignment).Error; err != nil {
			return err
		}
		profile := model.ParentProfile{UserID: user.ID, Name: req.Name, Phone: req.Phone}
		return tx.Create(&profile).Error
	})
	if err != nil {
		log.Error("Failed to create user", zap.Error(err))
		prometheus.RecordAuthError("user_creation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "registration failed"})
	}

	log.Info("Parent registered", zap.String("email", user.Email))
	return c.JSON(http.StatusCreated, echo.Map{
		"message": "registered successfully",
		"user": map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
		},
	})
}

// Login authenticates a principal and activates its default role context:
// the highest-priority active role, or the student pseudo-role when the
// email matches a student record and no role is assigned.
func Login(c echo.Context) error {
	log := logger.FromContext(c)
	prometheus.LoginCounter.Inc()

	var req struct {
		Email    string `json:"email" validate:"required,email"`
		Password string `json:"password" validate:"required"`
	}

	if err := bindAndValidate(c, &req); err != nil {
		log.Error("Invalid login request")
		prometheus.RecordAuthError("invalid_request")
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var user model.User
	result := database.GetDB().Where("email = ? AND active = ?", req.Email, true).First(&user)
	if result.Error != nil {
		log.Error("User not found", zap.String("email", req.Email))
		prometheus.RecordAuthError("user_not_found")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); err != nil {
		log.Error("Invalid password", zap.String("email", req.Email))
		prometheus.RecordAuthError("invalid_password")
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": "invalid credentials"})
	}

	now := time.Now()
	database.GetDB().Model(&user).Update("last_login_at", now)

	assignments, err := resolver.Roles(c.Request().Context(), user.ID)
	if err != nil {
		log.Error("Failed to resolve roles", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	// Default role activation: fixed priority super_admin > admin > teacher > parent.
	var (
		activeRole string
		schoolID   *uint
		schoolName string
	)
	if def, err := authz.DefaultRole(assignments); err == nil {
		activeRole = def.Role
		schoolID = def.SchoolID
	} else {
		// No role assignment: try the student pseudo-role by email match.
		if student, serr := resolver.StudentRecord(c.Request().Context(), user.Email); serr == nil {
			activeRole = model.RoleStudent
			sid := student.SchoolID
			schoolID = &sid
		}
	}

	if schoolID != nil {
		if school, serr := store.SchoolByID(c.Request().Context(), *schoolID); serr == nil {
			schoolName = school.Name
		}
	}

	token, err := jwtutil.GenerateTokenWithRole(user.Email, user.ID, activeRole, schoolID, schoolName)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		prometheus.RecordAuthError("token_generation_failed")
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	if activeRole != "" {
		prometheus.RecordRoleActivation(activeRole)
		log.Info("User logged in",
			zap.String("email", user.Email),
			zap.String("role", activeRole),
			zap.Uintp("school_id", schoolID))
	} else {
		log.Info("User logged in without a role", zap.String("email", user.Email))
	}

	response := echo.Map{
		"token": token,
		"user": map[string]interface{}{
			"id":    user.ID,
			"email": user.Email,
		},
		"roles": roleList(assignments),
	}
	if activeRole != "" {
		response["active_role"] = map[string]interface{}{
			"role":        activeRole,
			"school_id":   schoolID,
			"school_name": schoolName,
		}
	} else {
		response["message"] = "no role is assigned to this account yet, contact your administrator"
	}

	return c.JSON(http.StatusOK, response)
}

// ActivateRole is the explicit "act as" selector: a principal holding
// several roles re-issues its session token for the chosen (role, school)
// after the assignment is verified to be held and active.
func ActivateRole(c echo.Context) error {
	log := logger.FromContext(c)
	sess := middleware.SessionFrom(c)
	if !sess.Authenticated() {
		return respondError(c, authz.ErrUnauthenticated)
	}

	var req struct {
		Role     string `json:"role" validate:"required"`
		SchoolID *uint  `json:"school_id,omitempty"`
	}
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	var (
		schoolID   *uint
		schoolName string
	)

	if req.Role == model.RoleStudent {
		student, err := resolver.StudentRecord(c.Request().Context(), sess.Email)
		if err != nil {
			return respondError(c, err)
		}
		sid := student.SchoolID
		schoolID = &sid
	} else {
		if !model.ValidRole(req.Role) {
			return respondError(c, authz.ErrValidationFailed)
		}
		assignment, err := resolver.FindRole(c.Request().Context(), sess.UserID, req.Role, req.SchoolID)
		if err != nil {
			log.Warn("Role activation denied",
				zap.String("role", req.Role),
				zap.Uint("user_id", sess.UserID))
			return respondError(c, err)
		}
		schoolID = assignment.SchoolID
	}

	if schoolID != nil {
		if school, err := store.SchoolByID(c.Request().Context(), *schoolID); err == nil {
			schoolName = school.Name
		}
	}

	token, err := jwtutil.GenerateTokenWithRole(sess.Email, sess.UserID, req.Role, schoolID, schoolName)
	if err != nil {
		log.Error("Failed to generate token", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "token error"})
	}

	prometheus.RecordRoleActivation(req.Role)
	log.Info("Role activated",
		zap.Uint("user_id", sess.UserID),
		zap.String("role", req.Role),
		zap.Uintp("school_id", schoolID))

	return c.JSON(http.StatusOK, echo.Map{
		"token": token,
		"active_role": map[string]interface{}{
			"role":        req.Role,
			"school_id":   schoolID,
			"school_name": schoolName,
		},
	})
}

// Me returns the principal, its role assignments and the activated context.
func Me(c echo.Context) error {
	sess := middleware.SessionFrom(c)
	if !sess.Authenticated() {
		return respondError(c, authz.ErrUnauthenticated)
	}

	assignments, err := resolver.Roles(c.Request().Context(), sess.UserID)
	if err != nil {
		return respondError(c, err)
	}

	response := echo.Map{
		"user": map[string]interface{}{
			"id":    sess.UserID,
			"email": sess.Email,
		},
		"roles": roleList(assignments),
	}
	if sess.Activated() {
		response["active_role"] = map[string]interface{}{
			"role":      sess.Role,
			"school_id": sess.SchoolID,
		}
	}
	return c.JSON(http.StatusOK, response)
}

func roleList(assignments []model.RoleAssignment) []map[string]interface{} {
	roles := make([]map[string]interface{}, 0, len(assignments))
	for _, a := range assignments {
		roles = append(roles, map[string]interface{}{
			"role":      a.Role,
			"school_id": a.SchoolID,
		})
	}
	return roles
}
