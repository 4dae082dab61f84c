package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"schoolhub/internal/authz"
	"schoolhub/internal/model"
	"schoolhub/pkg/database"
	"schoolhub/pkg/logger"
	"schoolhub/prometheus"
)

func refreshActiveSchoolsGauge() {
	var count int64
	if err := database.GetDB().Model(&model.School{}).Where("active = ?", true).Count(&count).Error; err == nil {
		prometheus.ActiveSchoolsGauge.Set(float64(count))
	}
}

// CreateSchool provisions a new tenant. Only the platform super-admin may
// do this; school codes are human-entered and must be unique.
func CreateSchool(c echo.Context) error {
	log := logger.FromContext(c)
	res := authz.Resource{Type: authz.ResourceSchool}
	if err := requireAccess(c, res, authz.ActionWrite); err != nil {
		return respondError(c, err)
	}

	var req struct {
		Code string `json:"code" validate:"required,max=32,alphanum"`
		Name string `json:"name" validate:"required,max=255"`
	}
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	school := model.School{Code: req.Code, Name: req.Name, Active: true}
	if err := database.GetDB().Create(&school).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "school code already in use"})
		}
		log.Error("Failed to create school", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	refreshActiveSchoolsGauge()
	log.Info("School created",
		zap.String("code", school.Code),
		zap.Uint("id", school.ID))
	return c.JSON(http.StatusCreated, echo.Map{"school": school})
}

// DeactivateSchool disables a tenant. Schools are never deleted; all data
// stays in place but every scoped lookup stops resolving.
func DeactivateSchool(c echo.Context) error {
	log := logger.FromContext(c)
	res := authz.Resource{Type: authz.ResourceSchool}
	if err := requireAccess(c, res, authz.ActionWrite); err != nil {
		return respondError(c, err)
	}

	var school model.School
	if err := database.GetDB().First(&school, c.Param("id")).Error; err != nil {
		return respondError(c, authz.ErrNotFound)
	}

	if err := database.GetDB().Model(&school).Update("active", false).Error; err != nil {
		return respondError(c, err)
	}

	refreshActiveSchoolsGauge()
	log.Info("School deactivated", zap.Uint("id", school.ID))
	return c.JSON(http.StatusOK, echo.Map{"school": school})
}

// ListSchools returns every tenant, active or not.
func ListSchools(c echo.Context) error {
	res := authz.Resource{Type: authz.ResourceSchool}
	if err := requireAccess(c, res, authz.ActionRead); err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var schools []model.School
	if err := database.GetDB().Order("name").Find(&schools).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"schools": schools})
}

// GrantAdmin assigns the admin role for a school to the principal with the
// given email, creating the account when it does not exist yet.
func GrantAdmin(c echo.Context) error {
	log := logger.FromContext(c)
	res := authz.Resource{Type: authz.ResourceSchool}
	if err := requireAccess(c, res, authz.ActionWrite); err != nil {
		return respondError(c, err)
	}

	var req struct {
		Email    string `json:"email" validate:"required,email"`
		SchoolID uint   `json:"school_id" validate:"required"`
	}
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	school, err := store.SchoolByID(c.Request().Context(), req.SchoolID)
	if err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	var assignment model.RoleAssignment

	err = database.GetDB().Transaction(func(tx *gorm.DB) error {
		var user model.User
		err := tx.Where("email = ?", req.Email).First(&user).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			hashed, herr := bcrypt.GenerateFromPassword([]byte(generateTempPassword()), bcrypt.DefaultCost)
			if herr != nil {
				return herr
			}
			user = model.User{Email: req.Email, Password: string(hashed), Active: true}
			if err := tx.Create(&user).Error; err != nil {
				return err
			}
		} else if err != nil {
			return err
		}

		schoolID := school.ID
		assignment = model.RoleAssignment{
			UserID:   user.ID,
			Role:     model.RoleAdmin,
			SchoolID: &schoolID,
			Active:   true,
		}
		return tx.Create(&assignment).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "admin role already assigned"})
		}
		log.Error("Failed to grant admin", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	log.Info("Admin granted",
		zap.String("email", req.Email),
		zap.Uint("school_id", school.ID))
	return c.JSON(http.StatusCreated, echo.Map{"assignment": assignment})
}

// PlatformStats returns platform-wide counts for the super-admin dashboard.
func PlatformStats(c echo.Context) error {
	res := authz.Resource{Type: authz.ResourceSchool}
	if err := requireAccess(c, res, authz.ActionRead); err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var (
		schools  int64
		users    int64
		students int64
		links    int64
	)
	db := database.GetDB()
	db.Model(&model.School{}).Where("active = ?", true).Count(&schools)
	db.Model(&model.User{}).Where("active = ?", true).Count(&users)
	db.Model(&model.Student{}).Where("active = ?", true).Count(&students)
	db.Model(&model.ParentStudentLink{}).Where("status = ?", model.LinkStatusVerified).Count(&links)

	return c.JSON(http.StatusOK, echo.Map{
		"active_schools":  schools,
		"active_users":    users,
		"active_students": students,
		"verified_links":  links,
	})
}
