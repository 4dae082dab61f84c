package handler

import (
	"crypto/rand"
	"encoding/base64"
	"errors"
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
	"schoolhub/pkg/logger"
	"schoolhub/prometheus"
)

// adminScope resolves the active admin session's tenant scope and runs the
// write guard for the given resource type.
func adminScope(c echo.Context, resourceType string) (authz.Scope, error) {
	sess := middleware.SessionFrom(c)
	scope, err := sess.Scope()
	if err != nil {
		return authz.Scope{}, err
	}
	res := authz.Resource{Type: resourceType, SchoolID: scope.SchoolID}
	if err := requireAccess(c, res, authz.ActionWrite); err != nil {
		return authz.Scope{}, err
	}
	return scope, nil
}

// generateTempPassword creates a random one-time password for provisioned
// accounts; the user resets it on first login.
func generateTempPassword() string {
	b := make([]byte, 16)
	if _, err := rand.Read(b); err != nil {
		panic(err)
	}
	return base64.RawURLEncoding.EncodeToString(b)
}

// ProvisionTeacher creates (or reuses) a principal for the given email and
// provisions its teacher role assignment and profile in the admin's school.
func ProvisionTeacher(c echo.Context) error {
	log := logger.FromContext(c)
	scope, err := adminScope(c, authz.ResourceSchool)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Email   string `json:"email" validate:"required,email"`
		Name    string `json:"name" validate:"required,max=255"`
		Subject string `json:"subject" validate:"omitempty,max=128"`
	}
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	var profile model.TeacherProfile

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

		schoolID := scope.SchoolID
		assignment := model.RoleAssignment{
			UserID:   user.ID,
			Role:     model.RoleTeacher,
			SchoolID: &schoolID,
			Active:   true,
		}
		if err := tx.Create(&assignment).Error; err != nil && !errors.Is(err, gorm.ErrDuplicatedKey) {
			return err
		}

		profile = model.TeacherProfile{
			UserID:   user.ID,
			SchoolID: scope.SchoolID,
			Name:     req.Name,
			Subject:  req.Subject,
			Active:   true,
		}
		return tx.Create(&profile).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "teacher is already provisioned in this school"})
		}
		log.Error("Failed to provision teacher", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	log.Info("Teacher provisioned",
		zap.String("email", req.Email),
		zap.Uint("school_id", scope.SchoolID))
	return c.JSON(http.StatusCreated, echo.Map{"profile": profile})
}

// CreateStudent registers a student record in the admin's school.
func CreateStudent(c echo.Context) error {
	log := logger.FromContext(c)
	scope, err := adminScope(c, authz.ResourceStudent)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		AdmissionNo string `json:"admission_no" validate:"required,max=32"`
		Name        string `json:"name" validate:"required,max=255"`
		Email       string `json:"email" validate:"omitempty,email"`
		ClassID     *uint  `json:"class_id,omitempty"`
	}
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	if req.ClassID != nil {
		var class model.Class
		query, qerr := scope.Apply(database.GetDB())
		if qerr != nil {
			return respondError(c, qerr)
		}
		if err := query.First(&class, *req.ClassID).Error; err != nil {
			return respondError(c, authz.ErrNotFound)
		}
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	student := model.Student{
		SchoolID:    scope.SchoolID,
		AdmissionNo: req.AdmissionNo,
		Name:        req.Name,
		Email:       req.Email,
		ClassID:     req.ClassID,
		Active:      true,
	}
	if err := database.GetDB().Create(&student).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return c.JSON(http.StatusConflict, echo.Map{"error": "admission number already in use"})
		}
		log.Error("Failed to create student", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	log.Info("Student created",
		zap.String("admission_no", req.AdmissionNo),
		zap.Uint("school_id", scope.SchoolID))
	return c.JSON(http.StatusCreated, echo.Map{"student": student})
}

// CreateClass creates a class in the admin's school.
func CreateClass(c echo.Context) error {
	scope, err := adminScope(c, authz.ResourceSchool)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Name  string `json:"name" validate:"required,max=128"`
		Grade string `json:"grade" validate:"omitempty,max=32"`
	}
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	class := model.Class{SchoolID: scope.SchoolID, Name: req.Name, Grade: req.Grade}
	if err := database.GetDB().Create(&class).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"class": class})
}

// CreateTimetableSlot adds a lesson slot to a class timetable.
func CreateTimetableSlot(c echo.Context) error {
	scope, err := adminScope(c, authz.ResourceTimetable)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		ClassID          uint   `json:"class_id" validate:"required"`
		TeacherProfileID *uint  `json:"teacher_profile_id,omitempty"`
		Weekday          int    `json:"weekday" validate:"min=0,max=6"`
		StartsAt         string `json:"starts_at" validate:"required,datetime=15:04"`
		EndsAt           string `json:"ends_at" validate:"required,datetime=15:04"`
		Subject          string `json:"subject" validate:"required,max=128"`
	}
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	var class model.Class
	query, qerr := scope.Apply(database.GetDB())
	if qerr != nil {
		return respondError(c, qerr)
	}
	if err := query.First(&class, req.ClassID).Error; err != nil {
		return respondError(c, authz.ErrNotFound)
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	slot := model.TimetableSlot{
		SchoolID:         scope.SchoolID,
		ClassID:          class.ID,
		TeacherProfileID: req.TeacherProfileID,
		Weekday:          req.Weekday,
		StartsAt:         req.StartsAt,
		EndsAt:           req.EndsAt,
		Subject:          req.Subject,
	}
	if err := database.GetDB().Create(&slot).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusCreated, echo.Map{"slot": slot})
}

// ListPendingLinks lists the parent-student link requests awaiting
// verification for students of the admin's school.
func ListPendingLinks(c echo.Context) error {
	scope, err := adminScope(c, authz.ResourceStudent)
	if err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var links []model.ParentStudentLink
	if err := database.GetDB().
		Preload("Student").
		Joins("JOIN students ON students.id = parent_student_links.student_id").
		Where("students.school_id = ? AND parent_student_links.status = ?", scope.SchoolID, model.LinkStatusPending).
		Find(&links).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"links": links})
}

// linkInScope loads a pending link and checks its student belongs to the
// admin's school.
func linkInScope(c echo.Context, scope authz.Scope) (*model.ParentStudentLink, error) {
	var link model.ParentStudentLink
	if err := database.GetDB().Preload("Student").First(&link, c.Param("id")).Error; err != nil {
		return nil, authz.ErrNotFound
	}
	if !scope.Covers(link.Student.SchoolID) {
		return nil, authz.ErrForbidden
	}
	if link.Status != model.LinkStatusPending {
		return nil, authz.ErrValidationFailed
	}
	return &link, nil
}

// VerifyLink approves a pending parent-student link. Once verified the
// link is immutable and grants the parent read access to the student.
func VerifyLink(c echo.Context) error {
	log := logger.FromContext(c)
	scope, err := adminScope(c, authz.ResourceStudent)
	if err != nil {
		return respondError(c, err)
	}

	link, err := linkInScope(c, scope)
	if err != nil {
		return respondError(c, err)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":      model.LinkStatusVerified,
		"verified_at": now,
	}
	if err := database.GetDB().Model(link).Updates(updates).Error; err != nil {
		return respondError(c, err)
	}

	// Tell the parent their dashboard now shows the student.
	var profile model.ParentProfile
	if err := database.GetDB().First(&profile, link.ParentProfileID).Error; err == nil {
		schoolID := link.Student.SchoolID
		notification := model.Notification{
			UserID:   profile.UserID,
			SchoolID: &schoolID,
			Kind:     "link_verified",
			Message:  "Your link to " + link.Student.Name + " has been approved.",
		}
		database.GetDB().Create(&notification)
	}

	prometheus.RecordLinkOperation("verify")
	log.Info("Link verified", zap.Uint("link_id", link.ID))
	return c.JSON(http.StatusOK, echo.Map{"link": link})
}

// RejectLink declines a pending parent-student link, returning the pair to
// a linkable state.
func RejectLink(c echo.Context) error {
	log := logger.FromContext(c)
	scope, err := adminScope(c, authz.ResourceStudent)
	if err != nil {
		return respondError(c, err)
	}

	link, err := linkInScope(c, scope)
	if err != nil {
		return respondError(c, err)
	}

	if err := database.GetDB().Model(link).Update("status", model.LinkStatusRejected).Error; err != nil {
		return respondError(c, err)
	}

	prometheus.RecordLinkOperation("reject")
	log.Info("Link rejected", zap.Uint("link_id", link.ID))
	return c.JSON(http.StatusOK, echo.Map{"link": link})
}

// CreateFee issues a fee invoice to a student of the admin's school.
func CreateFee(c echo.Context) error {
	log := logger.FromContext(c)
	scope, err := adminScope(c, authz.ResourceFees)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		StudentID   uint   `json:"student_id" validate:"required"`
		Title       string `json:"title" validate:"required,max=255"`
		AmountCents int64  `json:"amount_cents" validate:"required,gt=0"`
		DueDate     string `json:"due_date" validate:"required,datetime=2006-01-02"`
	}
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	var student model.Student
	query, qerr := scope.Apply(database.GetDB())
	if qerr != nil {
		return respondError(c, qerr)
	}
	if err := query.First(&student, req.StudentID).Error; err != nil {
		return respondError(c, authz.ErrNotFound)
	}

	dueDate, _ := time.Parse("2006-01-02", req.DueDate)

	defer prometheus.TrackDBOperation("insert")(time.Now())
	fee := model.FeeRecord{
		SchoolID:    scope.SchoolID,
		StudentID:   student.ID,
		Title:       req.Title,
		AmountCents: req.AmountCents,
		DueDate:     dueDate,
		Status:      model.FeeUnpaid,
	}
	if err := database.GetDB().Create(&fee).Error; err != nil {
		log.Error("Failed to create fee", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	log.Info("Fee created",
		zap.Uint("student_id", student.ID),
		zap.Int64("amount_cents", req.AmountCents))
	return c.JSON(http.StatusCreated, echo.Map{"fee": fee})
}

// MarkFeePaid settles a fee record in the admin's school.
func MarkFeePaid(c echo.Context) error {
	scope, err := adminScope(c, authz.ResourceFees)
	if err != nil {
		return respondError(c, err)
	}

	var fee model.FeeRecord
	query, qerr := scope.Apply(database.GetDB())
	if qerr != nil {
		return respondError(c, qerr)
	}
	if err := query.First(&fee, c.Param("id")).Error; err != nil {
		return respondError(c, authz.ErrNotFound)
	}

	now := time.Now()
	updates := map[string]interface{}{
		"status":  model.FeePaid,
		"paid_at": now,
	}
	if err := database.GetDB().Model(&fee).Updates(updates).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"fee": fee})
}

// CreateAnnouncement publishes a school-wide notice.
func CreateAnnouncement(c echo.Context) error {
	log := logger.FromContext(c)
	sess := middleware.SessionFrom(c)
	scope, err := adminScope(c, authz.ResourceAnnouncement)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Title    string `json:"title" validate:"required,max=255"`
		Body     string `json:"body" validate:"required"`
		Audience string `json:"audience" validate:"omitempty,oneof=all parents teachers"`
	}
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	audience := req.Audience
	if audience == "" {
		audience = model.AudienceAll
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	announcement := model.Announcement{
		SchoolID:     scope.SchoolID,
		AuthorUserID: sess.UserID,
		Audience:     audience,
		Title:        req.Title,
		Body:         req.Body,
		PublishedAt:  time.Now(),
	}
	if err := database.GetDB().Create(&announcement).Error; err != nil {
		log.Error("Failed to create announcement", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	log.Info("Announcement published",
		zap.Uint("school_id", scope.SchoolID),
		zap.String("title", req.Title))
	return c.JSON(http.StatusCreated, echo.Map{"announcement": announcement})
}

// AttendanceSummary aggregates attendance counts by status for the school
// over a date range.
func AttendanceSummary(c echo.Context) error {
	sess := middleware.SessionFrom(c)
	scope, err := sess.Scope()
	if err != nil {
		return respondError(c, err)
	}
	res := authz.Resource{Type: authz.ResourceAttendance, SchoolID: scope.SchoolID}
	if err := requireAccess(c, res, authz.ActionRead); err != nil {
		return respondError(c, err)
	}

	from := c.QueryParam("from")
	to := c.QueryParam("to")
	if from == "" {
		from = time.Now().AddDate(0, -1, 0).Format("2006-01-02")
	}
	if to == "" {
		to = time.Now().Format("2006-01-02")
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	type statusCount struct {
		Status string `json:"status"`
		Count  int64  `json:"count"`
	}
	var counts []statusCount
	if err := database.GetDB().
		Model(&model.AttendanceRecord{}).
		Select("status, COUNT(*) as count").
		Where("school_id = ? AND date BETWEEN ? AND ?", scope.SchoolID, from, to).
		Group("status").
		Scan(&counts).Error; err != nil {
		return respondError(c, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"from":    from,
		"to":      to,
		"summary": counts,
	})
}
