package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm/clause"

	"schoolhub/internal/authz"
	"schoolhub/internal/middleware"
	"schoolhub/internal/model"
	"schoolhub/pkg/database"
	"schoolhub/pkg/logger"
	"schoolhub/prometheus"
)

// teacherContext resolves the session's tenant scope and the teacher
// profile within it. A teacher role without a provisioned profile is a
// recoverable, user-visible state.
func teacherContext(c echo.Context) (authz.Scope, *model.TeacherProfile, error) {
	sess := middleware.SessionFrom(c)
	scope, err := sess.Scope()
	if err != nil {
		return authz.Scope{}, nil, err
	}
	profile, err := resolver.TeacherProfile(c.Request().Context(), sess.UserID, scope)
	if err != nil {
		return authz.Scope{}, nil, err
	}
	return scope, profile, nil
}

// TeacherProfileHandler returns the teacher's own profile in the active school.
func TeacherProfileHandler(c echo.Context) error {
	_, profile, err := teacherContext(c)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"profile": profile})
}

// ClassRoster lists the students of a class in the teacher's school.
func ClassRoster(c echo.Context) error {
	scope, _, err := teacherContext(c)
	if err != nil {
		return respondError(c, err)
	}

	var class model.Class
	query, err := scope.Apply(database.GetDB())
	if err != nil {
		return respondError(c, err)
	}
	if err := query.First(&class, c.Param("id")).Error; err != nil {
		return respondError(c, authz.ErrNotFound)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var students []model.Student
	if err := database.GetDB().
		Where("class_id = ? AND active = ?", class.ID, true).
		Order("name").
		Find(&students).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"class": class, "students": students})
}

// MarkAttendance upserts attendance for a set of students on one date.
// Submitting the same payload twice yields one row per (student, date)
// with the latest status, not duplicates.
func MarkAttendance(c echo.Context) error {
	log := logger.FromContext(c)
	scope, profile, err := teacherContext(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		Date    string `json:"date" validate:"required,datetime=2006-01-02"`
		Entries []struct {
			StudentID uint   `json:"student_id" validate:"required"`
			Status    string `json:"status" validate:"required,oneof=present absent late excused"`
		} `json:"entries" validate:"required,min=1,dive"`
	}
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	res := authz.Resource{Type: authz.ResourceAttendance, SchoolID: scope.SchoolID}
	if err := requireAccess(c, res, authz.ActionWrite); err != nil {
		return respondError(c, err)
	}

	date, err := time.Parse("2006-01-02", req.Date)
	if err != nil {
		return respondError(c, authz.ErrValidationFailed)
	}

	// Every student in the payload must belong to the teacher's school;
	// a single foreign student fails the whole write closed.
	ids := make([]uint, 0, len(req.Entries))
	for _, e := range req.Entries {
		ids = append(ids, e.StudentID)
	}
	var count int64
	if err := database.GetDB().Model(&model.Student{}).
		Where("id IN ? AND school_id = ?", ids, scope.SchoolID).
		Count(&count).Error; err != nil {
		return respondError(c, err)
	}
	if count != int64(len(ids)) {
		return respondError(c, authz.ErrForbidden)
	}

	defer prometheus.TrackDBOperation("update")(time.Now())
	records := make([]model.AttendanceRecord, 0, len(req.Entries))
	for _, e := range req.Entries {
		records = append(records, model.AttendanceRecord{
			SchoolID:   scope.SchoolID,
			StudentID:  e.StudentID,
			Date:       date,
			Status:     e.Status,
			MarkedByID: profile.ID,
		})
	}

	// Idempotent upsert on the (student_id, date) unique index, last writer wins.
	err = database.GetDB().Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "student_id"}, {Name: "date"}},
		DoUpdates: clause.AssignmentColumns([]string{"status", "marked_by_id", "updated_at"}),
	}).Create(&records).Error
	if err != nil {
		log.Error("Failed to upsert attendance", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	prometheus.AttendanceUpsertCounter.Add(float64(len(records)))
	log.Info("Attendance marked",
		zap.Uint("school_id", scope.SchoolID),
		zap.String("date", req.Date),
		zap.Int("entries", len(records)))

	return c.JSON(http.StatusOK, echo.Map{"marked": len(records), "date": req.Date})
}

// CreateHomework publishes a homework assignment for a class.
func CreateHomework(c echo.Context) error {
	log := logger.FromContext(c)
	scope, profile, err := teacherContext(c)
	if err != nil {
		return respondError(c, err)
	}

	var req struct {
		ClassID     uint   `json:"class_id" validate:"required"`
		Title       string `json:"title" validate:"required,max=255"`
		Description string `json:"description"`
		DueDate     string `json:"due_date" validate:"required,datetime=2006-01-02"`
	}
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	res := authz.Resource{Type: authz.ResourceHomework, SchoolID: scope.SchoolID}
	if err := requireAccess(c, res, authz.ActionWrite); err != nil {
		return respondError(c, err)
	}

	var class model.Class
	query, err := scope.Apply(database.GetDB())
	if err != nil {
		return respondError(c, err)
	}
	if err := query.First(&class, req.ClassID).Error; err != nil {
		return respondError(c, authz.ErrNotFound)
	}

	dueDate, _ := time.Parse("2006-01-02", req.DueDate)

	defer prometheus.TrackDBOperation("insert")(time.Now())
	homework := model.HomeworkAssignment{
		SchoolID:         scope.SchoolID,
		ClassID:          class.ID,
		TeacherProfileID: profile.ID,
		Title:            req.Title,
		Description:      req.Description,
		DueDate:          dueDate,
	}
	if err := database.GetDB().Create(&homework).Error; err != nil {
		log.Error("Failed to create homework", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	log.Info("Homework created",
		zap.Uint("class_id", class.ID),
		zap.String("title", req.Title))
	return c.JSON(http.StatusCreated, echo.Map{"homework": homework})
}

// ListHomework lists the teacher's own homework assignments.
func ListHomework(c echo.Context) error {
	_, profile, err := teacherContext(c)
	if err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var homework []model.HomeworkAssignment
	if err := database.GetDB().
		Where("teacher_profile_id = ?", profile.ID).
		Order("due_date DESC").Limit(100).
		Find(&homework).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"homework": homework})
}

// UpdateHomework edits one of the teacher's own homework assignments.
func UpdateHomework(c echo.Context) error {
	scope, profile, err := teacherContext(c)
	if err != nil {
		return respondError(c, err)
	}

	res := authz.Resource{Type: authz.ResourceHomework, SchoolID: scope.SchoolID}
	if err := requireAccess(c, res, authz.ActionWrite); err != nil {
		return respondError(c, err)
	}

	var homework model.HomeworkAssignment
	if err := database.GetDB().
		Where("id = ? AND teacher_profile_id = ?", c.Param("id"), profile.ID).
		First(&homework).Error; err != nil {
		return respondError(c, authz.ErrNotFound)
	}

	var req struct {
		Title       string `json:"title" validate:"omitempty,max=255"`
		Description string `json:"description"`
		DueDate     string `json:"due_date" validate:"omitempty,datetime=2006-01-02"`
	}
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	updates := map[string]interface{}{}
	if req.Title != "" {
		updates["title"] = req.Title
	}
	if req.Description != "" {
		updates["description"] = req.Description
	}
	if req.DueDate != "" {
		dueDate, _ := time.Parse("2006-01-02", req.DueDate)
		updates["due_date"] = dueDate
	}
	if len(updates) > 0 {
		if err := database.GetDB().Model(&homework).Updates(updates).Error; err != nil {
			return respondError(c, err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"homework": homework})
}

// DeleteHomework removes one of the teacher's own homework assignments.
func DeleteHomework(c echo.Context) error {
	scope, profile, err := teacherContext(c)
	if err != nil {
		return respondError(c, err)
	}

	res := authz.Resource{Type: authz.ResourceHomework, SchoolID: scope.SchoolID}
	if err := requireAccess(c, res, authz.ActionWrite); err != nil {
		return respondError(c, err)
	}

	result := database.GetDB().
		Where("id = ? AND teacher_profile_id = ?", c.Param("id"), profile.ID).
		Delete(&model.HomeworkAssignment{})
	if result.Error != nil {
		return respondError(c, result.Error)
	}
	if result.RowsAffected == 0 {
		return respondError(c, authz.ErrNotFound)
	}
	return c.JSON(http.StatusOK, echo.Map{"deleted": true})
}

// TeacherTimetable returns the teacher's own weekly timetable.
func TeacherTimetable(c echo.Context) error {
	_, profile, err := teacherContext(c)
	if err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var slots []model.TimetableSlot
	if err := database.GetDB().
		Where("teacher_profile_id = ?", profile.ID).
		Order("weekday, starts_at").
		Find(&slots).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"timetable": slots})
}
