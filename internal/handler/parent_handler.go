package handler

import (
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"schoolhub/internal/authz"
	"schoolhub/internal/middleware"
	"schoolhub/internal/model"
	"schoolhub/pkg/database"
	"schoolhub/pkg/logger"
	"schoolhub/prometheus"
)

// ListChildren returns the students linked to the parent through verified
// links, across all schools.
func ListChildren(c echo.Context) error {
	sess := middleware.SessionFrom(c)

	students, err := resolver.LinkedStudents(c.Request().Context(), sess.UserID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"students": students})
}

// RequestLink submits a parent-student link request: school code plus
// admission number must match an existing student record. The link starts
// pending and grants no visibility until an administrator verifies it.
func RequestLink(c echo.Context) error {
	log := logger.FromContext(c)
	sess := middleware.SessionFrom(c)

	var req struct {
		SchoolCode   string `json:"school_code" validate:"required"`
		AdmissionNo  string `json:"admission_no" validate:"required"`
		Relationship string `json:"relationship" validate:"omitempty,oneof=guardian mother father other"`
	}
	if err := bindAndValidate(c, &req); err != nil {
		return respondError(c, err)
	}

	profile, err := resolver.ParentProfile(c.Request().Context(), sess.UserID)
	if err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var school model.School
	if result := database.GetDB().Where("code = ? AND active = ?", req.SchoolCode, true).First(&school); result.Error != nil {
		return respondError(c, authz.ErrNotFound)
	}

	var student model.Student
	result := database.GetDB().
		Where("school_id = ? AND admission_no = ? AND active = ?", school.ID, req.AdmissionNo, true).
		First(&student)
	if result.Error != nil {
		return respondError(c, authz.ErrNotFound)
	}

	relationship := req.Relationship
	if relationship == "" {
		relationship = "guardian"
	}

	// A rejected link may be re-requested; pending or verified means the
	// pair is already taken. The unique index backstops the race between
	// the check and the insert.
	var existing model.ParentStudentLink
	err = database.GetDB().
		Where("parent_profile_id = ? AND student_id = ?", profile.ID, student.ID).
		First(&existing).Error
	if err == nil {
		if existing.Status == model.LinkStatusRejected {
			updates := map[string]interface{}{
				"status":       model.LinkStatusPending,
				"relationship": relationship,
				"verified_at":  nil,
			}
			if err := database.GetDB().Model(&existing).Updates(updates).Error; err != nil {
				log.Error("Failed to re-request link", zap.Error(err))
				return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
			}
			prometheus.RecordLinkOperation("request")
			return c.JSON(http.StatusCreated, echo.Map{"link": existing, "status": model.LinkStatusPending})
		}
		prometheus.RecordLinkOperation("duplicate")
		return respondError(c, authz.ErrAlreadyLinked)
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		log.Error("Failed to check existing link", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	defer prometheus.TrackDBOperation("insert")(time.Now())
	link := model.ParentStudentLink{
		ParentProfileID: profile.ID,
		StudentID:       student.ID,
		Relationship:    relationship,
		Status:          model.LinkStatusPending,
	}
	if err := database.GetDB().Create(&link).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost the race against a concurrent duplicate submission.
			prometheus.RecordLinkOperation("duplicate")
			return respondError(c, authz.ErrAlreadyLinked)
		}
		log.Error("Failed to create link", zap.Error(err))
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "internal error"})
	}

	prometheus.RecordLinkOperation("request")
	log.Info("Link requested",
		zap.Uint("parent_profile_id", profile.ID),
		zap.Uint("student_id", student.ID),
		zap.String("school_code", req.SchoolCode))

	return c.JSON(http.StatusCreated, echo.Map{"link": link})
}

// childForParent loads the student and runs the guard for a parent read.
// A student outside the parent's verified links is reported as not found.
func childForParent(c echo.Context, resourceType string) (*model.Student, error) {
	var student model.Student
	if err := database.GetDB().First(&student, c.Param("id")).Error; err != nil {
		return nil, authz.ErrNotFound
	}
	res := authz.Resource{Type: resourceType, SchoolID: student.SchoolID, StudentID: student.ID}
	if err := requireAccess(c, res, authz.ActionRead); err != nil {
		return nil, err
	}
	return &student, nil
}

// ChildAttendance returns a linked student's attendance records.
func ChildAttendance(c echo.Context) error {
	student, err := childForParent(c, authz.ResourceAttendance)
	if err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var records []model.AttendanceRecord
	if err := database.GetDB().
		Where("student_id = ?", student.ID).
		Order("date DESC").Limit(90).
		Find(&records).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"student": student, "attendance": records})
}

// ChildHomework returns homework assigned to a linked student's class.
func ChildHomework(c echo.Context) error {
	student, err := childForParent(c, authz.ResourceHomework)
	if err != nil {
		return respondError(c, err)
	}
	if student.ClassID == nil {
		return c.JSON(http.StatusOK, echo.Map{"student": student, "homework": []model.HomeworkAssignment{}})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var homework []model.HomeworkAssignment
	if err := database.GetDB().
		Where("class_id = ?", *student.ClassID).
		Order("due_date DESC").Limit(50).
		Find(&homework).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"student": student, "homework": homework})
}

// ChildFees returns a linked student's fee records.
func ChildFees(c echo.Context) error {
	student, err := childForParent(c, authz.ResourceFees)
	if err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var fees []model.FeeRecord
	if err := database.GetDB().
		Where("student_id = ?", student.ID).
		Order("due_date DESC").
		Find(&fees).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"student": student, "fees": fees})
}

// ParentAnnouncements returns announcements of every school the parent has
// a verified link into, filtered to the parent audience.
func ParentAnnouncements(c echo.Context) error {
	sess := middleware.SessionFrom(c)

	students, err := resolver.LinkedStudents(c.Request().Context(), sess.UserID)
	if err != nil {
		return respondError(c, err)
	}

	schoolIDs := make([]uint, 0, len(students))
	seen := make(map[uint]bool)
	for _, s := range students {
		if !seen[s.SchoolID] {
			seen[s.SchoolID] = true
			schoolIDs = append(schoolIDs, s.SchoolID)
		}
	}
	if len(schoolIDs) == 0 {
		return c.JSON(http.StatusOK, echo.Map{"announcements": []model.Announcement{}})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var announcements []model.Announcement
	if err := database.GetDB().
		Where("school_id IN ? AND audience IN ?", schoolIDs, []string{model.AudienceAll, model.AudienceParents}).
		Order("published_at DESC").Limit(50).
		Find(&announcements).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"announcements": announcements})
}

// Notifications returns the principal's notification inbox.
func Notifications(c echo.Context) error {
	sess := middleware.SessionFrom(c)

	defer prometheus.TrackDBOperation("query")(time.Now())
	var notifications []model.Notification
	if err := database.GetDB().
		Where("user_id = ?", sess.UserID).
		Order("created_at DESC").Limit(50).
		Find(&notifications).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"notifications": notifications})
}

// MarkNotificationRead marks one of the principal's notifications as read.
func MarkNotificationRead(c echo.Context) error {
	sess := middleware.SessionFrom(c)

	var notification model.Notification
	if err := database.GetDB().
		Where("id = ? AND user_id = ?", c.Param("id"), sess.UserID).
		First(&notification).Error; err != nil {
		return respondError(c, authz.ErrNotFound)
	}

	now := time.Now()
	if err := database.GetDB().Model(&notification).Update("read_at", now).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"notification": notification})
}
