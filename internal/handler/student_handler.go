package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"schoolhub/internal/middleware"
	"schoolhub/internal/model"
	"schoolhub/pkg/database"
	"schoolhub/prometheus"
)

// studentRecord resolves the signed-in principal to its student record by
// email match. There is no dedicated student credential in this model.
func studentRecord(c echo.Context) (*model.Student, error) {
	sess := middleware.SessionFrom(c)
	return resolver.StudentRecord(c.Request().Context(), sess.Email)
}

// StudentProfile returns the student's own record and class.
func StudentProfile(c echo.Context) error {
	student, err := studentRecord(c)
	if err != nil {
		return respondError(c, err)
	}
	if student.ClassID != nil {
		database.GetDB().Preload("Class").First(student, student.ID)
	}
	return c.JSON(http.StatusOK, echo.Map{"student": student})
}

// StudentAttendance returns the student's own attendance history.
func StudentAttendance(c echo.Context) error {
	student, err := studentRecord(c)
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
	return c.JSON(http.StatusOK, echo.Map{"attendance": records})
}

// StudentHomework returns homework assigned to the student's class.
func StudentHomework(c echo.Context) error {
	student, err := studentRecord(c)
	if err != nil {
		return respondError(c, err)
	}
	if student.ClassID == nil {
		return c.JSON(http.StatusOK, echo.Map{"homework": []model.HomeworkAssignment{}})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var homework []model.HomeworkAssignment
	if err := database.GetDB().
		Where("class_id = ?", *student.ClassID).
		Order("due_date DESC").Limit(50).
		Find(&homework).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"homework": homework})
}

// StudentTimetable returns the weekly timetable of the student's class.
func StudentTimetable(c echo.Context) error {
	student, err := studentRecord(c)
	if err != nil {
		return respondError(c, err)
	}
	if student.ClassID == nil {
		return c.JSON(http.StatusOK, echo.Map{"timetable": []model.TimetableSlot{}})
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var slots []model.TimetableSlot
	if err := database.GetDB().
		Where("class_id = ?", *student.ClassID).
		Order("weekday, starts_at").
		Find(&slots).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"timetable": slots})
}

// StudentAnnouncements returns the student's school announcements.
func StudentAnnouncements(c echo.Context) error {
	student, err := studentRecord(c)
	if err != nil {
		return respondError(c, err)
	}

	defer prometheus.TrackDBOperation("query")(time.Now())
	var announcements []model.Announcement
	if err := database.GetDB().
		Where("school_id = ? AND audience = ?", student.SchoolID, model.AudienceAll).
		Order("published_at DESC").Limit(50).
		Find(&announcements).Error; err != nil {
		return respondError(c, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"announcements": announcements})
}
