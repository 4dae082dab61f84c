package main

import (
	"schoolhub/internal/authz"
	"schoolhub/internal/handler"
	"schoolhub/internal/middleware"
	"schoolhub/internal/model"
	"schoolhub/pkg/config"
	"schoolhub/pkg/database"
	"schoolhub/pkg/jwtutil"
	"schoolhub/pkg/logger"
	"schoolhub/prometheus"

	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func main() {
	// Load configuration from .env file and environment variables
	cfg, err := config.Load()
	if err != nil {
		panic("Failed to load configuration: " + err.Error())
	}

	// Initialize logger with config
	if err := logger.InitLogger(cfg); err != nil {
		panic("Failed to initialize logger: " + err.Error())
	}
	log := logger.GetLogger()
	log.Info("Starting schoolhub...", zap.String("environment", cfg.Server.Env))

	// Initialize database
	if err := database.InitDB(cfg); err != nil {
		log.Fatal("Failed to initialize database", zap.Error(err))
	}
	log.Info("Database connection established")

	// Initialize JWT utility
	jwtutil.Initialize(&cfg.JWT)
	log.Info("JWT utility initialized")

	// Wire handlers to the identity/authorization store
	handler.Init(authz.NewStore(database.GetDB()))

	// Initialize Echo framework
	e := echo.New()

	// Apply global middleware - order matters
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(middleware.RequestIDMiddleware)
	e.Use(logger.Middleware())
	e.Use(prometheus.MetricsMiddleware())

	// Public routes - no authentication required
	e.GET("/health", handler.HealthCheck)
	e.GET("/metrics", handler.MetricsHandler)

	// Authentication routes
	auth := e.Group("/auth")
	auth.POST("/register", handler.Register)
	auth.POST("/login", handler.Login)

	// API routes - all require authentication
	api := e.Group("/api")
	api.Use(middleware.AuthMiddleware)

	// Session context
	api.GET("/me", handler.Me)
	session := api.Group("/session")
	session.POST("/activate", handler.ActivateRole)

	// Notifications belong to the principal, not a role
	api.GET("/notifications", handler.Notifications)
	api.POST("/notifications/:id/read", handler.MarkNotificationRead)

	// Parent dashboard
	parent := api.Group("/parent")
	parent.Use(middleware.RequireRole(model.RoleParent))
	parent.GET("/children", handler.ListChildren)
	parent.POST("/links", handler.RequestLink)
	parent.GET("/children/:id/attendance", handler.ChildAttendance)
	parent.GET("/children/:id/homework", handler.ChildHomework)
	parent.GET("/children/:id/fees", handler.ChildFees)
	parent.GET("/announcements", handler.ParentAnnouncements)

	// Student dashboard - email-matched pseudo-role
	student := api.Group("/student")
	student.Use(middleware.RequireRole(model.RoleStudent))
	student.GET("/profile", handler.StudentProfile)
	student.GET("/attendance", handler.StudentAttendance)
	student.GET("/homework", handler.StudentHomework)
	student.GET("/timetable", handler.StudentTimetable)
	student.GET("/announcements", handler.StudentAnnouncements)

	// Teacher dashboard
	teacher := api.Group("/teacher")
	teacher.Use(middleware.RequireRole(model.RoleTeacher, model.RoleAdmin))
	teacher.GET("/profile", handler.TeacherProfileHandler)
	teacher.GET("/classes/:id/roster", handler.ClassRoster)
	teacher.PUT("/attendance", handler.MarkAttendance)
	teacher.POST("/homework", handler.CreateHomework)
	teacher.GET("/homework", handler.ListHomework)
	teacher.PATCH("/homework/:id", handler.UpdateHomework)
	teacher.DELETE("/homework/:id", handler.DeleteHomework)
	teacher.GET("/timetable", handler.TeacherTimetable)

	// School admin dashboard
	admin := api.Group("/admin")
	admin.Use(middleware.RequireRole(model.RoleAdmin))
	admin.POST("/teachers", handler.ProvisionTeacher)
	admin.POST("/students", handler.CreateStudent)
	admin.POST("/classes", handler.CreateClass)
	admin.POST("/timetable", handler.CreateTimetableSlot)
	admin.GET("/links/pending", handler.ListPendingLinks)
	admin.POST("/links/:id/verify", handler.VerifyLink)
	admin.POST("/links/:id/reject", handler.RejectLink)
	admin.POST("/fees", handler.CreateFee)
	admin.POST("/fees/:id/paid", handler.MarkFeePaid)
	admin.POST("/announcements", handler.CreateAnnouncement)
	admin.GET("/attendance/summary", handler.AttendanceSummary)

	// Platform super-admin
	superAdmin := api.Group("/super-admin")
	superAdmin.Use(middleware.RequireRole(model.RoleSuperAdmin))
	superAdmin.POST("/schools", handler.CreateSchool)
	superAdmin.GET("/schools", handler.ListSchools)
	superAdmin.POST("/schools/:id/deactivate", handler.DeactivateSchool)
	superAdmin.POST("/admins", handler.GrantAdmin)
	superAdmin.GET("/stats", handler.PlatformStats)

	// Start server
	port := cfg.Server.Port
	log.Info("Starting server", zap.String("port", port))
	if err := e.Start(":" + port); err != nil {
		log.Fatal("Failed to start server", zap.Error(err))
	}
}
