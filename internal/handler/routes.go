package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/noah-isme/interviews-api/internal/middleware"
	"github.com/noah-isme/interviews-api/internal/models"
)

// Handlers groups every HTTP handler mounted under the API prefix.
type Handlers struct {
	Auth           *AuthHandler
	Bookings       *BookingHandler
	Schedules      *ScheduleHandler
	Status         *StatusHandler
	StudentsData   *StudentsDataHandler
	MailingContent *MailingContentHandler
	Interviews     *InterviewHandler
	Metrics        *MetricsHandler
}

// RegisterRoutes mounts the API on group. auth guards every route except sign
// in and signed attachment downloads.
func RegisterRoutes(group *gin.RouterGroup, h Handlers, auth gin.HandlerFunc) {
	staff := middleware.RBAC(middleware.Staff...)
	staffOrSelf := middleware.RBAC(append(append([]string{}, middleware.Staff...), middleware.Self)...)
	admins := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAdmin)
	agents := middleware.RequireRoles(models.RoleSuperAdmin, models.RoleAgent)
	student := middleware.RequireRoles(models.RoleStudent)
	anyone := middleware.RBAC(append(append([]string{}, middleware.Staff...), string(models.RoleStudent))...)

	authGroup := group.Group("/auth")
	authGroup.POST("/login", h.Auth.Login)
	authGroup.POST("/student/login", h.Auth.StudentLogin)
	authGroup.POST("/student/booking-login", h.Auth.BookingLogin)
	authGroup.GET("/me", auth, h.Auth.Me)

	group.GET("/students-data/attachments/:token", h.StudentsData.Attachment)

	protected := group.Group("", auth)

	bookings := protected.Group("/bookings")
	bookings.POST("", anyone, h.Bookings.Book)
	bookings.GET("", staff, h.Bookings.List)
	bookings.GET("/today", staff, h.Bookings.Today)
	bookings.GET("/by-college", staff, h.Bookings.ByCollege)
	bookings.GET("/export", admins, h.Bookings.Export)
	bookings.GET("/student/:universityId", staffOrSelf, h.Bookings.ByStudent)
	bookings.GET("/student/:universityId/slip", staffOrSelf, h.Bookings.Slip)

	schedules := protected.Group("/schedules")
	schedules.GET("", anyone, h.Schedules.List)
	schedules.GET("/:id", anyone, h.Schedules.Get)
	schedules.POST("", admins, h.Schedules.Create)
	schedules.PUT("/:id", admins, h.Schedules.Update)
	schedules.DELETE("/:id", admins, h.Schedules.Delete)

	status := protected.Group("/status")
	status.GET("", staff, h.Status.ListAll)
	status.GET("/latest", staff, h.Status.ListLatest)
	status.GET("/latest/:universityId", staffOrSelf, h.Status.Latest)
	status.POST("/update", staff, h.Status.Update)
	status.POST("/resend-email", staff, h.Status.ResendEmail)

	studentsData := protected.Group("/students-data")
	studentsData.POST("", student, h.StudentsData.Submit)
	studentsData.PUT("", student, h.StudentsData.Edit)
	studentsData.GET("/:universityId", staffOrSelf, h.StudentsData.Info)
	studentsData.GET("/:universityId/review", staff, h.StudentsData.Review)

	mailing := protected.Group("/mailing-contents", admins)
	mailing.GET("", h.MailingContent.List)
	mailing.GET("/:id", h.MailingContent.Get)
	mailing.POST("", h.MailingContent.Create)
	mailing.PUT("/:id", h.MailingContent.Update)
	mailing.PUT("/:id/default", h.MailingContent.SetDefault)
	mailing.DELETE("/:id", h.MailingContent.Delete)

	history := protected.Group("/interview-history")
	history.GET("", staff, h.Interviews.ListHistory)
	history.GET("/student/:universityId", staff, h.Interviews.StudentHistory)
	history.POST("/mark", agents, h.Interviews.Mark)

	results := protected.Group("/interview-results", staff)
	results.GET("", h.Interviews.ListResults)
	results.GET("/present", h.Interviews.Present)
	results.GET("/college-summary", h.Interviews.CollegeSummary)
	results.GET("/:universityId", h.Interviews.GetResult)
	results.POST("", agents, h.Interviews.CreateResult)
	results.PUT("/:universityId", agents, h.Interviews.UpdateResult)
	results.DELETE("/:universityId", admins, h.Interviews.DeleteResult)

	admin := protected.Group("/admin", admins)
	admin.GET("/metrics", h.Metrics.Snapshot)
	admin.GET("/audit-logs", h.Metrics.AuditLogs)
}
