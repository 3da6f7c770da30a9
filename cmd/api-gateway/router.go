package main

import (
	"github.com/gin-gonic/gin"
	"github.com/jmoiron/sqlx"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	"github.com/noah-isme/liceo-academic-api/internal/handler"
	"github.com/noah-isme/liceo-academic-api/internal/middleware"
	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/internal/service"
	"github.com/noah-isme/liceo-academic-api/pkg/config"
	"github.com/noah-isme/liceo-academic-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/liceo-academic-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/liceo-academic-api/pkg/middleware/requestid"
)

type services struct {
	auth           *service.AuthService
	schoolYears    *service.SchoolYearService
	sections       *service.SectionService
	gradingWindows *service.GradingWindowService
	subjects       *service.SubjectService
	students       *service.StudentService
	teachers       *service.TeacherService
	assignments    *service.TeacherAssignmentService
	enrollments    *service.EnrollmentService
	evaluations    *service.EvaluationService
	reports        *service.ReportService
	dashboard      *service.DashboardService
	metrics        *service.MetricsService
}

func newRouter(cfg *config.Config, logr *zap.Logger, db *sqlx.DB, svcs services) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(svcs.metrics, "/metrics", "/health", "/ready"))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(svcs.metrics, db)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	if svcs.metrics != nil {
		r.GET("/metrics", metricsHandler.Prometheus)
	}

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	authHandler := handler.NewAuthHandler(svcs.auth)
	schoolYearHandler := handler.NewSchoolYearHandler(svcs.schoolYears)
	sectionHandler := handler.NewSectionHandler(svcs.sections)
	windowHandler := handler.NewGradingWindowHandler(svcs.gradingWindows)
	subjectHandler := handler.NewSubjectHandler(svcs.subjects)
	studentHandler := handler.NewStudentHandler(svcs.students)
	teacherHandler := handler.NewTeacherHandler(svcs.teachers, svcs.assignments)
	assignmentHandler := handler.NewTeacherAssignmentHandler(svcs.assignments)
	enrollmentHandler := handler.NewEnrollmentHandler(svcs.enrollments)
	evaluationHandler := handler.NewEvaluationHandler(svcs.evaluations)
	reportHandler := handler.NewReportHandler(svcs.reports)
	dashboardHandler := handler.NewDashboardHandler(svcs.dashboard)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	secured := api.Group("")
	secured.Use(middleware.JWT(svcs.auth))
	secured.GET("/auth/me", authHandler.Me)

	admin := middleware.RequireRoles(models.RoleAdmin)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher)

	// catalog reads are open to any signed-in user
	secured.GET("/school-years", schoolYearHandler.List)
	secured.GET("/school-years/current", schoolYearHandler.Current)
	secured.GET("/school-years/:id", schoolYearHandler.Get)
	secured.GET("/grade-levels", schoolYearHandler.GradeLevels)
	secured.GET("/sections", sectionHandler.List)
	secured.GET("/sections/:id", sectionHandler.Get)
	secured.GET("/grading-windows", windowHandler.List)
	secured.GET("/grading-windows/:id", windowHandler.Get)
	secured.GET("/subjects", subjectHandler.List)
	secured.GET("/subjects/:code", subjectHandler.Get)
	secured.GET("/offerings", subjectHandler.ListOfferings)

	catalog := secured.Group("", admin)
	catalog.POST("/school-years", schoolYearHandler.Create)
	catalog.PUT("/school-years/:id", schoolYearHandler.Rename)
	catalog.DELETE("/school-years/:id", schoolYearHandler.Delete)
	catalog.POST("/sections", sectionHandler.Create)
	catalog.PATCH("/sections/:id", sectionHandler.Update)
	catalog.DELETE("/sections/:id", sectionHandler.Delete)
	catalog.POST("/grading-windows", windowHandler.Create)
	catalog.PATCH("/grading-windows/:id", windowHandler.Update)
	catalog.DELETE("/grading-windows/:id", windowHandler.Delete)
	catalog.POST("/subjects", subjectHandler.Create)
	catalog.PATCH("/subjects/:code", subjectHandler.Update)
	catalog.DELETE("/subjects/:code", subjectHandler.Delete)
	catalog.POST("/offerings", subjectHandler.CreateOffering)
	catalog.DELETE("/offerings/:id", subjectHandler.DeleteOffering)

	students := secured.Group("/students")
	students.GET("", staff, studentHandler.List)
	students.GET("/:id", staff, studentHandler.Get)
	students.GET("/:id/failed-subjects", staff, enrollmentHandler.FailedSubjects)
	students.POST("", admin, studentHandler.Create)
	students.PATCH("/:id", admin, studentHandler.Update)
	students.DELETE("/:id", admin, studentHandler.Delete)

	teachers := secured.Group("/teachers")
	teachers.GET("", admin, teacherHandler.List)
	teachers.GET("/:id", middleware.RBAC(string(models.RoleAdmin), middleware.SelfTeacher), teacherHandler.Get)
	teachers.GET("/:id/assignments", middleware.RBAC(string(models.RoleAdmin), middleware.SelfTeacher), teacherHandler.Assignments)
	teachers.POST("", admin, teacherHandler.Create)
	teachers.PATCH("/:id", admin, teacherHandler.Update)
	teachers.DELETE("/:id", admin, teacherHandler.Delete)

	assignments := secured.Group("/teacher-assignments")
	assignments.GET("", staff, assignmentHandler.List)
	assignments.GET("/:id", staff, assignmentHandler.Get)
	assignments.POST("", admin, assignmentHandler.Assign)
	assignments.DELETE("/:id", admin, assignmentHandler.Delete)

	enrollments := secured.Group("/enrollments")
	enrollments.GET("", staff, enrollmentHandler.List)
	enrollments.GET("/:id", staff, enrollmentHandler.Get)
	enrollments.GET("/:id/available-subjects", staff, enrollmentHandler.AvailableSubjects)
	enrollments.GET("/:id/subjects", staff, enrollmentHandler.ListSubjects)
	enrollments.POST("", admin, enrollmentHandler.Create)
	enrollments.PATCH("/:id", admin, enrollmentHandler.Update)
	enrollments.DELETE("/:id", admin, enrollmentHandler.Delete)
	enrollments.POST("/:id/subjects", admin, enrollmentHandler.EnrollSubjects)
	enrollments.DELETE("/:id/subjects/:subjectEnrollmentId", admin, enrollmentHandler.DropSubject)

	grading := secured.Group("", staff)
	grading.GET("/subject-enrollments/:id/evaluations", evaluationHandler.List)
	grading.POST("/evaluations", evaluationHandler.Record)
	grading.PATCH("/evaluations/:id", evaluationHandler.Update)
	grading.DELETE("/evaluations/:id", evaluationHandler.Delete)

	reports := secured.Group("/reports", staff)
	reports.GET("/report-cards/:id", reportHandler.ReportCard)
	reports.GET("/grade-registers/:id", reportHandler.GradeRegister)
	reports.GET("/section-sheets/:id", reportHandler.SectionSheet)
	reports.GET("/enrollment-receipts/:id", reportHandler.EnrollmentReceipt)
	reports.GET("/study-certificates/:id", reportHandler.StudentCertificate)
	reports.GET("/teacher-certificates/:id", reportHandler.TeacherCertificate)

	secured.GET("/dashboard", admin, dashboardHandler.Summary)

	return r
}
