package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	_ "github.com/noah-isme/liceo-academic-api/api/swagger"
	"github.com/noah-isme/liceo-academic-api/internal/models"
	"github.com/noah-isme/liceo-academic-api/internal/repository"
	"github.com/noah-isme/liceo-academic-api/internal/service"
	"github.com/noah-isme/liceo-academic-api/migrations"
	"github.com/noah-isme/liceo-academic-api/pkg/cache"
	"github.com/noah-isme/liceo-academic-api/pkg/config"
	"github.com/noah-isme/liceo-academic-api/pkg/database"
	"github.com/noah-isme/liceo-academic-api/pkg/logger"
)

// @title Liceo Academic API
// @version 1.0.0
// @description Grades, enrollments and academic progression for a secondary school.
// @BasePath /api/v1
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Fatal("failed to connect database", zap.Error(err))
	}
	defer db.Close()

	if cfg.Database.AutoMigrate {
		if err := database.Migrate(ctx, db, migrations.FS, migrations.Dir, "up"); err != nil {
			logr.Fatal("failed to apply migrations", zap.Error(err))
		}
		logr.Info("migrations applied")
	}

	var redisClient *redis.Client
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	var metricsSvc *service.MetricsService
	if cfg.Metrics.Enabled {
		metricsSvc = service.NewMetricsService()
	}

	validate := validator.New()
	tx := database.NewTransactor(db)

	userRepo := repository.NewUserRepository(db)
	yearRepo := repository.NewSchoolYearRepository(db)
	levelRepo := repository.NewGradeLevelRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	windowRepo := repository.NewGradingWindowRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	assignmentRepo := repository.NewTeacherAssignmentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	subjectEnrollmentRepo := repository.NewSubjectEnrollmentRepository(db)
	evaluationRepo := repository.NewEvaluationRepository(db)
	reportRepo := repository.NewReportRepository(db)
	dashboardRepo := repository.NewDashboardRepository(db)

	var cacheRepo service.CacheRepository
	if redisClient != nil {
		cacheRepo = repository.NewCacheRepository(redisClient, "liceo")
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.DashboardTTL, logr, redisClient != nil)

	progressionSvc := service.NewProgressionService(subjectEnrollmentRepo, yearRepo, subjectRepo, metricsSvc, validate, logr)

	svcs := services{
		auth: service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
			AccessTokenSecret: cfg.JWT.Secret,
			AccessTokenExpiry: cfg.JWT.Expiration,
			Issuer:            cfg.JWT.Issuer,
		}),
		schoolYears:    service.NewSchoolYearService(yearRepo, levelRepo, validate, logr),
		sections:       service.NewSectionService(sectionRepo, levelRepo, validate, logr),
		gradingWindows: service.NewGradingWindowService(windowRepo, validate, logr),
		subjects:       service.NewSubjectService(tx, subjectRepo, levelRepo, validate, logr),
		students:       service.NewStudentService(studentRepo, cacheSvc, validate, logr),
		teachers:       service.NewTeacherService(teacherRepo, validate, logr),
		assignments:    service.NewTeacherAssignmentService(tx, assignmentRepo, teacherRepo, subjectRepo, sectionRepo, yearRepo, validate, logr),
		enrollments: service.NewEnrollmentService(tx, enrollmentRepo, subjectEnrollmentRepo, progressionSvc,
			studentRepo, sectionRepo, yearRepo, cacheSvc, metricsSvc, validate, logr),
		evaluations: service.NewEvaluationService(tx, evaluationRepo, subjectEnrollmentRepo, windowRepo, cacheSvc, metricsSvc, validate, logr),
		reports: service.NewReportService(reportRepo, enrollmentRepo, assignmentRepo, teacherRepo, sectionRepo, yearRepo, cacheSvc, metricsSvc, service.ReportOptions{
			InstitutionName: cfg.Reports.InstitutionName,
			DefaultFormat:   models.ReportFormat(cfg.Reports.DefaultFormat),
			ReportCardTTL:   cfg.Cache.ReportCardTTL,
			PrincipalName:   cfg.Reports.PrincipalName,
			Locality:        cfg.Reports.Locality,
		}, logr),
		dashboard: service.NewDashboardService(service.DashboardServiceParams{
			Repo:   dashboardRepo,
			Years:  yearRepo,
			Cache:  cacheSvc,
			Logger: logr,
			Config: service.DashboardServiceConfig{CacheTTL: cfg.Cache.DashboardTTL},
		}),
		metrics: metricsSvc,
	}

	router := newRouter(cfg, logr, db, svcs)

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Port),
		Handler:      router,
		ReadTimeout:  cfg.HTTP.ReadTimeout,
		WriteTimeout: cfg.HTTP.WriteTimeout,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTP.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}
