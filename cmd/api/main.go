package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/jmagsino/shs-registrar-api/api/swagger"
	"github.com/jmagsino/shs-registrar-api/internal/handler"
	"github.com/jmagsino/shs-registrar-api/internal/middleware"
	"github.com/jmagsino/shs-registrar-api/internal/models"
	"github.com/jmagsino/shs-registrar-api/internal/repository"
	"github.com/jmagsino/shs-registrar-api/internal/service"
	"github.com/jmagsino/shs-registrar-api/pkg/cache"
	"github.com/jmagsino/shs-registrar-api/pkg/config"
	"github.com/jmagsino/shs-registrar-api/pkg/database"
	"github.com/jmagsino/shs-registrar-api/pkg/export"
	"github.com/jmagsino/shs-registrar-api/pkg/logger"
	corsmiddleware "github.com/jmagsino/shs-registrar-api/pkg/middleware/cors"
	reqidmiddleware "github.com/jmagsino/shs-registrar-api/pkg/middleware/requestid"
	"github.com/jmagsino/shs-registrar-api/pkg/storage"
)

// @title SHS Registrar API
// @version 1.0.0
// @description Senior high school enrollment and registrar management
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
		redisClient = nil
	}

	documentStore, err := storage.NewLocalStorage(cfg.Documents.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init document storage", "error", err)
	}
	reportStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init report storage", "error", err)
	}

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	yearRepo := repository.NewSchoolYearRepository(db)
	strandRepo := repository.NewStrandRepository(db)
	sectionRepo := repository.NewSectionRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	transfereeRepo := repository.NewTransfereeRepository(db)
	reportRepo := repository.NewReportRepository(db)

	// Notification delivery rides a background queue; delivery is best effort.
	dispatcher := service.NewNotificationDispatcher(service.NewLogNotifier(logr), cfg.Notifications, logr)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	dispatcher.Start(ctx)
	defer dispatcher.Stop()

	// Services.
	metricsService := service.NewMetricsService()
	authService := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "shs-registrar-api",
	})
	enrollmentService := service.NewEnrollmentService(
		enrollmentRepo, studentRepo, yearRepo, strandRepo, sectionRepo,
		subjectRepo, transfereeRepo, userRepo, documentStore, dispatcher, metricsService, validate, logr,
	)
	transfereeService := service.NewTransfereeService(
		transfereeRepo, enrollmentRepo, subjectRepo, strandRepo, yearRepo,
		userRepo, dispatcher, validate, logr,
	)
	progressionService := service.NewProgressionService(gradeRepo, studentRepo, validate, logr)
	scheduleService := service.NewScheduleService(scheduleRepo, validate, logr)
	sectionService := service.NewSectionService(sectionRepo, strandRepo, yearRepo, cfg.Enrollment, validate, logr)
	schoolYearService := service.NewSchoolYearService(yearRepo, validate, logr)
	catalogService := service.NewCatalogService(strandRepo, subjectRepo, validate, logr)
	studentService := service.NewStudentService(studentRepo, validate, logr)
	reportService := service.NewReportService(
		reportRepo, enrollmentRepo, scheduleRepo, sectionRepo,
		redisClient, cfg.Reports, export.NewCORExporter("Senior High School Registrar"), reportStore, metricsService, logr,
	)

	// Handlers.
	authHandler := handler.NewAuthHandler(authService)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentService)
	transfereeHandler := handler.NewTransfereeHandler(transfereeService)
	scheduleHandler := handler.NewScheduleHandler(scheduleService)
	sectionHandler := handler.NewSectionHandler(sectionService)
	schoolYearHandler := handler.NewSchoolYearHandler(schoolYearService)
	catalogHandler := handler.NewCatalogHandler(catalogService)
	studentHandler := handler.NewStudentHandler(studentService, progressionService)
	gradeHandler := handler.NewGradeHandler(progressionService)
	reportHandler := handler.NewReportHandler(reportService)
	metricsHandler := handler.NewMetricsHandler(metricsService)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)

	registrar := string(models.RoleRegistrar)
	coordinator := string(models.RoleCoordinator)
	faculty := string(models.RoleFaculty)
	superadmin := string(models.RoleSuperAdmin)
	staff := []string{superadmin, registrar, coordinator}

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.GET("/me", middleware.JWT(authService), authHandler.Me)
		auth.POST("/logout", middleware.JWT(authService), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authService), authHandler.ChangePassword)
	}

	// Public catalog and the application intake surface.
	api.GET("/strands", catalogHandler.ListStrands)
	api.GET("/subjects", catalogHandler.ListSubjects)
	api.GET("/school-years", schoolYearHandler.List)
	api.GET("/school-years/active", schoolYearHandler.Active)
	api.POST("/enrollments", middleware.OptionalJWT(authService), enrollmentHandler.Submit)
	api.GET("/reports/download", reportHandler.Download)

	protected := api.Group("")
	protected.Use(middleware.JWT(authService))
	{
		enrollments := protected.Group("/enrollments")
		{
			enrollments.GET("", middleware.RBAC(staff...), enrollmentHandler.List)
			enrollments.GET("/:id", middleware.RBACOwned(enrollmentService.OwnedBy, staff...), enrollmentHandler.Get)
			enrollments.POST("/:id/approve", middleware.RBAC(superadmin, registrar, coordinator), enrollmentHandler.Approve)
			enrollments.POST("/:id/finalize", middleware.RBAC(superadmin, registrar), enrollmentHandler.Finalize)
			enrollments.POST("/:id/reject", middleware.RBAC(superadmin, registrar, coordinator), enrollmentHandler.Reject)
			enrollments.POST("/:id/return", middleware.RBAC(superadmin, registrar, coordinator), enrollmentHandler.Return)
			enrollments.POST("/:id/resubmit", middleware.RBACOwned(enrollmentService.OwnedBy, superadmin, registrar), enrollmentHandler.Resubmit)
			enrollments.GET("/:id/evaluation", middleware.RBAC(staff...), transfereeHandler.Get)
			enrollments.POST("/:id/evaluate", middleware.RBAC(superadmin, coordinator), transfereeHandler.Evaluate)
			enrollments.GET("/:id/cor", middleware.RBACOwned(enrollmentService.OwnedBy, staff...), reportHandler.COR)
			enrollments.POST("/:id/cor/export", middleware.RBAC(staff...), reportHandler.ExportCOR)
			enrollments.POST("/:id/grades/approve", middleware.RBAC(superadmin, registrar), gradeHandler.Approve)
		}

		students := protected.Group("/students")
		students.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleRegistrar, models.RoleCoordinator))
		{
			students.GET("", studentHandler.List)
			students.GET("/:id", studentHandler.Get)
			students.PUT("/:id", middleware.Audit(userRepo, models.AuditActionUserUpdate, "students"), studentHandler.Update)
			students.GET("/:id/progression", studentHandler.Progression)
		}

		sections := protected.Group("/sections")
		{
			sections.GET("", middleware.RBAC(append(staff, faculty)...), sectionHandler.List)
			sections.GET("/:id", middleware.RBAC(append(staff, faculty)...), sectionHandler.Get)
			sections.POST("", middleware.RBAC(superadmin, registrar), sectionHandler.Create)
			sections.PUT("/:id", middleware.RBAC(superadmin, registrar), sectionHandler.Update)
			sections.GET("/:id/roster", middleware.RBAC(append(staff, faculty)...), sectionHandler.Roster)
		}

		schedules := protected.Group("/schedules")
		{
			schedules.GET("", middleware.RBAC(append(staff, faculty)...), scheduleHandler.List)
			schedules.POST("", middleware.RBAC(superadmin, registrar), scheduleHandler.Create)
			schedules.PUT("/:id", middleware.RBAC(superadmin, registrar), scheduleHandler.Update)
		}

		grades := protected.Group("/grades")
		{
			grades.GET("", middleware.RBAC(append(staff, faculty)...), gradeHandler.List)
			grades.PUT("", middleware.RBAC(superadmin, registrar, faculty), gradeHandler.Upsert)
		}

		admin := protected.Group("")
		admin.Use(middleware.RequireRoles(models.RoleSuperAdmin, models.RoleRegistrar))
		{
			admin.POST("/strands", catalogHandler.CreateStrand)
			admin.POST("/subjects", catalogHandler.CreateSubject)
			admin.POST("/school-years", schoolYearHandler.Create)
			admin.POST("/school-years/:id/activate", schoolYearHandler.Activate)
			admin.PUT("/school-years/:id/enrollment-window", schoolYearHandler.SetEnrollmentOpen)
			admin.GET("/reports/summary", reportHandler.Summary)
			admin.GET("/reports/pending", reportHandler.Pending)
			admin.POST("/reports/summary/export", reportHandler.ExportSummary)
			admin.POST("/reports/sections/:id/roster/export", reportHandler.ExportRoster)
		}
	}

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
