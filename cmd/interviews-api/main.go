package main

import (
	"context"
	"errors"
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
	"go.uber.org/zap"

	_ "github.com/noah-isme/interviews-api/api/swagger"
	"github.com/noah-isme/interviews-api/internal/handler"
	"github.com/noah-isme/interviews-api/internal/middleware"
	"github.com/noah-isme/interviews-api/internal/repository"
	"github.com/noah-isme/interviews-api/internal/service"
	"github.com/noah-isme/interviews-api/pkg/cache"
	"github.com/noah-isme/interviews-api/pkg/config"
	"github.com/noah-isme/interviews-api/pkg/database"
	"github.com/noah-isme/interviews-api/pkg/export"
	"github.com/noah-isme/interviews-api/pkg/jobs"
	"github.com/noah-isme/interviews-api/pkg/logger"
	"github.com/noah-isme/interviews-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/interviews-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/interviews-api/pkg/middleware/requestid"
	"github.com/noah-isme/interviews-api/pkg/storage"
)

const organisation = "Admissions Office"

// @title Interviews API
// @version 1.0.0
// @description Student screening, interview scheduling and booking
// @BasePath /api/v1
// @schemes http https
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, cfg, logr); err != nil {
		logr.Fatal("server failed", zap.Error(err))
	}
}

func run(ctx context.Context, cfg *config.Config, logr *zap.Logger) error {
	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		return err
	}
	defer db.Close()

	metrics := service.NewMetricsService()

	cacheRepo := repository.NewCacheRepository(nil, "interviews", logr)
	if cfg.Cache.Enabled {
		client, err := cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.String("addr", cache.Addr(cfg.Redis)), zap.Error(err))
		} else {
			cacheRepo = repository.NewCacheRepository(client, "interviews", logr)
		}
	}
	defer cacheRepo.Close() //nolint:errcheck
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Cache.TTL, logr, cfg.Cache.Enabled)

	files, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		return fmt.Errorf("init attachment storage: %w", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	statusRepo := repository.NewStatusRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)
	bookingRepo := repository.NewBookingRepository(db)
	studentsDataRepo := repository.NewStudentsDataRepository(db)
	mailingRepo := repository.NewMailingContentRepository(db)
	historyRepo := repository.NewInterviewHistoryRepository(db)
	resultRepo := repository.NewInterviewResultRepository(db)

	auditSvc := service.NewAuditService(userRepo, nil, logr)
	auditQueue := jobs.NewQueue("audit", auditSvc.Handle, jobs.QueueConfig{
		Workers:    cfg.Audit.Workers,
		MaxRetries: cfg.Audit.MaxRetries,
		Logger:     logr,
	})
	auditQueue.Start(ctx)
	defer auditQueue.Stop()
	auditSvc.SetDispatcher(auditQueue)

	validate := validator.New()
	sender := mailer.New(cfg.SMTP, logr)

	authSvc := service.NewAuthService(userRepo, studentRepo, statusRepo, auditSvc, validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
	})
	statusSvc := service.NewStatusService(statusRepo, mailingRepo, studentRepo, studentsDataRepo, sender, metrics, auditSvc, validate, logr, cfg.Booking.PortalURL)
	scheduleSvc := service.NewScheduleService(scheduleRepo, mailingRepo, cacheSvc, auditSvc, validate, logr, service.ScheduleConfig{
		DefaultCapacity: cfg.Booking.DefaultCapacity,
		DefaultLocation: cfg.Booking.DefaultLocation,
	})
	bookingSvc := service.NewBookingService(bookingRepo, cacheSvc, metrics, auditSvc, validate, logr, export.NewCSVExporter(), export.NewPDFExporter(organisation))
	studentsDataSvc := service.NewStudentsDataService(studentsDataRepo, statusSvc, files, signer, auditSvc, validate, logr, service.StudentsDataConfig{
		MaxFileSize:  cfg.Uploads.MaxFileSizeBytes,
		AllowedMIMEs: cfg.Uploads.AllowedMIMEs,
		DownloadPath: cfg.APIPrefix + "/students-data/attachments",
	})
	mailingSvc := service.NewMailingContentService(mailingRepo, cacheSvc, auditSvc, validate, logr)
	historySvc := service.NewInterviewHistoryService(historyRepo, auditSvc, validate, logr)
	resultSvc := service.NewInterviewResultService(resultRepo, cacheSvc, auditSvc, validate, logr)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	metricsHandler := handler.NewMetricsHandler(metrics, auditSvc)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		pingCtx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(pingCtx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.RegisterRoutes(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:           handler.NewAuthHandler(authSvc),
		Bookings:       handler.NewBookingHandler(bookingSvc),
		Schedules:      handler.NewScheduleHandler(scheduleSvc),
		Status:         handler.NewStatusHandler(statusSvc),
		StudentsData:   handler.NewStudentsDataHandler(studentsDataSvc),
		MailingContent: handler.NewMailingContentHandler(mailingSvc),
		Interviews:     handler.NewInterviewHandler(historySvc, resultSvc),
		Metrics:        metricsHandler,
	}, middleware.JWT(authSvc))

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logr.Info("server starting", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
