package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	_ "github.com/noah-isme/eduattend-api/api/swagger"
	"github.com/noah-isme/eduattend-api/internal/handler"
	"github.com/noah-isme/eduattend-api/internal/middleware"
	"github.com/noah-isme/eduattend-api/internal/repository"
	"github.com/noah-isme/eduattend-api/internal/repository/memory"
	"github.com/noah-isme/eduattend-api/internal/seed"
	"github.com/noah-isme/eduattend-api/internal/service"
	"github.com/noah-isme/eduattend-api/internal/session"
	"github.com/noah-isme/eduattend-api/pkg/cache"
	"github.com/noah-isme/eduattend-api/pkg/config"
	"github.com/noah-isme/eduattend-api/pkg/database"
	"github.com/noah-isme/eduattend-api/pkg/genai"
	"github.com/noah-isme/eduattend-api/pkg/jobs"
	"github.com/noah-isme/eduattend-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/eduattend-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/eduattend-api/pkg/middleware/requestid"
	"github.com/noah-isme/eduattend-api/pkg/storage"
	"github.com/noah-isme/eduattend-api/pkg/validation"
)

// @title EduAttend API
// @version 1.0.0
// @description Attendance, coursework and messaging portal for parents and teachers
// @BasePath /
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

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	probes := map[string]handler.Probe{}
	loc := cfg.Location()

	store, closeStore, err := openStore(ctx, cfg, loc, probes)
	if err != nil {
		logr.Fatal("failed to open store", zap.Error(err))
	}
	defer closeStore()

	var (
		sessionStore session.Store           = session.NewMemoryStore()
		cacheRepo    service.CacheRepository = memory.NewCache()
		redisClient  *redis.Client
	)
	if cfg.Redis.Enabled {
		redisClient, err = cache.NewRedis(ctx, cfg.Redis)
		if err != nil {
			logr.Fatal("failed to connect redis", zap.Error(err))
		}
		defer redisClient.Close() //nolint:errcheck
		sessionStore = session.NewRedisStore(redisClient)
		cacheRepo = repository.NewRedisCache(redisClient)
		probes["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	validate := validation.New()
	metrics := service.NewMetricsService()
	clock := service.Clock{Now: time.Now, Location: loc}
	cacheSvc := service.NewCacheService(cacheRepo, metrics, cfg.Dashboard.CacheTTL, logr, cfg.Dashboard.CacheEnabled)

	authSvc := service.NewAuthService(store.Users, session.NewManager(sessionStore, cfg.JWT.Expiration, logr), validate, logr, service.AuthConfig{
		AccessTokenSecret: cfg.JWT.Secret,
		AccessTokenExpiry: cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		DemoLogin:         cfg.Auth.DemoLogin,
	})
	childSvc := service.NewChildService(store.Children, store.Classes, store.Subjects, store.Attendance, clock, logr)
	attendanceSvc := service.NewAttendanceService(store.Attendance, store.Children, store.Classes, cacheSvc, validate, clock, logr)
	assignmentSvc := service.NewAssignmentService(store.Assignments, store.Submissions, store.Subjects, store.Children, store.Classes, cacheSvc, validate, clock, logr)
	gradeSvc := service.NewGradeService(store.Grades, store.Subjects, store.Children, store.Classes, validate, logr)
	notificationSvc := service.NewNotificationService(store.Notifications, store.Classes, store.Children, cacheSvc, validate, logr)
	messagingSvc := service.NewMessagingService(store.Conversations, cacheSvc, validate, logr)
	dashboardSvc := service.NewDashboardService(service.DashboardDeps{
		Children:      childSvc,
		Assignments:   assignmentSvc,
		Notifications: notificationSvc,
		Messages:      messagingSvc,
		Classes:       store.Classes,
		Students:      store.Children,
		Attendance:    store.Attendance,
		Cache:         cacheSvc,
		Clock:         clock,
		Logger:        logr,
	})

	aiDeps := service.AIDeps{
		Children:      store.Children,
		Classes:       store.Classes,
		Attendance:    store.Attendance,
		Grades:        gradeSvc,
		Assignments:   assignmentSvc,
		Subjects:      store.Subjects,
		Notifications: notificationSvc,
		Validator:     validate,
		Metrics:       metrics,
		Timeout:       cfg.AI.Timeout,
		Logger:        logr,
	}
	if cfg.AI.APIKey != "" {
		aiDeps.Generator = genai.NewClient(cfg.AI, nil, logr)
	} else {
		logr.Warn("AI_API_KEY not set; drafting helpers will fail")
	}
	aiSvc := service.NewAIService(aiDeps)

	exportSvc, exportQueue, err := buildExports(cfg, store, metrics, validate, logr)
	if err != nil {
		logr.Fatal("failed to init exports", zap.Error(err))
	}
	if exportQueue != nil {
		exportQueue.Start(ctx)
		defer exportQueue.Stop()
		exportSvc.StartCleanup(ctx)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))
	r.Use(middleware.WithResponseMeta())

	metricsHandler := handler.NewMetricsHandler(metrics, probes)
	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	handler.Register(r.Group(cfg.APIPrefix), handler.Handlers{
		Auth:          handler.NewAuthHandler(authSvc),
		Children:      handler.NewChildHandler(childSvc, attendanceSvc, assignmentSvc, gradeSvc),
		Attendance:    handler.NewAttendanceHandler(attendanceSvc),
		Assignments:   handler.NewAssignmentHandler(assignmentSvc),
		Grades:        handler.NewGradeHandler(gradeSvc),
		Notifications: handler.NewNotificationHandler(notificationSvc),
		Conversations: handler.NewConversationHandler(messagingSvc),
		Dashboard:     handler.NewDashboardHandler(dashboardSvc),
		AI:            handler.NewAIHandler(aiSvc),
		Exports:       handler.NewExportHandler(exportSvc),
	}, authSvc, metrics)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "store", cfg.Store.Driver)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("graceful shutdown failed", zap.Error(err))
	}
}

func openStore(ctx context.Context, cfg *config.Config, loc *time.Location, probes map[string]handler.Probe) (*repository.Store, func(), error) {
	switch cfg.Store.Driver {
	case config.StoreDriverPostgres:
		db, err := database.NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, nil, err
		}
		probes["postgres"] = db.PingContext
		return repository.NewPostgresStore(db), func() { _ = db.Close() }, nil
	case config.StoreDriverMemory, "":
		db := memory.New()
		if cfg.Store.Seed {
			hash, err := bcrypt.GenerateFromPassword([]byte(cfg.Auth.DemoPassword), bcrypt.DefaultCost)
			if err != nil {
				return nil, nil, fmt.Errorf("hash demo password: %w", err)
			}
			db.Load(seed.Build(time.Now(), loc, string(hash)))
		}
		return db.Store(), func() {}, nil
	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.Store.Driver)
	}
}

func buildExports(cfg *config.Config, store *repository.Store, metrics *service.MetricsService, validate *validator.Validate, logr *zap.Logger) (*service.ExportService, *jobs.Queue, error) {
	deps := service.ExportDeps{
		Jobs:       store.ExportJobs,
		Children:   store.Children,
		Classes:    store.Classes,
		Attendance: store.Attendance,
		Metrics:    metrics,
		Validator:  validate,
		Config: service.ExportConfig{
			Enabled:         cfg.Exports.Enabled,
			APIPrefix:       cfg.APIPrefix,
			CleanupInterval: cfg.Exports.CleanupInterval,
		},
		Logger: logr,
	}
	if !cfg.Exports.Enabled {
		return service.NewExportService(deps), nil, nil
	}

	files, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		return nil, nil, err
	}
	deps.Storage = files
	deps.Signer = storage.NewSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
	svc := service.NewExportService(deps)

	queue := jobs.New("attendance-exports", svc.HandleJob, jobs.Config{
		Workers:    cfg.Exports.WorkerConcurrency,
		MaxRetries: cfg.Exports.WorkerRetries,
		RetryDelay: 2 * time.Second,
		OnDone:     svc.JobDone,
		Logger:     logr,
	})
	svc.AttachQueue(queue)
	return svc, queue, nil
}
