package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edutrack-api/internal/auth"
	"github.com/noah-isme/edutrack-api/internal/config"
	"github.com/noah-isme/edutrack-api/internal/database"
	"github.com/noah-isme/edutrack-api/internal/events"
	"github.com/noah-isme/edutrack-api/internal/handler"
	"github.com/noah-isme/edutrack-api/internal/middleware"
	"github.com/noah-isme/edutrack-api/internal/observability"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/router"
	"github.com/noah-isme/edutrack-api/internal/service"
	cloud "github.com/noah-isme/edutrack-api/pkg/cloudinary"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Str("service", "edutrack-api").Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	if cfg.AppEnv == "development" {
		logger = logger.Level(zerolog.DebugLevel)
	} else {
		logger = logger.Level(zerolog.InfoLevel)
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	var redisClient *redis.Client
	if cfg.RedisURL != "" {
		redisClient, err = database.ConnectRedis(cfg.RedisURL)
		if err != nil {
			logger.Warn().Err(err).Msg("redis unavailable; unread counters will not be cached")
			redisClient = nil
		} else {
			defer redisClient.Close()
		}
	}

	publisher := events.NewNoopPublisher()
	if cfg.NATSURL != "" {
		conn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
		if err != nil {
			logger.Warn().Err(err).Msg("nats unavailable; domain events will be dropped")
		} else {
			defer conn.Drain()
			publisher = events.NewNATSPublisher(conn, cfg.NATSSubjectPrefix, logger)
		}
	}

	var storage service.FileStorage
	cloudCfg := cloud.Config{
		CloudName: cfg.CloudinaryCloudName,
		APIKey:    cfg.CloudinaryAPIKey,
		APISecret: cfg.CloudinaryAPISecret,
		Folder:    cfg.CloudinaryUploadFolder,
	}
	if cloudCfg.Configured() {
		cld, err := cloud.New(cloudCfg, logger)
		if err != nil {
			logger.Fatal().Err(err).Msg("failed to create cloudinary client")
		}
		storage = cld
	} else {
		logger.Warn().Msg("cloudinary credentials missing; uploads are disabled")
	}

	observability.RegisterMetrics()
	validate := validator.New(validator.WithRequiredStructEnabled())
	issuer := auth.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL)

	userRepo := repository.NewUserRepository(db)
	semesterRepo := repository.NewSemesterRepository(db)
	courseRepo := repository.NewCourseRepository(db)
	assignmentRepo := repository.NewAssignmentRepository(db)
	submissionRepo := repository.NewSubmissionRepository(db)
	announcementRepo := repository.NewAnnouncementRepository(db)
	materialRepo := repository.NewMaterialRepository(db)
	timetableRepo := repository.NewTimetableRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	activityService := service.NewActivityService(activityRepo, logger)
	hooks := service.Hooks{Activity: activityService, Publisher: publisher}
	uploader := service.NewFileUploader(storage, cfg.MaxUploadBytes, cfg.AllowedUploadTypes, logger)

	authService := service.NewAuthService(userRepo, issuer, validate, hooks, logger)
	semesterService := service.NewSemesterService(semesterRepo, userRepo, validate, hooks, logger)
	userService := service.NewUserService(userRepo, semesterRepo, validate, hooks, logger)
	courseService := service.NewCourseService(courseRepo, semesterRepo, userRepo, validate, hooks, logger)
	assignmentService := service.NewAssignmentService(assignmentRepo, submissionRepo, courseRepo, uploader, validate, hooks, logger)
	announcementService := service.NewAnnouncementService(announcementRepo, semesterRepo, redisClient, service.AnnouncementConfig{
		DefaultExpiry: cfg.AnnouncementExpiry,
		UnreadTTL:     cfg.UnreadCacheTTL,
	}, validate, hooks, logger)
	materialService := service.NewMaterialService(materialRepo, courseRepo, uploader, validate, hooks, logger)
	timetableService := service.NewTimetableService(timetableRepo, courseRepo, validate, hooks, logger)
	gradeService := service.NewGradeService(gradeRepo, courseRepo, validate, hooks, logger)

	checks := map[string]handler.Pinger{
		"database": func(ctx context.Context) error {
			sqlDB, err := db.DB()
			if err != nil {
				return err
			}
			return sqlDB.PingContext(ctx)
		},
	}
	if redisClient != nil {
		checks["redis"] = func(ctx context.Context) error { return redisClient.Ping(ctx).Err() }
	}

	app := fiber.New(fiber.Config{
		AppName:      cfg.AppName,
		ServerHeader: cfg.AppName,
		BodyLimit:    int(cfg.MaxUploadBytes) + 1<<20,
	})

	middleware.Register(app, middleware.Config{
		Logger:       &logger,
		AllowOrigins: cfg.CORSAllowOrigins,
		AccessLog:    cfg.AccessLog,
	})
	router.Register(app, cfg, router.Dependencies{
		AuthHandler:         handler.NewAuthHandler(authService, logger),
		SemesterHandler:     handler.NewSemesterHandler(semesterService, logger),
		CourseHandler:       handler.NewCourseHandler(courseService, logger),
		AssignmentHandler:   handler.NewAssignmentHandler(assignmentService, logger),
		AnnouncementHandler: handler.NewAnnouncementHandler(announcementService, logger),
		MaterialHandler:     handler.NewMaterialHandler(materialService, logger),
		TimetableHandler:    handler.NewTimetableHandler(timetableService, logger),
		GradeHandler:        handler.NewGradeHandler(gradeService, logger),
		ActivityHandler:     handler.NewActivityHandler(activityService, logger),
		UserHandler:         handler.NewUserHandler(userService, logger),
		HealthChecks:        checks,
		JWTMiddleware:       middleware.JWTProtected(issuer),
		IdentityMiddleware:  middleware.ResolveIdentity(service.NewIdentityResolver(userRepo), logger),
	})

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	logger.Info().Str("address", cfg.HTTPAddress()).Msg("server started")

	waitForShutdown(app, logger)
}

func waitForShutdown(app *fiber.App, logger zerolog.Logger) {
	shutdownCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	<-shutdownCtx.Done()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(ctx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
