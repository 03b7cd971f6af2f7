package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/noah-isme/edutrack-api/internal/auth"
	"github.com/noah-isme/edutrack-api/internal/config"
	"github.com/noah-isme/edutrack-api/internal/database"
	"github.com/noah-isme/edutrack-api/internal/policy"
	"github.com/noah-isme/edutrack-api/internal/repository"
	"github.com/noah-isme/edutrack-api/internal/service"
)

// add_admin provisions an administrator account. Admins cannot sign up over HTTP.
func main() {
	logger := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

	name := flag.String("name", "Administrator", "display name")
	email := flag.String("email", "", "login email")
	password := flag.String("password", os.Getenv("EDUTRACK_ADMIN_PASSWORD"), "login password (defaults to EDUTRACK_ADMIN_PASSWORD)")
	flag.Parse()

	if *email == "" || *password == "" {
		flag.Usage()
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}
	if err := database.Migrate(db); err != nil {
		logger.Fatal().Err(err).Msg("failed to migrate database")
	}

	users := repository.NewUserRepository(db)
	activity := service.NewActivityService(repository.NewActivityLogRepository(db), logger)
	authService := service.NewAuthService(
		users,
		auth.NewIssuer(cfg.JWTSecret, cfg.JWTIssuer, cfg.JWTTTL),
		validator.New(validator.WithRequiredStructEnabled()),
		service.Hooks{Activity: activity},
		logger,
	)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	user, err := authService.CreateUser(ctx, *name, *email, *password, policy.RoleAdmin)
	if err != nil {
		logger.Fatal().Err(err).Str("email", *email).Msg("failed to create admin")
	}

	logger.Info().Uint("id", user.ID).Str("email", user.Email).Msg("admin created")
}
