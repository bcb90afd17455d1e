package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/noah-isme/gate-api/internal/config"
	"github.com/noah-isme/gate-api/internal/database"
	"github.com/noah-isme/gate-api/internal/handler"
	"github.com/noah-isme/gate-api/internal/identity"
	"github.com/noah-isme/gate-api/internal/middleware"
	"github.com/noah-isme/gate-api/internal/models"
	"github.com/noah-isme/gate-api/internal/repository"
	"github.com/noah-isme/gate-api/internal/router"
	"github.com/noah-isme/gate-api/internal/service"
)

func main() {
	logger := zerolog.New(os.Stdout).With().Timestamp().Logger()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to load configuration")
	}
	logger = logger.With().Str("service", cfg.AppName).Str("env", cfg.AppEnv).Logger()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.ConnectPostgres(cfg.DatabaseURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to database")
	}

	if cfg.AutoMigrate {
		if err := database.Migrate(db); err != nil {
			logger.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	redisClient, err := database.ConnectRedis(ctx, cfg.RedisURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to redis")
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	natsConn, err := database.ConnectNATS(cfg.NATSURL, cfg.AppName)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to connect to nats")
	}
	if natsConn != nil {
		defer func() { _ = natsConn.Drain() }()
	}

	profileRepo := repository.NewProfileRepository(db)

	provider, err := newIdentityProvider(ctx, cfg, profileRepo, logger)
	if err != nil {
		logger.Fatal().Err(err).Str("driver", cfg.IdentityDriver).Msg("failed to initialise identity provider")
	}

	validate := service.NewValidator()

	departureRepo := repository.NewDepartureRepository(db)
	activityRepo := repository.NewActivityLogRepository(db)

	gateFeed := service.NewGateFeedService(redisClient, natsConn, cfg.EventsChannel, logger)
	if err := gateFeed.Start(ctx); err != nil {
		logger.Fatal().Err(err).Msg("failed to subscribe gate feed")
	}

	activityService := service.NewActivityService(activityRepo, logger)
	userService := service.NewUserService(provider, profileRepo, validate, activityService, logger)
	departureService := service.NewDepartureService(departureRepo, validate, activityService, gateFeed, time.Now, logger)

	deps := router.Dependencies{
		UserHandler:      handler.NewUserHandler(userService, logger),
		DepartureHandler: handler.NewDepartureHandler(departureService, gateFeed, logger),
		ActivityHandler:  handler.NewActivityHandler(activityService, logger),
		Gate:             middleware.NewAuthGate(provider, profileRepo, logger),
	}
	if signer, ok := provider.(service.PasswordSigner); ok && cfg.IdentityDriver == config.IdentityDriverMemory {
		deps.SessionHandler = handler.NewSessionHandler(service.NewSessionService(signer, validate, logger), logger)
	}

	app := router.NewApp(cfg)
	middleware.Register(app, middleware.Config{Logger: &logger})
	if err := router.Register(app, cfg, deps); err != nil {
		logger.Fatal().Err(err).Msg("failed to register routes")
	}

	go func() {
		if err := app.Listen(cfg.HTTPAddress()); err != nil {
			logger.Fatal().Err(err).Msg("failed to start server")
		}
	}()
	logger.Info().Str("addr", cfg.HTTPAddress()).Str("identity_driver", cfg.IdentityDriver).Msg("gate api listening")

	waitForShutdown(ctx, app, logger)
}

func newIdentityProvider(ctx context.Context, cfg config.Config, profiles repository.ProfileRepository, logger zerolog.Logger) (identity.Provider, error) {
	switch cfg.IdentityDriver {
	case config.IdentityDriverMemory:
		provider, err := identity.NewMemoryProvider(cfg.IdentityJWTSecret)
		if err != nil {
			return nil, err
		}
		if cfg.BootstrapAdminEmail != "" {
			if err := bootstrapAdmin(ctx, provider, profiles, cfg, logger); err != nil {
				return nil, err
			}
		}
		logger.Warn().Msg("using in-memory identity provider; accounts are lost on restart")
		return provider, nil
	default:
		return identity.NewGoTrueClient(identity.GoTrueConfig{
			BaseURL:        cfg.SupabaseURL,
			ServiceRoleKey: cfg.SupabaseServiceRoleKey,
			AnonKey:        cfg.SupabaseAnonKey,
			Timeout:        cfg.IdentityTimeout,
		}, &http.Client{Timeout: cfg.IdentityTimeout}, logger)
	}
}

// bootstrapAdmin seeds an Admin account for local development and logs a
// bearer token for it.
func bootstrapAdmin(ctx context.Context, provider *identity.MemoryProvider, profiles repository.ProfileRepository, cfg config.Config, logger zerolog.Logger) error {
	account, err := provider.CreateUser(ctx, identity.CreateUserParams{
		Email:        cfg.BootstrapAdminEmail,
		Password:     cfg.BootstrapAdminPassword,
		EmailConfirm: true,
	})
	if err != nil {
		return err
	}

	if err := profiles.Create(ctx, &models.Profile{ID: account.ID, FullName: cfg.BootstrapAdminEmail, Role: models.RoleAdmin}); err != nil {
		return err
	}

	token, err := provider.IssueToken(account.ID)
	if err != nil {
		return err
	}

	logger.Info().Str("user_id", account.ID).Str("email", account.Email).Str("token", token).Msg("bootstrap admin ready")
	return nil
}

func waitForShutdown(ctx context.Context, app *fiber.App, logger zerolog.Logger) {
	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := app.ShutdownWithContext(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("graceful shutdown failed")
	}

	logger.Info().Msg("server stopped")
}
