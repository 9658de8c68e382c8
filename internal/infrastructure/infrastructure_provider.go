package infrastructure

import (
	"context"
	"strings"

	"github.com/google/wire"
	"github.com/rs/zerolog"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/janhq/money-coach/internal/config"
	"github.com/janhq/money-coach/internal/domain/chatsession"
	"github.com/janhq/money-coach/internal/domain/user"
	"github.com/janhq/money-coach/internal/infrastructure/aiclient"
	"github.com/janhq/money-coach/internal/infrastructure/auth"
	"github.com/janhq/money-coach/internal/infrastructure/database"
	"github.com/janhq/money-coach/internal/infrastructure/database/repository"
	"github.com/janhq/money-coach/internal/infrastructure/database/transaction"
	"github.com/janhq/money-coach/internal/infrastructure/deliverycache"
	"github.com/janhq/money-coach/internal/infrastructure/identityprovider"
	"github.com/janhq/money-coach/internal/infrastructure/logger"
	"github.com/janhq/money-coach/internal/infrastructure/metrics"
)

// ProvideConfig loads and provides the application configuration
func ProvideConfig() (*config.Config, error) {
	return config.Load()
}

// ProvideLogger builds the service logger from LOG_LEVEL and LOG_FORMAT.
func ProvideLogger(cfg *config.Config) (zerolog.Logger, error) {
	return logger.New(cfg.LogLevel, cfg.LogFormat, cfg.ServiceName)
}

// ProvideDatabase connects to postgres and applies pending migrations when AUTO_MIGRATE is set.
func ProvideDatabase(cfg *config.Config, log zerolog.Logger) (*gorm.DB, func(), error) {
	level := gormlogger.Warn
	if cfg.LogLevel == "debug" || cfg.LogLevel == "trace" {
		level = gormlogger.Info
	}

	db, err := database.Connect(database.Config{
		DatabaseURL: cfg.DatabaseURL,
		ReplicaURL:  strings.TrimSpace(cfg.DBPostgresqlRead1DSN),
		MaxIdle:     cfg.DBMaxIdleConns,
		MaxOpen:     cfg.DBMaxOpenConns,
		MaxLifetime: cfg.DBConnMaxLifetime,
		LogLevel:    level,
	})
	if err != nil {
		return nil, nil, err
	}
	cleanup := func() {
		if err := database.Close(db); err != nil {
			log.Error().Err(err).Msg("close database")
		}
	}

	if cfg.AutoMigrate {
		log.Info().Msg("Running database migrations...")
		if err := database.AutoMigrate(context.Background(), db, log); err != nil {
			log.Error().Err(err).Msg("Failed to run database migrations")
			cleanup()
			return nil, nil, err
		}
		log.Info().Msg("Database migrations completed successfully")
	}

	return db, cleanup, nil
}

// ProvideTransactor exposes the transaction wrapper to the chat orchestrator.
func ProvideTransactor(db *transaction.Database) chatsession.Transactor {
	return db
}

// ProvideJWTValidator fetches the identity provider's signing keys and keeps them refreshed.
func ProvideJWTValidator(cfg *config.Config, log zerolog.Logger) (*auth.JWTValidator, func(), error) {
	validator, err := auth.NewJWTValidator(
		context.Background(),
		cfg.JWKSURL,
		cfg.Issuer,
		cfg.Audience,
		cfg.RefreshJWKSInterval,
		cfg.AuthClockSkew,
		log,
	)
	if err != nil {
		return nil, nil, err
	}
	return validator, validator.Close, nil
}

func ProvideAIClient(cfg *config.Config, log zerolog.Logger) chatsession.AIClient {
	return aiclient.NewClient(cfg, log)
}

// ProvideProfileFetcher returns nil without IDENTITY_API_URL; users are then
// provisioned with their external id alone.
func ProvideProfileFetcher(cfg *config.Config) user.ProfileFetcher {
	if strings.TrimSpace(cfg.IdentityAPIURL) == "" {
		return nil
	}
	return identityprovider.NewClient(cfg.IdentityAPIURL, cfg.IdentityAPISecret, cfg)
}

// ProvideDeliveryCache returns nil without REDIS_URL.
func ProvideDeliveryCache(cfg *config.Config, log zerolog.Logger) (*deliverycache.Cache, func(), error) {
	if strings.TrimSpace(cfg.RedisURL) == "" {
		return nil, func() {}, nil
	}
	cache, err := deliverycache.New(cfg.RedisURL, cfg.WebhookDedupeTTL, log)
	if err != nil {
		return nil, nil, err
	}
	return cache, func() {
		if err := cache.Close(); err != nil {
			log.Error().Err(err).Msg("close delivery cache")
		}
	}, nil
}

// Infrastructure holds the dependencies the HTTP server checks for readiness.
type Infrastructure struct {
	DB            *transaction.Database
	JWTValidator  *auth.JWTValidator
	DeliveryCache *deliverycache.Cache
	Logger        zerolog.Logger
}

func NewInfrastructure(
	db *transaction.Database,
	jwtValidator *auth.JWTValidator,
	deliveryCache *deliverycache.Cache,
	logger zerolog.Logger,
) *Infrastructure {
	return &Infrastructure{
		DB:            db,
		JWTValidator:  jwtValidator,
		DeliveryCache: deliveryCache,
		Logger:        logger,
	}
}

// InfrastructureProvider provides all infrastructure dependencies
var InfrastructureProvider = wire.NewSet(
	// Config and logging
	ProvideConfig,
	ProvideLogger,

	// Database
	ProvideDatabase,
	transaction.NewDatabase,
	ProvideTransactor,

	// Repositories
	repository.RepositoryProvider,

	// Auth and identity
	ProvideJWTValidator,
	ProvideProfileFetcher,
	ProvideDeliveryCache,

	// AI service
	ProvideAIClient,
	metrics.NewTurnRecorder,

	NewInfrastructure,
)
