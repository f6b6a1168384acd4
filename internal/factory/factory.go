package factory

import (
	"errors"
	"io"
	"log/slog"

	"github.com/rvianello/bonusmalus/internal/dependencies/clock"
	"github.com/rvianello/bonusmalus/internal/dependencies/random"
	"github.com/rvianello/bonusmalus/internal/services/assignment"
	"github.com/rvianello/bonusmalus/internal/services/auth"
	"github.com/rvianello/bonusmalus/internal/services/game"
	"github.com/rvianello/bonusmalus/internal/services/rules"
	"github.com/rvianello/bonusmalus/internal/services/setup"
	"github.com/rvianello/bonusmalus/internal/storage"
	"github.com/rvianello/bonusmalus/internal/storage/memory"
	redisstorage "github.com/rvianello/bonusmalus/internal/storage/redis"
)

// Storage type constants
const (
	StorageTypeMemory = "memory"
	StorageTypeRedis  = "redis"
)

// App contains all wired application components
type App struct {
	// Storage
	Storage storage.Storage

	// External dependencies
	Clock  clock.Clock
	Random random.Random

	// Services
	SetupController      *setup.Controller
	AssignmentController *assignment.Controller
	GameController       *game.Controller
	RulesController      *rules.Controller
	AuthService          *auth.Service
}

// Config holds configuration for the application factory
type Config struct {
	// GameConfig holds lifecycle policy settings (optional)
	// If zero value, defaults to game.DefaultConfig()
	GameConfig game.Config
	// AuthConfig holds configuration for the auth service (optional)
	// If zero value, defaults to auth.DefaultConfig()
	AuthConfig auth.Config
	// Logger is the application logger (optional)
	// If nil, a no-op logger is used
	Logger *slog.Logger
	// StorageType selects the storage backend ("memory" or "redis")
	// If empty, defaults to "memory"
	StorageType string
	// RedisConfig holds Redis connection settings (required if StorageType is "redis")
	RedisConfig *redisstorage.Config
}

// New creates a new application with all dependencies wired
func New(cfg Config) (*App, error) {
	// Use no-op logger if not provided
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	}

	// Create storage based on type
	var store storage.Storage
	storageType := cfg.StorageType
	if storageType == "" {
		storageType = StorageTypeMemory
	}

	switch storageType {
	case StorageTypeMemory:
		store = memory.New()
	case StorageTypeRedis:
		if cfg.RedisConfig == nil {
			return nil, errors.New("RedisConfig required when StorageType is redis")
		}
		redisStore, err := redisstorage.New(*cfg.RedisConfig)
		if err != nil {
			return nil, err
		}
		store = redisStore
	default:
		return nil, errors.New("invalid StorageType: must be 'memory' or 'redis'")
	}

	// Create external dependencies
	clk := clock.New()
	rnd := random.New()

	gameCfg := cfg.GameConfig
	if gameCfg.EndThreshold == 0 {
		gameCfg = game.DefaultConfig()
	}

	authCfg := cfg.AuthConfig
	if authCfg.SessionDuration == 0 {
		authCfg = auth.DefaultConfig()
	}

	return newWithDependencies(store, clk, rnd, gameCfg, authCfg, logger), nil
}

// newWithDependencies creates an App with the given dependencies (useful for testing)
func newWithDependencies(store storage.Storage, clk clock.Clock, rnd random.Random, gameCfg game.Config, authCfg auth.Config, logger *slog.Logger) *App {
	setupController := setup.NewController(store, clk, rnd, logger)
	assignmentController := assignment.NewController(store, clk, rnd, logger)
	gameController := game.NewController(store, clk, gameCfg, logger)
	rulesController := rules.NewController(store, clk, rnd, logger)
	authService := auth.New(store, clk, authCfg, logger)

	return &App{
		Storage:              store,
		Clock:                clk,
		Random:               rnd,
		SetupController:      setupController,
		AssignmentController: assignmentController,
		GameController:       gameController,
		RulesController:      rulesController,
		AuthService:          authService,
	}
}
