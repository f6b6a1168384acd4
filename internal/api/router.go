package api

import (
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rvianello/bonusmalus/internal/api/handler"
	apimiddleware "github.com/rvianello/bonusmalus/internal/api/middleware"
	"github.com/rvianello/bonusmalus/internal/middleware"
	"github.com/rvianello/bonusmalus/internal/services/assignment"
	"github.com/rvianello/bonusmalus/internal/services/auth"
	"github.com/rvianello/bonusmalus/internal/services/game"
	"github.com/rvianello/bonusmalus/internal/services/rules"
	"github.com/rvianello/bonusmalus/internal/services/setup"
)

// RouterConfig holds configuration for the API router
type RouterConfig struct {
	Logger               *slog.Logger
	AuthService          *auth.Service
	SetupController      *setup.Controller
	GameController       *game.Controller
	AssignmentController *assignment.Controller
	RulesController      *rules.Controller
}

// NewRouter creates a new API router with all routes configured
func NewRouter(cfg RouterConfig) http.Handler {
	r := mux.NewRouter()

	// Create handlers
	playerHandler := handler.NewPlayerHandler(cfg.AuthService)
	gameHandler := handler.NewGameHandler(cfg.SetupController, cfg.GameController, cfg.AssignmentController, cfg.Logger)
	rulesHandler := handler.NewRulesHandler(cfg.RulesController)

	// Create middleware
	authMiddleware := apimiddleware.Auth(cfg.AuthService)
	loggingMiddleware := middleware.Logging(cfg.Logger)
	recoveryMiddleware := apimiddleware.Recovery(cfg.Logger)

	// API subrouter with common middleware
	api := r.PathPrefix("/api/v1").Subrouter()
	api.Use(recoveryMiddleware)
	api.Use(loggingMiddleware)

	// Game creation and login need no session
	api.HandleFunc("/games", gameHandler.Create).Methods(http.MethodPost)
	api.HandleFunc("/games/{game_id}/login", playerHandler.Login).Methods(http.MethodPost)

	// Game-scoped routes (all require a session for that game)
	games := api.PathPrefix("/games/{game_id}").Subrouter()
	games.Use(authMiddleware)
	games.HandleFunc("", gameHandler.Get).Methods(http.MethodGet)
	games.HandleFunc("/me", playerHandler.GetMe).Methods(http.MethodGet)
	games.HandleFunc("/leaderboard", gameHandler.Leaderboard).Methods(http.MethodGet)
	games.HandleFunc("/end", gameHandler.End).Methods(http.MethodPost)
	games.HandleFunc("/rules", rulesHandler.List).Methods(http.MethodGet)
	games.HandleFunc("/rules", rulesHandler.Create).Methods(http.MethodPost)
	games.HandleFunc("/rules/{rule_id}", rulesHandler.Update).Methods(http.MethodPatch)
	games.HandleFunc("/rules/{rule_id}", rulesHandler.Delete).Methods(http.MethodDelete)
	games.HandleFunc("/rules/{rule_id}/claim", gameHandler.Claim).Methods(http.MethodPost)

	// Health check endpoint (no auth)
	api.HandleFunc("/health", healthHandler).Methods(http.MethodGet)

	return r
}

func healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"ok"}`))
}
