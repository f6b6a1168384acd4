package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rvianello/bonusmalus/internal/api/middleware"
	"github.com/rvianello/bonusmalus/internal/api/request"
	"github.com/rvianello/bonusmalus/internal/api/response"
	"github.com/rvianello/bonusmalus/internal/model"
	"github.com/rvianello/bonusmalus/internal/services/assignment"
	"github.com/rvianello/bonusmalus/internal/services/game"
	"github.com/rvianello/bonusmalus/internal/services/setup"
)

// GameHandler handles game lifecycle endpoints
type GameHandler struct {
	setupController      *setup.Controller
	gameController       *game.Controller
	assignmentController *assignment.Controller
	logger               *slog.Logger
}

// NewGameHandler creates a new game handler
func NewGameHandler(
	setupController *setup.Controller,
	gameController *game.Controller,
	assignmentController *assignment.Controller,
	logger *slog.Logger,
) *GameHandler {
	return &GameHandler{
		setupController:      setupController,
		gameController:       gameController,
		assignmentController: assignmentController,
		logger:               logger,
	}
}

// Create handles POST /api/v1/games
func (h *GameHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req request.CreateGameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid JSON body"))
		return
	}

	players := make([]setup.PlayerSpec, len(req.Players))
	for i, p := range req.Players {
		players[i] = setup.PlayerSpec{
			Username:  p.Username,
			IsCreator: p.IsCreator,
		}
	}
	rules := make([]setup.RuleSpec, len(req.Rules))
	for i, rs := range req.Rules {
		rules[i] = setup.RuleSpec{
			Name:  rs.Name,
			Kind:  model.RuleKind(rs.Kind),
			Delta: rs.Delta,
		}
	}

	result, err := h.setupController.CreateGame(r.Context(), req.Name, req.InitialScore, players, rules)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.CreateGameResponseFromResult(result))
}

// Get handles GET /api/v1/games/{game_id}
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	gameID := model.GameID(mux.Vars(r)["game_id"])

	g, err := h.gameController.GetGame(r.Context(), gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.GameFromModel(g))
}

// Leaderboard handles GET /api/v1/games/{game_id}/leaderboard
func (h *GameHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	gameID := model.GameID(mux.Vars(r)["game_id"])

	players, err := h.gameController.GetLeaderboard(r.Context(), gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.LeaderboardFromModel(players))
}

// End handles POST /api/v1/games/{game_id}/end
func (h *GameHandler) End(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	gameID := model.GameID(mux.Vars(r)["game_id"])

	result, err := h.gameController.EndGame(r.Context(), gameID, player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, endGameResponse(result))
}

// Claim handles POST /api/v1/games/{game_id}/rules/{rule_id}/claim
func (h *GameHandler) Claim(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	vars := mux.Vars(r)
	gameID := model.GameID(vars["game_id"])
	ruleID := model.RuleID(vars["rule_id"])

	result, err := h.assignmentController.AssignRule(r.Context(), gameID, ruleID, player.ID)
	if err != nil {
		WriteError(w, err)
		return
	}

	// Every successful claim is followed by the auto-end check,
	// reading post-commit state. Evaluation failures never end the
	// game and never fail the claim.
	gameEnded := false
	if _, err := h.gameController.TryAutoEndGame(r.Context(), gameID); err == nil {
		gameEnded = true
	} else if !errors.Is(err, model.ErrEndConditionsNotMet) {
		h.logger.Warn("auto-end check failed",
			slog.String("game_id", string(gameID)),
			slog.String("error", err.Error()),
		)
	}

	response.JSON(w, http.StatusCreated, response.ClaimResponse{
		Assignment: response.AssignmentFromModel(result.Assignment),
		Player:     response.PlayerFromModel(result.Player),
		GameEnded:  gameEnded,
	})
}

// endGameResponse converts a game.EndResult
func endGameResponse(result *game.EndResult) response.EndGameResponse {
	var winner *response.Player
	if result.Winner != nil {
		p := response.PlayerFromModel(result.Winner)
		winner = &p
	}
	leaderboard := make([]response.Player, len(result.Leaderboard))
	for i, p := range result.Leaderboard {
		leaderboard[i] = response.PlayerFromModel(p)
	}
	return response.EndGameResponse{
		Game:        response.GameFromModel(result.Game),
		Winner:      winner,
		Leaderboard: leaderboard,
	}
}
