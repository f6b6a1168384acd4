package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rvianello/bonusmalus/internal/api/middleware"
	"github.com/rvianello/bonusmalus/internal/api/request"
	"github.com/rvianello/bonusmalus/internal/api/response"
	"github.com/rvianello/bonusmalus/internal/model"
	"github.com/rvianello/bonusmalus/internal/services/auth"
)

// PlayerHandler handles player authentication endpoints
type PlayerHandler struct {
	authService *auth.Service
}

// NewPlayerHandler creates a new player handler
func NewPlayerHandler(authService *auth.Service) *PlayerHandler {
	return &PlayerHandler{
		authService: authService,
	}
}

// Login handles POST /api/v1/games/{game_id}/login
func (h *PlayerHandler) Login(w http.ResponseWriter, r *http.Request) {
	gameID := model.GameID(mux.Vars(r)["game_id"])

	var req request.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid JSON body"))
		return
	}
	if req.Username == "" || req.AccessCode == "" {
		WriteError(w, NewInvalidRequestError("Username and access code are required"))
		return
	}

	session, err := h.authService.Login(r.Context(), gameID, req.Username, req.AccessCode)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.AuthResponseFromSession(session))
}

// GetMe handles GET /api/v1/games/{game_id}/me
func (h *PlayerHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	response.JSON(w, http.StatusOK, response.PlayerFromModel(player))
}
