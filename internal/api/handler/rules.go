package handler

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/rvianello/bonusmalus/internal/api/middleware"
	"github.com/rvianello/bonusmalus/internal/api/request"
	"github.com/rvianello/bonusmalus/internal/api/response"
	"github.com/rvianello/bonusmalus/internal/model"
	"github.com/rvianello/bonusmalus/internal/services/rules"
)

// RulesHandler handles rule management endpoints
type RulesHandler struct {
	rulesController *rules.Controller
}

// NewRulesHandler creates a new rules handler
func NewRulesHandler(rulesController *rules.Controller) *RulesHandler {
	return &RulesHandler{
		rulesController: rulesController,
	}
}

// List handles GET /api/v1/games/{game_id}/rules
func (h *RulesHandler) List(w http.ResponseWriter, r *http.Request) {
	gameID := model.GameID(mux.Vars(r)["game_id"])

	ruleList, err := h.rulesController.GetRules(r.Context(), gameID)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RulesFromModel(ruleList))
}

// Create handles POST /api/v1/games/{game_id}/rules
func (h *RulesHandler) Create(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	gameID := model.GameID(mux.Vars(r)["game_id"])

	var req request.CreateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid JSON body"))
		return
	}

	rule, err := h.rulesController.CreateRule(r.Context(), gameID, player.ID, req.Name, model.RuleKind(req.Kind), req.Delta)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusCreated, response.RuleFromModel(rule))
}

// Update handles PATCH /api/v1/games/{game_id}/rules/{rule_id}
func (h *RulesHandler) Update(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	vars := mux.Vars(r)
	gameID := model.GameID(vars["game_id"])
	ruleID := model.RuleID(vars["rule_id"])

	var req request.UpdateRuleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteError(w, NewInvalidRequestError("Invalid JSON body"))
		return
	}

	rule, err := h.rulesController.UpdateRule(r.Context(), gameID, ruleID, player.ID, req.Name, model.RuleKind(req.Kind), req.Delta)
	if err != nil {
		WriteError(w, err)
		return
	}

	response.JSON(w, http.StatusOK, response.RuleFromModel(rule))
}

// Delete handles DELETE /api/v1/games/{game_id}/rules/{rule_id}
func (h *RulesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	player := middleware.MustGetPlayer(r.Context())
	vars := mux.Vars(r)
	gameID := model.GameID(vars["game_id"])
	ruleID := model.RuleID(vars["rule_id"])

	if err := h.rulesController.DeleteRule(r.Context(), gameID, ruleID, player.ID); err != nil {
		WriteError(w, err)
		return
	}

	response.NoContent(w)
}
