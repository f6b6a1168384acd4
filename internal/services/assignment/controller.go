package assignment

import (
	"context"
	"log/slog"

	"github.com/rvianello/bonusmalus/internal/dependencies/clock"
	"github.com/rvianello/bonusmalus/internal/dependencies/random"
	"github.com/rvianello/bonusmalus/internal/model"
	"github.com/rvianello/bonusmalus/internal/storage"
)

const (
	// IDAlphabet is the characters used in generated assignment IDs
	IDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// IDLength is the length of generated assignment IDs (after prefix)
	IDLength = 10
)

// Result is the outcome of a successful claim: the recorded assignment
// and the player with their updated score
type Result struct {
	Assignment *model.Assignment
	Player     *model.Player
}

// Controller owns the atomic rule claim operation
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// NewController creates a new assignment Controller
func NewController(storage storage.Storage, clock clock.Clock, random random.Random, logger *slog.Logger) *Controller {
	return &Controller{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger,
	}
}

// AssignRule credits a player with a rule's delta, at most once per
// rule ever. The delta applied is the rule's current delta, captured
// here; later rule edits never change it. Under concurrent claims for
// the same rule exactly one caller succeeds; the others get
// ErrRuleAlreadyAssigned and no score changes.
func (c *Controller) AssignRule(ctx context.Context, gameID model.GameID, ruleID model.RuleID, playerID model.PlayerID) (*Result, error) {
	game, err := c.storage.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.Status == model.GameStatusDraft {
		return nil, model.ErrGameNotStarted
	}
	if game.IsEnded() {
		return nil, model.ErrGameEnded
	}

	rule, err := c.storage.GetRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if rule.GameID != gameID {
		return nil, model.ErrRuleNotFound
	}

	player, err := c.storage.GetPlayer(ctx, playerID)
	if err != nil {
		return nil, err
	}
	if player.GameID != gameID {
		return nil, model.ErrPlayerNotFound
	}

	now := c.clock.Now()
	assignment := &model.Assignment{
		ID:           model.AssignmentID("a_" + c.random.String(IDLength, IDAlphabet)),
		RuleID:       ruleID,
		GameID:       gameID,
		PlayerID:     playerID,
		DeltaApplied: rule.Delta,
		AssignedAt:   now,
	}

	// The store applies the delta to the persisted score inside the
	// same atomic step that records the assignment, so a player's
	// simultaneous claims on other rules are never overwritten
	updated, inserted, err := c.storage.InsertAssignment(ctx, assignment)
	if err != nil {
		return nil, err
	}
	if !inserted {
		// Lost the race, or the rule was claimed earlier. Either way
		// the caller must not be able to tell the difference.
		return nil, model.ErrRuleAlreadyAssigned
	}

	c.logger.Info("rule assigned",
		slog.String("game_id", string(gameID)),
		slog.String("rule_id", string(ruleID)),
		slog.String("player_id", string(playerID)),
		slog.Int("delta", rule.Delta),
		slog.Int("new_score", updated.Score),
	)

	return &Result{
		Assignment: assignment,
		Player:     updated,
	}, nil
}

// Interface for dependency injection
type ControllerInterface interface {
	AssignRule(ctx context.Context, gameID model.GameID, ruleID model.RuleID, playerID model.PlayerID) (*Result, error)
}

var _ ControllerInterface = (*Controller)(nil)
