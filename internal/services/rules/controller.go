package rules

import (
	"context"
	"errors"
	"log/slog"

	"github.com/rvianello/bonusmalus/internal/dependencies/clock"
	"github.com/rvianello/bonusmalus/internal/dependencies/random"
	"github.com/rvianello/bonusmalus/internal/model"
	"github.com/rvianello/bonusmalus/internal/storage"
)

const (
	// IDAlphabet is the characters used in generated rule IDs
	IDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// IDLength is the length of generated rule IDs (after prefix)
	IDLength = 10
)

// Controller manages rule creation and mutation. Rules are mutable
// only while the game is started and the rule has no assignment;
// assignments freeze a rule forever.
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// NewController creates a new rules Controller
func NewController(storage storage.Storage, clock clock.Clock, random random.Random, logger *slog.Logger) *Controller {
	return &Controller{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger,
	}
}

// GetRules returns all rules of a game
func (c *Controller) GetRules(ctx context.Context, gameID model.GameID) ([]*model.Rule, error) {
	if _, err := c.storage.GetGame(ctx, gameID); err != nil {
		return nil, err
	}
	return c.storage.GetRulesForGame(ctx, gameID)
}

// CreateRule adds a new, immediately-unassigned rule to a started
// game. Creator only.
func (c *Controller) CreateRule(ctx context.Context, gameID model.GameID, requesterID model.PlayerID, name string, kind model.RuleKind, delta int) (*model.Rule, error) {
	game, err := c.requireStartedGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if requesterID != game.CreatorPlayerID {
		return nil, model.ErrNotCreator
	}

	if name == "" {
		return nil, model.ErrRuleNameRequired
	}

	now := c.clock.Now()
	rule := &model.Rule{
		ID:        model.RuleID("r_" + c.random.String(IDLength, IDAlphabet)),
		GameID:    game.ID,
		Name:      name,
		Kind:      kind,
		Delta:     delta,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := rule.ValidateDelta(); err != nil {
		return nil, err
	}

	if err := c.storage.CreateRule(ctx, rule); err != nil {
		return nil, err
	}

	c.logger.Info("rule created",
		slog.String("game_id", string(gameID)),
		slog.String("rule_id", string(rule.ID)),
		slog.String("name", name),
		slog.Int("delta", delta),
	)
	return rule, nil
}

// UpdateRule edits an unassigned rule's name, kind and delta. Creator
// only. Any already-applied assignment delta is an immutable
// historical fact, so a rule with an assignment is never editable.
func (c *Controller) UpdateRule(ctx context.Context, gameID model.GameID, ruleID model.RuleID, requesterID model.PlayerID, name string, kind model.RuleKind, delta int) (*model.Rule, error) {
	game, err := c.requireStartedGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	// The assignment check comes before the creator check: a frozen
	// rule reports the conflict to everyone, creator included.
	rule, err := c.requireUnassignedRule(ctx, gameID, ruleID)
	if err != nil {
		return nil, err
	}
	if requesterID != game.CreatorPlayerID {
		return nil, model.ErrNotCreator
	}

	if name == "" {
		return nil, model.ErrRuleNameRequired
	}

	oldName := rule.Name
	rule.Name = name
	rule.Kind = kind
	rule.Delta = delta
	rule.UpdatedAt = c.clock.Now()
	if err := rule.ValidateDelta(); err != nil {
		return nil, err
	}

	if err := c.storage.UpdateRule(ctx, rule, oldName); err != nil {
		return nil, err
	}

	c.logger.Info("rule updated",
		slog.String("game_id", string(gameID)),
		slog.String("rule_id", string(ruleID)),
		slog.String("name", name),
		slog.Int("delta", delta),
	)
	return rule, nil
}

// DeleteRule removes an unassigned rule. Creator only. This is the
// only physical deletion in the system.
func (c *Controller) DeleteRule(ctx context.Context, gameID model.GameID, ruleID model.RuleID, requesterID model.PlayerID) error {
	game, err := c.requireStartedGame(ctx, gameID)
	if err != nil {
		return err
	}

	if _, err := c.requireUnassignedRule(ctx, gameID, ruleID); err != nil {
		return err
	}
	if requesterID != game.CreatorPlayerID {
		return model.ErrNotCreator
	}

	if err := c.storage.DeleteRule(ctx, ruleID); err != nil {
		return err
	}

	c.logger.Info("rule deleted",
		slog.String("game_id", string(gameID)),
		slog.String("rule_id", string(ruleID)),
	)
	return nil
}

// requireStartedGame loads the game and checks it accepts rule edits
func (c *Controller) requireStartedGame(ctx context.Context, gameID model.GameID) (*model.Game, error) {
	game, err := c.storage.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if game.IsEnded() {
		return nil, model.ErrGameEnded
	}
	if !game.IsStarted() {
		return nil, model.ErrGameNotStarted
	}
	return game, nil
}

// requireUnassignedRule loads the rule, checks game membership and
// that no assignment exists for it. This check establishes error
// precedence only; the storage layer re-checks inside the write, so a
// claim racing past here still wins.
func (c *Controller) requireUnassignedRule(ctx context.Context, gameID model.GameID, ruleID model.RuleID) (*model.Rule, error) {
	rule, err := c.storage.GetRule(ctx, ruleID)
	if err != nil {
		return nil, err
	}
	if rule.GameID != gameID {
		return nil, model.ErrRuleNotFound
	}

	_, err = c.storage.GetAssignmentForRule(ctx, ruleID)
	if err == nil {
		return nil, model.ErrRuleAlreadyAssigned
	}
	if !errors.Is(err, model.ErrAssignmentNotFound) {
		return nil, err
	}
	return rule, nil
}

// Interface for dependency injection
type ControllerInterface interface {
	GetRules(ctx context.Context, gameID model.GameID) ([]*model.Rule, error)
	CreateRule(ctx context.Context, gameID model.GameID, requesterID model.PlayerID, name string, kind model.RuleKind, delta int) (*model.Rule, error)
	UpdateRule(ctx context.Context, gameID model.GameID, ruleID model.RuleID, requesterID model.PlayerID, name string, kind model.RuleKind, delta int) (*model.Rule, error)
	DeleteRule(ctx context.Context, gameID model.GameID, ruleID model.RuleID, requesterID model.PlayerID) error
}

var _ ControllerInterface = (*Controller)(nil)
