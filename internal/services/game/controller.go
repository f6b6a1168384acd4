package game

import (
	"context"
	"log/slog"
	"sort"

	"github.com/rvianello/bonusmalus/internal/dependencies/clock"
	"github.com/rvianello/bonusmalus/internal/model"
	"github.com/rvianello/bonusmalus/internal/storage"
)

// DefaultEndThreshold is the default number of players at or below
// zero that triggers the auto-end policy
const DefaultEndThreshold = 3

// Config holds lifecycle policy settings
type Config struct {
	// EndThreshold is the minimum count of players with score <= 0
	// for auto-end Condition B. Zero means DefaultEndThreshold.
	EndThreshold int
}

// DefaultConfig returns the default lifecycle configuration
func DefaultConfig() Config {
	return Config{
		EndThreshold: DefaultEndThreshold,
	}
}

// EndResult is the outcome of ending a game
type EndResult struct {
	Game        *model.Game
	Winner      *model.Player
	Leaderboard []*model.Player
}

// Controller owns the game state machine: the auto-end policy, winner
// determination and the canonical leaderboard ordering
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	cfg     Config
	logger  *slog.Logger
}

// NewController creates a new game lifecycle Controller
func NewController(storage storage.Storage, clock clock.Clock, cfg Config, logger *slog.Logger) *Controller {
	if cfg.EndThreshold <= 0 {
		cfg.EndThreshold = DefaultEndThreshold
	}
	return &Controller{
		storage: storage,
		clock:   clock,
		cfg:     cfg,
		logger:  logger,
	}
}

// GetGame retrieves a game by ID
func (c *Controller) GetGame(ctx context.Context, gameID model.GameID) (*model.Game, error) {
	return c.storage.GetGame(ctx, gameID)
}

// GetLeaderboard returns all players of a game in the canonical
// standing order: score descending, ties broken by creation order.
// Winner determination uses exactly this ordering.
func (c *Controller) GetLeaderboard(ctx context.Context, gameID model.GameID) ([]*model.Player, error) {
	if _, err := c.storage.GetGame(ctx, gameID); err != nil {
		return nil, err
	}

	players, err := c.storage.GetPlayersForGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	sort.SliceStable(players, func(i, j int) bool {
		if players[i].Score != players[j].Score {
			return players[i].Score > players[j].Score
		}
		return players[i].Seq < players[j].Seq
	})
	return players, nil
}

// ShouldEndGame evaluates the auto-end policy from fresh reads:
//   - Condition A: the game has rules and every rule is assigned
//   - Condition B: at least EndThreshold players have score <= 0
//
// Either condition alone is sufficient.
func (c *Controller) ShouldEndGame(ctx context.Context, gameID model.GameID) (bool, error) {
	rules, err := c.storage.GetRulesForGame(ctx, gameID)
	if err != nil {
		return false, err
	}

	if len(rules) > 0 {
		assignments, err := c.storage.GetAssignmentsForGame(ctx, gameID)
		if err != nil {
			return false, err
		}
		if len(assignments) == len(rules) {
			return true, nil
		}
	}

	players, err := c.storage.GetPlayersForGame(ctx, gameID)
	if err != nil {
		return false, err
	}

	atOrBelowZero := 0
	for _, p := range players {
		if p.Score <= 0 {
			atOrBelowZero++
		}
	}
	return atOrBelowZero >= c.cfg.EndThreshold, nil
}

// TryAutoEndGame ends the game if the auto-end conditions hold.
// Calling it on an already-ended game is an idempotent success: the
// recorded winner is never recomputed. When conditions are not met it
// returns ErrEndConditionsNotMet and changes nothing. Evaluation
// errors fail closed: the game is not ended.
func (c *Controller) TryAutoEndGame(ctx context.Context, gameID model.GameID) (*EndResult, error) {
	game, err := c.storage.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if game.IsEnded() {
		return c.endedResult(ctx, game)
	}

	shouldEnd, err := c.ShouldEndGame(ctx, gameID)
	if err != nil {
		return nil, err
	}
	if !shouldEnd {
		return nil, model.ErrEndConditionsNotMet
	}

	return c.endGame(ctx, game, "auto")
}

// EndGame force-ends a started game. Only the creator may do this.
func (c *Controller) EndGame(ctx context.Context, gameID model.GameID, requesterID model.PlayerID) (*EndResult, error) {
	game, err := c.storage.GetGame(ctx, gameID)
	if err != nil {
		return nil, err
	}

	if game.IsEnded() {
		return nil, model.ErrGameEnded
	}
	if requesterID != game.CreatorPlayerID {
		return nil, model.ErrNotCreator
	}

	return c.endGame(ctx, game, "manual")
}

// endGame computes the winner and transitions to ended. Shared by the
// auto and manual paths so both declare the same winner for the same
// standings.
func (c *Controller) endGame(ctx context.Context, game *model.Game, trigger string) (*EndResult, error) {
	leaderboard, err := c.GetLeaderboard(ctx, game.ID)
	if err != nil {
		return nil, err
	}
	if len(leaderboard) == 0 {
		// Unreachable given creation invariants, but guarded
		return nil, model.ErrNoPlayers
	}

	winner := leaderboard[0]

	game.Status = model.GameStatusEnded
	game.WinnerPlayerID = winner.ID
	game.UpdatedAt = c.clock.Now()

	if err := c.storage.SaveGame(ctx, game); err != nil {
		return nil, err
	}

	c.logger.Info("game ended",
		slog.String("game_id", string(game.ID)),
		slog.String("winner_player_id", string(winner.ID)),
		slog.Int("winner_score", winner.Score),
		slog.String("trigger", trigger),
	)

	return &EndResult{
		Game:        game,
		Winner:      winner,
		Leaderboard: leaderboard,
	}, nil
}

// endedResult rebuilds the result for an already-ended game without
// recomputing the winner
func (c *Controller) endedResult(ctx context.Context, game *model.Game) (*EndResult, error) {
	leaderboard, err := c.GetLeaderboard(ctx, game.ID)
	if err != nil {
		return nil, err
	}

	var winner *model.Player
	for _, p := range leaderboard {
		if p.ID == game.WinnerPlayerID {
			winner = p
			break
		}
	}

	return &EndResult{
		Game:        game,
		Winner:      winner,
		Leaderboard: leaderboard,
	}, nil
}

// Interface for dependency injection
type ControllerInterface interface {
	GetGame(ctx context.Context, gameID model.GameID) (*model.Game, error)
	GetLeaderboard(ctx context.Context, gameID model.GameID) ([]*model.Player, error)
	ShouldEndGame(ctx context.Context, gameID model.GameID) (bool, error)
	TryAutoEndGame(ctx context.Context, gameID model.GameID) (*EndResult, error)
	EndGame(ctx context.Context, gameID model.GameID, requesterID model.PlayerID) (*EndResult, error)
}

var _ ControllerInterface = (*Controller)(nil)
