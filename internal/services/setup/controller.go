package setup

import (
	"context"
	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/rvianello/bonusmalus/internal/dependencies/clock"
	"github.com/rvianello/bonusmalus/internal/dependencies/random"
	"github.com/rvianello/bonusmalus/internal/model"
	"github.com/rvianello/bonusmalus/internal/storage"
)

const (
	// IDAlphabet is the characters used in generated entity IDs
	IDAlphabet = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	// GameIDLength is the length of generated game IDs
	GameIDLength = 12
	// EntityIDLength is the length of generated player/rule IDs (after prefix)
	EntityIDLength = 10

	// AccessCodeLength is the length of generated player access codes
	AccessCodeLength = 8
	// AccessCodeAlphabet avoids visually confusing characters
	AccessCodeAlphabet = "ABCDEFGHJKLMNPQRSTUVWXYZ23456789"
)

// PlayerSpec describes a player to create with the game
type PlayerSpec struct {
	Username  string
	IsCreator bool
}

// RuleSpec describes a rule to create with the game
type RuleSpec struct {
	Name  string
	Kind  model.RuleKind
	Delta int
}

// PlayerCredential is the plaintext credential generated for one player.
// It is returned exactly once, at creation time, to be relayed to the
// player out-of-band; only the bcrypt hash is persisted.
type PlayerCredential struct {
	PlayerID   model.PlayerID
	Username   string
	AccessCode string
	IsCreator  bool
}

// CreateGameResult is the outcome of a successful game creation
type CreateGameResult struct {
	Game        *model.Game
	Credentials []PlayerCredential
}

// Controller orchestrates the all-or-nothing creation of a game with
// its players and rules
type Controller struct {
	storage storage.Storage
	clock   clock.Clock
	random  random.Random
	logger  *slog.Logger
}

// NewController creates a new setup Controller
func NewController(storage storage.Storage, clock clock.Clock, random random.Random, logger *slog.Logger) *Controller {
	return &Controller{
		storage: storage,
		clock:   clock,
		random:  random,
		logger:  logger,
	}
}

// CreateGame validates the request, builds the game with its players
// and rules, and commits everything in a single storage operation.
// All validation failures abort before any write; a storage conflict
// leaves nothing behind. The returned credentials include the only
// copy of each player's plaintext access code.
func (c *Controller) CreateGame(ctx context.Context, name string, initialScore int, playerSpecs []PlayerSpec, ruleSpecs []RuleSpec) (*CreateGameResult, error) {
	if name == "" {
		return nil, model.ErrGameNameRequired
	}
	if len(playerSpecs) == 0 {
		return nil, model.ErrPlayersRequired
	}
	if len(ruleSpecs) == 0 {
		return nil, model.ErrRulesRequired
	}

	creatorCount := 0
	usernames := make(map[string]bool, len(playerSpecs))
	for _, ps := range playerSpecs {
		if ps.Username == "" {
			return nil, model.ErrUsernameRequired
		}
		if usernames[ps.Username] {
			return nil, model.ErrDuplicatePlayerCredentials
		}
		usernames[ps.Username] = true
		if ps.IsCreator {
			creatorCount++
		}
	}
	if creatorCount != 1 {
		return nil, model.ErrExactlyOneCreator
	}

	ruleNames := make(map[string]bool, len(ruleSpecs))
	for _, rs := range ruleSpecs {
		if rs.Name == "" {
			return nil, model.ErrRuleNameRequired
		}
		if ruleNames[rs.Name] {
			return nil, model.ErrDuplicateRuleName
		}
		ruleNames[rs.Name] = true
		probe := model.Rule{Kind: rs.Kind, Delta: rs.Delta}
		if err := probe.ValidateDelta(); err != nil {
			return nil, err
		}
	}

	now := c.clock.Now()
	gameID := model.GameID(c.random.String(GameIDLength, IDAlphabet))

	game := &model.Game{
		ID:           gameID,
		Name:         name,
		InitialScore: initialScore,
		Status:       model.GameStatusDraft,
		CreatedAt:    now,
		UpdatedAt:    now,
	}

	players := make([]*model.Player, 0, len(playerSpecs))
	credentials := make([]PlayerCredential, 0, len(playerSpecs))
	for seq, ps := range playerSpecs {
		playerID := model.PlayerID("p_" + c.random.String(EntityIDLength, IDAlphabet))
		accessCode := c.random.String(AccessCodeLength, AccessCodeAlphabet)

		hash, err := bcrypt.GenerateFromPassword([]byte(accessCode), bcrypt.DefaultCost)
		if err != nil {
			return nil, err
		}

		players = append(players, &model.Player{
			ID:             playerID,
			GameID:         gameID,
			Username:       ps.Username,
			AccessCodeHash: string(hash),
			IsCreator:      ps.IsCreator,
			Seq:            seq,
			Score:          initialScore,
			CreatedAt:      now,
			UpdatedAt:      now,
		})
		credentials = append(credentials, PlayerCredential{
			PlayerID:   playerID,
			Username:   ps.Username,
			AccessCode: accessCode,
			IsCreator:  ps.IsCreator,
		})

		if ps.IsCreator {
			game.CreatorPlayerID = playerID
		}
	}

	// Promote to started before the commit: half-created games must
	// never be observable, so the draft phase exists only inside this
	// operation.
	game.Status = model.GameStatusStarted

	rules := make([]*model.Rule, 0, len(ruleSpecs))
	for _, rs := range ruleSpecs {
		rules = append(rules, &model.Rule{
			ID:        model.RuleID("r_" + c.random.String(EntityIDLength, IDAlphabet)),
			GameID:    gameID,
			Name:      rs.Name,
			Kind:      rs.Kind,
			Delta:     rs.Delta,
			CreatedAt: now,
			UpdatedAt: now,
		})
	}

	if err := c.storage.CreateGameSetup(ctx, game, players, rules); err != nil {
		c.logger.Error("failed to create game",
			slog.String("game_id", string(gameID)),
			slog.String("error", err.Error()),
		)
		return nil, err
	}

	c.logger.Info("game created",
		slog.String("game_id", string(gameID)),
		slog.String("name", name),
		slog.Int("player_count", len(players)),
		slog.Int("rule_count", len(rules)),
		slog.Int("initial_score", initialScore),
	)

	return &CreateGameResult{
		Game:        game,
		Credentials: credentials,
	}, nil
}

// Interface for dependency injection
type ControllerInterface interface {
	CreateGame(ctx context.Context, name string, initialScore int, playerSpecs []PlayerSpec, ruleSpecs []RuleSpec) (*CreateGameResult, error)
}

var _ ControllerInterface = (*Controller)(nil)
