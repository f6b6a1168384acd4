package storage

import (
	"context"

	"github.com/rvianello/bonusmalus/internal/model"
)

// Storage defines the interface for data persistence.
//
// Two operations carry transactional semantics beyond plain CRUD:
// CreateGameSetup (all-or-nothing multi-entity insert) and
// InsertAssignment (conditional insert, the first-claim-wins primitive).
type Storage interface {
	// Game operations
	SaveGame(ctx context.Context, game *model.Game) error
	GetGame(ctx context.Context, id model.GameID) (*model.Game, error)

	// CreateGameSetup atomically persists a game together with its
	// players and rules. Nothing is written on failure. Duplicate
	// usernames within the game yield ErrDuplicatePlayerCredentials;
	// duplicate rule names yield ErrDuplicateRuleName.
	CreateGameSetup(ctx context.Context, game *model.Game, players []*model.Player, rules []*model.Rule) error

	// Player operations
	GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error)
	GetPlayerByUsername(ctx context.Context, gameID model.GameID, username string) (*model.Player, error)
	// GetPlayersForGame returns players ordered by Seq ascending
	GetPlayersForGame(ctx context.Context, gameID model.GameID) ([]*model.Player, error)

	// Rule operations
	// CreateRule inserts a rule, enforcing name uniqueness within the
	// game (ErrDuplicateRuleName on conflict).
	CreateRule(ctx context.Context, rule *model.Rule) error
	// UpdateRule replaces a rule, moving the name index when the name
	// changed (oldName is the name currently persisted). Fails with
	// ErrRuleAlreadyAssigned if an assignment exists for the rule; the
	// check happens inside the write so a concurrent claim cannot slip
	// between them.
	UpdateRule(ctx context.Context, rule *model.Rule, oldName string) error
	// DeleteRule removes an unassigned rule. Same conflict semantics as
	// UpdateRule.
	DeleteRule(ctx context.Context, id model.RuleID) error
	GetRule(ctx context.Context, id model.RuleID) (*model.Rule, error)
	GetRulesForGame(ctx context.Context, gameID model.GameID) ([]*model.Rule, error)

	// Assignment operations
	//
	// InsertAssignment inserts the assignment iff no assignment exists
	// for its RuleID, applying assignment.DeltaApplied to the stored
	// player's score in the same atomic step. The store owns the
	// read-modify-write so concurrent claims by the same player on
	// different rules all land. Returns the updated player on insert;
	// (nil, false, nil) with no side effect when the rule was already
	// assigned. This is the sole cross-request ordering primitive: under
	// concurrent claims for one rule exactly one caller observes
	// inserted=true.
	InsertAssignment(ctx context.Context, assignment *model.Assignment) (*model.Player, bool, error)
	GetAssignmentForRule(ctx context.Context, ruleID model.RuleID) (*model.Assignment, error)
	GetAssignmentsForGame(ctx context.Context, gameID model.GameID) ([]*model.Assignment, error)
}
