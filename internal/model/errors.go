package model

import "errors"

// Common errors used across the application
var (
	// Game errors
	ErrGameNotFound         = errors.New("game not found")
	ErrGameNotStarted       = errors.New("game has not started")
	ErrGameEnded            = errors.New("game has already ended")
	ErrEndConditionsNotMet  = errors.New("end conditions not met")
	ErrNoPlayers            = errors.New("game has no players")
	ErrGameNameRequired     = errors.New("game name is required")
	ErrPlayersRequired      = errors.New("at least one player is required")
	ErrRulesRequired        = errors.New("at least one rule is required")
	ErrExactlyOneCreator    = errors.New("exactly one player must be the creator")

	// Player errors
	ErrPlayerNotFound             = errors.New("player not found")
	ErrUsernameRequired           = errors.New("player username is required")
	ErrDuplicatePlayerCredentials = errors.New("duplicate player credentials in game")
	ErrNotCreator                 = errors.New("player is not the game creator")

	// Rule errors
	ErrRuleNotFound      = errors.New("rule not found")
	ErrDuplicateRuleName = errors.New("rule name already exists in game")
	ErrInvalidRuleDelta  = errors.New("rule delta does not match its kind")
	ErrInvalidRuleKind   = errors.New("invalid rule kind")
	ErrRuleNameRequired  = errors.New("rule name is required")

	// Assignment errors
	ErrRuleAlreadyAssigned = errors.New("rule is already assigned")
	ErrAssignmentNotFound  = errors.New("assignment not found")
)
