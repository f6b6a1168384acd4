package redis

import (
	"fmt"

	"github.com/rvianello/bonusmalus/internal/model"
)

// Key prefix for all game-related data
const keyPrefix = "bmgame"

// Key generation functions for each entity type

// gameKey returns the Redis key for a Game
func gameKey(id model.GameID) string {
	return fmt.Sprintf("%s:game:%s", keyPrefix, id)
}

// playerKey returns the Redis key for a Player
func playerKey(id model.PlayerID) string {
	return fmt.Sprintf("%s:player:%s", keyPrefix, id)
}

// playersForGameIndexKey returns the Redis key for the SET of players in a game
func playersForGameIndexKey(gameID model.GameID) string {
	return fmt.Sprintf("%s:idx:players_for_game:%s", keyPrefix, gameID)
}

// usernameIndexKey returns the Redis key for the (game, username) -> player_id index
func usernameIndexKey(gameID model.GameID, username string) string {
	return fmt.Sprintf("%s:idx:username:%s:%s", keyPrefix, gameID, username)
}

// ruleKey returns the Redis key for a Rule
func ruleKey(id model.RuleID) string {
	return fmt.Sprintf("%s:rule:%s", keyPrefix, id)
}

// rulesForGameIndexKey returns the Redis key for the SET of rules in a game
func rulesForGameIndexKey(gameID model.GameID) string {
	return fmt.Sprintf("%s:idx:rules_for_game:%s", keyPrefix, gameID)
}

// ruleNameIndexKey returns the Redis key for the (game, rule name) -> rule_id index.
// SETNX on this key enforces rule name uniqueness within a game.
func ruleNameIndexKey(gameID model.GameID, name string) string {
	return fmt.Sprintf("%s:idx:rule_name:%s:%s", keyPrefix, gameID, name)
}

// assignmentKey returns the Redis key for a rule's Assignment.
// Keyed by rule ID: SETNX on this key is the uniqueness constraint that
// makes first-claim-wins well-defined under concurrent claims.
func assignmentKey(ruleID model.RuleID) string {
	return fmt.Sprintf("%s:assignment:%s", keyPrefix, ruleID)
}

// assignmentsForGameIndexKey returns the Redis key for the SET of assigned rules in a game
func assignmentsForGameIndexKey(gameID model.GameID) string {
	return fmt.Sprintf("%s:idx:assignments_for_game:%s", keyPrefix, gameID)
}
