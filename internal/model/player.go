package model

import "time"

// PlayerID uniquely identifies a player across the system
type PlayerID string

// Player represents a participant belonging to exactly one game
type Player struct {
	ID     PlayerID
	GameID GameID

	// Username is the login name, unique within the game (immutable)
	Username string
	// AccessCodeHash is the bcrypt hash of the player's access code
	AccessCodeHash string

	// IsCreator marks the single player per game with creator authority
	IsCreator bool

	// Seq is the player's position in creation order, unique within the
	// game. It is the tie-break identity for winner determination and
	// leaderboard ordering.
	Seq int

	// Score starts at the game's InitialScore and changes only when an
	// assignment applies a rule's delta. May go negative.
	Score int

	CreatedAt time.Time
	UpdatedAt time.Time
}
