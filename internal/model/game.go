package model

import "time"

// GameID uniquely identifies a game
type GameID string

// GameStatus represents the lifecycle phase of a game
type GameStatus string

const (
	GameStatusDraft   GameStatus = "draft"   // Setup in progress, not yet visible to players
	GameStatusStarted GameStatus = "started" // Rules may be claimed and edited
	GameStatusEnded   GameStatus = "ended"   // Terminal; winner declared
)

// Game represents a single bonus/malus scoring game
type Game struct {
	ID           GameID
	Name         string
	InitialScore int
	Status       GameStatus

	// CreatorPlayerID is the single player with authority over rule
	// edits and manual ending. Set during game creation.
	CreatorPlayerID PlayerID

	// WinnerPlayerID is set if and only if Status is ended.
	WinnerPlayerID PlayerID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// IsEnded returns true if the game has reached its terminal state
func (g *Game) IsEnded() bool {
	return g.Status == GameStatusEnded
}

// IsStarted returns true if claims and rule edits are allowed
func (g *Game) IsStarted() bool {
	return g.Status == GameStatusStarted
}
