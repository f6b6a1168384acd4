package model

import "time"

// AssignmentID uniquely identifies an assignment
type AssignmentID string

// Assignment records a player claiming a rule. At most one assignment
// ever exists per rule. Assignments are append-only: they are never
// updated or deleted once created, forming the game's audit trail.
type Assignment struct {
	ID       AssignmentID
	RuleID   RuleID
	GameID   GameID
	PlayerID PlayerID

	// DeltaApplied is the rule's delta captured at assignment time.
	// Later rule edits never change it.
	DeltaApplied int

	AssignedAt time.Time
}
