package model

import "time"

// RuleID uniquely identifies a rule
type RuleID string

// RuleKind distinguishes positive from negative rules
type RuleKind string

const (
	RuleKindBonus RuleKind = "bonus" // Delta must be positive
	RuleKindMalus RuleKind = "malus" // Delta must be negative
)

// Rule represents a claimable bonus/malus rule within a game.
// Name, kind and delta are mutable only while the rule is unassigned.
type Rule struct {
	ID     RuleID
	GameID GameID

	// Name is unique within the game
	Name string
	Kind RuleKind

	// Delta is the score change applied when the rule is claimed.
	// Bonus rules require Delta > 0, malus rules Delta < 0.
	Delta int

	CreatedAt time.Time
	UpdatedAt time.Time
}

// ValidateDelta checks the kind/delta sign pairing
func (r *Rule) ValidateDelta() error {
	switch r.Kind {
	case RuleKindBonus:
		if r.Delta <= 0 {
			return ErrInvalidRuleDelta
		}
	case RuleKindMalus:
		if r.Delta >= 0 {
			return ErrInvalidRuleDelta
		}
	default:
		return ErrInvalidRuleKind
	}
	return nil
}
