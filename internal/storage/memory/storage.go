package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/rvianello/bonusmalus/internal/model"
	"github.com/rvianello/bonusmalus/internal/storage"
)

// Storage is an in-memory implementation of the storage interface.
// A single mutex provides the transactional semantics the interface
// requires: multi-entity inserts and conditional writes are atomic
// with respect to concurrent callers.
type Storage struct {
	mu sync.RWMutex

	games          map[model.GameID]*model.Game
	players        map[model.PlayerID]*model.Player
	playersByGame  map[model.GameID][]model.PlayerID
	usernameIndex  map[credentialKey]model.PlayerID
	rules          map[model.RuleID]*model.Rule
	rulesByGame    map[model.GameID][]model.RuleID
	ruleNameIndex  map[ruleNameKey]model.RuleID
	assignments    map[model.RuleID]*model.Assignment
	assignsByGame  map[model.GameID][]model.RuleID
}

type credentialKey struct {
	gameID   model.GameID
	username string
}

type ruleNameKey struct {
	gameID model.GameID
	name   string
}

// New creates a new in-memory storage instance
func New() *Storage {
	return &Storage{
		games:         make(map[model.GameID]*model.Game),
		players:       make(map[model.PlayerID]*model.Player),
		playersByGame: make(map[model.GameID][]model.PlayerID),
		usernameIndex: make(map[credentialKey]model.PlayerID),
		rules:         make(map[model.RuleID]*model.Rule),
		rulesByGame:   make(map[model.GameID][]model.RuleID),
		ruleNameIndex: make(map[ruleNameKey]model.RuleID),
		assignments:   make(map[model.RuleID]*model.Assignment),
		assignsByGame: make(map[model.GameID][]model.RuleID),
	}
}

// Ensure Storage implements the interface
var _ storage.Storage = (*Storage)(nil)

// Game operations

func (s *Storage) SaveGame(ctx context.Context, game *model.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	g := *game
	s.games[game.ID] = &g
	return nil
}

func (s *Storage) GetGame(ctx context.Context, id model.GameID) (*model.Game, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[id]
	if !ok {
		return nil, model.ErrGameNotFound
	}
	g := *game
	return &g, nil
}

func (s *Storage) CreateGameSetup(ctx context.Context, game *model.Game, players []*model.Player, rules []*model.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	// Check all uniqueness constraints before writing anything
	seenCreds := make(map[credentialKey]bool, len(players))
	for _, p := range players {
		key := credentialKey{gameID: p.GameID, username: p.Username}
		if seenCreds[key] {
			return model.ErrDuplicatePlayerCredentials
		}
		if _, exists := s.usernameIndex[key]; exists {
			return model.ErrDuplicatePlayerCredentials
		}
		seenCreds[key] = true
	}

	seenNames := make(map[ruleNameKey]bool, len(rules))
	for _, r := range rules {
		key := ruleNameKey{gameID: r.GameID, name: r.Name}
		if seenNames[key] {
			return model.ErrDuplicateRuleName
		}
		if _, exists := s.ruleNameIndex[key]; exists {
			return model.ErrDuplicateRuleName
		}
		seenNames[key] = true
	}

	g := *game
	s.games[game.ID] = &g

	for _, p := range players {
		cp := *p
		s.players[p.ID] = &cp
		s.playersByGame[p.GameID] = append(s.playersByGame[p.GameID], p.ID)
		s.usernameIndex[credentialKey{gameID: p.GameID, username: p.Username}] = p.ID
	}

	for _, r := range rules {
		cr := *r
		s.rules[r.ID] = &cr
		s.rulesByGame[r.GameID] = append(s.rulesByGame[r.GameID], r.ID)
		s.ruleNameIndex[ruleNameKey{gameID: r.GameID, name: r.Name}] = r.ID
	}

	return nil
}

// Player operations

func (s *Storage) GetPlayer(ctx context.Context, id model.PlayerID) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

func (s *Storage) GetPlayerByUsername(ctx context.Context, gameID model.GameID, username string) (*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	id, ok := s.usernameIndex[credentialKey{gameID: gameID, username: username}]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	player, ok := s.players[id]
	if !ok {
		return nil, model.ErrPlayerNotFound
	}
	p := *player
	return &p, nil
}

func (s *Storage) GetPlayersForGame(ctx context.Context, gameID model.GameID) ([]*model.Player, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.playersByGame[gameID]
	players := make([]*model.Player, 0, len(ids))
	for _, id := range ids {
		if player, ok := s.players[id]; ok {
			p := *player
			players = append(players, &p)
		}
	}
	sort.Slice(players, func(i, j int) bool {
		return players[i].Seq < players[j].Seq
	})
	return players, nil
}

// Rule operations

func (s *Storage) CreateRule(ctx context.Context, rule *model.Rule) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := ruleNameKey{gameID: rule.GameID, name: rule.Name}
	if _, exists := s.ruleNameIndex[key]; exists {
		return model.ErrDuplicateRuleName
	}
	r := *rule
	s.rules[rule.ID] = &r
	s.rulesByGame[rule.GameID] = append(s.rulesByGame[rule.GameID], rule.ID)
	s.ruleNameIndex[key] = rule.ID
	return nil
}

func (s *Storage) UpdateRule(ctx context.Context, rule *model.Rule, oldName string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.rules[rule.ID]; !ok {
		return model.ErrRuleNotFound
	}
	if _, exists := s.assignments[rule.ID]; exists {
		return model.ErrRuleAlreadyAssigned
	}
	if rule.Name != oldName {
		newKey := ruleNameKey{gameID: rule.GameID, name: rule.Name}
		if _, exists := s.ruleNameIndex[newKey]; exists {
			return model.ErrDuplicateRuleName
		}
		delete(s.ruleNameIndex, ruleNameKey{gameID: rule.GameID, name: oldName})
		s.ruleNameIndex[newKey] = rule.ID
	}
	r := *rule
	s.rules[rule.ID] = &r
	return nil
}

func (s *Storage) DeleteRule(ctx context.Context, id model.RuleID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rule, ok := s.rules[id]
	if !ok {
		return model.ErrRuleNotFound
	}
	if _, exists := s.assignments[id]; exists {
		return model.ErrRuleAlreadyAssigned
	}
	delete(s.rules, id)
	delete(s.ruleNameIndex, ruleNameKey{gameID: rule.GameID, name: rule.Name})
	ids := s.rulesByGame[rule.GameID]
	for i, rid := range ids {
		if rid == id {
			s.rulesByGame[rule.GameID] = append(ids[:i], ids[i+1:]...)
			break
		}
	}
	return nil
}

func (s *Storage) GetRule(ctx context.Context, id model.RuleID) (*model.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	rule, ok := s.rules[id]
	if !ok {
		return nil, model.ErrRuleNotFound
	}
	r := *rule
	return &r, nil
}

func (s *Storage) GetRulesForGame(ctx context.Context, gameID model.GameID) ([]*model.Rule, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.rulesByGame[gameID]
	rules := make([]*model.Rule, 0, len(ids))
	for _, id := range ids {
		if rule, ok := s.rules[id]; ok {
			r := *rule
			rules = append(rules, &r)
		}
	}
	return rules, nil
}

// Assignment operations

func (s *Storage) InsertAssignment(ctx context.Context, assignment *model.Assignment) (*model.Player, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, exists := s.assignments[assignment.RuleID]; exists {
		return nil, false, nil
	}
	player, ok := s.players[assignment.PlayerID]
	if !ok {
		return nil, false, model.ErrPlayerNotFound
	}
	a := *assignment
	s.assignments[assignment.RuleID] = &a
	s.assignsByGame[assignment.GameID] = append(s.assignsByGame[assignment.GameID], assignment.RuleID)
	// Score moves under the same lock that records the assignment, so
	// claims by one player on several rules never lose a delta
	player.Score += assignment.DeltaApplied
	player.UpdatedAt = assignment.AssignedAt
	p := *player
	return &p, true, nil
}

func (s *Storage) GetAssignmentForRule(ctx context.Context, ruleID model.RuleID) (*model.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	assignment, ok := s.assignments[ruleID]
	if !ok {
		return nil, model.ErrAssignmentNotFound
	}
	a := *assignment
	return &a, nil
}

func (s *Storage) GetAssignmentsForGame(ctx context.Context, gameID model.GameID) ([]*model.Assignment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	ids := s.assignsByGame[gameID]
	assignments := make([]*model.Assignment, 0, len(ids))
	for _, id := range ids {
		if assignment, ok := s.assignments[id]; ok {
			a := *assignment
			assignments = append(assignments, &a)
		}
	}
	return assignments, nil
}
