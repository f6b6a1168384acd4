package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/suite"

	"github.com/rvianello/bonusmalus/internal/model"
)

type StorageSuite struct {
	suite.Suite
	mini    *miniredis.Miniredis
	storage *Storage
	ctx     context.Context
}

func TestStorageSuite(t *testing.T) {
	suite.Run(t, new(StorageSuite))
}

func (s *StorageSuite) SetupTest() {
	s.mini = miniredis.RunT(s.T())

	client := redis.NewClient(&redis.Options{
		Addr: s.mini.Addr(),
	})

	cfg := DefaultConfig()
	cfg.GameTTL = time.Hour

	s.storage = NewWithClient(client, cfg)
	s.ctx = context.Background()
}

func (s *StorageSuite) TearDownTest() {
	if s.storage != nil {
		_ = s.storage.Close()
	}
	if s.mini != nil {
		s.mini.Close()
	}
}

func (s *StorageSuite) seedGame(gameID model.GameID, usernames ...string) []*model.Player {
	now := time.Now()
	game := &model.Game{
		ID:        gameID,
		Name:      "Test Game",
		Status:    model.GameStatusStarted,
		CreatedAt: now,
		UpdatedAt: now,
	}

	players := make([]*model.Player, 0, len(usernames))
	for seq, username := range usernames {
		players = append(players, &model.Player{
			ID:       model.PlayerID("p_" + username),
			GameID:   gameID,
			Username: username,
			Seq:      seq,
			Score:    10,
		})
	}

	rules := []*model.Rule{
		{ID: "r_1", GameID: gameID, Name: "First rule", Kind: model.RuleKindBonus, Delta: 2, CreatedAt: now},
		{ID: "r_2", GameID: gameID, Name: "Second rule", Kind: model.RuleKindMalus, Delta: -3, CreatedAt: now.Add(time.Second)},
	}

	s.Require().NoError(s.storage.CreateGameSetup(s.ctx, game, players, rules))
	return players
}

// Game tests

func (s *StorageSuite) TestSaveAndGetGame() {
	game := &model.Game{
		ID:        "game-1",
		Name:      "Friday Night",
		Status:    model.GameStatusStarted,
		CreatedAt: time.Now(),
	}

	err := s.storage.SaveGame(s.ctx, game)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(game.ID, retrieved.ID)
	s.Equal(game.Name, retrieved.Name)
	s.Equal(game.Status, retrieved.Status)
}

func (s *StorageSuite) TestGetGameNotFound() {
	_, err := s.storage.GetGame(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrGameNotFound)
}

// Game setup tests

func (s *StorageSuite) TestCreateGameSetup() {
	s.seedGame("game-1", "alice", "bob")

	game, err := s.storage.GetGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(model.GameID("game-1"), game.ID)

	players, err := s.storage.GetPlayersForGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Len(players, 2)

	rules, err := s.storage.GetRulesForGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Len(rules, 2)
}

func (s *StorageSuite) TestCreateGameSetupDuplicateUsername() {
	s.seedGame("game-1", "alice")

	game := &model.Game{ID: "game-2", Status: model.GameStatusStarted}
	players := []*model.Player{
		{ID: "p_x", GameID: "game-1", Username: "alice", Seq: 0},
	}

	err := s.storage.CreateGameSetup(s.ctx, game, players, nil)
	s.ErrorIs(err, model.ErrDuplicatePlayerCredentials)

	// The second game was not written
	_, err = s.storage.GetGame(s.ctx, "game-2")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *StorageSuite) TestCreateGameSetupRollbackFreesClaims() {
	s.seedGame("game-1", "alice")

	// bob's claim succeeds before alice's conflicts; the rollback must
	// release it again
	game := &model.Game{ID: "game-2", Status: model.GameStatusStarted}
	players := []*model.Player{
		{ID: "p_b", GameID: "game-1", Username: "bob", Seq: 0},
		{ID: "p_a", GameID: "game-1", Username: "alice", Seq: 1},
	}
	err := s.storage.CreateGameSetup(s.ctx, game, players, nil)
	s.ErrorIs(err, model.ErrDuplicatePlayerCredentials)

	game3 := &model.Game{ID: "game-3", Status: model.GameStatusStarted}
	players3 := []*model.Player{
		{ID: "p_bob", GameID: "game-1", Username: "bob", Seq: 0},
	}
	err = s.storage.CreateGameSetup(s.ctx, game3, players3, nil)
	s.Require().NoError(err)
}

func (s *StorageSuite) TestCreateGameSetupSameUsernameDifferentGames() {
	s.seedGame("game-1", "alice")

	game := &model.Game{ID: "game-2", Status: model.GameStatusStarted}
	players := []*model.Player{
		{ID: "p_other", GameID: "game-2", Username: "alice", Seq: 0},
	}

	err := s.storage.CreateGameSetup(s.ctx, game, players, nil)
	s.Require().NoError(err)
}

// Player tests

func (s *StorageSuite) TestGetPlayerNotFound() {
	_, err := s.storage.GetPlayer(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestGetPlayerByUsername() {
	s.seedGame("game-1", "alice", "bob")

	player, err := s.storage.GetPlayerByUsername(s.ctx, "game-1", "bob")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p_bob"), player.ID)
}

func (s *StorageSuite) TestGetPlayerByUsernameNotFound() {
	s.seedGame("game-1", "alice")

	_, err := s.storage.GetPlayerByUsername(s.ctx, "game-1", "carol")
	s.ErrorIs(err, model.ErrPlayerNotFound)
}

func (s *StorageSuite) TestGetPlayersForGameOrderedBySeq() {
	s.seedGame("game-1", "carol", "alice", "bob")

	players, err := s.storage.GetPlayersForGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Require().Len(players, 3)
	s.Equal("carol", players[0].Username)
	s.Equal("alice", players[1].Username)
	s.Equal("bob", players[2].Username)
}

// Rule tests

func (s *StorageSuite) TestCreateAndGetRule() {
	s.seedGame("game-1", "alice")

	rule := &model.Rule{
		ID:     "r_new",
		GameID: "game-1",
		Name:   "Late arrival",
		Kind:   model.RuleKindMalus,
		Delta:  -2,
	}
	err := s.storage.CreateRule(s.ctx, rule)
	s.Require().NoError(err)

	retrieved, err := s.storage.GetRule(s.ctx, "r_new")
	s.Require().NoError(err)
	s.Equal(rule.Name, retrieved.Name)
	s.Equal(rule.Delta, retrieved.Delta)

	rules, err := s.storage.GetRulesForGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Len(rules, 3)
}

func (s *StorageSuite) TestCreateRuleDuplicateName() {
	s.seedGame("game-1", "alice")

	err := s.storage.CreateRule(s.ctx, &model.Rule{
		ID: "r_new", GameID: "game-1", Name: "First rule", Kind: model.RuleKindBonus, Delta: 1,
	})
	s.ErrorIs(err, model.ErrDuplicateRuleName)
}

func (s *StorageSuite) TestUpdateRule() {
	s.seedGame("game-1", "alice")

	rule, _ := s.storage.GetRule(s.ctx, "r_1")
	rule.Name = "Renamed rule"
	rule.Delta = 5

	err := s.storage.UpdateRule(s.ctx, rule, "First rule")
	s.Require().NoError(err)

	retrieved, _ := s.storage.GetRule(s.ctx, "r_1")
	s.Equal("Renamed rule", retrieved.Name)
	s.Equal(5, retrieved.Delta)

	// Old name freed for reuse
	err = s.storage.CreateRule(s.ctx, &model.Rule{
		ID: "r_new", GameID: "game-1", Name: "First rule", Kind: model.RuleKindBonus, Delta: 1,
	})
	s.Require().NoError(err)
}

func (s *StorageSuite) TestUpdateRuleNameConflict() {
	s.seedGame("game-1", "alice")

	rule, _ := s.storage.GetRule(s.ctx, "r_1")
	rule.Name = "Second rule"

	err := s.storage.UpdateRule(s.ctx, rule, "First rule")
	s.ErrorIs(err, model.ErrDuplicateRuleName)
}

func (s *StorageSuite) TestDeleteRule() {
	s.seedGame("game-1", "alice")

	err := s.storage.DeleteRule(s.ctx, "r_1")
	s.Require().NoError(err)

	_, err = s.storage.GetRule(s.ctx, "r_1")
	s.ErrorIs(err, model.ErrRuleNotFound)

	rules, _ := s.storage.GetRulesForGame(s.ctx, "game-1")
	s.Len(rules, 1)

	// Name freed for reuse
	err = s.storage.CreateRule(s.ctx, &model.Rule{
		ID: "r_again", GameID: "game-1", Name: "First rule", Kind: model.RuleKindBonus, Delta: 1,
	})
	s.Require().NoError(err)
}

func (s *StorageSuite) TestDeleteRuleNotFound() {
	err := s.storage.DeleteRule(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrRuleNotFound)
}

func (s *StorageSuite) TestUpdateRuleAssigned() {
	players := s.seedGame("game-1", "alice")
	_, inserted, err := s.storage.InsertAssignment(s.ctx, &model.Assignment{
		ID: "a_1", RuleID: "r_1", GameID: "game-1", PlayerID: players[0].ID, DeltaApplied: 2,
	})
	s.Require().NoError(err)
	s.Require().True(inserted)

	rule, _ := s.storage.GetRule(s.ctx, "r_1")
	rule.Delta = 100

	err = s.storage.UpdateRule(s.ctx, rule, "First rule")
	s.ErrorIs(err, model.ErrRuleAlreadyAssigned)

	retrieved, _ := s.storage.GetRule(s.ctx, "r_1")
	s.Equal(2, retrieved.Delta)
}

func (s *StorageSuite) TestDeleteRuleAssigned() {
	players := s.seedGame("game-1", "alice")
	_, inserted, err := s.storage.InsertAssignment(s.ctx, &model.Assignment{
		ID: "a_1", RuleID: "r_1", GameID: "game-1", PlayerID: players[0].ID, DeltaApplied: 2,
	})
	s.Require().NoError(err)
	s.Require().True(inserted)

	err = s.storage.DeleteRule(s.ctx, "r_1")
	s.ErrorIs(err, model.ErrRuleAlreadyAssigned)

	_, err = s.storage.GetRule(s.ctx, "r_1")
	s.Require().NoError(err)
}

// Assignment tests

func (s *StorageSuite) TestInsertAssignment() {
	players := s.seedGame("game-1", "alice")

	updated, inserted, err := s.storage.InsertAssignment(s.ctx, &model.Assignment{
		ID: "a_1", RuleID: "r_1", GameID: "game-1", PlayerID: players[0].ID, DeltaApplied: 2,
		AssignedAt: time.Now(),
	})
	s.Require().NoError(err)
	s.True(inserted)
	s.Equal(12, updated.Score)

	assignment, err := s.storage.GetAssignmentForRule(s.ctx, "r_1")
	s.Require().NoError(err)
	s.Equal(model.AssignmentID("a_1"), assignment.ID)

	player, _ := s.storage.GetPlayer(s.ctx, players[0].ID)
	s.Equal(12, player.Score)

	// The game index gained the member in the same script, so auto-end
	// counting sees every recorded assignment
	assignments, err := s.storage.GetAssignmentsForGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Len(assignments, 1)
}

func (s *StorageSuite) TestInsertAssignmentAlreadyAssigned() {
	players := s.seedGame("game-1", "alice", "bob")

	_, inserted, err := s.storage.InsertAssignment(s.ctx, &model.Assignment{
		ID: "a_1", RuleID: "r_1", GameID: "game-1", PlayerID: players[0].ID, DeltaApplied: 2,
	})
	s.Require().NoError(err)
	s.True(inserted)

	updated, inserted, err := s.storage.InsertAssignment(s.ctx, &model.Assignment{
		ID: "a_2", RuleID: "r_1", GameID: "game-1", PlayerID: players[1].ID, DeltaApplied: 2,
	})
	s.Require().NoError(err)
	s.False(inserted)
	s.Nil(updated)

	// The loser's score did not move
	player, _ := s.storage.GetPlayer(s.ctx, players[1].ID)
	s.Equal(10, player.Score)

	assignment, _ := s.storage.GetAssignmentForRule(s.ctx, "r_1")
	s.Equal(model.AssignmentID("a_1"), assignment.ID)
}

func (s *StorageSuite) TestInsertAssignmentSamePlayerAccumulates() {
	players := s.seedGame("game-1", "alice")

	first, inserted, err := s.storage.InsertAssignment(s.ctx, &model.Assignment{
		ID: "a_1", RuleID: "r_1", GameID: "game-1", PlayerID: players[0].ID, DeltaApplied: 2,
	})
	s.Require().NoError(err)
	s.Require().True(inserted)
	s.Equal(12, first.Score)

	second, inserted, err := s.storage.InsertAssignment(s.ctx, &model.Assignment{
		ID: "a_2", RuleID: "r_2", GameID: "game-1", PlayerID: players[0].ID, DeltaApplied: -3,
	})
	s.Require().NoError(err)
	s.Require().True(inserted)
	s.Equal(9, second.Score)

	// Both deltas are reflected in the persisted score
	player, _ := s.storage.GetPlayer(s.ctx, players[0].ID)
	s.Equal(9, player.Score)
	s.Equal("alice", player.Username)
	s.Equal(0, player.Seq)
}

func (s *StorageSuite) TestInsertAssignmentPlayerNotFound() {
	s.seedGame("game-1", "alice")

	_, _, err := s.storage.InsertAssignment(s.ctx, &model.Assignment{
		ID: "a_1", RuleID: "r_1", GameID: "game-1", PlayerID: "p_ghost", DeltaApplied: 2,
	})
	s.ErrorIs(err, model.ErrPlayerNotFound)

	// Nothing was written
	_, err = s.storage.GetAssignmentForRule(s.ctx, "r_1")
	s.ErrorIs(err, model.ErrAssignmentNotFound)
}

func (s *StorageSuite) TestGetAssignmentForRuleNotFound() {
	_, err := s.storage.GetAssignmentForRule(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrAssignmentNotFound)
}

func (s *StorageSuite) TestGetAssignmentsForGame() {
	players := s.seedGame("game-1", "alice")

	for _, ruleID := range []model.RuleID{"r_1", "r_2"} {
		_, inserted, err := s.storage.InsertAssignment(s.ctx, &model.Assignment{
			ID:       model.AssignmentID("a_" + ruleID),
			RuleID:   ruleID,
			GameID:   "game-1",
			PlayerID: players[0].ID,
		})
		s.Require().NoError(err)
		s.True(inserted)
	}

	assignments, err := s.storage.GetAssignmentsForGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Len(assignments, 2)
}
