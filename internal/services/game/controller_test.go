package game

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"

	"github.com/rvianello/bonusmalus/internal/dependencies/mocks"
	"github.com/rvianello/bonusmalus/internal/model"
	"github.com/rvianello/bonusmalus/internal/storage/memory"
	"github.com/rvianello/bonusmalus/internal/testutil"
)

type ControllerSuite struct {
	suite.Suite
	storage    *memory.Storage
	clock      *mocks.MockClock
	controller *Controller
	ctx        context.Context
}

func TestControllerSuite(t *testing.T) {
	suite.Run(t, new(ControllerSuite))
}

func (s *ControllerSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.controller = NewController(s.storage, s.clock, DefaultConfig(), testutil.NopLogger())
	s.ctx = context.Background()
}

// seedGame creates a started game with one player per score and one
// rule per ruleDelta. Player usernames are p0, p1, ... in Seq order.
func (s *ControllerSuite) seedGame(scores []int, ruleDeltas []int) (*model.Game, []*model.Player, []*model.Rule) {
	now := s.clock.Now()
	game := &model.Game{
		ID:              "game-1",
		Name:            "Test Game",
		InitialScore:    10,
		Status:          model.GameStatusStarted,
		CreatorPlayerID: "p_p0",
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	players := make([]*model.Player, 0, len(scores))
	for i, score := range scores {
		username := "p" + string(rune('0'+i))
		players = append(players, &model.Player{
			ID:        model.PlayerID("p_" + username),
			GameID:    game.ID,
			Username:  username,
			IsCreator: i == 0,
			Seq:       i,
			Score:     score,
		})
	}

	rules := make([]*model.Rule, 0, len(ruleDeltas))
	for i, delta := range ruleDeltas {
		kind := model.RuleKindBonus
		if delta < 0 {
			kind = model.RuleKindMalus
		}
		rules = append(rules, &model.Rule{
			ID:     model.RuleID("r_" + string(rune('0'+i))),
			GameID: game.ID,
			Name:   "Rule " + string(rune('0'+i)),
			Kind:   kind,
			Delta:  delta,
		})
	}

	s.Require().NoError(s.storage.CreateGameSetup(s.ctx, game, players, rules))
	return game, players, rules
}

func (s *ControllerSuite) assign(rule *model.Rule, player *model.Player) {
	_, inserted, err := s.storage.InsertAssignment(s.ctx, &model.Assignment{
		ID:           model.AssignmentID("a_" + rule.ID),
		RuleID:       rule.ID,
		GameID:       rule.GameID,
		PlayerID:     player.ID,
		DeltaApplied: rule.Delta,
		AssignedAt:   s.clock.Now(),
	})
	s.Require().NoError(err)
	s.Require().True(inserted)
}

// Leaderboard tests

func (s *ControllerSuite) TestGetLeaderboardOrdering() {
	s.seedGame([]int{5, 12, 8, 12}, []int{1})

	players, err := s.controller.GetLeaderboard(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Require().Len(players, 4)

	// Score descending, ties broken by creation order: p1 (12, Seq 1)
	// before p3 (12, Seq 3)
	s.Equal("p1", players[0].Username)
	s.Equal("p3", players[1].Username)
	s.Equal("p2", players[2].Username)
	s.Equal("p0", players[3].Username)
}

func (s *ControllerSuite) TestGetLeaderboardGameNotFound() {
	_, err := s.controller.GetLeaderboard(s.ctx, "nonexistent")
	s.ErrorIs(err, model.ErrGameNotFound)
}

// Auto-end policy tests

func (s *ControllerSuite) TestShouldEndGameAllRulesAssigned() {
	_, players, rules := s.seedGame([]int{10, 10}, []int{2, -1})

	shouldEnd, err := s.controller.ShouldEndGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.False(shouldEnd)

	s.assign(rules[0], players[0])
	shouldEnd, err = s.controller.ShouldEndGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.False(shouldEnd)

	s.assign(rules[1], players[1])
	shouldEnd, err = s.controller.ShouldEndGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.True(shouldEnd)
}

func (s *ControllerSuite) TestShouldEndGameScoreThreshold() {
	// Three players at or below zero meets the default threshold
	s.seedGame([]int{0, -2, 0, 5}, []int{1, 1})

	shouldEnd, err := s.controller.ShouldEndGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.True(shouldEnd)
}

func (s *ControllerSuite) TestShouldEndGameScoreThresholdNotMet() {
	// Only two players at or below zero
	s.seedGame([]int{0, -2, 1, 5}, []int{1, 1})

	shouldEnd, err := s.controller.ShouldEndGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.False(shouldEnd)
}

func (s *ControllerSuite) TestShouldEndGameCustomThreshold() {
	controller := NewController(s.storage, s.clock, Config{EndThreshold: 1}, testutil.NopLogger())
	s.seedGame([]int{0, 5, 5}, []int{1})

	shouldEnd, err := controller.ShouldEndGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.True(shouldEnd)
}

// TryAutoEndGame tests

func (s *ControllerSuite) TestTryAutoEndGame() {
	_, players, rules := s.seedGame([]int{10, 16}, []int{2})
	s.assign(rules[0], players[1])

	result, err := s.controller.TryAutoEndGame(s.ctx, "game-1")
	s.Require().NoError(err)

	s.Equal(model.GameStatusEnded, result.Game.Status)
	s.Equal(model.PlayerID("p_p1"), result.Winner.ID)
	s.Equal(result.Winner.ID, result.Game.WinnerPlayerID)
	s.Require().Len(result.Leaderboard, 2)
	s.Equal(result.Winner.ID, result.Leaderboard[0].ID)

	game, _ := s.storage.GetGame(s.ctx, "game-1")
	s.Equal(model.GameStatusEnded, game.Status)
	s.Equal(model.PlayerID("p_p1"), game.WinnerPlayerID)
}

func (s *ControllerSuite) TestTryAutoEndGameConditionsNotMet() {
	s.seedGame([]int{10, 16}, []int{2})

	_, err := s.controller.TryAutoEndGame(s.ctx, "game-1")
	s.ErrorIs(err, model.ErrEndConditionsNotMet)

	game, _ := s.storage.GetGame(s.ctx, "game-1")
	s.Equal(model.GameStatusStarted, game.Status)
}

func (s *ControllerSuite) TestTryAutoEndGameIdempotent() {
	_, players, rules := s.seedGame([]int{10, 16}, []int{2})
	s.assign(rules[0], players[1])

	first, err := s.controller.TryAutoEndGame(s.ctx, "game-1")
	s.Require().NoError(err)

	// A second call succeeds and reports the same winner without
	// recomputation
	second, err := s.controller.TryAutoEndGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(first.Winner.ID, second.Winner.ID)
	s.Equal(first.Game.WinnerPlayerID, second.Game.WinnerPlayerID)
}

func (s *ControllerSuite) TestTryAutoEndGameNeverRecomputesWinner() {
	_, players, rules := s.seedGame([]int{10, 16}, []int{2, 20})
	s.assign(rules[0], players[1])

	// Condition B via a custom threshold would not fire here; end via
	// manual path to record p1 as winner, then shift the standings
	result, err := s.controller.EndGame(s.ctx, "game-1", "p_p0")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p_p1"), result.Winner.ID)

	// p0 overtakes on points after the fact (storage-level write to
	// simulate a claim landing late)
	p0, inserted, err := s.storage.InsertAssignment(s.ctx, &model.Assignment{
		ID: "a_late", RuleID: rules[1].ID, GameID: "game-1", PlayerID: "p_p0", DeltaApplied: 20,
	})
	s.Require().NoError(err)
	s.Require().True(inserted)
	s.Greater(p0.Score, 16)

	// The recorded winner stands
	again, err := s.controller.TryAutoEndGame(s.ctx, "game-1")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p_p1"), again.Game.WinnerPlayerID)
	s.Equal(model.PlayerID("p_p1"), again.Winner.ID)
}

// EndGame tests

func (s *ControllerSuite) TestEndGame() {
	s.seedGame([]int{10, 16, 4}, []int{2})

	result, err := s.controller.EndGame(s.ctx, "game-1", "p_p0")
	s.Require().NoError(err)

	s.Equal(model.GameStatusEnded, result.Game.Status)
	s.Equal(model.PlayerID("p_p1"), result.Winner.ID)
	s.Require().Len(result.Leaderboard, 3)
	s.Equal("p1", result.Leaderboard[0].Username)
	s.Equal("p0", result.Leaderboard[1].Username)
	s.Equal("p2", result.Leaderboard[2].Username)
}

func (s *ControllerSuite) TestEndGameTieBreakByCreationOrder() {
	// p0 and p2 tie on top; p0 was created first and wins
	s.seedGame([]int{12, 8, 12}, []int{2})

	result, err := s.controller.EndGame(s.ctx, "game-1", "p_p0")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p_p0"), result.Winner.ID)
}

func (s *ControllerSuite) TestEndGameWinnerMatchesLeaderboardHead() {
	s.seedGame([]int{3, 9, 9, 1}, []int{2})

	result, err := s.controller.EndGame(s.ctx, "game-1", "p_p0")
	s.Require().NoError(err)
	s.Equal(result.Leaderboard[0].ID, result.Winner.ID)
}

func (s *ControllerSuite) TestEndGameNotCreator() {
	s.seedGame([]int{10, 16}, []int{2})

	_, err := s.controller.EndGame(s.ctx, "game-1", "p_p1")
	s.ErrorIs(err, model.ErrNotCreator)

	game, _ := s.storage.GetGame(s.ctx, "game-1")
	s.Equal(model.GameStatusStarted, game.Status)
}

func (s *ControllerSuite) TestEndGameAlreadyEnded() {
	s.seedGame([]int{10, 16}, []int{2})

	_, err := s.controller.EndGame(s.ctx, "game-1", "p_p0")
	s.Require().NoError(err)

	_, err = s.controller.EndGame(s.ctx, "game-1", "p_p0")
	s.ErrorIs(err, model.ErrGameEnded)
}

func (s *ControllerSuite) TestEndGameNotFound() {
	_, err := s.controller.EndGame(s.ctx, "nonexistent", "p_p0")
	s.ErrorIs(err, model.ErrGameNotFound)
}

func (s *ControllerSuite) TestEndGameNegativeScoresStillRanked() {
	// Everyone below zero; the least negative score wins
	s.seedGame([]int{-5, -2, -9}, []int{1})

	result, err := s.controller.EndGame(s.ctx, "game-1", "p_p0")
	s.Require().NoError(err)
	s.Equal(model.PlayerID("p_p1"), result.Winner.ID)
	s.Equal(-2, result.Winner.Score)
}
