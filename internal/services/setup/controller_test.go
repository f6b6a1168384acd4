package setup

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/rvianello/bonusmalus/internal/dependencies/mocks"
	"github.com/rvianello/bonusmalus/internal/dependencies/random"
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
	s.controller = NewController(s.storage, s.clock, random.New(), testutil.NopLogger())
	s.ctx = context.Background()
}

func (s *ControllerSuite) validSpecs() ([]PlayerSpec, []RuleSpec) {
	players := []PlayerSpec{
		{Username: "alice", IsCreator: true},
		{Username: "bob"},
		{Username: "carol"},
	}
	rules := []RuleSpec{
		{Name: "Won the pub quiz", Kind: model.RuleKindBonus, Delta: 3},
		{Name: "Late to dinner", Kind: model.RuleKindMalus, Delta: -2},
	}
	return players, rules
}

func (s *ControllerSuite) TestCreateGame() {
	players, rules := s.validSpecs()

	result, err := s.controller.CreateGame(s.ctx, "Friday Night", 10, players, rules)
	s.Require().NoError(err)

	s.Equal("Friday Night", result.Game.Name)
	s.Equal(model.GameStatusStarted, result.Game.Status)
	s.Equal(10, result.Game.InitialScore)
	s.NotEmpty(result.Game.ID)
	s.NotEmpty(result.Game.CreatorPlayerID)

	// Everything persisted in one commit
	game, err := s.storage.GetGame(s.ctx, result.Game.ID)
	s.Require().NoError(err)
	s.Equal(model.GameStatusStarted, game.Status)

	stored, err := s.storage.GetPlayersForGame(s.ctx, result.Game.ID)
	s.Require().NoError(err)
	s.Require().Len(stored, 3)
	for i, p := range stored {
		s.Equal(i, p.Seq)
		s.Equal(10, p.Score)
	}
	s.Equal("alice", stored[0].Username)
	s.True(stored[0].IsCreator)
	s.Equal(stored[0].ID, game.CreatorPlayerID)

	storedRules, err := s.storage.GetRulesForGame(s.ctx, result.Game.ID)
	s.Require().NoError(err)
	s.Len(storedRules, 2)
}

func (s *ControllerSuite) TestCreateGameCredentials() {
	players, rules := s.validSpecs()

	result, err := s.controller.CreateGame(s.ctx, "Friday Night", 10, players, rules)
	s.Require().NoError(err)
	s.Require().Len(result.Credentials, 3)

	for _, cred := range result.Credentials {
		s.Len(cred.AccessCode, AccessCodeLength)

		// Only the hash is persisted, and it matches the plaintext
		player, err := s.storage.GetPlayer(s.ctx, cred.PlayerID)
		s.Require().NoError(err)
		s.NotEqual(cred.AccessCode, player.AccessCodeHash)
		s.NoError(bcrypt.CompareHashAndPassword([]byte(player.AccessCodeHash), []byte(cred.AccessCode)))
	}
}

func (s *ControllerSuite) TestCreateGameNameRequired() {
	players, rules := s.validSpecs()
	_, err := s.controller.CreateGame(s.ctx, "", 10, players, rules)
	s.ErrorIs(err, model.ErrGameNameRequired)
}

func (s *ControllerSuite) TestCreateGamePlayersRequired() {
	_, rules := s.validSpecs()
	_, err := s.controller.CreateGame(s.ctx, "Friday Night", 10, nil, rules)
	s.ErrorIs(err, model.ErrPlayersRequired)
}

func (s *ControllerSuite) TestCreateGameRulesRequired() {
	players, _ := s.validSpecs()
	_, err := s.controller.CreateGame(s.ctx, "Friday Night", 10, players, nil)
	s.ErrorIs(err, model.ErrRulesRequired)
}

func (s *ControllerSuite) TestCreateGameUsernameRequired() {
	players, rules := s.validSpecs()
	players[1].Username = ""
	_, err := s.controller.CreateGame(s.ctx, "Friday Night", 10, players, rules)
	s.ErrorIs(err, model.ErrUsernameRequired)
}

func (s *ControllerSuite) TestCreateGameDuplicateUsername() {
	players, rules := s.validSpecs()
	players[2].Username = "bob"
	_, err := s.controller.CreateGame(s.ctx, "Friday Night", 10, players, rules)
	s.ErrorIs(err, model.ErrDuplicatePlayerCredentials)
}

func (s *ControllerSuite) TestCreateGameNoCreator() {
	players, rules := s.validSpecs()
	players[0].IsCreator = false
	_, err := s.controller.CreateGame(s.ctx, "Friday Night", 10, players, rules)
	s.ErrorIs(err, model.ErrExactlyOneCreator)
}

func (s *ControllerSuite) TestCreateGameMultipleCreators() {
	players, rules := s.validSpecs()
	players[1].IsCreator = true
	_, err := s.controller.CreateGame(s.ctx, "Friday Night", 10, players, rules)
	s.ErrorIs(err, model.ErrExactlyOneCreator)
}

func (s *ControllerSuite) TestCreateGameRuleNameRequired() {
	players, rules := s.validSpecs()
	rules[0].Name = ""
	_, err := s.controller.CreateGame(s.ctx, "Friday Night", 10, players, rules)
	s.ErrorIs(err, model.ErrRuleNameRequired)
}

func (s *ControllerSuite) TestCreateGameDuplicateRuleName() {
	players, rules := s.validSpecs()
	rules[1].Name = rules[0].Name
	_, err := s.controller.CreateGame(s.ctx, "Friday Night", 10, players, rules)
	s.ErrorIs(err, model.ErrDuplicateRuleName)
}

func (s *ControllerSuite) TestCreateGameInvalidDelta() {
	players, rules := s.validSpecs()

	// Bonus with negative delta
	rules[0].Delta = -3
	_, err := s.controller.CreateGame(s.ctx, "Friday Night", 10, players, rules)
	s.ErrorIs(err, model.ErrInvalidRuleDelta)

	// Malus with positive delta
	_, freshRules := s.validSpecs()
	freshRules[1].Delta = 2
	_, err = s.controller.CreateGame(s.ctx, "Friday Night", 10, players, freshRules)
	s.ErrorIs(err, model.ErrInvalidRuleDelta)

	// Zero is never valid
	_, zeroRules := s.validSpecs()
	zeroRules[0].Delta = 0
	_, err = s.controller.CreateGame(s.ctx, "Friday Night", 10, players, zeroRules)
	s.ErrorIs(err, model.ErrInvalidRuleDelta)
}

func (s *ControllerSuite) TestCreateGameInvalidRuleKind() {
	players, rules := s.validSpecs()
	rules[0].Kind = "neutral"
	_, err := s.controller.CreateGame(s.ctx, "Friday Night", 10, players, rules)
	s.ErrorIs(err, model.ErrInvalidRuleKind)
}

func (s *ControllerSuite) TestCreateGameValidationWritesNothing() {
	players, rules := s.validSpecs()
	rules[1].Name = rules[0].Name

	_, err := s.controller.CreateGame(s.ctx, "Friday Night", 10, players, rules)
	s.Require().Error(err)

	// Validation failed before any write, so identical specs succeed
	// afterwards with fresh names
	goodPlayers, goodRules := s.validSpecs()
	_, err = s.controller.CreateGame(s.ctx, "Friday Night", 10, goodPlayers, goodRules)
	s.Require().NoError(err)
}

func (s *ControllerSuite) TestCreateGameZeroInitialScore() {
	players, rules := s.validSpecs()

	result, err := s.controller.CreateGame(s.ctx, "Sudden Death", 0, players, rules)
	s.Require().NoError(err)

	stored, _ := s.storage.GetPlayersForGame(s.ctx, result.Game.ID)
	for _, p := range stored {
		s.Equal(0, p.Score)
	}
}
