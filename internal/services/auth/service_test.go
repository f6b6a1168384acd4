package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/suite"
	"golang.org/x/crypto/bcrypt"

	"github.com/rvianello/bonusmalus/internal/dependencies/mocks"
	"github.com/rvianello/bonusmalus/internal/model"
	"github.com/rvianello/bonusmalus/internal/storage/memory"
	"github.com/rvianello/bonusmalus/internal/testutil"
)

type ServiceSuite struct {
	suite.Suite
	storage *memory.Storage
	clock   *mocks.MockClock
	service *Service
	ctx     context.Context
}

func TestServiceSuite(t *testing.T) {
	suite.Run(t, new(ServiceSuite))
}

func (s *ServiceSuite) SetupTest() {
	s.storage = memory.New()
	s.clock = mocks.NewMockClock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	s.service = New(s.storage, s.clock, DefaultConfig(), testutil.NopLogger())
	s.ctx = context.Background()

	hash, err := bcrypt.GenerateFromPassword([]byte("SECRET42"), bcrypt.MinCost)
	s.Require().NoError(err)

	game := &model.Game{ID: "game-1", Status: model.GameStatusStarted, CreatorPlayerID: "p_alice"}
	players := []*model.Player{
		{ID: "p_alice", GameID: "game-1", Username: "alice", AccessCodeHash: string(hash), IsCreator: true, Seq: 0, Score: 10},
	}
	s.Require().NoError(s.storage.CreateGameSetup(s.ctx, game, players, nil))
}

func (s *ServiceSuite) TestLogin() {
	session, err := s.service.Login(s.ctx, "game-1", "alice", "SECRET42")
	s.Require().NoError(err)

	s.NotEmpty(session.Token)
	s.Equal(model.PlayerID("p_alice"), session.PlayerID)
	s.Equal(model.GameID("game-1"), session.GameID)
	s.Equal("alice", session.Player.Username)
	s.Equal(s.clock.Now().Add(24*time.Hour), session.ExpiresAt)
}

func (s *ServiceSuite) TestLoginWrongAccessCode() {
	_, err := s.service.Login(s.ctx, "game-1", "alice", "WRONG")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginUnknownUsername() {
	_, err := s.service.Login(s.ctx, "game-1", "mallory", "SECRET42")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestLoginWrongGame() {
	// Valid credentials, but scoped to another game
	_, err := s.service.Login(s.ctx, "game-2", "alice", "SECRET42")
	s.ErrorIs(err, ErrInvalidCredentials)
}

func (s *ServiceSuite) TestValidateSession() {
	session, err := s.service.Login(s.ctx, "game-1", "alice", "SECRET42")
	s.Require().NoError(err)

	validated, err := s.service.ValidateSession(session.Token)
	s.Require().NoError(err)
	s.Equal(session.PlayerID, validated.PlayerID)
	s.Equal(session.GameID, validated.GameID)
}

func (s *ServiceSuite) TestValidateSessionUnknownToken() {
	_, err := s.service.ValidateSession("sess_bogus")
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestValidateSessionExpired() {
	session, err := s.service.Login(s.ctx, "game-1", "alice", "SECRET42")
	s.Require().NoError(err)

	s.clock.Advance(25 * time.Hour)

	_, err = s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestInvalidateSession() {
	session, err := s.service.Login(s.ctx, "game-1", "alice", "SECRET42")
	s.Require().NoError(err)

	s.service.InvalidateSession(session.Token)

	_, err = s.service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}

func (s *ServiceSuite) TestCleanExpiredSessions() {
	old, err := s.service.Login(s.ctx, "game-1", "alice", "SECRET42")
	s.Require().NoError(err)

	s.clock.Advance(25 * time.Hour)
	fresh, err := s.service.Login(s.ctx, "game-1", "alice", "SECRET42")
	s.Require().NoError(err)

	s.service.CleanExpiredSessions()

	_, err = s.service.ValidateSession(old.Token)
	s.ErrorIs(err, ErrInvalidSession)

	_, err = s.service.ValidateSession(fresh.Token)
	s.Require().NoError(err)
}

func (s *ServiceSuite) TestSessionDurationConfigurable() {
	service := New(s.storage, s.clock, Config{SessionDuration: time.Minute}, testutil.NopLogger())

	session, err := service.Login(s.ctx, "game-1", "alice", "SECRET42")
	s.Require().NoError(err)
	s.Equal(s.clock.Now().Add(time.Minute), session.ExpiresAt)

	s.clock.Advance(2 * time.Minute)
	_, err = service.ValidateSession(session.Token)
	s.ErrorIs(err, ErrInvalidSession)
}
