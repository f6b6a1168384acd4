package response

import (
	"time"

	"github.com/rvianello/bonusmalus/internal/model"
	"github.com/rvianello/bonusmalus/internal/services/auth"
	"github.com/rvianello/bonusmalus/internal/services/setup"
)

// Player represents a player in API responses
type Player struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	IsCreator bool   `json:"is_creator"`
	Score     int    `json:"score"`
}

// PlayerFromModel converts a model.Player to a response Player
func PlayerFromModel(p *model.Player) Player {
	return Player{
		ID:        string(p.ID),
		Username:  p.Username,
		IsCreator: p.IsCreator,
		Score:     p.Score,
	}
}

// PlayerCredential carries a generated plaintext access code; it only
// ever appears in the creation response
type PlayerCredential struct {
	PlayerID   string `json:"player_id"`
	Username   string `json:"username"`
	AccessCode string `json:"access_code"`
	IsCreator  bool   `json:"is_creator"`
}

// CreateGameResponse is the response for game creation
type CreateGameResponse struct {
	GameID      string             `json:"game_id"`
	Name        string             `json:"name"`
	Status      string             `json:"status"`
	Credentials []PlayerCredential `json:"credentials"`
}

// CreateGameResponseFromResult converts a setup.CreateGameResult
func CreateGameResponseFromResult(r *setup.CreateGameResult) CreateGameResponse {
	creds := make([]PlayerCredential, len(r.Credentials))
	for i, c := range r.Credentials {
		creds[i] = PlayerCredential{
			PlayerID:   string(c.PlayerID),
			Username:   c.Username,
			AccessCode: c.AccessCode,
			IsCreator:  c.IsCreator,
		}
	}
	return CreateGameResponse{
		GameID:      string(r.Game.ID),
		Name:        r.Game.Name,
		Status:      string(r.Game.Status),
		Credentials: creds,
	}
}

// AuthResponse is the response for the login endpoint
type AuthResponse struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// AuthResponseFromSession creates an AuthResponse from a session
func AuthResponseFromSession(s *auth.Session) AuthResponse {
	return AuthResponse{
		Player:       PlayerFromModel(&s.Player),
		SessionToken: s.Token,
	}
}

// Game represents game status in API responses
type Game struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	InitialScore   int     `json:"initial_score"`
	Status         string  `json:"status"`
	WinnerPlayerID *string `json:"winner_player_id"`
}

// GameFromModel converts model.Game
func GameFromModel(g *model.Game) Game {
	var winner *string
	if g.WinnerPlayerID != "" {
		w := string(g.WinnerPlayerID)
		winner = &w
	}
	return Game{
		ID:             string(g.ID),
		Name:           g.Name,
		InitialScore:   g.InitialScore,
		Status:         string(g.Status),
		WinnerPlayerID: winner,
	}
}

// Rule represents a rule in API responses
type Rule struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Delta int    `json:"delta"`
}

// RuleFromModel converts model.Rule
func RuleFromModel(r *model.Rule) Rule {
	return Rule{
		ID:    string(r.ID),
		Name:  r.Name,
		Kind:  string(r.Kind),
		Delta: r.Delta,
	}
}

// RulesResponse lists a game's rules
type RulesResponse struct {
	Rules []Rule `json:"rules"`
}

// RulesFromModel converts a rule slice
func RulesFromModel(rules []*model.Rule) RulesResponse {
	out := make([]Rule, len(rules))
	for i, r := range rules {
		out[i] = RuleFromModel(r)
	}
	return RulesResponse{Rules: out}
}

// Assignment represents a recorded claim
type Assignment struct {
	ID           string    `json:"id"`
	RuleID       string    `json:"rule_id"`
	PlayerID     string    `json:"player_id"`
	DeltaApplied int       `json:"delta_applied"`
	AssignedAt   time.Time `json:"assigned_at"`
}

// AssignmentFromModel converts model.Assignment
func AssignmentFromModel(a *model.Assignment) Assignment {
	return Assignment{
		ID:           string(a.ID),
		RuleID:       string(a.RuleID),
		PlayerID:     string(a.PlayerID),
		DeltaApplied: a.DeltaApplied,
		AssignedAt:   a.AssignedAt,
	}
}

// ClaimResponse is the response after a successful claim
type ClaimResponse struct {
	Assignment Assignment `json:"assignment"`
	Player     Player     `json:"player"`
	// GameEnded reports whether this claim triggered the auto-end policy
	GameEnded bool `json:"game_ended"`
}

// LeaderboardResponse lists players in canonical standing order
type LeaderboardResponse struct {
	Players []Player `json:"players"`
}

// LeaderboardFromModel converts an ordered player slice
func LeaderboardFromModel(players []*model.Player) LeaderboardResponse {
	out := make([]Player, len(players))
	for i, p := range players {
		out[i] = PlayerFromModel(p)
	}
	return LeaderboardResponse{Players: out}
}

// EndGameResponse is the response after a game ends
type EndGameResponse struct {
	Game        Game     `json:"game"`
	Winner      *Player  `json:"winner"`
	Leaderboard []Player `json:"leaderboard"`
}
