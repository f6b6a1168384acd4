package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"
)

// Output handles formatting output based on the configured format
type Output struct {
	format string
}

// NewOutput creates a new Output formatter
func NewOutput(format string) *Output {
	return &Output{format: format}
}

// Print outputs data in the configured format
func (o *Output) Print(data any) {
	if o.format == "json" {
		o.printJSON(data)
	} else {
		o.printText(data)
	}
}

// PrintError outputs an error
func (o *Output) PrintError(err error) {
	if o.format == "json" {
		errData := map[string]any{
			"error": map[string]string{
				"message": err.Error(),
			},
		}
		data, _ := json.Marshal(errData)
		fmt.Fprintln(os.Stderr, string(data))
	} else {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
	}
}

// PrintMessage outputs a simple message
func (o *Output) PrintMessage(msg string) {
	if o.format == "json" {
		data, _ := json.Marshal(map[string]string{"message": msg})
		fmt.Println(string(data))
	} else {
		fmt.Println(msg)
	}
}

func (o *Output) printJSON(data any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(data)
}

func (o *Output) printText(data any) {
	switch v := data.(type) {
	case Player:
		o.printPlayer(v)
	case AuthResult:
		o.printAuthResult(v)
	case CreateGameResult:
		o.printCreateGameResult(v)
	case Game:
		o.printGame(v)
	case Rule:
		o.printRule(v)
	case RulesResult:
		o.printRulesResult(v)
	case ClaimResult:
		o.printClaimResult(v)
	case LeaderboardResult:
		o.printLeaderboardResult(v)
	case EndGameResult:
		o.printEndGameResult(v)
	case HealthResult:
		o.printHealthResult(v)
	default:
		// Fallback to JSON for unknown types
		o.printJSON(data)
	}
}

// Player response type (matches API)
type Player struct {
	ID        string `json:"id"`
	Username  string `json:"username"`
	IsCreator bool   `json:"is_creator"`
	Score     int    `json:"score"`
}

// PlayerCredential carries a freshly generated access code
type PlayerCredential struct {
	PlayerID   string `json:"player_id"`
	Username   string `json:"username"`
	AccessCode string `json:"access_code"`
	IsCreator  bool   `json:"is_creator"`
}

// CreateGameResult response type
type CreateGameResult struct {
	GameID      string             `json:"game_id"`
	Name        string             `json:"name"`
	Status      string             `json:"status"`
	Credentials []PlayerCredential `json:"credentials"`
}

// AuthResult combines player and token
type AuthResult struct {
	Player       Player `json:"player"`
	SessionToken string `json:"session_token"`
}

// Game response type
type Game struct {
	ID             string  `json:"id"`
	Name           string  `json:"name"`
	InitialScore   int     `json:"initial_score"`
	Status         string  `json:"status"`
	WinnerPlayerID *string `json:"winner_player_id"`
}

// Rule response type
type Rule struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Kind  string `json:"kind"`
	Delta int    `json:"delta"`
}

// RulesResult response type
type RulesResult struct {
	Rules []Rule `json:"rules"`
}

// Assignment response type
type Assignment struct {
	ID           string    `json:"id"`
	RuleID       string    `json:"rule_id"`
	PlayerID     string    `json:"player_id"`
	DeltaApplied int       `json:"delta_applied"`
	AssignedAt   time.Time `json:"assigned_at"`
}

// ClaimResult response type
type ClaimResult struct {
	Assignment Assignment `json:"assignment"`
	Player     Player     `json:"player"`
	GameEnded  bool       `json:"game_ended"`
}

// LeaderboardResult response type
type LeaderboardResult struct {
	Players []Player `json:"players"`
}

// EndGameResult response type
type EndGameResult struct {
	Game        Game     `json:"game"`
	Winner      *Player  `json:"winner"`
	Leaderboard []Player `json:"leaderboard"`
}

// HealthResult response type
type HealthResult struct {
	Status string `json:"status"`
}

func (o *Output) printPlayer(p Player) {
	creatorStr := ""
	if p.IsCreator {
		creatorStr = " [creator]"
	}
	fmt.Printf("Player: %s (%s)%s\n", p.Username, p.ID, creatorStr)
	fmt.Printf("Score: %d\n", p.Score)
}

func (o *Output) printAuthResult(a AuthResult) {
	o.printPlayer(a.Player)
	fmt.Printf("Token: %s\n", a.SessionToken)
}

func (o *Output) printCreateGameResult(r CreateGameResult) {
	fmt.Printf("Game: %s (%s)\n", r.Name, r.GameID)
	fmt.Printf("Status: %s\n", r.Status)
	fmt.Printf("Credentials (%d):\n", len(r.Credentials))
	for _, c := range r.Credentials {
		creatorStr := ""
		if c.IsCreator {
			creatorStr = " [creator]"
		}
		fmt.Printf("  - %s%s: access code %s\n", c.Username, creatorStr, c.AccessCode)
	}
}

func (o *Output) printGame(g Game) {
	fmt.Printf("Game: %s (%s)\n", g.Name, g.ID)
	fmt.Printf("Status: %s\n", g.Status)
	fmt.Printf("Initial Score: %d\n", g.InitialScore)
	if g.WinnerPlayerID != nil {
		fmt.Printf("Winner: %s\n", *g.WinnerPlayerID)
	}
}

func (o *Output) printRule(r Rule) {
	fmt.Printf("Rule: %s (%s)\n", r.Name, r.ID)
	fmt.Printf("Kind: %s\n", r.Kind)
	fmt.Printf("Delta: %+d\n", r.Delta)
}

func (o *Output) printRulesResult(r RulesResult) {
	fmt.Printf("Rules (%d):\n", len(r.Rules))
	for _, rule := range r.Rules {
		fmt.Printf("  - %s (%s): %s %+d\n", rule.Name, rule.ID, rule.Kind, rule.Delta)
	}
}

func (o *Output) printClaimResult(c ClaimResult) {
	fmt.Printf("Rule %s claimed by %s\n", c.Assignment.RuleID, c.Player.Username)
	fmt.Printf("Delta applied: %+d\n", c.Assignment.DeltaApplied)
	fmt.Printf("New score: %d\n", c.Player.Score)
	if c.GameEnded {
		fmt.Println("Game ended!")
	}
}

func (o *Output) printLeaderboardResult(l LeaderboardResult) {
	fmt.Printf("Leaderboard (%d):\n", len(l.Players))
	for i, p := range l.Players {
		creatorStr := ""
		if p.IsCreator {
			creatorStr = " [creator]"
		}
		fmt.Printf("  %d. %s%s: %d\n", i+1, p.Username, creatorStr, p.Score)
	}
}

func (o *Output) printEndGameResult(e EndGameResult) {
	o.printGame(e.Game)
	if e.Winner != nil {
		fmt.Printf("\nWinner: %s (%d points)\n", e.Winner.Username, e.Winner.Score)
	}
	fmt.Println("\nFinal Standings:")
	for i, p := range e.Leaderboard {
		fmt.Printf("  %d. %s: %d\n", i+1, p.Username, p.Score)
	}
}

func (o *Output) printHealthResult(h HealthResult) {
	fmt.Printf("Status: %s\n", h.Status)
}
