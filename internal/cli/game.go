package cli

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
)

func newGameCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "game",
		Short: "Game commands",
	}

	cmd.AddCommand(newGameCreateCmd())
	cmd.AddCommand(newGameGetCmd())
	cmd.AddCommand(newGameLeaderboardCmd())
	cmd.AddCommand(newGameEndCmd())

	return cmd
}

func newGameCreateCmd() *cobra.Command {
	var name string
	var initialScore int
	var creator string
	var players []string
	var rules []string

	cmd := &cobra.Command{
		Use:   "create",
		Short: "Create a new game with its players and rules",
		Long: `Create a new game.

Rules are given as name:kind:delta, e.g. "Late to dinner:malus:-2".
The creator is named via --creator; all other participants via repeated --player.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			playerSpecs := []map[string]any{
				{"username": creator, "is_creator": true},
			}
			for _, p := range players {
				playerSpecs = append(playerSpecs, map[string]any{"username": p, "is_creator": false})
			}

			ruleSpecs := make([]map[string]any, 0, len(rules))
			for _, r := range rules {
				spec, err := parseRuleSpec(r)
				if err != nil {
					return err
				}
				ruleSpecs = append(ruleSpecs, spec)
			}

			req := map[string]any{
				"name":          name,
				"initial_score": initialScore,
				"players":       playerSpecs,
				"rules":         ruleSpecs,
			}
			var result CreateGameResult

			if err := client.Post("/api/v1/games", req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Game name (required)")
	cmd.Flags().IntVar(&initialScore, "initial-score", 10, "Starting score for every player")
	cmd.Flags().StringVar(&creator, "creator", "", "Username of the game creator (required)")
	cmd.Flags().StringArrayVar(&players, "player", nil, "Username of a participant (repeatable)")
	cmd.Flags().StringArrayVar(&rules, "rule", nil, "Rule as name:kind:delta (repeatable)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("creator")

	return cmd
}

func newGameGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <game_id>",
		Short: "Get game status",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID := args[0]

			var result Game

			if err := client.Get(fmt.Sprintf("/api/v1/games/%s", gameID), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameLeaderboardCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "leaderboard <game_id>",
		Short: "Show the current standings",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID := args[0]

			var result LeaderboardResult

			if err := client.Get(fmt.Sprintf("/api/v1/games/%s/leaderboard", gameID), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newGameEndCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "end <game_id>",
		Short: "End the game and declare the winner (creator only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID := args[0]

			var result EndGameResult

			if err := client.Post(fmt.Sprintf("/api/v1/games/%s/end", gameID), nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

// parseRuleSpec parses a name:kind:delta rule flag value
func parseRuleSpec(s string) (map[string]any, error) {
	// The name may itself contain colons, so split from the right
	idx := strings.LastIndex(s, ":")
	if idx < 0 {
		return nil, fmt.Errorf("invalid rule %q: expected name:kind:delta", s)
	}
	delta, err := strconv.Atoi(s[idx+1:])
	if err != nil {
		return nil, fmt.Errorf("invalid rule %q: delta must be an integer", s)
	}

	rest := s[:idx]
	idx = strings.LastIndex(rest, ":")
	if idx < 0 {
		return nil, fmt.Errorf("invalid rule %q: expected name:kind:delta", s)
	}
	kind := rest[idx+1:]
	name := rest[:idx]

	if kind != "bonus" && kind != "malus" {
		return nil, fmt.Errorf("invalid rule %q: kind must be bonus or malus", s)
	}

	return map[string]any{"name": name, "kind": kind, "delta": delta}, nil
}
