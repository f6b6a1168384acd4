package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newRulesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rules",
		Short: "Rule management commands",
	}

	cmd.AddCommand(newRulesListCmd())
	cmd.AddCommand(newRulesCreateCmd())
	cmd.AddCommand(newRulesUpdateCmd())
	cmd.AddCommand(newRulesDeleteCmd())
	cmd.AddCommand(newRulesClaimCmd())

	return cmd
}

func newRulesListCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "list <game_id>",
		Short: "List the game's rules",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID := args[0]

			var result RulesResult

			if err := client.Get(fmt.Sprintf("/api/v1/games/%s/rules", gameID), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}

func newRulesCreateCmd() *cobra.Command {
	var name, kind string
	var delta int

	cmd := &cobra.Command{
		Use:   "create <game_id>",
		Short: "Add a rule to the game (creator only)",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID := args[0]

			req := map[string]any{
				"name":  name,
				"kind":  kind,
				"delta": delta,
			}
			var result Rule

			if err := client.Post(fmt.Sprintf("/api/v1/games/%s/rules", gameID), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "Rule name (required)")
	cmd.Flags().StringVar(&kind, "kind", "", "Rule kind: bonus or malus (required)")
	cmd.Flags().IntVar(&delta, "delta", 0, "Score delta, positive for bonus, negative for malus (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("delta")

	return cmd
}

func newRulesUpdateCmd() *cobra.Command {
	var name, kind string
	var delta int

	cmd := &cobra.Command{
		Use:   "update <game_id> <rule_id>",
		Short: "Edit an unclaimed rule (creator only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID := args[0]
			ruleID := args[1]

			req := map[string]any{
				"name":  name,
				"kind":  kind,
				"delta": delta,
			}
			var result Rule

			if err := client.Patch(fmt.Sprintf("/api/v1/games/%s/rules/%s", gameID, ruleID), req, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "New rule name (required)")
	cmd.Flags().StringVar(&kind, "kind", "", "New rule kind: bonus or malus (required)")
	cmd.Flags().IntVar(&delta, "delta", 0, "New score delta (required)")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("kind")
	_ = cmd.MarkFlagRequired("delta")

	return cmd
}

func newRulesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <game_id> <rule_id>",
		Short: "Delete an unclaimed rule (creator only)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID := args[0]
			ruleID := args[1]

			if err := client.Delete(fmt.Sprintf("/api/v1/games/%s/rules/%s", gameID, ruleID)); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.PrintMessage("Rule deleted")
			return nil
		},
	}
}

func newRulesClaimCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "claim <game_id> <rule_id>",
		Short: "Claim a rule and apply its delta to your score",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID := args[0]
			ruleID := args[1]

			var result ClaimResult

			if err := client.Post(fmt.Sprintf("/api/v1/games/%s/rules/%s/claim", gameID, ruleID), nil, &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
