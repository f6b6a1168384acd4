package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newPlayerCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "player",
		Short: "Player commands",
	}

	cmd.AddCommand(newPlayerLoginCmd())
	cmd.AddCommand(newPlayerMeCmd())

	return cmd
}

func newPlayerLoginCmd() *cobra.Command {
	var user, code string

	cmd := &cobra.Command{
		Use:   "login <game_id>",
		Short: "Log in to a game with your access code",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID := args[0]

			req := map[string]string{
				"username":    user,
				"access_code": code,
			}
			var result AuthResult

			if err := client.Post(fmt.Sprintf("/api/v1/games/%s/login", gameID), req, &result); err != nil {
				return err
			}

			// Save token
			if err := cfg.SaveToken(result.SessionToken); err != nil {
				return fmt.Errorf("failed to save token: %w", err)
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}

	cmd.Flags().StringVar(&user, "user", "", "Username (required)")
	cmd.Flags().StringVar(&code, "code", "", "Access code (required)")
	_ = cmd.MarkFlagRequired("user")
	_ = cmd.MarkFlagRequired("code")

	return cmd
}

func newPlayerMeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "me <game_id>",
		Short: "Show your player info in a game",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			gameID := args[0]

			var result Player

			if err := client.Get(fmt.Sprintf("/api/v1/games/%s/me", gameID), &result); err != nil {
				return err
			}

			out := NewOutput(cfg.Output)
			out.Print(result)
			return nil
		},
	}
}
