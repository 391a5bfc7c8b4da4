package main

import (
	"fmt"
	"testlab/config"
	"testlab/internal/auth"

	"github.com/spf13/cobra"
)

var tokenCmd = &cobra.Command{
	Use:   "token <principal>",
	Short: "Issue a bearer token signed with the configured secret",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.InitConfig()
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		issued, err := auth.NewTokenService(cfg).Issue(args[0])
		if err != nil {
			return err
		}
		fmt.Println(issued)
		return nil
	},
}
