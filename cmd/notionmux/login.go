package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/notionmux/notionmux/internal/config"
)

func newLoginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Launch the remote backend once to complete its OAuth flow",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runLogin(cmd.Context())
		},
	}
}

// runLogin just brings the subprocess up; the browser-based OAuth exchange
// itself happens inside the subprocess launcher, not here.
func runLogin(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	remote := buildRemoteBackend(cfg)
	if err := remote.Connect(ctx); err != nil {
		return fmt.Errorf("login failed: %w", err)
	}
	defer remote.Close()
	fmt.Println("login succeeded")
	return nil
}
