package main

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/notionmux/notionmux/internal/config"
	"github.com/notionmux/notionmux/internal/logging"
	"github.com/notionmux/notionmux/internal/serveradapter"
)

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the stdio MCP server",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func runServe(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logging.SetLevel(cfg.Debug)

	local, err := buildLocalBackend(cfg)
	if err != nil {
		return err
	}
	remote := buildRemoteBackend(cfg)

	r := buildRouter(cfg, local, remote)
	if err := r.Start(ctx); err != nil {
		log.Warn("router did not reach a usable state at startup", "err", err, "state", r.State().String())
	} else {
		log.Info("router started", "state", r.State().String())
	}

	adapter := serveradapter.New(r, local, remote)
	return adapter.Serve(ctx)
}
