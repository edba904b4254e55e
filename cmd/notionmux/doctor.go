package main

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/notionmux/notionmux/internal/config"
)

func newDoctorCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check configuration and backend reachability",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runDoctor(cmd.Context())
		},
	}
}

func runDoctor(ctx context.Context) error {
	cfg, err := config.Load()
	if err != nil {
		fmt.Printf("config: FAIL (%v)\n", err)
		return err
	}
	fmt.Println("config: OK")

	local, err := buildLocalBackend(cfg)
	if err != nil {
		fmt.Printf("local backend: FAIL (%v)\n", err)
	} else {
		fmt.Printf("local backend: OK (%d tools)\n", len(local.ListTools()))
	}

	remote := buildRemoteBackend(cfg)
	connectCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()
	if err := remote.Connect(connectCtx); err != nil {
		fmt.Printf("remote backend: FAIL (%v)\n", err)
	} else {
		fmt.Println("remote backend: OK")
		_ = remote.Close()
	}
	return nil
}
