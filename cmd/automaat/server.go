package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/blendle/automaat/internal/api"
	"github.com/blendle/automaat/internal/config"
	"github.com/blendle/automaat/internal/database"
	"github.com/blendle/automaat/internal/store"
)

func serverCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "server",
		Short: "Run the HTTP API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadServerConfig()
			if err != nil {
				return fmt.Errorf("loading server config: %w", err)
			}

			ctx := context.Background()
			pool, err := database.New(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer pool.Close()

			s := store.New(pool.Pool, cfg.ServerSecret)

			srv := api.NewServer(api.Config{
				Bind:      cfg.ServerBind,
				Version:   cfg.Version,
				ReleaseID: cfg.ReleaseID,
			}, s)

			return srv.Start()
		},
	}
}
