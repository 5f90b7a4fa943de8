package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/blendle/automaat/internal/config"
	"github.com/blendle/automaat/internal/database"
	"github.com/blendle/automaat/internal/store"
	"github.com/blendle/automaat/internal/worker"
)

func workerCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "worker",
		Short: "Run the job worker loop",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadWorkerConfig()
			if err != nil {
				return fmt.Errorf("loading worker config: %w", err)
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			pool, err := database.New(ctx, cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connecting to database: %w", err)
			}
			defer pool.Close()

			s := store.New(pool.Pool, cfg.ServerSecret)
			loop := worker.New(s, cfg.WorkerPollInterval)
			loop.Run(ctx)
			return nil
		},
	}
}
