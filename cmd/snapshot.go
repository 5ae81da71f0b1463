package cmd

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	config "github.com/thirdweb-dev/treasury-snapshot/configs"
	"github.com/thirdweb-dev/treasury-snapshot/internal/metrics"
	"github.com/thirdweb-dev/treasury-snapshot/internal/orchestrator"
	"github.com/thirdweb-dev/treasury-snapshot/internal/storage"
)

var (
	snapshotCmd = &cobra.Command{
		Use:   "snapshot",
		Short: "Capture one snapshot and publish it",
		Long:  "Reads every configured chain, builds the per-chain snapshots and the index, and writes them to the configured sinks. Nothing is written when any step fails.",
		Run: func(cmd *cobra.Command, args []string) {
			RunSnapshot(cmd, args)
		},
	}
)

func RunSnapshot(cmd *cobra.Command, args []string) {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGTERM, syscall.SIGINT)
	defer stop()

	cfg := config.Cfg
	if err := cfg.Validate(); err != nil {
		log.Fatal().Err(err).Msg("Invalid configuration")
	}

	err := runSnapshot(ctx, cfg)
	if pushErr := metrics.Push(cfg.Metrics.PushGateway, cfg.Metrics.Job); pushErr != nil {
		log.Warn().Err(pushErr).Msg("Failed to push metrics")
	}
	if err != nil {
		stop()
		log.Fatal().Err(err).Msg("Snapshot failed")
	}
}

func runSnapshot(ctx context.Context, cfg config.Config) error {
	sinks, err := storage.NewSinks(ctx, cfg.Output)
	if err != nil {
		return err
	}
	defer storage.CloseAll(sinks)

	o := orchestrator.New(cfg, orchestrator.WithSinks(sinks...))
	artifacts, err := o.Run(ctx)
	if err != nil {
		return err
	}
	return o.Publish(ctx, artifacts)
}
