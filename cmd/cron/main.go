package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/urfave/cli/v3"

	"github.com/planc/f1-data-sync/internal/config"
	"github.com/planc/f1-data-sync/pkg/jobs"
	"github.com/planc/f1-data-sync/pkg/logger"
	"github.com/planc/f1-data-sync/pkg/services"
	"github.com/planc/f1-data-sync/pkg/storage"
	"github.com/planc/f1-data-sync/pkg/vcs"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	app := &cli.Command{
		Name:  "f1sync",
		Usage: "Mirror Ergast F1 endpoints into a git repository every hour",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "env",
				Usage: "dotenv file to load before reading the environment",
				Value: ".env",
			},
			&cli.BoolFlag{
				Name:  "once",
				Usage: "run a single sync cycle and exit",
			},
		},
		Action: run,
	}

	if err := app.Run(ctx, os.Args); err != nil {
		logger.New("f1-sync").Fatalf("f1sync: %v", err)
	}
}

func run(ctx context.Context, cmd *cli.Command) error {
	cfg, err := config.Load(cmd.String("env"))
	if err != nil {
		return err
	}

	logger.SetupLogger()
	log := logger.New("f1-sync")
	log.Info().
		Str("repo", cfg.Sync.RepoPath).
		Str("data_dir", cfg.Sync.DataDir).
		Str("git_backend", cfg.Git.Backend).
		Int("endpoints", len(cfg.Endpoints)).
		Msg("F1 data fetcher started")

	vcsClient, err := vcs.New(cfg.Git.Backend, cfg.Sync.RepoPath)
	if err != nil {
		return err
	}

	// Initialize services
	ergastClient := services.NewErgastClient(cfg)
	snapshotService := services.NewSnapshotService(ergastClient, storage.NewStore(cfg.DataPath()), cfg.Endpoints)
	gitSyncService := services.NewGitSyncService(vcsClient, cfg, nil)

	gitSyncService.ConfigureIdentity(ctx, cfg.Git.UserName, cfg.Git.UserEmail)

	syncJob := jobs.NewF1DataSyncJob(snapshotService, gitSyncService, cfg.Sync.Interval)

	if cmd.Bool("once") {
		log.Info().Msg("Running F1 data sync once...")
		if err := syncJob.Execute(ctx); err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}
		log.Info().Msg("F1 data sync completed")
		return nil
	}

	jobManager := jobs.NewJobManager(jobs.RealClock(), cfg.Sync.PollInterval)
	if err := jobManager.RegisterJob(syncJob); err != nil {
		return fmt.Errorf("failed to register sync job: %w", err)
	}

	err = jobManager.Run(ctx)
	log.Info().Msg("F1 data fetcher stopped")
	return err
}
