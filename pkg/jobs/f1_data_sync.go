package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/planc/f1-data-sync/pkg/logger"
	"github.com/planc/f1-data-sync/pkg/models"
)

// SnapshotFetcher fetches every endpoint and records the outcome
type SnapshotFetcher interface {
	FetchAll(ctx context.Context) (*models.JobRun, error)
}

// Synchronizer publishes the data directory
type Synchronizer interface {
	Sync(ctx context.Context) (*models.SyncResult, error)
}

type F1DataSyncJob struct {
	fetcher  SnapshotFetcher
	syncer   Synchronizer
	interval time.Duration
}

// NewF1DataSyncJob creates the fetch-then-publish job
func NewF1DataSyncJob(fetcher SnapshotFetcher, syncer Synchronizer, interval time.Duration) *F1DataSyncJob {
	return &F1DataSyncJob{
		fetcher:  fetcher,
		syncer:   syncer,
		interval: interval,
	}
}

// Execute runs one cycle. Git failures are logged and end here; only a data
// directory that cannot be created is reported to the manager.
func (j *F1DataSyncJob) Execute(ctx context.Context) error {
	_, err := j.Run(ctx)
	return err
}

// Run executes one cycle and returns its record
func (j *F1DataSyncJob) Run(ctx context.Context) (*models.JobRun, error) {
	log := logger.WithContext(ctx, "f1-data-sync")

	log.Info().
		Str("action", "sync_start").
		Msg("Starting F1 data sync job")

	run, err := j.fetcher.FetchAll(ctx)
	if err != nil {
		log.Error().
			Err(err).
			Str("action", "sync_failed").
			Msg("F1 data sync failed before fetching")
		return run, fmt.Errorf("fetch endpoints: %w", err)
	}
	log = log.WithRunID(run.ID)

	if run.SuccessCount > 0 {
		run.Sync, run.SyncErr = j.syncer.Sync(ctx)
		if run.SyncErr != nil {
			log.Error().
				Err(run.SyncErr).
				Str("action", "git_sync_failed").
				Msg("Git operation failed")
		}
	} else {
		log.Warn().
			Str("action", "sync_skipped").
			Int("endpoints", len(run.Results)).
			Msg("No endpoint fetched successfully, skipping git sync")
	}

	run.Duration = time.Since(run.StartedAt)
	log.LogJobComplete(j.Name(), run.Duration, run.SuccessCount, run.Failed())
	return run, nil
}

func (j *F1DataSyncJob) Name() string {
	return "f1_data_sync"
}

func (j *F1DataSyncJob) Schedule() string {
	return fmt.Sprintf("@every %s", j.interval)
}
