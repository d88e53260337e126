package services

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/planc/f1-data-sync/pkg/logger"
	"github.com/planc/f1-data-sync/pkg/models"
	"github.com/planc/f1-data-sync/pkg/storage"
)

// SnapshotService mirrors the endpoint table into the data directory
type SnapshotService struct {
	fetcher   DataFetcher
	store     *storage.Store
	endpoints []models.Endpoint
	logger    *logger.Logger
}

func NewSnapshotService(fetcher DataFetcher, store *storage.Store, endpoints []models.Endpoint) *SnapshotService {
	return &SnapshotService{
		fetcher:   fetcher,
		store:     store,
		endpoints: endpoints,
		logger:    logger.New("snapshot-service"),
	}
}

// FetchAll fetches every endpoint in table order, one at a time. Individual
// failures are recorded in the run and never abort the loop.
func (s *SnapshotService) FetchAll(ctx context.Context) (*models.JobRun, error) {
	run := &models.JobRun{
		ID:        uuid.New().String(),
		StartedAt: time.Now(),
		Results:   make([]models.FetchResult, 0, len(s.endpoints)),
	}

	if err := s.store.EnsureDir(); err != nil {
		return run, err
	}

	if resetter, ok := s.fetcher.(BreakerResetter); ok {
		resetter.ResetBreaker()
	}

	for _, endpoint := range s.endpoints {
		run.Record(s.FetchAndSave(ctx, endpoint))
	}

	run.Duration = time.Since(run.StartedAt)
	return run, nil
}

// FetchAndSave downloads one endpoint and replaces its snapshot file. Transport,
// status and decode errors are logged and reported in the result.
func (s *SnapshotService) FetchAndSave(ctx context.Context, endpoint models.Endpoint) models.FetchResult {
	log := s.logger.WithEndpoint(endpoint.Name)
	result := models.FetchResult{
		Name: endpoint.Name,
		URL:  endpoint.URL,
	}

	log.Info().
		Str("action", "fetch_start").
		Str("url", endpoint.URL).
		Msgf("Fetching %s", endpoint.Name)

	data, err := s.fetcher.FetchData(ctx, endpoint.URL)
	if err != nil {
		log.Error().
			Err(err).
			Str("action", "fetch_failed").
			Msgf("Error fetching %s", endpoint.Name)
		result.Err = err
		return result
	}

	path, size, err := s.store.WriteJSON(endpoint.FileName(), data)
	log.LogFileWrite(endpoint.Name, path, size, err)
	if err != nil {
		result.Err = err
		return result
	}

	result.Path = path
	result.Bytes = size
	result.Success = true
	return result
}
