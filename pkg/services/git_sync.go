package services

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/planc/f1-data-sync/internal/config"
	"github.com/planc/f1-data-sync/pkg/logger"
	"github.com/planc/f1-data-sync/pkg/models"
	"github.com/planc/f1-data-sync/pkg/vcs"
)

const (
	commitMessagePrefix = "Auto-update F1 data: "
	commitTimeLayout    = "2006-01-02 15:04:05"
)

// CommitMessage formats the commit message for a snapshot taken at t
func CommitMessage(t time.Time) string {
	return commitMessagePrefix + t.Format(commitTimeLayout)
}

// GitSyncService commits the data directory and publishes it to the remote
type GitSyncService struct {
	client        vcs.Client
	dataDir       string
	remote        string
	defaultBranch string
	now           func() time.Time
	logger        *logger.Logger
}

func NewGitSyncService(client vcs.Client, cfg *config.Config, now func() time.Time) *GitSyncService {
	if now == nil {
		now = time.Now
	}
	return &GitSyncService{
		client:        client,
		dataDir:       filepath.ToSlash(filepath.Clean(cfg.Sync.DataDir)),
		remote:        cfg.Sync.Remote,
		defaultBranch: cfg.Sync.DefaultBranch,
		now:           now,
		logger:        logger.New("git-sync"),
	}
}

// ConfigureIdentity sets the bot identity. Failures are logged and ignored.
func (s *GitSyncService) ConfigureIdentity(ctx context.Context, name, email string) {
	if err := s.client.ConfigureIdentity(ctx, name, email); err != nil {
		s.logger.Warn().
			Err(err).
			Str("action", "identity_failed").
			Str("user_name", name).
			Str("user_email", email).
			Msg("Could not configure git identity, continuing")
	}
}

// Sync stages, commits, pulls and pushes the data directory. It returns early
// without error when nothing changed. A failed pull is tolerated; any other
// failed step stops the sync and is returned. Nothing is rolled back: a commit
// failure after a successful add leaves the index as it is.
func (s *GitSyncService) Sync(ctx context.Context) (*models.SyncResult, error) {
	result := &models.SyncResult{}

	branch, err := s.client.CurrentBranch(ctx)
	if err != nil || branch == "" {
		s.logger.Debug().
			Err(err).
			Str("fallback", s.defaultBranch).
			Msg("Branch detection failed, using default")
		branch = s.defaultBranch
	}
	result.Branch = branch

	changed, err := s.step("status", func() (bool, error) {
		return s.client.HasChanges(ctx, s.dataDir)
	})
	if err != nil {
		return result, err
	}
	if !changed {
		s.logger.Info().
			Str("action", "no_changes").
			Str("branch", branch).
			Msg("No changes to commit")
		return result, nil
	}
	result.Changed = true

	s.logger.Info().
		Str("action", "changes_detected").
		Str("branch", branch).
		Msgf("Changes detected on branch '%s'. Committing and pushing...", branch)

	// stage the same scope the status check looked at
	if _, err := s.step("add", func() (bool, error) {
		return true, s.client.Add(ctx, s.dataDir)
	}); err != nil {
		return result, err
	}

	result.Message = CommitMessage(s.now())
	if _, err := s.step("commit", func() (bool, error) {
		return true, s.client.Commit(ctx, result.Message)
	}); err != nil {
		return result, err
	}
	result.Committed = true

	if _, err := s.step("pull", func() (bool, error) {
		return true, s.client.PullRebase(ctx, s.remote, branch)
	}); err != nil {
		s.logger.Warn().
			Err(err).
			Str("action", "pull_failed").
			Str("remote", s.remote).
			Str("branch", branch).
			Msg("Pull failed (maybe no remote branch yet?), continuing")
	} else {
		result.Pulled = true
	}

	if _, err := s.step("push", func() (bool, error) {
		return true, s.client.Push(ctx, s.remote, branch)
	}); err != nil {
		return result, err
	}
	result.Pushed = true

	s.logger.Info().
		Str("action", "push_complete").
		Str("remote", s.remote).
		Str("branch", branch).
		Msg("Successfully pushed data snapshot")

	return result, nil
}

func (s *GitSyncService) step(name string, fn func() (bool, error)) (bool, error) {
	start := time.Now()
	ok, err := fn()
	s.logger.LogGitCommand(name, time.Since(start), err)
	if err != nil {
		return false, fmt.Errorf("git %s: %w", name, err)
	}
	return ok, nil
}
