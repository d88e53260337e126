package vcs

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/go-git/go-git/v5"
	gitconfig "github.com/go-git/go-git/v5/config"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"
)

// GoGitClient implements Client in-process. go-git cannot rebase, so
// PullRebase performs a fast-forward pull and fails when histories diverged.
type GoGitClient struct {
	repoPath string
	name     string
	email    string
	now      func() time.Time
}

func NewGoGitClient(repoPath string) *GoGitClient {
	return &GoGitClient{
		repoPath: repoPath,
		now:      time.Now,
	}
}

func (c *GoGitClient) open() (*git.Repository, error) {
	repo, err := git.PlainOpenWithOptions(c.repoPath, &git.PlainOpenOptions{DetectDotGit: true})
	if err != nil {
		if errors.Is(err, git.ErrRepositoryNotExists) {
			return nil, fmt.Errorf("%s: %w", c.repoPath, ErrNoRepository)
		}
		return nil, fmt.Errorf("failed to open repository: %w", err)
	}
	return repo, nil
}

func (c *GoGitClient) ConfigureIdentity(ctx context.Context, name, email string) error {
	c.name = name
	c.email = email

	repo, err := c.open()
	if err != nil {
		return err
	}

	cfg, err := repo.Config()
	if err != nil {
		return fmt.Errorf("failed to read repository config: %w", err)
	}
	cfg.User.Name = name
	cfg.User.Email = email

	if err := repo.SetConfig(cfg); err != nil {
		return fmt.Errorf("failed to write repository config: %w", err)
	}
	return nil
}

func (c *GoGitClient) CurrentBranch(ctx context.Context) (string, error) {
	repo, err := c.open()
	if err != nil {
		return "", err
	}

	// HEAD is symbolic even before the first commit, so read it unresolved
	head, err := repo.Reference(plumbing.HEAD, false)
	if err != nil {
		return "", fmt.Errorf("failed to read HEAD: %w", err)
	}
	if head.Type() == plumbing.SymbolicReference {
		return head.Target().Short(), nil
	}
	return "HEAD", nil
}

func (c *GoGitClient) HasChanges(ctx context.Context, path string) (bool, error) {
	repo, err := c.open()
	if err != nil {
		return false, err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return false, fmt.Errorf("failed to get worktree: %w", err)
	}

	status, err := worktree.Status()
	if err != nil {
		return false, fmt.Errorf("failed to get status: %w", err)
	}

	prefix := strings.TrimSuffix(filepath.ToSlash(filepath.Clean(path)), "/") + "/"
	if prefix == "./" {
		prefix = ""
	}

	for file, fileStatus := range status {
		if !strings.HasPrefix(file, prefix) {
			continue
		}
		if fileStatus.Staging != git.Unmodified || fileStatus.Worktree != git.Unmodified {
			return true, nil
		}
	}
	return false, nil
}

func (c *GoGitClient) Add(ctx context.Context, pattern string) error {
	repo, err := c.open()
	if err != nil {
		return err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	if err := worktree.AddGlob(pattern); err != nil {
		return fmt.Errorf("failed to add %s: %w", pattern, err)
	}
	return nil
}

func (c *GoGitClient) Commit(ctx context.Context, message string) error {
	repo, err := c.open()
	if err != nil {
		return err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	signature, err := c.signature(repo)
	if err != nil {
		return err
	}

	if _, err := worktree.Commit(message, &git.CommitOptions{Author: signature}); err != nil {
		return fmt.Errorf("failed to commit: %w", err)
	}
	return nil
}

func (c *GoGitClient) PullRebase(ctx context.Context, remote, branch string) error {
	repo, err := c.open()
	if err != nil {
		return err
	}

	worktree, err := repo.Worktree()
	if err != nil {
		return fmt.Errorf("failed to get worktree: %w", err)
	}

	err = worktree.PullContext(ctx, &git.PullOptions{
		RemoteName:    remote,
		ReferenceName: plumbing.NewBranchReferenceName(branch),
		SingleBranch:  true,
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to pull %s/%s: %w", remote, branch, err)
	}
	return nil
}

func (c *GoGitClient) Push(ctx context.Context, remote, branch string) error {
	repo, err := c.open()
	if err != nil {
		return err
	}

	ref := plumbing.NewBranchReferenceName(branch)
	err = repo.PushContext(ctx, &git.PushOptions{
		RemoteName: remote,
		RefSpecs:   []gitconfig.RefSpec{gitconfig.RefSpec(ref.String() + ":" + ref.String())},
	})
	if err != nil && !errors.Is(err, git.NoErrAlreadyUpToDate) {
		return fmt.Errorf("failed to push %s/%s: %w", remote, branch, err)
	}
	return nil
}

func (c *GoGitClient) signature(repo *git.Repository) (*object.Signature, error) {
	name, email := c.name, c.email
	if name == "" || email == "" {
		cfg, err := repo.ConfigScoped(gitconfig.SystemScope)
		if err != nil {
			return nil, fmt.Errorf("failed to read git config: %w", err)
		}
		if name == "" {
			name = cfg.User.Name
		}
		if email == "" {
			email = cfg.User.Email
		}
	}
	if name == "" || email == "" {
		return nil, errors.New("commit identity is not configured")
	}

	return &object.Signature{
		Name:  name,
		Email: email,
		When:  c.now(),
	}, nil
}
