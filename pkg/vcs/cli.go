package vcs

import (
	"bytes"
	"context"
	"errors"
	"os/exec"
	"strings"
)

// CLIClient runs the git executable inside the repository directory. It relies
// on whatever credentials the host git is configured with for pull and push.
type CLIClient struct {
	repoPath string
	gitPath  string
}

func NewCLIClient(repoPath string) *CLIClient {
	return &CLIClient{
		repoPath: repoPath,
		gitPath:  "git",
	}
}

func (c *CLIClient) ConfigureIdentity(ctx context.Context, name, email string) error {
	if _, err := c.run(ctx, "config", "user.name", name); err != nil {
		return err
	}
	_, err := c.run(ctx, "config", "user.email", email)
	return err
}

func (c *CLIClient) CurrentBranch(ctx context.Context) (string, error) {
	out, err := c.run(ctx, "rev-parse", "--abbrev-ref", "HEAD")
	if err != nil {
		return "", err
	}
	return strings.TrimSpace(out), nil
}

func (c *CLIClient) HasChanges(ctx context.Context, path string) (bool, error) {
	out, err := c.run(ctx, "status", "--porcelain", "--", path)
	if err != nil {
		return false, err
	}
	return strings.TrimSpace(out) != "", nil
}

func (c *CLIClient) Add(ctx context.Context, pattern string) error {
	_, err := c.run(ctx, "add", pattern)
	return err
}

func (c *CLIClient) Commit(ctx context.Context, message string) error {
	_, err := c.run(ctx, "commit", "-m", message)
	return err
}

func (c *CLIClient) PullRebase(ctx context.Context, remote, branch string) error {
	_, err := c.run(ctx, "pull", "--rebase", remote, branch)
	return err
}

func (c *CLIClient) Push(ctx context.Context, remote, branch string) error {
	_, err := c.run(ctx, "push", remote, branch)
	return err
}

func (c *CLIClient) run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, c.gitPath, args...)
	cmd.Dir = c.repoPath

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		cmdErr := &CommandError{
			Args:   args,
			Stderr: strings.TrimSpace(stderr.String()),
			Err:    err,
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			cmdErr.ExitCode = exitErr.ExitCode()
		}
		if strings.Contains(cmdErr.Stderr, "not a git repository") {
			cmdErr.Err = ErrNoRepository
		}
		return stdout.String(), cmdErr
	}

	return stdout.String(), nil
}
