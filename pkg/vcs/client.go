// Package vcs is the narrow version-control surface the sync job needs.
// Two backends implement it: one shells out to the git executable, the other
// runs in-process on go-git.
package vcs

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

const (
	BackendCLI   = "cli"
	BackendGoGit = "gogit"
)

// ErrNoRepository is returned when the configured path is not a git work tree
var ErrNoRepository = errors.New("not a git repository")

// Client is the set of version-control operations used by the git synchronizer.
// Paths and patterns are relative to the repository root.
type Client interface {
	// ConfigureIdentity sets the author name and email used for commits
	ConfigureIdentity(ctx context.Context, name, email string) error

	// CurrentBranch returns the checked out branch, or an empty string if it cannot be determined
	CurrentBranch(ctx context.Context) (string, error)

	// HasChanges reports whether anything under path differs from the last commit
	HasChanges(ctx context.Context, path string) (bool, error)

	// Add stages pattern, which may name a directory or a glob
	Add(ctx context.Context, pattern string) error
	Commit(ctx context.Context, message string) error

	// PullRebase integrates remote changes before pushing
	PullRebase(ctx context.Context, remote, branch string) error

	Push(ctx context.Context, remote, branch string) error
}

// New builds the client for the named backend
func New(backend, repoPath string) (Client, error) {
	switch backend {
	case BackendCLI, "":
		return NewCLIClient(repoPath), nil
	case BackendGoGit:
		return NewGoGitClient(repoPath), nil
	default:
		return nil, fmt.Errorf("unknown git backend %q", backend)
	}
}

// CommandError describes a git invocation that exited unsuccessfully
type CommandError struct {
	Args     []string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s failed", strings.Join(e.Args, " "))
	if e.ExitCode > 0 {
		msg += fmt.Sprintf(" (exit status %d)", e.ExitCode)
	}
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	} else if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *CommandError) Unwrap() error {
	return e.Err
}
