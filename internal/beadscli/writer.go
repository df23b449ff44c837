// Package beadscli wraps the external bd command-line program. The tracker
// offers no bulk or transactional API, so every mutation is one subprocess
// invocation; all inputs are validated locally before a process is spawned.
package beadscli

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/steveyegge/bd-trello/internal/types"
	"github.com/steveyegge/bd-trello/internal/validation"
)

// Writer is the capability interface the conversion engine depends on.
// CLIWriter is the subprocess-backed implementation; a future direct-API
// implementation can replace it without touching the engine.
type Writer interface {
	CreateIssue(ctx context.Context, req CreateRequest) (string, error)
	UpdateStatus(ctx context.Context, issueID string, status types.Status) error
	UpdateDescription(ctx context.Context, issueID, description string) error
	AddComment(ctx context.Context, issueID, text, author string) error
	AddDependency(ctx context.Context, issueID, dependsOnID string, depType types.DependencyType) error
	GetIssue(ctx context.Context, issueID string) (*types.Issue, error)
}

// CreateRequest describes a new issue. Zero values for Status, Priority,
// and Type default to open/2/task.
type CreateRequest struct {
	Title       string
	Description string
	Status      types.Status
	Priority    int
	Type        types.IssueType
	Labels      []string
	ExternalRef string
}

// withDefaults returns a copy with tracker defaults applied.
func (r CreateRequest) withDefaults() CreateRequest {
	if r.Status == "" {
		r.Status = types.StatusOpen
	}
	if r.Type == "" {
		r.Type = types.TypeTask
	}
	return r
}

// validate applies every local input check. No subprocess is spawned when
// any of these fail.
func (r CreateRequest) validate() error {
	if err := validation.ValidateTitle(r.Title); err != nil {
		return err
	}
	if err := validation.ValidateText("description", r.Description); err != nil {
		return err
	}
	if err := validation.ValidateStatus(r.Status); err != nil {
		return err
	}
	if err := validation.ValidatePriority(r.Priority); err != nil {
		return err
	}
	if err := validation.ValidateIssueType(r.Type); err != nil {
		return err
	}
	return validation.ValidateLabels(r.Labels)
}

// Health-check failures at construction. Distinct causes so the operator
// can tell a missing binary from a broken one.
var (
	ErrCLINotFound  = errors.New("bd CLI not found")
	ErrCLIUnhealthy = errors.New("bd CLI health check failed")
	ErrCLITimeout   = errors.New("bd CLI health check timed out")
)

// CreateError reports a failed issue creation with full diagnostic context:
// the command line, exit code, and captured output.
type CreateError struct {
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
	Reason   string
}

func (e *CreateError) Error() string {
	return fmt.Sprintf("issue creation failed (%s): %s (exit %d)\nstdout: %s\nstderr: %s",
		e.Command, e.Reason, e.ExitCode, strings.TrimSpace(e.Stdout), strings.TrimSpace(e.Stderr))
}

// CommandError reports a failed update/comment/dependency/show invocation.
type CommandError struct {
	Op       string
	IssueID  string
	Command  string
	ExitCode int
	Stdout   string
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	return fmt.Sprintf("%s failed for %s (%s, exit %d): %v\nstderr: %s",
		e.Op, e.IssueID, e.Command, e.ExitCode, e.Err, strings.TrimSpace(e.Stderr))
}

func (e *CommandError) Unwrap() error { return e.Err }
