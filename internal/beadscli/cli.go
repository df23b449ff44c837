package beadscli

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os/exec"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"github.com/steveyegge/bd-trello/internal/debug"
	"github.com/steveyegge/bd-trello/internal/types"
	"github.com/steveyegge/bd-trello/internal/validation"
)

// commandTimeout bounds every bd invocation. Timed-out mutations are not
// retried: the CLI gives no idempotency guarantee, so a retry could create
// duplicates.
const commandTimeout = 30 * time.Second

// createdIDPatterns are the accepted phrasings of bd's create
// acknowledgement. bd prints "✓ Created issue: bd-123"; older builds and
// JSON-suppressed modes vary slightly, so a few forms are recognized.
var createdIDPatterns = []*regexp.Regexp{
	regexp.MustCompile(`Created issue:\s*(\S+)`),
	regexp.MustCompile(`(?i)created\s+issue\s+(\S+)`),
	regexp.MustCompile(`(?i)created:?\s+(\S+)`),
}

// parseCreatedID extracts the generated issue ID from bd's create output.
// The extracted ID must match the tracker's prefix-suffix format; anything
// else is an error so a malformed ID never propagates downstream.
func parseCreatedID(output string) (string, error) {
	for _, pattern := range createdIDPatterns {
		m := pattern.FindStringSubmatch(output)
		if m == nil {
			continue
		}
		id := strings.TrimRight(m[1], ".,;:!")
		if err := validation.ValidateIssueID(id); err != nil {
			return "", fmt.Errorf("parsed %q from create output: %w", id, err)
		}
		return id, nil
	}
	return "", fmt.Errorf("no issue ID found in create output")
}

// CLIWriter shells out to the bd binary. In dry-run mode no process is
// ever spawned; deterministic placeholder data is returned instead.
type CLIWriter struct {
	Bin     string
	DBPath  string
	Timeout time.Duration
	DryRun  bool

	mockSeq atomic.Int64
}

// NewCLIWriter builds a writer for the given binary ("bd" if empty) and
// optional database path override. Outside dry-run mode the binary is
// health-checked immediately; a writer that cannot reach a working bd is
// useless and construction fails.
func NewCLIWriter(bin, dbPath string, dryRun bool) (*CLIWriter, error) {
	if bin == "" {
		bin = "bd"
	}
	w := &CLIWriter{
		Bin:     bin,
		DBPath:  dbPath,
		Timeout: commandTimeout,
		DryRun:  dryRun,
	}
	if !dryRun {
		if err := w.healthCheck(); err != nil {
			return nil, err
		}
	}
	return w, nil
}

// healthCheck runs a no-op help invocation to verify the binary exists
// and responds.
func (w *CLIWriter) healthCheck() error {
	ctx, cancel := context.WithTimeout(context.Background(), w.Timeout)
	defer cancel()

	cmd := exec.CommandContext(ctx, w.Bin, "--help")
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	err := cmd.Run()
	switch {
	case err == nil:
		return nil
	case errors.Is(err, exec.ErrNotFound):
		return fmt.Errorf("%w: %q is not installed or not in PATH", ErrCLINotFound, w.Bin)
	case ctx.Err() == context.DeadlineExceeded:
		return fmt.Errorf("%w: %q did not respond within %v", ErrCLITimeout, w.Bin, w.Timeout)
	default:
		return fmt.Errorf("%w: %q exited with an error: %v (stderr: %s)", ErrCLIUnhealthy, w.Bin, err, strings.TrimSpace(stderr.String()))
	}
}

// run executes one bd invocation with the writer's timeout.
func (w *CLIWriter) run(ctx context.Context, args ...string) (stdout, stderr string, exitCode int, err error) {
	if w.DBPath != "" {
		args = append([]string{"--db", w.DBPath}, args...)
	}

	cctx, cancel := context.WithTimeout(ctx, w.Timeout)
	defer cancel()

	cmd := exec.CommandContext(cctx, w.Bin, args...)
	var outBuf, errBuf bytes.Buffer
	cmd.Stdout = &outBuf
	cmd.Stderr = &errBuf

	debug.Logf("exec: %s %s\n", w.Bin, strings.Join(args, " "))
	err = cmd.Run()

	exitCode = 0
	if exitErr := new(exec.ExitError); errors.As(err, &exitErr) {
		exitCode = exitErr.ExitCode()
	}
	if cctx.Err() == context.DeadlineExceeded {
		err = fmt.Errorf("timed out after %v: %w", w.Timeout, cctx.Err())
	}
	return outBuf.String(), errBuf.String(), exitCode, err
}

// commandString renders the invocation for diagnostics.
func (w *CLIWriter) commandString(args ...string) string {
	return w.Bin + " " + strings.Join(args, " ")
}

// CreateIssue validates the request, invokes bd create, and parses the
// generated ID from the acknowledgement output. The create primitive has
// no status parameter, so a non-default status is applied with an
// immediate follow-up update.
func (w *CLIWriter) CreateIssue(ctx context.Context, req CreateRequest) (string, error) {
	req = req.withDefaults()
	if err := req.validate(); err != nil {
		return "", err
	}

	if w.DryRun {
		return fmt.Sprintf("dry-%d", w.mockSeq.Add(1)), nil
	}

	args := []string{"create", req.Title,
		"-p", strconv.Itoa(req.Priority),
		"-t", string(req.Type),
	}
	if req.Description != "" {
		args = append(args, "-d", req.Description)
	}
	if len(req.Labels) > 0 {
		args = append(args, "--labels", strings.Join(req.Labels, ","))
	}
	if req.ExternalRef != "" {
		args = append(args, "--external-ref", req.ExternalRef)
	}

	stdout, stderr, exitCode, err := w.run(ctx, args...)
	if err != nil {
		return "", &CreateError{
			Command:  w.commandString(args...),
			ExitCode: exitCode,
			Stdout:   stdout,
			Stderr:   stderr,
			Reason:   err.Error(),
		}
	}

	id, err := parseCreatedID(stdout)
	if err != nil {
		return "", &CreateError{
			Command:  w.commandString(args...),
			ExitCode: exitCode,
			Stdout:   stdout,
			Stderr:   stderr,
			Reason:   err.Error(),
		}
	}

	if req.Status != types.StatusOpen {
		if err := w.UpdateStatus(ctx, id, req.Status); err != nil {
			return id, err
		}
	}
	return id, nil
}

// UpdateStatus transitions an issue to a new lifecycle state.
func (w *CLIWriter) UpdateStatus(ctx context.Context, issueID string, status types.Status) error {
	if err := validation.ValidateIssueID(issueID); err != nil {
		return err
	}
	if err := validation.ValidateStatus(status); err != nil {
		return err
	}
	if w.DryRun {
		return nil
	}

	args := []string{"update", issueID, "--status", string(status)}
	if _, stderr, exitCode, err := w.run(ctx, args...); err != nil {
		return &CommandError{Op: "status update", IssueID: issueID, Command: w.commandString(args...), ExitCode: exitCode, Stderr: stderr, Err: err}
	}
	return nil
}

// UpdateDescription replaces an issue's description text.
func (w *CLIWriter) UpdateDescription(ctx context.Context, issueID, description string) error {
	if err := validation.ValidateIssueID(issueID); err != nil {
		return err
	}
	if err := validation.ValidateText("description", description); err != nil {
		return err
	}
	if w.DryRun {
		return nil
	}

	args := []string{"update", issueID, "--description", description}
	if _, stderr, exitCode, err := w.run(ctx, args...); err != nil {
		return &CommandError{Op: "description update", IssueID: issueID, Command: w.commandString(args...), ExitCode: exitCode, Stderr: stderr, Err: err}
	}
	return nil
}

// AddComment attaches a comment to an issue, optionally attributed.
func (w *CLIWriter) AddComment(ctx context.Context, issueID, text, author string) error {
	if err := validation.ValidateIssueID(issueID); err != nil {
		return err
	}
	if strings.TrimSpace(text) == "" {
		return fmt.Errorf("comment text is required")
	}
	if err := validation.ValidateText("comment", text); err != nil {
		return err
	}
	if w.DryRun {
		return nil
	}

	args := []string{"comments", "add", issueID, text}
	if author != "" {
		args = append(args, "--author", author)
	}
	if _, stderr, exitCode, err := w.run(ctx, args...); err != nil {
		return &CommandError{Op: "comment", IssueID: issueID, Command: w.commandString(args...), ExitCode: exitCode, Stderr: stderr, Err: err}
	}
	return nil
}

// AddDependency records a directional relationship between two issues.
func (w *CLIWriter) AddDependency(ctx context.Context, issueID, dependsOnID string, depType types.DependencyType) error {
	if err := validation.ValidateIssueID(issueID); err != nil {
		return err
	}
	if err := validation.ValidateIssueID(dependsOnID); err != nil {
		return err
	}
	if issueID == dependsOnID {
		return fmt.Errorf("dependency cannot reference itself (%s)", issueID)
	}
	if !depType.IsValid() {
		return fmt.Errorf("invalid dependency type %q", depType)
	}
	if w.DryRun {
		return nil
	}

	args := []string{"dep", "add", issueID, dependsOnID, "--type", string(depType)}
	if _, stderr, exitCode, err := w.run(ctx, args...); err != nil {
		return &CommandError{Op: "dependency", IssueID: issueID, Command: w.commandString(args...), ExitCode: exitCode, Stderr: stderr, Err: err}
	}
	return nil
}

// GetIssue fetches an issue record via bd show --json.
func (w *CLIWriter) GetIssue(ctx context.Context, issueID string) (*types.Issue, error) {
	if err := validation.ValidateIssueID(issueID); err != nil {
		return nil, err
	}
	if w.DryRun {
		return &types.Issue{
			ID:        issueID,
			Title:     "dry-run issue",
			Status:    types.StatusOpen,
			Priority:  2,
			IssueType: types.TypeTask,
		}, nil
	}

	args := []string{"show", issueID, "--json"}
	stdout, stderr, exitCode, err := w.run(ctx, args...)
	if err != nil {
		return nil, &CommandError{Op: "show", IssueID: issueID, Command: w.commandString(args...), ExitCode: exitCode, Stdout: stdout, Stderr: stderr, Err: err}
	}

	issue, err := parseIssueJSON(stdout)
	if err != nil {
		return nil, &CommandError{Op: "show", IssueID: issueID, Command: w.commandString(args...), ExitCode: exitCode, Stdout: stdout, Stderr: stderr, Err: err}
	}
	return issue, nil
}

// parseIssueJSON decodes bd show --json output, which is a single object
// for one ID but may be an array on some builds.
func parseIssueJSON(output string) (*types.Issue, error) {
	trimmed := strings.TrimSpace(output)

	var issue types.Issue
	if err := json.Unmarshal([]byte(trimmed), &issue); err == nil && issue.ID != "" {
		return &issue, nil
	}

	var issues []types.Issue
	if err := json.Unmarshal([]byte(trimmed), &issues); err == nil && len(issues) > 0 {
		return &issues[0], nil
	}

	return nil, fmt.Errorf("unparsable issue JSON")
}
