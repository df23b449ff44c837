// Package validation contains the local input checks applied before any
// bd invocation. Validation failures never involve a subprocess or the
// network; they are returned to the caller directly.
package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/steveyegge/bd-trello/internal/types"
)

const (
	// MaxTitleLength matches the bd tracker's title limit.
	MaxTitleLength = 500
	// MaxTextLength bounds descriptions and comment bodies.
	MaxTextLength = 50000
)

// issueIDPattern matches bd issue IDs: alphanumeric prefix and suffix
// joined by exactly one hyphen (e.g. "bd-42", "bd-a3f8e9").
var issueIDPattern = regexp.MustCompile(`^[A-Za-z0-9]+-[A-Za-z0-9]+$`)

// ValidateTitle checks that a title is non-empty after trimming and within
// the tracker's length limit.
func ValidateTitle(title string) error {
	if strings.TrimSpace(title) == "" {
		return fmt.Errorf("title is required")
	}
	if len(title) > MaxTitleLength {
		return fmt.Errorf("title must be %d characters or less (got %d)", MaxTitleLength, len(title))
	}
	return nil
}

// ValidateText checks description or comment text length.
func ValidateText(kind, text string) error {
	if len(text) > MaxTextLength {
		return fmt.Errorf("%s must be %d characters or less (got %d)", kind, MaxTextLength, len(text))
	}
	return nil
}

// ValidateStatus checks that the status is one of the five lifecycle states.
func ValidateStatus(status types.Status) error {
	if !status.IsValid() {
		return fmt.Errorf("invalid status %q (expected open|in_progress|blocked|deferred|closed)", status)
	}
	return nil
}

// ValidatePriority checks that the priority is in the 0-4 range.
func ValidatePriority(priority int) error {
	if priority < 0 || priority > 4 {
		return fmt.Errorf("priority must be between 0 and 4 (got %d)", priority)
	}
	return nil
}

// ParsePriority extracts a priority value from a string.
// Supports both numeric (0-4) and P-prefix format (P0-P4).
// Returns an error for anything else.
func ParsePriority(content string) (int, error) {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(strings.ToUpper(content), "P") {
		content = content[1:]
	}

	var p int
	if _, err := fmt.Sscanf(content, "%d", &p); err == nil && p >= 0 && p <= 4 {
		return p, nil
	}
	return -1, fmt.Errorf("invalid priority %q (expected 0-4 or P0-P4)", content)
}

// ValidateIssueType checks that the type is one of the recognized kinds.
func ValidateIssueType(issueType types.IssueType) error {
	if !issueType.IsValid() {
		return fmt.Errorf("invalid issue type %q (expected bug|feature|task|epic|chore)", issueType)
	}
	return nil
}

// ValidateLabels checks that every label is non-empty and comma-free.
// Commas are the bd CLI's label separator and cannot appear inside a label.
func ValidateLabels(labels []string) error {
	for _, label := range labels {
		if strings.TrimSpace(label) == "" {
			return fmt.Errorf("labels must be non-empty strings")
		}
		if strings.Contains(label, ",") {
			return fmt.Errorf("label %q must not contain a comma", label)
		}
	}
	return nil
}

// ValidateIssueID checks that an ID matches the prefix-suffix format the
// tracker generates. Used both for parsed create output and for IDs passed
// to update/comment/dependency operations.
func ValidateIssueID(id string) error {
	if id == "" {
		return fmt.Errorf("issue ID is required")
	}
	if !issueIDPattern.MatchString(id) {
		return fmt.Errorf("invalid issue ID %q (expected format: prefix-suffix, e.g. 'bd-a3f8e9')", id)
	}
	return nil
}
