package convert

import (
	"fmt"
	"sort"
	"strings"

	"github.com/steveyegge/bd-trello/internal/types"
)

// FailedCreation records one issue that could not be created, with enough
// context for the operator to hand-fix or re-run selectively.
type FailedCreation struct {
	Title string `json:"title"`
	Kind  string `json:"kind"`
	Err   string `json:"error"`
}

// Stats accumulates run counters across both passes. All figures come from
// in-memory counters updated as work happens, never reconstructed from the
// target tracker afterward.
type Stats struct {
	TotalCards      int `json:"total_cards"`
	IssuesAttempted int `json:"issues_attempted"`
	IssuesCreated   int `json:"issues_created"`

	Epics    int `json:"epics"`
	Children int `json:"children"`
	Tasks    int `json:"tasks"`

	StatusCounts map[types.Status]int `json:"status_counts"`

	CommentsAdded  int `json:"comments_added"`
	CommentsFailed int `json:"comments_failed"`

	DepsCreated int `json:"deps_created"`
	DepsFailed  int `json:"deps_failed"`

	DescriptionsUpdated int `json:"descriptions_updated"`

	ValidationWarnings []string         `json:"validation_warnings,omitempty"`
	FailedCreations    []FailedCreation `json:"failed_creations,omitempty"`

	brokenRefs map[string]struct{}
}

func newStats() *Stats {
	return &Stats{
		StatusCounts: make(map[types.Status]int),
		brokenRefs:   make(map[string]struct{}),
	}
}

func (s *Stats) warn(format string, args ...interface{}) {
	s.ValidationWarnings = append(s.ValidationWarnings, fmt.Sprintf(format, args...))
}

func (s *Stats) addBrokenRef(shortLink string) {
	s.brokenRefs[shortLink] = struct{}{}
}

// BrokenRefs returns the unique unresolvable card references, sorted.
func (s *Stats) BrokenRefs() []string {
	refs := make([]string, 0, len(s.brokenRefs))
	for ref := range s.brokenRefs {
		refs = append(refs, ref)
	}
	sort.Strings(refs)
	return refs
}

// Report renders the end-of-run summary.
func (s *Stats) Report() string {
	var b strings.Builder

	fmt.Fprintf(&b, "Migration summary\n")
	fmt.Fprintf(&b, "  Cards:        %d\n", s.TotalCards)
	fmt.Fprintf(&b, "  Issues:       %d created of %d attempted\n", s.IssuesCreated, s.IssuesAttempted)
	fmt.Fprintf(&b, "  Breakdown:    %d epics, %d children, %d tasks\n", s.Epics, s.Children, s.Tasks)

	if len(s.StatusCounts) > 0 {
		statuses := make([]string, 0, len(s.StatusCounts))
		for status := range s.StatusCounts {
			statuses = append(statuses, string(status))
		}
		sort.Strings(statuses)
		parts := make([]string, 0, len(statuses))
		for _, status := range statuses {
			parts = append(parts, fmt.Sprintf("%s=%d", status, s.StatusCounts[types.Status(status)]))
		}
		fmt.Fprintf(&b, "  Statuses:     %s\n", strings.Join(parts, " "))
	}

	fmt.Fprintf(&b, "  Comments:     %d added, %d failed\n", s.CommentsAdded, s.CommentsFailed)
	fmt.Fprintf(&b, "  Dependencies: %d created, %d failed\n", s.DepsCreated, s.DepsFailed)
	fmt.Fprintf(&b, "  Descriptions: %d rewritten\n", s.DescriptionsUpdated)

	if len(s.ValidationWarnings) > 0 {
		fmt.Fprintf(&b, "  Warnings:\n")
		for _, w := range s.ValidationWarnings {
			fmt.Fprintf(&b, "    - %s\n", w)
		}
	}
	if len(s.FailedCreations) > 0 {
		fmt.Fprintf(&b, "  Failed creations:\n")
		for _, f := range s.FailedCreations {
			fmt.Fprintf(&b, "    - %s (%s): %s\n", f.Title, f.Kind, f.Err)
		}
	}
	if refs := s.BrokenRefs(); len(refs) > 0 {
		fmt.Fprintf(&b, "  Broken references:\n")
		for _, ref := range refs {
			fmt.Fprintf(&b, "    - %s\n", ref)
		}
	}

	return b.String()
}
