// Package statusmap translates Trello list names into bd lifecycle states.
//
// Matching is a case-insensitive substring check against keyword buckets,
// evaluated in a fixed priority order so that a list like "Done Doing"
// resolves to closed rather than in_progress.
package statusmap

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/steveyegge/bd-trello/internal/types"
)

// bucketOrder is the precedence for keyword matching:
// closed > blocked > deferred > in_progress > open.
var bucketOrder = []types.Status{
	types.StatusClosed,
	types.StatusBlocked,
	types.StatusDeferred,
	types.StatusInProgress,
	types.StatusOpen,
}

// defaultKeywords is the built-in keyword table. It is never mutated;
// overrides are overlaid onto a copy at construction time.
var defaultKeywords = map[types.Status][]string{
	types.StatusClosed:     {"done", "complete", "finished", "shipped", "released", "archive"},
	types.StatusBlocked:    {"blocked", "stuck", "waiting", "on hold"},
	types.StatusDeferred:   {"backlog", "later", "someday", "icebox", "deferred", "future", "parking"},
	types.StatusInProgress: {"doing", "in progress", "wip", "active", "current", "review"},
	types.StatusOpen:       {"to do", "todo", "open", "new", "inbox", "next"},
}

// Mapper resolves list names to statuses using the default table plus any
// per-instance overrides.
type Mapper struct {
	keywords map[types.Status][]string
}

// New returns a Mapper using the built-in keyword table.
func New() *Mapper {
	return &Mapper{keywords: copyTable(defaultKeywords)}
}

// NewWithOverrides loads a JSON override file and overlays it on the
// defaults. Buckets absent from the file keep their default keywords.
//
// The file must be a JSON object whose keys are among the five recognized
// statuses and whose values are arrays of strings, e.g.:
//
//	{"closed": ["fertig", "erledigt"], "in_progress": ["in arbeit"]}
func NewWithOverrides(path string) (*Mapper, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading status mapping %s: %w", path, err)
	}

	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("status mapping %s is not a JSON object: %w", path, err)
	}

	table := copyTable(defaultKeywords)
	for key, val := range raw {
		status := types.Status(key)
		if !status.IsValid() {
			return nil, fmt.Errorf("status mapping %s: unknown status %q (expected open|in_progress|blocked|deferred|closed)", path, key)
		}
		var keywords []string
		if err := json.Unmarshal(val, &keywords); err != nil {
			return nil, fmt.Errorf("status mapping %s: value for %q must be a list of strings: %w", path, key, err)
		}
		table[status] = keywords
	}

	return &Mapper{keywords: table}, nil
}

// Map resolves a Trello list name to a destination status. The first
// bucket (in priority order) containing a keyword that appears in the
// list name wins; no match defaults to open.
func (m *Mapper) Map(listName string) types.Status {
	lower := strings.ToLower(listName)
	for _, status := range bucketOrder {
		for _, keyword := range m.keywords[status] {
			if strings.Contains(lower, keyword) {
				return status
			}
		}
	}
	return types.StatusOpen
}

func copyTable(src map[types.Status][]string) map[types.Status][]string {
	dst := make(map[types.Status][]string, len(src))
	for status, keywords := range src {
		dst[status] = append([]string(nil), keywords...)
	}
	return dst
}
