package statusmap

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/steveyegge/bd-trello/internal/types"
)

func TestMapDefaults(t *testing.T) {
	m := New()

	tests := []struct {
		listName string
		want     types.Status
	}{
		{"Done", types.StatusClosed},
		{"Shipped 🚀", types.StatusClosed},
		{"Blocked", types.StatusBlocked},
		{"On Hold", types.StatusBlocked},
		{"Backlog", types.StatusDeferred},
		{"Someday/Maybe", types.StatusDeferred},
		{"Doing", types.StatusInProgress},
		{"In Progress", types.StatusInProgress},
		{"To Do", types.StatusOpen},
		{"Inbox", types.StatusOpen},
		{"Random List Name", types.StatusOpen}, // no match defaults to open
	}

	for _, tt := range tests {
		if got := m.Map(tt.listName); got != tt.want {
			t.Errorf("Map(%q) = %q, want %q", tt.listName, got, tt.want)
		}
	}
}

// Bucket priority is closed > blocked > deferred > in_progress > open:
// when a list name matches keywords from several buckets, the
// highest-priority bucket wins.
func TestMapBucketPriority(t *testing.T) {
	m := New()

	tests := []struct {
		listName string
		want     types.Status
	}{
		{"Done Doing", types.StatusClosed},
		{"Blocked Later", types.StatusBlocked},
		{"Backlog Doing", types.StatusDeferred},
		{"Doing To Do", types.StatusInProgress},
	}

	for _, tt := range tests {
		if got := m.Map(tt.listName); got != tt.want {
			t.Errorf("Map(%q) = %q, want %q", tt.listName, got, tt.want)
		}
	}
}

func TestMapCaseInsensitive(t *testing.T) {
	m := New()
	if got := m.Map("DONE"); got != types.StatusClosed {
		t.Errorf("Map(DONE) = %q, want closed", got)
	}
	if got := m.Map("dOiNg"); got != types.StatusInProgress {
		t.Errorf("Map(dOiNg) = %q, want in_progress", got)
	}
}

func writeOverride(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "mapping.json")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestOverridesReplaceBucket(t *testing.T) {
	path := writeOverride(t, `{"closed": ["fertig"], "in_progress": ["in arbeit"]}`)

	m, err := NewWithOverrides(path)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if got := m.Map("Fertig"); got != types.StatusClosed {
		t.Errorf("Map(Fertig) = %q, want closed", got)
	}
	if got := m.Map("In Arbeit"); got != types.StatusInProgress {
		t.Errorf("Map(In Arbeit) = %q, want in_progress", got)
	}
	// Overridden bucket no longer matches the default keywords.
	if got := m.Map("Done"); got == types.StatusClosed {
		t.Error("Map(Done) should not resolve to closed after override")
	}
	// Untouched buckets keep their defaults.
	if got := m.Map("Blocked"); got != types.StatusBlocked {
		t.Errorf("Map(Blocked) = %q, want blocked", got)
	}
}

func TestOverridesDoNotMutateDefaults(t *testing.T) {
	path := writeOverride(t, `{"closed": ["fertig"]}`)
	if _, err := NewWithOverrides(path); err != nil {
		t.Fatal(err)
	}

	// A fresh default mapper is unaffected by the earlier override.
	if got := New().Map("Done"); got != types.StatusClosed {
		t.Errorf("default table was mutated: Map(Done) = %q", got)
	}
}

func TestOverrideValidation(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", `not json at all`},
		{"unknown status", `{"resolved": ["done"]}`},
		{"value not a list", `{"closed": "done"}`},
		{"value not strings", `{"closed": [1, 2]}`},
		{"top level array", `["closed"]`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := writeOverride(t, tt.content)
			if _, err := NewWithOverrides(path); err == nil {
				t.Errorf("expected error for %s", tt.name)
			}
		})
	}
}

func TestOverrideMissingFile(t *testing.T) {
	if _, err := NewWithOverrides(filepath.Join(t.TempDir(), "absent.json")); err == nil {
		t.Error("expected error for missing file")
	}
}
