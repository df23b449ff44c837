package convert

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/steveyegge/bd-trello/internal/trello"
)

// snapshotVersion identifies the snapshot layout for operator debugging.
const snapshotVersion = 1

// Snapshot is a serialized capture of fetched source data. A run pointed
// at an existing snapshot skips every network call to the source API.
type Snapshot struct {
	Version   int                         `json:"version,omitempty"`
	Board     *trello.Board               `json:"board"`
	Lists     []trello.List               `json:"lists"`
	Cards     []trello.Card               `json:"cards"`
	Comments  map[string][]trello.Comment `json:"comments"`
	Timestamp time.Time                   `json:"timestamp"`
}

// LoadSnapshot reads a snapshot file. Callers distinguish a missing file
// (fetch instead) from a corrupt one via os.IsNotExist on the error.
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing snapshot %s: %w", path, err)
	}
	if snap.Board == nil {
		return nil, fmt.Errorf("snapshot %s has no board", path)
	}
	if snap.Comments == nil {
		snap.Comments = make(map[string][]trello.Comment)
	}
	return &snap, nil
}

// Save writes the snapshot as indented JSON.
func (s *Snapshot) Save(path string) error {
	if s.Version == 0 {
		s.Version = snapshotVersion
	}
	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing snapshot %s: %w", path, err)
	}
	return nil
}
