package beadscli

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/steveyegge/bd-trello/internal/types"
)

// recordingWriter assigns sequential IDs keyed off the request title and
// tracks peak concurrency.
type recordingWriter struct {
	mu      sync.Mutex
	seq     int
	created []string
	failOn  map[string]bool

	inFlight atomic.Int64
	peak     atomic.Int64
}

func (w *recordingWriter) CreateIssue(_ context.Context, req CreateRequest) (string, error) {
	cur := w.inFlight.Add(1)
	defer w.inFlight.Add(-1)
	for {
		p := w.peak.Load()
		if cur <= p || w.peak.CompareAndSwap(p, cur) {
			break
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.failOn[req.Title] {
		return "", fmt.Errorf("simulated failure for %q", req.Title)
	}
	w.seq++
	id := fmt.Sprintf("bd-%d", w.seq)
	w.created = append(w.created, req.Title)
	return id, nil
}

func (w *recordingWriter) UpdateStatus(context.Context, string, types.Status) error { return nil }
func (w *recordingWriter) UpdateDescription(context.Context, string, string) error  { return nil }
func (w *recordingWriter) AddComment(context.Context, string, string, string) error { return nil }
func (w *recordingWriter) AddDependency(context.Context, string, string, types.DependencyType) error {
	return nil
}
func (w *recordingWriter) GetIssue(context.Context, string) (*types.Issue, error) {
	return nil, fmt.Errorf("not implemented")
}

func makeRequests(n int) []CreateRequest {
	reqs := make([]CreateRequest, n)
	for i := range reqs {
		reqs[i] = CreateRequest{Title: fmt.Sprintf("issue %d", i)}
	}
	return reqs
}

func TestBatchCreateSerial(t *testing.T) {
	w := &recordingWriter{}
	results := BatchCreate(context.Background(), w, makeRequests(5), 1)

	require.Len(t, results, 5)
	for i, id := range results {
		assert.NotEmpty(t, id, "slot %d", i)
	}
	// Serial execution preserves submission order exactly.
	assert.Equal(t, []string{"issue 0", "issue 1", "issue 2", "issue 3", "issue 4"}, w.created)
}

func TestBatchCreateConcurrentOrderPreserved(t *testing.T) {
	w := &recordingWriter{}
	reqs := makeRequests(50)
	results := BatchCreate(context.Background(), w, reqs, 8)

	require.Len(t, results, 50)
	seen := make(map[string]bool)
	for i, id := range results {
		assert.NotEmpty(t, id, "slot %d", i)
		assert.False(t, seen[id], "duplicate id %s", id)
		seen[id] = true
	}
}

func TestBatchCreateRespectsWorkerCap(t *testing.T) {
	w := &recordingWriter{}
	BatchCreate(context.Background(), w, makeRequests(40), 4)
	assert.LessOrEqual(t, w.peak.Load(), int64(4))
}

func TestBatchCreateFailureIsolation(t *testing.T) {
	w := &recordingWriter{failOn: map[string]bool{"issue 2": true, "issue 7": true}}
	results := BatchCreate(context.Background(), w, makeRequests(10), 3)

	require.Len(t, results, 10)
	for i, id := range results {
		if i == 2 || i == 7 {
			assert.Empty(t, id, "failed slot %d must stay empty", i)
		} else {
			assert.NotEmpty(t, id, "slot %d", i)
		}
	}
}

func TestBatchCreateEmpty(t *testing.T) {
	w := &recordingWriter{}
	assert.Nil(t, BatchCreate(context.Background(), w, nil, 4))
}
