package convert

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/steveyegge/bd-trello/internal/trello"
)

func posCard(id, listID string, pos float64) trello.Card {
	return trello.Card{ID: id, IDList: listID, Pos: pos}
}

func TestPositionPriorities(t *testing.T) {
	cards := []trello.Card{
		// Five-card list: top two high, last low, middle medium.
		posCard("a1", "l1", 1),
		posCard("a2", "l1", 2),
		posCard("a3", "l1", 3),
		posCard("a4", "l1", 4),
		posCard("a5", "l1", 5),
		// Single-card list.
		posCard("b1", "l2", 1),
		// Out-of-order positions still rank by position, not input order.
		posCard("c2", "l3", 20),
		posCard("c1", "l3", 10),
		posCard("c3", "l3", 30),
	}

	got := positionPriorities(cards)

	assert.Equal(t, 1, got["a1"])
	assert.Equal(t, 1, got["a2"])
	assert.Equal(t, 2, got["a3"])
	assert.Equal(t, 2, got["a4"])
	assert.Equal(t, 3, got["a5"])

	assert.Equal(t, 2, got["b1"])

	assert.Equal(t, 1, got["c1"])
	assert.Equal(t, 1, got["c2"])
	assert.Equal(t, 3, got["c3"])
}

func TestCardPriorityRecencyOverride(t *testing.T) {
	now := time.Date(2026, 8, 15, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name         string
		posPriority  int
		lastActivity time.Time
		want         int
	}{
		{"recent keeps position priority", 2, now.AddDate(0, 0, -10), 2},
		{"stale promotes to 1", 2, now.AddDate(0, 0, -120), 1},
		{"stale low priority promotes", 3, now.AddDate(0, 0, -91), 1},
		{"exactly 90 days promotes", 2, now.Add(-staleAfter), 1},
		{"already top stays", 1, now.AddDate(0, 0, -200), 1},
		{"missing timestamp skips override", 3, time.Time{}, 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, cardPriority(tt.posPriority, tt.lastActivity, now))
		})
	}
}
