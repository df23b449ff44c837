package convert

import (
	"sort"
	"time"

	"github.com/steveyegge/bd-trello/internal/trello"
)

// staleAfter is the inactivity window beyond which a card is promoted to
// top priority to surface forgotten work.
const staleAfter = 90 * 24 * time.Hour

// positionPriorities derives a priority for every card from its rank
// within its list: the top two positions get priority 1, the last gets 3,
// everything else (and any card in a single-card list) gets 2.
func positionPriorities(cards []trello.Card) map[string]int {
	byList := make(map[string][]trello.Card)
	for _, card := range cards {
		byList[card.IDList] = append(byList[card.IDList], card)
	}

	priorities := make(map[string]int, len(cards))
	for _, group := range byList {
		sort.SliceStable(group, func(i, j int) bool { return group[i].Pos < group[j].Pos })
		for i, card := range group {
			switch {
			case len(group) == 1:
				priorities[card.ID] = 2
			case i <= 1:
				priorities[card.ID] = 1
			case i == len(group)-1:
				priorities[card.ID] = 3
			default:
				priorities[card.ID] = 2
			}
		}
	}
	return priorities
}

// cardPriority applies the recency override on top of the position-derived
// priority: a card untouched for 90 days or more is promoted to 1 unless
// it is already there. Missing or malformed timestamps skip the override.
func cardPriority(posPriority int, lastActivity, now time.Time) int {
	if posPriority == 1 || lastActivity.IsZero() {
		return posPriority
	}
	if now.Sub(lastActivity) >= staleAfter {
		return 1
	}
	return posPriority
}
