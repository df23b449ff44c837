// Package convert implements the two-pass board migration. Pass 1 creates
// every issue and records source-to-target ID mappings; Pass 2 uses those
// mappings to rewrite cross-reference URLs, add dependency edges, and emit
// comments. Forward references make a single fused pass impossible: a card
// may reference a card that has not been created yet.
package convert

import (
	"context"
	"fmt"
	"os"
	"sort"
	"strings"
	"time"

	"github.com/steveyegge/bd-trello/internal/beadscli"
	"github.com/steveyegge/bd-trello/internal/debug"
	"github.com/steveyegge/bd-trello/internal/statusmap"
	"github.com/steveyegge/bd-trello/internal/trello"
	"github.com/steveyegge/bd-trello/internal/types"
)

// SourceReader is the slice of the Trello client the engine consumes.
type SourceReader interface {
	GetBoard(ctx context.Context, boardID string) (*trello.Board, error)
	GetLists(ctx context.Context, boardID string) ([]trello.List, error)
	GetCards(ctx context.Context, boardID string) ([]trello.Card, error)
	GetCardComments(ctx context.Context, cardID string) ([]trello.Comment, error)
}

// Engine orchestrates the migration. The mapping tables and counters are
// single-writer state owned by the engine for the duration of one run.
type Engine struct {
	Reader SourceReader
	Writer beadscli.Writer
	Mapper *statusmap.Mapper

	DryRun       bool
	SnapshotPath string

	board    *trello.Board
	lists    []trello.List
	cards    []trello.Card
	comments map[string][]trello.Comment

	// cardToIssue and linkToIssue thread the two passes. Keys are the
	// card's API id and its shortLink/shortURL respectively; both must be
	// fully populated before reference resolution starts.
	cardToIssue map[string]string
	linkToIssue map[string]string

	stats *Stats
	now   func() time.Time
}

// NewEngine builds an engine over a source reader, target writer, and
// status mapper.
func NewEngine(reader SourceReader, writer beadscli.Writer, mapper *statusmap.Mapper) *Engine {
	return &Engine{
		Reader:      reader,
		Writer:      writer,
		Mapper:      mapper,
		comments:    make(map[string][]trello.Comment),
		cardToIssue: make(map[string]string),
		linkToIssue: make(map[string]string),
		stats:       newStats(),
		now:         time.Now,
	}
}

// Board returns the migrated board once data has been acquired.
func (e *Engine) Board() *trello.Board { return e.board }

// Run executes the full migration for one board and returns the run
// statistics. Per-card failures are counted, not fatal; only acquisition
// failures abort the run.
func (e *Engine) Run(ctx context.Context, boardID string) (*Stats, error) {
	if err := e.acquireData(ctx, boardID); err != nil {
		return nil, err
	}
	e.stats.TotalCards = len(e.cards)

	e.createIssues(ctx)

	if !e.DryRun && e.stats.IssuesCreated > 0 {
		e.resolveReferences(ctx)
	}
	return e.stats, nil
}

// acquireData loads a snapshot when one exists at the configured path;
// otherwise it fetches everything from the source API and persists a
// snapshot for reuse. Comments are fetched only for cards whose badge
// count reports any.
func (e *Engine) acquireData(ctx context.Context, boardID string) error {
	if e.SnapshotPath != "" {
		snap, err := LoadSnapshot(e.SnapshotPath)
		switch {
		case err == nil:
			debug.Logf("using snapshot %s (saved %s)\n", e.SnapshotPath, snap.Timestamp.Format(time.RFC3339))
			e.board, e.lists, e.cards, e.comments = snap.Board, snap.Lists, snap.Cards, snap.Comments
			return nil
		case !os.IsNotExist(err):
			return fmt.Errorf("loading snapshot: %w", err)
		}
	}

	board, err := e.Reader.GetBoard(ctx, boardID)
	if err != nil {
		return fmt.Errorf("fetching board: %w", err)
	}
	lists, err := e.Reader.GetLists(ctx, boardID)
	if err != nil {
		return fmt.Errorf("fetching lists: %w", err)
	}
	cards, err := e.Reader.GetCards(ctx, boardID)
	if err != nil {
		return fmt.Errorf("fetching cards: %w", err)
	}

	comments := make(map[string][]trello.Comment)
	for _, card := range cards {
		if card.Badges.Comments == 0 {
			continue
		}
		cs, err := e.Reader.GetCardComments(ctx, card.ID)
		if err != nil {
			return fmt.Errorf("fetching comments for card %s: %w", card.ID, err)
		}
		comments[card.ID] = cs
	}

	e.board, e.lists, e.cards, e.comments = board, lists, cards, comments

	if e.SnapshotPath != "" {
		snap := &Snapshot{Board: board, Lists: lists, Cards: cards, Comments: comments, Timestamp: e.now()}
		if err := snap.Save(e.SnapshotPath); err != nil {
			debug.Warnf("saving snapshot: %v\n", err)
		}
	}
	return nil
}

// sortedCards orders cards by (list id, position) so output ordering and
// the position heuristic are reproducible across runs.
func (e *Engine) sortedCards() []trello.Card {
	cards := append([]trello.Card(nil), e.cards...)
	sort.SliceStable(cards, func(i, j int) bool {
		if cards[i].IDList != cards[j].IDList {
			return cards[i].IDList < cards[j].IDList
		}
		return cards[i].Pos < cards[j].Pos
	})
	return cards
}

func (e *Engine) listNames() map[string]string {
	names := make(map[string]string, len(e.lists))
	for _, l := range e.lists {
		names[l.ID] = l.Name
	}
	return names
}

// createIssues is Pass 1: one issue per card (plus children for checklist
// cards), recording ID mappings as creations succeed.
func (e *Engine) createIssues(ctx context.Context) {
	names := e.listNames()
	priorities := positionPriorities(e.cards)

	for _, card := range e.sortedCards() {
		e.convertCard(ctx, card, names[card.IDList], priorities[card.ID])
	}
}

func (e *Engine) convertCard(ctx context.Context, card trello.Card, listName string, posPriority int) {
	title := strings.TrimSpace(card.Name)
	if title == "" {
		e.stats.warn("card %s has an empty title, skipped", card.ID)
		debug.Warnf("skipping card %s: empty title\n", card.ID)
		return
	}

	status := e.Mapper.Map(listName)
	priority := cardPriority(posPriority, card.LastActivity(), e.now())

	issueType := types.TypeTask
	if len(card.Checklists) > 0 {
		issueType = types.TypeEpic
	}

	req := beadscli.CreateRequest{
		Title:       title,
		Description: buildDescription(card.Desc, card.Attachments, nil),
		Status:      status,
		Priority:    priority,
		Type:        issueType,
		Labels:      cardLabels(listName, card.Labels),
		ExternalRef: "trello:" + card.ShortLink,
	}
	// The tracker's create path does not reliably honor a closed initial
	// state end to end; closed issues are materialized open and then
	// transitioned.
	if status == types.StatusClosed {
		req.Status = types.StatusOpen
	}

	e.stats.IssuesAttempted++
	issueID, err := e.Writer.CreateIssue(ctx, req)
	if err != nil {
		e.recordFailure(title, string(issueType), err)
		return
	}
	e.stats.IssuesCreated++
	e.stats.StatusCounts[status]++
	if issueType == types.TypeEpic {
		e.stats.Epics++
	} else {
		e.stats.Tasks++
	}

	if status == types.StatusClosed {
		if err := e.Writer.UpdateStatus(ctx, issueID, types.StatusClosed); err != nil {
			debug.Warnf("closing %s: %v\n", issueID, err)
		}
	}

	e.cardToIssue[card.ID] = issueID
	if card.ShortLink != "" {
		e.linkToIssue[card.ShortLink] = issueID
	}
	if card.ShortURL != "" {
		e.linkToIssue[card.ShortURL] = issueID
	}

	if issueType == types.TypeEpic {
		e.convertChecklists(ctx, card, issueID, listName, priority)
	}
	debug.Logf("created %s for card %q (%s)\n", issueID, title, status)
}

// convertChecklists creates one child task per check-item and links each
// to its epic. Completed items are created open then closed: both the
// status transition and the dependency edge need the issue to exist first.
func (e *Engine) convertChecklists(ctx context.Context, card trello.Card, epicID, listName string, priority int) {
	multi := len(card.Checklists) > 1

	for _, checklist := range card.Checklists {
		for _, item := range checklist.CheckItems {
			title := strings.TrimSpace(item.Name)
			if title == "" {
				e.stats.warn("checklist item in card %s has an empty name, skipped", card.ID)
				continue
			}
			if multi {
				title = "[" + checklist.Name + "] " + title
			}

			req := beadscli.CreateRequest{
				Title:    title,
				Status:   types.StatusOpen,
				Priority: priority,
				Type:     types.TypeTask,
				Labels:   []string{"epic:" + epicID, "list:" + sanitizeLabel(listName)},
			}

			e.stats.IssuesAttempted++
			childID, err := e.Writer.CreateIssue(ctx, req)
			if err != nil {
				e.recordFailure(title, "task", err)
				continue
			}
			e.stats.IssuesCreated++
			e.stats.Children++

			if item.State == trello.CheckItemComplete {
				if err := e.Writer.UpdateStatus(ctx, childID, types.StatusClosed); err != nil {
					debug.Warnf("closing %s: %v\n", childID, err)
					e.stats.StatusCounts[types.StatusOpen]++
				} else {
					e.stats.StatusCounts[types.StatusClosed]++
				}
			} else {
				e.stats.StatusCounts[types.StatusOpen]++
			}

			if err := e.Writer.AddDependency(ctx, childID, epicID, types.DepParentChild); err != nil {
				debug.Warnf("linking %s to epic %s: %v\n", childID, epicID, err)
				e.stats.DepsFailed++
			} else {
				e.stats.DepsCreated++
			}
		}
	}
}

func (e *Engine) recordFailure(title, kind string, err error) {
	debug.Warnf("creating %q (%s): %v\n", title, kind, err)
	e.stats.FailedCreations = append(e.stats.FailedCreations, FailedCreation{
		Title: title,
		Kind:  kind,
		Err:   err.Error(),
	})
}

// resolveReferences is Pass 2: with every mapping recorded, rewrite card
// URLs in descriptions, turn cross-references into related edges, and emit
// comments oldest-first.
func (e *Engine) resolveReferences(ctx context.Context) {
	for _, card := range e.sortedCards() {
		issueID, ok := e.cardToIssue[card.ID]
		if !ok {
			continue
		}
		e.resolveCard(ctx, card, issueID)
	}
}

type resolvedComment struct {
	body   string
	author string
}

func (e *Engine) resolveCard(ctx context.Context, card trello.Card, issueID string) {
	referenced := make(map[string]struct{})

	resolvedDesc, descChanged := e.resolveText(card.Desc, issueID, referenced)

	var related []string
	for _, att := range card.Attachments {
		for _, ref := range trello.ExtractCardRefs(att.URL) {
			target, ok := e.linkToIssue[ref.ShortLink]
			if !ok {
				e.stats.addBrokenRef(ref.ShortLink)
				continue
			}
			if target == issueID {
				continue
			}
			related = append(related, fmt.Sprintf("See %s (%s)", target, att.Name))
			referenced[target] = struct{}{}
		}
	}

	// Comment references are collected before edges are written so a URL
	// appearing only in a comment still yields a related edge.
	raw := e.comments[card.ID]
	resolved := make([]resolvedComment, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		c := raw[i]
		text, _ := e.resolveText(c.Data.Text, issueID, referenced)
		author := c.MemberCreator.FullName
		if author == "" {
			author = c.MemberCreator.Username
		}
		resolved = append(resolved, resolvedComment{
			body:   fmt.Sprintf("[%s] %s", c.Date, text),
			author: author,
		})
	}

	if descChanged || len(related) > 0 {
		full := buildDescription(resolvedDesc, card.Attachments, related)
		if err := e.Writer.UpdateDescription(ctx, issueID, full); err != nil {
			debug.Warnf("updating description of %s: %v\n", issueID, err)
		} else {
			e.stats.DescriptionsUpdated++
		}
	}

	targets := make([]string, 0, len(referenced))
	for target := range referenced {
		targets = append(targets, target)
	}
	sort.Strings(targets)
	for _, target := range targets {
		if err := e.Writer.AddDependency(ctx, issueID, target, types.DepRelated); err != nil {
			debug.Warnf("relating %s to %s: %v\n", issueID, target, err)
			e.stats.DepsFailed++
		} else {
			e.stats.DepsCreated++
		}
	}

	for _, rc := range resolved {
		if err := e.Writer.AddComment(ctx, issueID, rc.body, rc.author); err != nil {
			debug.Warnf("commenting on %s: %v\n", issueID, err)
			e.stats.CommentsFailed++
		} else {
			e.stats.CommentsAdded++
		}
	}
}

// resolveText replaces every resolvable card URL in text with "See <id>".
// Self-references are left untouched and never recorded; unresolvable
// links are recorded as broken references. Resolved targets are added to
// the referenced set.
func (e *Engine) resolveText(text, selfID string, referenced map[string]struct{}) (string, bool) {
	refs := trello.ExtractCardRefs(text)
	if len(refs) == 0 {
		return text, false
	}

	var b strings.Builder
	last := 0
	changed := false
	for _, ref := range refs {
		target, ok := e.linkToIssue[ref.ShortLink]
		if !ok {
			e.stats.addBrokenRef(ref.ShortLink)
			continue
		}
		if target == selfID {
			continue
		}
		b.WriteString(text[last:ref.Start])
		b.WriteString("See " + target)
		last = ref.End
		changed = true
		referenced[target] = struct{}{}
	}
	if !changed {
		return text, false
	}
	b.WriteString(text[last:])
	return b.String(), true
}

// buildDescription assembles an issue description from the card text, an
// attachments section, and any related-issue entries discovered during
// reference resolution. Checklists and comments are deliberately absent:
// checklists become child issues, comments become native comment records.
func buildDescription(desc string, attachments []trello.Attachment, related []string) string {
	var b strings.Builder
	b.WriteString(desc)

	if len(attachments) > 0 {
		b.WriteString("\n\n## Attachments\n")
		for _, att := range attachments {
			fmt.Fprintf(&b, "- %s: %s", att.Name, att.URL)
			if att.Bytes > 0 {
				fmt.Fprintf(&b, " (%d bytes)", att.Bytes)
			}
			b.WriteString("\n")
		}
	}

	if len(related) > 0 {
		b.WriteString("\n\n## Related Issues\n")
		for _, entry := range related {
			b.WriteString("- " + entry + "\n")
		}
	}

	return strings.TrimSpace(b.String())
}

// cardLabels builds the label set for a card: its list plus every source
// label. Commas are stripped because they are the CLI's label separator.
func cardLabels(listName string, labels []trello.Label) []string {
	out := []string{"list:" + sanitizeLabel(listName)}
	for _, l := range labels {
		if l.Name == "" {
			continue
		}
		out = append(out, "trello-label:"+sanitizeLabel(l.Name))
	}
	return out
}

func sanitizeLabel(s string) string {
	return strings.ReplaceAll(s, ",", "")
}
