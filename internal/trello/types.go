package trello

import "time"

// Board represents a Trello board from the REST API.
type Board struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	URL  string `json:"url"`
}

// List represents a Trello list (column) on a board.
type List struct {
	ID   string  `json:"id"`
	Name string  `json:"name"`
	Pos  float64 `json:"pos"`
}

// Card represents a Trello card with all relationships expanded.
type Card struct {
	ID               string       `json:"id"`
	Name             string       `json:"name"`
	Desc             string       `json:"desc"`
	IDList           string       `json:"idList"`
	Pos              float64      `json:"pos"`
	ShortLink        string       `json:"shortLink"`
	ShortURL         string       `json:"shortUrl"`
	Labels           []Label      `json:"labels"`
	Checklists       []Checklist  `json:"checklists"`
	Attachments      []Attachment `json:"attachments"`
	Badges           Badges       `json:"badges"`
	DateLastActivity string       `json:"dateLastActivity"`
}

// Label represents a board label attached to a card.
type Label struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Color string `json:"color"`
}

// Checklist represents a checklist with its ordered items.
type Checklist struct {
	ID         string      `json:"id"`
	Name       string      `json:"name"`
	CheckItems []CheckItem `json:"checkItems"`
}

// CheckItem state values as reported by the Trello API.
const (
	CheckItemComplete   = "complete"
	CheckItemIncomplete = "incomplete"
)

// CheckItem is a single entry in a checklist.
type CheckItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	State string  `json:"state"`
	Pos   float64 `json:"pos"`
}

// Attachment is a file or URL attached to a card.
type Attachment struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	URL   string `json:"url"`
	Bytes int64  `json:"bytes"`
}

// Badges carries the card's summary counters. Only the comment count is
// used: comments are fetched lazily and only when the count is nonzero.
type Badges struct {
	Comments int `json:"comments"`
}

// Comment is a commentCard action. The API returns these newest-first;
// consumers that need chronological order must reverse them.
type Comment struct {
	ID            string      `json:"id"`
	Date          string      `json:"date"`
	Data          CommentData `json:"data"`
	MemberCreator Member      `json:"memberCreator"`
}

// CommentData holds the comment text.
type CommentData struct {
	Text string `json:"text"`
}

// Member identifies a comment's author.
type Member struct {
	ID       string `json:"id"`
	FullName string `json:"fullName"`
	Username string `json:"username"`
}

// ParsedDate parses the comment's ISO 8601 timestamp. Returns the zero
// time when the date is missing or malformed.
func (c *Comment) ParsedDate() time.Time {
	t, err := time.Parse(time.RFC3339, c.Date)
	if err != nil {
		return time.Time{}
	}
	return t
}

// LastActivity parses the card's dateLastActivity timestamp. Returns the
// zero time when missing or malformed; callers skip recency heuristics in
// that case.
func (c *Card) LastActivity() time.Time {
	t, err := time.Parse(time.RFC3339, c.DateLastActivity)
	if err != nil {
		return time.Time{}
	}
	return t
}
