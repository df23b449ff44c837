// Package trello provides a rate-limited, retrying client for the Trello
// REST API, plus URL parsing helpers for boards and cards.
package trello

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/cenkalti/backoff/v4"

	"github.com/steveyegge/bd-trello/internal/debug"
	"github.com/steveyegge/bd-trello/internal/ratelimit"
)

const (
	defaultBaseURL = "https://api.trello.com/1"

	// pageLimit is Trello's maximum page size for listing endpoints.
	pageLimit = 1000

	// maxAttempts is the total number of tries for transient failures
	// (initial attempt plus retries at 1s and 2s).
	maxAttempts = 3
)

// Client provides authenticated HTTP access to the Trello API.
// Key/token credentials are sent as query parameters on every request.
type Client struct {
	BaseURL        string
	HTTPClient     *http.Client
	Limiter        *ratelimit.Limiter
	AcquireTimeout time.Duration

	key   string
	token string

	// newBackoff returns a fresh retry policy per logical request.
	// Overridable in tests to avoid real sleeps.
	newBackoff func() backoff.BackOff
}

// NewClient creates a Trello client with default rate limiting and retry
// policy.
func NewClient(key, token string) *Client {
	return &Client{
		BaseURL: defaultBaseURL,
		HTTPClient: &http.Client{
			Timeout: 30 * time.Second,
		},
		Limiter:        ratelimit.New(ratelimit.DefaultRate, ratelimit.DefaultBurst),
		AcquireTimeout: 30 * time.Second,
		key:            key,
		token:          token,
		newBackoff:     newRetryBackoff,
	}
}

// newRetryBackoff builds the transient-failure retry policy: exponential
// delays of 1s then 2s, three attempts total, no jitter.
// BackOff implementations are stateful; always return a fresh instance.
func newRetryBackoff() backoff.BackOff {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = 1 * time.Second
	bo.Multiplier = 2
	bo.RandomizationFactor = 0
	bo.MaxInterval = 4 * time.Second
	// NewExponentialBackOff snapshots currentInterval from the default
	// InitialInterval; Reset again so the configured 1s applies immediately.
	bo.Reset()
	return backoff.WithMaxRetries(bo, maxAttempts-1)
}

// GetBoard fetches a board's name and URL.
func (c *Client) GetBoard(ctx context.Context, boardID string) (*Board, error) {
	var board Board
	params := url.Values{"fields": {"name,url"}}
	if err := c.get(ctx, "/boards/"+boardID, params, "board "+boardID, &board); err != nil {
		return nil, err
	}
	return &board, nil
}

// GetLists fetches the open lists on a board, in board order.
func (c *Client) GetLists(ctx context.Context, boardID string) ([]List, error) {
	var lists []List
	params := url.Values{"fields": {"name,pos"}}
	if err := c.get(ctx, "/boards/"+boardID+"/lists", params, "lists for board "+boardID, &lists); err != nil {
		return nil, err
	}
	return lists, nil
}

// GetCards fetches every card on a board with all relationships expanded
// in the same call: attachments, checklists with items, members, custom
// fields, and stickers. Results beyond Trello's 1000-item page cap are
// fetched with a before-cursor.
func (c *Client) GetCards(ctx context.Context, boardID string) ([]Card, error) {
	params := url.Values{
		"attachments":      {"true"},
		"checklists":       {"all"},
		"members":          {"true"},
		"customFieldItems": {"true"},
		"stickers":         {"true"},
	}

	raw, err := c.getPaginated(ctx, "/boards/"+boardID+"/cards", params, "cards for board "+boardID)
	if err != nil {
		return nil, err
	}

	cards := make([]Card, 0, len(raw))
	for _, item := range raw {
		var card Card
		if err := json.Unmarshal(item, &card); err != nil {
			return nil, fmt.Errorf("parsing card: %w", err)
		}
		cards = append(cards, card)
	}
	return cards, nil
}

// GetCardComments fetches a card's comment actions. The API returns them
// newest-first; callers needing chronological order must reverse.
func (c *Client) GetCardComments(ctx context.Context, cardID string) ([]Comment, error) {
	params := url.Values{"filter": {"commentCard"}}

	raw, err := c.getPaginated(ctx, "/cards/"+cardID+"/actions", params, "comments for card "+cardID)
	if err != nil {
		return nil, err
	}

	comments := make([]Comment, 0, len(raw))
	for _, item := range raw {
		var comment Comment
		if err := json.Unmarshal(item, &comment); err != nil {
			return nil, fmt.Errorf("parsing comment: %w", err)
		}
		comments = append(comments, comment)
	}
	return comments, nil
}

// getPaginated fetches a listing endpoint page by page. Pagination stops
// when a page comes back short, empty, or with items that carry no id
// (in which case a cursor cannot be set safely). Caller-supplied filter
// parameters are carried unchanged onto every page.
func (c *Client) getPaginated(ctx context.Context, path string, params url.Values, resource string) ([]json.RawMessage, error) {
	p := cloneValues(params)
	p.Set("limit", strconv.Itoa(pageLimit))

	var all []json.RawMessage
	for {
		var page []json.RawMessage
		if err := c.get(ctx, path, p, resource, &page); err != nil {
			return nil, err
		}
		all = append(all, page...)

		if len(page) < pageLimit {
			break
		}
		lastID := itemID(page[len(page)-1])
		if lastID == "" {
			debug.Logf("pagination: last item of %s has no id, stopping\n", path)
			break
		}
		p.Set("before", lastID)
	}
	return all, nil
}

// transientError carries a retryable HTTP failure through the backoff loop.
type transientError struct {
	statusCode int
	body       string
}

func (e *transientError) Error() string {
	return fmt.Sprintf("transient HTTP %d: %s", e.statusCode, excerpt(e.body))
}

// get performs one logical GET: acquire a rate-limit token, then issue the
// request with classified retry. The URL (including auth and filters) is
// built once and identical across retries.
func (c *Client) get(ctx context.Context, path string, params url.Values, resource string, out interface{}) error {
	if !c.Limiter.Acquire(c.AcquireTimeout) {
		return fmt.Errorf("trello request budget exhausted: no rate-limit token within %v", c.AcquireTimeout)
	}

	q := cloneValues(params)
	q.Set("key", c.key)
	q.Set("token", c.token)
	reqURL := c.BaseURL + path + "?" + q.Encode()

	var body []byte
	attempts := 0
	var lastTransient *transientError

	op := func() error {
		attempts++
		lastTransient = nil

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, reqURL, nil)
		if err != nil {
			return backoff.Permanent(fmt.Errorf("creating request: %w", err))
		}
		req.Header.Set("Accept", "application/json")

		resp, err := c.HTTPClient.Do(req)
		if err != nil {
			// Network-level failure (timeout, connection refused): retryable.
			return err
		}
		defer func() { _ = resp.Body.Close() }()

		respBody, err := io.ReadAll(resp.Body)
		if err != nil {
			return fmt.Errorf("reading response: %w", err)
		}

		switch classifyStatus(resp.StatusCode) {
		case classOK:
			body = respBody
			return nil
		case classAuth:
			return backoff.Permanent(&AuthError{StatusCode: resp.StatusCode, Body: string(respBody)})
		case classNotFound:
			return backoff.Permanent(&NotFoundError{Resource: resource})
		case classRetry:
			lastTransient = &transientError{statusCode: resp.StatusCode, body: string(respBody)}
			debug.Logf("trello GET %s: HTTP %d, attempt %d/%d\n", path, resp.StatusCode, attempts, maxAttempts)
			return lastTransient
		default:
			return backoff.Permanent(&HTTPError{StatusCode: resp.StatusCode, Body: string(respBody)})
		}
	}

	if err := backoff.Retry(op, backoff.WithContext(c.newBackoff(), ctx)); err != nil {
		if lastTransient != nil {
			if lastTransient.statusCode == http.StatusTooManyRequests {
				return &RateLimitError{Attempts: attempts, Body: lastTransient.body}
			}
			return &ServerError{StatusCode: lastTransient.statusCode, Attempts: attempts, Body: lastTransient.body}
		}
		return fmt.Errorf("trello GET %s failed after %d attempts: %w", path, attempts, err)
	}

	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("parsing trello response for %s: %w", resource, err)
	}
	return nil
}

// itemID probes a raw listing item for its id field.
func itemID(raw json.RawMessage) string {
	var probe struct {
		ID string `json:"id"`
	}
	if err := json.Unmarshal(raw, &probe); err != nil {
		return ""
	}
	return probe.ID
}

func cloneValues(src url.Values) url.Values {
	dst := make(url.Values, len(src))
	for k, vs := range src {
		dst[k] = append([]string(nil), vs...)
	}
	return dst
}
