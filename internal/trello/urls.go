package trello

import (
	"fmt"
	"regexp"
	"strings"
)

// boardURLPattern matches a Trello board URL in any of the accepted forms:
// with or without protocol, with or without "www.", with or without a
// trailing board-name slug or query string. The whole input must be a
// board URL; card (/c/) and workspace (/w/) URLs do not match.
var boardURLPattern = regexp.MustCompile(`^(?:https?://)?(?:www\.)?trello\.com/b/([A-Za-z0-9]+)(?:/[^?\s]*)?(?:\?\S*)?$`)

// cardURLPattern matches Trello card URLs embedded in free text. The match
// terminates at whitespace or a closing parenthesis so markdown links like
// "[title](https://trello.com/c/abc123)" capture cleanly.
var cardURLPattern = regexp.MustCompile(`(?:https?://)?(?:www\.)?trello\.com/c/([A-Za-z0-9]+)(?:/[^\s)]*)?`)

// ParseBoardURL extracts the board identifier from a Trello board URL.
// For example, "https://trello.com/b/TEST1234/my-board?filter=open"
// returns "TEST1234".
func ParseBoardURL(rawURL string) (string, error) {
	trimmed := strings.TrimSpace(rawURL)
	if trimmed == "" {
		return "", fmt.Errorf("board URL is empty")
	}

	m := boardURLPattern.FindStringSubmatch(trimmed)
	if m == nil {
		return "", fmt.Errorf("not a Trello board URL: %q (expected trello.com/b/<id>, not a card or workspace URL)", rawURL)
	}
	return m[1], nil
}

// CardRef is a card URL found in free text. Start and End delimit the URL
// substring; ShortLink is the card's short link captured from the path.
type CardRef struct {
	Start     int
	End       int
	ShortLink string
}

// ExtractCardRefs finds every Trello card URL in text, in order of
// appearance. The same pattern serves description rewriting, attachment
// scanning, and comment resolution so edge cases (trailing slugs, markdown
// parentheses) are handled once.
func ExtractCardRefs(text string) []CardRef {
	if text == "" {
		return nil
	}

	var refs []CardRef
	for _, m := range cardURLPattern.FindAllStringSubmatchIndex(text, -1) {
		refs = append(refs, CardRef{
			Start:     m[0],
			End:       m[1],
			ShortLink: text[m[2]:m[3]],
		})
	}
	return refs
}
