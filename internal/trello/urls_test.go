package trello

import "testing"

func TestParseBoardURL(t *testing.T) {
	// Every supported wrapping of the same board ID parses back to it.
	valid := []string{
		"https://trello.com/b/TEST1234",
		"http://trello.com/b/TEST1234",
		"trello.com/b/TEST1234",
		"https://www.trello.com/b/TEST1234",
		"www.trello.com/b/TEST1234",
		"https://trello.com/b/TEST1234/my-board-name",
		"trello.com/b/TEST1234/my-board-name",
		"https://trello.com/b/TEST1234?filter=open",
		"https://trello.com/b/TEST1234/my-board-name?filter=open",
	}

	for _, url := range valid {
		got, err := ParseBoardURL(url)
		if err != nil {
			t.Errorf("ParseBoardURL(%q): unexpected error: %v", url, err)
			continue
		}
		if got != "TEST1234" {
			t.Errorf("ParseBoardURL(%q) = %q, want TEST1234", url, got)
		}
	}
}

func TestParseBoardURLRejects(t *testing.T) {
	invalid := []string{
		"",
		"   ",
		"https://trello.com/c/abc123/some-card",     // card URL
		"https://trello.com/w/myworkspace",          // workspace URL
		"https://trello.com/",
		"https://example.com/b/TEST1234",
		"not a url",
	}

	for _, url := range invalid {
		if _, err := ParseBoardURL(url); err == nil {
			t.Errorf("ParseBoardURL(%q): expected error", url)
		}
	}
}

func TestExtractCardRefs(t *testing.T) {
	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"no refs", "nothing to see here", nil},
		{"bare url", "see https://trello.com/c/abc123 for details", []string{"abc123"}},
		{"with slug", "see https://trello.com/c/abc123/22-fix-the-thing next", []string{"abc123"}},
		{"no protocol", "related: trello.com/c/Xyz789", []string{"Xyz789"}},
		{"www form", "www.trello.com/c/abc123", []string{"abc123"}},
		{"markdown link", "depends on [this](https://trello.com/c/abc123/fix) card", []string{"abc123"}},
		{"multiple", "https://trello.com/c/one1 and trello.com/c/two2", []string{"one1", "two2"}},
		{"board url is not a card ref", "https://trello.com/b/BOARD123/name", nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			refs := ExtractCardRefs(tt.text)
			if len(refs) != len(tt.want) {
				t.Fatalf("got %d refs, want %d (%v)", len(refs), len(tt.want), refs)
			}
			for i, ref := range refs {
				if ref.ShortLink != tt.want[i] {
					t.Errorf("ref %d = %q, want %q", i, ref.ShortLink, tt.want[i])
				}
			}
		})
	}
}

func TestExtractCardRefsSpans(t *testing.T) {
	text := "before (https://trello.com/c/abc123/slug) after"
	refs := ExtractCardRefs(text)
	if len(refs) != 1 {
		t.Fatalf("got %d refs, want 1", len(refs))
	}

	// The span must stop before the closing parenthesis.
	matched := text[refs[0].Start:refs[0].End]
	if matched != "https://trello.com/c/abc123/slug" {
		t.Errorf("matched span = %q", matched)
	}
}
