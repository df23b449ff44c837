package validation

import (
	"strings"
	"testing"

	"github.com/steveyegge/bd-trello/internal/types"
)

func TestValidateTitle(t *testing.T) {
	if err := ValidateTitle("Fix login bug"); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateTitle(""); err == nil {
		t.Error("expected error for empty title")
	}
	if err := ValidateTitle("   \t  "); err == nil {
		t.Error("expected error for whitespace-only title")
	}
	if err := ValidateTitle(strings.Repeat("x", 501)); err == nil {
		t.Error("expected error for 501-char title")
	}
	if err := ValidateTitle(strings.Repeat("x", 500)); err != nil {
		t.Errorf("500-char title should be valid: %v", err)
	}
}

func TestValidateText(t *testing.T) {
	if err := ValidateText("description", strings.Repeat("a", 50000)); err != nil {
		t.Errorf("50000-char text should be valid: %v", err)
	}
	if err := ValidateText("description", strings.Repeat("a", 50001)); err == nil {
		t.Error("expected error for 50001-char text")
	}
}

func TestParsePriority(t *testing.T) {
	tests := []struct {
		input   string
		want    int
		wantErr bool
	}{
		{"0", 0, false},
		{"4", 4, false},
		{"P1", 1, false},
		{"p3", 3, false},
		{" 2 ", 2, false},
		{"5", -1, true},
		{"-1", -1, true},
		{"high", -1, true},
		{"", -1, true},
	}

	for _, tt := range tests {
		got, err := ParsePriority(tt.input)
		if tt.wantErr {
			if err == nil {
				t.Errorf("ParsePriority(%q): expected error", tt.input)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParsePriority(%q): unexpected error: %v", tt.input, err)
			continue
		}
		if got != tt.want {
			t.Errorf("ParsePriority(%q) = %d, want %d", tt.input, got, tt.want)
		}
	}
}

func TestValidatePriority(t *testing.T) {
	for p := 0; p <= 4; p++ {
		if err := ValidatePriority(p); err != nil {
			t.Errorf("priority %d should be valid: %v", p, err)
		}
	}
	if err := ValidatePriority(5); err == nil {
		t.Error("expected error for priority 5")
	}
	if err := ValidatePriority(-1); err == nil {
		t.Error("expected error for priority -1")
	}
}

func TestValidateLabels(t *testing.T) {
	if err := ValidateLabels([]string{"list:To Do", "trello-label:urgent"}); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateLabels(nil); err != nil {
		t.Errorf("nil labels should be valid: %v", err)
	}
	if err := ValidateLabels([]string{"a,b"}); err == nil {
		t.Error("expected error for label containing comma")
	}
	if err := ValidateLabels([]string{""}); err == nil {
		t.Error("expected error for empty label")
	}
}

func TestValidateIssueID(t *testing.T) {
	valid := []string{"bd-42", "bd-a3f8e9", "PROJ-123", "x1-y2"}
	for _, id := range valid {
		if err := ValidateIssueID(id); err != nil {
			t.Errorf("ValidateIssueID(%q): unexpected error: %v", id, err)
		}
	}

	invalid := []string{"", "bd", "bd-", "-42", "bd-a3f-9", "bd 42", "bd-a3f8e9.1"}
	for _, id := range invalid {
		if err := ValidateIssueID(id); err == nil {
			t.Errorf("ValidateIssueID(%q): expected error", id)
		}
	}
}

func TestValidateStatusAndType(t *testing.T) {
	if err := ValidateStatus(types.StatusDeferred); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateStatus(types.Status("done")); err == nil {
		t.Error("expected error for unknown status")
	}
	if err := ValidateIssueType(types.TypeEpic); err != nil {
		t.Errorf("unexpected error: %v", err)
	}
	if err := ValidateIssueType(types.IssueType("story")); err == nil {
		t.Error("expected error for unknown type")
	}
}
