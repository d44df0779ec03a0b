package agents

import (
	"errors"
	"strings"
	"testing"
)

func TestParseTypeAcceptsKnownTags(t *testing.T) {
	for _, raw := range []string{"summary", "nutrition", "exercise", "verification", " Nutrition "} {
		got, err := ParseType(raw)
		if err != nil {
			t.Fatalf("ParseType(%q): %v", raw, err)
		}
		if got == "" {
			t.Fatalf("ParseType(%q) returned empty type", raw)
		}
	}
}

func TestParseTypeEmptyDefaultsToSummary(t *testing.T) {
	got, err := ParseType("")
	if err != nil {
		t.Fatalf("ParseType: %v", err)
	}
	if got != TypeSummary {
		t.Fatalf("expected summary default, got %q", got)
	}
}

func TestParseTypeRejectsUnknownTags(t *testing.T) {
	_, err := ParseType("astrology")
	if !errors.Is(err, ErrUnknownType) {
		t.Fatalf("expected ErrUnknownType, got %v", err)
	}
}

func TestEveryTypeHasProfile(t *testing.T) {
	for _, typ := range All() {
		p := ProfileFor(typ)
		if p.Role == "" || p.Goal == "" || p.DefaultQuery == "" {
			t.Fatalf("profile for %q is incomplete: %+v", typ, p)
		}
	}
}

func TestUserPromptFallsBackToDefaultQuery(t *testing.T) {
	p := ProfileFor(TypeSummary)
	prompt := p.UserPrompt("hemoglobin 14.1", "   ")
	if !strings.Contains(prompt, p.DefaultQuery) {
		t.Fatalf("expected default query in prompt, got %q", prompt)
	}
	if !strings.Contains(prompt, "hemoglobin 14.1") {
		t.Fatalf("expected report text in prompt, got %q", prompt)
	}
}
