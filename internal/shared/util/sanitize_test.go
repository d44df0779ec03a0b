package util

import (
	"strings"
	"testing"
)

func TestSanitizeQueryStripsDenylist(t *testing.T) {
	got := SanitizeQuery("  summarise <my> {report} `please` $now  ")
	if strings.ContainsAny(got, "<>{}`$") {
		t.Fatalf("denylisted characters survived: %q", got)
	}
	if got != "summarise my report please now" {
		t.Fatalf("unexpected sanitized query: %q", got)
	}
}

func TestSanitizeQueryCapsLength(t *testing.T) {
	got := SanitizeQuery(strings.Repeat("a", maxQueryLen+500))
	if len(got) != maxQueryLen {
		t.Fatalf("expected length %d, got %d", maxQueryLen, len(got))
	}
}

func TestSanitizeQueryDropsControlCharacters(t *testing.T) {
	got := SanitizeQuery("hello\x00\x07world\nnext")
	if got != "helloworld\nnext" {
		t.Fatalf("unexpected sanitized query: %q", got)
	}
}

func TestSanitizeFileNameRejectsTraversal(t *testing.T) {
	if _, err := SanitizeFileName("../../etc/passwd"); err == nil {
		t.Fatal("expected error for traversal pattern")
	}
}

func TestSanitizeFileNameReplacesSeparators(t *testing.T) {
	got, err := SanitizeFileName("reports/january.pdf")
	if err != nil {
		t.Fatalf("SanitizeFileName: %v", err)
	}
	if got != "reports_january.pdf" {
		t.Fatalf("unexpected file name: %q", got)
	}
}
