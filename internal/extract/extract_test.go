package extract

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestReadReportMissingFileYieldsDescriptiveText(t *testing.T) {
	got := ReadReport(filepath.Join(t.TempDir(), "nope.pdf"))
	if !strings.Contains(got, "Error reading blood test report") {
		t.Fatalf("expected descriptive error text, got %q", got)
	}
}

func TestReadReportMalformedPDFYieldsDescriptiveText(t *testing.T) {
	path := filepath.Join(t.TempDir(), "garbage.pdf")
	if err := os.WriteFile(path, []byte("not a pdf at all"), 0o600); err != nil {
		t.Fatalf("write test file: %v", err)
	}

	got := ReadReport(path)
	if !strings.Contains(got, "Error parsing blood test report") {
		t.Fatalf("expected parse error text, got %q", got)
	}
}

func TestCollapseBlankLines(t *testing.T) {
	got := collapseBlankLines("a\n\n\n\nb\n\nc\n")
	if got != "a\nb\nc" {
		t.Fatalf("unexpected collapsed text: %q", got)
	}
}
