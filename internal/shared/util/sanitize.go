package util

import (
	"errors"
	"strings"
)

const maxQueryLen = 2000

// queryDenylist holds characters stripped from free-text fields before they
// reach prompts or storage.
const queryDenylist = "<>{}`$\\\x00"

// SanitizeQuery strips denylisted characters, collapses surrounding
// whitespace, and caps the length of a free-text query.
func SanitizeQuery(raw string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r < 0x20 && r != '\n' && r != '\t' {
			return -1
		}
		if strings.ContainsRune(queryDenylist, r) {
			return -1
		}
		return r
	}, raw)
	cleaned = strings.TrimSpace(cleaned)
	if len(cleaned) > maxQueryLen {
		cleaned = cleaned[:maxQueryLen]
	}
	return cleaned
}

// SanitizeFileName removes path separators and rejects traversal patterns.
func SanitizeFileName(name string) (string, error) {
	if strings.Contains(name, "..") {
		return "", errors.New("invalid file name")
	}
	s := strings.TrimSpace(name)
	s = strings.ReplaceAll(s, "/", "_")
	s = strings.ReplaceAll(s, "\\", "_")
	if s == "" {
		return "", errors.New("invalid file name")
	}
	return s, nil
}
