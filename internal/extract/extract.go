package extract

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/ledongthuc/pdf"
)

// ReadReport converts an uploaded blood test report into plain text.
// It never fails hard: malformed or missing files yield a descriptive
// message that downstream analysis treats as its input, so a bad upload
// produces a readable result instead of an aborted pipeline.
func ReadReport(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Sprintf("Error reading blood test report at %s: %v", path, err)
	}
	text, err := extractPDF(data)
	if err != nil {
		return fmt.Sprintf("Error parsing blood test report %s: %v", path, err)
	}
	text = collapseBlankLines(text)
	if strings.TrimSpace(text) == "" {
		return fmt.Sprintf("Blood test report %s contains no extractable text", path)
	}
	return text
}

// extractPDF converts raw PDF bytes to plain text. The reader library panics
// on some malformed inputs, so panics are converted to errors here to keep
// the soft-fail contract above.
func extractPDF(data []byte) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("pdf reader panic: %v", r)
		}
	}()

	reader := bytes.NewReader(data)
	pdfReader, err := pdf.NewReader(reader, int64(len(data)))
	if err != nil {
		return "", err
	}
	plain, err := pdfReader.GetPlainText()
	if err != nil {
		return "", err
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, plain); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func collapseBlankLines(text string) string {
	for strings.Contains(text, "\n\n") {
		text = strings.ReplaceAll(text, "\n\n", "\n")
	}
	return strings.TrimSpace(text)
}
