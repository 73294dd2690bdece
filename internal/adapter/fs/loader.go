package fs

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/ledongthuc/pdf"

	"tinyrag/internal/domain"
	"tinyrag/internal/port"
)

// Loader reads filings as text. PDFs go through plain-text extraction;
// everything else is read as UTF-8 with invalid bytes dropped.
type Loader struct{}

func NewLoader() *Loader {
	return &Loader{}
}

func (l *Loader) Load(file port.FileInfo) (domain.Document, error) {
	var (
		text string
		err  error
	)
	if strings.EqualFold(filepath.Ext(file.Path), ".pdf") {
		text, err = ReadPDF(file.Path)
	} else {
		text, err = ReadText(file.Path)
	}
	if err != nil {
		return domain.Document{}, err
	}

	return domain.Document{
		Ticker:  file.Ticker,
		Source:  file.Path,
		Content: text,
	}, nil
}

// ReadText reads path and drops byte sequences that are not valid UTF-8.
func ReadText(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}
	return strings.ToValidUTF8(string(data), ""), nil
}

// ReadPDF extracts the plain text of every page. The parser panics on some
// malformed files; that is reported as an error.
func ReadPDF(path string) (text string, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("failed to parse pdf %s: %v", path, r)
		}
	}()

	f, rdr, err := pdf.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open pdf: %w", err)
	}
	defer f.Close()

	b, err := rdr.GetPlainText()
	if err != nil {
		return "", fmt.Errorf("failed to read pdf text: %w", err)
	}

	var buf bytes.Buffer
	if _, err := io.Copy(&buf, b); err != nil {
		return "", fmt.Errorf("failed to read pdf buffer: %w", err)
	}
	return strings.ToValidUTF8(buf.String(), ""), nil
}
