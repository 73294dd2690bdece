package fs

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tinyrag/internal/port"
)

func writeFile(t *testing.T, root, rel, content string) string {
	t.Helper()
	path := filepath.Join(root, filepath.FromSlash(rel))
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestWalker_FindsFilingsWithTicker(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "AAPL/10-K/0000320193-23-000106/full-submission.txt", "apple")
	writeFile(t, root, "NVDA/10-K/0001045810-24-000029/full-submission.txt", "nvidia")
	writeFile(t, root, "NVDA/10-Q/0001045810-24-000100/full-submission.txt", "quarterly")
	writeFile(t, root, "AAPL/10-K/0000320193-23-000106/notes.txt", "notes")

	files, err := NewWalker(nil, nil).Walk(root)
	require.NoError(t, err)
	require.Len(t, files, 2)

	assert.Equal(t, "AAPL", files[0].Ticker)
	assert.Equal(t, "NVDA", files[1].Ticker)
	assert.Equal(t, filepath.Join(root, "AAPL", "10-K", "0000320193-23-000106", "full-submission.txt"), files[0].Path)
	assert.Equal(t, int64(5), files[0].Size)
}

func TestWalker_Excludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "TSLA/10-K/a/full-submission.txt", "tesla")
	writeFile(t, root, "META/10-K/b/full-submission.txt", "meta")

	files, err := NewWalker(nil, []string{"META/**"}).Walk(root)
	require.NoError(t, err)
	require.Len(t, files, 1)
	assert.Equal(t, "TSLA", files[0].Ticker)
}

func TestWalker_CustomIncludes(t *testing.T) {
	root := t.TempDir()
	writeFile(t, root, "msft/annual.pdf", "%PDF")
	writeFile(t, root, "msft/readme.md", "skip")
	writeFile(t, root, "loose.pdf", "%PDF")

	files, err := NewWalker([]string{"**/*.pdf"}, nil).Walk(root)
	require.NoError(t, err)
	require.Len(t, files, 2)

	byTicker := map[string]port.FileInfo{}
	for _, f := range files {
		byTicker[f.Ticker] = f
	}
	assert.Contains(t, byTicker, "MSFT")
	assert.Contains(t, byTicker, "")
}

func TestWalker_MissingRoot(t *testing.T) {
	files, err := NewWalker(nil, nil).Walk(filepath.Join(t.TempDir(), "sec-edgar-filings"))
	require.NoError(t, err)
	assert.Empty(t, files)
}

func TestLoader_TextDropsInvalidUTF8(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "AMZN/10-K/x/full-submission.txt", "Valid \xff\xfe invalid")

	doc, err := NewLoader().Load(port.FileInfo{Path: path, Ticker: "AMZN"})
	require.NoError(t, err)

	assert.Equal(t, "Valid  invalid", doc.Content)
	assert.Equal(t, "AMZN", doc.Ticker)
	assert.Equal(t, path, doc.Source)
}

func TestLoader_MissingFile(t *testing.T) {
	_, err := NewLoader().Load(port.FileInfo{Path: filepath.Join(t.TempDir(), "nope.txt")})
	assert.Error(t, err)
}

func TestLoader_CorruptPDF(t *testing.T) {
	root := t.TempDir()
	path := writeFile(t, root, "broken.pdf", "not really a pdf")

	_, err := NewLoader().Load(port.FileInfo{Path: path})
	assert.Error(t, err)
}
