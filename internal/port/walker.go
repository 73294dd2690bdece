package port

import "tinyrag/internal/domain"

type FileWalker interface {
	Walk(root string) ([]FileInfo, error)
}

// FileInfo describes a discovered filing. Ticker comes from the path layout.
type FileInfo struct {
	Path    string
	Ticker  string
	ModTime int64
	Size    int64
}

type DocumentLoader interface {
	Load(file FileInfo) (domain.Document, error)
}
