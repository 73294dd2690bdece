package usecase

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"tinyrag/internal/domain"
	"tinyrag/internal/port"
)

// ProgressFunc reports embedding progress for one document.
type ProgressFunc func(source string, done, total int)

// IngestUseCase loads filings, chunks and embeds them, and stores the result.
type IngestUseCase struct {
	walker    port.FileWalker
	loader    port.DocumentLoader
	chunker   port.Chunker
	embedder  port.Embedder
	store     port.VectorStore
	batchSize int
	logger    *slog.Logger
	progress  ProgressFunc
}

func NewIngestUseCase(
	walker port.FileWalker,
	loader port.DocumentLoader,
	chunker port.Chunker,
	embedder port.Embedder,
	store port.VectorStore,
	batchSize int,
	logger *slog.Logger,
) *IngestUseCase {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if batchSize <= 0 {
		batchSize = 32
	}
	return &IngestUseCase{
		walker:    walker,
		loader:    loader,
		chunker:   chunker,
		embedder:  embedder,
		store:     store,
		batchSize: batchSize,
		logger:    logger,
	}
}

// OnProgress installs a callback invoked after every embedded batch.
func (u *IngestUseCase) OnProgress(fn ProgressFunc) {
	u.progress = fn
}

// IngestResult counts what an ingestion run produced.
type IngestResult struct {
	Files   int
	Chunks  int
	Records int
	Elapsed time.Duration
}

func (r *IngestResult) add(o IngestResult) {
	r.Files += o.Files
	r.Chunks += o.Chunks
	r.Records += o.Records
}

// IngestAll ingests every filing under root. The first failing file aborts
// the run; its path is part of the error.
func (u *IngestUseCase) IngestAll(ctx context.Context, root string) (*IngestResult, error) {
	start := time.Now()
	result := &IngestResult{}

	files, err := u.walker.Walk(root)
	if err != nil {
		return nil, fmt.Errorf("failed to walk %s: %w", root, err)
	}
	if len(files) == 0 {
		u.logger.Warn("no_files", "root", root)
		return result, nil
	}

	if err := u.store.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}
	u.logger.Info("ingest_start", "root", root, "files", len(files))

	lastTicker := ""
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return result, err
		}
		if file.Ticker != lastTicker {
			u.logger.Info("processing_ticker", "ticker", file.Ticker)
			lastTicker = file.Ticker
		}

		doc, err := u.loader.Load(file)
		if err != nil {
			return result, fmt.Errorf("failed to load %s: %w", file.Path, err)
		}
		u.logger.Info("loaded", "source", file.Path, "bytes", len(doc.Content))

		r, err := u.ingest(ctx, doc)
		if err != nil {
			return result, fmt.Errorf("failed to ingest %s: %w", file.Path, err)
		}
		result.add(r)
	}

	result.Elapsed = time.Since(start)
	u.logger.Info("ingest_complete",
		"files", result.Files,
		"chunks", result.Chunks,
		"records", result.Records,
		"elapsed", result.Elapsed.Round(time.Millisecond),
	)
	return result, nil
}

// IngestDocument ingests a single document that did not come from the walker.
func (u *IngestUseCase) IngestDocument(ctx context.Context, doc domain.Document) (*IngestResult, error) {
	start := time.Now()
	doc.Ticker = strings.ToUpper(strings.TrimSpace(doc.Ticker))
	if doc.Ticker == "" {
		return nil, fmt.Errorf("%w: ticker is required", domain.ErrInvalidInput)
	}
	if err := u.store.EnsureSchema(ctx); err != nil {
		return nil, fmt.Errorf("failed to ensure schema: %w", err)
	}

	r, err := u.ingest(ctx, doc)
	if err != nil {
		return nil, fmt.Errorf("failed to ingest %s: %w", doc.Source, err)
	}
	r.Elapsed = time.Since(start)
	return &r, nil
}

func (u *IngestUseCase) ingest(ctx context.Context, doc domain.Document) (IngestResult, error) {
	chunks, err := u.chunker.Chunk(doc)
	if err != nil {
		return IngestResult{}, fmt.Errorf("failed to chunk: %w", err)
	}
	u.logger.Info("chunked", "ticker", doc.Ticker, "source", doc.Source, "chunks", len(chunks))
	if len(chunks) == 0 {
		return IngestResult{Files: 1}, nil
	}

	texts := make([]string, len(chunks))
	for i, c := range chunks {
		texts[i] = c.Text
	}

	vectors := make([][]float32, 0, len(texts))
	for i := 0; i < len(texts); i += u.batchSize {
		end := min(i+u.batchSize, len(texts))
		batch, err := u.embedder.Embed(ctx, texts[i:end])
		if err != nil {
			return IngestResult{}, fmt.Errorf("failed to embed: %w", err)
		}
		vectors = append(vectors, batch...)
		if u.progress != nil {
			u.progress(doc.Source, end, len(texts))
		}
	}
	u.logger.Info("embedded", "ticker", doc.Ticker, "vectors", len(vectors))

	if err := u.store.Insert(ctx, texts, vectors, doc.Ticker, doc.Source); err != nil {
		return IngestResult{}, fmt.Errorf("failed to store: %w", err)
	}
	u.logger.Info("stored", "ticker", doc.Ticker, "records", len(vectors))

	return IngestResult{Files: 1, Chunks: len(chunks), Records: len(vectors)}, nil
}
