package cli

import (
	"fmt"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"tinyrag/internal/adapter/fs"
	"tinyrag/internal/port"
	"tinyrag/internal/usecase"
)

var (
	ingestFile   string
	ingestTicker string
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [root]",
	Short: "Chunk, embed and store 10-K filings",
	Long: `Ingest filings laid out as {root}/{TICKER}/10-K/{accession}/full-submission.txt.
The root defaults to ingest.root from the config (sec-edgar-filings).
Ingesting the same filing twice stores it twice.

Examples:
  tinyrag ingest
  tinyrag ingest /data/sec-edgar-filings
  tinyrag ingest --file aapl-2023.pdf --ticker AAPL`,
	Args: cobra.MaximumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
	ingestCmd.Flags().StringVarP(&ingestFile, "file", "f", "", "ingest a single text or PDF file")
	ingestCmd.Flags().StringVarP(&ingestTicker, "ticker", "t", "", "ticker for --file")
	ingestCmd.MarkFlagsRequiredTogether("file", "ticker")
}

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	chk, err := newChunker()
	if err != nil {
		return err
	}
	st, err := openStore(ctx)
	if err != nil {
		return err
	}
	defer st.Close()

	ingestUC := usecase.NewIngestUseCase(
		fs.NewWalker(cfg.Ingest.Includes, cfg.Ingest.Excludes),
		fs.NewLoader(),
		chk,
		newEmbedder(),
		st,
		cfg.Embedding.BatchSize,
		lg,
	)
	ingestUC.OnProgress(newProgress())

	var result *usecase.IngestResult
	if ingestFile != "" {
		path := resolvePath(ingestFile)
		doc, err := fs.NewLoader().Load(port.FileInfo{Path: path, Ticker: strings.ToUpper(ingestTicker)})
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", path, err)
		}
		result, err = ingestUC.IngestDocument(ctx, doc)
		if err != nil {
			return err
		}
	} else {
		root := cfg.Ingest.Root
		if len(args) > 0 {
			root = args[0]
		}
		root = resolvePath(root)
		fmt.Printf("Scanning %s...\n", root)

		result, err = ingestUC.IngestAll(ctx, root)
		if err != nil {
			return fmt.Errorf("ingest failed: %w", err)
		}
		if result.Files == 0 {
			fmt.Printf("No filings found under %s (expected %s)\n", root, filepath.Join("{TICKER}", "10-K", "{accession}", "full-submission.txt"))
			return nil
		}
	}

	fmt.Printf("\nIngest complete:\n")
	fmt.Printf("  Files:   %d\n", result.Files)
	fmt.Printf("  Chunks:  %d\n", result.Chunks)
	fmt.Printf("  Records: %d\n", result.Records)
	fmt.Printf("  Time:    %s\n", formatDuration(result.Elapsed))
	return nil
}

// newProgress returns a callback drawing one progress bar per document.
func newProgress() usecase.ProgressFunc {
	var (
		mu      sync.Mutex
		bar     *progressbar.ProgressBar
		current string
		started time.Time
	)

	return func(source string, done, total int) {
		mu.Lock()
		defer mu.Unlock()

		if source != current || bar == nil {
			current = source
			started = time.Now()
			bar = progressbar.NewOptions(total,
				progressbar.OptionEnableColorCodes(true),
				progressbar.OptionShowBytes(false),
				progressbar.OptionSetWidth(40),
				progressbar.OptionShowCount(),
				progressbar.OptionSetDescription("[cyan]Embedding[reset] "+shortSource(source)),
				progressbar.OptionSetTheme(progressbar.Theme{
					Saucer:        "[green]=[reset]",
					SaucerHead:    "[green]>[reset]",
					SaucerPadding: " ",
					BarStart:      "[",
					BarEnd:        "]",
				}),
				progressbar.OptionOnCompletion(func() {
					fmt.Println()
				}),
			)
		}

		_ = bar.Set(done)

		if done > 0 && done < total {
			rate := float64(done) / time.Since(started).Seconds()
			if rate > 0 {
				eta := time.Duration(float64(total-done)/rate) * time.Second
				bar.Describe(fmt.Sprintf("[cyan]Embedding[reset] %s ETA: %s", shortSource(source), formatDuration(eta)))
			}
		}
	}
}

// shortSource keeps the ticker and accession of a filing path.
func shortSource(path string) string {
	parts := strings.Split(filepath.ToSlash(path), "/")
	if len(parts) >= 4 {
		return strings.Join(parts[len(parts)-4:len(parts)-1], "/")
	}
	return filepath.Base(path)
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return "<1s"
	}
	if d < time.Minute {
		return fmt.Sprintf("%ds", int(d.Seconds()))
	}
	if d < time.Hour {
		m := int(d.Minutes())
		s := int(d.Seconds()) % 60
		return fmt.Sprintf("%dm%ds", m, s)
	}
	h := int(d.Hours())
	m := int(d.Minutes()) % 60
	return fmt.Sprintf("%dh%dm", h, m)
}

