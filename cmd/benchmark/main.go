package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"tinyrag/config"
	"tinyrag/internal/adapter/embedding"
	"tinyrag/internal/adapter/retriever"
	"tinyrag/internal/adapter/store"
	"tinyrag/internal/adapter/ticker"
	"tinyrag/internal/usecase"
)

func main() {
	dir := flag.String("dir", ".", "Directory holding tinyrag.yaml and .env")
	query := flag.String("q", "", "Query to test")
	topK := flag.Int("k", 6, "Number of results")
	tickerFlag := flag.String("ticker", "", "Ticker filter (default: inferred from query)")
	flag.Parse()

	if *query == "" {
		fmt.Println("Usage: go run ./cmd/benchmark -dir . -q \"query\" [-k 6] [-ticker AAPL]")
		fmt.Println("\nReports:")
		fmt.Println("  1. Embedding latency and dimension")
		fmt.Println("  2. Vector search latency")
		fmt.Println("  3. Similarity of the returned passages")
		os.Exit(1)
	}

	cfg, err := config.LoadFromDir(*dir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error loading config: %v\n", err)
		os.Exit(1)
	}

	ctx := context.Background()
	st, err := store.Open(ctx, cfg.Store.URL, cfg.Embedding.Dimension)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer st.Close()

	var load embedding.Loader
	if cfg.Embedding.Provider == "hash" {
		load = embedding.HashLoader(cfg.Embedding.Dimension)
	} else {
		load = embedding.OllamaLoader(cfg.Embedding.BaseURL, cfg.Embedding.Model, cfg.Embedding.Timeout)
	}
	emb := embedding.NewEmbedder(load, cfg.Embedding.Dimension, cfg.Embedding.BatchSize)

	filter := usecase.ResolveTicker(ticker.NewLexicon(cfg.Tickers), *tickerFlag, *query)

	fmt.Println("RETRIEVAL BENCHMARK")
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("Store:     %s\n", redact(cfg.Store.URL))
	fmt.Printf("Model:     %s (%s)\n", cfg.Embedding.Model, cfg.Embedding.Provider)
	fmt.Printf("Dimension: %d\n", emb.Dimension())
	fmt.Printf("Filter:    %s\n", orNone(filter))
	fmt.Println()

	fmt.Printf("Query: \"%s\"\n", *query)
	fmt.Println(strings.Repeat("-", 70))

	// First call includes model load.
	start := time.Now()
	if _, err := emb.EmbedOne(ctx, *query); err != nil {
		fmt.Fprintf(os.Stderr, "Embedding error: %v\n", err)
		os.Exit(1)
	}
	warm := time.Since(start)

	r := retriever.NewSemanticRetriever(st, emb)
	start = time.Now()
	results, err := r.Retrieve(ctx, *query, *topK, filter)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Search error: %v\n", err)
		os.Exit(1)
	}
	search := time.Since(start)

	fmt.Printf("Embed (cold): %s\n", warm.Round(time.Millisecond))
	fmt.Printf("Embed+search: %s\n\n", search.Round(time.Millisecond))

	if len(results) == 0 {
		fmt.Println("No results. Run 'tinyrag ingest' first.")
		os.Exit(1)
	}

	fmt.Printf("Top %d matches:\n\n", len(results))

	totalSim := 0.0
	for i, res := range results {
		similarity := 1 - res.Distance
		totalSim += similarity

		rating := "LOW"
		if similarity > 0.7 {
			rating = "HIGH"
		} else if similarity > 0.5 {
			rating = "GOOD"
		} else if similarity > 0.3 {
			rating = "OK"
		}

		preview := strings.ReplaceAll(usecase.Preview(res.Content, 150), "\n", " ")
		fmt.Printf("%d. [%s %.3f] %s %s\n", i+1, rating, similarity, res.Ticker, shortPath(res.Source))
		fmt.Printf("   %s\n\n", preview)
	}

	avg := totalSim / float64(len(results))
	fmt.Println(strings.Repeat("=", 70))
	fmt.Printf("QUALITY METRICS:\n")
	fmt.Printf("  Average similarity: %.3f\n", avg)
	fmt.Printf("  Top-1 similarity:   %.3f\n", 1-results[0].Distance)

	if avg > 0.5 {
		fmt.Println("  Status: GOOD - passages are close to the query")
	} else if avg > 0.3 {
		fmt.Println("  Status: OK - results are somewhat related")
	} else {
		fmt.Println("  Status: POOR - check the embedding model or re-ingest")
	}
}

func shortPath(path string) string {
	parts := strings.Split(path, "/")
	if len(parts) > 4 {
		return strings.Join(parts[len(parts)-4:], "/")
	}
	return path
}

func orNone(s string) string {
	if s == "" {
		return "none"
	}
	return s
}

// redact hides the password in a database URL.
func redact(url string) string {
	scheme, rest, ok := strings.Cut(url, "://")
	if !ok {
		return url
	}
	creds, host, ok := strings.Cut(rest, "@")
	if !ok {
		return url
	}
	if user, _, hasPass := strings.Cut(creds, ":"); hasPass {
		return scheme + "://" + user + ":***@" + host
	}
	return url
}
