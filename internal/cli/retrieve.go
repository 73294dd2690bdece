package cli

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"tinyrag/internal/usecase"
)

var (
	retrieveQuery  string
	retrieveTopK   int
	retrieveTicker string
	retrieveJSON   bool
)

var retrieveCmd = &cobra.Command{
	Use:   "retrieve",
	Short: "Show the passages closest to a question",
	Long: `Embed the question and list the nearest stored passages by cosine distance.
The ticker filter comes from --ticker or is inferred from company names in the question.

Examples:
  tinyrag retrieve -q "iPhone net sales"
  tinyrag retrieve -q "supply chain risks" --ticker NVDA -k 3 --json`,
	RunE: runRetrieve,
}

func init() {
	rootCmd.AddCommand(retrieveCmd)
	retrieveCmd.Flags().StringVarP(&retrieveQuery, "query", "q", "", "question (required)")
	retrieveCmd.Flags().IntVarP(&retrieveTopK, "top-k", "k", 0, "number of passages (default from config)")
	retrieveCmd.Flags().StringVar(&retrieveTicker, "ticker", "", "restrict to one ticker")
	retrieveCmd.Flags().BoolVar(&retrieveJSON, "json", false, "output as JSON")
	retrieveCmd.MarkFlagRequired("query")
}

func runRetrieve(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	c, err := buildComponents(ctx, false)
	if err != nil {
		return err
	}
	defer c.Close()

	retrieveUC := usecase.NewRetrieveUseCase(c.retriever, c.tickers, cfg.Retrieve.TopK)
	res, err := retrieveUC.Retrieve(ctx, retrieveQuery, retrieveTopK, retrieveTicker)
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}

	if retrieveJSON {
		output, _ := json.MarshalIndent(res, "", "  ")
		fmt.Println(string(output))
		return nil
	}

	if len(res.Contexts) == 0 {
		fmt.Println("No results found.")
		return nil
	}
	filter := res.Ticker
	if filter == "" {
		filter = "none"
	}
	fmt.Printf("Found %d results for: %s (ticker filter: %s)\n\n", len(res.Contexts), retrieveQuery, filter)
	for i, r := range res.Contexts {
		fmt.Printf("--- [%d] %s %s (distance: %.4f) ---\n", i+1, r.Ticker, r.Source, r.Distance)
		fmt.Println(usecase.Preview(r.Content, 500))
		fmt.Println()
	}
	return nil
}
