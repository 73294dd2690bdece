package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"tinyrag/internal/usecase"
)

var (
	askQuery       string
	askTopK        int
	askTicker      string
	askShowSources bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the ingested filings",
	Long: `Retrieve passages for the question, then ask the language model for an
answer that cites them as [1], [2], ...

Examples:
  tinyrag ask "What are Alphabet's main risk factors?"
  tinyrag ask -q "How did data center revenue change?" --ticker NVDA --sources`,
	RunE: runAsk,
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().StringVarP(&askQuery, "query", "q", "", "question (or pass it as arguments)")
	askCmd.Flags().IntVarP(&askTopK, "top-k", "k", 0, "number of passages (default from config)")
	askCmd.Flags().StringVar(&askTicker, "ticker", "", "restrict to one ticker")
	askCmd.Flags().BoolVar(&askShowSources, "sources", false, "print source previews")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	q := askQuery
	if q == "" {
		q = strings.Join(args, " ")
	}
	if strings.TrimSpace(q) == "" {
		return fmt.Errorf("a question is required")
	}
	k := askTopK
	if k == 0 {
		k = cfg.Retrieve.TopK
	}

	c, err := buildComponents(ctx, false)
	if err != nil {
		return err
	}
	defer c.Close()

	ticker := usecase.ResolveTicker(c.tickers, askTicker, q)
	ans, err := newAnswerUseCase(c).Answer(ctx, q, k, ticker)
	if err != nil {
		return fmt.Errorf("ask failed: %w", err)
	}

	fmt.Println(ans.Text)
	fmt.Printf("\n(%d sources", len(ans.Sources))
	if ticker != "" {
		fmt.Printf(", ticker %s", ticker)
	}
	fmt.Println(")")

	if askShowSources {
		for i, s := range ans.Sources {
			fmt.Printf("\n[%d] (%s) %s\n", i+1, s.Ticker, s.Preview)
		}
	}
	return nil
}
