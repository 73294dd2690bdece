package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tinyrag/internal/usecase"
)

var (
	promptQuery  string
	promptTopK   int
	promptTicker string
)

var promptCmd = &cobra.Command{
	Use:   "prompt",
	Short: "Print the prompt that ask would send to the model",
	Long: `Retrieve passages and print the composed prompt without calling the
language model. Useful for pasting into another model or checking retrieval.

Examples:
  tinyrag prompt -q "What is Tesla's energy storage revenue?"`,
	RunE: runPromptCmd,
}

func init() {
	rootCmd.AddCommand(promptCmd)
	promptCmd.Flags().StringVarP(&promptQuery, "query", "q", "", "question (required)")
	promptCmd.Flags().IntVarP(&promptTopK, "top-k", "k", 0, "number of passages (default from config)")
	promptCmd.Flags().StringVar(&promptTicker, "ticker", "", "restrict to one ticker")
	promptCmd.MarkFlagRequired("query")
}

func runPromptCmd(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	c, err := buildComponents(ctx, false)
	if err != nil {
		return err
	}
	defer c.Close()

	retrieveUC := usecase.NewRetrieveUseCase(c.retriever, c.tickers, cfg.Retrieve.TopK)
	prompt, res, err := retrieveUC.Prompt(ctx, promptQuery, promptTopK, promptTicker)
	if err != nil {
		return fmt.Errorf("retrieve failed: %w", err)
	}
	if len(res.Contexts) == 0 {
		fmt.Println(usecase.NoContextAnswer)
		return nil
	}

	fmt.Println(prompt)
	return nil
}
