package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"tinyrag/internal/usecase"
)

var (
	evalQA   string
	evalOut  string
	evalTopK int
)

var evalCmd = &cobra.Command{
	Use:   "eval",
	Short: "Answer a fixed question set and check expected keywords",
	Long: `Run every question in the QA file through ask and mark it PASS when the answer
contains all expected keywords (case-insensitive), FAIL when any is missing and
N/A when none are listed. Results are written as CSV.

QA file format:
  [{"q": "What was Apple's revenue?", "ticker": "AAPL", "expected_keywords": ["revenue"]}]

Examples:
  tinyrag eval
  tinyrag eval --qa eval_qa.json --out eval_results.csv -k 4`,
	RunE: runEval,
}

func init() {
	rootCmd.AddCommand(evalCmd)
	evalCmd.Flags().StringVar(&evalQA, "qa", "eval_qa.json", "QA pairs JSON file")
	evalCmd.Flags().StringVarP(&evalOut, "out", "o", "eval_results.csv", "CSV output file")
	evalCmd.Flags().IntVarP(&evalTopK, "top-k", "k", 0, "number of passages (default from config)")
}

func runEval(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	qaPath := resolvePath(evalQA)
	pairs, err := usecase.LoadQAPairs(qaPath)
	if err != nil {
		return fmt.Errorf("failed to load QA pairs: %w", err)
	}

	k := evalTopK
	if k == 0 {
		k = cfg.Retrieve.TopK
	}

	c, err := buildComponents(ctx, false)
	if err != nil {
		return err
	}
	defer c.Close()

	evalUC := usecase.NewEvalUseCase(newAnswerUseCase(c), c.tickers, lg)
	results, runErr := evalUC.Run(ctx, pairs, k)
	summary := evalUC.Summarize(results)

	outPath := resolvePath(evalOut)
	f, err := os.Create(outPath)
	if err != nil {
		return fmt.Errorf("failed to create %s: %w", outPath, err)
	}
	defer f.Close()
	if err := usecase.WriteCSV(f, results); err != nil {
		return fmt.Errorf("failed to write %s: %w", outPath, err)
	}
	lg.Info("eval_saved", "path", outPath)

	fmt.Printf("\nEvaluation: %d questions, %d passed, %d failed, %d unchecked\n",
		summary.Total, summary.Passed, summary.Failed, summary.NA)
	fmt.Printf("Results written to %s\n", outPath)

	if runErr != nil {
		return fmt.Errorf("eval stopped early: %w", runErr)
	}
	return nil
}
