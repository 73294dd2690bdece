package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"tinyrag/internal/domain"
	"tinyrag/internal/usecase"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the vector store and the Ollama server",
	RunE:  runHealth,
}

func init() {
	rootCmd.AddCommand(healthCmd)
}

func runHealth(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	c, err := buildComponents(ctx, false)
	if err != nil {
		return err
	}
	defer c.Close()

	report := usecase.NewHealthUseCase(c.store, c.generator, cfg.Server.HealthTimeout).Check(ctx)
	printStatus(report.Database)
	printStatus(report.Generation)

	if !report.Healthy() {
		return fmt.Errorf("unhealthy")
	}
	return nil
}

func printStatus(s domain.ComponentStatus) {
	if s.OK() {
		fmt.Printf("%-9s ok\n", s.Name)
		return
	}
	fmt.Printf("%-9s FAIL: %v\n", s.Name, s.Error)
}
