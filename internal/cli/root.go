package cli

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"tinyrag/config"
	"tinyrag/internal/logger"
)

var (
	cfgFile   string
	cfg       *config.Config
	rootDir   string
	logLevel  string
	logFormat string
	lg        *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "tinyrag",
	Short: "Question answering over SEC 10-K filings",
	Long: `tinyrag ingests 10-K filings into a vector store and answers questions
about them with a local language model, citing the passages it used.

Example usage:
  tinyrag ingest                                 # Ingest ./sec-edgar-filings
  tinyrag retrieve -q "iPhone revenue" -k 4       # Show matching passages
  tinyrag ask "What are Alphabet's main risks?"   # Answer with citations
  tinyrag serve --addr :8001                      # HTTP API`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error

		if rootDir == "" {
			rootDir, err = os.Getwd()
			if err != nil {
				return fmt.Errorf("failed to get working directory: %w", err)
			}
		}

		if cfgFile != "" {
			if err := config.LoadDotEnv(rootDir); err != nil {
				return err
			}
			cfg, err = config.Load(cfgFile)
		} else {
			cfg, err = config.LoadFromDir(rootDir)
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}

		if logLevel != "" {
			cfg.Logging.Level = logLevel
		}
		if logFormat != "" {
			cfg.Logging.Format = logFormat
		}
		if err := cfg.Validate(); err != nil {
			return err
		}

		lg, err = logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
		return err
	},
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./tinyrag.yaml)")
	rootCmd.PersistentFlags().StringVarP(&rootDir, "dir", "d", "", "working directory (default is current directory)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "debug, info, warn or error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "", "console or json")
}

func GetConfig() *config.Config {
	return cfg
}

func GetRootDir() string {
	return rootDir
}
