package cli

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"tinyrag/internal/server"
	"tinyrag/internal/usecase"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the question-answering HTTP API",
	Long: `Serve GET /, GET /ask?q=...&k=6&ticker=... and GET /health.
When server.api_key (or RAG_API_KEY) is set, /ask requires the X-API-Key header.

Examples:
  tinyrag serve
  tinyrag serve --addr 127.0.0.1:9000`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from config)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	c, err := buildComponents(ctx, true)
	if err != nil {
		return err
	}
	defer c.Close()

	addr := cfg.Server.Addr
	if serveAddr != "" {
		addr = serveAddr
	}

	srv := server.New(
		newAnswerUseCase(c),
		usecase.NewHealthUseCase(c.store, c.generator, cfg.Server.HealthTimeout),
		c.tickers,
		server.Options{
			APIKey:       cfg.Server.APIKey,
			RateLimitRPS: cfg.Server.RateLimitRPS,
			RateBurst:    cfg.Server.RateBurst,
			DefaultK:     cfg.Retrieve.TopK,
			MaxK:         cfg.Retrieve.MaxTopK,
			Transient:    isTransient,
		},
		lg,
	)
	return srv.Run(ctx, addr)
}
