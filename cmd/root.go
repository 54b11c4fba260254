package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/sells-group/council/internal/config"
	"github.com/sells-group/council/internal/engine"
	"github.com/sells-group/council/internal/perf"
	"github.com/sells-group/council/pkg/ollama"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "council",
	Short: "Multi-model research orchestration over local LLMs",
	Long:  "Selects a diverse set of local models for a research question, queries them concurrently, and synthesizes a comparative report from their responses.",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		c, err := config.Load()
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}
		cfg = c

		if err := config.InitLogger(cfg.Log); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}

		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		_ = zap.L().Sync()
	},
}

// newEngine builds the backend client and engine from loaded config.
func newEngine() *engine.Engine {
	opts := []ollama.Option{ollama.WithBaseURL(cfg.Backend.URL)}
	if cfg.Backend.RequestsPerSec > 0 {
		burst := cfg.Backend.Burst
		if burst < 1 {
			burst = 1
		}
		opts = append(opts, ollama.WithRateLimiter(
			rate.NewLimiter(rate.Limit(cfg.Backend.RequestsPerSec), burst)))
	}
	client := ollama.NewClient(opts...)
	return engine.New(client, perf.NewManager(cfg.ExecutionPolicies()))
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
