package main

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/council/internal/catalog"
	"github.com/sells-group/council/internal/engine"
	"github.com/sells-group/council/internal/report"
)

var (
	researchComplexity  string
	researchFocus       string
	researchModels      []string
	researchSequential  bool
	researchTemperature float64
	researchTimeoutSecs int
	researchEarlyExit   float64
	researchMetadata    bool
	researchJSON        bool
)

var researchCmd = &cobra.Command{
	Use:   "research [question]",
	Short: "Research a question across multiple local models",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("research"); err != nil {
			return err
		}

		req := engine.Request{
			Question:            strings.Join(args, " "),
			Complexity:          catalog.Complexity(researchComplexity),
			Focus:               catalog.Focus(researchFocus),
			Models:              researchModels,
			Sequential:          researchSequential,
			Temperature:         researchTemperature,
			EarlyExitConfidence: researchEarlyExit,
			IncludeMetadata:     researchMetadata,
		}
		if req.Complexity == "" {
			req.Complexity = catalog.Complexity(cfg.Defaults.Complexity)
		}
		if req.Focus == "" {
			req.Focus = catalog.Focus(cfg.Defaults.Focus)
		}
		if req.Temperature == 0 {
			req.Temperature = cfg.Defaults.Temperature
		}
		if researchTimeoutSecs > 0 {
			req.Timeout = time.Duration(researchTimeoutSecs) * time.Second
		}

		rep, err := newEngine().Research(cmd.Context(), req)
		if err != nil {
			return eris.Wrap(err, "research")
		}

		zap.L().Info("research complete",
			zap.String("id", rep.ID),
			zap.Int("models", len(rep.ModelsUsed)),
			zap.Int("failures", len(rep.Errors)),
		)

		if researchJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(rep)
		}
		printReport(rep)
		return nil
	},
}

func printReport(rep *report.ResearchReport) {
	fmt.Printf("Question: %s\n", rep.Question)
	fmt.Printf("Models:   %s\n\n", strings.Join(rep.ModelsUsed, ", "))

	for _, resp := range rep.Responses {
		fmt.Printf("--- %s (%.2f confidence, %dms) ---\n", resp.Model, resp.Confidence, resp.ResponseTimeMS)
		if resp.Error != "" {
			fmt.Printf("[failed: %s]\n\n", resp.Error)
			continue
		}
		fmt.Printf("%s\n\n", resp.Response)
	}

	fmt.Println("=== Synthesis ===")
	fmt.Println(rep.Analysis.Synthesis)
	if len(rep.Analysis.Recommendations) > 0 {
		fmt.Println("\nRecommendations:")
		for _, rec := range rep.Analysis.Recommendations {
			fmt.Printf("  - %s\n", rec)
		}
	}
	fmt.Printf("\nOverall confidence: %.2f\n", rep.Analysis.ConfidenceScore)

	if rep.Performance != nil {
		fmt.Printf("Total time: %dms, avg per model: %dms\n",
			rep.Performance.TotalTimeMS, rep.Performance.AverageResponseTimeMS)
	}
	if rep.Analysis.ModelSelectionReasoning != "" {
		fmt.Printf("Selection: %s\n", rep.Analysis.ModelSelectionReasoning)
	}
}

func init() {
	researchCmd.Flags().StringVar(&researchComplexity, "complexity", "", "question complexity: simple, moderate, complex (default from config)")
	researchCmd.Flags().StringVar(&researchFocus, "focus", "", "focus area: technical, business, creative, scientific, general (default from config)")
	researchCmd.Flags().StringSliceVar(&researchModels, "models", nil, "restrict to specific model names")
	researchCmd.Flags().BoolVar(&researchSequential, "sequential", false, "query models one at a time instead of concurrently")
	researchCmd.Flags().Float64Var(&researchTemperature, "temperature", 0, "sampling temperature (default from config)")
	researchCmd.Flags().IntVar(&researchTimeoutSecs, "timeout", 0, "per-model timeout in seconds (default from policy)")
	researchCmd.Flags().Float64Var(&researchEarlyExit, "early-exit", 0, "stop a sequential run once a response reaches this confidence")
	researchCmd.Flags().BoolVar(&researchMetadata, "metadata", false, "include performance and selection metadata")
	researchCmd.Flags().BoolVar(&researchJSON, "json", false, "print the full report as JSON")
	rootCmd.AddCommand(researchCmd)
}
