package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/council/internal/catalog"
	"github.com/sells-group/council/pkg/ollama"
)

var modelsJSON bool

var modelsCmd = &cobra.Command{
	Use:   "models",
	Short: "List local models with their classified capabilities",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := cfg.Validate("research"); err != nil {
			return err
		}

		client := ollama.NewClient(ollama.WithBaseURL(cfg.Backend.URL))
		models, err := client.ListModels(cmd.Context())
		if err != nil {
			return eris.Wrap(err, "list models")
		}

		entries := make([]catalog.Entry, 0, len(models))
		for _, m := range models {
			entries = append(entries, catalog.Entry{
				Name:         m.Name,
				SizeBytes:    m.Size,
				ModifiedAt:   m.ModifiedAt,
				Family:       m.Details.Family,
				Quantization: m.Details.QuantizationLevel,
			})
		}
		records := catalog.NewClassifier(catalog.DefaultTierSpecs(), nil).Classify(entries)

		if modelsJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(records)
		}

		fmt.Printf("%-32s %-6s %8s %10s %6s\n", "MODEL", "TIER", "PARAMS", "CONTEXT", "REL")
		for _, rec := range records {
			fmt.Printf("%-32s %-6s %7.1fB %10d %6.2f\n",
				rec.Name, rec.Tier, rec.ParamsB, rec.ContextWindow, rec.Reliability)
		}
		return nil
	},
}

func init() {
	modelsCmd.Flags().BoolVar(&modelsJSON, "json", false, "print capability records as JSON")
	rootCmd.AddCommand(modelsCmd)
}
