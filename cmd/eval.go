package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flyerscan/prestations/internal/config"
	"github.com/flyerscan/prestations/internal/evaluation"
)

func newEvalCmd() *cobra.Command {
	var datasetPath string
	var outputDir string
	var flags modelFlags

	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Measure extraction accuracy on labelled flyers",
		Long: `Runs each flyer of a labelled dataset through the extraction pipeline
against a throwaway in-memory catalog and compares the prestations found with
the expected ones.

The dataset is a YAML file:

  prompt: optional custom prompt
  cases:
    - name: salon-recto
      images: [flyers/recto.jpg]
      expected:
        - {category: women, kind: single-service, name: Brushing,
           price: {amount: 25, isStartingPrice: false},
           duration: {hours: 0, minutes: 45}}

Results are written to <output>/<model>-<timestamp>.yaml.`,
		Example: `  # Evaluate the default provider
  prestations eval --dataset ./flyers/dataset.yaml

  # Compare with a local model
  prestations eval --dataset ./flyers/dataset.yaml --provider ollama --model llava:13b`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(datasetPath); os.IsNotExist(err) {
				return fmt.Errorf("dataset file not found: %s", datasetPath)
			}
			ds, err := evaluation.LoadDataset(datasetPath)
			if err != nil {
				return err
			}

			cfg := config.Load()
			flags.apply(cfg)
			provider, err := newProvider(cfg)
			if err != nil {
				return err
			}

			results := evaluation.NewRunner(provider, ingestOptions(cfg)).Run(cmd.Context(), ds)
			summary := evaluation.Aggregate(results, cfg.Provider, cfg.Model)
			summary.PrintSummary(cmd.OutOrStdout())

			path, err := summary.SaveToYAML(outputDir)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "\n✅ Evaluation results saved to: %s\n", path)
			return nil
		},
	}

	cmd.Flags().StringVar(&datasetPath, "dataset", "", "Path to the YAML dataset (required)")
	cmd.Flags().StringVar(&outputDir, "output", "evals", "Directory for result files")
	flags.register(cmd)
	_ = cmd.MarkFlagRequired("dataset")

	return cmd
}
