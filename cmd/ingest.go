package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flyerscan/prestations/internal/i18n"
	"github.com/flyerscan/prestations/internal/images"
	"github.com/flyerscan/prestations/internal/ingest"
)

func newIngestCmd() *cobra.Command {
	var urls []string
	var prompt string
	var promptFile string
	var flags modelFlags

	cmd := &cobra.Command{
		Use:   "ingest [photo...]",
		Short: "Extract prestations from flyer photos",
		Long: `Sends every photo of one flyer to the vision model in a single request and
adds the prestations found to the catalog as pending.

Rows the model returned but that could not be turned into a prestation are
listed with the reason they were skipped.`,
		Example: `  # Two photos of the same flyer
  prestations ingest recto.jpg verso.jpg

  # Photos hosted elsewhere, using OpenAI
  prestations ingest --url https://example.com/flyer.png --provider openai`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if len(args) == 0 && len(urls) == 0 {
				return ingest.ErrNoImages
			}

			if promptFile != "" {
				data, err := os.ReadFile(promptFile)
				if err != nil {
					return fmt.Errorf("failed to read prompt file: %w", err)
				}
				prompt = string(data)
			}

			imgs := make([]images.Image, 0, len(args)+len(urls))
			for _, path := range args {
				img, err := images.Load(path)
				if err != nil {
					return err
				}
				imgs = append(imgs, img)
			}
			if len(urls) > 0 {
				fetched, err := images.NewFetcher().FetchAll(ctx, urls)
				if err != nil {
					return err
				}
				imgs = append(imgs, fetched...)
			}

			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			flags.apply(a.cfg)
			orch, err := a.orchestrator()
			if err != nil {
				return err
			}

			tag := userLanguage()
			report, err := orch.IngestDetailed(ctx, imgs, prompt)
			if err != nil {
				return fmt.Errorf("%s: %w", i18n.Message(err, tag), err)
			}

			out := cmd.OutOrStdout()
			for _, o := range report.Outcomes {
				if o.Committed {
					fmt.Fprintf(out, "✅ %s  %s\n", o.Prestation.ID, describe(*o.Prestation))
				} else {
					fmt.Fprintf(out, "⚠️  %s: %s\n", o.Candidate.Name, o.Reason)
				}
			}
			fmt.Fprintln(out, i18n.Extracted(tag, len(report.Committed), report.Skipped()))
			return nil
		},
	}

	cmd.Flags().StringArrayVar(&urls, "url", nil, "Photo URL to fetch (repeatable)")
	cmd.Flags().StringVar(&prompt, "prompt", "", "Extraction instructions (defaults to the built-in French prompt)")
	cmd.Flags().StringVar(&promptFile, "prompt-file", "", "Read extraction instructions from a file")
	cmd.MarkFlagsMutuallyExclusive("prompt", "prompt-file")
	flags.register(cmd)

	return cmd
}
