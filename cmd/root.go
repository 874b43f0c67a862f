package cmd

import (
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

func NewRootCmd() *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "prestations",
		Short: "Salon price list catalog with flyer import",
		Long: `Prestations keeps a salon's catalog of services and packages.

Photos of a printed price list (flyer) are sent to a vision model, the reply
is normalized into candidate prestations, and those are added to the catalog
as pending until an operator validates or rejects them.`,
		SilenceUsage: true,
		PersistentPreRun: func(cmd *cobra.Command, args []string) {
			// Load .env file if present (ignore errors)
			_ = godotenv.Load()

			level := slog.LevelInfo
			if verbose {
				level = slog.LevelDebug
			}
			slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))
		},
	}

	cmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Verbose logging")

	cmd.AddCommand(
		newServeCmd(),
		newIngestCmd(),
		newListCmd(),
		newShowCmd(),
		newAddCmd(),
		newEditCmd(),
		newValidateCmd(),
		newRejectCmd(),
		newDeleteCmd(),
		newExportCmd(),
		newImportCmd(),
		newWatchCmd(),
		newEvalCmd(),
	)

	return cmd
}
