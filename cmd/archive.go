package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/flyerscan/prestations/internal/archive"
)

func newExportCmd() *cobra.Command {
	var format string

	cmd := &cobra.Command{
		Use:   "export <file>",
		Short: "Write the catalog to a JSONL, YAML or Parquet file",
		Long: `Writes every prestation to a file. The format follows the extension
(.jsonl, .json, .yaml, .yml, .parquet) unless --format is given. Use "-" to
write JSONL or YAML to standard output.`,
		Example: `  prestations export backup.yaml
  prestations export catalog.parquet
  prestations export - --format jsonl`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			records, err := a.store.List(cmd.Context())
			if err != nil {
				return err
			}

			path := args[0]
			if path == "-" {
				if format == "" {
					format = string(archive.FormatJSONL)
				}
				f, err := archive.ParseFormat(format)
				if err != nil {
					return err
				}
				if f == archive.FormatParquet {
					return fmt.Errorf("parquet cannot be written to standard output")
				}
				return archive.Write(cmd.OutOrStdout(), f, records)
			}

			if format != "" {
				f, err := archive.ParseFormat(format)
				if err != nil {
					return err
				}
				file, err := os.Create(path)
				if err != nil {
					return fmt.Errorf("failed to create %s: %w", path, err)
				}
				if err := archive.Write(file, f, records); err != nil {
					file.Close()
					return err
				}
				if err := file.Close(); err != nil {
					return err
				}
			} else if err := archive.WriteFile(path, records); err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "✅ Exported %d prestations to %s\n", len(records), path)
			return nil
		},
	}

	cmd.Flags().StringVar(&format, "format", "", "jsonl, yaml or parquet (default from extension)")
	return cmd
}

func newImportCmd() *cobra.Command {
	var replace bool

	cmd := &cobra.Command{
		Use:   "import <file>",
		Short: "Load prestations from a JSONL, YAML or Parquet file",
		Long: `Adds the prestations of an exported file to the catalog, keeping their ids
and statuses. Ids already in the catalog are skipped. With --replace the
catalog becomes exactly the file's content.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			records, err := archive.ReadFile(args[0])
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			n, err := a.store.Import(cmd.Context(), records, replace)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ Imported %d prestations from %s\n", n, args[0])
			return nil
		},
	}

	cmd.Flags().BoolVar(&replace, "replace", false, "Replace the whole catalog")
	return cmd
}
