package cmd

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/flyerscan/prestations/internal/catalog"
	"github.com/flyerscan/prestations/internal/models"
	"github.com/flyerscan/prestations/internal/normalize"
)

func newListCmd() *cobra.Command {
	var status string
	var output string

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List the catalog",
		Example: `  # Everything awaiting validation
  prestations list --status pending

  # Whole catalog as YAML
  prestations list --output yaml`,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			var records []models.Prestation
			if status == "" {
				records, err = a.store.List(cmd.Context())
			} else {
				var s models.Status
				s, err = models.ParseStatus(status)
				if err != nil {
					return err
				}
				records, err = a.store.ListStatus(cmd.Context(), s)
			}
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, records)
		},
	}

	cmd.Flags().StringVar(&status, "status", "", "Only list prestations with this status (active or pending)")
	cmd.Flags().StringVarP(&output, "output", "o", outputTable, "Output format (table, json or yaml)")
	return cmd
}

func newShowCmd() *cobra.Command {
	var output string

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Show one prestation",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			return writeOutput(cmd.OutOrStdout(), output, []models.Prestation{p})
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", outputYAML, "Output format (table, json or yaml)")
	return cmd
}

// fieldFlags are the editable prestation fields shared by add and edit.
type fieldFlags struct {
	category    string
	kind        string
	name        string
	price       int
	starting    bool
	duration    string
	description string
	photos      []string
}

func (f *fieldFlags) register(cmd *cobra.Command) {
	cmd.Flags().StringVar(&f.category, "category", "women", "Clientele: women, men or children (femmes, hommes, enfants)")
	cmd.Flags().StringVar(&f.kind, "kind", "single-service", "single-service or package (prestation, forfait)")
	cmd.Flags().StringVar(&f.name, "name", "", "Name")
	cmd.Flags().IntVar(&f.price, "price", 0, "Price in whole euros")
	cmd.Flags().BoolVar(&f.starting, "starting", false, "Price is a starting price")
	cmd.Flags().StringVar(&f.duration, "duration", "", "Duration, e.g. 45, 1h30 or 90min")
	cmd.Flags().StringVar(&f.description, "description", "", "Description")
	cmd.Flags().StringArrayVar(&f.photos, "photo", nil, "Photo URL (repeatable)")
}

// apply writes the flags the user set onto fields. With all set, every flag is
// applied, defaults included.
func (f *fieldFlags) apply(cmd *cobra.Command, fields *models.Fields, all bool) error {
	changed := func(name string) bool { return all || cmd.Flags().Changed(name) }

	if changed("category") {
		c, err := models.ParseCategory(f.category)
		if err != nil {
			return err
		}
		fields.Category = c
	}
	if changed("kind") {
		k, err := models.ParseKind(f.kind)
		if err != nil {
			return err
		}
		fields.Kind = k
	}
	if changed("name") {
		fields.Name = f.name
	}
	if changed("price") {
		fields.Price.Amount = f.price
	}
	if changed("starting") {
		fields.Price.IsStartingPrice = f.starting
	}
	if changed("duration") {
		fields.Duration = nil
		if f.duration != "" {
			d := normalize.ParseDuration(f.duration)
			if d == nil || d.IsZero() {
				return fmt.Errorf("%w: cannot read duration %q", catalog.ErrInvalidFields, f.duration)
			}
			fields.Duration = d
		}
	}
	if changed("description") {
		fields.Description = f.description
	}
	if changed("photo") {
		fields.Photos = f.photos
	}
	return nil
}

func newAddCmd() *cobra.Command {
	var fields fieldFlags
	var source string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a prestation",
		Example: `  prestations add --category hommes --name "Coupe + barbe" --kind forfait --price 35 --duration 45`,
		RunE: func(cmd *cobra.Command, args []string) error {
			var f models.Fields
			if err := fields.apply(cmd, &f, true); err != nil {
				return err
			}
			src, err := models.ParseSource(source)
			if err != nil {
				return err
			}

			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.store.Create(cmd.Context(), f, src)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s  %s (%s)\n", p.ID, describe(p), p.Status)
			return nil
		},
	}

	fields.register(cmd)
	cmd.Flags().StringVar(&source, "source", string(models.SourceManual), "manual or flyer-import")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func newEditCmd() *cobra.Command {
	var fields fieldFlags
	var status string

	cmd := &cobra.Command{
		Use:   "edit <id>",
		Short: "Change fields of a prestation",
		Long: `Changes only the fields given as flags. The status may move from pending to
active; any other change of status is refused.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			p, err := a.store.Get(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			if err := fields.apply(cmd, &p.Fields, false); err != nil {
				return err
			}
			if status != "" {
				if p.Status, err = models.ParseStatus(status); err != nil {
					return err
				}
			}

			updated, err := a.store.Update(cmd.Context(), p)
			if errors.Is(err, catalog.ErrNotFound) {
				slog.Warn("Prestation disappeared while editing", "id", p.ID)
			}
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "✅ %s  %s (%s)\n", updated.ID, describe(updated), updated.Status)
			return nil
		},
	}

	fields.register(cmd)
	cmd.Flags().StringVar(&status, "status", "", "New status (active)")
	return cmd
}

func newValidateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <id>...",
		Short: "Confirm pending prestations",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			for _, id := range args {
				p, err := a.store.Validate(cmd.Context(), id)
				if err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "✅ %s  %s\n", p.ID, describe(p))
			}
			return nil
		},
	}
}

func newRejectCmd() *cobra.Command {
	return newRemoveCmd("reject", "Discard pending prestations", func(a *app) func(*cobra.Command, string) error {
		return func(cmd *cobra.Command, id string) error { return a.store.Reject(cmd.Context(), id) }
	})
}

func newDeleteCmd() *cobra.Command {
	return newRemoveCmd("delete", "Delete prestations", func(a *app) func(*cobra.Command, string) error {
		return func(cmd *cobra.Command, id string) error { return a.store.Delete(cmd.Context(), id) }
	})
}

func newRemoveCmd(use, short string, op func(*app) func(*cobra.Command, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <id>...",
		Short: short,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			remove := op(a)
			for _, id := range args {
				if err := remove(cmd, id); err != nil {
					return fmt.Errorf("%s: %w", id, err)
				}
				fmt.Fprintf(cmd.OutOrStdout(), "🗑️  %s\n", id)
			}
			return nil
		},
	}
}
