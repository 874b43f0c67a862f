package cmd

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/spf13/cobra"
)

func newWatchCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "watch",
		Short: "Print a line each time the catalog changes",
		Long: `Subscribes to catalog change notifications and prints the number of active and
pending prestations after each one. Changes made by other processes are seen
with the file and redis storage backends.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			a, err := openApp(ctx)
			if err != nil {
				return err
			}
			defer a.Close()

			changed := make(chan struct{}, 1)
			unsubscribe := a.store.OnChange(func() {
				select {
				case changed <- struct{}{}:
				default:
				}
			})
			defer unsubscribe()

			slog.Info("Watching catalog", "storage", a.cfg.Storage, "key", a.store.Key())
			for {
				select {
				case <-ctx.Done():
					return nil
				case <-changed:
					records, err := a.store.List(ctx)
					if err != nil {
						slog.Error("Failed to read catalog", "err", err)
						continue
					}
					pending := 0
					for _, p := range records {
						if p.Pending() {
							pending++
						}
					}
					fmt.Fprintf(cmd.OutOrStdout(), "%s  %d active, %d pending\n",
						time.Now().Format("15:04:05"), len(records)-pending, pending)
				}
			}
		},
	}
}
