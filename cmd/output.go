package cmd

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"
	"text/tabwriter"

	"gopkg.in/yaml.v3"

	"github.com/flyerscan/prestations/internal/models"
)

const (
	outputTable = "table"
	outputJSON  = "json"
	outputYAML  = "yaml"
)

// describe renders a prestation on one line, the way the catalog card shows it.
func describe(p models.Prestation) string {
	parts := []string{p.Name, p.Price.String()}
	if p.Duration != nil && !p.Duration.IsZero() {
		parts = append(parts, p.Duration.String())
	}
	parts = append(parts, fmt.Sprintf("[%s/%s]", p.Category, p.Kind))
	return strings.Join(parts, "  ")
}

func writeOutput(w io.Writer, format string, records []models.Prestation) error {
	switch format {
	case outputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(records)
	case outputYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(records); err != nil {
			return err
		}
		return enc.Close()
	case outputTable, "":
		tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tSTATUS\tCATEGORY\tKIND\tNAME\tPRICE\tDURATION")
		for _, p := range records {
			duration := "-"
			if p.Duration != nil {
				duration = p.Duration.String()
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\t%s\n", p.ID, p.Status, p.Category, p.Kind, p.Name, p.Price, duration)
		}
		return tw.Flush()
	default:
		return fmt.Errorf("unknown output format %q (want table, json or yaml)", format)
	}
}
