package archive

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"github.com/parquet-go/parquet-go"

	"github.com/flyerscan/prestations/internal/models"
)

// row is the flat Parquet schema. HasDuration keeps "unspecified" apart from
// a zero duration.
type row struct {
	ID              string   `parquet:"id"`
	Category        string   `parquet:"category"`
	Kind            string   `parquet:"kind"`
	Name            string   `parquet:"name"`
	PriceAmount     int64    `parquet:"price_amount"`
	StartingPrice   bool     `parquet:"starting_price"`
	HasDuration     bool     `parquet:"has_duration"`
	DurationHours   int64    `parquet:"duration_hours"`
	DurationMinutes int64    `parquet:"duration_minutes"`
	Description     string   `parquet:"description"`
	Photos          []string `parquet:"photos"`
	Status          string   `parquet:"status"`
	Source          string   `parquet:"source"`
}

func toRow(p models.Prestation) row {
	r := row{
		ID:            p.ID,
		Category:      string(p.Category),
		Kind:          string(p.Kind),
		Name:          p.Name,
		PriceAmount:   int64(p.Price.Amount),
		StartingPrice: p.Price.IsStartingPrice,
		Description:   p.Description,
		Photos:        p.Photos,
		Status:        string(p.Status),
		Source:        string(p.Source),
	}
	if p.Duration != nil {
		r.HasDuration = true
		r.DurationHours = int64(p.Duration.Hours)
		r.DurationMinutes = int64(p.Duration.Minutes)
	}
	return r
}

func fromRow(r row) models.Prestation {
	p := models.Prestation{
		ID: r.ID,
		Fields: models.Fields{
			Category:    models.Category(r.Category),
			Kind:        models.Kind(r.Kind),
			Name:        r.Name,
			Price:       models.Price{Amount: int(r.PriceAmount), IsStartingPrice: r.StartingPrice},
			Description: r.Description,
		},
		Status: models.Status(r.Status),
		Source: models.Source(r.Source),
	}
	if len(r.Photos) > 0 {
		p.Photos = append([]string(nil), r.Photos...)
	}
	if r.HasDuration {
		p.Duration = &models.Duration{Hours: int(r.DurationHours), Minutes: int(r.DurationMinutes)}
	}
	return p
}

func writeParquet(w io.Writer, records []models.Prestation) error {
	rows := make([]row, 0, len(records))
	for _, p := range records {
		rows = append(rows, toRow(p))
	}

	writer := parquet.NewGenericWriter[row](w)
	if _, err := writer.Write(rows); err != nil {
		return fmt.Errorf("failed to write parquet rows: %w", err)
	}
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close parquet writer: %w", err)
	}
	return nil
}

func readParquet(input io.ReaderAt, size int64) ([]models.Prestation, error) {
	pf, err := parquet.OpenFile(input, size)
	if err != nil {
		return nil, fmt.Errorf("failed to open parquet: %w", err)
	}

	slog.Debug("Parquet file opened successfully", "num_rows", pf.NumRows(), "num_row_groups", len(pf.RowGroups()))

	reader := parquet.NewGenericReader[row](pf)
	defer reader.Close()

	records := make([]models.Prestation, 0, pf.NumRows())
	rows := make([]row, 128)
	for {
		n, err := reader.Read(rows)
		for _, r := range rows[:n] {
			records = append(records, fromRow(r))
		}
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read parquet rows: %w", err)
		}
		if n == 0 {
			break
		}
	}
	return records, nil
}
