package evaluation

import (
	"context"
	"log/slog"
	"time"

	"github.com/flyerscan/prestations/internal/catalog"
	"github.com/flyerscan/prestations/internal/images"
	"github.com/flyerscan/prestations/internal/ingest"
	"github.com/flyerscan/prestations/internal/models"
	"github.com/flyerscan/prestations/internal/providers"
	"github.com/flyerscan/prestations/internal/storage"
)

// Runner replays labelled flyers through the ingestion pipeline against a
// throwaway in-memory catalog.
type Runner struct {
	provider providers.Provider
	opts     ingest.Options
}

func NewRunner(provider providers.Provider, opts ingest.Options) *Runner {
	return &Runner{provider: provider, opts: opts}
}

// Run evaluates every case in order. A failing case is recorded and the run
// goes on; only ctx cancellation stops it early.
func (r *Runner) Run(ctx context.Context, ds *Dataset) []Result {
	results := make([]Result, 0, len(ds.Cases))
	for i, c := range ds.Cases {
		if ctx.Err() != nil {
			break
		}
		slog.Info("Evaluating case", "case", c.Name, "index", i+1, "total", len(ds.Cases))
		result := r.runCase(ctx, c, ds.Prompt)
		if result.Error != "" {
			slog.Warn("Case failed", "case", c.Name, "err", result.Error)
		}
		results = append(results, result)
	}
	return results
}

func (r *Runner) runCase(ctx context.Context, c Case, prompt string) Result {
	result := Result{Case: c.Name}

	imgs := make([]images.Image, 0, len(c.Images))
	for _, path := range c.Images {
		img, err := images.Load(path)
		if err != nil {
			result.Error = err.Error()
			return result
		}
		imgs = append(imgs, img)
	}

	store := catalog.New(storage.NewMemoryBlob(), storage.NewLocalBus())
	orch := ingest.New(r.provider, store, r.opts)

	start := time.Now()
	report, err := orch.IngestDetailed(ctx, imgs, prompt)
	result.ProcessingTime = time.Since(start)
	if err != nil {
		result.Error = err.Error()
		return result
	}

	actual := make([]models.Fields, 0, len(report.Committed))
	for _, p := range report.Committed {
		actual = append(actual, p.Fields)
	}
	result.Strategy = report.Strategy
	result.Response = report.Response
	result.Skipped = report.Skipped()
	result.Comparison = Compare(c.Expected, actual)
	return result
}
