// Package ingest turns flyer photos into pending catalog entries: one model
// call for all photos, normalization of the reply, then one commit per valid
// row in reading order.
package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/flyerscan/prestations/internal/catalog"
	"github.com/flyerscan/prestations/internal/images"
	"github.com/flyerscan/prestations/internal/models"
	"github.com/flyerscan/prestations/internal/normalize"
	"github.com/flyerscan/prestations/internal/providers"
)

var (
	// ErrNoImages is returned before any model call when no photo is given.
	ErrNoImages = errors.New("at least one image is required")

	ErrUpstreamFailure     = errors.New("upstream failure")
	ErrUnparseableResponse = errors.New("unparseable response")
)

// UpstreamError covers a non-200 answer, a transport failure and a timeout.
// StatusCode is 0 when no HTTP status was received.
type UpstreamError struct {
	StatusCode int
	Body       string
	Err        error
}

func (e *UpstreamError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("%s: status %d: %s", ErrUpstreamFailure, e.StatusCode, e.Body)
	}
	return fmt.Sprintf("%s: %v", ErrUpstreamFailure, e.Err)
}

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstreamFailure }
func (e *UpstreamError) Unwrap() error        { return e.Err }

// UnparseableError wraps the normalizer's *ParseError.
type UnparseableError struct {
	Reason string
	Err    error
}

func (e *UnparseableError) Error() string {
	return fmt.Sprintf("%s: %s", ErrUnparseableResponse, e.Reason)
}

func (e *UnparseableError) Is(target error) bool { return target == ErrUnparseableResponse }
func (e *UnparseableError) Unwrap() error        { return e.Err }

// Creator is the part of the catalog store ingestion writes through.
type Creator interface {
	Create(ctx context.Context, fields models.Fields, source models.Source) (models.Prestation, error)
}

// Options tune the model call.
type Options struct {
	Model       string
	Temperature float64
	MaxTokens   int
	// Timeout bounds the model call; zero means no limit beyond ctx.
	Timeout time.Duration
}

type Orchestrator struct {
	provider   providers.Provider
	store      Creator
	normalizer *normalize.Normalizer
	opts       Options
}

func New(provider providers.Provider, store Creator, opts Options) *Orchestrator {
	return &Orchestrator{
		provider:   provider,
		store:      store,
		normalizer: normalize.New(),
		opts:       opts,
	}
}

// Outcome records what happened to one normalized row.
type Outcome struct {
	Candidate  normalize.Candidate
	Committed  bool
	Prestation *models.Prestation
	// Reason is set for rows that were not committed.
	Reason string
}

// Report is the detailed result of one ingestion.
type Report struct {
	Strategy  string
	Response  string
	Committed []models.Prestation
	Outcomes  []Outcome
}

// Skipped counts rows that were not committed.
func (r *Report) Skipped() int {
	return len(r.Outcomes) - len(r.Committed)
}

// Ingest commits every valid row as a pending flyer import and returns the
// created records in reading order. Invalid rows are logged and left out; use
// IngestDetailed to see them. No rows found is not an error.
func (o *Orchestrator) Ingest(ctx context.Context, imgs []images.Image, prompt string) ([]models.Prestation, error) {
	report, err := o.IngestDetailed(ctx, imgs, prompt)
	if report == nil {
		return nil, err
	}
	for _, out := range report.Outcomes {
		if !out.Committed {
			slog.Warn("Skipped extracted row", "name", out.Candidate.Name, "reason", out.Reason)
		}
	}
	return report.Committed, err
}

// IngestDetailed is Ingest with a per-row outcome. When a commit fails on a
// storage error the report holds the rows committed so far alongside the
// error.
func (o *Orchestrator) IngestDetailed(ctx context.Context, imgs []images.Image, prompt string) (*Report, error) {
	if len(imgs) == 0 {
		return nil, ErrNoImages
	}
	if strings.TrimSpace(prompt) == "" {
		prompt = DefaultPrompt
	}

	text, err := o.analyze(ctx, imgs, prompt)
	if err != nil {
		return nil, err
	}

	res, err := o.normalizer.Normalize(text)
	if err != nil {
		slog.Warn("Model response could not be parsed", "err", err, "response_length", len(text))
		return nil, &UnparseableError{Reason: err.Error(), Err: err}
	}

	report := &Report{
		Strategy:  res.Strategy,
		Response:  text,
		Committed: []models.Prestation{},
		Outcomes:  make([]Outcome, 0, len(res.Candidates)),
	}
	for _, c := range res.Candidates {
		out := Outcome{Candidate: c}
		if !c.Valid {
			out.Reason = fmt.Sprintf("%s: %s", c.Reason, strings.Join(c.Notes, "; "))
			report.Outcomes = append(report.Outcomes, out)
			continue
		}

		p, err := o.store.Create(ctx, c.Fields, models.SourceFlyerImport)
		if errors.Is(err, catalog.ErrInvalidFields) {
			out.Reason = err.Error()
			report.Outcomes = append(report.Outcomes, out)
			continue
		}
		if err != nil {
			return report, fmt.Errorf("failed to commit %q: %w", c.Name, err)
		}

		out.Committed = true
		out.Prestation = &p
		report.Committed = append(report.Committed, p)
		report.Outcomes = append(report.Outcomes, out)
	}

	slog.Info("Ingested flyer",
		"images", len(imgs),
		"strategy", report.Strategy,
		"committed", len(report.Committed),
		"skipped", report.Skipped())
	return report, nil
}

func (o *Orchestrator) analyze(ctx context.Context, imgs []images.Image, prompt string) (string, error) {
	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	start := time.Now()
	text, err := o.provider.ExtractText(ctx, providers.Config{
		Model:       o.opts.Model,
		Temperature: o.opts.Temperature,
		MaxTokens:   o.opts.MaxTokens,
		Prompt:      prompt,
		Images:      imgs,
	})
	if err != nil {
		var statusErr *providers.StatusError
		if errors.As(err, &statusErr) {
			return "", &UpstreamError{StatusCode: statusErr.StatusCode, Body: statusErr.Body, Err: err}
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return "", &UpstreamError{Err: fmt.Errorf("%w: %v", ctxErr, err)}
		}
		return "", &UpstreamError{Err: err}
	}

	slog.Debug("Model call finished", "model", o.opts.Model, "duration", time.Since(start), "response_length", len(text))
	return text, nil
}
