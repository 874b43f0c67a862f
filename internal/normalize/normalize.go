// Package normalize turns a raw vision-model reply into candidate catalog
// records.
//
// Model output is not guaranteed to follow the requested schema, so the reply
// goes through an ordered list of strategies: a strict JSON decode first, then
// a lenient scan for pipe-delimited table rows. The first strategy that
// applies wins; the choice is reported in Result.Strategy.
package normalize

import (
	"errors"
	"log/slog"
	"strings"

	"github.com/flyerscan/prestations/internal/models"
)

var (
	// ErrEmptyInput means nothing was left once fences and whitespace were
	// stripped.
	ErrEmptyInput = errors.New("empty input")
	// ErrMalformedStructure means no strategy could extract a single row.
	ErrMalformedStructure = errors.New("malformed structure")

	errNotApplicable = errors.New("strategy not applicable")
)

// ParseError is returned by Normalize. Kind is ErrEmptyInput or
// ErrMalformedStructure and can be matched with errors.Is.
type ParseError struct {
	Kind   error
	Detail string
}

func (e *ParseError) Error() string {
	if e.Detail == "" {
		return e.Kind.Error()
	}
	return e.Kind.Error() + ": " + e.Detail
}

func (e *ParseError) Unwrap() error {
	return e.Kind
}

// Reason explains why a candidate is not valid
type Reason string

const (
	ReasonInvalidEnum Reason = "invalid-enum"
	ReasonMissingName Reason = "missing-name"
)

// Candidate is an unconfirmed extraction. Invalid candidates are kept so the
// caller can decide to surface, skip or reject them.
type Candidate struct {
	models.Fields
	Valid  bool
	Reason Reason
	// Notes lists every problem found while coercing the row.
	Notes []string
}

// Entry is one raw row as found by a strategy, before coercion. All values
// are kept as text.
type Entry struct {
	Category      string
	Kind          string
	Name          string
	Price         string
	StartingPrice string
	Duration      string
	Description   string
}

// Strategy extracts raw entries from cleaned model text. It returns
// errNotApplicable (wrapped or not) when the text is not in its format.
type Strategy interface {
	Name() string
	Extract(text string) ([]Entry, error)
}

// Result is the detailed outcome of a normalization
type Result struct {
	Strategy   string
	Candidates []Candidate
}

// Normalizer runs its strategies in order
type Normalizer struct {
	strategies []Strategy
}

// New returns a Normalizer using the given strategies, or strict JSON then
// table scan when none are given.
func New(strategies ...Strategy) *Normalizer {
	if len(strategies) == 0 {
		strategies = []Strategy{Strict{}, Table{}}
	}
	return &Normalizer{strategies: strategies}
}

var defaultNormalizer = New()

// Normalize converts rawText with the default strategies.
func Normalize(rawText string) ([]Candidate, error) {
	res, err := defaultNormalizer.Normalize(rawText)
	if err != nil {
		return nil, err
	}
	return res.Candidates, nil
}

// NormalizeDetailed is Normalize but also reports the strategy that matched.
func NormalizeDetailed(rawText string) (*Result, error) {
	return defaultNormalizer.Normalize(rawText)
}

func (n *Normalizer) Normalize(rawText string) (*Result, error) {
	text := StripFences(rawText)
	if text == "" {
		return nil, &ParseError{Kind: ErrEmptyInput}
	}

	for _, s := range n.strategies {
		entries, err := s.Extract(text)
		if err != nil {
			slog.Debug("Normalization strategy did not apply", "strategy", s.Name(), "err", err)
			continue
		}

		candidates := make([]Candidate, 0, len(entries))
		for _, e := range entries {
			candidates = append(candidates, Coerce(e))
		}
		slog.Debug("Normalized model response", "strategy", s.Name(), "candidates", len(candidates))
		return &Result{Strategy: s.Name(), Candidates: candidates}, nil
	}

	return nil, &ParseError{
		Kind:   ErrMalformedStructure,
		Detail: "no JSON prestations list and no pipe-delimited rows found",
	}
}

// StripFences removes a leading ``` or ```lang line, a trailing ``` and
// surrounding whitespace.
func StripFences(s string) string {
	s = strings.TrimSpace(s)
	if strings.HasPrefix(s, "```") {
		if i := strings.IndexByte(s, '\n'); i >= 0 {
			s = s[i+1:]
		} else {
			s = strings.TrimLeft(strings.TrimPrefix(s, "```"), "abcdefghijklmnopqrstuvwxyz")
		}
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
