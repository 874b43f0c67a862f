package evaluation

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Result is the evaluation of one case.
type Result struct {
	Case           string        `yaml:"case"`
	Strategy       string        `yaml:"strategy,omitempty"`
	Response       string        `yaml:"response,omitempty"`
	Skipped        int           `yaml:"skipped"`
	Comparison     *Comparison   `yaml:"comparison,omitempty"`
	ProcessingTime time.Duration `yaml:"processingtime"`
	Error          string        `yaml:"error,omitempty"`
}

// FieldStats contains statistics for one scored field across matched rows.
type FieldStats struct {
	ExactMatches  int     `yaml:"exactmatches"`
	FuzzyMatches  int     `yaml:"fuzzymatches"`
	NoMatches     int     `yaml:"nomatches"`
	MissingFields int     `yaml:"missingfields"`
	AverageScore  float64 `yaml:"averagescore"`

	scores []float64
}

// Summary aggregates a run over a dataset.
type Summary struct {
	Provider       string    `yaml:"provider"`
	Model          string    `yaml:"model"`
	EvaluationDate time.Time `yaml:"evaluationdate"`

	TotalCases   int `yaml:"totalcases"`
	SuccessCount int `yaml:"successcount"`
	FailureCount int `yaml:"failurecount"`

	Precision       float64               `yaml:"precision"`
	Recall          float64               `yaml:"recall"`
	OverallAccuracy float64               `yaml:"overallaccuracy"`
	Fields          map[string]FieldStats `yaml:"fields"`

	AverageProcessingTime time.Duration `yaml:"averageprocessingtime"`
	TotalProcessingTime   time.Duration `yaml:"totalprocessingtime"`

	Results []Result `yaml:"results"`
}

// Aggregate summarises per-case results. Failed cases count towards
// FailureCount only.
func Aggregate(results []Result, provider, model string) *Summary {
	s := &Summary{
		Provider:       provider,
		Model:          model,
		EvaluationDate: time.Now(),
		TotalCases:     len(results),
		Fields:         make(map[string]FieldStats, len(scoredFields)),
		Results:        results,
	}

	var precision, recall, overall float64
	var successDuration time.Duration
	for _, r := range results {
		s.TotalProcessingTime += r.ProcessingTime
		if r.Error != "" || r.Comparison == nil {
			s.FailureCount++
			continue
		}
		s.SuccessCount++
		successDuration += r.ProcessingTime

		precision += r.Comparison.Precision
		recall += r.Comparison.Recall
		overall += r.Comparison.OverallScore

		for _, row := range r.Comparison.Rows {
			if !row.Matched {
				continue
			}
			for _, name := range scoredFields {
				stats := s.Fields[name]
				aggregateFieldStats(&stats, row.Fields[name])
				s.Fields[name] = stats
			}
		}
	}

	if s.SuccessCount > 0 {
		n := float64(s.SuccessCount)
		s.Precision = precision / n
		s.Recall = recall / n
		s.OverallAccuracy = overall / n
		s.AverageProcessingTime = successDuration / time.Duration(s.SuccessCount)
	}
	for name, stats := range s.Fields {
		stats.AverageScore = calculateAverage(stats.scores)
		s.Fields[name] = stats
	}
	return s
}

func aggregateFieldStats(stats *FieldStats, match FieldMatch) {
	stats.scores = append(stats.scores, match.Score)

	switch match.Method {
	case "exact", "both_missing":
		stats.ExactMatches++
	case "fuzzy_high", "fuzzy_medium", "substring", "partial":
		stats.FuzzyMatches++
	case "no_match":
		stats.NoMatches++
	case "actual_missing", "expected_missing":
		stats.MissingFields++
	}
}

func calculateAverage(scores []float64) float64 {
	if len(scores) == 0 {
		return 0.0
	}
	sum := 0.0
	for _, score := range scores {
		sum += score
	}
	return sum / float64(len(scores))
}

// PrintSummary writes a human-readable summary of the evaluation
func (s *Summary) PrintSummary(w io.Writer) {
	line := strings.Repeat("=", 70)
	dash := strings.Repeat("-", 70)

	fmt.Fprintln(w, line)
	fmt.Fprintln(w, "PRESTATIONS EXTRACTION EVALUATION")
	fmt.Fprintln(w, line)
	fmt.Fprintf(w, "Evaluation Date: %s\n", s.EvaluationDate.Format("2006-01-02 15:04:05"))
	fmt.Fprintf(w, "Provider: %s\n", s.Provider)
	fmt.Fprintf(w, "Model: %s\n", s.Model)
	fmt.Fprintf(w, "Cases: %d (%d ok, %d failed)\n", s.TotalCases, s.SuccessCount, s.FailureCount)
	fmt.Fprintf(w, "Average Processing Time: %s\n", s.AverageProcessingTime)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "FIELD-LEVEL ACCURACY")
	fmt.Fprintln(w, dash)
	for _, name := range scoredFields {
		stats := s.Fields[name]
		fmt.Fprintf(w, "%-9s avg %.2f  exact %d  fuzzy %d  wrong %d  missing %d\n",
			name, stats.AverageScore, stats.ExactMatches, stats.FuzzyMatches, stats.NoMatches, stats.MissingFields)
	}
	fmt.Fprintln(w)

	fmt.Fprintln(w, "OVERALL")
	fmt.Fprintln(w, dash)
	fmt.Fprintf(w, "Precision: %.2f%%\n", s.Precision*100)
	fmt.Fprintf(w, "Recall: %.2f%%\n", s.Recall*100)
	fmt.Fprintf(w, "Overall Accuracy: %.2f%% (%.3f)\n", s.OverallAccuracy*100, s.OverallAccuracy)
	fmt.Fprintln(w, line)
}

// SaveToYAML writes the summary to <dir>/<model>-<timestamp>.yaml and returns
// the path.
func (s *Summary) SaveToYAML(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", fmt.Errorf("failed to create evals directory: %w", err)
	}

	model := strings.NewReplacer("/", "_", ":", "_").Replace(s.Model)
	filename := filepath.Join(dir, fmt.Sprintf("%s-%s.yaml", model, s.EvaluationDate.Format("2006-01-02_15-04-05")))

	data, err := yaml.Marshal(s)
	if err != nil {
		return "", fmt.Errorf("failed to marshal YAML: %w", err)
	}
	if err := os.WriteFile(filename, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write YAML file: %w", err)
	}
	return filename, nil
}
