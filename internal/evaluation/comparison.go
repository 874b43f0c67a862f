package evaluation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/flyerscan/prestations/internal/models"
)

// Fields scored on every matched row.
var scoredFields = []string{"name", "category", "kind", "price", "duration"}

// minNameScore is the name similarity needed to pair an extracted row with an
// expected one.
const minNameScore = 0.6

// FieldMatch represents the comparison result for a single field
type FieldMatch struct {
	Expected string  `yaml:"expected" json:"expected"`
	Actual   string  `yaml:"actual" json:"actual"`
	Score    float64 `yaml:"score" json:"score"` // 0.0 to 1.0
	Method   string  `yaml:"method" json:"method"`
}

// RowComparison scores one expected prestation.
type RowComparison struct {
	Expected string                `yaml:"expected" json:"expected"`
	Matched  bool                  `yaml:"matched" json:"matched"`
	Fields   map[string]FieldMatch `yaml:"fields,omitempty" json:"fields,omitempty"`
	Score    float64               `yaml:"score" json:"score"`
}

// Comparison scores an extraction against the labelled prestations.
type Comparison struct {
	Rows         []RowComparison `yaml:"rows" json:"rows"`
	Extra        []string        `yaml:"extra,omitempty" json:"extra,omitempty"`
	Precision    float64         `yaml:"precision" json:"precision"`
	Recall       float64         `yaml:"recall" json:"recall"`
	OverallScore float64         `yaml:"overallscore" json:"overallscore"`
}

// Compare pairs each expected row with the most similar unused extracted row
// by name, then scores the pair field by field. Unpaired expected rows score
// zero and unpaired extracted rows are listed as extra.
func Compare(expected, actual []models.Fields) *Comparison {
	cmp := &Comparison{Rows: make([]RowComparison, 0, len(expected))}
	used := make([]bool, len(actual))
	matched := 0
	total := 0.0

	for _, exp := range expected {
		row := RowComparison{Expected: exp.Name}

		best, bestScore := -1, 0.0
		for i, act := range actual {
			if used[i] {
				continue
			}
			if s := compareText(exp.Name, act.Name).Score; s > bestScore {
				best, bestScore = i, s
			}
		}

		if best >= 0 && bestScore >= minNameScore {
			used[best] = true
			matched++
			row.Matched = true
			row.Fields = compareRow(exp, actual[best])
			for _, name := range scoredFields {
				row.Score += row.Fields[name].Score
			}
			row.Score /= float64(len(scoredFields))
		}

		total += row.Score
		cmp.Rows = append(cmp.Rows, row)
	}

	for i, act := range actual {
		if !used[i] {
			cmp.Extra = append(cmp.Extra, act.Name)
		}
	}

	cmp.Precision = ratio(matched, len(actual), len(expected) == 0)
	cmp.Recall = ratio(matched, len(expected), len(actual) == 0)
	if len(expected) > 0 {
		cmp.OverallScore = total / float64(len(expected))
	} else if len(actual) == 0 {
		cmp.OverallScore = 1
	}
	return cmp
}

// ratio is n/d, or 1 when d is zero and the other side is empty too.
func ratio(n, d int, otherEmpty bool) float64 {
	if d == 0 {
		if otherEmpty {
			return 1
		}
		return 0
	}
	return float64(n) / float64(d)
}

func compareRow(exp, act models.Fields) map[string]FieldMatch {
	return map[string]FieldMatch{
		"name":     compareText(exp.Name, act.Name),
		"category": compareExact(string(exp.Category), string(act.Category)),
		"kind":     compareExact(string(exp.Kind), string(act.Kind)),
		"price":    comparePrice(exp.Price, act.Price),
		"duration": compareDuration(exp.Duration, act.Duration),
	}
}

func compareExact(expected, actual string) FieldMatch {
	m := FieldMatch{Expected: expected, Actual: actual, Method: "no_match"}
	if expected == actual {
		m.Score = 1
		m.Method = "exact"
	}
	return m
}

func comparePrice(expected, actual models.Price) FieldMatch {
	m := FieldMatch{Expected: expected.String(), Actual: actual.String(), Method: "no_match"}
	switch {
	case expected == actual:
		m.Score = 1
		m.Method = "exact"
	case expected.Amount == actual.Amount:
		m.Score = 0.5
		m.Method = "partial"
	}
	return m
}

func compareDuration(expected, actual *models.Duration) FieldMatch {
	m := FieldMatch{Expected: durationString(expected), Actual: durationString(actual), Method: "no_match"}
	switch {
	case expected == nil && actual == nil:
		m.Score = 1
		m.Method = "both_missing"
	case expected == nil:
		m.Method = "expected_missing"
	case actual == nil:
		m.Method = "actual_missing"
	case expected.TotalMinutes() == actual.TotalMinutes():
		m.Score = 1
		m.Method = "exact"
	}
	return m
}

func durationString(d *models.Duration) string {
	if d == nil {
		return ""
	}
	return d.String()
}

// compareText scores two free-text values: exact after normalization,
// substring, then Levenshtein similarity.
func compareText(expected, actual string) FieldMatch {
	match := FieldMatch{
		Expected: expected,
		Actual:   actual,
	}

	expNorm := normalizeForComparison(expected)
	actNorm := normalizeForComparison(actual)

	switch {
	case expNorm == "" && actNorm == "":
		match.Method = "both_missing"
		match.Score = 1
		return match
	case expNorm == "":
		match.Method = "expected_missing"
		return match
	case actNorm == "":
		match.Method = "actual_missing"
		return match
	case expNorm == actNorm:
		match.Score = 1
		match.Method = "exact"
		return match
	case strings.Contains(actNorm, expNorm) || strings.Contains(expNorm, actNorm):
		match.Score = 0.8
		match.Method = "substring"
		return match
	}

	similarity := calculateSimilarity(expNorm, actNorm)
	match.Score = similarity
	switch {
	case similarity > 0.7:
		match.Method = "fuzzy_high"
	case similarity > 0.4:
		match.Method = "fuzzy_medium"
	default:
		match.Method = "no_match"
	}
	return match
}

var punctuation = regexp.MustCompile(`[^\p{L}\p{N}\s]`)

func normalizeForComparison(text string) string {
	text = models.Fold(text)
	text = punctuation.ReplaceAllString(text, " ")
	return strings.Join(strings.Fields(text), " ")
}

func calculateSimilarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}
	r1, r2 := []rune(s1), []rune(s2)
	if len(r1) == 0 || len(r2) == 0 {
		return 0.0
	}

	maxLen := max(len(r1), len(r2))
	return 1.0 - float64(levenshteinDistance(r1, r2))/float64(maxLen)
}

// levenshteinDistance works on runes so accented letters count once.
func levenshteinDistance(s1, s2 []rune) int {
	prev := make([]int, len(s2)+1)
	curr := make([]int, len(s2)+1)
	for j := range prev {
		prev[j] = j
	}

	for i := 1; i <= len(s1); i++ {
		curr[0] = i
		for j := 1; j <= len(s2); j++ {
			cost := 1
			if s1[i-1] == s2[j-1] {
				cost = 0
			}
			curr[j] = min(prev[j]+1, curr[j-1]+1, prev[j-1]+cost)
		}
		prev, curr = curr, prev
	}
	return prev[len(s2)]
}

func (m FieldMatch) String() string {
	return fmt.Sprintf("%.2f (%s) - Expected: %s, Actual: %s", m.Score, m.Method, m.Expected, m.Actual)
}
