package evaluation

import (
	"math"
	"testing"

	"github.com/flyerscan/prestations/internal/models"
)

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestCompare(t *testing.T) {
	expected := []models.Fields{
		{Category: models.CategoryWomen, Kind: models.KindSingleService, Name: "Coupe brushing", Price: models.Price{Amount: 30}, Duration: &models.Duration{Minutes: 45}},
		{Category: models.CategoryMen, Kind: models.KindSingleService, Name: "Barbe", Price: models.Price{Amount: 15}},
		{Category: models.CategoryChildren, Kind: models.KindSingleService, Name: "Coupe enfant", Price: models.Price{Amount: 12}},
	}
	actual := []models.Fields{
		{Category: models.CategoryWomen, Kind: models.KindSingleService, Name: "Coupe Brushing", Price: models.Price{Amount: 30}, Duration: &models.Duration{Minutes: 45}},
		{Category: models.CategoryMen, Kind: models.KindSingleService, Name: "Taille de barbe", Price: models.Price{Amount: 15, IsStartingPrice: true}},
		{Category: models.CategoryWomen, Kind: models.KindPackage, Name: "Forfait mariée", Price: models.Price{Amount: 120}},
	}

	cmp := Compare(expected, actual)

	if len(cmp.Rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(cmp.Rows))
	}
	if !cmp.Rows[0].Matched || !almostEqual(cmp.Rows[0].Score, 1) {
		t.Errorf("Expected first row to match fully, got %+v", cmp.Rows[0])
	}

	second := cmp.Rows[1]
	if !second.Matched {
		t.Fatalf("Expected Barbe to pair with Taille de barbe")
	}
	if second.Fields["name"].Method != "substring" {
		t.Errorf("Expected substring name match, got %s", second.Fields["name"].Method)
	}
	if second.Fields["price"].Method != "partial" {
		t.Errorf("Expected partial price match, got %s", second.Fields["price"].Method)
	}
	if second.Fields["duration"].Method != "both_missing" || second.Fields["duration"].Score != 1 {
		t.Errorf("Expected absent durations to agree, got %+v", second.Fields["duration"])
	}
	if !almostEqual(second.Score, 0.86) {
		t.Errorf("Expected row score 0.86, got %f", second.Score)
	}

	if cmp.Rows[2].Matched {
		t.Errorf("Expected Coupe enfant to stay unmatched")
	}
	if len(cmp.Extra) != 1 || cmp.Extra[0] != "Forfait mariée" {
		t.Errorf("Expected extra [Forfait mariée], got %v", cmp.Extra)
	}
	if !almostEqual(cmp.Precision, 2.0/3) || !almostEqual(cmp.Recall, 2.0/3) {
		t.Errorf("Expected precision and recall 2/3, got %f and %f", cmp.Precision, cmp.Recall)
	}
	if !almostEqual(cmp.OverallScore, 1.86/3) {
		t.Errorf("Expected overall %f, got %f", 1.86/3, cmp.OverallScore)
	}
}

func TestCompareEmpty(t *testing.T) {
	tests := []struct {
		name      string
		expected  []models.Fields
		actual    []models.Fields
		precision float64
		recall    float64
		overall   float64
	}{
		{"both empty", nil, nil, 1, 1, 1},
		{"nothing extracted", []models.Fields{{Name: "Coupe"}}, nil, 0, 0, 0},
		{"nothing expected", nil, []models.Fields{{Name: "Coupe"}}, 0, 0, 0},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cmp := Compare(tt.expected, tt.actual)
			if cmp.Precision != tt.precision {
				t.Errorf("Expected precision %f, got %f", tt.precision, cmp.Precision)
			}
			if cmp.Recall != tt.recall {
				t.Errorf("Expected recall %f, got %f", tt.recall, cmp.Recall)
			}
			if cmp.OverallScore != tt.overall {
				t.Errorf("Expected overall %f, got %f", tt.overall, cmp.OverallScore)
			}
		})
	}
}

func TestCompareText(t *testing.T) {
	tests := []struct {
		expected string
		actual   string
		method   string
	}{
		{"Durée", "duree", "exact"},
		{"Coupe - Brushing", "coupe brushing", "exact"},
		{"Brushing", "Brushng", "fuzzy_high"},
		{"Barbe", "Taille de barbe", "substring"},
		{"Coupe enfant", "Forfait mariée", "no_match"},
		{"", "", "both_missing"},
		{"Coupe", "", "actual_missing"},
		{"", "Coupe", "expected_missing"},
	}

	for _, tt := range tests {
		t.Run(tt.expected+"/"+tt.actual, func(t *testing.T) {
			got := compareText(tt.expected, tt.actual)
			if got.Method != tt.method {
				t.Errorf("Expected method %s, got %s (score %.2f)", tt.method, got.Method, got.Score)
			}
		})
	}
}

func TestLevenshteinDistance(t *testing.T) {
	tests := []struct {
		a, b string
		want int
	}{
		{"", "", 0},
		{"abc", "", 3},
		{"kitten", "sitting", 3},
		{"coupé", "coupe", 1},
	}
	for _, tt := range tests {
		if got := levenshteinDistance([]rune(tt.a), []rune(tt.b)); got != tt.want {
			t.Errorf("Expected distance(%q, %q)=%d, got %d", tt.a, tt.b, tt.want, got)
		}
	}
}
