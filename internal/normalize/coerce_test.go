package normalize

import (
	"testing"

	"github.com/flyerscan/prestations/internal/models"
)

func TestParsePrice(t *testing.T) {
	tests := []struct {
		in       string
		amount   int
		starting bool
		upper    int
	}{
		{"30", 30, false, 0},
		{"30€", 30, false, 0},
		{"29,90 €", 30, false, 0},
		{"30-50", 30, true, 50},
		{"30€ - 50€", 30, true, 50},
		{"de 30 à 50 €", 30, true, 50},
		{"à partir de 45€", 45, true, 0},
		{"Dès 20", 20, true, 0},
		{"60€+", 60, true, 0},
		{"30€ (2-3 personnes)", 30, false, 0},
		{"45€ pour 1/2 journée", 45, false, 0},
		{"à partir de 40€ (1 à 2h)", 40, true, 0},
		{"Non spécifié", 0, false, 0},
		{"", 0, false, 0},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			amount, starting, upper := ParsePrice(tt.in)
			if amount != tt.amount || starting != tt.starting || upper != tt.upper {
				t.Errorf("Expected (%d, %v, %d), got (%d, %v, %d)",
					tt.amount, tt.starting, tt.upper, amount, starting, upper)
			}
		})
	}
}

func TestParseDuration(t *testing.T) {
	tests := []struct {
		in       string
		expected *models.Duration
	}{
		{"", nil},
		{"Illisible", nil},
		{"1h30", &models.Duration{Hours: 1, Minutes: 30}},
		{"1h", &models.Duration{Hours: 1}},
		{"2 heures", &models.Duration{Hours: 2}},
		{"1:45", &models.Duration{Hours: 1, Minutes: 45}},
		{"90", &models.Duration{Hours: 1, Minutes: 30}},
		{"45 min", &models.Duration{Minutes: 45}},
		{"1,5h", &models.Duration{Hours: 1, Minutes: 30}},
		{"environ", &models.Duration{}},
		{"30min-1h", &models.Duration{Minutes: 30}},
		{"1h-1h30", &models.Duration{Hours: 1}},
		{"1h30 à 2h", &models.Duration{Hours: 1, Minutes: 30}},
		{"45-60 min", &models.Duration{Minutes: 45}},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got := ParseDuration(tt.in)
			if tt.expected == nil {
				if got != nil {
					t.Errorf("Expected nil, got %+v", got)
				}
				return
			}
			if got == nil || *got != *tt.expected {
				t.Errorf("Expected %+v, got %+v", tt.expected, got)
			}
		})
	}
}

func TestCoerceDefaults(t *testing.T) {
	c := Coerce(Entry{Name: "**Balayage**", Price: "80"})
	if !c.Valid {
		t.Fatalf("Expected valid candidate, got %v", c.Notes)
	}
	if c.Name != "Balayage" {
		t.Errorf("Expected markdown stripped, got %q", c.Name)
	}
	if c.Category != models.CategoryWomen || c.Kind != models.KindSingleService {
		t.Errorf("Expected defaults, got %s/%s", c.Category, c.Kind)
	}
}

func TestCoerceKeepsFirstReason(t *testing.T) {
	c := Coerce(Entry{Category: "robots", Name: ""})
	if c.Valid {
		t.Fatal("Expected invalid candidate")
	}
	if c.Reason != ReasonInvalidEnum {
		t.Errorf("Expected invalid-enum, got %s", c.Reason)
	}
	if len(c.Notes) != 2 {
		t.Errorf("Expected 2 notes, got %v", c.Notes)
	}
}
