package models

import (
	"errors"
	"testing"
)

func TestFold(t *testing.T) {
	tests := []struct {
		in       string
		expected string
	}{
		{"Enfants", "enfants"},
		{"  FEMMES ", "femmes"},
		{"Durée", "duree"},
		{"single_service", "single-service"},
		{"En   attente", "en attente"},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			if got := Fold(tt.in); got != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, got)
			}
		})
	}
}

func TestParseCategory(t *testing.T) {
	tests := []struct {
		in       string
		expected Category
		wantErr  bool
	}{
		{in: "women", expected: CategoryWomen},
		{in: "Femmes", expected: CategoryWomen},
		{in: "HOMME", expected: CategoryMen},
		{in: "enfants", expected: CategoryChildren},
		{in: "kids", expected: CategoryChildren},
		{in: "pets", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseCategory(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownValue) {
					t.Fatalf("Expected ErrUnknownValue, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestParseKind(t *testing.T) {
	tests := []struct {
		in       string
		expected Kind
		wantErr  bool
	}{
		{in: "single-service", expected: KindSingleService},
		{in: "Prestation", expected: KindSingleService},
		{in: "forfaits", expected: KindPackage},
		{in: "package", expected: KindPackage},
		{in: "subscription", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseKind(tt.in)
			if tt.wantErr {
				if err == nil {
					t.Fatal("Expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("Expected %s, got %s", tt.expected, got)
			}
		})
	}
}

func TestParseStatusAndSource(t *testing.T) {
	if s, err := ParseStatus("Pending"); err != nil || s != StatusPending {
		t.Errorf("Expected pending, got %s (%v)", s, err)
	}
	if _, err := ParseStatus("archived"); err == nil {
		t.Error("Expected error for unknown status")
	}
	if s, err := ParseSource("flyer"); err != nil || s != SourceFlyerImport {
		t.Errorf("Expected flyer-import, got %s (%v)", s, err)
	}
}

func TestDuration(t *testing.T) {
	if _, err := NewDuration(1, 60); err == nil {
		t.Error("Expected error for 60 minutes")
	}
	if _, err := NewDuration(-1, 0); err == nil {
		t.Error("Expected error for negative hours")
	}

	d, err := DurationFromMinutes(90)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if d.Hours != 1 || d.Minutes != 30 {
		t.Errorf("Expected 1h30, got %+v", d)
	}
	if d.TotalMinutes() != 90 {
		t.Errorf("Expected 90 minutes, got %d", d.TotalMinutes())
	}

	tests := []struct {
		d        Duration
		expected string
	}{
		{Duration{}, ""},
		{Duration{Hours: 2}, "2h"},
		{Duration{Minutes: 45}, "45min"},
		{Duration{Hours: 1, Minutes: 30}, "1h30"},
		{Duration{Hours: 1, Minutes: 5}, "1h05"},
	}
	for _, tt := range tests {
		if got := tt.d.String(); got != tt.expected {
			t.Errorf("Expected %q, got %q", tt.expected, got)
		}
	}
}

func TestPrice(t *testing.T) {
	if _, err := NewPrice(-5, false); err == nil {
		t.Error("Expected error for negative amount")
	}
	p, err := NewPrice(30, true)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if p.String() != "à partir de 30€" {
		t.Errorf("Unexpected rendering %q", p.String())
	}
}

func TestFieldsValidate(t *testing.T) {
	valid := Fields{
		Category: CategoryWomen,
		Kind:     KindSingleService,
		Name:     "Coupe",
		Price:    Price{Amount: 30},
	}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Expected valid fields, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(f *Fields)
	}{
		{"blank name", func(f *Fields) { f.Name = "  " }},
		{"bad category", func(f *Fields) { f.Category = "femmes" }},
		{"bad kind", func(f *Fields) { f.Kind = "" }},
		{"negative price", func(f *Fields) { f.Price.Amount = -1 }},
		{"bad duration", func(f *Fields) { f.Duration = &Duration{Minutes: 75} }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := valid
			tt.mutate(&f)
			if err := f.Validate(); err == nil {
				t.Error("Expected validation error, got nil")
			}
		})
	}
}
