package models

import (
	"errors"
	"fmt"
	"strings"
)

// ErrUnknownValue is returned when a string cannot be mapped onto one of the
// catalog enums.
var ErrUnknownValue = errors.New("unknown value")

// Category is the clientele a prestation is aimed at
type Category string

const (
	CategoryWomen    Category = "women"
	CategoryMen      Category = "men"
	CategoryChildren Category = "children"
)

// Kind tells a single service apart from a package of services
type Kind string

const (
	KindSingleService Kind = "single-service"
	KindPackage       Kind = "package"
)

// Status is the lifecycle state of a prestation in the catalog
type Status string

const (
	StatusActive  Status = "active"
	StatusPending Status = "pending"
)

// Source records how a prestation entered the catalog
type Source string

const (
	SourceManual      Source = "manual"
	SourceFlyerImport Source = "flyer-import"
)

var categoryAliases = map[string]Category{
	"women":    CategoryWomen,
	"woman":    CategoryWomen,
	"ladies":   CategoryWomen,
	"femmes":   CategoryWomen,
	"femme":    CategoryWomen,
	"dames":    CategoryWomen,
	"men":      CategoryMen,
	"man":      CategoryMen,
	"hommes":   CategoryMen,
	"homme":    CategoryMen,
	"children": CategoryChildren,
	"child":    CategoryChildren,
	"kids":     CategoryChildren,
	"enfants":  CategoryChildren,
	"enfant":   CategoryChildren,
	"junior":   CategoryChildren,
}

var kindAliases = map[string]Kind{
	"single-service": KindSingleService,
	"single service": KindSingleService,
	"single":         KindSingleService,
	"service":        KindSingleService,
	"prestation":     KindSingleService,
	"package":        KindPackage,
	"forfait":        KindPackage,
	"bundle":         KindPackage,
	"pack":           KindPackage,
	"formule":        KindPackage,
}

var statusAliases = map[string]Status{
	"active":     StatusActive,
	"validee":    StatusActive,
	"pending":    StatusPending,
	"en attente": StatusPending,
}

var sourceAliases = map[string]Source{
	"manual":       SourceManual,
	"manuel":       SourceManual,
	"flyer-import": SourceFlyerImport,
	"flyer":        SourceFlyerImport,
}

// ParseCategory maps free text (English or French, any case, with or without
// accents) onto a Category.
func ParseCategory(s string) (Category, error) {
	if c, ok := categoryAliases[Fold(s)]; ok {
		return c, nil
	}
	return "", fmt.Errorf("%w: category %q", ErrUnknownValue, s)
}

// ParseKind maps free text onto a Kind. A trailing plural "s" is tolerated.
func ParseKind(s string) (Kind, error) {
	key := Fold(s)
	if k, ok := kindAliases[key]; ok {
		return k, nil
	}
	if k, ok := kindAliases[strings.TrimSuffix(key, "s")]; ok {
		return k, nil
	}
	return "", fmt.Errorf("%w: kind %q", ErrUnknownValue, s)
}

func ParseStatus(s string) (Status, error) {
	if st, ok := statusAliases[Fold(s)]; ok {
		return st, nil
	}
	return "", fmt.Errorf("%w: status %q", ErrUnknownValue, s)
}

func ParseSource(s string) (Source, error) {
	if src, ok := sourceAliases[Fold(s)]; ok {
		return src, nil
	}
	return "", fmt.Errorf("%w: source %q", ErrUnknownValue, s)
}

func (c Category) Valid() bool {
	return c == CategoryWomen || c == CategoryMen || c == CategoryChildren
}

func (k Kind) Valid() bool {
	return k == KindSingleService || k == KindPackage
}

func (s Status) Valid() bool {
	return s == StatusActive || s == StatusPending
}

func (s Source) Valid() bool {
	return s == SourceManual || s == SourceFlyerImport
}

// Fields is the operator-editable part of a prestation
type Fields struct {
	Category    Category  `json:"category" yaml:"category"`
	Kind        Kind      `json:"kind" yaml:"kind"`
	Name        string    `json:"name" yaml:"name"`
	Price       Price     `json:"price" yaml:"price"`
	Duration    *Duration `json:"duration,omitempty" yaml:"duration"`
	Description string    `json:"description" yaml:"description"`
	Photos      []string  `json:"photos" yaml:"photos"`
}

// Validate checks the record invariants that do not depend on the catalog.
func (f Fields) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return errors.New("name is required")
	}
	if !f.Category.Valid() {
		return fmt.Errorf("invalid category %q", f.Category)
	}
	if !f.Kind.Valid() {
		return fmt.Errorf("invalid kind %q", f.Kind)
	}
	if err := f.Price.Validate(); err != nil {
		return err
	}
	if f.Duration != nil {
		if err := f.Duration.Validate(); err != nil {
			return err
		}
	}
	return nil
}

// Prestation is a cataloged service or package offering
type Prestation struct {
	ID string `json:"id" yaml:"id"`
	Fields `yaml:",inline"`
	Status Status `json:"status" yaml:"status"`
	Source Source `json:"source" yaml:"source"`
}

// Pending reports whether the prestation still awaits operator confirmation.
func (p Prestation) Pending() bool {
	return p.Status == StatusPending
}
