package normalize

import (
	"strings"

	"github.com/flyerscan/prestations/internal/models"
)

type column int

const (
	colNone column = iota
	colCategory
	colKind
	colName
	colPrice
	colStartingPrice
	colDuration
	colDescription
)

// columnFor maps a JSON key or a table header onto an entry column. Order
// matters: "À partir de" must win over "prix", "type de prestation" and
// "service_type" over the name fallback.
func columnFor(label string) column {
	k := models.Fold(cleanCell(label))
	k = strings.NewReplacer(" ", "", "-", "").Replace(k)
	switch {
	case k == "":
		return colNone
	case strings.Contains(k, "partir") || strings.Contains(k, "starting") || strings.HasPrefix(k, "from"):
		return colStartingPrice
	case strings.Contains(k, "categor"):
		return colCategory
	case strings.Contains(k, "type") || strings.Contains(k, "kind"):
		return colKind
	case strings.Contains(k, "duree") || strings.Contains(k, "duration") || strings.Contains(k, "temps"):
		return colDuration
	case strings.Contains(k, "prix") || strings.Contains(k, "price") || strings.Contains(k, "tarif"):
		return colPrice
	case strings.Contains(k, "desc") || strings.Contains(k, "detail") || strings.HasPrefix(k, "note"):
		return colDescription
	case strings.HasPrefix(k, "nom") || strings.Contains(k, "name") || strings.Contains(k, "prestation") || strings.Contains(k, "service"):
		return colName
	default:
		return colNone
	}
}

// exactKeys are the labels that name a column outright. They take precedence
// over keys that only contain a column word.
var exactKeys = map[string]bool{
	"name": true, "nom": true,
	"category": true, "categorie": true,
	"kind": true, "type": true,
	"price": true, "prix": true,
	"duration": true, "duree": true,
	"description": true,
}

func (e *Entry) get(c column) string {
	switch c {
	case colCategory:
		return e.Category
	case colKind:
		return e.Kind
	case colName:
		return e.Name
	case colPrice:
		return e.Price
	case colStartingPrice:
		return e.StartingPrice
	case colDuration:
		return e.Duration
	case colDescription:
		return e.Description
	}
	return ""
}

func (e *Entry) set(c column, value string) {
	switch c {
	case colCategory:
		e.Category = value
	case colKind:
		e.Kind = value
	case colName:
		e.Name = value
	case colPrice:
		e.Price = value
	case colStartingPrice:
		e.StartingPrice = value
	case colDuration:
		e.Duration = value
	case colDescription:
		e.Description = value
	}
}

// cleanCell trims whitespace and markdown emphasis around a value.
func cleanCell(s string) string {
	s = strings.TrimSpace(s)
	s = strings.Trim(s, "*_`")
	return strings.TrimSpace(s)
}
