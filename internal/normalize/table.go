package normalize

import (
	"fmt"
	"strings"

	"github.com/flyerscan/prestations/internal/models"
)

// Table scans line by line for pipe-delimited rows. A row followed by a
// separator line (only dashes, pipes, colons and spaces) is a header and maps
// columns by keyword; rows without a header are mapped by position. Lines
// holding nothing but a category or kind word ("**Femmes**", "## Forfaits")
// open a section whose values rows inherit.
type Table struct{}

func (Table) Name() string { return "table" }

type tableLine struct {
	cells    []string
	sep      bool
	category string
	kind     string
}

func (Table) Extract(text string) ([]Entry, error) {
	var lines []tableLine
	var category, kind string

	for _, raw := range strings.Split(text, "\n") {
		line := strings.TrimSpace(raw)
		if line == "" {
			continue
		}
		if !strings.Contains(line, "|") {
			category, kind = updateSection(line, category, kind)
			continue
		}
		if isSeparator(line) {
			lines = append(lines, tableLine{sep: true})
			continue
		}

		cells := splitCells(line)
		if only, ok := singleValue(cells); ok && isSection(only) {
			category, kind = updateSection(only, category, kind)
			continue
		}
		lines = append(lines, tableLine{cells: cells, category: category, kind: kind})
	}

	var entries []Entry
	var header []column
	for i, l := range lines {
		if l.sep {
			continue
		}
		if i+1 < len(lines) && lines[i+1].sep {
			header = mapHeader(l.cells)
			continue
		}
		if header == nil && allLabels(l.cells) {
			header = mapHeader(l.cells)
			continue
		}
		entries = append(entries, rowEntry(l, header))
	}

	if len(entries) == 0 {
		return nil, fmt.Errorf("%w: no table rows", errNotApplicable)
	}
	return entries, nil
}

// splitCells splits on pipes, keeping empty interior cells and dropping the
// empty cells produced by leading and trailing pipes.
func splitCells(line string) []string {
	parts := strings.Split(line, "|")
	for i := range parts {
		parts[i] = strings.TrimSpace(parts[i])
	}
	if len(parts) > 0 && parts[0] == "" {
		parts = parts[1:]
	}
	if len(parts) > 0 && parts[len(parts)-1] == "" {
		parts = parts[:len(parts)-1]
	}
	return parts
}

func isSeparator(line string) bool {
	if !strings.Contains(line, "-") {
		return false
	}
	for _, r := range line {
		switch r {
		case '-', '|', ':', ' ', '\t':
		default:
			return false
		}
	}
	return true
}

func singleValue(cells []string) (string, bool) {
	var found string
	for _, c := range cells {
		if c == "" {
			continue
		}
		if found != "" {
			return "", false
		}
		found = c
	}
	return found, found != ""
}

func sectionWord(line string) string {
	return strings.TrimSpace(strings.Trim(cleanCell(line), "#*:_- "))
}

func isSection(line string) bool {
	w := sectionWord(line)
	if _, err := models.ParseCategory(w); err == nil {
		return true
	}
	_, err := models.ParseKind(w)
	return err == nil
}

func updateSection(line, category, kind string) (string, string) {
	w := sectionWord(line)
	if _, err := models.ParseCategory(w); err == nil {
		return w, kind
	}
	if _, err := models.ParseKind(w); err == nil {
		return category, w
	}
	return category, kind
}

// mapHeader returns nil when no header cell is recognised, which switches the
// following rows to positional mapping.
func mapHeader(cells []string) []column {
	cols := make([]column, len(cells))
	known := false
	for i, c := range cells {
		cols[i] = columnFor(c)
		if cols[i] != colNone {
			known = true
		}
	}
	if !known {
		return nil
	}
	return cols
}

// allLabels reports whether every cell reads as a column label, which marks a
// header row the model printed without a separator line.
func allLabels(cells []string) bool {
	if len(cells) < 2 {
		return false
	}
	for _, c := range cells {
		if columnFor(c) == colNone {
			return false
		}
	}
	return true
}

// positional mirrors the column order of the default extraction prompt when
// the row is wide enough, and a plain name/price/duration/description layout
// otherwise.
func positional(width int) []column {
	if width >= 5 {
		return []column{colName, colStartingPrice, colPrice, colDuration, colDescription, colCategory, colKind}
	}
	return []column{colName, colPrice, colDuration, colDescription}
}

func rowEntry(l tableLine, header []column) Entry {
	cols := header
	if cols == nil {
		cols = positional(len(l.cells))
	}

	e := Entry{Category: l.category, Kind: l.kind}
	for i, cell := range l.cells {
		if i >= len(cols) {
			break
		}
		value := cleanCell(cell)
		if value == "" && (cols[i] == colCategory || cols[i] == colKind) {
			continue
		}
		e.set(cols[i], value)
	}
	return e
}
