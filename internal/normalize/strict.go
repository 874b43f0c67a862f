package normalize

import (
	"bytes"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/flyerscan/prestations/internal/models"
)

// Strict decodes a JSON object holding a "prestations" (or "services") list.
// Prose around the JSON is tolerated by retrying on the outermost braces. A
// bare top-level array is accepted too.
type Strict struct{}

func (Strict) Name() string { return "json" }

func (Strict) Extract(text string) ([]Entry, error) {
	var lastErr error
	for _, candidate := range jsonSpans(text) {
		items, err := decodeList(candidate)
		if err != nil {
			lastErr = err
			continue
		}
		entries := make([]Entry, 0, len(items))
		for _, item := range items {
			entries = append(entries, entryFromJSON(item))
		}
		return entries, nil
	}
	return nil, fmt.Errorf("%w: %v", errNotApplicable, lastErr)
}

// jsonSpans lists the substrings worth trying to decode, most specific first.
func jsonSpans(text string) []string {
	spans := []string{text}
	if start, end := strings.IndexByte(text, '{'), strings.LastIndexByte(text, '}'); start >= 0 && end > start {
		if span := text[start : end+1]; span != text {
			spans = append(spans, span)
		}
	}
	if start, end := strings.IndexByte(text, '['), strings.LastIndexByte(text, ']'); start >= 0 && end > start {
		if span := text[start : end+1]; span != text {
			spans = append(spans, span)
		}
	}
	return spans
}

func decodeList(text string) ([]json.RawMessage, error) {
	trimmed := bytes.TrimSpace([]byte(text))
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var items []json.RawMessage
		if err := json.Unmarshal(trimmed, &items); err != nil {
			return nil, err
		}
		return items, nil
	}

	var envelope map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &envelope); err != nil {
		return nil, err
	}
	for _, key := range sortedKeys(envelope) {
		raw := envelope[key]
		switch models.Fold(key) {
		case "prestations", "services":
			var items []json.RawMessage
			if err := json.Unmarshal(raw, &items); err != nil {
				return nil, fmt.Errorf("field %q is not a list: %w", key, err)
			}
			return items, nil
		}
	}
	return nil, fmt.Errorf("no prestations field")
}

func entryFromJSON(raw json.RawMessage) Entry {
	var e Entry
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		// A bare string still names a service.
		e.Name = scalarString(raw)
		return e
	}

	// The first key that fills a column wins, exact labels before fuzzy ones.
	for _, key := range keysByPriority(obj) {
		value := obj[key]
		c := columnFor(key)
		if c != colStartingPrice && strings.TrimSpace(e.get(c)) != "" {
			continue
		}
		switch c {
		case colNone:
			continue
		case colPrice:
			if isObject(value) {
				e.Price, e.StartingPrice = priceFromObject(value, e.StartingPrice)
				continue
			}
		case colDuration:
			if isObject(value) {
				e.Duration = durationFromObject(value)
				continue
			}
		case colStartingPrice:
			e.StartingPrice = mergeFlag(e.StartingPrice, scalarString(value))
			continue
		}
		e.set(c, scalarString(value))
	}
	return e
}

// keysByPriority orders object keys so exact column labels come first, then
// the rest alphabetically.
func keysByPriority(obj map[string]json.RawMessage) []string {
	keys := sortedKeys(obj)
	sort.SliceStable(keys, func(i, j int) bool {
		return exactKeys[models.Fold(keys[i])] && !exactKeys[models.Fold(keys[j])]
	})
	return keys
}

func sortedKeys(obj map[string]json.RawMessage) []string {
	keys := make([]string, 0, len(obj))
	for k := range obj {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// mergeFlag keeps a starting-price flag set once any source asserted it.
func mergeFlag(current, next string) string {
	if truthy(current) {
		return current
	}
	return next
}

func isObject(raw json.RawMessage) bool {
	trimmed := bytes.TrimSpace(raw)
	return len(trimmed) > 0 && trimmed[0] == '{'
}

// scalarString renders a JSON scalar as text; null, arrays and objects give "".
func scalarString(raw json.RawMessage) string {
	var v any
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&v); err != nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case json.Number:
		return t.String()
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}

func priceFromObject(raw json.RawMessage, starting string) (string, string) {
	var obj map[string]json.RawMessage
	_ = json.Unmarshal(raw, &obj)
	var amount string
	for _, key := range sortedKeys(obj) {
		value := obj[key]
		switch k := models.Fold(key); {
		case strings.Contains(k, "starting") || strings.Contains(k, "partir"):
			starting = mergeFlag(starting, scalarString(value))
		case k == "amount" || k == "montant" || k == "value" || k == "prix":
			if amount == "" {
				amount = scalarString(value)
			}
		}
	}
	return amount, starting
}

// durationFromObject folds {hours, minutes} (numbers or numeric strings) into
// a minute count so minutes >= 60 carry into hours downstream.
func durationFromObject(raw json.RawMessage) string {
	var obj map[string]json.RawMessage
	_ = json.Unmarshal(raw, &obj)
	var hours, minutes string
	for _, key := range sortedKeys(obj) {
		value := obj[key]
		switch models.Fold(key) {
		case "hours", "hour", "heures", "heure", "h":
			if hours == "" {
				hours = strings.TrimSpace(scalarString(value))
			}
		case "minutes", "minute", "min", "m":
			if minutes == "" {
				minutes = strings.TrimSpace(scalarString(value))
			}
		}
	}
	if hours == "" && minutes == "" {
		return ""
	}
	h, _ := strconv.Atoi(hours)
	m, _ := strconv.Atoi(minutes)
	if h < 0 || m < 0 {
		return "0"
	}
	return strconv.Itoa(h*60 + m)
}
