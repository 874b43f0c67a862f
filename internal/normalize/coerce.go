package normalize

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/flyerscan/prestations/internal/models"
)

// RangeNote is appended to the description when a price range is collapsed
// to its lower bound.
const RangeNote = "Prix variable jusqu'à %d€"

var (
	numberRe     = regexp.MustCompile(`\d+(?:[.,]\d+)?`)
	priceRangeRe = regexp.MustCompile(`^(\d+(?:[.,]\d+)?)\s*(?:€|eur|euros?)?\s*(?:-|–|a|to|/)\s*(\d+(?:[.,]\d+)?)`)
	clockRe      = regexp.MustCompile(`^(\d+):(\d{1,2})$`)
	fracHoursRe  = regexp.MustCompile(`(\d+[.,]\d+)\s*h`)
	hoursRe      = regexp.MustCompile(`(\d+)\s*h(?:eures?|rs?|ours?)?\s*(\d{1,2})?`)
	minutesRe    = regexp.MustCompile(`(\d+)\s*(?:min|mn|minutes?)`)
	plainRe      = regexp.MustCompile(`^(\d+)\s*m?$`)
	rangeSepRe   = regexp.MustCompile(`\s*(?:-|–|/|\sa\s|\sto\s)\s*\d`)
)

// Placeholders the extraction prompt tells the model to use for unreadable
// values.
var placeholders = map[string]bool{
	"non specifie": true,
	"non precise":  true,
	"illisible":    true,
	"n/a":          true,
	"na":           true,
	"nc":           true,
	"-":            true,
	"–":            true,
	"?":            true,
}

func blank(s string) bool {
	f := models.Fold(s)
	return f == "" || placeholders[f]
}

// Coerce maps a raw entry onto a candidate. Blank category and kind take the
// catalog defaults (women, single service); unrecognised ones make the
// candidate invalid.
func Coerce(e Entry) Candidate {
	c := Candidate{Valid: true}
	c.Category = models.CategoryWomen
	c.Kind = models.KindSingleService

	if !blank(e.Category) {
		cat, err := models.ParseCategory(cleanCell(e.Category))
		if err != nil {
			c.invalidate(ReasonInvalidEnum, err.Error())
		} else {
			c.Category = cat
		}
	}
	if !blank(e.Kind) {
		kind, err := models.ParseKind(cleanCell(e.Kind))
		if err != nil {
			c.invalidate(ReasonInvalidEnum, err.Error())
		} else {
			c.Kind = kind
		}
	}

	c.Name = cleanCell(e.Name)
	if blank(c.Name) {
		c.Name = ""
		c.invalidate(ReasonMissingName, "name is empty")
	}

	amount, starting, upper := ParsePrice(e.Price)
	c.Price = models.Price{Amount: amount, IsStartingPrice: starting || truthy(e.StartingPrice)}

	c.Description = strings.TrimSpace(e.Description)
	if upper > 0 {
		note := fmt.Sprintf(RangeNote, upper)
		if c.Description == "" {
			c.Description = note
		} else if !strings.Contains(c.Description, note) {
			c.Description = c.Description + " - " + note
		}
	}

	c.Duration = ParseDuration(e.Duration)
	return c
}

func (c *Candidate) invalidate(reason Reason, note string) {
	if c.Valid {
		c.Reason = reason
	}
	c.Valid = false
	c.Notes = append(c.Notes, note)
}

func truthy(s string) bool {
	switch models.Fold(s) {
	case "1", "true", "oui", "yes", "y", "x", "✓", "vrai":
		return true
	}
	return false
}

// ParsePrice reads the leading amount of a price text, rounded to whole
// units. A range such as "30-50", "30€ - 50€" or "de 30 à 50" yields the lower
// bound with upper set; "à partir de", "dès", "from" or a trailing "+" set
// starting.
func ParsePrice(text string) (amount int, starting bool, upper int) {
	f := models.Fold(text)
	if blank(f) {
		return 0, false, 0
	}

	for _, prefix := range []string{"a partir de", "a partir", "des ", "from", "starting"} {
		if strings.HasPrefix(f, prefix) {
			starting = true
			break
		}
	}
	if strings.HasSuffix(f, "+") {
		starting = true
	}

	loc := numberRe.FindStringIndex(f)
	if loc == nil {
		return 0, starting, 0
	}
	// Only a range opening on the leading amount counts; "30€ (2-3 personnes)"
	// is a fixed price.
	if m := priceRangeRe.FindStringSubmatch(f[loc[0]:]); m != nil {
		lo, hi := roundAmount(m[1]), roundAmount(m[2])
		if hi > lo {
			return lo, true, hi
		}
	}
	return roundAmount(f[loc[0]:loc[1]]), starting, 0
}

func roundAmount(s string) int {
	v, err := strconv.ParseFloat(strings.Replace(s, ",", ".", 1), 64)
	if err != nil || v < 0 {
		return 0
	}
	return int(math.Round(v))
}

// ParseDuration reads "1h30", "1:30", "2 heures", "45 min" or a bare minute
// count such as "90". Blank text gives nil (unspecified); anything else that
// cannot be read gives a zero duration.
func ParseDuration(text string) *models.Duration {
	f := models.Fold(text)
	if blank(f) {
		return nil
	}
	// A range keeps its leading value: "30min-1h" is 30 minutes.
	if loc := rangeSepRe.FindStringIndex(f); loc != nil && loc[0] > 0 {
		f = f[:loc[0]]
	}

	total := 0
	switch {
	case clockRe.MatchString(f):
		m := clockRe.FindStringSubmatch(f)
		total = atoi(m[1])*60 + atoi(m[2])
	case fracHoursRe.MatchString(f):
		hours, _ := strconv.ParseFloat(strings.Replace(fracHoursRe.FindStringSubmatch(f)[1], ",", ".", 1), 64)
		total = int(math.Round(hours * 60))
	case hoursRe.MatchString(f):
		m := hoursRe.FindStringSubmatch(f)
		total = atoi(m[1])*60 + atoi(m[2])
	case minutesRe.MatchString(f):
		total = atoi(minutesRe.FindStringSubmatch(f)[1])
	case plainRe.MatchString(f):
		total = atoi(plainRe.FindStringSubmatch(f)[1])
	}

	d, err := models.DurationFromMinutes(total)
	if err != nil {
		return &models.Duration{}
	}
	return &d
}

func atoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
