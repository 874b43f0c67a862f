package models

import (
	"fmt"
	"strconv"
)

// Duration of a prestation, split the way flyers print it
type Duration struct {
	Hours   int `json:"hours" yaml:"hours"`
	Minutes int `json:"minutes" yaml:"minutes"`
}

// NewDuration returns a validated Duration.
func NewDuration(hours, minutes int) (Duration, error) {
	d := Duration{Hours: hours, Minutes: minutes}
	if err := d.Validate(); err != nil {
		return Duration{}, err
	}
	return d, nil
}

// DurationFromMinutes carries whole hours out of a minute count, so 90 becomes
// 1h30.
func DurationFromMinutes(total int) (Duration, error) {
	if total < 0 {
		return Duration{}, fmt.Errorf("negative duration: %d minutes", total)
	}
	return Duration{Hours: total / 60, Minutes: total % 60}, nil
}

func (d Duration) Validate() error {
	if d.Hours < 0 {
		return fmt.Errorf("negative duration hours: %d", d.Hours)
	}
	if d.Minutes < 0 || d.Minutes > 59 {
		return fmt.Errorf("duration minutes out of range: %d", d.Minutes)
	}
	return nil
}

func (d Duration) TotalMinutes() int {
	return d.Hours*60 + d.Minutes
}

func (d Duration) IsZero() bool {
	return d.Hours == 0 && d.Minutes == 0
}

// String renders the duration the way the catalog cards show it: "1h30",
// "2h", "45min", or "" when zero.
func (d Duration) String() string {
	switch {
	case d.IsZero():
		return ""
	case d.Minutes == 0:
		return strconv.Itoa(d.Hours) + "h"
	case d.Hours == 0:
		return strconv.Itoa(d.Minutes) + "min"
	default:
		return fmt.Sprintf("%dh%02d", d.Hours, d.Minutes)
	}
}
