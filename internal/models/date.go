package models

import (
	"fmt"
	"strings"
	"time"

	"expensetracker/internal/common"
)

// Layouts accepted by ParseDate. The first one is canonical.
const (
	DateLayout     = "01-02-2006"
	isoDateLayout  = "2006-01-02"
	yearKeyLayout  = "2006"
	monthKeyLayout = "01-2006"
)

// Date is a calendar date without time of day.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// ParseDate parses MM-DD-YYYY, or the YYYY-MM-DD form browsers submit from
// date inputs.
func ParseDate(s string) (Date, error) {
	s = strings.TrimSpace(s)
	for _, layout := range []string{DateLayout, isoDateLayout} {
		if len(s) != len(layout) {
			continue
		}
		if t, err := time.Parse(layout, s); err == nil {
			return Date{Year: t.Year(), Month: t.Month(), Day: t.Day()}, nil
		}
	}
	return Date{}, fmt.Errorf("%w: %q", common.ErrInvalidDateFormat, s)
}

// Time returns midnight UTC of d.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// String formats d as MM-DD-YYYY.
func (d Date) String() string {
	return d.Time().Format(DateLayout)
}

// ISO formats d as YYYY-MM-DD.
func (d Date) ISO() string {
	return d.Time().Format(isoDateLayout)
}

// YearKey is the yearly aggregation key, e.g. "2024".
func (d Date) YearKey() string {
	return d.Time().Format(yearKeyLayout)
}

// MonthKey is the monthly aggregation key, e.g. "01-2024".
func (d Date) MonthKey() string {
	return d.Time().Format(monthKeyLayout)
}
