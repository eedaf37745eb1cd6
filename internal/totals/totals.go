// Package totals aggregates a user's expenses by calendar period and
// category. Everything here is pure: callers fetch the expenses first.
package totals

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"expensetracker/internal/models"
)

// PeriodTotal is the summed amount of one year or one month.
type PeriodTotal struct {
	Key   string // "YYYY" or "MM-YYYY"
	Total float64
	Count int
}

// CategoryTotal is the summed amount of one category.
type CategoryTotal struct {
	Category   string
	Total      float64
	Count      int
	Percentage float64
}

// Summary is everything the totals page shows.
type Summary struct {
	Total      float64
	Count      int
	Yearly     []PeriodTotal
	Monthly    []PeriodTotal
	Categories []CategoryTotal
}

// TotalAmount sums all amounts.
func TotalAmount(expenses []models.Expense) float64 {
	var total float64
	for _, e := range expenses {
		total += e.Amount
	}
	return total
}

// YearlyTotals sums amounts per year, keyed "YYYY".
func YearlyTotals(expenses []models.Expense) (map[string]float64, error) {
	return groupBy(expenses, models.Date.YearKey)
}

// MonthlyTotals sums amounts per month, keyed "MM-YYYY".
func MonthlyTotals(expenses []models.Expense) (map[string]float64, error) {
	return groupBy(expenses, models.Date.MonthKey)
}

func groupBy(expenses []models.Expense, key func(models.Date) string) (map[string]float64, error) {
	out := make(map[string]float64)
	for _, e := range expenses {
		d, err := models.ParseDate(e.Date)
		if err != nil {
			return nil, fmt.Errorf("expense %d: %w", e.ID, err)
		}
		out[key(d)] += e.Amount
	}
	return out, nil
}

// CategoryTotals sums amounts per category, largest first. Category names
// are compared case-insensitively and reported in the first spelling seen.
// Percentage is the category's share of the summed absolute category totals,
// so refunds never push a share below 0 or above 100.
func CategoryTotals(expenses []models.Expense) []CategoryTotal {
	index := make(map[string]int)
	var out []CategoryTotal

	for _, e := range expenses {
		name := strings.TrimSpace(e.Category)
		if name == "" {
			name = "Uncategorized"
		}
		k := strings.ToLower(name)
		i, ok := index[k]
		if !ok {
			i = len(out)
			index[k] = i
			out = append(out, CategoryTotal{Category: name})
		}
		out[i].Total += e.Amount
		out[i].Count++
	}

	var volume float64
	for _, c := range out {
		volume += math.Abs(c.Total)
	}
	if volume > 0 {
		for i := range out {
			out[i].Percentage = math.Abs(out[i].Total) / volume * 100
		}
	}

	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Total != out[j].Total {
			return out[i].Total > out[j].Total
		}
		return out[i].Category < out[j].Category
	})
	return out
}

// Summarize computes the total, per-year and per-month sums (oldest period
// first) and per-category sums.
func Summarize(expenses []models.Expense) (*Summary, error) {
	yearly := make(map[models.Date]*PeriodTotal)
	monthly := make(map[models.Date]*PeriodTotal)

	for _, e := range expenses {
		d, err := models.ParseDate(e.Date)
		if err != nil {
			return nil, fmt.Errorf("expense %d: %w", e.ID, err)
		}
		add(yearly, models.Date{Year: d.Year, Month: 1, Day: 1}, d.YearKey(), e.Amount)
		add(monthly, models.Date{Year: d.Year, Month: d.Month, Day: 1}, d.MonthKey(), e.Amount)
	}

	return &Summary{
		Total:      TotalAmount(expenses),
		Count:      len(expenses),
		Yearly:     chronological(yearly),
		Monthly:    chronological(monthly),
		Categories: CategoryTotals(expenses),
	}, nil
}

func add(groups map[models.Date]*PeriodTotal, start models.Date, key string, amount float64) {
	p, ok := groups[start]
	if !ok {
		p = &PeriodTotal{Key: key}
		groups[start] = p
	}
	p.Total += amount
	p.Count++
}

func chronological(groups map[models.Date]*PeriodTotal) []PeriodTotal {
	starts := make([]models.Date, 0, len(groups))
	for d := range groups {
		starts = append(starts, d)
	}
	sort.Slice(starts, func(i, j int) bool {
		return starts[i].Time().Before(starts[j].Time())
	})

	out := make([]PeriodTotal, 0, len(starts))
	for _, d := range starts {
		out = append(out, *groups[d])
	}
	return out
}
