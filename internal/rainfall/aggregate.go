package rainfall

import (
	"fmt"
	"sort"
	"strconv"
)

var monthNames = [12]string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthLabel returns the display label for a zero-based month, e.g. "January 2024".
func MonthLabel(year, month int) string {
	return fmt.Sprintf("%s %d", monthNames[month], year)
}

type bucket struct {
	year  int
	month int // zero-based
}

// MonthlyTotals groups records by calendar month and sums their amounts.
// One entry is produced per month that has at least one record, with totals
// rounded half away from zero to one decimal place. Entries are ordered most
// recent month first. Input dates are assumed valid.
func MonthlyTotals(records []Record) []MonthlyTotal {
	sums := make(map[bucket]Amount)
	for _, r := range records {
		k := bucket{year: r.Date.Year(), month: int(r.Date.Month()) - 1}
		sums[k] = sums[k].Add(r.Amount)
	}

	totals := make([]MonthlyTotal, 0, len(sums))
	for k, sum := range sums {
		totals = append(totals, MonthlyTotal{
			Year:  k.year,
			Month: k.month,
			Total: sum.Round(1),
			Label: MonthLabel(k.year, k.month),
		})
	}

	sort.Slice(totals, func(i, j int) bool {
		if totals[i].Year != totals[j].Year {
			return totals[i].Year > totals[j].Year
		}
		return totals[i].Month > totals[j].Month
	})
	return totals
}

// YearlyTotals sums records per calendar year, most recent year first.
func YearlyTotals(records []Record) []YearlyTotal {
	sums := make(map[int]Amount)
	for _, r := range records {
		sums[r.Date.Year()] = sums[r.Date.Year()].Add(r.Amount)
	}

	totals := make([]YearlyTotal, 0, len(sums))
	for year, sum := range sums {
		totals = append(totals, YearlyTotal{
			Year:  year,
			Total: sum.Round(1),
			Label: strconv.Itoa(year),
		})
	}

	sort.Slice(totals, func(i, j int) bool {
		return totals[i].Year > totals[j].Year
	})
	return totals
}

// BuildYearSeries lays the monthly totals of one year out as twelve buckets,
// January first, filling months without data with zero.
func BuildYearSeries(totals []MonthlyTotal, year int) YearSeries {
	series := YearSeries{
		Year:   year,
		Months: make([]MonthlyTotal, 12),
	}
	for m := range series.Months {
		series.Months[m] = MonthlyTotal{Year: year, Month: m, Label: MonthLabel(year, m)}
	}

	var sum Amount
	for _, t := range totals {
		if t.Year != year {
			continue
		}
		series.Months[t.Month].Total = t.Total
		sum = sum.Add(t.Total)
	}
	series.Total = sum.Round(1)
	return series
}
