package rainfall

import (
	"encoding/json"
	"fmt"
	"time"
)

// DateLayout is the only accepted wire format for record dates.
const DateLayout = "2006-01-02"

// Date is a calendar date without a time component.
// The wrapped time is always midnight UTC.
type Date struct {
	time.Time
}

// NewDate builds a Date from its parts.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a YYYY-MM-DD string, rejecting dates that do not exist
// on the calendar (2024-02-30, 2023-13-01).
func ParseDate(s string) (Date, error) {
	if s == "" {
		return Date{}, fmt.Errorf("%w: date is required", ErrInvalidDate)
	}
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("%w: %q is not a valid YYYY-MM-DD date", ErrInvalidDate, s)
	}
	return Date{Time: t}, nil
}

// String formats the date as YYYY-MM-DD.
func (d Date) String() string {
	return d.Format(DateLayout)
}

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return fmt.Errorf("%w: date must be a string", ErrInvalidDate)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Record is one dated rainfall measurement.
type Record struct {
	ID     string `json:"id"`
	Date   Date   `json:"date"`
	Amount Amount `json:"amount"`
}

// NewRecord is the input for creating a record; the id is assigned on insert.
type NewRecord struct {
	Date   Date
	Amount Amount
}

// Validate checks the invariants a record must satisfy before it is stored.
// Date presence is checked where the input is decoded: the zero Date is the
// valid day 0001-01-01.
func (n NewRecord) Validate() error {
	return n.Amount.Validate()
}

// MonthlyTotal is the sum of all records falling in one calendar month.
// Month is zero-based: January is 0.
type MonthlyTotal struct {
	Year  int    `json:"year"`
	Month int    `json:"month"`
	Total Amount `json:"total"`
	Label string `json:"label"`
}

// YearlyTotal is the sum of all records falling in one calendar year.
type YearlyTotal struct {
	Year  int    `json:"year"`
	Total Amount `json:"total"`
	Label string `json:"label"`
}

// YearSeries holds twelve monthly buckets for a single year, zero-filled
// for months without records, ready for a bar chart.
type YearSeries struct {
	Year   int            `json:"year"`
	Total  Amount         `json:"total"`
	Months []MonthlyTotal `json:"months"`
}
