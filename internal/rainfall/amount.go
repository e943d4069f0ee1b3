package rainfall

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
)

// MaxAmount is the largest daily rainfall accepted, in millimetres.
var MaxAmount = decimal.NewFromInt(500)

const (
	// MaxScale is the number of decimal places an amount may carry.
	MaxScale = 3

	// any amount up to MaxAmount at MaxScale fits well within this
	maxLiteralLen = 32
	maxExponent   = 2
)

var amountPattern = regexp.MustCompile(`^(\d+(\.\d*)?|\.\d+)$`)

// Amount is a rainfall quantity in millimetres, held as a fixed-point decimal
// so sums never pick up binary floating point artifacts.
type Amount struct {
	d decimal.Decimal
}

// NewAmount wraps a decimal value.
func NewAmount(d decimal.Decimal) Amount {
	return Amount{d: d}
}

// AmountFromFloat converts a float reading (e.g. from an upstream provider).
func AmountFromFloat(f float64) Amount {
	return Amount{d: decimal.NewFromFloat(f)}
}

// ParseAmount parses a non-negative decimal string. Both "12.5" and "12,5"
// are accepted; signs, exponents and thousands separators are not.
func ParseAmount(s string) (Amount, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Amount{}, fmt.Errorf("%w: amount is required", ErrInvalidAmount)
	}
	if len(s) > maxLiteralLen {
		return Amount{}, fmt.Errorf("%w: amount is too long", ErrInvalidAmount)
	}
	s = strings.Replace(s, ",", ".", 1)
	if !amountPattern.MatchString(s) {
		return Amount{}, fmt.Errorf("%w: %q is not a decimal number", ErrInvalidAmount, s)
	}
	d, err := decimal.NewFromString(s)
	if err != nil {
		return Amount{}, fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if err := checkScale(d); err != nil {
		return Amount{}, err
	}
	return Amount{d: d}, nil
}

// checkScale rejects exponents outside [-MaxScale, maxExponent]. Comparing or
// printing a decimal rescales it to exponent zero, so an unbounded exponent
// costs time and memory proportional to its size.
func checkScale(d decimal.Decimal) error {
	switch exp := d.Exponent(); {
	case exp < -MaxScale:
		return fmt.Errorf("%w: at most %d decimal places are allowed", ErrInvalidAmount, MaxScale)
	case exp > maxExponent && !d.IsZero():
		return fmt.Errorf("%w: %w", ErrInvalidAmount, ErrAmountTooHigh)
	case exp > maxExponent:
		return fmt.Errorf("%w: exponent out of range", ErrInvalidAmount)
	}
	return nil
}

// Decimal returns the underlying fixed-point value.
func (a Amount) Decimal() decimal.Decimal { return a.d }

func (a Amount) Add(b Amount) Amount { return Amount{d: a.d.Add(b.d)} }

// Round rounds half away from zero to the given number of decimal places.
func (a Amount) Round(places int32) Amount { return Amount{d: a.d.Round(places)} }

func (a Amount) Equal(b Amount) bool { return a.d.Equal(b.d) }

func (a Amount) IsZero() bool { return a.d.IsZero() }

func (a Amount) Float64() float64 { return a.d.InexactFloat64() }

func (a Amount) String() string { return a.d.String() }

// Validate enforces 0 <= amount <= MaxAmount with at most MaxScale decimal places.
func (a Amount) Validate() error {
	if a.d.IsNegative() {
		return &ValidationError{Field: "amount", Message: "Amount must be 0 or greater", Err: ErrInvalidAmount}
	}
	if err := checkScale(a.d); err != nil {
		if errors.Is(err, ErrAmountTooHigh) {
			return &ValidationError{Field: "amount", Message: "Amount seems too high", Err: ErrAmountTooHigh}
		}
		return &ValidationError{Field: "amount", Message: fmt.Sprintf("Amount can have at most %d decimal places", MaxScale), Err: err}
	}
	if a.d.GreaterThan(MaxAmount) {
		return &ValidationError{Field: "amount", Message: "Amount seems too high", Err: ErrAmountTooHigh}
	}
	return nil
}

// MarshalJSON emits a bare JSON number.
func (a Amount) MarshalJSON() ([]byte, error) {
	return []byte(a.d.String()), nil
}

// UnmarshalJSON accepts either a JSON number or a decimal string using a
// comma or dot separator.
func (a *Amount) UnmarshalJSON(b []byte) error {
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
		}
		parsed, err := ParseAmount(s)
		if err != nil {
			return err
		}
		*a = parsed
		return nil
	}

	if len(b) > maxLiteralLen {
		return fmt.Errorf("%w: amount is too long", ErrInvalidAmount)
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return fmt.Errorf("%w: amount must be a number or a decimal string", ErrInvalidAmount)
	}
	d, err := decimal.NewFromString(n.String())
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidAmount, err)
	}
	if err := checkScale(d); err != nil {
		return err
	}
	a.d = d
	return nil
}
