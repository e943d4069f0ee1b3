package rainfall

import "errors"

var (
	ErrInvalidDate   = errors.New("invalid date")
	ErrInvalidAmount = errors.New("invalid amount")
	ErrAmountTooHigh = errors.New("amount too high")

	// ErrDuplicateDate is returned by stores that only keep one record per day.
	ErrDuplicateDate = errors.New("a record already exists for this date")
)

// ValidationError reports which input field was rejected and why, in a form
// suitable for showing to the person who submitted it.
type ValidationError struct {
	Field   string
	Message string
	Err     error
}

func (e *ValidationError) Error() string {
	return e.Message
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
