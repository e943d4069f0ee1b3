package httpapi

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"

	"github.com/i474232898/rainlog/internal/rainfall"
)

// createRecordRequest is the POST /api/rainfall body. Amount accepts a JSON
// number or a decimal string with either separator.
type createRecordRequest struct {
	Date   string           `json:"date" validate:"required"`
	Amount *rainfall.Amount `json:"amount" validate:"required"`
}

func (r createRecordRequest) toNewRecord() (rainfall.NewRecord, error) {
	if err := validate.Struct(r); err != nil {
		return rainfall.NewRecord{}, requiredFieldError(err)
	}

	date, err := rainfall.ParseDate(r.Date)
	if err != nil {
		return rainfall.NewRecord{}, err
	}
	return rainfall.NewRecord{Date: date, Amount: *r.Amount}, nil
}

// yearParam holds the :year path parameter.
type yearParam struct {
	Year int `validate:"min=1,max=9999"`
}

func (y *yearParam) bind(c *fiber.Ctx) error {
	year, err := c.ParamsInt("year")
	if err != nil {
		return errors.New("year must be a number")
	}
	y.Year = year
	if err := validate.Struct(y); err != nil {
		return fmt.Errorf("year %d is out of range", year)
	}
	return nil
}

func requiredFieldError(err error) error {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) && len(verrs) > 0 {
		switch verrs[0].Field() {
		case "Date":
			return errors.New("Date is required")
		case "Amount":
			return errors.New("Amount is required")
		}
	}
	return err
}
