package booking

import (
	"errors"
	"fmt"
	"time"

	"rentacar/internal/domain/shared/daterange"
)

var (
	ErrInvalidRange         = daterange.ErrInvalidRange
	ErrDateUnavailable      = errors.New("booking: date is already booked")
	ErrIncompleteRenterInfo = errors.New("booking: renter information incomplete")
	ErrInvalidEmail         = errors.New("booking: email address is not valid")
	ErrTermsNotAccepted     = errors.New("booking: terms and conditions not accepted")
	ErrInvalidTransition    = errors.New("booking: invalid request state transition")
)

// Request field names used in errors and on the wire.
const (
	FieldPickupDate    = "pickup_date"
	FieldReturnDate    = "return_date"
	FieldFullName      = "full_name"
	FieldEmail         = "email"
	FieldPhone         = "phone"
	FieldNICOrPassport = "nic_or_passport"
	FieldTerms         = "terms_accepted"
)

// DateUnavailableError names the date field that hit a confirmed booking.
type DateUnavailableError struct {
	Field string
	Date  time.Time
}

func (e *DateUnavailableError) Error() string {
	return fmt.Sprintf("booking: %s %s is already booked", e.Field, daterange.Key(e.Date))
}

func (e *DateUnavailableError) Unwrap() error { return ErrDateUnavailable }

// FieldError ties a validation failure to one request field.
type FieldError struct {
	Field string
	Err   error
}

func (e *FieldError) Error() string {
	return fmt.Sprintf("%v: %s", e.Err, e.Field)
}

func (e *FieldError) Unwrap() error { return e.Err }

// FieldOf extracts the offending field from a validation error, if any.
func FieldOf(err error) string {
	var fe *FieldError
	if errors.As(err, &fe) {
		return fe.Field
	}
	var du *DateUnavailableError
	if errors.As(err, &du) {
		return du.Field
	}
	if errors.Is(err, ErrInvalidRange) {
		return FieldReturnDate
	}
	return ""
}
