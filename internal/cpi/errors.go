package cpi

import (
	"errors"
	"fmt"
)

// The messages below are shown to the user verbatim.
var (
	// ErrMissingDates is returned when either month is unset.
	ErrMissingDates = &ValidationError{Message: "Please select both a start date and an end date."}

	// ErrStartAfterEnd is returned when the start month is after the end month.
	ErrStartAfterEnd = &ValidationError{Message: "Start date must be before end date."}

	ErrNoVersionFound      = errors.New("No versions found")
	ErrObservationNotFound = errors.New("CPI data not found for the specified month.")
	ErrDataUnavailable     = errors.New("CPI data not available for the selected month. It may be too far in the future.")
	ErrNoDataFound         = errors.New("No CPI data found for the specified period.")
	ErrNotFoundForMonths   = errors.New("CPI data not found for the selected months.")

	// ErrNoMatch reports that a lookup holds no observation for the month.
	// It is not user-facing: the calculator turns it into ErrNotFoundForMonths.
	ErrNoMatch = errors.New("no observation for month")

	// ErrInvalidIndex is returned when the start index cannot be used as a divisor.
	ErrInvalidIndex = errors.New("CPI index for the start month is not a positive number.")
)

// ValidationError reports a problem with the selected months, detected before
// any request is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// HTTPError reports a non-2xx response from a statistics provider.
type HTTPError struct {
	Status int
}

func (e *HTTPError) Error() string {
	return fmt.Sprintf("HTTP error! Status: %d", e.Status)
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var v *ValidationError
	return errors.As(err, &v)
}
