// Package calculator runs a CPI rate calculation against one statistics
// source: it validates the selected months, performs the source's requests in
// order and turns every failure after validation into a FetchError.
package calculator

import (
	"context"
	"errors"
	"time"

	"github.com/iwvelando/cpi-calculator/internal/cpi"
	"go.uber.org/zap"
)

const fetchErrorPrefix = "Failed to fetch CPI data! "

// ErrUnknownCountry is returned by Tracker.Run for a country without a source.
var ErrUnknownCountry = errors.New("unknown country")

// FetchError wraps any failure that happened after the months were validated.
type FetchError struct {
	Err error
}

func (e *FetchError) Error() string {
	return fetchErrorPrefix + e.Err.Error()
}

func (e *FetchError) Unwrap() error {
	return e.Err
}

// UserMessage returns the text shown to the user for err.
func UserMessage(err error) string {
	if err == nil {
		return ""
	}
	var v *cpi.ValidationError
	if errors.As(err, &v) {
		return v.Message
	}
	var f *FetchError
	if errors.As(err, &f) {
		return f.Error()
	}
	return fetchErrorPrefix + err.Error()
}

// Outcome is a successful calculation.
type Outcome struct {
	Country string
	Start   cpi.MonthKey
	End     cpi.MonthKey
	Rate    cpi.Rate
	Display cpi.Display
}

// Calculator computes rates from a single source.
type Calculator struct {
	source  cpi.Source
	logger  *zap.Logger
	timeout time.Duration
}

// New returns a Calculator for source. A zero timeout leaves the calculation
// bounded only by the caller's context.
func New(source cpi.Source, timeout time.Duration, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{source: source, logger: logger, timeout: timeout}
}

// Info describes the underlying source.
func (c *Calculator) Info() cpi.Info {
	return c.source.Info()
}

// Validate checks the selected months without touching the network.
func Validate(start, end *cpi.MonthKey) error {
	if start == nil || end == nil {
		return cpi.ErrMissingDates
	}
	if start.After(*end) {
		return cpi.ErrStartAfterEnd
	}
	return nil
}

// CalculateRate returns the cumulative change in the index between start and
// end. Validation failures are returned as *cpi.ValidationError; everything
// else as *FetchError.
func (c *Calculator) CalculateRate(ctx context.Context, start, end *cpi.MonthKey) (Outcome, error) {
	country := c.source.Info().Country
	if err := Validate(start, end); err != nil {
		c.logger.Debug("rejected selection",
			zap.String("op", "calculator.CalculateRate"),
			zap.String("country", country),
			zap.String("reason", err.Error()),
		)
		return Outcome{}, err
	}

	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	begin := time.Now()
	startIndex, endIndex, err := c.observe(ctx, *start, *end)
	if err != nil {
		c.logger.Warn("calculation failed",
			zap.String("op", "calculator.CalculateRate"),
			zap.String("country", country),
			zap.String("start", start.String()),
			zap.String("end", end.String()),
			zap.Error(err),
		)
		return Outcome{}, &FetchError{Err: err}
	}

	rate := cpi.ComputeRate(startIndex, endIndex)
	c.logger.Info("calculated rate",
		zap.String("op", "calculator.CalculateRate"),
		zap.String("country", country),
		zap.String("start", start.String()),
		zap.String("end", end.String()),
		zap.Float64("cpiStart", startIndex),
		zap.Float64("cpiEnd", endIndex),
		zap.Float64("change", rate.Change),
		zap.Duration("elapsed", time.Since(begin)),
	)

	return Outcome{
		Country: country,
		Start:   *start,
		End:     *end,
		Rate:    rate,
		Display: rate.Display(),
	}, nil
}

func (c *Calculator) observe(ctx context.Context, start, end cpi.MonthKey) (float64, float64, error) {
	lookup, err := c.source.Open(ctx, start, end)
	if err != nil {
		return 0, 0, err
	}

	startIndex, err := lookup.Observation(ctx, start)
	if err != nil {
		return 0, 0, notFound(err)
	}
	endIndex, err := lookup.Observation(ctx, end)
	if err != nil {
		return 0, 0, notFound(err)
	}

	if !(startIndex > 0) {
		return 0, 0, cpi.ErrInvalidIndex
	}
	return startIndex, endIndex, nil
}

func notFound(err error) error {
	if errors.Is(err, cpi.ErrNoMatch) {
		return cpi.ErrNotFoundForMonths
	}
	return err
}
