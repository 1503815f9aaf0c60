// Package bls reads the CPI-U index from the Bureau of Labor Statistics time
// series API. A single request covers every year between the two months and
// the months are then picked out of the returned series.
package bls

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/iwvelando/cpi-calculator/internal/config"
	"github.com/iwvelando/cpi-calculator/internal/cpi"
	"github.com/iwvelando/cpi-calculator/internal/fetch"
	"github.com/iwvelando/cpi-calculator/pkg/constants"
	"github.com/iwvelando/cpi-calculator/pkg/datetime"
	"go.uber.org/zap"
)

const requestSucceeded = "REQUEST_SUCCEEDED"

var _ cpi.Source = &Source{}

// DataPoint is one entry of a BLS series.
type DataPoint struct {
	Year       string `json:"year"`
	Period     string `json:"period"`
	PeriodName string `json:"periodName,omitempty"`
	Value      string `json:"value"`
}

type request struct {
	SeriesID        []string `json:"seriesid"`
	StartYear       string   `json:"startyear"`
	EndYear         string   `json:"endyear"`
	RegistrationKey string   `json:"registrationkey,omitempty"`
}

type response struct {
	Status  string   `json:"status"`
	Message []string `json:"message"`
	Results *struct {
		Series []struct {
			SeriesID string      `json:"seriesID"`
			Data     []DataPoint `json:"data"`
		} `json:"series"`
	} `json:"Results"`
}

// Source is the US statistics source.
type Source struct {
	client *fetch.Client
	cfg    config.BLSConfig
	logger *zap.Logger
}

// New builds the BLS source.
func New(client *fetch.Client, cfg config.BLSConfig, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{client: client, cfg: cfg, logger: logger}
}

// Info describes the source.
func (s *Source) Info() cpi.Info {
	return cpi.Info{
		Country:     constants.CountryUS,
		Title:       "Cumulative CPI Rate Calculator US",
		Description: fmt.Sprintf("Data sourced from the Bureau of Labor Statistics (BLS) Consumer Price Index (CPI-U, %s).", s.cfg.SeriesID),
	}
}

// Open downloads the series for every year from start to end; the returned
// lookup answers from that download without further requests. A data point
// whose value is zero or negative is treated as missing.
func (s *Source) Open(ctx context.Context, start, end cpi.MonthKey) (cpi.Lookup, error) {
	series, err := s.FetchCPIForPeriod(ctx, start.Year, end.Year)
	if err != nil {
		return nil, err
	}
	return cpi.LookupFunc(func(_ context.Context, month cpi.MonthKey) (float64, error) {
		value, ok := FindCPIForMonth(series, month.Year, month.Abbrev())
		if !ok || !(value > 0) {
			s.logger.Debug("no matching data point",
				zap.String("op", "bls.FindCPIForMonth"),
				zap.String("month", month.String()),
				zap.Int("points", len(series)),
			)
			return 0, cpi.ErrNoMatch
		}
		return value, nil
	}), nil
}

// FetchCPIForPeriod returns the series data points for startYear..endYear.
func (s *Source) FetchCPIForPeriod(ctx context.Context, startYear, endYear int) ([]DataPoint, error) {
	payload := request{
		SeriesID:        []string{s.cfg.SeriesID},
		StartYear:       strconv.Itoa(startYear),
		EndYear:         strconv.Itoa(endYear),
		RegistrationKey: s.cfg.RegistrationKey,
	}

	s.logger.Debug("requesting series",
		zap.String("op", "bls.FetchCPIForPeriod"),
		zap.String("series", s.cfg.SeriesID),
		zap.Int("startYear", startYear),
		zap.Int("endYear", endYear),
		zap.Bool("registered", payload.RegistrationKey != ""),
	)

	body, err := s.client.PostJSON(ctx, "bls.FetchCPIForPeriod", s.cfg.URL, payload)
	if err != nil {
		return nil, err
	}

	var resp response
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("failed to decode BLS response: %w", err)
	}

	if resp.Results == nil || len(resp.Results.Series) == 0 || len(resp.Results.Series[0].Data) == 0 {
		if resp.Status != "" && resp.Status != requestSucceeded && len(resp.Message) > 0 {
			return nil, fmt.Errorf("%w %s", cpi.ErrNoDataFound, resp.Message[0])
		}
		return nil, cpi.ErrNoDataFound
	}

	return resp.Results.Series[0].Data, nil
}

// PeriodToken maps a three-letter month abbreviation to a BLS monthly period
// such as "M03". Unrecognized abbreviations fall back to "M01".
func PeriodToken(monthAbbrev string) string {
	month, ok := datetime.MonthFromAbbrev(monthAbbrev)
	if !ok {
		month = 1
	}
	return fmt.Sprintf("M%02d", int(month))
}

// FindCPIForMonth searches series for the entry of the given year and month.
// It reports false, not an error, when there is no such entry or its value
// is not a number.
func FindCPIForMonth(series []DataPoint, year int, monthAbbrev string) (float64, bool) {
	yearStr := strconv.Itoa(year)
	period := PeriodToken(monthAbbrev)

	for _, point := range series {
		if point.Year == yearStr && point.Period == period {
			value, ok := fetch.Number(point.Value)
			return value, ok
		}
	}
	return 0, false
}
