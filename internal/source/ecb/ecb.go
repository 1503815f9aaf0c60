// Package ecb reads the euro area HICP index from the European Central Bank
// data service. Each month is a separate single-period request.
package ecb

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/url"
	"sort"

	"github.com/iwvelando/cpi-calculator/internal/config"
	"github.com/iwvelando/cpi-calculator/internal/cpi"
	"github.com/iwvelando/cpi-calculator/internal/fetch"
	"github.com/iwvelando/cpi-calculator/pkg/constants"
	"go.uber.org/zap"
)

var _ cpi.Source = &Source{}

// truncatedInput is the encoding/json message for a body that ends early.
const truncatedInput = "unexpected end of JSON input"

// Source is the EU statistics source.
type Source struct {
	client *fetch.Client
	cfg    config.ECBConfig
	logger *zap.Logger
}

// New builds the ECB source.
func New(client *fetch.Client, cfg config.ECBConfig, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{client: client, cfg: cfg, logger: logger}
}

// Info describes the source.
func (s *Source) Info() cpi.Info {
	return cpi.Info{
		Country:     constants.CountryEU,
		Title:       "Cumulative CPI Rate Calculator EU",
		Description: "Data is obtained from the European Central Bank (ECB) using the Harmonised Index of Consumer Prices (HICP).",
	}
}

// Open has no prerequisite: every month is fetched on demand.
func (s *Source) Open(_ context.Context, _, _ cpi.MonthKey) (cpi.Lookup, error) {
	return cpi.LookupFunc(s.FetchCPIForMonth), nil
}

type dataResponse struct {
	DataSets []struct {
		Series map[string]struct {
			Observations map[string][]interface{} `json:"observations"`
		} `json:"series"`
	} `json:"dataSets"`
}

// FetchCPIForMonth returns the index for a single month.
func (s *Source) FetchCPIForMonth(ctx context.Context, month cpi.MonthKey) (float64, error) {
	period := month.String()
	query := url.Values{
		"startPeriod": {period},
		"endPeriod":   {period},
		"format":      {"jsondata"},
	}
	endpoint := s.cfg.BaseURL + "/" + s.cfg.SeriesKey

	body, err := s.client.GetJSON(ctx, "ecb.FetchCPIForMonth", endpoint, query)
	if err != nil {
		return 0, err
	}

	value, err := ParseObservation(body)
	if err != nil {
		s.logger.Debug("no usable observation",
			zap.String("op", "ecb.FetchCPIForMonth"),
			zap.String("period", period),
			zap.Int("bytes", len(body)),
			zap.Error(err),
		)
		return 0, err
	}

	s.logger.Debug("fetched observation",
		zap.String("op", "ecb.FetchCPIForMonth"),
		zap.String("period", period),
		zap.Float64("value", value),
	)
	return value, nil
}

// ParseObservation extracts the first observation of the first series of an
// SDMX-JSON data message. An empty or truncated body is what the service
// returns for periods that have not been published yet and is reported as
// cpi.ErrDataUnavailable.
func ParseObservation(body []byte) (float64, error) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 {
		return 0, cpi.ErrDataUnavailable
	}

	var resp dataResponse
	if err := json.Unmarshal(trimmed, &resp); err != nil {
		var syntaxErr *json.SyntaxError
		if errors.As(err, &syntaxErr) && syntaxErr.Error() == truncatedInput {
			return 0, cpi.ErrDataUnavailable
		}
		return 0, fmt.Errorf("failed to decode ECB response: %w", err)
	}

	if len(resp.DataSets) == 0 || len(resp.DataSets[0].Series) == 0 {
		return 0, cpi.ErrObservationNotFound
	}

	// Series keys look like "0:0:0:0:0:0"; the lowest one is the first series.
	keys := make([]string, 0, len(resp.DataSets[0].Series))
	for k := range resp.DataSets[0].Series {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	series := resp.DataSets[0].Series[keys[0]]

	obs, ok := series.Observations["0"]
	if !ok || len(obs) == 0 {
		return 0, cpi.ErrObservationNotFound
	}
	value, ok := fetch.Number(obs[0])
	if !ok {
		return 0, cpi.ErrObservationNotFound
	}
	return value, nil
}
