// Package ons reads the CPIH index from the Office for National Statistics
// dataset API. Observations are addressed by dataset version, so a
// calculation first discovers the latest version and reuses it for both
// months.
package ons

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"

	"github.com/iwvelando/cpi-calculator/internal/config"
	"github.com/iwvelando/cpi-calculator/internal/cpi"
	"github.com/iwvelando/cpi-calculator/internal/fetch"
	"github.com/iwvelando/cpi-calculator/pkg/constants"
	"github.com/iwvelando/cpi-calculator/pkg/datetime"
	"go.uber.org/zap"
)

var _ cpi.Source = &Source{}

// Source is the UK statistics source.
type Source struct {
	client *fetch.Client
	cfg    config.ONSConfig
	logger *zap.Logger
}

// New builds the ONS source.
func New(client *fetch.Client, cfg config.ONSConfig, logger *zap.Logger) *Source {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Source{client: client, cfg: cfg, logger: logger}
}

// Info describes the source.
func (s *Source) Info() cpi.Info {
	return cpi.Info{
		Country:     constants.CountryUK,
		Title:       "Cumulative CPI Rate Calculator UK",
		Description: "Data is obtained from the Office for National Statistics (ONS) Consumer Prices Index including owner occupiers' housing costs (CPIH).",
	}
}

// Open discovers the latest dataset version once and returns a lookup bound to it.
func (s *Source) Open(ctx context.Context, _, _ cpi.MonthKey) (cpi.Lookup, error) {
	version, err := s.FetchLatestVersion(ctx)
	if err != nil {
		return nil, err
	}
	return cpi.LookupFunc(func(ctx context.Context, month cpi.MonthKey) (float64, error) {
		return s.FetchCPIForMonth(ctx, month, version)
	}), nil
}

type versionsResponse struct {
	Items []struct {
		Version interface{} `json:"version"`
	} `json:"items"`
}

type observationsResponse struct {
	Observations []struct {
		Observation interface{} `json:"observation"`
	} `json:"observations"`
}

func (s *Source) versionsURL() string {
	return fmt.Sprintf("%s/datasets/%s/editions/%s/versions",
		s.cfg.BaseURL, url.PathEscape(s.cfg.Dataset), url.PathEscape(s.cfg.Edition))
}

// FetchLatestVersion returns the version of the first item in the dataset's
// version list.
func (s *Source) FetchLatestVersion(ctx context.Context) (string, error) {
	body, err := s.client.GetJSON(ctx, "ons.FetchLatestVersion", s.versionsURL(), nil)
	if err != nil {
		return "", err
	}

	var resp versionsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("failed to decode ONS versions: %w", err)
	}
	if len(resp.Items) == 0 {
		return "", cpi.ErrNoVersionFound
	}
	version, ok := fetch.Text(resp.Items[0].Version)
	if !ok {
		return "", cpi.ErrNoVersionFound
	}

	s.logger.Debug("resolved dataset version",
		zap.String("op", "ons.FetchLatestVersion"),
		zap.String("dataset", s.cfg.Dataset),
		zap.String("version", version),
	)
	return version, nil
}

// TimeParam renders a month the way the ONS time dimension expects, e.g. "Mar-24".
func TimeParam(month cpi.MonthKey) string {
	return month.Abbrev() + "-" + datetime.TwoDigitYear(month.Year)
}

// FetchCPIForMonth returns the aggregate index for the month in the given
// dataset version.
func (s *Source) FetchCPIForMonth(ctx context.Context, month cpi.MonthKey, version string) (float64, error) {
	endpoint := s.versionsURL() + "/" + url.PathEscape(version) + "/observations"
	query := url.Values{
		"time":      {TimeParam(month)},
		"geography": {s.cfg.Geography},
		"aggregate": {s.cfg.Aggregate},
	}

	body, err := s.client.GetJSON(ctx, "ons.FetchCPIForMonth", endpoint, query)
	if err != nil {
		return 0, err
	}

	var resp observationsResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return 0, fmt.Errorf("failed to decode ONS observations: %w", err)
	}
	if len(resp.Observations) == 0 {
		return 0, cpi.ErrObservationNotFound
	}
	value, ok := fetch.Number(resp.Observations[0].Observation)
	if !ok {
		return 0, cpi.ErrObservationNotFound
	}

	s.logger.Debug("fetched observation",
		zap.String("op", "ons.FetchCPIForMonth"),
		zap.String("time", query.Get("time")),
		zap.String("version", version),
		zap.Float64("value", value),
	)
	return value, nil
}
