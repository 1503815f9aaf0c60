// Package source builds the statistics provider for a country code.
package source

import (
	"github.com/iwvelando/cpi-calculator/internal/config"
	"github.com/iwvelando/cpi-calculator/internal/cpi"
	"github.com/iwvelando/cpi-calculator/internal/fetch"
	"github.com/iwvelando/cpi-calculator/internal/source/bls"
	"github.com/iwvelando/cpi-calculator/internal/source/ecb"
	"github.com/iwvelando/cpi-calculator/internal/source/ons"
	"github.com/iwvelando/cpi-calculator/pkg/constants"
	"github.com/iwvelando/cpi-calculator/pkg/validation"
	"go.uber.org/zap"
)

// New returns the source for country ("eu", "uk" or "us").
func New(country string, cfg *config.Configuration, client *fetch.Client, logger *zap.Logger) (cpi.Source, error) {
	if err := validation.ValidateCountry(country); err != nil {
		return nil, err
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	switch country {
	case constants.CountryEU:
		return ecb.New(client, cfg.Sources.ECB, logger), nil
	case constants.CountryUK:
		return ons.New(client, cfg.Sources.ONS, logger), nil
	default:
		return bls.New(client, cfg.Sources.BLS, logger), nil
	}
}

// All returns every source keyed by country, along with the country codes in
// presentation order.
func All(cfg *config.Configuration, client *fetch.Client, logger *zap.Logger) (map[string]cpi.Source, []string, error) {
	sources := make(map[string]cpi.Source, len(validation.Countries))
	order := make([]string, 0, len(validation.Countries))
	for _, country := range validation.Countries {
		src, err := New(country, cfg, client, logger)
		if err != nil {
			return nil, nil, err
		}
		sources[country] = src
		order = append(order, country)
	}
	return sources, order, nil
}
