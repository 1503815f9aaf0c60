package integration

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/iwvelando/cpi-calculator/internal/calculator"
	"github.com/iwvelando/cpi-calculator/internal/config"
	"github.com/iwvelando/cpi-calculator/internal/cpi"
	"github.com/iwvelando/cpi-calculator/internal/fetch"
	"github.com/iwvelando/cpi-calculator/internal/server"
	"github.com/iwvelando/cpi-calculator/internal/source"
	"github.com/iwvelando/cpi-calculator/pkg/testutil"
	"go.uber.org/zap"
)

func newProviders() *testutil.Providers {
	return &testutil.Providers{
		ONSVersion: "45",
		ONS:        map[string]float64{"2023-03": 130.5, "2024-03": 135.2},
		ECB:        map[string]float64{"2023-03": 121.64, "2024-03": 124.65},
		BLS:        map[string]float64{"2023-03": 301.744, "2024-03": 312.23},
	}
}

// buildStack wires configuration, sources, calculators and the HTTP handler
// the way cmd/cpi-calculator-server does, against the fake providers.
func buildStack(t *testing.T, providers *testutil.Providers) (*calculator.Tracker, http.Handler) {
	t.Helper()

	upstream := httptest.NewServer(providers.Handler())
	t.Cleanup(upstream.Close)

	conf, err := config.LoadConfigurationFromReader(strings.NewReader(providers.ConfigYAML(upstream.URL)))
	if err != nil {
		t.Fatalf("LoadConfigurationFromReader() error = %v", err)
	}
	if err := conf.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}

	logger := zap.NewNop()
	client := fetch.NewClient(&http.Client{Timeout: conf.HTTP.Timeout}, conf.HTTP.UserAgent, logger)
	sources, order, err := source.All(conf, client, logger)
	if err != nil {
		t.Fatalf("source.All() error = %v", err)
	}

	calculators := make([]*calculator.Calculator, 0, len(order))
	for _, country := range order {
		calculators = append(calculators, calculator.New(sources[country], conf.HTTP.Timeout, logger))
	}
	tracker := calculator.NewTracker(logger, calculators...)
	return tracker, server.NewHandler(logger, tracker, conf.Server.RequestSizeBytes(), "test")
}

// TestCalculateAllCountries runs one calculation per country through the
// HTTP API and checks the rendered values.
func TestCalculateAllCountries(t *testing.T) {
	providers := newProviders()
	_, handler := buildStack(t, providers)

	tests := []struct {
		country  string
		provider string
		cpiStart string
		cpiEnd   string
		result   string
		requests int
	}{
		{"uk", "ons", "130.50", "135.20", "3.60", 3},
		{"eu", "ecb", "121.64", "124.65", "2.47", 2},
		{"us", "bls", "301.74", "312.23", "3.48", 1},
	}

	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			body := `{"country":"` + tt.country + `","start":"2023-03","end":"2024-03"}`
			req := httptest.NewRequest(http.MethodPost, "/api/calculate", strings.NewReader(body))
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, req)

			if rr.Code != http.StatusOK {
				t.Fatalf("expected status 200, got %d: %s", rr.Code, rr.Body.String())
			}

			var state calculator.FetchState
			if err := json.Unmarshal(rr.Body.Bytes(), &state); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if state.CPIStart != tt.cpiStart || state.CPIEnd != tt.cpiEnd || state.Result != tt.result {
				t.Errorf("unexpected state %+v", state)
			}
			if n := providers.Requests(tt.provider); n != tt.requests {
				t.Errorf("expected %d upstream requests, got %d", tt.requests, n)
			}
		})
	}
}

// TestUnpublishedMonths checks each source's behavior for a month the
// provider has not published.
func TestUnpublishedMonths(t *testing.T) {
	_, handler := buildStack(t, newProviders())

	tests := []struct {
		country string
		message string
	}{
		{"uk", "Failed to fetch CPI data! CPI data not found for the specified month."},
		{"eu", "Failed to fetch CPI data! CPI data not available for the selected month. It may be too far in the future."},
		{"us", "Failed to fetch CPI data! CPI data not found for the selected months."},
	}

	for _, tt := range tests {
		t.Run(tt.country, func(t *testing.T) {
			body := `{"country":"` + tt.country + `","start":"2023-03","end":"2030-01"}`
			rr := httptest.NewRecorder()
			handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/calculate", bytes.NewBufferString(body)))

			if rr.Code != http.StatusBadGateway {
				t.Fatalf("expected status 502, got %d: %s", rr.Code, rr.Body.String())
			}
			var state calculator.FetchState
			if err := json.Unmarshal(rr.Body.Bytes(), &state); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if state.Status != calculator.StatusFailed || state.Error != tt.message {
				t.Errorf("unexpected state %+v", state)
			}
		})
	}
}

func TestMissingONSVersion(t *testing.T) {
	providers := newProviders()
	providers.ONSVersion = ""
	tracker, _ := buildStack(t, providers)

	start := &cpi.MonthKey{Year: 2023, Month: time.March}
	end := &cpi.MonthKey{Year: 2024, Month: time.March}
	_, err := tracker.Run(context.Background(), "uk", start, end)
	if calculator.UserMessage(err) != "Failed to fetch CPI data! No versions found" {
		t.Fatalf("unexpected error %v", err)
	}
	if providers.Requests("ons") != 1 {
		t.Fatalf("expected only the version request, got %d", providers.Requests("ons"))
	}
}

func TestSourcesListing(t *testing.T) {
	tracker, _ := buildStack(t, newProviders())
	infos := tracker.Sources()

	for _, country := range []string{"eu", "uk", "us"} {
		info := testutil.FindSource(infos, country)
		if info == nil {
			t.Fatalf("missing source %s", country)
		}
		if !strings.HasPrefix(info.Title, "Cumulative CPI Rate Calculator") || info.Description == "" {
			t.Errorf("incomplete info %+v", info)
		}
	}
}

func TestZeroUSIndexIsMissing(t *testing.T) {
	providers := newProviders()
	providers.BLS["2024-03"] = 0
	tracker, _ := buildStack(t, providers)

	start := &cpi.MonthKey{Year: 2023, Month: time.March}
	end := &cpi.MonthKey{Year: 2024, Month: time.March}
	state, err := tracker.Run(context.Background(), "us", start, end)
	if err == nil {
		t.Fatalf("expected failure, got %+v", state)
	}
	if state.Error != "Failed to fetch CPI data! CPI data not found for the selected months." || state.Result != "" {
		t.Fatalf("unexpected state %+v", state)
	}
}
