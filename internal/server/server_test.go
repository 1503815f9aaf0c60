package server

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
	"github.com/iwvelando/cpi-calculator/internal/cpi"
	"github.com/iwvelando/cpi-calculator/pkg/constants"
	"go.uber.org/zap"
)

type stubSource struct {
	country string
	values  map[string]float64
	err     error
}

func (s stubSource) Info() cpi.Info {
	return cpi.Info{Country: s.country, Title: "Cumulative CPI Rate Calculator " + strings.ToUpper(s.country)}
}

func (s stubSource) Open(context.Context, cpi.MonthKey, cpi.MonthKey) (cpi.Lookup, error) {
	if s.err != nil {
		return nil, s.err
	}
	return cpi.LookupFunc(func(_ context.Context, month cpi.MonthKey) (float64, error) {
		v, ok := s.values[month.String()]
		if !ok {
			return 0, cpi.ErrNoMatch
		}
		return v, nil
	}), nil
}

func newTestHandler(t *testing.T, maxRequestSize int64) http.Handler {
	t.Helper()
	values := map[string]float64{"2023-03": 130.5, "2024-03": 135.2}
	tracker := calculator.NewTracker(zap.NewNop(),
		calculator.New(stubSource{country: "eu", err: &cpi.HTTPError{Status: 503}}, time.Second, nil),
		calculator.New(stubSource{country: "uk", values: values}, time.Second, nil),
		calculator.New(stubSource{country: "us", values: map[string]float64{"2023-03": 301.7}}, time.Second, nil),
	)
	return NewHandler(zap.NewNop(), tracker, maxRequestSize, "1.2.3")
}

func postCalculate(t *testing.T, handler http.Handler, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, "/api/calculate", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, req)
	return rr
}

func TestHandleCalculate(t *testing.T) {
	tests := []struct {
		name    string
		body    string
		status  int
		result  string
		errText string
	}{
		{
			name:   "Success",
			body:   `{"country":"uk","start":"2023-03","end":"2024-03"}`,
			status: http.StatusOK,
			result: "3.60",
		},
		{
			name:    "Missing dates",
			body:    `{"country":"uk","start":"2023-03"}`,
			status:  http.StatusUnprocessableEntity,
			errText: "Please select both a start date and an end date.",
		},
		{
			name:    "Start after end",
			body:    `{"country":"uk","start":"2024-03","end":"2023-03"}`,
			status:  http.StatusUnprocessableEntity,
			errText: "Start date must be before end date.",
		},
		{
			name:    "Upstream HTTP error",
			body:    `{"country":"eu","start":"2023-03","end":"2024-03"}`,
			status:  http.StatusBadGateway,
			errText: "Failed to fetch CPI data! HTTP error! Status: 503",
		},
		{
			name:    "Month absent from series",
			body:    `{"country":"us","start":"2023-03","end":"2024-03"}`,
			status:  http.StatusBadGateway,
			errText: "Failed to fetch CPI data! CPI data not found for the selected months.",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postCalculate(t, newTestHandler(t, 0), tt.body)
			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}

			var state calculator.FetchState
			if err := json.Unmarshal(rr.Body.Bytes(), &state); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if state.Result != tt.result {
				t.Errorf("expected result %q, got %q", tt.result, state.Result)
			}
			if state.Error != tt.errText {
				t.Errorf("expected error %q, got %q", tt.errText, state.Error)
			}
		})
	}
}

func TestHandleCalculateRejectsBadRequests(t *testing.T) {
	tests := []struct {
		name   string
		body   string
		status int
	}{
		{"Malformed JSON", `{"country":`, http.StatusBadRequest},
		{"Invalid month", `{"country":"uk","start":"2023-13","end":"2024-03"}`, http.StatusBadRequest},
		{"Unknown country", `{"country":"fr","start":"2023-03","end":"2024-03"}`, http.StatusNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := postCalculate(t, newTestHandler(t, 0), tt.body)
			if rr.Code != tt.status {
				t.Fatalf("expected status %d, got %d: %s", tt.status, rr.Code, rr.Body.String())
			}
			var resp map[string]string
			if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
				t.Fatalf("failed to decode response: %v", err)
			}
			if resp["error"] == "" {
				t.Fatal("expected error message in response")
			}
		})
	}
}

func TestHandleCalculateTooLarge(t *testing.T) {
	body := `{"country":"uk","start":"2023-03","end":"2024-03","padding":"` + strings.Repeat("x", 256) + `"}`
	rr := postCalculate(t, newTestHandler(t, 64), body)
	if rr.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected status 413, got %d: %s", rr.Code, rr.Body.String())
	}
}

func TestHandleState(t *testing.T) {
	handler := newTestHandler(t, constants.DefaultMaxRequestSizeBytes)

	get := func(path string) *httptest.ResponseRecorder {
		rr := httptest.NewRecorder()
		handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, path, nil))
		return rr
	}

	rr := get("/api/state/uk")
	if rr.Code != http.StatusOK || !strings.Contains(rr.Body.String(), `"status":"idle"`) {
		t.Fatalf("expected idle state, got %d: %s", rr.Code, rr.Body.String())
	}

	if rr := postCalculate(t, handler, `{"country":"uk","start":"2023-03","end":"2024-03"}`); rr.Code != http.StatusOK {
		t.Fatalf("calculate failed: %d", rr.Code)
	}

	rr = get("/api/state/uk")
	var state calculator.FetchState
	if err := json.Unmarshal(rr.Body.Bytes(), &state); err != nil {
		t.Fatalf("failed to decode state: %v", err)
	}
	if state.Status != calculator.StatusSuccess || state.CPIStart != "130.50" || state.CPIEnd != "135.20" ||
		state.StartLabel != "1 March 2023" || state.EndLabel != "1 March 2024" {
		t.Fatalf("unexpected state %+v", state)
	}

	if rr := get("/api/state/fr"); rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown country, got %d", rr.Code)
	}
}

func TestHandleSources(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestHandler(t, 0).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/sources", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}

	var infos []cpi.Info
	if err := json.Unmarshal(rr.Body.Bytes(), &infos); err != nil {
		t.Fatalf("failed to decode sources: %v", err)
	}
	var countries []string
	for _, info := range infos {
		countries = append(countries, info.Country)
	}
	if strings.Join(countries, ",") != "eu,uk,us" {
		t.Fatalf("unexpected sources %v", countries)
	}
}

func TestHandleVersion(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestHandler(t, 0).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	var resp map[string]string
	if err := json.Unmarshal(rr.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode version: %v", err)
	}
	if resp["version"] != "1.2.3" {
		t.Fatalf("unexpected version %q", resp["version"])
	}
}

func TestVersionDefaultsToDev(t *testing.T) {
	handler := NewHandler(nil, calculator.NewTracker(nil), 0, "  ")
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/version", nil))
	if !strings.Contains(rr.Body.String(), `"dev"`) {
		t.Fatalf("expected dev version, got %s", rr.Body.String())
	}
}

func TestHealthz(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestHandler(t, 0).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	if rr.Code != http.StatusOK || rr.Body.String() != "ok" {
		t.Fatalf("unexpected health response %d %q", rr.Code, rr.Body.String())
	}
}

func TestServesIndex(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestHandler(t, 0).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/", nil))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", rr.Code)
	}
	for _, want := range []string{"Cumulative CPI Rate Calculator", `id="startLabel"`, `id="endLabel"`, "Please select a country"} {
		if !bytes.Contains(rr.Body.Bytes(), []byte(want)) {
			t.Fatalf("expected %q in index page", want)
		}
	}
}

func TestCalculateMethodNotAllowed(t *testing.T) {
	rr := httptest.NewRecorder()
	newTestHandler(t, 0).ServeHTTP(rr, httptest.NewRequest(http.MethodGet, "/api/calculate", nil))
	if rr.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", rr.Code)
	}
}
