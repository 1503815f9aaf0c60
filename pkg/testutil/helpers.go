// Package testutil provides common utility functions for testing, including
// an in-memory stand-in for the three statistics provider APIs.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"sync"

	"github.com/go-chi/chi/v5"
	"github.com/iwvelando/cpi-calculator/internal/cpi"
	"github.com/iwvelando/cpi-calculator/pkg/datetime"
)

// FindSource finds a source by country code.
// Returns a pointer to the info if found, nil otherwise.
func FindSource(infos []cpi.Info, country string) *cpi.Info {
	for i := range infos {
		if infos[i].Country == country {
			return &infos[i]
		}
	}
	return nil
}

// Providers fakes the ONS, ECB and BLS APIs. Index levels are keyed by
// YYYY-MM; a month missing from a map behaves the way the real provider
// behaves for unpublished data.
type Providers struct {
	ONSVersion string
	ONS        map[string]float64
	ECB        map[string]float64
	BLS        map[string]float64

	mu       sync.Mutex
	requests map[string]int
}

// Handler routes requests under /ons, /ecb and /bls.
func (p *Providers) Handler() http.Handler {
	r := chi.NewRouter()
	r.Get("/ons/v1/datasets/{dataset}/editions/{edition}/versions", p.onsVersions)
	r.Get("/ons/v1/datasets/{dataset}/editions/{edition}/versions/{version}/observations", p.onsObservations)
	r.Get("/ecb/service/data/*", p.ecbData)
	r.Post("/bls/timeseries/data/", p.blsData)
	return r
}

// Requests returns how many requests reached provider ("ons", "ecb" or "bls").
func (p *Providers) Requests(provider string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.requests[provider]
}

// ConfigYAML returns a configuration pointing every source at baseURL, the
// address the Handler is served on.
func (p *Providers) ConfigYAML(baseURL string) string {
	return fmt.Sprintf(`logging:
  level: warn
http:
  timeout: 5s
sources:
  ons:
    baseURL: %[1]s/ons/v1
  ecb:
    baseURL: %[1]s/ecb/service/data
  bls:
    url: %[1]s/bls/timeseries/data/
    registrationKey: test-key
`, baseURL)
}

func (p *Providers) count(provider string) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.requests == nil {
		p.requests = make(map[string]int)
	}
	p.requests[provider]++
}

func (p *Providers) onsVersions(w http.ResponseWriter, _ *http.Request) {
	p.count("ons")
	if p.ONSVersion == "" {
		writeJSON(w, map[string]interface{}{"items": []interface{}{}})
		return
	}
	writeJSON(w, map[string]interface{}{
		"items": []map[string]string{{"version": p.ONSVersion}},
	})
}

func (p *Providers) onsObservations(w http.ResponseWriter, r *http.Request) {
	p.count("ons")
	if chi.URLParam(r, "version") != p.ONSVersion {
		http.NotFound(w, r)
		return
	}

	key, ok := onsTimeToKey(r.URL.Query().Get("time"))
	value, found := p.ONS[key]
	if !ok || !found {
		writeJSON(w, map[string]interface{}{"observations": []interface{}{}})
		return
	}
	writeJSON(w, map[string]interface{}{
		"observations": []map[string]string{{"observation": strconv.FormatFloat(value, 'f', -1, 64)}},
	})
}

// onsTimeToKey turns "Mar-24" into "2024-03".
func onsTimeToKey(value string) (string, bool) {
	parts := strings.SplitN(value, "-", 2)
	if len(parts) != 2 {
		return "", false
	}
	month, ok := datetime.MonthFromAbbrev(parts[0])
	if !ok {
		return "", false
	}
	yy, err := strconv.Atoi(parts[1])
	if err != nil {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d", 2000+yy, int(month)), true
}

func (p *Providers) ecbData(w http.ResponseWriter, r *http.Request) {
	p.count("ecb")
	value, ok := p.ECB[r.URL.Query().Get("startPeriod")]
	if !ok {
		// The ECB answers unpublished periods with an empty body.
		w.WriteHeader(http.StatusOK)
		return
	}
	writeJSON(w, map[string]interface{}{
		"dataSets": []interface{}{
			map[string]interface{}{
				"series": map[string]interface{}{
					"0:0:0:0:0:0": map[string]interface{}{
						"observations": map[string]interface{}{"0": []float64{value}},
					},
				},
			},
		},
	})
}

type blsRequest struct {
	SeriesID  []string `json:"seriesid"`
	StartYear string   `json:"startyear"`
	EndYear   string   `json:"endyear"`
}

func (p *Providers) blsData(w http.ResponseWriter, r *http.Request) {
	p.count("bls")
	var req blsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || len(req.SeriesID) == 0 {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}

	var data []map[string]string
	for key, value := range p.BLS {
		year := key[:4]
		if year < req.StartYear || year > req.EndYear {
			continue
		}
		data = append(data, map[string]string{
			"year":   year,
			"period": "M" + key[5:7],
			"value":  strconv.FormatFloat(value, 'f', -1, 64),
		})
	}

	writeJSON(w, map[string]interface{}{
		"status":  "REQUEST_SUCCEEDED",
		"message": []string{},
		"Results": map[string]interface{}{
			"series": []interface{}{
				map[string]interface{}{"seriesID": req.SeriesID[0], "data": data},
			},
		},
	})
}

func writeJSON(w http.ResponseWriter, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(payload)
}
