// Package server serves the web UI and the JSON API used by it.
package server

import (
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/iwvelando/cpi-calculator/internal/calculator"
	"github.com/iwvelando/cpi-calculator/internal/cpi"
	"github.com/iwvelando/cpi-calculator/pkg/constants"
	"github.com/iwvelando/cpi-calculator/pkg/validation"
	"go.uber.org/zap"
)

//go:embed static/*
var staticFiles embed.FS

type handler struct {
	logger         *zap.Logger
	tracker        *calculator.Tracker
	maxRequestSize int64
	version        string
}

// CalculateRequest is the body accepted by POST /api/calculate. Months use
// the YYYY-MM layout; an empty month is reported as a missing date.
type CalculateRequest struct {
	Country string `json:"country"`
	Start   string `json:"start"`
	End     string `json:"end"`
}

// NewHandler constructs the HTTP handler that serves the web UI and the
// calculation API.
func NewHandler(logger *zap.Logger, tracker *calculator.Tracker, maxRequestSize int64, version string) http.Handler {
	if logger == nil {
		logger = zap.NewNop()
	}

	if maxRequestSize <= 0 {
		maxRequestSize = constants.DefaultMaxRequestSizeBytes
	}

	trimmedVersion := strings.TrimSpace(version)
	if trimmedVersion == "" {
		trimmedVersion = "dev"
	}

	h := &handler{logger: logger, tracker: tracker, maxRequestSize: maxRequestSize, version: trimmedVersion}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(h.logRequests)

	r.Get("/healthz", h.handleHealth)

	r.Route("/api", func(r chi.Router) {
		r.Get("/version", h.handleVersion)
		r.Get("/sources", h.handleSources)
		r.Post("/calculate", h.handleCalculate)
		r.Get("/state/{country}", h.handleState)
	})

	// Static assets (web UI)
	sub, err := fs.Sub(staticFiles, "static")
	if err != nil {
		panic(fmt.Sprintf("failed to prepare embedded static files: %v", err))
	}
	r.Handle("/*", http.FileServer(http.FS(sub)))

	return r
}

func (h *handler) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		h.logger.Debug("request served",
			zap.String("op", "server.logRequests"),
			zap.String("requestID", middleware.GetReqID(r.Context())),
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	})
}

func (h *handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (h *handler) handleVersion(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, map[string]string{
		"version": h.version,
	})
}

func (h *handler) handleSources(w http.ResponseWriter, _ *http.Request) {
	h.writeJSON(w, http.StatusOK, h.tracker.Sources())
}

func (h *handler) handleState(w http.ResponseWriter, r *http.Request) {
	country := chi.URLParam(r, "country")
	if !h.tracker.Has(country) {
		h.respondError(w, r, http.StatusNotFound, unknownCountry(country), "server.handleState")
		return
	}
	h.writeJSON(w, http.StatusOK, h.tracker.State(country))
}

func (h *handler) handleCalculate(w http.ResponseWriter, r *http.Request) {
	const op = "server.handleCalculate"

	r.Body = http.MaxBytesReader(w, r.Body, h.maxRequestSize)

	var req CalculateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.respondError(w, r, http.StatusRequestEntityTooLarge,
				fmt.Sprintf("request exceeds limit of %d bytes", h.maxRequestSize), op)
			return
		}
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("failed to decode request: %v", err), op)
		return
	}

	country := strings.ToLower(strings.TrimSpace(req.Country))
	if !h.tracker.Has(country) {
		h.respondError(w, r, http.StatusNotFound, unknownCountry(country), op)
		return
	}

	start, err := cpi.ParseMonthKey(req.Start)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid start month: %v", err), op)
		return
	}
	end, err := cpi.ParseMonthKey(req.End)
	if err != nil {
		h.respondError(w, r, http.StatusBadRequest, fmt.Sprintf("invalid end month: %v", err), op)
		return
	}

	state, err := h.tracker.Run(r.Context(), country, start, end)
	switch {
	case err == nil:
		h.writeJSON(w, http.StatusOK, state)
	case cpi.IsValidation(err):
		h.writeJSON(w, http.StatusUnprocessableEntity, state)
	default:
		h.logger.Warn("calculation failed",
			zap.String("op", op),
			zap.String("requestID", middleware.GetReqID(r.Context())),
			zap.String("country", country),
			zap.Error(err),
		)
		h.writeJSON(w, http.StatusBadGateway, state)
	}
}

func unknownCountry(country string) string {
	if err := validation.ValidateCountry(country); err != nil {
		return err.Error()
	}
	return fmt.Sprintf("no source configured for %q", country)
}

func (h *handler) respondError(w http.ResponseWriter, r *http.Request, status int, msg string, op string) {
	h.logger.Error("request failed",
		zap.String("op", op),
		zap.String("requestID", middleware.GetReqID(r.Context())),
		zap.Int("status", status),
		zap.String("error", msg),
	)

	h.writeJSON(w, status, map[string]string{"error": msg})
}

func (h *handler) writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		h.logger.Error("failed to write JSON response", zap.Error(err))
	}
}
