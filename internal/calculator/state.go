package calculator

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/iwvelando/cpi-calculator/internal/cpi"
	"go.uber.org/zap"
)

// Status is the lifecycle stage of a country's latest calculation.
type Status string

const (
	StatusIdle    Status = "idle"
	StatusLoading Status = "loading"
	StatusSuccess Status = "success"
	StatusFailed  Status = "failed"
)

// FetchState is the observable state of the latest calculation for a country.
// On success the three display fields and the month labels are set and Error
// is empty; on failure only Error is set.
type FetchState struct {
	ID         string        `json:"id,omitempty"`
	Country    string        `json:"country"`
	Status     Status        `json:"status"`
	Start      *cpi.MonthKey `json:"start,omitempty"`
	End        *cpi.MonthKey `json:"end,omitempty"`
	CPIStart   string        `json:"cpiStart,omitempty"`
	CPIEnd     string        `json:"cpiEnd,omitempty"`
	Result     string        `json:"result,omitempty"`
	StartLabel string        `json:"startLabel,omitempty"`
	EndLabel   string        `json:"endLabel,omitempty"`
	Error      string        `json:"error,omitempty"`
	StartedAt  *time.Time    `json:"startedAt,omitempty"`
	UpdatedAt  *time.Time    `json:"updatedAt,omitempty"`
}

type entry struct {
	state  FetchState
	cancel context.CancelFunc
}

// Tracker runs calculations and keeps one FetchState per country. Starting a
// calculation cancels the one still running for the same country, and only
// the most recently started calculation may update the state.
type Tracker struct {
	calculators map[string]*Calculator
	order       []string
	logger      *zap.Logger

	mu      sync.Mutex
	entries map[string]*entry
}

// NewTracker returns a Tracker over the given calculators, keyed by the
// country of their source. Countries are listed in the order given.
func NewTracker(logger *zap.Logger, calculators ...*Calculator) *Tracker {
	if logger == nil {
		logger = zap.NewNop()
	}
	t := &Tracker{
		calculators: make(map[string]*Calculator, len(calculators)),
		logger:      logger,
		entries:     make(map[string]*entry),
	}
	for _, c := range calculators {
		country := c.Info().Country
		if _, dup := t.calculators[country]; !dup {
			t.order = append(t.order, country)
		}
		t.calculators[country] = c
	}
	return t
}

// Sources describes every tracked source in order.
func (t *Tracker) Sources() []cpi.Info {
	infos := make([]cpi.Info, 0, len(t.order))
	for _, country := range t.order {
		infos = append(infos, t.calculators[country].Info())
	}
	return infos
}

// Has reports whether country has a calculator.
func (t *Tracker) Has(country string) bool {
	_, ok := t.calculators[country]
	return ok
}

// State returns a copy of the current state for country. Countries that have
// never run are idle.
func (t *Tracker) State(country string) FetchState {
	t.mu.Lock()
	defer t.mu.Unlock()
	if e, ok := t.entries[country]; ok {
		return e.state
	}
	return FetchState{Country: country, Status: StatusIdle}
}

// Run calculates the rate for country and records the outcome. The returned
// state is the one this run produced, even when a newer run has since
// replaced it as the country's current state.
func (t *Tracker) Run(ctx context.Context, country string, start, end *cpi.MonthKey) (FetchState, error) {
	calc, ok := t.calculators[country]
	if !ok {
		return FetchState{}, fmt.Errorf("%w %q", ErrUnknownCountry, country)
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	now := time.Now()
	state := FetchState{
		ID:        uuid.NewString(),
		Country:   country,
		Status:    StatusLoading,
		Start:     start,
		End:       end,
		StartedAt: &now,
		UpdatedAt: &now,
	}

	t.mu.Lock()
	if prev, ok := t.entries[country]; ok && prev.cancel != nil {
		t.logger.Debug("superseding running calculation",
			zap.String("op", "calculator.Tracker.Run"),
			zap.String("country", country),
			zap.String("previous", prev.state.ID),
			zap.String("id", state.ID),
		)
		prev.cancel()
	}
	t.entries[country] = &entry{state: state, cancel: cancel}
	t.mu.Unlock()

	outcome, err := calc.CalculateRate(runCtx, start, end)

	done := time.Now()
	state.UpdatedAt = &done
	if err != nil {
		state.Status = StatusFailed
		state.Error = UserMessage(err)
	} else {
		state.Status = StatusSuccess
		state.CPIStart = outcome.Display.CPIStart
		state.CPIEnd = outcome.Display.CPIEnd
		state.Result = outcome.Display.Result
		state.StartLabel = outcome.Start.Label()
		state.EndLabel = outcome.End.Label()
	}

	t.mu.Lock()
	if current, ok := t.entries[country]; ok && current.state.ID == state.ID {
		t.entries[country] = &entry{state: state}
	} else {
		t.logger.Debug("discarding superseded result",
			zap.String("op", "calculator.Tracker.Run"),
			zap.String("country", country),
			zap.String("id", state.ID),
		)
	}
	t.mu.Unlock()

	return state, err
}
