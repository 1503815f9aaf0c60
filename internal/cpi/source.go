package cpi

import "context"

// Info describes a statistics source for the presentation layer.
type Info struct {
	Country     string `json:"country"`
	Title       string `json:"title"`
	Description string `json:"description"`
}

// Source is one national statistics provider.
//
// Open performs whatever must happen once per calculation before individual
// months can be looked up (a version discovery, a range download, or
// nothing) and returns a Lookup bound to that work.
type Source interface {
	Info() Info
	Open(ctx context.Context, start, end MonthKey) (Lookup, error)
}

// Lookup returns the index level for a single month. Implementations return
// ErrNoMatch when the month is simply absent from data already fetched.
type Lookup interface {
	Observation(ctx context.Context, month MonthKey) (float64, error)
}

// LookupFunc adapts a function to the Lookup interface.
type LookupFunc func(ctx context.Context, month MonthKey) (float64, error)

// Observation calls f.
func (f LookupFunc) Observation(ctx context.Context, month MonthKey) (float64, error) {
	return f(ctx, month)
}
