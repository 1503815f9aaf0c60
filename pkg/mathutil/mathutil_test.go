package mathutil

import (
	"math"
	"testing"
)

func TestRound(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected float64
	}{
		{"Round up at midpoint", 1.235, 1.24},
		{"Round down below midpoint", 1.234, 1.23},
		{"No rounding needed", 1.23, 1.23},
		{"Index level", 135.199999, 135.2},
		{"Negative number round up", -1.235, -1.24},
		{"Negative number round down", -1.234, -1.23},
		{"Zero", 0.0, 0.0},
		{"Very small positive", 0.001, 0.00},
		{"Very small negative", -0.001, 0.00},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Round(tt.input)
			if math.Abs(result-tt.expected) > 0.001 {
				t.Errorf("Round(%v) = %v, expected %v", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFormatFixed(t *testing.T) {
	tests := []struct {
		name     string
		input    float64
		expected string
	}{
		{"Whole number", 100, "100.00"},
		{"One decimal", 130.5, "130.50"},
		{"Rounds half away from zero", 0.125, "0.13"},
		{"Negative", -5.000000000000004, "-5.00"},
		{"Negative zero suppressed", -0.001, "0.00"},
		{"Infinity", math.Inf(1), "+Inf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := FormatFixed(tt.input); got != tt.expected {
				t.Errorf("FormatFixed(%v) = %q, expected %q", tt.input, got, tt.expected)
			}
		})
	}
}

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name     string
		start    float64
		end      float64
		expected float64
	}{
		{"Increase", 100, 105, 5},
		{"Decrease", 100, 95, -5},
		{"Unchanged", 120.4, 120.4, 0},
		{"Negative start is not guarded", -100, 105, -205},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := PercentChange(tt.start, tt.end)
			if math.Abs(result-tt.expected) > 1e-9 {
				t.Errorf("PercentChange(%v, %v) = %v, expected %v", tt.start, tt.end, result, tt.expected)
			}
		})
	}
}

func TestPercentChangeZeroStart(t *testing.T) {
	if got := PercentChange(0, 105); !math.IsInf(got, 1) {
		t.Errorf("PercentChange(0, 105) = %v, expected +Inf", got)
	}
	if got := PercentChange(0, 0); !math.IsNaN(got) {
		t.Errorf("PercentChange(0, 0) = %v, expected NaN", got)
	}
}
