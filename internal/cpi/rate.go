package cpi

import (
	"github.com/iwvelando/cpi-calculator/pkg/mathutil"
)

// Rate is the cumulative change between two index levels.
type Rate struct {
	Start  float64
	End    float64
	Change float64
}

// Display holds the rounded, display-ready values of a Rate.
type Display struct {
	CPIStart string `json:"cpiStart"`
	CPIEnd   string `json:"cpiEnd"`
	Result   string `json:"result"`
}

// ComputeRate returns (end/start - 1) * 100. A zero or negative start is not
// special-cased.
func ComputeRate(start, end float64) Rate {
	return Rate{
		Start:  start,
		End:    end,
		Change: mathutil.PercentChange(start, end),
	}
}

// Display rounds the three values to two decimals.
func (r Rate) Display() Display {
	return Display{
		CPIStart: mathutil.FormatFixed(r.Start),
		CPIEnd:   mathutil.FormatFixed(r.End),
		Result:   mathutil.FormatFixed(r.Change),
	}
}
