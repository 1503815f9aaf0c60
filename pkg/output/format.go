// Package output provides utilities for formatting and displaying calculation results.
package output

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iwvelando/cpi-calculator/internal/calculator"
	"github.com/iwvelando/cpi-calculator/internal/cpi"
	"github.com/iwvelando/cpi-calculator/pkg/mathutil"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Report is one calculation together with the source it came from.
type Report struct {
	Info    cpi.Info
	Outcome calculator.Outcome
}

type jsonReport struct {
	Country  string       `json:"country"`
	Title    string       `json:"title"`
	Start    cpi.MonthKey `json:"start"`
	End      cpi.MonthKey `json:"end"`
	CPIStart string       `json:"cpiStart"`
	CPIEnd   string       `json:"cpiEnd"`
	Result   string       `json:"result"`
}

// PrettyFormat outputs a human-readable rather than machine-readable table.
func PrettyFormat(w io.Writer, report Report) {
	p := message.NewPrinter(language.English)
	o := report.Outcome
	_, _ = fmt.Fprintf(w, "--- %s ---\n", report.Info.Title)
	_, _ = fmt.Fprintf(w, "Month           | CPI index\n")
	_, _ = fmt.Fprintf(w, "_____           | _________\n")
	_, _ = p.Fprintf(w, "%-15s | %.2f\n", o.Start.Label(), mathutil.Round(o.Rate.Start))
	_, _ = p.Fprintf(w, "%-15s | %.2f\n", o.End.Label(), mathutil.Round(o.Rate.End))
	_, _ = fmt.Fprintf(w, "\nCumulative CPI rate: %s%%\n", o.Display.Result)
	if report.Info.Description != "" {
		_, _ = fmt.Fprintf(w, "\n%s\n", report.Info.Description)
	}
}

// CsvFormat outputs in comma-separated value format.
func CsvFormat(w io.Writer, report Report) {
	o := report.Outcome
	_, _ = fmt.Fprintf(w, `"country","start","end","cpiStart","cpiEnd","result"`+"\n")
	_, _ = fmt.Fprintf(w, `"%s","%s","%s","%s","%s","%s"`+"\n",
		o.Country, o.Start, o.End, o.Display.CPIStart, o.Display.CPIEnd, o.Display.Result)
}

// JSONFormat outputs the result as an indented JSON object.
func JSONFormat(w io.Writer, report Report) error {
	o := report.Outcome
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(jsonReport{
		Country:  o.Country,
		Title:    report.Info.Title,
		Start:    o.Start,
		End:      o.End,
		CPIStart: o.Display.CPIStart,
		CPIEnd:   o.Display.CPIEnd,
		Result:   o.Display.Result,
	})
}
