// Package export writes integration results as reports: tables, CSV, JSON
// and SVG. Writers take an io.Writer; opening files is the caller's job.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/d33fur/caso/internal/ode"
	"github.com/d33fur/caso/internal/sim"
)

type Format string

const (
	FormatTable Format = "table"
	FormatCSV   Format = "csv"
	FormatJSON  Format = "json"
	FormatSVG   Format = "svg"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatTable, FormatCSV, FormatJSON, FormatSVG:
		return f, nil
	case "":
		return FormatTable, nil
	default:
		return "", fmt.Errorf("unknown format: %s", s)
	}
}

// Report is the serialisable view of one run.
type Report struct {
	RunID       string             `json:"run_id,omitempty"`
	Method      string             `json:"method"`
	Problem     string             `json:"problem,omitempty"`
	XL          float64            `json:"xl"`
	XR          float64            `json:"xr"`
	XS          float64            `json:"xs"`
	Stats       sim.Stats          `json:"stats"`
	Corrections []sim.Correction   `json:"corrections,omitempty"`
	Metrics     map[string]float64 `json:"metrics,omitempty"`
	Points      ode.Trajectory     `json:"points"`
}

func NewReport(problem string, res *sim.Result) Report {
	return Report{
		RunID:       res.RunID,
		Method:      res.Method,
		Problem:     problem,
		XL:          res.Params.XL,
		XR:          res.Params.XR,
		XS:          res.Params.XS,
		Stats:       res.Stats,
		Corrections: res.Corrections,
		Metrics:     res.Metrics,
		Points:      res.Trajectory,
	}
}

// Write renders r in the given format. component selects the plotted state
// component for SVG and is ignored otherwise.
func Write(w io.Writer, f Format, r Report, component int) error {
	switch f {
	case FormatTable:
		return WriteTable(w, r.Points)
	case FormatCSV:
		return WriteCSV(w, r.Points, Fixed)
	case FormatJSON:
		return WriteJSON(w, r)
	case FormatSVG:
		return WriteSVG(w, r.Points, component, DefaultSVGOptions())
	default:
		return fmt.Errorf("unknown format: %s", f)
	}
}

// FormatOf infers a readable format from a file name.
func FormatOf(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON, nil
	case ".csv":
		return FormatCSV, nil
	default:
		return "", fmt.Errorf("cannot read reports from %s: want .json or .csv", path)
	}
}

// Read loads a report written in format f. CSV carries only the points, so
// the interval is taken from the first and last of them.
func Read(rd io.Reader, f Format) (Report, error) {
	switch f {
	case FormatJSON:
		return ReadJSON(rd)
	case FormatCSV:
		traj, err := ReadCSV(rd)
		if err != nil {
			return Report{}, err
		}
		r := Report{Method: "csv", Points: traj}
		if len(traj) > 0 {
			r.XL, r.XR = traj[0].X, traj[len(traj)-1].X
		}
		return r, nil
	default:
		return Report{}, fmt.Errorf("cannot read %s reports", f)
	}
}

// Result rebuilds the run a report describes. The right-hand side is not
// part of a report, so Params.F is nil.
func (r Report) Result() *sim.Result {
	return &sim.Result{
		RunID:       r.RunID,
		Method:      r.Method,
		Params:      sim.Params{Y0: firstState(r.Points), XL: r.XL, XR: r.XR, XS: r.XS},
		Trajectory:  r.Points,
		Stats:       r.Stats,
		Corrections: r.Corrections,
		Metrics:     r.Metrics,
	}
}

func firstState(traj ode.Trajectory) ode.State {
	if len(traj) == 0 {
		return nil
	}
	return traj[0].Y
}
