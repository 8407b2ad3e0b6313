package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/d33fur/caso/internal/ode"
)

// Precision selects how numbers are formatted in CSV output.
type Precision int

const (
	// Fixed prints six decimals.
	Fixed Precision = iota
	// Full prints the shortest representation that parses back exactly.
	Full
)

func (p Precision) format(v float64) string {
	if p == Full {
		return strconv.FormatFloat(v, 'g', -1, 64)
	}
	return strconv.FormatFloat(v, 'f', 6, 64)
}

func header(dim int) []string {
	h := make([]string, 0, dim+1)
	h = append(h, "x")
	for i := 0; i < dim; i++ {
		h = append(h, fmt.Sprintf("y%d", i))
	}
	return h
}

// WriteCSV writes one row per point under the header x,y0,y1,...
func WriteCSV(w io.Writer, traj ode.Trajectory, prec Precision) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(header(traj.Dim())); err != nil {
		return err
	}
	row := make([]string, 0, traj.Dim()+1)
	for _, p := range traj {
		row = append(row[:0], prec.format(p.X))
		for _, v := range p.Y {
			row = append(row, prec.format(v))
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// ReadCSV parses output of WriteCSV. Every row must have as many columns as
// the header.
func ReadCSV(r io.Reader) (ode.Trajectory, error) {
	cr := csv.NewReader(r)
	records, err := cr.ReadAll()
	if err != nil {
		return nil, err
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("csv: missing header")
	}
	if len(records[0]) < 2 || records[0][0] != "x" {
		return nil, fmt.Errorf("csv: unexpected header %v", records[0])
	}

	traj := make(ode.Trajectory, 0, len(records)-1)
	for i, rec := range records[1:] {
		vals := make([]float64, len(rec))
		for j, field := range rec {
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, fmt.Errorf("csv: line %d column %d: %w", i+2, j+1, err)
			}
			vals[j] = v
		}
		traj = append(traj, ode.Point{X: vals[0], Y: ode.State(vals[1:])})
	}
	return traj, nil
}

// WriteTable prints an aligned table for terminals.
func WriteTable(w io.Writer, traj ode.Trajectory) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', tabwriter.AlignRight)
	for _, h := range header(traj.Dim()) {
		fmt.Fprintf(tw, "%s\t", h)
	}
	fmt.Fprintln(tw)
	for _, p := range traj {
		fmt.Fprintf(tw, "%.6f\t", p.X)
		for _, v := range p.Y {
			fmt.Fprintf(tw, "%.6f\t", v)
		}
		fmt.Fprintln(tw)
	}
	return tw.Flush()
}
