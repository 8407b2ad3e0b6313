package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/d33fur/caso/internal/ode"
)

type SVGOptions struct {
	Width, Height int
	Stroke        string
	Background    string
}

func DefaultSVGOptions() SVGOptions {
	return SVGOptions{Width: 800, Height: 400, Stroke: "#00ff00", Background: "#0a0a0a"}
}

type xy struct{ X, Y float64 }

// WriteSVG plots component idx of the trajectory against x.
func WriteSVG(w io.Writer, traj ode.Trajectory, idx int, opts SVGOptions) error {
	if idx < 0 || idx >= traj.Dim() {
		return fmt.Errorf("svg: component %d out of range for dimension %d", idx, traj.Dim())
	}
	pts := make([]xy, len(traj))
	for i, p := range traj {
		pts[i] = xy{p.X, p.Y[idx]}
	}
	return writePath(w, pts, opts)
}

// WritePhaseSVG plots component yi against component xi.
func WritePhaseSVG(w io.Writer, traj ode.Trajectory, xi, yi int, opts SVGOptions) error {
	dim := traj.Dim()
	if xi < 0 || xi >= dim || yi < 0 || yi >= dim {
		return fmt.Errorf("svg: components (%d, %d) out of range for dimension %d", xi, yi, dim)
	}
	pts := make([]xy, len(traj))
	for i, p := range traj {
		pts[i] = xy{p.Y[xi], p.Y[yi]}
	}
	return writePath(w, pts, opts)
}

func writePath(w io.Writer, points []xy, opts SVGOptions) error {
	if len(points) < 2 {
		return fmt.Errorf("svg: need at least 2 points, got %d", len(points))
	}

	minX, maxX := points[0].X, points[0].X
	minY, maxY := points[0].Y, points[0].Y
	for _, p := range points {
		minX, maxX = min(minX, p.X), max(maxX, p.X)
		minY, maxY = min(minY, p.Y), max(maxY, p.Y)
	}

	// 10% padding on each side
	rangeX, rangeY := maxX-minX, maxY-minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	minY -= rangeY * 0.1
	rangeX *= 1.2
	rangeY *= 1.2

	width, height := float64(opts.Width), float64(opts.Height)

	var sb strings.Builder
	fmt.Fprintf(&sb, `<?xml version="1.0" encoding="UTF-8"?>
<svg xmlns="http://www.w3.org/2000/svg" width="%d" height="%d" viewBox="0 0 %d %d">
<rect width="100%%" height="100%%" fill="%s"/>
<path fill="none" stroke="%s" stroke-width="1.5" d="M`,
		opts.Width, opts.Height, opts.Width, opts.Height, opts.Background, opts.Stroke)

	for i, p := range points {
		x := (p.X - minX) / rangeX * width
		y := height - (p.Y-minY)/rangeY*height
		if i == 0 {
			fmt.Fprintf(&sb, "%.1f,%.1f", x, y)
		} else {
			fmt.Fprintf(&sb, " L%.1f,%.1f", x, y)
		}
	}
	sb.WriteString("\"/>\n</svg>\n")

	_, err := io.WriteString(w, sb.String())
	return err
}
