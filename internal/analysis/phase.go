package analysis

import (
	"fmt"
	"math"
	"strings"

	"github.com/d33fur/caso/internal/ode"
)

// PhasePoint is one sample of a portrait.
type PhasePoint struct{ X, Y float64 }

// PhasePortrait2D holds data for a 2D phase space plot
type PhasePortrait2D struct {
	XIndex, YIndex int
	Points         []PhasePoint
}

// NewPhasePortrait projects a trajectory onto components xIdx and yIdx.
func NewPhasePortrait(traj ode.Trajectory, xIdx, yIdx int) (*PhasePortrait2D, error) {
	dim := traj.Dim()
	if xIdx < 0 || yIdx < 0 || xIdx >= dim || yIdx >= dim {
		return nil, fmt.Errorf("components (%d, %d) out of range for dimension %d", xIdx, yIdx, dim)
	}

	portrait := &PhasePortrait2D{
		XIndex: xIdx,
		YIndex: yIdx,
		Points: make([]PhasePoint, 0, len(traj)),
	}
	for _, pt := range traj {
		portrait.Points = append(portrait.Points, PhasePoint{X: pt.Y[xIdx], Y: pt.Y[yIdx]})
	}
	return portrait, nil
}

// ASCII renders the portrait on a width x height character canvas. Axes are
// drawn where they cross the visible area.
func (portrait *PhasePortrait2D) ASCII(width, height int) string {
	if portrait == nil || len(portrait.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := portrait.Points[0].X, portrait.Points[0].X
	minY, maxY := portrait.Points[0].Y, portrait.Points[0].Y

	for _, p := range portrait.Points {
		if p.X < minX {
			minX = p.X
		}
		if p.X > maxX {
			maxX = p.X
		}
		if p.Y < minY {
			minY = p.Y
		}
		if p.Y > maxY {
			maxY = p.Y
		}
	}

	rangeX := maxX - minX
	rangeY := maxY - minY
	if rangeX == 0 {
		rangeX = 1
	}
	if rangeY == 0 {
		rangeY = 1
	}
	minX -= rangeX * 0.1
	maxX += rangeX * 0.1
	minY -= rangeY * 0.1
	maxY += rangeY * 0.1
	rangeX = maxX - minX
	rangeY = maxY - minY

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = make([]rune, width)
		for j := range canvas[i] {
			canvas[i][j] = ' '
		}
	}

	// Plot points
	for _, p := range portrait.Points {
		col := int((p.X - minX) / rangeX * float64(width-1))
		row := height - 1 - int((p.Y-minY)/rangeY*float64(height-1))

		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	// Draw axes if they cross the visible area
	if minX <= 0 && maxX >= 0 {
		col := int((0 - minX) / rangeX * float64(width-1))
		for row := 0; row < height; row++ {
			if col >= 0 && col < width && canvas[row][col] == ' ' {
				canvas[row][col] = '│'
			}
		}
	}
	if minY <= 0 && maxY >= 0 {
		row := height - 1 - int((0-minY)/rangeY*float64(height-1))
		for col := 0; col < width; col++ {
			if row >= 0 && row < height && canvas[row][col] == ' ' {
				canvas[row][col] = '─'
			}
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// PoincareSection records points when a trajectory crosses a plane
type PoincareSection struct {
	Points []PhasePoint
}

// NewPoincareSection records components recordX and recordY wherever
// component crossIdx crosses threshold upwards, interpolating linearly
// between the two bracketing points.
func NewPoincareSection(traj ode.Trajectory, crossIdx int, threshold float64, recordX, recordY int) (*PoincareSection, error) {
	dim := traj.Dim()
	for _, idx := range []int{crossIdx, recordX, recordY} {
		if idx < 0 || idx >= dim {
			return nil, fmt.Errorf("component %d out of range for dimension %d", idx, dim)
		}
	}

	section := &PoincareSection{Points: make([]PhasePoint, 0)}
	for i := 1; i < len(traj); i++ {
		prev, curr := traj[i-1].Y, traj[i].Y
		if !(prev[crossIdx] < threshold && curr[crossIdx] >= threshold) {
			continue
		}

		frac := (threshold - prev[crossIdx]) / (curr[crossIdx] - prev[crossIdx])
		if math.IsNaN(frac) || math.IsInf(frac, 0) {
			frac = 0.5
		}
		section.Points = append(section.Points, PhasePoint{
			X: prev[recordX] + frac*(curr[recordX]-prev[recordX]),
			Y: prev[recordY] + frac*(curr[recordY]-prev[recordY]),
		})
	}
	return section, nil
}

// ASCII renders the section like a phase portrait.
func (section *PoincareSection) ASCII(width, height int) string {
	if section == nil || len(section.Points) == 0 {
		return "No crossings detected"
	}

	portrait := &PhasePortrait2D{Points: section.Points}
	return portrait.ASCII(width, height)
}
