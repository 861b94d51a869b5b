package analysis

import (
	"math"
	"strings"

	"github.com/san-kum/spectrasim/internal/dynamo"
)

type Point struct{ X, Y float64 }

// PhasePortrait2D pairs the occupations of two modes over a trajectory.
type PhasePortrait2D struct {
	XMode, YMode int
	Points       []Point
}

// PopulationPortrait records (n[x,x], n[y,y]) at every trajectory sample.
// It returns nil when either mode is out of range.
func PopulationPortrait(traj *dynamo.Trajectory, xMode, yMode int) *PhasePortrait2D {
	if traj == nil || xMode < 0 || yMode < 0 || xMode >= traj.Modes || yMode >= traj.Modes {
		return nil
	}
	xs := traj.Population(xMode)
	ys := traj.Population(yMode)

	portrait := &PhasePortrait2D{XMode: xMode, YMode: yMode, Points: make([]Point, len(xs))}
	for k := range xs {
		portrait.Points[k] = Point{X: xs[k], Y: ys[k]}
	}
	return portrait
}

// ToASCII renders the portrait onto a width×height character canvas.
func (p *PhasePortrait2D) ToASCII(width, height int) string {
	if p == nil || len(p.Points) == 0 || width < 2 || height < 2 {
		return ""
	}

	minX, maxX := math.Inf(1), math.Inf(-1)
	minY, maxY := math.Inf(1), math.Inf(-1)
	for _, pt := range p.Points {
		minX, maxX = math.Min(minX, pt.X), math.Max(maxX, pt.X)
		minY, maxY = math.Min(minY, pt.Y), math.Max(maxY, pt.Y)
	}
	minX, maxX = pad(minX, maxX)
	minY, maxY = pad(minY, maxY)

	canvas := make([][]rune, height)
	for i := range canvas {
		canvas[i] = []rune(strings.Repeat(" ", width))
	}

	for _, pt := range p.Points {
		col := int((pt.X - minX) / (maxX - minX) * float64(width-1))
		row := height - 1 - int((pt.Y-minY)/(maxY-minY)*float64(height-1))
		if row >= 0 && row < height && col >= 0 && col < width {
			canvas[row][col] = '•'
		}
	}

	var sb strings.Builder
	for _, row := range canvas {
		sb.WriteString(string(row))
		sb.WriteRune('\n')
	}
	return sb.String()
}

// pad widens [lo, hi] by a tenth on each side, or to unit width when flat.
func pad(lo, hi float64) (float64, float64) {
	r := hi - lo
	if r == 0 {
		r = 1
	}
	return lo - 0.1*r, hi + 0.1*r
}
