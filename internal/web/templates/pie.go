// Package templates holds the server-rendered pages. Charts are drawn as
// inline SVG so pages need no client-side scripting and the screenshot
// renderer only has to wait for the chart element to exist.
package templates

import (
	"fmt"
	"math"

	"github.com/emiliopalmerini/effortmap/internal/effort"
)

const (
	pieRadius = 210
	fullTurn  = 2 * math.Pi
)

// zeroSliceColor fills the pie when every workstream effort is zero.
const zeroSliceColor = "#6b7280"

// pieSlice is one SVG wedge plus its legend entry.
type pieSlice struct {
	Path    string
	Color   string
	Name    string
	Percent float64
}

// pieSlices converts workstreams into SVG path data for a pie centered at
// (cx, cy). Slices start at twelve o'clock and proceed clockwise, matching
// the PNG renderer.
func pieSlices(workstreams []effort.Workstream, cx, cy float64) []pieSlice {
	percentages := effort.Percentages(workstreams)

	total := 0.0
	for _, ws := range workstreams {
		total += ws.Effort
	}
	if total <= 0 {
		return nil
	}

	slices := make([]pieSlice, 0, len(workstreams))
	angle := -math.Pi / 2
	for i, ws := range workstreams {
		fraction := ws.Effort / total
		if fraction <= 0 {
			slices = append(slices, pieSlice{Color: ws.Color, Name: ws.Name, Percent: percentages[i]})
			continue
		}

		start := angle
		end := angle + fraction*fullTurn
		angle = end

		slices = append(slices, pieSlice{
			Path:    arcPath(cx, cy, pieRadius, start, end),
			Color:   ws.Color,
			Name:    ws.Name,
			Percent: percentages[i],
		})
	}
	return slices
}

func arcPath(cx, cy, r, start, end float64) string {
	// A single arc cannot express a full circle; split it in two.
	if end-start >= fullTurn-1e-9 {
		mid := start + fullTurn/2
		return fmt.Sprintf("M %.2f %.2f A %.0f %.0f 0 1 1 %.2f %.2f A %.0f %.0f 0 1 1 %.2f %.2f Z",
			cx+r*math.Cos(start), cy+r*math.Sin(start),
			r, r, cx+r*math.Cos(mid), cy+r*math.Sin(mid),
			r, r, cx+r*math.Cos(start), cy+r*math.Sin(start))
	}

	largeArc := 0
	if end-start > math.Pi {
		largeArc = 1
	}
	return fmt.Sprintf("M %.2f %.2f L %.2f %.2f A %.0f %.0f 0 %d 1 %.2f %.2f Z",
		cx, cy,
		cx+r*math.Cos(start), cy+r*math.Sin(start),
		r, r, largeArc,
		cx+r*math.Cos(end), cy+r*math.Sin(end))
}
