package templates

import (
	"context"
	"fmt"
	"html"
	"io"

	"github.com/a-h/templ"

	"github.com/emiliopalmerini/effortmap/internal/chart"
	"github.com/emiliopalmerini/effortmap/internal/effort"
	"github.com/emiliopalmerini/effortmap/internal/user"
)

// RenderPage is the bare chart page the screenshot renderer captures: a
// fixed 800x600 canvas holding only the titled pie and legend, no chrome.
func RenderPage(graph *effort.Graph, theme user.Theme) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		colors := chart.Colors(theme)

		if _, err := fmt.Fprintf(w, `<!DOCTYPE html>
<html>
<head>
<meta charset="utf-8">
<title>%s</title>
<style>html,body{margin:0;padding:0;width:800px;height:600px;background:%s;overflow:hidden}</style>
</head>
<body>
`, html.EscapeString(graph.Name), colors.Background); err != nil {
			return err
		}

		if err := writePieSVG(w, graph, colors, true); err != nil {
			return err
		}

		_, err := io.WriteString(w, "</body>\n</html>\n")
		return err
	})
}

// writePieSVG draws the chart shared by the render and share pages. The
// svg carries id "chart" so automation can wait for it.
func writePieSVG(w io.Writer, graph *effort.Graph, colors chart.ThemeColors, withTitle bool) error {
	const cx, cy = 280.0, 330.0

	if _, err := fmt.Fprintf(w,
		`<svg id="chart" width="800" height="600" viewBox="0 0 800 600" xmlns="http://www.w3.org/2000/svg">`+"\n"); err != nil {
		return err
	}

	if withTitle {
		if _, err := fmt.Fprintf(w,
			`<text x="400" y="48" text-anchor="middle" fill="%s" font-family="sans-serif" font-size="26" font-weight="bold">%s</text>`+"\n",
			colors.Text, html.EscapeString(graph.Name)); err != nil {
			return err
		}
	}

	slices := pieSlices(graph.Workstreams, cx, cy)
	if slices == nil {
		if _, err := fmt.Fprintf(w,
			`<circle cx="%.0f" cy="%.0f" r="%d" fill="%s"/>`+"\n", cx, cy, pieRadius, zeroSliceColor); err != nil {
			return err
		}
	}
	for _, s := range slices {
		if s.Path == "" {
			continue
		}
		if _, err := fmt.Fprintf(w,
			`<path d="%s" fill="%s" stroke="%s" stroke-width="2"/>`+"\n",
			s.Path, s.Color, colors.Background); err != nil {
			return err
		}
	}

	// Legend down the right side, one swatch per workstream including
	// zero-effort ones.
	legend := slices
	if legend == nil {
		legend = pieLegendOnly(graph.Workstreams)
	}
	y := 180
	for _, s := range legend {
		if _, err := fmt.Fprintf(w,
			`<rect x="530" y="%d" width="18" height="18" fill="%s"/>`+"\n"+
				`<text x="556" y="%d" fill="%s" font-family="sans-serif" font-size="16">%s: %.1f%%</text>`+"\n",
			y, s.Color, y+14, colors.Text, html.EscapeString(s.Name), s.Percent); err != nil {
			return err
		}
		y += 30
	}

	_, err := io.WriteString(w, "</svg>\n")
	return err
}

// pieLegendOnly covers the all-zero case: no wedges, but names still list.
func pieLegendOnly(workstreams []effort.Workstream) []pieSlice {
	legend := make([]pieSlice, len(workstreams))
	for i, ws := range workstreams {
		legend[i] = pieSlice{Color: ws.Color, Name: ws.Name}
	}
	return legend
}
