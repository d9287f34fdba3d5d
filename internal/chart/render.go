package chart

import (
	"bytes"
	"fmt"
	"math"

	"github.com/fogleman/gg"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"

	"github.com/emiliopalmerini/effortmap/internal/apperrors"
	"github.com/emiliopalmerini/effortmap/internal/effort"
	"github.com/emiliopalmerini/effortmap/internal/user"
)

const (
	imageWidth  = 800
	imageHeight = 600
	pieCenterX  = 280.0
	pieCenterY  = 330.0
	pieRadius   = 210.0
	legendX     = 530.0
)

// PieRenderer draws a graph's workstreams as a pie chart PNG, with the
// graph name as title and a legend of normalized percentages.
type PieRenderer struct {
	titleFace  font.Face
	legendFace font.Face
}

func NewPieRenderer() (*PieRenderer, error) {
	f, err := opentype.Parse(goregular.TTF)
	if err != nil {
		return nil, fmt.Errorf("parse font: %w", err)
	}

	titleFace, err := opentype.NewFace(f, &opentype.FaceOptions{Size: 26, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("build title face: %w", err)
	}
	legendFace, err := opentype.NewFace(f, &opentype.FaceOptions{Size: 16, DPI: 72, Hinting: font.HintingFull})
	if err != nil {
		return nil, fmt.Errorf("build legend face: %w", err)
	}

	return &PieRenderer{titleFace: titleFace, legendFace: legendFace}, nil
}

// Render produces the PNG for graph in the given theme. Slice sizes come
// from the shared normalizer so the image agrees with every other view.
func (r *PieRenderer) Render(graph *effort.Graph, theme user.Theme) ([]byte, error) {
	// Surfaces as a 404: a graph with no workstreams has no chart.
	if len(graph.Workstreams) == 0 {
		return nil, fmt.Errorf("graph %s has no workstreams: %w", graph.ID, apperrors.ErrNotFound)
	}

	colors := Colors(theme)
	percentages := effort.Percentages(graph.Workstreams)

	dc := gg.NewContext(imageWidth, imageHeight)
	dc.SetHexColor(colors.Background)
	dc.Clear()

	dc.SetFontFace(r.titleFace)
	dc.SetHexColor(colors.Text)
	dc.DrawStringAnchored(graph.Name, imageWidth/2, 48, 0.5, 0.5)

	var total float64
	for _, p := range percentages {
		total += p
	}

	if total == 0 {
		// All-zero efforts: a neutral disc instead of invisible slices.
		dc.SetHexColor("#6b7280")
		dc.DrawCircle(pieCenterX, pieCenterY, pieRadius)
		dc.Fill()
	} else {
		angle := -math.Pi / 2
		for i, ws := range graph.Workstreams {
			sweep := percentages[i] / 100 * 2 * math.Pi
			if sweep == 0 {
				continue
			}

			dc.MoveTo(pieCenterX, pieCenterY)
			dc.DrawArc(pieCenterX, pieCenterY, pieRadius, angle, angle+sweep)
			dc.ClosePath()
			dc.SetHexColor(ws.Color)
			dc.FillPreserve()
			dc.SetHexColor(colors.Background)
			dc.SetLineWidth(3)
			dc.Stroke()

			angle += sweep
		}
	}

	dc.SetFontFace(r.legendFace)
	legendY := pieCenterY - float64(len(graph.Workstreams)-1)*16
	for i, ws := range graph.Workstreams {
		y := legendY + float64(i)*32

		dc.SetHexColor(ws.Color)
		dc.DrawRectangle(legendX, y-8, 16, 16)
		dc.Fill()

		dc.SetHexColor(colors.Text)
		dc.DrawStringAnchored(fmt.Sprintf("%s: %.1f%%", ws.Name, percentages[i]), legendX+26, y, 0, 0.35)
	}

	var buf bytes.Buffer
	if err := dc.EncodePNG(&buf); err != nil {
		return nil, fmt.Errorf("encode png: %w", err)
	}
	return buf.Bytes(), nil
}
