package chart

import (
	"bytes"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/emiliopalmerini/effortmap/internal/apperrors"
	"github.com/emiliopalmerini/effortmap/internal/effort"
	"github.com/emiliopalmerini/effortmap/internal/user"
)

func testGraph() *effort.Graph {
	return &effort.Graph{
		ID:   "g1",
		Name: "Q3 Focus",
		Workstreams: []effort.Workstream{
			{Name: "Engineering", Effort: 60, Color: effort.Palette[0]},
			{Name: "Design", Effort: 25, Color: effort.Palette[1]},
			{Name: "QA", Effort: 15, Color: effort.Palette[2]},
		},
	}
}

func TestRenderProducesValidPNG(t *testing.T) {
	r, err := NewPieRenderer()
	require.NoError(t, err)

	data, err := r.Render(testGraph(), user.ThemeDark)
	require.NoError(t, err)

	img, err := png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	bounds := img.Bounds()
	assert.Equal(t, imageWidth, bounds.Dx())
	assert.Equal(t, imageHeight, bounds.Dy())
}

func TestRenderThemesDiffer(t *testing.T) {
	r, err := NewPieRenderer()
	require.NoError(t, err)

	dark, err := r.Render(testGraph(), user.ThemeDark)
	require.NoError(t, err)
	light, err := r.Render(testGraph(), user.ThemeLight)
	require.NoError(t, err)

	assert.NotEqual(t, dark, light)
}

func TestRenderAllZeroEfforts(t *testing.T) {
	r, err := NewPieRenderer()
	require.NoError(t, err)

	graph := &effort.Graph{
		ID:   "g2",
		Name: "Empty",
		Workstreams: []effort.Workstream{
			{Name: "A", Effort: 0, Color: effort.Palette[0]},
			{Name: "B", Effort: 0, Color: effort.Palette[1]},
		},
	}

	data, err := r.Render(graph, user.ThemeDark)
	require.NoError(t, err, "zero totals must not divide by zero")
	_, err = png.Decode(bytes.NewReader(data))
	require.NoError(t, err)
}

func TestRenderNoWorkstreams(t *testing.T) {
	r, err := NewPieRenderer()
	require.NoError(t, err)

	_, err = r.Render(&effort.Graph{ID: "g3", Name: "Bare"}, user.ThemeDark)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
