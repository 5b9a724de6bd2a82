package render

import (
	"bytes"
	"context"
	"errors"
	"image/png"
	"testing"

	"gapdash/internal/dataset"
	"gapdash/internal/view"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sample(t *testing.T) *dataset.Dataset {
	t.Helper()
	ds, err := dataset.Open(context.Background(), dataset.EmbeddedSource)
	require.NoError(t, err)
	return ds
}

func TestPNGRanking(t *testing.T) {
	ds := sample(t)
	art := view.Regenerate(ds, view.Selection{View: view.ViewGDP, Continent: "Asia", Year: 2007})

	var buf bytes.Buffer
	require.NoError(t, PNG(&buf, art, Size{Width: 800, Height: 400}))

	img, err := png.Decode(&buf)
	require.NoError(t, err)
	assert.Equal(t, 800, img.Bounds().Dx())
	assert.Equal(t, 400, img.Bounds().Dy())
}

func TestBarChartFollowsRanking(t *testing.T) {
	ds := sample(t)
	art := view.Regenerate(ds, view.Selection{View: view.ViewPopulation, Continent: "Asia", Year: 1952})

	bc, err := BarChart(art, Size{})
	require.NoError(t, err)
	require.Len(t, bc.Bars, 15)
	assert.Equal(t, "China", bc.Bars[0].Label)
	assert.Equal(t, DefaultWidth, bc.Width)
	assert.Equal(t, "Top 15 Population — Asia — 1952", bc.Title)
}

func TestBarChartRejectsOtherViews(t *testing.T) {
	ds := sample(t)
	for _, v := range []view.View{view.ViewDataset, view.ViewMap} {
		_, err := BarChart(view.Regenerate(ds, view.Selection{View: v}), Size{})
		assert.True(t, errors.Is(err, ErrNotChartable), v)
	}
}

func TestBarChartNoData(t *testing.T) {
	art := view.Artifact{Selection: view.Selection{View: view.ViewLife, Continent: "Oceania", Year: 1800}}
	_, err := BarChart(art, Size{})
	assert.True(t, errors.Is(err, ErrNoData))

	art.Err = "dataset not loaded"
	_, err = BarChart(art, Size{})
	assert.EqualError(t, err, "dataset not loaded")
}

func TestSizeClampsToMaxSide(t *testing.T) {
	tests := []struct {
		in, want Size
	}{
		{Size{}, Size{DefaultWidth, DefaultHeight}},
		{Size{-5, 0}, Size{DefaultWidth, DefaultHeight}},
		{Size{640, 480}, Size{640, 480}},
		{Size{60000, 60000}, Size{MaxSide, MaxSide}},
		{Size{MaxSide, MaxSide + 1}, Size{MaxSide, MaxSide}},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, tt.in.orDefault(), "%+v", tt.in)
	}
}

func TestBarChartClampsHugeSize(t *testing.T) {
	art := view.Regenerate(sample(t), view.Selection{View: view.ViewLife, Continent: "Europe", Year: 2007})
	bc, err := BarChart(art, Size{Width: 60000, Height: 60000})
	require.NoError(t, err)
	assert.Equal(t, MaxSide, bc.Width)
	assert.Equal(t, MaxSide, bc.Height)
}
