package specfit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMeanSpacingUniformGrid(t *testing.T) {
	x := []float64{0, 2, 4, 6, 8}
	assert.InDelta(t, 2.0, meanSpacing(x), 1e-9)
}

func TestMeanSpacingSinglePoint(t *testing.T) {
	assert.Equal(t, 1.0, meanSpacing([]float64{5}))
}

func TestGroupRegionsMergesOverlapping(t *testing.T) {
	x := make([]float64, 1000)
	for i := range x {
		x[i] = float64(i)
	}

	// two peaks 50 apart with fwhm=30: 3*fwhm=90 windows overlap and merge
	// into a single region.
	regions := groupRegions(x, []int{400, 450}, 30)
	assert.Len(t, regions, 1)
}

func TestGroupRegionsSeparatesDistantPeaks(t *testing.T) {
	x := make([]float64, 1000)
	for i := range x {
		x[i] = float64(i)
	}

	// two peaks separated by > 6*fwhm: their +-3*fwhm windows don't touch.
	regions := groupRegions(x, []int{100, 700}, 10)
	assert.Len(t, regions, 2)
}

func TestMcaFitTwoWellSeparatedGaussians(t *testing.T) {
	n := 1000
	x := make([]float64, n)
	for i := range x {
		x[i] = float64(i)
	}

	params := []float64{500, 150, 20, 500, 750, 20}
	curve := GaussianEvaluator(x, params)
	y := make([]float64, n)
	for i := range y {
		y[i] = 1 + curve[i]
	}

	d := NewDriver(nil)
	require.NoError(t, d.Configure(map[string]any{"autofwhm": true}))
	require.NoError(t, d.SetData(x, y, nil, "Gaussians", "Constant"))

	results, err := d.McaFit()
	require.NoError(t, err)
	assert.Len(t, results, 2)

	for _, r := range results {
		assert.Len(t, r.Areas, 1)
	}
}

func TestMcaFitNoDataErrors(t *testing.T) {
	d := NewDriver(nil)
	_, err := d.McaFit()
	assert.ErrorIs(t, err, ErrInvalidConfiguration)
}
