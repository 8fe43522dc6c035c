package specfit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSplitGaussianEqualWidthsMatchesPlainGaussian(t *testing.T) {
	x := []float64{-3, -1, 0, 1, 3, 5}
	height, pos, fwhm := 8.0, 1.0, 2.5

	split := SplitGaussianEvaluator(x, []float64{height, pos, fwhm, fwhm})
	plain := GaussianEvaluator(x, []float64{height, pos, fwhm})

	for i := range x {
		assert.InDelta(t, plain[i], split[i], 1e-9)
	}
}

func TestSplitGaussianUsesLowHighCorrectly(t *testing.T) {
	height, pos, fwhmLow, fwhmHigh := 5.0, 0.0, 1.0, 4.0

	below := SplitGaussianEvaluator([]float64{-1}, []float64{height, pos, fwhmLow, fwhmHigh})[0]
	above := SplitGaussianEvaluator([]float64{1}, []float64{height, pos, fwhmLow, fwhmHigh})[0]

	wantBelow := gaussHeight(-1, height, pos, fwhmLow)
	wantAbove := gaussHeight(1, height, pos, fwhmHigh)

	assert.InDelta(t, wantBelow, below, 1e-9)
	assert.InDelta(t, wantAbove, above, 1e-9)
}

func TestSplitFWHMRederivesFactorFromPeakIndex(t *testing.T) {
	// two peaks, second peak's FWHM FACTOR-tied to the first (peak-local
	// index 2, the old 3-per-peak layout).
	params := []float64{10, 0, 2, 6, 5, 2}
	cons := ConstraintBlock{
		{Code: Positive}, {Code: Free}, {Code: Positive},
		{Code: Positive}, {Code: Free}, {Code: Factor, C1: 2, C2: 1.0},
	}

	p, c := splitFWHM(params, cons)

	require.Len(t, p, 8)
	// peak 2's FWHM_high (new index 7) must now reference peak1's FWHM_low
	// (new index 2), not a truncated old-layout index.
	assert.Equal(t, Factor, c[7].Code)
	assert.Equal(t, float64(2), c[7].C1)
}

func TestEstimateSplitPseudoVoigtAppendsEta(t *testing.T) {
	cfg := NewConfig()
	x, y := syntheticGaussianSignal([]float64{5}, []float64{50}, 2.0, 150, 0, 10)
	cfg.vals["autofwhm"] = true
	cfg.vals["forcepeakpresence"] = true

	params, cons, err := estimateSplitPseudoVoigt(x, y, nil, 1.0, cfg)
	require.NoError(t, err)
	require.Len(t, params, 5)
	assert.Equal(t, 0.5, params[4])
	assert.Len(t, cons, 5)
}
