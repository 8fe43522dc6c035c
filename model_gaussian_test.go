package specfit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFWHMSigmaRoundTrip(t *testing.T) {
	fwhm := 3.4
	assert.InDelta(t, fwhm, sigmaToFWHM(fwhmToSigma(fwhm)), 1e-9)
}

func TestGaussHeightAreaRoundTrip(t *testing.T) {
	height, fwhm := 12.0, 2.5
	area := heightToAreaGauss(height, fwhm)
	got := areaToHeightGauss(area, fwhm)
	assert.InDelta(t, height, got, 1e-9)
}

func TestGaussianPeaksAtHeight(t *testing.T) {
	params := []float64{10, 0, 2}
	y := GaussianEvaluator([]float64{0}, params)
	assert.InDelta(t, 10, y[0], 1e-9)
}

func TestMultiPeakSuperposition(t *testing.T) {
	x := []float64{-5, 0, 5}
	single1 := GaussianEvaluator(x, []float64{10, -5, 2})
	single2 := GaussianEvaluator(x, []float64{6, 5, 2})
	both := GaussianEvaluator(x, []float64{10, -5, 2, 6, 5, 2})

	for i := range x {
		assert.InDelta(t, single1[i]+single2[i], both[i], 1e-9)
	}
}

func TestAreaGaussianEvaluatorMatchesHeightForm(t *testing.T) {
	area, pos, fwhm := 20.0, 1.0, 3.0
	height := areaToHeightGauss(area, fwhm)

	x := []float64{-2, 0, 1, 3}
	fromArea := AreaGaussianEvaluator(x, []float64{area, pos, fwhm})
	fromHeight := GaussianEvaluator(x, []float64{height, pos, fwhm})

	for i := range x {
		assert.InDelta(t, fromHeight[i], fromArea[i], 1e-9)
	}
}

func TestGaussianZeroFWHMIsZero(t *testing.T) {
	y := GaussianEvaluator([]float64{0, 1}, []float64{5, 0, 0})
	assert.Equal(t, []float64{0, 0}, y)
}

func TestSumPeaksEmptyParams(t *testing.T) {
	y := sumPeaks([]float64{1, 2, 3}, nil, 3, func(xi float64, p []float64) float64 { return xi })
	assert.Equal(t, []float64{0, 0, 0}, y)
}

func TestEstimateGaussianDegenerateEmptyInput(t *testing.T) {
	cfg := NewConfig()
	params, cons, err := estimateGaussian(nil, nil, nil, 0, cfg)
	assert.NoError(t, err)
	assert.Empty(t, params)
	assert.Empty(t, cons)
}

func syntheticGaussianSignal(centers, heights []float64, fwhm float64, n int, lo, hi float64) ([]float64, []float64) {
	x := make([]float64, n)
	for i := range x {
		x[i] = lo + (hi-lo)*float64(i)/float64(n-1)
	}

	params := make([]float64, 0, 3*len(centers))
	for i, c := range centers {
		params = append(params, heights[i], c, fwhm)
	}

	y := GaussianEvaluator(x, params)

	return x, y
}

func TestEstimateGaussianRecoversSinglePeak(t *testing.T) {
	x, y := syntheticGaussianSignal([]float64{5}, []float64{100}, 2.0, 200, 0, 10)

	cfg := NewConfig()
	cfg.vals["autofwhm"] = true
	cfg.vals["forcepeakpresence"] = true

	params, cons, err := estimateGaussian(x, y, nil, 1.0, cfg)
	assert.NoError(t, err)
	if assert.Len(t, params, 3) {
		assert.InDelta(t, 5, params[1], 0.5)
	}
	assert.Len(t, cons, 3)
}
