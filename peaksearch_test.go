package specfit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSnipBaselineBelowSignal(t *testing.T) {
	y := make([]float64, 50)
	for i := range y {
		y[i] = 1
	}
	y[25] = 50

	bkg := snipBaseline(y, 1.0, 20)
	assert.Less(t, bkg[25], y[25])
}

func TestGuessFWHMOnSyntheticPeak(t *testing.T) {
	x, y := syntheticGaussianSignal([]float64{5}, []float64{100}, 3.0, 300, 0, 10)
	got := GuessFWHM(x, y)
	assert.Greater(t, got, 0)
}

func TestGuessYScalingSmoothSignalNearOne(t *testing.T) {
	y := make([]float64, 20)
	for i := range y {
		y[i] = 10
	}
	got := GuessYScaling(y)
	assert.Greater(t, got, 0.0)
}

func TestPeakSearchFindsIsolatedPeak(t *testing.T) {
	n := 100
	y := make([]float64, n)
	for i := range y {
		y[i] = 1
	}
	y[50] = 100

	peaks := PeakSearch(y, 8, 2.5)
	assert.Contains(t, peaks, 50)
}

func TestPeakSearchEmptyInput(t *testing.T) {
	assert.Empty(t, PeakSearch(nil, 5, 2.5))
}

func TestMedianOddEven(t *testing.T) {
	assert.Equal(t, 2.0, median([]float64{3, 1, 2}))
	assert.Equal(t, 2.5, median([]float64{1, 2, 3, 4}))
}

func TestMadNoiseConstantSignalIsFloor(t *testing.T) {
	v := make([]float64, 10)
	got := madNoise(v)
	assert.Greater(t, got, 0.0)
}

func TestConvolveEdgeReplicatesBoundary(t *testing.T) {
	y := []float64{1, 1, 1, 1, 1}
	out := convolveEdge(y, edgeKernelUp)
	for _, v := range out {
		assert.InDelta(t, 0, v, 1e-9)
	}
}
