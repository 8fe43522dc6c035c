package specfit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestLorentzHeightAreaRoundTrip(t *testing.T) {
	height, fwhm := 7.0, 1.8
	area := heightToAreaLorentz(height, fwhm)
	assert.InDelta(t, height, areaToHeightLorentz(area, fwhm), 1e-9)
}

func TestLorentzPeakHeight(t *testing.T) {
	y := LorentzEvaluator([]float64{3}, []float64{5, 3, 4})
	assert.InDelta(t, 5, y[0], 1e-9)
}

func TestLorentzHalfMaximumAtHalfFWHM(t *testing.T) {
	height, pos, fwhm := 9.0, 2.0, 4.0
	y := LorentzEvaluator([]float64{pos + fwhm/2}, []float64{height, pos, fwhm})
	assert.InDelta(t, height/2, y[0], 1e-9)
}

func TestAreaLorentzEvaluatorMatchesHeightForm(t *testing.T) {
	area, pos, fwhm := 15.0, -1.0, 2.0
	height := areaToHeightLorentz(area, fwhm)

	x := []float64{-3, -1, 2}
	fromArea := AreaLorentzEvaluator(x, []float64{area, pos, fwhm})
	fromHeight := LorentzEvaluator(x, []float64{height, pos, fwhm})

	for i := range x {
		assert.InDelta(t, fromHeight[i], fromArea[i], 1e-9)
	}
}
