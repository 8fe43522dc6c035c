package specfit

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPseudoVoigtLimits(t *testing.T) {
	height, pos, fwhm := 10.0, 0.0, 2.0
	x := []float64{-1, 0, 0.5, 1.5}

	gaussOnly := PseudoVoigtEvaluator(x, []float64{height, pos, fwhm, 1.0})
	gauss := GaussianEvaluator(x, []float64{height, pos, fwhm})
	for i := range x {
		assert.InDelta(t, gauss[i], gaussOnly[i], 1e-9)
	}

	lorentzOnly := PseudoVoigtEvaluator(x, []float64{height, pos, fwhm, 0.0})
	lorentz := LorentzEvaluator(x, []float64{height, pos, fwhm})
	for i := range x {
		assert.InDelta(t, lorentz[i], lorentzOnly[i], 1e-9)
	}
}

func TestPseudoVoigtMixture(t *testing.T) {
	height, pos, fwhm, eta := 10.0, 0.0, 2.0, 0.3
	x := 1.0

	want := eta*gaussHeight(x, height, pos, fwhm) + (1-eta)*lorentzHeight(x, height, pos, fwhm)
	got := PseudoVoigtEvaluator([]float64{x}, []float64{height, pos, fwhm, eta})[0]

	assert.InDelta(t, want, got, 1e-9)
}

func TestAreaPseudoVoigtSplitsAreaByEta(t *testing.T) {
	area, pos, fwhm, eta := 30.0, 0.0, 2.0, 0.4

	gaussArea := eta * area
	lorentzArea := (1 - eta) * area
	gaussPart := areaToHeightGauss(gaussArea, fwhm)
	lorentzPart := areaToHeightLorentz(lorentzArea, fwhm)

	x := []float64{0, 1}
	want := make([]float64, len(x))
	for i, xi := range x {
		want[i] = gaussHeight(xi, gaussPart, pos, fwhm) + lorentzHeight(xi, lorentzPart, pos, fwhm)
	}

	got := AreaPseudoVoigtEvaluator(x, []float64{area, pos, fwhm, eta})

	for i := range x {
		assert.InDelta(t, want[i], got[i], 1e-9)
	}
}

func TestAppendEtaDefaultsToOneHalf(t *testing.T) {
	cfg := NewConfig()
	params, cons := appendEta([]float64{5, 0, 2}, ConstraintBlock{{Code: Positive}, {Code: Free}, {Code: Positive}}, cfg)

	if assert.Len(t, params, 4) {
		assert.Equal(t, 0.5, params[3])
	}
	assert.Equal(t, Free, cons[3].Code)
}

func TestAppendEtaQuotedWhenConfigured(t *testing.T) {
	cfg := NewConfig()
	cfg.vals["quotedetaflag"] = true

	_, cons := appendEta([]float64{5, 0, 2}, ConstraintBlock{{Code: Positive}, {Code: Free}, {Code: Positive}}, cfg)

	assert.Equal(t, Quoted, cons[3].Code)
	assert.Equal(t, 0.0, cons[3].C1)
	assert.Equal(t, 1.0, cons[3].C2)
}
