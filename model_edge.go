package specfit

import "math"

// stepUp evaluates an error-function edge rising from 0 to Height as x
// crosses Position, with a width set by FWHM (§4.1, §GLOSSARY "Step Down /
// Step Up").
func stepUp(x, height, pos, fwhm float64) float64 {
	sigma := fwhmToSigma(fwhm)
	if sigma == 0 {
		return 0
	}

	return height * 0.5 * (1 + math.Erf((x-pos)/(sigma*math.Sqrt2)))
}

func stepDown(x, height, pos, fwhm float64) float64 {
	return height - stepUp(x, height, pos, fwhm)
}

// slit evaluates a rectangular window of the given width centered on
// Position, each edge smoothed by an error function whose width is set by
// BeamFWHM (§4.1, row "Slit").
func slit(x, height, pos, width, beamFWHM float64) float64 {
	sigma := fwhmToSigma(beamFWHM)
	if sigma == 0 {
		if x >= pos-width/2 && x <= pos+width/2 {
			return height
		}

		return 0
	}

	rising := 0.5 * (1 + math.Erf((x-(pos-width/2))/(sigma*math.Sqrt2)))
	falling := 0.5 * (1 + math.Erf(((pos+width/2)-x)/(sigma*math.Sqrt2)))

	return height * rising * falling
}

// atanEdge evaluates an arctangent edge, the source's alternative to the
// error-function step (§9, "estimate_upstep used as the Atan estimator").
func atanEdge(x, height, pos, width float64) float64 {
	if width == 0 {
		return 0
	}

	return height * (0.5 + math.Atan((x-pos)/width)/math.Pi)
}

// StepUpEvaluator sums k rising-step edges parameterized (Height, Position, FWHM).
func StepUpEvaluator(x, params []float64) []float64 {
	return sumPeaks(x, params, 3, func(xi float64, p []float64) float64 {
		return stepUp(xi, p[0], p[1], p[2])
	})
}

// StepDownEvaluator sums k falling-step edges parameterized (Height, Position, FWHM).
func StepDownEvaluator(x, params []float64) []float64 {
	return sumPeaks(x, params, 3, func(xi float64, p []float64) float64 {
		return stepDown(xi, p[0], p[1], p[2])
	})
}

// SlitEvaluator sums k slit windows parameterized (Height, Position, FWHM, BeamFWHM).
func SlitEvaluator(x, params []float64) []float64 {
	return sumPeaks(x, params, 4, func(xi float64, p []float64) float64 {
		return slit(xi, p[0], p[1], p[2], p[3])
	})
}

// AtanEvaluator sums k arctangent edges parameterized (Height, Position, Width).
func AtanEvaluator(x, params []float64) []float64 {
	return sumPeaks(x, params, 3, func(xi float64, p []float64) float64 {
		return atanEdge(xi, p[0], p[1], p[2])
	})
}

var edgeParamNames = []string{"Height", "Position", "FWHM"}
var slitParamNames = []string{"Height", "Position", "FWHM", "BeamFWHM"}
var atanParamNames = []string{"Height", "Position", "Width"}

func init() {
	defaultRegistry.RegisterTheory(&TheoryEntry{
		Name:       "Step Up",
		N:          3,
		ParamNames: edgeParamNames,
		Eval:       StepUpEvaluator,
		Estimate:   estimateStepUp,
	})
	defaultRegistry.RegisterTheory(&TheoryEntry{
		Name:       "Step Down",
		N:          3,
		ParamNames: edgeParamNames,
		Eval:       StepDownEvaluator,
		Estimate:   estimateStepDown,
	})
	defaultRegistry.RegisterTheory(&TheoryEntry{
		Name:       "Slit",
		N:          4,
		ParamNames: slitParamNames,
		Eval:       SlitEvaluator,
		Estimate:   estimateSlit,
	})
	defaultRegistry.RegisterTheory(&TheoryEntry{
		Name:       "Atan",
		N:          3,
		ParamNames: atanParamNames,
		Eval:       AtanEvaluator,
		Estimate:   estimateAtan,
	})
}

// edgePeak holds the result of running the Gaussian height/position/FWHM
// estimator on a kernel-convolved signal and picking the tallest response:
// the shared first stage of every step/slit/atan estimator (§4.3, "Step/slit
// estimators convolve y with a 5-tap edge kernel").
type edgePeak struct {
	height, pos, fwhm float64
}

// largestEdgeResponse convolves y with kernel, runs the common estimator on
// the result, and returns the largest peak found (by height), or ok=false if
// none was found.
func largestEdgeResponse(x, y []float64, kernel []float64, yscaling float64, cfg *Config) (edgePeak, bool) {
	conv := convolveEdge(y, kernel)

	params, _, err := estimateHeightPositionFWHM(x, conv, nil, yscaling, cfg)
	if err != nil || len(params) == 0 {
		return edgePeak{}, false
	}

	best := edgePeak{height: params[0], pos: params[1], fwhm: params[2]}
	for i := 3; i < len(params); i += 3 {
		if params[i] > best.height {
			best = edgePeak{height: params[i], pos: params[i+1], fwhm: params[i+2]}
		}
	}

	return best, true
}

func estimateStepUp(x, y, bg []float64, yscaling float64, cfg *Config) ([]float64, ConstraintBlock, error) {
	p, ok := largestEdgeResponse(x, y, edgeKernelUp, yscaling, cfg)
	if !ok {
		return []float64{}, ConstraintBlock{}, nil
	}

	return []float64{p.height, p.pos, p.fwhm}, NewFreeBlock(3), nil
}

func estimateStepDown(x, y, bg []float64, yscaling float64, cfg *Config) ([]float64, ConstraintBlock, error) {
	p, ok := largestEdgeResponse(x, y, edgeKernelDown, yscaling, cfg)
	if !ok {
		return []float64{}, ConstraintBlock{}, nil
	}

	return []float64{p.height, p.pos, p.fwhm}, NewFreeBlock(3), nil
}

// estimateSlit requires both an up- and a down-edge response, takes beamfwhm
// from the down-edge response, then
// derives center, width and height from y-bg itself by thresholding at
// half-maximum (§4.3, "the slit estimator additionally derives center,
// width, and beam width by thresholding at half-maximum"), matching
// estimate_slit's own-estimation block in specfitfunctions.py: height is
// max(y-bg); position and fwhm come from the first/last x where y-bg clears
// half that height. Per §9's resolution of the open question on
// estimate_slit, beamfwhm is `largestdown[2]` (the down-edge response's own
// FWHM), not the `0.5*(largestup[2]+largestdown[1])` mixture of width and
// position found in the source, which is treated there as a probable typo.
func estimateSlit(x, y, bg []float64, yscaling float64, cfg *Config) ([]float64, ConstraintBlock, error) {
	if len(x) != len(y) {
		return nil, nil, Wrapperf(ErrShapeMismatch, "estimateSlit: x has length %d, y has length %d", len(x), len(y))
	}

	_, okUp := largestEdgeResponse(x, y, edgeKernelUp, yscaling, cfg)
	down, okDown := largestEdgeResponse(x, y, edgeKernelDown, yscaling, cfg)

	if !okUp || !okDown {
		return []float64{}, ConstraintBlock{}, nil
	}

	if bg == nil {
		bg = make([]float64, len(y))
	}

	height := math.Inf(-1)
	for i := range y {
		if v := y[i] - bg[i]; v > height {
			height = v
		}
	}

	threshold := 0.5 * height

	first, last := -1, -1
	for i := range y {
		if y[i]-bg[i] >= threshold {
			if first < 0 {
				first = i
			}
			last = i
		}
	}

	var position, fwhm float64
	if first >= 0 {
		position = 0.5 * (x[first] + x[last])
		fwhm = x[last] - x[first]
	}

	beamFWHM := down.fwhm

	return []float64{height, position, fwhm, beamFWHM}, NewFreeBlock(4), nil
}

// estimateAtan maps to the same up-edge response as estimateStepUp, per §9's
// preserved (if surprising) source mapping of estimate_upstep as the
// estimator for Atan.
func estimateAtan(x, y, bg []float64, yscaling float64, cfg *Config) ([]float64, ConstraintBlock, error) {
	p, ok := largestEdgeResponse(x, y, edgeKernelUp, yscaling, cfg)
	if !ok {
		return []float64{}, ConstraintBlock{}, nil
	}

	return []float64{p.height, p.pos, p.fwhm}, NewFreeBlock(3), nil
}
