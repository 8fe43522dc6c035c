package specfit

import "math"

func lorentzHeight(x, height, pos, fwhm float64) float64 {
	if fwhm == 0 {
		return 0
	}
	half := fwhm / 2
	d := x - pos

	return height / (1 + (d*d)/(half*half))
}

// areaToHeightLorentz: Area = Height*FWHM*pi/2, so Height = Area/(FWHM*pi/2).
func areaToHeightLorentz(area, fwhm float64) float64 {
	if fwhm == 0 {
		return 0
	}

	return area / (fwhm * math.Pi / 2)
}

func heightToAreaLorentz(height, fwhm float64) float64 {
	return height * fwhm * math.Pi / 2
}

// LorentzEvaluator sums k Lorentzians parameterized (Height, Position, FWHM).
func LorentzEvaluator(x, params []float64) []float64 {
	return sumPeaks(x, params, 3, func(xi float64, p []float64) float64 {
		return lorentzHeight(xi, p[0], p[1], p[2])
	})
}

// AreaLorentzEvaluator sums k Lorentzians parameterized (Area, Position, FWHM).
func AreaLorentzEvaluator(x, params []float64) []float64 {
	return sumPeaks(x, params, 3, func(xi float64, p []float64) float64 {
		height := areaToHeightLorentz(p[0], p[2])
		return lorentzHeight(xi, height, p[1], p[2])
	})
}

func init() {
	defaultRegistry.RegisterTheory(&TheoryEntry{
		Name:       "Lorentz",
		N:          3,
		ParamNames: gaussianParamNames,
		Eval:       LorentzEvaluator,
		Estimate:   estimateLorentz,
	})
	defaultRegistry.RegisterTheory(&TheoryEntry{
		Name:       "Area Lorentz",
		N:          3,
		ParamNames: areaGaussianParamNames,
		Eval:       AreaLorentzEvaluator,
		Estimate:   estimateAreaLorentz,
	})
}

func estimateLorentz(x, y, bg []float64, yscaling float64, cfg *Config) ([]float64, ConstraintBlock, error) {
	return estimateHeightPositionFWHM(x, y, bg, yscaling, cfg)
}

// estimateAreaLorentz wraps the common estimator, converting height to area
// per the §8 round-trip law Area = Height*FWHM*pi/2.
func estimateAreaLorentz(x, y, bg []float64, yscaling float64, cfg *Config) ([]float64, ConstraintBlock, error) {
	params, cons, err := estimateHeightPositionFWHM(x, y, bg, yscaling, cfg)
	if err != nil {
		return nil, nil, err
	}

	for i := 0; i < len(params); i += 3 {
		params[i] = heightToAreaLorentz(params[i], params[i+2])
	}

	return params, cons, nil
}
