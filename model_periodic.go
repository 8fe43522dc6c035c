package specfit

// PeriodicGaussianEvaluator evaluates a single family of N equal-height,
// equal-FWHM Gaussians at positions Position + i*Delta (§4.1, "Periodic
// Gaussian: N peaks, equal height/FWHM, positions Position + i*Delta").
// Unlike the other theories this is not a sum of k independent peak groups:
// one set of 5 parameters describes the whole family.
func PeriodicGaussianEvaluator(x, params []float64) []float64 {
	out := make([]float64, len(x))
	if len(params) < 5 {
		return out
	}

	n, delta, height, pos, fwhm := params[0], params[1], params[2], params[3], params[4]

	count := int(n + 0.5)
	if count < 1 {
		count = 1
	}

	for i, xi := range x {
		var sum float64
		for k := 0; k < count; k++ {
			sum += gaussHeight(xi, height, pos+float64(k)*delta, fwhm)
		}
		out[i] = sum
	}

	return out
}

var periodicGaussianParamNames = []string{"N", "Delta", "Height", "Position", "FWHM"}

func init() {
	defaultRegistry.RegisterTheory(&TheoryEntry{
		Name:       "Periodic Gaussians",
		N:          5,
		ParamNames: periodicGaussianParamNames,
		Eval:       PeriodicGaussianEvaluator,
		Estimate:   estimatePeriodicGaussian,
	})
}

// estimatePeriodicGaussian computes N = peak count, Delta = mean spacing,
// Height = mean peak height, Position = first peak's x, FWHM = search FWHM
// (§4.3, "Periodic-Gaussian estimator"). N is FIXED; Delta is FIXED when
// N=1, otherwise FREE.
func estimatePeriodicGaussian(x, y, bg []float64, yscaling float64, cfg *Config) ([]float64, ConstraintBlock, error) {
	base, _, err := estimateHeightPositionFWHM(x, y, bg, yscaling, cfg)
	if err != nil {
		return nil, nil, err
	}

	nPeaks := len(base) / 3
	if nPeaks == 0 {
		return []float64{}, ConstraintBlock{}, nil
	}

	var heightSum float64
	positions := make([]float64, nPeaks)

	for k := 0; k < nPeaks; k++ {
		heightSum += base[3*k]
		positions[k] = base[3*k+1]
	}

	var delta float64
	if nPeaks > 1 {
		delta = (positions[nPeaks-1] - positions[0]) / float64(nPeaks-1)
	}

	params := []float64{
		float64(nPeaks),
		delta,
		heightSum / float64(nPeaks),
		positions[0],
		float64(resolveSearchFWHM(x, y, cfg)),
	}

	deltaCons := Constraint{Code: Free}
	if nPeaks == 1 {
		deltaCons = Constraint{Code: Fixed}
	}

	cons := ConstraintBlock{
		{Code: Fixed},
		deltaCons,
		{Code: Positive},
		{Code: Free},
		{Code: Positive},
	}

	return params, cons, nil
}
