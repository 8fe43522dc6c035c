package specfit

// Split shapes use FWHM_low for x < Position and FWHM_high otherwise (§4.1).

func splitGauss(x, height, pos, fwhmLow, fwhmHigh float64) float64 {
	if x < pos {
		return gaussHeight(x, height, pos, fwhmLow)
	}

	return gaussHeight(x, height, pos, fwhmHigh)
}

func splitLorentz(x, height, pos, fwhmLow, fwhmHigh float64) float64 {
	if x < pos {
		return lorentzHeight(x, height, pos, fwhmLow)
	}

	return lorentzHeight(x, height, pos, fwhmHigh)
}

func splitPseudoVoigt(x, height, pos, fwhmLow, fwhmHigh, eta float64) float64 {
	if x < pos {
		return pseudoVoigt(x, height, pos, fwhmLow, eta)
	}

	return pseudoVoigt(x, height, pos, fwhmHigh, eta)
}

// SplitGaussianEvaluator sums k split-Gaussians parameterized
// (Height, Position, FWHM_low, FWHM_high). With FWHM_low == FWHM_high this
// is pointwise equal to a plain Gaussian with that FWHM (§8, "split
// equivalence").
func SplitGaussianEvaluator(x, params []float64) []float64 {
	return sumPeaks(x, params, 4, func(xi float64, p []float64) float64 {
		return splitGauss(xi, p[0], p[1], p[2], p[3])
	})
}

func SplitLorentzEvaluator(x, params []float64) []float64 {
	return sumPeaks(x, params, 4, func(xi float64, p []float64) float64 {
		return splitLorentz(xi, p[0], p[1], p[2], p[3])
	})
}

// SplitPseudoVoigtEvaluator sums k split pseudo-Voigt peaks parameterized
// (Height, Position, FWHM_low, FWHM_high, Eta).
func SplitPseudoVoigtEvaluator(x, params []float64) []float64 {
	return sumPeaks(x, params, 5, func(xi float64, p []float64) float64 {
		return splitPseudoVoigt(xi, p[0], p[1], p[2], p[3], p[4])
	})
}

var splitGaussParamNames = []string{"Height", "Position", "FWHM_low", "FWHM_high"}
var splitPVoigtParamNames = []string{"Height", "Position", "FWHM_low", "FWHM_high", "Eta"}

func init() {
	defaultRegistry.RegisterTheory(&TheoryEntry{
		Name:       "Split Gaussian",
		N:          4,
		ParamNames: splitGaussParamNames,
		Eval:       SplitGaussianEvaluator,
		Estimate:   estimateSplitGaussian,
	})
	defaultRegistry.RegisterTheory(&TheoryEntry{
		Name:       "Split Lorentz",
		N:          4,
		ParamNames: splitGaussParamNames,
		Eval:       SplitLorentzEvaluator,
		Estimate:   estimateSplitLorentz,
	})
	defaultRegistry.RegisterTheory(&TheoryEntry{
		Name:       "Split Pseudo-Voigt",
		N:          5,
		ParamNames: splitPVoigtParamNames,
		Eval:       SplitPseudoVoigtEvaluator,
		Estimate:   estimateSplitPseudoVoigt,
	})
}

// splitFWHM duplicates the FWHM parameter of a height/position/FWHM
// estimate into (FWHM_low, FWHM_high). Per §9's resolution of the open
// question on FWHM twin-linking, any FACTOR constraint it carries is
// rebased to the new 4-per-peak layout rather than re-derived via the
// source's `int(c1/3)*4+2`, which truncates when c1 isn't a multiple of 3
// and is treated as a latent bug, not reproduced.
func splitFWHM(params []float64, cons ConstraintBlock) ([]float64, ConstraintBlock) {
	nPeaks := len(params) / 3

	outParams := make([]float64, 0, nPeaks*4)
	outCons := make(ConstraintBlock, 0, nPeaks*4)

	for k := 0; k < nPeaks; k++ {
		h, p, w := params[3*k], params[3*k+1], params[3*k+2]
		outParams = append(outParams, h, p, w, w)

		hc, pc, wc := cons[3*k], cons[3*k+1], cons[3*k+2]
		outCons = append(outCons, hc, pc, wc, wc)
	}

	// Both FWHM_low and FWHM_high inherit the base FWHM's constraint
	// verbatim, including a SameFwhmFlag cross-peak FACTOR: a non-largest
	// peak's widths on both sides tie to the largest peak's FWHM_low. The
	// C1 index indexed the old 3-per-peak layout and must be rebased to the
	// new 4-per-peak stride (not re-derived via `int(c1/3)*4+2`, which
	// truncates when c1 isn't a multiple of 3 and is treated as a latent
	// bug per §9, not reproduced here).
	outCons.RebaseLayout(3, 4)

	return outParams, outCons
}

func estimateSplitGaussian(x, y, bg []float64, yscaling float64, cfg *Config) ([]float64, ConstraintBlock, error) {
	params, cons, err := estimateHeightPositionFWHM(x, y, bg, yscaling, cfg)
	if err != nil {
		return nil, nil, err
	}

	p, c := splitFWHM(params, cons)

	return p, c, nil
}

func estimateSplitLorentz(x, y, bg []float64, yscaling float64, cfg *Config) ([]float64, ConstraintBlock, error) {
	return estimateSplitGaussian(x, y, bg, yscaling, cfg)
}

func estimateSplitPseudoVoigt(x, y, bg []float64, yscaling float64, cfg *Config) ([]float64, ConstraintBlock, error) {
	params, cons, err := estimateHeightPositionFWHM(x, y, bg, yscaling, cfg)
	if err != nil {
		return nil, nil, err
	}

	p4, c4 := splitFWHM(params, cons)

	nPeaks := len(p4) / 4
	outParams := make([]float64, 0, nPeaks*5)
	outCons := make(ConstraintBlock, 0, nPeaks*5)

	etaCons := Constraint{Code: Free}
	if cfg.Bool("quotedetaflag") {
		etaCons = Constraint{Code: Quoted, C1: 0, C2: 1}
	}

	for k := 0; k < nPeaks; k++ {
		outParams = append(outParams, p4[4*k], p4[4*k+1], p4[4*k+2], p4[4*k+3], 0.5)
		outCons = append(outCons, c4[4*k], c4[4*k+1], c4[4*k+2], c4[4*k+3], etaCons)
	}

	// appending Eta widens the per-peak stride again, from 4 to 5; any
	// FACTOR surviving from splitFWHM must be rebased a second time.
	outCons.RebaseLayout(4, 5)

	return outParams, outCons, nil
}
