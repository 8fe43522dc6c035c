package specfit

// pseudoVoigt evaluates eta*Gauss + (1-eta)*Lorentz for one peak, all three
// sharing height/position/FWHM (§4.1).
func pseudoVoigt(x, height, pos, fwhm, eta float64) float64 {
	return eta*gaussHeight(x, height, pos, fwhm) + (1-eta)*lorentzHeight(x, height, pos, fwhm)
}

// PseudoVoigtEvaluator sums k pseudo-Voigt peaks parameterized
// (Height, Position, FWHM, Eta).
func PseudoVoigtEvaluator(x, params []float64) []float64 {
	return sumPeaks(x, params, 4, func(xi float64, p []float64) float64 {
		return pseudoVoigt(xi, p[0], p[1], p[2], p[3])
	})
}

// AreaPseudoVoigtEvaluator sums k pseudo-Voigt peaks parameterized
// (Area, Position, FWHM, Eta). The area splits between the Gaussian and
// Lorentzian components in the same eta proportion as the height mixture.
func AreaPseudoVoigtEvaluator(x, params []float64) []float64 {
	return sumPeaks(x, params, 4, func(xi float64, p []float64) float64 {
		area, pos, fwhm, eta := p[0], p[1], p[2], p[3]

		gaussArea := eta * area
		lorentzArea := (1 - eta) * area

		gaussPart := areaToHeightGauss(gaussArea, fwhm)
		lorentzPart := areaToHeightLorentz(lorentzArea, fwhm)

		return gaussHeight(xi, gaussPart, pos, fwhm) + lorentzHeight(xi, lorentzPart, pos, fwhm)
	})
}

var pseudoVoigtParamNames = []string{"Height", "Position", "FWHM", "Eta"}
var areaPseudoVoigtParamNames = []string{"Area", "Position", "FWHM", "Eta"}

func init() {
	defaultRegistry.RegisterTheory(&TheoryEntry{
		Name:       "Pseudo-Voigt",
		N:          4,
		ParamNames: pseudoVoigtParamNames,
		Eval:       PseudoVoigtEvaluator,
		Estimate:   estimatePseudoVoigt,
	})
	defaultRegistry.RegisterTheory(&TheoryEntry{
		Name:       "Area Pseudo-Voigt",
		N:          4,
		ParamNames: areaPseudoVoigtParamNames,
		Eval:       AreaPseudoVoigtEvaluator,
		Estimate:   estimateAreaPseudoVoigt,
	})
}

// appendEta appends Eta=0.5 per peak to a height/position/FWHM parameter
// list and constraint block, constraining it QUOTED [0,1] when
// QuotedEtaFlag is set, FREE otherwise (§4.3, pseudo-Voigt specializations).
func appendEta(params []float64, cons ConstraintBlock, cfg *Config) ([]float64, ConstraintBlock) {
	nPeaks := len(params) / 3

	outParams := make([]float64, 0, nPeaks*4)
	outCons := make(ConstraintBlock, 0, nPeaks*4)

	etaCons := Constraint{Code: Free}
	if cfg.Bool("quotedetaflag") {
		etaCons = Constraint{Code: Quoted, C1: 0, C2: 1}
	}

	for k := 0; k < nPeaks; k++ {
		outParams = append(outParams, params[3*k], params[3*k+1], params[3*k+2], 0.5)
		outCons = append(outCons, cons[3*k], cons[3*k+1], cons[3*k+2], etaCons)
	}

	// a cross-peak SameFwhmFlag FACTOR computed under the 3-per-peak base
	// layout must be rebased to the new 4-per-peak (height, position, FWHM,
	// eta) stride before it reaches the solver.
	outCons.RebaseLayout(3, 4)

	return outParams, outCons
}

func estimatePseudoVoigt(x, y, bg []float64, yscaling float64, cfg *Config) ([]float64, ConstraintBlock, error) {
	params, cons, err := estimateHeightPositionFWHM(x, y, bg, yscaling, cfg)
	if err != nil {
		return nil, nil, err
	}

	p, c := appendEta(params, cons, cfg)

	return p, c, nil
}

func estimateAreaPseudoVoigt(x, y, bg []float64, yscaling float64, cfg *Config) ([]float64, ConstraintBlock, error) {
	params, cons, err := estimatePseudoVoigt(x, y, bg, yscaling, cfg)
	if err != nil {
		return nil, nil, err
	}

	for i := 0; i < len(params); i += 4 {
		height, fwhm, eta := params[i], params[i+2], params[i+3]
		params[i] = eta*heightToAreaGauss(height, fwhm) + (1-eta)*heightToAreaLorentz(height, fwhm)
	}

	return params, cons, nil
}
