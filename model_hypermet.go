package specfit

import "math"

// hypermetTails bit positions within the 4-bit HypermetTails mask (§4.1).
const (
	hypermetBitGaussian = 1 << 0
	hypermetBitShort    = 1 << 1
	hypermetBitLong     = 1 << 2
	hypermetBitStep     = 1 << 3
)

// hypermet evaluates the composite X-ray peak shape: a Gaussian core plus a
// short exponential tail, a long exponential tail and a step, each
// switchable by a bit of mask (§4.1, §GLOSSARY "Hypermet"). Parameters are
// (G_Area, Position, FWHM, ST_Area, ST_Slope, LT_Area, LT_Slope, Step_H); all
// four share Position and FWHM.
func hypermet(x, gArea, pos, fwhm, stArea, stSlope, ltArea, ltSlope, stepH float64, mask int) float64 {
	sigma := fwhmToSigma(fwhm)
	if sigma == 0 {
		return 0
	}

	var v float64

	if mask&hypermetBitGaussian != 0 {
		v += gaussHeight(x, areaToHeightGauss(gArea, fwhm), pos, fwhm)
	}

	d := x - pos

	if mask&hypermetBitShort != 0 && stArea != 0 && stSlope != 0 {
		v += hypermetTail(d, gArea, stArea, stSlope, sigma)
	}

	if mask&hypermetBitLong != 0 && ltArea != 0 && ltSlope != 0 {
		v += hypermetTail(d, gArea, ltArea, ltSlope, sigma)
	}

	if mask&hypermetBitStep != 0 && stepH != 0 {
		v += stepH * 0.5 * math.Erfc(d/(sigma*math.Sqrt2))
	}

	return v
}

// hypermetTail evaluates one exponential tail: area as a fraction of the
// Gaussian core area, smeared by an erfc to stay finite at d=0.
func hypermetTail(d, gArea, tailAreaFraction, slope, sigma float64) float64 {
	height := gArea * tailAreaFraction / (slope * sigma * math.Sqrt(2*math.Pi))

	return height * math.Exp(d/(slope*sigma)+0.5/(slope*slope)) * math.Erfc(d/(sigma*math.Sqrt2)+1/(slope*math.Sqrt2))
}

// evalHypermetMasked sums k Hypermet peaks using mask (only its low 4 bits
// are consulted, §4.1, "Hypermet tails are controlled by a 4-bit mask"). It
// is a pure function of its arguments; callers that need the mask resolved
// from a live configuration (the registered Evaluator) wrap it in a closure
// instead of reaching for package state.
func evalHypermetMasked(x, params []float64, mask int) []float64 {
	mask &= 0xF
	return sumPeaks(x, params, 8, func(xi float64, p []float64) float64 {
		return hypermet(xi, p[0], p[1], p[2], p[3], p[4], p[5], p[6], p[7], mask)
	})
}

var hypermetParamNames = []string{"G_Area", "Position", "FWHM", "ST_Area", "ST_Slope", "LT_Area", "LT_Slope", "Step_H"}

func init() {
	defaultRegistry.RegisterTheory(&TheoryEntry{
		Name:       "Hypermet",
		N:          8,
		ParamNames: hypermetParamNames,
		Eval:       defaultHypermetEval,
		Estimate:   defaultEstimateHypermet,
		Configure:  func(cfg *Config) map[string]any { return nil },
	})
}

// defaultHypermetEval backs the default registry's Hypermet entry, read by
// tests and any driver that never overrides it; a live Driver instead binds
// Eval to a closure over its own Config (see Driver.buildRegistry), so two
// drivers configured with different HypermetTails never share mask state.
func defaultHypermetEval(x, params []float64) []float64 {
	return evalHypermetMasked(x, params, 15)
}

func defaultEstimateHypermet(x, y, bg []float64, yscaling float64, cfg *Config) ([]float64, ConstraintBlock, error) {
	return estimateHypermet(x, y, bg, yscaling, cfg)
}

// estimateHypermet seeds a Hypermet peak per discovered Gaussian peak: the
// Gaussian core from the common estimator, then tail/step ratios from the
// configured initial values, fixing a term to zero when its own bit is
// clear or its driving area/height falls below the configured minimum
// (§4.3, "Hypermet estimator seeds tail/step ratios ... fixes a term to
// zero when its area/height falls below the configured threshold"). It reads
// the active mask straight out of cfg rather than any package or driver
// field, so it needs no state beyond its arguments.
func estimateHypermet(x, y, bg []float64, yscaling float64, cfg *Config) ([]float64, ConstraintBlock, error) {
	base, baseCons, err := estimateHeightPositionFWHM(x, y, bg, yscaling, cfg)
	if err != nil {
		return nil, nil, err
	}

	mask := cfg.Int("hypermettails")

	nPeaks := len(base) / 3
	if nPeaks == 0 {
		return []float64{}, ConstraintBlock{}, nil
	}

	largestIdx, largestArea := 0, math.Inf(-1)
	gAreas := make([]float64, nPeaks)

	for k := 0; k < nPeaks; k++ {
		h, _, w := base[3*k], base[3*k+1], base[3*k+2]
		gAreas[k] = heightToAreaGauss(h, w)
		if gAreas[k] > largestArea {
			largestArea = gAreas[k]
			largestIdx = k
		}
	}

	outParams := make([]float64, 0, nPeaks*8)
	outCons := make(ConstraintBlock, 0, nPeaks*8)

	stInit := cfg.Float("initialshorttailarearatio")
	stSlopeInit := cfg.Float("initialshorttailsloperatio")
	ltInit := cfg.Float("initiallongtailarearatio")
	ltSlopeInit := cfg.Float("initiallongtailsloperatio")
	stepInit := cfg.Float("initialsteptailheightratio")

	minShortArea := cfg.Float("mingaussarea4shorttail")
	minLongArea := cfg.Float("mingaussarea4longtail")
	minStepHeight := cfg.Float("mingaussheight4steptail")

	stAreaMin, stAreaMax := cfg.Float("shorttailarearatiomin"), cfg.Float("shorttailarearatiomax")
	stSlopeMin, stSlopeMax := cfg.Float("shorttailsloperatiomin"), cfg.Float("shorttailsloperatiomax")
	ltAreaMin, ltAreaMax := cfg.Float("longtailarearatiomin"), cfg.Float("longtailarearatiomax")
	ltSlopeMin, ltSlopeMax := cfg.Float("longtailsloperatiomin"), cfg.Float("longtailsloperatiomax")
	stepMin, stepMax := cfg.Float("steptailheightratiomin"), cfg.Float("steptailheightratiomax")

	for k := 0; k < nPeaks; k++ {
		h, pos, fwhm := base[3*k], base[3*k+1], base[3*k+2]
		gArea := gAreas[k]

		stArea, stSlope := stInit, stSlopeInit
		if mask&hypermetBitShort == 0 || gArea < minShortArea {
			stArea, stSlope = 0, 0
		}

		ltArea, ltSlope := ltInit, ltSlopeInit
		if mask&hypermetBitLong == 0 || gArea < minLongArea {
			ltArea, ltSlope = 0, 0
		}

		stepH := stepInit * h
		if mask&hypermetBitStep == 0 || h < minStepHeight {
			stepH = 0
		}

		outParams = append(outParams, gArea, pos, fwhm, stArea, stSlope, ltArea, ltSlope, stepH)

		posCons, fwhmCons := baseCons[3*k+1], baseCons[3*k+2]

		gAreaCons := Constraint{Code: Positive}
		if cfg.Bool("samefwhmflag") && k != largestIdx {
			fwhmCons = Constraint{Code: Factor, C1: float64(8*largestIdx + 2), C2: 1.0}
		}
		if cfg.Bool("hypermetquotedpositionflag") {
			delta := cfg.Float("deltapositionfwhmunits") * fwhm
			posCons = Constraint{Code: Quoted, C1: pos - delta, C2: pos + delta}
		}

		stAreaCons := quotedIfActive(stArea, stAreaMin, stAreaMax)
		stSlopeCons := quotedIfActive(stSlope, stSlopeMin, stSlopeMax)
		ltAreaCons := quotedIfActive(ltArea, ltAreaMin, ltAreaMax)
		ltSlopeCons := quotedIfActive(ltSlope, ltSlopeMin, ltSlopeMax)
		stepCons := quotedIfActive(stepH, stepMin*h, stepMax*h)

		if cfg.Bool("samesloperatioflag") && k != largestIdx {
			if stSlope != 0 {
				stSlopeCons = Constraint{Code: Factor, C1: float64(8*largestIdx + 4), C2: 1.0}
			}
			if ltSlope != 0 {
				ltSlopeCons = Constraint{Code: Factor, C1: float64(8*largestIdx + 6), C2: 1.0}
			}
		}

		if cfg.Bool("samearearatioflag") && k != largestIdx {
			if stArea != 0 {
				stAreaCons = Constraint{Code: Factor, C1: float64(8*largestIdx + 3), C2: 1.0}
			}
			if ltArea != 0 {
				ltAreaCons = Constraint{Code: Factor, C1: float64(8*largestIdx + 5), C2: 1.0}
			}
		}

		outCons = append(outCons, gAreaCons, posCons, fwhmCons, stAreaCons, stSlopeCons, ltAreaCons, ltSlopeCons, stepCons)
	}

	return outParams, outCons, nil
}

// quotedIfActive returns a FIXED constraint for a tail/step term disabled by
// mask or threshold (held at exactly zero per §9 "Hypermet mask"), and a
// QUOTED constraint within [lo, hi] otherwise — the configured
// Min/Max ratio bounds for that term (§6 "Hypermet short/long
// tail"/"Hypermet step"), matching estimate_ahypermet's own cons[...] =
// CQUOTED setup for its active tail/step parameters.
func quotedIfActive(v, lo, hi float64) Constraint {
	if v == 0 {
		return Constraint{Code: Fixed}
	}

	return Constraint{Code: Quoted, C1: lo, C2: hi}
}
