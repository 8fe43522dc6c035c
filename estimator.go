package specfit

import (
	"fmt"
	"math"
)

// estimateHeightPositionFWHM implements the common peak-shape estimator of
// §4.3: search for peaks, seed (Height, Position, FWHM) for each, refine
// with a short bounded pre-fit, then assemble final constraints from the
// configuration toggles.
func estimateHeightPositionFWHM(x, y, bg []float64, yscaling float64, cfg *Config) ([]float64, ConstraintBlock, error) {
	if len(x) != len(y) {
		return nil, nil, Wrapperf(ErrShapeMismatch, "estimateHeightPositionFWHM: x has length %d, y has length %d", len(x), len(y))
	}

	if len(x) == 0 {
		return nil, ConstraintBlock{}, nil
	}

	if bg == nil {
		bg = make([]float64, len(y))
	}

	// 1. resolve yscaling
	if yscaling == 0 {
		yscaling = cfg.Float("yscaling")
	}
	if yscaling == 0 {
		yscaling = 1.0
	}

	// 2. search FWHM
	searchFWHM := resolveSearchFWHM(x, y, cfg)

	// 3. sensitivity
	sensitivity := cfg.Float("sensitivity")
	if sensitivity < 1 {
		if Verbose {
			fmt.Println("estimate: sensitivity", sensitivity, "below minimum, clamping to 1")
		}
		sensitivity = 1
	}

	// 4. peak search
	npoints := len(y)
	var peaks []int
	if float64(npoints) > 1.5*float64(searchFWHM) {
		scaled := make([]float64, npoints)
		for i, v := range y {
			scaled[i] = math.Abs(v) * yscaling
		}
		peaks = PeakSearch(scaled, searchFWHM, sensitivity)
	}

	// 5. force a peak at the argmax of y-bg if none found and configured to
	if len(peaks) == 0 && cfg.Bool("forcepeakpresence") {
		best := 0
		bestVal := y[0] - bg[0]
		for i := 1; i < npoints; i++ {
			if v := y[i] - bg[i]; v > bestVal {
				bestVal = v
				best = i
			}
		}
		peaks = []int{best}

		if Verbose {
			fmt.Println("estimate: no peak cleared the sensitivity threshold, forcing one at x =", x[best])
		}
	}

	if len(peaks) == 0 {
		if Verbose {
			fmt.Println("estimate: no peaks found, returning an empty parameter list")
		}
		return []float64{}, ConstraintBlock{}, nil
	}

	// 6. seed each peak
	sig := 5 * math.Abs(x[npoints-1]-x[0]) / float64(npoints)

	params := make([]float64, 0, 3*len(peaks))
	largestIdx := 0
	largestHeight := math.Inf(-1)

	for i, p := range peaks {
		height := y[p] - bg[p]
		pos := x[p]
		params = append(params, height, pos, sig)

		if height > largestHeight {
			largestHeight = height
			largestIdx = i
		}
	}

	// 7. short bounded pre-fit of the summed Gaussian model
	cons := make(ConstraintBlock, len(params))
	for i := 0; i < len(peaks); i++ {
		cons[3*i] = Constraint{Code: Positive}
		cons[3*i+1] = Constraint{Code: Quoted, C1: params[3*i+1] - 0.5*sig, C2: params[3*i+1] + 0.5*sig}
		cons[3*i+2] = Constraint{Code: Positive}
	}

	if len(x) > searchFWHM {
		fwhmx := math.Abs(x[searchFWHM] - x[0])
		for i := 0; i < len(peaks); i++ {
			cons[3*i+1] = Constraint{Code: Quoted, C1: params[3*i+1] - 0.5*fwhmx, C2: params[3*i+1] + 0.5*fwhmx}
		}
	}

	bgSub := make([]float64, npoints)
	for i := range y {
		bgSub[i] = y[i] - bg[i]
	}

	fitted, _, err := quickFit(GaussianEvaluator, x, bgSub, params, cons, 4)
	if err == nil {
		params = fitted
	}

	// 8. assemble final constraints from config toggles
	finalCons := make(ConstraintBlock, len(params))
	noConstraints := cfg.Bool("noconstraintsflag")

	for i := range peaks {
		h, p, w := 3*i, 3*i+1, 3*i+2

		if !noConstraints && cfg.Bool("positiveheightareaflag") {
			finalCons[h] = Constraint{Code: Positive}
		}

		if !noConstraints && cfg.Bool("quotedpositionflag") {
			finalCons[p] = Constraint{Code: Quoted, C1: min(x), C2: max(x)}
		}

		if !noConstraints && cfg.Bool("positivefwhmflag") {
			finalCons[w] = Constraint{Code: Positive}
		}

		if !noConstraints && cfg.Bool("samefwhmflag") && i != largestIdx {
			finalCons[w] = Constraint{Code: Factor, C1: float64(3*largestIdx + 2), C2: 1.0}
		}
	}

	return params, finalCons, nil
}

// resolveSearchFWHM computes the raw search FWHM of §4.3 step 2
// (AutoFwhm -> GuessFWHM, else the configured FwhmPoints), floored at 3.
// It is the scalar used to drive peak_search itself, as distinct from any
// individual peak's FWHM after pre-fit refinement; callers that need the
// search value verbatim (e.g. the periodic-Gaussian estimator, §8 scenario
// 4) call this directly instead of reading it back out of a fitted peak.
func resolveSearchFWHM(x, y []float64, cfg *Config) int {
	var searchFWHM int
	if cfg.Bool("autofwhm") {
		searchFWHM = GuessFWHM(x, y)
	} else {
		searchFWHM = cfg.Int("fwhmpoints")
	}
	if searchFWHM < 3 {
		searchFWHM = 3
	}

	return searchFWHM
}

func min(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		if x < m {
			m = x
		}
	}

	return m
}

func max(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		if x > m {
			m = x
		}
	}

	return m
}
