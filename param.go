package specfit

import "fmt"

// Parameter is one entry in the fit's parameter table: a display name, the
// peak group it belongs to (0 for background), its current estimated and
// fitted values, its uncertainty, its constraint, and an optional search
// window used by some estimators.
type Parameter struct {
	Name        string
	Group       int // 0 for background, 1..k for peak groups
	Estimate    float64
	FitResult   float64
	Sigma       float64
	Constraint  Constraint
	XMin, XMax  float64 // search window, when applicable; zero value if unused
}

// ParamList is the ordered parameter table: background parameters first,
// then peak parameters in groups of n (n = the active theory's per-peak
// parameter count).
type ParamList []*Parameter

// Values returns the current Estimate of every parameter, in order.
func (pl ParamList) Values() []float64 {
	out := make([]float64, len(pl))
	for i, p := range pl {
		out[i] = p.Estimate
	}

	return out
}

// FitValues returns the current FitResult of every parameter, in order.
func (pl ParamList) FitValues() []float64 {
	out := make([]float64, len(pl))
	for i, p := range pl {
		out[i] = p.FitResult
	}

	return out
}

// Constraints returns the ConstraintBlock implied by the current parameter
// table.
func (pl ParamList) Constraints() ConstraintBlock {
	out := make(ConstraintBlock, len(pl))
	for i, p := range pl {
		out[i] = p.Constraint
	}

	return out
}

// GroupCount returns the number of peak groups (the maximum Group value).
func (pl ParamList) GroupCount() int {
	max := 0
	for _, p := range pl {
		if p.Group > max {
			max = p.Group
		}
	}

	return max
}

// InGroup returns the parameters belonging to the given group, in order.
func (pl ParamList) InGroup(group int) ParamList {
	out := make(ParamList, 0)
	for _, p := range pl {
		if p.Group == group {
			out = append(out, p)
		}
	}

	return out
}

// buildParamList assembles the global parameter table from a background
// block and a peak block, per §4.5 step 5: background params first (group
// 0), then peak params laid out in groups of n, with FACTOR/DELTA/SUM
// indices in the peak block rebased by +len(bgParams).
func buildParamList(bgNames []string, bgValues []float64, bgCons ConstraintBlock,
	peakTemplate []string, nPerPeak int, peakValues []float64, peakCons ConstraintBlock) (ParamList, error) {

	if len(bgValues) != len(bgCons) {
		return nil, Wrapperf(ErrShapeMismatch, "background params (%d) and constraints (%d) differ in length", len(bgValues), len(bgCons))
	}

	if len(peakValues) != len(peakCons) {
		return nil, Wrapperf(ErrShapeMismatch, "peak params (%d) and constraints (%d) differ in length", len(peakValues), len(peakCons))
	}

	if nPerPeak > 0 && len(peakValues)%nPerPeak != 0 {
		return nil, Wrapperf(ErrShapeMismatch, "peak params (%d) not a multiple of n=%d", len(peakValues), nPerPeak)
	}

	rebased := make(ConstraintBlock, len(peakCons))
	copy(rebased, peakCons)
	rebased.Rebase(len(bgValues))

	pl := make(ParamList, 0, len(bgValues)+len(peakValues))

	for i, v := range bgValues {
		name := fmt.Sprintf("Background%d", i)
		if i < len(bgNames) {
			name = bgNames[i]
		}
		pl = append(pl, &Parameter{Name: name, Group: 0, Estimate: v, Constraint: bgCons[i]})
	}

	if nPerPeak > 0 {
		nPeaks := len(peakValues) / nPerPeak
		for k := 0; k < nPeaks; k++ {
			for j := 0; j < nPerPeak; j++ {
				idx := k*nPerPeak + j
				name := fmt.Sprintf("%s%d", peakTemplate[j], k+1)
				pl = append(pl, &Parameter{Name: name, Group: k + 1, Estimate: peakValues[idx], Constraint: rebased[idx]})
			}
		}
	}

	if err := pl.Constraints().Validate(len(pl)); err != nil {
		return nil, err
	}

	return pl, nil
}
