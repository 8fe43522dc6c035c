package specfit

import "math"

const boundEps = 1e-12

// reparam maps between the solver's unconstrained free vector u and the
// full parameter vector p, applying the bound/tie semantics of §4.2:
// FIXED and IGNORE hold their initial value; FACTOR/DELTA/SUM are derived
// from another parameter; POSITIVE and QUOTED are carried through a smooth
// bijection so an unconstrained optimizer (gonum's Newton) never leaves the
// feasible region; FREE passes through unchanged.
type reparam struct {
	n          int
	constraints ConstraintBlock
	initial    []float64
	freeIndex  []int // full-vector index for each entry of the compressed u
}

func newReparam(p0 []float64, constraints ConstraintBlock) *reparam {
	r := &reparam{n: len(p0), constraints: constraints, initial: append([]float64(nil), p0...)}

	for i, c := range constraints {
		switch c.Code {
		case Free, Positive, Quoted:
			r.freeIndex = append(r.freeIndex, i)
		}
	}

	return r
}

func (r *reparam) compress(pFull []float64) []float64 {
	u := make([]float64, len(r.freeIndex))
	for k, i := range r.freeIndex {
		u[k] = toFree(r.constraints[i], pFull[i])
	}

	return u
}

func (r *reparam) expand(u []float64) []float64 {
	full := make([]float64, r.n)

	// pass 1: FREE/POSITIVE/QUOTED from u; FIXED/IGNORE from the initial value
	freePos := 0
	for i, c := range r.constraints {
		switch c.Code {
		case Free, Positive, Quoted:
			var uv float64
			if u != nil && freePos < len(u) {
				uv = u[freePos]
			}
			full[i] = fromFree(c, uv)
			freePos++
		case Fixed, Ignore:
			full[i] = r.initial[i]
		}
	}

	// pass 2: FACTOR/DELTA/SUM, derived from an already-resolved parameter
	for i, c := range r.constraints {
		j := int(c.C1)
		switch c.Code {
		case Factor:
			full[i] = c.C2 * safeIndex(full, j)
		case Delta:
			full[i] = safeIndex(full, j) - c.C2
		case Sum:
			full[i] = c.C2 - safeIndex(full, j)
		}
	}

	return full
}

// expandWithJacobian is expand's counterpart that also returns dPdU, the
// n x len(u) matrix of partial derivatives of each full-vector parameter
// with respect to each free (compressed) coordinate. It lets the solver
// build an analytic gradient/Gauss-Newton Hessian from a model_deriv
// (§4.5 step 2) instead of finite-differencing the objective directly.
func (r *reparam) expandWithJacobian(u []float64) (full []float64, dPdU [][]float64) {
	full = make([]float64, r.n)
	m := len(u)

	dPdU = make([][]float64, r.n)
	for i := range dPdU {
		dPdU[i] = make([]float64, m)
	}

	freePos := 0
	for i, c := range r.constraints {
		switch c.Code {
		case Free, Positive, Quoted:
			var uv float64
			if u != nil && freePos < len(u) {
				uv = u[freePos]
			}
			full[i] = fromFree(c, uv)
			if freePos < m {
				dPdU[i][freePos] = fromFreeDeriv(c, uv)
			}
			freePos++
		case Fixed, Ignore:
			full[i] = r.initial[i]
		}
	}

	for i, c := range r.constraints {
		j := int(c.C1)

		switch c.Code {
		case Factor:
			full[i] = c.C2 * safeIndex(full, j)
			if j >= 0 && j < r.n {
				for k := 0; k < m; k++ {
					dPdU[i][k] = c.C2 * dPdU[j][k]
				}
			}
		case Delta:
			full[i] = safeIndex(full, j) - c.C2
			if j >= 0 && j < r.n {
				for k := 0; k < m; k++ {
					dPdU[i][k] = dPdU[j][k]
				}
			}
		case Sum:
			full[i] = c.C2 - safeIndex(full, j)
			if j >= 0 && j < r.n {
				for k := 0; k < m; k++ {
					dPdU[i][k] = -dPdU[j][k]
				}
			}
		}
	}

	return full, dPdU
}

func safeIndex(v []float64, i int) float64 {
	if i < 0 || i >= len(v) {
		return 0
	}

	return v[i]
}

// toFree maps a bounded parameter value to its unconstrained representation.
func toFree(c Constraint, p float64) float64 {
	switch c.Code {
	case Positive:
		if p < boundEps {
			p = boundEps
		}
		return math.Log(p)
	case Quoted:
		lo, hi := c.C1, c.C2
		if hi <= lo {
			return 0
		}
		frac := (p - lo) / (hi - lo)
		frac = clamp(frac, boundEps, 1-boundEps)
		return math.Log(frac / (1 - frac))
	default:
		return p
	}
}

// fromFree is the inverse of toFree.
func fromFree(c Constraint, u float64) float64 {
	switch c.Code {
	case Positive:
		return math.Exp(u)
	case Quoted:
		lo, hi := c.C1, c.C2
		if hi <= lo {
			return lo
		}
		frac := 1 / (1 + math.Exp(-u))
		return lo + (hi-lo)*frac
	default:
		return u
	}
}

// fromFreeDeriv is d(fromFree)/du, used by expandWithJacobian's chain rule.
func fromFreeDeriv(c Constraint, u float64) float64 {
	switch c.Code {
	case Positive:
		return math.Exp(u)
	case Quoted:
		lo, hi := c.C1, c.C2
		if hi <= lo {
			return 0
		}
		s := 1 / (1 + math.Exp(-u))
		return (hi - lo) * s * (1 - s)
	default:
		return 1
	}
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}

	return v
}
