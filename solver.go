package specfit

import (
	"math"

	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
)

// Model is the function signature the solver contract expects: a multi-peak
// evaluator (or a fitfunction summing several) taking the full parameter
// vector and the abscissa.
type Model func(params, x []float64) []float64

// ModelDeriv computes d(model)/d(params[i]) over x; the solver falls back to
// NumDeriv when a theory supplies none (§4.5 step 2).
type ModelDeriv func(params []float64, i int, x []float64) []float64

// Solve implements the external solver contract of §6:
//
//	solve(model, x, y, p0, sigma?, constraints?, model_deriv?) -> (p_fit, chisq, sigma_p)
//
// constraints, when non-nil, ties FACTOR/DELTA/SUM/FIXED/IGNORE parameters
// to the free ones and bounds POSITIVE/QUOTED parameters via a smooth
// reparameterization, so the underlying unconstrained optimizer (gonum's
// Newton method, the same one the teacher's irr() uses) only ever sees a
// free, unconstrained vector.
func Solve(model Model, x, y, p0 []float64, sigma []float64, constraints ConstraintBlock, modelDeriv ModelDeriv) (pFit []float64, chisq float64, sigmaP []float64, err error) {
	return solve(model, x, y, p0, sigma, constraints, modelDeriv, 0)
}

// quickFit runs Solve with an iteration cap, used by estimators for the
// short pre-fit refinement in §4.3 step 7.
func quickFit(model Model, x, y, p0 []float64, constraints ConstraintBlock, maxIter int) (pFit []float64, chisq float64, err error) {
	pFit, chisq, _, err = solve(model, x, y, p0, nil, constraints, nil, maxIter)
	return pFit, chisq, err
}

func solve(model Model, x, y, p0 []float64, sigma []float64, constraints ConstraintBlock, modelDeriv ModelDeriv, maxIter int) (pFit []float64, chisq float64, sigmaP []float64, err error) {
	n := len(p0)

	if constraints == nil {
		constraints = NewFreeBlock(n)
	}

	if len(constraints) != n {
		return nil, 0, nil, Wrapperf(ErrShapeMismatch, "solve: %d params, %d constraints", n, len(constraints))
	}

	if sigma == nil {
		sigma = make([]float64, len(y))
		for i := range sigma {
			sigma[i] = 1
		}
	}

	re := newReparam(p0, constraints)

	residual := func(full []float64) []float64 {
		yfit := model(full, x)
		r := make([]float64, len(y))
		for i := range y {
			s := sigma[i]
			if s == 0 {
				s = 1
			}
			r[i] = (y[i] - yfit[i]) / s
		}
		return r
	}

	obj := func(u []float64) float64 {
		full := re.expand(u)
		r := residual(full)

		var sum float64
		for _, v := range r {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return math.Inf(1)
			}
			sum += v * v
		}

		return sum
	}

	grad, hess := gradHess(model, x, y, sigma, re, obj, modelDeriv)

	u0 := re.compress(p0)

	if len(u0) == 0 {
		// nothing free to optimize (e.g. all parameters FIXED/IGNORE)
		full := re.expand(nil)
		yfit := model(full, x)
		chisq = 0
		for i := range y {
			s := sigma[i]
			if s == 0 {
				s = 1
			}
			d := (y[i] - yfit[i]) / s
			chisq += d * d
		}
		return full, chisq, make([]float64, n), nil
	}

	problem := optimize.Problem{Func: obj, Grad: grad, Hess: hess}

	settings := &optimize.Settings{}
	if maxIter > 0 {
		settings.MajorIterations = maxIter
	}

	result, e := optimize.Minimize(problem, u0, settings, &optimize.Newton{})
	if e != nil && result == nil {
		return nil, 0, nil, Wrapperf(ErrSolverFailure, "optimize.Minimize: %v", e)
	}

	uFit := u0
	if result != nil {
		uFit = result.X
	}

	full := re.expand(uFit)

	for _, v := range full {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, 0, nil, Wrapperf(ErrSolverFailure, "non-finite parameter in fit result")
		}
	}

	chisq = obj(uFit)
	if math.IsNaN(chisq) || math.IsInf(chisq, 0) {
		return nil, 0, nil, Wrapperf(ErrSolverFailure, "non-finite chi-square in fit result")
	}

	sigmaP = make([]float64, n)

	var hessian mat.SymDense
	fd.Hessian(&hessian, obj, uFit, nil)

	cov := covarianceFromHessian(&hessian)
	if cov != nil {
		for i, freeIdx := range re.freeIndex {
			if i < cov.SymmetricDim() {
				v := cov.At(i, i)
				if v > 0 {
					sigmaP[freeIdx] = math.Sqrt(2 * v)
				}
			}
		}
	}

	return full, chisq, sigmaP, nil
}

// gradHess builds the optimize.Problem's Grad/Hess callbacks. When
// modelDeriv is nil (the common case for the estimators' short internal
// pre-fits, which never supply one) it falls back to finite-differencing
// the objective directly, as before. When modelDeriv is supplied — either a
// theory's analytic Derivative or the NumDeriv fallback, per §4.5 step 2 —
// it is used to build an analytic gradient and a Gauss-Newton Hessian
// approximation, chaining through the reparameterization's own derivative
// (reparam.expandWithJacobian) instead of finite-differencing the whole
// compressed objective.
func gradHess(model Model, x, y, sigma []float64, re *reparam, obj func([]float64) float64, modelDeriv ModelDeriv) (grad func(g, u []float64), hess func(h *mat.SymDense, u []float64)) {
	if modelDeriv == nil {
		return func(g, u []float64) { fd.Gradient(g, obj, u, nil) },
			func(h *mat.SymDense, u []float64) { fd.Hessian(h, obj, u, nil) }
	}

	// jacobianColumns returns, for every full-space parameter index that
	// some free coordinate actually depends on, the model's derivative
	// w.r.t. that parameter over x, and the dP/du row for that index.
	jacobianColumns := func(u []float64) (full []float64, yfit []float64, cols map[int][]float64, dPdU [][]float64) {
		full, dPdU = re.expandWithJacobian(u)
		yfit = model(full, x)

		m := len(u)
		cols = make(map[int][]float64)

		for j := range full {
			dep := false
			for k := 0; k < m; k++ {
				if dPdU[j][k] != 0 {
					dep = true
					break
				}
			}
			if !dep {
				continue
			}
			cols[j] = modelDeriv(full, j, x)
		}

		return full, yfit, cols, dPdU
	}

	grad = func(g, u []float64) {
		_, yfit, cols, dPdU := jacobianColumns(u)

		for k := range g {
			g[k] = 0
		}

		for j, dy := range cols {
			var factor float64
			for i := range dy {
				s := sigma[i]
				if s == 0 {
					s = 1
				}
				r := (y[i] - yfit[i]) / s
				factor += (r / s) * dy[i]
			}

			for k := range g {
				if dPdU[j][k] != 0 {
					g[k] += -2 * factor * dPdU[j][k]
				}
			}
		}
	}

	hess = func(h *mat.SymDense, u []float64) {
		_, _, cols, dPdU := jacobianColumns(u)

		m := len(u)
		ju := make([][]float64, len(x))
		for i := range ju {
			ju[i] = make([]float64, m)
		}

		for j, dy := range cols {
			for i := range x {
				s := sigma[i]
				if s == 0 {
					s = 1
				}
				dyis := dy[i] / s

				for k := 0; k < m; k++ {
					if dPdU[j][k] != 0 {
						ju[i][k] += dyis * dPdU[j][k]
					}
				}
			}
		}

		for a := 0; a < m; a++ {
			for b := a; b < m; b++ {
				var sum float64
				for i := range ju {
					sum += ju[i][a] * ju[i][b]
				}
				h.SetSym(a, b, 2*sum)
			}
		}
	}

	return grad, hess
}

// covarianceFromHessian inverts a symmetric Hessian to produce a covariance
// estimate; it returns nil (leaving sigmas at zero) if the Hessian is
// singular or has non-positive dimension, rather than failing the fit.
func covarianceFromHessian(h *mat.SymDense) *mat.SymDense {
	n := h.SymmetricDim()
	if n == 0 {
		return nil
	}

	var chol mat.Cholesky
	if ok := chol.Factorize(h); !ok {
		return nil
	}

	var inv mat.SymDense
	if err := chol.InverseTo(&inv); err != nil {
		return nil
	}

	return &inv
}

// NumDeriv is the central-difference numeric derivative fallback used when a
// theory supplies no analytic Derivative (§4.5 step 2): step = max(|p_i|,1)*1e-5.
func NumDeriv(model Model, params []float64, i int, x []float64) []float64 {
	step := math.Max(math.Abs(params[i]), 1) * 1e-5

	up := append([]float64(nil), params...)
	down := append([]float64(nil), params...)
	up[i] += step
	down[i] -= step

	yUp := model(up, x)
	yDown := model(down, x)

	out := make([]float64, len(x))
	for j := range out {
		out[j] = (yUp[j] - yDown[j]) / (2 * step)
	}

	return out
}
