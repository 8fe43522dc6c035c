package specfit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSolveRecoversGaussianPeak(t *testing.T) {
	x, y := syntheticGaussianSignal([]float64{5}, []float64{20}, 2.0, 60, 0, 10)

	p0 := []float64{15, 4.5, 1.5}
	pFit, chisq, sigma, err := Solve(GaussianEvaluator, x, y, p0, nil, nil, nil)

	require.NoError(t, err)
	assert.InDelta(t, 20, pFit[0], 1.0)
	assert.InDelta(t, 5, pFit[1], 0.5)
	assert.InDelta(t, 2.0, pFit[2], 0.5)
	assert.Less(t, chisq, 1e-3)
	require.Len(t, sigma, 3)
}

func TestSolveWithModelDerivMatchesFiniteDifferencePath(t *testing.T) {
	x, y := syntheticGaussianSignal([]float64{5}, []float64{20}, 2.0, 60, 0, 10)
	p0 := []float64{15, 4.5, 1.5}

	deriv := func(params []float64, i int, xs []float64) []float64 {
		return NumDeriv(GaussianEvaluator, params, i, xs)
	}

	pFit, chisq, sigma, err := Solve(GaussianEvaluator, x, y, p0, nil, nil, deriv)

	require.NoError(t, err)
	assert.InDelta(t, 20, pFit[0], 1.0)
	assert.InDelta(t, 5, pFit[1], 0.5)
	assert.InDelta(t, 2.0, pFit[2], 0.5)
	assert.Less(t, chisq, 1e-3)
	require.Len(t, sigma, 3)
}

func TestSolveDegenerateAllFixed(t *testing.T) {
	x := []float64{0, 1, 2}
	y := []float64{1, 1, 1}
	p0 := []float64{1}
	cons := ConstraintBlock{{Code: Fixed}}

	model := func(params, xs []float64) []float64 {
		return constantBackground(params, xs)
	}

	pFit, chisq, sigma, err := Solve(model, x, y, p0, nil, cons, nil)
	require.NoError(t, err)
	assert.Equal(t, []float64{1}, pFit)
	assert.InDelta(t, 0, chisq, 1e-9)
	require.Len(t, sigma, 1)
}

func TestSolveShapeMismatch(t *testing.T) {
	_, _, _, err := Solve(GaussianEvaluator, []float64{0, 1}, []float64{1, 1}, []float64{1, 2, 3}, nil, ConstraintBlock{{Code: Free}}, nil)
	assert.ErrorIs(t, err, ErrShapeMismatch)
}

func TestSolveNonFiniteModelSurfacesSolverFailure(t *testing.T) {
	x := []float64{0, 1, 2}
	y := []float64{1, 2, 3}

	model := func(params, xs []float64) []float64 {
		out := make([]float64, len(xs))
		for i := range out {
			out[i] = math.Inf(1)
		}
		return out
	}

	_, _, _, err := Solve(model, x, y, []float64{1}, nil, nil, nil)
	assert.ErrorIs(t, err, ErrSolverFailure)
}

func TestNumDerivMatchesAnalyticForGaussianHeight(t *testing.T) {
	x := []float64{0, 1, 2}
	params := []float64{10, 1, 2}

	d := NumDeriv(GaussianEvaluator, params, 0, x)

	// d(model)/d(height) at height*1 should be model/height for a linear
	// parameter.
	y := GaussianEvaluator(x, params)
	for i := range x {
		assert.InDelta(t, y[i]/params[0], d[i], 1e-4)
	}
}

func TestQuickFitBoundsIterations(t *testing.T) {
	x, y := syntheticGaussianSignal([]float64{5}, []float64{20}, 2.0, 60, 0, 10)

	p0 := []float64{15, 4.5, 1.5}
	pFit, _, err := quickFit(GaussianEvaluator, x, y, p0, nil, 1)
	require.NoError(t, err)
	require.Len(t, pFit, 3)
}
