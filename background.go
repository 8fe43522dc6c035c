package specfit

import (
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// noneBackground contributes zero everywhere (§4.7, "background evaluators
// (none/constant/linear/internal/square-filter)").
func noneBackground(params, x []float64) []float64 {
	return make([]float64, len(x))
}

func constantBackground(params, x []float64) []float64 {
	c := 0.0
	if len(params) > 0 {
		c = params[0]
	}

	out := make([]float64, len(x))
	for i := range out {
		out[i] = c
	}

	return out
}

// linearBackground evaluates c + m*x (§4.7, "linear(c, m)").
func linearBackground(params, x []float64) []float64 {
	var c, m float64
	if len(params) > 0 {
		c = params[0]
	}
	if len(params) > 1 {
		m = params[1]
	}

	out := make([]float64, len(x))
	for i, xi := range x {
		out[i] = c + m*xi
	}

	return out
}

// internalCache memoizes the snip baseline computed by internalBackground
// against the (x, y, curvature, iterations) it was built from, per §4.7
// and §5 ("a per-driver memoization with the lifetime of the driver"). It
// is grounded on the source's bkg_internal oldpars/oldx/oldy/oldbkg pattern
// (DESIGN.md).
type internalCache struct {
	curvature  float64
	iterations int
	x, y       []float64
	bkg        []float64
}

func (c *internalCache) get(curvature float64, iterations int, x, y []float64) []float64 {
	if c.curvature == curvature && c.iterations == iterations &&
		floats.Equal(c.x, x) && floats.Equal(c.y, y) && c.bkg != nil {
		return c.bkg
	}

	bkg := snipBaseline(y, curvature, iterations)

	c.curvature = curvature
	c.iterations = iterations
	c.x = append([]float64(nil), x...)
	c.y = append([]float64(nil), y...)
	c.bkg = bkg

	return bkg
}

// evalInternalBackground evaluates the memoized snip baseline of sampleY
// plus a constant offset (§4.7, "internal(curvature, iterations, c)"). It is
// a pure function of its arguments — cache and sampleY are owned by the
// caller (a Driver, or a test constructing its own cache) rather than any
// package-level variable, so two callers never share or race on memoization
// state.
func evalInternalBackground(cache *internalCache, sampleY, params, x []float64) []float64 {
	var curvature float64 = 1.0
	var c float64

	if len(params) > 0 {
		curvature = params[0]
	}
	if len(params) > 2 {
		c = params[2]
	}

	iterations := 1000
	if len(params) > 1 && params[1] > 0 {
		iterations = int(params[1])
	}

	bkg := cache.get(curvature, iterations, x, sampleY)

	out := make([]float64, len(x))
	for i := range x {
		v := 0.0
		if i < len(bkg) {
			v = bkg[i]
		}
		out[i] = v + c
	}

	return out
}

// evalSquareFilterBackground applies a symmetric subtractive window of the
// given (odd) width: subtract c, replace each point with the average of its
// window neighbors on both sides, then add c back (§4.7, §9 "Square-filter
// background"). Below `4*halfwidth+1` samples the filter is a pass-through:
// each point returns sampleY unchanged (c where no sample value exists).
// sampleY is supplied explicitly by the caller, same as evalInternalBackground.
func evalSquareFilterBackground(sampleY, params, x []float64) []float64 {
	width := 5
	var c float64

	if len(params) > 0 && params[0] >= 3 {
		width = int(params[0])
	}
	if len(params) > 1 {
		c = params[1]
	}

	half := width / 2
	y := sampleY

	out := make([]float64, len(x))

	if len(y) < 4*half+1 {
		for i := range out {
			out[i] = c
			if i < len(y) {
				out[i] = y[i]
			}
		}

		return out
	}

	n := len(y)
	for i := 0; i < n && i < len(out); i++ {
		lo := i - half
		if lo < 0 {
			lo = 0
		}
		hi := i + half
		if hi > n-1 {
			hi = n - 1
		}

		var sum float64
		count := 0
		for j := lo; j <= hi; j++ {
			sum += y[j] - c
			count++
		}

		avg := 0.0
		if count > 0 {
			avg = sum / float64(count)
		}

		out[i] = avg + c
	}

	return out
}

var emptyParamNames = []string{}
var constantParamNames = []string{"Constant"}
var linearParamNames = []string{"Constant", "Slope"}
var internalParamNames = []string{"Curvature", "Iterations", "Constant"}
var squareFilterParamNames = []string{"Width", "Constant"}

func init() {
	defaultRegistry.RegisterBackground(&BackgroundEntry{
		Name: "None", NParams: 0, ParamNames: emptyParamNames,
		Eval: noneBackground, Estimate: estimateNoneBackground,
	})
	defaultRegistry.RegisterBackground(&BackgroundEntry{
		Name: "Constant", NParams: 1, ParamNames: constantParamNames,
		Eval: constantBackground, Estimate: estimateConstantBackground,
	})
	defaultRegistry.RegisterBackground(&BackgroundEntry{
		Name: "Linear", NParams: 2, ParamNames: linearParamNames,
		Eval: linearBackground, Estimate: estimateLinearBackground,
	})
	defaultRegistry.RegisterBackground(&BackgroundEntry{
		Name: "Internal", NParams: 3, ParamNames: internalParamNames,
		Eval: defaultInternalEval, Estimate: defaultEstimateInternalBackground,
	})
	defaultRegistry.RegisterBackground(&BackgroundEntry{
		Name: "Square Filter", NParams: 2, ParamNames: squareFilterParamNames,
		Eval: defaultSquareFilterEval, Estimate: defaultEstimateSquareFilterBackground,
	})
}

// defaultInternalEval and defaultSquareFilterEval back the default
// registry's Internal/Square Filter entries, exercised only by tests that
// inspect DefaultRegistry() directly; a live Driver overrides both with
// closures bound to its own cache and sample, so two drivers never share
// memoization state (see Driver.buildRegistry).
func defaultInternalEval(params, x []float64) []float64 {
	return evalInternalBackground(&internalCache{}, nil, params, x)
}

func defaultSquareFilterEval(params, x []float64) []float64 {
	return evalSquareFilterBackground(nil, params, x)
}

func defaultEstimateInternalBackground(x, y []float64, cfg *Config) ([]float64, ConstraintBlock, []float64, error) {
	return estimateInternalBackground(&internalCache{}, x, y, cfg)
}

func defaultEstimateSquareFilterBackground(x, y []float64, cfg *Config) ([]float64, ConstraintBlock, []float64, error) {
	return estimateSquareFilterBackground(x, y, cfg)
}

func estimateNoneBackground(x, y []float64, cfg *Config) ([]float64, ConstraintBlock, []float64, error) {
	return []float64{}, ConstraintBlock{}, make([]float64, len(x)), nil
}

// estimateConstantBackground seeds the constant at min(y), per §4.7 "min
// value for constant".
func estimateConstantBackground(x, y []float64, cfg *Config) ([]float64, ConstraintBlock, []float64, error) {
	if len(y) == 0 {
		return []float64{}, ConstraintBlock{}, []float64{}, nil
	}

	c := min(y)
	params := []float64{c}
	curve := constantBackground(params, x)

	return params, ConstraintBlock{{Code: Free}}, curve, nil
}

// estimateLinearBackground fits a least-squares line through (x, y), per
// §4.7 "least-squares fit on the baseline estimate for linear", via
// gonum/stat.LinearRegression.
func estimateLinearBackground(x, y []float64, cfg *Config) ([]float64, ConstraintBlock, []float64, error) {
	if len(x) == 0 {
		return []float64{}, ConstraintBlock{}, []float64{}, nil
	}

	weights := make([]float64, len(x))
	for i := range weights {
		weights[i] = 1
	}

	c, m := stat.LinearRegression(x, y, weights, false)
	params := []float64{c, m}
	curve := linearBackground(params, x)

	return params, ConstraintBlock{{Code: Free}, {Code: Free}}, curve, nil
}

// estimateInternalBackground seeds curvature/iterations/constant at fixed
// defaults, per §4.7 "fixed defaults for internal/square-filter". cache is
// the caller's own memoization (a Driver's, or a fresh one for the default
// registry entry) rather than a package-level singleton.
func estimateInternalBackground(cache *internalCache, x, y []float64, cfg *Config) ([]float64, ConstraintBlock, []float64, error) {
	params := []float64{1.0, 1000, 0}
	cons := ConstraintBlock{{Code: Fixed}, {Code: Fixed}, {Code: Free}}
	curve := evalInternalBackground(cache, y, params, x)

	return params, cons, curve, nil
}

func estimateSquareFilterBackground(x, y []float64, cfg *Config) ([]float64, ConstraintBlock, []float64, error) {
	width := GuessFWHM(x, y)
	if width < 3 {
		width = 3
	}
	if width%2 == 0 {
		width++
	}

	params := []float64{float64(width), 0}
	cons := ConstraintBlock{{Code: Fixed}, {Code: Free}}
	curve := evalSquareFilterBackground(y, params, x)

	return params, cons, curve, nil
}
