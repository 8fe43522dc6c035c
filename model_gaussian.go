package specfit

import "math"

// fwhmToSigma converts a FWHM to a Gaussian sigma: sigma = FWHM / (2*sqrt(2*ln2)).
const gaussSigmaFactor = 2.3548200450309493 // 2*sqrt(2*ln(2))

func fwhmToSigma(fwhm float64) float64 {
	return fwhm / gaussSigmaFactor
}

// sigmaToFWHM is the inverse of fwhmToSigma.
func sigmaToFWHM(sigma float64) float64 {
	return sigma * gaussSigmaFactor
}

// gaussHeight evaluates a single Gaussian given in height/position/FWHM form.
func gaussHeight(x, height, pos, fwhm float64) float64 {
	if fwhm == 0 {
		return 0
	}
	sigma := fwhmToSigma(fwhm)
	d := x - pos

	return height * math.Exp(-0.5*d*d/(sigma*sigma))
}

// areaToHeightGauss converts a Gaussian area to a height: Area = Height *
// sigma * sqrt(2*pi), so Height = Area / (sigma*sqrt(2*pi)).
func areaToHeightGauss(area, fwhm float64) float64 {
	sigma := fwhmToSigma(fwhm)
	if sigma == 0 {
		return 0
	}

	return area / (sigma * math.Sqrt(2*math.Pi))
}

// heightToAreaGauss converts a Gaussian height to an area.
func heightToAreaGauss(height, fwhm float64) float64 {
	sigma := fwhmToSigma(fwhm)

	return height * sigma * math.Sqrt(2*math.Pi)
}

// sumPeaks evaluates a multi-peak model: it sums base(x[i], params[k*n:(k+1)*n])
// over k = 0..len(params)/n-1, for every x[i] (the "multi-peak superposition"
// invariant in §8).
func sumPeaks(x []float64, params []float64, n int, base func(xi float64, p []float64) float64) []float64 {
	out := make([]float64, len(x))

	if n == 0 || len(params) == 0 {
		return out
	}

	k := len(params) / n

	for i, xi := range x {
		var sum float64
		for g := 0; g < k; g++ {
			sum += base(xi, params[g*n:(g+1)*n])
		}
		out[i] = sum
	}

	return out
}

// GaussianEvaluator sums k Gaussians parameterized (Height, Position, FWHM).
func GaussianEvaluator(x, params []float64) []float64 {
	return sumPeaks(x, params, 3, func(xi float64, p []float64) float64 {
		return gaussHeight(xi, p[0], p[1], p[2])
	})
}

// AreaGaussianEvaluator sums k Gaussians parameterized (Area, Position, FWHM).
func AreaGaussianEvaluator(x, params []float64) []float64 {
	return sumPeaks(x, params, 3, func(xi float64, p []float64) float64 {
		height := areaToHeightGauss(p[0], p[2])
		return gaussHeight(xi, height, p[1], p[2])
	})
}

var gaussianParamNames = []string{"Height", "Position", "FWHM"}
var areaGaussianParamNames = []string{"Area", "Position", "FWHM"}

func init() {
	defaultRegistry.RegisterTheory(&TheoryEntry{
		Name:       "Gaussians",
		N:          3,
		ParamNames: gaussianParamNames,
		Eval:       GaussianEvaluator,
		Estimate:   estimateGaussian,
	})
	defaultRegistry.RegisterTheory(&TheoryEntry{
		Name:       "Area Gaussians",
		N:          3,
		ParamNames: areaGaussianParamNames,
		Eval:       AreaGaussianEvaluator,
		Estimate:   estimateAreaGaussian,
	})
}

// estimateGaussian is the base height/position/FWHM estimator common to
// every Gaussian-like shape (§4.3).
func estimateGaussian(x, y, bg []float64, yscaling float64, cfg *Config) ([]float64, ConstraintBlock, error) {
	return estimateHeightPositionFWHM(x, y, bg, yscaling, cfg)
}

// estimateAreaGaussian wraps estimateGaussian, converting each peak's height
// into an area per the §8 round-trip law: Area = Height*FWHM*sqrt(2pi)/(2sqrt(2ln2)).
func estimateAreaGaussian(x, y, bg []float64, yscaling float64, cfg *Config) ([]float64, ConstraintBlock, error) {
	params, cons, err := estimateHeightPositionFWHM(x, y, bg, yscaling, cfg)
	if err != nil {
		return nil, nil, err
	}

	for i := 0; i < len(params); i += 3 {
		params[i] = heightToAreaGauss(params[i], params[i+2])
	}

	return params, cons, nil
}
