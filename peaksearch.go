package specfit

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
)

// snipBaseline is the opaque iterative baseline estimator spec §4.7/§9
// calls "subac": an iterative lower-hull smoothing pass. At each of
// iterations descending half-widths w = min(iterations, len(y)/2) down to 1,
// every sample is replaced by min(y[i], (y[i-w]+y[i+w])/2), clipping at the
// array edges by replicating the nearest valid sample (§9, boundary
// behavior). curvature scales the replacement toward the original value,
// matching the original's two-parameter subac(y, curvature, iterations).
func snipBaseline(y []float64, curvature float64, iterations int) []float64 {
	n := len(y)
	if n == 0 {
		return nil
	}

	z := make([]float64, n)
	copy(z, y)

	maxWidth := iterations
	if maxWidth > n/2 {
		maxWidth = n / 2
	}

	for w := maxWidth; w >= 1; w-- {
		next := make([]float64, n)
		for i := 0; i < n; i++ {
			lo := i - w
			if lo < 0 {
				lo = 0
			}
			hi := i + w
			if hi > n-1 {
				hi = n - 1
			}

			avg := (z[lo] + z[hi]) / 2
			candidate := math.Min(z[i], avg)
			// curvature > 1 relaxes the replacement toward the original
			// value, matching the original's use of curvature slightly
			// above 1 to avoid over-eroding sharp peaks.
			next[i] = candidate + (z[i]-candidate)*math.Max(0, curvature-1)
		}
		z = next
	}

	return z
}

// GuessFWHM estimates a search FWHM from the data alone: it subtracts a
// snip baseline, finds the global maximum, and walks outward from it until
// the signal drops below half that maximum (§4.7/§9, "guess_fwhm").
func GuessFWHM(x, y []float64) int {
	const minFWHM = 4

	if len(y) == 0 {
		return minFWHM
	}

	zz := snipBaseline(y, 1.0, 1000)

	yfit := make([]float64, len(y))
	for i := range y {
		yfit[i] = y[i] - zz[i]
	}

	posIndex := floats.MaxIdx(yfit)
	height := yfit[posIndex]

	if height <= 0 {
		if Verbose {
			fmt.Println("guess_fwhm: background-subtracted signal is non-positive, falling back to", minFWHM)
		}
		return minFWHM
	}

	imin := posIndex
	for imin > 0 && yfit[imin] > 0.5*height {
		imin--
	}

	imax := posIndex
	for imax < len(yfit)-1 && yfit[imax] > 0.5*height {
		imax++
	}

	fwhm := imax - imin - 1
	if fwhm < minFWHM {
		if Verbose {
			fmt.Println("guess_fwhm: half-max walk gave", fwhm, "< minimum, clamping to", minFWHM)
		}
		fwhm = minFWHM
	}

	return fwhm
}

// GuessYScaling estimates a multiplicative y-scaling factor from the local
// smoothness of the signal: a 3-point moving average is compared to the raw
// signal, and the scaling is the reciprocal of the resulting normalized
// chi-square (§6 glossary, "Yscaling").
func GuessYScaling(y []float64) float64 {
	if len(y) < 3 {
		return 1.0
	}

	var chisq float64
	n := 0

	for i := 1; i < len(y)-1; i++ {
		smoothed := (y[i-1] + y[i] + y[i+1]) / 3
		if math.Abs(y[i]) <= 0 {
			continue
		}

		d := y[i] - smoothed
		chisq += d * d / math.Abs(y[i])
		n++
	}

	if n == 0 || chisq == 0 {
		return 1.0
	}

	return float64(n) / chisq
}

// PeakSearch returns the indices of local maxima in y whose prominence over
// the local background exceeds sensitivity * noise, where noise is
// estimated from the signal's smoothed second difference. fwhm sets the
// minimum peak separation and smoothing window (§4.3 step 4).
func PeakSearch(y []float64, fwhm int, sensitivity float64) []int {
	n := len(y)
	if n == 0 || fwhm < 1 {
		return nil
	}

	half := fwhm / 2
	if half < 1 {
		half = 1
	}

	// Second difference at scale `half`, the discrete analogue of -y''
	// convolved with a window of width fwhm: positive at peaks, negative
	// in valleys.
	second := make([]float64, n)
	for i := 0; i < n; i++ {
		lo, hi := i-half, i+half
		if lo < 0 {
			lo = 0
		}
		if hi > n-1 {
			hi = n - 1
		}
		second[i] = 2*y[i] - y[lo] - y[hi]
	}

	noise := madNoise(second)
	threshold := sensitivity * noise

	var peaks []int
	i := 1
	for i < n-1 {
		if second[i] <= threshold || second[i] < second[i-1] || second[i] < second[i+1] {
			i++
			continue
		}

		// walk to the true local maximum of y within the plateau
		best := i
		j := i
		for j < n && second[j] > threshold {
			if y[j] > y[best] {
				best = j
			}
			j++
		}

		if len(peaks) == 0 || best-peaks[len(peaks)-1] >= half {
			peaks = append(peaks, best)
		}

		i = j + 1
	}

	return peaks
}

// madNoise estimates noise level as the median absolute deviation of v,
// scaled to be comparable to a standard deviation for roughly Gaussian
// noise (the usual 1.4826 factor).
func madNoise(v []float64) float64 {
	if len(v) == 0 {
		return 0
	}

	abs := make([]float64, len(v))
	copy(abs, v)
	med := median(abs)

	dev := make([]float64, len(v))
	for i, x := range v {
		dev[i] = math.Abs(x - med)
	}

	mad := median(dev)
	if mad == 0 {
		return 1e-12
	}

	return 1.4826 * mad
}

func median(v []float64) float64 {
	cp := append([]float64(nil), v...)
	floats.Sort(cp) //nolint:staticcheck // small slices; simplicity over micro-optimizing a sort call

	n := len(cp)
	if n == 0 {
		return 0
	}
	if n%2 == 1 {
		return cp[n/2]
	}

	return (cp[n/2-1] + cp[n/2]) / 2
}

// edgeKernelUp and edgeKernelDown are the 5-tap signed windows used by the
// step/slit estimators to turn a rising or falling edge into a peak before running the Gaussian height/position/FWHM
// estimator on the result (§4.3, step/slit estimators).
var edgeKernelUp = []float64{0.25, 0.75, 0, -0.75, -0.25}
var edgeKernelDown = []float64{-0.25, -0.75, 0, 0.75, 0.25}

// convolveEdge convolves y with a 5-tap kernel, same-length output, edges
// replicated from the nearest valid sample.
func convolveEdge(y []float64, kernel []float64) []float64 {
	n := len(y)
	half := len(kernel) / 2
	out := make([]float64, n)

	for i := 0; i < n; i++ {
		var sum float64
		for k, w := range kernel {
			idx := i + half - k
			if idx < 0 {
				idx = 0
			}
			if idx > n-1 {
				idx = n - 1
			}
			sum += w * y[idx]
		}
		out[i] = sum
	}

	return out
}
