package specfit

import "fmt"

// Sample holds the three equal-length real sequences a fit operates on:
// abscissa x, ordinate y and per-point uncertainty sigma. It also tracks an
// optional (xmin, xmax) working window; the working view is always a
// contiguous subsequence of the originals, which are retained verbatim.
type Sample struct {
	x, y, sigma       []float64 // originals, never mutated elementwise
	wx, wy, wsigma    []float64 // working view (possibly windowed)
	xmin, xmax        float64
	windowed          bool
}

// NewSample builds a Sample from x, y and an optional sigma (defaulting to 1
// at every point). It returns ErrShapeMismatch if x and y differ in length,
// or sigma is supplied with a different length than x.
func NewSample(x, y, sigma []float64) (*Sample, error) {
	if len(x) != len(y) {
		return nil, Wrapperf(ErrShapeMismatch, "NewSample: x has length %d, y has length %d", len(x), len(y))
	}

	if sigma != nil && len(sigma) != len(x) {
		return nil, Wrapperf(ErrShapeMismatch, "NewSample: sigma has length %d, expected %d", len(sigma), len(x))
	}

	s := &Sample{x: x, y: y}

	if sigma == nil {
		s.sigma = make([]float64, len(x))
		for i := range s.sigma {
			s.sigma[i] = 1
		}
	} else {
		s.sigma = sigma
	}

	s.wx, s.wy, s.wsigma = s.x, s.y, s.sigma

	return s, nil
}

// SetWindow restricts the working view to the contiguous subsequence of the
// originals with xmin <= x <= xmax. An empty range yields degenerate
// (zero-length) working slices rather than an error, per the DegenerateData
// handling in §7.
func (s *Sample) SetWindow(xmin, xmax float64) {
	s.windowed = true
	s.xmin, s.xmax = xmin, xmax

	lo, hi := 0, len(s.x)
	for lo < hi && s.x[lo] < xmin {
		lo++
	}
	for hi > lo && s.x[hi-1] > xmax {
		hi--
	}

	s.wx, s.wy, s.wsigma = s.x[lo:hi], s.y[lo:hi], s.sigma[lo:hi]
}

// ClearWindow resets the working view to the full originals.
func (s *Sample) ClearWindow() {
	s.windowed = false
	s.wx, s.wy, s.wsigma = s.x, s.y, s.sigma
}

// X, Y, Sigma return the current working view.
func (s *Sample) X() []float64 { return s.wx }
func (s *Sample) Y() []float64 { return s.wy }
func (s *Sample) Sigma() []float64 { return s.wsigma }

// Len returns the number of points in the working view.
func (s *Sample) Len() int { return len(s.wx) }

// Original returns the unwindowed x, y, sigma.
func (s *Sample) Original() (x, y, sigma []float64) { return s.x, s.y, s.sigma }

func (s *Sample) String() string {
	if s == nil {
		return "<nil sample>"
	}

	if s.windowed {
		return fmt.Sprintf("Sample: %d points (%d in window [%g, %g])", len(s.x), s.Len(), s.xmin, s.xmax)
	}

	return fmt.Sprintf("Sample: %d points", len(s.x))
}
