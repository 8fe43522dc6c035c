// Package specfit implements a multi-peak nonlinear curve-fitting engine for
// one-dimensional scientific data (intensity vs. energy or position).
//
// Given a sampled signal, a chosen background model and a chosen peak model,
// specfit estimates initial parameters and inter-parameter constraints, runs
// a constrained least-squares fit, and reports fitted parameters,
// uncertainties and peak areas. It also supports an MCA mode that segments a
// spectrum into regions and discovers additional peaks from fit residuals.
package specfit

// Verbose controls whether peak-search (peaksearch.go's GuessFWHM) and
// estimation heuristics (estimator.go's estimateHeightPositionFWHM) print
// diagnostic notices when a fallback or clamp kicks in (e.g. a clamped
// sensitivity or a synthesized peak), mirroring the teacher's own
// package-level Verbose toggle (seafan.go, read in ch.go/nn.go). The fit
// driver itself never writes to stdout; all state transitions are reported
// through the EventSink passed to NewDriver.
var Verbose = false
