package specfit

import (
	"math"
	"sort"
	"strings"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/stat"
)

// Region is one contiguous segment of the spectrum discovered by MCA mode
// region grouping (§4.6 step 2).
type Region struct {
	XMin, XMax float64
}

// RegionResult reports one region's outcome: its fitted parameter table,
// chisq, and per-peak areas computed by numerical integration (§4.6 step 5).
type RegionResult struct {
	Region Region
	Params ParamList
	Chisq  float64
	Areas  []float64
}

// McaFit runs the residual-driven multi-region fit of §4.6: smooth y,
// determine a search fwhm, discover regions by clustering peaks, and fit
// each region independently, growing it from residuals while
// ResidualsFlag is set and chisq stays above 2.5.
func (d *Driver) McaFit() ([]RegionResult, error) {
	if d.sample == nil {
		return nil, Wrapperf(ErrInvalidConfiguration, "mca_fit: no data set")
	}

	x, y, _ := d.sample.Original()

	var yscaling float64 = 1
	if d.cfg.Bool("autoscaling") {
		yscaling = GuessYScaling(y)
	}

	var fwhm int
	if d.cfg.Bool("autofwhm") {
		fwhm = GuessFWHM(x, y)
	} else {
		fwhm = d.cfg.Int("fwhmpoints")
	}
	if fwhm < 3 {
		fwhm = 3
	}

	smoothed := snipBaseline(y, 1.0, 1000)
	residualY := make([]float64, len(y))
	for i := range y {
		residualY[i] = math.Abs(y[i]-smoothed[i]) * yscaling
	}

	sensitivity := d.cfg.Float("sensitivity")
	if sensitivity < 1 {
		sensitivity = 1
	}

	peaks := PeakSearch(residualY, fwhm, sensitivity)
	if len(peaks) == 0 {
		return nil, nil
	}

	regions := groupRegions(x, peaks, fwhm)

	results := make([]RegionResult, 0, len(regions))

	for _, r := range regions {
		d.SetWindow(r.XMin, r.XMax)

		if err := d.Estimate(); err != nil {
			d.sample.ClearWindow()
			return nil, err
		}

		if err := d.StartFit(); err != nil {
			d.sample.ClearWindow()
			return nil, err
		}

		if d.cfg.Int("residualsflag") != 0 {
			for d.chisq > 2.5 {
				grew, err := d.mcaResidualsSearch(fwhm)
				if err != nil {
					break
				}
				if !grew {
					break
				}

				d.state = ReadyToFit
				if err := d.StartFit(); err != nil {
					break
				}
			}
		}

		results = append(results, RegionResult{
			Region: r,
			Params: d.params,
			Chisq:  d.chisq,
			Areas:  d.regionAreas(),
		})
	}

	d.sample.ClearWindow()

	return results, nil
}

// meanSpacing estimates the sample spacing of x as the mean of its
// successive absolute differences (gonum/stat.Mean), the same "extremum or
// summary statistic over a slice" class of concern peaksearch.go covers with
// gonum/floats and background.go covers with gonum/stat.LinearRegression.
func meanSpacing(x []float64) float64 {
	if len(x) < 2 {
		return 1
	}

	diffs := make([]float64, len(x)-1)
	for i := 1; i < len(x); i++ {
		diffs[i-1] = math.Abs(x[i] - x[i-1])
	}

	spacing := stat.Mean(diffs, nil)
	if spacing == 0 {
		return 1
	}

	return spacing
}

// groupRegions expands each peak index by ±3*fwhm in x and merges
// overlapping windows (§4.6 step 2).
func groupRegions(x []float64, peaks []int, fwhm int) []Region {
	spacing := meanSpacing(x)

	half := 3 * float64(fwhm) * spacing

	sorted := append([]int(nil), peaks...)
	sort.Ints(sorted)

	var regions []Region

	for _, p := range sorted {
		xi := x[p]
		lo, hi := xi-half, xi+half

		if len(regions) > 0 && lo <= regions[len(regions)-1].XMax {
			if hi > regions[len(regions)-1].XMax {
				regions[len(regions)-1].XMax = hi
			}
			continue
		}

		regions = append(regions, Region{XMin: lo, XMax: hi})
	}

	return regions
}

// mcaResidualsSearch implements §4.6 step 4: compute normalized residuals,
// mask windows around existing peaks, pick the argmax residual as a new
// peak seed, and append a new parameter group tied to the first FWHM. It
// returns grew=false when no new peak clears the mask.
func (d *Driver) mcaResidualsSearch(fwhm int) (grew bool, err error) {
	x, y, sigma := d.sample.X(), d.sample.Y(), d.sample.Sigma()

	yfit, err := d.GenerateCurve(x, d.params.FitValues())
	if err != nil {
		return false, err
	}

	resid := make([]float64, len(y))
	for i := range y {
		s := sigma[i]
		if s == 0 {
			s = 1
		}
		resid[i] = (y[i] - yfit[i]) / s
	}

	spacing := meanSpacing(x)

	maskHalf := 0.8 * float64(fwhm) * spacing

	mask := make([]bool, len(x))
	for _, p := range d.params {
		if p.Group == 0 || p.Constraint.Code == Ignore {
			continue
		}
		pos := p.FitResult
		for i, xi := range x {
			if math.Abs(xi-pos) <= maskHalf {
				mask[i] = true
			}
		}
	}

	// Masked argmax: the same "extremum over a slice" task peaksearch.go
	// solves with floats.MaxIdx, here over a copy with masked windows driven
	// to -Inf so they can never win.
	candidate := make([]float64, len(resid))
	copy(candidate, resid)
	for i, masked := range mask {
		if masked {
			candidate[i] = math.Inf(-1)
		}
	}

	best := floats.MaxIdx(candidate)
	bestVal := candidate[best]

	if math.IsInf(bestVal, -1) || bestVal <= 0 {
		return false, nil
	}

	theory, err := d.registry.Theory(d.theoryName)
	if err != nil {
		return false, err
	}

	firstFWHMIdx := -1
	for i, p := range d.params {
		if p.Group == 1 && strings.HasPrefix(p.Name, "FWHM") {
			firstFWHMIdx = i
			break
		}
	}

	height := y[best] - yfit[best]
	pos := x[best]
	width := float64(fwhm) * spacing

	newGroup := d.params.GroupCount() + 1
	added := make(ParamList, 0, theory.N)

	for _, name := range theory.ParamNames {
		var v float64
		var cons Constraint

		switch name {
		case "Height":
			v = height
			cons = Constraint{Code: Free}
		case "Area":
			v = heightToAreaGauss(height, width)
			cons = Constraint{Code: Free}
		case "Position":
			v = pos
			cons = Constraint{Code: Quoted, C1: pos - 0.5*float64(fwhm)*spacing, C2: pos + 0.5*float64(fwhm)*spacing}
		case "FWHM":
			v = width
			if firstFWHMIdx >= 0 {
				cons = Constraint{Code: Factor, C1: float64(firstFWHMIdx), C2: 1.0}
			} else {
				cons = Constraint{Code: Positive}
			}
		default:
			v = 0
			cons = Constraint{Code: Free}
		}

		added = append(added, &Parameter{Name: name, Group: newGroup, Estimate: v, Constraint: cons})
	}

	d.params = append(d.params, added...)

	if err := d.params.Constraints().Validate(len(d.params)); err != nil {
		d.params = d.params[:len(d.params)-theory.N]
		return false, err
	}

	return true, nil
}

// regionAreas integrates y - bg_predicted over [pos-3.99*sigma,
// pos+3.99*sigma] for every peak group in the current parameter table
// (§4.6 step 5).
func (d *Driver) regionAreas() []float64 {
	x, y := d.sample.X(), d.sample.Y()

	nBg := 0
	for _, p := range d.params {
		if p.Group == 0 {
			nBg++
		}
	}

	bgParams := d.params[:nBg].FitValues()

	var bgCurve []float64
	if d.bkgName != "" {
		bg, err := d.registry.Background(d.bkgName)
		if err == nil {
			bgCurve = bg.Eval(bgParams, x)
		}
	}
	if bgCurve == nil {
		bgCurve = make([]float64, len(x))
	}

	nGroups := d.params.GroupCount()
	areas := make([]float64, 0, nGroups)

	for g := 1; g <= nGroups; g++ {
		grp := d.params.InGroup(g)

		var pos, fwhm float64 = 0, 0
		for _, p := range grp {
			switch {
			case strings.HasPrefix(p.Name, "Position"):
				pos = p.FitResult
			case strings.HasPrefix(p.Name, "FWHM"):
				if fwhm == 0 {
					fwhm = p.FitResult
				}
			}
		}

		sigma := fwhmToSigma(fwhm)
		lo, hi := pos-3.99*sigma, pos+3.99*sigma

		var area float64
		for i, xi := range x {
			if xi < lo || xi > hi {
				continue
			}

			width := 0.0
			if i > 0 {
				width += (x[i] - x[i-1]) / 2
			}
			if i < len(x)-1 {
				width += (x[i+1] - x[i]) / 2
			}
			if width == 0 {
				width = 1
			}

			area += (y[i] - bgCurve[i]) * width
		}

		areas = append(areas, area)
	}

	return areas
}
