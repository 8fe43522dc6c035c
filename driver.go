package specfit

import "math"

// Driver couples a Sample, a theory/background selection, the parameter
// table, the solver and the event sink into the state machine of §3/§4.5:
// Idle -> EstimateInProgress -> ReadyToFit -> FitInProgress -> Ready.
type Driver struct {
	registry *Registry
	cfg      *Config
	sink     EventSink

	sample *Sample

	theoryName string
	bkgName    string

	params ParamList
	chisq  float64
	state  FitState

	// internalCache and sampleY back the Internal/Square Filter background
	// evaluators; hypermetCache is unnecessary since Hypermet reads its mask
	// straight from cfg. Both are owned by this Driver rather than shared
	// package state (§5, "the fit driver owns all mutable state"), so two
	// Drivers in concurrent use never race on each other's snip-baseline
	// memoization or sample data.
	internalCache *internalCache
	sampleY       []float64
}

// NewDriver returns a Driver bound to a private clone of the package's
// default registry, a fresh default configuration, and no event sink
// attached. The clone's Internal, Square Filter and Hypermet entries are
// rebound to this Driver's own state (see buildRegistry) so the resulting
// Driver can be used concurrently with any other.
func NewDriver(sink EventSink) *Driver {
	d := &Driver{
		cfg:           NewConfig(),
		sink:          sink,
		state:         Idle,
		internalCache: &internalCache{},
	}

	d.registry = d.buildRegistry()

	return d
}

// buildRegistry clones the default registry and rebinds the entries whose
// Eval/Estimate close over mutable state (the Internal/Square Filter
// background's sample+cache, Hypermet's mask) to this Driver instead of a
// package-level variable.
func (d *Driver) buildRegistry() *Registry {
	r := DefaultRegistry().Clone()

	if bg, err := r.Background("Internal"); err == nil {
		entry := *bg
		entry.Eval = d.evalInternalBackground
		entry.Estimate = d.estimateInternalBackground
		r.RegisterBackground(&entry)
	}

	if bg, err := r.Background("Square Filter"); err == nil {
		entry := *bg
		entry.Eval = d.evalSquareFilterBackground
		entry.Estimate = d.estimateSquareFilterBackground
		r.RegisterBackground(&entry)
	}

	if th, err := r.Theory("Hypermet"); err == nil {
		entry := *th
		entry.Eval = d.evalHypermet
		r.RegisterTheory(&entry)
	}

	return r
}

func (d *Driver) evalInternalBackground(params, x []float64) []float64 {
	return evalInternalBackground(d.internalCache, d.sampleY, params, x)
}

func (d *Driver) estimateInternalBackground(x, y []float64, cfg *Config) ([]float64, ConstraintBlock, []float64, error) {
	d.sampleY = y
	return estimateInternalBackground(d.internalCache, x, y, cfg)
}

func (d *Driver) evalSquareFilterBackground(params, x []float64) []float64 {
	return evalSquareFilterBackground(d.sampleY, params, x)
}

func (d *Driver) estimateSquareFilterBackground(x, y []float64, cfg *Config) ([]float64, ConstraintBlock, []float64, error) {
	d.sampleY = y
	return estimateSquareFilterBackground(x, y, cfg)
}

// evalHypermet reads the active mask straight from this Driver's own Config
// rather than any shared state, so two Drivers configured with different
// HypermetTails never interfere with each other's evaluation.
func (d *Driver) evalHypermet(params, x []float64) []float64 {
	return evalHypermetMasked(x, params, d.cfg.Int("hypermettails"))
}

// State returns the driver's current fit state.
func (d *Driver) State() FitState { return d.state }

// Chisq returns the last fit's chi-square; only meaningful in state Ready.
func (d *Driver) Chisq() float64 { return d.chisq }

// Params returns the current parameter table.
func (d *Driver) Params() ParamList { return d.params }

// SetData replaces the working buffers and stores the originals verbatim
// (§4.5, "set_data"). theory and bkg select the active entries by name.
func (d *Driver) SetData(x, y, sigma []float64, theory, bkg string) error {
	s, err := NewSample(x, y, sigma)
	if err != nil {
		return err
	}

	if _, err := d.registry.Theory(theory); err != nil {
		return err
	}
	if bkg != "" {
		if _, err := d.registry.Background(bkg); err != nil {
			return err
		}
	}

	d.sample = s
	d.theoryName = theory
	d.bkgName = bkg
	d.state = Idle

	return nil
}

// SetWindow restricts the driver's working view (§3, "Sample set").
func (d *Driver) SetWindow(xmin, xmax float64) {
	if d.sample != nil {
		d.sample.SetWindow(xmin, xmax)
	}
}

// Configure merges kwargs into the configuration store with
// case-insensitive key matching; invokes the active theory's configurator
// if it has one, re-selecting fitbkg/fittheory when those keys changed
// (§4.5, "configure(**kwargs)").
func (d *Driver) Configure(kwargs map[string]any) error {
	if err := d.cfg.Merge(kwargs); err != nil {
		return err
	}

	if t, err := d.registry.Theory(d.theoryName); err == nil && t.Configure != nil {
		if extra := t.Configure(d.cfg); extra != nil {
			if err := d.cfg.Merge(extra); err != nil {
				return err
			}
		}
	}

	if nt := d.cfg.String("fittheory"); nt != "" && nt != d.theoryName {
		if _, err := d.registry.Theory(nt); err != nil {
			return err
		}
		d.theoryName = nt
	}

	if nb := d.cfg.String("fitbkg"); nb != "" && nb != d.bkgName {
		if _, err := d.registry.Background(nb); err != nil {
			return err
		}
		d.bkgName = nb
	}

	return nil
}

// Estimate runs the estimation pipeline of §4.5 "estimate()": background
// estimate, yscaling resolution, theory estimate, parameter table assembly.
func (d *Driver) Estimate() error {
	if d.sample == nil {
		return Wrapperf(ErrInvalidConfiguration, "estimate: no data set")
	}

	emit(d.sink, EstimateInProgress, 0)
	d.state = EstimateInProgress

	x, y := d.sample.X(), d.sample.Y()

	bgEntry, bgNames, bgValues, bgCons, bgCurve, err := d.estimateBackground(x, y)
	if err != nil {
		return err
	}

	yscaling := d.cfg.Float("yscaling")
	if d.cfg.Bool("autoscaling") {
		yscaling = GuessYScaling(y)
	}
	if yscaling == 0 {
		yscaling = 1
	}

	theory, err := d.registry.Theory(d.theoryName)
	if err != nil {
		return err
	}

	peakValues, peakCons, err := theory.Estimate(x, y, bgCurve, yscaling, d.cfg)
	if err != nil {
		return err
	}

	pl, err := buildParamList(bgNames, bgValues, bgCons, theory.ParamNames, theory.N, peakValues, peakCons)
	if err != nil {
		return err
	}

	d.params = pl
	_ = bgEntry
	d.state = ReadyToFit
	emit(d.sink, ReadyToFit, 0)

	return nil
}

func (d *Driver) estimateBackground(x, y []float64) (*BackgroundEntry, []string, []float64, ConstraintBlock, []float64, error) {
	if d.bkgName == "" {
		return nil, nil, []float64{}, ConstraintBlock{}, make([]float64, len(y)), nil
	}

	bg, err := d.registry.Background(d.bkgName)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}

	values, cons, curve, err := bg.Estimate(x, y, d.cfg)
	if err != nil {
		return nil, nil, nil, nil, nil, err
	}

	if curve == nil {
		curve = make([]float64, len(y))
	}

	return bg, bg.ParamNames, values, cons, curve, nil
}

// FitFunction sums the active theory's evaluator over the peak groups and
// adds the background evaluator, per §4.5 "fitfunction(params, x)". n_bg is
// the number of background parameters currently in the table.
func (d *Driver) FitFunction(params, x []float64) ([]float64, error) {
	theory, err := d.registry.Theory(d.theoryName)
	if err != nil {
		return nil, err
	}

	nBg := 0
	if d.bkgName != "" {
		bg, err := d.registry.Background(d.bkgName)
		if err != nil {
			return nil, err
		}
		nBg = bg.NParams
	}

	if nBg > len(params) {
		return nil, Wrapperf(ErrShapeMismatch, "fitfunction: %d params shorter than background's %d", len(params), nBg)
	}

	bgParams, peakParams := params[:nBg], params[nBg:]

	out := make([]float64, len(x))

	if d.bkgName != "" {
		bg, _ := d.registry.Background(d.bkgName)
		if bg.Name == "Internal" || bg.Name == "Square Filter" {
			d.sampleY = d.sample.Y()
		}
		bgCurve := bg.Eval(bgParams, x)
		for i := range out {
			out[i] += bgCurve[i]
		}
	}

	peakCurve := theory.Eval(peakParams, x)
	for i := range out {
		out[i] += peakCurve[i]
	}

	return out, nil
}

// GenerateCurve evaluates FitFunction over x using the current fitted
// parameters (or the supplied params/x when given), skipping IGNOREd
// parameters by substituting their fixed value directly (they already carry
// it; IGNORE differs from FIXED only in the solver's reparameterization
// treatment, so evaluation is identical) (§4.5, "generate_curve").
func (d *Driver) GenerateCurve(x, params []float64) ([]float64, error) {
	if x == nil {
		if d.sample == nil {
			return nil, Wrapperf(ErrInvalidConfiguration, "generate_curve: no data set")
		}
		x = d.sample.X()
	}

	if params == nil {
		params = d.params.FitValues()
	}

	return d.FitFunction(params, x)
}

// StartFit runs the fit: background+peak parameter list from Estimate,
// solve via the external solver contract, write back fitresult/sigma, store
// chisq, transition to Ready (§4.5 "start_fit").
func (d *Driver) StartFit() error {
	if d.state != ReadyToFit {
		return Wrapperf(ErrInvalidConfiguration, "start_fit: driver not in ReadyToFit (state=%s)", d.state)
	}

	d.state = FitInProgress
	emit(d.sink, FitInProgress, 0)

	x, y, sigma := d.sample.X(), d.sample.Y(), d.sample.Sigma()
	p0 := d.params.Values()
	cons := d.params.Constraints()

	if d.bkgName == "Internal" || d.bkgName == "Square Filter" {
		d.sampleY = y
	}

	model := func(params, xs []float64) []float64 {
		out, err := d.FitFunction(params, xs)
		if err != nil {
			return make([]float64, len(xs))
		}
		return out
	}

	theory, err := d.registry.Theory(d.theoryName)
	if err != nil {
		d.state = Ready
		emit(d.sink, Ready, math.NaN())
		return err
	}

	nBg := 0
	if d.bkgName != "" {
		bg, err := d.registry.Background(d.bkgName)
		if err != nil {
			d.state = Ready
			emit(d.sink, Ready, math.NaN())
			return err
		}
		nBg = bg.NParams
	}

	// §4.5 step 2: use the theory's analytic derivative when it supplies
	// one, falling back to NumDeriv otherwise. Background parameters have
	// no analytic derivative, so they always go through NumDeriv.
	modelDeriv := func(params []float64, i int, xs []float64) []float64 {
		if i >= nBg && theory.Deriv != nil {
			return theory.Deriv(params[nBg:], i-nBg, xs)
		}
		return NumDeriv(model, params, i, xs)
	}

	pFit, chisq, sigmaP, err := Solve(model, x, y, p0, sigma, cons, modelDeriv)
	if err != nil {
		d.state = Ready
		emit(d.sink, Ready, math.NaN())
		return err
	}

	for i, p := range d.params {
		p.FitResult = pFit[i]
		if p.Constraint.Code != Ignore {
			p.Sigma = sigmaP[i]
		}
	}

	d.chisq = chisq
	d.state = Ready
	emit(d.sink, Ready, chisq)

	return nil
}
