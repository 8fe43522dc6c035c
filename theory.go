package specfit

// Evaluator sums k copies of a peak shape's base function: f(x, params) with
// len(params) == k*n for a theory whose per-peak parameter count is n.
type Evaluator func(x []float64, params []float64) []float64

// Estimator produces initial parameters and a constraint block from data,
// a background curve and a y-scaling factor, per §4.3.
type Estimator func(x, y, bg []float64, yscaling float64, cfg *Config) ([]float64, ConstraintBlock, error)

// Configurator lets a theory adjust the configuration store when selected or
// reconfigured; it returns the (possibly modified) key/value pairs to merge.
type Configurator func(cfg *Config) map[string]any

// Derivative computes d(model)/d(params[i]) at x, when a theory supplies an
// analytic derivative instead of relying on the solver's numeric fallback.
type Derivative func(params []float64, i int, x []float64) []float64

// TheoryEntry is the immutable descriptor for one peak-shape theory.
type TheoryEntry struct {
	Name        string
	N           int // parameters per peak
	ParamNames  []string
	Eval        Evaluator
	Estimate    Estimator
	Configure   Configurator
	Deriv       Derivative // optional, nil if unsupported
}

// BackgroundEntry is the analogous descriptor for a background model; it has
// no configurator or analytic derivative.
type BackgroundEntry struct {
	Name       string
	NParams    int
	ParamNames []string
	Eval       func(params, x []float64) []float64
	Estimate   func(x, y []float64, cfg *Config) ([]float64, ConstraintBlock, []float64, error)
}

// Registry is an insertion-ordered mapping from theory/background name to
// descriptor (§4.4). Insertion order is preserved in TheoryNames()/BackgroundNames()
// so plug-in import order is reproducible.
type Registry struct {
	theories    map[string]*TheoryEntry
	theoryOrder []string

	backgrounds    map[string]*BackgroundEntry
	backgroundOrder []string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{
		theories:    make(map[string]*TheoryEntry),
		backgrounds: make(map[string]*BackgroundEntry),
	}
}

// RegisterTheory adds or replaces a theory entry, preserving insertion order
// for new names.
func (r *Registry) RegisterTheory(t *TheoryEntry) {
	if _, exists := r.theories[t.Name]; !exists {
		r.theoryOrder = append(r.theoryOrder, t.Name)
	}

	r.theories[t.Name] = t
}

// RegisterBackground adds or replaces a background entry.
func (r *Registry) RegisterBackground(b *BackgroundEntry) {
	if _, exists := r.backgrounds[b.Name]; !exists {
		r.backgroundOrder = append(r.backgroundOrder, b.Name)
	}

	r.backgrounds[b.Name] = b
}

// Theory looks up a theory by name.
func (r *Registry) Theory(name string) (*TheoryEntry, error) {
	t, ok := r.theories[name]
	if !ok {
		return nil, Wrapperf(ErrUnknownTheory, "theory %q not registered", name)
	}

	return t, nil
}

// Background looks up a background by name.
func (r *Registry) Background(name string) (*BackgroundEntry, error) {
	b, ok := r.backgrounds[name]
	if !ok {
		return nil, Wrapperf(ErrUnknownBackground, "background %q not registered", name)
	}

	return b, nil
}

// Clone returns a shallow copy of r: independent maps and order slices, so
// RegisterTheory/RegisterBackground on the clone (e.g. to bind an entry's
// Eval/Estimate to a particular Driver's own state) never mutates r itself.
// The entries' function fields are copied by value, not deep-cloned.
func (r *Registry) Clone() *Registry {
	nr := NewRegistry()

	for _, name := range r.theoryOrder {
		t := *r.theories[name]
		nr.RegisterTheory(&t)
	}

	for _, name := range r.backgroundOrder {
		b := *r.backgrounds[name]
		nr.RegisterBackground(&b)
	}

	return nr
}

// TheoryNames returns the registered theory names in insertion order.
func (r *Registry) TheoryNames() []string {
	out := make([]string, len(r.theoryOrder))
	copy(out, r.theoryOrder)

	return out
}

// BackgroundNames returns the registered background names in insertion order.
func (r *Registry) BackgroundNames() []string {
	out := make([]string, len(r.backgroundOrder))
	copy(out, r.backgroundOrder)

	return out
}

// TheoryBundle is a plug-in module exposing parallel sequences THEORY,
// FUNCTION, PARAMETERS, ESTIMATE and optional CONFIGURE/DERIVATIVE/INIT (§6,
// "Plug-in theory bundle"). Every field is a slice; a single-theory bundle
// supplies length-1 slices, and scalar (non-slice) forms are not accepted.
type TheoryBundle struct {
	Theory     []string
	Function   []Evaluator
	Parameters [][]string
	Estimate   []Estimator
	Configure  []Configurator // optional; nil entries allowed
	Derivative []Derivative   // optional; nil entries allowed
	Init       []func() error // optional; invoked once on load, nil entries allowed
}

// ImportBundle registers every theory described by a bundle. Theory,
// Function, Parameters and Estimate must have the same length (equal-length
// ordered sequences, per §6); the optional Configure, Derivative and Init
// slices may be shorter, missing entries counting as nil. Any INIT
// hook is invoked once, before the theory it belongs to is registered; an
// error from INIT aborts the import.
func (r *Registry) ImportBundle(b TheoryBundle) error {
	n := len(b.Theory)

	if len(b.Function) != n || len(b.Parameters) != n || len(b.Estimate) != n {
		return Wrapperf(ErrShapeMismatch, "theory bundle: parallel sequences have unequal length (theory=%d function=%d parameters=%d estimate=%d)",
			n, len(b.Function), len(b.Parameters), len(b.Estimate))
	}

	for i := 0; i < n; i++ {
		if i < len(b.Init) && b.Init[i] != nil {
			if err := b.Init[i](); err != nil {
				return Wrapperf(err, "theory bundle: INIT failed for %q", b.Theory[i])
			}
		}

		entry := &TheoryEntry{
			Name:       b.Theory[i],
			N:          len(b.Parameters[i]),
			ParamNames: b.Parameters[i],
			Eval:       b.Function[i],
			Estimate:   b.Estimate[i],
		}

		if i < len(b.Configure) {
			entry.Configure = b.Configure[i]
		}
		if i < len(b.Derivative) {
			entry.Deriv = b.Derivative[i]
		}

		r.RegisterTheory(entry)
	}

	return nil
}
