package specfit

import (
	"reflect"
	"strings"

	"github.com/invertedv/utilities"
)

// Config is the tuning-parameter store read by estimators and the fit
// driver (§4, "Configuration"). Keys are matched case-insensitively, as in
// the original's configure(**kwargs) (SPEC_FULL.md §6).
type Config struct {
	vals map[string]any
}

// NewConfig returns a Config populated with the defaults enumerated in §6.
func NewConfig() *Config {
	c := &Config{vals: map[string]any{
		// Peak search
		"autofwhm":          false,
		"fwhmpoints":        8,
		"sensitivity":       2.5,
		"forcepeakpresence": false,
		"autoscaling":       false,
		"yscaling":          1.0,
		"xscaling":          1.0,

		// Constraint toggles
		"noconstraintsflag":     false,
		"positiveheightareaflag": true,
		"positivefwhmflag":      true,
		"samefwhmflag":          false,
		"quotedpositionflag":    false,
		"quotedetaflag":         false,

		// Hypermet mask & positions
		"hypermettails":              15,
		"hypermetquotedpositionflag": true,
		"deltapositionfwhmunits":     0.5,
		"samesloperatioflag":         true,
		"samearearatioflag":          true,
		"quotedfwhmflag":             0,
		"maxfwhm2inputratio":         1.5,
		"minfwhm2inputratio":         0.4,

		// Hypermet short tail
		"mingaussarea4shorttail":       50000.0,
		"initialshorttailarearatio":    0.05,
		"shorttailarearatiomax":        0.1,
		"shorttailarearatiomin":        0.001,
		"initialshorttailsloperatio":   0.7,
		"shorttailsloperatiomax":       2.0,
		"shorttailsloperatiomin":       0.5,

		// Hypermet long tail
		"mingaussarea4longtail":      1000.0,
		"initiallongtailarearatio":   0.05,
		"longtailarearatiomax":       0.3,
		"longtailarearatiomin":       0.01,
		"initiallongtailsloperatio":  20.0,
		"longtailsloperatiomax":      50.0,
		"longtailsloperatiomin":      5.0,

		// Hypermet step
		"mingaussheight4steptail":     5000.0,
		"initialsteptailheightratio":  0.002,
		"steptailheightratiomax":      0.01,
		"steptailheightratiomin":      0.0001,

		// MCA
		"mcamode":       0,
		"residualsflag": 0,
		"fittheory":     "",
		"fitbkg":        "",
	}}

	return c
}

func lowerKey(key string) string { return strings.ToLower(key) }

// Get returns the raw value stored for key and whether it was present.
func (c *Config) Get(key string) (any, bool) {
	v, ok := c.vals[lowerKey(key)]
	return v, ok
}

// Set stores value under key (case-insensitively), coercing it to the kind
// of any value already stored under that key via utilities.Any2Kind. New
// keys are stored as-is.
func (c *Config) Set(key string, value any) error {
	k := lowerKey(key)

	existing, ok := c.vals[k]
	if !ok {
		c.vals[k] = value
		return nil
	}

	coerced, err := utilities.Any2Kind(value, reflect.TypeOf(existing).Kind())
	if err != nil {
		return Wrapperf(ErrInvalidConfiguration, "key %s: cannot coerce %v to %T: %v", key, value, existing, err)
	}

	c.vals[k] = coerced

	return nil
}

// Merge applies a set of key/value pairs, per §4.5 configure()'s
// case-insensitive kwarg merge. It clamps rather than errors for the
// heuristics enumerated in §7 (sensitivity, FWHM) and surfaces true type
// mismatches as ErrInvalidConfiguration.
func (c *Config) Merge(kwargs map[string]any) error {
	for k, v := range kwargs {
		if err := c.Set(k, v); err != nil {
			return err
		}
	}

	c.clamp()

	return nil
}

// clamp enforces the defensive bounds from §7: sensitivity >= 1, FwhmPoints
// floored at 3, Yscaling 0 replaced with 1.
func (c *Config) clamp() {
	if s := c.Float("sensitivity"); s < 1 {
		c.vals["sensitivity"] = 1.0
	}
	if f := c.Int("fwhmpoints"); f < 3 {
		c.vals["fwhmpoints"] = 3
	}
	if y := c.Float("yscaling"); y == 0 {
		c.vals["yscaling"] = 1.0
	}
}

// Bool, Int, Float, String are typed accessors returning the zero value if
// the key is absent or of a different underlying kind.
func (c *Config) Bool(key string) bool {
	v, _ := c.Get(key)
	b, _ := v.(bool)

	return b
}

func (c *Config) Int(key string) int {
	v, _ := c.Get(key)

	switch n := v.(type) {
	case int:
		return n
	case float64:
		return int(n)
	default:
		return 0
	}
}

func (c *Config) Float(key string) float64 {
	v, _ := c.Get(key)

	switch n := v.(type) {
	case float64:
		return n
	case int:
		return float64(n)
	default:
		return 0
	}
}

func (c *Config) String(key string) string {
	v, _ := c.Get(key)
	s, _ := v.(string)

	return s
}

// Snapshot returns a shallow copy suitable for read-only use during a single
// estimate -> start_fit cycle (§5: the caller must not mutate it
// concurrently).
func (c *Config) Snapshot() *Config {
	out := &Config{vals: make(map[string]any, len(c.vals))}
	for k, v := range c.vals {
		out.vals[k] = v
	}

	return out
}
