package specfit

// defaultRegistry is populated by each model file's init() with its theory
// and background entries. DefaultRegistry returns it; NewDriver gives each
// Driver its own clone of it.
var defaultRegistry = NewRegistry()

// DefaultRegistry returns the package's built-in catalogue of theories and
// backgrounds (§4.1, §4.7).
func DefaultRegistry() *Registry {
	return defaultRegistry
}
