package memory

// Params is a map-backed ports.ParameterStore.
type Params map[string]any

// Parameter returns the raw value stored under name.
func (p Params) Parameter(name string) (any, bool) {
	v, ok := p[name]
	return v, ok
}
