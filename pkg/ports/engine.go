package ports

// ParameterStore provides block parameters keyed by name.
type ParameterStore interface {
	// Parameter returns the raw value of a parameter and whether it exists.
	Parameter(name string) (any, bool)
}

// OutputSignal is a typed handle on one output port.
type OutputSignal interface {
	// Set writes a scalar at the given element index.
	// It returns false when the index is out of range.
	Set(index int, value float64) bool
}

// SignalResolver fetches output signal handles for the current step.
type SignalResolver interface {
	// OutputSignal returns the handle for an output port, or false if it cannot be resolved.
	OutputSignal(index int) (OutputSignal, bool)
}
