package domain

// Outputs is one value per output channel.
type Outputs [ChannelCount]float64

// Accumulator holds the per-channel state written while draining a step's records.
// The zero value is the idle baseline.
type Accumulator struct {
	values Outputs
}

// Apply updates the accumulator from a single record.
// It returns false for non-event records and unknown indices, which leave it untouched.
func (a *Accumulator) Apply(rec Record) bool {
	if rec.Kind != RecordEvent {
		return false
	}
	rule, ok := RuleFor(rec.EventID)
	if !ok {
		return false
	}
	switch rule.Kind {
	case RuleValue:
		a.values[rule.Channel] = float64(rec.Data)
	default:
		a.values[rule.Channel] = 1
	}
	return true
}

// Values returns a copy of the current channel values.
func (a *Accumulator) Values() Outputs {
	return a.values
}

// Reset returns every channel to 0.
func (a *Accumulator) Reset() {
	a.values = Outputs{}
}

// Drain applies a finite sequence of records to acc and returns the result.
// acc is passed by value, so the caller's copy is never modified.
func Drain(records []Record, acc Accumulator) Accumulator {
	for _, rec := range records {
		acc.Apply(rec)
	}
	return acc
}
