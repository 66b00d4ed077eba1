package domain

// Phase is the lifecycle phase of a block instance.
type Phase int

const (
	PhaseUninitialized Phase = iota // Created, no connection
	PhaseConnected                  // Connection open and events registered
	PhaseTerminated                 // Connection released; terminal
)

func (p Phase) String() string {
	switch p {
	case PhaseConnected:
		return "connected"
	case PhaseTerminated:
		return "terminated"
	default:
		return "uninitialized"
	}
}
