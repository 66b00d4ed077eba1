package domain

// Channel is an output port index.
type Channel int

const (
	ChannelMaster Channel = iota
	ChannelMasterOff
	ChannelHeadingSlot
	ChannelAltitudeSlot
	ChannelPanelVS
	ChannelLocHold
	ChannelApproachHold
)

// ChannelCount is the number of scalar output ports.
const ChannelCount = 7

var channelNames = [ChannelCount]string{
	"ap_master",
	"ap_master_off",
	"heading_slot_index",
	"altitude_slot_index",
	"ap_panel_vs_on",
	"ap_loc_hold",
	"ap_apr_hold",
}

func (c Channel) String() string {
	if c < 0 || int(c) >= ChannelCount {
		return "unknown"
	}
	return channelNames[c]
}

// RuleKind selects how an event updates its channel.
type RuleKind uint8

const (
	// RulePulse sets the channel to 1. Repeated firings within a step collapse.
	RulePulse RuleKind = iota
	// RuleValue copies the event payload. Last write within a step wins.
	RuleValue
)

func (k RuleKind) String() string {
	if k == RuleValue {
		return "value"
	}
	return "pulse"
}

// Rule binds an event index to an output channel.
type Rule struct {
	Channel Channel
	Kind    RuleKind
}

// eventTable is the dispatch table. Indices 6 and 7 share ChannelApproachHold.
var eventTable = map[EventID]Rule{
	0: {Channel: ChannelMaster, Kind: RulePulse},
	1: {Channel: ChannelMasterOff, Kind: RulePulse},
	2: {Channel: ChannelHeadingSlot, Kind: RuleValue},
	3: {Channel: ChannelAltitudeSlot, Kind: RuleValue},
	4: {Channel: ChannelPanelVS, Kind: RulePulse},
	5: {Channel: ChannelLocHold, Kind: RulePulse},
	6: {Channel: ChannelApproachHold, Kind: RulePulse},
	7: {Channel: ChannelApproachHold, Kind: RulePulse},
}

// RuleFor returns the update rule for a local event index.
func RuleFor(id EventID) (Rule, bool) {
	r, ok := eventTable[id]
	return r, ok
}

var defaultBindings = []Binding{
	{ID: 0, Name: "AP_MASTER", Masked: true},
	{ID: 1, Name: "AUTOPILOT_OFF"},
	{ID: 2, Name: "HEADING_SLOT_INDEX_SET"},
	{ID: 3, Name: "ALTITUDE_SLOT_INDEX_SET"},
	{ID: 4, Name: "AP_PANEL_VS_ON"},
	{ID: 5, Name: "AP_LOC_HOLD"},
	{ID: 6, Name: "AP_LOC_HOLD_OFF"},
	{ID: 7, Name: "AP_APR_HOLD_ON"},
}

// DefaultBindings returns a copy of the static event bindings.
func DefaultBindings() []Binding {
	out := make([]Binding, len(defaultBindings))
	copy(out, defaultBindings)
	return out
}
