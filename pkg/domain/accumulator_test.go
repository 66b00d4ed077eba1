package domain_test

import (
	"testing"

	"github.com/aretw0/simevents/pkg/domain"
	"github.com/stretchr/testify/assert"
)

func TestRuleFor_Table(t *testing.T) {
	tests := []struct {
		id      domain.EventID
		channel domain.Channel
		kind    domain.RuleKind
	}{
		{0, domain.ChannelMaster, domain.RulePulse},
		{1, domain.ChannelMasterOff, domain.RulePulse},
		{2, domain.ChannelHeadingSlot, domain.RuleValue},
		{3, domain.ChannelAltitudeSlot, domain.RuleValue},
		{4, domain.ChannelPanelVS, domain.RulePulse},
		{5, domain.ChannelLocHold, domain.RulePulse},
		{6, domain.ChannelApproachHold, domain.RulePulse},
		{7, domain.ChannelApproachHold, domain.RulePulse},
	}

	for _, tt := range tests {
		rule, ok := domain.RuleFor(tt.id)
		assert.True(t, ok, "event %d should have a rule", tt.id)
		assert.Equal(t, tt.channel, rule.Channel, "event %d channel", tt.id)
		assert.Equal(t, tt.kind, rule.Kind, "event %d kind", tt.id)
	}

	_, ok := domain.RuleFor(8)
	assert.False(t, ok)
}

func TestDefaultBindings_CoverTable(t *testing.T) {
	bindings := domain.DefaultBindings()
	assert.Len(t, bindings, 8)

	for _, b := range bindings {
		_, ok := domain.RuleFor(b.ID)
		assert.True(t, ok, "binding %s has no rule", b)
	}
	assert.True(t, bindings[0].Masked, "AP_MASTER is masked")
	for _, b := range bindings[1:] {
		assert.False(t, b.Masked, "%s should pass through", b)
	}

	// Mutating the copy must not leak into the static table.
	bindings[0].Name = "changed"
	assert.Equal(t, "AP_MASTER", domain.DefaultBindings()[0].Name)
}

func TestDrain_Example(t *testing.T) {
	records := []domain.Record{
		domain.EventRecord(0, 0),
		domain.EventRecord(2, 3),
		domain.EventRecord(7, 0),
	}

	acc := domain.Drain(records, domain.Accumulator{})
	assert.Equal(t, domain.Outputs{1, 0, 3, 0, 0, 0, 1}, acc.Values())

	acc.Reset()
	acc = domain.Drain(nil, acc)
	assert.Equal(t, domain.Outputs{}, acc.Values())
}

func TestDrain_PulseCollapses(t *testing.T) {
	records := []domain.Record{
		domain.EventRecord(4, 0),
		domain.EventRecord(4, 99),
		domain.EventRecord(4, 0),
	}
	acc := domain.Drain(records, domain.Accumulator{})
	assert.Equal(t, 1.0, acc.Values()[domain.ChannelPanelVS])
}

func TestDrain_ValueLastWriteWins(t *testing.T) {
	records := []domain.Record{
		domain.EventRecord(3, 10),
		domain.EventRecord(3, 2),
		domain.EventRecord(2, 5),
		domain.EventRecord(2, 0),
	}
	acc := domain.Drain(records, domain.Accumulator{})
	values := acc.Values()
	assert.Equal(t, 2.0, values[domain.ChannelAltitudeSlot])
	assert.Equal(t, 0.0, values[domain.ChannelHeadingSlot])
}

func TestDrain_ApproachHoldMerge(t *testing.T) {
	cases := map[string][]domain.Record{
		"index 6 only": {domain.EventRecord(6, 0)},
		"index 7 only": {domain.EventRecord(7, 0)},
		"both":         {domain.EventRecord(6, 0), domain.EventRecord(7, 0)},
	}
	for name, records := range cases {
		t.Run(name, func(t *testing.T) {
			acc := domain.Drain(records, domain.Accumulator{})
			assert.Equal(t, domain.Outputs{0, 0, 0, 0, 0, 0, 1}, acc.Values())
		})
	}
}

func TestDrain_IgnoresNoise(t *testing.T) {
	records := []domain.Record{
		{Kind: domain.RecordOpen},
		{Kind: domain.RecordQuit, EventID: 0},
		{Kind: domain.RecordException, EventID: 2, Data: 9},
		domain.EventRecord(42, 7),
		{Kind: domain.RecordKind(200), EventID: 1},
	}

	var acc domain.Accumulator
	for _, rec := range records {
		assert.False(t, acc.Apply(rec), "record %+v should be ignored", rec)
	}
	assert.Equal(t, domain.Outputs{}, acc.Values())
}

func TestDrain_DoesNotMutateInput(t *testing.T) {
	var base domain.Accumulator
	base.Apply(domain.EventRecord(1, 0))

	out := domain.Drain([]domain.Record{domain.EventRecord(0, 0)}, base)
	assert.Equal(t, domain.Outputs{0, 1, 0, 0, 0, 0, 0}, base.Values())
	assert.Equal(t, domain.Outputs{1, 1, 0, 0, 0, 0, 0}, out.Values())
}

func TestRecordKind_RoundTrip(t *testing.T) {
	for _, k := range []domain.RecordKind{domain.RecordNull, domain.RecordEvent, domain.RecordOpen, domain.RecordQuit, domain.RecordException} {
		assert.Equal(t, k, domain.ParseRecordKind(k.String()))
	}
	assert.Equal(t, domain.RecordNull, domain.ParseRecordKind("bogus"))
}
