package domain

import "fmt"

// EventID is a local event index, scoped to this block's notification group.
// It is independent of the simulator's own event numbering.
type EventID uint32

// GroupID identifies a notification group on the external source.
type GroupID uint32

// DefaultGroup is the single notification group the block subscribes with.
const DefaultGroup GroupID = 0

// Priority is the notification group priority on the external source.
// Lower values are notified first.
type Priority uint32

const (
	PriorityHighest         Priority = 1
	PriorityHighestMaskable Priority = 10000000
	PriorityStandard        Priority = 1900000000
	PriorityDefault         Priority = 2000000000
	PriorityLowest          Priority = 4000000000
)

// Binding associates a local event index with an external event name.
// Masked events have their default simulator handling suppressed.
type Binding struct {
	ID     EventID `json:"id" yaml:"id" mapstructure:"id"`
	Name   string  `json:"name" yaml:"name" mapstructure:"name"`
	Masked bool    `json:"masked" yaml:"masked" mapstructure:"masked"`
}

func (b Binding) String() string {
	return fmt.Sprintf("%d:%s", b.ID, b.Name)
}

// RecordKind identifies the type of a dispatched record.
type RecordKind uint8

const (
	RecordNull RecordKind = iota
	RecordEvent
	RecordOpen
	RecordQuit
	RecordException
)

var recordKindNames = map[RecordKind]string{
	RecordNull:      "null",
	RecordEvent:     "event",
	RecordOpen:      "open",
	RecordQuit:      "quit",
	RecordException: "exception",
}

func (k RecordKind) String() string {
	if name, ok := recordKindNames[k]; ok {
		return name
	}
	return fmt.Sprintf("kind(%d)", uint8(k))
}

// ParseRecordKind maps a wire name back to a RecordKind.
// Unknown names map to RecordNull.
func ParseRecordKind(name string) RecordKind {
	for k, n := range recordKindNames {
		if n == name {
			return k
		}
	}
	return RecordNull
}

// Record is a single pending notification from the external source.
// EventID, Group and Data are only meaningful for RecordEvent.
type Record struct {
	Kind    RecordKind `json:"kind"`
	EventID EventID    `json:"event_id"`
	Group   GroupID    `json:"group"`
	Data    uint32     `json:"data"`
}

// EventRecord is a shorthand for building an event notification.
func EventRecord(id EventID, data uint32) Record {
	return Record{Kind: RecordEvent, EventID: id, Group: DefaultGroup, Data: data}
}
