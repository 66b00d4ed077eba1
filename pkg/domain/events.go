package domain

import (
	"context"
	"time"
)

// EventType defines the category of a lifecycle event.
type EventType string

const (
	EventInitialize EventType = "initialize"
	EventDispatch   EventType = "dispatch"
	EventStep       EventType = "step"
	EventTerminate  EventType = "terminate"
)

// EventBase contains common fields for all lifecycle events.
type EventBase struct {
	Timestamp time.Time `json:"timestamp"`
	Type      EventType `json:"type"`
	BlockID   string    `json:"block_id"`
}

// LifecycleEvent reports a phase change.
type LifecycleEvent struct {
	EventBase
	ConnectionName string `json:"connection_name,omitempty"`
	Phase          Phase  `json:"phase"`
	Err            error  `json:"-"`
}

// DispatchEvent reports a single record seen by the dispatch pump.
type DispatchEvent struct {
	EventBase
	Record  Record `json:"record"`
	Applied bool   `json:"applied"` // False for ignored records (protocol noise)
}

// StepEvent reports the outcome of an execution step.
type StepEvent struct {
	EventBase
	Step    uint64  `json:"step"`
	Records int     `json:"records"`
	Outputs Outputs `json:"outputs"`
	Err     error   `json:"-"`
}

// LifecycleHooks defines callbacks for block observability.
type LifecycleHooks struct {
	OnInitialize func(context.Context, *LifecycleEvent)
	OnRecord     func(context.Context, *DispatchEvent)
	OnStep       func(context.Context, *StepEvent)
	OnTerminate  func(context.Context, *LifecycleEvent)
}
