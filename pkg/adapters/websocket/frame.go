package websocket

import (
	"errors"
	"fmt"
)

// Frame operations. Registration frames travel client to simulator and are answered by an ack
// with the same sequence number. Event and record frames travel simulator to client.
const (
	OpHello    = "hello"
	OpMap      = "map"
	OpGroup    = "group"
	OpPriority = "priority"
	OpAck      = "ack"
	OpEvent    = "event"
	OpRecord   = "record"
)

// Frame is the JSON message exchanged over the socket.
type Frame struct {
	Op       string `json:"op"`
	Seq      uint64 `json:"seq,omitempty"`
	ID       uint32 `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Group    uint32 `json:"group,omitempty"`
	Masked   bool   `json:"masked,omitempty"`
	Priority uint32 `json:"priority,omitempty"`
	Data     uint32 `json:"data,omitempty"`
	Kind     string `json:"kind,omitempty"`
	Error    string `json:"error,omitempty"`
}

var (
	// ErrClosed is returned by a connection after Close.
	ErrClosed = errors.New("connection closed")
	// ErrUnknownEvent is returned when the simulator refuses an event name.
	ErrUnknownEvent = errors.New("unknown event name")
	// ErrRejected wraps a registration refused by the simulator.
	ErrRejected = errors.New("request rejected by simulator")
	// ErrProtocol is returned on unexpected frames.
	ErrProtocol = errors.New("protocol error")
)

func ackError(f Frame) error {
	if f.Error == "" {
		return nil
	}
	return fmt.Errorf("%w: %s", ErrRejected, f.Error)
}
