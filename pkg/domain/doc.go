/*
Package domain contains the core domain models and business logic for the simevents block.

It defines the fundamental entities of the event-to-signal mapping, such as event Bindings,
dispatch Records, the static event table and the per-step Output Accumulator. This package is
kept pure and free of external dependencies like I/O or transports, following Hexagonal
Architecture principles.

# Key Entities

  - Binding: Associates a local event index with an external event name and a masking flag.
  - Record: A single pending notification drained from the external source.
  - Rule: How an event index updates an output channel (pulse or value).
  - Accumulator: The per-channel state written during a step and reset after it is read.
*/
package domain
