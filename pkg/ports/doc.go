/*
Package ports defines the driven ports (interfaces) for the simevents block.

These interfaces decouple the core mapping logic from the surrounding execution engine and
from the external simulation, allowing the block to run against an in-memory simulator,
a Redis stream or a websocket bridge.

# Key Interfaces

  - EventSource / Connection: Open a named connection, register events, drain pending records.
  - Emitter: Push a named event into a source (simulators and tests).
  - ParameterStore: Block parameters keyed by name.
  - SignalResolver / OutputSignal: Output signal handles addressable by index.
*/
package ports
