/*
Package observability provides tools for monitoring the simevents block.

It includes Prometheus metrics driven by lifecycle hooks and a helper to compose several hook
sets (metrics, event streaming, user callbacks) into the single set a block accepts.
*/
package observability
