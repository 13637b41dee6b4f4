// Package daemon assembles the appliance runtime: the serial dial listener,
// the session orchestrator, the ingest sweep, and the shared catalog, under
// a single-instance lock.
package daemon
