// Package driving provides interfaces for inbound adapters
// (primary ports): the sync engine, the background sync queue and the
// agent orchestrator.
package driving
