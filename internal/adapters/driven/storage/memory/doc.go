// Package memory provides in-memory implementations of the store
// ports. Used in tests and as a zero-dependency fallback when no
// durable storage is configured.
package memory
