// Package driven provides interfaces for infrastructure adapters
// (secondary/outbound ports): provider connectors, stores, the vector
// index, the embedding and chat model services.
package driven
