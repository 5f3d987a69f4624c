// Package normalisers provides implementations of the Extractor
// interface for the record formats the connectors emit. Each extractor
// knows how to pull plain text out of a specific MIME type.
//
// Extractors are registered with the Registry at startup.
package normalisers
