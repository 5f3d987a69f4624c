// Package connectors contains provider-specific clients that list and
// fetch source records for the sync pipeline.
package connectors
