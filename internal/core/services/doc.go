// Package services contains the core application services: the sync
// engine driving the connector-to-index pipeline, the agent
// orchestrating tool-calling conversations, and the tool layer between
// them.
package services
