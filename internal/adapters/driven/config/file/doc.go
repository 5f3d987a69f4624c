// Package file provides a TOML file-based configuration store kept
// under the user's concierge directory.
package file
