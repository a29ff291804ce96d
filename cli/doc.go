// Package cli implements the command-line interface for sitelens.
//
// The cli package provides:
// - Command-line argument parsing and configuration loading
// - The HTTP server hosting the browser widget and the relay
// - The terminal widget
// - One-shot lookups printed to stdout
package cli
