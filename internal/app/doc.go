// Package app loads configuration and wires the stores, transports and
// services into one graph for the CLI.
package app
