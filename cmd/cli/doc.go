// Package cli constructs the ci-scripts command-line interface. It wires the
// Cobra command hierarchy, the Viper-backed configuration loader with its
// embedded defaults, structured logging, and the runs, analyze, fix, and
// changes subcommands.
package cli
