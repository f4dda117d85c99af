// Package runs implements the run inspector: recent workflow runs, recent
// failures, and the summary and jobs of a single run, rendered as colored text
// or as JSON/YAML.
package runs
