// Package workflowfix loads GitHub Actions workflow files as YAML node trees, applies idempotent structural fixes, and writes them back with a backup.
package workflowfix
