// Package ui provides helpers for formatting human-readable console output.
//
// It renders shell command lifecycle events through a console logger, colors
// report fragments, and shows progress for long-running network steps while
// detailed telemetry continues to flow through structured loggers.
package ui
