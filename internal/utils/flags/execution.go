// Package flags provides helpers for binding standardized execution flags to Cobra commands.
package flags

import (
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// ExecutionDefaults describes default flag values shared across mutating commands.
type ExecutionDefaults struct {
	DryRun   bool
	NoBackup bool
}

// ExecutionFlagDefinition captures a single flag's configuration.
type ExecutionFlagDefinition struct {
	Name      string
	Usage     string
	Shorthand string
	Enabled   bool
}

// ExecutionFlagDefinitions groups execution flag definitions.
type ExecutionFlagDefinitions struct {
	DryRun   ExecutionFlagDefinition
	NoBackup ExecutionFlagDefinition
}

// ExecutionFlagValues stores parsed execution flag values.
type ExecutionFlagValues struct {
	DryRun   bool
	NoBackup bool
}

// BindExecutionFlags attaches standardized execution flags to the provided command.
func BindExecutionFlags(command *cobra.Command, defaults ExecutionDefaults, definitions ExecutionFlagDefinitions) *ExecutionFlagValues {
	values := ExecutionFlagValues{DryRun: defaults.DryRun, NoBackup: defaults.NoBackup}
	if command == nil {
		return &values
	}

	flagSet := command.Flags()

	bindBoolFlag(flagSet, &values.DryRun, definitions.DryRun, defaults.DryRun)
	bindBoolFlag(flagSet, &values.NoBackup, definitions.NoBackup, defaults.NoBackup)

	return &values
}

func bindBoolFlag(flagSet *pflag.FlagSet, target *bool, definition ExecutionFlagDefinition, defaultValue bool) {
	if flagSet == nil {
		return
	}
	if !definition.Enabled {
		return
	}
	if len(definition.Name) == 0 {
		return
	}

	if len(definition.Shorthand) > 0 {
		flagSet.BoolVarP(target, definition.Name, definition.Shorthand, defaultValue, definition.Usage)
		return
	}

	flagSet.BoolVar(target, definition.Name, defaultValue, definition.Usage)
}
