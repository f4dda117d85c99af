package workflowfix

import (
	"fmt"
	"io"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/ci_scripts/internal/ui"
	"github.com/temirov/ci_scripts/internal/utils/flags"
)

const (
	commandUseConstant              = "fix <workflow>"
	commandShortDescriptionConstant = "Apply common fixes to a GitHub Actions workflow file"
	commandLongDescriptionConstant  = "fix pins unpinned actions, adds permissions, job timeouts, concurrency control, and Docker layer caching to a workflow file. The original is kept as <workflow>.backup."
	commandExampleConstant          = "  ci-scripts fix .github/workflows/ci.yml --fix-all --dry-run\n  ci-scripts fix .github/workflows/build.yml --add-timeout 45 --dockerfile docker/Dockerfile"
	flagFixAllNameConstant          = "fix-all"
	flagFixAllUsageConstant         = "Apply all recommended fixes"
	flagAddTimeoutNameConstant      = "add-timeout"
	flagAddTimeoutUsageConstant     = "Add timeout-minutes to jobs that lack one"
	flagDockerfileNameConstant      = "dockerfile"
	flagDockerfileUsageConstant     = "Point dockerfile inputs at this path"
	flagNoCacheFixNameConstant      = "no-cache-fix"
	flagNoCacheFixUsageConstant     = "Skip adding Docker layer caching during --fix-all"
	flagDryRunUsageConstant         = "Show the fixes without writing the file"
	flagNoBackupNameConstant        = "no-backup"
	flagNoBackupUsageConstant       = "Do not write <workflow>.backup"
	invalidOptionsTemplateConstant  = "invalid fix options: %w"
	commandErrorTemplateConstant    = "fix failed: %w"
	dryRunHeaderConstant            = "\nDry run - fixes that would be applied:\n"
	noFixesNeededConstant           = "No fixes needed."
	appliedFixesTitleTemplate       = "Applied %d fixes:"
	appliedFixLineTemplate          = "  %s %s\n"
	appliedFixMarkerConstant        = "✓"
	savedLineTemplate               = "Saved: %s\n"
	backupLineTemplate              = "Backup: %s\n"
	logMessageFixesComputedConstant = "workflow fixes computed"
	logMessageWorkflowSavedConstant = "workflow saved"
	logFieldPathConstant            = "path"
	logFieldFixesConstant           = "fixes"
	logFieldDryRunConstant          = "dry_run"
	logFieldBackupPathConstant      = "backup_path"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandOptions captures the parsed fix invocation.
type CommandOptions struct {
	WorkflowPath    string `validate:"required"`
	FixAll          bool
	TimeoutMinutes  int `validate:"gte=0"`
	AddTimeout      bool
	DockerfilePath  string
	SkipDockerCache bool
	DryRun          bool
	Backup          bool
}

// CommandBuilder assembles the fix command.
type CommandBuilder struct {
	LoggerProvider        LoggerProvider
	ConfigurationProvider func() CommandConfiguration
	PaletteProvider       func() ui.Palette
}

// Build constructs the fix command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	defaults := DefaultCommandConfiguration()

	command := &cobra.Command{
		Use:     commandUseConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Example: commandExampleConstant,
		Args:    cobra.ExactArgs(1),
	}

	executionFlags := flags.BindExecutionFlags(command, flags.ExecutionDefaults{}, flags.ExecutionFlagDefinitions{
		DryRun:   flags.ExecutionFlagDefinition{Name: flags.DryRunFlagName, Usage: flagDryRunUsageConstant, Enabled: true},
		NoBackup: flags.ExecutionFlagDefinition{Name: flagNoBackupNameConstant, Usage: flagNoBackupUsageConstant, Enabled: true},
	})
	command.Flags().Bool(flagFixAllNameConstant, false, flagFixAllUsageConstant)
	command.Flags().Int(flagAddTimeoutNameConstant, defaults.TimeoutMinutes, flagAddTimeoutUsageConstant)
	command.Flags().String(flagDockerfileNameConstant, "", flagDockerfileUsageConstant)
	command.Flags().Bool(flagNoCacheFixNameConstant, false, flagNoCacheFixUsageConstant)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		options, optionsError := builder.parseOptions(command, arguments, *executionFlags)
		if optionsError != nil {
			return optionsError
		}
		return builder.run(command, options)
	}

	return command, nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, arguments []string, executionFlags flags.ExecutionFlagValues) (CommandOptions, error) {
	configuration := builder.resolveConfiguration()

	fixAll, _ := command.Flags().GetBool(flagFixAllNameConstant)
	dockerfilePath, _ := command.Flags().GetString(flagDockerfileNameConstant)
	noCacheFix, _ := command.Flags().GetBool(flagNoCacheFixNameConstant)

	timeoutMinutes := configuration.TimeoutMinutes
	addTimeout := command.Flags().Changed(flagAddTimeoutNameConstant)
	if addTimeout {
		timeoutMinutes, _ = command.Flags().GetInt(flagAddTimeoutNameConstant)
	}

	workflowPath := ""
	if len(arguments) > 0 {
		workflowPath = arguments[0]
	}

	options := CommandOptions{
		WorkflowPath:    workflowPath,
		FixAll:          fixAll,
		TimeoutMinutes:  timeoutMinutes,
		AddTimeout:      addTimeout,
		DockerfilePath:  dockerfilePath,
		SkipDockerCache: noCacheFix || !configuration.DockerCache,
		DryRun:          executionFlags.DryRun,
		Backup:          configuration.Backup && !executionFlags.NoBackup,
	}
	if validationError := validator.New().Struct(options); validationError != nil {
		return CommandOptions{}, fmt.Errorf(invalidOptionsTemplateConstant, validationError)
	}
	return options, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, options CommandOptions) error {
	logger := builder.resolveLogger()
	palette := builder.resolvePalette()
	writer := command.OutOrStdout()

	document, loadError := Load(options.WorkflowPath)
	if loadError != nil {
		return fmt.Errorf(commandErrorTemplateConstant, loadError)
	}

	if options.FixAll {
		document.ApplyAll(ApplyOptions{TimeoutMinutes: options.TimeoutMinutes, SkipDockerCache: options.SkipDockerCache})
	} else if options.AddTimeout {
		document.AddTimeout(options.TimeoutMinutes)
	}
	if len(options.DockerfilePath) > 0 {
		document.FixDockerfilePath(options.DockerfilePath)
	}

	fixes := document.FixesApplied()
	logger.Info(
		logMessageFixesComputedConstant,
		zap.String(logFieldPathConstant, options.WorkflowPath),
		zap.Int(logFieldFixesConstant, len(fixes)),
		zap.Bool(logFieldDryRunConstant, options.DryRun),
	)

	if options.DryRun {
		if _, writeError := io.WriteString(writer, dryRunHeaderConstant); writeError != nil {
			return writeError
		}
		return writeFixReport(writer, palette, fixes)
	}

	if len(fixes) == 0 {
		_, writeError := fmt.Fprintln(writer, noFixesNeededConstant)
		return writeError
	}

	saveResult, saveError := document.Save(SaveOptions{Backup: options.Backup})
	if saveError != nil {
		return fmt.Errorf(commandErrorTemplateConstant, saveError)
	}
	logger.Info(
		logMessageWorkflowSavedConstant,
		zap.String(logFieldPathConstant, saveResult.Path),
		zap.String(logFieldBackupPathConstant, saveResult.BackupPath),
	)

	if _, writeError := fmt.Fprintf(writer, savedLineTemplate, saveResult.Path); writeError != nil {
		return writeError
	}
	if len(saveResult.BackupPath) > 0 {
		if _, writeError := fmt.Fprintf(writer, backupLineTemplate, saveResult.BackupPath); writeError != nil {
			return writeError
		}
	}
	return writeFixReport(writer, palette, fixes)
}

func writeFixReport(writer io.Writer, palette ui.Palette, fixes []string) error {
	if len(fixes) == 0 {
		_, writeError := fmt.Fprintln(writer, noFixesNeededConstant)
		return writeError
	}
	if sectionError := ui.WriteSection(writer, palette, fmt.Sprintf(appliedFixesTitleTemplate, len(fixes))); sectionError != nil {
		return sectionError
	}
	for _, fix := range fixes {
		if _, writeError := fmt.Fprintf(writer, appliedFixLineTemplate, palette.Success(appliedFixMarkerConstant), fix); writeError != nil {
			return writeError
		}
	}
	return nil
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolvePalette() ui.Palette {
	if builder.PaletteProvider == nil {
		return ui.NewPalette(false)
	}
	return builder.PaletteProvider()
}

func (builder *CommandBuilder) resolveLogger() *zap.Logger {
	if builder.LoggerProvider == nil {
		return zap.NewNop()
	}
	logger := builder.LoggerProvider()
	if logger == nil {
		return zap.NewNop()
	}
	return logger
}
