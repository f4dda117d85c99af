package loganalysis

import (
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/ci_scripts/internal/dependencies"
	"github.com/temirov/ci_scripts/internal/execshell"
	"github.com/temirov/ci_scripts/internal/runs"
	"github.com/temirov/ci_scripts/internal/ui"
	"github.com/temirov/ci_scripts/internal/utils/flags"
	"github.com/temirov/ci_scripts/internal/workflowfix"
)

const (
	commandUseConstant              = "analyze"
	commandShortDescriptionConstant = "Diagnose failed workflow runs from their job logs"
	commandLongDescriptionConstant  = "analyze downloads the logs of failed jobs and matches them against known error signatures, or audits a workflow file for common omissions."
	commandExampleConstant          = "  ci-scripts analyze --run-id 123456789\n  ci-scripts analyze --list-failed\n  ci-scripts analyze --workflow .github/workflows/ci.yml"
	flagRunIDNameConstant           = "run-id"
	flagRunIDUsageConstant          = "Analyze the failed jobs of a specific run"
	flagListFailedNameConstant      = "list-failed"
	flagListFailedUsageConstant     = "Analyze the most recent failed runs"
	flagWorkflowNameConstant        = "workflow"
	flagWorkflowUsageConstant       = "Audit a workflow file instead of run logs"
	outputFlagDescriptionConstant   = "Report format"
	invalidOptionsTemplateConstant  = "invalid analyze options: %w"
	commandErrorTemplateConstant    = "analyze failed: %w"
	logMessageAuditConstant         = "workflow audited"
	logFieldWorkflowConstant        = "workflow"
	logFieldSuggestionsConstant     = "suggestions"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandOptions captures the parsed analyze invocation.
type CommandOptions struct {
	RunID        int64 `validate:"gte=0"`
	ListFailed   bool
	WorkflowPath string
	Output       runs.OutputFormat
}

// CommandBuilder assembles the analyze command.
type CommandBuilder struct {
	LoggerProvider               LoggerProvider
	ConfigurationProvider        func() CommandConfiguration
	GitHubSettingsProvider       func() dependencies.GitHubSettings
	PaletteProvider              func() ui.Palette
	CommandEventObserverProvider func() execshell.CommandEventObserver
	GitExecutor                  dependencies.GitExecutor
	HTTPClient                   *http.Client
	Environment                  map[string]string
	WorkingDirectory             string
	Clock                        func() time.Time
}

// Build constructs the analyze command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	defaults := DefaultCommandConfiguration()

	command := &cobra.Command{
		Use:     commandUseConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Example: commandExampleConstant,
		Args:    cobra.NoArgs,
	}

	githubFlags := flags.BindGitHubFlags(command, flags.GitHubFlagValues{}, flags.DefaultGitHubFlagDefinitions())
	outputFlag := flags.BindOutputFlag(command, defaults.Output, runs.OutputFormatChoices(), outputFlagDescriptionConstant)
	command.Flags().Int64(flagRunIDNameConstant, 0, flagRunIDUsageConstant)
	command.Flags().Bool(flagListFailedNameConstant, false, flagListFailedUsageConstant)
	command.Flags().String(flagWorkflowNameConstant, "", flagWorkflowUsageConstant)
	command.MarkFlagsMutuallyExclusive(flagRunIDNameConstant, flagListFailedNameConstant, flagWorkflowNameConstant)
	command.MarkFlagsOneRequired(flagRunIDNameConstant, flagListFailedNameConstant, flagWorkflowNameConstant)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		options, optionsError := builder.parseOptions(command, outputFlag)
		if optionsError != nil {
			return optionsError
		}
		return builder.run(command, *githubFlags, options)
	}

	return command, nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command, outputFlag *flags.OutputFlagValues) (CommandOptions, error) {
	configuration := builder.resolveConfiguration()

	runID, _ := command.Flags().GetInt64(flagRunIDNameConstant)
	listFailed, _ := command.Flags().GetBool(flagListFailedNameConstant)
	workflowPath, _ := command.Flags().GetString(flagWorkflowNameConstant)

	outputValue := configuration.Output
	if command.Flags().Changed(flags.OutputFlagName) {
		outputValue = outputFlag.Format
	}
	outputFormat, formatError := runs.ParseOutputFormat(outputValue)
	if formatError != nil {
		return CommandOptions{}, formatError
	}

	options := CommandOptions{RunID: runID, ListFailed: listFailed, WorkflowPath: workflowPath, Output: outputFormat}
	if validationError := validator.New().Struct(options); validationError != nil {
		return CommandOptions{}, fmt.Errorf(invalidOptionsTemplateConstant, validationError)
	}
	return options, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, githubFlags flags.GitHubFlagValues, options CommandOptions) error {
	logger := builder.resolveLogger()
	palette := builder.resolvePalette()
	reporter := NewReporter(command.OutOrStdout(), options.Output, palette, builder.Clock)

	if len(options.WorkflowPath) > 0 {
		suggestions, auditError := workflowfix.AuditFile(options.WorkflowPath)
		if auditError != nil {
			return fmt.Errorf(commandErrorTemplateConstant, auditError)
		}
		logger.Info(logMessageAuditConstant, zap.String(logFieldWorkflowConstant, options.WorkflowPath), zap.Int(logFieldSuggestionsConstant, len(suggestions)))
		return reporter.RenderAudit(options.WorkflowPath, suggestions)
	}

	executionContext := command.Context()
	configuration := builder.resolveConfiguration()

	gitExecutor, executorError := dependencies.ResolveGitExecutor(builder.GitExecutor, logger, builder.resolveObserver())
	if executorError != nil {
		return executorError
	}

	access, accessError := dependencies.ResolveGitHubAccess(executionContext, logger, dependencies.GitHubAccessRequest{
		Settings:  builder.resolveGitHubSettings(),
		TokenFlag: githubFlags.Token,
		Sources: dependencies.RepositorySources{
			FlagValue:        githubFlags.Repository,
			WorkingDirectory: builder.resolveWorkingDirectory(),
		},
		Executor:    gitExecutor,
		HTTPClient:  builder.HTTPClient,
		Environment: builder.Environment,
	})
	if accessError != nil {
		return accessError
	}

	runsService, runsServiceError := runs.NewService(logger, access.Client, access.Repository)
	if runsServiceError != nil {
		return runsServiceError
	}

	progressEnabled := palette.Enabled() && options.Output == runs.OutputFormatHuman
	service, serviceError := NewService(
		logger,
		access.Client,
		runsService,
		access.Repository,
		WithProgressIndicator(ui.NewProgressIndicator(command.ErrOrStderr(), progressEnabled)),
		WithScanRunLimit(configuration.ScanRunLimit),
	)
	if serviceError != nil {
		return serviceError
	}

	if options.ListFailed {
		analyses, analysisError := service.AnalyzeRecentFailures(executionContext, configuration.FailedRunLimit)
		if analysisError != nil {
			return fmt.Errorf(commandErrorTemplateConstant, analysisError)
		}
		return reporter.RenderRecentFailures(analyses)
	}

	analysis, analysisError := service.AnalyzeRun(executionContext, options.RunID)
	if analysisError != nil {
		return fmt.Errorf(commandErrorTemplateConstant, analysisError)
	}
	return reporter.RenderRun(analysis)
}

func (builder *CommandBuilder) resolveConfiguration() CommandConfiguration {
	if builder.ConfigurationProvider == nil {
		return DefaultCommandConfiguration()
	}
	return builder.ConfigurationProvider().Sanitize()
}

func (builder *CommandBuilder) resolveGitHubSettings() dependencies.GitHubSettings {
	if builder.GitHubSettingsProvider == nil {
		return dependencies.DefaultGitHubSettings()
	}
	return builder.GitHubSettingsProvider()
}

func (builder *CommandBuilder) resolvePalette() ui.Palette {
	if builder.PaletteProvider == nil {
		return ui.NewPalette(false)
	}
	return builder.PaletteProvider()
}

func (builder *CommandBuilder) resolveObserver() execshell.CommandEventObserver {
	if builder.CommandEventObserverProvider == nil {
		return nil
	}
	return builder.CommandEventObserverProvider()
}

func (builder *CommandBuilder) resolveWorkingDirectory() string {
	if len(builder.WorkingDirectory) > 0 {
		return builder.WorkingDirectory
	}
	workingDirectory, workingDirectoryError := os.Getwd()
	if workingDirectoryError != nil {
		return ""
	}
	return workingDirectory
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
