package runs

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
	"github.com/temirov/ci_scripts/internal/ui"
	"github.com/temirov/ci_scripts/internal/utils/flags"
)

const (
	commandUseConstant              = "runs"
	commandShortDescriptionConstant = "Inspect GitHub Actions workflow runs"
	commandLongDescriptionConstant  = "runs lists recent workflow runs, recent failures, or the summary and jobs of a single run."
	commandExampleConstant          = "  ci-scripts runs --limit 5\n  ci-scripts runs --list-failed\n  ci-scripts runs --run-id 123456789 --output yaml"
	flagRunIDNameConstant           = "run-id"
	flagRunIDUsageConstant          = "Show the summary and jobs of a specific run"
	flagListFailedNameConstant      = "list-failed"
	flagListFailedUsageConstant     = "List recent failed runs"
	flagWorkflowNameConstant        = "workflow"
	flagWorkflowUsageConstant       = "Restrict the listing to one workflow file (e.g. build.yml)"
	flagLimitNameConstant           = "limit"
	flagLimitUsageConstant          = "Number of runs to list"
	outputFlagDescriptionConstant   = "Report format"
	invalidOptionsTemplateConstant  = "invalid runs options: %w"
	commandErrorTemplateConstant    = "runs failed: %w"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandOptions captures the parsed runs invocation.
type CommandOptions struct {
	RunID        int64 `validate:"gte=0"`
	ListFailed   bool
	WorkflowFile string
	Limit        int `validate:"gte=1,lte=100"`
	Output       OutputFormat
}

// CommandBuilder assembles the runs command.
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

// Build constructs the runs command.
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
	outputFlag := flags.BindOutputFlag(command, defaults.Output, OutputFormatChoices(), outputFlagDescriptionConstant)
	command.Flags().Int64(flagRunIDNameConstant, 0, flagRunIDUsageConstant)
	command.Flags().Bool(flagListFailedNameConstant, false, flagListFailedUsageConstant)
	command.Flags().String(flagWorkflowNameConstant, "", flagWorkflowUsageConstant)
	command.Flags().Int(flagLimitNameConstant, defaults.Limit, flagLimitUsageConstant)
	command.MarkFlagsMutuallyExclusive(flagRunIDNameConstant, flagListFailedNameConstant)

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
	workflowFile, _ := command.Flags().GetString(flagWorkflowNameConstant)

	limit := configuration.Limit
	if command.Flags().Changed(flagLimitNameConstant) {
		limit, _ = command.Flags().GetInt(flagLimitNameConstant)
	}

	outputValue := configuration.Output
	if command.Flags().Changed(flags.OutputFlagName) {
		outputValue = outputFlag.Format
	}
	outputFormat, formatError := ParseOutputFormat(outputValue)
	if formatError != nil {
		return CommandOptions{}, formatError
	}

	options := CommandOptions{
		RunID:        runID,
		ListFailed:   listFailed,
		WorkflowFile: workflowFile,
		Limit:        limit,
		Output:       outputFormat,
	}
	if validationError := validator.New().Struct(options); validationError != nil {
		return CommandOptions{}, fmt.Errorf(invalidOptionsTemplateConstant, validationError)
	}
	return options, nil
}

func (builder *CommandBuilder) run(command *cobra.Command, githubFlags flags.GitHubFlagValues, options CommandOptions) error {
	logger := builder.resolveLogger()
	executionContext := command.Context()

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

	service, serviceError := NewService(logger, access.Client, access.Repository)
	if serviceError != nil {
		return serviceError
	}

	reporter := NewReporter(command.OutOrStdout(), options.Output, builder.resolvePalette(), WithClock(builder.Clock))

	switch {
	case options.ListFailed:
		failedRuns, failedError := service.FailedRuns(executionContext, options.Limit)
		if failedError != nil {
			return fmt.Errorf(commandErrorTemplateConstant, failedError)
		}
		return reporter.RenderFailedRuns(access.Repository, failedRuns)
	case options.RunID > 0:
		details, detailsError := service.Details(executionContext, options.RunID)
		if detailsError != nil {
			return fmt.Errorf(commandErrorTemplateConstant, detailsError)
		}
		return reporter.RenderDetails(details)
	default:
		workflowRuns, listError := service.ListRuns(executionContext, options.WorkflowFile, options.Limit)
		if listError != nil {
			return fmt.Errorf(commandErrorTemplateConstant, listError)
		}
		return reporter.RenderRuns(access.Repository, options.Limit, workflowRuns)
	}
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
