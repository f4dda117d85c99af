package cli

import (
	"bytes"
	"context"
	_ "embed"
	"errors"
	"fmt"
	"os"
	"runtime/debug"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"go.uber.org/zap"

	"github.com/temirov/ci_scripts/internal/changes"
	"github.com/temirov/ci_scripts/internal/dependencies"
	"github.com/temirov/ci_scripts/internal/execshell"
	"github.com/temirov/ci_scripts/internal/loganalysis"
	"github.com/temirov/ci_scripts/internal/runs"
	"github.com/temirov/ci_scripts/internal/ui"
	"github.com/temirov/ci_scripts/internal/utils"
	"github.com/temirov/ci_scripts/internal/utils/flags"
	"github.com/temirov/ci_scripts/internal/workflowfix"
)

const (
	applicationNameConstant                 = "ci-scripts"
	applicationShortDescriptionConstant     = "Inspect, diagnose, and repair GitHub Actions workflows"
	applicationLongDescriptionConstant      = "ci-scripts inspects workflow runs, matches failed job logs against known error signatures, patches workflow files, and commits the result."
	configFileFlagNameConstant              = "config"
	configFileFlagUsageConstant             = "Optional path to a configuration file (YAML or JSON)."
	logLevelFlagNameConstant                = "log-level"
	logLevelFlagUsageConstant               = "Override the configured log level."
	logFormatFlagNameConstant               = "log-format"
	logFormatFlagUsageConstant              = "Override the configured log format (structured or console)."
	versionFlagNameConstant                 = "version"
	versionFlagUsageConstant                = "Print the application version and exit."
	versionOutputTemplateConstant           = "%s version: %s\n"
	developmentVersionConstant              = "dev"
	develBuildVersionConstant               = "(devel)"
	commonConfigurationKeyConstant          = "common"
	commonLogLevelConfigKeyConstant         = commonConfigurationKeyConstant + ".log_level"
	commonLogFormatConfigKeyConstant        = commonConfigurationKeyConstant + ".log_format"
	githubConfigurationKeyConstant          = "github"
	githubAPIBaseURLConfigKeyConstant       = githubConfigurationKeyConstant + ".api_base_url"
	githubRepositoryConfigKeyConstant       = githubConfigurationKeyConstant + ".repository"
	githubTimeoutConfigKeyConstant          = githubConfigurationKeyConstant + ".timeout"
	environmentPrefixConstant               = "CISCRIPTS"
	environmentFileConstant                 = ".env"
	configurationNameConstant               = "config"
	configurationTypeConstant               = "yaml"
	configurationInitializedMessageConstant = "configuration initialized"
	configurationLogLevelFieldConstant      = "log_level"
	configurationLogFormatFieldConstant     = "log_format"
	configurationFileFieldConstant          = "config_file"
	configurationLoadErrorTemplateConstant  = "unable to load configuration: %w"
	loggerCreationErrorTemplateConstant     = "unable to create logger: %w"
	loggerSyncErrorTemplateConstant         = "unable to flush logger: %w"
	commandBuildErrorTemplateConstant       = "unable to build %s command: %w"
	rootCommandDebugMessageConstant         = "ci-scripts CLI diagnostics"
	logFieldCommandNameConstant             = "command_name"
	logFieldArgumentsConstant               = "arguments"
	defaultConfigurationSearchPathConstant  = "."
	toolsConfigurationKeyConstant           = "tools"
	runsConfigurationKeyConstant            = toolsConfigurationKeyConstant + ".runs"
	analyzeConfigurationKeyConstant         = toolsConfigurationKeyConstant + ".analyze"
	fixConfigurationKeyConstant             = toolsConfigurationKeyConstant + ".fix"
	changesConfigurationKeyConstant         = toolsConfigurationKeyConstant + ".changes"
)

// ApplicationConfiguration describes the persisted configuration for the CLI entrypoint.
type ApplicationConfiguration struct {
	Common ApplicationCommonConfiguration `mapstructure:"common"`
	GitHub dependencies.GitHubSettings    `mapstructure:"github"`
	Tools  ApplicationToolsConfiguration  `mapstructure:"tools"`
}

// ApplicationCommonConfiguration stores logging configuration shared across commands.
type ApplicationCommonConfiguration struct {
	LogLevel  string `mapstructure:"log_level" validate:"omitempty,oneof=debug info warn error"`
	LogFormat string `mapstructure:"log_format" validate:"omitempty,oneof=structured console"`
}

// ApplicationToolsConfiguration holds configuration for each subcommand.
type ApplicationToolsConfiguration struct {
	Runs    runs.CommandConfiguration        `mapstructure:"runs"`
	Analyze loganalysis.CommandConfiguration `mapstructure:"analyze"`
	Fix     workflowfix.CommandConfiguration `mapstructure:"fix"`
	Changes changes.CommandConfiguration     `mapstructure:"changes"`
}

type commandBuilder interface {
	Build() (*cobra.Command, error)
}

// Application wires the Cobra root command, configuration loader, and structured logger.
type Application struct {
	rootCommand           *cobra.Command
	configurationLoader   *utils.ConfigurationLoader
	loggerFactory         *utils.LoggerFactory
	logger                *zap.Logger
	consoleLogger         *zap.Logger
	configuration         ApplicationConfiguration
	configurationMetadata utils.LoadedConfiguration
	configurationFilePath string
	logLevelFlagValue     string
	logFormatFlagValue    string
	colorEnabled          bool
	versionRequested      bool
	versionResolver       func(context.Context) string
	exitFunction          func(int)
	buildError            error
}

//go:embed default_config.yaml
var defaultConfigurationDocument []byte

// EmbeddedDefaultConfiguration returns a copy of the bundled default_config.yaml and its format.
func EmbeddedDefaultConfiguration() ([]byte, string) {
	return bytes.Clone(defaultConfigurationDocument), configurationTypeConstant
}

// NewApplication assembles a fully wired CLI application instance.
func NewApplication() *Application {
	configurationLoader := utils.NewConfigurationLoader(
		configurationNameConstant,
		configurationTypeConstant,
		environmentPrefixConstant,
		[]string{defaultConfigurationSearchPathConstant},
	)
	configurationLoader.SetEmbeddedConfiguration(EmbeddedDefaultConfiguration())
	configurationLoader.SetEnvironmentFiles(environmentFileConstant)

	application := &Application{
		configurationLoader: configurationLoader,
		loggerFactory:       utils.NewLoggerFactory(),
		logger:              zap.NewNop(),
		consoleLogger:       zap.NewNop(),
		versionResolver:     resolveBuildVersion,
		exitFunction:        os.Exit,
	}

	cobraCommand := &cobra.Command{
		Use:           applicationNameConstant,
		Short:         applicationShortDescriptionConstant,
		Long:          applicationLongDescriptionConstant,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(command *cobra.Command, arguments []string) error {
			return application.initializeConfiguration(command)
		},
		RunE: func(command *cobra.Command, arguments []string) error {
			return application.runRootCommand(command, arguments)
		},
	}

	cobraCommand.SetContext(context.Background())
	persistentFlags := cobraCommand.PersistentFlags()
	persistentFlags.StringVar(&application.configurationFilePath, configFileFlagNameConstant, "", configFileFlagUsageConstant)
	persistentFlags.StringVar(&application.logLevelFlagValue, logLevelFlagNameConstant, "", logLevelFlagUsageConstant)
	persistentFlags.StringVar(&application.logFormatFlagValue, logFormatFlagNameConstant, "", logFormatFlagUsageConstant)
	flags.AddToggleFlag(persistentFlags, &application.colorEnabled, flags.ColorFlagName, "", true, flags.ColorFlagUsage)
	cobraCommand.Flags().BoolVar(&application.versionRequested, versionFlagNameConstant, false, versionFlagUsageConstant)

	loggerProvider := func() *zap.Logger { return application.logger }
	githubSettingsProvider := func() dependencies.GitHubSettings { return application.configuration.GitHub }

	builders := []commandBuilder{
		&runs.CommandBuilder{
			LoggerProvider:               loggerProvider,
			ConfigurationProvider:        func() runs.CommandConfiguration { return application.configuration.Tools.Runs },
			GitHubSettingsProvider:       githubSettingsProvider,
			PaletteProvider:              application.palette,
			CommandEventObserverProvider: application.commandEventObserver,
		},
		&loganalysis.CommandBuilder{
			LoggerProvider:               loganalysis.LoggerProvider(loggerProvider),
			ConfigurationProvider:        func() loganalysis.CommandConfiguration { return application.configuration.Tools.Analyze },
			GitHubSettingsProvider:       githubSettingsProvider,
			PaletteProvider:              application.palette,
			CommandEventObserverProvider: application.commandEventObserver,
		},
		&workflowfix.CommandBuilder{
			LoggerProvider:        workflowfix.LoggerProvider(loggerProvider),
			ConfigurationProvider: func() workflowfix.CommandConfiguration { return application.configuration.Tools.Fix },
			PaletteProvider:       application.palette,
		},
		&changes.CommandBuilder{
			LoggerProvider:               changes.LoggerProvider(loggerProvider),
			ConfigurationProvider:        func() changes.CommandConfiguration { return application.configuration.Tools.Changes },
			GitHubSettingsProvider:       githubSettingsProvider,
			PaletteProvider:              application.palette,
			CommandEventObserverProvider: application.commandEventObserver,
		},
	}

	for _, builder := range builders {
		subcommand, subcommandBuildError := builder.Build()
		if subcommandBuildError != nil {
			application.buildError = errors.Join(application.buildError, fmt.Errorf(commandBuildErrorTemplateConstant, fmt.Sprintf("%T", builder), subcommandBuildError))
			continue
		}
		cobraCommand.AddCommand(subcommand)
	}

	application.rootCommand = cobraCommand

	return application
}

// Execute runs the configured Cobra command hierarchy and ensures logger flushing.
func (application *Application) Execute() error {
	if application.buildError != nil {
		return application.buildError
	}
	application.rootCommand.SetArgs(flags.NormalizeToggleArguments(os.Args[1:]))
	executionError := application.rootCommand.Execute()
	if syncError := application.flushLogger(); syncError != nil {
		return fmt.Errorf(loggerSyncErrorTemplateConstant, syncError)
	}
	return executionError
}

// Execute builds a fresh application instance and executes the root command hierarchy.
func Execute() error {
	return NewApplication().Execute()
}

// Configuration returns the configuration resolved by the last initialization.
func (application *Application) Configuration() ApplicationConfiguration {
	return application.configuration
}

// DefaultConfigurationValues returns the flattened defaults applied beneath the embedded configuration.
func DefaultConfigurationValues() map[string]any {
	githubDefaults := dependencies.DefaultGitHubSettings()
	defaultValues := map[string]any{
		commonLogLevelConfigKeyConstant:   string(utils.LogLevelInfo),
		commonLogFormatConfigKeyConstant:  string(utils.LogFormatStructured),
		githubAPIBaseURLConfigKeyConstant: githubDefaults.APIBaseURL,
		githubRepositoryConfigKeyConstant: githubDefaults.Repository,
		githubTimeoutConfigKeyConstant:    githubDefaults.Timeout,
	}
	toolDefaults := []map[string]any{
		runs.DefaultConfigurationValues(runsConfigurationKeyConstant),
		loganalysis.DefaultConfigurationValues(analyzeConfigurationKeyConstant),
		workflowfix.DefaultConfigurationValues(fixConfigurationKeyConstant),
		changes.DefaultConfigurationValues(changesConfigurationKeyConstant),
	}
	for _, values := range toolDefaults {
		for configurationKey, configurationValue := range values {
			defaultValues[configurationKey] = configurationValue
		}
	}
	return defaultValues
}

func (application *Application) initializeConfiguration(command *cobra.Command) error {
	loadedConfiguration, loadError := application.configurationLoader.LoadConfiguration(application.configurationFilePath, DefaultConfigurationValues(), &application.configuration)
	if loadError != nil {
		return fmt.Errorf(configurationLoadErrorTemplateConstant, loadError)
	}

	application.configurationMetadata = loadedConfiguration

	if application.persistentFlagChanged(command, logLevelFlagNameConstant) {
		application.configuration.Common.LogLevel = application.logLevelFlagValue
	}

	if application.persistentFlagChanged(command, logFormatFlagNameConstant) {
		application.configuration.Common.LogFormat = application.logFormatFlagValue
	}

	loggerOutputs, loggerCreationError := application.loggerFactory.CreateLoggerOutputs(
		utils.LogLevel(application.configuration.Common.LogLevel),
		utils.LogFormat(application.configuration.Common.LogFormat),
	)
	if loggerCreationError != nil {
		return fmt.Errorf(loggerCreationErrorTemplateConstant, loggerCreationError)
	}

	application.logger = loggerOutputs.DiagnosticLogger
	application.consoleLogger = loggerOutputs.ConsoleLogger

	application.logger.Debug(
		configurationInitializedMessageConstant,
		zap.String(configurationLogLevelFieldConstant, application.configuration.Common.LogLevel),
		zap.String(configurationLogFormatFieldConstant, application.configuration.Common.LogFormat),
		zap.String(configurationFileFieldConstant, application.configurationMetadata.ConfigFileUsed),
	)

	return nil
}

func (application *Application) humanReadableLoggingEnabled() bool {
	logFormatValue := strings.TrimSpace(application.configuration.Common.LogFormat)
	return strings.EqualFold(logFormatValue, string(utils.LogFormatConsole))
}

func (application *Application) commandEventObserver() execshell.CommandEventObserver {
	if !application.humanReadableLoggingEnabled() {
		return nil
	}
	return ui.NewConsoleCommandEventLogger(application.consoleLogger)
}

func (application *Application) palette() ui.Palette {
	return ui.NewPalette(application.colorEnabled && !color.NoColor)
}

func (application *Application) runRootCommand(command *cobra.Command, arguments []string) error {
	application.logger.Debug(
		rootCommandDebugMessageConstant,
		zap.String(logFieldCommandNameConstant, command.Name()),
		zap.Strings(logFieldArgumentsConstant, arguments),
	)

	if application.versionRequested {
		fmt.Fprintf(command.OutOrStdout(), versionOutputTemplateConstant, applicationNameConstant, application.versionResolver(command.Context()))
		application.exitFunction(0)
		return nil
	}

	return command.Help()
}

func resolveBuildVersion(context.Context) string {
	buildInformation, available := debug.ReadBuildInfo()
	if !available {
		return developmentVersionConstant
	}
	version := strings.TrimSpace(buildInformation.Main.Version)
	if len(version) == 0 || version == develBuildVersionConstant {
		return developmentVersionConstant
	}
	return version
}

func (application *Application) flushLogger() error {
	for _, logger := range []*zap.Logger{application.logger, application.consoleLogger} {
		if syncError := syncLoggerInstance(logger); syncError != nil {
			return syncError
		}
	}
	return nil
}

func syncLoggerInstance(logger *zap.Logger) error {
	if logger == nil {
		return nil
	}

	syncError := logger.Sync()
	switch {
	case syncError == nil:
		return nil
	case errors.Is(syncError, syscall.ENOTSUP):
		return nil
	case errors.Is(syncError, syscall.EINVAL):
		return nil
	default:
		return syncError
	}
}

func (application *Application) persistentFlagChanged(command *cobra.Command, flagName string) bool {
	if command == nil {
		return false
	}

	flagSetsToInspect := []*pflag.FlagSet{
		command.PersistentFlags(),
		command.InheritedFlags(),
	}

	rootCommand := command.Root()
	if rootCommand != nil {
		flagSetsToInspect = append(flagSetsToInspect, rootCommand.PersistentFlags())
	}

	for _, flagSet := range flagSetsToInspect {
		if flagSet == nil {
			continue
		}

		if flagSet.Changed(flagName) {
			return true
		}
	}

	return false
}
