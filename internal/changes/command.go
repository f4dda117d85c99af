package changes

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/temirov/ci_scripts/internal/dependencies"
	"github.com/temirov/ci_scripts/internal/execshell"
	"github.com/temirov/ci_scripts/internal/githubapi"
	"github.com/temirov/ci_scripts/internal/ui"
	"github.com/temirov/ci_scripts/internal/utils/flags"
)

const (
	commandUseConstant              = "changes"
	commandShortDescriptionConstant = "Commit, branch, push, and open pull requests for local changes"
	commandLongDescriptionConstant  = "changes inspects the working tree, commits with a message derived from the changed paths, pushes the result, and opens or lists pull requests."
	commandExampleConstant          = "  ci-scripts changes --status\n  ci-scripts changes --auto-commit --push\n  ci-scripts changes --create-pr \"Fix CI\" --pr-body \"Adds caching\""
	flagStatusNameConstant          = "status"
	flagStatusUsageConstant         = "Show the current branch and changed files"
	flagDiffNameConstant            = "diff"
	flagDiffUsageConstant           = "Show the diff of a file"
	flagCommitNameConstant          = "commit"
	flagCommitUsageConstant         = "Commit all changes with this message"
	flagAutoCommitNameConstant      = "auto-commit"
	flagAutoCommitUsageConstant     = "Commit all changes with a message derived from the changed paths"
	flagFilesNameConstant           = "files"
	flagFilesUsageConstant          = "Stage only these files when committing"
	flagBranchNameConstant          = "branch"
	flagBranchUsageConstant         = "Create and check out a new branch"
	flagBaseNameConstant            = "base"
	flagBaseUsageConstant           = "Base branch for new branches and pull requests"
	flagPushNameConstant            = "push"
	flagPushUsageConstant           = "Push the current branch to the remote"
	flagCommitsNameConstant         = "commits"
	flagCommitsUsageConstant        = "Show the N most recent commits"
	flagCreatePRNameConstant        = "create-pr"
	flagCreatePRUsageConstant       = "Open a pull request from the current branch with this title"
	flagPRBodyNameConstant          = "pr-body"
	flagPRBodyUsageConstant         = "Pull request description"
	flagListPRsNameConstant         = "list-prs"
	flagListPRsUsageConstant        = "List pull requests"
	flagPRStateNameConstant         = "pr-state"
	flagPRStateUsageConstant        = "Pull request state to list (open, closed, all)"
	flagPRLimitNameConstant         = "pr-limit"
	flagPRLimitUsageConstant        = "Number of pull requests to list"
	flagRepositoryPathNameConstant  = "repository-path"
	flagRepositoryPathUsageConstant = "Path to the git working tree"
	invalidOptionsTemplateConstant  = "invalid changes options: %w"
	commandErrorTemplateConstant    = "changes failed: %w"
)

// LoggerProvider supplies a zap logger instance.
type LoggerProvider func() *zap.Logger

// CommandOptions captures the parsed changes invocation.
type CommandOptions struct {
	RepositoryPath   string `validate:"required"`
	Remote           string `validate:"required"`
	BaseBranch       string `validate:"required"`
	Status           bool
	DiffFile         string
	ShowDiff         bool
	CommitMessage    string
	AutoCommit       bool
	Files            []string
	Branch           string
	Push             bool
	CommitLimit      int `validate:"gte=0,lte=100"`
	ShowCommits      bool
	PullRequestTitle string
	PullRequestBody  string
	ListPullRequests bool
	PullRequestState githubapi.PullRequestState `validate:"oneof=open closed all"`
	PullRequestLimit int                        `validate:"gte=1,lte=100"`
}

// CommandBuilder assembles the changes command.
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

// Build constructs the changes command.
func (builder *CommandBuilder) Build() (*cobra.Command, error) {
	command := &cobra.Command{
		Use:     commandUseConstant,
		Short:   commandShortDescriptionConstant,
		Long:    commandLongDescriptionConstant,
		Example: commandExampleConstant,
		Args:    cobra.NoArgs,
	}

	githubFlags := flags.BindGitHubFlags(command, flags.GitHubFlagValues{}, flags.DefaultGitHubFlagDefinitions())
	command.Flags().Bool(flagStatusNameConstant, false, flagStatusUsageConstant)
	command.Flags().String(flagDiffNameConstant, "", flagDiffUsageConstant)
	command.Flags().String(flagCommitNameConstant, "", flagCommitUsageConstant)
	command.Flags().Bool(flagAutoCommitNameConstant, false, flagAutoCommitUsageConstant)
	command.Flags().StringSlice(flagFilesNameConstant, nil, flagFilesUsageConstant)
	command.Flags().String(flagBranchNameConstant, "", flagBranchUsageConstant)
	command.Flags().String(flagBaseNameConstant, "", flagBaseUsageConstant)
	command.Flags().Bool(flagPushNameConstant, false, flagPushUsageConstant)
	command.Flags().Int(flagCommitsNameConstant, defaultCommitLimitConstant, flagCommitsUsageConstant)
	command.Flags().String(flagCreatePRNameConstant, "", flagCreatePRUsageConstant)
	command.Flags().String(flagPRBodyNameConstant, "", flagPRBodyUsageConstant)
	command.Flags().Bool(flagListPRsNameConstant, false, flagListPRsUsageConstant)
	command.Flags().String(flagPRStateNameConstant, string(githubapi.PullRequestStateOpen), flagPRStateUsageConstant)
	command.Flags().Int(flagPRLimitNameConstant, defaultPullRequestLimitConstant, flagPRLimitUsageConstant)
	command.Flags().String(flagRepositoryPathNameConstant, "", flagRepositoryPathUsageConstant)

	command.MarkFlagsMutuallyExclusive(
		flagStatusNameConstant,
		flagDiffNameConstant,
		flagCommitNameConstant,
		flagAutoCommitNameConstant,
		flagBranchNameConstant,
		flagCommitsNameConstant,
		flagCreatePRNameConstant,
		flagListPRsNameConstant,
	)
	command.MarkFlagsOneRequired(
		flagStatusNameConstant,
		flagDiffNameConstant,
		flagCommitNameConstant,
		flagAutoCommitNameConstant,
		flagBranchNameConstant,
		flagPushNameConstant,
		flagCommitsNameConstant,
		flagCreatePRNameConstant,
		flagListPRsNameConstant,
	)

	command.RunE = func(command *cobra.Command, arguments []string) error {
		options, optionsError := builder.parseOptions(command)
		if optionsError != nil {
			return optionsError
		}
		return builder.run(command, *githubFlags, options)
	}

	return command, nil
}

func (builder *CommandBuilder) parseOptions(command *cobra.Command) (CommandOptions, error) {
	configuration := builder.resolveConfiguration()
	flagSet := command.Flags()

	repositoryPath := configuration.RepositoryPath
	if flagSet.Changed(flagRepositoryPathNameConstant) {
		repositoryPath, _ = flagSet.GetString(flagRepositoryPathNameConstant)
	}
	if !filepath.IsAbs(repositoryPath) {
		repositoryPath = filepath.Join(builder.resolveWorkingDirectory(), repositoryPath)
	}

	baseBranch := configuration.BaseBranch
	if flagSet.Changed(flagBaseNameConstant) {
		baseBranch, _ = flagSet.GetString(flagBaseNameConstant)
	}

	status, _ := flagSet.GetBool(flagStatusNameConstant)
	diffFile, _ := flagSet.GetString(flagDiffNameConstant)
	commitMessage, _ := flagSet.GetString(flagCommitNameConstant)
	autoCommit, _ := flagSet.GetBool(flagAutoCommitNameConstant)
	files, _ := flagSet.GetStringSlice(flagFilesNameConstant)
	branch, _ := flagSet.GetString(flagBranchNameConstant)
	push, _ := flagSet.GetBool(flagPushNameConstant)
	commitLimit, _ := flagSet.GetInt(flagCommitsNameConstant)
	pullRequestTitle, _ := flagSet.GetString(flagCreatePRNameConstant)
	pullRequestBody, _ := flagSet.GetString(flagPRBodyNameConstant)
	listPullRequests, _ := flagSet.GetBool(flagListPRsNameConstant)
	pullRequestState, _ := flagSet.GetString(flagPRStateNameConstant)
	pullRequestLimit, _ := flagSet.GetInt(flagPRLimitNameConstant)

	options := CommandOptions{
		RepositoryPath:   repositoryPath,
		Remote:           configuration.Remote,
		BaseBranch:       baseBranch,
		Status:           status,
		DiffFile:         diffFile,
		ShowDiff:         flagSet.Changed(flagDiffNameConstant),
		CommitMessage:    commitMessage,
		AutoCommit:       autoCommit || flagSet.Changed(flagCommitNameConstant),
		Files:            files,
		Branch:           branch,
		Push:             push,
		CommitLimit:      commitLimit,
		ShowCommits:      flagSet.Changed(flagCommitsNameConstant),
		PullRequestTitle: pullRequestTitle,
		PullRequestBody:  pullRequestBody,
		ListPullRequests: listPullRequests,
		PullRequestState: githubapi.PullRequestState(pullRequestState),
		PullRequestLimit: pullRequestLimit,
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
	repository, repositoryError := NewRepository(gitExecutor, options.RepositoryPath)
	if repositoryError != nil {
		return repositoryError
	}
	service, serviceError := NewService(logger, repository, WithRemote(options.Remote))
	if serviceError != nil {
		return serviceError
	}
	reporter := NewReporter(command.OutOrStdout(), builder.resolvePalette(), builder.Clock)

	switch {
	case options.Status:
		changeSet, statusError := repository.Status(executionContext)
		if statusError != nil {
			return fmt.Errorf(commandErrorTemplateConstant, statusError)
		}
		return reporter.RenderStatus(changeSet)
	case options.ShowDiff:
		diff, diffError := repository.Diff(executionContext, options.DiffFile)
		if diffError != nil {
			return fmt.Errorf(commandErrorTemplateConstant, diffError)
		}
		return reporter.RenderDiff(options.DiffFile, diff)
	case options.AutoCommit:
		result, commitError := service.AutoCommit(executionContext, AutoCommitOptions{
			Message: options.CommitMessage,
			Files:   options.Files,
			Push:    options.Push,
		})
		if commitError != nil {
			return fmt.Errorf(commandErrorTemplateConstant, commitError)
		}
		return reporter.RenderCommit(result, service.Remote())
	case len(options.Branch) > 0:
		if branchError := repository.CreateBranch(executionContext, options.Branch, options.BaseBranch); branchError != nil {
			return fmt.Errorf(commandErrorTemplateConstant, branchError)
		}
		if renderError := reporter.RenderBranch(options.Branch); renderError != nil {
			return renderError
		}
		if !options.Push {
			return nil
		}
		return builder.push(executionContext, service, reporter, options.Branch)
	case options.ShowCommits:
		commits, logError := repository.RecentCommits(executionContext, options.CommitLimit)
		if logError != nil {
			return fmt.Errorf(commandErrorTemplateConstant, logError)
		}
		return reporter.RenderCommits(commits)
	case len(options.PullRequestTitle) > 0 || options.ListPullRequests:
		pullRequests, accessError := builder.pullRequestService(command, logger, githubFlags, gitExecutor, options)
		if accessError != nil {
			return accessError
		}
		if options.ListPullRequests {
			listed, listError := pullRequests.List(executionContext, options.PullRequestState, options.PullRequestLimit)
			if listError != nil {
				return fmt.Errorf(commandErrorTemplateConstant, listError)
			}
			return reporter.RenderPullRequests(options.PullRequestState, listed)
		}
		head, branchError := repository.CurrentBranch(executionContext)
		if branchError != nil {
			return fmt.Errorf(commandErrorTemplateConstant, branchError)
		}
		created, createError := pullRequests.Create(executionContext, options.PullRequestTitle, head, options.BaseBranch, options.PullRequestBody)
		if createError != nil {
			return fmt.Errorf(commandErrorTemplateConstant, createError)
		}
		return reporter.RenderPullRequest(created)
	default:
		branch, branchError := repository.CurrentBranch(executionContext)
		if branchError != nil {
			return fmt.Errorf(commandErrorTemplateConstant, branchError)
		}
		return builder.push(executionContext, service, reporter, branch)
	}
}

func (builder *CommandBuilder) push(executionContext context.Context, service *Service, reporter *Reporter, branch string) error {
	if pushError := service.Push(executionContext, branch); pushError != nil {
		return fmt.Errorf(commandErrorTemplateConstant, pushError)
	}
	return reporter.RenderPush(service.Remote(), branch)
}

func (builder *CommandBuilder) pullRequestService(command *cobra.Command, logger *zap.Logger, githubFlags flags.GitHubFlagValues, gitExecutor dependencies.GitExecutor, options CommandOptions) (*PullRequestService, error) {
	access, accessError := dependencies.ResolveGitHubAccess(command.Context(), logger, dependencies.GitHubAccessRequest{
		Settings:  builder.resolveGitHubSettings(),
		TokenFlag: githubFlags.Token,
		Sources: dependencies.RepositorySources{
			FlagValue:        githubFlags.Repository,
			WorkingDirectory: options.RepositoryPath,
			RemoteName:       options.Remote,
		},
		Executor:    gitExecutor,
		HTTPClient:  builder.HTTPClient,
		Environment: builder.Environment,
	})
	if accessError != nil {
		return nil, accessError
	}
	return NewPullRequestService(logger, access.Client, access.Repository)
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
