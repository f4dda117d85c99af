package dependencies

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/temirov/ci_scripts/internal/execshell"
	"github.com/temirov/ci_scripts/internal/githubapi"
	"github.com/temirov/ci_scripts/internal/githubauth"
	"github.com/temirov/ci_scripts/internal/gitrepo"
)

const (
	repositoryRequiredMessageConstant        = "repository required: pass --repo owner/name, set github.repository, or run inside a clone with a GitHub remote"
	repositoryRequiredDetailTemplateConstant = "%w (%v)"
	repositoryFlagErrorTemplateConstant      = "--repo: %w"
	repositoryConfigErrorTemplateConstant    = "github.repository: %w"
	defaultRemoteNameConstant                = "origin"
)

// ErrRepositoryRequired indicates no repository could be determined from flags, configuration, or the working tree.
var ErrRepositoryRequired = errors.New(repositoryRequiredMessageConstant)

// GitExecutor is the git capability shared by the commands.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// GitHubSettings captures the github configuration section.
type GitHubSettings struct {
	APIBaseURL string        `mapstructure:"api_base_url" validate:"omitempty,url"`
	Repository string        `mapstructure:"repository" validate:"omitempty,contains=/"`
	Timeout    time.Duration `mapstructure:"timeout" validate:"gte=0"`
}

// DefaultGitHubSettings returns the baseline github configuration.
func DefaultGitHubSettings() GitHubSettings {
	return GitHubSettings{
		APIBaseURL: githubapi.DefaultBaseURL,
		Timeout:    githubapi.DefaultTimeout,
	}
}

// RepositorySources lists the places a repository slug may come from, in priority order.
type RepositorySources struct {
	FlagValue        string
	ConfiguredValue  string
	WorkingDirectory string
	RemoteName       string
}

// ResolveGitExecutor returns the provided executor or constructs a shell-backed default.
func ResolveGitExecutor(existing GitExecutor, logger *zap.Logger, observer execshell.CommandEventObserver) (GitExecutor, error) {
	if existing != nil {
		return existing, nil
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	shellExecutor, creationError := execshell.NewShellExecutor(logger, execshell.NewOSCommandRunner(), execshell.WithCommandEventObserver(observer))
	if creationError != nil {
		return nil, creationError
	}
	return shellExecutor, nil
}

// ResolveRepository picks the repository from the flag, then configuration, then the remote of the working tree.
func ResolveRepository(executionContext context.Context, sources RepositorySources, executor GitExecutor) (gitrepo.RepositorySlug, error) {
	if flagValue := strings.TrimSpace(sources.FlagValue); len(flagValue) > 0 {
		slug, parseError := gitrepo.ParseRepositorySlug(flagValue)
		if parseError != nil {
			return gitrepo.RepositorySlug{}, fmt.Errorf(repositoryFlagErrorTemplateConstant, parseError)
		}
		return slug, nil
	}

	if configuredValue := strings.TrimSpace(sources.ConfiguredValue); len(configuredValue) > 0 {
		slug, parseError := gitrepo.ParseRepositorySlug(configuredValue)
		if parseError != nil {
			return gitrepo.RepositorySlug{}, fmt.Errorf(repositoryConfigErrorTemplateConstant, parseError)
		}
		return slug, nil
	}

	if executor == nil {
		return gitrepo.RepositorySlug{}, ErrRepositoryRequired
	}

	resolver, resolverError := gitrepo.NewRemoteResolver(executor)
	if resolverError != nil {
		return gitrepo.RepositorySlug{}, resolverError
	}

	remoteName := strings.TrimSpace(sources.RemoteName)
	if len(remoteName) == 0 {
		remoteName = defaultRemoteNameConstant
	}

	slug, resolveError := resolver.ResolveRepository(executionContext, sources.WorkingDirectory, remoteName)
	if resolveError != nil {
		return gitrepo.RepositorySlug{}, fmt.Errorf(repositoryRequiredDetailTemplateConstant, ErrRepositoryRequired, resolveError)
	}
	return slug, nil
}

// GitHubAccessRequest bundles what is needed to talk to one repository on GitHub.
type GitHubAccessRequest struct {
	Settings    GitHubSettings
	TokenFlag   string
	Sources     RepositorySources
	Executor    GitExecutor
	HTTPClient  *http.Client
	Environment map[string]string
}

// GitHubAccess is an authenticated client bound to a resolved repository.
type GitHubAccess struct {
	Client     *githubapi.Client
	Repository gitrepo.RepositorySlug
}

// ResolveGitHubAccess resolves the token, the repository, and constructs the REST client.
func ResolveGitHubAccess(executionContext context.Context, logger *zap.Logger, request GitHubAccessRequest) (GitHubAccess, error) {
	token, tokenError := githubauth.RequireToken(request.TokenFlag, request.Environment)
	if tokenError != nil {
		return GitHubAccess{}, tokenError
	}

	sources := request.Sources
	if len(strings.TrimSpace(sources.ConfiguredValue)) == 0 {
		sources.ConfiguredValue = request.Settings.Repository
	}

	repository, repositoryError := ResolveRepository(executionContext, sources, request.Executor)
	if repositoryError != nil {
		return GitHubAccess{}, repositoryError
	}

	client, clientError := githubapi.NewClient(logger, request.HTTPClient, githubapi.ClientConfiguration{
		BaseURL: request.Settings.APIBaseURL,
		Token:   token,
		Timeout: request.Settings.Timeout,
	})
	if clientError != nil {
		return GitHubAccess{}, clientError
	}

	return GitHubAccess{Client: client, Repository: repository}, nil
}
