package gitrepo

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/temirov/ci_scripts/internal/execshell"
)

const (
	gitRemoteSubcommandConstant       = "remote"
	gitRemoteGetURLSubcommandConstant = "get-url"
	defaultRemoteNameConstant         = "origin"
	remoteLookupErrorTemplateConstant = "unable to read remote %s: %w"
	remoteParseErrorTemplateConstant  = "unable to parse remote %s: %w"
	executorMissingMessageConstant    = "git executor not configured"
)

// ErrGitExecutorNotConfigured indicates the resolver was built without an executor.
var ErrGitExecutorNotConfigured = errors.New(executorMissingMessageConstant)

// GitExecutor is the subset of execshell.ShellExecutor used to query remotes.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// RemoteResolver derives the GitHub repository slug from a working tree remote.
type RemoteResolver struct {
	executor GitExecutor
}

// NewRemoteResolver constructs a RemoteResolver backed by the provided executor.
func NewRemoteResolver(executor GitExecutor) (*RemoteResolver, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &RemoteResolver{executor: executor}, nil
}

// ResolveRepository reads the URL of remoteName (origin when empty) in workingDirectory and converts it to a slug.
func (resolver *RemoteResolver) ResolveRepository(executionContext context.Context, workingDirectory string, remoteName string) (RepositorySlug, error) {
	trimmedRemoteName := strings.TrimSpace(remoteName)
	if len(trimmedRemoteName) == 0 {
		trimmedRemoteName = defaultRemoteNameConstant
	}

	executionResult, executionError := resolver.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        []string{gitRemoteSubcommandConstant, gitRemoteGetURLSubcommandConstant, trimmedRemoteName},
		WorkingDirectory: workingDirectory,
	})
	if executionError != nil {
		return RepositorySlug{}, fmt.Errorf(remoteLookupErrorTemplateConstant, trimmedRemoteName, executionError)
	}

	remoteURL, parseError := ParseRemoteURL(executionResult.StandardOutput)
	if parseError != nil {
		return RepositorySlug{}, fmt.Errorf(remoteParseErrorTemplateConstant, trimmedRemoteName, parseError)
	}

	return remoteURL.Slug(), nil
}
