package changes

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/temirov/ci_scripts/internal/execshell"
)

const (
	gitStatusSubcommandConstant                 = "status"
	gitPorcelainFlagConstant                    = "--porcelain"
	gitBranchSubcommandConstant                 = "branch"
	gitShowCurrentFlagConstant                  = "--show-current"
	gitDiffSubcommandConstant                   = "diff"
	gitPathSeparatorArgumentConstant            = "--"
	gitAddSubcommandConstant                    = "add"
	gitAddAllFlagConstant                       = "-A"
	gitCommitSubcommandConstant                 = "commit"
	gitMessageFlagConstant                      = "-m"
	gitCheckoutSubcommandConstant               = "checkout"
	gitCreateBranchFlagConstant                 = "-b"
	gitPushSubcommandConstant                   = "push"
	gitSetUpstreamFlagConstant                  = "--set-upstream"
	gitLogSubcommandConstant                    = "log"
	gitLimitFlagConstant                        = "-n"
	gitCommitFormatConstant                     = "--pretty=format:%H|%s|%an|%ar"
	commitFieldSeparatorConstant                = "|"
	commitFieldCountConstant                    = 4
	shortHashLengthConstant                     = 7
	defaultRemoteConstant                       = "origin"
	defaultBaseBranchConstant                   = "main"
	gitTerminalPromptEnvironmentNameConstant    = "GIT_TERMINAL_PROMPT"
	gitTerminalPromptEnvironmentDisableConstant = "0"
	gitExecutorMissingMessageConstant           = "git executor not configured"
	commitMessageRequiredMessageConstant        = "commit message must be provided"
	branchNameRequiredMessageConstant           = "branch name must be provided"
	statusErrorTemplateConstant                 = "failed to read working tree status: %w"
	branchErrorTemplateConstant                 = "failed to read current branch: %w"
	diffErrorTemplateConstant                   = "failed to read diff: %w"
	stageErrorTemplateConstant                  = "failed to stage %s: %w"
	commitErrorTemplateConstant                 = "failed to commit: %w"
	createBranchErrorTemplateConstant           = "failed to create branch %q from %q: %w"
	pushErrorTemplateConstant                   = "failed to push: %w"
	logErrorTemplateConstant                    = "failed to read recent commits: %w"
)

var (
	// ErrGitExecutorNotConfigured indicates the repository was built without a git executor.
	ErrGitExecutorNotConfigured = errors.New(gitExecutorMissingMessageConstant)
	// ErrCommitMessageRequired indicates an empty commit message.
	ErrCommitMessageRequired = errors.New(commitMessageRequiredMessageConstant)
	// ErrBranchNameRequired indicates an empty branch name.
	ErrBranchNameRequired = errors.New(branchNameRequiredMessageConstant)
)

// GitExecutor is the git capability used by Repository.
type GitExecutor interface {
	ExecuteGit(executionContext context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error)
}

// Commit describes one entry of the recent history.
type Commit struct {
	Hash         string `json:"hash" yaml:"hash"`
	Message      string `json:"message" yaml:"message"`
	Author       string `json:"author" yaml:"author"`
	RelativeTime string `json:"relative_time" yaml:"relative_time"`
}

// Repository runs git commands in one working tree.
type Repository struct {
	executor GitExecutor
	path     string
}

// NewRepository constructs a Repository rooted at path.
func NewRepository(executor GitExecutor, path string) (*Repository, error) {
	if executor == nil {
		return nil, ErrGitExecutorNotConfigured
	}
	return &Repository{executor: executor, path: strings.TrimSpace(path)}, nil
}

// Path returns the working tree the repository operates on.
func (repository *Repository) Path() string {
	return repository.path
}

// Status returns the porcelain status together with the current branch.
func (repository *Repository) Status(executionContext context.Context) (ChangeSet, error) {
	statusOutput, statusError := repository.git(executionContext, gitStatusSubcommandConstant, gitPorcelainFlagConstant)
	if statusError != nil {
		return ChangeSet{}, fmt.Errorf(statusErrorTemplateConstant, statusError)
	}
	branch, branchError := repository.CurrentBranch(executionContext)
	if branchError != nil {
		return ChangeSet{}, branchError
	}

	changeSet := ParseStatus(statusOutput)
	changeSet.Branch = branch
	return changeSet, nil
}

// CurrentBranch returns the checked out branch, or an empty string on a detached HEAD.
func (repository *Repository) CurrentBranch(executionContext context.Context) (string, error) {
	branchOutput, branchError := repository.git(executionContext, gitBranchSubcommandConstant, gitShowCurrentFlagConstant)
	if branchError != nil {
		return "", fmt.Errorf(branchErrorTemplateConstant, branchError)
	}
	return strings.TrimSpace(branchOutput), nil
}

// Diff returns the unstaged diff, limited to file when provided.
func (repository *Repository) Diff(executionContext context.Context, file string) (string, error) {
	arguments := []string{gitDiffSubcommandConstant}
	if trimmedFile := strings.TrimSpace(file); len(trimmedFile) > 0 {
		arguments = append(arguments, gitPathSeparatorArgumentConstant, trimmedFile)
	}
	output, diffError := repository.git(executionContext, arguments...)
	if diffError != nil {
		return "", fmt.Errorf(diffErrorTemplateConstant, diffError)
	}
	return output, nil
}

// Commit stages files (or everything when none are given) and commits them.
// It returns false without committing when nothing is left to commit.
func (repository *Repository) Commit(executionContext context.Context, message string, files []string) (bool, error) {
	trimmedMessage := strings.TrimSpace(message)
	if len(trimmedMessage) == 0 {
		return false, ErrCommitMessageRequired
	}

	if len(files) == 0 {
		if _, addError := repository.git(executionContext, gitAddSubcommandConstant, gitAddAllFlagConstant); addError != nil {
			return false, fmt.Errorf(stageErrorTemplateConstant, gitAddAllFlagConstant, addError)
		}
	}
	for _, file := range files {
		if _, addError := repository.git(executionContext, gitAddSubcommandConstant, file); addError != nil {
			return false, fmt.Errorf(stageErrorTemplateConstant, file, addError)
		}
	}

	statusOutput, statusError := repository.git(executionContext, gitStatusSubcommandConstant, gitPorcelainFlagConstant)
	if statusError != nil {
		return false, fmt.Errorf(statusErrorTemplateConstant, statusError)
	}
	if len(strings.TrimSpace(statusOutput)) == 0 {
		return false, nil
	}

	if _, commitError := repository.git(executionContext, gitCommitSubcommandConstant, gitMessageFlagConstant, trimmedMessage); commitError != nil {
		return false, fmt.Errorf(commitErrorTemplateConstant, commitError)
	}
	return true, nil
}

// CreateBranch creates and checks out name from base (main when empty).
func (repository *Repository) CreateBranch(executionContext context.Context, name string, base string) error {
	trimmedName := strings.TrimSpace(name)
	if len(trimmedName) == 0 {
		return ErrBranchNameRequired
	}
	trimmedBase := strings.TrimSpace(base)
	if len(trimmedBase) == 0 {
		trimmedBase = defaultBaseBranchConstant
	}
	if _, checkoutError := repository.git(executionContext, gitCheckoutSubcommandConstant, gitCreateBranchFlagConstant, trimmedName, trimmedBase); checkoutError != nil {
		return fmt.Errorf(createBranchErrorTemplateConstant, trimmedName, trimmedBase, checkoutError)
	}
	return nil
}

// Push pushes branch to remote and sets its upstream. An empty branch pushes the current upstream.
func (repository *Repository) Push(executionContext context.Context, remote string, branch string) error {
	arguments := []string{gitPushSubcommandConstant}
	if trimmedBranch := strings.TrimSpace(branch); len(trimmedBranch) > 0 {
		trimmedRemote := strings.TrimSpace(remote)
		if len(trimmedRemote) == 0 {
			trimmedRemote = defaultRemoteConstant
		}
		arguments = append(arguments, gitSetUpstreamFlagConstant, trimmedRemote, trimmedBranch)
	}
	if _, pushError := repository.git(executionContext, arguments...); pushError != nil {
		return fmt.Errorf(pushErrorTemplateConstant, pushError)
	}
	return nil
}

// RecentCommits returns up to limit commits from HEAD, newest first.
func (repository *Repository) RecentCommits(executionContext context.Context, limit int) ([]Commit, error) {
	if limit <= 0 {
		limit = defaultCommitLimitConstant
	}
	output, logError := repository.git(executionContext, gitLogSubcommandConstant, gitLimitFlagConstant, strconv.Itoa(limit), gitCommitFormatConstant)
	if logError != nil {
		return nil, fmt.Errorf(logErrorTemplateConstant, logError)
	}

	commits := []Commit{}
	for _, line := range strings.Split(strings.TrimSpace(output), lineSeparatorConstant) {
		fields := strings.Split(strings.TrimSpace(line), commitFieldSeparatorConstant)
		if len(fields) < commitFieldCountConstant {
			continue
		}
		hash := fields[0]
		if len(hash) > shortHashLengthConstant {
			hash = hash[:shortHashLengthConstant]
		}
		lastIndex := len(fields) - 1
		commits = append(commits, Commit{
			Hash:         hash,
			Message:      strings.Join(fields[1:lastIndex-1], commitFieldSeparatorConstant),
			Author:       fields[lastIndex-1],
			RelativeTime: fields[lastIndex],
		})
	}
	return commits, nil
}

func (repository *Repository) git(executionContext context.Context, arguments ...string) (string, error) {
	result, executionError := repository.executor.ExecuteGit(executionContext, execshell.CommandDetails{
		Arguments:        arguments,
		WorkingDirectory: repository.path,
		EnvironmentVariables: map[string]string{
			gitTerminalPromptEnvironmentNameConstant: gitTerminalPromptEnvironmentDisableConstant,
		},
	})
	if executionError != nil {
		return "", executionError
	}
	return result.StandardOutput, nil
}
