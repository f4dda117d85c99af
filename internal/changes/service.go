package changes

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/temirov/ci_scripts/internal/githubapi"
	"github.com/temirov/ci_scripts/internal/gitrepo"
)

const (
	repositoryMissingMessageConstant     = "changes repository not configured"
	clientMissingMessageConstant         = "pull request client not configured"
	slugMissingMessageConstant           = "pull request repository not configured"
	headBranchMissingMessageConstant     = "current branch could not be determined; check out a branch before creating a pull request"
	createPullRequestErrorTemplate       = "unable to create pull request: %w"
	listPullRequestsErrorTemplate        = "unable to list pull requests: %w"
	logMessageWorkingTreeCleanConstant   = "working tree clean; nothing to commit"
	logMessageCommittedConstant          = "committed changes"
	logMessageNothingStagedConstant      = "nothing staged after add; commit skipped"
	logMessagePushedConstant             = "pushed branch"
	logMessagePullRequestCreatedConstant = "created pull request"
	logFieldRepositoryPathConstant       = "repository_path"
	logFieldMessageConstant              = "message"
	logFieldCategoryConstant             = "category"
	logFieldFilesConstant                = "files"
	logFieldRemoteConstant               = "remote"
	logFieldBranchConstant               = "branch"
	logFieldRepositoryConstant           = "repository"
	logFieldNumberConstant               = "number"
)

var (
	// ErrRepositoryNotConfigured indicates the service was built without a repository.
	ErrRepositoryNotConfigured = errors.New(repositoryMissingMessageConstant)
	// ErrPullRequestClientNotConfigured indicates the pull request service was built without a GitHub client.
	ErrPullRequestClientNotConfigured = errors.New(clientMissingMessageConstant)
	// ErrPullRequestRepositoryNotConfigured indicates the pull request service was built without a repository slug.
	ErrPullRequestRepositoryNotConfigured = errors.New(slugMissingMessageConstant)
	// ErrHeadBranchUnknown indicates a pull request was requested from a detached HEAD.
	ErrHeadBranchUnknown = errors.New(headBranchMissingMessageConstant)
)

// AutoCommitOptions configures one AutoCommit invocation.
type AutoCommitOptions struct {
	// Message overrides the suggested commit message.
	Message string
	Files   []string
	Push    bool
}

// AutoCommitResult reports what AutoCommit did.
type AutoCommitResult struct {
	ChangeSet ChangeSet `json:"change_set" yaml:"change_set"`
	Message   string    `json:"message" yaml:"message"`
	Committed bool      `json:"committed" yaml:"committed"`
	Pushed    bool      `json:"pushed" yaml:"pushed"`
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithRemote sets the remote used for pushes.
func WithRemote(remote string) ServiceOption {
	return func(service *Service) {
		if trimmed := strings.TrimSpace(remote); len(trimmed) > 0 {
			service.remote = trimmed
		}
	}
}

// Service commits and pushes working tree changes.
type Service struct {
	logger     *zap.Logger
	repository *Repository
	remote     string
}

// NewService constructs a Service over repository.
func NewService(logger *zap.Logger, repository *Repository, options ...ServiceOption) (*Service, error) {
	if repository == nil {
		return nil, ErrRepositoryNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	service := &Service{logger: logger, repository: repository, remote: defaultRemoteConstant}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// Remote reports the remote used for pushes.
func (service *Service) Remote() string {
	return service.remote
}

// AutoCommit reads the working tree, derives a commit message, commits, and optionally pushes the current branch.
// A clean working tree without an explicit message is not an error; the result reports Committed false.
func (service *Service) AutoCommit(executionContext context.Context, options AutoCommitOptions) (AutoCommitResult, error) {
	changeSet, statusError := service.repository.Status(executionContext)
	if statusError != nil {
		return AutoCommitResult{}, statusError
	}

	result := AutoCommitResult{ChangeSet: changeSet, Message: strings.TrimSpace(options.Message)}
	if len(result.Message) == 0 {
		if changeSet.Empty() {
			service.logger.Info(logMessageWorkingTreeCleanConstant, zap.String(logFieldRepositoryPathConstant, service.repository.Path()))
			return result, nil
		}
		result.Message = SuggestCommitMessage(changeSet)
	}

	committed, commitError := service.repository.Commit(executionContext, result.Message, options.Files)
	if commitError != nil {
		return result, commitError
	}
	if !committed {
		service.logger.Info(logMessageNothingStagedConstant, zap.String(logFieldRepositoryPathConstant, service.repository.Path()))
		return result, nil
	}
	result.Committed = true
	service.logger.Info(logMessageCommittedConstant,
		zap.String(logFieldMessageConstant, result.Message),
		zap.String(logFieldCategoryConstant, string(Classify(changeSet))),
		zap.Int(logFieldFilesConstant, len(changeSet.Changes)),
	)

	if !options.Push {
		return result, nil
	}
	if pushError := service.Push(executionContext, changeSet.Branch); pushError != nil {
		return result, pushError
	}
	result.Pushed = true
	return result, nil
}

// Push pushes branch to the configured remote; an empty branch pushes to the existing upstream.
func (service *Service) Push(executionContext context.Context, branch string) error {
	if pushError := service.repository.Push(executionContext, service.remote, branch); pushError != nil {
		return pushError
	}
	service.logger.Info(logMessagePushedConstant,
		zap.String(logFieldRemoteConstant, service.remote),
		zap.String(logFieldBranchConstant, branch),
	)
	return nil
}

// PullRequestClient is the subset of githubapi.Client used for pull requests.
type PullRequestClient interface {
	CreatePullRequest(executionContext context.Context, repository gitrepo.RepositorySlug, creation githubapi.PullRequestCreation) (githubapi.PullRequest, error)
	ListPullRequests(executionContext context.Context, repository gitrepo.RepositorySlug, options githubapi.PullRequestListOptions) ([]githubapi.PullRequest, error)
}

// PullRequestService opens and lists pull requests of one repository.
type PullRequestService struct {
	logger     *zap.Logger
	client     PullRequestClient
	repository gitrepo.RepositorySlug
}

// NewPullRequestService constructs a PullRequestService bound to repository.
func NewPullRequestService(logger *zap.Logger, client PullRequestClient, repository gitrepo.RepositorySlug) (*PullRequestService, error) {
	if client == nil {
		return nil, ErrPullRequestClientNotConfigured
	}
	if repository.IsZero() {
		return nil, ErrPullRequestRepositoryNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PullRequestService{logger: logger, client: client, repository: repository}, nil
}

// Create opens a pull request from head into base.
func (service *PullRequestService) Create(executionContext context.Context, title string, head string, base string, body string) (githubapi.PullRequest, error) {
	if len(strings.TrimSpace(head)) == 0 {
		return githubapi.PullRequest{}, ErrHeadBranchUnknown
	}
	if len(strings.TrimSpace(base)) == 0 {
		base = defaultBaseBranchConstant
	}

	pullRequest, createError := service.client.CreatePullRequest(executionContext, service.repository, githubapi.PullRequestCreation{
		Title: title,
		Head:  head,
		Base:  base,
		Body:  body,
	})
	if createError != nil {
		return githubapi.PullRequest{}, fmt.Errorf(createPullRequestErrorTemplate, createError)
	}
	service.logger.Info(logMessagePullRequestCreatedConstant,
		zap.String(logFieldRepositoryConstant, service.repository.String()),
		zap.Int(logFieldNumberConstant, pullRequest.Number),
	)
	return pullRequest, nil
}

// List returns up to limit pull requests in state.
func (service *PullRequestService) List(executionContext context.Context, state githubapi.PullRequestState, limit int) ([]githubapi.PullRequest, error) {
	pullRequests, listError := service.client.ListPullRequests(executionContext, service.repository, githubapi.PullRequestListOptions{
		State:   state,
		PerPage: limit,
	})
	if listError != nil {
		return nil, fmt.Errorf(listPullRequestsErrorTemplate, listError)
	}
	return pullRequests, nil
}
