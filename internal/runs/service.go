package runs

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/ci_scripts/internal/githubapi"
	"github.com/temirov/ci_scripts/internal/gitrepo"
)

const (
	failedRunsScanMultiplierConstant   = 2
	runNotFoundMessageConstant         = "workflow run not found"
	runNotFoundTemplateConstant        = "%w: %d"
	clientNotConfiguredMessageConstant = "runs client not configured"
	repositoryMissingMessageConstant   = "runs repository not configured"
	listRunsErrorTemplateConstant      = "unable to list workflow runs: %w"
	runSummaryErrorTemplateConstant    = "unable to fetch workflow run %d: %w"
	jobsErrorTemplateConstant          = "unable to list jobs for run %d: %w"
	logMessageListedRunsConstant       = "listed workflow runs"
	logMessageFilteredFailuresConstant = "filtered failed workflow runs"
	logFieldRepositoryConstant         = "repository"
	logFieldWorkflowConstant           = "workflow"
	logFieldLimitConstant              = "limit"
	logFieldCountConstant              = "count"
)

var (
	// ErrRunNotFound indicates the requested run does not exist in the repository.
	ErrRunNotFound = errors.New(runNotFoundMessageConstant)
	// ErrClientNotConfigured indicates the service was built without a GitHub client.
	ErrClientNotConfigured = errors.New(clientNotConfiguredMessageConstant)
	// ErrRepositoryNotConfigured indicates the service was built without a repository.
	ErrRepositoryNotConfigured = errors.New(repositoryMissingMessageConstant)
)

// GitHubRunsClient is the subset of githubapi.Client used by the service.
type GitHubRunsClient interface {
	ListRuns(executionContext context.Context, repository gitrepo.RepositorySlug, options githubapi.RunListOptions) ([]githubapi.WorkflowRun, error)
	GetRun(executionContext context.Context, repository gitrepo.RepositorySlug, runID int64) (githubapi.WorkflowRun, error)
	ListJobs(executionContext context.Context, repository gitrepo.RepositorySlug, runID int64) ([]githubapi.Job, error)
}

// RunDetails couples a run with its jobs.
type RunDetails struct {
	Run  githubapi.WorkflowRun `json:"run" yaml:"run"`
	Jobs []githubapi.Job       `json:"jobs" yaml:"jobs"`
}

// Service queries workflow runs of one repository.
type Service struct {
	logger     *zap.Logger
	client     GitHubRunsClient
	repository gitrepo.RepositorySlug
}

// NewService constructs a Service bound to repository.
func NewService(logger *zap.Logger, client GitHubRunsClient, repository gitrepo.RepositorySlug) (*Service, error) {
	if client == nil {
		return nil, ErrClientNotConfigured
	}
	if repository.IsZero() {
		return nil, ErrRepositoryNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{logger: logger, client: client, repository: repository}, nil
}

// Repository reports the repository the service queries.
func (service *Service) Repository() gitrepo.RepositorySlug {
	return service.repository
}

// ListRuns returns up to limit recent runs, optionally restricted to one workflow file.
func (service *Service) ListRuns(executionContext context.Context, workflowFile string, limit int) ([]githubapi.WorkflowRun, error) {
	workflowRuns, listError := service.client.ListRuns(executionContext, service.repository, githubapi.RunListOptions{
		WorkflowFile: workflowFile,
		PerPage:      limit,
	})
	if listError != nil {
		return nil, fmt.Errorf(listRunsErrorTemplateConstant, listError)
	}

	if limit > 0 && len(workflowRuns) > limit {
		workflowRuns = workflowRuns[:limit]
	}

	service.logger.Debug(logMessageListedRunsConstant,
		zap.String(logFieldRepositoryConstant, service.repository.String()),
		zap.String(logFieldWorkflowConstant, workflowFile),
		zap.Int(logFieldLimitConstant, limit),
		zap.Int(logFieldCountConstant, len(workflowRuns)),
	)
	return workflowRuns, nil
}

// FailedRuns scans twice limit recent runs and returns at most limit with a failure conclusion.
func (service *Service) FailedRuns(executionContext context.Context, limit int) ([]githubapi.WorkflowRun, error) {
	return service.FailedRunsWithin(executionContext, limit*failedRunsScanMultiplierConstant, limit)
}

// FailedRunsWithin scans scanLimit recent runs and returns at most limit failed ones in listing order.
func (service *Service) FailedRunsWithin(executionContext context.Context, scanLimit int, limit int) ([]githubapi.WorkflowRun, error) {
	recentRuns, listError := service.ListRuns(executionContext, "", scanLimit)
	if listError != nil {
		return nil, listError
	}

	failedRuns := make([]githubapi.WorkflowRun, 0, limit)
	for _, workflowRun := range recentRuns {
		if len(failedRuns) >= limit {
			break
		}
		if workflowRun.Failed() {
			failedRuns = append(failedRuns, workflowRun)
		}
	}

	service.logger.Debug(logMessageFilteredFailuresConstant,
		zap.String(logFieldRepositoryConstant, service.repository.String()),
		zap.Int(logFieldLimitConstant, limit),
		zap.Int(logFieldCountConstant, len(failedRuns)),
	)
	return failedRuns, nil
}

// RunSummary fetches one run by identifier. A missing run yields ErrRunNotFound.
func (service *Service) RunSummary(executionContext context.Context, runID int64) (githubapi.WorkflowRun, error) {
	workflowRun, getError := service.client.GetRun(executionContext, service.repository, runID)
	if getError != nil {
		if errors.Is(getError, githubapi.ErrResourceNotFound) {
			return githubapi.WorkflowRun{}, fmt.Errorf(runNotFoundTemplateConstant, ErrRunNotFound, runID)
		}
		return githubapi.WorkflowRun{}, fmt.Errorf(runSummaryErrorTemplateConstant, runID, getError)
	}
	return workflowRun, nil
}

// Jobs lists the jobs of a run with their steps.
func (service *Service) Jobs(executionContext context.Context, runID int64) ([]githubapi.Job, error) {
	jobs, listError := service.client.ListJobs(executionContext, service.repository, runID)
	if listError != nil {
		if errors.Is(listError, githubapi.ErrResourceNotFound) {
			return nil, fmt.Errorf(runNotFoundTemplateConstant, ErrRunNotFound, runID)
		}
		return nil, fmt.Errorf(jobsErrorTemplateConstant, runID, listError)
	}
	return jobs, nil
}

// Details fetches the run summary followed by its jobs.
func (service *Service) Details(executionContext context.Context, runID int64) (RunDetails, error) {
	workflowRun, summaryError := service.RunSummary(executionContext, runID)
	if summaryError != nil {
		return RunDetails{}, summaryError
	}
	jobs, jobsError := service.Jobs(executionContext, runID)
	if jobsError != nil {
		return RunDetails{}, jobsError
	}
	return RunDetails{Run: workflowRun, Jobs: jobs}, nil
}
