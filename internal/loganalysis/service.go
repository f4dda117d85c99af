package loganalysis

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/temirov/ci_scripts/internal/githubapi"
	"github.com/temirov/ci_scripts/internal/gitrepo"
	"github.com/temirov/ci_scripts/internal/ui"
)

const (
	defaultScanRunLimitConstant        = 10
	defaultFailedRunLimitConstant      = 3
	clientNotConfiguredMessageConstant = "log analysis client not configured"
	runSourceNotConfiguredMessage      = "log analysis run source not configured"
	repositoryMissingMessageConstant   = "log analysis repository not configured"
	listJobsErrorTemplateConstant      = "unable to list jobs for run %d: %w"
	failedRunsErrorTemplateConstant    = "unable to list failed runs: %w"
	downloadProgressTemplateConstant   = "Downloading logs for job %s"
	logMessageAnalyzingRunConstant     = "analyzing workflow run"
	logMessageLogsUnavailableConstant  = "job logs unavailable"
	logMessageLogsEmptyConstant        = "job log is empty"
	logMessageJobAnalyzedConstant      = "job log analyzed"
	logFieldRepositoryConstant         = "repository"
	logFieldRunIDConstant              = "run_id"
	logFieldJobIDConstant              = "job_id"
	logFieldJobNameConstant            = "job_name"
	logFieldFailedJobsConstant         = "failed_jobs"
	logFieldFindingsConstant           = "findings"
	logFieldLogBytesConstant           = "log_bytes"
)

var (
	// ErrClientNotConfigured indicates the service was built without a GitHub client.
	ErrClientNotConfigured = errors.New(clientNotConfiguredMessageConstant)
	// ErrRunSourceNotConfigured indicates recent failures were requested without a run source.
	ErrRunSourceNotConfigured = errors.New(runSourceNotConfiguredMessage)
	// ErrRepositoryNotConfigured indicates the service was built without a repository.
	ErrRepositoryNotConfigured = errors.New(repositoryMissingMessageConstant)
)

// GitHubLogsClient is the subset of githubapi.Client used to fetch jobs and their logs.
type GitHubLogsClient interface {
	ListJobs(executionContext context.Context, repository gitrepo.RepositorySlug, runID int64) ([]githubapi.Job, error)
	DownloadJobLogs(executionContext context.Context, repository gitrepo.RepositorySlug, jobID int64) ([]byte, error)
}

// FailedRunSource lists recent failed runs; runs.Service satisfies it.
type FailedRunSource interface {
	FailedRunsWithin(executionContext context.Context, scanLimit int, limit int) ([]githubapi.WorkflowRun, error)
}

// JobAnalysis describes the findings for one failed job.
type JobAnalysis struct {
	Job           githubapi.Job `json:"job" yaml:"job"`
	LogsAvailable bool          `json:"logs_available" yaml:"logs_available"`
	LogSize       int           `json:"log_size" yaml:"log_size"`
	Findings      []Finding     `json:"findings" yaml:"findings"`
}

// RunAnalysis groups the failed jobs of one workflow run.
type RunAnalysis struct {
	RunID int64         `json:"run_id" yaml:"run_id"`
	Jobs  []JobAnalysis `json:"jobs" yaml:"jobs"`
}

// ServiceOption customizes a Service.
type ServiceOption func(*Service)

// WithProgressIndicator reports log downloads through indicator.
func WithProgressIndicator(indicator ui.ProgressIndicator) ServiceOption {
	return func(service *Service) {
		if indicator != nil {
			service.progress = indicator
		}
	}
}

// WithScanRunLimit sets how many recent runs are inspected when searching for failures.
func WithScanRunLimit(scanLimit int) ServiceOption {
	return func(service *Service) {
		if scanLimit > 0 {
			service.scanRunLimit = scanLimit
		}
	}
}

// Service analyzes the failed jobs of workflow runs.
type Service struct {
	logger       *zap.Logger
	client       GitHubLogsClient
	runSource    FailedRunSource
	repository   gitrepo.RepositorySlug
	progress     ui.ProgressIndicator
	scanRunLimit int
}

// NewService constructs a Service bound to repository. runSource may be nil when only single runs are analyzed.
func NewService(logger *zap.Logger, client GitHubLogsClient, runSource FailedRunSource, repository gitrepo.RepositorySlug, options ...ServiceOption) (*Service, error) {
	if client == nil {
		return nil, ErrClientNotConfigured
	}
	if repository.IsZero() {
		return nil, ErrRepositoryNotConfigured
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	service := &Service{
		logger:       logger,
		client:       client,
		runSource:    runSource,
		repository:   repository,
		progress:     ui.NewProgressIndicator(nil, false),
		scanRunLimit: defaultScanRunLimitConstant,
	}
	for _, option := range options {
		if option != nil {
			option(service)
		}
	}
	return service, nil
}

// AnalyzeRun downloads and analyzes the logs of every failed job in the run.
func (service *Service) AnalyzeRun(executionContext context.Context, runID int64) (RunAnalysis, error) {
	jobs, jobsError := service.client.ListJobs(executionContext, service.repository, runID)
	if jobsError != nil {
		return RunAnalysis{}, fmt.Errorf(listJobsErrorTemplateConstant, runID, jobsError)
	}

	analysis := RunAnalysis{RunID: runID, Jobs: []JobAnalysis{}}
	for _, job := range jobs {
		if !job.Failed() {
			continue
		}
		jobAnalysis, jobError := service.analyzeJob(executionContext, job)
		if jobError != nil {
			return RunAnalysis{}, jobError
		}
		analysis.Jobs = append(analysis.Jobs, jobAnalysis)
	}

	service.logger.Info(
		logMessageAnalyzingRunConstant,
		zap.String(logFieldRepositoryConstant, service.repository.String()),
		zap.Int64(logFieldRunIDConstant, runID),
		zap.Int(logFieldFailedJobsConstant, len(analysis.Jobs)),
	)
	return analysis, nil
}

// AnalyzeRecentFailures analyzes up to limit failed runs found among the most recent runs.
func (service *Service) AnalyzeRecentFailures(executionContext context.Context, limit int) ([]RunAnalysis, error) {
	if service.runSource == nil {
		return nil, ErrRunSourceNotConfigured
	}
	if limit <= 0 {
		limit = defaultFailedRunLimitConstant
	}

	failedRuns, failedRunsError := service.runSource.FailedRunsWithin(executionContext, service.scanRunLimit, limit)
	if failedRunsError != nil {
		return nil, fmt.Errorf(failedRunsErrorTemplateConstant, failedRunsError)
	}

	analyses := make([]RunAnalysis, 0, len(failedRuns))
	for _, failedRun := range failedRuns {
		analysis, analysisError := service.AnalyzeRun(executionContext, failedRun.ID)
		if analysisError != nil {
			return nil, analysisError
		}
		analyses = append(analyses, analysis)
	}
	return analyses, nil
}

func (service *Service) analyzeJob(executionContext context.Context, job githubapi.Job) (JobAnalysis, error) {
	service.progress.Start(fmt.Sprintf(downloadProgressTemplateConstant, job.Name))
	payload, downloadError := service.client.DownloadJobLogs(executionContext, service.repository, job.ID)
	service.progress.Stop()

	if downloadError != nil {
		if contextError := executionContext.Err(); contextError != nil {
			return JobAnalysis{}, contextError
		}
		service.logger.Warn(
			logMessageLogsUnavailableConstant,
			zap.Int64(logFieldJobIDConstant, job.ID),
			zap.String(logFieldJobNameConstant, job.Name),
			zap.Error(downloadError),
		)
		return JobAnalysis{Job: job, LogsAvailable: false, Findings: []Finding{}}, nil
	}
	if len(payload) == 0 {
		service.logger.Warn(logMessageLogsEmptyConstant, zap.Int64(logFieldJobIDConstant, job.ID), zap.String(logFieldJobNameConstant, job.Name))
		return JobAnalysis{Job: job, LogsAvailable: false, Findings: []Finding{}}, nil
	}

	findings := Analyze(DecodeLog(payload))
	service.logger.Debug(
		logMessageJobAnalyzedConstant,
		zap.Int64(logFieldJobIDConstant, job.ID),
		zap.Int(logFieldLogBytesConstant, len(payload)),
		zap.Int(logFieldFindingsConstant, len(findings)),
	)
	return JobAnalysis{Job: job, LogsAvailable: true, LogSize: len(payload), Findings: findings}, nil
}
