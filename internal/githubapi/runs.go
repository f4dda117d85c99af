package githubapi

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/go-github/v72/github"

	"github.com/temirov/ci_scripts/internal/gitrepo"
)

const (
	jobsPageSizeConstant              = 100
	logRedirectLimitConstant          = 3
	listRunsOperationNameConstant     = OperationName("ListWorkflowRuns")
	getRunOperationNameConstant       = OperationName("GetWorkflowRun")
	listJobsOperationNameConstant     = OperationName("ListRunJobs")
	downloadLogsOperationNameConstant = OperationName("DownloadJobLogs")
	runIdentifierFieldNameConstant    = "run_id"
	jobIdentifierFieldNameConstant    = "job_id"
	positiveValueMessageConstant      = "must be positive"
)

// Run conclusions reported by GitHub.
const (
	ConclusionSuccess   = "success"
	ConclusionFailure   = "failure"
	ConclusionCancelled = "cancelled"
	ConclusionSkipped   = "skipped"
)

// Actor identifies the GitHub user that triggered a run.
type Actor struct {
	Login string `json:"login" yaml:"login"`
}

// WorkflowRun is a single execution of a workflow.
type WorkflowRun struct {
	ID              int64     `json:"id" yaml:"id"`
	Name            string    `json:"name" yaml:"name"`
	DisplayTitle    string    `json:"display_title" yaml:"display_title"`
	RunNumber       int       `json:"run_number" yaml:"run_number"`
	Status          string    `json:"status" yaml:"status"`
	Conclusion      string    `json:"conclusion" yaml:"conclusion"`
	Event           string    `json:"event" yaml:"event"`
	HeadBranch      string    `json:"head_branch" yaml:"head_branch"`
	HeadSHA         string    `json:"head_sha" yaml:"head_sha"`
	TriggeringActor Actor     `json:"triggering_actor" yaml:"triggering_actor"`
	HTMLURL         string    `json:"html_url" yaml:"html_url"`
	CreatedAt       time.Time `json:"created_at" yaml:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" yaml:"updated_at"`
}

// Failed reports whether the run concluded with a failure.
func (run WorkflowRun) Failed() bool {
	return run.Conclusion == ConclusionFailure
}

// JobStep is one step of a job.
type JobStep struct {
	Name       string `json:"name" yaml:"name"`
	Number     int    `json:"number" yaml:"number"`
	Status     string `json:"status" yaml:"status"`
	Conclusion string `json:"conclusion" yaml:"conclusion"`
}

// Job is a unit of a workflow run executed on a runner.
type Job struct {
	ID          int64     `json:"id" yaml:"id"`
	RunID       int64     `json:"run_id" yaml:"run_id"`
	Name        string    `json:"name" yaml:"name"`
	Status      string    `json:"status" yaml:"status"`
	Conclusion  string    `json:"conclusion" yaml:"conclusion"`
	StartedAt   time.Time `json:"started_at" yaml:"started_at"`
	CompletedAt time.Time `json:"completed_at" yaml:"completed_at"`
	HTMLURL     string    `json:"html_url" yaml:"html_url"`
	Steps       []JobStep `json:"steps" yaml:"steps"`
}

// Failed reports whether the job concluded with a failure.
func (job Job) Failed() bool {
	return job.Conclusion == ConclusionFailure
}

// RunListOptions narrows ListRuns.
type RunListOptions struct {
	WorkflowFile string
	PerPage      int
}

func convertRun(run *github.WorkflowRun) WorkflowRun {
	return WorkflowRun{
		ID:              run.GetID(),
		Name:            run.GetName(),
		DisplayTitle:    run.GetDisplayTitle(),
		RunNumber:       run.GetRunNumber(),
		Status:          run.GetStatus(),
		Conclusion:      run.GetConclusion(),
		Event:           run.GetEvent(),
		HeadBranch:      run.GetHeadBranch(),
		HeadSHA:         run.GetHeadSHA(),
		TriggeringActor: Actor{Login: run.GetTriggeringActor().GetLogin()},
		HTMLURL:         run.GetHTMLURL(),
		CreatedAt:       run.GetCreatedAt().Time,
		UpdatedAt:       run.GetUpdatedAt().Time,
	}
}

func convertJob(job *github.WorkflowJob) Job {
	steps := make([]JobStep, 0, len(job.Steps))
	for _, step := range job.Steps {
		steps = append(steps, JobStep{
			Name:       step.GetName(),
			Number:     int(step.GetNumber()),
			Status:     step.GetStatus(),
			Conclusion: step.GetConclusion(),
		})
	}
	return Job{
		ID:          job.GetID(),
		RunID:       job.GetRunID(),
		Name:        job.GetName(),
		Status:      job.GetStatus(),
		Conclusion:  job.GetConclusion(),
		StartedAt:   job.GetStartedAt().Time,
		CompletedAt: job.GetCompletedAt().Time,
		HTMLURL:     job.GetHTMLURL(),
		Steps:       steps,
	}
}

// ListRuns returns the most recent runs for the repository, or for one workflow file when provided.
func (client *Client) ListRuns(executionContext context.Context, repository gitrepo.RepositorySlug, options RunListOptions) ([]WorkflowRun, error) {
	if repositoryError := requireRepository(repository); repositoryError != nil {
		return nil, repositoryError
	}

	operationContext := withOperation(executionContext, listRunsOperationNameConstant)
	listOptions := &github.ListWorkflowRunsOptions{ListOptions: github.ListOptions{PerPage: options.PerPage}}

	var (
		runs     *github.WorkflowRuns
		response *github.Response
		apiError error
	)
	workflowFile := strings.TrimSpace(options.WorkflowFile)
	if len(workflowFile) > 0 {
		runs, response, apiError = client.restClient.Actions.ListWorkflowRunsByFileName(operationContext, repository.Owner, repository.Name, workflowFile, listOptions)
	} else {
		runs, response, apiError = client.restClient.Actions.ListRepositoryWorkflowRuns(operationContext, repository.Owner, repository.Name, listOptions)
	}
	if apiError != nil {
		return nil, translateError(listRunsOperationNameConstant, response, apiError)
	}

	converted := make([]WorkflowRun, 0, len(runs.WorkflowRuns))
	for _, run := range runs.WorkflowRuns {
		converted = append(converted, convertRun(run))
	}
	return converted, nil
}

// GetRun fetches a single run. A missing run yields an error matching ErrResourceNotFound.
func (client *Client) GetRun(executionContext context.Context, repository gitrepo.RepositorySlug, runID int64) (WorkflowRun, error) {
	if runID <= 0 {
		return WorkflowRun{}, InvalidInputError{FieldName: runIdentifierFieldNameConstant, Message: positiveValueMessageConstant}
	}
	if repositoryError := requireRepository(repository); repositoryError != nil {
		return WorkflowRun{}, repositoryError
	}

	operationContext := withOperation(executionContext, getRunOperationNameConstant)
	run, response, apiError := client.restClient.Actions.GetWorkflowRunByID(operationContext, repository.Owner, repository.Name, runID)
	if apiError != nil {
		return WorkflowRun{}, translateError(getRunOperationNameConstant, response, apiError)
	}
	return convertRun(run), nil
}

// ListJobs returns the jobs of a run including their steps.
func (client *Client) ListJobs(executionContext context.Context, repository gitrepo.RepositorySlug, runID int64) ([]Job, error) {
	if runID <= 0 {
		return nil, InvalidInputError{FieldName: runIdentifierFieldNameConstant, Message: positiveValueMessageConstant}
	}
	if repositoryError := requireRepository(repository); repositoryError != nil {
		return nil, repositoryError
	}

	operationContext := withOperation(executionContext, listJobsOperationNameConstant)
	listOptions := &github.ListWorkflowJobsOptions{ListOptions: github.ListOptions{PerPage: jobsPageSizeConstant}}
	jobs, response, apiError := client.restClient.Actions.ListWorkflowJobs(operationContext, repository.Owner, repository.Name, runID, listOptions)
	if apiError != nil {
		return nil, translateError(listJobsOperationNameConstant, response, apiError)
	}

	converted := make([]Job, 0, len(jobs.Jobs))
	for _, job := range jobs.Jobs {
		converted = append(converted, convertJob(job))
	}
	return converted, nil
}

// DownloadJobLogs returns the raw log text of a job. GitHub answers with a redirect to a signed archive URL.
func (client *Client) DownloadJobLogs(executionContext context.Context, repository gitrepo.RepositorySlug, jobID int64) ([]byte, error) {
	if jobID <= 0 {
		return nil, InvalidInputError{FieldName: jobIdentifierFieldNameConstant, Message: positiveValueMessageConstant}
	}
	if repositoryError := requireRepository(repository); repositoryError != nil {
		return nil, repositoryError
	}

	operationContext := withOperation(executionContext, downloadLogsOperationNameConstant)
	archiveURL, response, apiError := client.restClient.Actions.GetWorkflowJobLogs(operationContext, repository.Owner, repository.Name, jobID, logRedirectLimitConstant)
	if apiError != nil {
		return nil, translateError(downloadLogsOperationNameConstant, response, apiError)
	}
	archiveURL = client.restClient.BaseURL.ResolveReference(archiveURL)

	downloadRequest, requestError := http.NewRequestWithContext(operationContext, http.MethodGet, archiveURL.String(), nil)
	if requestError != nil {
		return nil, RequestError{Operation: downloadLogsOperationNameConstant, Cause: requestError}
	}
	downloadResponse, downloadError := client.downloadClient.Do(downloadRequest)
	if downloadError != nil {
		return nil, RequestError{Operation: downloadLogsOperationNameConstant, Cause: downloadError}
	}
	defer downloadResponse.Body.Close()

	if downloadResponse.StatusCode != http.StatusOK {
		return nil, ResponseStatusError{Operation: downloadLogsOperationNameConstant, StatusCode: downloadResponse.StatusCode}
	}

	logBytes, readError := io.ReadAll(downloadResponse.Body)
	if readError != nil {
		return nil, RequestError{Operation: downloadLogsOperationNameConstant, Cause: readError}
	}
	return logBytes, nil
}
