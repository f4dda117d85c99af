package runs_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ci_scripts/internal/githubapi"
	"github.com/temirov/ci_scripts/internal/gitrepo"
	"github.com/temirov/ci_scripts/internal/runs"
)

var testRepository = gitrepo.RepositorySlug{Owner: "octo", Name: "service"}

type stubRunsClient struct {
	workflowRuns    []githubapi.WorkflowRun
	listError       error
	run             githubapi.WorkflowRun
	getError        error
	jobs            []githubapi.Job
	jobsError       error
	recordedOptions []githubapi.RunListOptions
}

func (client *stubRunsClient) ListRuns(_ context.Context, _ gitrepo.RepositorySlug, options githubapi.RunListOptions) ([]githubapi.WorkflowRun, error) {
	client.recordedOptions = append(client.recordedOptions, options)
	return client.workflowRuns, client.listError
}

func (client *stubRunsClient) GetRun(context.Context, gitrepo.RepositorySlug, int64) (githubapi.WorkflowRun, error) {
	return client.run, client.getError
}

func (client *stubRunsClient) ListJobs(context.Context, gitrepo.RepositorySlug, int64) ([]githubapi.Job, error) {
	return client.jobs, client.jobsError
}

func buildRuns(conclusions ...string) []githubapi.WorkflowRun {
	workflowRuns := make([]githubapi.WorkflowRun, 0, len(conclusions))
	for index, conclusion := range conclusions {
		workflowRuns = append(workflowRuns, githubapi.WorkflowRun{ID: int64(index + 1), Name: "CI", Conclusion: conclusion})
	}
	return workflowRuns
}

func TestNewServiceValidation(testInstance *testing.T) {
	_, missingClientError := runs.NewService(nil, nil, testRepository)
	require.ErrorIs(testInstance, missingClientError, runs.ErrClientNotConfigured)

	_, missingRepositoryError := runs.NewService(nil, &stubRunsClient{}, gitrepo.RepositorySlug{})
	require.ErrorIs(testInstance, missingRepositoryError, runs.ErrRepositoryNotConfigured)
}

func TestFailedRunsScansTwiceTheLimit(testInstance *testing.T) {
	testCases := []struct {
		name        string
		conclusions []string
		limit       int
		expectedIDs []int64
	}{
		{
			name:        "truncates_to_limit",
			conclusions: []string{"failure", "success", "failure", "failure", "cancelled", "failure"},
			limit:       2,
			expectedIDs: []int64{1, 3},
		},
		{
			name:        "fewer_failures_than_limit",
			conclusions: []string{"success", "failure", "success"},
			limit:       5,
			expectedIDs: []int64{2},
		},
		{
			name:        "no_failures",
			conclusions: []string{"success", "", "cancelled"},
			limit:       3,
			expectedIDs: []int64{},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			client := &stubRunsClient{workflowRuns: buildRuns(testCase.conclusions...)}
			service, creationError := runs.NewService(nil, client, testRepository)
			require.NoError(testInstance, creationError)

			failedRuns, failedError := service.FailedRuns(context.Background(), testCase.limit)
			require.NoError(testInstance, failedError)

			identifiers := make([]int64, 0, len(failedRuns))
			for _, workflowRun := range failedRuns {
				identifiers = append(identifiers, workflowRun.ID)
			}
			require.Equal(testInstance, testCase.expectedIDs, identifiers)
			require.Equal(testInstance, []githubapi.RunListOptions{{PerPage: testCase.limit * 2}}, client.recordedOptions)
		})
	}
}

func TestListRunsPassesWorkflowAndTruncates(testInstance *testing.T) {
	client := &stubRunsClient{workflowRuns: buildRuns("success", "failure", "success")}
	service, creationError := runs.NewService(nil, client, testRepository)
	require.NoError(testInstance, creationError)

	workflowRuns, listError := service.ListRuns(context.Background(), "build.yml", 2)
	require.NoError(testInstance, listError)
	require.Len(testInstance, workflowRuns, 2)
	require.Equal(testInstance, "build.yml", client.recordedOptions[0].WorkflowFile)
	require.Equal(testInstance, 2, client.recordedOptions[0].PerPage)
}

func TestRunSummaryMapsNotFound(testInstance *testing.T) {
	testCases := []struct {
		name          string
		getError      error
		expectedError error
	}{
		{
			name:          "not_found",
			getError:      githubapi.ResponseStatusError{Operation: "GetWorkflowRun", StatusCode: 404},
			expectedError: runs.ErrRunNotFound,
		},
		{
			name:     "server_error",
			getError: githubapi.ResponseStatusError{Operation: "GetWorkflowRun", StatusCode: 500},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			service, creationError := runs.NewService(nil, &stubRunsClient{getError: testCase.getError}, testRepository)
			require.NoError(testInstance, creationError)

			_, summaryError := service.RunSummary(context.Background(), 99)
			require.Error(testInstance, summaryError)
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, summaryError, testCase.expectedError)
				return
			}
			require.False(testInstance, errors.Is(summaryError, runs.ErrRunNotFound))
			var statusError githubapi.ResponseStatusError
			require.ErrorAs(testInstance, summaryError, &statusError)
		})
	}
}

func TestDetailsCombinesRunAndJobs(testInstance *testing.T) {
	client := &stubRunsClient{
		run:  githubapi.WorkflowRun{ID: 42, Name: "CI"},
		jobs: []githubapi.Job{{ID: 7, Name: "build", Conclusion: "failure"}},
	}
	service, creationError := runs.NewService(nil, client, testRepository)
	require.NoError(testInstance, creationError)

	details, detailsError := service.Details(context.Background(), 42)
	require.NoError(testInstance, detailsError)
	require.Equal(testInstance, int64(42), details.Run.ID)
	require.Len(testInstance, details.Jobs, 1)
}
