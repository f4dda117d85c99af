package loganalysis_test

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/ci_scripts/internal/githubapi"
	"github.com/temirov/ci_scripts/internal/gitrepo"
	"github.com/temirov/ci_scripts/internal/loganalysis"
)

var testRepository = gitrepo.RepositorySlug{Owner: "octo", Name: "service"}

type stubLogsClient struct {
	jobsByRun      map[int64][]githubapi.Job
	logsByJob      map[int64][]byte
	listJobsError  error
	downloadedJobs []int64
}

func (client *stubLogsClient) ListJobs(_ context.Context, _ gitrepo.RepositorySlug, runID int64) ([]githubapi.Job, error) {
	if client.listJobsError != nil {
		return nil, client.listJobsError
	}
	return client.jobsByRun[runID], nil
}

func (client *stubLogsClient) DownloadJobLogs(_ context.Context, _ gitrepo.RepositorySlug, jobID int64) ([]byte, error) {
	client.downloadedJobs = append(client.downloadedJobs, jobID)
	payload, exists := client.logsByJob[jobID]
	if !exists {
		return nil, githubapi.ResponseStatusError{Operation: "DownloadJobLogs", StatusCode: 410}
	}
	return payload, nil
}

type stubRunSource struct {
	failedRuns []githubapi.WorkflowRun
	scanLimit  int
	limit      int
}

func (source *stubRunSource) FailedRunsWithin(_ context.Context, scanLimit int, limit int) ([]githubapi.WorkflowRun, error) {
	source.scanLimit = scanLimit
	source.limit = limit
	return source.failedRuns, nil
}

type recordingProgressIndicator struct {
	started []string
	stopped int
}

func (indicator *recordingProgressIndicator) Start(message string) {
	indicator.started = append(indicator.started, message)
}

func (indicator *recordingProgressIndicator) Stop() {
	indicator.stopped++
}

func newStubLogsClient() *stubLogsClient {
	return &stubLogsClient{
		jobsByRun: map[int64][]githubapi.Job{
			42: {
				{ID: 1, Name: "lint", Conclusion: githubapi.ConclusionSuccess},
				{ID: 2, Name: "build", Conclusion: githubapi.ConclusionFailure},
				{ID: 3, Name: "deploy", Conclusion: githubapi.ConclusionFailure},
			},
			43: {
				{ID: 4, Name: "test", Conclusion: githubapi.ConclusionFailure},
			},
		},
		logsByJob: map[int64][]byte{
			2: []byte("Build failed with ENOSPC error: no space left on device"),
			4: []byte("all good"),
		},
	}
}

func TestAnalyzeRun(testInstance *testing.T) {
	client := newStubLogsClient()
	progress := &recordingProgressIndicator{}
	core, observedLogs := observer.New(zapcore.DebugLevel)

	service, serviceError := loganalysis.NewService(zap.New(core), client, nil, testRepository, loganalysis.WithProgressIndicator(progress))
	require.NoError(testInstance, serviceError)

	analysis, analysisError := service.AnalyzeRun(context.Background(), 42)
	require.NoError(testInstance, analysisError)

	require.Equal(testInstance, int64(42), analysis.RunID)
	require.Len(testInstance, analysis.Jobs, 2)
	require.Equal(testInstance, []int64{2, 3}, client.downloadedJobs)

	buildAnalysis := analysis.Jobs[0]
	require.Equal(testInstance, "build", buildAnalysis.Job.Name)
	require.True(testInstance, buildAnalysis.LogsAvailable)
	require.Equal(testInstance, len("Build failed with ENOSPC error: no space left on device"), buildAnalysis.LogSize)
	require.Len(testInstance, buildAnalysis.Findings, 2)
	for _, finding := range buildAnalysis.Findings {
		require.Equal(testInstance, loganalysis.CategoryDocker, finding.Category)
	}

	deployAnalysis := analysis.Jobs[1]
	require.False(testInstance, deployAnalysis.LogsAvailable)
	require.Empty(testInstance, deployAnalysis.Findings)

	require.Equal(testInstance, []string{"Downloading logs for job build", "Downloading logs for job deploy"}, progress.started)
	require.Equal(testInstance, 2, progress.stopped)

	require.Len(testInstance, observedLogs.FilterMessage("job logs unavailable").All(), 1)
	require.Len(testInstance, observedLogs.FilterMessage("analyzing workflow run").All(), 1)
}

func TestAnalyzeRunTreatsEmptyLogAsUnavailable(testInstance *testing.T) {
	client := &stubLogsClient{
		jobsByRun: map[int64][]githubapi.Job{42: {{ID: 2, Name: "build", Conclusion: githubapi.ConclusionFailure}}},
		logsByJob: map[int64][]byte{2: {}},
	}
	core, observedLogs := observer.New(zapcore.DebugLevel)
	service, serviceError := loganalysis.NewService(zap.New(core), client, nil, testRepository)
	require.NoError(testInstance, serviceError)

	analysis, analysisError := service.AnalyzeRun(context.Background(), 42)
	require.NoError(testInstance, analysisError)
	require.Len(testInstance, analysis.Jobs, 1)
	require.False(testInstance, analysis.Jobs[0].LogsAvailable)
	require.Empty(testInstance, analysis.Jobs[0].Findings)
	require.Len(testInstance, observedLogs.FilterMessage("job log is empty").All(), 1)
}

func TestAnalyzeRunWithoutFailedJobs(testInstance *testing.T) {
	client := &stubLogsClient{jobsByRun: map[int64][]githubapi.Job{7: {{ID: 1, Conclusion: githubapi.ConclusionSuccess}}}}
	service, serviceError := loganalysis.NewService(nil, client, nil, testRepository)
	require.NoError(testInstance, serviceError)

	analysis, analysisError := service.AnalyzeRun(context.Background(), 7)
	require.NoError(testInstance, analysisError)
	require.NotNil(testInstance, analysis.Jobs)
	require.Empty(testInstance, analysis.Jobs)
	require.Empty(testInstance, client.downloadedJobs)
}

func TestAnalyzeRunPropagatesJobListingErrors(testInstance *testing.T) {
	listError := errors.New("boom")
	service, serviceError := loganalysis.NewService(nil, &stubLogsClient{listJobsError: listError}, nil, testRepository)
	require.NoError(testInstance, serviceError)

	_, analysisError := service.AnalyzeRun(context.Background(), 9)
	require.Error(testInstance, analysisError)
	require.ErrorIs(testInstance, analysisError, listError)
}

func TestAnalyzeRecentFailures(testInstance *testing.T) {
	testCases := []struct {
		name              string
		options           []loganalysis.ServiceOption
		limit             int
		expectedScanLimit int
		expectedLimit     int
	}{
		{name: "defaults", limit: 0, expectedScanLimit: 10, expectedLimit: 3},
		{name: "configured", options: []loganalysis.ServiceOption{loganalysis.WithScanRunLimit(25)}, limit: 5, expectedScanLimit: 25, expectedLimit: 5},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			runSource := &stubRunSource{failedRuns: []githubapi.WorkflowRun{{ID: 42}, {ID: 43}}}
			service, serviceError := loganalysis.NewService(nil, newStubLogsClient(), runSource, testRepository, testCase.options...)
			require.NoError(testInstance, serviceError)

			analyses, analysisError := service.AnalyzeRecentFailures(context.Background(), testCase.limit)
			require.NoError(testInstance, analysisError)
			require.Len(testInstance, analyses, 2)
			require.Equal(testInstance, int64(42), analyses[0].RunID)
			require.Equal(testInstance, int64(43), analyses[1].RunID)
			require.Empty(testInstance, analyses[1].Jobs[0].Findings)
			require.Equal(testInstance, testCase.expectedScanLimit, runSource.scanLimit)
			require.Equal(testInstance, testCase.expectedLimit, runSource.limit)
		})
	}
}

func TestNewServiceValidation(testInstance *testing.T) {
	_, clientError := loganalysis.NewService(nil, nil, nil, testRepository)
	require.ErrorIs(testInstance, clientError, loganalysis.ErrClientNotConfigured)

	_, repositoryError := loganalysis.NewService(nil, newStubLogsClient(), nil, gitrepo.RepositorySlug{})
	require.ErrorIs(testInstance, repositoryError, loganalysis.ErrRepositoryNotConfigured)

	service, serviceError := loganalysis.NewService(nil, newStubLogsClient(), nil, testRepository)
	require.NoError(testInstance, serviceError)
	_, sourceError := service.AnalyzeRecentFailures(context.Background(), 3)
	require.ErrorIs(testInstance, sourceError, loganalysis.ErrRunSourceNotConfigured)
}
