package changes_test

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ci_scripts/internal/changes"
	"github.com/temirov/ci_scripts/internal/execshell"
)

type scriptedResponse struct {
	output string
	err    error
}

type scriptedGitExecutor struct {
	responses        map[string]scriptedResponse
	recordedCommands []execshell.CommandDetails
}

func (executor *scriptedGitExecutor) ExecuteGit(_ context.Context, details execshell.CommandDetails) (execshell.ExecutionResult, error) {
	executor.recordedCommands = append(executor.recordedCommands, details)
	response := executor.responses[strings.Join(details.Arguments, " ")]
	if response.err != nil {
		return execshell.ExecutionResult{}, response.err
	}
	return execshell.ExecutionResult{StandardOutput: response.output}, nil
}

func (executor *scriptedGitExecutor) invocations() []string {
	invocations := make([]string, 0, len(executor.recordedCommands))
	for _, details := range executor.recordedCommands {
		invocations = append(invocations, strings.Join(details.Arguments, " "))
	}
	return invocations
}

func newTestRepository(testInstance *testing.T, executor *scriptedGitExecutor) *changes.Repository {
	testInstance.Helper()
	repository, creationError := changes.NewRepository(executor, "/work/service")
	require.NoError(testInstance, creationError)
	return repository
}

func TestNewRepositoryRequiresExecutor(testInstance *testing.T) {
	_, creationError := changes.NewRepository(nil, ".")
	require.ErrorIs(testInstance, creationError, changes.ErrGitExecutorNotConfigured)
}

func TestRepositoryStatus(testInstance *testing.T) {
	executor := &scriptedGitExecutor{responses: map[string]scriptedResponse{
		"status --porcelain":    {output: " M Dockerfile\n?? .github/workflows/ci.yml\n"},
		"branch --show-current": {output: "fix/ci\n"},
	}}
	repository := newTestRepository(testInstance, executor)

	changeSet, statusError := repository.Status(context.Background())
	require.NoError(testInstance, statusError)
	require.Equal(testInstance, "fix/ci", changeSet.Branch)
	require.Len(testInstance, changeSet.Changes, 2)
	require.Equal(testInstance, []string{"status --porcelain", "branch --show-current"}, executor.invocations())

	for _, details := range executor.recordedCommands {
		require.Equal(testInstance, "/work/service", details.WorkingDirectory)
		require.Equal(testInstance, "0", details.EnvironmentVariables["GIT_TERMINAL_PROMPT"])
	}
}

func TestRepositoryStatusWrapsFailures(testInstance *testing.T) {
	failure := execshell.CommandFailedError{
		Command: execshell.ShellCommand{Name: execshell.CommandGit, Details: execshell.CommandDetails{Arguments: []string{"status", "--porcelain"}}},
		Result:  execshell.ExecutionResult{ExitCode: 128, StandardError: "fatal: not a git repository"},
	}
	executor := &scriptedGitExecutor{responses: map[string]scriptedResponse{
		"status --porcelain": {err: failure},
	}}
	repository := newTestRepository(testInstance, executor)

	_, statusError := repository.Status(context.Background())
	require.Error(testInstance, statusError)
	var commandFailure execshell.CommandFailedError
	require.True(testInstance, errors.As(statusError, &commandFailure))
	require.Equal(testInstance, 128, commandFailure.Result.ExitCode)
}

func TestRepositoryDiff(testInstance *testing.T) {
	testCases := []struct {
		name               string
		file               string
		expectedInvocation string
	}{
		{name: "whole_tree", file: "", expectedInvocation: "diff"},
		{name: "single_file", file: "Dockerfile", expectedInvocation: "diff -- Dockerfile"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{responses: map[string]scriptedResponse{
				testCase.expectedInvocation: {output: "+FROM golang:1.22\n"},
			}}
			repository := newTestRepository(testInstance, executor)

			diff, diffError := repository.Diff(context.Background(), testCase.file)
			require.NoError(testInstance, diffError)
			require.Equal(testInstance, "+FROM golang:1.22\n", diff)
			require.Equal(testInstance, []string{testCase.expectedInvocation}, executor.invocations())
		})
	}
}

func TestRepositoryCommit(testInstance *testing.T) {
	testCases := []struct {
		name                string
		files               []string
		statusAfterStaging  string
		expectedCommitted   bool
		expectedInvocations []string
	}{
		{
			name:               "stages_everything",
			statusAfterStaging: "M  Dockerfile\n",
			expectedCommitted:  true,
			expectedInvocations: []string{
				"add -A",
				"status --porcelain",
				"commit -m fix(docker): fix Docker build configuration",
			},
		},
		{
			name:               "stages_listed_files",
			files:              []string{"Dockerfile", "compose.yml"},
			statusAfterStaging: "M  Dockerfile\n",
			expectedCommitted:  true,
			expectedInvocations: []string{
				"add Dockerfile",
				"add compose.yml",
				"status --porcelain",
				"commit -m fix(docker): fix Docker build configuration",
			},
		},
		{
			name:                "nothing_to_commit",
			statusAfterStaging:  "",
			expectedCommitted:   false,
			expectedInvocations: []string{"add -A", "status --porcelain"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{responses: map[string]scriptedResponse{
				"status --porcelain": {output: testCase.statusAfterStaging},
			}}
			repository := newTestRepository(testInstance, executor)

			committed, commitError := repository.Commit(context.Background(), "fix(docker): fix Docker build configuration", testCase.files)
			require.NoError(testInstance, commitError)
			require.Equal(testInstance, testCase.expectedCommitted, committed)
			require.Equal(testInstance, testCase.expectedInvocations, executor.invocations())
		})
	}
}

func TestRepositoryCommitRequiresMessage(testInstance *testing.T) {
	executor := &scriptedGitExecutor{}
	repository := newTestRepository(testInstance, executor)

	_, commitError := repository.Commit(context.Background(), "   ", nil)
	require.ErrorIs(testInstance, commitError, changes.ErrCommitMessageRequired)
	require.Empty(testInstance, executor.recordedCommands)
}

func TestRepositoryCreateBranch(testInstance *testing.T) {
	testCases := []struct {
		name               string
		base               string
		expectedInvocation string
	}{
		{name: "default_base", base: "", expectedInvocation: "checkout -b fix/ci main"},
		{name: "explicit_base", base: "develop", expectedInvocation: "checkout -b fix/ci develop"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{}
			repository := newTestRepository(testInstance, executor)

			require.NoError(testInstance, repository.CreateBranch(context.Background(), "fix/ci", testCase.base))
			require.Equal(testInstance, []string{testCase.expectedInvocation}, executor.invocations())
		})
	}

	repository := newTestRepository(testInstance, &scriptedGitExecutor{})
	require.ErrorIs(testInstance, repository.CreateBranch(context.Background(), "", "main"), changes.ErrBranchNameRequired)
}

func TestRepositoryPush(testInstance *testing.T) {
	testCases := []struct {
		name               string
		remote             string
		branch             string
		expectedInvocation string
	}{
		{name: "upstream_only", remote: "origin", branch: "", expectedInvocation: "push"},
		{name: "sets_upstream", remote: "upstream", branch: "fix/ci", expectedInvocation: "push --set-upstream upstream fix/ci"},
		{name: "default_remote", remote: "", branch: "fix/ci", expectedInvocation: "push --set-upstream origin fix/ci"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{}
			repository := newTestRepository(testInstance, executor)

			require.NoError(testInstance, repository.Push(context.Background(), testCase.remote, testCase.branch))
			require.Equal(testInstance, []string{testCase.expectedInvocation}, executor.invocations())
		})
	}
}

func TestRepositoryPushReturnsFailures(testInstance *testing.T) {
	rejected := errors.New("rejected")
	executor := &scriptedGitExecutor{responses: map[string]scriptedResponse{
		"push --set-upstream origin main": {err: rejected},
	}}
	repository := newTestRepository(testInstance, executor)

	require.ErrorIs(testInstance, repository.Push(context.Background(), "origin", "main"), rejected)
}

func TestRepositoryRecentCommits(testInstance *testing.T) {
	executor := &scriptedGitExecutor{responses: map[string]scriptedResponse{
		"log -n 3 --pretty=format:%H|%s|%an|%ar": {output: "0123456789abcdef|ci: add cache|Dana|2 hours ago\n" +
			"fedcba9876543210|fix: handle a|b pipes|Lee|3 days ago\n" +
			"malformed line\n"},
	}}
	repository := newTestRepository(testInstance, executor)

	commits, logError := repository.RecentCommits(context.Background(), 3)
	require.NoError(testInstance, logError)
	require.Equal(testInstance, []changes.Commit{
		{Hash: "0123456", Message: "ci: add cache", Author: "Dana", RelativeTime: "2 hours ago"},
		{Hash: "fedcba9", Message: "fix: handle a|b pipes", Author: "Lee", RelativeTime: "3 days ago"},
	}, commits)
}

func TestRepositoryRecentCommitsDefaultsLimit(testInstance *testing.T) {
	executor := &scriptedGitExecutor{}
	repository := newTestRepository(testInstance, executor)

	commits, logError := repository.RecentCommits(context.Background(), 0)
	require.NoError(testInstance, logError)
	require.Empty(testInstance, commits)
	require.Equal(testInstance, []string{"log -n 10 --pretty=format:%H|%s|%an|%ar"}, executor.invocations())
}
