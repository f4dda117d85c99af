package changes_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ci_scripts/internal/changes"
	"github.com/temirov/ci_scripts/internal/dependencies"
	"github.com/temirov/ci_scripts/internal/githubauth"
)

const (
	commandPullRequestPayloadConstant = `{"number":42,"title":"Fix CI","state":"open","html_url":"https://github.com/octo/service/pull/42","created_at":"2026-01-02T03:04:05Z","user":{"login":"dana"},"head":{"ref":"fix/ci"},"base":{"ref":"main"}}`
)

func commandClock() time.Time {
	return time.Date(2026, 1, 2, 6, 4, 5, 0, time.UTC)
}

type pullRequestAPIServer struct {
	method      string
	path        string
	query       string
	requestBody map[string]string
}

func (server *pullRequestAPIServer) ServeHTTP(responseWriter http.ResponseWriter, request *http.Request) {
	server.method = request.Method
	server.path = request.URL.Path
	server.query = request.URL.RawQuery
	if request.URL.Path != "/repos/octo/service/pulls" {
		responseWriter.WriteHeader(http.StatusNotFound)
		return
	}
	if request.Method == http.MethodPost {
		body, _ := io.ReadAll(request.Body)
		_ = json.Unmarshal(body, &server.requestBody)
		responseWriter.WriteHeader(http.StatusCreated)
		_, _ = fmt.Fprint(responseWriter, commandPullRequestPayloadConstant)
		return
	}
	_, _ = fmt.Fprintf(responseWriter, "[%s]", commandPullRequestPayloadConstant)
}

func executeChangesCommand(testInstance *testing.T, executor *scriptedGitExecutor, serverURL string, environment map[string]string, arguments ...string) (string, error) {
	testInstance.Helper()
	builder := changes.CommandBuilder{
		ConfigurationProvider: func() changes.CommandConfiguration { return changes.DefaultCommandConfiguration() },
		GitHubSettingsProvider: func() dependencies.GitHubSettings {
			settings := dependencies.DefaultGitHubSettings()
			settings.APIBaseURL = serverURL
			return settings
		},
		GitExecutor:      executor,
		Environment:      environment,
		WorkingDirectory: "/work/service",
		Clock:            commandClock,
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	var outputBuffer bytes.Buffer
	command.SetOut(&outputBuffer)
	command.SetErr(&outputBuffer)
	command.SetArgs(arguments)
	command.SetContext(context.Background())

	executionError := command.Execute()
	return outputBuffer.String(), executionError
}

func TestChangesCommandGitModes(testInstance *testing.T) {
	testCases := []struct {
		name                string
		arguments           []string
		expectedInvocations []string
		expectedContains    []string
	}{
		{
			name:                "status",
			arguments:           []string{"--status"},
			expectedInvocations: []string{"status --porcelain", "branch --show-current"},
			expectedContains:    []string{"Git Status", "Branch: fix/ci", "Changed files: 1", "Dockerfile"},
		},
		{
			name:                "diff",
			arguments:           []string{"--diff", "Dockerfile"},
			expectedInvocations: []string{"diff -- Dockerfile"},
			expectedContains:    []string{"Diff for Dockerfile", "+FROM golang:1.22"},
		},
		{
			name:      "auto_commit_with_push",
			arguments: []string{"--auto-commit", "--push"},
			expectedInvocations: []string{
				"status --porcelain",
				"branch --show-current",
				"add -A",
				"status --porcelain",
				"commit -m fix(docker): fix Docker build configuration",
				"push --set-upstream origin fix/ci",
			},
			expectedContains: []string{"Committed: fix(docker): fix Docker build configuration", "Pushed: origin/fix/ci"},
		},
		{
			name:      "explicit_commit",
			arguments: []string{"--commit", "build: bump base image", "--files", "Dockerfile"},
			expectedInvocations: []string{
				"status --porcelain",
				"branch --show-current",
				"add Dockerfile",
				"status --porcelain",
				"commit -m build: bump base image",
			},
			expectedContains: []string{"Committed: build: bump base image"},
		},
		{
			name:                "branch_with_base_and_push",
			arguments:           []string{"--branch", "fix/cache", "--base", "develop", "--push"},
			expectedInvocations: []string{"checkout -b fix/cache develop", "push --set-upstream origin fix/cache"},
			expectedContains:    []string{"Created branch: fix/cache", "Pushed: origin/fix/cache"},
		},
		{
			name:                "push_only",
			arguments:           []string{"--push"},
			expectedInvocations: []string{"branch --show-current", "push --set-upstream origin fix/ci"},
			expectedContains:    []string{"Pushed: origin/fix/ci"},
		},
		{
			name:                "recent_commits",
			arguments:           []string{"--commits", "2"},
			expectedInvocations: []string{"log -n 2 --pretty=format:%H|%s|%an|%ar"},
			expectedContains:    []string{"Recent Commits", "[0123456] ci: add cache", "Dana - 2 hours ago"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{responses: map[string]scriptedResponse{
				"status --porcelain":                     {output: " M Dockerfile\n"},
				"branch --show-current":                  {output: "fix/ci\n"},
				"diff -- Dockerfile":                     {output: "+FROM golang:1.22\n"},
				"log -n 2 --pretty=format:%H|%s|%an|%ar": {output: "0123456789|ci: add cache|Dana|2 hours ago"},
			}}

			output, executionError := executeChangesCommand(testInstance, executor, "http://127.0.0.1:1", map[string]string{}, testCase.arguments...)
			require.NoError(testInstance, executionError)
			require.Equal(testInstance, testCase.expectedInvocations, executor.invocations())
			for _, details := range executor.recordedCommands {
				require.Equal(testInstance, "/work/service", details.WorkingDirectory)
			}
			for _, expectedFragment := range testCase.expectedContains {
				require.Contains(testInstance, output, expectedFragment)
			}
		})
	}
}

func TestChangesCommandAutoCommitCleanTree(testInstance *testing.T) {
	executor := &scriptedGitExecutor{responses: map[string]scriptedResponse{
		"branch --show-current": {output: "main\n"},
	}}

	output, executionError := executeChangesCommand(testInstance, executor, "http://127.0.0.1:1", map[string]string{}, "--auto-commit")
	require.NoError(testInstance, executionError)
	require.Equal(testInstance, "No changes to commit.\n", output)
	require.Equal(testInstance, []string{"status --porcelain", "branch --show-current"}, executor.invocations())
}

func TestChangesCommandPullRequests(testInstance *testing.T) {
	testCases := []struct {
		name             string
		arguments        []string
		expectedMethod   string
		expectedQuery    string
		expectedBody     map[string]string
		expectedContains []string
	}{
		{
			name:           "create",
			arguments:      []string{"--repo", "octo/service", "--create-pr", "Fix CI", "--pr-body", "Adds caching"},
			expectedMethod: http.MethodPost,
			expectedBody:   map[string]string{"title": "Fix CI", "head": "fix/ci", "base": "main", "body": "Adds caching"},
			expectedContains: []string{
				"Created PR: https://github.com/octo/service/pull/42",
			},
		},
		{
			name:             "list",
			arguments:        []string{"--repo", "octo/service", "--list-prs", "--pr-state", "all"},
			expectedMethod:   http.MethodGet,
			expectedQuery:    "per_page=10&state=all",
			expectedContains: []string{"Pull Requests (all)", "#42 Fix CI (fix/ci -> main)", "dana - 3 hours ago"},
		},
		{
			name:             "list_with_limit",
			arguments:        []string{"--repo", "octo/service", "--list-prs", "--pr-limit", "5"},
			expectedMethod:   http.MethodGet,
			expectedQuery:    "per_page=5&state=open",
			expectedContains: []string{"Pull Requests (open)"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			serverState := &pullRequestAPIServer{}
			server := httptest.NewServer(serverState)
			defer server.Close()

			executor := &scriptedGitExecutor{responses: map[string]scriptedResponse{
				"branch --show-current": {output: "fix/ci\n"},
			}}

			output, executionError := executeChangesCommand(testInstance, executor, server.URL, map[string]string{githubauth.EnvGitHubToken: "token-value"}, testCase.arguments...)
			require.NoError(testInstance, executionError)
			require.Equal(testInstance, testCase.expectedMethod, serverState.method)
			require.Equal(testInstance, "/repos/octo/service/pulls", serverState.path)
			if len(testCase.expectedQuery) > 0 {
				require.Equal(testInstance, testCase.expectedQuery, serverState.query)
			}
			if testCase.expectedBody != nil {
				require.Equal(testInstance, testCase.expectedBody, serverState.requestBody)
			}
			for _, expectedFragment := range testCase.expectedContains {
				require.Contains(testInstance, output, expectedFragment)
			}
		})
	}
}

func TestChangesCommandErrors(testInstance *testing.T) {
	testInstance.Setenv(githubauth.EnvGitHubCLIToken, "")
	testInstance.Setenv(githubauth.EnvGitHubToken, "")
	testInstance.Setenv(githubauth.EnvGitHubAPIToken, "")

	testCases := []struct {
		name         string
		arguments    []string
		responses    map[string]scriptedResponse
		expectedText string
		expectedIs   error
	}{
		{name: "no_mode", arguments: []string{}, expectedText: "at least one of the flags"},
		{name: "exclusive_modes", arguments: []string{"--status", "--auto-commit"}, expectedText: "none of the others can be"},
		{name: "invalid_state", arguments: []string{"--list-prs", "--pr-state", "merged"}, expectedText: "invalid changes options"},
		{name: "pull_request_limit_out_of_range", arguments: []string{"--list-prs", "--pr-limit", "0"}, expectedText: "invalid changes options"},
		{name: "missing_token", arguments: []string{"--repo", "octo/service", "--create-pr", "Fix CI"}, expectedIs: githubauth.ErrTokenMissing},
		{
			name:         "git_failure",
			arguments:    []string{"--status"},
			responses:    map[string]scriptedResponse{"status --porcelain": {err: fmt.Errorf("fatal: not a git repository")}},
			expectedText: "changes failed: failed to read working tree status",
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			executor := &scriptedGitExecutor{responses: testCase.responses}
			_, executionError := executeChangesCommand(testInstance, executor, "http://127.0.0.1:1", map[string]string{}, testCase.arguments...)
			require.Error(testInstance, executionError)
			if len(testCase.expectedText) > 0 {
				require.Contains(testInstance, executionError.Error(), testCase.expectedText)
			}
			if testCase.expectedIs != nil {
				require.ErrorIs(testInstance, executionError, testCase.expectedIs)
			}
		})
	}
}
