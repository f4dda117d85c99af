package workflowfix_test

import (
	"testing"

	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/temirov/ci_scripts/internal/workflowfix"
)

const (
	testWorkflowPathConstant   = ".github/workflows/ci.yml"
	testUnfixedWorkflowContent = `name: CI
on:
  push:
    branches: [main]
jobs:
  build:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/checkout@main
      - name: Build image
        run: docker build -t app .
  test:
    runs-on: ubuntu-latest
    steps:
      - uses: actions/setup-node@latest
      - uses: octo/custom-action@main
      - run: npm test
`
	testFixedWorkflowContent = `name: CI
on: push
permissions:
  contents: read
concurrency:
  group: ci
jobs:
  build:
    runs-on: ubuntu-latest
    timeout-minutes: 10
    steps:
      - uses: actions/checkout@v4
      - uses: docker/setup-buildx-action@v3
      - run: docker build .
`
	testDockerfileWorkflowContent = `on: push
jobs:
  image:
    runs-on: ubuntu-latest
    steps:
      - uses: docker/build-push-action@v5
        with:
          dockerfile: Dockerfile
      - uses: docker/build-push-action@v5
        with:
          dockerfile: ./docker/Dockerfile.worker
`
)

func parseTestDocument(testInstance *testing.T, content string) *workflowfix.Document {
	testInstance.Helper()
	document, parseError := workflowfix.Parse(testWorkflowPathConstant, []byte(content))
	require.NoError(testInstance, parseError)
	return document
}

func decodeRendered(testInstance *testing.T, document *workflowfix.Document) map[string]any {
	testInstance.Helper()
	rendered, renderError := document.Render()
	require.NoError(testInstance, renderError)

	var decoded map[string]any
	require.NoError(testInstance, yaml.Unmarshal(rendered, &decoded))
	return decoded
}

func TestEditsAreIdempotent(testInstance *testing.T) {
	testCases := []struct {
		name string
		edit func(document *workflowfix.Document) bool
	}{
		{name: "pin_actions", edit: (*workflowfix.Document).PinActions},
		{name: "add_permissions", edit: (*workflowfix.Document).AddPermissions},
		{name: "add_timeout", edit: func(document *workflowfix.Document) bool { return document.AddTimeout(45) }},
		{name: "add_concurrency", edit: (*workflowfix.Document).AddConcurrency},
		{name: "add_docker_cache", edit: (*workflowfix.Document).AddDockerCache},
		{name: "fix_dockerfile_path", edit: func(document *workflowfix.Document) bool { return document.FixDockerfilePath("Dockerfile") }},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			content := testUnfixedWorkflowContent
			if testCase.name == "fix_dockerfile_path" {
				content = testDockerfileWorkflowContent
			}
			document := parseTestDocument(testInstance, content)

			require.True(testInstance, testCase.edit(document))
			appliedAfterFirstRun := document.FixesApplied()
			require.NotEmpty(testInstance, appliedAfterFirstRun)

			require.False(testInstance, testCase.edit(document))
			require.Equal(testInstance, appliedAfterFirstRun, document.FixesApplied())
		})
	}
}

func TestApplyAllFixesUnfixedWorkflow(testInstance *testing.T) {
	document := parseTestDocument(testInstance, testUnfixedWorkflowContent)

	changedEdits := document.ApplyAll(workflowfix.ApplyOptions{})
	require.Equal(testInstance, 5, changedEdits)
	require.Equal(testInstance, []string{
		"Pinned actions/checkout@main -> actions/checkout@v4",
		"Pinned actions/setup-node@latest -> actions/setup-node@v4",
		"Added minimal permissions (contents: read, pull-requests: write)",
		"Added timeout-minutes: 30 to job 'build'",
		"Added timeout-minutes: 30 to job 'test'",
		"Added concurrency control (cancel-in-progress: true)",
		"Added Docker layer caching to job 'build'",
	}, document.FixesApplied())

	decoded := decodeRendered(testInstance, document)
	require.Equal(testInstance, map[string]any{"contents": "read", "pull-requests": "write"}, decoded["permissions"])
	require.Equal(testInstance, map[string]any{"group": "${{ github.workflow }}-${{ github.ref }}", "cancel-in-progress": true}, decoded["concurrency"])

	jobs := decoded["jobs"].(map[string]any)
	buildJob := jobs["build"].(map[string]any)
	testJob := jobs["test"].(map[string]any)
	require.Equal(testInstance, 30, buildJob["timeout-minutes"])
	require.Equal(testInstance, 30, testJob["timeout-minutes"])

	buildSteps := buildJob["steps"].([]any)
	require.Len(testInstance, buildSteps, 3)
	require.Equal(testInstance, "actions/checkout@v4", buildSteps[0].(map[string]any)["uses"])
	require.Equal(testInstance, map[string]any{
		"name": "Cache Docker layers",
		"uses": "actions/cache@v4",
		"with": map[string]any{
			"path":         "/tmp/.buildxcache",
			"key":          "${{ runner.os }}-buildx-${{ github.sha }}",
			"restore-keys": "${{ runner.os }}-buildx-",
		},
	}, buildSteps[1])
	require.Equal(testInstance, "Build image", buildSteps[2].(map[string]any)["name"])

	testSteps := testJob["steps"].([]any)
	require.Equal(testInstance, "actions/setup-node@v4", testSteps[0].(map[string]any)["uses"])
	require.Equal(testInstance, "octo/custom-action@main", testSteps[1].(map[string]any)["uses"])

	require.Equal(testInstance, "CI", decoded["name"])
	require.Contains(testInstance, decoded, "on")
}

func TestApplyAllOutputReparsesToEquivalentDocument(testInstance *testing.T) {
	document := parseTestDocument(testInstance, testUnfixedWorkflowContent)
	document.ApplyAll(workflowfix.ApplyOptions{TimeoutMinutes: 20})

	rendered, renderError := document.Render()
	require.NoError(testInstance, renderError)

	reparsed, reparseError := workflowfix.Parse(testWorkflowPathConstant, rendered)
	require.NoError(testInstance, reparseError)
	require.Equal(testInstance, decodeRendered(testInstance, document), decodeRendered(testInstance, reparsed))

	require.Zero(testInstance, reparsed.ApplyAll(workflowfix.ApplyOptions{TimeoutMinutes: 20}))
	require.Empty(testInstance, reparsed.FixesApplied())
}

func TestApplyAllLeavesFixedWorkflowUnchanged(testInstance *testing.T) {
	document := parseTestDocument(testInstance, testFixedWorkflowContent)
	require.Zero(testInstance, document.ApplyAll(workflowfix.ApplyOptions{}))
	require.Empty(testInstance, document.FixesApplied())
}

func TestAddTimeoutSkipsReusableWorkflowCalls(testInstance *testing.T) {
	document := parseTestDocument(testInstance, `on: push
jobs:
  call:
    uses: octo/shared/.github/workflows/build.yml@main
  test:
    runs-on: ubuntu-latest
    steps:
      - run: make test
`)
	document.ApplyAll(workflowfix.ApplyOptions{})

	jobs := decodeRendered(testInstance, document)["jobs"].(map[string]any)
	require.NotContains(testInstance, jobs["call"].(map[string]any), "timeout-minutes")
	require.Equal(testInstance, 30, jobs["test"].(map[string]any)["timeout-minutes"])
	require.NotContains(testInstance, document.FixesApplied(), "Added timeout-minutes: 30 to job 'call'")
}

func TestApplyAllCanSkipDockerCache(testInstance *testing.T) {
	document := parseTestDocument(testInstance, testUnfixedWorkflowContent)
	require.Equal(testInstance, 4, document.ApplyAll(workflowfix.ApplyOptions{SkipDockerCache: true}))
	require.NotContains(testInstance, document.FixesApplied(), "Added Docker layer caching to job 'build'")
}

func TestFixDockerfilePath(testInstance *testing.T) {
	testCases := []struct {
		name              string
		dockerfilePath    string
		expectChanged     bool
		expectedFirstPath string
	}{
		{name: "bare_path", dockerfilePath: "Dockerfile", expectChanged: true, expectedFirstPath: "./Dockerfile"},
		{name: "relative_path", dockerfilePath: "./build/Dockerfile", expectChanged: true, expectedFirstPath: "./build/Dockerfile"},
		{name: "empty_path", dockerfilePath: " ", expectChanged: false, expectedFirstPath: "Dockerfile"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			document := parseTestDocument(testInstance, testDockerfileWorkflowContent)
			require.Equal(testInstance, testCase.expectChanged, document.FixDockerfilePath(testCase.dockerfilePath))

			decoded := decodeRendered(testInstance, document)
			steps := decoded["jobs"].(map[string]any)["image"].(map[string]any)["steps"].([]any)
			require.Equal(testInstance, testCase.expectedFirstPath, steps[0].(map[string]any)["with"].(map[string]any)["dockerfile"])
			require.Equal(testInstance, "./docker/Dockerfile.worker", steps[1].(map[string]any)["with"].(map[string]any)["dockerfile"])
		})
	}
}

func TestPinnedActionVersionsReturnsCopy(testInstance *testing.T) {
	versions := workflowfix.PinnedActionVersions()
	require.Equal(testInstance, "v5", versions["actions/setup-python"])
	versions["actions/setup-python"] = "v1"
	require.Equal(testInstance, "v5", workflowfix.PinnedActionVersions()["actions/setup-python"])
}
