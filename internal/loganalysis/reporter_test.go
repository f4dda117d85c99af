package loganalysis_test

import (
	"bytes"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ci_scripts/internal/githubapi"
	"github.com/temirov/ci_scripts/internal/loganalysis"
	"github.com/temirov/ci_scripts/internal/runs"
	"github.com/temirov/ci_scripts/internal/ui"
	"github.com/temirov/ci_scripts/internal/workflowfix"
)

var reporterNow = time.Date(2026, time.January, 2, 6, 4, 5, 0, time.UTC)

func reporterClock() time.Time {
	return reporterNow
}

func sampleRunAnalysis() loganalysis.RunAnalysis {
	return loganalysis.RunAnalysis{
		RunID: 42,
		Jobs: []loganalysis.JobAnalysis{
			{
				Job: githubapi.Job{
					ID:         2,
					Name:       "build",
					Conclusion: githubapi.ConclusionFailure,
					StartedAt:  reporterNow.Add(-2 * time.Hour),
					HTMLURL:    "https://github.com/octo/service/actions/runs/42/job/2",
				},
				LogsAvailable: true,
				LogSize:       2048,
				Findings:      loganalysis.Analyze("ENOSPC"),
			},
			{
				Job:           githubapi.Job{ID: 3, Name: "test", Conclusion: githubapi.ConclusionFailure, HTMLURL: "https://github.com/octo/service/actions/runs/42/job/3"},
				LogsAvailable: true,
				LogSize:       10,
				Findings:      []loganalysis.Finding{},
			},
			{
				Job:           githubapi.Job{ID: 4, Name: "deploy", Conclusion: githubapi.ConclusionFailure, HTMLURL: "https://github.com/octo/service/actions/runs/42/job/4"},
				LogsAvailable: false,
				Findings:      []loganalysis.Finding{},
			},
		},
	}
}

func TestReporterRenderRunHuman(testInstance *testing.T) {
	var output bytes.Buffer
	reporter := loganalysis.NewReporter(&output, runs.OutputFormatHuman, ui.NewPalette(false), reporterClock)
	require.NoError(testInstance, reporter.RenderRun(sampleRunAnalysis()))

	rendered := output.String()
	for _, expectedFragment := range []string{
		"Analyzing Workflow Run 42",
		"[FAILURE] build",
		"  Started: 2026-01-02T04:04:05Z (2 hours ago)",
		"  Completed: N/A",
		"  Log size: 2.0 kB",
		"  Issues Found:",
		"    [docker] ENOSPC",
		"    Fix: Docker disk space full. Run: docker system prune -a",
		"[FAILURE] test",
		"  No specific issues identified.",
		"  Check logs: https://github.com/octo/service/actions/runs/42/job/3",
		"[FAILURE] deploy",
		"  Logs not available.",
		"  URL: https://github.com/octo/service/actions/runs/42/job/4",
	} {
		require.Contains(testInstance, rendered, expectedFragment)
	}
}

func TestReporterRenderRunWithoutFailedJobs(testInstance *testing.T) {
	var output bytes.Buffer
	reporter := loganalysis.NewReporter(&output, runs.OutputFormatHuman, ui.NewPalette(false), reporterClock)
	require.NoError(testInstance, reporter.RenderRun(loganalysis.RunAnalysis{RunID: 5, Jobs: []loganalysis.JobAnalysis{}}))
	require.Contains(testInstance, output.String(), "No failed jobs found in this run.")
}

func TestReporterRenderRecentFailuresEmpty(testInstance *testing.T) {
	var output bytes.Buffer
	reporter := loganalysis.NewReporter(&output, runs.OutputFormatHuman, ui.NewPalette(false), reporterClock)
	require.NoError(testInstance, reporter.RenderRecentFailures(nil))
	require.Equal(testInstance, "No failed runs found.\n", output.String())
}

func TestReporterRenderRunJSON(testInstance *testing.T) {
	var output bytes.Buffer
	reporter := loganalysis.NewReporter(&output, runs.OutputFormatJSON, ui.NewPalette(false), reporterClock)
	require.NoError(testInstance, reporter.RenderRun(sampleRunAnalysis()))

	var decoded struct {
		RunID int64 `json:"run_id"`
		Jobs  []struct {
			LogsAvailable bool                  `json:"logs_available"`
			Findings      []loganalysis.Finding `json:"findings"`
		} `json:"jobs"`
	}
	require.NoError(testInstance, json.Unmarshal(output.Bytes(), &decoded))
	require.Equal(testInstance, int64(42), decoded.RunID)
	require.Len(testInstance, decoded.Jobs, 3)
	require.Equal(testInstance, "ENOSPC", decoded.Jobs[0].Findings[0].Pattern)
	require.False(testInstance, decoded.Jobs[2].LogsAvailable)
}

func TestReporterRenderAudit(testInstance *testing.T) {
	testCases := []struct {
		name             string
		format           runs.OutputFormat
		suggestions      []workflowfix.Suggestion
		expectedContains []string
	}{
		{
			name:        "human_with_suggestions",
			format:      runs.OutputFormatHuman,
			suggestions: workflowfix.Audit("uses: actions/checkout@main"),
			expectedContains: []string{
				"Analyzing ci.yml",
				"  5 suggestions found:",
				"    [HIGH] Unpinned action versions",
				"    Fix: Add actions/cache for dependencies",
			},
		},
		{
			name:             "human_clean",
			format:           runs.OutputFormatHuman,
			suggestions:      []workflowfix.Suggestion{},
			expectedContains: []string{"  No obvious issues found."},
		},
		{
			name:             "yaml",
			format:           runs.OutputFormatYAML,
			suggestions:      workflowfix.Audit("permissions:\nconcurrency:\ntimeout-minutes\nuses: actions/cache@v4"),
			expectedContains: []string{"workflow: ci.yml", "suggestions: []"},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			var output bytes.Buffer
			reporter := loganalysis.NewReporter(&output, testCase.format, ui.NewPalette(false), reporterClock)
			require.NoError(testInstance, reporter.RenderAudit("ci.yml", testCase.suggestions))
			for _, expectedFragment := range testCase.expectedContains {
				require.Contains(testInstance, output.String(), expectedFragment)
			}
		})
	}
}
