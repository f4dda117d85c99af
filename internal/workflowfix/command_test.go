package workflowfix_test

import (
	"bytes"
	"errors"
	"os"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/temirov/ci_scripts/internal/workflowfix"
)

func executeFixCommand(testInstance *testing.T, configuration workflowfix.CommandConfiguration, logger *zap.Logger, arguments ...string) (string, error) {
	testInstance.Helper()
	builder := workflowfix.CommandBuilder{
		LoggerProvider:        func() *zap.Logger { return logger },
		ConfigurationProvider: func() workflowfix.CommandConfiguration { return configuration },
	}
	command, buildError := builder.Build()
	require.NoError(testInstance, buildError)

	outputBuffer := &bytes.Buffer{}
	command.SetOut(outputBuffer)
	command.SetErr(&bytes.Buffer{})
	command.SetArgs(arguments)
	executionError := command.Execute()
	return outputBuffer.String(), executionError
}

func TestFixCommandModes(testInstance *testing.T) {
	testCases := []struct {
		name                 string
		configuration        workflowfix.CommandConfiguration
		arguments            []string
		expectModified       bool
		expectBackup         bool
		expectedOutput       []string
		expectedFileFragment string
	}{
		{
			name:           "dry_run_leaves_file",
			configuration:  workflowfix.DefaultCommandConfiguration(),
			arguments:      []string{"--fix-all", "--dry-run"},
			expectedOutput: []string{"Dry run - fixes that would be applied:", "Applied 7 fixes:", "Pinned actions/checkout@main -> actions/checkout@v4"},
		},
		{
			name:                 "fix_all_with_backup",
			configuration:        workflowfix.DefaultCommandConfiguration(),
			arguments:            []string{"--fix-all"},
			expectModified:       true,
			expectBackup:         true,
			expectedOutput:       []string{"Saved: ", "Backup: ", "Added Docker layer caching to job 'build'"},
			expectedFileFragment: "cancel-in-progress: true",
		},
		{
			name:                 "fix_all_without_backup_or_cache",
			configuration:        workflowfix.DefaultCommandConfiguration(),
			arguments:            []string{"--fix-all", "--no-backup", "--no-cache-fix"},
			expectModified:       true,
			expectedOutput:       []string{"Applied 6 fixes:"},
			expectedFileFragment: "actions/setup-node@v4",
		},
		{
			name:                 "configured_backup_disabled",
			configuration:        workflowfix.CommandConfiguration{TimeoutMinutes: 15, Backup: false, DockerCache: true},
			arguments:            []string{"--fix-all"},
			expectModified:       true,
			expectedOutput:       []string{"Added timeout-minutes: 15 to job 'build'"},
			expectedFileFragment: "timeout-minutes: 15",
		},
		{
			name:                 "timeout_only",
			configuration:        workflowfix.DefaultCommandConfiguration(),
			arguments:            []string{"--add-timeout", "45"},
			expectModified:       true,
			expectBackup:         true,
			expectedOutput:       []string{"Applied 2 fixes:", "Added timeout-minutes: 45 to job 'test'"},
			expectedFileFragment: "timeout-minutes: 45",
		},
		{
			name:           "no_flags",
			configuration:  workflowfix.DefaultCommandConfiguration(),
			arguments:      []string{},
			expectedOutput: []string{"No fixes needed."},
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			workflowPath := writeWorkflowFile(testInstance, testUnfixedWorkflowContent, 0o644)
			arguments := append([]string{workflowPath}, testCase.arguments...)

			output, executionError := executeFixCommand(testInstance, testCase.configuration, zap.NewNop(), arguments...)
			require.NoError(testInstance, executionError)
			for _, expectedFragment := range testCase.expectedOutput {
				require.Contains(testInstance, output, expectedFragment)
			}

			content, readError := os.ReadFile(workflowPath)
			require.NoError(testInstance, readError)
			if testCase.expectModified {
				require.NotEqual(testInstance, testUnfixedWorkflowContent, string(content))
				require.Contains(testInstance, string(content), testCase.expectedFileFragment)
			} else {
				require.Equal(testInstance, testUnfixedWorkflowContent, string(content))
			}

			_, backupStatError := os.Stat(workflowPath + ".backup")
			require.Equal(testInstance, testCase.expectBackup, backupStatError == nil)
		})
	}
}

func TestFixCommandErrors(testInstance *testing.T) {
	testCases := []struct {
		name           string
		arguments      []string
		expectNotFound bool
		expectedText   string
	}{
		{name: "missing_argument", arguments: []string{}, expectedText: "accepts 1 arg"},
		{name: "missing_workflow", arguments: []string{"does-not-exist.yml", "--fix-all"}, expectNotFound: true, expectedText: "fix failed"},
		{name: "negative_timeout", arguments: []string{"ci.yml", "--add-timeout", "-5"}, expectedText: "invalid fix options"},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			_, executionError := executeFixCommand(testInstance, workflowfix.DefaultCommandConfiguration(), nil, testCase.arguments...)
			require.Error(testInstance, executionError)
			require.Contains(testInstance, executionError.Error(), testCase.expectedText)
			require.Equal(testInstance, testCase.expectNotFound, errors.Is(executionError, workflowfix.ErrWorkflowNotFound))
		})
	}
}

func TestFixCommandLogsOutcome(testInstance *testing.T) {
	core, observedLogs := observer.New(zapcore.InfoLevel)
	workflowPath := writeWorkflowFile(testInstance, testUnfixedWorkflowContent, 0o644)

	_, executionError := executeFixCommand(testInstance, workflowfix.DefaultCommandConfiguration(), zap.New(core), workflowPath, "--fix-all")
	require.NoError(testInstance, executionError)

	entries := observedLogs.FilterMessage("workflow fixes computed").All()
	require.Len(testInstance, entries, 1)
	require.Equal(testInstance, int64(7), entries[0].ContextMap()["fixes"])
	require.Len(testInstance, observedLogs.FilterMessage("workflow saved").All(), 1)
}
