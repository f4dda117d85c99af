package execshell

import (
	"fmt"
	"strings"
)

type messageStage int

const (
	messageStageStart messageStage = iota
	messageStageSuccess
	messageStageFailure
	messageStageExecutionFailure
)

const (
	genericStartTemplateConstant            = "Running %s"
	genericSuccessTemplateConstant          = "Completed %s"
	genericFailureTemplateConstant          = "%s failed with exit code %d%s"
	genericExecutionFailureTemplateConstant = "%s failed: %s"
	commandLabelTemplateConstant            = "%s%s"
	commandWithArgumentsTemplateConstant    = "%s %s"
	workingDirectorySuffixTemplateConstant  = " (in %s)"
	commandArgumentsJoinSeparatorConstant   = " "
	standardErrorSuffixTemplateConstant     = ": %s"
	failureDetailTemplateConstant           = " (exit code %d%s)"
	executionFailureDetailTemplateConstant  = ": %s"
	unknownFailureMessageConstant           = "unknown error"
	emptyStringConstant                     = ""
	defaultWorkingDirectoryLabelConstant    = "current directory"
	fallbackUnknownValueLabelConstant       = "unknown"
	flagPrefixConstant                      = "-"
)

const (
	gitStatusSubcommandNameConstant       = "status"
	gitDiffSubcommandNameConstant         = "diff"
	gitAddSubcommandNameConstant          = "add"
	gitCommitSubcommandNameConstant       = "commit"
	gitCheckoutSubcommandNameConstant     = "checkout"
	gitPushSubcommandNameConstant         = "push"
	gitLogSubcommandNameConstant          = "log"
	gitRemoteSubcommandNameConstant       = "remote"
	gitRevParseSubcommandNameConstant     = "rev-parse"
	gitBranchSubcommandNameConstant       = "branch"
	gitShowCurrentFlagConstant            = "--show-current"
	gitRemoteGetURLSubcommandNameConstant = "get-url"
	gitMessageFlagConstant                = "-m"
	gitCreateBranchFlagConstant           = "-b"
	gitAbbrevRefFlagConstant              = "--abbrev-ref"
	gitStageAllFlagConstant               = "-A"
	gitStageAllLabelConstant              = "all changes"
)

const (
	gitStatusStartTemplateConstant         = "Reviewing working tree status in %s"
	gitStatusSuccessTemplateConstant       = "Collected working tree status for %s"
	gitStatusFailureTemplateConstant       = "Failed to review working tree status in %s"
	gitStatusExecutionTemplateConstant     = "Unable to review working tree status in %s"
	gitDiffStartTemplateConstant           = "Collecting diff in %s"
	gitDiffSuccessTemplateConstant         = "Collected diff in %s"
	gitDiffFailureTemplateConstant         = "Failed to collect diff in %s"
	gitDiffExecutionTemplateConstant       = "Unable to collect diff in %s"
	gitAddStartTemplateConstant            = "Staging %s in %s"
	gitAddSuccessTemplateConstant          = "Staged %s in %s"
	gitAddFailureTemplateConstant          = "Failed to stage %s in %s"
	gitAddExecutionTemplateConstant        = "Unable to stage %s in %s"
	gitCommitStartTemplateConstant         = "Creating commit in %s with message %q"
	gitCommitSuccessTemplateConstant       = "Created commit in %s with message %q"
	gitCommitFailureTemplateConstant       = "Failed to create commit in %s with message %q"
	gitCommitExecutionTemplateConstant     = "Unable to create commit in %s with message %q"
	gitCheckoutStartTemplateConstant       = "Switching %s to branch %s"
	gitCheckoutSuccessTemplateConstant     = "%s now on branch %s"
	gitCheckoutFailureTemplateConstant     = "Failed to switch %s to branch %s"
	gitCheckoutExecutionTemplateConstant   = "Unable to switch %s to branch %s"
	gitBranchCreateStartTemplateConstant   = "Creating branch %[2]s in %[1]s"
	gitBranchCreateSuccessTemplateConstant = "Created branch %[2]s in %[1]s"
	gitBranchCreateFailureTemplateConstant = "Failed to create branch %[2]s in %[1]s"
	gitBranchCreateExecutionTemplateConst  = "Unable to create branch %[2]s in %[1]s"
	gitPushStartTemplateConstant           = "Pushing %[3]s to %[2]s from %[1]s"
	gitPushSuccessTemplateConstant         = "Pushed %[3]s to %[2]s from %[1]s"
	gitPushFailureTemplateConstant         = "Failed to push %[3]s to %[2]s from %[1]s"
	gitPushExecutionTemplateConstant       = "Unable to push %[3]s to %[2]s from %[1]s"
	gitLogStartTemplateConstant            = "Reading commit history in %s"
	gitLogSuccessTemplateConstant          = "Read commit history in %s"
	gitLogFailureTemplateConstant          = "Failed to read commit history in %s"
	gitLogExecutionTemplateConstant        = "Unable to read commit history in %s"
	gitRemoteStartTemplateConstant         = "Checking %[2]s remote for %[1]s"
	gitRemoteSuccessTemplateConstant       = "Read %[2]s remote for %[1]s"
	gitRemoteFailureTemplateConstant       = "Failed to read %[2]s remote for %[1]s"
	gitRemoteExecutionTemplateConstant     = "Unable to read %[2]s remote for %[1]s"
	gitBranchNameStartTemplateConstant     = "Identifying current branch in %s"
	gitBranchNameSuccessTemplateConstant   = "Identified current branch in %s"
	gitBranchNameFailureTemplateConstant   = "Failed to identify current branch in %s"
	gitBranchNameExecutionTemplateConstant = "Unable to identify current branch in %s"
)

// stageTemplates holds one template per lifecycle stage for a recognized git invocation.
type stageTemplates struct {
	start            string
	success          string
	failure          string
	executionFailure string
}

func (templates stageTemplates) forStage(stage messageStage) string {
	switch stage {
	case messageStageStart:
		return templates.start
	case messageStageSuccess:
		return templates.success
	case messageStageFailure:
		return templates.failure
	default:
		return templates.executionFailure
	}
}

var (
	gitStatusTemplates       = stageTemplates{gitStatusStartTemplateConstant, gitStatusSuccessTemplateConstant, gitStatusFailureTemplateConstant, gitStatusExecutionTemplateConstant}
	gitDiffTemplates         = stageTemplates{gitDiffStartTemplateConstant, gitDiffSuccessTemplateConstant, gitDiffFailureTemplateConstant, gitDiffExecutionTemplateConstant}
	gitAddTemplates          = stageTemplates{gitAddStartTemplateConstant, gitAddSuccessTemplateConstant, gitAddFailureTemplateConstant, gitAddExecutionTemplateConstant}
	gitCommitTemplates       = stageTemplates{gitCommitStartTemplateConstant, gitCommitSuccessTemplateConstant, gitCommitFailureTemplateConstant, gitCommitExecutionTemplateConstant}
	gitCheckoutTemplates     = stageTemplates{gitCheckoutStartTemplateConstant, gitCheckoutSuccessTemplateConstant, gitCheckoutFailureTemplateConstant, gitCheckoutExecutionTemplateConstant}
	gitBranchCreateTemplates = stageTemplates{gitBranchCreateStartTemplateConstant, gitBranchCreateSuccessTemplateConstant, gitBranchCreateFailureTemplateConstant, gitBranchCreateExecutionTemplateConst}
	gitPushTemplates         = stageTemplates{gitPushStartTemplateConstant, gitPushSuccessTemplateConstant, gitPushFailureTemplateConstant, gitPushExecutionTemplateConstant}
	gitLogTemplates          = stageTemplates{gitLogStartTemplateConstant, gitLogSuccessTemplateConstant, gitLogFailureTemplateConstant, gitLogExecutionTemplateConstant}
	gitRemoteTemplates       = stageTemplates{gitRemoteStartTemplateConstant, gitRemoteSuccessTemplateConstant, gitRemoteFailureTemplateConstant, gitRemoteExecutionTemplateConstant}
	gitBranchNameTemplates   = stageTemplates{gitBranchNameStartTemplateConstant, gitBranchNameSuccessTemplateConstant, gitBranchNameFailureTemplateConstant, gitBranchNameExecutionTemplateConstant}
)

// CommandMessageFormatter builds human-readable messages for command lifecycle events.
type CommandMessageFormatter struct{}

// BuildStartedMessage formats the message describing a command about to run.
func (formatter CommandMessageFormatter) BuildStartedMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageStart)
}

// BuildSuccessMessage formats the message describing a completed command with a zero exit code.
func (formatter CommandMessageFormatter) BuildSuccessMessage(command ShellCommand) string {
	return formatter.buildMessage(command, ExecutionResult{}, nil, messageStageSuccess)
}

// BuildFailureMessage formats the message describing a command that returned a non-zero exit code.
func (formatter CommandMessageFormatter) BuildFailureMessage(command ShellCommand, result ExecutionResult) string {
	return formatter.buildMessage(command, result, nil, messageStageFailure)
}

// BuildExecutionFailureMessage formats the message describing an unexpected execution failure.
func (formatter CommandMessageFormatter) BuildExecutionFailureMessage(command ShellCommand, failure error) string {
	return formatter.buildMessage(command, ExecutionResult{}, failure, messageStageExecutionFailure)
}

func (formatter CommandMessageFormatter) buildMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	if command.Name != CommandGit || len(command.Details.Arguments) == 0 {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	templates, templateArguments, recognized := formatter.describeGitInvocation(command)
	if !recognized {
		return formatter.buildGenericMessage(command, result, failure, stage)
	}

	message := fmt.Sprintf(templates.forStage(stage), templateArguments...)
	switch stage {
	case messageStageFailure:
		return message + fmt.Sprintf(failureDetailTemplateConstant, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return message + fmt.Sprintf(executionFailureDetailTemplateConstant, formatter.describeFailure(failure))
	default:
		return message
	}
}

func (formatter CommandMessageFormatter) describeGitInvocation(command ShellCommand) (stageTemplates, []any, bool) {
	arguments := command.Details.Arguments
	workingDirectory := formatter.describeWorkingDirectory(command)

	switch strings.TrimSpace(arguments[0]) {
	case gitStatusSubcommandNameConstant:
		return gitStatusTemplates, []any{workingDirectory}, true
	case gitDiffSubcommandNameConstant:
		return gitDiffTemplates, []any{workingDirectory}, true
	case gitLogSubcommandNameConstant:
		return gitLogTemplates, []any{workingDirectory}, true
	case gitAddSubcommandNameConstant:
		if containsArgument(arguments, gitStageAllFlagConstant) {
			return gitAddTemplates, []any{gitStageAllLabelConstant, workingDirectory}, true
		}
		targetPaths := formatter.collectNonFlagArguments(arguments[1:])
		return gitAddTemplates, []any{formatter.ensureValue(strings.Join(targetPaths, commandArgumentsJoinSeparatorConstant)), workingDirectory}, true
	case gitCommitSubcommandNameConstant:
		return gitCommitTemplates, []any{workingDirectory, formatter.findFlagValue(arguments, gitMessageFlagConstant)}, true
	case gitCheckoutSubcommandNameConstant:
		if containsArgument(arguments, gitCreateBranchFlagConstant) {
			return gitBranchCreateTemplates, []any{workingDirectory, formatter.findFlagValue(arguments, gitCreateBranchFlagConstant)}, true
		}
		branchName := formatter.collectNonFlagArguments(arguments[1:])
		return gitCheckoutTemplates, []any{workingDirectory, formatter.ensureValue(formatter.firstOrEmpty(branchName))}, true
	case gitPushSubcommandNameConstant:
		positional := formatter.collectNonFlagArguments(arguments[1:])
		remoteName := formatter.ensureValue(formatter.valueAt(positional, 0))
		branchName := formatter.ensureValue(formatter.valueAt(positional, 1))
		return gitPushTemplates, []any{workingDirectory, remoteName, branchName}, true
	case gitRemoteSubcommandNameConstant:
		if len(arguments) > 2 && strings.TrimSpace(arguments[1]) == gitRemoteGetURLSubcommandNameConstant {
			return gitRemoteTemplates, []any{workingDirectory, formatter.ensureValue(arguments[2])}, true
		}
	case gitRevParseSubcommandNameConstant:
		if containsArgument(arguments, gitAbbrevRefFlagConstant) {
			return gitBranchNameTemplates, []any{workingDirectory}, true
		}
	case gitBranchSubcommandNameConstant:
		if containsArgument(arguments, gitShowCurrentFlagConstant) {
			return gitBranchNameTemplates, []any{workingDirectory}, true
		}
	}
	return stageTemplates{}, nil, false
}

func (formatter CommandMessageFormatter) buildGenericMessage(command ShellCommand, result ExecutionResult, failure error, stage messageStage) string {
	commandLabel := formatter.formatCommandLabel(command)
	switch stage {
	case messageStageStart:
		return fmt.Sprintf(genericStartTemplateConstant, commandLabel)
	case messageStageSuccess:
		return fmt.Sprintf(genericSuccessTemplateConstant, commandLabel)
	case messageStageFailure:
		return fmt.Sprintf(genericFailureTemplateConstant, commandLabel, result.ExitCode, formatter.formatStandardErrorSuffix(result.StandardError))
	case messageStageExecutionFailure:
		return fmt.Sprintf(genericExecutionFailureTemplateConstant, commandLabel, formatter.describeFailure(failure))
	default:
		return emptyStringConstant
	}
}

func (formatter CommandMessageFormatter) formatCommandLabel(command ShellCommand) string {
	commandLabel := string(command.Name)
	if len(command.Details.Arguments) > 0 {
		commandLabel = fmt.Sprintf(commandWithArgumentsTemplateConstant, commandLabel, strings.Join(command.Details.Arguments, commandArgumentsJoinSeparatorConstant))
	}
	return fmt.Sprintf(commandLabelTemplateConstant, commandLabel, formatter.formatWorkingDirectorySuffix(command))
}

func (formatter CommandMessageFormatter) formatWorkingDirectorySuffix(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(workingDirectorySuffixTemplateConstant, trimmedWorkingDirectory)
}

func (formatter CommandMessageFormatter) formatStandardErrorSuffix(standardError string) string {
	trimmedStandardError := strings.TrimSpace(standardError)
	if len(trimmedStandardError) == 0 {
		return emptyStringConstant
	}
	return fmt.Sprintf(standardErrorSuffixTemplateConstant, trimmedStandardError)
}

func (formatter CommandMessageFormatter) describeWorkingDirectory(command ShellCommand) string {
	trimmedWorkingDirectory := strings.TrimSpace(command.Details.WorkingDirectory)
	if len(trimmedWorkingDirectory) == 0 {
		return defaultWorkingDirectoryLabelConstant
	}
	return trimmedWorkingDirectory
}

func (formatter CommandMessageFormatter) describeFailure(failure error) string {
	if failure == nil {
		return unknownFailureMessageConstant
	}
	return failure.Error()
}

func (formatter CommandMessageFormatter) ensureValue(value string) string {
	trimmed := strings.TrimSpace(value)
	if len(trimmed) == 0 {
		return fallbackUnknownValueLabelConstant
	}
	return trimmed
}

func (formatter CommandMessageFormatter) collectNonFlagArguments(arguments []string) []string {
	positional := make([]string, 0, len(arguments))
	for _, argument := range arguments {
		trimmed := strings.TrimSpace(argument)
		if len(trimmed) == 0 || strings.HasPrefix(trimmed, flagPrefixConstant) {
			continue
		}
		positional = append(positional, trimmed)
	}
	return positional
}

func (formatter CommandMessageFormatter) firstOrEmpty(values []string) string {
	return formatter.valueAt(values, 0)
}

func (formatter CommandMessageFormatter) valueAt(values []string, index int) string {
	if index >= 0 && index < len(values) {
		return values[index]
	}
	return emptyStringConstant
}

func (formatter CommandMessageFormatter) findFlagValue(arguments []string, flag string) string {
	for index := 0; index < len(arguments); index++ {
		if strings.TrimSpace(arguments[index]) == flag && index+1 < len(arguments) {
			return strings.TrimSpace(arguments[index+1])
		}
	}
	return fallbackUnknownValueLabelConstant
}

func containsArgument(arguments []string, value string) bool {
	for _, argument := range arguments {
		if strings.TrimSpace(argument) == value {
			return true
		}
	}
	return false
}
