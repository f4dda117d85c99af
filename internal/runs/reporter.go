package runs

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/temirov/ci_scripts/internal/githubapi"
	"github.com/temirov/ci_scripts/internal/gitrepo"
	"github.com/temirov/ci_scripts/internal/ui"
)

// OutputFormat selects how reports are rendered.
type OutputFormat string

// Supported report formats.
const (
	OutputFormatHuman OutputFormat = OutputFormat("human")
	OutputFormatJSON  OutputFormat = OutputFormat("json")
	OutputFormatYAML  OutputFormat = OutputFormat("yaml")
)

const (
	unsupportedOutputTemplateConstant = "unsupported output format %q"
	shortSHALengthConstant            = 7
	pendingConclusionConstant         = "pending"
	recentRunsTitleTemplateConstant   = "Recent workflow runs for %s (limit %d)"
	failedRunsTitleTemplateConstant   = "Recent failed workflow runs for %s"
	runSummaryTitleConstant           = "Workflow run summary"
	runJobsTitleTemplateConstant      = "Workflow run %d jobs"
	noRunsMessageConstant             = "No workflow runs found."
	noFailedRunsMessageConstant       = "No failed runs found."
	noJobsMessageConstant             = "No jobs found."
	runLineTemplateConstant           = "  [%s] %s #%d - %s - %s\n"
	statusTagTemplateConstant         = "[%s]"
	failedRunHeaderTemplateConstant   = "  %s %s\n"
	detailLineTemplateConstant        = "    %s: %s\n"
	summaryLineTemplateConstant       = "  %s: %s\n"
	jobLineTemplateConstant           = "  %s %s\n"
	failedStepTemplateConstant        = "%s (#%d)"
	failedStepsSeparatorConstant      = ", "
	blankLineConstant                 = "\n"
	labelRunIDConstant                = "Run ID"
	labelEventConstant                = "Event"
	labelBranchConstant               = "Branch"
	labelTriggeredByConstant          = "Triggered by"
	labelTimeConstant                 = "Time"
	labelNameConstant                 = "Name"
	labelStatusConstant               = "Status"
	labelConclusionConstant           = "Conclusion"
	labelCommitConstant               = "Commit"
	labelCreatedConstant              = "Created"
	labelUpdatedConstant              = "Updated"
	labelURLConstant                  = "URL"
	labelStartedConstant              = "Started"
	labelCompletedConstant            = "Completed"
	labelDurationConstant             = "Duration"
	labelFailedStepsConstant          = "Failed steps"
)

// OutputFormatChoices lists the accepted --output values.
func OutputFormatChoices() []string {
	return []string{string(OutputFormatHuman), string(OutputFormatJSON), string(OutputFormatYAML)}
}

// ParseOutputFormat validates a textual format name.
func ParseOutputFormat(value string) (OutputFormat, error) {
	normalized := OutputFormat(strings.ToLower(strings.TrimSpace(value)))
	switch normalized {
	case OutputFormatHuman, OutputFormatJSON, OutputFormatYAML:
		return normalized, nil
	case "":
		return OutputFormatHuman, nil
	default:
		return "", fmt.Errorf(unsupportedOutputTemplateConstant, value)
	}
}

// ReporterOption customizes a Reporter.
type ReporterOption func(reporter *Reporter)

// WithClock overrides the time source used for relative timestamps.
func WithClock(clock func() time.Time) ReporterOption {
	return func(reporter *Reporter) {
		if clock != nil {
			reporter.clock = clock
		}
	}
}

// Reporter renders run listings and run details.
type Reporter struct {
	writer  io.Writer
	format  OutputFormat
	palette ui.Palette
	clock   func() time.Time
}

// NewReporter constructs a Reporter writing to writer.
func NewReporter(writer io.Writer, format OutputFormat, palette ui.Palette, options ...ReporterOption) *Reporter {
	reporter := &Reporter{writer: writer, format: format, palette: palette, clock: time.Now}
	for _, option := range options {
		if option != nil {
			option(reporter)
		}
	}
	return reporter
}

// RenderRuns prints a compact listing of recent runs.
func (reporter *Reporter) RenderRuns(repository gitrepo.RepositorySlug, limit int, workflowRuns []githubapi.WorkflowRun) error {
	if reporter.format != OutputFormatHuman {
		return reporter.encode(workflowRuns)
	}

	if sectionError := ui.WriteSection(reporter.writer, reporter.palette, fmt.Sprintf(recentRunsTitleTemplateConstant, repository, limit)); sectionError != nil {
		return sectionError
	}
	if len(workflowRuns) == 0 {
		_, writeError := fmt.Fprintln(reporter.writer, noRunsMessageConstant)
		return writeError
	}

	now := reporter.clock()
	for _, workflowRun := range workflowRuns {
		_, writeError := fmt.Fprintf(reporter.writer, runLineTemplateConstant,
			reporter.palette.Status(runState(workflowRun), strings.ToUpper(runState(workflowRun))),
			workflowRun.Name,
			workflowRun.RunNumber,
			ui.ValueOrPlaceholder(workflowRun.HeadBranch),
			reporter.palette.Secondary(ui.RelativeTime(workflowRun.CreatedAt, now)),
		)
		if writeError != nil {
			return writeError
		}
	}
	return nil
}

// RenderFailedRuns prints failed runs with their trigger details.
func (reporter *Reporter) RenderFailedRuns(repository gitrepo.RepositorySlug, failedRuns []githubapi.WorkflowRun) error {
	if reporter.format != OutputFormatHuman {
		return reporter.encode(failedRuns)
	}

	if len(failedRuns) == 0 {
		_, writeError := fmt.Fprintln(reporter.writer, noFailedRunsMessageConstant)
		return writeError
	}

	if sectionError := ui.WriteSection(reporter.writer, reporter.palette, fmt.Sprintf(failedRunsTitleTemplateConstant, repository)); sectionError != nil {
		return sectionError
	}

	now := reporter.clock()
	for _, workflowRun := range failedRuns {
		lines := []string{
			fmt.Sprintf(failedRunHeaderTemplateConstant, reporter.statusTag(runState(workflowRun)), workflowRun.Name),
			fmt.Sprintf(detailLineTemplateConstant, labelRunIDConstant, fmt.Sprint(workflowRun.ID)),
			fmt.Sprintf(detailLineTemplateConstant, labelEventConstant, ui.ValueOrPlaceholder(workflowRun.Event)),
			fmt.Sprintf(detailLineTemplateConstant, labelBranchConstant, ui.ValueOrPlaceholder(workflowRun.HeadBranch)),
			fmt.Sprintf(detailLineTemplateConstant, labelTriggeredByConstant, ui.ValueOrPlaceholder(workflowRun.TriggeringActor.Login)),
			fmt.Sprintf(detailLineTemplateConstant, labelTimeConstant, ui.Timestamp(workflowRun.CreatedAt, now)),
			blankLineConstant,
		}
		if writeError := reporter.writeLines(lines); writeError != nil {
			return writeError
		}
	}
	return nil
}

// RenderDetails prints the run summary followed by each job's status.
func (reporter *Reporter) RenderDetails(details RunDetails) error {
	if reporter.format != OutputFormatHuman {
		return reporter.encode(details)
	}

	workflowRun := details.Run
	now := reporter.clock()

	if sectionError := ui.WriteSection(reporter.writer, reporter.palette, runSummaryTitleConstant); sectionError != nil {
		return sectionError
	}

	conclusion := workflowRun.Conclusion
	if len(conclusion) == 0 {
		conclusion = pendingConclusionConstant
	}

	summaryLines := []string{
		fmt.Sprintf(summaryLineTemplateConstant, labelNameConstant, ui.ValueOrPlaceholder(workflowRun.Name)),
		fmt.Sprintf(summaryLineTemplateConstant, labelStatusConstant, strings.ToUpper(ui.ValueOrPlaceholder(workflowRun.Status))),
		fmt.Sprintf(summaryLineTemplateConstant, labelConclusionConstant, reporter.palette.Status(conclusion, strings.ToUpper(conclusion))),
		fmt.Sprintf(summaryLineTemplateConstant, labelEventConstant, ui.ValueOrPlaceholder(workflowRun.Event)),
		fmt.Sprintf(summaryLineTemplateConstant, labelBranchConstant, ui.ValueOrPlaceholder(workflowRun.HeadBranch)),
		fmt.Sprintf(summaryLineTemplateConstant, labelCommitConstant, ui.ValueOrPlaceholder(shortSHA(workflowRun.HeadSHA))),
		fmt.Sprintf(summaryLineTemplateConstant, labelTriggeredByConstant, ui.ValueOrPlaceholder(workflowRun.TriggeringActor.Login)),
		fmt.Sprintf(summaryLineTemplateConstant, labelCreatedConstant, ui.Timestamp(workflowRun.CreatedAt, now)),
		fmt.Sprintf(summaryLineTemplateConstant, labelUpdatedConstant, ui.Timestamp(workflowRun.UpdatedAt, now)),
		fmt.Sprintf(summaryLineTemplateConstant, labelURLConstant, reporter.palette.Secondary(ui.ValueOrPlaceholder(workflowRun.HTMLURL))),
	}
	if writeError := reporter.writeLines(summaryLines); writeError != nil {
		return writeError
	}

	if sectionError := ui.WriteSection(reporter.writer, reporter.palette, fmt.Sprintf(runJobsTitleTemplateConstant, workflowRun.ID)); sectionError != nil {
		return sectionError
	}
	if len(details.Jobs) == 0 {
		_, writeError := fmt.Fprintln(reporter.writer, noJobsMessageConstant)
		return writeError
	}

	for _, job := range details.Jobs {
		jobLines := []string{fmt.Sprintf(jobLineTemplateConstant, reporter.statusTag(jobState(job)), job.Name)}
		if job.Conclusion != githubapi.ConclusionSuccess && len(job.Conclusion) > 0 {
			jobLines = append(jobLines,
				fmt.Sprintf(detailLineTemplateConstant, labelStartedConstant, ui.Timestamp(job.StartedAt, now)),
				fmt.Sprintf(detailLineTemplateConstant, labelCompletedConstant, ui.Timestamp(job.CompletedAt, now)),
			)
			if !job.StartedAt.IsZero() && !job.CompletedAt.IsZero() {
				jobLines = append(jobLines, fmt.Sprintf(detailLineTemplateConstant, labelDurationConstant, job.CompletedAt.Sub(job.StartedAt).Round(time.Second).String()))
			}
			if failedSteps := describeFailedSteps(job.Steps); len(failedSteps) > 0 {
				jobLines = append(jobLines, fmt.Sprintf(detailLineTemplateConstant, labelFailedStepsConstant, failedSteps))
			}
		}
		if writeError := reporter.writeLines(jobLines); writeError != nil {
			return writeError
		}
	}
	return nil
}

func (reporter *Reporter) statusTag(state string) string {
	return reporter.palette.Status(state, fmt.Sprintf(statusTagTemplateConstant, strings.ToUpper(state)))
}

func (reporter *Reporter) writeLines(lines []string) error {
	for _, line := range lines {
		if _, writeError := io.WriteString(reporter.writer, line); writeError != nil {
			return writeError
		}
	}
	return nil
}

func (reporter *Reporter) encode(value any) error {
	return ui.WriteStructured(reporter.writer, string(reporter.format), value)
}

func runState(workflowRun githubapi.WorkflowRun) string {
	if len(workflowRun.Conclusion) > 0 {
		return workflowRun.Conclusion
	}
	return workflowRun.Status
}

func jobState(job githubapi.Job) string {
	if len(job.Conclusion) > 0 {
		return job.Conclusion
	}
	return job.Status
}

func shortSHA(sha string) string {
	if len(sha) > shortSHALengthConstant {
		return sha[:shortSHALengthConstant]
	}
	return sha
}

func describeFailedSteps(steps []githubapi.JobStep) string {
	descriptions := make([]string, 0, len(steps))
	for _, step := range steps {
		if step.Conclusion == githubapi.ConclusionFailure {
			descriptions = append(descriptions, fmt.Sprintf(failedStepTemplateConstant, step.Name, step.Number))
		}
	}
	return strings.Join(descriptions, failedStepsSeparatorConstant)
}
