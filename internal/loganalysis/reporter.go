package loganalysis

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/temirov/ci_scripts/internal/runs"
	"github.com/temirov/ci_scripts/internal/ui"
	"github.com/temirov/ci_scripts/internal/workflowfix"
)

const (
	runTitleTemplateConstant       = "Analyzing Workflow Run %d"
	auditTitleTemplateConstant     = "Analyzing %s"
	noFailedJobsMessageConstant    = "No failed jobs found in this run."
	noFailedRunsMessageConstant    = "No failed runs found."
	jobHeaderTemplateConstant      = "\n%s %s\n"
	statusTagTemplateConstant      = "[%s]"
	jobDetailTemplateConstant      = "  %s: %s\n"
	issuesHeaderConstant           = "\n  Issues Found:\n"
	issueLineTemplateConstant      = "    [%s] %s\n"
	fixLineTemplateConstant        = "    Fix: %s\n"
	noIssuesMessageConstant        = "\n  No specific issues identified.\n"
	checkLogsTemplateConstant      = "  Check logs: %s\n"
	logsUnavailableMessageConstant = "\n  Logs not available.\n"
	jobURLTemplateConstant         = "  URL: %s\n"
	suggestionsCountTemplate       = "  %d suggestions found:\n\n"
	suggestionLineTemplateConstant = "    [%s] %s\n"
	suggestionFixTemplateConstant  = "    Fix: %s\n\n"
	noSuggestionsMessageConstant   = "  No obvious issues found.\n"
	labelStartedConstant           = "Started"
	labelCompletedConstant         = "Completed"
	labelLogSizeConstant           = "Log size"
)

// AuditReport is the structured form of a workflow audit.
type AuditReport struct {
	Workflow    string                   `json:"workflow" yaml:"workflow"`
	Suggestions []workflowfix.Suggestion `json:"suggestions" yaml:"suggestions"`
}

// Reporter renders log analyses and workflow audits.
type Reporter struct {
	writer  io.Writer
	format  runs.OutputFormat
	palette ui.Palette
	clock   func() time.Time
}

// NewReporter constructs a Reporter writing to writer. A nil clock uses time.Now.
func NewReporter(writer io.Writer, format runs.OutputFormat, palette ui.Palette, clock func() time.Time) *Reporter {
	if clock == nil {
		clock = time.Now
	}
	return &Reporter{writer: writer, format: format, palette: palette, clock: clock}
}

// RenderRun prints the failed jobs of one run with their findings.
func (reporter *Reporter) RenderRun(analysis RunAnalysis) error {
	if reporter.format != runs.OutputFormatHuman {
		return ui.WriteStructured(reporter.writer, string(reporter.format), analysis)
	}
	return reporter.renderRunText(analysis)
}

// RenderRecentFailures prints each analyzed failed run in turn.
func (reporter *Reporter) RenderRecentFailures(analyses []RunAnalysis) error {
	if reporter.format != runs.OutputFormatHuman {
		return ui.WriteStructured(reporter.writer, string(reporter.format), analyses)
	}
	if len(analyses) == 0 {
		_, writeError := fmt.Fprintln(reporter.writer, noFailedRunsMessageConstant)
		return writeError
	}
	for _, analysis := range analyses {
		if renderError := reporter.renderRunText(analysis); renderError != nil {
			return renderError
		}
		if _, writeError := fmt.Fprintln(reporter.writer); writeError != nil {
			return writeError
		}
	}
	return nil
}

// RenderAudit prints the suggestions for one workflow file.
func (reporter *Reporter) RenderAudit(workflowPath string, suggestions []workflowfix.Suggestion) error {
	if reporter.format != runs.OutputFormatHuman {
		return ui.WriteStructured(reporter.writer, string(reporter.format), AuditReport{Workflow: workflowPath, Suggestions: suggestions})
	}

	if sectionError := ui.WriteSection(reporter.writer, reporter.palette, fmt.Sprintf(auditTitleTemplateConstant, workflowPath)); sectionError != nil {
		return sectionError
	}
	if len(suggestions) == 0 {
		_, writeError := io.WriteString(reporter.writer, noSuggestionsMessageConstant)
		return writeError
	}

	lines := []string{fmt.Sprintf(suggestionsCountTemplate, len(suggestions))}
	for _, suggestion := range suggestions {
		lines = append(lines,
			fmt.Sprintf(suggestionLineTemplateConstant, reporter.palette.Severity(suggestion.Severity, strings.ToUpper(suggestion.Severity)), suggestion.Issue),
			fmt.Sprintf(suggestionFixTemplateConstant, suggestion.Fix),
		)
	}
	return reporter.writeLines(lines)
}

func (reporter *Reporter) renderRunText(analysis RunAnalysis) error {
	if sectionError := ui.WriteSection(reporter.writer, reporter.palette, fmt.Sprintf(runTitleTemplateConstant, analysis.RunID)); sectionError != nil {
		return sectionError
	}
	if len(analysis.Jobs) == 0 {
		_, writeError := fmt.Fprintln(reporter.writer, noFailedJobsMessageConstant)
		return writeError
	}

	now := reporter.clock()
	for _, jobAnalysis := range analysis.Jobs {
		job := jobAnalysis.Job
		lines := []string{
			fmt.Sprintf(jobHeaderTemplateConstant, reporter.palette.Status(job.Conclusion, fmt.Sprintf(statusTagTemplateConstant, strings.ToUpper(job.Conclusion))), job.Name),
			fmt.Sprintf(jobDetailTemplateConstant, labelStartedConstant, ui.Timestamp(job.StartedAt, now)),
			fmt.Sprintf(jobDetailTemplateConstant, labelCompletedConstant, ui.Timestamp(job.CompletedAt, now)),
		}

		switch {
		case !jobAnalysis.LogsAvailable:
			lines = append(lines, logsUnavailableMessageConstant, fmt.Sprintf(jobURLTemplateConstant, ui.ValueOrPlaceholder(job.HTMLURL)))
		case len(jobAnalysis.Findings) == 0:
			lines = append(lines,
				fmt.Sprintf(jobDetailTemplateConstant, labelLogSizeConstant, humanize.Bytes(uint64(jobAnalysis.LogSize))),
				noIssuesMessageConstant,
				fmt.Sprintf(checkLogsTemplateConstant, ui.ValueOrPlaceholder(job.HTMLURL)),
			)
		default:
			lines = append(lines,
				fmt.Sprintf(jobDetailTemplateConstant, labelLogSizeConstant, humanize.Bytes(uint64(jobAnalysis.LogSize))),
				issuesHeaderConstant,
			)
			for _, finding := range jobAnalysis.Findings {
				lines = append(lines,
					fmt.Sprintf(issueLineTemplateConstant, finding.Category, finding.Pattern),
					fmt.Sprintf(fixLineTemplateConstant, finding.Fix),
				)
			}
		}

		if writeError := reporter.writeLines(lines); writeError != nil {
			return writeError
		}
	}
	return nil
}

func (reporter *Reporter) writeLines(lines []string) error {
	for _, line := range lines {
		if _, writeError := io.WriteString(reporter.writer, line); writeError != nil {
			return writeError
		}
	}
	return nil
}
