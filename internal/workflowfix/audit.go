package workflowfix

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strings"
)

// Suggestion severities.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

const (
	permissionsMarkerConstant = "permissions:"
	timeoutMarkerConstant     = "timeout-minutes"
	concurrencyMarkerConstant = "concurrency:"
	cacheUsesMarkerConstant   = "uses: actions/cache"
)

// Suggestion is a recommendation produced by a text audit of a workflow.
type Suggestion struct {
	Issue    string `json:"issue" yaml:"issue"`
	Fix      string `json:"fix" yaml:"fix"`
	Severity string `json:"severity" yaml:"severity"`
}

type auditCheck struct {
	applies    func(content string) bool
	suggestion Suggestion
}

var auditChecks = []auditCheck{
	{
		applies: func(content string) bool {
			return strings.Contains(content, unpinnedMainSuffixConstant) || strings.Contains(content, unpinnedLatestSuffixConstant)
		},
		suggestion: Suggestion{Issue: "Unpinned action versions", Fix: "Replace @main/@latest with specific versions (e.g., @v4)", Severity: SeverityHigh},
	},
	{
		applies:    missing(permissionsMarkerConstant),
		suggestion: Suggestion{Issue: "Missing permissions", Fix: "Add permissions block (contents: read, pull-requests: write)", Severity: SeverityMedium},
	},
	{
		applies:    missing(timeoutMarkerConstant),
		suggestion: Suggestion{Issue: "No job timeout", Fix: "Add timeout-minutes to prevent runaway jobs", Severity: SeverityLow},
	},
	{
		applies:    missing(concurrencyMarkerConstant),
		suggestion: Suggestion{Issue: "No concurrency control", Fix: "Add concurrency group to cancel in-progress runs", Severity: SeverityLow},
	},
	{
		applies:    missing(cacheUsesMarkerConstant),
		suggestion: Suggestion{Issue: "No caching", Fix: "Add actions/cache for dependencies", Severity: SeverityMedium},
	},
}

func missing(marker string) func(string) bool {
	return func(content string) bool {
		return !strings.Contains(content, marker)
	}
}

// Audit inspects raw workflow text for common omissions.
func Audit(content string) []Suggestion {
	suggestions := []Suggestion{}
	for _, check := range auditChecks {
		if check.applies(content) {
			suggestions = append(suggestions, check.suggestion)
		}
	}
	return suggestions
}

// AuditFile reads the workflow at path and audits its text.
func AuditFile(path string) ([]Suggestion, error) {
	content, readError := os.ReadFile(path)
	if readError != nil {
		if errors.Is(readError, fs.ErrNotExist) {
			return nil, fmt.Errorf(workflowNotFoundTemplate, ErrWorkflowNotFound, path)
		}
		return nil, fmt.Errorf(readWorkflowErrorTemplate, path, readError)
	}
	return Audit(string(content)), nil
}
