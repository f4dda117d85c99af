package changes

import (
	"fmt"
	"strings"
)

// Category classifies a change set for commit message selection.
type Category string

// Change categories in precedence order.
const (
	CategoryWorkflow Category = Category("workflow")
	CategoryDocker   Category = Category("docker")
	CategoryConfig   Category = Category("config")
	CategoryGeneric  Category = Category("generic")
)

const (
	workflowsPathMarkerConstant = ".github/workflows"
	dockerfileSuffixConstant    = "Dockerfile"
	dockerComposeMarkerConstant = "docker-compose"
	unknownFixTemplateConstant  = "fix: resolve %s error"
)

var configurationSuffixes = []string{".yml", ".yaml", ".json", ".toml"}

var commitMessages = map[Category]string{
	CategoryWorkflow: "ci(workflows): fix workflow errors and add optimizations",
	CategoryDocker:   "fix(docker): fix Docker build configuration",
	CategoryConfig:   "chore(config): update configuration files",
	CategoryGeneric:  "chore: apply fixes and improvements",
}

var fixCommitMessages = map[string]string{
	"enospc":     "ci(workflows): fix ENOSPC error - add Docker layer caching",
	"timeout":    "ci(workflows): fix timeout - increase job timeout-minutes",
	"permission": "ci(workflows): fix permissions - scope to minimum required",
	"cache":      "ci(workflows): add dependency caching for faster builds",
	"docker":     "ci(docker): fix Docker build - optimize multi-stage build",
	"test":       "test: fix test failures and add missing tests",
}

// ClassifyPath returns the category of a single path.
func ClassifyPath(path string) Category {
	switch {
	case strings.Contains(path, workflowsPathMarkerConstant):
		return CategoryWorkflow
	case strings.HasSuffix(path, dockerfileSuffixConstant) || strings.Contains(path, dockerComposeMarkerConstant):
		return CategoryDocker
	}
	for _, suffix := range configurationSuffixes {
		if strings.HasSuffix(path, suffix) {
			return CategoryConfig
		}
	}
	return CategoryGeneric
}

// Classify returns the highest-precedence category among the changed paths.
func Classify(changeSet ChangeSet) Category {
	present := map[Category]bool{}
	for _, change := range changeSet.Changes {
		present[ClassifyPath(change.Path)] = true
	}
	for _, category := range []Category{CategoryWorkflow, CategoryDocker, CategoryConfig} {
		if present[category] {
			return category
		}
	}
	return CategoryGeneric
}

// SuggestCommitMessage returns the conventional commit message for the change set's category.
func SuggestCommitMessage(changeSet ChangeSet) string {
	return commitMessages[Classify(changeSet)]
}

// FormatFixCommit returns the commit message for a known failure type.
func FormatFixCommit(errorType string) string {
	if message, known := fixCommitMessages[strings.ToLower(strings.TrimSpace(errorType))]; known {
		return message
	}
	return fmt.Sprintf(unknownFixTemplateConstant, errorType)
}
