package flags

import (
	"strings"
)

const (
	choiceListOpenConstant      = "`<"
	choiceListCloseConstant     = ">`"
	choiceListSeparatorConstant = "|"
)

// FormatChoiceUsage renders "`<a|B|c>` description", upper-casing the default so --help shows which value applies when the flag is omitted.
func FormatChoiceUsage(defaultChoice string, choices []string, description string) string {
	var usage strings.Builder
	usage.WriteString(choiceListOpenConstant)
	for index, choice := range distinctChoices(choices) {
		if index > 0 {
			usage.WriteString(choiceListSeparatorConstant)
		}
		if strings.EqualFold(choice, strings.TrimSpace(defaultChoice)) {
			choice = strings.ToUpper(choice)
		}
		usage.WriteString(choice)
	}
	usage.WriteString(choiceListCloseConstant)

	if trimmedDescription := strings.TrimSpace(description); len(trimmedDescription) > 0 {
		usage.WriteString(" ")
		usage.WriteString(trimmedDescription)
	}
	return usage.String()
}

func distinctChoices(choices []string) []string {
	distinct := make([]string, 0, len(choices))
	for _, choice := range choices {
		trimmedChoice := strings.TrimSpace(choice)
		if len(trimmedChoice) == 0 || containsFold(distinct, trimmedChoice) {
			continue
		}
		distinct = append(distinct, trimmedChoice)
	}
	return distinct
}

func containsFold(values []string, candidate string) bool {
	for _, value := range values {
		if strings.EqualFold(value, candidate) {
			return true
		}
	}
	return false
}
