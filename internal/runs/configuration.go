package runs

import "strings"

const (
	defaultRunLimitConstant   = 10
	limitConfigurationKey     = "limit"
	outputConfigurationKey    = "output"
	configurationKeySeparator = "."
)

// CommandConfiguration captures the tools.runs configuration section.
type CommandConfiguration struct {
	Limit  int    `mapstructure:"limit" validate:"gte=0,lte=100"`
	Output string `mapstructure:"output" validate:"omitempty,oneof=human json yaml"`
}

// DefaultCommandConfiguration returns baseline values for the runs command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		Limit:  defaultRunLimitConstant,
		Output: string(OutputFormatHuman),
	}
}

// DefaultConfigurationValues exposes the defaults as flattened configuration keys under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefix + configurationKeySeparator + limitConfigurationKey:  defaults.Limit,
		prefix + configurationKeySeparator + outputConfigurationKey: defaults.Output,
	}
}

// Sanitize trims values and restores defaults for unset fields.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	if sanitized.Limit <= 0 {
		sanitized.Limit = defaultRunLimitConstant
	}
	sanitized.Output = strings.ToLower(strings.TrimSpace(configuration.Output))
	if len(sanitized.Output) == 0 {
		sanitized.Output = string(OutputFormatHuman)
	}
	return sanitized
}
