package loganalysis

import "strings"

const (
	failedRunLimitConfigurationKey = "failed_run_limit"
	scanRunLimitConfigurationKey   = "scan_run_limit"
	outputConfigurationKey         = "output"
	configurationKeySeparator      = "."
	defaultOutputConstant          = "human"
)

// CommandConfiguration captures the tools.analyze configuration section.
type CommandConfiguration struct {
	FailedRunLimit int    `mapstructure:"failed_run_limit" validate:"gte=0,lte=100"`
	ScanRunLimit   int    `mapstructure:"scan_run_limit" validate:"gte=0,lte=100"`
	Output         string `mapstructure:"output" validate:"omitempty,oneof=human json yaml"`
}

// DefaultCommandConfiguration returns baseline values for the analyze command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		FailedRunLimit: defaultFailedRunLimitConstant,
		ScanRunLimit:   defaultScanRunLimitConstant,
		Output:         defaultOutputConstant,
	}
}

// DefaultConfigurationValues exposes the defaults as flattened configuration keys under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefix + configurationKeySeparator + failedRunLimitConfigurationKey: defaults.FailedRunLimit,
		prefix + configurationKeySeparator + scanRunLimitConfigurationKey:   defaults.ScanRunLimit,
		prefix + configurationKeySeparator + outputConfigurationKey:         defaults.Output,
	}
}

// Sanitize restores defaults for unset fields and keeps the scan window at least as large as the failure limit.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	if sanitized.FailedRunLimit <= 0 {
		sanitized.FailedRunLimit = defaultFailedRunLimitConstant
	}
	if sanitized.ScanRunLimit <= 0 {
		sanitized.ScanRunLimit = defaultScanRunLimitConstant
	}
	if sanitized.ScanRunLimit < sanitized.FailedRunLimit {
		sanitized.ScanRunLimit = sanitized.FailedRunLimit
	}
	sanitized.Output = strings.ToLower(strings.TrimSpace(configuration.Output))
	if len(sanitized.Output) == 0 {
		sanitized.Output = defaultOutputConstant
	}
	return sanitized
}
