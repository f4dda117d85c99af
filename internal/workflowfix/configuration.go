package workflowfix

const (
	timeoutMinutesConfigurationKey = "timeout_minutes"
	backupConfigurationKey         = "backup"
	dockerCacheConfigurationKey    = "docker_cache"
	configurationKeySeparator      = "."
)

// CommandConfiguration captures the tools.fix configuration section.
type CommandConfiguration struct {
	TimeoutMinutes int  `mapstructure:"timeout_minutes" validate:"gte=0"`
	Backup         bool `mapstructure:"backup"`
	DockerCache    bool `mapstructure:"docker_cache"`
}

// DefaultCommandConfiguration returns baseline values for the fix command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		TimeoutMinutes: DefaultTimeoutMinutes,
		Backup:         true,
		DockerCache:    true,
	}
}

// DefaultConfigurationValues exposes the defaults as flattened configuration keys under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefix + configurationKeySeparator + timeoutMinutesConfigurationKey: defaults.TimeoutMinutes,
		prefix + configurationKeySeparator + backupConfigurationKey:         defaults.Backup,
		prefix + configurationKeySeparator + dockerCacheConfigurationKey:    defaults.DockerCache,
	}
}

// Sanitize restores defaults for unset numeric fields.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	sanitized := configuration
	if sanitized.TimeoutMinutes <= 0 {
		sanitized.TimeoutMinutes = DefaultTimeoutMinutes
	}
	return sanitized
}
