package changes

import "strings"

const (
	repositoryPathConfigurationKey  = "repository_path"
	remoteConfigurationKey          = "remote"
	baseBranchConfigurationKey      = "base_branch"
	configurationKeySeparator       = "."
	defaultRepositoryPathConstant   = "."
	defaultCommitLimitConstant      = 10
	defaultPullRequestLimitConstant = 10
)

// CommandConfiguration captures the tools.changes configuration section.
type CommandConfiguration struct {
	RepositoryPath string `mapstructure:"repository_path"`
	Remote         string `mapstructure:"remote"`
	BaseBranch     string `mapstructure:"base_branch"`
}

// DefaultCommandConfiguration returns baseline values for the changes command.
func DefaultCommandConfiguration() CommandConfiguration {
	return CommandConfiguration{
		RepositoryPath: defaultRepositoryPathConstant,
		Remote:         defaultRemoteConstant,
		BaseBranch:     defaultBaseBranchConstant,
	}
}

// DefaultConfigurationValues exposes the defaults as flattened configuration keys under prefix.
func DefaultConfigurationValues(prefix string) map[string]any {
	defaults := DefaultCommandConfiguration()
	return map[string]any{
		prefix + configurationKeySeparator + repositoryPathConfigurationKey: defaults.RepositoryPath,
		prefix + configurationKeySeparator + remoteConfigurationKey:         defaults.Remote,
		prefix + configurationKeySeparator + baseBranchConfigurationKey:     defaults.BaseBranch,
	}
}

// Sanitize trims values and restores defaults for blank fields.
func (configuration CommandConfiguration) Sanitize() CommandConfiguration {
	defaults := DefaultCommandConfiguration()
	sanitized := CommandConfiguration{
		RepositoryPath: strings.TrimSpace(configuration.RepositoryPath),
		Remote:         strings.TrimSpace(configuration.Remote),
		BaseBranch:     strings.TrimSpace(configuration.BaseBranch),
	}
	if len(sanitized.RepositoryPath) == 0 {
		sanitized.RepositoryPath = defaults.RepositoryPath
	}
	if len(sanitized.Remote) == 0 {
		sanitized.Remote = defaults.Remote
	}
	if len(sanitized.BaseBranch) == 0 {
		sanitized.BaseBranch = defaults.BaseBranch
	}
	return sanitized
}
