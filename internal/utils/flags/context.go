package flags

import "github.com/spf13/cobra"

const (
	// RepositoryFlagName exposes the shared repository slug flag name.
	RepositoryFlagName = "repo"
	// RepositoryFlagUsage describes the shared repository slug flag purpose.
	RepositoryFlagUsage = "GitHub repository in owner/name form (defaults to configuration, then the origin remote)"
	// TokenFlagName exposes the shared API token flag name.
	TokenFlagName = "token"
	// TokenFlagUsage describes the shared API token flag purpose.
	TokenFlagUsage = "GitHub API token (defaults to GH_TOKEN, GITHUB_TOKEN, or GITHUB_API_TOKEN)"
	// DryRunFlagName exposes the shared dry-run flag name.
	DryRunFlagName = "dry-run"
	// DryRunFlagUsage describes the shared dry-run flag purpose.
	DryRunFlagUsage = "Preview operations without making changes"
	// OutputFlagName exposes the shared report format flag name.
	OutputFlagName = "output"
	// OutputFlagShorthand provides the shorthand for the report format flag.
	OutputFlagShorthand = "o"
	// ColorFlagName exposes the shared colored output flag name.
	ColorFlagName = "color"
	// ColorFlagUsage describes the shared colored output flag purpose.
	ColorFlagUsage = "Colorize human-readable reports"
)

// GitHubFlagDefinition captures configuration for a single GitHub context flag.
type GitHubFlagDefinition struct {
	Name    string
	Usage   string
	Enabled bool
}

// GitHubFlagDefinitions groups GitHub context flag definitions.
type GitHubFlagDefinitions struct {
	Repository GitHubFlagDefinition
	Token      GitHubFlagDefinition
}

// GitHubFlagValues stores GitHub context flag values.
type GitHubFlagValues struct {
	Repository string
	Token      string
}

// DefaultGitHubFlagDefinitions enables the shared --repo and --token flags.
func DefaultGitHubFlagDefinitions() GitHubFlagDefinitions {
	return GitHubFlagDefinitions{
		Repository: GitHubFlagDefinition{Name: RepositoryFlagName, Usage: RepositoryFlagUsage, Enabled: true},
		Token:      GitHubFlagDefinition{Name: TokenFlagName, Usage: TokenFlagUsage, Enabled: true},
	}
}

// BindGitHubFlags attaches GitHub context flags to the provided command.
func BindGitHubFlags(command *cobra.Command, defaults GitHubFlagValues, definitions GitHubFlagDefinitions) *GitHubFlagValues {
	values := defaults
	if command == nil {
		return &values
	}

	flagSet := command.Flags()
	if definitions.Repository.Enabled && len(definitions.Repository.Name) > 0 {
		flagSet.StringVar(&values.Repository, definitions.Repository.Name, defaults.Repository, definitions.Repository.Usage)
	}
	if definitions.Token.Enabled && len(definitions.Token.Name) > 0 {
		flagSet.StringVar(&values.Token, definitions.Token.Name, defaults.Token, definitions.Token.Usage)
	}

	return &values
}

// OutputFlagValues stores the selected report format.
type OutputFlagValues struct {
	Format string
}

// BindOutputFlag attaches the report format flag, rendering the available choices in its usage.
func BindOutputFlag(command *cobra.Command, defaultFormat string, choices []string, description string) *OutputFlagValues {
	values := OutputFlagValues{Format: defaultFormat}
	if command == nil {
		return &values
	}
	if command.Flags().Lookup(OutputFlagName) == nil {
		command.Flags().StringVarP(&values.Format, OutputFlagName, OutputFlagShorthand, defaultFormat, FormatChoiceUsage(defaultFormat, choices, description))
	}
	return &values
}
