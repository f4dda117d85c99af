package githubauth_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/temirov/ci_scripts/internal/githubauth"
)

func TestRequireTokenPrecedence(testInstance *testing.T) {
	testCases := []struct {
		name          string
		explicitToken string
		environment   map[string]string
		processToken  string
		expectedToken string
		expectedError error
	}{
		{
			name:          "explicit_flag_wins",
			explicitToken: " flag-token ",
			environment:   map[string]string{githubauth.EnvGitHubCLIToken: "gh-token"},
			expectedToken: "flag-token",
		},
		{
			name:          "gh_token_preferred_over_github_token",
			environment:   map[string]string{githubauth.EnvGitHubToken: "github-token", githubauth.EnvGitHubCLIToken: "gh-token"},
			expectedToken: "gh-token",
		},
		{
			name:          "blank_entries_skipped",
			environment:   map[string]string{githubauth.EnvGitHubCLIToken: "  ", githubauth.EnvGitHubAPIToken: "api-token"},
			expectedToken: "api-token",
		},
		{
			name:          "process_environment_fallback",
			processToken:  "process-token",
			expectedToken: "process-token",
		},
		{
			name:          "missing",
			expectedError: githubauth.ErrTokenMissing,
		},
	}

	for _, testCase := range testCases {
		testInstance.Run(testCase.name, func(testInstance *testing.T) {
			testInstance.Setenv(githubauth.EnvGitHubCLIToken, "")
			testInstance.Setenv(githubauth.EnvGitHubToken, testCase.processToken)
			testInstance.Setenv(githubauth.EnvGitHubAPIToken, "")

			token, tokenError := githubauth.RequireToken(testCase.explicitToken, testCase.environment)
			if testCase.expectedError != nil {
				require.ErrorIs(testInstance, tokenError, testCase.expectedError)
				require.Empty(testInstance, token)
				return
			}
			require.NoError(testInstance, tokenError)
			require.Equal(testInstance, testCase.expectedToken, token)
		})
	}
}
