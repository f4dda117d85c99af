// Package githubauth resolves the bearer token used for GitHub REST calls.
package githubauth

import (
	"errors"
	"os"
	"strings"
)

// Environment variable names used by GitHub authentication helpers.
const (
	EnvGitHubCLIToken = "GH_TOKEN"
	EnvGitHubToken    = "GITHUB_TOKEN"
	EnvGitHubAPIToken = "GITHUB_API_TOKEN"
)

const tokenMissingMessageConstant = "GitHub token required: pass --token or set GH_TOKEN, GITHUB_TOKEN, or GITHUB_API_TOKEN"

// ErrTokenMissing indicates no token was supplied through flags or the environment.
var ErrTokenMissing = errors.New(tokenMissingMessageConstant)

var tokenPreference = []string{
	EnvGitHubCLIToken,
	EnvGitHubToken,
	EnvGitHubAPIToken,
}

// ResolveToken returns the first non-empty GitHub authentication token observed
// in the provided environment map or the process environment.
func ResolveToken(environment map[string]string) (string, bool) {
	for _, key := range tokenPreference {
		if value, ok := lookup(environment, key); ok {
			return value, true
		}
	}
	for _, key := range tokenPreference {
		if value, ok := os.LookupEnv(key); ok {
			value = strings.TrimSpace(value)
			if len(value) > 0 {
				return value, true
			}
		}
	}
	return "", false
}

// RequireToken prefers an explicit token, then falls back to ResolveToken, and fails with ErrTokenMissing.
func RequireToken(explicitToken string, environment map[string]string) (string, error) {
	trimmedToken := strings.TrimSpace(explicitToken)
	if len(trimmedToken) > 0 {
		return trimmedToken, nil
	}
	resolvedToken, resolved := ResolveToken(environment)
	if !resolved {
		return "", ErrTokenMissing
	}
	return resolvedToken, nil
}

func lookup(environment map[string]string, key string) (string, bool) {
	if environment == nil {
		return "", false
	}
	value, exists := environment[key]
	if !exists {
		return "", false
	}
	value = strings.TrimSpace(value)
	if len(value) == 0 {
		return "", false
	}
	return value, true
}
