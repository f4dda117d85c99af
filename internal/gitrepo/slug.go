package gitrepo

import (
	"fmt"
	"strings"
)

const (
	slugTemplateConstant             = "%s/%s"
	invalidSlugMessageConstant       = "repository must be in owner/name form"
	slugSegmentCountConstant         = 2
	slugForbiddenCharactersConstant  = " \t\n:@"
	slugParseErrorFieldValueConstant = "repository"
	invalidSlugErrorTemplateConstant = "%s %q: %s"
)

// RepositorySlug identifies a GitHub repository by owner and name.
type RepositorySlug struct {
	Owner string
	Name  string
}

// String renders the slug as owner/name.
func (slug RepositorySlug) String() string {
	return fmt.Sprintf(slugTemplateConstant, slug.Owner, slug.Name)
}

// IsZero reports whether the slug carries no repository.
func (slug RepositorySlug) IsZero() bool {
	return len(slug.Owner) == 0 && len(slug.Name) == 0
}

// InvalidSlugError reports a repository identifier that is not owner/name.
type InvalidSlugError struct {
	Value string
}

// Error describes the invalid slug.
func (slugError InvalidSlugError) Error() string {
	return fmt.Sprintf(invalidSlugErrorTemplateConstant, slugParseErrorFieldValueConstant, slugError.Value, invalidSlugMessageConstant)
}

// ParseRepositorySlug validates and splits an owner/name identifier.
func ParseRepositorySlug(value string) (RepositorySlug, error) {
	trimmedValue := strings.Trim(strings.TrimSpace(value), pathSeparatorConstant)
	segments := strings.Split(trimmedValue, pathSeparatorConstant)
	if len(segments) != slugSegmentCountConstant {
		return RepositorySlug{}, InvalidSlugError{Value: value}
	}

	owner := strings.TrimSpace(segments[0])
	name := strings.TrimSuffix(strings.TrimSpace(segments[1]), gitSuffixConstant)
	if len(owner) == 0 || len(name) == 0 {
		return RepositorySlug{}, InvalidSlugError{Value: value}
	}
	if strings.ContainsAny(owner, slugForbiddenCharactersConstant) || strings.ContainsAny(name, slugForbiddenCharactersConstant) {
		return RepositorySlug{}, InvalidSlugError{Value: value}
	}

	return RepositorySlug{Owner: owner, Name: name}, nil
}
