package githubapi

import (
	"context"
	"strings"
	"time"

	"github.com/google/go-github/v72/github"

	"github.com/temirov/ci_scripts/internal/gitrepo"
)

const (
	titleFieldNameConstant                 = "title"
	headFieldNameConstant                  = "head"
	baseFieldNameConstant                  = "base"
	stateFieldNameConstant                 = "state"
	unsupportedStateMessageConstant        = "must be open, closed or all"
	defaultPullRequestPageSizeConstant     = 10
	createPullRequestOperationNameConstant = OperationName("CreatePullRequest")
	listPullRequestsOperationNameConstant  = OperationName("ListPullRequests")
)

// PullRequestState filters pull request listings.
type PullRequestState string

// Pull request state enumerations.
const (
	PullRequestStateOpen   PullRequestState = PullRequestState("open")
	PullRequestStateClosed PullRequestState = PullRequestState("closed")
	PullRequestStateAll    PullRequestState = PullRequestState("all")
)

// PullRequest represents the pull request details used by the tools.
type PullRequest struct {
	Number      int       `json:"number" yaml:"number"`
	Title       string    `json:"title" yaml:"title"`
	State       string    `json:"state" yaml:"state"`
	HTMLURL     string    `json:"html_url" yaml:"html_url"`
	HeadRefName string    `json:"head_ref" yaml:"head_ref"`
	BaseRefName string    `json:"base_ref" yaml:"base_ref"`
	Author      string    `json:"author" yaml:"author"`
	CreatedAt   time.Time `json:"created_at" yaml:"created_at"`
}

// PullRequestCreation describes a pull request to open.
type PullRequestCreation struct {
	Title string
	Head  string
	Base  string
	Body  string
}

// PullRequestListOptions configures ListPullRequests queries.
type PullRequestListOptions struct {
	State   PullRequestState
	PerPage int
}

func convertPullRequest(pullRequest *github.PullRequest) PullRequest {
	return PullRequest{
		Number:      pullRequest.GetNumber(),
		Title:       pullRequest.GetTitle(),
		State:       pullRequest.GetState(),
		HTMLURL:     pullRequest.GetHTMLURL(),
		HeadRefName: pullRequest.GetHead().GetRef(),
		BaseRefName: pullRequest.GetBase().GetRef(),
		Author:      pullRequest.GetUser().GetLogin(),
		CreatedAt:   pullRequest.GetCreatedAt().Time,
	}
}

// CreatePullRequest opens a pull request from head into base.
func (client *Client) CreatePullRequest(executionContext context.Context, repository gitrepo.RepositorySlug, creation PullRequestCreation) (PullRequest, error) {
	requiredValues := []struct {
		fieldName string
		value     string
	}{
		{fieldName: titleFieldNameConstant, value: creation.Title},
		{fieldName: headFieldNameConstant, value: creation.Head},
		{fieldName: baseFieldNameConstant, value: creation.Base},
	}
	for _, requiredValue := range requiredValues {
		if len(strings.TrimSpace(requiredValue.value)) == 0 {
			return PullRequest{}, InvalidInputError{FieldName: requiredValue.fieldName, Message: requiredValueMessageConstant}
		}
	}

	if repositoryError := requireRepository(repository); repositoryError != nil {
		return PullRequest{}, repositoryError
	}

	newPullRequest := &github.NewPullRequest{
		Title: github.Ptr(strings.TrimSpace(creation.Title)),
		Head:  github.Ptr(strings.TrimSpace(creation.Head)),
		Base:  github.Ptr(strings.TrimSpace(creation.Base)),
		Body:  github.Ptr(creation.Body),
	}

	operationContext := withOperation(executionContext, createPullRequestOperationNameConstant)
	created, response, apiError := client.restClient.PullRequests.Create(operationContext, repository.Owner, repository.Name, newPullRequest)
	if apiError != nil {
		return PullRequest{}, translateError(createPullRequestOperationNameConstant, response, apiError)
	}
	return convertPullRequest(created), nil
}

// ListPullRequests enumerates pull requests in the requested state.
func (client *Client) ListPullRequests(executionContext context.Context, repository gitrepo.RepositorySlug, options PullRequestListOptions) ([]PullRequest, error) {
	state := options.State
	if len(state) == 0 {
		state = PullRequestStateOpen
	}
	switch state {
	case PullRequestStateOpen, PullRequestStateClosed, PullRequestStateAll:
	default:
		return nil, InvalidInputError{FieldName: stateFieldNameConstant, Message: unsupportedStateMessageConstant}
	}

	perPage := options.PerPage
	if perPage <= 0 {
		perPage = defaultPullRequestPageSizeConstant
	}

	if repositoryError := requireRepository(repository); repositoryError != nil {
		return nil, repositoryError
	}

	listOptions := &github.PullRequestListOptions{
		State:       string(state),
		ListOptions: github.ListOptions{PerPage: perPage},
	}
	operationContext := withOperation(executionContext, listPullRequestsOperationNameConstant)
	listed, response, apiError := client.restClient.PullRequests.List(operationContext, repository.Owner, repository.Name, listOptions)
	if apiError != nil {
		return nil, translateError(listPullRequestsOperationNameConstant, response, apiError)
	}

	pullRequests := make([]PullRequest, 0, len(listed))
	for _, pullRequest := range listed {
		pullRequests = append(pullRequests, convertPullRequest(pullRequest))
	}
	return pullRequests, nil
}
