package githubapi

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/go-github/v72/github"
	"go.uber.org/zap"

	"github.com/temirov/ci_scripts/internal/gitrepo"
)

const (
	// DefaultBaseURL is the public GitHub REST endpoint.
	DefaultBaseURL = "https://api.github.com"
	// DefaultTimeout bounds each request when no timeout is configured.
	DefaultTimeout = 30 * time.Second

	acceptHeaderNameConstant              = "Accept"
	acceptHeaderValueConstant             = "application/vnd.github+json"
	tokenFieldNameConstant                = "token"
	repositoryFieldNameConstant           = "repository"
	requiredValueMessageConstant          = "value required"
	invalidBaseURLMessageTemplateConstant = "invalid base URL %q"
	invalidInputErrorTemplateConstant     = "%s: %s"
	statusErrorTemplateConstant           = "%s returned HTTP %d"
	statusErrorWithBodyTemplateConstant   = "%s returned HTTP %d: %s"
	requestErrorTemplateConstant          = "%s request failed: %v"
	responseDecodingErrorTemplateConstant = "%s response decoding failed: %v"
	resourceNotFoundMessageConstant       = "resource not found"
	logMessageRequestConstant             = "GitHub API request"
	logMessageResponseConstant            = "GitHub API response"
	logFieldOperationConstant             = "operation"
	logFieldMethodConstant                = "method"
	logFieldPathConstant                  = "path"
	logFieldStatusCodeConstant            = "status_code"
	pathSeparatorConstant                 = "/"
)

// OperationName identifies a REST call for logging and error reporting.
type OperationName string

// ErrResourceNotFound matches ResponseStatusError values carrying HTTP 404.
var ErrResourceNotFound = errors.New(resourceNotFoundMessageConstant)

// InvalidInputError surfaces validation issues for request inputs.
type InvalidInputError struct {
	FieldName string
	Message   string
}

// Error describes the invalid input.
func (inputError InvalidInputError) Error() string {
	return fmt.Sprintf(invalidInputErrorTemplateConstant, inputError.FieldName, inputError.Message)
}

// ResponseStatusError reports a response with an unexpected HTTP status.
type ResponseStatusError struct {
	Operation  OperationName
	StatusCode int
	Body       string
}

// Error describes the unexpected status.
func (statusError ResponseStatusError) Error() string {
	if len(statusError.Body) == 0 {
		return fmt.Sprintf(statusErrorTemplateConstant, statusError.Operation, statusError.StatusCode)
	}
	return fmt.Sprintf(statusErrorWithBodyTemplateConstant, statusError.Operation, statusError.StatusCode, statusError.Body)
}

// Is reports whether the status error represents a missing resource.
func (statusError ResponseStatusError) Is(target error) bool {
	return target == ErrResourceNotFound && statusError.StatusCode == http.StatusNotFound
}

// RequestError wraps transport failures.
type RequestError struct {
	Operation OperationName
	Cause     error
}

// Error describes the transport failure.
func (requestError RequestError) Error() string {
	return fmt.Sprintf(requestErrorTemplateConstant, requestError.Operation, requestError.Cause)
}

// Unwrap exposes the underlying cause.
func (requestError RequestError) Unwrap() error {
	return requestError.Cause
}

// ResponseDecodingError indicates a successful status with an unreadable body.
type ResponseDecodingError struct {
	Operation OperationName
	Cause     error
}

// Error describes the decoding failure.
func (decodingError ResponseDecodingError) Error() string {
	return fmt.Sprintf(responseDecodingErrorTemplateConstant, decodingError.Operation, decodingError.Cause)
}

// Unwrap exposes the underlying JSON error.
func (decodingError ResponseDecodingError) Unwrap() error {
	return decodingError.Cause
}

// ClientConfiguration captures connection settings.
type ClientConfiguration struct {
	BaseURL string
	Token   string
	Timeout time.Duration
}

// Client issues authenticated GitHub REST requests through go-github.
type Client struct {
	restClient     *github.Client
	downloadClient *http.Client
}

// NewClient validates the configuration and constructs a Client. A nil httpClient selects net/http with the configured timeout.
func NewClient(logger *zap.Logger, httpClient *http.Client, configuration ClientConfiguration) (*Client, error) {
	trimmedToken := strings.TrimSpace(configuration.Token)
	if len(trimmedToken) == 0 {
		return nil, InvalidInputError{FieldName: tokenFieldNameConstant, Message: requiredValueMessageConstant}
	}

	baseURLText := strings.TrimSpace(configuration.BaseURL)
	if len(baseURLText) == 0 {
		baseURLText = DefaultBaseURL
	}
	parsedBaseURL, parseError := url.Parse(strings.TrimRight(baseURLText, pathSeparatorConstant) + pathSeparatorConstant)
	if parseError != nil || len(parsedBaseURL.Scheme) == 0 || len(parsedBaseURL.Host) == 0 {
		return nil, fmt.Errorf(invalidBaseURLMessageTemplateConstant, baseURLText)
	}

	if logger == nil {
		logger = zap.NewNop()
	}

	if httpClient == nil {
		timeout := configuration.Timeout
		if timeout <= 0 {
			timeout = DefaultTimeout
		}
		httpClient = &http.Client{Timeout: timeout}
	}

	restHTTPClient := *httpClient
	restHTTPClient.Transport = loggingTransport{logger: logger, base: httpClient.Transport, acceptMediaType: acceptHeaderValueConstant}
	restClient := github.NewClient(&restHTTPClient).WithAuthToken(trimmedToken)
	restClient.BaseURL = parsedBaseURL

	// Log archives live on signed storage URLs that reject the API token.
	downloadClient := *httpClient
	downloadClient.Transport = loggingTransport{logger: logger, base: httpClient.Transport}

	return &Client{
		restClient:     restClient,
		downloadClient: &downloadClient,
	}, nil
}

type operationContextKey struct{}

func withOperation(executionContext context.Context, operation OperationName) context.Context {
	return context.WithValue(executionContext, operationContextKey{}, operation)
}

func operationFromContext(executionContext context.Context) OperationName {
	operation, _ := executionContext.Value(operationContextKey{}).(OperationName)
	return operation
}

// loggingTransport records each round trip at debug level and pins the GitHub media type.
type loggingTransport struct {
	logger          *zap.Logger
	base            http.RoundTripper
	acceptMediaType string
}

func (transport loggingTransport) RoundTrip(request *http.Request) (*http.Response, error) {
	outgoingRequest := request.Clone(request.Context())
	if len(transport.acceptMediaType) > 0 {
		outgoingRequest.Header.Set(acceptHeaderNameConstant, transport.acceptMediaType)
	}

	operation := string(operationFromContext(request.Context()))
	transport.logger.Debug(logMessageRequestConstant,
		zap.String(logFieldOperationConstant, operation),
		zap.String(logFieldMethodConstant, outgoingRequest.Method),
		zap.String(logFieldPathConstant, outgoingRequest.URL.Path),
	)

	base := transport.base
	if base == nil {
		base = http.DefaultTransport
	}
	response, roundTripError := base.RoundTrip(outgoingRequest)
	if roundTripError != nil {
		return nil, roundTripError
	}

	transport.logger.Debug(logMessageResponseConstant,
		zap.String(logFieldOperationConstant, operation),
		zap.Int(logFieldStatusCodeConstant, response.StatusCode),
	)
	return response, nil
}

func requireRepository(repository gitrepo.RepositorySlug) error {
	if repository.IsZero() {
		return InvalidInputError{FieldName: repositoryFieldNameConstant, Message: requiredValueMessageConstant}
	}
	return nil
}

// translateError maps go-github failures onto the package's typed errors.
func translateError(operation OperationName, response *github.Response, callError error) error {
	var errorResponse *github.ErrorResponse
	if errors.As(callError, &errorResponse) && errorResponse.Response != nil {
		return ResponseStatusError{
			Operation:  operation,
			StatusCode: errorResponse.Response.StatusCode,
			Body:       strings.TrimSpace(errorResponse.Message),
		}
	}

	if response == nil || response.Response == nil {
		return RequestError{Operation: operation, Cause: callError}
	}
	if response.StatusCode >= http.StatusOK && response.StatusCode < http.StatusMultipleChoices {
		return ResponseDecodingError{Operation: operation, Cause: callError}
	}
	return ResponseStatusError{Operation: operation, StatusCode: response.StatusCode, Body: callError.Error()}
}
