// Package githubapi is a small typed client for the GitHub REST endpoints the
// ci-scripts tools need: workflow runs, jobs, job logs and pull requests.
//
// Calls go through go-github. Its errors are mapped onto the package's typed
// errors, and every round trip is logged at debug level with the operation
// name. The underlying *http.Client is injectable so tests can drive the
// client with httptest servers.
package githubapi
