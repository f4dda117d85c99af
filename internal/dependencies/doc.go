// Package dependencies resolves the collaborators shared by the ci-scripts
// commands: the git executor, the target repository, and an authenticated
// GitHub REST client.
package dependencies
