// Package changes wraps the git operations used to commit, branch, and push workflow fixes, and derives conventional commit messages from the working tree status.
package changes
