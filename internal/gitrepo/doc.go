// Package gitrepo identifies the GitHub repository a working tree belongs to.
//
// It parses SSH and HTTPS remote URLs into owner/name slugs, validates slugs
// supplied on the command line, and resolves the slug of a remote by asking
// git through execshell.
package gitrepo
