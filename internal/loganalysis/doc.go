// Package loganalysis downloads the logs of failed workflow jobs and matches them against a fixed table of known error signatures.
package loganalysis
