package ui

import (
	"io"
	"time"

	"github.com/briandowns/spinner"
)

const (
	spinnerCharacterSetIndexConstant = 11
	spinnerRefreshIntervalConstant   = 100 * time.Millisecond
	spinnerSuffixPrefixConstant      = " "
)

// ProgressIndicator reports that a long-running step is underway.
type ProgressIndicator interface {
	Start(message string)
	Stop()
}

// NewProgressIndicator returns a console spinner writing to writer when enabled, or a silent indicator otherwise.
func NewProgressIndicator(writer io.Writer, enabled bool) ProgressIndicator {
	if !enabled || writer == nil {
		return silentProgressIndicator{}
	}
	return &spinnerProgressIndicator{
		spinner: spinner.New(spinner.CharSets[spinnerCharacterSetIndexConstant], spinnerRefreshIntervalConstant, spinner.WithWriter(writer)),
	}
}

type spinnerProgressIndicator struct {
	spinner *spinner.Spinner
}

func (indicator *spinnerProgressIndicator) Start(message string) {
	indicator.spinner.Suffix = spinnerSuffixPrefixConstant + message
	indicator.spinner.Start()
}

func (indicator *spinnerProgressIndicator) Stop() {
	indicator.spinner.Stop()
}

type silentProgressIndicator struct{}

func (silentProgressIndicator) Start(string) {}

func (silentProgressIndicator) Stop() {}
