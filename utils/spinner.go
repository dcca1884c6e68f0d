package utils

import (
	"time"

	"github.com/briandowns/spinner"
)

var activeSpinner *spinner.Spinner

func StartSpinner(message string) {
	activeSpinner = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	activeSpinner.Suffix = " " + message
	activeSpinner.Start()
}

func StopSpinner() {
	if activeSpinner != nil {
		activeSpinner.Stop()
		activeSpinner = nil
	}
}
