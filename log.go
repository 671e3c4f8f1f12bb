package main

import (
	"fmt"
	"io"
	"os"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
)

// setupLog discards log output unless UTTER_LOGFILE points somewhere.
func setupLog() (func() error, error) {
	log.SetOutput(io.Discard)
	if logFile := os.Getenv("UTTER_LOGFILE"); logFile != "" {
		f, err := tea.LogToFileWith(logFile, "utter", log.Default())
		if err != nil {
			return nil, fmt.Errorf("error setting up logging: %w", err)
		}
		log.SetOutput(f)
		log.SetLevel(log.DebugLevel)
		return f.Close, nil
	}
	return func() error { return nil }, nil
}
