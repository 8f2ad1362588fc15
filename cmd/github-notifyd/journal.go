package main

import (
	"strings"

	"github.com/coreos/go-systemd/v22/journal"
)

// journalWriter adapts lgr output lines to systemd journal entries, mapping
// the [LEVEL] tag of each line to a journal priority.
type journalWriter struct{}

func newJournalWriter() journalWriter { return journalWriter{} }

func (journalWriter) Write(p []byte) (int, error) {
	msg := strings.TrimRight(string(p), "\n")
	if msg == "" {
		return len(p), nil
	}
	if err := journal.Send(msg, priority(msg), nil); err != nil {
		return 0, err
	}
	return len(p), nil
}

// priority picks the journal priority from the lgr level tag
func priority(msg string) journal.Priority {
	switch {
	case strings.Contains(msg, "[ERROR]"), strings.Contains(msg, "[PANIC]"), strings.Contains(msg, "[FATAL]"):
		return journal.PriErr
	case strings.Contains(msg, "[WARN]"):
		return journal.PriWarning
	case strings.Contains(msg, "[DEBUG]"):
		return journal.PriDebug
	default:
		return journal.PriInfo
	}
}
