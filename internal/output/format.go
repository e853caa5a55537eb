// Package output provides formatters for CLI output.
package output

import (
	"fmt"
	"io"
	"strings"

	"taskman/internal/tasksync"
)

// Markers for an entry's sync state. Synced entries carry no marker; pending
// ones are still in flight; failed ones need attention.
const (
	markerSynced  = " "
	markerPending = "~"
	markerFailed  = "!"
)

// FormatEntry formats one collection entry for the default list.
// Format: "{N:>4} {MARKER} {TITLE}  [{STATUS}]" plus an optional due date.
func FormatEntry(w io.Writer, num int, e tasksync.Entry) {
	title := normalizeTitle(e.Task.Title)
	line := fmt.Sprintf("%4d %s %s  [%s]", num, marker(e.State), title, e.Task.Status)
	if !e.Task.DueDate.IsZero() {
		line += "  due " + e.Task.DueDate.UTC().Format("2006-01-02")
	}
	fmt.Fprintln(w, line)
	if e.State == tasksync.Failed && e.Err != nil {
		fmt.Fprintf(w, "       ^ not synced: %v\n", e.Err)
	}
}

func marker(s tasksync.SyncState) string {
	switch s {
	case tasksync.Synced:
		return markerSynced
	case tasksync.Failed:
		return markerFailed
	default:
		return markerPending
	}
}

// normalizeTitle normalizes a task title for display.
// - Empty or whitespace-only titles become "(untitled)"
// - Newlines are replaced with spaces
func normalizeTitle(title string) string {
	// Replace newlines with spaces
	title = strings.ReplaceAll(title, "\r", " ")
	title = strings.ReplaceAll(title, "\n", " ")

	// Trim and check for empty
	if strings.TrimSpace(title) == "" {
		return "(untitled)"
	}
	return title
}
