// Package commands implements the glassbridge-log CLI commands.
package commands

import (
	"fmt"
	"io"
	"time"

	"github.com/glassbridge/glassbridge-go/pkg/log"
)

// ViewFilter specifies criteria for filtering events in the view command.
type ViewFilter struct {
	Category *log.Category
	LinkID   string
	Endpoint string
}

// toLogFilter converts the view criteria to a reader filter.
func (f ViewFilter) toLogFilter() log.Filter {
	return log.Filter{
		LinkID:   f.LinkID,
		Endpoint: f.Endpoint,
		Category: f.Category,
	}
}

// formatEvent writes a human-readable representation of the event to w.
func formatEvent(w io.Writer, event log.Event) {
	// Header line: timestamp [link:id] CATEGORY endpoint
	ts := event.Timestamp.UTC().Format("2006-01-02T15:04:05.000000Z")
	linkID := shortenLinkID(event.LinkID)
	if linkID == "" {
		linkID = "-"
	}

	fmt.Fprintf(w, "%s [link:%s] %-8s %s\n", ts, linkID, event.Category.String(), event.Endpoint)

	switch {
	case event.StateChange != nil:
		formatStateChangeDetails(w, event.StateChange)
	case event.Attempt != nil:
		formatAttemptDetails(w, event.Attempt)
	case event.Delivery != nil:
		formatDeliveryDetails(w, event.Delivery)
	case event.Error != nil:
		formatErrorDetails(w, event.Error)
	}

	fmt.Fprintln(w) // Blank line between events
}

// shortenLinkID returns the first 8 characters of the link ID.
func shortenLinkID(id string) string {
	if len(id) >= 8 {
		return id[:8]
	}
	return id
}

func formatStateChangeDetails(w io.Writer, sc *log.StateChangeEvent) {
	if sc.OldState != "" {
		fmt.Fprintf(w, "  %s -> %s\n", sc.OldState, sc.NewState)
	} else {
		fmt.Fprintf(w, "  -> %s\n", sc.NewState)
	}
	if sc.Reason != "" {
		fmt.Fprintf(w, "  Reason: %s\n", sc.Reason)
	}
}

func formatAttemptDetails(w io.Writer, a *log.AttemptEvent) {
	fmt.Fprintf(w, "  Attempt %d via %s: %s", a.Number, a.Strategy, a.Outcome.String())
	if a.Duration > 0 {
		fmt.Fprintf(w, " (%s)", formatDuration(a.Duration))
	}
	fmt.Fprintln(w)
	if a.Error != "" {
		fmt.Fprintf(w, "  Error: %s\n", a.Error)
	}
}

func formatDeliveryDetails(w io.Writer, d *log.DeliveryEvent) {
	fmt.Fprintf(w, "  Seq %d: %s, %d bytes", d.Seq, d.Outcome.String(), d.Size)
	if d.QueueDelay > 0 {
		fmt.Fprintf(w, ", queued %s", formatDuration(d.QueueDelay))
	}
	fmt.Fprintln(w)
}

func formatErrorDetails(w io.Writer, err *log.ErrorEventData) {
	fmt.Fprintf(w, "  Component: %s\n", err.Component)
	fmt.Fprintf(w, "  Message: %s\n", err.Message)
}

// formatDuration formats a duration for display.
func formatDuration(d time.Duration) string {
	if d < time.Millisecond {
		return fmt.Sprintf("%.3fus", float64(d.Nanoseconds())/1000)
	}
	if d < time.Second {
		return fmt.Sprintf("%.3fms", float64(d.Microseconds())/1000)
	}
	return fmt.Sprintf("%.3fs", d.Seconds())
}

// ParseCategoryFlag parses a category string from command-line flag (case-insensitive).
func ParseCategoryFlag(s string) (log.Category, error) {
	c, ok := log.ParseCategory(s)
	if !ok {
		return 0, fmt.Errorf("invalid category: %s (must be state, attempt, delivery, or error)", s)
	}
	return c, nil
}

// RunView executes the view command.
func RunView(path string, filter ViewFilter, output io.Writer) error {
	reader, err := log.NewFilteredReader(path, filter.toLogFilter())
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to read event: %w", err)
		}

		formatEvent(output, event)
	}

	return nil
}
