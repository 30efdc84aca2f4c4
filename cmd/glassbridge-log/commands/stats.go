package commands

import (
	"fmt"
	"io"
	"sort"
	"time"

	"github.com/glassbridge/glassbridge-go/pkg/log"
)

// Stats holds aggregate statistics about a log file.
type Stats struct {
	TotalEvents      int
	EventsByCategory map[log.Category]int
	Links            map[string]*LinkStats
	Attempts         map[log.AttemptOutcome]int
	AttemptsByName   map[string]int
	Deliveries       map[log.DeliveryOutcome]int
	Errors           int
	TimeRange        struct {
		Start time.Time
		End   time.Time
	}
}

// LinkStats holds statistics for a single link handle.
type LinkStats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Events    int
	Endpoint  string
	Written   int
	Bytes     int
}

// RunStats analyzes the log file and prints statistics.
func RunStats(path string, w io.Writer) error {
	stats, err := collectStats(path)
	if err != nil {
		return err
	}
	printStats(w, stats)
	return nil
}

func collectStats(path string) (*Stats, error) {
	reader, err := log.NewReader(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer reader.Close()

	stats := &Stats{
		EventsByCategory: make(map[log.Category]int),
		Links:            make(map[string]*LinkStats),
		Attempts:         make(map[log.AttemptOutcome]int),
		AttemptsByName:   make(map[string]int),
		Deliveries:       make(map[log.DeliveryOutcome]int),
	}

	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read event: %w", err)
		}

		stats.TotalEvents++
		stats.EventsByCategory[event.Category]++

		if stats.TimeRange.Start.IsZero() || event.Timestamp.Before(stats.TimeRange.Start) {
			stats.TimeRange.Start = event.Timestamp
		}
		if event.Timestamp.After(stats.TimeRange.End) {
			stats.TimeRange.End = event.Timestamp
		}

		if a := event.Attempt; a != nil {
			stats.Attempts[a.Outcome]++
			stats.AttemptsByName[a.Strategy]++
		}
		if d := event.Delivery; d != nil {
			stats.Deliveries[d.Outcome]++
		}
		if event.Error != nil {
			stats.Errors++
		}

		// Events before a handle exists carry no link ID.
		if event.LinkID == "" {
			continue
		}
		link, ok := stats.Links[event.LinkID]
		if !ok {
			link = &LinkStats{
				FirstSeen: event.Timestamp,
				LastSeen:  event.Timestamp,
				Endpoint:  event.Endpoint,
			}
			stats.Links[event.LinkID] = link
		}
		link.Events++
		if event.Timestamp.After(link.LastSeen) {
			link.LastSeen = event.Timestamp
		}
		if d := event.Delivery; d != nil && d.Outcome == log.DeliveryWritten {
			link.Written++
			link.Bytes += d.Size
		}
	}

	return stats, nil
}

func printStats(w io.Writer, stats *Stats) {
	fmt.Fprintln(w, "=== glassbridge Link Log Statistics ===")
	fmt.Fprintln(w)

	if stats.TotalEvents > 0 {
		fmt.Fprintf(w, "Time Range: %s to %s\n",
			stats.TimeRange.Start.Format(time.RFC3339),
			stats.TimeRange.End.Format(time.RFC3339))
		fmt.Fprintf(w, "Duration:   %s\n", stats.TimeRange.End.Sub(stats.TimeRange.Start).Round(time.Second))
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Total Events: %d\n", stats.TotalEvents)
	fmt.Fprintln(w)

	fmt.Fprintln(w, "Events by Category:")
	for _, cat := range []log.Category{log.CategoryState, log.CategoryAttempt, log.CategoryDelivery, log.CategoryError} {
		if count := stats.EventsByCategory[cat]; count > 0 {
			fmt.Fprintf(w, "  %-12s %d\n", cat.String()+":", count)
		}
	}
	fmt.Fprintln(w)

	if len(stats.Attempts) > 0 {
		fmt.Fprintln(w, "Attempts:")
		for _, o := range []log.AttemptOutcome{log.AttemptSucceeded, log.AttemptFailed, log.AttemptAborted} {
			if count := stats.Attempts[o]; count > 0 {
				fmt.Fprintf(w, "  %-12s %d\n", o.String()+":", count)
			}
		}
		names := make([]string, 0, len(stats.AttemptsByName))
		for name := range stats.AttemptsByName {
			names = append(names, name)
		}
		sort.Strings(names)
		for _, name := range names {
			fmt.Fprintf(w, "  via %-16s %d\n", name+":", stats.AttemptsByName[name])
		}
		fmt.Fprintln(w)
	}

	if len(stats.Deliveries) > 0 {
		fmt.Fprintln(w, "Deliveries:")
		for _, o := range []log.DeliveryOutcome{log.DeliveryWritten, log.DeliveryDropped, log.DeliveryFailed} {
			if count := stats.Deliveries[o]; count > 0 {
				fmt.Fprintf(w, "  %-12s %d\n", o.String()+":", count)
			}
		}
		fmt.Fprintln(w)
	}

	fmt.Fprintf(w, "Links: %d\n", len(stats.Links))
	if len(stats.Links) > 0 {
		// Sort by first seen time
		type linkInfo struct {
			id    string
			stats *LinkStats
		}
		links := make([]linkInfo, 0, len(stats.Links))
		for id, ls := range stats.Links {
			links = append(links, linkInfo{id, ls})
		}
		sort.Slice(links, func(i, j int) bool {
			return links[i].stats.FirstSeen.Before(links[j].stats.FirstSeen)
		})

		fmt.Fprintln(w, "")
		for _, l := range links {
			duration := l.stats.LastSeen.Sub(l.stats.FirstSeen).Round(time.Millisecond)
			fmt.Fprintf(w, "  [%s] %d events, duration %s\n", shortenLinkID(l.id), l.stats.Events, duration)
			if l.stats.Endpoint != "" {
				fmt.Fprintf(w, "           Endpoint: %s\n", l.stats.Endpoint)
			}
			if l.stats.Written > 0 {
				fmt.Fprintf(w, "           Written: %d messages, %d bytes\n", l.stats.Written, l.stats.Bytes)
			}
		}
	}

	if stats.Errors > 0 {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Errors: %d\n", stats.Errors)
	}
}
