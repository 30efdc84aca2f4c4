package commands

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/glassbridge/glassbridge-go/pkg/log"
)

const (
	testLinkA = "3f2a9c1e-0000-4000-8000-000000000001"
	testLinkB = "7b11d402-0000-4000-8000-000000000002"
	testAddr  = "AA:BB:CC:DD:EE:FF"
)

func createTestLogFile(t *testing.T, events []log.Event) string {
	t.Helper()
	dir := t.TempDir()
	path := filepath.Join(dir, "test.llog")

	logger, err := log.NewFileLogger(path)
	if err != nil {
		t.Fatalf("failed to create logger: %v", err)
	}

	for _, e := range events {
		logger.Log(e)
	}
	logger.Close()

	return path
}

// sessionEvents is one connect sequence: a failed secure attempt, a
// successful insecure one, a delivered message and a lost link.
func sessionEvents() []log.Event {
	ts := time.Date(2026, 1, 28, 10, 15, 32, 123456000, time.UTC)
	return []log.Event{
		{
			Timestamp: ts, Endpoint: testAddr, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{OldState: "DISCONNECTED", NewState: "CONNECTING", Reason: "ConnectRequested"},
		},
		{
			Timestamp: ts.Add(100 * time.Millisecond), Endpoint: testAddr, Category: log.CategoryAttempt,
			Attempt: &log.AttemptEvent{Number: 1, Strategy: "rfcomm-secure", Outcome: log.AttemptFailed, Error: "connection refused", Duration: 80 * time.Millisecond},
		},
		{
			Timestamp: ts.Add(2200 * time.Millisecond), LinkID: testLinkA, Endpoint: testAddr, Category: log.CategoryAttempt,
			Attempt: &log.AttemptEvent{Number: 2, Strategy: "rfcomm-insecure", Outcome: log.AttemptSucceeded, Duration: 150 * time.Millisecond},
		},
		{
			Timestamp: ts.Add(2201 * time.Millisecond), LinkID: testLinkA, Endpoint: testAddr, Category: log.CategoryState,
			StateChange: &log.StateChangeEvent{OldState: "CONNECTING", NewState: "CONNECTED", Reason: "Established"},
		},
		{
			Timestamp: ts.Add(3 * time.Second), LinkID: testLinkA, Endpoint: testAddr, Category: log.CategoryDelivery,
			Delivery: &log.DeliveryEvent{Seq: 1, Size: 29, Outcome: log.DeliveryWritten, QueueDelay: 2 * time.Millisecond},
		},
		{
			Timestamp: ts.Add(9 * time.Second), LinkID: testLinkA, Endpoint: testAddr, Category: log.CategoryError,
			Error: &log.ErrorEventData{Component: "supervisor", Message: "link lost"},
		},
		{
			Timestamp: ts.Add(9 * time.Second), LinkID: testLinkB, Endpoint: "127.0.0.1:9000", Category: log.CategoryDelivery,
			Delivery: &log.DeliveryEvent{Seq: 2, Size: 5, Outcome: log.DeliveryDropped},
		},
	}
}

func TestRunViewFormatsEvents(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	var buf bytes.Buffer
	if err := RunView(path, ViewFilter{}, &buf); err != nil {
		t.Fatalf("RunView failed: %v", err)
	}
	out := buf.String()

	for _, want := range []string{
		"2026-01-28T10:15:32.123456Z [link:-] STATE    AA:BB:CC:DD:EE:FF",
		"DISCONNECTED -> CONNECTING",
		"Reason: ConnectRequested",
		"Attempt 1 via rfcomm-secure: FAILED (80.000ms)",
		"Error: connection refused",
		"[link:3f2a9c1e] ATTEMPT",
		"Seq 1: WRITTEN, 29 bytes, queued 2.000ms",
		"Component: supervisor",
		"Message: link lost",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q\n%s", want, out)
		}
	}
}

func TestRunViewFilters(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	t.Run("Category", func(t *testing.T) {
		cat, err := ParseCategoryFlag("attempt")
		if err != nil {
			t.Fatalf("ParseCategoryFlag: %v", err)
		}
		var buf bytes.Buffer
		if err := RunView(path, ViewFilter{Category: &cat}, &buf); err != nil {
			t.Fatalf("RunView failed: %v", err)
		}
		if got := strings.Count(buf.String(), "ATTEMPT"); got != 2 {
			t.Errorf("expected 2 attempt events, got %d", got)
		}
		if strings.Contains(buf.String(), "STATE") {
			t.Error("state events should be filtered out")
		}
	})

	t.Run("LinkIDPrefix", func(t *testing.T) {
		var buf bytes.Buffer
		if err := RunView(path, ViewFilter{LinkID: testLinkB[:8]}, &buf); err != nil {
			t.Fatalf("RunView failed: %v", err)
		}
		if got := strings.Count(buf.String(), "[link:"); got != 1 {
			t.Errorf("expected 1 event for link B, got %d", got)
		}
	})

	t.Run("Endpoint", func(t *testing.T) {
		var buf bytes.Buffer
		if err := RunView(path, ViewFilter{Endpoint: "127.0.0.1:9000"}, &buf); err != nil {
			t.Fatalf("RunView failed: %v", err)
		}
		if !strings.Contains(buf.String(), "DROPPED") {
			t.Errorf("expected dropped delivery, got\n%s", buf.String())
		}
	})

	t.Run("MissingFile", func(t *testing.T) {
		err := RunView(filepath.Join(t.TempDir(), "none.llog"), ViewFilter{}, io.Discard)
		if err == nil {
			t.Fatal("expected error for missing file")
		}
	})
}

func TestParseCategoryFlag(t *testing.T) {
	for _, s := range []string{"state", "ATTEMPT", "Delivery", "error"} {
		if _, err := ParseCategoryFlag(s); err != nil {
			t.Errorf("ParseCategoryFlag(%q): %v", s, err)
		}
	}
	if _, err := ParseCategoryFlag("frame"); err == nil {
		t.Error("expected error for unknown category")
	}
}

func TestExportToJSONL(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	outPath := filepath.Join(t.TempDir(), "out.jsonl")
	if err := RunExport(path, "jsonl", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	data, err := os.ReadFile(outPath)
	if err != nil {
		t.Fatalf("failed to read output: %v", err)
	}

	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if len(lines) != len(sessionEvents()) {
		t.Fatalf("expected %d lines, got %d", len(sessionEvents()), len(lines))
	}

	var first log.Event
	if err := json.Unmarshal([]byte(lines[1]), &first); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if first.Attempt == nil || first.Attempt.Strategy != "rfcomm-secure" {
		t.Errorf("unexpected attempt payload: %+v", first.Attempt)
	}
}

func TestExportToCSV(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	outPath := filepath.Join(t.TempDir(), "out.csv")
	if err := RunExport(path, "csv", outPath); err != nil {
		t.Fatalf("RunExport failed: %v", err)
	}

	f, err := os.Open(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer f.Close()

	records, err := csv.NewReader(f).ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != len(sessionEvents())+1 {
		t.Fatalf("expected %d records, got %d", len(sessionEvents())+1, len(records))
	}
	if records[0][1] != "link_id" {
		t.Errorf("unexpected header: %v", records[0])
	}

	attempt := records[2]
	if attempt[3] != "ATTEMPT" || attempt[4] != "1:rfcomm-secure" || attempt[5] != "FAILED" || attempt[6] != "connection refused" {
		t.Errorf("unexpected attempt row: %v", attempt)
	}
	state := records[4]
	if state[4] != "CONNECTING->CONNECTED" || state[5] != "Established" {
		t.Errorf("unexpected state row: %v", state)
	}
}

func TestExportUnknownFormat(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	if err := RunExport(path, "xml", filepath.Join(t.TempDir(), "out.xml")); err == nil {
		t.Fatal("expected error for unknown format")
	}
}

func TestRunStats(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())

	stats, err := collectStats(path)
	if err != nil {
		t.Fatalf("collectStats failed: %v", err)
	}

	if stats.TotalEvents != 7 {
		t.Errorf("expected 7 events, got %d", stats.TotalEvents)
	}
	if stats.Attempts[log.AttemptFailed] != 1 || stats.Attempts[log.AttemptSucceeded] != 1 {
		t.Errorf("unexpected attempt counts: %v", stats.Attempts)
	}
	if stats.Deliveries[log.DeliveryWritten] != 1 || stats.Deliveries[log.DeliveryDropped] != 1 {
		t.Errorf("unexpected delivery counts: %v", stats.Deliveries)
	}
	if stats.Errors != 1 {
		t.Errorf("expected 1 error, got %d", stats.Errors)
	}
	if len(stats.Links) != 2 {
		t.Fatalf("expected 2 links, got %d", len(stats.Links))
	}
	a := stats.Links[testLinkA]
	if a.Events != 4 || a.Written != 1 || a.Bytes != 29 {
		t.Errorf("unexpected link A stats: %+v", a)
	}

	var buf bytes.Buffer
	printStats(&buf, stats)
	out := buf.String()
	for _, want := range []string{"Total Events: 7", "ATTEMPT:", "via rfcomm-secure:", "Links: 2", "[3f2a9c1e]", "Errors: 1"} {
		if !strings.Contains(out, want) {
			t.Errorf("stats output missing %q\n%s", want, out)
		}
	}
}

func TestRunStatsEmptyFile(t *testing.T) {
	path := createTestLogFile(t, nil)

	var buf bytes.Buffer
	if err := RunStats(path, &buf); err != nil {
		t.Fatalf("RunStats failed: %v", err)
	}
	if !strings.Contains(buf.String(), "Total Events: 0") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestRunFilter(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	outPath := filepath.Join(t.TempDir(), "filtered.llog")

	count, err := RunFilter(path, FilterOptions{
		Output:    outPath,
		LinkID:    testLinkA,
		TimeStart: "2026-01-28T10:15:33Z",
	})
	if err != nil {
		t.Fatalf("RunFilter failed: %v", err)
	}
	if count != 4 {
		t.Errorf("expected 4 events, got %d", count)
	}

	reader, err := log.NewReader(outPath)
	if err != nil {
		t.Fatalf("failed to open output: %v", err)
	}
	defer reader.Close()

	n := 0
	for {
		event, err := reader.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			t.Fatalf("failed to read event: %v", err)
		}
		if event.LinkID != testLinkA {
			t.Errorf("expected link A, got %s", event.LinkID)
		}
		n++
	}
	if n != count {
		t.Errorf("read %d events, RunFilter reported %d", n, count)
	}
}

func TestRunFilterInvalidOptions(t *testing.T) {
	path := createTestLogFile(t, sessionEvents())
	out := filepath.Join(t.TempDir(), "filtered.llog")

	if _, err := RunFilter(path, FilterOptions{Output: out, TimeStart: "yesterday"}); err == nil {
		t.Error("expected error for bad time-start")
	}
	if _, err := RunFilter(path, FilterOptions{Output: out, Category: "frame"}); err == nil {
		t.Error("expected error for bad category")
	}
}
