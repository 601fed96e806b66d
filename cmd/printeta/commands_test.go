package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/devadigapratham/printeta/internal/progress"
	"github.com/devadigapratham/printeta/internal/queue"
)

const snapshot = `{
  "printers": [{"id": "p1", "company": "Prusa", "model": "MK4"}],
  "print_jobs": [
    {"id": "A", "printer_id": "p1", "status": "Printing", "est_time": "PT30M",
     "queued_at": "2024-03-14T08:00:00Z",
     "events": [{"type": "Queued", "timestamp": "2024-03-14T08:00:00Z"},
                {"type": "Printing", "timestamp": "2024-03-14T11:50:00Z"}]},
    {"id": "B", "printer_id": "p1", "status": "Queued", "est_time": "PT45M",
     "queued_at": "2024-03-14T09:00:00Z",
     "events": [{"type": "Queued", "timestamp": "2024-03-14T09:00:00Z"}]},
    {"id": "C", "printer_id": "p1", "status": "Queued", "est_time": "PT20M",
     "queued_at": "2024-03-14T10:00:00Z",
     "events": [{"type": "Queued", "timestamp": "2024-03-14T10:00:00Z"}]}
  ]
}`

func run(t *testing.T, args ...string) (string, error) {
	t.Helper()
	path := filepath.Join(t.TempDir(), "jobs.json")
	if err := os.WriteFile(path, []byte(snapshot), 0o644); err != nil {
		t.Fatal(err)
	}

	var out bytes.Buffer
	root := newRootCmd(&out)
	root.SetArgs(append([]string{"--snapshot", path, "--now", "2024-03-14T12:00:00Z", "--timezone", "UTC"}, args...))
	err := root.Execute()
	return out.String(), err
}

// TestWaitCommand reports the example queue wait.
func TestWaitCommand(t *testing.T) {
	out, err := run(t, "wait", "C", "--json")
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	var est queue.Estimate
	if err := json.Unmarshal([]byte(out), &est); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if est.Wait.Std() != 65*time.Minute || est.Position != 2 {
		t.Fatalf("estimate = %+v", est)
	}

	out, err = run(t, "wait", "C")
	if err != nil {
		t.Fatalf("wait: %v", err)
	}
	if !strings.Contains(out, "wait:     01:05") || !strings.Contains(out, "03/14 1:05 PM") {
		t.Fatalf("output = %q", out)
	}
}

// TestTimelineCommand marks the predicted start as next.
func TestTimelineCommand(t *testing.T) {
	out, err := run(t, "timeline", "B")
	if err != nil {
		t.Fatalf("timeline: %v", err)
	}
	if !strings.Contains(out, "> Printing (expected)") || !strings.Contains(out, "Completed (expected)") {
		t.Fatalf("output = %q", out)
	}
}

// TestProgressCommand prints the printing job's snapshot.
func TestProgressCommand(t *testing.T) {
	out, err := run(t, "progress", "A", "--json")
	if err != nil {
		t.Fatalf("progress: %v", err)
	}
	var s progress.Snapshot
	if err := json.Unmarshal([]byte(out), &s); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if s.Progress != 33 || s.TimeLeftFormatted != "00:21" || s.Message != "printing" {
		t.Fatalf("snapshot = %+v", s)
	}

	if _, err := run(t, "progress", "A", "--watch"); err == nil {
		t.Fatal("expected --watch with --now to fail")
	}
}

// TestQueueCommand lists the active job and the waiting ones.
func TestQueueCommand(t *testing.T) {
	out, err := run(t, "queue", "p1")
	if err != nil {
		t.Fatalf("queue: %v", err)
	}
	lines := strings.Split(strings.TrimSpace(out), "\n")
	if len(lines) != 4 {
		t.Fatalf("lines = %q", lines)
	}
	if !strings.HasPrefix(lines[1], "-") || !strings.Contains(lines[1], "A") {
		t.Fatalf("current line = %q", lines[1])
	}
	if !strings.Contains(lines[3], "C") || !strings.Contains(lines[3], "01:05") {
		t.Fatalf("last line = %q", lines[3])
	}
}

// TestUnknownJob fails with a not found error.
func TestUnknownJob(t *testing.T) {
	if _, err := run(t, "wait", "ghost"); err == nil || !strings.Contains(err.Error(), "not found") {
		t.Fatalf("err = %v", err)
	}
}
