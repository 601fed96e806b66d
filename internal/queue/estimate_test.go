package queue

import (
	"testing"
	"time"

	"github.com/devadigapratham/printeta/api/models"
	"github.com/devadigapratham/printeta/internal/clock"
	"github.com/devadigapratham/printeta/internal/printstate"
)

var now = time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)

func job(id string, state printstate.State, queuedAgo, est time.Duration) *models.PrintJob {
	queued := now.Add(-queuedAgo)
	return &models.PrintJob{
		ID:        id,
		PrinterID: "p1",
		Status:    state,
		QueuedAt:  queued,
		EstTime:   clock.ISODuration(est),
		Events:    []models.PrintEvent{{Type: printstate.Queued, Timestamp: queued}},
	}
}

func started(j *models.PrintJob, ago time.Duration) *models.PrintJob {
	j.Events = append(j.Events, models.PrintEvent{Type: printstate.Printing, Timestamp: now.Add(-ago)})
	return j
}

// TestEstimateWaitExampleScenario checks the printing head plus queued jobs.
func TestEstimateWaitExampleScenario(t *testing.T) {
	a := started(job("A", printstate.Printing, 3*time.Hour, 30*time.Minute), 10*time.Minute)
	b := job("B", printstate.Queued, 2*time.Hour, 45*time.Minute)
	c := job("C", printstate.Queued, time.Hour, 20*time.Minute)
	q := ForPrinter("p1", []*models.PrintJob{c, a, b})

	est := EstimateWait(c, q, now)
	if got, want := est.Wait.Std(), 65*time.Minute; got != want {
		t.Fatalf("wait = %v, want %v", got, want)
	}
	if !est.Start.Equal(now.Add(65 * time.Minute)) {
		t.Fatalf("start = %v, want now+65m", est.Start)
	}
	if est.Position != 2 {
		t.Fatalf("position = %d, want 2", est.Position)
	}
}

// TestEstimateWaitSumsQueuedDurations verifies the plain sum with no printing job.
func TestEstimateWaitSumsQueuedDurations(t *testing.T) {
	jobs := []*models.PrintJob{
		job("1", printstate.Queued, 5*time.Hour, 10*time.Minute),
		job("2", printstate.Queued, 4*time.Hour, 20*time.Minute),
		job("3", printstate.Queued, 3*time.Hour, 30*time.Minute),
		job("4", printstate.Queued, 2*time.Hour, time.Hour),
	}
	q := ForPrinter("p1", jobs)

	est := EstimateWait(jobs[3], q, now)
	if got, want := est.Wait.Std(), time.Hour; got != want {
		t.Fatalf("wait = %v, want %v", got, want)
	}
	if est := EstimateWait(jobs[0], q, now); est.Wait != 0 {
		t.Fatalf("head wait = %v, want 0", est.Wait.Std())
	}
}

// TestEstimateWaitOverdueHeadClampsToZero checks past-due printing jobs.
func TestEstimateWaitOverdueHeadClampsToZero(t *testing.T) {
	a := started(job("A", printstate.Printing, 3*time.Hour, 30*time.Minute), 45*time.Minute)
	b := job("B", printstate.Queued, time.Hour, 20*time.Minute)
	q := ForPrinter("p1", []*models.PrintJob{a, b})

	if est := EstimateWait(b, q, now); est.Wait != 0 {
		t.Fatalf("wait = %v, want 0", est.Wait.Std())
	}
}

// TestEstimateWaitMissingStartEvent treats a printing job without start as zero.
func TestEstimateWaitMissingStartEvent(t *testing.T) {
	a := job("A", printstate.Printing, 3*time.Hour, 30*time.Minute)
	b := job("B", printstate.Queued, 2*time.Hour, 15*time.Minute)
	c := job("C", printstate.Queued, time.Hour, 20*time.Minute)
	q := ForPrinter("p1", []*models.PrintJob{a, b, c})

	if got, want := EstimateWait(c, q, now).Wait.Std(), 15*time.Minute; got != want {
		t.Fatalf("wait = %v, want %v", got, want)
	}
}

// TestEstimateWaitUnknownAndMissing covers inconsistent queues.
func TestEstimateWaitUnknownAndMissing(t *testing.T) {
	b := job("B", printstate.Queued, 2*time.Hour, 15*time.Minute)
	c := job("C", printstate.Queued, time.Hour, 20*time.Minute)
	q := New("p1", []string{"ghost", "B", "C"}, []*models.PrintJob{b, c})

	if got, want := EstimateWait(c, q, now).Wait.Std(), 15*time.Minute; got != want {
		t.Fatalf("wait = %v, want %v", got, want)
	}

	outsider := job("Z", printstate.Queued, time.Hour, time.Hour)
	est := EstimateWait(outsider, q, now)
	if est.Wait != 0 || est.Position != -1 || !est.Start.Equal(now) {
		t.Fatalf("outsider estimate = %+v, want zero wait at now", est)
	}
}

// TestEstimateWaitOnlyForWaitingStates ignores printing and finished targets.
func TestEstimateWaitOnlyForWaitingStates(t *testing.T) {
	a := job("A", printstate.Queued, 3*time.Hour, 30*time.Minute)
	b := started(job("B", printstate.Printing, 2*time.Hour, 45*time.Minute), 5*time.Minute)
	q := ForPrinter("p1", []*models.PrintJob{a, b})

	if est := EstimateWait(b, q, now); est.Wait != 0 {
		t.Fatalf("printing target wait = %v, want 0", est.Wait.Std())
	}
}

// TestForPrinterFiltersAndOrders checks queue derivation.
func TestForPrinterFiltersAndOrders(t *testing.T) {
	late := job("late", printstate.Queued, time.Hour, time.Minute)
	early := job("early", printstate.Queued, 2*time.Hour, time.Minute)
	done := job("done", printstate.Completed, 3*time.Hour, time.Minute)
	other := job("other", printstate.Queued, 4*time.Hour, time.Minute)
	other.PrinterID = "p2"

	q := ForPrinter("p1", []*models.PrintJob{late, done, other, early})
	if q.Len() != 2 || q.Order[0] != "early" || q.Order[1] != "late" {
		t.Fatalf("order = %v, want [early late]", q.Order)
	}
	if _, ok := q.Current(); ok {
		t.Fatal("expected no current job")
	}
}

// TestBoard lists every waiting job with its predicted start.
func TestBoard(t *testing.T) {
	a := started(job("A", printstate.Printing, 3*time.Hour, time.Hour), 30*time.Minute)
	b := job("B", printstate.Queued, 2*time.Hour, 45*time.Minute)
	c := job("C", printstate.Queued, time.Hour, 20*time.Minute)
	board := Board(ForPrinter("p1", []*models.PrintJob{a, b, c}), now)

	if len(board) != 2 {
		t.Fatalf("board len = %d, want 2", len(board))
	}
	if board[0].JobID != "B" || board[0].Wait.Std() != 30*time.Minute {
		t.Fatalf("board[0] = %+v, want B after 30m", board[0])
	}
	if board[1].JobID != "C" || board[1].Wait.Std() != 75*time.Minute {
		t.Fatalf("board[1] = %+v, want C after 75m", board[1])
	}
}

// TestForPrinterRecoversQueueTimeFromEvents orders records saved without
// queued_at by their queuing event.
func TestForPrinterRecoversQueueTimeFromEvents(t *testing.T) {
	a := job("a", printstate.Queued, 4*time.Hour, time.Hour)
	b := job("b", printstate.Queued, 3*time.Hour, 2*time.Hour)
	b.QueuedAt = time.Time{}

	q := ForPrinter("p1", []*models.PrintJob{b, a})
	if len(q.Order) != 2 || q.Order[0] != "a" || q.Order[1] != "b" {
		t.Fatalf("order = %v, want [a b]", q.Order)
	}
	if got := EstimateWait(a, q, now).Wait.Std(); got != 0 {
		t.Fatalf("wait(a) = %v, want 0", got)
	}
	if got, want := EstimateWait(b, q, now).Wait.Std(), time.Hour; got != want {
		t.Fatalf("wait(b) = %v, want %v", got, want)
	}
}
