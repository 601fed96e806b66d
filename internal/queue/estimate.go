package queue

import (
	"time"

	"github.com/devadigapratham/printeta/api/models"
	"github.com/devadigapratham/printeta/internal/clock"
	"github.com/devadigapratham/printeta/internal/printstate"
)

// Estimate is the predicted wait of a job before it starts printing.
type Estimate struct {
	JobID    string            `json:"job_id"`
	Position int               `json:"position"`
	Wait     clock.ISODuration `json:"estimated_wait"`
	Start    time.Time         `json:"estimated_start"`
}

// EstimateWait predicts how long target waits before printing. It sums the
// estimated durations of the not yet started jobs ahead of target and adds
// the remaining time of the job currently printing.
//
// Only Queued and Failed jobs wait. A target missing from the queue waits
// zero. Unknown ids in the queue and a printing job without a start event
// contribute nothing.
func EstimateWait(target *models.PrintJob, q *Queue, now time.Time) Estimate {
	est := Estimate{Position: -1, Start: now}
	if target == nil {
		return est
	}
	est.JobID = target.ID
	if q == nil || (target.Status != printstate.Queued && target.Status != printstate.Failed) {
		return est
	}

	pos := q.Position(target.ID)
	if pos < 0 {
		return est
	}
	est.Position = pos

	var wait time.Duration
	for _, id := range q.Order[:pos] {
		j, ok := q.Job(id)
		if !ok || j.Status == printstate.Printing {
			continue
		}
		wait += j.EstimatedDuration()
	}
	wait += currentRemaining(q, now)

	est.Wait = clock.ISODuration(wait)
	est.Start = now.Add(wait)
	return est
}

// currentRemaining is the time left on the printer's active job.
func currentRemaining(q *Queue, now time.Time) time.Duration {
	current, ok := q.Current()
	if !ok {
		return 0
	}
	started, ok := current.PrintStartedAt()
	if !ok {
		return 0
	}
	return clock.Remaining(started.Add(current.EstimatedDuration()), now)
}

// Board estimates every waiting job of a queue, front first.
func Board(q *Queue, now time.Time) []Estimate {
	var out []Estimate
	for _, j := range q.Jobs() {
		if j.Status != printstate.Queued && j.Status != printstate.Failed {
			continue
		}
		out = append(out, EstimateWait(j, q, now))
	}
	return out
}
