// Package progress computes the live completion figures of a print job and
// keeps them fresh for observers at a fixed rate.
package progress

import (
	"math"
	"time"

	"github.com/devadigapratham/printeta/api/models"
	"github.com/devadigapratham/printeta/internal/clock"
	"github.com/devadigapratham/printeta/internal/printstate"
)

// OverdueProgress is shown for a printing job past its estimated end. It
// stays short of 100 until the completion is actually recorded.
const OverdueProgress = 99

// Snapshot is one refresh of a job's live progress.
type Snapshot struct {
	JobID             string           `json:"job_id"`
	State             printstate.State `json:"state"`
	Progress          int              `json:"progress"`
	TimeLeftFormatted string           `json:"time_left"`
	TimeLeftHumanized string           `json:"time_left_humanized"`
	Complete          bool             `json:"complete"`
	Message           string           `json:"message"`
	Detail            string           `json:"detail"`
	At                time.Time        `json:"at"`
}

// Compute derives the snapshot of job at now. The same job and instant
// always yield the same snapshot.
func Compute(job *models.PrintJob, now time.Time) Snapshot {
	s := Snapshot{
		JobID:             job.ID,
		State:             job.Status,
		TimeLeftFormatted: clock.FormatClock(0),
		At:                now,
	}

	switch job.Status {
	case printstate.Printing:
		start, ok := job.PrintStartedAt()
		if !ok {
			start = now
		}
		end := start.Add(job.EstimatedDuration())
		remaining := end.Sub(now)
		s.TimeLeftHumanized = clock.Humanize(remaining, true)
		if remaining <= 0 {
			s.Progress = OverdueProgress
			s.Complete = true
			break
		}
		total := end.Sub(start)
		s.Progress = int(math.Floor(float64(now.Sub(start)) / float64(total) * 100))
		if s.Progress < 0 {
			s.Progress = 0
		}
		s.TimeLeftFormatted = clock.FormatRemaining(remaining)
	case printstate.Queued:
		s.TimeLeftHumanized = clock.Humanize(queuedAt(job, now).Sub(now), true)
	case printstate.Failed, printstate.Completed, printstate.Canceled:
		s.Progress = 100
		ref := now
		if e, ok := job.LastEvent(job.Status); ok {
			ref = e.Timestamp
		}
		s.TimeLeftHumanized = clock.Humanize(ref.Sub(now), true)
	}

	s.Message = message(job.Status, s.Complete)
	s.Detail = detail(job.Status, s.Complete, s.TimeLeftHumanized)
	return s
}

func queuedAt(job *models.PrintJob, now time.Time) time.Time {
	if at, ok := job.QueuedTime(); ok {
		return at
	}
	return now
}

func message(state printstate.State, complete bool) string {
	switch {
	case state == printstate.Failed:
		return "failed"
	case state == printstate.Canceled:
		return "canceled"
	case complete && state != printstate.Completed:
		return "waiting"
	case state == printstate.Completed:
		return "completed"
	case state == printstate.Printing:
		return "printing"
	case state == printstate.Queued:
		return "queued"
	}
	return "unknown"
}

func detail(state printstate.State, complete bool, humanized string) string {
	switch {
	case state == printstate.Failed:
		return "failed " + humanized
	case complete && state != printstate.Completed:
		return "expected " + humanized
	case state == printstate.Completed:
		return "completed " + humanized
	case state == printstate.Printing:
		return "expected " + humanized
	case state == printstate.Queued:
		return "queued " + humanized
	case state == printstate.Canceled:
		return "canceled " + humanized
	}
	return "unknown"
}
