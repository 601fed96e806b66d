// api/models/printjob.go
package models

import (
	"time"

	"github.com/devadigapratham/printeta/internal/clock"
	"github.com/devadigapratham/printeta/internal/printstate"
)

// PrintEvent is one recorded step of a job's lifecycle
type PrintEvent struct {
	Type      printstate.State `json:"type"`
	Timestamp time.Time        `json:"timestamp"`
}

// PrintJob represents a 3D printing job and the events it went through.
// Events only grow: they are appended in chronological order, start with the
// queuing event and end with at most one terminal event.
type PrintJob struct {
	ID                 string            `json:"id"`
	PrinterID          string            `json:"printer_id"`
	FilamentID         string            `json:"filament_id"`
	Filepath           string            `json:"filepath"`
	PrintWeightInGrams int               `json:"print_weight_in_grams"`
	Status             printstate.State  `json:"status"`
	QueuedAt           time.Time         `json:"queued_at"`
	EstTime            clock.ISODuration `json:"est_time"`
	Events             []PrintEvent      `json:"events"`
}

// EstimatedDuration is the predicted print time
func (j *PrintJob) EstimatedDuration() time.Duration {
	return j.EstTime.Std()
}

// FirstEvent returns the earliest event of the given type
func (j *PrintJob) FirstEvent(t printstate.State) (PrintEvent, bool) {
	for _, e := range j.Events {
		if e.Type == t {
			return e, true
		}
	}
	return PrintEvent{}, false
}

// LastEvent returns the most recent event of the given type
func (j *PrintJob) LastEvent(t printstate.State) (PrintEvent, bool) {
	for i := len(j.Events) - 1; i >= 0; i-- {
		if j.Events[i].Type == t {
			return j.Events[i], true
		}
	}
	return PrintEvent{}, false
}

// QueuedTime returns when the job entered the queue. Records saved without
// queued_at fall back to their queuing event.
func (j *PrintJob) QueuedTime() (time.Time, bool) {
	if !j.QueuedAt.IsZero() {
		return j.QueuedAt, true
	}
	if e, ok := j.FirstEvent(printstate.Queued); ok {
		return e.Timestamp, true
	}
	return time.Time{}, false
}

// PrintStartedAt returns when the current print attempt started
func (j *PrintJob) PrintStartedAt() (time.Time, bool) {
	e, ok := j.LastEvent(printstate.Printing)
	return e.Timestamp, ok
}

// Clone returns a copy that shares no memory with j
func (j *PrintJob) Clone() *PrintJob {
	c := *j
	c.Events = append([]PrintEvent(nil), j.Events...)
	return &c
}
