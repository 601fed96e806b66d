// Package timeline turns a job's recorded events and predicted future events
// into an ordered, evenly spaced progress timeline.
package timeline

import (
	"math"
	"sort"
	"time"

	"github.com/devadigapratham/printeta/api/models"
	"github.com/devadigapratham/printeta/internal/clock"
	"github.com/devadigapratham/printeta/internal/printstate"
	"github.com/devadigapratham/printeta/internal/queue"
)

// Entry is one event of the timeline, recorded or predicted.
type Entry struct {
	Type              printstate.State `json:"type"`
	Timestamp         time.Time        `json:"timestamp"`
	Happened          bool             `json:"happened"`
	Next              bool             `json:"next"`
	Latest            bool             `json:"latest"`
	Last              bool             `json:"last"`
	Progress          int              `json:"progress"`
	Label             string           `json:"label"`
	Formatted         string           `json:"formatted_timestamp"`
	Humanized         string           `json:"humanized_timestamp"`
	HumanizedRelative string           `json:"humanized_relative"`
}

// Timeline is the full view of one job at a given instant.
type Timeline struct {
	JobID               string            `json:"job_id"`
	State               printstate.State  `json:"state"`
	Entries             []Entry           `json:"entries"`
	Progress            float64           `json:"progress"`
	EstimatedWait       clock.ISODuration `json:"estimated_wait"`
	EstimatedStart      *time.Time        `json:"estimated_start,omitempty"`
	EstimatedCompletion time.Time         `json:"estimated_completion"`
}

// Builder builds timelines. Its zero value formats timestamps in time.Local.
type Builder struct {
	Location *time.Location
}

// NewBuilder returns a builder formatting timestamps in loc.
func NewBuilder(loc *time.Location) *Builder {
	return &Builder{Location: loc}
}

// event is a timeline event before display fields are attached.
type event struct {
	point
	happened bool
}

// Build merges the recorded events of job with the predicted print start and
// completion and assigns every event its position. q is the queue of the
// job's printer and is only read for Queued and Failed jobs. job is never
// modified.
func (b *Builder) Build(job *models.PrintJob, q *queue.Queue, now time.Time) Timeline {
	tl := Timeline{
		JobID:               job.ID,
		State:               job.Status,
		EstimatedCompletion: now,
	}

	events := make([]event, 0, len(job.Events)+2)
	for _, e := range job.Events {
		events = append(events, event{point: point{typ: e.Type, at: e.Timestamp}, happened: true})
	}

	var printStart time.Time
	synthesizeCompletion := false
	switch job.Status {
	case printstate.Queued, printstate.Failed:
		est := queue.EstimateWait(job, q, now)
		printStart = est.Start
		tl.EstimatedWait = est.Wait
		tl.EstimatedStart = &printStart
		events = append(events, event{point: point{typ: printstate.Printing, at: printStart}})
		synthesizeCompletion = true
	case printstate.Printing:
		started, ok := job.PrintStartedAt()
		if !ok {
			started = now
		}
		printStart = started
		synthesizeCompletion = true
	case printstate.Completed, printstate.Canceled:
		if e, ok := firstEnding(job); ok {
			tl.EstimatedCompletion = e.Timestamp
		}
	}

	if synthesizeCompletion {
		end := printStart.Add(job.EstimatedDuration())
		tl.EstimatedCompletion = end
		events = append(events, event{point: point{typ: printstate.Completed, at: end}})
	}

	sortEvents(events)

	points := make([]point, len(events))
	for i, e := range events {
		points[i] = e.point
	}
	queuedAt, ok := job.QueuedTime()
	if !ok {
		queuedAt = now
	}
	progress := assignProgress(points, queuedAt, tl.EstimatedCompletion)

	tl.Entries = make([]Entry, len(events))
	nextSet := false
	latest := -1
	for i, e := range events {
		entry := Entry{
			Type:              e.typ,
			Timestamp:         e.at,
			Happened:          e.happened,
			Last:              e.typ.Ending(),
			Progress:          progress[i],
			Label:             e.typ.Label(),
			Formatted:         clock.FormatStamp(e.at, b.Location),
			Humanized:         clock.Humanize(e.at.Sub(now), false),
			HumanizedRelative: clock.Humanize(e.at.Sub(now), true),
		}
		if !e.happened && !nextSet {
			entry.Next = true
			nextSet = true
		}
		if e.happened {
			latest = i
		}
		tl.Entries[i] = entry
	}
	if latest >= 0 {
		tl.Entries[latest].Latest = true
	}

	tl.Progress = barProgress(tl.Entries, job.Status, now)
	return tl
}

// sortEvents orders events chronologically. Ending events go last whatever
// their timestamp, and ties keep their recorded order.
func sortEvents(events []event) {
	sort.SliceStable(events, func(a, b int) bool {
		ea, eb := events[a].typ.Ending(), events[b].typ.Ending()
		if ea != eb {
			return eb
		}
		return events[a].at.Before(events[b].at)
	})
}

func firstEnding(job *models.PrintJob) (models.PrintEvent, bool) {
	for _, e := range job.Events {
		if e.Type.Ending() {
			return e, true
		}
	}
	return models.PrintEvent{}, false
}

// barProgress positions the overall progress bar: linear between the latest
// recorded event and the next predicted one, never past the next one.
func barProgress(entries []Entry, state printstate.State, now time.Time) float64 {
	var latest, next *Entry
	for i := range entries {
		if entries[i].Latest {
			latest = &entries[i]
		}
		if entries[i].Next {
			next = &entries[i]
		}
	}

	if latest != nil && next != nil {
		from, to := float64(latest.Progress), float64(next.Progress)
		window := next.Timestamp.Sub(latest.Timestamp)
		if window <= 0 {
			return to
		}
		elapsed := float64(now.Sub(latest.Timestamp)) / float64(window)
		return math.Max(from, math.Min(from+(to-from)*elapsed, to))
	}
	if state.Ending() {
		return 100
	}
	if latest != nil {
		return float64(latest.Progress)
	}
	return 0
}
