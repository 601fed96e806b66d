// Package queue derives a printer's queue from job records and predicts how
// long a queued job waits before it starts printing.
package queue

import (
	"sort"

	"github.com/devadigapratham/printeta/api/models"
	"github.com/devadigapratham/printeta/internal/printstate"
)

// Queue is an immutable snapshot of the jobs assigned to one printer. Order
// holds job ids front first; jobs maps ids to their records.
type Queue struct {
	PrinterID string
	Order     []string
	jobs      map[string]*models.PrintJob
}

// ForPrinter builds the queue of a printer from every known job: the
// non-terminal jobs referencing the printer, ordered by queue entry time.
func ForPrinter(printerID string, jobs []*models.PrintJob) *Queue {
	var active []*models.PrintJob
	for _, j := range jobs {
		if j == nil || j.PrinterID != printerID || j.Status.Terminal() {
			continue
		}
		active = append(active, j)
	}
	sort.SliceStable(active, func(a, b int) bool {
		ta, _ := active[a].QueuedTime()
		tb, _ := active[b].QueuedTime()
		if ta.Equal(tb) {
			return active[a].ID < active[b].ID
		}
		return ta.Before(tb)
	})

	order := make([]string, 0, len(active))
	for _, j := range active {
		order = append(order, j.ID)
	}
	return New(printerID, order, jobs)
}

// New builds a queue with an explicit order. Ids in order without a matching
// job are kept; estimation skips them.
func New(printerID string, order []string, jobs []*models.PrintJob) *Queue {
	q := &Queue{
		PrinterID: printerID,
		Order:     append([]string(nil), order...),
		jobs:      make(map[string]*models.PrintJob, len(jobs)),
	}
	for _, j := range jobs {
		if j != nil {
			q.jobs[j.ID] = j
		}
	}
	return q
}

// Len is the number of queued entries.
func (q *Queue) Len() int {
	return len(q.Order)
}

// Job looks up a job record by id.
func (q *Queue) Job(id string) (*models.PrintJob, bool) {
	j, ok := q.jobs[id]
	return j, ok
}

// Position returns the index of a job in the queue, or -1.
func (q *Queue) Position(id string) int {
	for i, qid := range q.Order {
		if qid == id {
			return i
		}
	}
	return -1
}

// Current returns the job the printer is printing right now.
func (q *Queue) Current() (*models.PrintJob, bool) {
	for _, id := range q.Order {
		if j, ok := q.jobs[id]; ok && j.Status == printstate.Printing {
			return j, true
		}
	}
	return nil, false
}

// Jobs returns the known jobs in queue order.
func (q *Queue) Jobs() []*models.PrintJob {
	out := make([]*models.PrintJob, 0, len(q.Order))
	for _, id := range q.Order {
		if j, ok := q.jobs[id]; ok {
			out = append(out, j)
		}
	}
	return out
}
