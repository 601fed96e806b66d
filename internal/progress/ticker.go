package progress

import (
	"io"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/devadigapratham/printeta/api/models"
	"github.com/devadigapratham/printeta/internal/clock"
)

// DefaultInterval is the refresh rate of an observation.
const DefaultInterval = time.Second

// JobSource looks up the current record of a job.
type JobSource interface {
	Job(id string) (*models.PrintJob, bool)
}

// Ticker hands out observations that recompute a job's snapshot on every
// tick of the clock.
type Ticker struct {
	source   JobSource
	clock    clock.Clock
	interval time.Duration
	log      logrus.FieldLogger

	mu           sync.Mutex
	observations map[*Observation]struct{}
}

// NewTicker returns a Ticker reading jobs from source. A non-positive
// interval means DefaultInterval and a nil logger discards output.
func NewTicker(source JobSource, clk clock.Clock, interval time.Duration, log logrus.FieldLogger) *Ticker {
	if interval <= 0 {
		interval = DefaultInterval
	}
	if log == nil {
		l := logrus.New()
		l.Out = io.Discard
		log = l
	}
	return &Ticker{
		source:       source,
		clock:        clk,
		interval:     interval,
		log:          log,
		observations: make(map[*Observation]struct{}),
	}
}

// Attach starts observing jobID. The first snapshot is published before
// Attach returns.
func (t *Ticker) Attach(jobID string) *Observation {
	c := make(chan Snapshot, 1)
	o := &Observation{C: c, c: c, ticker: t}

	t.mu.Lock()
	t.observations[o] = struct{}{}
	t.mu.Unlock()

	o.Switch(jobID)
	return o
}

// Recompute publishes a fresh snapshot to every observation of jobID. It
// does nothing when nobody observes the job.
func (t *Ticker) Recompute(jobID string) {
	t.mu.Lock()
	targets := make([]*Observation, 0, len(t.observations))
	for o := range t.observations {
		targets = append(targets, o)
	}
	t.mu.Unlock()

	for _, o := range targets {
		o.refresh(jobID)
	}
}

// Observing reports how many observations are attached.
func (t *Ticker) Observing() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.observations)
}

func (t *Ticker) forget(o *Observation) {
	t.mu.Lock()
	delete(t.observations, o)
	t.mu.Unlock()
}

// Observation is one consumer's subscription to a job's live progress. C
// always holds the most recent snapshot; older unread ones are dropped. C is
// closed by Detach.
type Observation struct {
	C <-chan Snapshot

	c      chan Snapshot
	ticker *Ticker

	mu     sync.Mutex
	jobID  string
	gen    uint64
	tick   clock.Ticker
	stop   chan struct{}
	closed bool
}

// JobID returns the job currently observed.
func (o *Observation) JobID() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.jobID
}

// Switch retargets the observation to jobID. The previous timer is stopped
// before Switch returns and none of its ticks are published afterwards.
func (o *Observation) Switch(jobID string) {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.stopLocked()
	o.gen++
	o.jobID = jobID
	gen := o.gen
	tick := o.ticker.clock.NewTicker(o.ticker.interval)
	stop := make(chan struct{})
	o.tick, o.stop = tick, stop
	o.publishLocked()
	o.mu.Unlock()

	o.ticker.log.WithField("job_id", jobID).Debug("observing job progress")
	go o.loop(gen, tick, stop)
}

// Detach stops the timer and closes C. It is safe to call more than once.
func (o *Observation) Detach() {
	o.mu.Lock()
	if o.closed {
		o.mu.Unlock()
		return
	}
	o.closed = true
	o.stopLocked()
	jobID := o.jobID
	close(o.c)
	o.mu.Unlock()

	o.ticker.forget(o)
	o.ticker.log.WithField("job_id", jobID).Debug("stopped observing job progress")
}

func (o *Observation) loop(gen uint64, tick clock.Ticker, stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			return
		case <-tick.Chan():
			o.mu.Lock()
			if !o.closed && o.gen == gen {
				o.publishLocked()
			}
			o.mu.Unlock()
		}
	}
}

func (o *Observation) refresh(jobID string) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.closed || o.jobID != jobID {
		return
	}
	o.publishLocked()
}

func (o *Observation) stopLocked() {
	if o.tick != nil {
		o.tick.Stop()
		close(o.stop)
		o.tick, o.stop = nil, nil
	}
}

// publishLocked replaces any unread snapshot with a fresh one. o.mu must be
// held.
func (o *Observation) publishLocked() {
	job, ok := o.ticker.source.Job(o.jobID)
	if !ok {
		o.ticker.log.WithField("job_id", o.jobID).Debug("observed job not found")
		return
	}
	s := Compute(job, o.ticker.clock.Now())
	select {
	case <-o.c:
	default:
	}
	o.c <- s
}
