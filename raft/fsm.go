package raft

import (
	"errors"
	"fmt"
	"io"
	"sort"
	"sync"

	"github.com/hashicorp/raft"
	"github.com/sirupsen/logrus"

	"github.com/devadigapratham/printeta/api/models"
	"github.com/devadigapratham/printeta/internal/logging"
	"github.com/devadigapratham/printeta/internal/printstate"
)

var (
	// ErrNotFound is returned when a command references an unknown record.
	ErrNotFound = errors.New("not found")
	// ErrInsufficientFilament is returned when a spool cannot cover a new job.
	ErrInsufficientFilament = errors.New("not enough filament remaining")
	// ErrInvalidCommand is returned for malformed commands.
	ErrInvalidCommand = errors.New("invalid command")
)

// FSM implements the raft.FSM interface for the print job state
type FSM struct {
	mu sync.RWMutex

	printers  map[string]*models.Printer
	filaments map[string]*models.Filament
	printJobs map[string]*models.PrintJob

	log      logrus.FieldLogger
	onChange func(jobID string)
}

// NewFSM creates a new Finite State Machine for the Raft cluster
func NewFSM(log logrus.FieldLogger) *FSM {
	if log == nil {
		log = logging.Discard()
	}
	return &FSM{
		printers:  make(map[string]*models.Printer),
		filaments: make(map[string]*models.Filament),
		printJobs: make(map[string]*models.PrintJob),
		log:       log,
	}
}

// OnJobChange registers fn to be called, outside the FSM lock, after a
// command changed a print job.
func (f *FSM) OnJobChange(fn func(jobID string)) {
	f.mu.Lock()
	f.onChange = fn
	f.mu.Unlock()
}

// Apply applies a Raft log entry to the FSM
func (f *FSM) Apply(l *raft.Log) interface{} {
	cmd, err := models.UnmarshalCommand(l.Data)
	if err != nil {
		return fmt.Errorf("%w: failed to unmarshal command: %v", ErrInvalidCommand, err)
	}
	if cmd.Timestamp.IsZero() {
		cmd.Timestamp = l.AppendedAt
	}
	cmd.Timestamp = cmd.Timestamp.UTC()

	f.mu.Lock()
	jobID, err := f.apply(cmd)
	notify := f.onChange
	f.mu.Unlock()

	entry := f.log.WithField("command", cmd.Type)
	if err != nil {
		entry.WithError(err).Warn("command rejected")
		return err
	}
	if jobID != "" {
		entry.WithField("job_id", jobID).Debug("print job changed")
		if notify != nil {
			notify(jobID)
		}
	}
	return nil
}

// apply mutates the state and returns the id of the changed job, if any.
// f.mu must be held.
func (f *FSM) apply(cmd *models.Command) (string, error) {
	switch cmd.Type {
	case models.AddPrinter:
		if cmd.Printer == nil {
			return "", fmt.Errorf("%w: printer is nil", ErrInvalidCommand)
		}
		p := *cmd.Printer
		f.printers[p.ID] = &p
		return "", nil

	case models.AddFilament:
		if cmd.Filament == nil {
			return "", fmt.Errorf("%w: filament is nil", ErrInvalidCommand)
		}
		fl := *cmd.Filament
		f.filaments[fl.ID] = &fl
		return "", nil

	case models.AddPrintJob:
		return f.addPrintJob(cmd)

	case models.UpdatePrintJob:
		return f.updatePrintJob(cmd)

	default:
		return "", fmt.Errorf("%w: unknown command type: %s", ErrInvalidCommand, cmd.Type)
	}
}

func (f *FSM) addPrintJob(cmd *models.Command) (string, error) {
	if cmd.PrintJob == nil {
		return "", fmt.Errorf("%w: print job is nil", ErrInvalidCommand)
	}
	job := cmd.PrintJob.Clone()

	if _, ok := f.printers[job.PrinterID]; !ok {
		return "", fmt.Errorf("printer with ID %s: %w", job.PrinterID, ErrNotFound)
	}
	filament, ok := f.filaments[job.FilamentID]
	if !ok {
		return "", fmt.Errorf("filament with ID %s: %w", job.FilamentID, ErrNotFound)
	}

	// Weight already promised to jobs that have not finished
	available := filament.RemainingWeightInGrams
	for _, other := range f.printJobs {
		if other.FilamentID == job.FilamentID && !other.Status.Terminal() {
			available -= other.PrintWeightInGrams
		}
	}
	if job.PrintWeightInGrams > available {
		return "", fmt.Errorf("%w: available %d g, required %d g",
			ErrInsufficientFilament, available, job.PrintWeightInGrams)
	}

	job.Status = printstate.Queued
	job.QueuedAt = cmd.Timestamp
	job.Events = []models.PrintEvent{{Type: printstate.Queued, Timestamp: cmd.Timestamp}}
	f.printJobs[job.ID] = job
	return job.ID, nil
}

func (f *FSM) updatePrintJob(cmd *models.Command) (string, error) {
	job, ok := f.printJobs[cmd.JobID]
	if !ok {
		return "", fmt.Errorf("print job with ID %s: %w", cmd.JobID, ErrNotFound)
	}
	if err := printstate.ValidateTransition(job.Status, cmd.NewStatus); err != nil {
		return "", err
	}

	job.Status = cmd.NewStatus
	job.Events = append(job.Events, models.PrintEvent{Type: cmd.NewStatus, Timestamp: cmd.Timestamp})

	if cmd.NewStatus == printstate.Completed {
		if filament, ok := f.filaments[job.FilamentID]; ok {
			filament.Consume(job.PrintWeightInGrams)
		} else {
			f.log.WithField("filament_id", job.FilamentID).Warn("completed job references unknown filament")
		}
	}
	return job.ID, nil
}

// Snapshot returns a snapshot of the FSM state
func (f *FSM) Snapshot() (raft.FSMSnapshot, error) {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return &fsmSnapshot{state: f.stateLocked()}, nil
}

// Restore restores the FSM from a snapshot
func (f *FSM) Restore(rc io.ReadCloser) error {
	defer rc.Close()

	state, err := ReadState(rc)
	if err != nil {
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.printers = indexPrinters(state.Printers)
	f.filaments = indexFilaments(state.Filaments)
	f.printJobs = indexJobs(state.PrintJobs)
	return nil
}

// State returns a deep copy of the whole state
func (f *FSM) State() *State {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.stateLocked()
}

func (f *FSM) stateLocked() *State {
	s := &State{
		Printers:  make([]*models.Printer, 0, len(f.printers)),
		Filaments: make([]*models.Filament, 0, len(f.filaments)),
		PrintJobs: make([]*models.PrintJob, 0, len(f.printJobs)),
	}
	for _, p := range f.printers {
		cp := *p
		s.Printers = append(s.Printers, &cp)
	}
	for _, fl := range f.filaments {
		cp := *fl
		s.Filaments = append(s.Filaments, &cp)
	}
	for _, j := range f.printJobs {
		s.PrintJobs = append(s.PrintJobs, j.Clone())
	}
	s.sort()
	return s
}

// Printers returns all printers ordered by id
func (f *FSM) Printers() []*models.Printer {
	return f.State().Printers
}

// Printer returns a printer by ID
func (f *FSM) Printer(id string) (*models.Printer, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	p, ok := f.printers[id]
	if !ok {
		return nil, false
	}
	cp := *p
	return &cp, true
}

// Filaments returns all filaments ordered by id
func (f *FSM) Filaments() []*models.Filament {
	return f.State().Filaments
}

// PrintJobs returns all print jobs ordered by id
func (f *FSM) PrintJobs() []*models.PrintJob {
	return f.State().PrintJobs
}

// PrintJobsByStatus returns print jobs filtered by status
func (f *FSM) PrintJobsByStatus(status printstate.State) []*models.PrintJob {
	var jobs []*models.PrintJob
	for _, j := range f.PrintJobs() {
		if j.Status == status {
			jobs = append(jobs, j)
		}
	}
	return jobs
}

// Job returns a copy of a print job by ID
func (f *FSM) Job(id string) (*models.PrintJob, bool) {
	f.mu.RLock()
	defer f.mu.RUnlock()

	job, ok := f.printJobs[id]
	if !ok {
		return nil, false
	}
	return job.Clone(), true
}

// fsmSnapshot implements the raft.FSMSnapshot interface
type fsmSnapshot struct {
	state *State
}

// Persist saves the snapshot to the provided sink
func (s *fsmSnapshot) Persist(sink raft.SnapshotSink) error {
	err := func() error {
		if err := s.state.Write(sink); err != nil {
			return err
		}
		return sink.Close()
	}()

	if err != nil {
		sink.Cancel()
		return err
	}
	return nil
}

// Release is a no-op
func (s *fsmSnapshot) Release() {}

func indexPrinters(in []*models.Printer) map[string]*models.Printer {
	out := make(map[string]*models.Printer, len(in))
	for _, p := range in {
		out[p.ID] = p
	}
	return out
}

func indexFilaments(in []*models.Filament) map[string]*models.Filament {
	out := make(map[string]*models.Filament, len(in))
	for _, fl := range in {
		out[fl.ID] = fl
	}
	return out
}

func indexJobs(in []*models.PrintJob) map[string]*models.PrintJob {
	out := make(map[string]*models.PrintJob, len(in))
	for _, j := range in {
		out[j.ID] = j
	}
	return out
}

func sortByID[T any](items []T, id func(T) string) {
	sort.Slice(items, func(a, b int) bool { return id(items[a]) < id(items[b]) })
}
