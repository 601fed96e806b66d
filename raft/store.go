package raft

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/devadigapratham/printeta/api/models"
)

// State is the serialized form of the replicated records. Raft snapshots use
// it and so do the snapshot files read by the printeta CLI.
type State struct {
	Printers  []*models.Printer  `json:"printers"`
	Filaments []*models.Filament `json:"filaments"`
	PrintJobs []*models.PrintJob `json:"print_jobs"`
}

// ReadState decodes a state from r
func ReadState(r io.Reader) (*State, error) {
	var s State
	if err := json.NewDecoder(r).Decode(&s); err != nil {
		return nil, fmt.Errorf("failed to decode state: %w", err)
	}
	for i, j := range s.PrintJobs {
		if j == nil || j.ID == "" {
			return nil, fmt.Errorf("%w: print job %d has no id", ErrInvalidCommand, i)
		}
	}
	s.sort()
	return &s, nil
}

// Write encodes the state to w
func (s *State) Write(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(s)
}

// LoadStateFile reads a state file written by SaveStateFile or served by the
// snapshot endpoint.
func LoadStateFile(path string) (*State, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open state file: %w", err)
	}
	defer f.Close()
	return ReadState(f)
}

// SaveStateFile writes the state to path atomically
func SaveStateFile(path string, s *State) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".state-*")
	if err != nil {
		return fmt.Errorf("failed to create state file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if err := s.Write(tmp); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), path)
}

// Job returns the print job with the given id
func (s *State) Job(id string) (*models.PrintJob, bool) {
	for _, j := range s.PrintJobs {
		if j.ID == id {
			return j, true
		}
	}
	return nil, false
}

func (s *State) sort() {
	sortByID(s.Printers, func(p *models.Printer) string { return p.ID })
	sortByID(s.Filaments, func(f *models.Filament) string { return f.ID })
	sortByID(s.PrintJobs, func(j *models.PrintJob) string { return j.ID })
}
