// api/models/models.go
package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/devadigapratham/printeta/internal/printstate"
)

// CommandType names a replicated mutation
type CommandType string

const (
	AddPrinter     CommandType = "ADD_PRINTER"
	AddFilament    CommandType = "ADD_FILAMENT"
	AddPrintJob    CommandType = "ADD_PRINT_JOB"
	UpdatePrintJob CommandType = "UPDATE_PRINT_JOB"
)

// Command is one entry of the raft log. Timestamp is taken by the node that
// accepts the request so every replica records the same event time.
type Command struct {
	Type      CommandType      `json:"type"`
	Printer   *Printer         `json:"printer,omitempty"`
	Filament  *Filament        `json:"filament,omitempty"`
	PrintJob  *PrintJob        `json:"print_job,omitempty"`
	JobID     string           `json:"job_id,omitempty"`
	NewStatus printstate.State `json:"new_status,omitempty"`
	Timestamp time.Time        `json:"timestamp"`
}

// Marshal encodes the command for the raft log
func (c *Command) Marshal() ([]byte, error) {
	return json.Marshal(c)
}

// UnmarshalCommand decodes a raft log entry
func UnmarshalCommand(data []byte) (*Command, error) {
	var c Command
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("decode command: %w", err)
	}
	return &c, nil
}
