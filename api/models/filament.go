// api/models/filament.go
package models

import (
	"errors"
	"strings"
)

// FilamentTypes lists the materials a spool may hold
var FilamentTypes = []string{"PLA", "PETG", "ABS", "TPU"}

var (
	ErrFilamentType   = errors.New("invalid filament type")
	ErrFilamentWeight = errors.New("weights must not be negative")
)

// Filament represents a spool of material consumed by print jobs
type Filament struct {
	ID                     string `json:"id"`
	Type                   string `json:"type"`
	Color                  string `json:"color"`
	TotalWeightInGrams     int    `json:"total_weight_in_grams"`
	RemainingWeightInGrams int    `json:"remaining_weight_in_grams"`
}

// Normalize upper-cases the material and fills in a fresh spool's remaining
// weight. It fails on an unknown material or a negative weight.
func (f *Filament) Normalize() error {
	f.Type = strings.ToUpper(strings.TrimSpace(f.Type))
	known := false
	for _, t := range FilamentTypes {
		if f.Type == t {
			known = true
			break
		}
	}
	if !known {
		return ErrFilamentType
	}
	if f.TotalWeightInGrams < 0 || f.RemainingWeightInGrams < 0 {
		return ErrFilamentWeight
	}
	if f.RemainingWeightInGrams == 0 {
		f.RemainingWeightInGrams = f.TotalWeightInGrams
	}
	return nil
}

// Consume deducts grams from the spool, never going below zero
func (f *Filament) Consume(grams int) {
	f.RemainingWeightInGrams -= grams
	if f.RemainingWeightInGrams < 0 {
		f.RemainingWeightInGrams = 0
	}
}
