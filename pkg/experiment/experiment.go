// Package experiment provides A/B experiments over agent configurations:
// deterministic variant assignment, metric recording, and significance
// testing against a control variant.
package experiment

import (
	"errors"
	"time"
)

var (
	// ErrExperimentNotFound indicates the experiment ID is unknown.
	ErrExperimentNotFound = errors.New("experiment not found")

	// ErrConcluded indicates the experiment no longer accepts assignments
	// or observations.
	ErrConcluded = errors.New("experiment already concluded")

	// ErrNoControl indicates the experiment has no variant marked control,
	// so comparative analysis is impossible.
	ErrNoControl = errors.New("experiment has no control variant")
)

// Status is the lifecycle state of an experiment.
type Status string

const (
	StatusActive    Status = "active"
	StatusConcluded Status = "concluded"
)

// Variant is one arm of an experiment.
type Variant struct {
	ID         string  `json:"id"`
	Name       string  `json:"name,omitempty"`
	Allocation float64 `json:"allocation"` // fraction of subjects, all variants sum to 1
	Control    bool    `json:"control,omitempty"`

	// Config carries the agent configuration under test. The framework
	// treats it as opaque.
	Config map[string]any `json:"config,omitempty"`
}

// Experiment is a named comparison between agent configurations.
type Experiment struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Hypothesis  string    `json:"hypothesis,omitempty"`
	Variants    []Variant `json:"variants"`
	Status      Status    `json:"status"`
	CreatedAt   time.Time `json:"created_at"`
	ConcludedAt time.Time `json:"concluded_at,omitempty"`
}

// Variant returns the variant with the given ID, or nil.
func (e *Experiment) Variant(id string) *Variant {
	for i := range e.Variants {
		if e.Variants[i].ID == id {
			return &e.Variants[i]
		}
	}
	return nil
}

// Control returns the control variant, or nil if none is marked.
func (e *Experiment) Control() *Variant {
	for i := range e.Variants {
		if e.Variants[i].Control {
			return &e.Variants[i]
		}
	}
	return nil
}

// Assignment binds a subject to a variant. Assignments are sticky: once a
// subject is assigned it always sees the same variant.
type Assignment struct {
	ExperimentID string    `json:"experiment_id"`
	Subject      string    `json:"subject"`
	VariantID    string    `json:"variant_id"`
	At           time.Time `json:"at"`
}

// Result is one recorded metric value for a subject. Converted marks the
// binary outcome the z-test compares across variants.
type Result struct {
	ExperimentID string    `json:"experiment_id"`
	Subject      string    `json:"subject"`
	VariantID    string    `json:"variant_id"`
	Metric       string    `json:"metric"`
	Value        float64   `json:"value"`
	Converted    bool      `json:"converted"`
	At           time.Time `json:"at"`
}
