// Package udm converts parsed HL7 v2 messages and FHIR-shaped resources
// into the vendor-neutral universal data model envelope consumed by the
// rest of the platform.
package udm

import (
	"fmt"
	"time"
)

// System identifies the EMR vendor a payload came from. The set is closed:
// adding a vendor means touching every switch that dispatches on System,
// which is the point — new vendors are compiler-checked additions, not
// runtime plugin lookups.
type System string

const (
	SystemEpic        System = "epic"
	SystemCerner      System = "cerner"
	SystemGenericFHIR System = "generic-fhir"
)

// KnownSystem reports whether s is one of the supported vendors.
func KnownSystem(s System) bool {
	switch s {
	case SystemEpic, SystemCerner, SystemGenericFHIR:
		return true
	}
	return false
}

// ResourceKind is the closed set of resource shapes the transformer
// understands.
type ResourceKind string

const (
	KindPatient     ResourceKind = "Patient"
	KindOrder       ResourceKind = "Order"
	KindObservation ResourceKind = "Observation"
)

// ValidationError is one accumulated UDM shape violation. Field is a path
// into the envelope (never a patient value), Code a stable machine token.
type ValidationError struct {
	Field   string `json:"field"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Validation summarizes the schema check performed on an envelope.
type Validation struct {
	IsValid       bool              `json:"isValid"`
	Errors        []ValidationError `json:"errors"`
	Warnings      []string          `json:"warnings"`
	LastValidated time.Time         `json:"lastValidated"`
}

// EMRData is the universal envelope produced per transform call. It holds
// no reference back to the source message, so its lifetime is independent
// of the raw payload.
type EMRData struct {
	System       System                 `json:"system"`
	PatientID    string                 `json:"patientId"`
	ResourceType ResourceKind           `json:"resourceType"`
	Data         map[string]interface{} `json:"data"`
	LastUpdated  time.Time              `json:"lastUpdated"`
	Version      string                 `json:"version"`
	Validation   Validation             `json:"validation"`
}

// StrictValidationError is returned instead of a partial envelope when
// strict validation is requested and the schema check found violations.
// It carries field paths and codes only.
type StrictValidationError struct {
	Errors []ValidationError
}

func (e *StrictValidationError) Error() string {
	if len(e.Errors) == 1 {
		return fmt.Sprintf("udm: strict validation failed: %s (%s)", e.Errors[0].Field, e.Errors[0].Code)
	}
	return fmt.Sprintf("udm: strict validation failed with %d errors, first: %s (%s)",
		len(e.Errors), e.Errors[0].Field, e.Errors[0].Code)
}

// UnsupportedSystemError indicates a vendor tag outside the closed set.
type UnsupportedSystemError struct {
	System System
}

func (e *UnsupportedSystemError) Error() string {
	return fmt.Sprintf("udm: unsupported EMR system %q", e.System)
}

// UnsupportedResourceError indicates input that maps to no transformable
// resource kind (for example an ACK message, which carries no clinical
// payload).
type UnsupportedResourceError struct {
	Input string
}

func (e *UnsupportedResourceError) Error() string {
	return fmt.Sprintf("udm: no transformable resource in %q input", e.Input)
}

// Options controls per-call transformer behavior.
type Options struct {
	// StrictValidation turns accumulated schema violations into a
	// StrictValidationError instead of a partial envelope.
	StrictValidation bool
}
