package udm

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/emrbridge/emrbridge/internal/platform/hl7v2"
)

// Transformer maps HL7 messages and FHIR resources into EMRData envelopes.
// It is stateless apart from its logger; a single instance is safe for
// concurrent use. Side effects are limited to structured timing logs — the
// transformer performs no network or persistence calls.
type Transformer struct {
	logger zerolog.Logger
}

// NewTransformer creates a Transformer that logs timing via the given logger.
func NewTransformer(logger zerolog.Logger) *Transformer {
	return &Transformer{logger: logger}
}

// TransformHL7 converts a parsed HL7 message into an EMRData envelope for
// the given vendor. The message type decides the resource kind: ADT, SIU,
// MDM, DFT, and BAR messages carry patient demographics, ORM carries an
// order, ORU carries observations. ACK messages have no transformable payload.
func (t *Transformer) TransformHL7(msg *hl7v2.Message, system System, opts Options) (*EMRData, error) {
	start := time.Now()

	if !KnownSystem(system) {
		return nil, &UnsupportedSystemError{System: system}
	}

	kind, ok := resourceKindForMessage(msg.MessageType)
	if !ok {
		return nil, &UnsupportedResourceError{Input: msg.MessageType}
	}

	var data map[string]interface{}
	switch kind {
	case KindPatient:
		data = patientDataFromHL7(msg)
	case KindOrder:
		data = orderDataFromHL7(msg)
	case KindObservation:
		data = observationDataFromHL7(msg)
	}

	envelope := &EMRData{
		System:       system,
		PatientID:    msg.PatientID,
		ResourceType: kind,
		Data:         data,
		LastUpdated:  time.Now().UTC(),
		Version:      msg.Version,
	}

	normalize(envelope)
	if err := t.finalize(envelope, opts); err != nil {
		return nil, err
	}

	t.logger.Debug().
		Str("source", "hl7v2").
		Str("system", string(system)).
		Str("resource_type", string(kind)).
		Int("segments", len(msg.Segments)).
		Int("data_keys", len(envelope.Data)).
		Dur("elapsed", time.Since(start)).
		Msg("udm transform")

	return envelope, nil
}

// TransformFHIR converts a FHIR-shaped resource map into an EMRData
// envelope for the given vendor. Supported resourceType values are
// Patient, Task and ServiceRequest (both order-shaped), and Observation.
func (t *Transformer) TransformFHIR(resource map[string]interface{}, system System, opts Options) (*EMRData, error) {
	start := time.Now()

	if !KnownSystem(system) {
		return nil, &UnsupportedSystemError{System: system}
	}

	rt, _ := resource["resourceType"].(string)
	kind, ok := resourceKindForFHIR(rt)
	if !ok {
		return nil, &UnsupportedResourceError{Input: rt}
	}

	var data map[string]interface{}
	var patientID string
	switch kind {
	case KindPatient:
		data, patientID = patientDataFromFHIR(resource)
	case KindOrder:
		data, patientID = orderDataFromFHIR(resource)
	case KindObservation:
		data, patientID = observationDataFromFHIR(resource)
	}

	envelope := &EMRData{
		System:       system,
		PatientID:    patientID,
		ResourceType: kind,
		Data:         data,
		LastUpdated:  time.Now().UTC(),
		Version:      stringAt(resource, "meta", "versionId"),
	}

	normalize(envelope)
	if err := t.finalize(envelope, opts); err != nil {
		return nil, err
	}

	t.logger.Debug().
		Str("source", "fhir").
		Str("system", string(system)).
		Str("resource_type", string(kind)).
		Int("data_keys", len(envelope.Data)).
		Dur("elapsed", time.Since(start)).
		Msg("udm transform")

	return envelope, nil
}

// finalize runs schema validation and applies the strict-validation policy.
func (t *Transformer) finalize(envelope *EMRData, opts Options) error {
	errs, warnings := validateSchema(envelope)
	envelope.Validation = Validation{
		IsValid:       len(errs) == 0,
		Errors:        errs,
		Warnings:      warnings,
		LastValidated: time.Now().UTC(),
	}
	if opts.StrictValidation && len(errs) > 0 {
		return &StrictValidationError{Errors: errs}
	}
	return nil
}

// resourceKindForMessage maps a classified HL7 message type to a resource
// kind. The mapping is closed; ACK (including unknown codes classified as
// ACK) is not transformable.
func resourceKindForMessage(messageType string) (ResourceKind, bool) {
	switch messageType {
	case "ADT", "SIU", "MDM", "DFT", "BAR":
		return KindPatient, true
	case "ORM":
		return KindOrder, true
	case "ORU":
		return KindObservation, true
	}
	return "", false
}

// resourceKindForFHIR maps a FHIR resourceType to a resource kind.
func resourceKindForFHIR(resourceType string) (ResourceKind, bool) {
	switch resourceType {
	case "Patient":
		return KindPatient, true
	case "Task", "ServiceRequest":
		return KindOrder, true
	case "Observation":
		return KindObservation, true
	}
	return "", false
}
