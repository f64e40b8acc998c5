// Package ingest wires the HL7/FHIR parsing and UDM transformation core to
// its transports (HTTP and MLLP) and to the record store.
package ingest

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/emrbridge/emrbridge/internal/platform/hl7v2"
	"github.com/emrbridge/emrbridge/internal/platform/udm"
	"github.com/emrbridge/emrbridge/internal/store"
)

// Service runs the parse → transform → persist pipeline.
type Service struct {
	parserCfg   hl7v2.Config
	transformer *udm.Transformer
	repo        store.Repository
	logger      zerolog.Logger
}

// NewService creates an ingest service. repo may be nil, in which case
// envelopes are returned to the caller but not persisted.
func NewService(parserCfg hl7v2.Config, transformer *udm.Transformer, repo store.Repository, logger zerolog.Logger) *Service {
	return &Service{
		parserCfg:   parserCfg,
		transformer: transformer,
		repo:        repo,
		logger:      logger,
	}
}

// ParseHL7 parses raw HL7 text with the service's parser configuration.
func (s *Service) ParseHL7(raw string) (*hl7v2.Message, error) {
	return hl7v2.Parse(raw, s.parserCfg)
}

// IngestHL7 parses raw HL7 text, transforms it into an EMRData envelope for
// the given vendor, and persists the result.
func (s *Service) IngestHL7(ctx context.Context, raw string, system udm.System, opts udm.Options) (uuid.UUID, *udm.EMRData, error) {
	msg, err := hl7v2.Parse(raw, s.parserCfg)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("ingest: %w", err)
	}
	msg.EMRSystem = string(system)

	envelope, err := s.transformer.TransformHL7(msg, system, opts)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("ingest: %w", err)
	}

	id, err := s.persist(ctx, envelope)
	if err != nil {
		return uuid.Nil, nil, err
	}

	s.logger.Info().
		Str("source", "hl7v2").
		Str("message_type", msg.MessageType).
		Str("control_id", msg.MessageControlID).
		Str("system", string(system)).
		Bool("valid", envelope.Validation.IsValid).
		Str("record_id", idString(id)).
		Msg("message ingested")

	return id, envelope, nil
}

// IngestFHIR transforms a FHIR-shaped resource and persists the result.
func (s *Service) IngestFHIR(ctx context.Context, resource map[string]interface{}, system udm.System, opts udm.Options) (uuid.UUID, *udm.EMRData, error) {
	envelope, err := s.transformer.TransformFHIR(resource, system, opts)
	if err != nil {
		return uuid.Nil, nil, fmt.Errorf("ingest: %w", err)
	}

	id, err := s.persist(ctx, envelope)
	if err != nil {
		return uuid.Nil, nil, err
	}

	s.logger.Info().
		Str("source", "fhir").
		Str("resource_type", string(envelope.ResourceType)).
		Str("system", string(system)).
		Bool("valid", envelope.Validation.IsValid).
		Str("record_id", idString(id)).
		Msg("resource ingested")

	return id, envelope, nil
}

// GetRecord retrieves a persisted envelope by id.
func (s *Service) GetRecord(ctx context.Context, id uuid.UUID) (*store.Record, error) {
	if s.repo == nil {
		return nil, store.ErrNotFound
	}
	return s.repo.Get(ctx, id)
}

// ListRecordsByPatient retrieves persisted envelopes for one patient.
func (s *Service) ListRecordsByPatient(ctx context.Context, patientID string, limit, offset int) ([]*store.Record, error) {
	if s.repo == nil {
		return nil, nil
	}
	return s.repo.ListByPatient(ctx, patientID, limit, offset)
}

func (s *Service) persist(ctx context.Context, envelope *udm.EMRData) (uuid.UUID, error) {
	if s.repo == nil {
		return uuid.Nil, nil
	}
	id, err := s.repo.Save(ctx, envelope)
	if err != nil {
		return uuid.Nil, fmt.Errorf("ingest: persist: %w", err)
	}
	return id, nil
}

func idString(id uuid.UUID) string {
	if id == uuid.Nil {
		return ""
	}
	return id.String()
}
