// Package store persists EMRData envelopes produced by the ingest
// pipeline. The core parser and transformer know nothing about it; this is
// the downstream persistence collaborator.
package store

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/emrbridge/emrbridge/internal/platform/udm"
)

// ErrNotFound is returned when no record matches the requested id.
var ErrNotFound = errors.New("store: record not found")

// Record is a persisted EMRData envelope.
type Record struct {
	ID   uuid.UUID    `json:"id"`
	Data *udm.EMRData `json:"data"`
}

// Repository stores and retrieves EMRData envelopes.
type Repository interface {
	Save(ctx context.Context, data *udm.EMRData) (uuid.UUID, error)
	Get(ctx context.Context, id uuid.UUID) (*Record, error)
	ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Record, error)
}
