package store

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/emrbridge/emrbridge/internal/platform/udm"
)

type memoryRepo struct {
	mu      sync.RWMutex
	records map[uuid.UUID]*Record
}

// NewMemoryRepo creates an in-memory repository, used in development mode
// when no DATABASE_URL is configured, and by tests.
func NewMemoryRepo() Repository {
	return &memoryRepo{records: make(map[uuid.UUID]*Record)}
}

func (r *memoryRepo) Save(_ context.Context, data *udm.EMRData) (uuid.UUID, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := uuid.New()
	r.records[id] = &Record{ID: id, Data: data}
	return id, nil
}

func (r *memoryRepo) Get(_ context.Context, id uuid.UUID) (*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rec, ok := r.records[id]
	if !ok {
		return nil, ErrNotFound
	}
	return rec, nil
}

func (r *memoryRepo) ListByPatient(_ context.Context, patientID string, limit, offset int) ([]*Record, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var matched []*Record
	for _, rec := range r.records {
		if rec.Data.PatientID == patientID {
			matched = append(matched, rec)
		}
	}
	sort.Slice(matched, func(i, j int) bool {
		return matched[i].Data.LastUpdated.After(matched[j].Data.LastUpdated)
	})

	if offset >= len(matched) {
		return nil, nil
	}
	matched = matched[offset:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}
	return matched, nil
}
