package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/emrbridge/emrbridge/internal/platform/udm"
)

type recordRepoPG struct {
	pool *pgxpool.Pool
}

// NewRecordRepoPG creates a PostgreSQL-backed repository. Expected schema:
//
//	CREATE TABLE emr_record (
//	    id            UUID PRIMARY KEY,
//	    system        TEXT NOT NULL,
//	    patient_id    TEXT NOT NULL DEFAULT '',
//	    resource_type TEXT NOT NULL,
//	    data          JSONB NOT NULL,
//	    validation    JSONB NOT NULL,
//	    version       TEXT NOT NULL DEFAULT '',
//	    last_updated  TIMESTAMPTZ NOT NULL
//	);
func NewRecordRepoPG(pool *pgxpool.Pool) Repository {
	return &recordRepoPG{pool: pool}
}

func (r *recordRepoPG) Save(ctx context.Context, data *udm.EMRData) (uuid.UUID, error) {
	id := uuid.New()

	dataJSON, err := json.Marshal(data.Data)
	if err != nil {
		return uuid.Nil, fmt.Errorf("record save: marshal data: %w", err)
	}
	validationJSON, err := json.Marshal(data.Validation)
	if err != nil {
		return uuid.Nil, fmt.Errorf("record save: marshal validation: %w", err)
	}

	_, err = r.pool.Exec(ctx, `
		INSERT INTO emr_record (id, system, patient_id, resource_type, data, validation, version, last_updated)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		id, string(data.System), data.PatientID, string(data.ResourceType),
		dataJSON, validationJSON, data.Version, data.LastUpdated,
	)
	if err != nil {
		return uuid.Nil, fmt.Errorf("record save: %w", err)
	}

	return id, nil
}

const recordCols = `id, system, patient_id, resource_type, data, validation, version, last_updated`

func (r *recordRepoPG) Get(ctx context.Context, id uuid.UUID) (*Record, error) {
	row := r.pool.QueryRow(ctx, `
		SELECT `+recordCols+`
		FROM emr_record WHERE id = $1`, id)

	rec, err := scanRecord(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("record get: %w", err)
	}
	return rec, nil
}

func (r *recordRepoPG) ListByPatient(ctx context.Context, patientID string, limit, offset int) ([]*Record, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT `+recordCols+`
		FROM emr_record
		WHERE patient_id = $1
		ORDER BY last_updated DESC
		LIMIT $2 OFFSET $3`, patientID, limit, offset)
	if err != nil {
		return nil, fmt.Errorf("record list: %w", err)
	}
	defer rows.Close()

	var records []*Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("record list: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

func scanRecord(row pgx.Row) (*Record, error) {
	var (
		rec            Record
		data           udm.EMRData
		system         string
		resourceType   string
		dataJSON       []byte
		validationJSON []byte
	)

	err := row.Scan(&rec.ID, &system, &data.PatientID, &resourceType,
		&dataJSON, &validationJSON, &data.Version, &data.LastUpdated)
	if err != nil {
		return nil, err
	}

	data.System = udm.System(system)
	data.ResourceType = udm.ResourceKind(resourceType)
	if err := json.Unmarshal(dataJSON, &data.Data); err != nil {
		return nil, err
	}
	if err := json.Unmarshal(validationJSON, &data.Validation); err != nil {
		return nil, err
	}

	rec.Data = &data
	return &rec, nil
}
