package database

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"

	"pulselink/internal/telemetry"
)

// MeasurementQueries implements telemetry.MeasurementStore against the
// health_measurements table. Records are append-only: they are created on
// explicit save and never mutated.
type MeasurementQueries struct {
	pool *pgxpool.Pool
}

const insertMeasurementSQL = `
INSERT INTO health_measurements (measurement_id, user_id, heart_rate, systolic, diastolic, recorded_at)
VALUES ($1, $2, $3, $4, $5, $6)`

func (q *MeasurementQueries) Insert(ctx context.Context, m telemetry.Measurement) error {
	_, err := q.pool.Exec(ctx, insertMeasurementSQL,
		m.ID, m.UserID, m.HeartRate, m.Systolic, m.Diastolic,
		pgtype.Timestamptz{Time: m.Timestamp, Valid: true},
	)
	if err != nil {
		return fmt.Errorf("inserting measurement: %w", err)
	}
	return nil
}

const findMeasurementsSQL = `
SELECT measurement_id, user_id, heart_rate, systolic, diastolic, recorded_at
FROM health_measurements
WHERE user_id = $1 AND recorded_at >= $2
ORDER BY recorded_at ASC`

func (q *MeasurementQueries) FindSince(ctx context.Context, userID string, since time.Time) ([]telemetry.Measurement, error) {
	rows, err := q.pool.Query(ctx, findMeasurementsSQL, userID,
		pgtype.Timestamptz{Time: since, Valid: true})
	if err != nil {
		return nil, fmt.Errorf("querying measurements: %w", err)
	}
	defer rows.Close()

	var out []telemetry.Measurement
	for rows.Next() {
		var m telemetry.Measurement
		var recordedAt pgtype.Timestamptz
		if err := rows.Scan(&m.ID, &m.UserID, &m.HeartRate, &m.Systolic, &m.Diastolic, &recordedAt); err != nil {
			return nil, fmt.Errorf("scanning measurement: %w", err)
		}
		m.Timestamp = recordedAt.Time
		out = append(out, m)
	}
	return out, rows.Err()
}
