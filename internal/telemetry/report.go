package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidInput marks a client error on save: a required field was
// missing or zero.
var ErrInvalidInput = errors.New("invalid input")

// Measurement is one durable per-user record. Created on explicit save,
// immutable afterward.
type Measurement struct {
	ID        string    `json:"id"`
	UserID    string    `json:"userId"`
	HeartRate float64   `json:"heartRate"`
	Systolic  float64   `json:"systolic"`
	Diastolic float64   `json:"diastolic"`
	Timestamp time.Time `json:"timestamp"`
}

// MeasurementInput is the save payload; all three values are required.
type MeasurementInput struct {
	HeartRate float64 `json:"heartRate"`
	Systolic  float64 `json:"systolic"`
	Diastolic float64 `json:"diastolic"`
}

// DailyAverage is the per-calendar-day mean of a user's measurements.
// Computed on demand, never stored.
type DailyAverage struct {
	Date         string  `json:"date"` // YYYY-MM-DD
	AvgHeartRate float64 `json:"avgHeartRate"`
	AvgSystolic  float64 `json:"avgSystolic"`
	AvgDiastolic float64 `json:"avgDiastolic"`
}

// MeasurementStore is the durable-store surface the reporter depends on.
// Implemented by internal/database against Postgres, stubbed in tests.
type MeasurementStore interface {
	Insert(ctx context.Context, m Measurement) error
	FindSince(ctx context.Context, userID string, since time.Time) ([]Measurement, error)
}

// reportWindowDays is the trailing window, inclusive of today.
const reportWindowDays = 7

// Reporter aggregates stored measurements into per-day averages and
// persists new measurements.
type Reporter struct {
	store MeasurementStore
	now   func() time.Time
}

func NewReporter(store MeasurementStore) *Reporter {
	return &Reporter{store: store, now: time.Now}
}

// SaveMeasurement validates and persists one measurement for the
// authenticated user, stamping it with the current time.
func (r *Reporter) SaveMeasurement(ctx context.Context, userID string, in MeasurementInput) (*Measurement, error) {
	if in.HeartRate <= 0 || in.Systolic <= 0 || in.Diastolic <= 0 {
		return nil, fmt.Errorf("%w: heartRate, systolic and diastolic are required", ErrInvalidInput)
	}

	m := Measurement{
		ID:        uuid.New().String(),
		UserID:    userID,
		HeartRate: in.HeartRate,
		Systolic:  in.Systolic,
		Diastolic: in.Diastolic,
		Timestamp: r.now(),
	}
	if err := r.store.Insert(ctx, m); err != nil {
		return nil, err
	}
	return &m, nil
}

// DailyAverages groups the user's measurements from the trailing 7-day
// window (today-6 through today) into per-day means, ascending by date.
// Days without readings produce no entry; callers must not assume seven
// contiguous rows.
func (r *Reporter) DailyAverages(ctx context.Context, userID string) ([]DailyAverage, error) {
	now := r.now()
	year, month, day := now.AddDate(0, 0, -(reportWindowDays - 1)).Date()
	windowStart := time.Date(year, month, day, 0, 0, 0, 0, now.Location())

	measurements, err := r.store.FindSince(ctx, userID, windowStart)
	if err != nil {
		return nil, err
	}

	type bucket struct {
		hr, sys, dia float64
		count        int
	}
	buckets := make(map[string]*bucket)
	for _, m := range measurements {
		date := m.Timestamp.Format("2006-01-02")
		b, ok := buckets[date]
		if !ok {
			b = &bucket{}
			buckets[date] = b
		}
		b.hr += m.HeartRate
		b.sys += m.Systolic
		b.dia += m.Diastolic
		b.count++
	}

	averages := make([]DailyAverage, 0, len(buckets))
	for date, b := range buckets {
		n := float64(b.count)
		averages = append(averages, DailyAverage{
			Date:         date,
			AvgHeartRate: b.hr / n,
			AvgSystolic:  b.sys / n,
			AvgDiastolic: b.dia / n,
		})
	}
	sort.Slice(averages, func(i, j int) bool { return averages[i].Date < averages[j].Date })
	return averages, nil
}
