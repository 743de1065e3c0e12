package telemetry

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type stubStore struct {
	inserted  []Measurement
	found     []Measurement
	insertErr error
	findErr   error
	since     time.Time
}

func (s *stubStore) Insert(ctx context.Context, m Measurement) error {
	if s.insertErr != nil {
		return s.insertErr
	}
	s.inserted = append(s.inserted, m)
	return nil
}

func (s *stubStore) FindSince(ctx context.Context, userID string, since time.Time) ([]Measurement, error) {
	s.since = since
	return s.found, s.findErr
}

func TestSaveMeasurement(t *testing.T) {
	store := &stubStore{}
	now := time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC)
	r := NewReporter(store)
	r.now = func() time.Time { return now }

	m, err := r.SaveMeasurement(context.Background(), "user-1", MeasurementInput{HeartRate: 72, Systolic: 121, Diastolic: 81})
	require.NoError(t, err)
	require.NotEmpty(t, m.ID)
	require.Equal(t, "user-1", m.UserID)
	require.Equal(t, now, m.Timestamp)
	require.Len(t, store.inserted, 1)
	require.Equal(t, *m, store.inserted[0])
}

func TestSaveMeasurementRejectsMissingFields(t *testing.T) {
	store := &stubStore{}
	r := NewReporter(store)

	cases := []MeasurementInput{
		{HeartRate: 0, Systolic: 120, Diastolic: 80},
		{HeartRate: 72, Systolic: 0, Diastolic: 80},
		{HeartRate: 72, Systolic: 120, Diastolic: 0},
	}
	for _, in := range cases {
		_, err := r.SaveMeasurement(context.Background(), "user-1", in)
		require.ErrorIs(t, err, ErrInvalidInput)
	}
	require.Empty(t, store.inserted, "rejected input must not be persisted")
}

func TestDailyAveragesGrouping(t *testing.T) {
	d0 := time.Date(2026, 8, 30, 8, 0, 0, 0, time.UTC)
	d1 := time.Date(2026, 8, 31, 9, 0, 0, 0, time.UTC)
	store := &stubStore{found: []Measurement{
		{UserID: "u", HeartRate: 70, Systolic: 120, Diastolic: 80, Timestamp: d0},
		{UserID: "u", HeartRate: 74, Systolic: 122, Diastolic: 82, Timestamp: d0.Add(4 * time.Hour)},
		{UserID: "u", HeartRate: 80, Systolic: 125, Diastolic: 85, Timestamp: d1},
	}}

	r := NewReporter(store)
	r.now = func() time.Time { return time.Date(2026, 9, 1, 12, 0, 0, 0, time.UTC) }

	averages, err := r.DailyAverages(context.Background(), "u")
	require.NoError(t, err)
	require.Len(t, averages, 2)

	require.Equal(t, "2026-08-30", averages[0].Date)
	require.Equal(t, 72.0, averages[0].AvgHeartRate)
	require.Equal(t, 121.0, averages[0].AvgSystolic)
	require.Equal(t, 81.0, averages[0].AvgDiastolic)

	require.Equal(t, "2026-08-31", averages[1].Date)
	require.Equal(t, 80.0, averages[1].AvgHeartRate)
	require.Equal(t, 125.0, averages[1].AvgSystolic)
	require.Equal(t, 85.0, averages[1].AvgDiastolic)
}

func TestDailyAveragesWindowStart(t *testing.T) {
	store := &stubStore{}
	r := NewReporter(store)
	r.now = func() time.Time { return time.Date(2026, 9, 1, 23, 30, 0, 0, time.UTC) }

	_, err := r.DailyAverages(context.Background(), "u")
	require.NoError(t, err)
	// Seven days inclusive of today: window opens at midnight six days back.
	require.Equal(t, time.Date(2026, 8, 26, 0, 0, 0, 0, time.UTC), store.since)
}

func TestDailyAveragesEmptyWindow(t *testing.T) {
	store := &stubStore{}
	r := NewReporter(store)

	averages, err := r.DailyAverages(context.Background(), "u")
	require.NoError(t, err)
	require.Empty(t, averages)
}

func TestDailyAveragesStoreFailure(t *testing.T) {
	store := &stubStore{findErr: errors.New("db down")}
	r := NewReporter(store)

	_, err := r.DailyAverages(context.Background(), "u")
	require.Error(t, err)
}
