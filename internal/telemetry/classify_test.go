package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestClassifyHeartRateStatus(t *testing.T) {
	cases := []struct {
		bpm  float64
		want HeartRateStatus
	}{
		{0, StatusNoSignal},
		{-5, StatusNoSignal},
		{30, StatusSlow},
		{59.9, StatusSlow},
		{60, StatusNormal},
		{100, StatusNormal},
		{100.1, StatusElevated},
		{140, StatusElevated},
		{141, StatusHigh},
		{200, StatusHigh},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ClassifyHeartRateStatus(tc.bpm), "bpm=%v", tc.bpm)
	}

	// Whole resting band is normal.
	for bpm := 60.0; bpm <= 100; bpm++ {
		require.Equal(t, StatusNormal, ClassifyHeartRateStatus(bpm))
	}
}

func TestClassifyHeartRateZone(t *testing.T) {
	cases := []struct {
		bpm  float64
		want HeartRateZone
	}{
		{0, ZoneNoSignal},
		{45, ZoneResting},
		{60, ZoneNormal},
		{99, ZoneNormal},
		{100, ZoneLightExercise},
		{139, ZoneLightExercise},
		{140, ZoneModerateExercise},
		{169, ZoneModerateExercise},
		{170, ZoneIntenseExercise},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ClassifyHeartRateZone(tc.bpm), "bpm=%v", tc.bpm)
	}
}

func TestClassifyPulseSignal(t *testing.T) {
	cases := []struct {
		pulse float64
		want  PulseSignal
	}{
		{0, SignalNone},
		{1, SignalVeryWeak},
		{999, SignalVeryWeak},
		{1000, SignalWeak},
		{2500, SignalNormal},
		{3500, SignalStrong},
		{4000, SignalVeryStrong},
		{9000, SignalVeryStrong},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, ClassifyPulseSignal(tc.pulse), "pulse=%v", tc.pulse)
	}
}

func TestDeriveHeartRateNoSignal(t *testing.T) {
	d := DeriveHeartRate(0, true)
	require.False(t, d.Valid)
	require.Equal(t, StatusNoSignal, d.Status)
	require.Equal(t, ZoneNoSignal, d.Zone)
}
