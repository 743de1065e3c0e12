package telemetry

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func goodReading() HealthRecord {
	return HealthRecord{
		BPM:        72,
		ValidBPM:   true,
		PulseValue: 2048,
		Waveform:   make([]float64, 25),
	}
}

func TestValidateReadingAllChecksPass(t *testing.T) {
	v := ValidateReading(goodReading())
	require.True(t, v.PulseValue.Valid)
	require.True(t, v.HeartRate.Valid)
	require.True(t, v.Waveform.Valid)
	require.True(t, v.SignalQuality.Valid)
	require.True(t, v.IsValid)
}

func TestValidateReadingEmptyWaveformFailsOverall(t *testing.T) {
	r := goodReading()
	r.Waveform = nil
	v := ValidateReading(r)
	require.False(t, v.Waveform.Valid)
	require.Zero(t, v.Waveform.Length)
	require.Equal(t, 10, v.Waveform.Required)
	require.False(t, v.IsValid)

	// The other checks are unaffected.
	require.True(t, v.PulseValue.Valid)
	require.True(t, v.HeartRate.Valid)
}

func TestValidateReadingHeartRateNeedsSensorFlag(t *testing.T) {
	r := goodReading()
	r.ValidBPM = false
	v := ValidateReading(r)
	require.False(t, v.HeartRate.Valid)
	require.False(t, v.IsValid)
}

func TestValidateReadingPulseBounds(t *testing.T) {
	for _, pulse := range []float64{0, 499, 8001} {
		r := goodReading()
		r.PulseValue = pulse
		v := ValidateReading(r)
		require.False(t, v.PulseValue.Valid, "pulse=%v", pulse)
		// signalQuality mirrors the pulseValue check.
		require.Equal(t, v.PulseValue.Valid, v.SignalQuality.Valid)
		require.False(t, v.IsValid)
	}
}

func TestValidateReadingZeroRecord(t *testing.T) {
	v := ValidateReading(HealthRecord{})
	require.False(t, v.IsValid)
	require.False(t, v.PulseValue.Valid)
	require.False(t, v.HeartRate.Valid)
	require.False(t, v.Waveform.Valid)
	require.False(t, v.SignalQuality.Valid)
}
