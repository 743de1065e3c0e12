package telemetry

// HealthRecord is the latest pulse-sensor snapshot as staged by the device
// in the live-data store. All fields are optional on the wire; absent
// fields decode to their zero values and fail the corresponding check.
type HealthRecord struct {
	BPM        float64      `json:"bpm"`
	ValidBPM   bool         `json:"valid_bpm"`
	PulseValue float64      `json:"pulse_value"`
	Waveform   []float64    `json:"waveform"`
	Profile    *UserProfile `json:"userProfile,omitempty"`
	HealthID   string       `json:"health_id,omitempty"`
	Timestamp  string       `json:"timestamp,omitempty"`
}

// RangeCheck reports one bounded-value acceptance test.
type RangeCheck struct {
	Valid bool    `json:"valid"`
	Value float64 `json:"value"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

// LengthCheck reports a minimum-sample-count test.
type LengthCheck struct {
	Valid    bool `json:"valid"`
	Length   int  `json:"length"`
	Required int  `json:"required"`
}

// ReadingVerdict itemizes the acceptance tests for one raw reading.
// IsValid is the conjunction of all four checks. A failing verdict is a
// normal result, not an error; callers decide how to react.
type ReadingVerdict struct {
	PulseValue    RangeCheck  `json:"pulseValue"`
	HeartRate     RangeCheck  `json:"heartRate"`
	Waveform      LengthCheck `json:"waveform"`
	SignalQuality RangeCheck  `json:"signalQuality"`
	IsValid       bool        `json:"isValid"`
}

const (
	minPulseAmplitude = 500.0
	maxPulseAmplitude = 8000.0
	minWaveformLen    = 10
)

// ValidateReading applies the physiological plausibility ranges to a raw
// reading. The signalQuality check repeats the pulseValue check on
// purpose: both keys gate on the same raw amplitude and external
// consumers depend on both being present, so they are kept separate.
func ValidateReading(r HealthRecord) ReadingVerdict {
	pulse := RangeCheck{
		Valid: r.PulseValue >= minPulseAmplitude && r.PulseValue <= maxPulseAmplitude,
		Value: r.PulseValue,
		Min:   minPulseAmplitude,
		Max:   maxPulseAmplitude,
	}
	heart := RangeCheck{
		Valid: r.ValidBPM && r.BPM >= minPlausibleBPM && r.BPM <= maxPlausibleBPM,
		Value: r.BPM,
		Min:   minPlausibleBPM,
		Max:   maxPlausibleBPM,
	}
	wave := LengthCheck{
		Valid:    len(r.Waveform) >= minWaveformLen,
		Length:   len(r.Waveform),
		Required: minWaveformLen,
	}
	signal := RangeCheck{
		Valid: r.PulseValue >= minPulseAmplitude && r.PulseValue <= maxPulseAmplitude,
		Value: r.PulseValue,
		Min:   minPulseAmplitude,
		Max:   maxPulseAmplitude,
	}

	return ReadingVerdict{
		PulseValue:    pulse,
		HeartRate:     heart,
		Waveform:      wave,
		SignalQuality: signal,
		IsValid:       pulse.Valid && heart.Valid && wave.Valid && signal.Valid,
	}
}
