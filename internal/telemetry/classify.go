package telemetry

// HeartRateStatus is a categorical label for a single BPM reading.
type HeartRateStatus string

const (
	StatusNoSignal HeartRateStatus = "no_signal"
	StatusSlow     HeartRateStatus = "slow"
	StatusNormal   HeartRateStatus = "normal"
	StatusElevated HeartRateStatus = "elevated"
	StatusHigh     HeartRateStatus = "high"
)

// HeartRateZone maps a BPM reading onto a training-intensity band.
type HeartRateZone string

const (
	ZoneNoSignal         HeartRateZone = "no_signal"
	ZoneResting          HeartRateZone = "resting"
	ZoneNormal           HeartRateZone = "normal"
	ZoneLightExercise    HeartRateZone = "light_exercise"
	ZoneModerateExercise HeartRateZone = "moderate_exercise"
	ZoneIntenseExercise  HeartRateZone = "intense_exercise"
)

// PulseSignal grades the raw amplitude coming off the pulse sensor.
type PulseSignal string

const (
	SignalNone       PulseSignal = "no_signal"
	SignalVeryWeak   PulseSignal = "very_weak"
	SignalWeak       PulseSignal = "weak"
	SignalNormal     PulseSignal = "normal"
	SignalStrong     PulseSignal = "strong"
	SignalVeryStrong PulseSignal = "very_strong"
)

// ClassifyHeartRateStatus buckets a BPM value. A zero or negative reading
// means the sensor has no finger contact, so it is reported as no_signal
// rather than as an implausibly slow heart rate.
func ClassifyHeartRateStatus(bpm float64) HeartRateStatus {
	switch {
	case bpm <= 0:
		return StatusNoSignal
	case bpm < 60:
		return StatusSlow
	case bpm <= 100:
		return StatusNormal
	case bpm <= 140:
		return StatusElevated
	default:
		return StatusHigh
	}
}

// ClassifyHeartRateZone buckets a BPM value into a training zone.
func ClassifyHeartRateZone(bpm float64) HeartRateZone {
	switch {
	case bpm <= 0:
		return ZoneNoSignal
	case bpm < 60:
		return ZoneResting
	case bpm < 100:
		return ZoneNormal
	case bpm < 140:
		return ZoneLightExercise
	case bpm < 170:
		return ZoneModerateExercise
	default:
		return ZoneIntenseExercise
	}
}

// ClassifyPulseSignal grades the raw pulse amplitude (ADC counts).
func ClassifyPulseSignal(pulseValue float64) PulseSignal {
	switch {
	case pulseValue <= 0:
		return SignalNone
	case pulseValue < 1000:
		return SignalVeryWeak
	case pulseValue < 2000:
		return SignalWeak
	case pulseValue < 3000:
		return SignalNormal
	case pulseValue < 4000:
		return SignalStrong
	default:
		return SignalVeryStrong
	}
}

// DerivedHeartRate is the per-request view computed from one raw BPM reading.
// It is never persisted.
type DerivedHeartRate struct {
	BPM    float64         `json:"bpm"`
	Valid  bool            `json:"valid"`
	Status HeartRateStatus `json:"status"`
	Zone   HeartRateZone   `json:"zone"`
}

// DeriveHeartRate combines the status and zone classifications for a reading.
func DeriveHeartRate(bpm float64, valid bool) DerivedHeartRate {
	return DerivedHeartRate{
		BPM:    bpm,
		Valid:  valid && bpm > 0,
		Status: ClassifyHeartRateStatus(bpm),
		Zone:   ClassifyHeartRateZone(bpm),
	}
}
