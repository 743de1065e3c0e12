package telemetry

import "math"

// UserProfile carries the physical characteristics the blood-pressure
// heuristic adjusts for.
type UserProfile struct {
	Age    float64 `json:"age"`
	IsMale bool    `json:"isMale"`
	Weight float64 `json:"weight"` // kg
	Height float64 `json:"height"` // cm
}

// DefaultProfile is assumed when the device has no profile on record.
var DefaultProfile = UserProfile{Age: 30, IsMale: true, Weight: 70, Height: 170}

// BPCategory follows the standard AHA ladder.
type BPCategory string

const (
	BPNormal   BPCategory = "normal"
	BPElevated BPCategory = "elevated"
	BPStage1   BPCategory = "stage1_hypertension"
	BPStage2   BPCategory = "stage2_hypertension"
)

// BPFactors exposes the intermediate terms of the estimate so clients can
// see what moved the numbers.
type BPFactors struct {
	HeartRateFactor float64 `json:"heartRateFactor"`
	AgeFactor       float64 `json:"ageFactor"`
	BMIFactor       float64 `json:"bmiFactor"`
	GenderFactor    float64 `json:"genderFactor"`
}

// BloodPressureEstimate is a linear heuristic derived from a single heart
// rate reading. It is informational only and carries a fixed low
// confidence; it is not a clinical measurement.
type BloodPressureEstimate struct {
	Systolic   int        `json:"systolic"`
	Diastolic  int        `json:"diastolic"`
	Category   BPCategory `json:"category,omitempty"`
	Valid      bool       `json:"valid"`
	Confidence string     `json:"confidence"`
	Factors    BPFactors  `json:"factors"`
}

const (
	baseSystolic  = 120.0
	baseDiastolic = 80.0

	// Physiologically plausible BPM window shared with the reading validator.
	minPlausibleBPM = 30.0
	maxPlausibleBPM = 220.0
)

// EstimateBloodPressure derives a systolic/diastolic estimate from heart
// rate plus an optional profile (nil means DefaultProfile). Readings
// outside the plausible BPM window produce an invalid zeroed estimate.
//
// The arithmetic is frozen for compatibility with historical client
// behavior; do not tune the constants without new domain input.
func EstimateBloodPressure(heartRate float64, profile *UserProfile) BloodPressureEstimate {
	if profile == nil {
		p := DefaultProfile
		profile = &p
	}

	if heartRate <= 0 || heartRate < minPlausibleBPM || heartRate > maxPlausibleBPM {
		return BloodPressureEstimate{Confidence: "low"}
	}

	hrFactor := (heartRate - 70) * 0.5
	ageFactor := math.Max(0, (profile.Age-30)*0.3)

	heightM := profile.Height / 100
	bmi := profile.Weight / (heightM * heightM)
	bmiFactor := math.Max(0, (bmi-25)*0.5)

	genderFactor := 0.0
	if profile.IsMale {
		genderFactor = 2.0
	}

	systolic := int(math.Round(baseSystolic + hrFactor + ageFactor + bmiFactor + genderFactor))
	diastolic := int(math.Round(baseDiastolic + 0.5*hrFactor + 0.5*ageFactor + 0.5*bmiFactor))

	return BloodPressureEstimate{
		Systolic:   systolic,
		Diastolic:  diastolic,
		Category:   categorize(systolic, diastolic),
		Valid:      true,
		Confidence: "low",
		Factors: BPFactors{
			HeartRateFactor: hrFactor,
			AgeFactor:       ageFactor,
			BMIFactor:       bmiFactor,
			GenderFactor:    genderFactor,
		},
	}
}

// categorize applies the AHA ladder in order; the first matching rung wins.
func categorize(systolic, diastolic int) BPCategory {
	switch {
	case systolic < 120 && diastolic < 80:
		return BPNormal
	case systolic < 130 && diastolic < 80:
		return BPElevated
	case systolic < 140 || diastolic < 90:
		return BPStage1
	default:
		return BPStage2
	}
}
