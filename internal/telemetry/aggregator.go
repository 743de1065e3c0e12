package telemetry

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"github.com/rs/zerolog/log"
	"golang.org/x/sync/errgroup"

	"pulselink/internal/livedata"
)

// ErrNoData marks the logical absence of expected data, as opposed to a
// transport failure. Only the strict snapshot and the history views
// surface it; the resilient views substitute defaults instead.
var ErrNoData = errors.New("no telemetry data available")

// Live-data sub-trees written by the device firmware.
const (
	statusPath      = "status"
	healthPath      = "health/latest"
	gpsHistoryPath  = "gps/history"
	beatHistoryPath = "health/history"

	gpsHistoryLimit  = 10
	beatHistoryLimit = 20
)

// PositionRecord is the connectivity/positional snapshot merged onto
// deterministic defaults, so the shape is complete even before the device
// has ever written.
type PositionRecord struct {
	Latitude      float64 `json:"latitude"`
	Longitude     float64 `json:"longitude"`
	GPSValid      bool    `json:"gps_valid"`
	WiFiConnected bool    `json:"wifi_connected"`
	FirebaseReady bool    `json:"firebase_ready"`
	Timestamp     string  `json:"timestamp"`
	LastUpdate    string  `json:"last_update"`
	Device        string  `json:"device,omitempty"`
}

// CompositeHealth is the fixed-shape vitals view. The schema is identical
// on success and failure; Online distinguishes the offline fallback.
type CompositeHealth struct {
	HeartRate     DerivedHeartRate      `json:"heartRate"`
	BloodPressure BloodPressureEstimate `json:"bloodPressure"`
	PulseSignal   PulseSignal           `json:"pulseSignal"`
	PulseValue    float64               `json:"pulseValue"`
	Verdict       ReadingVerdict        `json:"validation"`
	Online        bool                  `json:"online"`
	Timestamp     string                `json:"timestamp"`
}

// GPSBlock carries the position when the fix is valid, otherwise a
// placeholder message.
type GPSBlock struct {
	Available bool    `json:"available"`
	Latitude  float64 `json:"latitude,omitempty"`
	Longitude float64 `json:"longitude,omitempty"`
	Message   string  `json:"message,omitempty"`
}

// HeartbeatBlock carries the latest pulse reading when the device has
// reported one, otherwise a placeholder message.
type HeartbeatBlock struct {
	Available  bool            `json:"available"`
	BPM        float64         `json:"bpm,omitempty"`
	Status     HeartRateStatus `json:"status,omitempty"`
	PulseValue float64         `json:"pulse_value,omitempty"`
	Message    string          `json:"message,omitempty"`
}

// SystemBlock reports the device's connectivity flags.
type SystemBlock struct {
	WiFiConnected bool   `json:"wifi_connected"`
	FirebaseReady bool   `json:"firebase_ready"`
	LastUpdate    string `json:"last_update"`
}

// CombinedSnapshot is the strict combined view: it reports absence
// explicitly instead of masking it, so callers can tell "no device yet"
// from "device present but quiet".
type CombinedSnapshot struct {
	GPS       GPSBlock       `json:"gps"`
	Heartbeat HeartbeatBlock `json:"heartbeat"`
	System    SystemBlock    `json:"system"`
}

// HistoryEntry is one stored list entry tagged with its source key.
type HistoryEntry map[string]interface{}

// Aggregator merges the independently-updated live-data sub-trees into the
// coherent views the API serves. The history cache shields the store from
// bursty polling of the tail reads; the status cache does the same for the
// connectivity view.
type Aggregator struct {
	reader  livedata.Reader
	status  *StatusCache
	history *expirable.LRU[string, []HistoryEntry]
	now     func() time.Time
}

const historyCacheTTL = 2 * time.Second

func NewAggregator(reader livedata.Reader, statusTTL time.Duration) *Aggregator {
	a := &Aggregator{
		reader:  reader,
		history: expirable.NewLRU[string, []HistoryEntry](8, nil, historyCacheTTL),
		now:     time.Now,
	}
	a.status = NewStatusCache(a.pullStatus, statusTTL)
	return a
}

// Status serves the cached connectivity view. Never errors.
func (a *Aggregator) Status(ctx context.Context) DeviceStatus {
	return a.status.Get(ctx)
}

// pullStatus is the StatusCache refresh function: one read of the status
// sub-tree, normalized to the dashboard shape.
func (a *Aggregator) pullStatus(ctx context.Context) (DeviceStatus, error) {
	raw, err := a.reader.Read(ctx, statusPath)
	if err != nil {
		return DeviceStatus{}, err
	}

	status := DeviceStatus{
		WiFi:       boolField(raw, "wifi_connected"),
		GPS:        boolField(raw, "gps_valid"),
		Heartbeat:  boolField(raw, "bpm_valid"),
		LastUpdate: stringField(raw, "timestamp"),
	}
	if status.LastUpdate == "" {
		status.LastUpdate = a.now().Format(time.RFC3339)
	}
	return status, nil
}

// LatestPosition merges the status sub-tree onto hard-coded defaults.
// Present fields override; timestamps additionally fall back to now when
// the source record omits them. Only a transport failure errors.
func (a *Aggregator) LatestPosition(ctx context.Context) (PositionRecord, error) {
	nowISO := a.now().Format(time.RFC3339)
	rec := PositionRecord{Timestamp: nowISO, LastUpdate: nowISO}

	raw, err := a.reader.Read(ctx, statusPath)
	if err != nil {
		return PositionRecord{}, err
	}

	if v, ok := numberField(raw, "latitude"); ok {
		rec.Latitude = v
	}
	if v, ok := numberField(raw, "longitude"); ok {
		rec.Longitude = v
	}
	rec.GPSValid = boolField(raw, "gps_valid")
	rec.WiFiConnected = boolField(raw, "wifi_connected")
	rec.FirebaseReady = boolField(raw, "firebase_ready")
	rec.Device = stringField(raw, "device")
	if ts := stringField(raw, "timestamp"); ts != "" {
		rec.Timestamp = ts
	}
	if ts := stringField(raw, "last_update"); ts != "" {
		rec.LastUpdate = ts
	}
	return rec, nil
}

// Vitals composes the status and latest-health sub-trees into the derived
// health view. It never errors: on any read failure it logs and falls back
// to an all-zero offline response with the identical schema.
func (a *Aggregator) Vitals(ctx context.Context) CompositeHealth {
	view, err := a.vitals(ctx)
	if err != nil {
		log.Error().Err(err).Msg("vitals read failed, serving offline view")
		return offlineVitals(a.now())
	}
	return view
}

func (a *Aggregator) vitals(ctx context.Context) (CompositeHealth, error) {
	var statusRaw, healthRaw map[string]interface{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		statusRaw, err = a.reader.Read(gctx, statusPath)
		return err
	})
	g.Go(func() error {
		var err error
		healthRaw, err = a.reader.Read(gctx, healthPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return CompositeHealth{}, err
	}

	health := decodeHealthRecord(healthRaw)

	// The health sub-tree is authoritative for BPM; the status sub-tree
	// carries a copy the firmware refreshes less often. An explicit zero
	// in the health record stays zero.
	bpm := 0.0
	if v, ok := numberField(healthRaw, "bpm"); ok {
		bpm = v
	} else if v, ok := numberField(statusRaw, "bpm"); ok {
		bpm = v
	}

	valid := health.ValidBPM
	if len(healthRaw) == 0 {
		valid = boolField(statusRaw, "bpm_valid")
	}

	return CompositeHealth{
		HeartRate:     DeriveHeartRate(bpm, valid),
		BloodPressure: EstimateBloodPressure(bpm, health.Profile),
		PulseSignal:   ClassifyPulseSignal(health.PulseValue),
		PulseValue:    health.PulseValue,
		Verdict:       ValidateReading(health),
		Online:        true,
		Timestamp:     a.now().Format(time.RFC3339),
	}, nil
}

func offlineVitals(now time.Time) CompositeHealth {
	return CompositeHealth{
		HeartRate:     DeriveHeartRate(0, false),
		BloodPressure: EstimateBloodPressure(0, nil),
		PulseSignal:   ClassifyPulseSignal(0),
		Verdict:       ValidateReading(HealthRecord{}),
		Online:        false,
		Timestamp:     now.Format(time.RFC3339),
	}
}

// Snapshot is the strict combined view. It returns ErrNoData when the
// status sub-tree is entirely absent; transport failures propagate.
func (a *Aggregator) Snapshot(ctx context.Context) (*CombinedSnapshot, error) {
	var statusRaw, healthRaw map[string]interface{}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		statusRaw, err = a.reader.Read(gctx, statusPath)
		return err
	})
	g.Go(func() error {
		var err error
		healthRaw, err = a.reader.Read(gctx, healthPath)
		return err
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}

	if len(statusRaw) == 0 {
		return nil, ErrNoData
	}

	snap := &CombinedSnapshot{
		GPS:       GPSBlock{Available: false, Message: "GPS signal not available"},
		Heartbeat: HeartbeatBlock{Available: false, Message: "heartbeat data not available"},
		System: SystemBlock{
			WiFiConnected: boolField(statusRaw, "wifi_connected"),
			FirebaseReady: boolField(statusRaw, "firebase_ready"),
			LastUpdate:    stringField(statusRaw, "last_update"),
		},
	}

	if boolField(statusRaw, "gps_valid") {
		lat, _ := numberField(statusRaw, "latitude")
		lon, _ := numberField(statusRaw, "longitude")
		snap.GPS = GPSBlock{Available: true, Latitude: lat, Longitude: lon}
	}

	if len(healthRaw) > 0 {
		health := decodeHealthRecord(healthRaw)
		snap.Heartbeat = HeartbeatBlock{
			Available:  true,
			BPM:        health.BPM,
			Status:     ClassifyHeartRateStatus(health.BPM),
			PulseValue: health.PulseValue,
		}
	}

	return snap, nil
}

// GPSHistory tails the last entries of the GPS list sub-tree.
func (a *Aggregator) GPSHistory(ctx context.Context) ([]HistoryEntry, error) {
	return a.historyTail(ctx, gpsHistoryPath, gpsHistoryLimit)
}

// HeartbeatHistory tails the last entries of the heartbeat list sub-tree.
func (a *Aggregator) HeartbeatHistory(ctx context.Context) ([]HistoryEntry, error) {
	return a.historyTail(ctx, beatHistoryPath, beatHistoryLimit)
}

func (a *Aggregator) historyTail(ctx context.Context, path string, n int) ([]HistoryEntry, error) {
	key := fmt.Sprintf("%s|%d", path, n)
	if entries, ok := a.history.Get(key); ok {
		return entries, nil
	}

	raw, err := a.reader.ReadLast(ctx, path, n)
	if err != nil {
		return nil, err
	}
	if len(raw) == 0 {
		return nil, ErrNoData
	}

	entries := entriesFromSnapshot(raw)
	a.history.Add(key, entries)
	return entries, nil
}

// entriesFromSnapshot flattens a key→record mapping into an ordered slice,
// tagging each record with its source key as id. Push keys sort
// chronologically, so key order is insertion order.
func entriesFromSnapshot(raw map[string]interface{}) []HistoryEntry {
	keys := make([]string, 0, len(raw))
	for k := range raw {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	entries := make([]HistoryEntry, 0, len(keys))
	for _, k := range keys {
		entry := HistoryEntry{"id": k}
		if fields, ok := raw[k].(map[string]interface{}); ok {
			for fk, fv := range fields {
				entry[fk] = fv
			}
		} else {
			entry["value"] = raw[k]
		}
		entries = append(entries, entry)
	}
	return entries
}

// decodeHealthRecord pulls the known fields out of a raw health snapshot.
// Absent or mistyped fields stay at their zero values, which downstream
// checks treat as failing rather than as errors.
func decodeHealthRecord(raw map[string]interface{}) HealthRecord {
	rec := HealthRecord{
		ValidBPM:  boolField(raw, "valid_bpm"),
		HealthID:  stringField(raw, "health_id"),
		Timestamp: stringField(raw, "timestamp"),
	}
	if v, ok := numberField(raw, "bpm"); ok {
		rec.BPM = v
	}
	if v, ok := numberField(raw, "pulse_value"); ok {
		rec.PulseValue = v
	}
	if wf, ok := raw["waveform"].([]interface{}); ok {
		rec.Waveform = make([]float64, 0, len(wf))
		for _, s := range wf {
			if f, ok := s.(float64); ok {
				rec.Waveform = append(rec.Waveform, f)
			}
		}
	}
	if p, ok := raw["userProfile"].(map[string]interface{}); ok {
		profile := DefaultProfile
		if v, ok := numberField(p, "age"); ok {
			profile.Age = v
		}
		if b, ok := p["isMale"].(bool); ok {
			profile.IsMale = b
		}
		if v, ok := numberField(p, "weight"); ok {
			profile.Weight = v
		}
		if v, ok := numberField(p, "height"); ok {
			profile.Height = v
		}
		rec.Profile = &profile
	}
	return rec
}

func numberField(raw map[string]interface{}, key string) (float64, bool) {
	switch v := raw[key].(type) {
	case float64:
		return v, true
	case int64:
		return float64(v), true
	default:
		return 0, false
	}
}

func boolField(raw map[string]interface{}, key string) bool {
	b, _ := raw[key].(bool)
	return b
}

func stringField(raw map[string]interface{}, key string) string {
	s, _ := raw[key].(string)
	return s
}
