package domain

import (
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"time"
)

// EventType selects which decision table classifies the deltas.
type EventType string

const (
	EventFlood   EventType = "flood"
	EventDrought EventType = "drought"
	EventCyclone EventType = "cyclone"
)

// ParseEventType validates a wire-level event type string.
func ParseEventType(s string) (EventType, error) {
	switch EventType(s) {
	case EventFlood, EventDrought, EventCyclone:
		return EventType(s), nil
	default:
		return "", fmt.Errorf("unknown event type %q", s)
	}
}

// Confidence is the coarse reliability tier attached to an assessment,
// derived from which threshold rule fired.
type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

// Sensor identifies a satellite data source.
type Sensor string

const (
	SensorOptical Sensor = "optical"
	SensorRadar   Sensor = "radar"
)

// AllowedRadiiKm is the fixed set of AOI radii offered to callers. Smaller
// radii give more field-level accuracy.
var AllowedRadiiKm = []float64{0.5, 1, 2}

// Sentinel errors for the two caller-visible failure outcomes. Both are
// reported explicitly and never silently defaulted to a "no damage"
// assessment.
var (
	// ErrInvalidWindow rejects malformed or overlapping time windows before
	// any backend call is made.
	ErrInvalidWindow = errors.New("invalid time window")

	// ErrInsufficientData means no usable satellite data existed for the
	// request, so there was no basis for judgment at all. Distinct from a
	// low-confidence "no signal" assessment, which means data existed but
	// showed no change.
	ErrInsufficientData = errors.New("no usable satellite data")
)

// AreaOfInterest is the circular ground footprint analyzed: a center point
// and a radius from AllowedRadiiKm. Immutable once constructed.
type AreaOfInterest struct {
	Lat      float64
	Lon      float64
	RadiusKm float64
}

// NewAreaOfInterest validates coordinates and the radius against the fixed set.
func NewAreaOfInterest(lat, lon, radiusKm float64) (AreaOfInterest, error) {
	if lat < -90 || lat > 90 {
		return AreaOfInterest{}, fmt.Errorf("latitude %v out of range [-90, 90]", lat)
	}
	if lon < -180 || lon > 180 {
		return AreaOfInterest{}, fmt.Errorf("longitude %v out of range [-180, 180]", lon)
	}
	for _, r := range AllowedRadiiKm {
		if radiusKm == r {
			return AreaOfInterest{Lat: lat, Lon: lon, RadiusKm: radiusKm}, nil
		}
	}
	return AreaOfInterest{}, fmt.Errorf("radius %v km not in allowed set %v", radiusKm, AllowedRadiiKm)
}

// TimeWindow is a [Start, End) acquisition interval.
type TimeWindow struct {
	Start time.Time
	End   time.Time
}

// Validate checks that the window is well ordered.
func (w TimeWindow) Validate() error {
	if !w.Start.Before(w.End) {
		return fmt.Errorf("%w: start %s is not before end %s",
			ErrInvalidWindow, w.Start.Format(time.DateOnly), w.End.Format(time.DateOnly))
	}
	return nil
}

// ValidateWindows checks both windows and the cross-window invariant: the
// event window must start strictly after the baseline window ends.
func ValidateWindows(baseline, event TimeWindow) error {
	if err := baseline.Validate(); err != nil {
		return fmt.Errorf("baseline window: %w", err)
	}
	if err := event.Validate(); err != nil {
		return fmt.Errorf("event window: %w", err)
	}
	if !event.Start.After(baseline.End) {
		return fmt.Errorf("%w: event window must start after the baseline window ends (baseline end %s, event start %s)",
			ErrInvalidWindow, baseline.End.Format(time.DateOnly), event.Start.Format(time.DateOnly))
	}
	return nil
}

// AnalysisRequest is one damage verification run: what happened, where, and
// which before/after windows to compare.
type AnalysisRequest struct {
	EventType EventType
	AOI       AreaOfInterest
	Baseline  TimeWindow
	Event     TimeWindow
}

// Validate rejects malformed requests before any backend call.
func (r AnalysisRequest) Validate() error {
	if _, err := ParseEventType(string(r.EventType)); err != nil {
		return err
	}
	if _, err := NewAreaOfInterest(r.AOI.Lat, r.AOI.Lon, r.AOI.RadiusKm); err != nil {
		return err
	}
	return ValidateWindows(r.Baseline, r.Event)
}

// ID produces a deterministic identifier from the request's key fields, so
// reruns of the same request yield the same assessment ID.
func (r AnalysisRequest) ID() string {
	input := fmt.Sprintf("%s|%.6f|%.6f|%g|%s|%s|%s|%s",
		r.EventType, r.AOI.Lat, r.AOI.Lon, r.AOI.RadiusKm,
		r.Baseline.Start.Format(time.DateOnly), r.Baseline.End.Format(time.DateOnly),
		r.Event.Start.Format(time.DateOnly), r.Event.End.Format(time.DateOnly),
	)
	hash := sha256.Sum256([]byte(input))
	return string(r.EventType) + "-" + hex.EncodeToString(hash[:8])
}

// Composite is one aggregated observation of the AOI for a sensor over a time
// window. Means holds the AOI-mean value per derived output band; bands the
// backend could not resolve (fully masked AOI) are simply missing. An absent
// composite is represented by a nil *Composite at the call sites.
// Composites are produced fresh per request and never cached across runs.
type Composite struct {
	Sensor Sensor
	Window TimeWindow
	Means  map[string]float64
}

// Mean looks up the AOI mean for one output band. The second return reports
// whether the band was resolved.
func (c *Composite) Mean(band string) (float64, bool) {
	if c == nil {
		return 0, false
	}
	v, ok := c.Means[band]
	return v, ok
}

// IndexValue pairs an index name with its optional AOI-mean value. A nil
// Value means the signal could not be observed; absence is a valid state,
// not an error.
type IndexValue struct {
	Index string   `json:"index"`
	Value *float64 `json:"value,omitempty"`
}

// Defined reports whether the value was observed.
func (v IndexValue) Defined() bool { return v.Value != nil }

// ChangeRecord captures the before→after change in one index's AOI mean.
// Delta is defined if and only if both operands are defined.
type ChangeRecord struct {
	Index  string     `json:"index"`
	Before IndexValue `json:"before"`
	After  IndexValue `json:"after"`
	Delta  *float64   `json:"delta,omitempty"`
}

// Assessment is the immutable result of one analysis run.
type Assessment struct {
	ID          string         `json:"id"`
	EventType   EventType      `json:"event_type"`
	Label       string         `json:"label"`
	Confidence  Confidence     `json:"confidence"`
	Explanation string         `json:"explanation"`
	Deltas      []ChangeRecord `json:"supporting_deltas"`
	GeneratedAt time.Time      `json:"generated_at"`
}

// Delta returns the change record for the named index, if present.
func (a Assessment) Delta(index string) (ChangeRecord, bool) {
	for _, rec := range a.Deltas {
		if rec.Index == index {
			return rec, true
		}
	}
	return ChangeRecord{}, false
}
