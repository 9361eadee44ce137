package domain

import "time"

// AssessmentRecord is the flat representation of an assessment handed to the
// result sinks (Kafka topic, CSV audit log, HTTP response). Raw deltas are
// always carried alongside the label, with explicit nulls for unresolved
// signals, so downstream consumers see the evidence and not just the
// conclusion.
type AssessmentRecord struct {
	ID            string     `json:"id" csv:"id"`
	EventType     string     `json:"event_type" csv:"event_type"`
	Lat           float64    `json:"lat" csv:"lat"`
	Lon           float64    `json:"lon" csv:"lon"`
	RadiusKm      float64    `json:"radius_km" csv:"radius_km"`
	BaselineStart string     `json:"baseline_start" csv:"baseline_start"`
	BaselineEnd   string     `json:"baseline_end" csv:"baseline_end"`
	EventStart    string     `json:"event_start" csv:"event_start"`
	EventEnd      string     `json:"event_end" csv:"event_end"`
	NDVIDelta     *float64   `json:"ndvi_delta" csv:"ndvi_delta"`
	NDWIDelta     *float64   `json:"ndwi_delta" csv:"ndwi_delta"`
	SARVVDelta    *float64   `json:"sar_vv_delta" csv:"sar_vv_delta"`
	Label         string     `json:"label" csv:"label"`
	Confidence    Confidence `json:"confidence" csv:"confidence"`
	Explanation   string     `json:"explanation" csv:"explanation"`
	GeneratedAt   time.Time  `json:"generated_at" csv:"generated_at"`
}

// FlattenAssessment assembles the flat record for one completed run.
func FlattenAssessment(req AnalysisRequest, a Assessment) AssessmentRecord {
	rec := AssessmentRecord{
		ID:            a.ID,
		EventType:     string(a.EventType),
		Lat:           req.AOI.Lat,
		Lon:           req.AOI.Lon,
		RadiusKm:      req.AOI.RadiusKm,
		BaselineStart: req.Baseline.Start.Format(time.DateOnly),
		BaselineEnd:   req.Baseline.End.Format(time.DateOnly),
		EventStart:    req.Event.Start.Format(time.DateOnly),
		EventEnd:      req.Event.End.Format(time.DateOnly),
		Label:         a.Label,
		Confidence:    a.Confidence,
		Explanation:   a.Explanation,
		GeneratedAt:   a.GeneratedAt,
	}
	if cr, ok := a.Delta(IndexNDVI); ok {
		rec.NDVIDelta = cr.Delta
	}
	if cr, ok := a.Delta(IndexNDWI); ok {
		rec.NDWIDelta = cr.Delta
	}
	if cr, ok := a.Delta(IndexSARVV); ok {
		rec.SARVVDelta = cr.Delta
	}
	return rec
}
