package domain

import (
	"fmt"
	"strings"
)

// comparison is the direction of a threshold check.
type comparison int

const (
	atOrBelow comparison = iota
	atOrAbove
	magnitudeAtOrAbove
)

// condition is one threshold check against a named delta. A condition whose
// delta is undefined never holds; the rule referencing it is skipped, not
// evaluated against zero.
type condition struct {
	index     string
	cmp       comparison
	threshold float64
}

func (c condition) holds(delta float64) bool {
	switch c.cmp {
	case atOrBelow:
		return delta <= c.threshold
	case atOrAbove:
		return delta >= c.threshold
	case magnitudeAtOrAbove:
		return delta >= c.threshold || delta <= -c.threshold
	default:
		return false
	}
}

// describe renders the fired check with the numeric delta actually used, so
// the assessment is auditable.
func (c condition) describe(delta float64) string {
	name := DisplayName(c.index)
	switch c.cmp {
	case atOrBelow:
		return fmt.Sprintf("%s changed by %s, at or below the %s threshold",
			name, formatDelta(c.index, delta), formatDelta(c.index, c.threshold))
	case atOrAbove:
		return fmt.Sprintf("%s changed by %s, at or above the %s threshold",
			name, formatDelta(c.index, delta), formatDelta(c.index, c.threshold))
	case magnitudeAtOrAbove:
		return fmt.Sprintf("%s changed by %s, magnitude at or above %s",
			name, formatDelta(c.index, delta), formatMagnitude(c.index, c.threshold))
	default:
		return name
	}
}

// rule is one row of an event type's decision table. All conditions must hold
// for the rule to fire.
type rule struct {
	conditions []condition
	label      string
	confidence Confidence
}

// eval checks the rule against the resolved deltas. It returns false without
// phrases when any referenced delta is undefined or any condition fails.
func (r rule) eval(deltas map[string]*float64) (bool, []string) {
	phrases := make([]string, 0, len(r.conditions))
	for _, c := range r.conditions {
		d := deltas[c.index]
		if d == nil || !c.holds(*d) {
			return false, nil
		}
		phrases = append(phrases, c.describe(*d))
	}
	return true, phrases
}

// ruleTable is the full decision table for one event type: ordered rules, a
// default no-signal row, and optionally indices whose absence short-circuits
// to an explicit insufficient-data outcome.
type ruleTable struct {
	requireDefined    []string
	insufficientLabel string
	rules             []rule
	defaultLabel      string
}

// ruleTables drives classification. Rule order within a table is load-bearing:
// for floods, radar evidence is checked before the optical water index because
// radar penetrates cloud and is authoritative during active flood events.
// Adding an event type means adding a row here and in requiredIndices.
var ruleTables = map[EventType]ruleTable{
	EventFlood: {
		rules: []rule{
			// A backscatter drop marks smooth open water; a rise marks flooded
			// standing vegetation (specular-to-volume scattering change).
			{[]condition{{IndexSARVV, atOrBelow, -3.0}}, "Open water flooding detected", ConfidenceHigh},
			{[]condition{{IndexSARVV, atOrAbove, 1.0}}, "Flooded standing crops detected", ConfidenceHigh},
			{[]condition{{IndexNDWI, atOrAbove, 0.15}}, "Surface water / waterlogging detected", ConfidenceMedium},
		},
		defaultLabel: "No strong flood signal detected",
	},
	EventDrought: {
		// An unresolved NDVI delta must surface as insufficient data rather
		// than fall through to a no-signal result, which would conflate "no
		// change" with "no data".
		requireDefined:    []string{IndexNDVI},
		insufficientLabel: "Insufficient optical data for drought assessment",
		rules: []rule{
			{[]condition{{IndexNDVI, atOrBelow, -0.2}}, "Drought stress detected", ConfidenceHigh},
			{[]condition{{IndexNDVI, atOrBelow, -0.1}}, "Early vegetation stress", ConfidenceMedium},
		},
		defaultLabel: "No drought signal detected",
	},
	EventCyclone: {
		rules: []rule{
			{[]condition{
				{IndexSARVV, magnitudeAtOrAbove, 2.0},
				{IndexNDVI, atOrBelow, -0.2},
			}, "Cyclone-related crop damage likely", ConfidenceHigh},
			{[]condition{{IndexNDVI, atOrBelow, -0.15}}, "Vegetation damage possible", ConfidenceMedium},
		},
		defaultLabel: "No strong cyclone damage detected",
	},
}

// Classify maps resolved change records to an assessment using the event
// type's decision table. It is a pure function of the deltas: re-evaluating
// the same records always yields the same label, confidence, and explanation.
func Classify(et EventType, records []ChangeRecord) (Assessment, error) {
	table, ok := ruleTables[et]
	if !ok {
		return Assessment{}, fmt.Errorf("no classification rules for event type %q", et)
	}

	deltas := DeltasByIndex(records)
	asmt := Assessment{
		EventType:   et,
		Deltas:      records,
		GeneratedAt: clock.Now(),
	}

	for _, index := range table.requireDefined {
		if deltas[index] == nil {
			asmt.Label = table.insufficientLabel
			asmt.Confidence = ConfidenceLow
			asmt.Explanation = fmt.Sprintf(
				"The %s delta could not be resolved from the available imagery, so no %s judgment can be made.",
				DisplayName(index), et)
			return asmt, nil
		}
	}

	for _, r := range table.rules {
		matched, phrases := r.eval(deltas)
		if matched {
			asmt.Label = r.label
			asmt.Confidence = r.confidence
			asmt.Explanation = strings.Join(phrases, "; ") + "."
			return asmt, nil
		}
	}

	asmt.Label = table.defaultLabel
	asmt.Confidence = ConfidenceLow
	asmt.Explanation = describeNoSignal(records)
	return asmt, nil
}

// describeNoSignal summarizes the defined deltas behind a default outcome.
// Undefined deltas are never mentioned as observations.
func describeNoSignal(records []ChangeRecord) string {
	var observed []string
	for _, rec := range records {
		if rec.Delta != nil {
			observed = append(observed, fmt.Sprintf("%s %s", DisplayName(rec.Index), formatDelta(rec.Index, *rec.Delta)))
		}
	}
	if len(observed) == 0 {
		return "No classification threshold was crossed; no index delta could be resolved."
	}
	return "No classification threshold was crossed. Observed changes: " + strings.Join(observed, ", ") + "."
}

func formatDelta(index string, v float64) string {
	if unit := unitFor(index); unit != "" {
		return fmt.Sprintf("%+.2f %s", v, unit)
	}
	return fmt.Sprintf("%+.3f", v)
}

func formatMagnitude(index string, v float64) string {
	if unit := unitFor(index); unit != "" {
		return fmt.Sprintf("%.2f %s", v, unit)
	}
	return fmt.Sprintf("%.3f", v)
}

func unitFor(index string) string {
	for _, specs := range requiredIndices {
		for _, s := range specs {
			if s.Name == index {
				return s.Unit
			}
		}
	}
	return ""
}
