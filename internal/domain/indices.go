package domain

// Named index outputs tracked by the change engine.
const (
	IndexNDVI  = "ndvi"
	IndexNDWI  = "ndwi"
	IndexSARVV = "sar_vv"
)

// IndexSpec names the inputs of one derived index layer. For a normalized
// difference the backend computes (BandA − BandB) / (BandA + BandB) per pixel
// before reducing; when BandB is empty the single band is used as-is.
type IndexSpec struct {
	Name   string
	Sensor Sensor
	BandA  string
	BandB  string
	Unit   string // display unit, empty for dimensionless ratios
}

// NormalizedDifference reports whether the index is a two-band ratio.
func (s IndexSpec) NormalizedDifference() bool { return s.BandB != "" }

// The three index layers the system tracks. Sentinel-2 band names follow the
// L2A product (B03 green, B04 red, B08 NIR); VV is the Sentinel-1
// co-polarised backscatter channel.
var (
	SpecNDVI  = IndexSpec{Name: IndexNDVI, Sensor: SensorOptical, BandA: "B08", BandB: "B04"}
	SpecNDWI  = IndexSpec{Name: IndexNDWI, Sensor: SensorOptical, BandA: "B03", BandB: "B08"}
	SpecSARVV = IndexSpec{Name: IndexSARVV, Sensor: SensorRadar, BandA: "VV", Unit: "dB"}
)

// AllIndices returns every index layer the system derives, across sensors.
func AllIndices() []IndexSpec {
	return []IndexSpec{SpecNDVI, SpecNDWI, SpecSARVV}
}

// requiredIndices maps each event type to the index layers its rule table
// reads. Adding an event type means adding a row here and in ruleTables.
var requiredIndices = map[EventType][]IndexSpec{
	EventFlood:   {SpecSARVV, SpecNDWI},
	EventDrought: {SpecNDVI},
	EventCyclone: {SpecSARVV, SpecNDVI},
}

// RequiredIndices returns the index specs an event type's classification
// reads, in rule-table order.
func RequiredIndices(et EventType) []IndexSpec {
	specs := requiredIndices[et]
	out := make([]IndexSpec, len(specs))
	copy(out, specs)
	return out
}

// IndicesForSensor filters specs down to one sensor, preserving order.
func IndicesForSensor(specs []IndexSpec, sensor Sensor) []IndexSpec {
	var out []IndexSpec
	for _, s := range specs {
		if s.Sensor == sensor {
			out = append(out, s)
		}
	}
	return out
}

// SensorsFor returns the distinct sensors the specs draw from, in first-use order.
func SensorsFor(specs []IndexSpec) []Sensor {
	var out []Sensor
	seen := make(map[Sensor]bool, 2)
	for _, s := range specs {
		if !seen[s.Sensor] {
			seen[s.Sensor] = true
			out = append(out, s.Sensor)
		}
	}
	return out
}

// displayNames maps index names to the wording used in explanations.
var displayNames = map[string]string{
	IndexNDVI:  "NDVI",
	IndexNDWI:  "NDWI",
	IndexSARVV: "SAR VV backscatter",
}

// DisplayName returns the human-readable name of an index.
func DisplayName(index string) string {
	if n, ok := displayNames[index]; ok {
		return n
	}
	return index
}
