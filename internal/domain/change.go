package domain

// NewChangeRecord pairs the before and after AOI means of one index. The
// delta is after minus before and exists only when both operands exist. No
// clamping, rounding, or unit conversion happens here; rounding for display
// is a presentation concern.
func NewChangeRecord(index string, before, after *float64) ChangeRecord {
	rec := ChangeRecord{
		Index:  index,
		Before: IndexValue{Index: index, Value: before},
		After:  IndexValue{Index: index, Value: after},
	}
	if before != nil && after != nil {
		d := *after - *before
		rec.Delta = &d
	}
	return rec
}

// DeltasByIndex collects the defined deltas keyed by index name. Records with
// undefined deltas are present in the input but yield no entry, so downstream
// rules see them as absent rather than zero.
func DeltasByIndex(records []ChangeRecord) map[string]*float64 {
	deltas := make(map[string]*float64, len(records))
	for _, rec := range records {
		deltas[rec.Index] = rec.Delta
	}
	return deltas
}
