package domain

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func validRequest() AnalysisRequest {
	return AnalysisRequest{
		EventType: EventFlood,
		AOI:       AreaOfInterest{Lat: 26.2, Lon: 91.7, RadiusKm: 1},
		Baseline:  TimeWindow{Start: date(2023, 6, 1), End: date(2023, 6, 20)},
		Event:     TimeWindow{Start: date(2023, 7, 5), End: date(2023, 7, 25)},
	}
}

func TestNewAreaOfInterest(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		aoi, err := NewAreaOfInterest(26.2, 91.7, 0.5)
		require.NoError(t, err)
		assert.Equal(t, 26.2, aoi.Lat)
		assert.Equal(t, 91.7, aoi.Lon)
		assert.Equal(t, 0.5, aoi.RadiusKm)
	})

	t.Run("radius outside fixed set", func(t *testing.T) {
		_, err := NewAreaOfInterest(26.2, 91.7, 3)
		require.Error(t, err)
		assert.Contains(t, err.Error(), "allowed set")
	})

	t.Run("latitude out of range", func(t *testing.T) {
		_, err := NewAreaOfInterest(91, 0, 1)
		require.Error(t, err)
	})

	t.Run("longitude out of range", func(t *testing.T) {
		_, err := NewAreaOfInterest(0, -181, 1)
		require.Error(t, err)
	})
}

func TestValidateWindows(t *testing.T) {
	baseline := TimeWindow{Start: date(2023, 6, 1), End: date(2023, 6, 20)}
	event := TimeWindow{Start: date(2023, 7, 5), End: date(2023, 7, 25)}

	t.Run("valid pair", func(t *testing.T) {
		assert.NoError(t, ValidateWindows(baseline, event))
	})

	t.Run("baseline start not before end", func(t *testing.T) {
		bad := TimeWindow{Start: date(2023, 6, 20), End: date(2023, 6, 1)}
		err := ValidateWindows(bad, event)
		require.ErrorIs(t, err, ErrInvalidWindow)
		assert.Contains(t, err.Error(), "baseline window")
	})

	t.Run("zero-length window", func(t *testing.T) {
		bad := TimeWindow{Start: date(2023, 6, 1), End: date(2023, 6, 1)}
		require.ErrorIs(t, ValidateWindows(bad, event), ErrInvalidWindow)
	})

	t.Run("event overlaps baseline", func(t *testing.T) {
		overlapping := TimeWindow{Start: date(2023, 6, 15), End: date(2023, 7, 25)}
		err := ValidateWindows(baseline, overlapping)
		require.ErrorIs(t, err, ErrInvalidWindow)
		assert.Contains(t, err.Error(), "after the baseline")
	})

	t.Run("event starts exactly at baseline end", func(t *testing.T) {
		adjacent := TimeWindow{Start: date(2023, 6, 20), End: date(2023, 7, 25)}
		require.ErrorIs(t, ValidateWindows(baseline, adjacent), ErrInvalidWindow)
	})
}

func TestAnalysisRequestValidate(t *testing.T) {
	t.Run("valid", func(t *testing.T) {
		assert.NoError(t, validRequest().Validate())
	})

	t.Run("unknown event type", func(t *testing.T) {
		req := validRequest()
		req.EventType = "earthquake"
		require.Error(t, req.Validate())
	})

	t.Run("bad radius", func(t *testing.T) {
		req := validRequest()
		req.AOI.RadiusKm = 10
		require.Error(t, req.Validate())
	})
}

func TestAnalysisRequestID(t *testing.T) {
	req := validRequest()

	t.Run("deterministic", func(t *testing.T) {
		assert.Equal(t, req.ID(), req.ID())
	})

	t.Run("prefixed with event type", func(t *testing.T) {
		assert.True(t, strings.HasPrefix(req.ID(), "flood-"))
	})

	t.Run("changes with any key field", func(t *testing.T) {
		other := validRequest()
		other.AOI.RadiusKm = 2
		assert.NotEqual(t, req.ID(), other.ID())

		other = validRequest()
		other.Event.End = date(2023, 7, 26)
		assert.NotEqual(t, req.ID(), other.ID())
	})
}

func TestCompositeMean(t *testing.T) {
	comp := &Composite{Sensor: SensorOptical, Means: map[string]float64{IndexNDVI: 0.61}}

	v, ok := comp.Mean(IndexNDVI)
	assert.True(t, ok)
	assert.Equal(t, 0.61, v)

	_, ok = comp.Mean(IndexNDWI)
	assert.False(t, ok)

	var absent *Composite
	_, ok = absent.Mean(IndexNDVI)
	assert.False(t, ok)
}

func TestParseEventType(t *testing.T) {
	for _, s := range []string{"flood", "drought", "cyclone"} {
		et, err := ParseEventType(s)
		require.NoError(t, err)
		assert.Equal(t, EventType(s), et)
	}

	_, err := ParseEventType("wildfire")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wildfire")
}
