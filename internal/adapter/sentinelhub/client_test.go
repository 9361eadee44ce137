package sentinelhub

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cropsight/crop-damage-verifier/internal/domain"
	"github.com/cropsight/crop-damage-verifier/internal/observability"
)

func testClient(baseURL string) *Client {
	return &Client{
		httpClient:    &http.Client{Timeout: 5 * time.Second},
		baseURL:       baseURL,
		maxCloudCover: 60,
		logger:        slog.New(slog.NewTextHandler(io.Discard, nil)),
		metrics:       observability.NewMetricsForTesting(),
	}
}

func testAOI() domain.AreaOfInterest {
	return domain.AreaOfInterest{Lat: 26.2, Lon: 91.7, RadiusKm: 1}
}

func testWindow() domain.TimeWindow {
	return domain.TimeWindow{
		Start: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, 6, 20, 0, 0, 0, 0, time.UTC),
	}
}

func meanStats(mean float64) statsOutput {
	return statsOutput{Bands: map[string]statsBand{
		"B0": {Stats: bandStats{Mean: &mean, SampleCount: 1000, NoDataCount: 12}},
	}}
}

func singleIntervalResponse(outputs map[string]statsOutput) statsResponse {
	return statsResponse{Data: []statsIntervalResult{{
		Interval: timeRange{From: "2023-06-01T00:00:00Z", To: "2023-06-20T00:00:00Z"},
		Outputs:  outputs,
	}}}
}

func TestGetComposite_Optical(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/api/v1/statistics", r.URL.Path)

		var req statsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Input.Data, 1)
		assert.Equal(t, "sentinel-2-l2a", req.Input.Data[0].Type)
		require.NotNil(t, req.Input.Data[0].DataFilter.MaxCloudCoverage)
		assert.Equal(t, 60, *req.Input.Data[0].DataFilter.MaxCloudCoverage)
		assert.Equal(t, "2023-06-01T00:00:00Z", req.Aggregation.TimeRange.From)
		assert.Equal(t, "P20D", req.Aggregation.AggregationInterval.Of)
		assert.Contains(t, req.Aggregation.Evalscript, "ndvi")
		assert.Contains(t, req.Aggregation.Evalscript, "ndwi")
		assert.Equal(t, "Polygon", req.Input.Bounds.Geometry.Type)

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(singleIntervalResponse(map[string]statsOutput{
			"ndvi": meanStats(0.62),
			"ndwi": meanStats(-0.11),
		})))
	}))
	defer srv.Close()

	comp, err := testClient(srv.URL).GetComposite(context.Background(), testAOI(), testWindow(), domain.SensorOptical)
	require.NoError(t, err)
	require.NotNil(t, comp)

	assert.Equal(t, domain.SensorOptical, comp.Sensor)
	ndvi, ok := comp.Mean(domain.IndexNDVI)
	assert.True(t, ok)
	assert.Equal(t, 0.62, ndvi)
	ndwi, ok := comp.Mean(domain.IndexNDWI)
	assert.True(t, ok)
	assert.Equal(t, -0.11, ndwi)
}

func TestGetComposite_RadarFilters(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req statsRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		require.Len(t, req.Input.Data, 1)
		assert.Equal(t, "sentinel-1-grd", req.Input.Data[0].Type)
		assert.Equal(t, "IW", req.Input.Data[0].DataFilter.AcquisitionMode)
		assert.Equal(t, "DESCENDING", req.Input.Data[0].DataFilter.OrbitDirection)
		assert.Nil(t, req.Input.Data[0].DataFilter.MaxCloudCoverage)
		assert.Contains(t, req.Aggregation.Evalscript, "sar_vv")

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(singleIntervalResponse(map[string]statsOutput{
			"sar_vv": meanStats(-10.4),
		})))
	}))
	defer srv.Close()

	comp, err := testClient(srv.URL).GetComposite(context.Background(), testAOI(), testWindow(), domain.SensorRadar)
	require.NoError(t, err)
	require.NotNil(t, comp)

	sar, ok := comp.Mean(domain.IndexSARVV)
	assert.True(t, ok)
	assert.Equal(t, -10.4, sar)
}

func TestGetComposite_NoAcquisitionsIsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(statsResponse{}))
	}))
	defer srv.Close()

	comp, err := testClient(srv.URL).GetComposite(context.Background(), testAOI(), testWindow(), domain.SensorOptical)
	require.NoError(t, err)
	assert.Nil(t, comp, "zero qualifying acquisitions must map to an absent composite, not an error")
}

func TestGetComposite_FullyMaskedIsAbsent(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		masked := statsOutput{Bands: map[string]statsBand{
			"B0": {Stats: bandStats{SampleCount: 1000, NoDataCount: 1000}},
		}}
		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(singleIntervalResponse(map[string]statsOutput{
			"ndvi": masked,
			"ndwi": masked,
		})))
	}))
	defer srv.Close()

	comp, err := testClient(srv.URL).GetComposite(context.Background(), testAOI(), testWindow(), domain.SensorOptical)
	require.NoError(t, err)
	assert.Nil(t, comp)
}

func TestGetComposite_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "quota exceeded", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL).GetComposite(context.Background(), testAOI(), testWindow(), domain.SensorRadar)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "429")
}

func TestSpatialMean(t *testing.T) {
	comp := &domain.Composite{
		Sensor: domain.SensorOptical,
		Means:  map[string]float64{domain.IndexNDVI: 0.55},
	}
	c := testClient("http://unused")

	v, err := c.SpatialMean(context.Background(), comp, domain.IndexNDVI)
	require.NoError(t, err)
	require.NotNil(t, v)
	assert.Equal(t, 0.55, *v)

	v, err = c.SpatialMean(context.Background(), comp, domain.IndexNDWI)
	require.NoError(t, err)
	assert.Nil(t, v, "unresolved band is an absent value, not an error")
}

func TestSingleInterval(t *testing.T) {
	assert.Equal(t, "P20D", singleInterval(testWindow()))

	oneDay := domain.TimeWindow{
		Start: time.Date(2023, 6, 1, 0, 0, 0, 0, time.UTC),
		End:   time.Date(2023, 6, 1, 6, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "P1D", singleInterval(oneDay))
}
