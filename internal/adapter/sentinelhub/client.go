// Package sentinelhub implements the geospatial backend against the
// Copernicus Dataspace Sentinel Hub Statistical API. One statistics request
// per sensor and window returns the AOI-mean of each derived index layer,
// which covers both backend capabilities the engine needs: composite
// aggregation and spatial reduction.
package sentinelhub

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"github.com/paulmach/orb/geojson"
	"golang.org/x/oauth2/clientcredentials"

	"github.com/cropsight/crop-damage-verifier/internal/config"
	"github.com/cropsight/crop-damage-verifier/internal/domain"
	"github.com/cropsight/crop-damage-verifier/internal/observability"
)

// Client talks to the Sentinel Hub Statistical API. It implements
// analysis.Backend.
type Client struct {
	httpClient    *http.Client
	baseURL       string
	maxCloudCover int
	logger        *slog.Logger
	metrics       *observability.Metrics
}

// NewClient creates a Statistical API client authenticated with OAuth2
// client credentials. Token refresh is handled by the oauth2 transport.
func NewClient(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) *Client {
	oauth := &clientcredentials.Config{
		ClientID:     cfg.SHClientID,
		ClientSecret: cfg.SHClientSecret,
		TokenURL:     cfg.SHTokenURL,
	}
	return &Client{
		httpClient:    oauth.Client(context.Background()),
		baseURL:       cfg.SHBaseURL,
		maxCloudCover: cfg.SHMaxCloudCover,
		logger:        logger,
		metrics:       metrics,
	}
}

// collection names per sensor, Copernicus Dataspace catalog.
var collections = map[domain.Sensor]string{
	domain.SensorOptical: "sentinel-2-l2a",
	domain.SensorRadar:   "sentinel-1-grd",
}

// GetComposite aggregates the sensor's acquisitions over the window into one
// composite of per-index AOI means. It returns nil when the window holds no
// qualifying acquisitions or no unmasked pixels.
func (c *Client) GetComposite(ctx context.Context, aoi domain.AreaOfInterest, window domain.TimeWindow, sensor domain.Sensor) (*domain.Composite, error) {
	specs := domain.IndicesForSensor(domain.AllIndices(), sensor)
	if len(specs) == 0 {
		return nil, fmt.Errorf("no index layers defined for sensor %q", sensor)
	}

	payload := c.buildRequest(aoi, window, sensor, specs)
	resp, err := c.doRequest(ctx, sensor, payload)
	if err != nil {
		return nil, err
	}

	if len(resp.Data) == 0 {
		c.metrics.BackendRequests.WithLabelValues(string(sensor), "empty").Inc()
		return nil, nil
	}

	means := make(map[string]float64, len(specs))
	for _, spec := range specs {
		if mean, ok := resp.Data[0].mean(spec.Name); ok {
			means[spec.Name] = mean
		}
	}
	if len(means) == 0 {
		// Acquisitions existed but every pixel was masked out.
		c.metrics.BackendRequests.WithLabelValues(string(sensor), "empty").Inc()
		return nil, nil
	}

	c.metrics.BackendRequests.WithLabelValues(string(sensor), "success").Inc()
	return &domain.Composite{Sensor: sensor, Window: window, Means: means}, nil
}

// SpatialMean reads the AOI mean of one derived band out of a composite. The
// statistics response already carries the reduction, so this is a lookup; a
// missing band yields an absent value, not an error.
func (c *Client) SpatialMean(_ context.Context, comp *domain.Composite, band string) (*float64, error) {
	v, ok := comp.Mean(band)
	if !ok {
		return nil, nil
	}
	return &v, nil
}

func (c *Client) buildRequest(aoi domain.AreaOfInterest, window domain.TimeWindow, sensor domain.Sensor, specs []domain.IndexSpec) statsRequest {
	filter := dataFilter{}
	switch sensor {
	case domain.SensorOptical:
		filter.MaxCloudCoverage = &c.maxCloudCover
	case domain.SensorRadar:
		filter.AcquisitionMode = "IW"
		filter.Polarization = "DV"
		filter.OrbitDirection = "DESCENDING"
	}

	return statsRequest{
		Input: statsInput{
			Bounds: statsBounds{Geometry: aoiGeometry(aoi)},
			Data: []statsData{{
				Type:       collections[sensor],
				DataFilter: filter,
			}},
		},
		Aggregation: statsAggregation{
			TimeRange: timeRange{
				From: window.Start.UTC().Format(time.RFC3339),
				To:   window.End.UTC().Format(time.RFC3339),
			},
			AggregationInterval: aggregationInterval{Of: singleInterval(window)},
			Width:               512,
			Height:              512,
			Evalscript:          buildEvalscript(specs),
		},
	}
}

// singleInterval sizes the aggregation interval to span the whole window, so
// the response carries exactly one aggregate.
func singleInterval(window domain.TimeWindow) string {
	days := int(window.End.Sub(window.Start).Hours()/24) + 1
	if days < 1 {
		days = 1
	}
	return fmt.Sprintf("P%dD", days)
}

func (c *Client) doRequest(ctx context.Context, sensor domain.Sensor, payload statsRequest) (*statsResponse, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("marshal statistics request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/statistics", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("create statistics request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.BackendRequestDuration.WithLabelValues(string(sensor)).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.BackendRequests.WithLabelValues(string(sensor), "error").Inc()
		return nil, fmt.Errorf("%s statistics request: %w", sensor, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		c.metrics.BackendRequests.WithLabelValues(string(sensor), "error").Inc()
		respBody, _ := io.ReadAll(resp.Body)
		return nil, fmt.Errorf("sentinel hub API error: status %d: %s", resp.StatusCode, respBody)
	}

	var stats statsResponse
	if err := json.NewDecoder(resp.Body).Decode(&stats); err != nil {
		c.metrics.BackendRequests.WithLabelValues(string(sensor), "error").Inc()
		return nil, fmt.Errorf("decode statistics response: %w", err)
	}
	return &stats, nil
}

// Statistical API request types.

type statsRequest struct {
	Input       statsInput       `json:"input"`
	Aggregation statsAggregation `json:"aggregation"`
}

type statsInput struct {
	Bounds statsBounds `json:"bounds"`
	Data   []statsData `json:"data"`
}

type statsBounds struct {
	Geometry *geojson.Geometry `json:"geometry"`
}

type statsData struct {
	Type       string     `json:"type"`
	DataFilter dataFilter `json:"dataFilter"`
}

type dataFilter struct {
	MaxCloudCoverage *int   `json:"maxCloudCoverage,omitempty"`
	AcquisitionMode  string `json:"acquisitionMode,omitempty"`
	Polarization     string `json:"polarization,omitempty"`
	OrbitDirection   string `json:"orbitDirection,omitempty"`
}

type statsAggregation struct {
	TimeRange           timeRange           `json:"timeRange"`
	AggregationInterval aggregationInterval `json:"aggregationInterval"`
	Width               int                 `json:"width"`
	Height              int                 `json:"height"`
	Evalscript          string              `json:"evalscript"`
}

type timeRange struct {
	From string `json:"from"`
	To   string `json:"to"`
}

type aggregationInterval struct {
	Of string `json:"of"`
}

// Statistical API response types.

type statsResponse struct {
	Data []statsIntervalResult `json:"data"`
}

type statsIntervalResult struct {
	Interval timeRange              `json:"interval"`
	Outputs  map[string]statsOutput `json:"outputs"`
}

// mean extracts the AOI mean of one evalscript output, reporting false when
// the output is missing or every pixel in the interval was masked.
func (r statsIntervalResult) mean(output string) (float64, bool) {
	out, ok := r.Outputs[output]
	if !ok {
		return 0, false
	}
	band, ok := out.Bands["B0"]
	if !ok {
		return 0, false
	}
	stats := band.Stats
	if stats.Mean == nil || stats.SampleCount == 0 || stats.SampleCount == stats.NoDataCount {
		return 0, false
	}
	return *stats.Mean, true
}

type statsOutput struct {
	Bands map[string]statsBand `json:"bands"`
}

type statsBand struct {
	Stats bandStats `json:"stats"`
}

type bandStats struct {
	Min         *float64 `json:"min"`
	Max         *float64 `json:"max"`
	Mean        *float64 `json:"mean"`
	SampleCount int64    `json:"sampleCount"`
	NoDataCount int64    `json:"noDataCount"`
}
