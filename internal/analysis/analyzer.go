// Package analysis orchestrates a single damage verification run: composite
// retrieval, index resolution, change computation, and classification.
package analysis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/cropsight/crop-damage-verifier/internal/domain"
	"github.com/cropsight/crop-damage-verifier/internal/observability"
)

// Backend is the geospatial adapter the engine consumes. It is treated as an
// opaque capability: implementations own acquisition filtering (cloud cover,
// orbit constraints) and the reduction math.
type Backend interface {
	// GetComposite returns an aggregated composite for the sensor over the
	// window, or nil when the window holds zero qualifying acquisitions.
	GetComposite(ctx context.Context, aoi domain.AreaOfInterest, window domain.TimeWindow, sensor domain.Sensor) (*domain.Composite, error)

	// SpatialMean reduces one of the composite's derived output bands to its
	// AOI mean. A nil value means the band could not be resolved (for
	// example, a fully masked AOI).
	SpatialMean(ctx context.Context, comp *domain.Composite, band string) (*float64, error)
}

// Analyzer runs before–after change detection against a backend. It holds no
// per-run state; concurrent runs are independent.
type Analyzer struct {
	backend Backend
	timeout time.Duration
	logger  *slog.Logger
	metrics *observability.Metrics
}

// New creates an Analyzer. timeout bounds each individual backend call.
func New(backend Backend, timeout time.Duration, logger *slog.Logger, metrics *observability.Metrics) *Analyzer {
	return &Analyzer{
		backend: backend,
		timeout: timeout,
		logger:  logger,
		metrics: metrics,
	}
}

// CheckReadiness reports whether the analyzer can serve runs. The engine is
// stateless, so it is ready as soon as it has a backend.
func (a *Analyzer) CheckReadiness(_ context.Context) error {
	if a.backend == nil {
		return errors.New("no satellite backend configured")
	}
	return nil
}

// compositeKey addresses one of the four independent retrievals.
type compositeKey struct {
	sensor domain.Sensor
	after  bool
}

// Run executes one analysis: validate, retrieve composites concurrently,
// difference the indices, classify. It returns domain.ErrInvalidWindow for
// malformed requests and domain.ErrInsufficientData when an entire window has
// no usable imagery across every required sensor.
func (a *Analyzer) Run(ctx context.Context, req domain.AnalysisRequest) (domain.Assessment, error) {
	start := time.Now()

	if err := req.Validate(); err != nil {
		a.metrics.AnalysesTotal.WithLabelValues(string(req.EventType), "invalid_request").Inc()
		return domain.Assessment{}, err
	}

	specs := domain.RequiredIndices(req.EventType)
	sensors := domain.SensorsFor(specs)

	composites := a.retrieveAll(ctx, req, sensors)

	if err := a.checkCoverage(req, sensors, composites); err != nil {
		a.metrics.AnalysesTotal.WithLabelValues(string(req.EventType), "insufficient_data").Inc()
		return domain.Assessment{}, err
	}

	records := make([]domain.ChangeRecord, 0, len(specs))
	for _, spec := range specs {
		before := a.resolveIndex(ctx, composites[compositeKey{spec.Sensor, false}], spec)
		after := a.resolveIndex(ctx, composites[compositeKey{spec.Sensor, true}], spec)
		records = append(records, domain.NewChangeRecord(spec.Name, before, after))
	}

	asmt, err := domain.Classify(req.EventType, records)
	if err != nil {
		return domain.Assessment{}, err
	}
	asmt.ID = req.ID()

	a.metrics.AnalysesTotal.WithLabelValues(string(req.EventType), "completed").Inc()
	a.metrics.AnalysisDuration.Observe(time.Since(start).Seconds())
	a.logger.Info("analysis complete",
		"assessment_id", asmt.ID,
		"event_type", req.EventType,
		"label", asmt.Label,
		"confidence", asmt.Confidence,
	)

	return asmt, nil
}

// retrieveAll issues the independent composite retrievals concurrently (up to
// four: each required sensor for each window) and joins before returning.
func (a *Analyzer) retrieveAll(ctx context.Context, req domain.AnalysisRequest, sensors []domain.Sensor) map[compositeKey]*domain.Composite {
	composites := make(map[compositeKey]*domain.Composite, len(sensors)*2)
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, sensor := range sensors {
		for _, side := range []struct {
			window domain.TimeWindow
			after  bool
		}{
			{req.Baseline, false},
			{req.Event, true},
		} {
			g.Go(func() error {
				comp := a.retrieve(gctx, req.AOI, side.window, sensor)
				mu.Lock()
				composites[compositeKey{sensor, side.after}] = comp
				mu.Unlock()
				return nil
			})
		}
	}
	// Workers never return errors; retrieval failure degrades to an absent
	// composite for that slot.
	_ = g.Wait()

	return composites
}

// retrieve fetches one composite under the per-call deadline. Backend
// failures are logged and degraded to absence so the run continues with
// whatever signals remain.
func (a *Analyzer) retrieve(ctx context.Context, aoi domain.AreaOfInterest, window domain.TimeWindow, sensor domain.Sensor) *domain.Composite {
	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	comp, err := a.backend.GetComposite(ctx, aoi, window, sensor)
	if err != nil {
		a.logger.Warn("composite retrieval failed, treating as absent",
			"sensor", sensor,
			"window_start", window.Start.Format(time.DateOnly),
			"window_end", window.End.Format(time.DateOnly),
			"error", err,
		)
		a.metrics.CompositesAbsent.WithLabelValues(string(sensor)).Inc()
		return nil
	}
	if comp == nil {
		a.logger.Info("no qualifying acquisitions for window",
			"sensor", sensor,
			"window_start", window.Start.Format(time.DateOnly),
			"window_end", window.End.Format(time.DateOnly),
		)
		a.metrics.CompositesAbsent.WithLabelValues(string(sensor)).Inc()
	}
	return comp
}

// checkCoverage enforces the no-basis-for-judgment rule: if every required
// sensor's baseline composite is absent, or every event composite is absent,
// classification must not run at all.
func (a *Analyzer) checkCoverage(req domain.AnalysisRequest, sensors []domain.Sensor, composites map[compositeKey]*domain.Composite) error {
	for _, side := range []struct {
		name  string
		after bool
	}{
		{"baseline", false},
		{"event", true},
	} {
		any := false
		for _, sensor := range sensors {
			if composites[compositeKey{sensor, side.after}] != nil {
				any = true
				break
			}
		}
		if !any {
			return fmt.Errorf("%w: no imagery for the %s window across any required sensor for %s analysis",
				domain.ErrInsufficientData, side.name, req.EventType)
		}
	}
	return nil
}

// resolveIndex reduces one index layer to its AOI mean. An absent composite
// short-circuits without touching the backend; reduction failure degrades to
// an absent value.
func (a *Analyzer) resolveIndex(ctx context.Context, comp *domain.Composite, spec domain.IndexSpec) *float64 {
	if comp == nil {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, a.timeout)
	defer cancel()

	v, err := a.backend.SpatialMean(ctx, comp, spec.Name)
	if err != nil {
		a.logger.Warn("spatial mean failed, treating index as absent",
			"index", spec.Name,
			"sensor", spec.Sensor,
			"error", err,
		)
		return nil
	}
	return v
}
