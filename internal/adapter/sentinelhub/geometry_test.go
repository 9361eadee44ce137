package sentinelhub

import (
	"testing"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/planar"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cropsight/crop-damage-verifier/internal/domain"
)

func TestAOIPolygon(t *testing.T) {
	aoi := domain.AreaOfInterest{Lat: 26.2, Lon: 91.7, RadiusKm: 2}
	poly := aoiPolygon(aoi)

	require.Len(t, poly, 1)
	ring := poly[0]
	require.Len(t, ring, circleSegments+1)
	assert.Equal(t, ring[0], ring[len(ring)-1], "ring must be closed")

	center := orb.Point{aoi.Lon, aoi.Lat}
	for _, p := range ring[:len(ring)-1] {
		d := geo.Distance(center, p)
		assert.InDelta(t, 2000, d, 20, "vertices should sit on the buffer circle")
	}

	assert.True(t, planar.RingContains(ring, center), "center must be inside the buffer")
}

func TestAOIGeometryIsPolygon(t *testing.T) {
	g := aoiGeometry(domain.AreaOfInterest{Lat: 26.2, Lon: 91.7, RadiusKm: 0.5})
	assert.Equal(t, "Polygon", g.Type)
}
