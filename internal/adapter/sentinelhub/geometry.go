package sentinelhub

import (
	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geo"
	"github.com/paulmach/orb/geojson"

	"github.com/cropsight/crop-damage-verifier/internal/domain"
)

// circleSegments controls how finely the circular AOI is approximated.
const circleSegments = 64

// aoiGeometry renders the circular AOI as a GeoJSON polygon for the request
// bounds.
func aoiGeometry(aoi domain.AreaOfInterest) *geojson.Geometry {
	return geojson.NewGeometry(aoiPolygon(aoi))
}

// aoiPolygon buffers the center point into a closed ring. Vertices are laid
// out counterclockwise to satisfy the GeoJSON winding rule.
func aoiPolygon(aoi domain.AreaOfInterest) orb.Polygon {
	center := orb.Point{aoi.Lon, aoi.Lat}
	radiusMeters := aoi.RadiusKm * 1000

	ring := make(orb.Ring, 0, circleSegments+1)
	for i := 0; i < circleSegments; i++ {
		bearing := -360.0 * float64(i) / circleSegments
		ring = append(ring, geo.PointAtBearingAndDistance(center, bearing, radiusMeters))
	}
	ring = append(ring, ring[0])

	return orb.Polygon{ring}
}
