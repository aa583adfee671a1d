package geo

import "math"

const (
	earthRadiusM = 6371000.0

	// Flat-degree approximation used for the cheap bounding-box rejection
	// before the exact great-circle check.
	metersPerDegree = 111000.0
)

// HaversineM returns the great-circle distance in meters between two
// WGS 84 coordinates.
func HaversineM(lat1, lon1, lat2, lon2 float64) float64 {
	phi1 := lat1 * math.Pi / 180
	phi2 := lat2 * math.Pi / 180
	dPhi := (lat2 - lat1) * math.Pi / 180
	dLambda := (lon2 - lon1) * math.Pi / 180

	a := math.Sin(dPhi/2)*math.Sin(dPhi/2) +
		math.Cos(phi1)*math.Cos(phi2)*math.Sin(dLambda/2)*math.Sin(dLambda/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))
	return earthRadiusM * c
}

// WithinBoundingBox reports whether (lat, lon) falls inside the square that
// circumscribes the circle at (centerLat, centerLon) with the given radius.
// False means the point is certainly outside the circle; true means the
// exact distance check is still required.
func WithinBoundingBox(lat, lon, centerLat, centerLon, radiusM float64) bool {
	dLat := radiusM / metersPerDegree

	cosLat := math.Cos(centerLat * math.Pi / 180)
	if cosLat < 0.01 {
		// Near the poles longitude degrees degenerate; skip the rejection.
		return true
	}
	dLon := radiusM / (metersPerDegree * cosLat)

	return math.Abs(lat-centerLat) <= dLat && math.Abs(lon-centerLon) <= dLon
}
