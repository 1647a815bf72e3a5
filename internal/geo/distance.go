// Package geo holds the location helpers used by listing intake and
// search: a distance approximation and the building-name geocoder.
package geo

import "math"

// EarthRadiusKm is the mean Earth radius used by DistanceKm.
const EarthRadiusKm = 6371.0

// DistanceKm approximates the distance between two coordinates with
// the equirectangular projection.  It is accurate enough for ranking
// listings within a city and is symmetric in its arguments.
func DistanceKm(lat1, lon1, lat2, lon2 float64) float64 {
	rlat1 := lat1 * math.Pi / 180
	rlat2 := lat2 * math.Pi / 180
	rlon1 := lon1 * math.Pi / 180
	rlon2 := lon2 * math.Pi / 180

	x := (rlon2 - rlon1) * math.Cos((rlat1+rlat2)/2)
	y := rlat2 - rlat1
	return EarthRadiusKm * math.Sqrt(x*x+y*y)
}

// Round2 rounds a distance to two decimals for display.
func Round2(v float64) float64 {
	return math.Round(v*100) / 100
}
