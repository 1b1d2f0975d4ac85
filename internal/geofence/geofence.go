// Package geofence validates that a reported coordinate sits within the
// allowed radius around the office.
package geofence

import (
	"fmt"

	"github.com/tidwall/geodesic"
)

// Validator computes the geodesic distance from a reported coordinate to the
// fixed office coordinate. Pure; no persisted state.
type Validator struct {
	Latitude  float64
	Longitude float64
	RadiusKm  float64
}

func New(lat, lng, radiusKm float64) *Validator {
	return &Validator{Latitude: lat, Longitude: lng, RadiusKm: radiusKm}
}

// DistanceKm returns the WGS84 geodesic distance from the given coordinate to
// the office, in kilometers.
func (v *Validator) DistanceKm(lat, lng float64) float64 {
	var meters float64
	geodesic.WGS84.Inverse(v.Latitude, v.Longitude, lat, lng, &meters, nil, nil)
	return meters / 1000
}

// Validate reports whether the coordinate is within the allowed radius, along
// with the measured distance and a human-readable reason when it is not.
func (v *Validator) Validate(lat, lng float64) (ok bool, distanceKm float64, reason string) {
	distanceKm = v.DistanceKm(lat, lng)
	if distanceKm > v.RadiusKm {
		return false, distanceKm, fmt.Sprintf("location is %.2f km from the office (allowed %.2f km)", distanceKm, v.RadiusKm)
	}
	return true, distanceKm, ""
}
