// Copyright 2025 The Palytt Authors
// SPDX-License-Identifier: Apache-2.0

package pinmap

// GeocodingResult represents a geocoding result from any provider.
type GeocodingResult struct {
	Latitude    float64
	Longitude   float64
	Confidence  string // high, medium, low
	Provider    string
	DisplayName string
}

// Geocoder resolves a free-form venue or place description near a city into
// coordinates. Implementations are used by the check-in flow when the app
// sends a place name without coordinates.
type Geocoder interface {
	Geocode(place string, city string) (*GeocodingResult, error)
}
