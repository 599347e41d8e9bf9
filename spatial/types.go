// Copyright 2025 The Palytt Authors
//
// SPDX-License-Identifier: Apache-2.0
package spatial

import (
	"database/sql/driver"
	"fmt"
	"math"
)

const earthRadius = 6371e3 // meters

// Point represents a geographical point with latitude and longitude.
type Point struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// String returns a string representation of the Point.
func (p Point) String() string {
	return fmt.Sprintf("POINT(%f %f)", p.Lng, p.Lat)
}

// IsFinite reports whether both coordinates are finite numbers.
func (p Point) IsFinite() bool {
	return !math.IsNaN(p.Lat) && !math.IsInf(p.Lat, 0) &&
		!math.IsNaN(p.Lng) && !math.IsInf(p.Lng, 0)
}

// Value implements the driver.Valuer interface for database serialization.
func (p Point) Value() (driver.Value, error) {
	return p.String(), nil
}

// Scan implements the sql.Scanner interface for database deserialization.
func (p *Point) Scan(value interface{}) error {
	if value == nil {
		p.Lat, p.Lng = 0, 0

		return nil
	}

	switch v := value.(type) {
	case []byte:
		// The format from DuckDB is "POINT (lng lat)"
		_, err := fmt.Sscanf(string(v), "POINT (%f %f)", &p.Lng, &p.Lat)

		return err
	case map[string]interface{}:
		x, okX := v["x"].(float64)
		y, okY := v["y"].(float64)

		if !okX || !okY {
			return fmt.Errorf("spatial: invalid map for point: expected 'x' and 'y' float64 fields, got %+v", v)
		}

		p.Lng = x
		p.Lat = y

		return nil
	default:
		return fmt.Errorf("spatial: unsupported type for Point scan: %T", value)
	}
}

// Bounds is a latitude/longitude axis-aligned bounding box, as reported by a
// map viewport. Boxes crossing the antimeridian are not supported.
type Bounds struct {
	MinLat float64 `json:"min_lat"`
	MinLng float64 `json:"min_lng"`
	MaxLat float64 `json:"max_lat"`
	MaxLng float64 `json:"max_lng"`
}

// Validate checks that the bounds describe a well-formed box.
func (b Bounds) Validate() error {
	for _, v := range []float64{b.MinLat, b.MinLng, b.MaxLat, b.MaxLng} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("spatial: bounds coordinate is not finite: %+v", b)
		}
	}

	if b.MinLat < -90 || b.MaxLat > 90 || b.MinLng < -180 || b.MaxLng > 180 {
		return fmt.Errorf("spatial: bounds outside world limits: %+v", b)
	}

	if b.MinLat > b.MaxLat || b.MinLng > b.MaxLng {
		return fmt.Errorf("spatial: bounds min exceeds max: %+v", b)
	}

	return nil
}

// Contains reports whether the point falls inside the box (inclusive edges).
func (b Bounds) Contains(p Point) bool {
	return p.Lat >= b.MinLat && p.Lat <= b.MaxLat &&
		p.Lng >= b.MinLng && p.Lng <= b.MaxLng
}

// HaversineDistance calculates the distance between two points on Earth in meters.
func (p *Point) HaversineDistance(other *Point) float64 {
	lat1 := p.Lat * math.Pi / 180
	lat2 := other.Lat * math.Pi / 180
	dLat := (other.Lat - p.Lat) * math.Pi / 180
	dLng := (other.Lng - p.Lng) * math.Pi / 180

	a := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(lat1)*math.Cos(lat2)*
			math.Sin(dLng/2)*math.Sin(dLng/2)
	c := 2 * math.Atan2(math.Sqrt(a), math.Sqrt(1-a))

	return earthRadius * c
}
