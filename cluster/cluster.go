// Copyright 2025 The Palytt Authors
// SPDX-License-Identifier: Apache-2.0

// Package cluster groups geotagged map pins into fixed-radius clusters.
//
// The algorithm is a greedy single pass: the first unassigned point seeds a
// cluster, and every later point within radiusMeters of that seed joins it.
// Membership is decided against the seed only, never against other members,
// so clusters do not grow transitively. The result depends on input order;
// callers that need stable output must feed points in a stable order.
//
// Cost is O(n²) over the input. Inputs are per-viewport pin sets (tens to low
// hundreds of points), so a spatial index is not worth the complexity here.
package cluster

import (
	"fmt"
	"math"

	"github.com/palytt/palytt-geo/spatial"
)

// DefaultRadiusMeters is a quarter mile, the pin-grouping distance used by
// the map screen.
const DefaultRadiusMeters = 402.336

// GeoPoint is a single geotagged record submitted for clustering. Weight
// carries the pin's likes count and is only aggregated, never interpreted.
type GeoPoint struct {
	ID     string  `json:"id"`
	Lat    float64 `json:"lat"`
	Lng    float64 `json:"lng"`
	Weight int64   `json:"weight"`
}

// Point returns the record's coordinates as a spatial.Point.
func (g GeoPoint) Point() spatial.Point {
	return spatial.Point{Lat: g.Lat, Lng: g.Lng}
}

// Cluster is one group of the computed partition. Members keeps discovery
// order; Members[0] is the seed. Center is the arithmetic mean of the member
// coordinates, not the seed.
type Cluster struct {
	Center      spatial.Point `json:"center"`
	Members     []GeoPoint    `json:"members"`
	TotalWeight int64         `json:"total_weight"`
}

// ByRadius partitions points into clusters of mutual seed proximity. Every
// point with finite coordinates lands in exactly one cluster; clusters come
// out in seed-discovery order. Points whose latitude or longitude is NaN or
// infinite are skipped, and the number of skipped points is returned so the
// caller can surface it. A negative or non-finite radius is an error; the
// radius is never clamped. Distances use haversine meters and the boundary
// is inclusive: a point exactly radiusMeters from the seed joins.
func ByRadius(points []GeoPoint, radiusMeters float64) ([]Cluster, int, error) {
	if math.IsNaN(radiusMeters) || math.IsInf(radiusMeters, 0) || radiusMeters < 0 {
		return nil, 0, fmt.Errorf("cluster: radius must be finite and non-negative, got %f", radiusMeters)
	}

	skipped := 0
	assigned := make([]bool, len(points))

	for i, p := range points {
		if !p.Point().IsFinite() {
			assigned[i] = true
			skipped++
		}
	}

	clusters := make([]Cluster, 0, len(points))

	for i, seed := range points {
		if assigned[i] {
			continue
		}

		assigned[i] = true
		seedPoint := seed.Point()
		members := []GeoPoint{seed}

		for j := i + 1; j < len(points); j++ {
			if assigned[j] {
				continue
			}

			candidate := points[j].Point()
			if seedPoint.HaversineDistance(&candidate) <= radiusMeters {
				members = append(members, points[j])
				assigned[j] = true
			}
		}

		clusters = append(clusters, summarize(members))
	}

	return clusters, skipped, nil
}

// summarize computes the centroid and aggregate weight for a finalized
// member list.
func summarize(members []GeoPoint) Cluster {
	var sumLat, sumLng float64

	var totalWeight int64

	for _, m := range members {
		sumLat += m.Lat
		sumLng += m.Lng
		totalWeight += m.Weight
	}

	n := float64(len(members))

	return Cluster{
		Center: spatial.Point{
			Lat: sumLat / n,
			Lng: sumLng / n,
		},
		Members:     members,
		TotalWeight: totalWeight,
	}
}
