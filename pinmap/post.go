// Copyright 2025 The Palytt Authors
// SPDX-License-Identifier: Apache-2.0

// Package pinmap stores geotagged posts and serves the map screen's
// clustering and place-suggestion API.
package pinmap

import (
	"fmt"
	"time"

	"github.com/palytt/palytt-geo/cluster"
	"github.com/palytt/palytt-geo/spatial"
	"github.com/uber/h3-go/v4"
)

// Post is a geotagged post as exported by the backend. Likes is the only
// engagement metric the map needs; it becomes the cluster weight.
type Post struct {
	ID        string         `json:"id"`
	UserID    string         `json:"user_id"`
	PlaceName string         `json:"place_name"`
	Caption   string         `json:"caption,omitempty"`
	Point     *spatial.Point `json:"point"`
	Likes     int64          `json:"likes"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	H3Res1    int64          `json:"-"`
	H3Res2    int64          `json:"-"`
	H3Res3    int64          `json:"-"`
	H3Res4    int64          `json:"-"`
	H3Res5    int64          `json:"-"`
	H3Res6    int64          `json:"-"`
	H3Res7    int64          `json:"-"`
	H3Res8    int64          `json:"-"`
}

// GeoPoint converts the post into the clustering input record.
func (p *Post) GeoPoint() cluster.GeoPoint {
	return cluster.GeoPoint{
		ID:     p.ID,
		Lat:    p.Point.Lat,
		Lng:    p.Point.Lng,
		Weight: p.Likes,
	}
}

// computeH3 fills the H3 cell columns for resolutions 1 through 8 so the
// explore feed can aggregate pins at any zoom level with a plain equality
// predicate.
func (p *Post) computeH3() error {
	if p.Point == nil {
		p.H3Res1, p.H3Res2, p.H3Res3, p.H3Res4 = 0, 0, 0, 0
		p.H3Res5, p.H3Res6, p.H3Res7, p.H3Res8 = 0, 0, 0, 0

		return nil
	}

	latLng := h3.NewLatLng(p.Point.Lat, p.Point.Lng)
	for res := 1; res <= 8; res++ {
		cell, err := h3.LatLngToCell(latLng, res)
		if err != nil {
			return fmt.Errorf("converting to h3 cell at res %d: %w", res, err)
		}

		switch res {
		case 1:
			p.H3Res1 = int64(cell)
		case 2:
			p.H3Res2 = int64(cell)
		case 3:
			p.H3Res3 = int64(cell)
		case 4:
			p.H3Res4 = int64(cell)
		case 5:
			p.H3Res5 = int64(cell)
		case 6:
			p.H3Res6 = int64(cell)
		case 7:
			p.H3Res7 = int64(cell)
		case 8:
			p.H3Res8 = int64(cell)
		}
	}

	return nil
}

// h3Cell returns the stored cell for a resolution, or 0 when out of range.
func (p *Post) h3Cell(res int) int64 {
	switch res {
	case 1:
		return p.H3Res1
	case 2:
		return p.H3Res2
	case 3:
		return p.H3Res3
	case 4:
		return p.H3Res4
	case 5:
		return p.H3Res5
	case 6:
		return p.H3Res6
	case 7:
		return p.H3Res7
	case 8:
		return p.H3Res8
	default:
		return 0
	}
}
