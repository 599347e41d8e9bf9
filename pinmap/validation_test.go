// Copyright 2025 The Palytt Authors
// SPDX-License-Identifier: Apache-2.0

package pinmap

import (
	"math"
	"strings"
	"testing"

	"github.com/palytt/palytt-geo/spatial"
)

func TestValidateCoordinates(t *testing.T) {
	tests := []struct {
		name    string
		lat     float64
		lng     float64
		wantErr bool
	}{
		{
			name: "san francisco",
			lat:  37.7749,
			lng:  -122.4194,
		},
		{
			name: "tokyo",
			lat:  35.6762,
			lng:  139.6503,
		},
		{
			name: "poles and antimeridian are valid",
			lat:  -90,
			lng:  180,
		},
		{
			name:    "latitude too high",
			lat:     91.0,
			lng:     0,
			wantErr: true,
		},
		{
			name:    "latitude too low",
			lat:     -91.0,
			lng:     0,
			wantErr: true,
		},
		{
			name:    "longitude too high",
			lat:     0,
			lng:     181.0,
			wantErr: true,
		},
		{
			name:    "longitude too low",
			lat:     0,
			lng:     -181.0,
			wantErr: true,
		},
		{
			name:    "nan latitude",
			lat:     math.NaN(),
			lng:     0,
			wantErr: true,
		},
		{
			name:    "infinite longitude",
			lat:     0,
			lng:     math.Inf(1),
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := validateCoordinates(tt.lat, tt.lng)
			if (err != nil) != tt.wantErr {
				t.Errorf("validateCoordinates() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func validPost() *Post {
	return &Post{
		ID:        "post-1",
		UserID:    "user-1",
		PlaceName: "Tartine Bakery",
		Point:     &spatial.Point{Lat: 37.7614, Lng: -122.4241},
		Likes:     12,
	}
}

func TestValidatePost(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Post)
		wantErr bool
	}{
		{
			name:   "valid post",
			mutate: func(*Post) {},
		},
		{
			name:    "empty id",
			mutate:  func(p *Post) { p.ID = "  " },
			wantErr: true,
		},
		{
			name:    "id too long",
			mutate:  func(p *Post) { p.ID = strings.Repeat("x", 129) },
			wantErr: true,
		},
		{
			name:    "empty user id",
			mutate:  func(p *Post) { p.UserID = "" },
			wantErr: true,
		},
		{
			name:    "empty place name",
			mutate:  func(p *Post) { p.PlaceName = "" },
			wantErr: true,
		},
		{
			name:    "place name too long",
			mutate:  func(p *Post) { p.PlaceName = strings.Repeat("a", 501) },
			wantErr: true,
		},
		{
			name:    "nil point",
			mutate:  func(p *Post) { p.Point = nil },
			wantErr: true,
		},
		{
			name:    "out of range coordinates",
			mutate:  func(p *Post) { p.Point.Lat = 95 },
			wantErr: true,
		},
		{
			name:    "negative likes",
			mutate:  func(p *Post) { p.Likes = -1 },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			post := validPost()
			tt.mutate(post)

			err := validatePost(post)
			if (err != nil) != tt.wantErr {
				t.Errorf("validatePost() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}

	if err := validatePost(nil); err == nil {
		t.Error("validatePost(nil) expected error, got nil")
	}
}
