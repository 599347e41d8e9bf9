// Copyright 2025 The Palytt Authors
// SPDX-License-Identifier: Apache-2.0

package pinmap

import (
	"errors"
	"fmt"
	"math"
	"strings"
)

// validateCoordinates checks that the coordinates are a real place on Earth.
func validateCoordinates(lat, lng float64) error {
	if math.IsNaN(lat) || math.IsInf(lat, 0) {
		return fmt.Errorf("latitude is not a finite number: %f", lat)
	}

	if math.IsNaN(lng) || math.IsInf(lng, 0) {
		return fmt.Errorf("longitude is not a finite number: %f", lng)
	}

	if lat < -90 || lat > 90 {
		return fmt.Errorf("latitude must be between -90 and 90 (got: %f)", lat)
	}

	if lng < -180 || lng > 180 {
		return fmt.Errorf("longitude must be between -180 and 180 (got: %f)", lng)
	}

	return nil
}

// validatePost checks that a post is complete enough to persist.
func validatePost(p *Post) error {
	if p == nil {
		return errors.New("post can't be nil")
	}

	if strings.TrimSpace(p.ID) == "" {
		return errors.New("post id can't be empty")
	}

	if len(p.ID) > 128 {
		return errors.New("post id too long (128 characters max)")
	}

	if strings.TrimSpace(p.UserID) == "" {
		return errors.New("user id can't be empty")
	}

	if strings.TrimSpace(p.PlaceName) == "" {
		return errors.New("place name can't be empty")
	}

	if len(p.PlaceName) > 500 {
		return errors.New("place name too long (500 characters max)")
	}

	if p.Point == nil {
		return errors.New("point can't be null")
	}

	if err := validateCoordinates(p.Point.Lat, p.Point.Lng); err != nil {
		return fmt.Errorf("invalid coordinates: %w", err)
	}

	if p.Likes < 0 {
		return fmt.Errorf("likes can't be negative (got: %d)", p.Likes)
	}

	return nil
}
