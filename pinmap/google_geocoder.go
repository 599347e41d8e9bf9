// Copyright 2025 The Palytt Authors
// SPDX-License-Identifier: Apache-2.0

package pinmap

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const googleGeocodeURL = "https://maps.googleapis.com/maps/api/geocode/json"

// GoogleMapsGeocoder uses Google Maps Geocoding API.
type GoogleMapsGeocoder struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

// NewGoogleMapsGeocoder creates a new Google Maps geocoder.
func NewGoogleMapsGeocoder(apiKey string) *GoogleMapsGeocoder {
	return &GoogleMapsGeocoder{
		apiKey:  apiKey,
		baseURL: googleGeocodeURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

type googleMapsResponse struct {
	Results []struct {
		Geometry struct {
			Location struct {
				Lat float64 `json:"lat"`
				Lng float64 `json:"lng"`
			} `json:"location"`
			LocationType string `json:"location_type"` // ROOFTOP, RANGE_INTERPOLATED, GEOMETRIC_CENTER, APPROXIMATE
		} `json:"geometry"`
		FormattedAddress string `json:"formatted_address"`
	} `json:"results"`
	Status string `json:"status"` // OK, ZERO_RESULTS, etc.
}

func (g *GoogleMapsGeocoder) Geocode(place string, city string) (*GeocodingResult, error) {
	// Bias the search with the city the map viewport is centered on, when the
	// client sends one. Venue names alone are too ambiguous worldwide.
	searchQuery := place
	if city != "" {
		searchQuery = fmt.Sprintf("%s, %s", place, city)
	}

	params := url.Values{}
	params.Set("address", searchQuery)
	params.Set("key", g.apiKey)

	resp, err := g.httpClient.Get(g.baseURL + "?" + params.Encode())
	if err != nil {
		return nil, &GeocodingError{
			Type:    ErrorTypeNetworkError,
			Message: "geocoding request failed",
			Err:     err,
		}
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, ClassifyHTTPError(resp.StatusCode, "")
	}

	var gmResp googleMapsResponse
	if err := json.NewDecoder(resp.Body).Decode(&gmResp); err != nil {
		return nil, fmt.Errorf("decoding response: %w", err)
	}

	switch gmResp.Status {
	case "OK":
		// fall through to result handling
	case "ZERO_RESULTS":
		return nil, &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: fmt.Sprintf("no results found for place: %s", place),
		}
	case "OVER_QUERY_LIMIT":
		return nil, &GeocodingError{
			Type:    ErrorTypeQuotaExceeded,
			Message: "google maps quota exceeded",
		}
	default:
		return nil, fmt.Errorf("google maps status: %s", gmResp.Status)
	}

	if len(gmResp.Results) == 0 {
		return nil, &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: fmt.Sprintf("no results found for place: %s", place),
		}
	}

	result := gmResp.Results[0]

	// Confidence follows the result granularity. ROOFTOP means the provider
	// pinned an exact building, which is what a restaurant check-in wants.
	confidence := "low"

	switch result.Geometry.LocationType {
	case "ROOFTOP":
		confidence = "high"
	case "RANGE_INTERPOLATED":
		confidence = "high"
	case "GEOMETRIC_CENTER":
		confidence = "medium"
	case "APPROXIMATE":
		confidence = "low"
	}

	return &GeocodingResult{
		Latitude:    result.Geometry.Location.Lat,
		Longitude:   result.Geometry.Location.Lng,
		Confidence:  confidence,
		Provider:    "google_maps",
		DisplayName: result.FormattedAddress,
	}, nil
}
