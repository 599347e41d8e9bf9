// Copyright 2025 The Palytt Authors
// SPDX-License-Identifier: Apache-2.0

package pinmap

import (
	"bytes"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	_ "github.com/duckdb/duckdb-go/v2"
	"github.com/gin-gonic/gin"
	"github.com/palytt/palytt-geo/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubGeocoder returns a fixed result or error.
type stubGeocoder struct {
	result *GeocodingResult
	err    error
}

func (s *stubGeocoder) Geocode(_ string, _ string) (*GeocodingResult, error) {
	return s.result, s.err
}

// setupServerTest initializes a Gin router and a pinmap.Server over an
// in-memory DuckDB.
func setupServerTest(t *testing.T) (*gin.Engine, *Server, *sql.DB, PostRepository) {
	t.Helper()
	t.Setenv("GOOGLE_MAPS_API_KEY", "test-key") // skip the ADC lookup

	gin.SetMode(gin.TestMode)
	router := gin.Default()

	db, repo := setupTestDB(t)

	server := NewServer(repo)
	server.registerRoutes(router)

	return router, server, db, repo
}

func seedMissionPosts(t *testing.T, repo PostRepository) {
	t.Helper()

	posts := []*Post{
		testPost("m1", 37.7614, -122.4241, 10),
		testPost("m2", 37.7616, -122.4243, 5),
		testPost("castro", 37.7609, -122.4350, 7),
	}

	require.NoError(t, repo.BulkInsertPosts(posts))
}

func TestListPostsAPI(t *testing.T) {
	router, _, db, repo := setupServerTest(t)
	defer db.Close()

	seedMissionPosts(t, repo)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet,
		"/api/posts?min_lat=37.75&max_lat=37.78&min_lng=-122.43&max_lng=-122.41", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var posts []*Post
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &posts))
	assert.Len(t, posts, 2) // castro is west of the viewport

	// Missing viewport parameters are a client error.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/posts?min_lat=37.75", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetClustersAPI(t *testing.T) {
	router, _, db, repo := setupServerTest(t)
	defer db.Close()

	seedMissionPosts(t, repo)

	// Default quarter-mile radius merges the two Mission pins; Castro is
	// ~1km west of them and seeds its own cluster.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet,
		"/api/clusters?min_lat=37.70&max_lat=37.80&min_lng=-122.45&max_lng=-122.40", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp ClusterResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Clusters, 2)
	assert.Equal(t, 0, resp.Skipped)

	var total int
	for _, c := range resp.Clusters {
		total += len(c.Members)
	}

	assert.Equal(t, 3, total, "every post lands in exactly one cluster")

	// A tiny radius splits everything.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet,
		"/api/clusters?min_lat=37.70&max_lat=37.80&min_lng=-122.45&max_lng=-122.40&radius=1", nil)
	router.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Clusters, 3)

	// A negative radius is rejected, not clamped.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet,
		"/api/clusters?min_lat=37.70&max_lat=37.80&min_lng=-122.45&max_lng=-122.40&radius=-5", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestCreatePostAPI(t *testing.T) {
	router, _, db, repo := setupServerTest(t)
	defer db.Close()

	body, err := json.Marshal(Post{
		ID:        "new-post",
		UserID:    "user-9",
		PlaceName: "Ramen Nagi",
		Point:     &spatial.Point{Lat: 37.787, Lng: -122.408},
		Likes:     3,
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/api/posts", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	saved, err := repo.GetPost("new-post")
	require.NoError(t, err)
	assert.Equal(t, "Ramen Nagi", saved.PlaceName)

	// Invalid coordinates are rejected before touching storage.
	body, err = json.Marshal(Post{
		ID:        "bad-post",
		UserID:    "user-9",
		PlaceName: "Nowhere",
		Point:     &spatial.Point{Lat: 95, Lng: 0},
	})
	require.NoError(t, err)

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodPost, "/api/posts", bytes.NewReader(body))
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)

	_, err = repo.GetPost("bad-post")
	assert.ErrorIs(t, err, sql.ErrNoRows)
}

func TestGetStatsAPI(t *testing.T) {
	router, _, db, repo := setupServerTest(t)
	defer db.Close()

	seedMissionPosts(t, repo)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/posts/stats", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var stats StatsResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &stats))
	assert.Equal(t, 3, stats.TotalPosts)
	assert.Equal(t, "3", stats.TotalPostsText)
}

func TestTopPlacesAPI(t *testing.T) {
	router, _, db, repo := setupServerTest(t)
	defer db.Close()

	seedMissionPosts(t, repo)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/places/top?limit=2", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var places []*PlaceCount
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &places))
	assert.Len(t, places, 2)
}

func TestSuggestPlaceAPI(t *testing.T) {
	router, server, db, _ := setupServerTest(t)
	defer db.Close()

	server.geocoder = &stubGeocoder{
		result: &GeocodingResult{
			Latitude:    37.7614,
			Longitude:   -122.4241,
			Confidence:  "high",
			Provider:    "google_maps",
			DisplayName: "Tartine Bakery, San Francisco, CA",
		},
	}

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/places/suggest?place=Tartine%20Bakery&city=San%20Francisco", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var suggestion SuggestionResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &suggestion))
	assert.Equal(t, 37.7614, suggestion.Latitude)
	assert.Equal(t, "high", suggestion.Confidence)

	// Not-found from the provider maps to 404.
	server.geocoder = &stubGeocoder{
		err: &GeocodingError{Type: ErrorTypeNotFound, Message: "no results"},
	}

	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/places/suggest?place=zzzz", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusNotFound, w.Code)

	// Missing place parameter.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest(http.MethodGet, "/api/places/suggest", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestSuggestPlaceAPIWithoutGeocoder(t *testing.T) {
	router, server, db, _ := setupServerTest(t)
	defer db.Close()

	server.geocoder = nil

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/api/places/suggest?place=anything", nil)
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}
