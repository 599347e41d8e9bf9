// Copyright 2025 The Palytt Authors
// SPDX-License-Identifier: Apache-2.0

package pinmap

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/palytt/palytt-geo/cluster"
	"github.com/palytt/palytt-geo/spatial"
	"github.com/palytt/palytt-geo/utils"
)

// Server exposes the map/explore API consumed by the mobile client.
type Server struct {
	repo     PostRepository
	geocoder Geocoder
}

// NewServer wires the API against a repository. The geocoder key comes from
// GOOGLE_MAPS_API_KEY, with an ADC lookup as fallback; place suggestion is
// disabled when neither yields a key.
func NewServer(repo PostRepository) *Server {
	apiKey := os.Getenv("GOOGLE_MAPS_API_KEY")
	if apiKey == "" {
		log.Println("GOOGLE_MAPS_API_KEY is not set. Attempting to retrieve via ADC...")

		var err error

		apiKey, err = getAPIKeyFromADC(context.Background())
		if err != nil {
			log.Printf("Failed to retrieve API key via ADC: %v", err)
			log.Print("Place suggestion will be unavailable without a Google Maps key.")
		} else {
			log.Println("✅ Successfully retrieved Google Maps API Key via ADC")
		}
	}

	var geocoder Geocoder
	if apiKey != "" {
		geocoder = NewGoogleMapsGeocoder(apiKey)
	}

	return &Server{
		repo:     repo,
		geocoder: geocoder,
	}
}

// Run registers the routes and serves on the given address.
func (s *Server) Run(addr string) error {
	r := gin.Default()

	s.registerRoutes(r)

	return r.Run(addr)
}

func (s *Server) registerRoutes(r *gin.Engine) {
	r.GET("/api/posts", s.listPosts)
	r.POST("/api/posts", s.createPost)
	r.GET("/api/posts/stats", s.getStats)
	r.GET("/api/clusters", s.getClusters)
	r.GET("/api/cells/:res/:cell", s.listPostsByCell)
	r.GET("/api/places/top", s.topPlaces)
	r.GET("/api/places/suggest", s.suggestPlace)
}

// parseBounds reads the viewport from min_lat/min_lng/max_lat/max_lng query
// parameters.
func parseBounds(ctx *gin.Context) (spatial.Bounds, error) {
	var bounds spatial.Bounds

	for _, f := range []struct {
		name string
		dst  *float64
	}{
		{"min_lat", &bounds.MinLat},
		{"min_lng", &bounds.MinLng},
		{"max_lat", &bounds.MaxLat},
		{"max_lng", &bounds.MaxLng},
	} {
		raw := ctx.Query(f.name)
		if raw == "" {
			return bounds, errors.New(f.name + " query parameter is required")
		}

		v, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return bounds, errors.New("invalid " + f.name + " parameter")
		}

		*f.dst = v
	}

	return bounds, bounds.Validate()
}

func (s *Server) listPosts(ctx *gin.Context) {
	bounds, err := parseBounds(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	limit := 0
	if raw := ctx.Query("limit"); raw != "" {
		if limit, err = strconv.Atoi(raw); err != nil || limit < 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})

			return
		}
	}

	posts, err := s.repo.ListPostsInBounds(bounds, limit)
	if err != nil {
		log.Printf("Error listing posts: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if posts == nil {
		posts = []*Post{}
	}

	ctx.JSON(http.StatusOK, posts)
}

func (s *Server) createPost(ctx *gin.Context) {
	var post Post
	if err := ctx.ShouldBindJSON(&post); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if err := validatePost(&post); err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if err := s.repo.SavePost(&post); err != nil {
		log.Printf("Error saving post %s: %v", post.ID, err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusCreated, post)
}

// ClusterResponse is what the map screen renders pins from.
type ClusterResponse struct {
	Clusters []cluster.Cluster `json:"clusters"`
	Skipped  int               `json:"skipped"`
	Radius   float64           `json:"radius_meters"`
}

func (s *Server) getClusters(ctx *gin.Context) {
	bounds, err := parseBounds(ctx)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	radius := cluster.DefaultRadiusMeters
	if raw := ctx.Query("radius"); raw != "" {
		if radius, err = strconv.ParseFloat(raw, 64); err != nil {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid radius parameter"})

			return
		}
	}

	posts, err := s.repo.ListPostsInBounds(bounds, 0)
	if err != nil {
		log.Printf("Error listing posts for clustering: %v", err)
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	points := make([]cluster.GeoPoint, len(posts))
	for i, p := range posts {
		points[i] = p.GeoPoint()
	}

	clusters, skipped, err := cluster.ByRadius(points, radius)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})

		return
	}

	if skipped > 0 {
		log.Printf("Clustering skipped %d posts with non-finite coordinates", skipped)
	}

	ctx.JSON(http.StatusOK, ClusterResponse{
		Clusters: clusters,
		Skipped:  skipped,
		Radius:   radius,
	})
}

func (s *Server) listPostsByCell(ctx *gin.Context) {
	res, err := strconv.Atoi(ctx.Param("res"))
	if err != nil || res < 1 || res > 8 {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "resolution must be between 1 and 8"})

		return
	}

	cell, err := strconv.ParseInt(ctx.Param("cell"), 10, 64)
	if err != nil {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid cell parameter"})

		return
	}

	posts, err := s.repo.ListPostsByCell(res, cell)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if posts == nil {
		posts = []*Post{}
	}

	ctx.JSON(http.StatusOK, posts)
}

// StatsResponse summarizes the corpus for the admin dashboard.
type StatsResponse struct {
	TotalPosts     int    `json:"total_posts"`
	TotalPostsText string `json:"total_posts_text"`
}

func (s *Server) getStats(ctx *gin.Context) {
	count, err := s.repo.CountPosts()
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, StatsResponse{
		TotalPosts:     count,
		TotalPostsText: utils.FormatInt(int64(count)),
	})
}

func (s *Server) topPlaces(ctx *gin.Context) {
	limit := 20
	if raw := ctx.Query("limit"); raw != "" {
		var err error
		if limit, err = strconv.Atoi(raw); err != nil || limit <= 0 {
			ctx.JSON(http.StatusBadRequest, gin.H{"error": "invalid limit parameter"})

			return
		}
	}

	places, err := s.repo.TopPlaces(limit)
	if err != nil {
		ctx.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})

		return
	}

	if places == nil {
		places = []*PlaceCount{}
	}

	ctx.JSON(http.StatusOK, places)
}

// SuggestionResponse carries a geocoded coordinate for a place name.
type SuggestionResponse struct {
	Latitude    float64 `json:"latitude"`
	Longitude   float64 `json:"longitude"`
	Confidence  string  `json:"confidence"`
	Provider    string  `json:"provider"`
	DisplayName string  `json:"display_name"`
}

func (s *Server) suggestPlace(ctx *gin.Context) {
	place := ctx.Query("place")
	if place == "" {
		ctx.JSON(http.StatusBadRequest, gin.H{"error": "place query parameter is required"})

		return
	}

	if s.geocoder == nil {
		ctx.JSON(http.StatusServiceUnavailable, gin.H{"error": "geocoding is not configured"})

		return
	}

	result, err := s.geocoder.Geocode(place, ctx.Query("city"))
	if err != nil {
		if IsNotFoundError(err) {
			ctx.JSON(http.StatusNotFound, gin.H{"error": err.Error()})

			return
		}

		if IsRateLimitError(err) || IsQuotaExceededError(err) {
			ctx.JSON(http.StatusTooManyRequests, gin.H{"error": err.Error()})

			return
		}

		log.Printf("Geocoding %q failed: %v", place, err)
		ctx.JSON(http.StatusBadGateway, gin.H{"error": err.Error()})

		return
	}

	ctx.JSON(http.StatusOK, SuggestionResponse{
		Latitude:    result.Latitude,
		Longitude:   result.Longitude,
		Confidence:  result.Confidence,
		Provider:    result.Provider,
		DisplayName: result.DisplayName,
	})
}
