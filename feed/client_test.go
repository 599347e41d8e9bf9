// Copyright 2025 The Palytt Authors
// SPDX-License-Identifier: Apache-2.0

package feed

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/palytt/palytt-geo/pinmap"
	"github.com/palytt/palytt-geo/spatial"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func exportHandler(t *testing.T, pages map[string]exportPage) http.HandlerFunc {
	t.Helper()

	return func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, "/api/posts/export", r.URL.Path)

		page, ok := pages[r.URL.Query().Get("cursor")]
		if !ok {
			w.WriteHeader(http.StatusNotFound)

			return
		}

		w.Header().Set("Content-Type", "application/json")
		require.NoError(t, json.NewEncoder(w).Encode(page))
	}
}

func exportPost(id string) *pinmap.Post {
	return &pinmap.Post{
		ID:        id,
		UserID:    "u-" + id,
		PlaceName: "Place " + id,
		Point:     &spatial.Point{Lat: 37.76, Lng: -122.42},
	}
}

func TestFetchAllFollowsCursor(t *testing.T) {
	pages := map[string]exportPage{
		"": {
			Posts: []*pinmap.Post{exportPost("a"), exportPost("b")},
			Next:  "cursor-2",
		},
		"cursor-2": {
			Posts: []*pinmap.Post{exportPost("c")},
		},
	}

	ts := httptest.NewServer(exportHandler(t, pages))
	defer ts.Close()

	client, err := NewClient(ClientOptions{BaseURL: ts.URL})
	require.NoError(t, err)

	posts, metrics, err := client.FetchAll()
	require.NoError(t, err)

	assert.Len(t, posts, 3)
	assert.Equal(t, 2, metrics.Pages)
	assert.Equal(t, 3, metrics.TotalPosts)
	assert.Equal(t, "a", posts[0].ID)
	assert.Equal(t, "c", posts[2].ID)
}

func TestFetchAllRespectsMaxPages(t *testing.T) {
	pages := map[string]exportPage{
		"": {
			Posts: []*pinmap.Post{exportPost("a")},
			Next:  "more",
		},
		"more": {
			Posts: []*pinmap.Post{exportPost("b")},
			Next:  "even-more",
		},
	}

	ts := httptest.NewServer(exportHandler(t, pages))
	defer ts.Close()

	client, err := NewClient(ClientOptions{BaseURL: ts.URL, MaxPages: 1})
	require.NoError(t, err)

	posts, metrics, err := client.FetchAll()
	require.NoError(t, err)

	assert.Len(t, posts, 1)
	assert.Equal(t, 1, metrics.Pages)
}

func TestFetchAllSendsUserAgent(t *testing.T) {
	var gotUserAgent string

	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUserAgent = r.Header.Get("User-Agent")
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"posts": [], "next": ""}`))
	}))
	defer ts.Close()

	client, err := NewClient(ClientOptions{BaseURL: ts.URL, UserAgent: "palytt-geo/test"})
	require.NoError(t, err)

	_, _, err = client.FetchAll()
	require.NoError(t, err)
	assert.Equal(t, "palytt-geo/test", gotUserAgent)
}

func TestFetchAllServerError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer ts.Close()

	client, err := NewClient(ClientOptions{BaseURL: ts.URL})
	require.NoError(t, err)

	_, _, err = client.FetchAll()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "status 500")
}

func TestNewClientRequiresBaseURL(t *testing.T) {
	_, err := NewClient(ClientOptions{})
	require.Error(t, err)
}

func TestFetchMetricsMerge(t *testing.T) {
	m := &FetchMetrics{Pages: 1, TotalPosts: 10}
	m.Merge(&FetchMetrics{Pages: 2, TotalPosts: 5})
	m.Merge(nil)

	assert.Equal(t, 3, m.Pages)
	assert.Equal(t, 15, m.TotalPosts)
}
