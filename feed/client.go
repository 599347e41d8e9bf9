// Copyright 2025 The Palytt Authors
// SPDX-License-Identifier: Apache-2.0

// Package feed pulls geotagged posts out of the Palytt backend's export API
// and from local export files.
package feed

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/palytt/palytt-geo/pinmap"
	"github.com/palytt/palytt-geo/utils/httputils"
	"github.com/schollz/progressbar/v3"
)

const defaultUserAgent = "palytt-geo/1.0"

// ClientOptions configuration for the export client.
type ClientOptions struct {
	// BaseURL is the backend root, e.g. https://api.palytt.com
	BaseURL string

	// UserAgent is the User-Agent header to use in HTTP requests
	UserAgent string

	// PageSize is how many posts to request per page (server may cap it)
	PageSize int

	// MaxPages limits how many pages to traverse; 0 means no limit
	MaxPages int

	// Enables light tracing of HTTP requests and responses
	EnableHTTPTrace bool

	// Enables full HTTP body tracing
	EnableHTTPBodyTrace bool
}

// FetchMetrics tracks what a fetch run did.
type FetchMetrics struct {
	Pages      int // number of pages traversed
	TotalPosts int // number of posts downloaded
}

// Merge combines the metrics from another run into this one.
func (m *FetchMetrics) Merge(other *FetchMetrics) *FetchMetrics {
	if other == nil {
		return m
	}

	m.Pages += other.Pages
	m.TotalPosts += other.TotalPosts

	return m
}

// Client pages through the backend's post export endpoint.
type Client struct {
	options    ClientOptions
	httpClient *http.Client
}

// NewClient creates an export client.
func NewClient(options ClientOptions) (*Client, error) {
	if options.BaseURL == "" {
		return nil, errors.New("feed: BaseURL is required")
	}

	if _, err := url.Parse(options.BaseURL); err != nil {
		return nil, fmt.Errorf("feed: invalid BaseURL: %w", err)
	}

	if options.UserAgent == "" {
		options.UserAgent = defaultUserAgent
	}

	if options.PageSize <= 0 {
		options.PageSize = 200
	}

	var transport http.RoundTripper = http.DefaultTransport

	if options.EnableHTTPTrace || options.EnableHTTPBodyTrace {
		transport = &httputils.LoggingRoundTripper{
			Transport: transport,
			Writer:    os.Stderr,
			DumpBody:  options.EnableHTTPBodyTrace,
		}
	}

	transport = &httputils.AppendRequestHeadersRoundTripper{
		Transport: transport,
		Headers: map[string]string{
			"User-Agent": options.UserAgent,
		},
	}

	return &Client{
		options: options,
		httpClient: &http.Client{
			Transport: transport,
			Timeout:   30 * time.Second,
		},
	}, nil
}

// exportPage mirrors the backend's export response: a page of posts plus an
// opaque cursor for the next page, empty on the last one.
type exportPage struct {
	Posts []*pinmap.Post `json:"posts"`
	Next  string         `json:"next"`
}

// FetchAll pages through the export endpoint until the cursor runs out. On a
// terminal a progress spinner tracks the download; in scripts it stays quiet.
func (c *Client) FetchAll() ([]*pinmap.Post, *FetchMetrics, error) {
	var bar *progressbar.ProgressBar
	if isatty.IsTerminal(os.Stderr.Fd()) {
		bar = progressbar.NewOptions(-1,
			progressbar.OptionSetDescription("Fetching posts"),
			progressbar.OptionSetWriter(os.Stderr),
			progressbar.OptionShowCount(),
			progressbar.OptionClearOnFinish(),
		)
	}

	metrics := &FetchMetrics{}

	var posts []*pinmap.Post

	cursor := ""

	for {
		page, err := c.fetchPage(cursor)
		if err != nil {
			return nil, metrics, err
		}

		metrics.Pages++
		metrics.TotalPosts += len(page.Posts)
		posts = append(posts, page.Posts...)

		if bar != nil {
			if err := bar.Add(len(page.Posts)); err != nil {
				return nil, metrics, fmt.Errorf("updating progress bar: %w", err)
			}
		}

		if page.Next == "" {
			break
		}

		if c.options.MaxPages > 0 && metrics.Pages >= c.options.MaxPages {
			break
		}

		cursor = page.Next
	}

	if bar != nil {
		_ = bar.Finish()
	}

	return posts, metrics, nil
}

func (c *Client) fetchPage(cursor string) (*exportPage, error) {
	params := url.Values{}
	params.Set("limit", strconv.Itoa(c.options.PageSize))

	if cursor != "" {
		params.Set("cursor", cursor)
	}

	reqURL := c.options.BaseURL + "/api/posts/export?" + params.Encode()

	resp, err := c.httpClient.Get(reqURL)
	if err != nil {
		return nil, fmt.Errorf("fetching export page: %w", err)
	}

	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("export endpoint returned status %d", resp.StatusCode)
	}

	var page exportPage
	if err := json.NewDecoder(resp.Body).Decode(&page); err != nil {
		return nil, fmt.Errorf("decoding export page: %w", err)
	}

	return &page, nil
}
