// Copyright 2025 The Palytt Authors
// SPDX-License-Identifier: Apache-2.0

package httputils

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"testing"
)

// stubRoundTripper returns a canned response without touching the network.
type stubRoundTripper struct {
	response    *http.Response
	lastRequest *http.Request
}

func (d *stubRoundTripper) RoundTrip(req *http.Request) (*http.Response, error) {
	d.lastRequest = req

	return d.response, nil
}

func TestLoggingRoundTripper(t *testing.T) {
	var logBuffer bytes.Buffer

	stub := &stubRoundTripper{
		response: &http.Response{
			Status:     "200 OK",
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader(`{"posts":[]}`)),
		},
	}

	lt := &LoggingRoundTripper{
		Transport: stub,
		Writer:    &logBuffer,
		DumpBody:  true,
	}

	req, err := http.NewRequest(http.MethodGet, "http://example.com/api/posts/export", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	if _, err = lt.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	logContent := logBuffer.String()
	if !strings.Contains(logContent, "> GET /api/posts/export") {
		t.Errorf("log does not contain request info. Got: %s", logContent)
	}

	if !strings.Contains(logContent, "< RESPONSE: [") {
		t.Errorf("log does not contain response header with timing info. Got: %s", logContent)
	}

	if !strings.Contains(logContent, `{"posts":[]}`) {
		t.Errorf("log does not contain response body. Got: %s", logContent)
	}
}

func TestLoggingRoundTripperNilWriterPassesThrough(t *testing.T) {
	stub := &stubRoundTripper{
		response: &http.Response{
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader("")),
		},
	}

	lt := &LoggingRoundTripper{Transport: stub}

	req, err := http.NewRequest(http.MethodGet, "http://example.com/", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	resp, err := lt.RoundTrip(req)
	if err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	if resp.StatusCode != http.StatusOK {
		t.Errorf("StatusCode = %d, want 200", resp.StatusCode)
	}
}

func TestAppendRequestHeadersRoundTripper(t *testing.T) {
	stub := &stubRoundTripper{
		response: &http.Response{
			StatusCode: http.StatusOK,
			Header:     make(http.Header),
			Body:       io.NopCloser(strings.NewReader("")),
		},
	}

	atr := &AppendRequestHeadersRoundTripper{
		Transport: stub,
		Headers: map[string]string{
			"User-Agent": "palytt-geo/test",
		},
	}

	req, err := http.NewRequest(http.MethodGet, "http://example.org", nil)
	if err != nil {
		t.Fatalf("failed to create request: %v", err)
	}

	if _, err = atr.RoundTrip(req); err != nil {
		t.Fatalf("RoundTrip returned error: %v", err)
	}

	if stub.lastRequest == nil {
		t.Fatalf("transport did not receive any request")
	}

	if got := stub.lastRequest.Header.Get("User-Agent"); got != "palytt-geo/test" {
		t.Errorf("User-Agent = %q, want %q", got, "palytt-geo/test")
	}
}
