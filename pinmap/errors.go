// Copyright 2025 The Palytt Authors
// SPDX-License-Identifier: Apache-2.0

package pinmap

import (
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// GeocodingError represents provider-specific geocoding failures.
type GeocodingError struct {
	Type    ErrorType
	Message string
	Err     error
}

// ErrorType classifies geocoding failures.
type ErrorType int

const (
	// ErrorTypeUnknown unclassified error.
	ErrorTypeUnknown ErrorType = iota
	// ErrorTypeRateLimit rate limit reached.
	ErrorTypeRateLimit
	// ErrorTypeQuotaExceeded provider quota exhausted.
	ErrorTypeQuotaExceeded
	// ErrorTypeTimeout connection timeout.
	ErrorTypeTimeout
	// ErrorTypeNotFound place not found.
	ErrorTypeNotFound
	// ErrorTypeInvalidRequest malformed request.
	ErrorTypeInvalidRequest
	// ErrorTypeNetworkError transport failure.
	ErrorTypeNetworkError
)

func (e *GeocodingError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}

	return e.Message
}

func (e *GeocodingError) Unwrap() error {
	return e.Err
}

// IsRateLimitError reports whether the error is a rate limit response.
func IsRateLimitError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeRateLimit
	}

	// Detect by common message patterns
	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "rate limit") ||
		strings.Contains(errStr, "too many requests") ||
		strings.Contains(errStr, "429")
}

// IsQuotaExceededError reports whether the error is a quota exhaustion.
func IsQuotaExceededError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeQuotaExceeded
	}

	// Detect by common message patterns (Google Maps)
	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "over_query_limit") ||
		strings.Contains(errStr, "quota exceeded")
}

// IsNotFoundError reports whether the error means the place does not resolve.
func IsNotFoundError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeNotFound
	}

	return false
}

// IsTimeoutError reports whether the error is a timeout.
func IsTimeoutError(err error) bool {
	var geoErr *GeocodingError
	if errors.As(err, &geoErr) {
		return geoErr.Type == ErrorTypeTimeout
	}

	errStr := strings.ToLower(err.Error())

	return strings.Contains(errStr, "timeout") ||
		strings.Contains(errStr, "deadline exceeded")
}

// ClassifyHTTPError maps an HTTP status to a geocoding error type.
func ClassifyHTTPError(statusCode int, _ string) *GeocodingError {
	switch statusCode {
	case http.StatusTooManyRequests: // 429
		return &GeocodingError{
			Type:    ErrorTypeRateLimit,
			Message: "rate limit reached",
		}
	case http.StatusForbidden: // 403
		return &GeocodingError{
			Type:    ErrorTypeQuotaExceeded,
			Message: "quota exceeded or access denied",
		}
	case http.StatusBadRequest: // 400
		return &GeocodingError{
			Type:    ErrorTypeInvalidRequest,
			Message: "invalid request",
		}
	case http.StatusNotFound: // 404
		return &GeocodingError{
			Type:    ErrorTypeNotFound,
			Message: "place not found",
		}
	case http.StatusServiceUnavailable, http.StatusBadGateway, http.StatusGatewayTimeout:
		return &GeocodingError{
			Type:    ErrorTypeNetworkError,
			Message: fmt.Sprintf("service unavailable (status %d)", statusCode),
		}
	default:
		return &GeocodingError{
			Type:    ErrorTypeUnknown,
			Message: fmt.Sprintf("HTTP error %d", statusCode),
		}
	}
}
