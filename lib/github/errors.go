// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

package github

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// APIError represents a non-2xx response from the GitHub REST API.
// GitHub returns structured JSON error bodies with a message and an
// optional documentation URL.
type APIError struct {
	// StatusCode is the HTTP response status code.
	StatusCode int

	// Message is the top-level error description from GitHub.
	Message string

	// DocumentationURL points to the relevant API documentation.
	DocumentationURL string
}

func (err *APIError) Error() string {
	return fmt.Sprintf("github: HTTP %d: %s", err.StatusCode, err.Message)
}

// IsNotFound reports whether err is a GitHub API 404 Not Found
// response. NotFound is meaningful control flow for the catalog store
// (a repository that has not been bootstrapped yet, a deleted file)
// and must never be retried.
func IsNotFound(err error) bool {
	var apiError *APIError
	return errors.As(err, &apiError) && apiError.StatusCode == 404
}

// IsRateLimited reports whether err is a GitHub API rate limit
// response. GitHub returns 403 when the primary rate limit is exceeded
// and 429 for secondary (abuse) rate limits.
func IsRateLimited(err error) bool {
	var apiError *APIError
	if !errors.As(err, &apiError) {
		return false
	}
	return apiError.StatusCode == 429 || (apiError.StatusCode == 403 && isRateLimitMessage(apiError.Message))
}

// IsConflict reports whether err is a GitHub API 409 or 422 response.
// The git data API reports a non-fast-forward ref update as 422; the
// store retries those after re-reading the branch head.
func IsConflict(err error) bool {
	var apiError *APIError
	if !errors.As(err, &apiError) {
		return false
	}
	return apiError.StatusCode == 409 || apiError.StatusCode == 422
}

// IsTransient reports whether err is worth retrying: network-level
// failures (anything that is not a structured API response), 5xx
// responses, and rate limits. Definitive answers (404, 401, 403
// permission denials, validation failures) are not transient.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		// The caller gave up; retrying cannot help.
		return false
	}
	var apiError *APIError
	if !errors.As(err, &apiError) {
		// No structured response means the request never completed:
		// timeout, connection reset, DNS failure.
		return true
	}
	if apiError.StatusCode >= 500 {
		return true
	}
	return IsRateLimited(err)
}

// isRateLimitMessage checks whether a 403 error message indicates a
// rate limit rather than a permission issue. GitHub's rate limit 403
// responses contain recognizable phrases.
func isRateLimitMessage(message string) bool {
	lower := strings.ToLower(message)
	return strings.Contains(lower, "rate limit") ||
		strings.Contains(lower, "abuse detection")
}
