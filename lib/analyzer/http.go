// Copyright 2026 The MuleRepo Authors
// SPDX-License-Identifier: Apache-2.0

package analyzer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/kavishworks45-design/mulerepo/lib/netutil"
)

// HTTPAnalyzer calls a generative-language HTTP API: one POST with the
// rendered prompt, one JSON object back.
type HTTPAnalyzer struct {
	httpClient *http.Client
	endpoint   string
	apiKey     string
	model      string
	logger     *slog.Logger
}

// NewHTTP creates an analyzer against the given endpoint. The API key
// is sent as a bearer token. A nil httpClient uses
// http.DefaultClient.
func NewHTTP(httpClient *http.Client, endpoint, apiKey, model string, logger *slog.Logger) *HTTPAnalyzer {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &HTTPAnalyzer{
		httpClient: httpClient,
		endpoint:   strings.TrimRight(endpoint, "/"),
		apiKey:     apiKey,
		model:      model,
		logger:     logger,
	}
}

// wireRequest is the generation request body.
type wireRequest struct {
	Model  string `json:"model"`
	Prompt string `json:"prompt"`
}

// wireResponse is the generation response body.
type wireResponse struct {
	Text string `json:"text"`
}

// Analyze renders the prompt, calls the service, and parses the
// response text as an Insights JSON object. The response may arrive
// wrapped in a markdown code fence; the fence is stripped before
// parsing.
func (a *HTTPAnalyzer) Analyze(ctx context.Context, files map[string]string) (*Insights, error) {
	if len(files) == 0 {
		return nil, fmt.Errorf("analyzer: no analyzable files")
	}

	body, err := json.Marshal(wireRequest{Model: a.model, Prompt: buildPrompt(files)})
	if err != nil {
		return nil, fmt.Errorf("analyzer: encoding request: %w", err)
	}

	request, err := http.NewRequestWithContext(ctx, http.MethodPost, a.endpoint+"/v1/generate", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("analyzer: creating request: %w", err)
	}
	request.Header.Set("Authorization", "Bearer "+a.apiKey)
	request.Header.Set("Content-Type", "application/json")

	response, err := a.httpClient.Do(request)
	if err != nil {
		return nil, fmt.Errorf("analyzer: request: %w", err)
	}
	defer response.Body.Close()

	if response.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("analyzer: HTTP %d: %s", response.StatusCode, netutil.ErrorBody(response.Body))
	}

	var wire wireResponse
	if err := netutil.DecodeResponse(response.Body, &wire); err != nil {
		return nil, fmt.Errorf("analyzer: decoding response: %w", err)
	}

	insights, err := parseInsights(wire.Text)
	if err != nil {
		return nil, err
	}
	return insights, nil
}

// parseInsights extracts the Insights object from the model's response
// text, tolerating a ```json fence around the object.
func parseInsights(text string) (*Insights, error) {
	trimmed := strings.TrimSpace(text)
	trimmed = strings.TrimPrefix(trimmed, "```json")
	trimmed = strings.TrimPrefix(trimmed, "```")
	trimmed = strings.TrimSuffix(trimmed, "```")
	trimmed = strings.TrimSpace(trimmed)

	var insights Insights
	if err := json.Unmarshal([]byte(trimmed), &insights); err != nil {
		return nil, fmt.Errorf("analyzer: response is not an insights object: %w", err)
	}

	if insights.HealthScore < 0 {
		insights.HealthScore = 0
	}
	if insights.HealthScore > 100 {
		insights.HealthScore = 100
	}
	return &insights, nil
}
