// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

// client.go - HTTP client for an external moderation service.
package moderation

import (
	"bytes"
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Configuration constants for the moderation API.
const (
	// DefaultTimeout is the default timeout for moderation requests.
	DefaultTimeout = 15 * time.Second

	// MaxResponseSize is the maximum allowed response body size.
	// SECURITY: Response size limit prevents memory exhaustion attacks.
	MaxResponseSize = 1 * 1024 * 1024 // 1MB limit
)

// ErrNotConfigured is returned when the client has no endpoint or key.
var ErrNotConfigured = errors.New("moderation service not configured")

// PERFORMANCE: Connection pooling reduces TCP handshake overhead.
// Shared HTTP client for all moderation requests.
var sharedHTTPClient = &http.Client{
	Transport: &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		TLSClientConfig: &tls.Config{
			MinVersion: tls.VersionTLS12,
		},
	},
	Timeout: DefaultTimeout,
}

// =============================================================================
// HTTP MODERATOR
// =============================================================================

// Client calls an external moderation endpoint (OpenAI-compatible shape:
// POST {"input": text} -> {"results": [{"flagged": bool, "categories": {...}}]}).
type Client struct {
	baseURL string
	apiKey  string
	model   string
}

// moderationRequest is the wire request body.
type moderationRequest struct {
	Model string `json:"model,omitempty"`
	Input string `json:"input"`
}

// moderationResponse is the wire response body.
type moderationResponse struct {
	Results []struct {
		Flagged    bool            `json:"flagged"`
		Categories map[string]bool `json:"categories"`
	} `json:"results"`
}

// NewClient creates a moderation client for the given endpoint.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		model:   "omni-moderation-latest",
	}
}

// IsConfigured reports whether the client can make requests.
func (c *Client) IsConfigured() bool {
	return c.baseURL != ""
}

// Moderate submits text to the external service and returns its verdict.
// Errors are returned to the caller, which is expected to degrade to the
// local heuristic.
func (c *Client) Moderate(ctx context.Context, text string) (Verdict, error) {
	if !c.IsConfigured() {
		return Verdict{}, ErrNotConfigured
	}

	body, err := json.Marshal(moderationRequest{Model: c.model, Input: text})
	if err != nil {
		return Verdict{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return Verdict{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := sharedHTTPClient.Do(req)
	if err != nil {
		return Verdict{}, fmt.Errorf("moderation request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return Verdict{}, fmt.Errorf("moderation service returned status %d", resp.StatusCode)
	}

	// SECURITY: Limit response size to prevent memory exhaustion
	data, err := io.ReadAll(io.LimitReader(resp.Body, MaxResponseSize))
	if err != nil {
		return Verdict{}, fmt.Errorf("failed to read moderation response: %w", err)
	}

	var parsed moderationResponse
	if err := json.Unmarshal(data, &parsed); err != nil {
		return Verdict{}, fmt.Errorf("malformed moderation response: %w", err)
	}
	if len(parsed.Results) == 0 {
		return Verdict{}, errors.New("moderation response has no results")
	}

	result := parsed.Results[0]
	verdict := Verdict{Flagged: result.Flagged, Source: "service"}
	if result.Flagged {
		verdict.Reason = "moderation_flag"
		for category, hit := range result.Categories {
			if hit {
				verdict.Tags = append(verdict.Tags, category)
			}
		}
	}
	return verdict, nil
}
