package server

import "github.com/aman-zulfiqar/onchain-intel/internal/pipeline"

// ErrorResponse represents a standardized error response format
type ErrorResponse struct {
	Error   string `json:"error"`
	Code    int    `json:"code"`
	Details any    `json:"details,omitempty"`
}

// HealthResponse is returned by the health check endpoint
type HealthResponse struct {
	OK bool `json:"ok"`
}

// RunRequest is the body of the pipeline run endpoint.
type RunRequest struct {
	LimitPerProtocol int  `json:"limitPerProtocol"`
	Cleanup          bool `json:"cleanup"`
}

// RunResponse wraps a completed run.
type RunResponse struct {
	Result *pipeline.Result `json:"result"`
	TookMs int64            `json:"took_ms"`
}

// FlagUpsertRequest creates or updates a runtime toggle.
type FlagUpsertRequest struct {
	Key   string `json:"key"`
	Value bool   `json:"value"`
}

// FlagUpdateRequest updates an existing runtime toggle.
type FlagUpdateRequest struct {
	Value bool `json:"value"`
}
