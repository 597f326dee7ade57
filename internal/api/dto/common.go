package dto

import "time"

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Timestamp time.Time         `json:"timestamp"`
	Path      string            `json:"path"`
	Method    string            `json:"method"`
	Status    int               `json:"status"`
	Error     string            `json:"error"`
	Message   string            `json:"message"`
	Errors    map[string]string `json:"errors,omitempty"`
}

// HealthResponse represents the health check result
type HealthResponse struct {
	Status   string `json:"status"`
	Database string `json:"database"`
}
