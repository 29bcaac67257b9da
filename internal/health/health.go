// Package health provides health check endpoints for the contact API.
package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// ServiceStatus represents the status of a single dependency
type ServiceStatus struct {
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// HealthResponse represents the structured health check response
type HealthResponse struct {
	Status    string                   `json:"status"`
	Timestamp string                   `json:"timestamp"`
	Services  map[string]ServiceStatus `json:"services"`
	Version   string                   `json:"version,omitempty"`
}

// ReadinessResponse represents the readiness probe response
type ReadinessResponse struct {
	Ready     bool   `json:"ready"`
	Timestamp string `json:"timestamp"`
}

// LivenessResponse represents the liveness probe response
type LivenessResponse struct {
	Alive     bool   `json:"alive"`
	Timestamp string `json:"timestamp"`
}

// Handler handles health check requests. The contact API has no database;
// its only dependency worth reporting is the delivery configuration.
type Handler struct {
	version string
	// emailConfigured reports whether the email provider can ever
	// succeed with the current configuration.
	emailConfigured bool
	// formConfigured reports whether the form-endpoint provider is
	// enabled in this deployment.
	formConfigured bool

	mu    sync.RWMutex
	ready bool
}

// Config holds health handler configuration
type Config struct {
	Version         string
	EmailConfigured bool
	FormConfigured  bool
}

// NewHandler creates a new health check handler
func NewHandler(cfg Config) *Handler {
	return &Handler{
		version:         cfg.Version,
		emailConfigured: cfg.EmailConfigured,
		formConfigured:  cfg.FormConfigured,
		ready:           true,
	}
}

// SetReady sets the readiness state, used during graceful shutdown.
func (h *Handler) SetReady(ready bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.ready = ready
}

// IsReady returns the current readiness state
func (h *Handler) IsReady() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.ready
}

// Health handles the main health check endpoint
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	services := make(map[string]ServiceStatus)
	overallStatus := "healthy"

	if h.emailConfigured {
		services["email_provider"] = ServiceStatus{Status: "configured"}
	} else {
		services["email_provider"] = ServiceStatus{
			Status: "unconfigured",
			Error:  "email provider identifiers missing",
		}
		overallStatus = "degraded"
	}

	if h.formConfigured {
		services["form_endpoint"] = ServiceStatus{Status: "configured"}
	} else {
		// Not an error: deployments without a form endpoint route all
		// traffic through the email provider.
		services["form_endpoint"] = ServiceStatus{Status: "disabled"}
	}

	response := HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Services:  services,
		Version:   h.version,
	}

	w.Header().Set("Content-Type", "application/json")
	if overallStatus == "healthy" {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(response)
}

// Readiness handles the readiness probe endpoint
func (h *Handler) Readiness(w http.ResponseWriter, r *http.Request) {
	ready := h.IsReady()

	response := ReadinessResponse{
		Ready:     ready,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	if ready {
		w.WriteHeader(http.StatusOK)
	} else {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	json.NewEncoder(w).Encode(response)
}

// Liveness handles the liveness probe endpoint
func (h *Handler) Liveness(w http.ResponseWriter, r *http.Request) {
	response := LivenessResponse{
		Alive:     true,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(response)
}
