package rest

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"time"
)

type HealthStatus string

const (
	HealthHealthy   HealthStatus = "healthy"
	HealthDegraded  HealthStatus = "degraded"
	HealthUnhealthy HealthStatus = "unhealthy"
)

type HealthResponse struct {
	Status     HealthStatus          `json:"status"`
	Version    string                `json:"version,omitempty"`
	CheckedAt  time.Time             `json:"checked_at"`
	Components map[string]CheckEntry `json:"components"`
}

type CheckEntry struct {
	Status     HealthStatus   `json:"status"`
	Message    string         `json:"message,omitempty"`
	Details    map[string]any `json:"details,omitempty"`
	CheckedAt  time.Time      `json:"checked_at"`
	DurationMs int64          `json:"duration_ms"`
}

type HealthHandler struct {
	db            *sql.DB
	driver        string
	version       string
	apiConfigured func() bool
	profiles      func() int
}

func NewHealthHandler(db *sql.DB, driver, version string, apiConfigured func() bool, profiles func() int) *HealthHandler {
	if apiConfigured == nil {
		apiConfigured = func() bool { return true }
	}
	if profiles == nil {
		profiles = func() int { return 0 }
	}
	return &HealthHandler{db: db, driver: driver, version: version, apiConfigured: apiConfigured, profiles: profiles}
}

// Ping only says the process is up.
func (h *HealthHandler) Ping(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(map[string]string{"status": "OK"})
}

// Check reports the local store and whether the backend address is set. An
// unconfigured backend degrades the portal but does not make it unhealthy.
func (h *HealthHandler) Check(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	start := time.Now()
	err := h.db.PingContext(ctx)

	store := CheckEntry{
		Status:     HealthHealthy,
		Details:    map[string]any{"driver": h.driver},
		CheckedAt:  time.Now(),
		DurationMs: time.Since(start).Milliseconds(),
	}
	if err != nil {
		store.Status = HealthUnhealthy
		store.Message = err.Error()
	}

	remote := CheckEntry{Status: HealthHealthy, CheckedAt: time.Now()}
	if !h.apiConfigured() {
		remote.Status = HealthDegraded
		remote.Message = "remote API base URL is not configured"
	}

	resp := HealthResponse{
		Status:    HealthHealthy,
		Version:   h.version,
		CheckedAt: time.Now(),
		Components: map[string]CheckEntry{
			"storage":    store,
			"remote_api": remote,
			"workspaces": {Status: HealthHealthy, Details: map[string]any{"active": h.profiles()}, CheckedAt: time.Now()},
		},
	}

	statusCode := http.StatusOK
	switch {
	case store.Status == HealthUnhealthy:
		resp.Status = HealthUnhealthy
		statusCode = http.StatusServiceUnavailable
	case remote.Status == HealthDegraded:
		resp.Status = HealthDegraded
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(resp)
}
