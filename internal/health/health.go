package health

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/chainprobe/chainprobe/internal/cache"
	"github.com/chainprobe/chainprobe/internal/provider"
)

// Checker reports the health of the resolution engine's dependencies. It
// never performs outbound provider calls; liveness must stay cheap.
type Checker struct {
	registry *provider.Registry
	cache    *cache.TTLCache

	lastResolution time.Time
	lastSuccess    bool
	mu             sync.RWMutex
}

// NewChecker creates a new health checker
func NewChecker(registry *provider.Registry, c *cache.TTLCache) *Checker {
	return &Checker{
		registry: registry,
		cache:    c,
	}
}

// UpdateLastResolution records the timestamp and outcome of the most recent
// resolution
func (c *Checker) UpdateLastResolution(success bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lastResolution = time.Now()
	c.lastSuccess = success
}

// CheckStatus represents the health status of a component
type CheckStatus string

const (
	StatusOK       CheckStatus = "ok"
	StatusDegraded CheckStatus = "degraded"
	StatusError    CheckStatus = "error"
)

// HealthResponse is the JSON response structure
type HealthResponse struct {
	Status    CheckStatus            `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Checks    map[string]CheckDetail `json:"checks"`
	Uptime    string                 `json:"uptime,omitempty"`
}

// CheckDetail contains details about a specific health check
type CheckDetail struct {
	Status  CheckStatus `json:"status"`
	Message string      `json:"message,omitempty"`
}

var startTime = time.Now()

// Check performs all health checks and returns the aggregated status
func (c *Checker) Check() HealthResponse {
	checks := make(map[string]CheckDetail)
	overallStatus := StatusOK

	// Check 1: provider registry
	providerCheck := c.checkProviders()
	checks["providers"] = providerCheck
	if providerCheck.Status != StatusOK {
		overallStatus = StatusError
	}

	// Check 2: cache
	cacheCheck := c.checkCache()
	checks["cache"] = cacheCheck
	if cacheCheck.Status != StatusOK {
		overallStatus = StatusError
	}

	// Check 3: most recent resolution outcome
	resolutionCheck := c.checkLastResolution()
	checks["last_resolution"] = resolutionCheck
	if resolutionCheck.Status != StatusOK && overallStatus == StatusOK {
		overallStatus = StatusDegraded
	}

	return HealthResponse{
		Status:    overallStatus,
		Timestamp: time.Now(),
		Checks:    checks,
		Uptime:    time.Since(startTime).Round(time.Second).String(),
	}
}

// checkProviders verifies every asset class has a non-empty provider set
func (c *Checker) checkProviders() CheckDetail {
	if c.registry == nil {
		return CheckDetail{
			Status:  StatusError,
			Message: "provider registry not configured",
		}
	}

	total := 0
	for _, set := range c.registry.All() {
		if len(set.Providers) == 0 {
			slog.Error("Health check: asset class has no providers", "asset", set.Class)
			return CheckDetail{
				Status:  StatusError,
				Message: fmt.Sprintf("no providers configured for %s", set.Class),
			}
		}
		total += len(set.Providers)
	}

	return CheckDetail{
		Status:  StatusOK,
		Message: fmt.Sprintf("%d providers across %d asset classes", total, len(c.registry.All())),
	}
}

// checkCache verifies the cache is usable and reports its size
func (c *Checker) checkCache() CheckDetail {
	if c.cache == nil {
		return CheckDetail{
			Status:  StatusError,
			Message: "cache not configured",
		}
	}

	return CheckDetail{
		Status:  StatusOK,
		Message: fmt.Sprintf("%d entries, ttl %s", c.cache.Len(), c.cache.TTL()),
	}
}

// checkLastResolution reports the outcome of the most recent resolution
func (c *Checker) checkLastResolution() CheckDetail {
	c.mu.RLock()
	defer c.mu.RUnlock()

	// No resolutions yet is fine (might be starting up)
	if c.lastResolution.IsZero() {
		return CheckDetail{
			Status:  StatusOK,
			Message: "no resolutions yet (startup)",
		}
	}

	since := time.Since(c.lastResolution).Round(time.Second)
	if !c.lastSuccess {
		return CheckDetail{
			Status:  StatusDegraded,
			Message: fmt.Sprintf("last resolution failed %s ago", since),
		}
	}

	return CheckDetail{
		Status:  StatusOK,
		Message: fmt.Sprintf("last resolution succeeded %s ago", since),
	}
}

// Handler returns an http.HandlerFunc for the health endpoint
func (c *Checker) Handler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// Only support GET
		if r.Method != http.MethodGet {
			http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
			return
		}

		status := c.Check()

		// Set status code based on health
		statusCode := http.StatusOK
		if status.Status == StatusError {
			statusCode = http.StatusServiceUnavailable
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(statusCode)

		if err := json.NewEncoder(w).Encode(status); err != nil {
			slog.Error("Failed to encode health response", "error", err)
		}
	}
}
