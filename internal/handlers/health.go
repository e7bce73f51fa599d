// internal/handlers/health.go
package handlers

import (
	"context"
	"log/slog"
	"net/http"
	"runtime"
	"time"

	"github.com/hibiken/asynq"
	"github.com/redis/go-redis/v9"

	redis_a "github.com/ammerola/stockledger-be/internal/adapters/redis_adapter"
	"github.com/ammerola/stockledger-be/internal/pkg/config"
)

const (
	statusHealthy   = "healthy"
	statusDegraded  = "degraded"
	statusUnhealthy = "unhealthy"
)

// DatabaseChecker is the part of the database adapter health checks need
type DatabaseChecker interface {
	Ping(ctx context.Context) error
	Health(ctx context.Context) map[string]interface{}
}

// QueueInspector is the part of asynq.Inspector health checks need
type QueueInspector interface {
	Queues() ([]string, error)
	GetQueueInfo(queue string) (*asynq.QueueInfo, error)
	Servers() ([]*asynq.ServerInfo, error)
}

// CacheStatter reports cache hit rates
type CacheStatter interface {
	Stats() redis_a.CacheStats
}

// dependency is one backing service reported by /health.
// Only required dependencies take the API out of rotation.
type dependency struct {
	name     string
	required bool
	ping     func(ctx context.Context) error
	details  func(ctx context.Context) map[string]interface{}
}

// HealthHandler reports the state of the ledger's backing services
type HealthHandler struct {
	deps      []dependency
	config    *config.Config
	logger    *slog.Logger
	startTime time.Time
}

// NewHealthHandler creates a new health handler. inspector and cache may be nil.
func NewHealthHandler(
	database DatabaseChecker,
	redisClient *redis.Client,
	inspector QueueInspector,
	cache CacheStatter,
	cfg *config.Config,
	logger *slog.Logger,
) *HealthHandler {
	deps := []dependency{
		{
			name:     "database",
			required: true,
			ping:     database.Ping,
			details:  database.Health,
		},
		{
			name:     "redis",
			required: true,
			ping:     func(ctx context.Context) error { return redisClient.Ping(ctx).Err() },
			details:  func(context.Context) map[string]interface{} { return redisDetails(redisClient, cache) },
		},
	}
	// Sales keep working while the worker is down, so the queue is informational.
	if inspector != nil {
		deps = append(deps, dependency{
			name: "asynq",
			ping: func(context.Context) error {
				_, err := inspector.Queues()
				return err
			},
			details: func(context.Context) map[string]interface{} { return queueDetails(inspector) },
		})
	}

	return &HealthHandler{
		deps:      deps,
		config:    cfg,
		logger:    logger.With(slog.String("handler", "health")),
		startTime: time.Now(),
	}
}

// HealthStatus is the /health body
type HealthStatus struct {
	Status      string                      `json:"status"`
	Version     string                      `json:"version"`
	Environment string                      `json:"environment"`
	Uptime      string                      `json:"uptime"`
	Timestamp   time.Time                   `json:"timestamp"`
	Services    map[string]DependencyStatus `json:"services"`
	Runtime     RuntimeStats                `json:"runtime"`
}

// DependencyStatus is the outcome of checking one backing service
type DependencyStatus struct {
	Status   string                 `json:"status"`
	Required bool                   `json:"required"`
	Error    string                 `json:"error,omitempty"`
	Latency  string                 `json:"latency,omitempty"`
	Details  map[string]interface{} `json:"details,omitempty"`
}

// RuntimeStats is a small snapshot of the Go runtime
type RuntimeStats struct {
	GoVersion  string `json:"go_version"`
	Goroutines int    `json:"goroutines"`
	HeapMB     uint64 `json:"heap_mb"`
	NumGC      uint32 `json:"num_gc"`
}

// ReadinessStatus is the /ready body
type ReadinessStatus struct {
	Ready   bool              `json:"ready"`
	Details map[string]string `json:"details"`
}

// Health handles GET /health
func (h *HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	body := HealthStatus{
		Status:      statusHealthy,
		Version:     h.config.App.Version,
		Environment: h.config.App.Environment,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		Timestamp:   time.Now().UTC(),
		Services:    make(map[string]DependencyStatus, len(h.deps)),
		Runtime:     runtimeStats(),
	}

	for _, dep := range h.deps {
		st := h.check(ctx, dep)
		body.Services[dep.name] = st
		if dep.required && st.Status != statusHealthy {
			body.Status = statusDegraded
		}
	}

	status := http.StatusOK
	if body.Status != statusHealthy {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, r, status, body)
}

// Readiness handles GET /ready. Only required dependencies are pinged.
func (h *HealthHandler) Readiness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	body := ReadinessStatus{Ready: true, Details: make(map[string]string)}
	for _, dep := range h.deps {
		if !dep.required {
			continue
		}
		if err := dep.ping(ctx); err != nil {
			body.Ready = false
			body.Details[dep.name] = "not ready"
			continue
		}
		body.Details[dep.name] = "ready"
	}

	status := http.StatusOK
	if !body.Ready {
		status = http.StatusServiceUnavailable
	}
	w.Header().Set("Cache-Control", "no-store")
	respondJSON(w, r, status, body)
}

func (h *HealthHandler) check(ctx context.Context, dep dependency) DependencyStatus {
	start := time.Now()
	st := DependencyStatus{Status: statusHealthy, Required: dep.required}

	if err := dep.ping(ctx); err != nil {
		st.Status = statusUnhealthy
		st.Error = err.Error()
		level := slog.LevelWarn
		if dep.required {
			level = slog.LevelError
		}
		h.logger.Log(ctx, level, "dependency check failed",
			slog.String("dependency", dep.name),
			slog.String("error", err.Error()))
		return st
	}

	if dep.details != nil {
		st.Details = dep.details(ctx)
	}
	st.Latency = time.Since(start).String()
	return st
}

func redisDetails(client *redis.Client, cache CacheStatter) map[string]interface{} {
	pool := client.PoolStats()
	details := map[string]interface{}{
		"total_conns": pool.TotalConns,
		"idle_conns":  pool.IdleConns,
	}
	if cache != nil {
		stats := cache.Stats()
		details["cache_hits"] = stats.Hits
		details["cache_misses"] = stats.Misses
		details["cache_hit_rate"] = stats.HitRate
	}
	return details
}

// queueDetails sums the backlog the worker still has to drain
func queueDetails(inspector QueueInspector) map[string]interface{} {
	queues, err := inspector.Queues()
	if err != nil {
		return nil
	}

	var pending, retry, archived int
	for _, q := range queues {
		info, err := inspector.GetQueueInfo(q)
		if err != nil {
			continue
		}
		pending += info.Pending + info.Scheduled
		retry += info.Retry
		archived += info.Archived
	}

	details := map[string]interface{}{
		"queues":   len(queues),
		"backlog":  pending,
		"retrying": retry,
		"dead":     archived,
	}
	if servers, err := inspector.Servers(); err == nil {
		details["worker_processes"] = len(servers)
	}
	return details
}

func runtimeStats() RuntimeStats {
	var mem runtime.MemStats
	runtime.ReadMemStats(&mem)
	return RuntimeStats{
		GoVersion:  runtime.Version(),
		Goroutines: runtime.NumGoroutine(),
		HeapMB:     mem.HeapAlloc >> 20,
		NumGC:      mem.NumGC,
	}
}
