package server

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/smasshh/finmate/internal/clients/llm"
	"github.com/smasshh/finmate/internal/scheduler"
)

// Overall status values
const (
	StatusHealthy   = "healthy"
	StatusDegraded  = "degraded"
	StatusUnhealthy = "unhealthy"
)

// HealthChecker is a database that can report its health.
type HealthChecker interface {
	Name() string
	HealthCheck(ctx context.Context) error
}

// JobController lists and triggers scheduled jobs.
type JobController interface {
	Status() []scheduler.JobStatus
	RunByName(name string) error
}

// BreakerStater exposes the text-generation circuit breaker.
type BreakerStater interface {
	State() llm.BreakerState
}

// RequestBudget exposes the market-data daily request budget.
type RequestBudget interface {
	GetRemainingRequests() int
}

// SubscriberCounter reports live event subscribers.
type SubscriberCounter interface {
	SubscriberCount() int
}

// SystemDeps are the collaborators inspected by the status endpoint. Any may be nil.
type SystemDeps struct {
	Databases   []HealthChecker
	Jobs        JobController
	Breaker     BreakerStater
	MarketData  RequestBudget
	Subscribers SubscriberCounter
	DataDir     string
}

// DatabaseStatus is the health of one database
type DatabaseStatus struct {
	Name    string `json:"name"`
	Healthy bool   `json:"healthy"`
	Error   string `json:"error,omitempty"`
}

// SystemStatusResponse represents the system status
type SystemStatusResponse struct {
	Status           string                `json:"status"`
	Uptime           string                `json:"uptime"`
	CPUPercent       float64               `json:"cpu_percent"`
	RAMPercent       float64               `json:"ram_percent"`
	DiskFreeMB       float64               `json:"disk_free_mb,omitempty"`
	Databases        []DatabaseStatus      `json:"databases"`
	Jobs             []scheduler.JobStatus `json:"jobs"`
	Breaker          string                `json:"text_generation_breaker,omitempty"`
	MarketRequests   *int                  `json:"market_requests_remaining,omitempty"`
	EventSubscribers int                   `json:"event_subscribers"`
}

// SystemHandlers handles system-related HTTP requests
type SystemHandlers struct {
	deps      SystemDeps
	startedAt time.Time
	log       zerolog.Logger

	hostStats func() (cpuPercent, ramPercent float64)
	diskFree  func(path string) (uint64, error)
}

// NewSystemHandlers creates a new system handlers instance
func NewSystemHandlers(deps SystemDeps, log zerolog.Logger) *SystemHandlers {
	h := &SystemHandlers{
		deps:      deps,
		startedAt: time.Now(),
		log:       log.With().Str("handler", "system").Logger(),
		diskFree: func(path string) (uint64, error) {
			usage, err := disk.Usage(path)
			if err != nil {
				return 0, err
			}
			return usage.Free, nil
		},
	}
	h.hostStats = h.getSystemStats
	return h
}

// RegisterRoutes registers system routes
func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/status", h.HandleSystemStatus)
		r.Get("/jobs", h.HandleJobsStatus)
		r.Post("/jobs/{name}/run", h.HandleRunJob)
	})
}

// Snapshot collects the current system status.
func (h *SystemHandlers) Snapshot(ctx context.Context) SystemStatusResponse {
	resp := SystemStatusResponse{
		Status:    StatusHealthy,
		Uptime:    time.Since(h.startedAt).Round(time.Second).String(),
		Databases: make([]DatabaseStatus, 0, len(h.deps.Databases)),
		Jobs:      []scheduler.JobStatus{},
	}

	resp.CPUPercent, resp.RAMPercent = h.hostStats()

	if h.deps.DataDir != "" {
		if free, err := h.diskFree(h.deps.DataDir); err == nil {
			resp.DiskFreeMB = float64(free) / 1024 / 1024
		} else {
			h.log.Warn().Err(err).Msg("Failed to get disk usage")
		}
	}

	for _, db := range h.deps.Databases {
		st := DatabaseStatus{Name: db.Name(), Healthy: true}
		if err := db.HealthCheck(ctx); err != nil {
			st.Healthy = false
			st.Error = err.Error()
			resp.Status = StatusUnhealthy
		}
		resp.Databases = append(resp.Databases, st)
	}

	if h.deps.Jobs != nil {
		resp.Jobs = h.deps.Jobs.Status()
	}

	if h.deps.Breaker != nil {
		state := h.deps.Breaker.State()
		resp.Breaker = state.String()
		if state != llm.StateClosed && resp.Status == StatusHealthy {
			resp.Status = StatusDegraded
		}
	}

	if h.deps.MarketData != nil {
		remaining := h.deps.MarketData.GetRemainingRequests()
		resp.MarketRequests = &remaining
	}

	if h.deps.Subscribers != nil {
		resp.EventSubscribers = h.deps.Subscribers.SubscriberCount()
	}

	return resp
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status := h.Snapshot(ctx)

	writeJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"data": status,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	})
}

// HandleJobsStatus handles GET /api/system/jobs
func (h *SystemHandlers) HandleJobsStatus(w http.ResponseWriter, r *http.Request) {
	jobs := []scheduler.JobStatus{}
	if h.deps.Jobs != nil {
		jobs = h.deps.Jobs.Status()
	}

	writeJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"data": jobs,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
			"count":     len(jobs),
		},
	})
}

// HandleRunJob handles POST /api/system/jobs/{name}/run
func (h *SystemHandlers) HandleRunJob(w http.ResponseWriter, r *http.Request) {
	name := chi.URLParam(r, "name")
	if h.deps.Jobs == nil {
		http.Error(w, "Scheduler not available", http.StatusServiceUnavailable)
		return
	}

	err := h.deps.Jobs.RunByName(name)
	if errors.Is(err, scheduler.ErrUnknownJob) {
		http.Error(w, "Unknown job", http.StatusNotFound)
		return
	}
	if err != nil {
		h.log.Error().Err(err).Str("job", name).Msg("Manually triggered job failed")
		writeJSON(w, h.log, http.StatusInternalServerError, map[string]interface{}{
			"status":  "failed",
			"job":     name,
			"message": err.Error(),
		})
		return
	}

	writeJSON(w, h.log, http.StatusOK, map[string]interface{}{
		"status": "completed",
		"job":    name,
	})
}

// getSystemStats returns CPU and RAM usage percentages. The CPU sample is kept
// short so the endpoint stays responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil || len(cpuPercent) == 0 {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return cpuPercent[0], 0
	}

	return cpuPercent[0], memStat.UsedPercent
}
