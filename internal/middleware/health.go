package middleware

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// HealthStatus is the liveness/readiness response body.
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
	Version   string `json:"version,omitempty"`
	Uptime    string `json:"uptime,omitempty"`
}

// HealthChecker tracks process uptime and version for liveness responses.
type HealthChecker struct {
	mu        sync.RWMutex
	version   string
	startTime time.Time
}

// NewHealthChecker returns a HealthChecker stamped with the current time.
func NewHealthChecker(version string) *HealthChecker {
	return &HealthChecker{version: version, startTime: time.Now()}
}

// LivenessHandler answers "is the process alive" with no external checks.
func (h *HealthChecker) LivenessHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h.mu.RLock()
		defer h.mu.RUnlock()
		writeJSON(w, http.StatusOK, HealthStatus{
			Status:    "alive",
			Timestamp: time.Now().UTC().Format(time.RFC3339),
			Version:   h.version,
			Uptime:    time.Since(h.startTime).String(),
		})
	}
}

// HostStats is the payload for the /status endpoint: host-level resource
// usage, useful for spotting a prober starved for file descriptors or CPU
// before it starts missing check deadlines.
type HostStats struct {
	Goroutines  int     `json:"goroutines"`
	CPUPercent  float64 `json:"cpu_percent"`
	MemUsedMB   uint64  `json:"mem_used_mb"`
	MemTotalMB  uint64  `json:"mem_total_mb"`
	MemUsedPct  float64 `json:"mem_used_pct"`
	NumCPU      int     `json:"num_cpu"`
	GoVersion   string  `json:"go_version"`
}

// StatusHandler reports process and host resource usage via gopsutil.
func StatusHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats := HostStats{
			Goroutines: runtime.NumGoroutine(),
			NumCPU:     runtime.NumCPU(),
			GoVersion:  runtime.Version(),
		}

		if percents, err := cpu.Percent(0, false); err == nil && len(percents) > 0 {
			stats.CPUPercent = percents[0]
		}
		if vm, err := mem.VirtualMemory(); err == nil {
			stats.MemUsedMB = vm.Used / 1024 / 1024
			stats.MemTotalMB = vm.Total / 1024 / 1024
			stats.MemUsedPct = vm.UsedPercent
		}

		writeJSON(w, http.StatusOK, stats)
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(body)
}
