package server

import (
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"
)

// FreshnessProbe reports the timestamp of the newest observation a data
// source currently holds.
type FreshnessProbe func(ctx context.Context) (time.Time, error)

type probeEntry struct {
	name  string
	probe FreshnessProbe
}

// SystemHandlers serves process status and data freshness endpoints.
type SystemHandlers struct {
	log       zerolog.Logger
	dataDir   string
	startedAt time.Time
	probes    []probeEntry
}

func NewSystemHandlers(log zerolog.Logger, dataDir string) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		dataDir:   dataDir,
		startedAt: time.Now(),
	}
}

// AddFreshnessProbe registers a named data source for the freshness
// endpoint. Probes run in registration order.
func (h *SystemHandlers) AddFreshnessProbe(name string, probe FreshnessProbe) {
	h.probes = append(h.probes, probeEntry{name: name, probe: probe})
}

func (h *SystemHandlers) RegisterRoutes(r chi.Router) {
	r.Route("/system", func(r chi.Router) {
		r.Get("/status", h.HandleStatus)
		r.Get("/freshness", h.HandleFreshness)
	})
}

// HandleStatus returns process uptime and host resource usage.
// GET /api/system/status
func (h *SystemHandlers) HandleStatus(w http.ResponseWriter, r *http.Request) {
	cpuPct, memPct := h.systemStats()

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
			"go_version":     runtime.Version(),
			"goroutines":     runtime.NumGoroutine(),
			"cpu_percent":    cpuPct,
			"memory_percent": memPct,
			"data_dir_mb":    h.dirSizeMB(h.dataDir),
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, response)
}

// HandleFreshness reports the newest observation per data source, so a
// dashboard can flag stale feeds. Sources that fail report "unavailable"
// rather than failing the whole endpoint.
// GET /api/system/freshness
func (h *SystemHandlers) HandleFreshness(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 15*time.Second)
	defer cancel()

	sources := make(map[string]interface{}, len(h.probes))
	for _, entry := range h.probes {
		ts, err := entry.probe(ctx)
		if err != nil {
			h.log.Warn().Err(err).Str("source", entry.name).Msg("Freshness probe failed")
			sources[entry.name] = map[string]string{"status": "unavailable"}
			continue
		}
		sources[entry.name] = map[string]string{
			"status":           "ok",
			"last_observation": ts.Format(time.RFC3339),
		}
	}

	response := map[string]interface{}{
		"data": sources,
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}
	h.writeJSON(w, response)
}

// systemStats returns CPU and RAM usage percentages. The short CPU
// sampling interval keeps the endpoint responsive for polling clients.
func (h *SystemHandlers) systemStats() (float64, float64) {
	cpuPercent, err := cpu.Percent(100*time.Millisecond, false)
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get CPU percentage")
		cpuPercent = []float64{0}
	}

	memStat, err := mem.VirtualMemory()
	if err != nil {
		h.log.Warn().Err(err).Msg("Failed to get memory statistics")
		return 0, 0
	}

	cpuAvg := 0.0
	if len(cpuPercent) > 0 {
		cpuAvg = cpuPercent[0]
	}
	return cpuAvg, memStat.UsedPercent
}

func (h *SystemHandlers) dirSizeMB(dir string) float64 {
	var total int64
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		h.log.Warn().Err(err).Str("dir", dir).Msg("Failed to calculate directory size")
		return 0
	}
	return float64(total) / 1024 / 1024
}

func (h *SystemHandlers) writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode response")
	}
}
