package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/rs/zerolog"
	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/disk"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/aristath/fusor/internal/config"
	"github.com/aristath/fusor/internal/database"
	"github.com/aristath/fusor/internal/modules/analysis"
)

// SystemHandlers serves system status and database statistics
type SystemHandlers struct {
	log       zerolog.Logger
	cfg       *config.Config
	reportsDB *database.DB
	analysis  *analysis.Service
	startedAt time.Time
}

// NewSystemHandlers creates system handlers
func NewSystemHandlers(log zerolog.Logger, cfg *config.Config, reportsDB *database.DB, analysisSvc *analysis.Service) *SystemHandlers {
	return &SystemHandlers{
		log:       log.With().Str("handler", "system").Logger(),
		cfg:       cfg,
		reportsDB: reportsDB,
		analysis:  analysisSvc,
		startedAt: time.Now().UTC(),
	}
}

// HandleSystemStatus handles GET /api/system/status
func (h *SystemHandlers) HandleSystemStatus(w http.ResponseWriter, r *http.Request) {
	cpuPercent, memPercent := h.getSystemStats()

	diskInfo := map[string]interface{}{}
	if usage, err := disk.Usage(h.cfg.DataDir); err == nil {
		diskInfo = map[string]interface{}{
			"total_gb":     float64(usage.Total) / 1024 / 1024 / 1024,
			"free_gb":      float64(usage.Free) / 1024 / 1024 / 1024,
			"used_percent": usage.UsedPercent,
		}
	} else {
		h.log.Warn().Err(err).Msg("Failed to get disk usage")
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"status":         "running",
			"uptime_seconds": int64(time.Since(h.startedAt).Seconds()),
			"engine": map[string]interface{}{
				"version":    h.analysis.Version(),
				"capability": h.analysis.Capability(),
			},
			"host": map[string]interface{}{
				"cpu_percent":    cpuPercent,
				"memory_percent": memPercent,
				"disk":           diskInfo,
			},
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, response)
}

// HandleDatabaseStats handles GET /api/system/database/stats
func (h *SystemHandlers) HandleDatabaseStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.reportsDB.GetStats()
	if err != nil {
		h.log.Error().Err(err).Msg("Failed to get database stats")
		http.Error(w, "Failed to get database stats", http.StatusInternalServerError)
		return
	}

	response := map[string]interface{}{
		"data": map[string]interface{}{
			"name":           h.reportsDB.Name(),
			"size_bytes":     stats.SizeBytes,
			"wal_size_bytes": stats.WALSizeBytes,
			"page_count":     stats.PageCount,
			"page_size":      stats.PageSize,
			"freelist_count": stats.FreelistCount,
		},
		"metadata": map[string]interface{}{
			"timestamp": time.Now().Format(time.RFC3339),
		},
	}

	h.writeJSON(w, response)
}

// getSystemStats calculates CPU and RAM usage percentages.
// Uses a 100ms CPU sampling interval so the endpoint stays responsive.
func (h *SystemHandlers) getSystemStats() (float64, float64) {
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

// writeJSON writes a JSON response
func (h *SystemHandlers) writeJSON(w http.ResponseWriter, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		h.log.Error().Err(err).Msg("Failed to encode JSON response")
	}
}
