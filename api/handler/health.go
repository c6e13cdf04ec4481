package handler

import (
	"math"
	"net/http"
	"runtime"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shirou/gopsutil/v4/mem"
	"github.com/use-agent/xcommunity/models"
)

// Version is reported by the health endpoint.
const Version = "0.1.0"

// MemDegradedPercent is the host memory use at which the service reports
// itself degraded.
const MemDegradedPercent = 90.0

// PoolReporter exposes browser pool utilisation.
type PoolReporter interface {
	Stats() models.PoolStats
}

// SystemSampler reports host resource usage.
type SystemSampler func() models.SystemStats

// HostStats samples host memory via gopsutil. A failed sample reports 0.
func HostStats() models.SystemStats {
	st := models.SystemStats{Goroutines: runtime.NumGoroutine()}
	if vm, err := mem.VirtualMemory(); err == nil {
		st.MemUsedPercent = math.Round(vm.UsedPercent*10) / 10
	}
	return st
}

// Health returns a handler for GET /health.
//
// Status is "degraded" when every browser context is leased or host memory
// is above MemDegradedPercent.
func Health(p PoolReporter, sample SystemSampler, startTime time.Time) gin.HandlerFunc {
	return func(c *gin.Context) {
		stats := p.Stats()
		sys := sample()

		status := "healthy"
		if stats.Size > 0 && stats.Active >= stats.Size {
			status = "degraded"
		}
		if sys.MemUsedPercent >= MemDegradedPercent {
			status = "degraded"
		}

		c.JSON(http.StatusOK, models.HealthResponse{
			Status:  status,
			Uptime:  time.Since(startTime).Round(time.Second).String(),
			Pool:    stats,
			System:  sys,
			Version: Version,
		})
	}
}
