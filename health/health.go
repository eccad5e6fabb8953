// Package health reports liveness plus a small operational snapshot: host
// load, session counts, and adapter availability.
package health

import (
	"context"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/mem"

	"github.com/intervue/interview-service/cache"
	"github.com/intervue/interview-service/metrics"
	"github.com/intervue/interview-service/repository"
	"github.com/intervue/interview-service/sessions"
)

// Status is the health snapshot returned by the health endpoint.
type Status struct {
	Status         string  `json:"status"`
	UptimeSeconds  float64 `json:"uptime_seconds"`
	CPUPercent     float64 `json:"cpu_percent"`
	MemoryPercent  float64 `json:"memory_percent"`
	Goroutines     int     `json:"goroutines"`
	LiveSessions   int     `json:"live_sessions"`
	StoredSessions int     `json:"stored_sessions"`
	Transcriber    string  `json:"transcriber"`
	Synthesizer    string  `json:"synthesizer"`
	Cache          string  `json:"cache"`

	Counters map[string]int64 `json:"counters"`
}

// Checker gathers the snapshot from the running service.
type Checker struct {
	start      time.Time
	manager    *sessions.Manager
	repo       *repository.Repository
	audioCache *cache.DB

	transcriberReady bool
	synthesizerReady bool
}

// NewChecker records the adapters' construction-time readiness. Adapters
// have no ping of their own; if they initialized, they are reported ready.
func NewChecker(manager *sessions.Manager, repo *repository.Repository, audioCache *cache.DB, transcriberReady, synthesizerReady bool) *Checker {
	return &Checker{
		start:            time.Now(),
		manager:          manager,
		repo:             repo,
		audioCache:       audioCache,
		transcriberReady: transcriberReady,
		synthesizerReady: synthesizerReady,
	}
}

func readiness(ready bool) string {
	if ready {
		return "ok"
	}
	return "disabled"
}

// Snapshot collects the current health status. Metric failures degrade to
// zero values; the endpoint itself answering is the liveness signal.
func (c *Checker) Snapshot(ctx context.Context) Status {
	st := Status{
		Status:        "ok",
		UptimeSeconds: time.Since(c.start).Seconds(),
		Goroutines:    runtime.NumGoroutine(),
		LiveSessions:  c.manager.Live(),
		Transcriber:   readiness(c.transcriberReady),
		Synthesizer:   readiness(c.synthesizerReady),
		Counters:      metrics.Get(),
	}

	if percentages, err := cpu.Percent(0, false); err == nil && len(percentages) > 0 {
		st.CPUPercent = percentages[0]
	}
	if virtualMem, err := mem.VirtualMemory(); err == nil {
		st.MemoryPercent = virtualMem.UsedPercent
	}

	if ids, err := c.repo.ListSessions(); err == nil {
		st.StoredSessions = len(ids)
	}

	switch {
	case c.audioCache == nil:
		st.Cache = "disabled"
	case c.audioCache.Ping(ctx) != nil:
		st.Cache = "error"
	default:
		st.Cache = "ok"
	}

	return st
}
