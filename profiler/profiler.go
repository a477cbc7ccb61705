package profiler

import (
	"log"
	"runtime"
	"time"
)

// Profiler samples logic-tick and render-frame throughput plus heap/GC
// stats once per updateInterval, logging whatever has accrued since the
// last sample. Unlike the teacher's single fused per-frame counter
// (engine/profiler/profiler.go's Tick, called once per draw from one
// combined engine loop), this tracks ticks and renders as two
// independent counters: the frame orchestrator's fixed-timestep logic
// loop and its asynchronously-scheduled render task (spec.md §4.9) can
// complete at different, decoupled cadences, so a single fused FPS number
// would conflate two meaningfully different rates.
type Profiler struct {
	tickCount      int
	renderCount    int
	lastTime       time.Time
	updateInterval time.Duration
	memStats       runtime.MemStats
	lastGCCount    uint32
	lastTotalAlloc uint64
}

// NewProfiler creates a new Profiler with default settings.
// Update interval defaults to 1 second.
func NewProfiler() *Profiler {
	return &Profiler{
		lastTime:       time.Now(),
		updateInterval: time.Second,
	}
}

// RecordTick should be called once per fixed logic tick. Returns true if
// a sample was logged this call.
func (p *Profiler) RecordTick() bool {
	p.tickCount++
	return p.maybeLog()
}

// RecordRender should be called once per completed render task. Returns
// true if a sample was logged this call.
func (p *Profiler) RecordRender() bool {
	p.renderCount++
	return p.maybeLog()
}

// maybeLog logs logic/render throughput and heap/GC stats if
// updateInterval has elapsed since the last sample, then resets the
// counters for the next window.
//
// Stats logged: tick/render Hz, heap usage, allocation rate, GC
// count/pause times, total memory.
func (p *Profiler) maybeLog() bool {
	now := time.Now()
	elapsed := now.Sub(p.lastTime)
	if elapsed < p.updateInterval {
		return false
	}

	tickHz := float64(p.tickCount) / elapsed.Seconds()
	renderHz := float64(p.renderCount) / elapsed.Seconds()

	runtime.ReadMemStats(&p.memStats)
	// Alloc: bytes of allocated heap objects (live memory).
	// TotalAlloc: cumulative bytes allocated for heap objects (churn).
	// Sys: total bytes obtained from the OS (process footprint).
	allocMB := float64(p.memStats.Alloc) / 1024 / 1024
	sysMB := float64(p.memStats.Sys) / 1024 / 1024

	allocDelta := p.memStats.TotalAlloc - p.lastTotalAlloc
	allocRateMB := float64(allocDelta) / 1024 / 1024 / elapsed.Seconds()

	gcCount := p.memStats.NumGC
	var lastPauseUs, maxPauseUs uint64
	if gcCount > 0 {
		// PauseNs is a circular buffer of the last 256 GC pauses.
		lastPauseUs = p.memStats.PauseNs[(gcCount-1)%256] / 1000

		startIdx := p.lastGCCount
		if gcCount-startIdx > 256 {
			startIdx = gcCount - 256
		}
		for i := startIdx; i < gcCount; i++ {
			pause := p.memStats.PauseNs[i%256] / 1000
			if pause > maxPauseUs {
				maxPauseUs = pause
			}
		}
	}

	log.Printf("profiler: logic=%.2fHz render=%.2fHz heap=%.2fMB allocRate=%.2fMB/s gc=%d(last=%dus,max=%dus) sys=%.2fMB",
		tickHz, renderHz, allocMB, allocRateMB, gcCount, lastPauseUs, maxPauseUs, sysMB)

	p.tickCount = 0
	p.renderCount = 0
	p.lastTime = now
	p.lastGCCount = gcCount
	p.lastTotalAlloc = p.memStats.TotalAlloc
	return true
}
