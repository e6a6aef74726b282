package ui

import (
	"sync"
	"time"
)

const (
	// speedWindow is the minimum interval between speed samples.
	speedWindow = 500 * time.Millisecond
	// speedSmoothing weights a new speed sample in the rolling average.
	speedSmoothing = 0.2
	// etaSmoothing weights a new ETA against the previous estimate.
	etaSmoothing = 0.3
)

// ProgressTracker holds population progress. It is safe for concurrent use.
type ProgressTracker struct {
	mu         sync.Mutex
	now        func() time.Time
	stage      Stage
	current    int
	total      int
	stageStart time.Time
	errors     int
	warnings   int
	lastETA    time.Duration

	sampleAt    time.Time
	sampleCount int
	samples     int
	speed       SpeedStats
}

// SpeedStats are records per second.
type SpeedStats struct {
	Current float64
	Avg     float64
	Peak    float64
}

// ProgressStats is a snapshot of a tracker.
type ProgressStats struct {
	Stage      Stage
	Current    int
	Total      int
	Progress   float64 // 0.0-1.0
	ETA        time.Duration
	ErrorCount int
	WarnCount  int
	Speed      SpeedStats
}

// NewProgressTracker creates a tracker in StageCreating.
func NewProgressTracker() *ProgressTracker {
	return newProgressTracker(time.Now)
}

func newProgressTracker(now func() time.Time) *ProgressTracker {
	t := now()
	return &ProgressTracker{now: now, stage: StageCreating, stageStart: t, sampleAt: t}
}

// SetStage moves to stage with total units of work and resets counters.
func (p *ProgressTracker) SetStage(stage Stage, total int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	t := p.now()
	p.stage = stage
	p.total = total
	p.current = 0
	p.stageStart = t
	p.lastETA = 0
	p.sampleAt = t
	p.sampleCount = 0
	p.samples = 0
	p.speed = SpeedStats{}
}

// Update records current units done in the stage.
func (p *ProgressTracker) Update(current int) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.current = current

	t := p.now()
	elapsed := t.Sub(p.sampleAt)
	if elapsed < speedWindow {
		return
	}
	if delta := current - p.sampleCount; delta > 0 {
		speed := float64(delta) / elapsed.Seconds()
		p.speed.Current = speed
		p.samples++
		if p.samples == 1 {
			p.speed.Avg = speed
		} else {
			p.speed.Avg = speedSmoothing*speed + (1-speedSmoothing)*p.speed.Avg
		}
		p.speed.Peak = max(p.speed.Peak, speed)
	}
	p.sampleCount = current
	p.sampleAt = t
}

// AddError counts an error or warning.
func (p *ProgressTracker) AddError(event ErrorEvent) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if event.IsWarn {
		p.warnings++
	} else {
		p.errors++
	}
}

// Stats returns a snapshot. It takes the write lock because the ETA is
// smoothed against the previous call.
func (p *ProgressTracker) Stats() ProgressStats {
	p.mu.Lock()
	defer p.mu.Unlock()

	return ProgressStats{
		Stage:      p.stage,
		Current:    p.current,
		Total:      p.total,
		Progress:   p.progress(),
		ETA:        p.eta(),
		ErrorCount: p.errors,
		WarnCount:  p.warnings,
		Speed:      p.speed,
	}
}

func (p *ProgressTracker) progress() float64 {
	if p.total == 0 {
		return 0
	}
	return min(float64(p.current)/float64(p.total), 1.0)
}

// eta must be called with the lock held.
func (p *ProgressTracker) eta() time.Duration {
	progress := p.progress()
	if progress <= 0 || progress >= 1.0 {
		return 0
	}
	elapsed := p.now().Sub(p.stageStart)
	remaining := time.Duration(float64(elapsed)/progress) - elapsed
	if remaining <= 0 {
		return 0
	}
	if p.lastETA == 0 {
		p.lastETA = remaining
		return remaining
	}
	p.lastETA = time.Duration(etaSmoothing*float64(remaining) + (1-etaSmoothing)*float64(p.lastETA))
	return p.lastETA
}
