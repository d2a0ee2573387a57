package tasks

import (
	"context"
	"sync"
	"time"
)

// Progress milestones. Byte upload fills 0-25, the simulation advances to 95 and 100 is reported only after the
// backend confirmed the transcript.
const (
	ProgressUploadCeiling = 25
	ProgressSimCeiling    = 95
	ProgressComplete      = 100
)

// DefaultSimulationInterval is the tick interval used when none is configured.
const DefaultSimulationInterval = 500 * time.Millisecond

// StageLabel returns the stage message for a progress value.
func StageLabel(value int) string {
	switch {
	case value < 25:
		return "Uploading file..."
	case value < 50:
		return "Processing audio..."
	case value < 75:
		return "Transcribing with AI..."
	case value < 95:
		return "Finalizing transcription..."
	default:
		return "Almost done..."
	}
}

// ProgressTracker blends real upload progress with a simulated processing phase.
//
// Reported values never decrease and are delivered to report in order. Once stopped the tracker reports nothing.
type ProgressTracker struct {
	mu      sync.Mutex
	emitMu  sync.Mutex
	value   int
	started bool
	stopped bool

	interval time.Duration
	report   func(int)

	ctx    context.Context
	cancel context.CancelFunc
	done   chan struct{}
}

// NewProgressTracker creates a tracker whose simulation ticker is bound to ctx.
func NewProgressTracker(ctx context.Context, interval time.Duration, report func(int)) *ProgressTracker {
	if interval <= 0 {
		interval = DefaultSimulationInterval
	}
	if report == nil {
		report = func(int) {}
	}
	tctx, cancel := context.WithCancel(ctx)
	return &ProgressTracker{
		interval: interval,
		report:   report,
		ctx:      tctx,
		cancel:   cancel,
		done:     make(chan struct{}),
	}
}

// Value returns the last reported progress.
func (p *ProgressTracker) Value() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.value
}

// Uploaded records body bytes written. It has the signature of [services.ProgressFunc].
//
// When the whole body has been sent the simulation starts.
func (p *ProgressTracker) Uploaded(sent, total int64) {
	if total <= 0 {
		return
	}
	if sent > total {
		sent = total
	}
	p.set(int(sent * ProgressUploadCeiling / total))
	if sent == total {
		p.StartSimulation()
	}
}

// StartSimulation starts the ticker that advances progress from 25 toward 95. Calling it again is a no-op.
func (p *ProgressTracker) StartSimulation() {
	p.mu.Lock()
	if p.started || p.stopped {
		p.mu.Unlock()
		return
	}
	p.started = true
	p.mu.Unlock()

	p.set(ProgressUploadCeiling)
	go p.run()
}

func (p *ProgressTracker) run() {
	defer close(p.done)

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			p.advance()
		}
	}
}

// advance moves the simulated progress one step, slowing as it nears the ceiling.
func (p *ProgressTracker) advance() {
	current := p.Value()
	if current >= ProgressSimCeiling {
		return
	}
	step := max(1, (ProgressSimCeiling-current)/10)
	p.set(min(ProgressSimCeiling, current+step))
}

// set reports v if it moves progress forward.
func (p *ProgressTracker) set(v int) {
	p.emitMu.Lock()
	defer p.emitMu.Unlock()

	p.mu.Lock()
	if p.stopped || v <= p.value {
		p.mu.Unlock()
		return
	}
	p.value = v
	p.mu.Unlock()

	p.report(v)
}

// Stop cancels the simulation and waits for the ticker to exit. No further values are reported.
func (p *ProgressTracker) Stop() {
	p.halt()
	p.mu.Lock()
	p.stopped = true
	p.mu.Unlock()
}

// Complete stops the simulation and reports 100.
func (p *ProgressTracker) Complete() {
	p.halt()
	p.set(ProgressComplete)
	p.Stop()
}

func (p *ProgressTracker) halt() {
	p.cancel()

	p.mu.Lock()
	started := p.started
	p.started = true
	p.mu.Unlock()

	if started {
		<-p.done
		return
	}
	close(p.done)
}
