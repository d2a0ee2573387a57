package tasks

import (
	"context"
	"sync"
	"testing"
	"time"
)

type recorder struct {
	mu     sync.Mutex
	values []int
}

func (r *recorder) report(v int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.values = append(r.values, v)
}

func (r *recorder) snapshot() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]int(nil), r.values...)
}

func assertMonotonic(t *testing.T, values []int) {
	t.Helper()
	for i := 1; i < len(values); i++ {
		if values[i] < values[i-1] {
			t.Fatalf("progress decreased at %d: %v", i, values)
		}
	}
}

func TestProgressTracker(t *testing.T) {
	t.Run("Maps Upload Into First Quarter", func(t *testing.T) {
		rec := &recorder{}
		p := NewProgressTracker(context.Background(), time.Hour, rec.report)
		defer p.Stop()

		p.Uploaded(0, 1000)
		p.Uploaded(400, 1000)
		p.Uploaded(200, 1000)

		if got := p.Value(); got != 10 {
			t.Errorf("expected 10, got %d", got)
		}
		assertMonotonic(t, rec.snapshot())
	})

	t.Run("Simulation Approaches Ceiling", func(t *testing.T) {
		rec := &recorder{}
		p := NewProgressTracker(context.Background(), time.Millisecond, rec.report)

		p.Uploaded(1000, 1000)
		deadline := time.Now().Add(2 * time.Second)
		for p.Value() < ProgressSimCeiling && time.Now().Before(deadline) {
			time.Sleep(5 * time.Millisecond)
		}
		time.Sleep(10 * time.Millisecond)
		p.Stop()

		values := rec.snapshot()
		assertMonotonic(t, values)
		if values[0] != ProgressUploadCeiling {
			t.Errorf("expected simulation to start at %d, got %v", ProgressUploadCeiling, values)
		}
		for _, v := range values {
			if v > ProgressSimCeiling {
				t.Fatalf("simulation exceeded %d: %v", ProgressSimCeiling, values)
			}
		}
		if got := p.Value(); got != ProgressSimCeiling {
			t.Errorf("expected simulation to reach %d, got %d", ProgressSimCeiling, got)
		}
	})

	t.Run("Complete Reports Hundred Last", func(t *testing.T) {
		rec := &recorder{}
		p := NewProgressTracker(context.Background(), time.Millisecond, rec.report)

		p.Uploaded(10, 10)
		time.Sleep(20 * time.Millisecond)
		p.Complete()

		values := rec.snapshot()
		assertMonotonic(t, values)
		if values[len(values)-1] != ProgressComplete {
			t.Fatalf("expected last value 100, got %v", values)
		}
		for _, v := range values[:len(values)-1] {
			if v == ProgressComplete {
				t.Fatalf("100 reported before completion: %v", values)
			}
		}
	})

	t.Run("Stop Halts Reports", func(t *testing.T) {
		rec := &recorder{}
		p := NewProgressTracker(context.Background(), time.Millisecond, rec.report)

		p.StartSimulation()
		time.Sleep(5 * time.Millisecond)
		p.Stop()
		n := len(rec.snapshot())

		time.Sleep(20 * time.Millisecond)
		p.Uploaded(10, 10)
		p.Complete()

		if got := len(rec.snapshot()); got != n {
			t.Errorf("expected no reports after Stop, got %d more", got-n)
		}
	})

	t.Run("Context Cancellation Stops Ticker", func(t *testing.T) {
		ctx, cancel := context.WithCancel(context.Background())
		rec := &recorder{}
		p := NewProgressTracker(ctx, time.Millisecond, rec.report)

		p.StartSimulation()
		cancel()
		time.Sleep(5 * time.Millisecond)
		n := len(rec.snapshot())
		time.Sleep(20 * time.Millisecond)

		if got := len(rec.snapshot()); got != n {
			t.Errorf("ticker kept running after cancellation")
		}
		p.Stop()
	})

	t.Run("Stop Without Start", func(t *testing.T) {
		p := NewProgressTracker(context.Background(), 0, nil)
		p.Stop()
		p.Stop()
		p.Complete()
		if got := p.Value(); got != 0 {
			t.Errorf("expected 0, got %d", got)
		}
	})
}

func TestStageLabel(t *testing.T) {
	tests := []struct {
		value int
		want  string
	}{
		{0, "Uploading file..."},
		{24, "Uploading file..."},
		{25, "Processing audio..."},
		{49, "Processing audio..."},
		{50, "Transcribing with AI..."},
		{75, "Finalizing transcription..."},
		{94, "Finalizing transcription..."},
		{95, "Almost done..."},
		{100, "Almost done..."},
	}

	for _, tt := range tests {
		if got := StageLabel(tt.value); got != tt.want {
			t.Errorf("StageLabel(%d) = %q, want %q", tt.value, got, tt.want)
		}
	}
}
