package service_test

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"layr/internal/service"
)

type fakePruner struct {
	mu      sync.Mutex
	cutoffs []time.Time
	n       int64
	err     error
}

func (p *fakePruner) PruneOlderThan(cutoff time.Time) (int64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.cutoffs = append(p.cutoffs, cutoff)
	return p.n, p.err
}

func TestRetention_RunOnce(t *testing.T) {
	p := &fakePruner{n: 3}
	m := &service.MockEmitter{}
	r := service.NewRetentionService(p, 24*time.Hour, m)

	before := time.Now()
	n, err := r.RunOnce(context.Background())
	if err != nil || n != 3 {
		t.Fatalf("RunOnce = %d, %v", n, err)
	}
	if len(p.cutoffs) != 1 {
		t.Fatalf("prune calls = %d", len(p.cutoffs))
	}
	if d := before.Sub(p.cutoffs[0]); d < 24*time.Hour-time.Second || d > 24*time.Hour+time.Second {
		t.Errorf("cutoff is %v before now, want 24h", d)
	}
	if ev := m.Named(service.EventHistoryPruned); len(ev) != 1 || ev[0] != int64(3) {
		t.Errorf("events = %v", ev)
	}
}

func TestRetention_NothingPrunedEmitsNothing(t *testing.T) {
	m := &service.MockEmitter{}
	r := service.NewRetentionService(&fakePruner{}, time.Hour, m)
	r.RunOnce(context.Background())
	if len(m.Events) != 0 {
		t.Errorf("events = %v", m.Events)
	}
}

func TestRetention_Error(t *testing.T) {
	r := service.NewRetentionService(&fakePruner{err: errors.New("disk")}, time.Hour, nil)
	if _, err := r.RunOnce(context.Background()); err == nil {
		t.Error("expected error")
	}
}

func TestRetention_Start(t *testing.T) {
	tests := []struct {
		name    string
		spec    string
		maxAge  time.Duration
		wantErr bool
	}{
		{"empty schedule", "", time.Hour, false},
		{"disabled by age", "@daily", 0, false},
		{"valid", "@every 1h", time.Hour, false},
		{"invalid", "every tuesday", time.Hour, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := service.NewRetentionService(&fakePruner{}, tt.maxAge, nil)
			err := r.Start(context.Background(), tt.spec)
			defer r.Stop()
			if (err != nil) != tt.wantErr {
				t.Errorf("Start(%q) = %v", tt.spec, err)
			}
		})
	}
}
