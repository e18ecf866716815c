// Package health tracks whether the remote service is reachable.
package health

import (
	"context"
	"sync"
	"time"

	"github.com/itsDongki/quicknotes/internal/logger"
)

// Pinger is the probe the poller runs, typically remote.Client.Ping.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Status is the last observed connection state.
type Status struct {
	Connected bool
	Latency   time.Duration
	CheckedAt time.Time
	LastError string
}

// Poller probes the remote service on a fixed interval and keeps the last
// known status. A probe failure never affects note operations; it only turns
// the status indicator red.
type Poller struct {
	pinger   Pinger
	logger   logger.Logger
	interval time.Duration
	timeout  time.Duration
	stopCh   chan struct{}

	mu     sync.RWMutex
	status Status
}

// NewPoller creates a poller. The probe timeout is capped at the interval.
func NewPoller(pinger Pinger, log logger.Logger, interval time.Duration) *Poller {
	timeout := 5 * time.Second
	if timeout > interval {
		timeout = interval
	}
	return &Poller{
		pinger:   pinger,
		logger:   log,
		interval: interval,
		timeout:  timeout,
		stopCh:   make(chan struct{}),
	}
}

// Start probes immediately, then on every tick until Stop or ctx cancel.
func (p *Poller) Start(ctx context.Context) {
	p.probe(ctx)

	ticker := time.NewTicker(p.interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				p.probe(ctx)
			case <-p.stopCh:
				return
			case <-ctx.Done():
				return
			}
		}
	}()
}

// Stop stops the poller.
func (p *Poller) Stop() {
	close(p.stopCh)
}

// Status returns the last probe result.
func (p *Poller) Status() Status {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.status
}

func (p *Poller) probe(ctx context.Context) {
	probeCtx, cancel := context.WithTimeout(ctx, p.timeout)
	defer cancel()

	start := time.Now()
	err := p.pinger.Ping(probeCtx)
	elapsed := time.Since(start)

	st := Status{
		Connected: err == nil,
		Latency:   elapsed,
		CheckedAt: time.Now(),
	}
	if err != nil {
		st.LastError = err.Error()
		p.logger.Debug("connection probe failed",
			logger.Duration("latency", elapsed),
			logger.Error(err))
	}

	p.mu.Lock()
	p.status = st
	p.mu.Unlock()
}
