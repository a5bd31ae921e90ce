package poller

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/callscope/adminfeed/internal/feed"
)

// MetricsRequester issues best-effort metrics requests.
type MetricsRequester interface {
	State() feed.State
	RequestMetrics()
}

// Config holds poller configuration.
type Config struct {
	Interval time.Duration // Request interval (default: 30s)
}

// DefaultConfig returns sensible defaults.
func DefaultConfig() Config {
	return Config{
		Interval: 30 * time.Second,
	}
}

// Poller periodically requests metrics snapshots over the feed.
type Poller struct {
	cfg       Config
	requester MetricsRequester
	logger    *slog.Logger

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	requests atomic.Int64
	skipped  atomic.Int64
}

// New creates a new Poller.
func New(cfg Config, requester MetricsRequester, logger *slog.Logger) *Poller {
	if logger == nil {
		logger = slog.Default()
	}
	if cfg.Interval <= 0 {
		cfg.Interval = DefaultConfig().Interval
	}
	return &Poller{
		cfg:       cfg,
		requester: requester,
		logger:    logger,
	}
}

// Start begins the polling loop.
func (p *Poller) Start(ctx context.Context) error {
	p.ctx, p.cancel = context.WithCancel(ctx)

	p.wg.Add(1)
	go p.run()

	p.logger.Info("metrics poller started", "interval", p.cfg.Interval)
	return nil
}

// Stop gracefully shuts down the poller.
func (p *Poller) Stop(ctx context.Context) error {
	if p.cancel != nil {
		p.cancel()
	}

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
		p.logger.Info("metrics poller stopped")
	case <-ctx.Done():
		p.logger.Warn("metrics poller stop timed out")
	}
	return nil
}

// Stats reports request counters.
type Stats struct {
	Requests int64 // Ticks that sent a request
	Skipped  int64 // Ticks skipped while disconnected
}

// Stats returns current statistics.
func (p *Poller) Stats() Stats {
	return Stats{
		Requests: p.requests.Load(),
		Skipped:  p.skipped.Load(),
	}
}

func (p *Poller) run() {
	defer p.wg.Done()

	ticker := time.NewTicker(p.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-p.ctx.Done():
			return
		case <-ticker.C:
			if p.requester.State() != feed.StateConnected {
				p.skipped.Add(1)
				continue
			}
			p.requester.RequestMetrics()
			p.requests.Add(1)
		}
	}
}
