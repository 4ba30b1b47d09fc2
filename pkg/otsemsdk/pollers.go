package otsemsdk

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"
)

const (
	DefaultHealthInterval = 30 * time.Second
	DefaultQuoteInterval  = 15 * time.Second
)

// poller runs fn immediately and then on every tick until stopped.
type poller struct {
	interval time.Duration
	fn       func(ctx context.Context)

	// Internal channels for lifecycle management
	stopCh  chan struct{}
	doneCh  chan struct{}
	once    sync.Once
	started atomic.Bool
}

func newPoller(interval time.Duration, fn func(ctx context.Context)) *poller {
	return &poller{
		interval: interval,
		fn:       fn,
		stopCh:   make(chan struct{}),
		doneCh:   make(chan struct{}),
	}
}

func (p *poller) start() {
	if p.started.CompareAndSwap(false, true) {
		go p.run()
	}
}

// stop blocks until an in-flight poll has finished. Calling it twice, or
// before start, is fine.
func (p *poller) stop() {
	p.once.Do(func() { close(p.stopCh) })
	if p.started.Load() {
		<-p.doneCh
	}
}

func (p *poller) run() {
	defer close(p.doneCh)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		select {
		case <-p.stopCh:
			cancel()
		case <-ctx.Done():
		}
	}()

	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	p.fn(ctx)

	for {
		select {
		case <-ticker.C:
			p.fn(ctx)
		case <-p.stopCh:
			return
		}
	}
}

// ============================================================================
// HealthMonitor
// ============================================================================

// HealthStatus is the last health check result. Healthy is nil until the
// first check completes.
type HealthStatus struct {
	Healthy   *bool
	LastCheck time.Time
}

// HealthMonitor polls the API to tell "backend down" apart from "logged
// out".
type HealthMonitor struct {
	client *Client
	logger *slog.Logger
	poller *poller

	mu     sync.RWMutex
	status HealthStatus
}

// NewHealthMonitor creates a monitor. Zero or negative interval means
// DefaultHealthInterval.
func NewHealthMonitor(client *Client, logger *slog.Logger, interval time.Duration) *HealthMonitor {
	if interval <= 0 {
		interval = DefaultHealthInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	m := &HealthMonitor{client: client, logger: logger}
	m.poller = newPoller(interval, func(ctx context.Context) { m.Check(ctx) })
	return m
}

// Start begins polling in the background. Call Stop to shut it down.
func (m *HealthMonitor) Start() {
	m.poller.start()
	m.logger.Info("health monitor started", "interval", m.poller.interval)
}

// Stop shuts the monitor down and waits for it.
func (m *HealthMonitor) Stop() {
	m.poller.stop()
	m.logger.Info("health monitor stopped")
}

// Check runs one health check now and records the result.
func (m *HealthMonitor) Check(ctx context.Context) bool {
	healthy := true
	if err := m.client.Ping(ctx); err != nil {
		if ctx.Err() != nil {
			return m.lastHealthy()
		}
		m.logger.Warn("health check failed", "error", err)
		healthy = false
	}

	m.mu.Lock()
	m.status = HealthStatus{Healthy: &healthy, LastCheck: time.Now()}
	m.mu.Unlock()

	return healthy
}

// Status returns the last recorded result.
func (m *HealthMonitor) Status() HealthStatus {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *HealthMonitor) lastHealthy() bool {
	s := m.Status()
	return s.Healthy != nil && *s.Healthy
}

// ============================================================================
// QuoteWatcher
// ============================================================================

// QuoteSnapshot is the last quote seen. Rates are nil when unknown.
type QuoteSnapshot struct {
	Quote
	UpdatedAt time.Time
}

// QuoteWatcher keeps the USDT rates fresh. A failed fetch resets both rates
// to unknown rather than showing stale numbers.
type QuoteWatcher struct {
	client *Client
	logger *slog.Logger
	poller *poller

	// OnUpdate, when set, receives every snapshot. Set it before Start.
	OnUpdate func(QuoteSnapshot)

	mu       sync.RWMutex
	snapshot QuoteSnapshot
}

// NewQuoteWatcher creates a watcher. Zero or negative interval means
// DefaultQuoteInterval.
func NewQuoteWatcher(client *Client, logger *slog.Logger, interval time.Duration) *QuoteWatcher {
	if interval <= 0 {
		interval = DefaultQuoteInterval
	}
	if logger == nil {
		logger = slog.Default()
	}
	w := &QuoteWatcher{client: client, logger: logger}
	w.poller = newPoller(interval, func(ctx context.Context) { w.Refresh(ctx) })
	return w
}

// Start begins polling in the background. Call Stop to shut it down.
func (w *QuoteWatcher) Start() {
	w.poller.start()
	w.logger.Info("quote watcher started", "interval", w.poller.interval)
}

// Stop shuts the watcher down and waits for it.
func (w *QuoteWatcher) Stop() {
	w.poller.stop()
	w.logger.Info("quote watcher stopped")
}

// Refresh fetches the quote now. UpdatedAt only moves on success.
func (w *QuoteWatcher) Refresh(ctx context.Context) QuoteSnapshot {
	var snap QuoteSnapshot

	q, err := w.client.Quote(ctx)
	switch {
	case err == nil:
		snap = QuoteSnapshot{Quote: *q, UpdatedAt: time.Now()}
	case ctx.Err() != nil:
		return w.Snapshot()
	default:
		w.logger.Warn("quote refresh failed", "error", err)
		snap = QuoteSnapshot{UpdatedAt: w.Snapshot().UpdatedAt}
	}

	w.mu.Lock()
	w.snapshot = snap
	w.mu.Unlock()

	if w.OnUpdate != nil {
		w.OnUpdate(snap)
	}
	return snap
}

// Snapshot returns the last quote seen.
func (w *QuoteWatcher) Snapshot() QuoteSnapshot {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.snapshot
}
