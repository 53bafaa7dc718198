package workers

import (
	"context"
	"sync"
	"time"

	"catalog-service/internal/metrics"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultDiscountSweepInterval is the default interval between sweeps
	DefaultDiscountSweepInterval = 10 * time.Minute

	sweeperWorkerName = "discount_sweeper"
)

// DiscountExpirer switches off discounts past their end date
type DiscountExpirer interface {
	DeactivateExpired(ctx context.Context, now time.Time) (int64, error)
}

// SweepStats tracks deactivated discounts.
type SweepStats struct {
	Deactivated      int64     `json:"deactivated"`
	TotalDeactivated int64     `json:"totalDeactivated"`
	LastRunAt        time.Time `json:"lastRunAt,omitempty"`
	LastRunDuration  string    `json:"lastRunDuration,omitempty"`
}

// DiscountSweeper deactivates expired discounts so they drop out of price
// calculation and cached lists.
type DiscountSweeper struct {
	discounts DiscountExpirer
	metrics   *metrics.Metrics
	logger    *logrus.Entry
	now       func() time.Time

	interval  time.Duration
	stopChan  chan struct{}
	doneChan  chan struct{}
	mu        sync.Mutex
	running   bool
	lastRun   time.Time
	lastError error
	stats     SweepStats
}

func NewDiscountSweeper(discounts DiscountExpirer, m *metrics.Metrics, interval time.Duration, logger *logrus.Logger) *DiscountSweeper {
	if interval == 0 {
		interval = DefaultDiscountSweepInterval
	}
	return &DiscountSweeper{
		discounts: discounts,
		metrics:   m,
		logger:    logger.WithField("component", "discount-sweeper"),
		now:       time.Now,
		interval:  interval,
		stopChan:  make(chan struct{}),
		doneChan:  make(chan struct{}),
	}
}

// Start begins the sweep loop.
func (w *DiscountSweeper) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.run()
	w.logger.WithField("interval", w.interval.String()).Info("Discount sweeper started")
}

// Stop stops the sweep loop.
func (w *DiscountSweeper) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopChan)
	<-w.doneChan
	w.logger.Info("Discount sweeper stopped")
}

// ForceRun triggers an immediate sweep.
func (w *DiscountSweeper) ForceRun(ctx context.Context) error {
	return w.sweep(ctx)
}

func (w *DiscountSweeper) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

func (w *DiscountSweeper) Stats() SweepStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

func (w *DiscountSweeper) Status() WorkerStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return newStatus(w.running, w.interval, w.lastRun, w.lastError, w.stats)
}

func (w *DiscountSweeper) run() {
	defer close(w.doneChan)

	ctx := context.Background()
	if err := w.sweep(ctx); err != nil {
		w.logger.WithError(err).Error("Initial discount sweep failed")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			if err := w.sweep(ctx); err != nil {
				w.logger.WithError(err).Error("Discount sweep failed")
			}
		}
	}
}

func (w *DiscountSweeper) sweep(ctx context.Context) error {
	startTime := w.now()
	n, err := w.discounts.DeactivateExpired(ctx, startTime)

	w.mu.Lock()
	w.lastRun = startTime
	w.lastError = err
	if err == nil {
		w.stats.Deactivated = n
		w.stats.TotalDeactivated += n
		w.stats.LastRunAt = startTime
		w.stats.LastRunDuration = time.Since(startTime).String()
	}
	w.mu.Unlock()

	if err != nil {
		w.metrics.WorkerRun(sweeperWorkerName, "error")
		return err
	}
	w.metrics.WorkerRun(sweeperWorkerName, "success")
	if n > 0 {
		w.logger.WithField("count", n).Info("Deactivated expired discounts")
	}
	return nil
}
