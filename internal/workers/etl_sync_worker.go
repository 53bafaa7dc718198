// Package workers provides the background jobs of the catalog service.
package workers

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"catalog-service/internal/clients"
	"catalog-service/internal/metrics"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"
	"github.com/sirupsen/logrus"
)

const (
	// DefaultETLSyncInterval is the default interval between ERP syncs
	DefaultETLSyncInterval = 30 * time.Minute

	etlWorkerName = "etl_sync"
)

// ETLSource is the ERP feed the worker pulls from
type ETLSource interface {
	ProductsForCreate(ctx context.Context) ([]clients.ETLProduct, error)
	ProductsForUpdate(ctx context.Context) ([]clients.ETLProduct, error)
}

// ETLStats tracks the result of the last sync.
type ETLStats struct {
	ProductsCreated  int       `json:"productsCreated"`
	ProductsUpdated  int       `json:"productsUpdated"`
	StocksCreated    int       `json:"stocksCreated"`
	StocksUpdated    int       `json:"stocksUpdated"`
	SkippedStores    int       `json:"skippedStores"`
	FailedProducts   int       `json:"failedProducts"`
	TranslationsSent int       `json:"translationsSent"`
	LastRunAt        time.Time `json:"lastRunAt,omitempty"`
	LastRunDuration  string    `json:"lastRunDuration,omitempty"`
}

// ETLSyncWorker periodically imports products and stock from the ERP.
type ETLSyncWorker struct {
	source     ETLSource
	products   *repository.ProductsRepository
	brands     *repository.BrandRepository
	stocks     *repository.StockRepository
	translator *services.Translator
	metrics    *metrics.Metrics
	logger     *logrus.Entry

	interval  time.Duration
	stopChan  chan struct{}
	doneChan  chan struct{}
	mu        sync.Mutex
	syncMu    sync.Mutex
	running   bool
	lastRun   time.Time
	lastError error
	stats     ETLStats
}

// NewETLSyncWorker creates a new ERP sync worker.
func NewETLSyncWorker(
	source ETLSource,
	products *repository.ProductsRepository,
	brands *repository.BrandRepository,
	stocks *repository.StockRepository,
	translator *services.Translator,
	m *metrics.Metrics,
	interval time.Duration,
	logger *logrus.Logger,
) *ETLSyncWorker {
	if interval == 0 {
		interval = DefaultETLSyncInterval
	}
	return &ETLSyncWorker{
		source:     source,
		products:   products,
		brands:     brands,
		stocks:     stocks,
		translator: translator,
		metrics:    m,
		logger:     logger.WithField("component", "etl-sync"),
		interval:   interval,
		stopChan:   make(chan struct{}),
		doneChan:   make(chan struct{}),
	}
}

// Start begins the sync loop.
func (w *ETLSyncWorker) Start() {
	w.mu.Lock()
	if w.running {
		w.mu.Unlock()
		return
	}
	w.running = true
	w.mu.Unlock()

	go w.run()
	w.logger.WithField("interval", w.interval.String()).Info("ETL sync worker started")
}

// Stop stops the sync loop and waits for the current run to finish.
func (w *ETLSyncWorker) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	w.mu.Unlock()

	close(w.stopChan)
	<-w.doneChan
	w.logger.Info("ETL sync worker stopped")
}

// ForceRun triggers an immediate sync.
func (w *ETLSyncWorker) ForceRun(ctx context.Context) error {
	return w.sync(ctx)
}

// IsRunning returns whether the worker is running.
func (w *ETLSyncWorker) IsRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.running
}

// Stats returns the statistics of the last sync.
func (w *ETLSyncWorker) Stats() ETLStats {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.stats
}

// Status returns the current status of the worker.
func (w *ETLSyncWorker) Status() WorkerStatus {
	w.mu.Lock()
	defer w.mu.Unlock()
	return newStatus(w.running, w.interval, w.lastRun, w.lastError, w.stats)
}

func (w *ETLSyncWorker) run() {
	defer close(w.doneChan)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		<-w.stopChan
		cancel()
	}()

	if err := w.sync(ctx); err != nil {
		w.logger.WithError(err).Error("Initial ETL sync failed")
	}

	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	for {
		select {
		case <-w.stopChan:
			return
		case <-ticker.C:
			if err := w.sync(ctx); err != nil {
				w.logger.WithError(err).Error("ETL sync failed")
			}
		}
	}
}

// sync pulls new products first, then updates. Runs never overlap.
func (w *ETLSyncWorker) sync(ctx context.Context) error {
	w.syncMu.Lock()
	defer w.syncMu.Unlock()

	startTime := time.Now()
	stats := ETLStats{LastRunAt: startTime}

	err := w.importFeed(ctx, w.source.ProductsForCreate, &stats)
	if err == nil {
		err = w.importFeed(ctx, w.source.ProductsForUpdate, &stats)
	}
	if stats.StocksCreated+stats.StocksUpdated > 0 {
		w.stocks.AfterBulkUpsert(ctx)
	}
	stats.LastRunDuration = time.Since(startTime).String()

	w.mu.Lock()
	w.lastRun = startTime
	w.lastError = err
	w.stats = stats
	w.mu.Unlock()

	if err != nil {
		w.metrics.WorkerRun(etlWorkerName, "error")
		return err
	}
	w.metrics.WorkerRun(etlWorkerName, "success")
	w.logger.WithFields(logrus.Fields{
		"created":  stats.ProductsCreated,
		"updated":  stats.ProductsUpdated,
		"stocks":   stats.StocksCreated + stats.StocksUpdated,
		"skipped":  stats.SkippedStores,
		"failed":   stats.FailedProducts,
		"duration": stats.LastRunDuration,
	}).Info("ETL sync completed")
	return nil
}

func (w *ETLSyncWorker) importFeed(ctx context.Context, fetch func(context.Context) ([]clients.ETLProduct, error), stats *ETLStats) error {
	items, err := fetch(ctx)
	if err != nil {
		return err
	}
	for i := range items {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := w.importProduct(ctx, &items[i], stats); err != nil {
			stats.FailedProducts++
			w.logger.WithError(err).WithField("sku", items[i].SKU).Warn("Failed to import ERP product")
		}
	}
	return nil
}

func (w *ETLSyncWorker) importProduct(ctx context.Context, item *clients.ETLProduct, stats *ETLStats) error {
	sku := strings.TrimSpace(item.SKU)
	if sku == "" {
		return errors.New("empty sku")
	}
	name := strings.TrimSpace(item.Model)
	if name == "" {
		name = sku
	}

	product := &models.Product{
		Name:       name,
		VendorCode: sku,
	}
	if len(item.Images) > 0 {
		product.Images = models.StringList(item.Images)
	}
	if brandName := strings.TrimSpace(item.Brand); brandName != "" {
		brand, _, err := w.brands.FindOrCreateByName(ctx, brandName)
		if err != nil {
			return err
		}
		product.BrandID = &brand.ID
	}
	if _, err := w.products.GetByVendorCode(ctx, sku); errors.Is(err, repository.ErrProductNotFound) {
		product.Slug = services.GenerateSlug(name + " " + sku)
	}

	created, err := w.products.UpsertByVendorCode(ctx, product)
	if err != nil {
		return err
	}
	if created {
		stats.ProductsCreated++
		stats.TranslationsSent += w.translator.Enqueue(ctx, product)
	} else {
		stats.ProductsUpdated++
	}

	for _, a := range item.Availabilities {
		warehouse, err := w.stocks.WarehouseByKey(ctx, a.StoreID)
		if errors.Is(err, repository.ErrWarehouseNotFound) {
			stats.SkippedStores++
			w.logger.WithFields(logrus.Fields{
				"sku":   sku,
				"store": a.StoreID,
			}).Debug("Unknown ERP store, stock skipped")
			continue
		}
		if err != nil {
			return err
		}
		stockCreated, err := w.stocks.Upsert(ctx, &models.Stock{
			WarehouseID: warehouse.ID,
			ProductID:   product.ID,
			Quantity:    a.Quantity(),
			Price:       a.Price,
		})
		if err != nil {
			return err
		}
		if stockCreated {
			stats.StocksCreated++
		} else {
			stats.StocksUpdated++
		}
	}
	return nil
}
