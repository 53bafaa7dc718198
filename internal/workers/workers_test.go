package workers

import (
	"context"
	"errors"
	"testing"
	"time"

	"catalog-service/internal/clients"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"
	"catalog-service/internal/testutil"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type fakeSource struct {
	create []clients.ETLProduct
	update []clients.ETLProduct
	err    error
}

func (f *fakeSource) ProductsForCreate(ctx context.Context) ([]clients.ETLProduct, error) {
	return f.create, f.err
}

func (f *fakeSource) ProductsForUpdate(ctx context.Context) ([]clients.ETLProduct, error) {
	return f.update, nil
}

type countingPublisher struct {
	sent []models.TranslationRequest
}

func (p *countingPublisher) PublishTranslationRequest(ctx context.Context, req *models.TranslationRequest) error {
	p.sent = append(p.sent, *req)
	return nil
}

func setupETL(t *testing.T, source ETLSource) (*ETLSyncWorker, *gorm.DB, *countingPublisher) {
	db := testutil.NewDB(t)
	logger := testutil.Logger()

	city := models.City{Name: "Almaty"}
	require.NoError(t, db.Create(&city).Error)
	require.NoError(t, db.Create(&models.Warehouse{Name: "Main", ExternalID: "store-1", CityID: city.ID}).Error)

	publisher := &countingPublisher{}
	translator := services.NewTranslator(publisher, []string{"EN", "KZ"}, logger)
	w := NewETLSyncWorker(
		source,
		repository.NewProductsRepository(db, nil),
		repository.NewBrandRepository(db, nil),
		repository.NewStockRepository(db, nil),
		translator,
		nil,
		time.Hour,
		logger,
	)
	return w, db, publisher
}

func TestETLSyncWorker_CreatesProductsAndStocks(t *testing.T) {
	source := &fakeSource{
		create: []clients.ETLProduct{{
			SKU:    "SKU-1",
			Model:  "Phone X",
			Brand:  "Acme",
			Images: []string{"https://img/1.jpg"},
			Availabilities: []clients.ETLAvailability{
				{StoreID: "store-1", Available: "yes", StockCount: 4, Price: decimal.NewFromInt(1000)},
				{StoreID: "unknown", Available: "yes", StockCount: 2, Price: decimal.NewFromInt(900)},
			},
		}},
	}
	w, db, publisher := setupETL(t, source)

	require.NoError(t, w.ForceRun(context.Background()))

	var product models.Product
	require.NoError(t, db.Where("vendor_code = ?", "SKU-1").First(&product).Error)
	assert.Equal(t, "Phone X", product.Name)
	assert.NotEmpty(t, product.Slug)
	assert.Equal(t, models.StringList{"https://img/1.jpg"}, product.Images)
	require.NotNil(t, product.BrandID)

	var brand models.Brand
	require.NoError(t, db.First(&brand, "id = ?", *product.BrandID).Error)
	assert.Equal(t, "Acme", brand.Name)

	var stocks []models.Stock
	require.NoError(t, db.Where("product_id = ?", product.ID).Find(&stocks).Error)
	require.Len(t, stocks, 1)
	assert.Equal(t, 4, stocks[0].Quantity)
	assert.True(t, stocks[0].Price.Equal(decimal.NewFromInt(1000)))

	stats := w.Stats()
	assert.Equal(t, 1, stats.ProductsCreated)
	assert.Equal(t, 1, stats.StocksCreated)
	assert.Equal(t, 1, stats.SkippedStores)
	assert.Equal(t, 2, stats.TranslationsSent)
	assert.Len(t, publisher.sent, 2)
}

func TestETLSyncWorker_UpdateKeepsSlugAndBrand(t *testing.T) {
	source := &fakeSource{
		create: []clients.ETLProduct{{
			SKU:   "SKU-2",
			Model: "Laptop",
			Brand: "Acme",
			Availabilities: []clients.ETLAvailability{
				{StoreID: "store-1", Available: "yes", StockCount: 3, Price: decimal.NewFromInt(500)},
			},
		}},
	}
	w, db, _ := setupETL(t, source)
	require.NoError(t, w.ForceRun(context.Background()))

	var before models.Product
	require.NoError(t, db.Where("vendor_code = ?", "SKU-2").First(&before).Error)

	source.create = nil
	source.update = []clients.ETLProduct{{
		SKU:   "SKU-2",
		Model: "Laptop Pro",
		Availabilities: []clients.ETLAvailability{
			{StoreID: "Main", Available: "no", StockCount: 3, Price: decimal.NewFromInt(450)},
		},
	}}
	require.NoError(t, w.ForceRun(context.Background()))

	var after models.Product
	require.NoError(t, db.Where("vendor_code = ?", "SKU-2").First(&after).Error)
	assert.Equal(t, before.ID, after.ID)
	assert.Equal(t, "Laptop Pro", after.Name)
	assert.Equal(t, before.Slug, after.Slug)
	assert.Equal(t, before.BrandID, after.BrandID)

	var stock models.Stock
	require.NoError(t, db.Where("product_id = ?", after.ID).First(&stock).Error)
	assert.Equal(t, 0, stock.Quantity)
	assert.True(t, stock.Price.Equal(decimal.NewFromInt(450)))

	stats := w.Stats()
	assert.Equal(t, 1, stats.ProductsUpdated)
	assert.Equal(t, 1, stats.StocksUpdated)
}

func TestETLSyncWorker_SourceErrorIsReported(t *testing.T) {
	w, _, _ := setupETL(t, &fakeSource{err: errors.New("etl down")})

	err := w.ForceRun(context.Background())
	require.Error(t, err)
	assert.Equal(t, "etl down", w.Status().LastError)
}

func TestETLSyncWorker_SkipsEmptySKU(t *testing.T) {
	w, db, _ := setupETL(t, &fakeSource{create: []clients.ETLProduct{{Model: "No SKU"}}})

	require.NoError(t, w.ForceRun(context.Background()))

	var count int64
	db.Model(&models.Product{}).Count(&count)
	assert.Zero(t, count)
	assert.Equal(t, 1, w.Stats().FailedProducts)
}

func TestETLSyncWorker_StartStop(t *testing.T) {
	w, _, _ := setupETL(t, &fakeSource{})

	w.Start()
	assert.True(t, w.IsRunning())
	w.Start()
	w.Stop()
	assert.False(t, w.IsRunning())
	w.Stop()
}

type fakeExpirer struct {
	calls []time.Time
	n     int64
	err   error
}

func (f *fakeExpirer) DeactivateExpired(ctx context.Context, now time.Time) (int64, error) {
	f.calls = append(f.calls, now)
	return f.n, f.err
}

func TestDiscountSweeper_ForceRun(t *testing.T) {
	expirer := &fakeExpirer{n: 3}
	s := NewDiscountSweeper(expirer, nil, time.Hour, testutil.Logger())
	fixed := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	require.NoError(t, s.ForceRun(context.Background()))
	require.NoError(t, s.ForceRun(context.Background()))

	require.Len(t, expirer.calls, 2)
	assert.Equal(t, fixed, expirer.calls[0])
	stats := s.Stats()
	assert.Equal(t, int64(3), stats.Deactivated)
	assert.Equal(t, int64(6), stats.TotalDeactivated)

	status := s.Status()
	assert.Equal(t, "1h0m0s", status.Interval)
	assert.Equal(t, fixed, status.LastRun)
	assert.Empty(t, status.LastError)
}

func TestDiscountSweeper_Error(t *testing.T) {
	s := NewDiscountSweeper(&fakeExpirer{err: errors.New("db gone")}, nil, 0, testutil.Logger())

	require.Error(t, s.ForceRun(context.Background()))
	assert.Equal(t, "db gone", s.Status().LastError)
	assert.Equal(t, DefaultDiscountSweepInterval.String(), s.Status().Interval)
}

func TestDiscountSweeper_AgainstDatabase(t *testing.T) {
	db := testutil.NewDB(t)
	past := time.Now().Add(-time.Hour)
	future := time.Now().Add(time.Hour)
	expired := models.Discount{Name: "old", Amount: decimal.NewFromInt(10), Active: true, EndDate: &past}
	current := models.Discount{Name: "new", Amount: decimal.NewFromInt(10), Active: true, EndDate: &future}
	require.NoError(t, db.Create(&expired).Error)
	require.NoError(t, db.Create(&current).Error)

	s := NewDiscountSweeper(repository.NewDiscountRepository(db, nil), nil, time.Hour, testutil.Logger())
	require.NoError(t, s.ForceRun(context.Background()))

	var swept, kept models.Discount
	require.NoError(t, db.First(&swept, "id = ?", expired.ID).Error)
	assert.False(t, swept.Active)
	require.NoError(t, db.First(&kept, "id = ?", current.ID).Error)
	assert.Equal(t, current.ID, kept.ID)
	assert.True(t, kept.Active)
	assert.Equal(t, int64(1), s.Stats().Deactivated)
}
