package services

import (
	"context"
	"testing"
	"time"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newProductServiceForTest(t *testing.T) (ProductService, *gorm.DB) {
	t.Helper()
	db := testutil.NewDB(t)
	svc := NewProductService(ProductDeps{
		Products:       repository.NewProductsRepository(db, nil),
		Categories:     repository.NewCategoryRepository(db, nil),
		Brands:         repository.NewBrandRepository(db, nil),
		StockRepo:      repository.NewStockRepository(db, nil),
		Discounts:      repository.NewDiscountRepository(db, nil),
		Specifications: repository.NewSpecificationRepository(db, nil),
		Reviews:        repository.NewReviewRepository(db, nil),
		Content:        repository.NewContentRepository(db, nil),
		Translator:     NewTranslator(nil, []string{"EN"}, testutil.Logger()),
		Logger:         testutil.Logger(),
	})
	return svc, db
}

func TestProductService_StocksThroughStockRepository(t *testing.T) {
	ctx := context.Background()
	svc, db := newProductServiceForTest(t)

	brand := &models.Brand{Name: "Atlant"}
	require.NoError(t, db.Create(brand).Error)
	almaty := &models.City{Name: "Almaty"}
	astana := &models.City{Name: "Astana"}
	shymkent := &models.City{Name: "Shymkent"}
	for _, c := range []*models.City{almaty, astana, shymkent} {
		require.NoError(t, db.Create(c).Error)
	}
	warehouse := &models.Warehouse{Name: "Almaty Central", CityID: almaty.ID}
	require.NoError(t, db.Create(warehouse).Error)

	kettle := &models.Product{Name: "Kettle", VendorCode: "K-1", Slug: "kettle", BrandID: &brand.ID}
	require.NoError(t, db.Create(kettle).Error)
	require.NoError(t, db.Create(&models.Stock{WarehouseID: warehouse.ID, ProductID: kettle.ID, Quantity: 3, Price: decimal.NewFromInt(10000)}).Error)

	expired := time.Now().Add(-time.Hour)
	require.NoError(t, db.Create(&models.Edge{
		CityFromID: almaty.ID, CityToID: astana.ID, BrandID: &brand.ID,
		TransportationCost: decimal.NewFromInt(1500), EstimatedDeliveryDays: 2, IsActive: true,
	}).Error)
	require.NoError(t, db.Create(&models.Edge{
		CityFromID: almaty.ID, CityToID: shymkent.ID, BrandID: &brand.ID,
		TransportationCost: decimal.NewFromInt(500), IsActive: true, ExpirationDate: &expired,
	}).Error)

	groups, err := svc.Stocks(ctx, "kettle")
	require.NoError(t, err)
	require.Len(t, groups, 2)
	assert.Equal(t, "Almaty", groups[0].CityName)
	assert.Equal(t, "Astana", groups[1].CityName)
	require.Len(t, groups[1].Offers, 1)
	assert.Equal(t, models.StockSourceEdge, groups[1].Offers[0].Source)
	assert.True(t, groups[1].Offers[0].Price.Equal(decimal.NewFromInt(11500)), groups[1].Offers[0].Price.String())

	inAstana, err := svc.StocksInCity(ctx, kettle.ID, astana.ID)
	require.NoError(t, err)
	assert.Equal(t, astana.ID, inAstana.CityID)
	require.Len(t, inAstana.Offers, 1)
	assert.Equal(t, warehouse.ID, inAstana.Offers[0].WarehouseID)

	// the expired edge yields nothing
	inShymkent, err := svc.StocksInCity(ctx, kettle.ID, shymkent.ID)
	require.NoError(t, err)
	assert.Equal(t, "Shymkent", inShymkent.CityName)
	assert.Empty(t, inShymkent.Offers)

	_, err = svc.StocksInCity(ctx, kettle.ID, uuid.New())
	assert.ErrorIs(t, err, repository.ErrCityNotFound)

	_, err = svc.Stocks(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrProductNotFound)
}

func TestProductService_ListByCityKeepsAvailableOnly(t *testing.T) {
	ctx := context.Background()
	svc, db := newProductServiceForTest(t)

	almaty := &models.City{Name: "Almaty"}
	astana := &models.City{Name: "Astana"}
	require.NoError(t, db.Create(almaty).Error)
	require.NoError(t, db.Create(astana).Error)
	warehouse := &models.Warehouse{Name: "Almaty Central", CityID: almaty.ID}
	require.NoError(t, db.Create(warehouse).Error)

	onlyAlmaty := &models.Product{Name: "only-almaty", VendorCode: "A-1", Slug: "only-almaty"}
	nowhere := &models.Product{Name: "nowhere", VendorCode: "N-1", Slug: "nowhere"}
	require.NoError(t, db.Create(onlyAlmaty).Error)
	require.NoError(t, db.Create(nowhere).Error)
	require.NoError(t, db.Create(&models.Stock{WarehouseID: warehouse.ID, ProductID: onlyAlmaty.ID, Quantity: 5, Price: decimal.NewFromInt(3000)}).Error)

	list, total, err := svc.List(ctx, ProductQuery{Filter: models.ProductFilter{CityID: &astana.ID, Limit: 20}})
	require.NoError(t, err)
	assert.Equal(t, int64(0), total)
	assert.Empty(t, list)

	list, total, err = svc.List(ctx, ProductQuery{Filter: models.ProductFilter{CityID: &almaty.ID, Limit: 20}})
	require.NoError(t, err)
	assert.Equal(t, int64(1), total)
	require.Len(t, list, 1)
	assert.Equal(t, "only-almaty", list[0].Name)
	require.NotNil(t, list[0].Price)
	assert.True(t, list[0].Price.Equal(decimal.NewFromInt(3000)))

	_, total, err = svc.List(ctx, ProductQuery{Filter: models.ProductFilter{Limit: 20}})
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)
}
