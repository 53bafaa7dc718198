package repository

import (
	"context"
	"testing"
	"time"

	"catalog-service/internal/models"
	"catalog-service/internal/testutil"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

type listFixture struct {
	db        *gorm.DB
	repo      *ProductsRepository
	root      *models.Category
	kitchen   *models.Category
	hit       *models.Tag
	almaty    *models.City
	astana    *models.City
	shymkent  *models.City
	karaganda *models.City
}

func newListFixture(t *testing.T) *listFixture {
	t.Helper()
	db := testutil.NewDB(t)
	categories := NewCategoryRepository(db, nil)
	fx := &listFixture{db: db, repo: NewProductsRepository(db, nil)}

	fx.root = createCategory(t, categories, "appliances", nil)
	fx.kitchen = createCategory(t, categories, "kitchen", fx.root)
	laundry := createCategory(t, categories, "laundry", fx.root)
	garden := createCategory(t, categories, "garden", nil)

	brand := &models.Brand{Name: "Atlant"}
	require.NoError(t, db.Create(brand).Error)

	fx.almaty = &models.City{Name: "Almaty"}
	fx.astana = &models.City{Name: "Astana"}
	fx.shymkent = &models.City{Name: "Shymkent"}
	fx.karaganda = &models.City{Name: "Karaganda"}
	for _, c := range []*models.City{fx.almaty, fx.astana, fx.shymkent, fx.karaganda} {
		require.NoError(t, db.Create(c).Error)
	}
	almatyWH := &models.Warehouse{Name: "Almaty WH", CityID: fx.almaty.ID}
	astanaWH := &models.Warehouse{Name: "Astana WH", CityID: fx.astana.ID}
	require.NoError(t, db.Create(almatyWH).Error)
	require.NoError(t, db.Create(astanaWH).Error)

	kettle := &models.Product{Name: "Kettle", VendorCode: "K-1", Slug: "kettle", CategoryID: &fx.kitchen.ID, BrandID: &brand.ID}
	toaster := &models.Product{Name: "Toaster", VendorCode: "T-1", Slug: "toaster", CategoryID: &fx.kitchen.ID}
	washer := &models.Product{Name: "Washer", VendorCode: "W-1", Slug: "washer", CategoryID: &laundry.ID}
	mower := &models.Product{Name: "Mower", VendorCode: "M-1", Slug: "mower", CategoryID: &garden.ID}
	for _, p := range []*models.Product{kettle, toaster, washer, mower} {
		require.NoError(t, db.Create(p).Error)
	}

	stocks := []models.Stock{
		{WarehouseID: almatyWH.ID, ProductID: kettle.ID, Quantity: 2, Price: decimal.NewFromInt(12000)},
		{WarehouseID: astanaWH.ID, ProductID: kettle.ID, Quantity: 0, Price: decimal.NewFromInt(12500)},
		{WarehouseID: almatyWH.ID, ProductID: toaster.ID, Quantity: 1, Price: decimal.NewFromInt(8000)},
		{WarehouseID: astanaWH.ID, ProductID: washer.ID, Quantity: 1, Price: decimal.NewFromInt(180000)},
	}
	require.NoError(t, db.Create(&stocks).Error)

	specs := map[*models.Product]map[string]string{
		kettle:  {"color": "red", "power": "2000"},
		toaster: {"color": "blue", "power": "800"},
		washer:  {"color": "red", "power": "800"},
	}
	names := map[string]*models.SpecificationName{}
	values := map[string]*models.SpecificationValue{}
	for p, pairs := range specs {
		for name, value := range pairs {
			if names[name] == nil {
				names[name] = &models.SpecificationName{Name: name}
				require.NoError(t, db.Create(names[name]).Error)
			}
			if values[value] == nil {
				values[value] = &models.SpecificationValue{Value: value}
				require.NoError(t, db.Create(values[value]).Error)
			}
			require.NoError(t, db.Create(&models.Specification{ProductID: p.ID, NameID: names[name].ID, ValueID: values[value].ID}).Error)
		}
	}

	fx.hit = &models.Tag{Text: "hit", FontColor: "#ffffff", FillColor: "#ff0000"}
	require.NoError(t, db.Create(fx.hit).Error)
	require.NoError(t, db.Model(kettle).Association("Tags").Append(fx.hit))

	yesterday := time.Now().Add(-24 * time.Hour)
	edges := []models.Edge{
		// kettle reaches Shymkent by brand, washer by its root category
		{CityFromID: fx.almaty.ID, CityToID: fx.shymkent.ID, BrandID: &brand.ID, IsActive: true},
		{CityFromID: fx.astana.ID, CityToID: fx.shymkent.ID, CategoryID: &fx.root.ID, IsActive: true},
		// none of these make anything available in Karaganda
		{CityFromID: fx.almaty.ID, CityToID: fx.karaganda.ID, CategoryID: &fx.kitchen.ID, IsActive: true, ExpirationDate: &yesterday},
		{CityFromID: fx.almaty.ID, CityToID: fx.karaganda.ID, CategoryID: &fx.root.ID, IsActive: false},
		{CityFromID: fx.astana.ID, CityToID: fx.karaganda.ID, BrandID: &brand.ID, IsActive: true},
	}
	for i := range edges {
		require.NoError(t, db.Create(&edges[i]).Error)
	}
	return fx
}

func (fx *listFixture) names(t *testing.T, f models.ProductFilter) []string {
	t.Helper()
	products, total, err := fx.repo.List(context.Background(), f)
	require.NoError(t, err)
	assert.Equal(t, int64(len(products)), total)
	out := make([]string, len(products))
	for i, p := range products {
		out[i] = p.Name
	}
	return out
}

func priceRange(min, max string) *models.PriceRange {
	r := &models.PriceRange{}
	if min != "" {
		d := decimal.RequireFromString(min)
		r.Min = &d
	}
	if max != "" {
		d := decimal.RequireFromString(max)
		r.Max = &d
	}
	return r
}

func TestProductsRepository_ListSpecs(t *testing.T) {
	fx := newListFixture(t)

	assert.ElementsMatch(t, []string{"Kettle", "Washer"},
		fx.names(t, models.ProductFilter{Specs: []models.SpecFilter{{Name: "color", Values: []string{"red"}}}}))

	// values of one name are alternatives
	assert.ElementsMatch(t, []string{"Kettle", "Toaster", "Washer"},
		fx.names(t, models.ProductFilter{Specs: []models.SpecFilter{{Name: "color", Values: []string{"red", "blue"}}}}))

	// distinct names must all match
	assert.Equal(t, []string{"Washer"}, fx.names(t, models.ProductFilter{Specs: []models.SpecFilter{
		{Name: "color", Values: []string{"red"}},
		{Name: "power", Values: []string{"800"}},
	}}))

	assert.Empty(t, fx.names(t, models.ProductFilter{Specs: []models.SpecFilter{{Name: "color", Values: []string{"green"}}}}))
}

func TestProductsRepository_ListPrice(t *testing.T) {
	fx := newListFixture(t)

	tests := []struct {
		name     string
		min, max string
		want     []string
	}{
		{"between", "9000", "20000", []string{"Kettle"}},
		{"from", "10000", "", []string{"Kettle", "Washer"}},
		{"up to", "", "12000", []string{"Kettle", "Toaster"}},
		{"exact", "8000", "8000", []string{"Toaster"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ElementsMatch(t, tt.want, fx.names(t, models.ProductFilter{Price: priceRange(tt.min, tt.max)}))
		})
	}
}

func TestProductsRepository_ListCategoryTagSearch(t *testing.T) {
	fx := newListFixture(t)

	assert.ElementsMatch(t, []string{"Kettle", "Toaster", "Washer"},
		fx.names(t, models.ProductFilter{CategoryPath: fx.root.Path}))
	assert.ElementsMatch(t, []string{"Kettle", "Toaster"},
		fx.names(t, models.ProductFilter{CategoryPath: fx.kitchen.Path}))

	assert.Equal(t, []string{"Kettle"}, fx.names(t, models.ProductFilter{TagID: &fx.hit.ID}))
	missing := uuid.New()
	assert.Empty(t, fx.names(t, models.ProductFilter{TagID: &missing}))

	assert.Equal(t, []string{"Kettle"}, fx.names(t, models.ProductFilter{Search: " KETT "}))
	assert.Equal(t, []string{"Washer"}, fx.names(t, models.ProductFilter{Search: "w-1"}))
	// search and category are both applied
	assert.Empty(t, fx.names(t, models.ProductFilter{Search: "washer", CategoryPath: fx.kitchen.Path}))
}

func TestProductsRepository_ListSortByPrice(t *testing.T) {
	fx := newListFixture(t)

	assert.Equal(t, []string{"Toaster", "Kettle", "Washer"},
		fx.names(t, models.ProductFilter{CategoryPath: fx.root.Path, Sort: "price"}))
	assert.Equal(t, []string{"Washer", "Kettle", "Toaster"},
		fx.names(t, models.ProductFilter{CategoryPath: fx.root.Path, Sort: "-price"}))

	products, total, err := fx.repo.List(context.Background(), models.ProductFilter{CategoryPath: fx.root.Path, Sort: "price", Limit: 1, Offset: 1})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	require.Len(t, products, 1)
	assert.Equal(t, "Kettle", products[0].Name)
}

func TestProductsRepository_ListCity(t *testing.T) {
	fx := newListFixture(t)

	tests := []struct {
		name string
		city *models.City
		want []string
	}{
		{"physical stock", fx.almaty, []string{"Kettle", "Toaster"}},
		{"zero quantity is not stock", fx.astana, []string{"Washer"}},
		{"brand and ancestor category edges", fx.shymkent, []string{"Kettle", "Washer"}},
		{"expired inactive or empty-origin edges", fx.karaganda, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := fx.names(t, models.ProductFilter{CityID: &tt.city.ID})
			if tt.want == nil {
				assert.Empty(t, got)
				return
			}
			assert.ElementsMatch(t, tt.want, got)
		})
	}

	// city narrows the price subquery too
	assert.Equal(t, []string{"Kettle"},
		fx.names(t, models.ProductFilter{CityID: &fx.almaty.ID, Price: priceRange("10000", "")}))

	unknown := uuid.New()
	assert.Empty(t, fx.names(t, models.ProductFilter{CityID: &unknown}))
}

func TestListCacheKey(t *testing.T) {
	city := uuid.New()
	a := listCacheKey("products:list", models.ProductFilter{CityID: &city, Sort: "price", Limit: 20})
	b := listCacheKey("products:list", models.ProductFilter{CityID: &city, Sort: "price", Limit: 20})
	c := listCacheKey("products:list", models.ProductFilter{CityID: &city, Sort: "price", Limit: 20, Offset: 20})

	assert.Equal(t, a, b)
	assert.NotEqual(t, a, c)
	assert.Regexp(t, `^products:list:[0-9a-f]{32}$`, a)
}
