package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"
	"catalog-service/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

func init() {
	gin.SetMode(gin.TestMode)
	if err := middleware.RegisterValidators(); err != nil {
		panic(err)
	}
}

// MockProductService is a mock implementation of ProductService
type MockProductService struct {
	mock.Mock
}

func (m *MockProductService) List(ctx context.Context, q services.ProductQuery) ([]models.ProductSummary, int64, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.ProductSummary), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductService) Detail(ctx context.Context, slug, lang string, cityID *uuid.UUID) (*models.ProductDetail, error) {
	args := m.Called(ctx, slug, lang, cityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.ProductDetail), args.Error(1)
}

func (m *MockProductService) ByIDs(ctx context.Context, ids []uuid.UUID, lang string, cityID *uuid.UUID) ([]models.ProductSummary, error) {
	args := m.Called(ctx, ids, lang, cityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.ProductSummary), args.Error(1)
}

func (m *MockProductService) ByCategory(ctx context.Context, slug, lang string, cityID *uuid.UUID, limit, offset int) ([]models.ProductSummary, int64, error) {
	args := m.Called(ctx, slug, lang, cityID, limit, offset)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]models.ProductSummary), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductService) Slugs(ctx context.Context) ([]string, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]string), args.Error(1)
}

func (m *MockProductService) Stocks(ctx context.Context, slug string) ([]models.CityOffers, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.CityOffers), args.Error(1)
}

func (m *MockProductService) StocksInCity(ctx context.Context, productID, cityID uuid.UUID) (*models.CityOffers, error) {
	args := m.Called(ctx, productID, cityID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.CityOffers), args.Error(1)
}

func (m *MockProductService) Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductService) Update(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error) {
	args := m.Called(ctx, id, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Product), args.Error(1)
}

func (m *MockProductService) Delete(ctx context.Context, id uuid.UUID) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func setupProductsRouter(svc *MockProductService) *gin.Engine {
	h := NewProductsHandler(svc, Paging{DefaultLimit: 10, MaxLimit: 100}, testutil.Logger())
	r := gin.New()
	r.Use(middleware.Language("ru", []string{"ru", "en", "kz"}))
	r.GET("/products", h.GetProducts)
	r.GET("/products/all/slugs", h.GetSlugs)
	r.GET("/products/by-ids/:ids", h.GetProductsByIDs)
	r.GET("/products/:slug", h.GetProduct)
	r.GET("/stocks/filter_by_prod/:product/:city", h.GetStocksInCity)
	r.POST("/admin/products", h.CreateProduct)
	r.DELETE("/admin/products/:id", h.DeleteProduct)
	return r
}

func decodeBody(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
	return body
}

func errorCode(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	body := decodeBody(t, w)
	errObj, ok := body["error"].(map[string]interface{})
	require.True(t, ok, "missing error object: %s", w.Body.String())
	return errObj["code"].(string)
}

func TestGetProducts_ParsesFilters(t *testing.T) {
	svc := new(MockProductService)
	router := setupProductsRouter(svc)

	cityID := uuid.New()
	brandID := uuid.New()
	price := decimal.NewFromInt(1200)
	svc.On("List", mock.Anything, mock.MatchedBy(func(q services.ProductQuery) bool {
		f := q.Filter
		return q.Lang == "EN" &&
			q.CategorySlug == "phones" &&
			f.CityID != nil && *f.CityID == cityID &&
			len(f.BrandIDs) == 1 && f.BrandIDs[0] == brandID &&
			len(f.Specs) == 1 && f.Specs[0].Name == "color" && len(f.Specs[0].Values) == 2 &&
			f.Price != nil && f.Price.Min != nil && f.Price.Max == nil &&
			f.Sort == "price" && f.Limit == 5 && f.Offset == 10
	})).Return([]models.ProductSummary{{ID: uuid.New(), Name: "Phone", Price: &price}}, int64(31), nil)

	req := httptest.NewRequest(http.MethodGet,
		"/products?lang=en&category=phones&city="+cityID.String()+"&brand="+brandID.String()+
			"&spec=color:red|blue&price=100..&sort=price&limit=5&offset=10", nil)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, true, body["success"])
	assert.Len(t, body["data"], 1)
	pagination := body["pagination"].(map[string]interface{})
	assert.Equal(t, float64(31), pagination["total"])
	svc.AssertExpectations(t)
}

func TestGetProducts_RejectsBadInput(t *testing.T) {
	svc := new(MockProductService)
	router := setupProductsRouter(svc)

	cases := []struct {
		name  string
		query string
		code  string
	}{
		{"bad city", "?city=almaty", "INVALID_ID"},
		{"bad spec", "?spec=color", "VALIDATION_ERROR"},
		{"bad price", "?price=cheap", "VALIDATION_ERROR"},
		{"bad sort", "?sort=random", "VALIDATION_ERROR"},
		{"bad tag", "?tag=new", "INVALID_ID"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products"+tc.query, nil))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, tc.code, errorCode(t, w))
		})
	}
	svc.AssertNotCalled(t, "List", mock.Anything, mock.Anything)
}

func TestGetProduct_NotFound(t *testing.T) {
	svc := new(MockProductService)
	router := setupProductsRouter(svc)

	svc.On("Detail", mock.Anything, "missing", "RU", (*uuid.UUID)(nil)).Return(nil, repository.ErrProductNotFound)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/missing", nil))

	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "NOT_FOUND", errorCode(t, w))
}

func TestGetProductsByIDs(t *testing.T) {
	svc := new(MockProductService)
	router := setupProductsRouter(svc)

	first, second := uuid.New(), uuid.New()
	svc.On("ByIDs", mock.Anything, []uuid.UUID{first, second}, "RU", (*uuid.UUID)(nil)).
		Return([]models.ProductSummary{{ID: first}, {ID: second}}, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/by-ids/"+first.String()+","+second.String(), nil))
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Len(t, decodeBody(t, w)["data"], 2)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/by-ids/not-a-uuid", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestGetSlugs_EmptyIsArray(t *testing.T) {
	svc := new(MockProductService)
	router := setupProductsRouter(svc)
	svc.On("Slugs", mock.Anything).Return(nil, nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/all/slugs", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"success":true,"data":[]}`, w.Body.String())
}

func TestGetStocksInCity_InvalidCity(t *testing.T) {
	svc := new(MockProductService)
	router := setupProductsRouter(svc)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stocks/filter_by_prod/"+uuid.NewString()+"/almaty", nil))

	assert.Equal(t, http.StatusBadRequest, w.Code)
	body := decodeBody(t, w)
	assert.Equal(t, "city", body["error"].(map[string]interface{})["field"])
}

func TestCreateProduct(t *testing.T) {
	svc := new(MockProductService)
	router := setupProductsRouter(svc)

	created := &models.Product{ID: uuid.New(), Name: "Laptop", VendorCode: "LP-1", Slug: "laptop-lp-1"}
	svc.On("Create", mock.Anything, mock.MatchedBy(func(req *models.CreateProductRequest) bool {
		return req.Name == "Laptop" && req.VendorCode == "LP-1"
	})).Return(created, nil)

	payload, _ := json.Marshal(map[string]interface{}{"name": "Laptop", "vendorCode": "LP-1"})
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/products", bytes.NewReader(payload)))

	assert.Equal(t, http.StatusCreated, w.Code)
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, created.ID.String(), data["id"])
}

func TestCreateProduct_Validation(t *testing.T) {
	svc := new(MockProductService)
	router := setupProductsRouter(svc)

	cases := map[string]string{
		"missing vendor code": `{"name":"Laptop"}`,
		"bad slug":            `{"name":"Laptop","vendorCode":"LP-1","slug":"Not A Slug"}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/products", bytes.NewBufferString(payload)))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
		})
	}
	svc.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestCreateProduct_Duplicate(t *testing.T) {
	svc := new(MockProductService)
	router := setupProductsRouter(svc)
	svc.On("Create", mock.Anything, mock.Anything).Return(nil, repository.ErrDuplicate)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/admin/products",
		bytes.NewBufferString(`{"name":"Laptop","vendorCode":"LP-1"}`)))

	assert.Equal(t, http.StatusConflict, w.Code)
	assert.Equal(t, "CONFLICT", errorCode(t, w))
}

func TestDeleteProduct(t *testing.T) {
	svc := new(MockProductService)
	router := setupProductsRouter(svc)

	id := uuid.New()
	svc.On("Delete", mock.Anything, id).Return(nil)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/admin/products/"+id.String(), nil))

	assert.Equal(t, http.StatusOK, w.Code)
	svc.AssertExpectations(t)
}
