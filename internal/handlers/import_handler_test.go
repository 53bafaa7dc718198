package handlers

import (
	"bytes"
	"encoding/json"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

func setupImportRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	db := testutil.NewDB(t)
	h := NewImportHandler(repository.NewStockRepository(db, nil), repository.NewProductsRepository(db, nil), testutil.Logger())
	r := gin.New()
	r.GET("/stocks/import/template", h.GetStockTemplate)
	r.POST("/stocks/import", h.ImportStocks)
	r.GET("/stocks/export", h.ExportStocks)
	r.GET("/products/export", h.ExportProducts)
	return r, db
}

func seedWarehouse(t *testing.T, db *gorm.DB) *models.Warehouse {
	t.Helper()
	city := &models.City{Name: "Almaty"}
	require.NoError(t, db.Create(city).Error)
	w := &models.Warehouse{Name: "Almaty Central", ExternalID: "store-1", CityID: city.ID}
	require.NoError(t, db.Create(w).Error)
	return w
}

func uploadRequest(t *testing.T, filename string, content []byte, fields map[string]string) *http.Request {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", filename)
	require.NoError(t, err)
	_, err = part.Write(content)
	require.NoError(t, err)
	for k, v := range fields {
		require.NoError(t, writer.WriteField(k, v))
	}
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/stocks/import", body)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	return req
}

func decodeImportResult(t *testing.T, w *httptest.ResponseRecorder) models.ImportResult {
	t.Helper()
	var result models.ImportResult
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	return result
}

func TestGetStockTemplate_JSON(t *testing.T) {
	router, _ := setupImportRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stocks/import/template", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "vendor_code")
	assert.Contains(t, w.Body.String(), "warehouse")
}

func TestGetStockTemplate_XLSX(t *testing.T) {
	router, _ := setupImportRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/stocks/import/template?format=xlsx", nil))
	require.Equal(t, http.StatusOK, w.Code)

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	assert.Contains(t, f.GetSheetList(), "Instructions")
}

func TestImportStocks_CSV(t *testing.T) {
	router, db := setupImportRouter(t)
	warehouse := seedWarehouse(t, db)
	product := seedProduct(t, db, "kettle")

	csv := "Vendor_Code *,Warehouse *,Quantity *,Price *\n" +
		product.VendorCode + ",Almaty Central,7,\"1999,50\"\n" +
		",,,\n" +
		product.VendorCode + ",store-1,-2,100\n" +
		"UNKNOWN,Almaty Central,1,100\n" +
		product.VendorCode + ",Nowhere,1,100\n"

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "stocks.csv", []byte(csv), nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	result := decodeImportResult(t, w)
	assert.True(t, result.Success)
	assert.Equal(t, 4, result.TotalRows)
	assert.Equal(t, 1, result.CreatedCount)
	assert.Equal(t, 3, result.FailedCount)

	failed := map[int]string{}
	for _, e := range result.Errors {
		failed[e.Row] = e.Column
	}
	assert.Equal(t, map[int]string{4: "quantity", 5: "vendor_code", 6: "warehouse"}, failed)

	var stock models.Stock
	require.NoError(t, db.First(&stock, "warehouse_id = ? AND product_id = ?", warehouse.ID, product.ID).Error)
	assert.Equal(t, 7, stock.Quantity)
	assert.True(t, stock.Price.Equal(decimal.RequireFromString("1999.50")))

	// a second import updates the same row
	csv = "vendor_code,warehouse,quantity,price\n" + product.VendorCode + ",store-1,3,1500\n"
	w = httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "stocks.csv", []byte(csv), nil))
	result = decodeImportResult(t, w)
	assert.Equal(t, 1, result.UpdatedCount)

	var count int64
	db.Model(&models.Stock{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestImportStocks_ValidateOnly(t *testing.T) {
	router, db := setupImportRouter(t)
	seedWarehouse(t, db)
	product := seedProduct(t, db, "iron")

	csv := "vendor_code,warehouse,quantity,price\n" + product.VendorCode + ",store-1,3,1500\n"
	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "stocks.csv", []byte(csv), map[string]string{"validateOnly": "true"}))
	require.Equal(t, http.StatusOK, w.Code)

	result := decodeImportResult(t, w)
	assert.True(t, result.Success)
	assert.True(t, result.ValidateOnly)
	assert.Zero(t, result.CreatedCount)

	var count int64
	db.Model(&models.Stock{}).Count(&count)
	assert.Zero(t, count)
}

func TestImportStocks_XLSX(t *testing.T) {
	router, db := setupImportRouter(t)
	seedWarehouse(t, db)
	product := seedProduct(t, db, "fan")

	f := excelize.NewFile()
	f.SetSheetName("Sheet1", "Stocks")
	f.SetSheetRow("Stocks", "A1", &[]interface{}{"vendor_code", "warehouse", "quantity", "price"})
	f.SetSheetRow("Stocks", "A2", &[]interface{}{product.VendorCode, "Almaty Central", 4, "250"})
	var buf bytes.Buffer
	require.NoError(t, f.Write(&buf))
	f.Close()

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "stocks.xlsx", buf.Bytes(), nil))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, 1, decodeImportResult(t, w).CreatedCount)
}

func TestImportStocks_RejectsBadUploads(t *testing.T) {
	router, _ := setupImportRouter(t)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "stocks.txt", []byte("x"), nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "INVALID_FORMAT", errorCode(t, w))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, uploadRequest(t, "stocks.csv", []byte("vendor_code,warehouse,quantity,price\n"), nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "EMPTY_FILE", errorCode(t, w))

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/stocks/import", nil))
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Equal(t, "FILE_REQUIRED", errorCode(t, w))
}

func TestExportProducts_IncludesStockTotals(t *testing.T) {
	router, db := setupImportRouter(t)
	warehouse := seedWarehouse(t, db)
	product := seedProduct(t, db, "toaster")
	require.NoError(t, db.Create(&models.Stock{WarehouseID: warehouse.ID, ProductID: product.ID, Quantity: 5, Price: decimal.NewFromInt(3200)}).Error)

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/products/export", nil))
	require.Equal(t, http.StatusOK, w.Code)

	f, err := excelize.OpenReader(bytes.NewReader(w.Body.Bytes()))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Products")
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, product.VendorCode, rows[1][1])
	assert.Equal(t, "5", rows[1][7])
	assert.Equal(t, "3200.00", rows[1][8])
}
