package handlers

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/testutil"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDiscountsRouter(t *testing.T) (*gin.Engine, *gorm.DB) {
	db := testutil.NewDB(t)
	h := NewDiscountsHandler(repository.NewDiscountRepository(db, nil), testutil.Logger())
	r := gin.New()
	r.GET("/discounts", h.GetDiscounts)
	r.GET("/discounts/:id", h.GetDiscount)
	r.POST("/discounts", h.CreateDiscount)
	r.PUT("/discounts/:id", h.UpdateDiscount)
	r.DELETE("/discounts/:id", h.DeleteDiscount)
	return r, db
}

func TestCreateDiscount_WithScope(t *testing.T) {
	router, db := setupDiscountsRouter(t)
	product := seedProduct(t, db, "blender")

	payload := `{"name":"Spring sale","amount":"15","active":true,"productIds":["` + product.ID.String() + `"]}`
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/discounts", bytes.NewBufferString(payload)))
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "Spring sale", data["name"])
	assert.Len(t, data["products"], 1)

	id := data["id"].(string)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/discounts/"+id, nil))
	assert.Equal(t, http.StatusOK, w.Code)
}

func TestCreateDiscount_Validation(t *testing.T) {
	router, _ := setupDiscountsRouter(t)

	cases := map[string]string{
		"amount above 100": `{"name":"Too much","amount":"120"}`,
		"negative amount":  `{"name":"Negative","amount":"-1"}`,
		"reversed window":  `{"name":"Window","amount":"10","startDate":"2025-05-10T00:00:00Z","endDate":"2025-05-01T00:00:00Z"}`,
		"missing name":     `{"amount":"10"}`,
	}
	for name, payload := range cases {
		t.Run(name, func(t *testing.T) {
			w := httptest.NewRecorder()
			router.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/discounts", bytes.NewBufferString(payload)))
			assert.Equal(t, http.StatusBadRequest, w.Code)
			assert.Equal(t, "VALIDATION_ERROR", errorCode(t, w))
		})
	}
}

func TestUpdateAndDeleteDiscount(t *testing.T) {
	router, db := setupDiscountsRouter(t)
	product := seedProduct(t, db, "mixer")

	discount := &models.Discount{Name: "Old", Active: true}
	require.NoError(t, repository.NewDiscountRepository(db, nil).Create(context.Background(), discount,
		repository.DiscountScope{ProductIDs: []uuid.UUID{product.ID}}))

	// omitted id lists keep the existing targets
	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodPut, "/discounts/"+discount.ID.String(),
		bytes.NewBufferString(`{"name":"New","amount":"20","active":false}`)))
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Equal(t, "New", data["name"])
	assert.Equal(t, false, data["active"])
	assert.Len(t, data["products"], 1)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodDelete, "/discounts/"+discount.ID.String(), nil))
	assert.Equal(t, http.StatusNoContent, w.Code)

	w = httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/discounts/"+discount.ID.String(), nil))
	assert.Equal(t, http.StatusNotFound, w.Code)
}
