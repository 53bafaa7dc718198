package handlers

import (
	"bytes"
	"context"
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
	"gorm.io/gorm"
)

type recordingPublisher struct {
	sent []models.TranslationRequest
}

func (p *recordingPublisher) PublishTranslationRequest(ctx context.Context, req *models.TranslationRequest) error {
	p.sent = append(p.sent, *req)
	return nil
}

type contentFixture struct {
	router    *gin.Engine
	db        *gorm.DB
	products  *MockProductService
	publisher *recordingPublisher
}

func setupContentRouter(t *testing.T) *contentFixture {
	db := testutil.NewDB(t)
	logger := testutil.Logger()
	publisher := &recordingPublisher{}
	products := new(MockProductService)
	h := NewContentHandler(
		repository.NewContentRepository(db, nil),
		products,
		services.NewTranslator(publisher, []string{"EN", "KZ"}, logger),
		Paging{},
		logger,
	)

	r := gin.New()
	r.Use(middleware.Language("ru", []string{"ru", "en", "kz"}))
	r.GET("/tags", h.GetTags)
	r.POST("/admin/tags", h.CreateTag)
	r.DELETE("/admin/tags/:id", h.DeleteTag)
	r.GET("/blogs", h.GetBlogs)
	r.GET("/blogs/:id", h.GetBlog)
	r.POST("/admin/blogs", h.CreateBlog)
	r.GET("/services", h.GetServices)
	r.POST("/admin/services", h.CreateService)
	r.GET("/descriptions/filter_by_prod/:id", h.GetProductDescriptions)
	r.POST("/admin/descriptions", h.CreateDescription)
	return &contentFixture{router: r, db: db, products: products, publisher: publisher}
}

func (f *contentFixture) do(method, path, body string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, bytes.NewBufferString(body))
	}
	f.router.ServeHTTP(w, req)
	return w
}

func TestTags_CreateTranslateAndList(t *testing.T) {
	f := setupContentRouter(t)

	w := f.do(http.MethodPost, "/admin/tags", `{"text":"Хит","fontColor":"#FFFFFF","fillColor":"#FF0000","additionalData":{"EN":"Hit"}}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	// EN is already provided, only KZ is requested
	require.Len(t, f.publisher.sent, 1)
	assert.Equal(t, "KZ", f.publisher.sent[0].TargetLang)
	assert.Equal(t, models.ModelTag, f.publisher.sent[0].ModelName)

	w = f.do(http.MethodGet, "/tags?lang=en", "")
	require.Equal(t, http.StatusOK, w.Code)
	tags := decodeBody(t, w)["data"].([]interface{})
	require.Len(t, tags, 1)
	assert.Equal(t, "Hit", tags[0].(map[string]interface{})["text"])

	w = f.do(http.MethodGet, "/tags?lang=kz", "")
	tags = decodeBody(t, w)["data"].([]interface{})
	assert.Equal(t, "Хит", tags[0].(map[string]interface{})["text"])
}

func TestTags_Validation(t *testing.T) {
	f := setupContentRouter(t)

	for name, payload := range map[string]string{
		"text too long": `{"text":"Bestseller!!"}`,
		"bad color":     `{"text":"Hit","fontColor":"white"}`,
	} {
		t.Run(name, func(t *testing.T) {
			w := f.do(http.MethodPost, "/admin/tags", payload)
			assert.Equal(t, http.StatusBadRequest, w.Code)
		})
	}
	assert.Empty(t, f.publisher.sent)
}

func TestDescriptions_RenderMarkdown(t *testing.T) {
	f := setupContentRouter(t)
	product := seedProduct(t, f.db, "oven")

	payload := `{"productId":"` + product.ID.String() + `","title":"Features","body":"**Fast** heating<script>alert(1)</script>"}`
	w := f.do(http.MethodPost, "/admin/descriptions", payload)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(http.MethodGet, "/descriptions/filter_by_prod/"+product.ID.String(), "")
	require.Equal(t, http.StatusOK, w.Code)
	list := decodeBody(t, w)["data"].([]interface{})
	require.Len(t, list, 1)
	html := list[0].(map[string]interface{})["bodyHtml"].(string)
	assert.Contains(t, html, "<strong>Fast</strong>")
	assert.NotContains(t, html, "<script>")
}

func TestBlog_DetailIncludesProducts(t *testing.T) {
	f := setupContentRouter(t)
	product := seedProduct(t, f.db, "vacuum")

	w := f.do(http.MethodPost, "/admin/blogs", `{"title":"Spring cleaning","body":"# Tips","productIds":["`+product.ID.String()+`"]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	blogID := decodeBody(t, w)["data"].(map[string]interface{})["id"].(string)

	price := decimal.NewFromInt(99000)
	f.products.On("ByIDs", mock.Anything, []uuid.UUID{product.ID}, "RU", (*uuid.UUID)(nil)).
		Return([]models.ProductSummary{{ID: product.ID, Name: product.Name, Price: &price}}, nil)

	w = f.do(http.MethodGet, "/blogs/"+blogID, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	data := decodeBody(t, w)["data"].(map[string]interface{})
	assert.Contains(t, data["bodyHtml"], "<h1>Tips</h1>")
	assert.Len(t, data["products"], 1)
	f.products.AssertExpectations(t)

	w = f.do(http.MethodGet, "/blogs/"+uuid.NewString(), "")
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestServices_FilterByCity(t *testing.T) {
	f := setupContentRouter(t)
	almaty := &models.City{Name: "Almaty"}
	astana := &models.City{Name: "Astana"}
	require.NoError(t, f.db.Create(almaty).Error)
	require.NoError(t, f.db.Create(astana).Error)

	w := f.do(http.MethodPost, "/admin/services", `{"name":"Installation","price":"5000","cityIds":["`+almaty.ID.String()+`"]}`)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = f.do(http.MethodPost, "/admin/services", `{"name":"Assembly","price":"-1"}`)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = f.do(http.MethodGet, "/services?city="+almaty.ID.String(), "")
	assert.Len(t, decodeBody(t, w)["data"], 1)

	w = f.do(http.MethodGet, "/services?city="+astana.ID.String(), "")
	assert.Len(t, decodeBody(t, w)["data"], 0)

	w = f.do(http.MethodGet, "/services", "")
	assert.Len(t, decodeBody(t, w)["data"], 1)
}
