package handlers

import (
	"net/http"
	"strings"

	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
	"catalog-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

type ProductsHandler struct {
	service services.ProductService
	paging  Paging
	logger  *logrus.Entry
}

func NewProductsHandler(service services.ProductService, paging Paging, logger *logrus.Logger) *ProductsHandler {
	return &ProductsHandler{
		service: service,
		paging:  paging.orDefault(),
		logger:  logger.WithField("component", "products_handler"),
	}
}

// GetProducts lists products with filters, sorting and city pricing
// GET /api/v1/products
func (h *ProductsHandler) GetProducts(c *gin.Context) {
	limit, offset := h.paging.window(c)
	cityID, ok := cityQuery(c)
	if !ok {
		return
	}

	filter := models.ProductFilter{
		CityID: cityID,
		Search: strings.TrimSpace(c.Query("search")),
		Limit:  limit,
		Offset: offset,
	}

	var err error
	if filter.BrandIDs, err = services.ParseIDList(c.Query("brand")); err != nil {
		validationError(c, err)
		return
	}
	if filter.Specs, err = services.ParseSpecFilter(c.Query("spec")); err != nil {
		validationError(c, err)
		return
	}
	if filter.Price, err = services.ParsePriceRange(c.Query("price")); err != nil {
		validationError(c, err)
		return
	}
	if tag := c.Query("tag"); tag != "" {
		tagID, err := uuid.Parse(tag)
		if err != nil {
			errorResponse(c, http.StatusBadRequest, "INVALID_ID", "Invalid tag format")
			return
		}
		filter.TagID = &tagID
	}
	if sort := c.Query("sort"); sort != "" {
		if _, ok := models.ProductSort[sort]; !ok {
			errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "Unsupported sort key: "+sort)
			return
		}
		filter.Sort = sort
	}

	products, total, err := h.service.List(c.Request.Context(), services.ProductQuery{
		Filter:       filter,
		CategorySlug: strings.TrimSpace(c.Query("category")),
		Lang:         middleware.GetLanguage(c),
	})
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	listResponse(c, products, limit, offset, total)
}

// GetProduct returns the product page payload
// GET /api/v1/products/:slug
func (h *ProductsHandler) GetProduct(c *gin.Context) {
	cityID, ok := cityQuery(c)
	if !ok {
		return
	}
	detail, err := h.service.Detail(c.Request.Context(), c.Param("slug"), middleware.GetLanguage(c), cityID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, detail)
}

// GetProductsByIDs returns products in the order of the id list
// GET /api/v1/products/by-ids/:ids
func (h *ProductsHandler) GetProductsByIDs(c *gin.Context) {
	ids, err := services.ParseIDList(c.Param("ids"))
	if err != nil {
		validationError(c, err)
		return
	}
	cityID, ok := cityQuery(c)
	if !ok {
		return
	}
	if len(ids) == 0 {
		dataResponse(c, http.StatusOK, []models.ProductSummary{})
		return
	}
	if len(ids) > h.paging.MaxLimit {
		ids = ids[:h.paging.MaxLimit]
	}
	products, err := h.service.ByIDs(c.Request.Context(), ids, middleware.GetLanguage(c), cityID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, products)
}

// GetProductsByCategory lists a category's products, falling back to its children
// GET /api/v1/products/filter_by_cat/:slug
func (h *ProductsHandler) GetProductsByCategory(c *gin.Context) {
	limit, offset := h.paging.window(c)
	cityID, ok := cityQuery(c)
	if !ok {
		return
	}
	products, total, err := h.service.ByCategory(c.Request.Context(), c.Param("slug"), middleware.GetLanguage(c), cityID, limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	listResponse(c, products, limit, offset, total)
}

// GetSlugs returns every product slug for the sitemap
// GET /api/v1/products/all/slugs
func (h *ProductsHandler) GetSlugs(c *gin.Context) {
	slugs, err := h.service.Slugs(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if slugs == nil {
		slugs = []string{}
	}
	dataResponse(c, http.StatusOK, slugs)
}

// GetProductStocks returns the stocks-by-city map of a product
// GET /api/v1/products/:slug/stocks
func (h *ProductsHandler) GetProductStocks(c *gin.Context) {
	offers, err := h.service.Stocks(c.Request.Context(), c.Param("slug"))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, offers)
}

// GetStocksInCity returns the offers of a product in one city
// GET /api/v1/stocks/filter_by_prod/:product/:city
func (h *ProductsHandler) GetStocksInCity(c *gin.Context) {
	productID, ok := uuidParam(c, "product")
	if !ok {
		return
	}
	cityID, ok := uuidParam(c, "city")
	if !ok {
		return
	}
	offers, err := h.service.StocksInCity(c.Request.Context(), productID, cityID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, offers)
}

// CreateProduct creates a new product
// POST /api/v1/admin/products
func (h *ProductsHandler) CreateProduct(c *gin.Context) {
	var req models.CreateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	product, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusCreated, product)
}

// UpdateProduct applies a partial update
// PUT /api/v1/admin/products/:id
func (h *ProductsHandler) UpdateProduct(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateProductRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	product, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, product)
}

// DeleteProduct removes a product
// DELETE /api/v1/admin/products/:id
func (h *ProductsHandler) DeleteProduct(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	message := "Product deleted successfully"
	c.JSON(http.StatusOK, models.SuccessResponse{
		Success: true,
		Message: &message,
	})
}
