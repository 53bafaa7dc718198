package handlers

import (
	"context"
	"net/http"
	"strings"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// SalesPointsHandler serves cities, warehouses, stock rows and logistics edges
type SalesPointsHandler struct {
	cities     *services.CityService
	stocks     *repository.StockRepository
	products   *repository.ProductsRepository
	translator *services.Translator
	logger     *logrus.Entry
}

func NewSalesPointsHandler(cities *services.CityService, stocks *repository.StockRepository, products *repository.ProductsRepository, translator *services.Translator, logger *logrus.Logger) *SalesPointsHandler {
	return &SalesPointsHandler{
		cities:     cities,
		stocks:     stocks,
		products:   products,
		translator: translator,
		logger:     logger.WithField("component", "sales_points_handler"),
	}
}

// GetCities lists cities with product and quantity totals, edges included
// GET /api/v1/cities
func (h *SalesPointsHandler) GetCities(c *gin.Context) {
	stats, err := h.cities.Stats(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if stats == nil {
		stats = []models.CityStats{}
	}
	dataResponse(c, http.StatusOK, stats)
}

// POST /api/v1/admin/cities
func (h *SalesPointsHandler) CreateCity(c *gin.Context) {
	var req models.CityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	city := &models.City{Name: strings.TrimSpace(req.Name), Translations: req.Translations}
	if err := h.stocks.CreateCity(c.Request.Context(), city); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.translator.Enqueue(c.Request.Context(), city)
	dataResponse(c, http.StatusCreated, city)
}

// PUT /api/v1/admin/cities/:id
func (h *SalesPointsHandler) UpdateCity(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.CityRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	city, err := h.stocks.GetCity(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	city.Name = strings.TrimSpace(req.Name)
	if req.Translations != nil {
		city.Translations = req.Translations
	}
	if err := h.stocks.UpdateCity(c.Request.Context(), city); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.translator.Enqueue(c.Request.Context(), city)
	dataResponse(c, http.StatusOK, city)
}

// DELETE /api/v1/admin/cities/:id
func (h *SalesPointsHandler) DeleteCity(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.stocks.DeleteCity(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/v1/admin/warehouses?city=
func (h *SalesPointsHandler) GetWarehouses(c *gin.Context) {
	cityID, ok := cityQuery(c)
	if !ok {
		return
	}
	warehouses, err := h.stocks.Warehouses(c.Request.Context(), cityID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, warehouses)
}

// POST /api/v1/admin/warehouses
func (h *SalesPointsHandler) CreateWarehouse(c *gin.Context) {
	var req models.WarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	warehouse := &models.Warehouse{
		Name:       strings.TrimSpace(req.Name),
		ExternalID: strings.TrimSpace(req.ExternalID),
		CityID:     req.CityID,
	}
	if err := h.stocks.CreateWarehouse(c.Request.Context(), warehouse); err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusCreated, warehouse)
}

// PUT /api/v1/admin/warehouses/:id
func (h *SalesPointsHandler) UpdateWarehouse(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.WarehouseRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	warehouse := &models.Warehouse{
		ID:         id,
		Name:       strings.TrimSpace(req.Name),
		ExternalID: strings.TrimSpace(req.ExternalID),
		CityID:     req.CityID,
	}
	if err := h.stocks.UpdateWarehouse(c.Request.Context(), warehouse); err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, warehouse)
}

// DELETE /api/v1/admin/warehouses/:id
func (h *SalesPointsHandler) DeleteWarehouse(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.stocks.DeleteWarehouse(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// UpsertStock creates or updates the (warehouse, product) stock row
// PUT /api/v1/admin/stocks
func (h *SalesPointsHandler) UpsertStock(c *gin.Context) {
	var req models.StockRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	if req.Price.IsNegative() {
		errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "Price must not be negative")
		return
	}
	ctx := c.Request.Context()
	if err := h.checkStockRefs(ctx, req.WarehouseID, req.ProductID); err != nil {
		respondError(c, h.logger, err)
		return
	}
	stock := &models.Stock{
		WarehouseID: req.WarehouseID,
		ProductID:   req.ProductID,
		Quantity:    req.Quantity,
		Price:       req.Price,
	}
	created, err := h.stocks.Upsert(ctx, stock)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.stocks.AfterBulkUpsert(ctx)

	status := http.StatusOK
	if created {
		status = http.StatusCreated
	}
	dataResponse(c, status, stock)
}

func (h *SalesPointsHandler) checkStockRefs(ctx context.Context, warehouseID, productID uuid.UUID) error {
	if _, err := h.stocks.GetWarehouse(ctx, warehouseID); err != nil {
		return err
	}
	_, err := h.products.GetByID(ctx, productID)
	return err
}

// DELETE /api/v1/admin/stocks/:id
func (h *SalesPointsHandler) DeleteStock(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.stocks.DeleteStock(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GET /api/v1/admin/edges
func (h *SalesPointsHandler) GetEdges(c *gin.Context) {
	edges, err := h.stocks.Edges(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, edges)
}

// GET /api/v1/admin/edges/:id
func (h *SalesPointsHandler) GetEdge(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	edge, err := h.stocks.GetEdge(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, edge)
}

func edgeFromRequest(req *models.EdgeRequest) *models.Edge {
	edge := &models.Edge{
		CityFromID:            req.CityFromID,
		CityToID:              req.CityToID,
		CategoryID:            req.CategoryID,
		BrandID:               req.BrandID,
		TransportationCost:    req.TransportationCost,
		EstimatedDeliveryDays: req.EstimatedDeliveryDays,
		IsActive:              true,
		ExpirationDate:        req.ExpirationDate,
	}
	if req.IsActive != nil {
		edge.IsActive = *req.IsActive
	}
	return edge
}

func (h *SalesPointsHandler) validateEdge(ctx context.Context, req *models.EdgeRequest) error {
	if _, err := h.stocks.GetCity(ctx, req.CityFromID); err != nil {
		return err
	}
	_, err := h.stocks.GetCity(ctx, req.CityToID)
	return err
}

// POST /api/v1/admin/edges
func (h *SalesPointsHandler) CreateEdge(c *gin.Context) {
	var req models.EdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	if req.CityFromID == req.CityToID {
		errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "Edge cities must differ")
		return
	}
	if err := h.validateEdge(c.Request.Context(), &req); err != nil {
		respondError(c, h.logger, err)
		return
	}
	edge := edgeFromRequest(&req)
	if err := h.stocks.CreateEdge(c.Request.Context(), edge); err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusCreated, edge)
}

// PUT /api/v1/admin/edges/:id
func (h *SalesPointsHandler) UpdateEdge(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.EdgeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	if req.CityFromID == req.CityToID {
		errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "Edge cities must differ")
		return
	}
	if err := h.validateEdge(c.Request.Context(), &req); err != nil {
		respondError(c, h.logger, err)
		return
	}
	edge := edgeFromRequest(&req)
	edge.ID = id
	if err := h.stocks.UpdateEdge(c.Request.Context(), edge); err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, edge)
}

// DELETE /api/v1/admin/edges/:id
func (h *SalesPointsHandler) DeleteEdge(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.stocks.DeleteEdge(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
