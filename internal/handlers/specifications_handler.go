package handlers

import (
	"net/http"
	"strings"

	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type SpecificationsHandler struct {
	specs      *repository.SpecificationRepository
	categories *repository.CategoryRepository
	products   *repository.ProductsRepository
	translator *services.Translator
	indexer    services.SearchIndexer
	logger     *logrus.Entry
}

func NewSpecificationsHandler(
	specs *repository.SpecificationRepository,
	categories *repository.CategoryRepository,
	products *repository.ProductsRepository,
	translator *services.Translator,
	indexer services.SearchIndexer,
	logger *logrus.Logger,
) *SpecificationsHandler {
	return &SpecificationsHandler{
		specs:      specs,
		categories: categories,
		products:   products,
		translator: translator,
		indexer:    indexer,
		logger:     logger.WithField("component", "specifications_handler"),
	}
}

// GET /api/v1/specifications/filter_by_prod/:id
func (h *SpecificationsHandler) GetProductSpecifications(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if _, err := h.products.GetByID(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	specs, err := h.specs.ForProduct(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, services.SpecificationViews(specs, middleware.GetLanguage(c)))
}

// GetDistinct returns name -> values over a category subtree and/or product ids
// GET /api/v1/specifications?category=&products=
func (h *SpecificationsHandler) GetDistinct(c *gin.Context) {
	productIDs, err := services.ParseIDList(c.Query("products"))
	if err != nil {
		validationError(c, err)
		return
	}
	var path string
	if slug := strings.TrimSpace(c.Query("category")); slug != "" {
		category, err := h.categories.GetBySlug(c.Request.Context(), slug)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
		path = category.Path
	}
	if path == "" && len(productIDs) == 0 {
		errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "Either category or products is required")
		return
	}
	rows, err := h.specs.Distinct(c.Request.Context(), path, productIDs)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, services.GroupSpecifications(rows))
}

// SetProductSpecifications replaces the specifications of a product
// PUT /api/v1/admin/products/:id/specifications
func (h *SpecificationsHandler) SetProductSpecifications(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.SetSpecificationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	ctx := c.Request.Context()
	created, err := h.specs.Replace(ctx, id, req.Specs)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	for _, item := range created {
		h.translator.Enqueue(ctx, item)
	}

	specs, err := h.specs.ForProduct(ctx, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if h.indexer != nil {
		if product, err := h.products.GetByID(ctx, id); err == nil {
			if err := h.indexer.IndexProduct(ctx, product, specs); err != nil {
				h.logger.WithError(err).WithField("product_id", id).Warn("Failed to reindex product")
			}
		}
	}
	dataResponse(c, http.StatusOK, services.SpecificationViews(specs, middleware.GetLanguage(c)))
}
