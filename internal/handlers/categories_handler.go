package handlers

import (
	"net/http"

	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type CategoriesHandler struct {
	service *services.CategoryService
	content *repository.ContentRepository
	logger  *logrus.Entry
}

func NewCategoriesHandler(service *services.CategoryService, content *repository.ContentRepository, logger *logrus.Logger) *CategoriesHandler {
	return &CategoriesHandler{
		service: service,
		content: content,
		logger:  logger.WithField("component", "categories_handler"),
	}
}

// GetTree returns the whole translated category tree
// GET /api/v1/categories
func (h *CategoriesHandler) GetTree(c *gin.Context) {
	tree, err := h.service.Tree(c.Request.Context(), middleware.GetLanguage(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if tree == nil {
		tree = []*models.CategoryNode{}
	}
	dataResponse(c, http.StatusOK, tree)
}

// GET /api/v1/categories/:id
func (h *CategoriesHandler) GetCategory(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	category, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, category)
}

// GET /api/v1/categories/:id/children
func (h *CategoriesHandler) GetChildren(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	children, err := h.service.Children(c.Request.Context(), id, middleware.GetLanguage(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if children == nil {
		children = []*models.CategoryNode{}
	}
	dataResponse(c, http.StatusOK, children)
}

// GetFacets aggregates brands, specifications, prices and children of the subtree
// GET /api/v1/categories/:id/facets?city=
func (h *CategoriesHandler) GetFacets(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	cityID, ok := cityQuery(c)
	if !ok {
		return
	}
	facets, err := h.service.Facets(c.Request.Context(), id, cityID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, facets)
}

// GET /api/v1/categories/:id/price-range?city=
func (h *CategoriesHandler) GetPriceRange(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	cityID, ok := cityQuery(c)
	if !ok {
		return
	}
	bounds, err := h.service.PriceRange(c.Request.Context(), id, cityID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, bounds)
}

// GET /api/v1/categories/:id/banners
func (h *CategoriesHandler) GetBanners(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	banners, err := h.content.Banners(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, banners)
}

// POST /api/v1/admin/categories
func (h *CategoriesHandler) CreateCategory(c *gin.Context) {
	var req models.CreateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	category, err := h.service.Create(c.Request.Context(), &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusCreated, category)
}

// UpdateCategory updates fields and moves the node when parentId or moveToRoot is set
// PUT /api/v1/admin/categories/:id
func (h *CategoriesHandler) UpdateCategory(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateCategoryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	category, err := h.service.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, category)
}

// DeleteCategory refuses categories that still have children or products
// DELETE /api/v1/admin/categories/:id
func (h *CategoriesHandler) DeleteCategory(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.service.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
