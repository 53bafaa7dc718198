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

type BrandsHandler struct {
	brands     *repository.BrandRepository
	categories *repository.CategoryRepository
	translator *services.Translator
	logger     *logrus.Entry
}

func NewBrandsHandler(brands *repository.BrandRepository, categories *repository.CategoryRepository, translator *services.Translator, logger *logrus.Logger) *BrandsHandler {
	return &BrandsHandler{
		brands:     brands,
		categories: categories,
		translator: translator,
		logger:     logger.WithField("component", "brands_handler"),
	}
}

func brandRefs(brands []models.Brand, lang string) []models.BrandRef {
	refs := make([]models.BrandRef, 0, len(brands))
	for _, b := range brands {
		refs = append(refs, models.BrandRef{ID: b.ID, Name: b.Translations.Resolve(lang, b.Name), Logo: b.Logo})
	}
	return refs
}

// GET /api/v1/brands
func (h *BrandsHandler) GetBrands(c *gin.Context) {
	brands, err := h.brands.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, brandRefs(brands, middleware.GetLanguage(c)))
}

// GET /api/v1/brands/:id
func (h *BrandsHandler) GetBrand(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	brand, err := h.brands.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, brand)
}

// GetBrandsByCategory lists brands with products in the category subtree
// GET /api/v1/brands/by_category/:id
func (h *BrandsHandler) GetBrandsByCategory(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	category, err := h.categories.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	brands, err := h.brands.ByCategory(c.Request.Context(), category)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, brandRefs(brands, middleware.GetLanguage(c)))
}

// POST /api/v1/admin/brands
func (h *BrandsHandler) CreateBrand(c *gin.Context) {
	var req models.BrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	brand := &models.Brand{
		Name:         strings.TrimSpace(req.Name),
		Logo:         req.Logo,
		Translations: req.Translations,
	}
	if err := h.brands.Create(c.Request.Context(), brand); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.translator.Enqueue(c.Request.Context(), brand)
	dataResponse(c, http.StatusCreated, brand)
}

// PUT /api/v1/admin/brands/:id
func (h *BrandsHandler) UpdateBrand(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.BrandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	brand, err := h.brands.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	brand.Name = strings.TrimSpace(req.Name)
	brand.Logo = req.Logo
	if req.Translations != nil {
		brand.Translations = req.Translations
	}
	if err := h.brands.Update(c.Request.Context(), brand); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.translator.Enqueue(c.Request.Context(), brand)
	dataResponse(c, http.StatusOK, brand)
}

// DELETE /api/v1/admin/brands/:id
func (h *BrandsHandler) DeleteBrand(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.brands.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
