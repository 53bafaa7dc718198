package handlers

import (
	"net/http"
	"strings"

	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ContentHandler serves tags, product descriptions, blogs, banners and add-on services
type ContentHandler struct {
	content    *repository.ContentRepository
	products   services.ProductService
	translator *services.Translator
	paging     Paging
	logger     *logrus.Entry
}

func NewContentHandler(content *repository.ContentRepository, products services.ProductService, translator *services.Translator, paging Paging, logger *logrus.Logger) *ContentHandler {
	return &ContentHandler{
		content:    content,
		products:   products,
		translator: translator,
		paging:     paging.orDefault(),
		logger:     logger.WithField("component", "content_handler"),
	}
}

// GET /api/v1/tags
func (h *ContentHandler) GetTags(c *gin.Context) {
	tags, err := h.content.Tags(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	lang := middleware.GetLanguage(c)
	views := make([]models.TagView, 0, len(tags))
	for _, t := range tags {
		views = append(views, models.TagView{
			ID:        t.ID,
			Text:      t.Translations.Resolve(lang, t.Text),
			FontColor: t.FontColor,
			FillColor: t.FillColor,
		})
	}
	dataResponse(c, http.StatusOK, views)
}

// POST /api/v1/admin/tags
func (h *ContentHandler) CreateTag(c *gin.Context) {
	var req models.TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	tag := &models.Tag{
		Text:         strings.TrimSpace(req.Text),
		FontColor:    req.FontColor,
		FillColor:    req.FillColor,
		Translations: req.Translations,
	}
	if err := h.content.CreateTag(c.Request.Context(), tag); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.translator.Enqueue(c.Request.Context(), tag)
	dataResponse(c, http.StatusCreated, tag)
}

// PUT /api/v1/admin/tags/:id
func (h *ContentHandler) UpdateTag(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.TagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	ctx := c.Request.Context()
	tag, err := h.content.GetTag(ctx, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	tag.Text = strings.TrimSpace(req.Text)
	if req.FontColor != "" {
		tag.FontColor = req.FontColor
	}
	if req.FillColor != "" {
		tag.FillColor = req.FillColor
	}
	if req.Translations != nil {
		tag.Translations = req.Translations
	}
	if err := h.content.UpdateTag(ctx, tag); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.translator.Enqueue(ctx, tag)
	dataResponse(c, http.StatusOK, tag)
}

// DELETE /api/v1/admin/tags/:id
func (h *ContentHandler) DeleteTag(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.content.DeleteTag(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetProductDescriptions returns the rendered description sections of a product
// GET /api/v1/descriptions/filter_by_prod/:id
func (h *ContentHandler) GetProductDescriptions(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	descriptions, err := h.content.Descriptions(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, services.DescriptionViews(descriptions, middleware.GetLanguage(c)))
}

func descriptionFromRequest(req *models.DescriptionRequest) *models.ProductDescription {
	return &models.ProductDescription{
		ProductID:        req.ProductID,
		Title:            strings.TrimSpace(req.Title),
		Body:             req.Body,
		Translations:     req.Translations,
		BodyTranslations: req.BodyTranslations,
		Position:         req.Position,
	}
}

// POST /api/v1/admin/descriptions
func (h *ContentHandler) CreateDescription(c *gin.Context) {
	var req models.DescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	d := descriptionFromRequest(&req)
	if err := h.content.SaveDescription(c.Request.Context(), d); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.translator.Enqueue(c.Request.Context(), d)
	dataResponse(c, http.StatusCreated, d)
}

// PUT /api/v1/admin/descriptions/:id
func (h *ContentHandler) UpdateDescription(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.DescriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	d := descriptionFromRequest(&req)
	d.ID = id
	if err := h.content.SaveDescription(c.Request.Context(), d); err != nil {
		respondError(c, h.logger, err)
		return
	}
	saved, err := h.content.GetDescription(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.translator.Enqueue(c.Request.Context(), saved)
	dataResponse(c, http.StatusOK, saved)
}

// DELETE /api/v1/admin/descriptions/:id
func (h *ContentHandler) DeleteDescription(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.content.DeleteDescription(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetBlogs lists blog titles, newest first
// GET /api/v1/blogs
func (h *ContentHandler) GetBlogs(c *gin.Context) {
	limit, offset := h.paging.window(c)
	blogs, total, err := h.content.Blogs(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	lang := middleware.GetLanguage(c)
	views := make([]models.BlogView, 0, len(blogs))
	for _, b := range blogs {
		views = append(views, models.BlogView{
			ID:        b.ID,
			Title:     b.Translations.Resolve(lang, b.Title),
			CreatedAt: b.CreatedAt,
		})
	}
	listResponse(c, views, limit, offset, total)
}

// GetBlog renders a blog body with cards of the products it references
// GET /api/v1/blogs/:id
func (h *ContentHandler) GetBlog(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	cityID, ok := cityQuery(c)
	if !ok {
		return
	}
	ctx := c.Request.Context()
	blog, err := h.content.GetBlog(ctx, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	lang := middleware.GetLanguage(c)
	view := models.BlogView{
		ID:        blog.ID,
		Title:     blog.Translations.Resolve(lang, blog.Title),
		BodyHTML:  services.RenderMarkdown(blog.BodyTranslations.Resolve(lang, blog.Body)),
		CreatedAt: blog.CreatedAt,
	}
	if len(blog.Products) > 0 {
		ids := make([]uuid.UUID, 0, len(blog.Products))
		for _, p := range blog.Products {
			ids = append(ids, p.ID)
		}
		view.Products, err = h.products.ByIDs(ctx, ids, lang, cityID)
		if err != nil {
			respondError(c, h.logger, err)
			return
		}
	}
	dataResponse(c, http.StatusOK, view)
}

func blogFromRequest(req *models.BlogRequest) *models.Blog {
	return &models.Blog{
		Title:            strings.TrimSpace(req.Title),
		Body:             req.Body,
		Translations:     req.Translations,
		BodyTranslations: req.BodyTranslations,
	}
}

// POST /api/v1/admin/blogs
func (h *ContentHandler) CreateBlog(c *gin.Context) {
	var req models.BlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	blog := blogFromRequest(&req)
	productIDs := req.ProductIDs
	if productIDs == nil {
		productIDs = []uuid.UUID{}
	}
	if err := h.content.SaveBlog(c.Request.Context(), blog, productIDs); err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.translator.Enqueue(c.Request.Context(), blog)
	dataResponse(c, http.StatusCreated, blog)
}

// PUT /api/v1/admin/blogs/:id
func (h *ContentHandler) UpdateBlog(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.BlogRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	blog := blogFromRequest(&req)
	blog.ID = id
	ctx := c.Request.Context()
	if err := h.content.SaveBlog(ctx, blog, req.ProductIDs); err != nil {
		respondError(c, h.logger, err)
		return
	}
	saved, err := h.content.GetBlog(ctx, id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	h.translator.Enqueue(ctx, saved)
	dataResponse(c, http.StatusOK, saved)
}

// DELETE /api/v1/admin/blogs/:id
func (h *ContentHandler) DeleteBlog(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.content.DeleteBlog(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// CreateBanner attaches an image to a top-level category
// POST /api/v1/admin/banners
func (h *ContentHandler) CreateBanner(c *gin.Context) {
	var req models.BannerRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	banner := &models.BannerImage{
		CategoryID: req.CategoryID,
		ImageURL:   req.ImageURL,
		Link:       req.Link,
		Position:   req.Position,
	}
	if err := h.content.CreateBanner(c.Request.Context(), banner); err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusCreated, banner)
}

// DELETE /api/v1/admin/banners/:id
func (h *ContentHandler) DeleteBanner(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.content.DeleteBanner(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// GetServices lists add-on services, narrowed to a city when ?city is set
// GET /api/v1/services
func (h *ContentHandler) GetServices(c *gin.Context) {
	cityID, ok := cityQuery(c)
	if !ok {
		return
	}
	list, err := h.content.Services(c.Request.Context(), cityID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, list)
}

// POST /api/v1/admin/services
func (h *ContentHandler) CreateService(c *gin.Context) {
	var req models.ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	if req.Price.IsNegative() {
		errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "Price must not be negative")
		return
	}
	service := &models.Service{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
	}
	cityIDs := req.CityIDs
	if cityIDs == nil {
		cityIDs = []uuid.UUID{}
	}
	if err := h.content.SaveService(c.Request.Context(), service, cityIDs); err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusCreated, service)
}

// PUT /api/v1/admin/services/:id
func (h *ContentHandler) UpdateService(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.ServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	if req.Price.IsNegative() {
		errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", "Price must not be negative")
		return
	}
	service := &models.Service{
		ID:          id,
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Price:       req.Price,
	}
	if err := h.content.SaveService(c.Request.Context(), service, req.CityIDs); err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, service)
}

// DELETE /api/v1/admin/services/:id
func (h *ContentHandler) DeleteService(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.content.DeleteService(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
