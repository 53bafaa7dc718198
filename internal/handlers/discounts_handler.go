package handlers

import (
	"net/http"
	"strings"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var maxDiscountAmount = decimal.NewFromInt(100)

type DiscountsHandler struct {
	discounts *repository.DiscountRepository
	logger    *logrus.Entry
}

func NewDiscountsHandler(discounts *repository.DiscountRepository, logger *logrus.Logger) *DiscountsHandler {
	return &DiscountsHandler{
		discounts: discounts,
		logger:    logger.WithField("component", "discounts_handler"),
	}
}

// validateDiscount checks the percent amount and the date window.
func validateDiscount(req *models.DiscountRequest) string {
	if req.Amount.IsNegative() || req.Amount.GreaterThan(maxDiscountAmount) {
		return "Amount must be a percentage between 0 and 100"
	}
	if req.StartDate != nil && req.EndDate != nil && req.EndDate.Before(*req.StartDate) {
		return "End date must not precede start date"
	}
	return ""
}

func discountFromRequest(req *models.DiscountRequest) (*models.Discount, repository.DiscountScope) {
	d := &models.Discount{
		Name:        strings.TrimSpace(req.Name),
		Description: req.Description,
		Amount:      req.Amount,
		Active:      req.Active,
		StartDate:   req.StartDate,
		EndDate:     req.EndDate,
	}
	return d, repository.DiscountScope{
		ProductIDs:  req.ProductIDs,
		CategoryIDs: req.CategoryIDs,
		BrandIDs:    req.BrandIDs,
	}
}

// GET /api/v1/admin/discounts
func (h *DiscountsHandler) GetDiscounts(c *gin.Context) {
	discounts, err := h.discounts.List(c.Request.Context())
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, discounts)
}

// GET /api/v1/admin/discounts/:id
func (h *DiscountsHandler) GetDiscount(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	discount, err := h.discounts.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, discount)
}

// POST /api/v1/admin/discounts
func (h *DiscountsHandler) CreateDiscount(c *gin.Context) {
	var req models.DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	if msg := validateDiscount(&req); msg != "" {
		errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", msg)
		return
	}
	discount, scope := discountFromRequest(&req)
	if err := h.discounts.Create(c.Request.Context(), discount, scope); err != nil {
		respondError(c, h.logger, err)
		return
	}
	created, err := h.discounts.GetByID(c.Request.Context(), discount.ID)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusCreated, created)
}

// UpdateDiscount replaces the discount fields; omitted id lists keep their targets
// PUT /api/v1/admin/discounts/:id
func (h *DiscountsHandler) UpdateDiscount(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.DiscountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	if msg := validateDiscount(&req); msg != "" {
		errorResponse(c, http.StatusBadRequest, "VALIDATION_ERROR", msg)
		return
	}
	discount, scope := discountFromRequest(&req)
	discount.ID = id
	if err := h.discounts.Update(c.Request.Context(), discount, scope); err != nil {
		respondError(c, h.logger, err)
		return
	}
	updated, err := h.discounts.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, updated)
}

// DELETE /api/v1/admin/discounts/:id
func (h *DiscountsHandler) DeleteDiscount(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.discounts.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
