package handlers

import (
	"net/http"

	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const defaultReviewRating = 5

type ReviewsHandler struct {
	reviews *repository.ReviewRepository
	paging  Paging
	logger  *logrus.Entry
}

func NewReviewsHandler(reviews *repository.ReviewRepository, paging Paging, logger *logrus.Logger) *ReviewsHandler {
	return &ReviewsHandler{
		reviews: reviews,
		paging:  paging.orDefault(),
		logger:  logger.WithField("component", "reviews_handler"),
	}
}

// GetProductReviews lists moderated reviews of a product, newest first
// GET /api/v1/reviews/filter_by_prod/:id
func (h *ReviewsHandler) GetProductReviews(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	limit, offset := h.paging.window(c)
	reviews, total, err := h.reviews.ListModerated(c.Request.Context(), id, limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	listResponse(c, reviews, limit, offset, total)
}

// CreateReview stores an unmoderated review from the token's user
// POST /api/v1/reviews
func (h *ReviewsHandler) CreateReview(c *gin.Context) {
	userID, err := uuid.Parse(middleware.GetUserID(c))
	if err != nil {
		errorResponse(c, http.StatusUnauthorized, "INVALID_CLAIMS", "Token user_id is not a valid UUID")
		return
	}

	var req models.CreateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	text := services.SanitizeText(req.Text)
	if text == "" {
		c.JSON(http.StatusBadRequest, models.ErrorResponse{
			Success: false,
			Error: models.Error{
				Code:    "VALIDATION_ERROR",
				Message: "Review text is empty",
				Field:   "text",
			},
		})
		return
	}
	rating := defaultReviewRating
	if req.Rating != nil {
		rating = *req.Rating
	}

	review := &models.Review{
		ProductID: req.ProductID,
		UserID:    userID,
		Rating:    rating,
		Text:      text,
	}
	if err := h.reviews.Create(c.Request.Context(), review); err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusCreated, review)
}

// GET /api/v1/admin/reviews/pending
func (h *ReviewsHandler) GetPendingReviews(c *gin.Context) {
	limit, offset := h.paging.window(c)
	reviews, total, err := h.reviews.ListPending(c.Request.Context(), limit, offset)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	listResponse(c, reviews, limit, offset, total)
}

// ModerateReview publishes or hides a review
// PATCH /api/v1/admin/reviews/:id
func (h *ReviewsHandler) ModerateReview(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.ModerateReviewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	review, err := h.reviews.SetModeration(c.Request.Context(), id, req.Moderation)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, review)
}

// DELETE /api/v1/admin/reviews/:id
func (h *ReviewsHandler) DeleteReview(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	if err := h.reviews.Delete(c.Request.Context(), id); err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Status(http.StatusNoContent)
}
