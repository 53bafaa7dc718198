package repository

import (
	"context"
	"errors"
	"fmt"

	"catalog-service/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ReviewRepository struct {
	db    *gorm.DB
	cache *Cache
}

func NewReviewRepository(db *gorm.DB, cache *Cache) *ReviewRepository {
	return &ReviewRepository{db: db, cache: cache}
}

// ListModerated returns the public reviews of a product, newest first.
func (r *ReviewRepository) ListModerated(ctx context.Context, productID uuid.UUID, limit, offset int) ([]models.Review, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Review{}).
		Where("product_id = ? AND moderation = ?", productID, true)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	var reviews []models.Review
	if err := q.Order("created_at DESC").Limit(limit).Offset(offset).Find(&reviews).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, total, nil
}

// ListPending returns reviews awaiting moderation, oldest first.
func (r *ReviewRepository) ListPending(ctx context.Context, limit, offset int) ([]models.Review, int64, error) {
	q := r.db.WithContext(ctx).Model(&models.Review{}).Where("moderation = ?", false)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count reviews: %w", err)
	}
	var reviews []models.Review
	if err := q.Preload("Product").Order("created_at ASC").Limit(limit).Offset(offset).Find(&reviews).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list reviews: %w", err)
	}
	return reviews, total, nil
}

func (r *ReviewRepository) Create(ctx context.Context, review *models.Review) error {
	var count int64
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Where("id = ?", review.ProductID).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to check product: %w", err)
	}
	if count == 0 {
		return ErrProductNotFound
	}
	if err := r.db.WithContext(ctx).Omit("Product").Create(review).Error; err != nil {
		if IsDuplicateError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create review: %w", err)
	}
	return nil
}

// SetModeration publishes or hides a review.
func (r *ReviewRepository) SetModeration(ctx context.Context, id uuid.UUID, moderation bool) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).First(&review, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrReviewNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get review: %w", err)
	}
	if err := r.db.WithContext(ctx).Model(&review).Update("moderation", moderation).Error; err != nil {
		return nil, fmt.Errorf("failed to moderate review: %w", err)
	}
	review.Moderation = moderation
	r.invalidate(ctx)
	return &review, nil
}

func (r *ReviewRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Review{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete review: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrReviewNotFound
	}
	r.invalidate(ctx)
	return nil
}

func (r *ReviewRepository) invalidate(ctx context.Context) {
	r.cache.DeletePattern(ctx, "products:list:*")
}

// RatingStats averages the moderated reviews of the given products. Products
// without reviews are absent from the result.
func (r *ReviewRepository) RatingStats(ctx context.Context, productIDs []uuid.UUID) (map[uuid.UUID]models.RatingStats, error) {
	out := make(map[uuid.UUID]models.RatingStats, len(productIDs))
	if len(productIDs) == 0 {
		return out, nil
	}
	var rows []models.RatingStats
	err := r.db.WithContext(ctx).Model(&models.Review{}).
		Select("product_id, AVG(rating) AS average_rating, COUNT(*) AS review_count").
		Where("product_id IN ? AND moderation = ?", productIDs, true).
		Group("product_id").
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate ratings: %w", err)
	}
	for _, row := range rows {
		out[row.ProductID] = row
	}
	return out, nil
}
