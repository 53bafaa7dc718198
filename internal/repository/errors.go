package repository

import (
	"errors"
	"strings"
)

var (
	ErrProductNotFound     = errors.New("product not found")
	ErrCategoryNotFound    = errors.New("category not found")
	ErrBrandNotFound       = errors.New("brand not found")
	ErrCityNotFound        = errors.New("city not found")
	ErrWarehouseNotFound   = errors.New("warehouse not found")
	ErrStockNotFound       = errors.New("stock not found")
	ErrEdgeNotFound        = errors.New("edge not found")
	ErrDiscountNotFound    = errors.New("discount not found")
	ErrReviewNotFound      = errors.New("review not found")
	ErrTagNotFound         = errors.New("tag not found")
	ErrDescriptionNotFound = errors.New("description not found")
	ErrBlogNotFound        = errors.New("blog not found")
	ErrBannerNotFound      = errors.New("banner not found")
	ErrServiceNotFound     = errors.New("service not found")

	ErrCategoryCycle       = errors.New("category cannot be moved under its own subtree")
	ErrCategoryHasChildren = errors.New("category has child categories")
	ErrCategoryInUse       = errors.New("category has products")
	ErrBannerNotRoot       = errors.New("banners are only allowed on top-level categories")
	ErrEdgeScope           = errors.New("edge must reference exactly one of category or brand")
	ErrDuplicate           = errors.New("record already exists")

	ErrUnknownTranslationModel  = errors.New("unknown translation model")
	ErrUnknownTranslationTarget = errors.New("unknown translation target field")
	ErrTranslationInstance      = errors.New("translation instance not found")
)

// IsDuplicateError reports unique constraint violations from postgres or sqlite.
func IsDuplicateError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrDuplicate) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "sqlstate 23505")
}
