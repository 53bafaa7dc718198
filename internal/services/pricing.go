package services

import (
	"time"

	"catalog-service/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// DiscountIndex resolves the discount of a product from a snapshot of
// discounts, following product > category (nearest ancestor) > brand.
type DiscountIndex struct {
	now        time.Time
	byProduct  map[uuid.UUID][]*models.Discount
	byCategory map[uuid.UUID][]*models.Discount
	byBrand    map[uuid.UUID][]*models.Discount
}

// NewDiscountIndex indexes the valid discounts among ds at now. The scope
// associations (Products, Categories, Brands) must be preloaded.
func NewDiscountIndex(ds []models.Discount, now time.Time) *DiscountIndex {
	idx := &DiscountIndex{
		now:        now,
		byProduct:  make(map[uuid.UUID][]*models.Discount),
		byCategory: make(map[uuid.UUID][]*models.Discount),
		byBrand:    make(map[uuid.UUID][]*models.Discount),
	}
	for i := range ds {
		d := &ds[i]
		if !d.IsValid(now) {
			continue
		}
		for _, p := range d.Products {
			idx.byProduct[p.ID] = append(idx.byProduct[p.ID], d)
		}
		for _, c := range d.Categories {
			idx.byCategory[c.ID] = append(idx.byCategory[c.ID], d)
		}
		for _, b := range d.Brands {
			idx.byBrand[b.ID] = append(idx.byBrand[b.ID], d)
		}
	}
	return idx
}

// Resolve picks the discount that applies to the product, or nil.
func (idx *DiscountIndex) Resolve(scope models.ProductScope) *models.AppliedDiscount {
	if idx == nil {
		return nil
	}
	if d := largest(idx.byProduct[scope.ProductID]); d != nil {
		return applied(d, models.DiscountLevelProduct)
	}
	for _, categoryID := range scope.CategoryIDs() {
		if d := largest(idx.byCategory[categoryID]); d != nil {
			return applied(d, models.DiscountLevelCategory)
		}
	}
	if scope.BrandID != nil {
		if d := largest(idx.byBrand[*scope.BrandID]); d != nil {
			return applied(d, models.DiscountLevelBrand)
		}
	}
	return nil
}

// Quote applies the resolved discount of the product to base.
func (idx *DiscountIndex) Quote(scope models.ProductScope, base decimal.Decimal) models.PriceQuote {
	return ApplyDiscount(base, idx.Resolve(scope))
}

// ApplyDiscount reduces base by the discount percentage. PriceBeforeDiscount
// is only set when a discount changed the price.
func ApplyDiscount(base decimal.Decimal, d *models.AppliedDiscount) models.PriceQuote {
	if d == nil || !d.Amount.IsPositive() || !base.IsPositive() {
		return models.PriceQuote{Price: base.Round(2)}
	}
	amount := decimal.Min(d.Amount, hundred)
	price := base.Mul(hundred.Sub(amount)).Div(hundred).Round(2)
	before := base.Round(2)
	return models.PriceQuote{
		Price:               price,
		PriceBeforeDiscount: &before,
		Discount:            d,
	}
}

func largest(ds []*models.Discount) *models.Discount {
	var best *models.Discount
	for _, d := range ds {
		if best == nil || d.Amount.GreaterThan(best.Amount) {
			best = d
		}
	}
	return best
}

func applied(d *models.Discount, level models.DiscountLevel) *models.AppliedDiscount {
	return &models.AppliedDiscount{
		ID:     d.ID,
		Name:   d.Name,
		Amount: d.Amount,
		Level:  level,
	}
}
