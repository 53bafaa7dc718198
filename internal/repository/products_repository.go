package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"catalog-service/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ProductsRepository struct {
	db    *gorm.DB
	cache *Cache
}

func NewProductsRepository(db *gorm.DB, cache *Cache) *ProductsRepository {
	return &ProductsRepository{db: db, cache: cache}
}

// invalidateProductCaches invalidates all caches related to a product
func (r *ProductsRepository) invalidateProductCaches(ctx context.Context, slug string) {
	if slug != "" {
		r.cache.Delete(ctx, "product:"+slug)
	}
	r.cache.DeletePattern(ctx, "products:list:*")
	r.cache.DeletePattern(ctx, "facets:*")
	r.cache.Delete(ctx, cityStatsKey)
}

type productPage struct {
	Products []models.Product `json:"products"`
	Total    int64            `json:"total"`
}

// List returns one page of products matching the filter and the total count.
// Pages are cached per filter and dropped on any catalog write.
func (r *ProductsRepository) List(ctx context.Context, f models.ProductFilter) ([]models.Product, int64, error) {
	cacheKey := listCacheKey("products:list", f)
	var cached productPage
	if r.cache.GetJSON(ctx, cacheKey, &cached) {
		return cached.Products, cached.Total, nil
	}

	db := r.db.WithContext(ctx)
	q := r.applyFilter(db, db.Model(&models.Product{}), f)

	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}

	order, ok := models.ProductSort[f.Sort]
	if !ok {
		order = "products.created_at DESC"
	}
	order = strings.Replace(order, "min_price", "pp.min_price", 1)

	q = q.Select("products.*").
		Preload("Tags").
		Order(order).
		Order("products.id ASC")
	if f.Limit > 0 {
		q = q.Limit(f.Limit).Offset(f.Offset)
	}
	var products []models.Product
	err := q.Find(&products).Error
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}

	r.cache.SetJSON(ctx, cacheKey, productPage{Products: products, Total: total}, ProductListCacheTTL)
	return products, total, nil
}

// applyFilter composes the product filters. The price subquery is always
// joined as "pp" so that sorting by price works without a filter.
func (r *ProductsRepository) applyFilter(db *gorm.DB, q *gorm.DB, f models.ProductFilter) *gorm.DB {
	priceSub := db.Table("stocks").
		Select("stocks.product_id AS product_id, MIN(stocks.price) AS min_price").
		Where("stocks.price > 0").
		Group("stocks.product_id")
	if f.CityID != nil {
		priceSub = priceSub.
			Joins("JOIN warehouses ON warehouses.id = stocks.warehouse_id").
			Where("warehouses.city_id = ?", *f.CityID)
	}
	q = q.Joins("LEFT JOIN (?) AS pp ON pp.product_id = products.id", priceSub)

	if len(f.IDs) > 0 {
		q = q.Where("products.id IN ?", f.IDs)
	}
	if len(f.BrandIDs) > 0 {
		q = q.Where("products.brand_id IN ?", f.BrandIDs)
	}
	if f.CategoryPath != "" {
		q = q.Where("products.category_id IN (?)", subtreeProducts(db, f.CategoryPath))
	}
	for _, spec := range f.Specs {
		q = q.Where("products.id IN (?)",
			db.Table("specifications").
				Select("specifications.product_id").
				Joins("JOIN specification_names ON specification_names.id = specifications.name_id").
				Joins("JOIN specification_values ON specification_values.id = specifications.value_id").
				Where("specification_names.name = ? AND specification_values.value IN ?", spec.Name, spec.Values),
		)
	}
	if f.TagID != nil {
		q = q.Where("products.id IN (?)", db.Table("product_tags").Select("product_id").Where("tag_id = ?", *f.TagID))
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		q = q.Where("(LOWER(products.name) LIKE ? OR LOWER(products.vendor_code) LIKE ?)", pattern, pattern)
	}
	if f.CityID != nil {
		q = q.Where("(products.id IN (?) OR products.id IN (?))",
			inStockIn(db, *f.CityID), deliverableTo(db, *f.CityID, time.Now()))
	}
	if f.Price != nil {
		if f.Price.Min != nil {
			q = q.Where("pp.min_price >= ?", f.Price.Min.InexactFloat64())
		}
		if f.Price.Max != nil {
			q = q.Where("pp.min_price <= ?", f.Price.Max.InexactFloat64())
		}
	}
	return q
}

// inStockIn selects products with a positive stock row in a warehouse of the city.
func inStockIn(db *gorm.DB, cityID uuid.UUID) *gorm.DB {
	return db.Table("stocks").
		Select("stocks.product_id").
		Joins("JOIN warehouses ON warehouses.id = stocks.warehouse_id").
		Where("warehouses.city_id = ? AND stocks.quantity > 0", cityID)
}

// deliverableTo selects products that a valid edge can bring into the city:
// the edge covers the product brand or an ancestor of its category, and the
// edge's origin city holds positive stock of the product.
func deliverableTo(db *gorm.DB, cityID uuid.UUID, now time.Time) *gorm.DB {
	return db.Table("products AS ep").
		Select("ep.id").
		Joins("JOIN stocks AS es ON es.product_id = ep.id AND es.quantity > 0").
		Joins("JOIN warehouses AS ew ON ew.id = es.warehouse_id").
		Joins("JOIN edges ON edges.city_from_id = ew.city_id").
		Joins("LEFT JOIN categories AS pc ON pc.id = ep.category_id").
		Joins("LEFT JOIN categories AS ec ON ec.id = edges.category_id").
		Where("edges.city_to_id = ? AND edges.is_active = ?", cityID, true).
		Where("(edges.expiration_date IS NULL OR edges.expiration_date > ?)", now).
		Where("((edges.brand_id IS NOT NULL AND edges.brand_id = ep.brand_id) OR (ec.id IS NOT NULL AND pc.path LIKE ec.path || '%'))")
}

func (r *ProductsRepository) preloadDetail(q *gorm.DB) *gorm.DB {
	return q.Preload("Category").
		Preload("Brand").
		Preload("Tags").
		Preload("Related").
		Preload("Related.Tags").
		Preload("Configurations").
		Preload("Configurations.Tags")
}

// GetBySlug loads a product with its relations, using the product cache
func (r *ProductsRepository) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	cacheKey := "product:" + slug
	var cached models.Product
	if r.cache.GetJSON(ctx, cacheKey, &cached) {
		return &cached, nil
	}

	var product models.Product
	err := r.preloadDetail(r.db.WithContext(ctx)).First(&product, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	r.cache.SetJSON(ctx, cacheKey, product, ProductCacheTTL)
	return &product, nil
}

func (r *ProductsRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.preloadDetail(r.db.WithContext(ctx)).First(&product, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

func (r *ProductsRepository) GetByVendorCode(ctx context.Context, code string) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).First(&product, "vendor_code = ?", code).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrProductNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get product: %w", err)
	}
	return &product, nil
}

// GetByIDs returns the products in the order of ids; unknown IDs are skipped.
func (r *ProductsRepository) GetByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Product, error) {
	if len(ids) == 0 {
		return []models.Product{}, nil
	}
	var products []models.Product
	if err := r.db.WithContext(ctx).Preload("Tags").Where("id IN ?", ids).Find(&products).Error; err != nil {
		return nil, fmt.Errorf("failed to get products: %w", err)
	}
	byID := make(map[uuid.UUID]models.Product, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}
	ordered := make([]models.Product, 0, len(products))
	for _, id := range ids {
		if p, ok := byID[id]; ok {
			ordered = append(ordered, p)
		}
	}
	return ordered, nil
}

// Slugs returns every product slug.
func (r *ProductsRepository) Slugs(ctx context.Context) ([]string, error) {
	var slugs []string
	if err := r.db.WithContext(ctx).Model(&models.Product{}).Order("slug ASC").Pluck("slug", &slugs).Error; err != nil {
		return nil, fmt.Errorf("failed to list slugs: %w", err)
	}
	return slugs, nil
}

// Batch returns a page of products ordered by id with category, brand and
// tags loaded. Used to rebuild the search index.
func (r *ProductsRepository) Batch(ctx context.Context, offset, limit int) ([]models.Product, error) {
	var products []models.Product
	err := r.db.WithContext(ctx).
		Preload("Category").
		Preload("Brand").
		Preload("Tags").
		Order("id ASC").
		Offset(offset).
		Limit(limit).
		Find(&products).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load product batch: %w", err)
	}
	return products, nil
}

// ListByCategoryIDs lists the products directly attached to the given categories.
func (r *ProductsRepository) ListByCategoryIDs(ctx context.Context, ids []uuid.UUID, limit, offset int) ([]models.Product, int64, error) {
	if len(ids) == 0 {
		return []models.Product{}, 0, nil
	}
	q := r.db.WithContext(ctx).Model(&models.Product{}).Where("category_id IN ?", ids)
	var total int64
	if err := q.Count(&total).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to count products: %w", err)
	}
	var products []models.Product
	if err := q.Preload("Tags").Order("created_at DESC").Order("id ASC").Limit(limit).Offset(offset).Find(&products).Error; err != nil {
		return nil, 0, fmt.Errorf("failed to list products: %w", err)
	}
	return products, total, nil
}

// ProductLinks are the many-to-many relations set on create/update. A nil
// slice leaves the relation untouched.
type ProductLinks struct {
	TagIDs           []uuid.UUID
	RelatedIDs       []uuid.UUID
	ConfigurationIDs []uuid.UUID
}

func (r *ProductsRepository) Create(ctx context.Context, p *models.Product, links ProductLinks) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("Tags", "Related", "Configurations", "Category", "Brand").Create(p).Error; err != nil {
			return err
		}
		return replaceLinks(tx, p, links)
	})
	if err != nil {
		if IsDuplicateError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create product: %w", err)
	}
	r.invalidateProductCaches(ctx, p.Slug)
	return nil
}

func (r *ProductsRepository) Update(ctx context.Context, p *models.Product, previousSlug string, links ProductLinks) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Product{}).Where("id = ?", p.ID).Updates(map[string]interface{}{
			"name":            p.Name,
			"vendor_code":     p.VendorCode,
			"slug":            p.Slug,
			"additional_data": p.Translations,
			"category_id":     p.CategoryID,
			"brand_id":        p.BrandID,
			"images":          p.Images,
		})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrProductNotFound
		}
		return replaceLinks(tx, p, links)
	})
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return err
		}
		if IsDuplicateError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update product: %w", err)
	}
	r.invalidateProductCaches(ctx, previousSlug)
	r.invalidateProductCaches(ctx, p.Slug)
	return nil
}

func replaceLinks(tx *gorm.DB, p *models.Product, links ProductLinks) error {
	if links.TagIDs != nil {
		if err := replaceJoin(tx, "product_tags", "product_id", p.ID, "tag_id", links.TagIDs); err != nil {
			return err
		}
	}
	if links.RelatedIDs != nil {
		if err := replaceJoin(tx, "product_related", "product_id", p.ID, "related_id", withoutID(links.RelatedIDs, p.ID)); err != nil {
			return err
		}
	}
	if links.ConfigurationIDs != nil {
		if err := replaceJoin(tx, "product_configurations", "product_id", p.ID, "configuration_id", withoutID(links.ConfigurationIDs, p.ID)); err != nil {
			return err
		}
	}
	return nil
}

func withoutID(ids []uuid.UUID, self uuid.UUID) []uuid.UUID {
	out := make([]uuid.UUID, 0, len(ids))
	for _, id := range ids {
		if id != self {
			out = append(out, id)
		}
	}
	return out
}

// Delete removes a product with its stock, specifications, descriptions,
// reviews and relations.
func (r *ProductsRepository) Delete(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	var product models.Product
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&product, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrProductNotFound
			}
			return err
		}
		for _, stmt := range []string{
			"DELETE FROM product_tags WHERE product_id = ?",
			"DELETE FROM product_related WHERE product_id = ? OR related_id = ?",
			"DELETE FROM product_configurations WHERE product_id = ? OR configuration_id = ?",
			"DELETE FROM discount_products WHERE product_id = ?",
			"DELETE FROM blog_products WHERE product_id = ?",
		} {
			args := []interface{}{id}
			if strings.Count(stmt, "?") == 2 {
				args = append(args, id)
			}
			if err := tx.Exec(stmt, args...).Error; err != nil {
				return err
			}
		}
		for _, m := range []interface{}{&models.Stock{}, &models.Specification{}, &models.ProductDescription{}, &models.Review{}} {
			if err := tx.Where("product_id = ?", id).Delete(m).Error; err != nil {
				return err
			}
		}
		return tx.Delete(&models.Product{}, "id = ?", id).Error
	})
	if err != nil {
		if errors.Is(err, ErrProductNotFound) {
			return nil, err
		}
		return nil, fmt.Errorf("failed to delete product: %w", err)
	}
	r.invalidateProductCaches(ctx, product.Slug)
	return &product, nil
}

// Scopes returns the pricing scope (category path, brand) of each product.
func (r *ProductsRepository) Scopes(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID]models.ProductScope, error) {
	scopes := make(map[uuid.UUID]models.ProductScope, len(ids))
	if len(ids) == 0 {
		return scopes, nil
	}
	var rows []struct {
		ID           uuid.UUID
		CategoryID   *uuid.UUID
		BrandID      *uuid.UUID
		CategoryPath *string
	}
	err := r.db.WithContext(ctx).Table("products").
		Select("products.id AS id, products.category_id AS category_id, products.brand_id AS brand_id, categories.path AS category_path").
		Joins("LEFT JOIN categories ON categories.id = products.category_id").
		Where("products.id IN ?", ids).
		Scan(&rows).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load product scopes: %w", err)
	}
	for _, row := range rows {
		scope := models.ProductScope{ProductID: row.ID, CategoryID: row.CategoryID, BrandID: row.BrandID}
		if row.CategoryPath != nil {
			scope.CategoryPath = *row.CategoryPath
		}
		scopes[row.ID] = scope
	}
	return scopes, nil
}

// AllScopes returns the scope of every product holding stock.
func (r *ProductsRepository) AllScopes(ctx context.Context) (map[uuid.UUID]models.ProductScope, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.Stock{}).Distinct("product_id").Pluck("product_id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to list stocked products: %w", err)
	}
	return r.Scopes(ctx, ids)
}

// UpsertByVendorCode creates the product or updates name, category and
// brand of the one with the same vendor code. It reports whether a row was created.
func (r *ProductsRepository) UpsertByVendorCode(ctx context.Context, p *models.Product) (bool, error) {
	existing, err := r.GetByVendorCode(ctx, p.VendorCode)
	if errors.Is(err, ErrProductNotFound) {
		return true, r.Create(ctx, p, ProductLinks{})
	}
	if err != nil {
		return false, err
	}
	p.ID = existing.ID
	if p.Slug == "" {
		p.Slug = existing.Slug
	}
	if p.Translations == nil {
		p.Translations = existing.Translations
	}
	if p.Images == nil {
		p.Images = existing.Images
	}
	if p.CategoryID == nil {
		p.CategoryID = existing.CategoryID
	}
	if p.BrandID == nil {
		p.BrandID = existing.BrandID
	}
	return false, r.Update(ctx, p, existing.Slug, ProductLinks{})
}
