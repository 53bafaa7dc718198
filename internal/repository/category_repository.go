package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"catalog-service/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

const categoriesAllKey = "categories:all"

type CategoryRepository struct {
	db    *gorm.DB
	cache *Cache
}

func NewCategoryRepository(db *gorm.DB, cache *Cache) *CategoryRepository {
	return &CategoryRepository{db: db, cache: cache}
}

// invalidate drops the tree and every payload embedding category names.
func (r *CategoryRepository) invalidate(ctx context.Context) {
	r.cache.Delete(ctx, categoriesAllKey)
	r.cache.DeletePattern(ctx, "facets:*")
	r.cache.DeletePattern(ctx, "product:*")
	r.cache.DeletePattern(ctx, "products:list:*")
}

// List returns every category ordered for tree building.
func (r *CategoryRepository) List(ctx context.Context) ([]models.Category, error) {
	var categories []models.Category
	if r.cache.GetJSON(ctx, categoriesAllKey, &categories) {
		return categories, nil
	}
	if err := r.db.WithContext(ctx).Order("level ASC, position ASC, name ASC").Find(&categories).Error; err != nil {
		return nil, fmt.Errorf("failed to list categories: %w", err)
	}
	r.cache.SetJSON(ctx, categoriesAllKey, categories, CategoryCacheTTL)
	return categories, nil
}

func (r *CategoryRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).Preload("Banners", func(db *gorm.DB) *gorm.DB {
		return db.Order("position ASC")
	}).First(&category, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

func (r *CategoryRepository) GetBySlug(ctx context.Context, slug string) (*models.Category, error) {
	var category models.Category
	err := r.db.WithContext(ctx).First(&category, "slug = ?", slug).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCategoryNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get category: %w", err)
	}
	return &category, nil
}

func (r *CategoryRepository) Children(ctx context.Context, id uuid.UUID) ([]models.Category, error) {
	var children []models.Category
	if err := r.db.WithContext(ctx).Where("parent_id = ?", id).Order("position ASC, name ASC").Find(&children).Error; err != nil {
		return nil, fmt.Errorf("failed to list children: %w", err)
	}
	return children, nil
}

// Ancestors loads the categories on the path of c, including c.
func (r *CategoryRepository) Ancestors(ctx context.Context, c *models.Category) ([]models.Category, error) {
	ids := c.AncestorIDs()
	if len(ids) == 0 {
		return nil, nil
	}
	var ancestors []models.Category
	if err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&ancestors).Error; err != nil {
		return nil, fmt.Errorf("failed to load ancestors: %w", err)
	}
	return ancestors, nil
}

// SubtreeIDs returns the IDs of c and all its descendants.
func (r *CategoryRepository) SubtreeIDs(ctx context.Context, c *models.Category) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	if err := r.db.WithContext(ctx).Model(&models.Category{}).Where("path LIKE ?", c.Path+"%").Pluck("id", &ids).Error; err != nil {
		return nil, fmt.Errorf("failed to load subtree: %w", err)
	}
	return ids, nil
}

// Create inserts a category under parent (nil for a root).
func (r *CategoryRepository) Create(ctx context.Context, c *models.Category) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var parent *models.Category
		if c.ParentID != nil {
			var p models.Category
			if err := tx.First(&p, "id = ?", *c.ParentID).Error; err != nil {
				if errors.Is(err, gorm.ErrRecordNotFound) {
					return ErrCategoryNotFound
				}
				return err
			}
			parent = &p
		}
		c.Path = models.BuildPath(parent, c.ID)
		c.Level = 0
		if parent != nil {
			c.Level = parent.Level + 1
		}
		return tx.Create(c).Error
	})
	if err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// Update saves scalar changes of c. When newParentID differs from the
// current parent (or detach is set), the node and its subtree are moved.
func (r *CategoryRepository) Update(ctx context.Context, c *models.Category, newParentID *uuid.UUID, detach bool) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var current models.Category
		if err := tx.First(&current, "id = ?", c.ID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}

		moving := detach && current.ParentID != nil
		if newParentID != nil && (current.ParentID == nil || *current.ParentID != *newParentID) {
			moving = true
		}
		c.Path = current.Path
		c.Level = current.Level
		c.ParentID = current.ParentID

		if moving {
			var parent *models.Category
			if newParentID != nil && !detach {
				var p models.Category
				if err := tx.First(&p, "id = ?", *newParentID).Error; err != nil {
					if errors.Is(err, gorm.ErrRecordNotFound) {
						return ErrCategoryNotFound
					}
					return err
				}
				if strings.HasPrefix(p.Path, current.Path) {
					return ErrCategoryCycle
				}
				if current.Level == 0 {
					var banners int64
					if err := tx.Model(&models.BannerImage{}).Where("category_id = ?", current.ID).Count(&banners).Error; err != nil {
						return err
					}
					if banners > 0 {
						return ErrBannerNotRoot
					}
				}
				parent = &p
			}
			if err := moveSubtree(tx, &current, parent); err != nil {
				return err
			}
			c.Path = models.BuildPath(parent, c.ID)
			c.ParentID = nil
			c.Level = 0
			if parent != nil {
				c.ParentID = &parent.ID
				c.Level = parent.Level + 1
			}
		}

		return tx.Model(&models.Category{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
			"name":            c.Name,
			"slug":            c.Slug,
			"description":     c.Description,
			"additional_data": c.Translations,
			"parent_id":       c.ParentID,
			"level":           c.Level,
			"path":            c.Path,
			"position":        c.Position,
		}).Error
	})
	if err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// moveSubtree rewrites path and level of every descendant of node when it
// is re-parented under parent.
func moveSubtree(tx *gorm.DB, node *models.Category, parent *models.Category) error {
	oldPath := node.Path
	newPath := models.BuildPath(parent, node.ID)
	newLevel := 0
	if parent != nil {
		newLevel = parent.Level + 1
	}
	delta := newLevel - node.Level

	var descendants []models.Category
	if err := tx.Where("path LIKE ? AND id <> ?", oldPath+"%", node.ID).Find(&descendants).Error; err != nil {
		return err
	}
	for _, d := range descendants {
		path := newPath + strings.TrimPrefix(d.Path, oldPath)
		if err := tx.Model(&models.Category{}).Where("id = ?", d.ID).Updates(map[string]interface{}{
			"path":  path,
			"level": d.Level + delta,
		}).Error; err != nil {
			return err
		}
	}
	return nil
}

// Delete removes a leaf category without products.
func (r *CategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var category models.Category
		if err := tx.First(&category, "id = ?", id).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrCategoryNotFound
			}
			return err
		}
		var children int64
		if err := tx.Model(&models.Category{}).Where("parent_id = ?", id).Count(&children).Error; err != nil {
			return err
		}
		if children > 0 {
			return ErrCategoryHasChildren
		}
		var products int64
		if err := tx.Model(&models.Product{}).Where("category_id = ?", id).Count(&products).Error; err != nil {
			return err
		}
		if products > 0 {
			return ErrCategoryInUse
		}
		if err := tx.Where("category_id = ?", id).Delete(&models.BannerImage{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM discount_categories WHERE category_id = ?", id).Error; err != nil {
			return err
		}
		return tx.Delete(&models.Category{}, "id = ?", id).Error
	})
	if err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

func subtreeProducts(db *gorm.DB, path string) *gorm.DB {
	return db.Model(&models.Category{}).Select("id").Where("path LIKE ?", path+"%")
}

// Facets aggregates the products of the subtree of c. The price bounds are
// restricted to cityID when given.
func (r *CategoryRepository) Facets(ctx context.Context, c *models.Category, cityID *uuid.UUID) (*models.CategoryFacets, []models.SpecValueCount, error) {
	db := r.db.WithContext(ctx)
	facets := &models.CategoryFacets{CategoryID: c.ID}

	if err := db.Model(&models.Product{}).
		Where("category_id IN (?)", subtreeProducts(db, c.Path)).
		Count(&facets.TotalProducts).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to count products: %w", err)
	}

	if err := db.Table("products").
		Select("brands.id AS id, brands.name AS name, COUNT(DISTINCT products.id) AS count").
		Joins("JOIN brands ON brands.id = products.brand_id").
		Where("products.category_id IN (?)", subtreeProducts(db, c.Path)).
		Group("brands.id, brands.name").
		Order("brands.name ASC").
		Scan(&facets.Brands).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to aggregate brands: %w", err)
	}

	var specs []models.SpecValueCount
	if err := db.Table("specifications").
		Select("specification_names.name AS name, specification_values.value AS value, COUNT(DISTINCT specifications.product_id) AS count").
		Joins("JOIN specification_names ON specification_names.id = specifications.name_id").
		Joins("JOIN specification_values ON specification_values.id = specifications.value_id").
		Joins("JOIN products ON products.id = specifications.product_id").
		Where("products.category_id IN (?)", subtreeProducts(db, c.Path)).
		Group("specification_names.name, specification_values.value").
		Scan(&specs).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to aggregate specifications: %w", err)
	}

	bounds, err := r.PriceRange(ctx, c, cityID)
	if err != nil {
		return nil, nil, err
	}
	facets.Price = bounds

	if err := db.Table("categories AS c").
		Select("c.id AS id, c.name AS name, c.slug AS slug, COUNT(p.id) AS count").
		Joins("LEFT JOIN categories AS d ON d.path LIKE c.path || '%'").
		Joins("LEFT JOIN products AS p ON p.category_id = d.id").
		Where("c.parent_id = ?", c.ID).
		Group("c.id, c.name, c.slug, c.position").
		Order("c.position ASC, c.name ASC").
		Scan(&facets.Children).Error; err != nil {
		return nil, nil, fmt.Errorf("failed to aggregate children: %w", err)
	}

	if facets.Brands == nil {
		facets.Brands = []models.BrandFacet{}
	}
	if facets.Children == nil {
		facets.Children = []models.ChildFacet{}
	}
	return facets, specs, nil
}

// PriceRange returns min/max of the non-zero stock prices in the subtree of c.
func (r *CategoryRepository) PriceRange(ctx context.Context, c *models.Category, cityID *uuid.UUID) (*models.PriceBounds, error) {
	db := r.db.WithContext(ctx)
	var row struct {
		MinPrice decimal.NullDecimal
		MaxPrice decimal.NullDecimal
	}
	q := db.Table("stocks").
		Select("MIN(stocks.price) AS min_price, MAX(stocks.price) AS max_price").
		Joins("JOIN products ON products.id = stocks.product_id").
		Where("stocks.price > 0").
		Where("products.category_id IN (?)", subtreeProducts(db, c.Path))
	if cityID != nil {
		q = q.Joins("JOIN warehouses ON warehouses.id = stocks.warehouse_id").Where("warehouses.city_id = ?", *cityID)
	}
	if err := q.Scan(&row).Error; err != nil {
		return nil, fmt.Errorf("failed to compute price range: %w", err)
	}
	if !row.MinPrice.Valid || !row.MaxPrice.Valid {
		return nil, nil
	}
	return &models.PriceBounds{Min: row.MinPrice.Decimal, Max: row.MaxPrice.Decimal}, nil
}
