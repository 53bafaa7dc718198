package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"catalog-service/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

const cityStatsKey = "cities:stats"

// StockRepository stores cities, warehouses, stock rows and edges.
type StockRepository struct {
	db    *gorm.DB
	cache *Cache
}

func NewStockRepository(db *gorm.DB, cache *Cache) *StockRepository {
	return &StockRepository{db: db, cache: cache}
}

func (r *StockRepository) invalidate(ctx context.Context) {
	r.cache.Delete(ctx, cityStatsKey)
	r.cache.DeletePattern(ctx, "product:*")
	r.cache.DeletePattern(ctx, "products:list:*")
	r.cache.DeletePattern(ctx, "facets:*")
}

// CachedCityStats returns the cached city availability, if any.
func (r *StockRepository) CachedCityStats(ctx context.Context) ([]models.CityStats, bool) {
	var stats []models.CityStats
	if r.cache.GetJSON(ctx, cityStatsKey, &stats) {
		return stats, true
	}
	return nil, false
}

func (r *StockRepository) CacheCityStats(ctx context.Context, stats []models.CityStats) {
	r.cache.SetJSON(ctx, cityStatsKey, stats, CityStatsCacheTTL)
}

// ---------------------------------------------------------------------------
// Cities
// ---------------------------------------------------------------------------

func (r *StockRepository) Cities(ctx context.Context) ([]models.City, error) {
	var cities []models.City
	if err := r.db.WithContext(ctx).Order("name ASC").Find(&cities).Error; err != nil {
		return nil, fmt.Errorf("failed to list cities: %w", err)
	}
	return cities, nil
}

func (r *StockRepository) GetCity(ctx context.Context, id uuid.UUID) (*models.City, error) {
	var city models.City
	err := r.db.WithContext(ctx).First(&city, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get city: %w", err)
	}
	return &city, nil
}

// GetCityByName matches the city name case-insensitively.
func (r *StockRepository) GetCityByName(ctx context.Context, name string) (*models.City, error) {
	var city models.City
	err := r.db.WithContext(ctx).Where("LOWER(name) = LOWER(?)", name).First(&city).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrCityNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get city: %w", err)
	}
	return &city, nil
}

func (r *StockRepository) CreateCity(ctx context.Context, c *models.City) error {
	if err := r.db.WithContext(ctx).Create(c).Error; err != nil {
		if IsDuplicateError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create city: %w", err)
	}
	r.invalidate(ctx)
	return nil
}

func (r *StockRepository) UpdateCity(ctx context.Context, c *models.City) error {
	res := r.db.WithContext(ctx).Model(&models.City{}).Where("id = ?", c.ID).Updates(map[string]interface{}{
		"name":            c.Name,
		"additional_data": c.Translations,
	})
	if res.Error != nil {
		if IsDuplicateError(res.Error) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update city: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrCityNotFound
	}
	r.invalidate(ctx)
	return nil
}

// DeleteCity removes a city with its warehouses, their stock and the edges touching it.
func (r *StockRepository) DeleteCity(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		warehouses := tx.Model(&models.Warehouse{}).Select("id").Where("city_id = ?", id)
		if err := tx.Where("warehouse_id IN (?)", warehouses).Delete(&models.Stock{}).Error; err != nil {
			return err
		}
		if err := tx.Where("city_id = ?", id).Delete(&models.Warehouse{}).Error; err != nil {
			return err
		}
		if err := tx.Where("city_from_id = ? OR city_to_id = ?", id, id).Delete(&models.Edge{}).Error; err != nil {
			return err
		}
		if err := tx.Exec("DELETE FROM service_cities WHERE city_id = ?", id).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.City{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrCityNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// ---------------------------------------------------------------------------
// Warehouses
// ---------------------------------------------------------------------------

func (r *StockRepository) Warehouses(ctx context.Context, cityID *uuid.UUID) ([]models.Warehouse, error) {
	q := r.db.WithContext(ctx).Preload("City").Order("name ASC")
	if cityID != nil {
		q = q.Where("city_id = ?", *cityID)
	}
	var warehouses []models.Warehouse
	if err := q.Find(&warehouses).Error; err != nil {
		return nil, fmt.Errorf("failed to list warehouses: %w", err)
	}
	return warehouses, nil
}

func (r *StockRepository) GetWarehouse(ctx context.Context, id uuid.UUID) (*models.Warehouse, error) {
	var w models.Warehouse
	err := r.db.WithContext(ctx).Preload("City").First(&w, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWarehouseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get warehouse: %w", err)
	}
	return &w, nil
}

// WarehouseByKey finds a warehouse by name or ERP external ID.
func (r *StockRepository) WarehouseByKey(ctx context.Context, key string) (*models.Warehouse, error) {
	var w models.Warehouse
	err := r.db.WithContext(ctx).Where("name = ? OR external_id = ?", key, key).First(&w).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrWarehouseNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get warehouse: %w", err)
	}
	return &w, nil
}

func (r *StockRepository) CreateWarehouse(ctx context.Context, w *models.Warehouse) error {
	if _, err := r.GetCity(ctx, w.CityID); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Omit("City").Create(w).Error; err != nil {
		if IsDuplicateError(err) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to create warehouse: %w", err)
	}
	r.invalidate(ctx)
	return nil
}

func (r *StockRepository) UpdateWarehouse(ctx context.Context, w *models.Warehouse) error {
	if _, err := r.GetCity(ctx, w.CityID); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&models.Warehouse{}).Where("id = ?", w.ID).Updates(map[string]interface{}{
		"name":        w.Name,
		"external_id": w.ExternalID,
		"city_id":     w.CityID,
	})
	if res.Error != nil {
		if IsDuplicateError(res.Error) {
			return ErrDuplicate
		}
		return fmt.Errorf("failed to update warehouse: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrWarehouseNotFound
	}
	r.invalidate(ctx)
	return nil
}

func (r *StockRepository) DeleteWarehouse(ctx context.Context, id uuid.UUID) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("warehouse_id = ?", id).Delete(&models.Stock{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Warehouse{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return ErrWarehouseNotFound
		}
		return nil
	})
	if err != nil {
		return err
	}
	r.invalidate(ctx)
	return nil
}

// ---------------------------------------------------------------------------
// Stock
// ---------------------------------------------------------------------------

func (r *StockRepository) stockQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("Warehouse").Preload("Warehouse.City")
}

// ForProduct returns every stock row of a product with warehouse and city.
func (r *StockRepository) ForProduct(ctx context.Context, productID uuid.UUID) ([]models.Stock, error) {
	var stocks []models.Stock
	if err := r.stockQuery(ctx).Where("product_id = ?", productID).Find(&stocks).Error; err != nil {
		return nil, fmt.Errorf("failed to list stocks: %w", err)
	}
	return stocks, nil
}

// ForProducts returns the stock rows of several products keyed by product.
func (r *StockRepository) ForProducts(ctx context.Context, ids []uuid.UUID) (map[uuid.UUID][]models.Stock, error) {
	out := make(map[uuid.UUID][]models.Stock, len(ids))
	if len(ids) == 0 {
		return out, nil
	}
	var stocks []models.Stock
	if err := r.stockQuery(ctx).Where("product_id IN ?", ids).Find(&stocks).Error; err != nil {
		return nil, fmt.Errorf("failed to list stocks: %w", err)
	}
	for _, s := range stocks {
		out[s.ProductID] = append(out[s.ProductID], s)
	}
	return out, nil
}

// InStock returns every stock row with a positive quantity.
func (r *StockRepository) InStock(ctx context.Context) ([]models.Stock, error) {
	var stocks []models.Stock
	if err := r.stockQuery(ctx).Where("quantity > 0").Find(&stocks).Error; err != nil {
		return nil, fmt.Errorf("failed to list stocks: %w", err)
	}
	return stocks, nil
}

// Upsert inserts the stock row or updates quantity and price of the existing
// (warehouse, product) row. It reports whether a row was created.
func (r *StockRepository) Upsert(ctx context.Context, s *models.Stock) (bool, error) {
	created := false
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var existing models.Stock
		err := tx.Where("warehouse_id = ? AND product_id = ?", s.WarehouseID, s.ProductID).
			First(&existing).Error
		if errors.Is(err, gorm.ErrRecordNotFound) {
			created = true
			return tx.Omit("Warehouse", "Product").Create(s).Error
		}
		if err != nil {
			return err
		}
		s.ID = existing.ID
		return tx.Model(&existing).Updates(map[string]interface{}{
			"quantity": s.Quantity,
			"price":    s.Price,
		}).Error
	})
	if err != nil {
		return false, fmt.Errorf("failed to upsert stock: %w", err)
	}
	return created, nil
}

// AfterBulkUpsert clears caches once after a batch of Upsert calls.
func (r *StockRepository) AfterBulkUpsert(ctx context.Context) {
	r.invalidate(ctx)
}

func (r *StockRepository) DeleteStock(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Stock{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete stock: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrStockNotFound
	}
	r.invalidate(ctx)
	return nil
}

// ExportRows returns every stock row with product and warehouse for spreadsheet export.
func (r *StockRepository) ExportRows(ctx context.Context) ([]models.Stock, error) {
	var stocks []models.Stock
	err := r.db.WithContext(ctx).
		Preload("Product").
		Preload("Warehouse").
		Joins("JOIN products ON products.id = stocks.product_id").
		Order("products.vendor_code ASC").
		Find(&stocks).Error
	if err != nil {
		return nil, fmt.Errorf("failed to export stocks: %w", err)
	}
	return stocks, nil
}

// ---------------------------------------------------------------------------
// Edges
// ---------------------------------------------------------------------------

func (r *StockRepository) edgeQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Preload("CityFrom").Preload("CityTo")
}

// EdgesFor returns the active, unexpired edges whose scope covers the product.
func (r *StockRepository) EdgesFor(ctx context.Context, scope models.ProductScope, now time.Time) ([]models.Edge, error) {
	categoryIDs := scope.CategoryIDs()
	if len(categoryIDs) == 0 && scope.BrandID == nil {
		return []models.Edge{}, nil
	}
	q := r.edgeQuery(ctx).
		Where("is_active = ?", true).
		Where("(expiration_date IS NULL OR expiration_date > ?)", now)
	switch {
	case len(categoryIDs) > 0 && scope.BrandID != nil:
		q = q.Where("(category_id IN ? OR brand_id = ?)", categoryIDs, *scope.BrandID)
	case len(categoryIDs) > 0:
		q = q.Where("category_id IN ?", categoryIDs)
	default:
		q = q.Where("brand_id = ?", *scope.BrandID)
	}
	var edges []models.Edge
	if err := q.Find(&edges).Error; err != nil {
		return nil, fmt.Errorf("failed to list edges: %w", err)
	}
	return edges, nil
}

// ActiveEdges returns every active, unexpired edge.
func (r *StockRepository) ActiveEdges(ctx context.Context, now time.Time) ([]models.Edge, error) {
	var edges []models.Edge
	err := r.edgeQuery(ctx).
		Where("is_active = ?", true).
		Where("expiration_date IS NULL OR expiration_date > ?", now).
		Find(&edges).Error
	if err != nil {
		return nil, fmt.Errorf("failed to list edges: %w", err)
	}
	return edges, nil
}

func (r *StockRepository) Edges(ctx context.Context) ([]models.Edge, error) {
	var edges []models.Edge
	if err := r.edgeQuery(ctx).Order("created_at DESC").Find(&edges).Error; err != nil {
		return nil, fmt.Errorf("failed to list edges: %w", err)
	}
	return edges, nil
}

func (r *StockRepository) GetEdge(ctx context.Context, id uuid.UUID) (*models.Edge, error) {
	var e models.Edge
	err := r.edgeQuery(ctx).First(&e, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrEdgeNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get edge: %w", err)
	}
	return &e, nil
}

func checkEdgeScope(e *models.Edge) error {
	if (e.CategoryID == nil) == (e.BrandID == nil) {
		return ErrEdgeScope
	}
	return nil
}

func (r *StockRepository) CreateEdge(ctx context.Context, e *models.Edge) error {
	if err := checkEdgeScope(e); err != nil {
		return err
	}
	if err := r.db.WithContext(ctx).Omit("CityFrom", "CityTo").Create(e).Error; err != nil {
		return fmt.Errorf("failed to create edge: %w", err)
	}
	r.invalidate(ctx)
	return nil
}

func (r *StockRepository) UpdateEdge(ctx context.Context, e *models.Edge) error {
	if err := checkEdgeScope(e); err != nil {
		return err
	}
	res := r.db.WithContext(ctx).Model(&models.Edge{}).Where("id = ?", e.ID).Updates(map[string]interface{}{
		"city_from_id":            e.CityFromID,
		"city_to_id":              e.CityToID,
		"category_id":             e.CategoryID,
		"brand_id":                e.BrandID,
		"transportation_cost":     e.TransportationCost,
		"estimated_delivery_days": e.EstimatedDeliveryDays,
		"is_active":               e.IsActive,
		"expiration_date":         e.ExpirationDate,
	})
	if res.Error != nil {
		return fmt.Errorf("failed to update edge: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrEdgeNotFound
	}
	r.invalidate(ctx)
	return nil
}

func (r *StockRepository) DeleteEdge(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Delete(&models.Edge{}, "id = ?", id)
	if res.Error != nil {
		return fmt.Errorf("failed to delete edge: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return ErrEdgeNotFound
	}
	r.invalidate(ctx)
	return nil
}
