package search

import (
	"context"
	"fmt"
	"strings"

	"catalog-service/internal/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// Database searches with case-insensitive substring matches, ordered by
// the position of the match in the name so prefix matches come first.
type Database struct {
	db *gorm.DB
}

func NewDatabase(db *gorm.DB) *Database {
	return &Database{db: db}
}

func likePattern(q string) string {
	q = strings.ToLower(strings.TrimSpace(q))
	q = strings.NewReplacer(`\`, `\\`, "%", `\%`, "_", `\_`).Replace(q)
	return "%" + q + "%"
}

// Products returns product IDs whose name, vendor code or translations contain q.
func (d *Database) Products(ctx context.Context, q string, limit int) ([]uuid.UUID, error) {
	pattern := likePattern(q)
	term := strings.ToLower(strings.TrimSpace(q))

	var ids []uuid.UUID
	err := d.db.WithContext(ctx).
		Model(&models.Product{}).
		Where("LOWER(products.name) LIKE ? OR LOWER(products.vendor_code) LIKE ? OR LOWER(CAST(products.additional_data AS TEXT)) LIKE ?", pattern, pattern, pattern).
		Order(positionOrder("products.name", term)).
		Limit(limit).
		Pluck("products.id", &ids).Error
	if err != nil {
		return nil, fmt.Errorf("product search failed: %w", err)
	}
	return ids, nil
}

// Categories returns categories whose name or translations contain q.
func (d *Database) Categories(ctx context.Context, q string, limit int) ([]models.Category, error) {
	var categories []models.Category
	err := d.matching(ctx, "categories", q, limit).Find(&categories).Error
	if err != nil {
		return nil, fmt.Errorf("category search failed: %w", err)
	}
	return categories, nil
}

// Brands returns brands whose name or translations contain q.
func (d *Database) Brands(ctx context.Context, q string, limit int) ([]models.Brand, error) {
	var brands []models.Brand
	err := d.matching(ctx, "brands", q, limit).Find(&brands).Error
	if err != nil {
		return nil, fmt.Errorf("brand search failed: %w", err)
	}
	return brands, nil
}

// Tags returns tags whose text contains q.
func (d *Database) Tags(ctx context.Context, q string, limit int) ([]models.Tag, error) {
	pattern := likePattern(q)
	term := strings.ToLower(strings.TrimSpace(q))

	var tags []models.Tag
	err := d.db.WithContext(ctx).
		Where("LOWER(tags.text) LIKE ?", pattern).
		Order(positionOrder("tags.text", term)).
		Limit(limit).
		Find(&tags).Error
	if err != nil {
		return nil, fmt.Errorf("tag search failed: %w", err)
	}
	return tags, nil
}

func (d *Database) matching(ctx context.Context, table, q string, limit int) *gorm.DB {
	pattern := likePattern(q)
	term := strings.ToLower(strings.TrimSpace(q))
	return d.db.WithContext(ctx).
		Table(table).
		Where(fmt.Sprintf("LOWER(%[1]s.name) LIKE ? OR LOWER(CAST(%[1]s.additional_data AS TEXT)) LIKE ?", table), pattern, pattern).
		Order(positionOrder(table+".name", term)).
		Limit(limit)
}

// positionOrder sorts rows whose column contains term by match position,
// rows matching elsewhere last, then by the column itself.
func positionOrder(column, term string) clause.OrderBy {
	return clause.OrderBy{Expression: clause.Expr{
		SQL:                fmt.Sprintf("CASE WHEN STRPOS(LOWER(%[1]s), ?) = 0 THEN 1 ELSE 0 END, STRPOS(LOWER(%[1]s), ?), %[1]s", column),
		Vars:               []interface{}{term, term},
		WithoutParentheses: true,
	}}
}
