package search

import (
	"context"
	"database/sql"
	"encoding/json"
	"testing"

	"catalog-service/internal/models"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
)

func newMockDatabase(t *testing.T) (*Database, sqlmock.Sqlmock, *sql.DB) {
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)

	dialector := postgres.New(postgres.Config{
		Conn:       mockDB,
		DriverName: "postgres",
	})
	gormDB, err := gorm.Open(dialector, &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)

	return NewDatabase(gormDB), mock, mockDB
}

func TestDatabase_Products(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	first, second := uuid.New(), uuid.New()
	rows := sqlmock.NewRows([]string{"id"}).AddRow(first).AddRow(second)

	mock.ExpectQuery(`SELECT "products"."id" FROM "products" WHERE .*LOWER\(products.name\) LIKE \$1 OR LOWER\(products.vendor_code\) LIKE \$2 OR LOWER\(CAST\(products.additional_data AS TEXT\)\) LIKE \$3.* ORDER BY CASE WHEN STRPOS\(LOWER\(products.name\), \$4\) = 0 THEN 1 ELSE 0 END, STRPOS\(LOWER\(products.name\), \$5\), products.name LIMIT \$6`).
		WithArgs("%pho%", "%pho%", "%pho%", "pho", "pho", 8).
		WillReturnRows(rows)

	ids, err := db.Products(context.Background(), "  Pho ", 8)
	require.NoError(t, err)
	assert.Equal(t, []uuid.UUID{first, second}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestDatabase_Tags(t *testing.T) {
	db, mock, mockDB := newMockDatabase(t)
	defer mockDB.Close()

	id := uuid.New()
	rows := sqlmock.NewRows([]string{"id", "text", "font_color", "fill_color"}).
		AddRow(id, "Sale", "#FFFFFF", "#FF0000")

	mock.ExpectQuery(`SELECT \* FROM "tags" WHERE LOWER\(tags.text\) LIKE \$1 ORDER BY CASE WHEN STRPOS\(LOWER\(tags.text\), \$2\) = 0 THEN 1 ELSE 0 END, STRPOS\(LOWER\(tags.text\), \$3\), tags.text LIMIT \$4`).
		WithArgs("%sa%", "sa", "sa", 5).
		WillReturnRows(rows)

	tags, err := db.Tags(context.Background(), "SA", 5)
	require.NoError(t, err)
	require.Len(t, tags, 1)
	assert.Equal(t, "Sale", tags[0].Text)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLikePattern_EscapesWildcards(t *testing.T) {
	assert.Equal(t, `%100\%%`, likePattern("100%"))
	assert.Equal(t, `%a\_b%`, likePattern("A_B"))
}

func TestNewProductDocument(t *testing.T) {
	category := &models.Category{ID: uuid.New(), Name: "Phones", Path: "/a/b/"}
	brand := &models.Brand{ID: uuid.New(), Name: "Acme"}
	p := &models.Product{
		ID:           uuid.New(),
		Name:         "Phone X",
		VendorCode:   "PX-1",
		Slug:         "phone-x",
		Translations: models.Translations{"EN": "Phone X", "KZ": "", "RU": "Телефон X"},
		Category:     category,
		Brand:        brand,
		Tags:         []models.Tag{{Text: "New"}},
	}
	specs := []models.Specification{
		{Name: &models.SpecificationName{Name: "Color"}, Value: &models.SpecificationValue{Value: "Black"}},
		{Name: nil, Value: &models.SpecificationValue{Value: "orphan"}},
	}

	doc := NewProductDocument(p, specs)

	assert.Equal(t, p.ID.String(), doc.ID)
	assert.Equal(t, "Phone X Телефон X", doc.Translations)
	assert.Equal(t, "Phones", doc.CategoryName)
	assert.Equal(t, "/a/b/", doc.CategoryPath)
	assert.Equal(t, "Acme", doc.BrandName)
	assert.Equal(t, []TagDoc{{Text: "New"}}, doc.Tags)
	assert.Equal(t, []SpecDoc{{Name: "Color", Value: "Black"}}, doc.Specs)
}

func TestCategoryDocument_RoundTrip(t *testing.T) {
	c := &models.Category{ID: uuid.New(), Name: "Sofas", Slug: "sofas", Level: 1, Translations: models.Translations{"EN": "Sofas"}}
	data, err := json.Marshal(NewCategoryDocument(c))
	require.NoError(t, err)

	var doc CategoryDocument
	require.NoError(t, json.Unmarshal(data, &doc))
	back, ok := doc.Category()
	require.True(t, ok)
	assert.Equal(t, c.ID, back.ID)
	assert.Equal(t, "Sofas", back.Translations.Resolve("en", ""))
	assert.Equal(t, 1, back.Level)
}

func TestProductQuery_Shape(t *testing.T) {
	data, err := json.Marshal(productQuery("sofa"))
	require.NoError(t, err)
	body := string(data)

	assert.Contains(t, body, `"multi_match"`)
	assert.Contains(t, body, `"name^3"`)
	assert.Contains(t, body, `"match_phrase_prefix"`)
	assert.Contains(t, body, `"path":"tags"`)
	assert.Contains(t, body, `"path":"specs"`)
	assert.Contains(t, body, `"minimum_should_match":1`)
}

func TestNarrowToCity(t *testing.T) {
	price := decimal.NewFromInt(100)
	summaries := []models.ProductSummary{
		{Name: "a", Price: &price},
		{Name: "b"},
		{Name: "c", Price: &price},
		{Name: "d", Price: &price},
	}
	city := uuid.New()

	t.Run("drops products without an offer in the city", func(t *testing.T) {
		got := narrowToCity(summaries, &city, 2)
		require.Len(t, got, 2)
		assert.Equal(t, "a", got[0].Name)
		assert.Equal(t, "c", got[1].Name)
	})

	t.Run("keeps everything without a city", func(t *testing.T) {
		got := narrowToCity(summaries, nil, 8)
		assert.Len(t, got, 4)
	})
}

func TestService_GlobalEmptyQuery(t *testing.T) {
	s := &Service{}
	result, err := s.Global(context.Background(), "   ", "ru", nil)
	require.NoError(t, err)
	assert.Empty(t, result.Products)
	assert.Empty(t, result.Categories)
	assert.Empty(t, result.Brands)
	assert.Empty(t, result.Tags)

	data, _ := json.Marshal(result)
	assert.JSONEq(t, `{"products":[],"categories":[],"brands":[],"tags":[]}`, string(data))
}
