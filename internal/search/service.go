package search

import (
	"context"
	"errors"
	"strings"

	"catalog-service/internal/metrics"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"catalog-service/internal/services"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	globalProductLimit  = 8
	globalCategoryLimit = 5
	globalBrandLimit    = 5
	globalTagLimit      = 5

	// candidates fetched per product slot when results are narrowed to a city
	cityCandidateFactor = 5
	reindexBatchSize    = 200
)

// ErrSearchDisabled is returned by operations that need Elasticsearch
var ErrSearchDisabled = errors.New("elasticsearch is not configured")

// Engine finds products and categories for a text query
type Engine interface {
	Products(ctx context.Context, q string, limit int) ([]uuid.UUID, error)
	Categories(ctx context.Context, q string, limit int) ([]models.Category, error)
}

// GlobalResult is the payload of the storefront smart search
type GlobalResult struct {
	Products   []models.ProductSummary `json:"products"`
	Categories []models.CategoryRef    `json:"categories"`
	Brands     []models.BrandRef       `json:"brands"`
	Tags       []models.TagView        `json:"tags"`
}

func emptyGlobal() *GlobalResult {
	return &GlobalResult{
		Products:   []models.ProductSummary{},
		Categories: []models.CategoryRef{},
		Brands:     []models.BrandRef{},
		Tags:       []models.TagView{},
	}
}

// Service answers search requests on Elasticsearch when configured and on
// the database otherwise.
type Service struct {
	elastic    *Elastic
	db         *Database
	products   services.ProductService
	catalog    *repository.ProductsRepository
	categories *repository.CategoryRepository
	specs      *repository.SpecificationRepository
	metrics    *metrics.Metrics
	logger     *logrus.Entry
}

func NewService(elastic *Elastic, db *Database, products services.ProductService, catalog *repository.ProductsRepository, categories *repository.CategoryRepository, specs *repository.SpecificationRepository, m *metrics.Metrics, logger *logrus.Logger) *Service {
	return &Service{
		elastic:    elastic,
		db:         db,
		products:   products,
		catalog:    catalog,
		categories: categories,
		specs:      specs,
		metrics:    m,
		logger:     logger.WithField("component", "search"),
	}
}

func (s *Service) engine() (Engine, string) {
	if s.elastic != nil {
		return s.elastic, "elasticsearch"
	}
	return s.db, "database"
}

// Products returns products matching q in relevance order.
func (s *Service) Products(ctx context.Context, q, lang string, cityID *uuid.UUID, limit int) ([]models.ProductSummary, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.ProductSummary{}, nil
	}
	engine, backend := s.engine()
	s.metrics.Search(backend)

	fetch := limit
	if cityID != nil {
		fetch = limit * cityCandidateFactor
	}
	ids, err := engine.Products(ctx, q, fetch)
	if err != nil {
		return nil, err
	}
	if len(ids) == 0 {
		return []models.ProductSummary{}, nil
	}
	summaries, err := s.products.ByIDs(ctx, ids, lang, cityID)
	if err != nil {
		return nil, err
	}
	return narrowToCity(summaries, cityID, limit), nil
}

// narrowToCity keeps products that have an offer in the city, up to limit.
func narrowToCity(summaries []models.ProductSummary, cityID *uuid.UUID, limit int) []models.ProductSummary {
	result := make([]models.ProductSummary, 0, limit)
	for _, p := range summaries {
		if cityID != nil && p.Price == nil {
			continue
		}
		result = append(result, p)
		if len(result) == limit {
			break
		}
	}
	return result
}

// Categories returns categories matching q with translated names.
func (s *Service) Categories(ctx context.Context, q, lang string, limit int) ([]models.CategoryRef, error) {
	q = strings.TrimSpace(q)
	if q == "" {
		return []models.CategoryRef{}, nil
	}
	engine, backend := s.engine()
	s.metrics.Search(backend)

	found, err := engine.Categories(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	refs := make([]models.CategoryRef, 0, len(found))
	for _, c := range found {
		refs = append(refs, models.CategoryRef{ID: c.ID, Name: c.Translations.Resolve(lang, c.Name), Slug: c.Slug})
	}
	return refs, nil
}

// Global runs the smart search over products, categories, brands and tags.
// An empty query yields empty lists.
func (s *Service) Global(ctx context.Context, q, lang string, cityID *uuid.UUID) (*GlobalResult, error) {
	result := emptyGlobal()
	q = strings.TrimSpace(q)
	if q == "" {
		return result, nil
	}

	var err error
	if result.Products, err = s.Products(ctx, q, lang, cityID, globalProductLimit); err != nil {
		return nil, err
	}
	if result.Categories, err = s.Categories(ctx, q, lang, globalCategoryLimit); err != nil {
		return nil, err
	}

	brands, err := s.db.Brands(ctx, q, globalBrandLimit)
	if err != nil {
		return nil, err
	}
	for _, b := range brands {
		result.Brands = append(result.Brands, models.BrandRef{ID: b.ID, Name: b.Translations.Resolve(lang, b.Name), Logo: b.Logo})
	}

	tags, err := s.db.Tags(ctx, q, globalTagLimit)
	if err != nil {
		return nil, err
	}
	for _, t := range tags {
		result.Tags = append(result.Tags, models.TagView{
			ID:        t.ID,
			Text:      t.Translations.Resolve(lang, t.Text),
			FontColor: t.FontColor,
			FillColor: t.FillColor,
		})
	}
	return result, nil
}

// ReindexStats reports how many documents a rebuild wrote
type ReindexStats struct {
	Products   int `json:"products"`
	Categories int `json:"categories"`
}

// Reindex drops and rebuilds both indices from the database.
func (s *Service) Reindex(ctx context.Context) (*ReindexStats, error) {
	if s.elastic == nil {
		return nil, ErrSearchDisabled
	}
	stats := &ReindexStats{}

	if err := s.elastic.recreateIndex(ctx, s.elastic.categoriesIndex, categoryMapping); err != nil {
		return nil, err
	}
	categories, err := s.categories.List(ctx)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(categories))
	docs := make([]interface{}, 0, len(categories))
	for i := range categories {
		ids = append(ids, categories[i].ID.String())
		docs = append(docs, NewCategoryDocument(&categories[i]))
	}
	if err := s.elastic.bulk(ctx, s.elastic.categoriesIndex, ids, docs); err != nil {
		return nil, err
	}
	stats.Categories = len(docs)

	if err := s.elastic.recreateIndex(ctx, s.elastic.productsIndex, productMapping); err != nil {
		return nil, err
	}
	for offset := 0; ; offset += reindexBatchSize {
		batch, err := s.catalog.Batch(ctx, offset, reindexBatchSize)
		if err != nil {
			return nil, err
		}
		if len(batch) == 0 {
			break
		}
		productIDs := make([]uuid.UUID, len(batch))
		for i := range batch {
			productIDs[i] = batch[i].ID
		}
		specs, err := s.specs.ForProducts(ctx, productIDs)
		if err != nil {
			return nil, err
		}
		ids := make([]string, 0, len(batch))
		docs := make([]interface{}, 0, len(batch))
		for i := range batch {
			ids = append(ids, batch[i].ID.String())
			docs = append(docs, NewProductDocument(&batch[i], specs[batch[i].ID]))
		}
		if err := s.elastic.bulk(ctx, s.elastic.productsIndex, ids, docs); err != nil {
			return nil, err
		}
		stats.Products += len(docs)
		if len(batch) < reindexBatchSize {
			break
		}
	}

	s.logger.WithFields(logrus.Fields{
		"products":   stats.Products,
		"categories": stats.Categories,
	}).Info("Search indices rebuilt")
	return stats, nil
}
