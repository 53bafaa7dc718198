package services

import (
	"context"
	"strings"
	"time"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// CategoryService wraps the category repository with caching, search
// indexing and translation.
type CategoryService struct {
	repo       *repository.CategoryRepository
	cache      *repository.Cache
	facetsTTL  time.Duration
	translator *Translator
	indexer    SearchIndexer
	logger     *logrus.Entry
}

func NewCategoryService(repo *repository.CategoryRepository, cache *repository.Cache, facetsTTL time.Duration, translator *Translator, indexer SearchIndexer, logger *logrus.Logger) *CategoryService {
	if facetsTTL <= 0 {
		facetsTTL = repository.DefaultFacetsTTL
	}
	return &CategoryService{
		repo:       repo,
		cache:      cache,
		facetsTTL:  facetsTTL,
		translator: translator,
		indexer:    indexer,
		logger:     logger.WithField("component", "category_service"),
	}
}

func (s *CategoryService) Tree(ctx context.Context, lang string) ([]*models.CategoryNode, error) {
	categories, err := s.repo.List(ctx)
	if err != nil {
		return nil, err
	}
	return BuildCategoryTree(categories, lang), nil
}

func (s *CategoryService) Get(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *CategoryService) Children(ctx context.Context, id uuid.UUID, lang string) ([]*models.CategoryNode, error) {
	if _, err := s.repo.GetByID(ctx, id); err != nil {
		return nil, err
	}
	children, err := s.repo.Children(ctx, id)
	if err != nil {
		return nil, err
	}
	return BuildCategoryTree(children, lang), nil
}

func facetsKey(id uuid.UUID, cityID *uuid.UUID) string {
	city := "all"
	if cityID != nil {
		city = cityID.String()
	}
	return "facets:" + id.String() + ":" + city
}

// Facets aggregates the category subtree, cached per category and city.
func (s *CategoryService) Facets(ctx context.Context, id uuid.UUID, cityID *uuid.UUID) (*models.CategoryFacets, error) {
	key := facetsKey(id, cityID)
	var cached models.CategoryFacets
	if s.cache.GetJSON(ctx, key, &cached) {
		return &cached, nil
	}
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	facets, specs, err := s.repo.Facets(ctx, category, cityID)
	if err != nil {
		return nil, err
	}
	facets.Specifications = GroupSpecFacets(specs)
	s.cache.SetJSON(ctx, key, facets, s.facetsTTL)
	return facets, nil
}

func (s *CategoryService) PriceRange(ctx context.Context, id uuid.UUID, cityID *uuid.UUID) (*models.PriceBounds, error) {
	category, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	return s.repo.PriceRange(ctx, category, cityID)
}

func (s *CategoryService) Create(ctx context.Context, req *models.CreateCategoryRequest) (*models.Category, error) {
	slug := req.Slug
	if slug == "" {
		slug = GenerateSlug(req.Name)
	}
	c := &models.Category{
		Name:         strings.TrimSpace(req.Name),
		Slug:         slug,
		Description:  req.Description,
		Translations: req.Translations,
		ParentID:     req.ParentID,
		Position:     req.Position,
	}
	if err := s.repo.Create(ctx, c); err != nil {
		if repository.IsDuplicateError(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, err
	}
	s.afterSave(ctx, c)
	return c, nil
}

func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req *models.UpdateCategoryRequest) (*models.Category, error) {
	c, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Slug != nil && *req.Slug != "" {
		c.Slug = *req.Slug
	}
	if req.Description != nil {
		c.Description = req.Description
	}
	if req.Translations != nil {
		if c.Translations == nil {
			c.Translations = models.Translations{}
		}
		for lang, text := range req.Translations {
			c.Translations[strings.ToUpper(lang)] = text
		}
	}
	if req.Position != nil {
		c.Position = *req.Position
	}
	if err := s.repo.Update(ctx, c, req.ParentID, req.MoveToRoot); err != nil {
		if repository.IsDuplicateError(err) {
			return nil, repository.ErrDuplicate
		}
		return nil, err
	}
	updated, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	s.afterSave(ctx, updated)
	return updated, nil
}

func (s *CategoryService) afterSave(ctx context.Context, c *models.Category) {
	if s.indexer != nil {
		if err := s.indexer.IndexCategory(ctx, c); err != nil {
			s.logger.WithError(err).WithField("category_id", c.ID).Warn("Failed to index category")
		}
	}
	s.translator.Enqueue(ctx, c)
}

func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	if s.indexer != nil {
		if err := s.indexer.DeleteCategory(ctx, id); err != nil {
			s.logger.WithError(err).WithField("category_id", id).Warn("Failed to remove category from index")
		}
	}
	return nil
}
