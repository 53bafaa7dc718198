package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// Product event types
const (
	ProductCreated = "catalog.product.created"
	ProductUpdated = "catalog.product.updated"
	ProductDeleted = "catalog.product.deleted"
)

// SearchIndexer keeps the search engine in sync with the catalog
type SearchIndexer interface {
	IndexProduct(ctx context.Context, p *models.Product, specs []models.Specification) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	IndexCategory(ctx context.Context, c *models.Category) error
	DeleteCategory(ctx context.Context, id uuid.UUID) error
}

// CatalogEvents publishes catalog change notifications
type CatalogEvents interface {
	PublishProductEvent(ctx context.Context, eventType string, p *models.Product)
}

// ProductQuery is a storefront product list request
type ProductQuery struct {
	Filter       models.ProductFilter
	CategorySlug string
	Lang         string
}

// ProductService defines the storefront and admin operations on products
type ProductService interface {
	List(ctx context.Context, q ProductQuery) ([]models.ProductSummary, int64, error)
	Detail(ctx context.Context, slug, lang string, cityID *uuid.UUID) (*models.ProductDetail, error)
	ByIDs(ctx context.Context, ids []uuid.UUID, lang string, cityID *uuid.UUID) ([]models.ProductSummary, error)
	ByCategory(ctx context.Context, slug, lang string, cityID *uuid.UUID, limit, offset int) ([]models.ProductSummary, int64, error)
	Slugs(ctx context.Context) ([]string, error)
	Stocks(ctx context.Context, slug string) ([]models.CityOffers, error)
	StocksInCity(ctx context.Context, productID, cityID uuid.UUID) (*models.CityOffers, error)
	Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductDeps groups the collaborators of the product service
type ProductDeps struct {
	Products       *repository.ProductsRepository
	Categories     *repository.CategoryRepository
	Brands         *repository.BrandRepository
	StockRepo      *repository.StockRepository
	Discounts      *repository.DiscountRepository
	Specifications *repository.SpecificationRepository
	Reviews        *repository.ReviewRepository
	Content        *repository.ContentRepository
	Translator     *Translator
	Indexer        SearchIndexer
	Events         CatalogEvents
	Logger         *logrus.Logger
}

type productService struct {
	ProductDeps
	logger *logrus.Entry
	now    func() time.Time
}

// NewProductService creates a new product service
func NewProductService(deps ProductDeps) ProductService {
	return &productService{
		ProductDeps: deps,
		logger:      deps.Logger.WithField("component", "product_service"),
		now:         time.Now,
	}
}

// priceSnapshot is the discount and edge snapshot a request is priced with
type priceSnapshot struct {
	idx   *DiscountIndex
	edges []models.Edge
	now   time.Time
}

func (s *productService) pricing(ctx context.Context) (*priceSnapshot, error) {
	now := s.now()
	discounts, err := s.Discounts.ListActive(ctx, now)
	if err != nil {
		return nil, err
	}
	edges, err := s.StockRepo.ActiveEdges(ctx, now)
	if err != nil {
		return nil, err
	}
	return &priceSnapshot{idx: NewDiscountIndex(discounts, now), edges: edges, now: now}, nil
}

func (s *productService) List(ctx context.Context, q ProductQuery) ([]models.ProductSummary, int64, error) {
	f := q.Filter
	if q.CategorySlug != "" {
		category, err := s.Categories.GetBySlug(ctx, q.CategorySlug)
		if err != nil {
			return nil, 0, err
		}
		f.CategoryPath = category.Path
	}
	products, total, err := s.Products.List(ctx, f)
	if err != nil {
		return nil, 0, err
	}
	summaries, err := s.summaries(ctx, products, q.Lang, f.CityID)
	if err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

func (s *productService) ByIDs(ctx context.Context, ids []uuid.UUID, lang string, cityID *uuid.UUID) ([]models.ProductSummary, error) {
	products, err := s.Products.GetByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	return s.summaries(ctx, products, lang, cityID)
}

// ByCategory lists the products of a category. A category without products
// of its own falls back to the products of its direct children.
func (s *productService) ByCategory(ctx context.Context, slug, lang string, cityID *uuid.UUID, limit, offset int) ([]models.ProductSummary, int64, error) {
	category, err := s.Categories.GetBySlug(ctx, slug)
	if err != nil {
		return nil, 0, err
	}
	products, total, err := s.Products.ListByCategoryIDs(ctx, []uuid.UUID{category.ID}, limit, offset)
	if err != nil {
		return nil, 0, err
	}
	if total == 0 {
		children, err := s.Categories.Children(ctx, category.ID)
		if err != nil {
			return nil, 0, err
		}
		ids := make([]uuid.UUID, 0, len(children))
		for _, c := range children {
			ids = append(ids, c.ID)
		}
		products, total, err = s.Products.ListByCategoryIDs(ctx, ids, limit, offset)
		if err != nil {
			return nil, 0, err
		}
	}
	summaries, err := s.summaries(ctx, products, lang, cityID)
	if err != nil {
		return nil, 0, err
	}
	return summaries, total, nil
}

func (s *productService) Slugs(ctx context.Context) ([]string, error) {
	return s.Products.Slugs(ctx)
}

// summaries prices and rates products for one city (any city when nil).
func (s *productService) summaries(ctx context.Context, products []models.Product, lang string, cityID *uuid.UUID) ([]models.ProductSummary, error) {
	out := make([]models.ProductSummary, 0, len(products))
	if len(products) == 0 {
		return out, nil
	}
	ids := make([]uuid.UUID, len(products))
	for i, p := range products {
		ids[i] = p.ID
	}
	scopes, err := s.Products.Scopes(ctx, ids)
	if err != nil {
		return nil, err
	}
	stocks, err := s.StockRepo.ForProducts(ctx, ids)
	if err != nil {
		return nil, err
	}
	ratings, err := s.Reviews.RatingStats(ctx, ids)
	if err != nil {
		return nil, err
	}
	pr, err := s.pricing(ctx)
	if err != nil {
		return nil, err
	}

	for i := range products {
		p := &products[i]
		scope := scopeOf(scopes, p)
		groups := BuildCityOffers(scope, stocks[p.ID], pr.edges, pr.idx, pr.now)
		summary := summarize(p, lang)
		applyPrice(&summary, pickOffer(groups, cityID), pr.idx.Resolve(scope))
		if r, ok := ratings[p.ID]; ok {
			summary.AverageRating = r.AverageRating
			summary.ReviewCount = r.ReviewCount
		}
		out = append(out, summary)
	}
	return out, nil
}

func scopeOf(scopes map[uuid.UUID]models.ProductScope, p *models.Product) models.ProductScope {
	if scope, ok := scopes[p.ID]; ok {
		return scope
	}
	scope := models.ProductScope{ProductID: p.ID, CategoryID: p.CategoryID, BrandID: p.BrandID}
	if p.Category != nil {
		scope.CategoryPath = p.Category.Path
	}
	return scope
}

func summarize(p *models.Product, lang string) models.ProductSummary {
	images := []string(p.Images)
	if images == nil {
		images = []string{}
	}
	return models.ProductSummary{
		ID:         p.ID,
		Name:       p.Translations.Resolve(lang, p.Name),
		Slug:       p.Slug,
		VendorCode: p.VendorCode,
		Images:     images,
		CategoryID: p.CategoryID,
		BrandID:    p.BrandID,
		Tags:       tagViews(p.Tags, lang),
	}
}

func tagViews(tags []models.Tag, lang string) []models.TagView {
	views := make([]models.TagView, 0, len(tags))
	for _, t := range tags {
		views = append(views, models.TagView{
			ID:        t.ID,
			Text:      t.Translations.Resolve(lang, t.Text),
			FontColor: t.FontColor,
			FillColor: t.FillColor,
		})
	}
	return views
}

// pickOffer returns the best offer in cityID, or the cheapest in-stock
// offer of any city when cityID is nil.
func pickOffer(groups []models.CityOffers, cityID *uuid.UUID) *models.StockOffer {
	if cityID != nil {
		return BestOffer(OffersInCity(groups, *cityID))
	}
	var best *models.StockOffer
	for i := range groups {
		o := BestOffer(&groups[i])
		if o != nil && (best == nil || o.Price.LessThan(best.Price)) {
			best = o
		}
	}
	return best
}

func applyPrice(summary *models.ProductSummary, offer *models.StockOffer, d *models.AppliedDiscount) {
	if offer == nil {
		return
	}
	price := offer.Price
	summary.Price = &price
	if offer.PriceBeforeDiscount != nil && d != nil {
		before := *offer.PriceBeforeDiscount
		amount := d.Amount
		summary.PriceBeforeDiscount = &before
		summary.DiscountAmount = &amount
	}
}

func (s *productService) Detail(ctx context.Context, slug, lang string, cityID *uuid.UUID) (*models.ProductDetail, error) {
	p, err := s.Products.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	pr, err := s.pricing(ctx)
	if err != nil {
		return nil, err
	}
	scopes, err := s.Products.Scopes(ctx, []uuid.UUID{p.ID})
	if err != nil {
		return nil, err
	}
	scope := scopeOf(scopes, p)
	stocks, err := s.StockRepo.ForProduct(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	groups := BuildCityOffers(scope, stocks, pr.edges, pr.idx, pr.now)

	detail := &models.ProductDetail{
		ProductSummary: summarize(p, lang),
		Translations:   p.Translations,
		Stocks:         groups,
	}
	applyPrice(&detail.ProductSummary, pickOffer(groups, cityID), pr.idx.Resolve(scope))

	ratings, err := s.Reviews.RatingStats(ctx, []uuid.UUID{p.ID})
	if err != nil {
		return nil, err
	}
	if r, ok := ratings[p.ID]; ok {
		detail.AverageRating = r.AverageRating
		detail.ReviewCount = r.ReviewCount
	}

	if p.Category != nil {
		detail.Category = &models.CategoryRef{
			ID:   p.Category.ID,
			Name: p.Category.Translations.Resolve(lang, p.Category.Name),
			Slug: p.Category.Slug,
		}
		ancestors, err := s.Categories.Ancestors(ctx, p.Category)
		if err != nil {
			return nil, err
		}
		detail.Breadcrumbs = Breadcrumbs(p.Category, ancestors, lang)
	}
	if p.Brand != nil {
		detail.Brand = &models.BrandRef{
			ID:   p.Brand.ID,
			Name: p.Brand.Translations.Resolve(lang, p.Brand.Name),
			Logo: p.Brand.Logo,
		}
	}

	specs, err := s.Specifications.ForProduct(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	detail.Specifications = SpecificationViews(specs, lang)

	descriptions, err := s.Content.Descriptions(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	detail.Descriptions = DescriptionViews(descriptions, lang)

	if detail.Related, err = s.summaries(ctx, p.Related, lang, cityID); err != nil {
		return nil, err
	}
	if detail.Configurations, err = s.summaries(ctx, p.Configurations, lang, cityID); err != nil {
		return nil, err
	}
	return detail, nil
}

// SpecificationViews translates product specifications.
func SpecificationViews(specs []models.Specification, lang string) []models.SpecificationView {
	views := make([]models.SpecificationView, 0, len(specs))
	for _, s := range specs {
		if s.Name == nil || s.Value == nil {
			continue
		}
		views = append(views, models.SpecificationView{
			NameID:  s.NameID,
			Name:    s.Name.Translations.Resolve(lang, s.Name.Name),
			ValueID: s.ValueID,
			Value:   s.Value.Translations.Resolve(lang, s.Value.Value),
		})
	}
	return views
}

// DescriptionViews translates descriptions and renders their bodies.
func DescriptionViews(descriptions []models.ProductDescription, lang string) []models.DescriptionView {
	views := make([]models.DescriptionView, 0, len(descriptions))
	for _, d := range descriptions {
		views = append(views, models.DescriptionView{
			ID:       d.ID,
			Title:    d.Translations.Resolve(lang, d.Title),
			BodyHTML: RenderMarkdown(d.BodyTranslations.Resolve(lang, d.Body)),
		})
	}
	return views
}

func (s *productService) Stocks(ctx context.Context, slug string) ([]models.CityOffers, error) {
	p, err := s.Products.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.cityOffers(ctx, p)
}

func (s *productService) cityOffers(ctx context.Context, p *models.Product) ([]models.CityOffers, error) {
	pr, err := s.pricing(ctx)
	if err != nil {
		return nil, err
	}
	scopes, err := s.Products.Scopes(ctx, []uuid.UUID{p.ID})
	if err != nil {
		return nil, err
	}
	scope := scopeOf(scopes, p)
	stocks, err := s.StockRepo.ForProduct(ctx, p.ID)
	if err != nil {
		return nil, err
	}
	edges, err := s.StockRepo.EdgesFor(ctx, scope, pr.now)
	if err != nil {
		return nil, err
	}
	return BuildCityOffers(scope, stocks, edges, pr.idx, pr.now), nil
}

// StocksInCity returns the priced offers of a product in one city. When the
// city has no physical stock the offers are edge-derived.
func (s *productService) StocksInCity(ctx context.Context, productID, cityID uuid.UUID) (*models.CityOffers, error) {
	city, err := s.StockRepo.GetCity(ctx, cityID)
	if err != nil {
		return nil, err
	}
	p, err := s.Products.GetByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	groups, err := s.cityOffers(ctx, p)
	if err != nil {
		return nil, err
	}
	if group := OffersInCity(groups, cityID); group != nil {
		return group, nil
	}
	return &models.CityOffers{CityID: city.ID, CityName: city.Name, Offers: []models.StockOffer{}}, nil
}

func (s *productService) checkRefs(ctx context.Context, categoryID, brandID *uuid.UUID) error {
	if categoryID != nil {
		if _, err := s.Categories.GetByID(ctx, *categoryID); err != nil {
			return err
		}
	}
	if brandID != nil {
		if _, err := s.Brands.GetByID(ctx, *brandID); err != nil {
			return err
		}
	}
	return nil
}

func (s *productService) Create(ctx context.Context, req *models.CreateProductRequest) (*models.Product, error) {
	if err := s.checkRefs(ctx, req.CategoryID, req.BrandID); err != nil {
		return nil, err
	}
	slug := req.Slug
	if slug == "" {
		slug = GenerateSlug(req.Name)
	}
	if slug == "" {
		slug = GenerateSlug(req.VendorCode)
	}
	p := &models.Product{
		Name:         strings.TrimSpace(req.Name),
		VendorCode:   strings.TrimSpace(req.VendorCode),
		Slug:         slug,
		Translations: req.Translations,
		CategoryID:   req.CategoryID,
		BrandID:      req.BrandID,
		Images:       models.StringList(req.Images),
	}
	links := repository.ProductLinks{TagIDs: req.TagIDs, RelatedIDs: req.RelatedIDs, ConfigurationIDs: req.ConfigurationIDs}
	if err := s.Products.Create(ctx, p, links); err != nil {
		return nil, err
	}
	return s.afterSave(ctx, p.ID, ProductCreated)
}

func (s *productService) Update(ctx context.Context, id uuid.UUID, req *models.UpdateProductRequest) (*models.Product, error) {
	p, err := s.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	previousSlug := p.Slug
	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.VendorCode != nil {
		p.VendorCode = strings.TrimSpace(*req.VendorCode)
	}
	if req.Slug != nil && *req.Slug != "" {
		p.Slug = *req.Slug
	}
	if req.Translations != nil {
		if p.Translations == nil {
			p.Translations = models.Translations{}
		}
		for lang, text := range req.Translations {
			p.Translations[strings.ToUpper(lang)] = text
		}
	}
	if req.CategoryID != nil {
		p.CategoryID = req.CategoryID
	}
	if req.BrandID != nil {
		p.BrandID = req.BrandID
	}
	if req.Images != nil {
		p.Images = models.StringList(req.Images)
	}
	if err := s.checkRefs(ctx, req.CategoryID, req.BrandID); err != nil {
		return nil, err
	}
	links := repository.ProductLinks{TagIDs: req.TagIDs, RelatedIDs: req.RelatedIDs, ConfigurationIDs: req.ConfigurationIDs}
	if err := s.Products.Update(ctx, p, previousSlug, links); err != nil {
		return nil, err
	}
	return s.afterSave(ctx, p.ID, ProductUpdated)
}

// afterSave reloads the product, then reindexes it, publishes the event and
// enqueues its missing translations. Failures past the reload are logged only.
func (s *productService) afterSave(ctx context.Context, id uuid.UUID, eventType string) (*models.Product, error) {
	p, err := s.Products.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if s.Indexer != nil {
		specs, err := s.Specifications.ForProduct(ctx, p.ID)
		if err == nil {
			err = s.Indexer.IndexProduct(ctx, p, specs)
		}
		if err != nil {
			s.logger.WithError(err).WithField("product_id", p.ID).Warn("Failed to index product")
		}
	}
	if s.Events != nil {
		s.Events.PublishProductEvent(ctx, eventType, p)
	}
	s.Translator.Enqueue(ctx, p)
	return p, nil
}

func (s *productService) Delete(ctx context.Context, id uuid.UUID) error {
	p, err := s.Products.Delete(ctx, id)
	if err != nil {
		return err
	}
	if s.Indexer != nil {
		if err := s.Indexer.DeleteProduct(ctx, id); err != nil {
			s.logger.WithError(err).WithField("product_id", id).Warn("Failed to remove product from index")
		}
	}
	if s.Events != nil {
		s.Events.PublishProductEvent(ctx, ProductDeleted, p)
	}
	return nil
}

// IsNotFound reports whether err is one of the repository not-found errors.
func IsNotFound(err error) bool {
	for _, target := range []error{
		repository.ErrProductNotFound,
		repository.ErrCategoryNotFound,
		repository.ErrBrandNotFound,
		repository.ErrCityNotFound,
		repository.ErrWarehouseNotFound,
		repository.ErrStockNotFound,
		repository.ErrEdgeNotFound,
		repository.ErrDiscountNotFound,
		repository.ErrReviewNotFound,
		repository.ErrTagNotFound,
		repository.ErrDescriptionNotFound,
		repository.ErrBlogNotFound,
		repository.ErrBannerNotFound,
		repository.ErrServiceNotFound,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
