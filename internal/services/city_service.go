package services

import (
	"context"
	"time"

	"catalog-service/internal/models"
	"catalog-service/internal/repository"
)

// CityService computes storefront city availability
type CityService struct {
	stocks   *repository.StockRepository
	products *repository.ProductsRepository
	now      func() time.Time
}

func NewCityService(stocks *repository.StockRepository, products *repository.ProductsRepository) *CityService {
	return &CityService{stocks: stocks, products: products, now: time.Now}
}

// Stats lists every city with the number of products and units available
// there, counting edge-derived availability.
func (s *CityService) Stats(ctx context.Context) ([]models.CityStats, error) {
	if stats, ok := s.stocks.CachedCityStats(ctx); ok {
		return stats, nil
	}
	now := s.now()
	cities, err := s.stocks.Cities(ctx)
	if err != nil {
		return nil, err
	}
	stocks, err := s.stocks.InStock(ctx)
	if err != nil {
		return nil, err
	}
	edges, err := s.stocks.ActiveEdges(ctx, now)
	if err != nil {
		return nil, err
	}
	scopes, err := s.products.AllScopes(ctx)
	if err != nil {
		return nil, err
	}
	stats := CityAvailability(cities, stocks, edges, scopes, now)
	s.stocks.CacheCityStats(ctx, stats)
	return stats, nil
}
