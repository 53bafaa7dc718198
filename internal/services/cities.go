package services

import (
	"sort"
	"time"

	"catalog-service/internal/models"
	"github.com/google/uuid"
)

// CityAvailability counts, per city, the distinct products available there
// and their total quantity. Edge-derived availability is counted the same
// way BuildCityOffers derives it.
func CityAvailability(cities []models.City, stocks []models.Stock, edges []models.Edge, scopes map[uuid.UUID]models.ProductScope, now time.Time) []models.CityStats {
	byProduct := make(map[uuid.UUID][]models.Stock)
	for _, s := range stocks {
		byProduct[s.ProductID] = append(byProduct[s.ProductID], s)
	}

	products := make(map[uuid.UUID]int)
	quantity := make(map[uuid.UUID]int)
	for productID, rows := range byProduct {
		scope, ok := scopes[productID]
		if !ok {
			scope = models.ProductScope{ProductID: productID}
		}
		for _, group := range BuildCityOffers(scope, rows, edges, nil, now) {
			if group.TotalQuantity <= 0 {
				continue
			}
			products[group.CityID]++
			quantity[group.CityID] += group.TotalQuantity
		}
	}

	result := make([]models.CityStats, 0, len(cities))
	for _, c := range cities {
		result = append(result, models.CityStats{
			ID:            c.ID,
			Name:          c.Name,
			Translations:  c.Translations,
			TotalProducts: products[c.ID],
			TotalQuantity: quantity[c.ID],
		})
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result
}
