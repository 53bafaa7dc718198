package services

import (
	"sort"
	"time"

	"catalog-service/internal/models"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

const deliveryDateLayout = "2006-01-02"

// BuildCityOffers groups the stock rows of one product by city and adds
// edge-derived offers for cities without physical stock.
//
// An edge yields an offer in CityTo when it is valid at now, covers the
// product scope and CityFrom holds the product in stock. The offer is priced
// from the cheapest in-stock row of CityFrom (discounted) plus the
// transportation cost. When several edges reach the same city the cheapest
// offer wins, then the fastest.
func BuildCityOffers(scope models.ProductScope, stocks []models.Stock, edges []models.Edge, idx *DiscountIndex, now time.Time) []models.CityOffers {
	byCity := make(map[uuid.UUID]*models.CityOffers)
	inStock := make(map[uuid.UUID]int)
	cheapest := make(map[uuid.UUID]*models.Stock)

	for i := range stocks {
		s := &stocks[i]
		if s.Warehouse == nil {
			continue
		}
		cityID := s.Warehouse.CityID
		group := cityGroup(byCity, cityID, cityName(s.Warehouse.City))
		quote := idx.Quote(scope, s.Price)
		stockID := s.ID
		group.Offers = append(group.Offers, models.StockOffer{
			StockID:             &stockID,
			CityID:              cityID,
			CityName:            group.CityName,
			WarehouseID:         s.WarehouseID,
			WarehouseName:       s.Warehouse.Name,
			Quantity:            s.Quantity,
			Price:               quote.Price,
			PriceBeforeDiscount: quote.PriceBeforeDiscount,
			Source:              models.StockSourceWarehouse,
		})
		if s.Quantity > 0 {
			inStock[cityID] += s.Quantity
			if c, ok := cheapest[cityID]; !ok || s.Price.LessThan(c.Price) {
				cheapest[cityID] = s
			}
		}
	}

	derived := make(map[uuid.UUID]models.StockOffer)
	for i := range edges {
		e := &edges[i]
		if !e.IsValid(now) || !e.Matches(scope) {
			continue
		}
		if e.CityFromID == e.CityToID || inStock[e.CityToID] > 0 {
			continue
		}
		source, ok := cheapest[e.CityFromID]
		if !ok {
			continue
		}
		offer := edgeOffer(scope, source, e, idx, now)
		if current, ok := derived[e.CityToID]; ok && !betterOffer(offer, current) {
			continue
		}
		derived[e.CityToID] = offer
	}

	for cityID, offer := range derived {
		group := cityGroup(byCity, cityID, offer.CityName)
		group.Offers = append(group.Offers, offer)
	}

	result := make([]models.CityOffers, 0, len(byCity))
	for _, group := range byCity {
		finalizeGroup(group)
		result = append(result, *group)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CityName == result[j].CityName {
			return result[i].CityID.String() < result[j].CityID.String()
		}
		return result[i].CityName < result[j].CityName
	})
	return result
}

// OffersInCity returns the offers of a single city, or nil.
func OffersInCity(groups []models.CityOffers, cityID uuid.UUID) *models.CityOffers {
	for i := range groups {
		if groups[i].CityID == cityID {
			return &groups[i]
		}
	}
	return nil
}

// BestOffer returns the cheapest in-stock offer of a city group.
func BestOffer(group *models.CityOffers) *models.StockOffer {
	if group == nil {
		return nil
	}
	var best *models.StockOffer
	for i := range group.Offers {
		o := &group.Offers[i]
		if o.Quantity <= 0 {
			continue
		}
		if best == nil || o.Price.LessThan(best.Price) {
			best = o
		}
	}
	return best
}

func edgeOffer(scope models.ProductScope, source *models.Stock, e *models.Edge, idx *DiscountIndex, now time.Time) models.StockOffer {
	quote := idx.Quote(scope, source.Price)
	price := quote.Price.Add(e.TransportationCost)
	var before *decimal.Decimal
	if quote.PriceBeforeDiscount != nil {
		b := quote.PriceBeforeDiscount.Add(e.TransportationCost)
		before = &b
	}
	cost := e.TransportationCost
	edgeID := e.ID
	fromCityID := e.CityFromID
	return models.StockOffer{
		CityID:                e.CityToID,
		CityName:              cityName(e.CityTo),
		WarehouseID:           source.WarehouseID,
		WarehouseName:         source.Warehouse.Name,
		Quantity:              source.Quantity,
		Price:                 price,
		PriceBeforeDiscount:   before,
		Source:                models.StockSourceEdge,
		EdgeID:                &edgeID,
		FromCityID:            &fromCityID,
		TransportationCost:    &cost,
		EstimatedDeliveryDays: e.EstimatedDeliveryDays,
		EstimatedDeliveryDate: EstimatedDeliveryDate(now, e.EstimatedDeliveryDays),
	}
}

// EstimatedDeliveryDate is today plus days, formatted as a date.
func EstimatedDeliveryDate(now time.Time, days int) string {
	return now.AddDate(0, 0, days).Format(deliveryDateLayout)
}

func betterOffer(a, b models.StockOffer) bool {
	if !a.Price.Equal(b.Price) {
		return a.Price.LessThan(b.Price)
	}
	return a.EstimatedDeliveryDays < b.EstimatedDeliveryDays
}

func cityGroup(byCity map[uuid.UUID]*models.CityOffers, cityID uuid.UUID, name string) *models.CityOffers {
	group, ok := byCity[cityID]
	if !ok {
		group = &models.CityOffers{CityID: cityID, CityName: name}
		byCity[cityID] = group
	}
	if group.CityName == "" {
		group.CityName = name
	}
	return group
}

func finalizeGroup(group *models.CityOffers) {
	sort.SliceStable(group.Offers, func(i, j int) bool {
		return group.Offers[i].Price.LessThan(group.Offers[j].Price)
	})
	group.TotalQuantity = 0
	var minPrice *decimal.Decimal
	for i := range group.Offers {
		o := group.Offers[i]
		group.TotalQuantity += o.Quantity
		if o.Quantity <= 0 {
			continue
		}
		if minPrice == nil || o.Price.LessThan(*minPrice) {
			p := o.Price
			minPrice = &p
		}
	}
	if minPrice == nil && len(group.Offers) > 0 {
		p := group.Offers[0].Price
		minPrice = &p
	}
	if minPrice != nil {
		group.MinPrice = *minPrice
	}
}

func cityName(c *models.City) string {
	if c == nil {
		return ""
	}
	return c.Name
}
