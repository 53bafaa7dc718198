package services

import (
	"context"
	"encoding/json"
	"errors"
	"sort"
	"strings"

	"catalog-service/internal/clients"
	"catalog-service/internal/models"
	"catalog-service/internal/repository"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

var ErrOrderNotFound = errors.New("order not found")

// OrderService proxies orders to the basket service and resolves baskets
// against the catalog.
type OrderService struct {
	basket   clients.BasketClient
	products ProductService
	stocks   *repository.StockRepository
	logger   *logrus.Entry
}

func NewOrderService(basket clients.BasketClient, products ProductService, stocks *repository.StockRepository, logger *logrus.Logger) *OrderService {
	return &OrderService{
		basket:   basket,
		products: products,
		stocks:   stocks,
		logger:   logger.WithField("component", "order_service"),
	}
}

func (s *OrderService) List(ctx context.Context, page, size int) (*models.OrderPage, error) {
	return s.basket.ListOrders(ctx, page, size)
}

// Get returns the order or nil when the basket service has none.
func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	return s.basket.GetOrder(ctx, id)
}

func (s *OrderService) Archive(ctx context.Context, managerID string, page, size int) (*models.OrderPage, error) {
	return s.basket.ManagerArchive(ctx, managerID, page, size)
}

// Update forwards the change. Orders still lacking a payment account
// number get a freshly generated one.
func (s *OrderService) Update(ctx context.Context, id uuid.UUID, req *models.UpdateOrderRequest) (int, json.RawMessage, error) {
	if req.AccountNumber == nil {
		order, err := s.basket.GetOrder(ctx, id)
		if err != nil {
			return 0, nil, err
		}
		if order != nil && strings.TrimSpace(order.AccountNumber) == "" {
			number := clients.NewAccountNumber()
			req.AccountNumber = &number
		}
	}
	return s.basket.UpdateOrder(ctx, id, req)
}

// BasketSummary prices the basket of an order in its shipping city.
// Repeated items count as quantity; unknown products are skipped.
func (s *OrderService) BasketSummary(ctx context.Context, id uuid.UUID, lang string) (*models.BasketSummary, error) {
	order, err := s.basket.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	return s.summarize(ctx, order, lang)
}

func (s *OrderService) summarize(ctx context.Context, order *models.Order, lang string) (*models.BasketSummary, error) {
	summary := &models.BasketSummary{
		OrderUUID: order.UUID,
		City:      order.ShippingCity,
		Items:     []models.BasketLine{},
		Total:     decimal.Zero,
	}
	if order.Basket == nil {
		return summary, nil
	}

	var cityID *uuid.UUID
	if order.ShippingCity != "" {
		city, err := s.stocks.GetCityByName(ctx, order.ShippingCity)
		switch {
		case err == nil:
			cityID = &city.ID
		case errors.Is(err, repository.ErrCityNotFound):
			s.logger.WithField("city", order.ShippingCity).Warn("Order shipping city is not in the catalog")
		default:
			return nil, err
		}
	}

	items, err := s.lines(ctx, order.Basket.Items, lang, cityID)
	if err != nil {
		return nil, err
	}
	gifts, err := s.lines(ctx, order.Basket.GiftItems, lang, cityID)
	if err != nil {
		return nil, err
	}
	for i := range gifts {
		gifts[i].Price = decimal.Zero
		gifts[i].LineTotal = decimal.Zero
	}
	summary.Items = items
	summary.Gifts = gifts
	for _, line := range items {
		summary.Total = summary.Total.Add(line.LineTotal)
	}
	return summary, nil
}

func (s *OrderService) lines(ctx context.Context, raw []string, lang string, cityID *uuid.UUID) ([]models.BasketLine, error) {
	counts := CountItems(raw)
	if len(counts) == 0 {
		return []models.BasketLine{}, nil
	}
	ids := make([]uuid.UUID, 0, len(counts))
	for id := range counts {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })

	products, err := s.products.ByIDs(ctx, ids, lang, cityID)
	if err != nil {
		return nil, err
	}
	lines := make([]models.BasketLine, 0, len(products))
	for _, p := range products {
		count := counts[p.ID]
		line := models.BasketLine{ProductID: p.ID, Name: p.Name, Count: count, Price: decimal.Zero, LineTotal: decimal.Zero}
		if p.Price != nil {
			line.Available = true
			line.Price = *p.Price
			line.LineTotal = p.Price.Mul(decimal.NewFromInt(int64(count)))
		}
		lines = append(lines, line)
	}
	sort.Slice(lines, func(i, j int) bool { return lines[i].Name < lines[j].Name })
	return lines, nil
}

// CountItems counts repeated product IDs. Invalid IDs are ignored.
func CountItems(raw []string) map[uuid.UUID]int {
	counts := make(map[uuid.UUID]int)
	for _, item := range raw {
		id, err := uuid.Parse(strings.TrimSpace(item))
		if err != nil {
			continue
		}
		counts[id]++
	}
	return counts
}

// Invoice renders the basket summary of an order as a PDF.
func (s *OrderService) Invoice(ctx context.Context, id uuid.UUID, lang string) ([]byte, error) {
	order, err := s.basket.GetOrder(ctx, id)
	if err != nil {
		return nil, err
	}
	if order == nil {
		return nil, ErrOrderNotFound
	}
	summary, err := s.summarize(ctx, order, lang)
	if err != nil {
		return nil, err
	}
	return GenerateInvoicePDF(order, summary)
}
