package clients

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"golang.org/x/time/rate"
)

// ETLAvailability is the stock of an ERP product in one store
type ETLAvailability struct {
	StoreID    string          `json:"storeId"`
	Available  string          `json:"available"`
	StockCount int             `json:"stockCount"`
	Price      decimal.Decimal `json:"price"`
}

// Quantity is the stock count when the store reports the product available.
func (a ETLAvailability) Quantity() int {
	if !strings.EqualFold(a.Available, "yes") || a.StockCount < 0 {
		return 0
	}
	return a.StockCount
}

// ETLProduct is a product record of the ERP feed
type ETLProduct struct {
	SKU            string            `json:"sku"`
	Model          string            `json:"model"`
	Brand          string            `json:"brand"`
	Images         []string          `json:"images"`
	Availabilities []ETLAvailability `json:"availabilities"`
}

// ETLClient fetches new and changed products from the ERP sync service
type ETLClient struct {
	baseURL     string
	httpClient  *http.Client
	rateLimiter *rate.Limiter
}

// NewETLClient creates a client limited to rps requests per second
func NewETLClient(baseURL string, rps float64) *ETLClient {
	if rps <= 0 {
		rps = 2
	}
	return &ETLClient{
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		httpClient:  &http.Client{Timeout: 30 * time.Second},
		rateLimiter: rate.NewLimiter(rate.Limit(rps), 1),
	}
}

// ProductsForCreate returns products the catalog does not know yet
func (c *ETLClient) ProductsForCreate(ctx context.Context) ([]ETLProduct, error) {
	return c.fetch(ctx, "/products/get_for_create")
}

// ProductsForUpdate returns products changed since the last sync
func (c *ETLClient) ProductsForUpdate(ctx context.Context) ([]ETLProduct, error) {
	return c.fetch(ctx, "/products/get_for_update")
}

func (c *ETLClient) fetch(ctx context.Context, path string) ([]ETLProduct, error) {
	if err := c.rateLimiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("ETL API error (status %d): %s", resp.StatusCode, string(body))
	}

	var products []ETLProduct
	if err := json.Unmarshal(body, &products); err != nil {
		return nil, fmt.Errorf("failed to parse products response: %w", err)
	}
	return products, nil
}
