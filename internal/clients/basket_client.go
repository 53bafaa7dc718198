package clients

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"catalog-service/internal/models"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

// ErrUpstream is returned when the basket service cannot be reached
var ErrUpstream = errors.New("basket service unavailable")

// BasketClient handles communication with the basket service, which owns
// orders and baskets. Non-200 responses are logged and yield empty results.
type BasketClient interface {
	ListOrders(ctx context.Context, page, size int) (*models.OrderPage, error)
	GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error)
	UpdateOrder(ctx context.Context, id uuid.UUID, req *models.UpdateOrderRequest) (int, json.RawMessage, error)
	ManagerArchive(ctx context.Context, managerID string, page, size int) (*models.OrderPage, error)
}

type basketClient struct {
	baseURL    string
	httpClient *http.Client
	logger     *logrus.Entry
}

// NewBasketClient creates a new basket service client
func NewBasketClient(baseURL string, timeout time.Duration, logger *logrus.Logger) BasketClient {
	if baseURL == "" {
		baseURL = "http://basket-service:8000"
	}
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &basketClient{
		baseURL: strings.TrimSuffix(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		logger: logger.WithField("component", "basket_client"),
	}
}

func pageQuery(page, size int) string {
	q := url.Values{}
	q.Set("page", fmt.Sprint(page))
	q.Set("size", fmt.Sprint(size))
	return q.Encode()
}

// ListOrders returns one page of orders
func (c *basketClient) ListOrders(ctx context.Context, page, size int) (*models.OrderPage, error) {
	var result models.OrderPage
	ok, err := c.get(ctx, fmt.Sprintf("%s/api/v1/orders?%s", c.baseURL, pageQuery(page, size)), &result)
	if err != nil || !ok {
		return emptyPage(), err
	}
	if result.Results == nil {
		result.Results = []models.Order{}
	}
	return &result, nil
}

// GetOrder returns the order with its basket, or nil when the basket
// service does not answer with 200.
func (c *basketClient) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var result models.Order
	ok, err := c.get(ctx, fmt.Sprintf("%s/api/v1/orders/%s", c.baseURL, id), &result)
	if err != nil || !ok {
		return nil, err
	}
	return &result, nil
}

// ManagerArchive returns the archived orders of a manager
func (c *basketClient) ManagerArchive(ctx context.Context, managerID string, page, size int) (*models.OrderPage, error) {
	endpoint := fmt.Sprintf("%s/api/v1/orders/archive/%s?%s", c.baseURL, url.PathEscape(managerID), pageQuery(page, size))
	var result models.OrderPage
	ok, err := c.get(ctx, endpoint, &result)
	if err != nil || !ok {
		return emptyPage(), err
	}
	if result.Results == nil {
		result.Results = []models.Order{}
	}
	return &result, nil
}

// UpdateOrder forwards a PATCH and returns the upstream status and body.
func (c *basketClient) UpdateOrder(ctx context.Context, id uuid.UUID, req *models.UpdateOrderRequest) (int, json.RawMessage, error) {
	body, err := json.Marshal(req)
	if err != nil {
		return 0, nil, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPatch, fmt.Sprintf("%s/api/v1/orders/%s", c.baseURL, id), bytes.NewReader(body))
	if err != nil {
		return 0, nil, err
	}
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(httpReq)
	if err != nil {
		c.logger.WithError(err).WithField("order_uuid", id).Error("Basket service request failed")
		return 0, nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return resp.StatusCode, nil, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	if !json.Valid(data) {
		data = []byte("{}")
	}
	if resp.StatusCode != http.StatusOK {
		c.logger.WithFields(logrus.Fields{
			"order_uuid": id,
			"status":     resp.StatusCode,
		}).Warn("Basket service rejected order update")
	}
	return resp.StatusCode, json.RawMessage(data), nil
}

// get decodes a 200 response into dest. It reports false for other statuses.
func (c *basketClient) get(ctx context.Context, endpoint string, dest interface{}) (bool, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return false, err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.WithError(err).WithField("url", endpoint).Error("Basket service request failed")
		return false, fmt.Errorf("%w: %v", ErrUpstream, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.logger.WithFields(logrus.Fields{
			"url":    endpoint,
			"status": resp.StatusCode,
			"body":   string(body),
		}).Warn("Basket service returned non-200 response")
		return false, nil
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		c.logger.WithError(err).WithField("url", endpoint).Warn("Failed to decode basket service response")
		return false, nil
	}
	return true, nil
}

func emptyPage() *models.OrderPage {
	return &models.OrderPage{Results: []models.Order{}}
}
