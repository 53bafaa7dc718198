package handlers

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"catalog-service/internal/middleware"
	"catalog-service/internal/models"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
)

const (
	defaultOrderPageSize = 20
	maxOrderPageSize     = 100
)

// OrderProxy is the order surface backed by the basket service
type OrderProxy interface {
	List(ctx context.Context, page, size int) (*models.OrderPage, error)
	Get(ctx context.Context, id uuid.UUID) (*models.Order, error)
	Archive(ctx context.Context, managerID string, page, size int) (*models.OrderPage, error)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdateOrderRequest) (int, json.RawMessage, error)
	BasketSummary(ctx context.Context, id uuid.UUID, lang string) (*models.BasketSummary, error)
	Invoice(ctx context.Context, id uuid.UUID, lang string) ([]byte, error)
}

type OrdersHandler struct {
	orders OrderProxy
	logger *logrus.Entry
}

func NewOrdersHandler(orders OrderProxy, logger *logrus.Logger) *OrdersHandler {
	return &OrdersHandler{
		orders: orders,
		logger: logger.WithField("component", "orders_handler"),
	}
}

func orderPage(c *gin.Context) (int, int) {
	page, err := strconv.Atoi(c.Query("page"))
	if err != nil || page < 1 {
		page = 1
	}
	size, err := strconv.Atoi(c.Query("page_size"))
	if err != nil || size <= 0 {
		size = defaultOrderPageSize
	}
	if size > maxOrderPageSize {
		size = maxOrderPageSize
	}
	return page, size
}

// GET /api/v1/admin/orders
func (h *OrdersHandler) GetOrders(c *gin.Context) {
	page, size := orderPage(c)
	orders, err := h.orders.List(c.Request.Context(), page, size)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, orders)
}

// GET /api/v1/admin/orders/:id
func (h *OrdersHandler) GetOrder(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	order, err := h.orders.Get(c.Request.Context(), id)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	// the upstream answers non-200 for unknown orders; that is relayed as empty
	if order == nil {
		dataResponse(c, http.StatusOK, gin.H{})
		return
	}
	dataResponse(c, http.StatusOK, order)
}

// GetArchive lists the orders handled by the calling manager
// GET /api/v1/admin/orders/archive
func (h *OrdersHandler) GetArchive(c *gin.Context) {
	managerID := middleware.GetUserID(c)
	if managerID == "" {
		errorResponse(c, http.StatusUnauthorized, "UNAUTHORIZED", "Manager identity is required")
		return
	}
	page, size := orderPage(c)
	orders, err := h.orders.Archive(c.Request.Context(), managerID, page, size)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, orders)
}

// UpdateOrder forwards the change and relays the basket service's status and body
// PATCH /api/v1/admin/orders/:id
func (h *OrdersHandler) UpdateOrder(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	var req models.UpdateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		validationError(c, err)
		return
	}
	status, body, err := h.orders.Update(c.Request.Context(), id, &req)
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	if len(body) == 0 {
		c.Status(status)
		return
	}
	c.Data(status, "application/json; charset=utf-8", body)
}

// GetBasketSummary prices the order's basket in its shipping city
// GET /api/v1/admin/orders/:id/basket-summary
func (h *OrdersHandler) GetBasketSummary(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	summary, err := h.orders.BasketSummary(c.Request.Context(), id, middleware.GetLanguage(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	dataResponse(c, http.StatusOK, summary)
}

// GET /api/v1/admin/orders/:id/invoice.pdf
func (h *OrdersHandler) GetInvoice(c *gin.Context) {
	id, ok := uuidParam(c, "id")
	if !ok {
		return
	}
	pdf, err := h.orders.Invoice(c.Request.Context(), id, middleware.GetLanguage(c))
	if err != nil {
		respondError(c, h.logger, err)
		return
	}
	c.Header("Content-Disposition", fmt.Sprintf("inline; filename=invoice-%s.pdf", id))
	c.Data(http.StatusOK, "application/pdf", pdf)
}
