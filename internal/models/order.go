package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Orders and baskets live in the basket service; these types mirror its payloads.

type PaymentType string

const (
	PaymentTypeOnline  PaymentType = "ONLINE"
	PaymentTypeOffline PaymentType = "OFFLINE"
)

type OrderStatus string

const (
	OrderStatusNew       OrderStatus = "NEW"
	OrderStatusInWork    OrderStatus = "INWORK"
	OrderStatusCompleted OrderStatus = "COMPLITED"
	OrderStatusCanceled  OrderStatus = "CANCELED"
)

type PaymentStatus string

const (
	PaymentStatusPaid   PaymentStatus = "PAID"
	PaymentStatusUnpaid PaymentStatus = "UNPAID"
)

type DeliveryType string

const (
	DeliveryTypePickup   DeliveryType = "PICKUP"
	DeliveryTypeDelivery DeliveryType = "DELIVERY"
)

type CheckoutStage string

const (
	CheckoutStageCreated    CheckoutStage = "created"
	CheckoutStageInProgress CheckoutStage = "in_progress"
)

// Basket is a user's cart. Items hold product IDs; repeats mean quantity.
type Basket struct {
	UUID          uuid.UUID     `json:"uuid_id"`
	UserID        string        `json:"user_id"`
	Completed     bool          `json:"completed"`
	CheckoutStage CheckoutStage `json:"checkout_stage"`
	Items         []string      `json:"basket_items"`
	GiftItems     []string      `json:"gift_items"`
}

type Order struct {
	UUID            uuid.UUID       `json:"uuid_id"`
	UserFullName    string          `json:"user_full_name"`
	UserID          string          `json:"user_id"`
	TotalAmount     decimal.Decimal `json:"total_amount"`
	AccountNumber   string          `json:"account_number"`
	PaymentType     PaymentType     `json:"payment_type"`
	OrderStatus     OrderStatus     `json:"order_status"`
	PaymentStatus   PaymentStatus   `json:"payment_status"`
	Comment         string          `json:"comment"`
	Phone           string          `json:"phone"`
	Email           string          `json:"email"`
	ShippingCity    string          `json:"shipping_city"`
	DeliveryAddress string          `json:"delivery_address"`
	DeliveryType    DeliveryType    `json:"delivery_type"`
	Manager         string          `json:"manager"`
	Basket          *Basket         `json:"basket,omitempty"`
	CreatedAt       string          `json:"created_at,omitempty"`
}

// OrderPage is one page of the basket service order list
type OrderPage struct {
	Count    int     `json:"count"`
	Next     *string `json:"next"`
	Previous *string `json:"previous"`
	Results  []Order `json:"results"`
}

// UpdateOrderRequest is forwarded as a PATCH; nil fields are omitted
type UpdateOrderRequest struct {
	OrderStatus     *OrderStatus   `json:"order_status,omitempty" binding:"omitempty,oneof=NEW INWORK COMPLITED CANCELED"`
	PaymentStatus   *PaymentStatus `json:"payment_status,omitempty" binding:"omitempty,oneof=PAID UNPAID"`
	PaymentType     *PaymentType   `json:"payment_type,omitempty" binding:"omitempty,oneof=ONLINE OFFLINE"`
	DeliveryType    *DeliveryType  `json:"delivery_type,omitempty" binding:"omitempty,oneof=PICKUP DELIVERY"`
	Comment         *string        `json:"comment,omitempty"`
	Phone           *string        `json:"phone,omitempty"`
	Email           *string        `json:"email,omitempty" binding:"omitempty,email"`
	ShippingCity    *string        `json:"shipping_city,omitempty"`
	DeliveryAddress *string        `json:"delivery_address,omitempty"`
	Manager         *string        `json:"manager,omitempty"`
	AccountNumber   *string        `json:"account_number,omitempty"`
}

// BasketLine is one product of a basket with its count and price
type BasketLine struct {
	ProductID uuid.UUID       `json:"productId"`
	Name      string          `json:"name"`
	Count     int             `json:"count"`
	Price     decimal.Decimal `json:"price"`
	LineTotal decimal.Decimal `json:"lineTotal"`
	Available bool            `json:"available"`
}

// BasketSummary resolves a basket against the catalog in the order city
type BasketSummary struct {
	OrderUUID uuid.UUID       `json:"orderUuid"`
	City      string          `json:"city"`
	Items     []BasketLine    `json:"items"`
	Gifts     []BasketLine    `json:"gifts,omitempty"`
	Total     decimal.Decimal `json:"total"`
}
