package models

import (
	"time"

	"github.com/google/uuid"
)

type OrderStatus string

const (
	OrderStatusPending    OrderStatus = "pending"
	OrderStatusProcessing OrderStatus = "processing"
	OrderStatusShipped    OrderStatus = "shipped"
	OrderStatusDelivered  OrderStatus = "delivered"
	OrderStatusCancelled  OrderStatus = "cancelled"
)

const (
	PaymentMethodCOD      = "cod"
	PaymentMethodRazorpay = "razorpay"
)

// Fulfillment state machine. Delivered and cancelled are terminal.
var orderTransitions = map[OrderStatus][]OrderStatus{
	OrderStatusPending:    {OrderStatusProcessing, OrderStatusCancelled},
	OrderStatusProcessing: {OrderStatusShipped, OrderStatusCancelled},
	OrderStatusShipped:    {OrderStatusDelivered},
}

func (s OrderStatus) Valid() bool {
	switch s {
	case OrderStatusPending, OrderStatusProcessing, OrderStatusShipped, OrderStatusDelivered, OrderStatusCancelled:
		return true
	}

	return false
}

func (s OrderStatus) CanTransitionTo(next OrderStatus) bool {
	for _, allowed := range orderTransitions[s] {
		if allowed == next {
			return true
		}
	}

	return false
}

// OrderItem is a frozen snapshot of the product at purchase time.
type OrderItem struct {
	ProductID uuid.UUID `json:"productId"`
	Name      string    `json:"name"`
	Image     string    `json:"image"`
	Quantity  int       `json:"quantity"`
	Price     float64   `json:"price"`
}

type PaymentResult struct {
	IntentID      string `json:"intentId,omitempty"`
	TransactionID string `json:"transactionId,omitempty"`
	Signature     string `json:"signature,omitempty"`
}

type OrderCustomer struct {
	Name  string `json:"name"`
	Email string `json:"email"`
}

type Order struct {
	ID              uuid.UUID      `json:"id"`
	UserID          uuid.UUID      `json:"userId"`
	Items           []OrderItem    `json:"items"`
	ShippingAddress Address        `json:"shippingAddress"`
	PaymentMethod   string         `json:"paymentMethod"`
	PaymentResult   *PaymentResult `json:"paymentResult,omitempty"`
	TotalAmount     float64        `json:"totalAmount"`
	IsPaid          bool           `json:"isPaid"`
	PaidAt          *time.Time     `json:"paidAt,omitempty"`
	Status          OrderStatus    `json:"orderStatus"`
	IsDelivered     bool           `json:"isDelivered"`
	DeliveredAt     *time.Time     `json:"deliveredAt,omitempty"`
	Customer        *OrderCustomer `json:"userInfo,omitempty"` // populated on admin listings only
	CreatedAt       time.Time      `json:"created_at"`
	UpdatedAt       time.Time      `json:"updated_at"`
}

type CreateOrderRequest struct {
	ShippingAddress Address `json:"shippingAddress" validate:"required"`
}

type CreatePaymentIntentRequest struct {
	TotalAmount float64 `json:"totalAmount" validate:"required,gt=0"`
}

type PaymentIntentResponse struct {
	IntentID string  `json:"intentId"`
	Amount   int64   `json:"amount"` // smallest currency unit
	Currency string  `json:"currency"`
	KeyID    string  `json:"keyId"`
	Total    float64 `json:"totalAmount"`
}

type VerifyPaymentRequest struct {
	IntentID        string  `json:"intentId" validate:"required"`
	TransactionID   string  `json:"transactionId" validate:"required"`
	Signature       string  `json:"signature" validate:"required"`
	ShippingAddress Address `json:"shippingAddress" validate:"required"`
}

type UpdateOrderStatusRequest struct {
	Status OrderStatus `json:"status" validate:"required,oneof=pending processing shipped delivered cancelled"`
}
