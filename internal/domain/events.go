package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderEventType string

const (
	OrderEventCreated   OrderEventType = "order.created"
	OrderEventPaid      OrderEventType = "order.paid"
	OrderEventDelivered OrderEventType = "order.delivered"
)

type OrderEvent struct {
	Type       OrderEventType  `json:"type"`
	OrderID    string          `json:"order_id"`
	AccountID  string          `json:"account_id"`
	Name       string          `json:"name"`
	Email      string          `json:"email"`
	ItemCount  int             `json:"item_count"`
	TotalPrice decimal.Decimal `json:"total_price"`
	Timestamp  time.Time       `json:"timestamp"`
}

func NewOrderEvent(eventType OrderEventType, order Order, at time.Time) OrderEvent {
	return OrderEvent{
		Type:       eventType,
		OrderID:    order.ID,
		AccountID:  order.User.ID,
		Name:       order.User.Name,
		Email:      order.User.Email,
		ItemCount:  len(order.Items),
		TotalPrice: order.TotalPrice,
		Timestamp:  at,
	}
}
