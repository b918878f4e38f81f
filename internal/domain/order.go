package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type OrderItem struct {
	ProductID string          `json:"product"`
	Name      string          `json:"name"`
	Image     string          `json:"image"`
	Quantity  int             `json:"qty"`
	Price     decimal.Decimal `json:"price"`
}

type ShippingAddress struct {
	Address    string `json:"address"`
	City       string `json:"city"`
	PostalCode string `json:"postalCode"`
	Country    string `json:"country"`
}

// PaymentResult is the receipt reported by the payment provider. It is stored as received.
type PaymentResult struct {
	ID           string `json:"id"`
	Status       string `json:"status"`
	UpdateTime   string `json:"update_time"`
	EmailAddress string `json:"email_address"`
}

type Prices struct {
	ItemsPrice    decimal.Decimal `json:"itemsPrice"`
	ShippingPrice decimal.Decimal `json:"shippingPrice"`
	TaxPrice      decimal.Decimal `json:"taxPrice"`
	TotalPrice    decimal.Decimal `json:"totalPrice"`
}

// OrderOwner is the account an order belongs to, as joined at read time.
type OrderOwner struct {
	ID    string `json:"_id"`
	Name  string `json:"name,omitempty"`
	Email string `json:"email,omitempty"`
}

// Order is a checkout snapshot. PaidAt is set iff IsPaid, DeliveredAt iff IsDelivered,
// and neither flag goes back to false once set.
type Order struct {
	ID              string          `json:"_id"`
	User            OrderOwner      `json:"user"`
	Items           []OrderItem     `json:"orderItems"`
	ShippingAddress ShippingAddress `json:"shippingAddress"`
	PaymentMethod   string          `json:"paymentMethod"`
	Prices
	IsPaid        bool           `json:"isPaid"`
	PaidAt        *time.Time     `json:"paidAt"`
	PaymentResult *PaymentResult `json:"paymentResult,omitempty"`
	IsDelivered   bool           `json:"isDelivered"`
	DeliveredAt   *time.Time     `json:"deliveredAt"`
	CreatedAt     time.Time      `json:"createdAt"`
	UpdatedAt     time.Time      `json:"updatedAt"`
}

func (o Order) OwnedBy(accountID string) bool {
	return o.User.ID == accountID
}

// NewOrder is the checkout payload used to create an Order.
type NewOrder struct {
	Items           []OrderItem
	ShippingAddress ShippingAddress
	PaymentMethod   string
	Prices          Prices
}
