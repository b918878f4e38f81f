// Package orders tracks orders from checkout through payment and delivery.
package orders

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/shopspring/decimal"

	"github.com/joao-fontenele/meyshop/internal/apperror"
	"github.com/joao-fontenele/meyshop/internal/domain"
	"github.com/joao-fontenele/meyshop/internal/telemetry"
)

// Repository is the order storage the service needs. OrderRepository implements it.
type Repository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id string) (domain.Order, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Order, error)
	List(ctx context.Context) ([]domain.Order, error)
	MarkPaid(ctx context.Context, id string, receipt domain.PaymentResult, at time.Time) (domain.Order, error)
	MarkDelivered(ctx context.Context, id string, at time.Time) (domain.Order, error)
}

// EventPublisher receives order lifecycle events. messaging.Producer implements it.
type EventPublisher interface {
	PublishOrderEvent(ctx context.Context, event domain.OrderEvent) error
}

type Service struct {
	repo    Repository
	events  EventPublisher
	metrics *telemetry.ShopMetrics
	logger  *slog.Logger
	now     func() time.Time
}

// NewService builds the order service. events and metrics may be nil.
func NewService(repo Repository, events EventPublisher, metrics *telemetry.ShopMetrics, logger *slog.Logger) *Service {
	return &Service{
		repo:    repo,
		events:  events,
		metrics: metrics,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// Create stores a new unpaid, undelivered order for owner. Price components are kept as
// the caller computed them.
func (s *Service) Create(ctx context.Context, owner domain.Account, in domain.NewOrder) (domain.Order, error) {
	if err := validateNewOrder(in); err != nil {
		return domain.Order{}, err
	}

	order := domain.Order{
		User:            domain.OrderOwner{ID: owner.ID, Name: owner.Name, Email: owner.Email},
		Items:           in.Items,
		ShippingAddress: in.ShippingAddress,
		PaymentMethod:   in.PaymentMethod,
		Prices:          in.Prices,
	}

	if err := s.repo.Create(ctx, &order); err != nil {
		return domain.Order{}, err
	}

	s.logger.InfoContext(ctx, "order created",
		"order_id", order.ID, "account_id", owner.ID, "items", len(order.Items), "total", order.TotalPrice.String())
	s.transitioned(ctx, domain.OrderEventCreated, order)

	return order, nil
}

// Get returns the order if actor owns it or is an administrator.
func (s *Service) Get(ctx context.Context, actor domain.Account, id string) (domain.Order, error) {
	order, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return domain.Order{}, err
	}

	if !order.OwnedBy(actor.ID) && !actor.Role.IsAdmin() {
		return domain.Order{}, apperror.Forbidden("not authorized to access this order")
	}

	return order, nil
}

func (s *Service) ListMine(ctx context.Context, actor domain.Account) ([]domain.Order, error) {
	return s.repo.ListByOwner(ctx, actor.ID)
}

// ListAll returns every order. The route is restricted to administrators.
func (s *Service) ListAll(ctx context.Context) ([]domain.Order, error) {
	return s.repo.List(ctx)
}

// MarkPaid records the payment receipt. The receipt is trusted as given; only the owner or
// an administrator may report it.
func (s *Service) MarkPaid(ctx context.Context, actor domain.Account, id string, receipt domain.PaymentResult) (domain.Order, error) {
	if _, err := s.Get(ctx, actor, id); err != nil {
		return domain.Order{}, err
	}

	order, err := s.repo.MarkPaid(ctx, id, receipt, s.now())
	if err != nil {
		return domain.Order{}, err
	}

	s.logger.InfoContext(ctx, "order paid", "order_id", order.ID, "account_id", actor.ID, "payment_id", receipt.ID)
	s.transitioned(ctx, domain.OrderEventPaid, order)

	return order, nil
}

// MarkDelivered flags the order delivered. The route is restricted to administrators.
func (s *Service) MarkDelivered(ctx context.Context, id string) (domain.Order, error) {
	order, err := s.repo.MarkDelivered(ctx, id, s.now())
	if err != nil {
		return domain.Order{}, err
	}

	s.logger.InfoContext(ctx, "order delivered", "order_id", order.ID)
	s.transitioned(ctx, domain.OrderEventDelivered, order)

	return order, nil
}

// transitioned records the metric and publishes the event. A failed publish never fails
// the transition that already happened.
func (s *Service) transitioned(ctx context.Context, eventType domain.OrderEventType, order domain.Order) {
	s.metrics.RecordTransition(ctx, string(eventType))

	if s.events == nil {
		return
	}

	event := domain.NewOrderEvent(eventType, order, s.now())
	if err := s.events.PublishOrderEvent(ctx, event); err != nil {
		s.logger.ErrorContext(ctx, "failed to publish order event",
			"error", err, "order_id", order.ID, "event_type", eventType)
	}
}

// maxPrice is the first amount a NUMERIC(12,2) column cannot hold.
var maxPrice = decimal.New(1, 10)

func validateNewOrder(in domain.NewOrder) error {
	if len(in.Items) == 0 {
		return apperror.InvalidOrder("No order items")
	}

	for i, item := range in.Items {
		if item.Quantity <= 0 {
			return apperror.InvalidOrder(fmt.Sprintf("item %d: quantity must be positive", i+1))
		}
		if item.Quantity > math.MaxInt32 {
			return apperror.InvalidOrder(fmt.Sprintf("item %d: quantity is too large", i+1))
		}
		if err := validatePrice(fmt.Sprintf("item %d: price", i+1), item.Price); err != nil {
			return err
		}
	}

	p := in.Prices
	for _, c := range []struct {
		name  string
		value decimal.Decimal
	}{
		{"itemsPrice", p.ItemsPrice},
		{"shippingPrice", p.ShippingPrice},
		{"taxPrice", p.TaxPrice},
		{"totalPrice", p.TotalPrice},
	} {
		if err := validatePrice(c.name, c.value); err != nil {
			return err
		}
	}

	return nil
}

// validatePrice accepts amounts the orders schema stores without rounding.
func validatePrice(name string, v decimal.Decimal) error {
	switch {
	case v.IsNegative():
		return apperror.InvalidOrder(name + " must not be negative")
	case v.Exponent() < -2 && !v.Equal(v.Truncate(2)):
		return apperror.InvalidOrder(name + " must not have more than two decimal places")
	case v.GreaterThanOrEqual(maxPrice):
		return apperror.InvalidOrder(name + " is too large")
	}
	return nil
}
