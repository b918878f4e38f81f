package orders

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"

	"github.com/joao-fontenele/meyshop/internal/apperror"
	"github.com/joao-fontenele/meyshop/internal/domain"
)

const orderColumns = `
	o.id, o.user_id, COALESCE(u.name, ''), COALESCE(u.email, ''),
	o.shipping_address, o.shipping_city, o.shipping_postal_code, o.shipping_country,
	o.payment_method, o.items_price, o.shipping_price, o.tax_price, o.total_price,
	o.is_paid, o.paid_at, o.payment_id, o.payment_status, o.payment_update_time, o.payment_email_address,
	o.is_delivered, o.delivered_at, o.created_at, o.updated_at`

const orderFrom = `
	FROM orders o
	LEFT JOIN users u ON u.id = o.user_id`

type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create stores order and its items in one transaction and fills in the order ID and
// timestamps.
func (r *OrderRepository) Create(ctx context.Context, order *domain.Order) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	order.ID = uuid.New().String()

	err = tx.QueryRowContext(ctx, `
		INSERT INTO orders (
			id, user_id, shipping_address, shipping_city, shipping_postal_code, shipping_country,
			payment_method, items_price, shipping_price, tax_price, total_price
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)
		RETURNING created_at, updated_at
	`, order.ID, order.User.ID,
		order.ShippingAddress.Address, order.ShippingAddress.City,
		order.ShippingAddress.PostalCode, order.ShippingAddress.Country,
		order.PaymentMethod, order.ItemsPrice, order.ShippingPrice, order.TaxPrice, order.TotalPrice,
	).Scan(&order.CreatedAt, &order.UpdatedAt)
	if err != nil {
		return fmt.Errorf("insert order: %w", err)
	}

	for i, item := range order.Items {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO order_items (id, order_id, position, product_id, name, image, quantity, price)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		`, uuid.New().String(), order.ID, i, item.ProductID, item.Name, item.Image, item.Quantity, item.Price)
		if err != nil {
			return fmt.Errorf("insert order item: %w", err)
		}
	}

	return tx.Commit()
}

func (r *OrderRepository) GetByID(ctx context.Context, id string) (domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Order{}, apperror.NotFound("order not found")
	}

	order, err := scanOrder(r.db.QueryRowContext(ctx, `SELECT `+orderColumns+orderFrom+`
		WHERE o.id = $1
	`, id))
	if err != nil {
		return domain.Order{}, err
	}

	rows, err := r.db.QueryContext(ctx, `
		SELECT product_id, name, image, quantity, price
		FROM order_items
		WHERE order_id = $1
		ORDER BY position
	`, id)
	if err != nil {
		return domain.Order{}, fmt.Errorf("load order items: %w", err)
	}
	defer func() { _ = rows.Close() }()

	order.Items = []domain.OrderItem{}
	for rows.Next() {
		var item domain.OrderItem
		if err := rows.Scan(&item.ProductID, &item.Name, &item.Image, &item.Quantity, &item.Price); err != nil {
			return domain.Order{}, fmt.Errorf("scan order item: %w", err)
		}
		order.Items = append(order.Items, item)
	}

	if err := rows.Err(); err != nil {
		return domain.Order{}, fmt.Errorf("load order items: %w", err)
	}

	return order, nil
}

// ListByOwner returns the orders of one account, newest first.
func (r *OrderRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Order, error) {
	if _, err := uuid.Parse(ownerID); err != nil {
		return []domain.Order{}, nil
	}

	return r.list(ctx, `SELECT `+orderColumns+orderFrom+`
		WHERE o.user_id = $1
		ORDER BY o.created_at DESC
	`, ownerID)
}

// List returns every order, newest first.
func (r *OrderRepository) List(ctx context.Context) ([]domain.Order, error) {
	return r.list(ctx, `SELECT `+orderColumns+orderFrom+`
		ORDER BY o.created_at DESC
	`)
}

// list loads the orders matched by query and then all of their items with one extra query.
func (r *OrderRepository) list(ctx context.Context, query string, args ...any) ([]domain.Order, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}
	defer func() { _ = rows.Close() }()

	orderMap := make(map[string]*domain.Order)
	var orderIDs []string

	for rows.Next() {
		order, err := scanOrder(rows)
		if err != nil {
			return nil, err
		}
		order.Items = []domain.OrderItem{}
		orderMap[order.ID] = &order
		orderIDs = append(orderIDs, order.ID)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list orders: %w", err)
	}

	if len(orderIDs) == 0 {
		return []domain.Order{}, nil
	}

	itemRows, err := r.db.QueryContext(ctx, `
		SELECT order_id, product_id, name, image, quantity, price
		FROM order_items
		WHERE order_id = ANY($1)
		ORDER BY order_id, position
	`, pq.Array(orderIDs))
	if err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}
	defer func() { _ = itemRows.Close() }()

	for itemRows.Next() {
		var orderID string
		var item domain.OrderItem
		if err := itemRows.Scan(&orderID, &item.ProductID, &item.Name, &item.Image, &item.Quantity, &item.Price); err != nil {
			return nil, fmt.Errorf("scan order item: %w", err)
		}
		if order, ok := orderMap[orderID]; ok {
			order.Items = append(order.Items, item)
		}
	}

	if err := itemRows.Err(); err != nil {
		return nil, fmt.Errorf("list order items: %w", err)
	}

	orders := make([]domain.Order, 0, len(orderIDs))
	for _, id := range orderIDs {
		orders = append(orders, *orderMap[id])
	}

	return orders, nil
}

// MarkPaid flags the order paid at the given time and stores the receipt. Repeating it
// rewrites paid_at and the receipt.
func (r *OrderRepository) MarkPaid(ctx context.Context, id string, receipt domain.PaymentResult, at time.Time) (domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Order{}, apperror.NotFound("order not found")
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET
			is_paid = TRUE,
			paid_at = $2,
			payment_id = $3,
			payment_status = $4,
			payment_update_time = $5,
			payment_email_address = $6,
			updated_at = NOW()
		WHERE id = $1
	`, id, at, receipt.ID, receipt.Status, receipt.UpdateTime, receipt.EmailAddress)
	if err != nil {
		return domain.Order{}, fmt.Errorf("mark order paid: %w", err)
	}

	if err := requireAffected(result); err != nil {
		return domain.Order{}, err
	}

	return r.GetByID(ctx, id)
}

// MarkDelivered flags the order delivered at the given time. Payment fields are untouched.
func (r *OrderRepository) MarkDelivered(ctx context.Context, id string, at time.Time) (domain.Order, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Order{}, apperror.NotFound("order not found")
	}

	result, err := r.db.ExecContext(ctx, `
		UPDATE orders SET
			is_delivered = TRUE,
			delivered_at = $2,
			updated_at = NOW()
		WHERE id = $1
	`, id, at)
	if err != nil {
		return domain.Order{}, fmt.Errorf("mark order delivered: %w", err)
	}

	if err := requireAffected(result); err != nil {
		return domain.Order{}, err
	}

	return r.GetByID(ctx, id)
}

func requireAffected(result sql.Result) error {
	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rowsAffected == 0 {
		return apperror.NotFound("order not found")
	}
	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanOrder(row rowScanner) (domain.Order, error) {
	var (
		order       domain.Order
		paidAt      sql.NullTime
		deliveredAt sql.NullTime
		paymentID   sql.NullString
		payStatus   sql.NullString
		payUpdated  sql.NullString
		payEmail    sql.NullString
	)

	err := row.Scan(
		&order.ID, &order.User.ID, &order.User.Name, &order.User.Email,
		&order.ShippingAddress.Address, &order.ShippingAddress.City,
		&order.ShippingAddress.PostalCode, &order.ShippingAddress.Country,
		&order.PaymentMethod, &order.ItemsPrice, &order.ShippingPrice, &order.TaxPrice, &order.TotalPrice,
		&order.IsPaid, &paidAt, &paymentID, &payStatus, &payUpdated, &payEmail,
		&order.IsDelivered, &deliveredAt, &order.CreatedAt, &order.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Order{}, apperror.NotFound("order not found")
		}
		return domain.Order{}, fmt.Errorf("scan order: %w", err)
	}

	if paidAt.Valid {
		t := paidAt.Time
		order.PaidAt = &t
	}
	if deliveredAt.Valid {
		t := deliveredAt.Time
		order.DeliveredAt = &t
	}
	if paymentID.Valid {
		order.PaymentResult = &domain.PaymentResult{
			ID:           paymentID.String,
			Status:       payStatus.String,
			UpdateTime:   payUpdated.String,
			EmailAddress: payEmail.String,
		}
	}

	return order, nil
}
