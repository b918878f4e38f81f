//go:build integration

package storage_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/meyshop/internal/apperror"
	"github.com/joao-fontenele/meyshop/internal/domain"
	"github.com/joao-fontenele/meyshop/internal/orders"
	"github.com/joao-fontenele/meyshop/internal/storage"
	"github.com/joao-fontenele/meyshop/internal/testutil"
	"github.com/joao-fontenele/meyshop/internal/users"
)

func connect(t *testing.T) *storage.Store {
	t.Helper()

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Minute)
	t.Cleanup(cancel)

	store, err := storage.Connect(ctx, testutil.SetupPostgres(ctx, t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	return store
}

func TestPostgres_AccountsAndOrders(t *testing.T) {
	store := connect(t)
	ctx := context.Background()

	accounts := users.NewAccountRepository(store.DB)
	repo := orders.NewOrderRepository(store.DB)

	owner := domain.Account{Name: "Ada", Email: "ada@example.com", PasswordHash: "hash", Role: domain.RoleStandard}
	require.NoError(t, accounts.Create(ctx, &owner))

	dup := domain.Account{Name: "Ada 2", Email: "ada@example.com", PasswordHash: "hash", Role: domain.RoleStandard}
	assert.ErrorIs(t, accounts.Create(ctx, &dup), apperror.ErrDuplicateAccount)

	order := domain.Order{
		User: domain.OrderOwner{ID: owner.ID},
		Items: []domain.OrderItem{
			{ProductID: "p1", Name: "Mouse", Quantity: 2, Price: decimal.NewFromInt(10)},
			{ProductID: "p2", Name: "Pad", Quantity: 1, Price: decimal.NewFromInt(5)},
		},
		ShippingAddress: domain.ShippingAddress{Address: "1 Main St", City: "Springfield", PostalCode: "12345", Country: "US"},
		PaymentMethod:   "PayPal",
		Prices: domain.Prices{
			ItemsPrice:    decimal.NewFromInt(25),
			ShippingPrice: decimal.NewFromInt(5),
			TaxPrice:      decimal.NewFromInt(2),
			TotalPrice:    decimal.NewFromInt(47),
		},
	}
	require.NoError(t, repo.Create(ctx, &order))

	got, err := repo.GetByID(ctx, order.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada", got.User.Name)
	assert.True(t, got.TotalPrice.Equal(decimal.NewFromInt(47)))
	require.Len(t, got.Items, 2)
	assert.Equal(t, "Mouse", got.Items[0].Name)
	assert.False(t, got.IsPaid)
	assert.Nil(t, got.PaidAt)

	paidAt := time.Now().UTC().Truncate(time.Millisecond)
	paid, err := repo.MarkPaid(ctx, order.ID, domain.PaymentResult{ID: "PAY-1", Status: "COMPLETED"}, paidAt)
	require.NoError(t, err)
	assert.True(t, paid.IsPaid)
	require.NotNil(t, paid.PaidAt)
	assert.True(t, paidAt.Equal(*paid.PaidAt))
	require.NotNil(t, paid.PaymentResult)
	assert.Equal(t, "PAY-1", paid.PaymentResult.ID)

	delivered, err := repo.MarkDelivered(ctx, order.ID, paidAt.Add(time.Hour))
	require.NoError(t, err)
	assert.True(t, delivered.IsDelivered)
	assert.True(t, delivered.IsPaid)

	mine, err := repo.ListByOwner(ctx, owner.ID)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	all, err := repo.List(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Len(t, all[0].Items, 2)

	_, err = repo.GetByID(ctx, "3f0c1d2e-0000-4000-8000-000000000000")
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestPostgres_PaidCheckConstraint(t *testing.T) {
	store := connect(t)
	ctx := context.Background()

	_, err := store.DB.ExecContext(ctx, `
		INSERT INTO orders (id, user_id, shipping_address, shipping_city, shipping_postal_code,
			shipping_country, payment_method, is_paid)
		VALUES (gen_random_uuid(), gen_random_uuid(), 'a', 'b', 'c', 'd', 'PayPal', TRUE)
	`)
	assert.Error(t, err, "is_paid without paid_at must be rejected")
}

func TestPostgres_ConcurrentRegistration(t *testing.T) {
	store := connect(t)
	ctx := context.Background()

	svc := users.NewService(users.NewAccountRepository(store.DB), []byte("secret"), 0, nil, testutil.DiscardLogger())

	const attempts = 5
	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		success int
		dupes   int
	)

	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.Register(ctx, "Ada", "race@example.com", "secret")

			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				success++
			case apperror.CodeOf(err) == apperror.CodeDuplicateAccount:
				dupes++
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, success)
	assert.Equal(t, attempts-1, dupes)
}
