// Package testutil provides in-memory stores and container helpers for tests.
package testutil

import (
	"context"
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/joao-fontenele/meyshop/internal/apperror"
	"github.com/joao-fontenele/meyshop/internal/domain"
)

// AccountStore is an in-memory account repository. Set FailWith to make every read and
// create fail.
type AccountStore struct {
	mu       sync.Mutex
	accounts map[string]domain.Account
	FailWith error
}

func NewAccountStore() *AccountStore {
	return &AccountStore{accounts: map[string]domain.Account{}}
}

func (s *AccountStore) Create(_ context.Context, account *domain.Account) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return s.FailWith
	}
	for _, a := range s.accounts {
		if a.Email == account.Email {
			return apperror.ErrDuplicateAccount
		}
	}

	account.ID = uuid.New().String()
	account.CreatedAt = time.Now().UTC()
	account.UpdatedAt = account.CreatedAt
	s.accounts[account.ID] = *account
	return nil
}

func (s *AccountStore) GetByID(_ context.Context, id string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return domain.Account{}, s.FailWith
	}
	a, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, apperror.NotFound("user not found")
	}
	return a, nil
}

func (s *AccountStore) GetByEmail(_ context.Context, email string) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return domain.Account{}, s.FailWith
	}
	for _, a := range s.accounts {
		if a.Email == email {
			return a, nil
		}
	}
	return domain.Account{}, apperror.NotFound("user not found")
}

func (s *AccountStore) List(_ context.Context) ([]domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailWith != nil {
		return nil, s.FailWith
	}
	out := make([]domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (s *AccountStore) Update(_ context.Context, id string, patch domain.AccountPatch) (domain.Account, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return domain.Account{}, apperror.NotFound("user not found")
	}
	if patch.Email != nil {
		for otherID, other := range s.accounts {
			if otherID != id && other.Email == *patch.Email {
				return domain.Account{}, apperror.ErrDuplicateAccount
			}
		}
		a.Email = *patch.Email
	}
	if patch.Name != nil {
		a.Name = *patch.Name
	}
	if patch.PasswordHash != nil {
		a.PasswordHash = *patch.PasswordHash
	}
	if patch.Role != nil {
		a.Role = *patch.Role
	}
	a.UpdatedAt = time.Now().UTC()
	s.accounts[id] = a
	return a, nil
}

func (s *AccountStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, ok := s.accounts[id]
	if !ok {
		return apperror.NotFound("user not found")
	}
	if a.Role.IsAdmin() {
		return apperror.ErrCannotDeleteAdmin
	}
	delete(s.accounts, id)
	return nil
}

// OrderStore is an in-memory order repository.
type OrderStore struct {
	mu     sync.Mutex
	orders map[string]domain.Order
}

func NewOrderStore() *OrderStore {
	return &OrderStore{orders: map[string]domain.Order{}}
}

func (s *OrderStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.orders)
}

func (s *OrderStore) Create(_ context.Context, order *domain.Order) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	order.ID = uuid.New().String()
	order.CreatedAt = time.Now().UTC()
	order.UpdatedAt = order.CreatedAt
	s.orders[order.ID] = *order
	return nil
}

func (s *OrderStore) GetByID(_ context.Context, id string) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, apperror.NotFound("order not found")
	}
	return o, nil
}

func (s *OrderStore) ListByOwner(_ context.Context, ownerID string) ([]domain.Order, error) {
	return s.filter(func(o domain.Order) bool { return o.OwnedBy(ownerID) }), nil
}

func (s *OrderStore) List(_ context.Context) ([]domain.Order, error) {
	return s.filter(func(domain.Order) bool { return true }), nil
}

func (s *OrderStore) filter(keep func(domain.Order) bool) []domain.Order {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := []domain.Order{}
	for _, o := range s.orders {
		if keep(o) {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func (s *OrderStore) MarkPaid(_ context.Context, id string, receipt domain.PaymentResult, at time.Time) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, apperror.NotFound("order not found")
	}
	o.IsPaid = true
	o.PaidAt = &at
	o.PaymentResult = &receipt
	s.orders[id] = o
	return o, nil
}

func (s *OrderStore) MarkDelivered(_ context.Context, id string, at time.Time) (domain.Order, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	o, ok := s.orders[id]
	if !ok {
		return domain.Order{}, apperror.NotFound("order not found")
	}
	o.IsDelivered = true
	o.DeliveredAt = &at
	s.orders[id] = o
	return o, nil
}

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return slog.New(slog.NewJSONHandler(io.Discard, nil))
}
