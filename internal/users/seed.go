package users

import (
	"context"
	"errors"
	"fmt"

	"github.com/joao-fontenele/meyshop/internal/apperror"
	"github.com/joao-fontenele/meyshop/internal/domain"
)

// SeedAccount is one account the seeder makes sure exists.
type SeedAccount struct {
	Name     string
	Email    string
	Password string
	Role     domain.Role
}

// Seed creates every account whose email is not taken yet and returns how many it
// created. Existing accounts are left untouched, so running it twice is harmless.
func (s *Service) Seed(ctx context.Context, accounts []SeedAccount) (int, error) {
	created := 0
	for _, a := range accounts {
		account, err := s.CreateAccount(ctx, a.Name, a.Email, a.Password, a.Role)
		if errors.Is(err, apperror.ErrDuplicateAccount) {
			s.logger.InfoContext(ctx, "seed account exists", "email", domain.NormalizeEmail(a.Email))
			continue
		}
		if err != nil {
			return created, fmt.Errorf("seed %s: %w", a.Email, err)
		}

		s.logger.InfoContext(ctx, "seed account created", "account_id", account.ID, "role", account.Role)
		created++
	}
	return created, nil
}
