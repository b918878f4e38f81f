// Package users issues credentials and administers shop accounts.
package users

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/mail"
	"strings"
	"time"

	"github.com/joao-fontenele/meyshop/internal/apperror"
	"github.com/joao-fontenele/meyshop/internal/auth"
	"github.com/joao-fontenele/meyshop/internal/domain"
	"github.com/joao-fontenele/meyshop/internal/telemetry"
)

// Repository is the account storage the service needs. AccountRepository implements it.
type Repository interface {
	Create(ctx context.Context, account *domain.Account) error
	GetByID(ctx context.Context, id string) (domain.Account, error)
	GetByEmail(ctx context.Context, email string) (domain.Account, error)
	List(ctx context.Context) ([]domain.Account, error)
	Update(ctx context.Context, id string, patch domain.AccountPatch) (domain.Account, error)
	Delete(ctx context.Context, id string) error
}

// Login outcomes recorded on shop.auth.logins.
const (
	outcomeSuccess = "success"
	outcomeFailure = "failure"
)

type Service struct {
	repo     Repository
	secret   []byte
	tokenTTL time.Duration
	metrics  *telemetry.ShopMetrics
	logger   *slog.Logger
}

func NewService(repo Repository, secret []byte, tokenTTL time.Duration, metrics *telemetry.ShopMetrics, logger *slog.Logger) *Service {
	if tokenTTL <= 0 {
		tokenTTL = auth.TokenTTL
	}

	return &Service{
		repo:     repo,
		secret:   secret,
		tokenTTL: tokenTTL,
		metrics:  metrics,
		logger:   logger,
	}
}

// TokenTTL is how long issued tokens, and the cookies carrying them, stay valid.
func (s *Service) TokenTTL() time.Duration {
	return s.tokenTTL
}

// Login checks the credentials and issues a token. Unknown emails and wrong passwords
// fail the same way.
func (s *Service) Login(ctx context.Context, email, password string) (domain.Account, string, error) {
	account, err := s.repo.GetByEmail(ctx, domain.NormalizeEmail(email))
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			s.metrics.RecordLogin(ctx, outcomeFailure)
			return domain.Account{}, "", apperror.ErrInvalidCredentials
		}
		return domain.Account{}, "", err
	}

	if !auth.CheckPassword(account.PasswordHash, password) {
		s.metrics.RecordLogin(ctx, outcomeFailure)
		return domain.Account{}, "", apperror.ErrInvalidCredentials
	}

	token, err := auth.GenerateToken(account.ID, s.secret, s.tokenTTL)
	if err != nil {
		return domain.Account{}, "", err
	}

	s.metrics.RecordLogin(ctx, outcomeSuccess)
	return account, token, nil
}

// Register creates a standard account and issues its first token.
func (s *Service) Register(ctx context.Context, name, email, password string) (domain.Account, string, error) {
	account, err := s.CreateAccount(ctx, name, email, password, domain.RoleStandard)
	if err != nil {
		return domain.Account{}, "", err
	}

	token, err := auth.GenerateToken(account.ID, s.secret, s.tokenTTL)
	if err != nil {
		return domain.Account{}, "", err
	}

	return account, token, nil
}

// CreateAccount validates and stores a new account with the given role. Registration
// always passes RoleStandard; the seeder is the only caller creating administrators.
func (s *Service) CreateAccount(ctx context.Context, name, email, password string, role domain.Role) (domain.Account, error) {
	name = strings.TrimSpace(name)
	email = domain.NormalizeEmail(email)

	if err := validateAccount(name, email, password); err != nil {
		return domain.Account{}, err
	}

	_, err := s.repo.GetByEmail(ctx, email)
	switch {
	case err == nil:
		return domain.Account{}, apperror.ErrDuplicateAccount
	case !errors.Is(err, apperror.ErrNotFound):
		return domain.Account{}, err
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return domain.Account{}, err
	}

	account := domain.Account{
		Name:         name,
		Email:        email,
		PasswordHash: hash,
		Role:         role,
	}
	if err := s.repo.Create(ctx, &account); err != nil {
		return domain.Account{}, err
	}

	s.logger.InfoContext(ctx, "account created", "account_id", account.ID, "role", account.Role)
	return account, nil
}

// GetAccount loads an account by id. It is the loader behind the authentication gate.
func (s *Service) GetAccount(ctx context.Context, id string) (domain.Account, error) {
	return s.repo.GetByID(ctx, id)
}

// ProfileUpdate is a self-service change. Empty fields keep their current value.
type ProfileUpdate struct {
	Name     string
	Email    string
	Password string
}

func (s *Service) UpdateProfile(ctx context.Context, id string, update ProfileUpdate) (domain.Account, error) {
	var patch domain.AccountPatch

	if name := strings.TrimSpace(update.Name); name != "" {
		patch.Name = &name
	}

	if update.Email != "" {
		email := domain.NormalizeEmail(update.Email)
		if !validEmail(email) {
			return domain.Account{}, apperror.InvalidAccount("invalid email address")
		}
		patch.Email = &email
	}

	if update.Password != "" {
		hash, err := auth.HashPassword(update.Password)
		if err != nil {
			return domain.Account{}, err
		}
		patch.PasswordHash = &hash
	}

	if patch.IsEmpty() {
		return s.repo.GetByID(ctx, id)
	}

	return s.repo.Update(ctx, id, patch)
}

func (s *Service) List(ctx context.Context) ([]domain.Account, error) {
	return s.repo.List(ctx)
}

// AdminUpdate is an administrator's change to another account. IsAdmin is always
// applied; an absent flag demotes the account.
type AdminUpdate struct {
	Name    string
	Email   string
	IsAdmin bool
}

func (s *Service) Update(ctx context.Context, id string, update AdminUpdate) (domain.Account, error) {
	role := domain.RoleFromAdminFlag(update.IsAdmin)
	patch := domain.AccountPatch{Role: &role}

	if name := strings.TrimSpace(update.Name); name != "" {
		patch.Name = &name
	}

	if update.Email != "" {
		email := domain.NormalizeEmail(update.Email)
		if !validEmail(email) {
			return domain.Account{}, apperror.InvalidAccount("invalid email address")
		}
		patch.Email = &email
	}

	account, err := s.repo.Update(ctx, id, patch)
	if err != nil {
		return domain.Account{}, err
	}

	s.logger.InfoContext(ctx, "account updated", "account_id", account.ID, "role", account.Role)
	return account, nil
}

// Delete removes a standard account. Administrators cannot be deleted.
func (s *Service) Delete(ctx context.Context, id string) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}

	s.logger.InfoContext(ctx, "account deleted", "account_id", id)
	return nil
}

func validateAccount(name, email, password string) error {
	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if email == "" {
		missing = append(missing, "email")
	}
	if password == "" {
		missing = append(missing, "password")
	}
	if len(missing) > 0 {
		return apperror.InvalidAccount(fmt.Sprintf("missing %s", strings.Join(missing, ", ")))
	}

	if !validEmail(email) {
		return apperror.InvalidAccount("invalid email address")
	}

	return nil
}

// validEmail accepts a bare address only, not the "Name <addr>" form.
func validEmail(email string) bool {
	addr, err := mail.ParseAddress(email)
	return err == nil && addr.Address == email
}
