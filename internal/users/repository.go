package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/joao-fontenele/meyshop/internal/apperror"
	"github.com/joao-fontenele/meyshop/internal/domain"
	"github.com/joao-fontenele/meyshop/internal/storage"
)

const emailConstraint = "users_email_key"

const accountColumns = `id, name, email, password_hash, role, created_at, updated_at`

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// Create inserts account and fills in its ID and timestamps.
func (r *AccountRepository) Create(ctx context.Context, account *domain.Account) error {
	account.ID = uuid.New().String()

	err := r.db.QueryRowContext(ctx, `
		INSERT INTO users (id, name, email, password_hash, role)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING created_at, updated_at
	`, account.ID, account.Name, account.Email, account.PasswordHash, string(account.Role)).
		Scan(&account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if storage.IsUniqueViolation(err, emailConstraint) {
			return apperror.ErrDuplicateAccount
		}
		return fmt.Errorf("insert account: %w", err)
	}

	return nil
}

func (r *AccountRepository) GetByID(ctx context.Context, id string) (domain.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Account{}, apperror.NotFound("user not found")
	}

	row := r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM users
		WHERE id = $1
	`, id)

	return scanAccount(row)
}

func (r *AccountRepository) GetByEmail(ctx context.Context, email string) (domain.Account, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT `+accountColumns+`
		FROM users
		WHERE email = $1
	`, email)

	return scanAccount(row)
}

func (r *AccountRepository) List(ctx context.Context) ([]domain.Account, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT `+accountColumns+`
		FROM users
		ORDER BY created_at
	`)
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	defer func() { _ = rows.Close() }()

	accounts := []domain.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}

	return accounts, nil
}

// Update applies the non-nil fields of patch in a single statement and returns the
// stored result.
func (r *AccountRepository) Update(ctx context.Context, id string, patch domain.AccountPatch) (domain.Account, error) {
	if _, err := uuid.Parse(id); err != nil {
		return domain.Account{}, apperror.NotFound("user not found")
	}

	var role sql.NullString
	if patch.Role != nil {
		role = sql.NullString{String: string(*patch.Role), Valid: true}
	}

	row := r.db.QueryRowContext(ctx, `
		UPDATE users SET
			name = COALESCE($2, name),
			email = COALESCE($3, email),
			password_hash = COALESCE($4, password_hash),
			role = COALESCE($5, role),
			updated_at = NOW()
		WHERE id = $1
		RETURNING `+accountColumns,
		id, nullString(patch.Name), nullString(patch.Email), nullString(patch.PasswordHash), role)

	account, err := scanAccount(row)
	if storage.IsUniqueViolation(err, emailConstraint) {
		return domain.Account{}, apperror.ErrDuplicateAccount
	}
	return account, err
}

// Delete removes a standard account. The role check is part of the DELETE itself, so an
// account promoted concurrently is never removed.
func (r *AccountRepository) Delete(ctx context.Context, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return apperror.NotFound("user not found")
	}

	result, err := r.db.ExecContext(ctx,
		`DELETE FROM users WHERE id = $1 AND role <> $2`,
		id, string(domain.RoleAdministrator),
	)
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if affected > 0 {
		return nil
	}

	var exists bool
	if err := r.db.QueryRowContext(ctx, `SELECT EXISTS (SELECT 1 FROM users WHERE id = $1)`, id).Scan(&exists); err != nil {
		return fmt.Errorf("delete account: %w", err)
	}
	if exists {
		return apperror.ErrCannotDeleteAdmin
	}
	return apperror.NotFound("user not found")
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanAccount(row rowScanner) (domain.Account, error) {
	var (
		account domain.Account
		role    string
	)

	err := row.Scan(&account.ID, &account.Name, &account.Email, &account.PasswordHash,
		&role, &account.CreatedAt, &account.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.Account{}, apperror.NotFound("user not found")
		}
		return domain.Account{}, fmt.Errorf("scan account: %w", err)
	}

	account.Role, err = domain.ParseRole(role)
	if err != nil {
		return domain.Account{}, fmt.Errorf("account %s: %w", account.ID, err)
	}

	return account, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
