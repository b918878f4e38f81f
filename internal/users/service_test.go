package users

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/joao-fontenele/meyshop/internal/apperror"
	"github.com/joao-fontenele/meyshop/internal/auth"
	"github.com/joao-fontenele/meyshop/internal/domain"
)

func TestService_Register(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepo())

	name := gofakeit.Name()
	email := gofakeit.Email()
	password := gofakeit.Password(true, true, true, false, false, 12)

	account, token, err := svc.Register(ctx, name, "  "+email+"  ", password)
	require.NoError(t, err)

	assert.Equal(t, name, account.Name)
	assert.Equal(t, domain.NormalizeEmail(email), account.Email)
	assert.Equal(t, domain.RoleStandard, account.Role)
	assert.NotEqual(t, password, account.PasswordHash)
	assert.True(t, auth.CheckPassword(account.PasswordHash, password))

	id, err := auth.ParseToken(token, testSecret)
	require.NoError(t, err)
	assert.Equal(t, account.ID, id)
}

func TestService_Register_Validation(t *testing.T) {
	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{name: "missing name", email: "a@example.com", password: "secret"},
		{name: "missing email", userName: "Ada", password: "secret"},
		{name: "missing password", userName: "Ada", email: "a@example.com"},
		{name: "malformed email", userName: "Ada", email: "not-an-email", password: "secret"},
		{name: "display name form", userName: "Ada", email: "Ada <a@example.com>", password: "secret"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := newTestService(newMemoryRepo())
			_, _, err := svc.Register(context.Background(), tt.userName, tt.email, tt.password)
			assert.ErrorIs(t, err, apperror.ErrInvalidAccount)
		})
	}
}

func TestService_Register_Duplicate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepo())

	_, _, err := svc.Register(ctx, "Ada", "ada@example.com", "secret")
	require.NoError(t, err)

	_, _, err = svc.Register(ctx, "Other Ada", "ADA@example.com", "different")
	assert.ErrorIs(t, err, apperror.ErrDuplicateAccount)
	assert.Equal(t, "user already exists", apperror.PublicMessage(err))
}

func TestService_Register_ConcurrentSameEmail(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepo())

	const attempts = 4
	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
	)

	for range attempts {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, _, err := svc.Register(ctx, "Ada", "race@example.com", "secret")
			if err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
				return
			}
			assert.ErrorIs(t, err, apperror.ErrDuplicateAccount)
		}()
	}
	wg.Wait()

	assert.Equal(t, 1, succeeded)
}

func TestService_Login(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepo())

	registered, _, err := svc.Register(ctx, "Ada", "ada@example.com", "correct horse")
	require.NoError(t, err)

	t.Run("valid credentials", func(t *testing.T) {
		account, token, err := svc.Login(ctx, "Ada@Example.com", "correct horse")
		require.NoError(t, err)
		assert.Equal(t, registered.ID, account.ID)

		id, err := auth.ParseToken(token, testSecret)
		require.NoError(t, err)
		assert.Equal(t, registered.ID, id)
	})

	t.Run("wrong password", func(t *testing.T) {
		_, token, err := svc.Login(ctx, "ada@example.com", "battery staple")
		assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
		assert.Empty(t, token)
	})

	t.Run("unknown email", func(t *testing.T) {
		_, _, err := svc.Login(ctx, "nobody@example.com", "correct horse")
		assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
	})

	t.Run("storage failure is not a credential error", func(t *testing.T) {
		repo := newMemoryRepo()
		repo.FailWith = errors.New("connection reset")
		failing := newTestService(repo)

		_, _, err := failing.Login(ctx, "ada@example.com", "correct horse")
		require.Error(t, err)
		assert.Equal(t, apperror.CodeInternal, apperror.CodeOf(err))
	})
}

func TestService_UpdateProfile(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepo())

	account, _, err := svc.Register(ctx, "Ada", "ada@example.com", "old-password")
	require.NoError(t, err)
	oldHash := account.PasswordHash

	t.Run("empty update keeps everything", func(t *testing.T) {
		got, err := svc.UpdateProfile(ctx, account.ID, ProfileUpdate{})
		require.NoError(t, err)
		assert.Equal(t, "Ada", got.Name)
		assert.Equal(t, oldHash, got.PasswordHash)
	})

	t.Run("name and password", func(t *testing.T) {
		got, err := svc.UpdateProfile(ctx, account.ID, ProfileUpdate{Name: "Ada Lovelace", Password: "new-password"})
		require.NoError(t, err)
		assert.Equal(t, "Ada Lovelace", got.Name)
		assert.Equal(t, "ada@example.com", got.Email)
		assert.True(t, auth.CheckPassword(got.PasswordHash, "new-password"))
		assert.False(t, auth.CheckPassword(got.PasswordHash, "old-password"))
	})

	t.Run("email taken by someone else", func(t *testing.T) {
		_, _, err := svc.Register(ctx, "Bob", "bob@example.com", "secret")
		require.NoError(t, err)

		_, err = svc.UpdateProfile(ctx, account.ID, ProfileUpdate{Email: "bob@example.com"})
		assert.ErrorIs(t, err, apperror.ErrDuplicateAccount)
	})

	t.Run("malformed email", func(t *testing.T) {
		_, err := svc.UpdateProfile(ctx, account.ID, ProfileUpdate{Email: "nope"})
		assert.ErrorIs(t, err, apperror.ErrInvalidAccount)
	})
}

func TestService_AdminUpdate(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepo())

	account, _, err := svc.Register(ctx, "Ada", "ada@example.com", "secret")
	require.NoError(t, err)

	promoted, err := svc.Update(ctx, account.ID, AdminUpdate{IsAdmin: true})
	require.NoError(t, err)
	assert.True(t, promoted.Role.IsAdmin())
	assert.Equal(t, "Ada", promoted.Name)

	demoted, err := svc.Update(ctx, account.ID, AdminUpdate{Name: "Ada L."})
	require.NoError(t, err)
	assert.False(t, demoted.Role.IsAdmin())
	assert.Equal(t, "Ada L.", demoted.Name)

	_, err = svc.Update(ctx, "missing", AdminUpdate{})
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestService_Delete(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(newMemoryRepo())

	admin, err := svc.CreateAccount(ctx, "Root", "root@example.com", "secret", domain.RoleAdministrator)
	require.NoError(t, err)
	standard, _, err := svc.Register(ctx, "Ada", "ada@example.com", "secret")
	require.NoError(t, err)

	err = svc.Delete(ctx, admin.ID)
	assert.ErrorIs(t, err, apperror.ErrCannotDeleteAdmin)

	require.NoError(t, svc.Delete(ctx, standard.ID))

	_, err = svc.GetAccount(ctx, standard.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)

	err = svc.Delete(ctx, standard.ID)
	assert.ErrorIs(t, err, apperror.ErrNotFound)
}

func TestService_Delete_PromotedAccountIsKept(t *testing.T) {
	ctx := context.Background()
	repo := newMemoryRepo()
	svc := newTestService(repo)

	account, _, err := svc.Register(ctx, "Ada", "ada@example.com", "secret")
	require.NoError(t, err)

	_, err = svc.Update(ctx, account.ID, AdminUpdate{IsAdmin: true})
	require.NoError(t, err)

	err = svc.Delete(ctx, account.ID)
	assert.ErrorIs(t, err, apperror.ErrCannotDeleteAdmin)

	_, err = repo.GetByID(ctx, account.ID)
	assert.NoError(t, err)
}
