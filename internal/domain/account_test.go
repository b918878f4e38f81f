package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRole(t *testing.T) {
	tests := []struct {
		in      string
		want    Role
		wantErr bool
	}{
		{in: "standard", want: RoleStandard},
		{in: "admin", want: RoleAdministrator},
		{in: "root", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRole(tt.in)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRoleFromAdminFlag(t *testing.T) {
	assert.Equal(t, RoleAdministrator, RoleFromAdminFlag(true))
	assert.Equal(t, RoleStandard, RoleFromAdminFlag(false))
	assert.True(t, RoleAdministrator.IsAdmin())
	assert.False(t, RoleStandard.IsAdmin())
}

func TestAccount_PublicNeverCarriesHash(t *testing.T) {
	acct := Account{
		ID:           "a-1",
		Name:         "Jane Doe",
		Email:        "jane@example.com",
		PasswordHash: "$2a$10$secret",
		Role:         RoleAdministrator,
	}

	pub := acct.Public()
	assert.Equal(t, PublicAccount{ID: "a-1", Name: "Jane Doe", Email: "jane@example.com", IsAdmin: true}, pub)

	for _, v := range []any{acct, pub} {
		data, err := json.Marshal(v)
		require.NoError(t, err)
		assert.NotContains(t, string(data), "secret")
	}
}

func TestNormalizeEmail(t *testing.T) {
	assert.Equal(t, "jane@example.com", NormalizeEmail("  Jane@Example.COM "))
}

func TestAccountPatch_IsEmpty(t *testing.T) {
	assert.True(t, AccountPatch{}.IsEmpty())
	name := "x"
	assert.False(t, AccountPatch{Name: &name}.IsEmpty())
}
