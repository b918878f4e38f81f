package domain

import (
	"errors"
	"strings"
	"time"
)

// Role is the authorization level of an account.
type Role string

const (
	RoleStandard      Role = "standard"
	RoleAdministrator Role = "admin"
)

var validRoles = map[Role]struct{}{
	RoleStandard:      {},
	RoleAdministrator: {},
}

func ParseRole(s string) (Role, error) {
	role := Role(s)
	if _, ok := validRoles[role]; ok {
		return role, nil
	}

	return "", errors.New("invalid role")
}

func (r Role) IsAdmin() bool {
	return r == RoleAdministrator
}

// RoleFromAdminFlag maps the isAdmin flag used on the wire to a Role.
func RoleFromAdminFlag(isAdmin bool) Role {
	if isAdmin {
		return RoleAdministrator
	}
	return RoleStandard
}

type Account struct {
	ID           string    `json:"_id"`
	Name         string    `json:"name"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         Role      `json:"role"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// PublicAccount is the only account shape that leaves the process.
type PublicAccount struct {
	ID      string `json:"_id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	IsAdmin bool   `json:"isAdmin"`
}

func (a Account) Public() PublicAccount {
	return PublicAccount{
		ID:      a.ID,
		Name:    a.Name,
		Email:   a.Email,
		IsAdmin: a.Role.IsAdmin(),
	}
}

// AccountPatch lists the fields an update may change. Nil fields are left as they are.
// PasswordHash carries an already hashed password, never plaintext.
type AccountPatch struct {
	Name         *string
	Email        *string
	PasswordHash *string
	Role         *Role
}

func (p AccountPatch) IsEmpty() bool {
	return p.Name == nil && p.Email == nil && p.PasswordHash == nil && p.Role == nil
}

func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
