package auth

import (
	"encoding/base64"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var tokenSecret = []byte("token-secret")

func signClaims(t *testing.T, method jwt.SigningMethod, key any, claims Claims) string {
	t.Helper()

	signed, err := jwt.NewWithClaims(method, claims).SignedString(key)
	require.NoError(t, err)
	return signed
}

func TestToken_RoundTrip(t *testing.T) {
	issued, err := GenerateToken("6f1c8c9e-7a0b-4a52-9d2b-1f0e6c1a2b3c", tokenSecret, TokenTTL)
	require.NoError(t, err)

	accountID, err := ParseToken(issued, tokenSecret)
	require.NoError(t, err)
	assert.Equal(t, "6f1c8c9e-7a0b-4a52-9d2b-1f0e6c1a2b3c", accountID)

	claims := &Claims{}
	_, _, err = jwt.NewParser().ParseUnverified(issued, claims)
	require.NoError(t, err)
	assert.Equal(t, accountID, claims.Subject)
	assert.WithinDuration(t, time.Now().Add(30*24*time.Hour), claims.ExpiresAt.Time, time.Minute)
}

func TestParseToken_Expired(t *testing.T) {
	issued, err := GenerateToken("account-1", tokenSecret, -time.Second)
	require.NoError(t, err)

	_, err = ParseToken(issued, tokenSecret)
	assert.ErrorIs(t, err, ErrTokenExpired)
	assert.NotErrorIs(t, err, ErrInvalidToken)
}

func TestParseToken_Rejects(t *testing.T) {
	valid, err := GenerateToken("account-1", tokenSecret, time.Hour)
	require.NoError(t, err)

	parts := strings.Split(valid, ".")
	forged := base64.RawURLEncoding.EncodeToString([]byte(`{"userId":"account-2","exp":4102444800}`))
	tampered := parts[0] + "." + forged + "." + parts[2]

	inAnHour := jwt.NewNumericDate(time.Now().Add(time.Hour))

	tests := []struct {
		name  string
		token func(t *testing.T) string
	}{
		{name: "empty", token: func(*testing.T) string { return "" }},
		{name: "garbage", token: func(*testing.T) string { return "garbage" }},
		{name: "three dotted segments", token: func(*testing.T) string { return "not.a.jwt" }},
		{name: "tampered payload", token: func(*testing.T) string { return tampered }},
		{name: "wrong secret", token: func(t *testing.T) string {
			return signClaims(t, jwt.SigningMethodHS256, []byte("other-secret"),
				Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: inAnHour}, UserID: "account-1"})
		}},
		{name: "other algorithm", token: func(t *testing.T) string {
			return signClaims(t, jwt.SigningMethodHS512, tokenSecret,
				Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: inAnHour}, UserID: "account-1"})
		}},
		{name: "unsigned", token: func(t *testing.T) string {
			return signClaims(t, jwt.SigningMethodNone, jwt.UnsafeAllowNoneSignatureType,
				Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: inAnHour}, UserID: "account-1"})
		}},
		{name: "no expiry", token: func(t *testing.T) string {
			return signClaims(t, jwt.SigningMethodHS256, tokenSecret, Claims{UserID: "account-1"})
		}},
		{name: "no account", token: func(t *testing.T) string {
			return signClaims(t, jwt.SigningMethodHS256, tokenSecret,
				Claims{RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: inAnHour}})
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			accountID, err := ParseToken(tt.token(t), tokenSecret)
			assert.ErrorIs(t, err, ErrInvalidToken)
			assert.Empty(t, accountID)
		})
	}
}
