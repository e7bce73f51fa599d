// internal/pkg/auth/auth_test.go
package auth

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/ammerola/stockledger-be/internal/core/domain"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testUser() *domain.User {
	return &domain.User{
		ID:        uuid.New(),
		FirstName: "Ada",
		LastName:  "Lovelace",
		Email:     "ada@example.com",
		Role:      domain.RoleAdmin,
		Enabled:   true,
	}
}

func TestJWTIssuer_IssueAndParse(t *testing.T) {
	issuer, err := NewJWTIssuer(testSecret, "stockledger", 2*time.Hour)
	require.NoError(t, err)
	user := testUser()

	token, issued, err := issuer.Issue(user)
	require.NoError(t, err)
	require.NotEmpty(t, token)
	assert.Equal(t, user.ID, issued.UserID)
	assert.NotEmpty(t, issued.TokenID)
	assert.WithinDuration(t, time.Now().Add(2*time.Hour), issued.ExpiresAt, 5*time.Second)

	parsed, err := issuer.Parse(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, parsed.UserID)
	assert.Equal(t, "Ada Lovelace", parsed.Name)
	assert.Equal(t, domain.RoleAdmin, parsed.Role)
	assert.Equal(t, issued.TokenID, parsed.TokenID)
	assert.True(t, issued.ExpiresAt.Equal(parsed.ExpiresAt))
}

func TestJWTIssuer_Parse_Rejects(t *testing.T) {
	issuer, err := NewJWTIssuer(testSecret, "stockledger", time.Hour)
	require.NoError(t, err)
	user := testUser()

	expiredIssuer, err := NewJWTIssuer(testSecret, "stockledger", time.Hour)
	require.NoError(t, err)
	expiredIssuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	expired, _, err := expiredIssuer.Issue(user)
	require.NoError(t, err)

	otherSecret, err := NewJWTIssuer("another-secret-another-secret-000", "stockledger", time.Hour)
	require.NoError(t, err)
	wrongSig, _, err := otherSecret.Issue(user)
	require.NoError(t, err)

	otherIssuer, err := NewJWTIssuer(testSecret, "someone-else", time.Hour)
	require.NoError(t, err)
	wrongIss, _, err := otherIssuer.Issue(user)
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"id":  user.ID.String(),
		"iss": "stockledger",
		"exp": time.Now().Add(time.Hour).Unix(),
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name  string
		token string
	}{
		{name: "garbage", token: "not-a-token"},
		{name: "expired", token: expired},
		{name: "wrong_signature", token: wrongSig},
		{name: "wrong_issuer", token: wrongIss},
		{name: "alg_none", token: none},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := issuer.Parse(tt.token)
			assert.ErrorIs(t, err, ErrInvalidToken)
		})
	}
}

func TestNewJWTIssuer_Validation(t *testing.T) {
	_, err := NewJWTIssuer("", "x", time.Hour)
	assert.Error(t, err)
	_, err = NewJWTIssuer(testSecret, "x", 0)
	assert.Error(t, err)
}

func TestBcryptHasher(t *testing.T) {
	hasher := NewBcryptHasher(bcrypt.MinCost)

	hash, err := hasher.Hash("secret-pass")
	require.NoError(t, err)
	assert.NotEqual(t, "secret-pass", hash)

	assert.NoError(t, hasher.Compare(hash, "secret-pass"))
	assert.Error(t, hasher.Compare(hash, "wrong-pass"))
	assert.Error(t, hasher.Compare("not-a-hash", "secret-pass"))
}

func TestNewBcryptHasher_ClampsCost(t *testing.T) {
	assert.Equal(t, bcrypt.DefaultCost, NewBcryptHasher(0).cost)
	assert.Equal(t, bcrypt.MaxCost, NewBcryptHasher(99).cost)
	assert.Equal(t, 12, NewBcryptHasher(12).cost)
}
